// Package storage persists model snapshots in a bbolt file: one bucket
// of key to encoded object. Sources attach a store to survive restarts;
// nothing here knows about classes or bindings, only plain object trees.
package storage

import (
	"errors"
	"time"

	json "github.com/goccy/go-json"
	bolt "go.etcd.io/bbolt"

	"github.com/reoring/databind/logging"
)

// ErrNoSnapshot is returned by LoadObject when nothing is stored under
// the key.
var ErrNoSnapshot = errors.New("no such snapshot")

const bucketSnapshots = "snapshots"

// Options configures Open.
type Options struct {
	// Timeout bounds the wait for the file lock. Zero waits forever.
	Timeout time.Duration
	Logger  *logging.Logger
}

// Store is a bbolt-backed snapshot store.
type Store struct {
	db  *bolt.DB
	log *logging.Logger
}

// Open opens or creates the store file at path.
func Open(path string, opts *Options) (*Store, error) {
	var o Options
	if opts != nil {
		o = *opts
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: o.Timeout})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketSnapshots))
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, log: o.Logger}, nil
}

// Close releases the store file.
func (s *Store) Close() error { return s.db.Close() }

// SaveObject encodes obj and stores it under key, replacing any previous
// snapshot.
func (s *Store) SaveObject(key string, obj map[string]any) error {
	data, err := json.Marshal(obj)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketSnapshots))
		return b.Put([]byte(key), data)
	})
}

// LoadObject decodes the snapshot stored under key. It returns
// ErrNoSnapshot when nothing is stored there.
func (s *Store) LoadObject(key string) (map[string]any, error) {
	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketSnapshots))
		v := b.Get([]byte(key))
		if v == nil {
			return ErrNoSnapshot
		}
		data = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, err
	}
	return obj, nil
}

// Delete drops the snapshot under key. Deleting a missing key is a
// no-op.
func (s *Store) Delete(key string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketSnapshots))
		return b.Delete([]byte(key))
	})
}

// Keys lists the stored snapshot keys in byte order.
func (s *Store) Keys() ([]string, error) {
	var keys []string
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketSnapshots))
		return b.ForEach(func(k, _ []byte) error {
			keys = append(keys, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}
