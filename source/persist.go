package source

import (
	databind "github.com/reoring/databind"
	"github.com/reoring/databind/storage"
)

// AttachStore makes the source persist its encoded object under key
// after every successful write and wholesale assignment. A nil store
// detaches.
func (s *DataSource) AttachStore(store *storage.Store, key string) {
	s.store = store
	s.storeKey = key
}

// RestoreFromStore loads the snapshot saved under the attached key and
// applies it wholesale, re-synchronizing every bound element. It returns
// storage.ErrNoSnapshot when nothing has been saved yet.
func (s *DataSource) RestoreFromStore() error {
	if s.store == nil {
		return databind.NewSourceError(s.name, "restore", "", "no store attached")
	}
	obj, err := s.store.LoadObject(s.storeKey)
	if err != nil {
		return err
	}
	return s.instance.SetObject(obj)
}

// persist saves the current object when a store is attached. Save
// failures are logged and never surface into the write that caused them.
func (s *DataSource) persist() {
	if s.store == nil {
		return
	}
	if err := s.store.SaveObject(s.storeKey, s.instance.EncodeObject()); err != nil {
		s.log.Warningf("%s: snapshot save failed: %v", s.name, err)
	}
}
