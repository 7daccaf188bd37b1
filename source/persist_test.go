package source_test

import (
	"errors"
	"path/filepath"
	"testing"

	databind "github.com/reoring/databind"
	"github.com/reoring/databind/storage"
)

func newTempStore(t *testing.T) *storage.Store {
	t.Helper()
	st, err := storage.Open(filepath.Join(t.TempDir(), "snapshots.db"), nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestAttachStorePersistsWrites(t *testing.T) {
	st := newTempStore(t)
	s := newContactSource(t, nil)
	s.AttachStore(st, "contact")

	if err := s.SetValue("name", "Mia"); err != nil {
		t.Fatalf("SetValue: %v", err)
	}

	obj, err := st.LoadObject("contact")
	if err != nil {
		t.Fatalf("LoadObject: %v", err)
	}
	if obj["name"] != "Mia" {
		t.Fatalf("snapshot name = %v, want the written value", obj["name"])
	}
}

func TestRestoreFromStoreReappliesSnapshot(t *testing.T) {
	st := newTempStore(t)
	s := newContactSource(t, nil)
	el := newFakeElement("name")
	if err := s.Bind(el); err != nil {
		t.Fatalf("Bind: %v", err)
	}

	s.AttachStore(st, "contact")
	if err := s.SetValue("name", "Mia"); err != nil {
		t.Fatalf("SetValue: %v", err)
	}

	// Writes made while detached never reach the snapshot.
	s.AttachStore(nil, "")
	if err := s.SetValue("name", "Zoe"); err != nil {
		t.Fatalf("SetValue: %v", err)
	}

	s.AttachStore(st, "contact")
	if err := s.RestoreFromStore(); err != nil {
		t.Fatalf("RestoreFromStore: %v", err)
	}
	if v, _ := s.Value("name"); v != "Mia" {
		t.Fatalf("model name = %v, want the persisted value", v)
	}
	if el.value != "Mia" {
		t.Fatalf("element shows %v, want the restored value", el.value)
	}
}

func TestRestoreWithoutStoreFails(t *testing.T) {
	s := newContactSource(t, nil)
	err := s.RestoreFromStore()
	var se *databind.SourceError
	if !errors.As(err, &se) {
		t.Fatalf("want SourceError, got %v", err)
	}
}

func TestRestoreMissingSnapshot(t *testing.T) {
	st := newTempStore(t)
	s := newContactSource(t, nil)
	s.AttachStore(st, "contact")
	if err := s.RestoreFromStore(); !errors.Is(err, storage.ErrNoSnapshot) {
		t.Fatalf("got %v, want ErrNoSnapshot", err)
	}
}
