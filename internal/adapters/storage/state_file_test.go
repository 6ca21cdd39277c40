package storage

import "testing"

func TestFileStateStoreMissingFile(t *testing.T) {
	store := NewFileStateStore(t.TempDir())
	id, err := store.LastMessageID()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "" {
		t.Fatalf("expected empty id for a fresh store, got %q", id)
	}
}

func TestFileStateStoreRoundTrip(t *testing.T) {
	store := NewFileStateStore(t.TempDir())
	if err := store.SaveMessageID("12345"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	id, err := store.LastMessageID()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "12345" {
		t.Fatalf("expected 12345, got %q", id)
	}

	if err := store.SaveMessageID("678"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	id, _ = store.LastMessageID()
	if id != "678" {
		t.Fatalf("expected the id to be overwritten, got %q", id)
	}
}
