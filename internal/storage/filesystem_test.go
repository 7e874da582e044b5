package storage

import (
	"context"
	"errors"
	"testing"
)

func TestFileStoreRoundTrip(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	ctx := context.Background()

	key, err := store.Write(ctx, "uploads/job-1/input.png", []byte("payload"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if key != "uploads/job-1/input.png" {
		t.Fatalf("key mismatch: %q", key)
	}

	data, err := store.Read(ctx, key)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(data) != "payload" {
		t.Fatalf("data mismatch: %q", data)
	}

	if err := store.Remove(ctx, key); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := store.Read(ctx, key); !errors.Is(err, ErrObjectNotFound) {
		t.Fatalf("expected ErrObjectNotFound, got %v", err)
	}
	// Removing twice is not an error.
	if err := store.Remove(ctx, key); err != nil {
		t.Fatalf("second Remove: %v", err)
	}
}

func TestFileStoreRejectsTraversal(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	ctx := context.Background()

	for _, key := range []string{"", ".", "../escape", "a/../../escape"} {
		if _, err := store.Write(ctx, key, []byte("x")); err == nil {
			t.Fatalf("expected error for key %q", key)
		}
		if _, err := store.Read(ctx, key); err == nil {
			t.Fatalf("expected read error for key %q", key)
		}
	}
}

func TestFileStoreNormalizesKeys(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	key, err := store.Write(context.Background(), "./uploads//job-1/input.png", []byte("x"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if key != "uploads/job-1/input.png" {
		t.Fatalf("key mismatch: %q", key)
	}
}
