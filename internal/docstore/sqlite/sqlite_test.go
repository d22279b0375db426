package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/mmynk/wishlist/internal/docstore"
	"github.com/mmynk/wishlist/internal/docstore/storetest"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	// Create temp directory for test database
	tempDir, err := os.MkdirTemp("", "wishlist-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) docstore.Store {
		return newTestStore(t)
	})
}

func TestSQLiteStoreReopen(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "wishlist-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	dbPath := filepath.Join(tempDir, "nested", "test.db")
	ctx := context.Background()

	store, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	id, err := store.Add(ctx, "wishlistItems", docstore.Document{"user": "u1", "title": "Lamp"})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	store.Close()

	reopened, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to reopen store: %v", err)
	}
	defer reopened.Close()

	snap, err := reopened.Get(ctx, "wishlistItems", id)
	if err != nil {
		t.Fatalf("Get after reopen failed: %v", err)
	}
	if snap.Data["title"] != "Lamp" {
		t.Errorf("title: expected 'Lamp', got '%v'", snap.Data["title"])
	}
}

func TestSQLiteSetKeepsCreationOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Set(ctx, "users", "a", docstore.Document{"n": 1}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := store.Set(ctx, "users", "b", docstore.Document{"n": 2}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	// Replacing "a" must not move it behind "b".
	if err := store.Set(ctx, "users", "a", docstore.Document{"n": 3}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	snaps, err := store.Find(ctx, docstore.Query{Collection: "users"})
	if err != nil {
		t.Fatalf("Find failed: %v", err)
	}
	if len(snaps) != 2 || snaps[0].ID != "a" || snaps[1].ID != "b" {
		t.Fatalf("unexpected order: %+v", snaps)
	}
	if snaps[0].Data["n"] != float64(3) {
		t.Errorf("n: expected 3, got %v", snaps[0].Data["n"])
	}
}
