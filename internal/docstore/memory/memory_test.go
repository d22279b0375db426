package memory

import (
	"testing"

	"github.com/mmynk/wishlist/internal/docstore"
	"github.com/mmynk/wishlist/internal/docstore/storetest"
)

func TestMemoryStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) docstore.Store {
		store := New()
		t.Cleanup(func() { store.Close() })
		return store
	})
}
