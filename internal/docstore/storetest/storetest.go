// Package storetest holds the behavior every docstore.Store backend must share.
// Backend test files call Run with a constructor for a fresh, empty store.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/wishlist/internal/docstore"
)

// Run exercises newStore against the docstore.Store contract.
func Run(t *testing.T, newStore func(t *testing.T) docstore.Store) {
	t.Helper()

	t.Run("Get missing returns ErrNotFound", func(t *testing.T) {
		store := newStore(t)
		_, err := store.Get(context.Background(), "things", "nope")
		assert.ErrorIs(t, err, docstore.ErrNotFound)
	})

	t.Run("Add assigns ID and round-trips", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		id, err := store.Add(ctx, "things", docstore.Document{
			"title": "Lamp",
			"count": 2,
			"tags":  []string{"a", "b"},
			"when":  time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		})
		require.NoError(t, err)
		require.NotEmpty(t, id)

		snap, err := store.Get(ctx, "things", id)
		require.NoError(t, err)
		assert.Equal(t, id, snap.ID)
		assert.Equal(t, "Lamp", snap.Data["title"])
		assert.Equal(t, float64(2), snap.Data["count"])
		assert.Equal(t, []any{"a", "b"}, snap.Data["tags"])
		assert.Equal(t, "2025-01-02T03:04:05Z", snap.Data["when"])
	})

	t.Run("Find filters and keeps creation order", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		var want []string
		for _, title := range []string{"one", "two", "three"} {
			id, err := store.Add(ctx, "items", docstore.Document{"user": "u1", "title": title})
			require.NoError(t, err)
			want = append(want, id)
			_, err = store.Add(ctx, "items", docstore.Document{"user": "u2", "title": title})
			require.NoError(t, err)
		}

		snaps, err := store.Find(ctx, docstore.Query{Collection: "items", Field: "user", Value: "u1"})
		require.NoError(t, err)
		var got []string
		for _, s := range snaps {
			got = append(got, s.ID)
			assert.Equal(t, "u1", s.Data["user"])
		}
		assert.Equal(t, want, got)

		all, err := store.Find(ctx, docstore.Query{Collection: "items"})
		require.NoError(t, err)
		assert.Len(t, all, 6)

		none, err := store.Find(ctx, docstore.Query{Collection: "items", Field: "user", Value: "nobody"})
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("Find rejects unsafe field names", func(t *testing.T) {
		store := newStore(t)
		_, err := store.Find(context.Background(), docstore.Query{Collection: "items", Field: "user') OR 1=1 --", Value: "x"})
		assert.ErrorIs(t, err, docstore.ErrInvalidField)
	})

	t.Run("Set replaces and Update merges", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		require.NoError(t, store.Set(ctx, "users", "u1", docstore.Document{"uid": "u1", "username": "ann", "email": "a@example.com"}))
		require.NoError(t, store.Update(ctx, "users", "u1", docstore.Document{"username": "annie"}))

		snap, err := store.Get(ctx, "users", "u1")
		require.NoError(t, err)
		assert.Equal(t, "annie", snap.Data["username"])
		assert.Equal(t, "a@example.com", snap.Data["email"])

		require.NoError(t, store.Set(ctx, "users", "u1", docstore.Document{"uid": "u1"}))
		snap, err = store.Get(ctx, "users", "u1")
		require.NoError(t, err)
		assert.NotContains(t, snap.Data, "username")
	})

	t.Run("Update missing returns ErrNotFound", func(t *testing.T) {
		store := newStore(t)
		err := store.Update(context.Background(), "users", "ghost", docstore.Document{"username": "x"})
		assert.ErrorIs(t, err, docstore.ErrNotFound)
	})

	t.Run("Delete removes and tolerates missing", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		id, err := store.Add(ctx, "items", docstore.Document{"title": "gone"})
		require.NoError(t, err)
		require.NoError(t, store.Delete(ctx, "items", id))

		_, err = store.Get(ctx, "items", id)
		assert.ErrorIs(t, err, docstore.ErrNotFound)
		assert.NoError(t, store.Delete(ctx, "items", id))
	})

	t.Run("Listen signals writes", func(t *testing.T) {
		store := newStore(t)
		ctx, cancel := context.WithCancel(context.Background())

		changes, err := store.Listen(ctx, "items")
		require.NoError(t, err)

		_, err = store.Add(context.Background(), "items", docstore.Document{"title": "x"})
		require.NoError(t, err)

		select {
		case c := <-changes:
			assert.Equal(t, "items", c.Collection)
		case <-time.After(5 * time.Second):
			t.Fatal("no change signal")
		}

		cancel()
		require.Eventually(t, func() bool {
			select {
			case _, ok := <-changes:
				return !ok
			default:
				return false
			}
		}, 5*time.Second, 10*time.Millisecond)
	})

	t.Run("WatchQuery publishes full replacements", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		w := docstore.WatchQuery(ctx, store, docstore.Query{Collection: "items", Field: "user", Value: "u1"})
		defer w.Close()

		first := Next(t, w.C())
		assert.Empty(t, first)

		id, err := store.Add(ctx, "items", docstore.Document{"user": "u1", "title": "Lamp"})
		require.NoError(t, err)

		second := Next(t, w.C())
		require.Len(t, second, 1)
		assert.Equal(t, id, second[0].ID)

		require.NoError(t, store.Delete(ctx, "items", id))
		third := Next(t, w.C())
		assert.Empty(t, third)
	})

	t.Run("WatchDocument reports missing then present", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		w := docstore.WatchDocument(ctx, store, "users", "u9")
		defer w.Close()

		first := Next(t, w.C())
		assert.False(t, first.Exists())

		require.NoError(t, store.Set(ctx, "users", "u9", docstore.Document{"uid": "u9"}))
		second := Next(t, w.C())
		assert.True(t, second.Exists())
		assert.Equal(t, "u9", second.Data["uid"])
	})
}

// Next receives one value from ch or fails the test after a timeout.
func Next[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v, ok := <-ch:
		if !ok {
			t.Fatal("stream closed")
		}
		return v
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for value")
	}
	var zero T
	return zero
}
