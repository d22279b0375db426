package syncer

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/wishlist/internal/docstore"
	"github.com/mmynk/wishlist/internal/docstore/memory"
	"github.com/mmynk/wishlist/internal/docstore/storetest"
	"github.com/mmynk/wishlist/internal/models"
	"github.com/mmynk/wishlist/internal/schema"
)

var fixedNow = time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)

func testOptions() []Option {
	return []Option{
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithClock(func() time.Time { return fixedNow }),
	}
}

func newStore(t *testing.T) *memory.Store {
	t.Helper()
	store := memory.New()
	t.Cleanup(func() { store.Close() })
	return store
}

func putUser(t *testing.T, store docstore.Store, uid, username string, friends ...string) {
	t.Helper()
	doc := docstore.Document{
		"uid":      uid,
		"email":    uid + "@example.com",
		"username": username,
	}
	if friends != nil {
		doc["friends"] = friends
	}
	require.NoError(t, store.Set(context.Background(), schema.Users, uid, doc))
}

func putItem(t *testing.T, store docstore.Store, id, owner, title string) {
	t.Helper()
	require.NoError(t, store.Set(context.Background(), schema.WishlistItems, id, docstore.Document{
		"user":  owner,
		"title": title,
	}))
}

// waitFor receives from ch until match accepts a value.
func waitFor[T any](t *testing.T, ch <-chan T, match func(T) bool) T {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case v, ok := <-ch:
			require.True(t, ok, "stream closed")
			if match(v) {
				return v
			}
		case <-deadline:
			t.Fatal("timed out waiting for matching value")
		}
	}
}

func assertQuiet[T any](t *testing.T, ch <-chan T) {
	t.Helper()
	select {
	case v := <-ch:
		t.Fatalf("unexpected value: %+v", v)
	case <-time.After(50 * time.Millisecond):
	}
}

func titles(w models.Wishlist) []string {
	out := make([]string, len(w.Items))
	for i, item := range w.Items {
		out[i] = item.Title
	}
	return out
}

func TestUserSyncResolvesFriendsInOrder(t *testing.T) {
	store := newStore(t)
	putUser(t, store, "u1", "ada", "u3", "ghost", "u2", "bad")
	putUser(t, store, "u2", "grace")
	putUser(t, store, "u3", "linus")
	require.NoError(t, store.Set(context.Background(), schema.Users, "bad", docstore.Document{
		"uid":   "bad",
		"email": "not-an-email",
	}))

	users := NewUserSync(store, append(testOptions(), WithFriendConcurrency(2))...)
	s, err := users.Subscribe(context.Background(), "u1")
	require.NoError(t, err)
	defer s.Close()

	profile := storetest.Next(t, s.C())
	assert.Equal(t, "ada", profile.User.Username)
	assert.Equal(t, []string{"u3", "ghost", "u2", "bad"}, profile.User.Friends)
	require.Len(t, profile.Friends, 2)
	assert.Equal(t, "u3", profile.Friends[0].ID)
	assert.Equal(t, "u2", profile.Friends[1].ID)
}

func TestUserSyncKeepsFriendWithBlankUsername(t *testing.T) {
	store := newStore(t)
	putUser(t, store, "u1", "", "u2")
	putUser(t, store, "u2", "")

	s, err := NewUserSync(store, testOptions()...).Subscribe(context.Background(), "u1")
	require.NoError(t, err)
	defer s.Close()

	profile := storetest.Next(t, s.C())
	assert.Equal(t, "", profile.User.Username)
	require.Len(t, profile.Friends, 1)
	assert.Equal(t, "u2", profile.Friends[0].ID)
}

func TestUserSyncKeepsLastGoodProfile(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	putUser(t, store, "u1", "ada")

	users := NewUserSync(store, testOptions()...)
	s, err := users.Subscribe(ctx, "u1")
	require.NoError(t, err)
	defer s.Close()

	first := storetest.Next(t, s.C())
	assert.Equal(t, "ada", first.User.Username)
	assert.Empty(t, first.Friends)

	// An invalid document publishes nothing.
	require.NoError(t, store.Update(ctx, schema.Users, "u1", docstore.Document{"email": "broken"}))
	assertQuiet(t, s.C())

	require.NoError(t, store.Set(ctx, schema.Users, "u1", docstore.Document{
		"uid":      "u1",
		"email":    "u1@example.com",
		"username": "ada lovelace",
	}))
	next := storetest.Next(t, s.C())
	assert.Equal(t, "ada lovelace", next.User.Username)
}

func TestUserSyncWaitsForMissingUser(t *testing.T) {
	store := newStore(t)

	users := NewUserSync(store, testOptions()...)
	s, err := users.Subscribe(context.Background(), "u1")
	require.NoError(t, err)
	defer s.Close()

	assertQuiet(t, s.C())

	putUser(t, store, "u1", "ada")
	profile := storetest.Next(t, s.C())
	assert.Equal(t, "u1", profile.User.ID)
}

func TestSubscribeRejectsEmptyOwner(t *testing.T) {
	store := newStore(t)

	_, err := NewUserSync(store).Subscribe(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyOwner)
	_, err = NewWishlistSync(store).Subscribe(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyOwner)
	_, err = NewWishlistSync(store).Create(context.Background(), "", "Lamp", "")
	assert.ErrorIs(t, err, ErrEmptyOwner)
}

func TestWishlistSyncDropsInvalidItems(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	putItem(t, store, "a", "u1", "Lamp")
	require.NoError(t, store.Set(ctx, schema.WishlistItems, "b", docstore.Document{"user": "u1"}))
	putItem(t, store, "c", "u1", "   ")
	putItem(t, store, "d", "u2", "Other")

	items := NewWishlistSync(store, testOptions()...)
	s, err := items.Subscribe(ctx, "u1")
	require.NoError(t, err)
	defer s.Close()

	w := storetest.Next(t, s.C())
	assert.Equal(t, "u1", w.OwnerID)
	require.Len(t, w.Items, 1)
	assert.Equal(t, "a", w.Items[0].ID)
}

func TestWishlistSyncCreateScenario(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	putItem(t, store, "a", "u1", "Lamp")

	items := NewWishlistSync(store, testOptions()...)
	s, err := items.Subscribe(ctx, "u1")
	require.NoError(t, err)
	defer s.Close()

	first := storetest.Next(t, s.C())
	assert.Equal(t, []string{"Lamp"}, titles(first))

	id, err := items.Create(ctx, "u1", "  Mug ", "")
	require.NoError(t, err)

	w := waitFor(t, s.C(), func(w models.Wishlist) bool { return len(w.Items) == 2 })
	assert.Equal(t, "a", w.Items[0].ID)
	assert.Equal(t, models.WishlistItem{
		ID:        id,
		Owner:     "u1",
		Title:     "Mug",
		CreatedAt: fixedNow,
	}, w.Items[1])
}

func TestWishlistSyncUpdateChangesOnlyThatItem(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	putItem(t, store, "a", "u1", "Lamp")
	putItem(t, store, "b", "u1", "Mug")

	items := NewWishlistSync(store, testOptions()...)
	s, err := items.Subscribe(ctx, "u1")
	require.NoError(t, err)
	defer s.Close()

	before := storetest.Next(t, s.C())
	require.Len(t, before.Items, 2)

	require.NoError(t, items.Update(ctx, "a", "Desk lamp", "brass"))

	after := waitFor(t, s.C(), func(w models.Wishlist) bool {
		return len(w.Items) == 2 && w.Items[0].Title == "Desk lamp"
	})
	assert.Equal(t, "brass", after.Items[0].Description)
	assert.Equal(t, fixedNow, after.Items[0].UpdatedAt)
	assert.Equal(t, before.Items[1], after.Items[1])
}

func TestWishlistSyncUpdateMissing(t *testing.T) {
	items := NewWishlistSync(newStore(t), testOptions()...)

	err := items.Update(context.Background(), "nope", "Lamp", "")
	assert.ErrorIs(t, err, docstore.ErrNotFound)
}

func TestWishlistSyncDelete(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	putItem(t, store, "a", "u1", "Lamp")
	putItem(t, store, "b", "u1", "Mug")

	items := NewWishlistSync(store, testOptions()...)
	s, err := items.Subscribe(ctx, "u1")
	require.NoError(t, err)
	defer s.Close()

	storetest.Next(t, s.C())

	require.NoError(t, items.Delete(ctx, "a"))
	w := waitFor(t, s.C(), func(w models.Wishlist) bool { return len(w.Items) == 1 })
	assert.Equal(t, "b", w.Items[0].ID)

	// Deleting an absent id leaves the list unchanged.
	require.NoError(t, items.Delete(ctx, "a"))
	assertQuiet(t, s.C())
}

func TestWishlistSyncGet(t *testing.T) {
	store := newStore(t)
	putItem(t, store, "a", "u1", "Lamp")
	items := NewWishlistSync(store, testOptions()...)

	item, err := items.Get(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "u1", item.Owner)

	_, err = items.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, docstore.ErrNotFound)
}

func TestWishlistSyncCloseStopsStream(t *testing.T) {
	store := newStore(t)
	items := NewWishlistSync(store, testOptions()...)

	s, err := items.Subscribe(context.Background(), "u1")
	require.NoError(t, err)
	storetest.Next(t, s.C())

	s.Close()
	_, ok := <-s.C()
	assert.False(t, ok)
	assert.NoError(t, s.Err())
}

func TestFollowerNeverLeaksPreviousOwner(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	putItem(t, store, "a1", "A", "Lamp")
	putItem(t, store, "b1", "B", "Mug")

	items := NewWishlistSync(store, testOptions()...)
	f := items.Follow()
	defer f.Close()

	require.NoError(t, f.Switch(ctx, "A"))
	assert.Equal(t, "A", f.Owner())
	first := storetest.Next(t, f.C())
	assert.Equal(t, "A", first.OwnerID)

	// Pending writes for A race with the switch.
	putItem(t, store, "a2", "A", "Chair")
	require.NoError(t, f.Switch(ctx, "B"))
	putItem(t, store, "a3", "A", "Table")
	putItem(t, store, "b2", "B", "Pen")

	seen := waitFor(t, f.C(), func(w models.Wishlist) bool {
		for _, item := range w.Items {
			assert.Equal(t, "B", item.Owner)
		}
		assert.Equal(t, "B", w.OwnerID)
		return len(w.Items) == 2
	})
	assert.Equal(t, []string{"Mug", "Pen"}, titles(seen))
}

func TestFollowerSwitchSameOwnerIsNoop(t *testing.T) {
	store := newStore(t)
	putItem(t, store, "a1", "A", "Lamp")

	f := NewWishlistSync(store, testOptions()...).Follow()
	defer f.Close()

	require.NoError(t, f.Switch(context.Background(), "A"))
	storetest.Next(t, f.C())

	require.NoError(t, f.Switch(context.Background(), "A"))
	assertQuiet(t, f.C())
}

func TestFollowerClose(t *testing.T) {
	f := NewWishlistSync(newStore(t), testOptions()...).Follow()
	require.NoError(t, f.Switch(context.Background(), "A"))

	f.Close()
	f.Close()

	_, ok := <-f.C()
	assert.False(t, ok)
	assert.ErrorIs(t, f.Switch(context.Background(), "B"), ErrFollowerClosed)
	assert.Equal(t, "", f.Owner())
}
