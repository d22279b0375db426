package client

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/wishlist/internal/auth"
	"github.com/mmynk/wishlist/internal/docstore"
	"github.com/mmynk/wishlist/internal/docstore/memory"
	"github.com/mmynk/wishlist/internal/docstore/storetest"
	"github.com/mmynk/wishlist/internal/models"
	"github.com/mmynk/wishlist/internal/schema"
	"github.com/mmynk/wishlist/internal/server"
)

func setup(t *testing.T) (*Client, *memory.Store) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	store := memory.New()
	t.Cleanup(func() { store.Close() })

	jwtManager := auth.NewJWTManager("test-secret", time.Hour, auth.NewRevocations(ctx))
	srv := httptest.NewServer(server.NewHandler(server.Deps{
		Store:      store,
		JWTManager: jwtManager,
	}))
	t.Cleanup(srv.Close)

	token, err := jwtManager.Generate("u1", "u1@example.com")
	require.NoError(t, err)

	require.NoError(t, store.Set(ctx, schema.Users, "u1", docstore.Document{
		"uid":      "u1",
		"email":    "u1@example.com",
		"username": "ada",
		"friends":  []string{"u2"},
	}))
	require.NoError(t, store.Set(ctx, schema.Users, "u2", docstore.Document{
		"uid":      "u2",
		"email":    "u2@example.com",
		"username": "grace",
	}))

	return New(srv.Client(), srv.URL, token), store
}

func TestWhoAmI(t *testing.T) {
	c, _ := setup(t)

	userID, email, err := c.Profiles.WhoAmI(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "u1", userID)
	assert.Equal(t, "u1@example.com", email)
}

func TestProfileSubscribe(t *testing.T) {
	c, _ := setup(t)

	s, err := c.Profiles.Subscribe(context.Background(), "u1")
	require.NoError(t, err)
	defer s.Close()

	p := storetest.Next(t, s.C())
	assert.Equal(t, "ada", p.User.Username)
	require.Len(t, p.Friends, 1)
	assert.Equal(t, "grace", p.Friends[0].Username)
}

func TestProfileSubscribeWrongUser(t *testing.T) {
	c, _ := setup(t)

	s, err := c.Profiles.Subscribe(context.Background(), "u2")
	require.NoError(t, err)

	select {
	case <-s.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("stream did not end")
	}
	assert.Error(t, s.Err())
}

func TestWishlistRoundTrip(t *testing.T) {
	c, _ := setup(t)
	ctx := context.Background()

	s, err := c.Wishlists.Subscribe(ctx, "")
	require.NoError(t, err)
	defer s.Close()

	first := storetest.Next(t, s.C())
	assert.Equal(t, "u1", first.OwnerID)
	assert.Empty(t, first.Items)

	id, err := c.Wishlists.Create(ctx, "u1", "Lamp", "brass")
	require.NoError(t, err)

	w := next(t, s.C(), func(w models.Wishlist) bool { return len(w.Items) == 1 })
	assert.Equal(t, id, w.Items[0].ID)
	assert.Equal(t, "brass", w.Items[0].Description)
	assert.False(t, w.Items[0].CreatedAt.IsZero())

	require.NoError(t, c.Wishlists.Update(ctx, id, "Desk lamp", ""))
	next(t, s.C(), func(w models.Wishlist) bool { return len(w.Items) == 1 && w.Items[0].Title == "Desk lamp" })

	require.NoError(t, c.Wishlists.Delete(ctx, id))
	next(t, s.C(), func(w models.Wishlist) bool { return len(w.Items) == 0 })
}

func TestMutationErrorsCarryCodes(t *testing.T) {
	c, _ := setup(t)

	_, err := c.Wishlists.Create(context.Background(), "u1", " ", "")
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	err = c.Wishlists.Update(context.Background(), "missing", "Lamp", "")
	assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))
}

func TestSignOut(t *testing.T) {
	c, _ := setup(t)

	require.NoError(t, c.Profiles.SignOut(context.Background()))

	_, _, err := c.Profiles.WhoAmI(context.Background())
	assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))
}

func next(t *testing.T, ch <-chan models.Wishlist, match func(models.Wishlist) bool) models.Wishlist {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case w, ok := <-ch:
			require.True(t, ok, "stream closed")
			if match(w) {
				return w
			}
		case <-deadline:
			t.Fatal("timed out waiting for wishlist")
		}
	}
}
