package service

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/wishlist/internal/auth"
	"github.com/mmynk/wishlist/internal/docstore"
	"github.com/mmynk/wishlist/internal/docstore/memory"
	"github.com/mmynk/wishlist/internal/metrics"
	"github.com/mmynk/wishlist/internal/middleware"
	"github.com/mmynk/wishlist/internal/schema"
	"github.com/mmynk/wishlist/internal/syncer"
	"github.com/mmynk/wishlist/pkg/api"
	"github.com/mmynk/wishlist/pkg/api/apiconnect"
)

type testEnv struct {
	store    *memory.Store
	jwt      *auth.JWTManager
	profiles apiconnect.ProfileServiceClient
	items    apiconnect.WishlistServiceClient
}

// setupTestServer serves both services behind the production interceptor
// chain over an in-memory store.
func setupTestServer(t *testing.T) *testEnv {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	store := memory.New()
	t.Cleanup(func() { store.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	jwtManager := auth.NewJWTManager("test-secret", time.Hour, auth.NewRevocations(ctx))
	users := syncer.NewUserSync(store, syncer.WithLogger(logger))
	items := syncer.NewWishlistSync(store, syncer.WithLogger(logger))

	interceptors := connect.WithInterceptors(
		middleware.MetricsInterceptor(metrics.New()),
		middleware.RequireAuth(jwtManager),
		middleware.LoggingInterceptor(),
	)

	mux := http.NewServeMux()
	mux.Handle(apiconnect.NewProfileServiceHandler(NewProfileService(users, jwtManager, logger), interceptors))
	mux.Handle(apiconnect.NewWishlistServiceHandler(NewWishlistService(users, items), interceptors))

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return &testEnv{
		store:    store,
		jwt:      jwtManager,
		profiles: apiconnect.NewProfileServiceClient(server.Client(), server.URL),
		items:    apiconnect.NewWishlistServiceClient(server.Client(), server.URL),
	}
}

func (e *testEnv) token(t *testing.T, userID string) string {
	t.Helper()
	token, err := e.jwt.Generate(userID, userID+"@example.com")
	require.NoError(t, err)
	return token
}

func (e *testEnv) putUser(t *testing.T, uid string, friends ...string) {
	t.Helper()
	doc := docstore.Document{
		"uid":      uid,
		"email":    uid + "@example.com",
		"username": uid,
		"friends":  append([]string{}, friends...),
	}
	require.NoError(t, e.store.Set(context.Background(), schema.Users, uid, doc))
}

func (e *testEnv) putItem(t *testing.T, id, owner, title string) {
	t.Helper()
	require.NoError(t, e.store.Set(context.Background(), schema.WishlistItems, id, docstore.Document{
		"user":  owner,
		"title": title,
	}))
}

func authed[T any](token string, msg *T) *connect.Request[T] {
	req := connect.NewRequest(msg)
	req.Header().Set("Authorization", "Bearer "+token)
	return req
}

func timeout(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestWhoAmI(t *testing.T) {
	env := setupTestServer(t)

	resp, err := env.profiles.WhoAmI(timeout(t), authed(env.token(t, "u1"), &api.WhoAmIRequest{}))
	require.NoError(t, err)
	assert.Equal(t, "u1", resp.Msg.UserId)
	assert.Equal(t, "u1@example.com", resp.Msg.Email)
}

func TestRequiresToken(t *testing.T) {
	env := setupTestServer(t)

	_, err := env.profiles.WhoAmI(timeout(t), connect.NewRequest(&api.WhoAmIRequest{}))
	assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))

	req := connect.NewRequest(&api.WhoAmIRequest{})
	req.Header().Set("Authorization", "Token abc")
	_, err = env.profiles.WhoAmI(timeout(t), req)
	assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))

	stream, err := env.items.WatchWishlist(timeout(t), connect.NewRequest(&api.WatchWishlistRequest{}))
	require.NoError(t, err)
	defer stream.Close()
	assert.False(t, stream.Receive())
	assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(stream.Err()))
}

func TestSignOutRevokesToken(t *testing.T) {
	env := setupTestServer(t)
	token := env.token(t, "u1")

	_, err := env.profiles.SignOut(timeout(t), authed(token, &api.SignOutRequest{}))
	require.NoError(t, err)

	_, err = env.profiles.WhoAmI(timeout(t), authed(token, &api.WhoAmIRequest{}))
	assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))

	// A fresh session still works.
	_, err = env.profiles.WhoAmI(timeout(t), authed(env.token(t, "u1"), &api.WhoAmIRequest{}))
	assert.NoError(t, err)
}

func TestWatchProfile(t *testing.T) {
	env := setupTestServer(t)
	env.putUser(t, "u1", "u2", "ghost")
	env.putUser(t, "u2")

	stream, err := env.profiles.WatchProfile(timeout(t), authed(env.token(t, "u1"), &api.WatchProfileRequest{}))
	require.NoError(t, err)
	defer stream.Close()

	require.True(t, stream.Receive(), "stream ended: %v", stream.Err())
	msg := stream.Msg()
	assert.Equal(t, "u1", msg.User.Id)
	assert.Equal(t, []string{"u2", "ghost"}, msg.User.Friends)
	require.Len(t, msg.Friends, 1)
	assert.Equal(t, "u2", msg.Friends[0].Id)
}

func TestCreateItemAppearsOnStream(t *testing.T) {
	env := setupTestServer(t)
	env.putItem(t, "a", "u1", "Lamp")
	token := env.token(t, "u1")
	ctx := timeout(t)

	stream, err := env.items.WatchWishlist(ctx, authed(token, &api.WatchWishlistRequest{}))
	require.NoError(t, err)
	defer stream.Close()

	require.True(t, stream.Receive(), "stream ended: %v", stream.Err())
	assert.Equal(t, "u1", stream.Msg().OwnerId)
	require.Len(t, stream.Msg().Items, 1)

	created, err := env.items.CreateItem(ctx, authed(token, &api.CreateItemRequest{Title: " Mug "}))
	require.NoError(t, err)
	require.NotEmpty(t, created.Msg.ItemId)

	for stream.Receive() {
		items := stream.Msg().Items
		if len(items) != 2 {
			continue
		}
		assert.Equal(t, "a", items[0].Id)
		assert.Equal(t, created.Msg.ItemId, items[1].Id)
		assert.Equal(t, "Mug", items[1].Title)
		assert.Equal(t, "u1", items[1].Owner)
		return
	}
	t.Fatalf("stream ended before the new item arrived: %v", stream.Err())
}

func TestCreateItemRejectsBlankTitle(t *testing.T) {
	env := setupTestServer(t)

	_, err := env.items.CreateItem(timeout(t), authed(env.token(t, "u1"), &api.CreateItemRequest{Title: "   "}))
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
}

func TestWatchWishlistAuthorization(t *testing.T) {
	env := setupTestServer(t)
	env.putUser(t, "u1", "u2")
	env.putUser(t, "u2")
	env.putItem(t, "b", "u2", "Mug")

	t.Run("friend", func(t *testing.T) {
		stream, err := env.items.WatchWishlist(timeout(t), authed(env.token(t, "u1"), &api.WatchWishlistRequest{OwnerId: "u2"}))
		require.NoError(t, err)
		defer stream.Close()

		require.True(t, stream.Receive(), "stream ended: %v", stream.Err())
		assert.Equal(t, "u2", stream.Msg().OwnerId)
		require.Len(t, stream.Msg().Items, 1)
		assert.Equal(t, "Mug", stream.Msg().Items[0].Title)
	})

	t.Run("not a friend", func(t *testing.T) {
		// u2 does not list u1.
		stream, err := env.items.WatchWishlist(timeout(t), authed(env.token(t, "u2"), &api.WatchWishlistRequest{OwnerId: "u1"}))
		require.NoError(t, err)
		defer stream.Close()

		assert.False(t, stream.Receive())
		assert.Equal(t, connect.CodePermissionDenied, connect.CodeOf(stream.Err()))
	})

	t.Run("no profile", func(t *testing.T) {
		stream, err := env.items.WatchWishlist(timeout(t), authed(env.token(t, "u9"), &api.WatchWishlistRequest{OwnerId: "u2"}))
		require.NoError(t, err)
		defer stream.Close()

		assert.False(t, stream.Receive())
		assert.Equal(t, connect.CodePermissionDenied, connect.CodeOf(stream.Err()))
	})
}

func TestUpdateItem(t *testing.T) {
	env := setupTestServer(t)
	env.putItem(t, "a", "u1", "Lamp")
	ctx := timeout(t)
	owner := env.token(t, "u1")

	_, err := env.items.UpdateItem(ctx, authed(owner, &api.UpdateItemRequest{ItemId: "a", Title: ""}))
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	_, err = env.items.UpdateItem(ctx, authed(owner, &api.UpdateItemRequest{ItemId: "missing", Title: "Desk"}))
	assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))

	_, err = env.items.UpdateItem(ctx, authed(env.token(t, "u2"), &api.UpdateItemRequest{ItemId: "a", Title: "Stolen"}))
	assert.Equal(t, connect.CodePermissionDenied, connect.CodeOf(err))

	_, err = env.items.UpdateItem(ctx, authed(owner, &api.UpdateItemRequest{ItemId: "a", Title: "Desk lamp", Description: "brass"}))
	require.NoError(t, err)

	snap, err := env.store.Get(ctx, schema.WishlistItems, "a")
	require.NoError(t, err)
	assert.Equal(t, "Desk lamp", snap.Data["title"])
	assert.Equal(t, "brass", snap.Data["description"])
	assert.NotEmpty(t, snap.Data["updatedAt"])
}

func TestUpdateItemInvalidDocument(t *testing.T) {
	env := setupTestServer(t)
	require.NoError(t, env.store.Set(context.Background(), schema.WishlistItems, "a", docstore.Document{"user": "u1"}))

	_, err := env.items.UpdateItem(timeout(t), authed(env.token(t, "u1"), &api.UpdateItemRequest{ItemId: "a", Title: "Lamp"}))
	assert.Equal(t, connect.CodeFailedPrecondition, connect.CodeOf(err))
}

func TestDeleteItem(t *testing.T) {
	env := setupTestServer(t)
	env.putItem(t, "a", "u1", "Lamp")
	ctx := timeout(t)
	owner := env.token(t, "u1")

	_, err := env.items.DeleteItem(ctx, authed(env.token(t, "u2"), &api.DeleteItemRequest{ItemId: "a"}))
	assert.Equal(t, connect.CodePermissionDenied, connect.CodeOf(err))

	_, err = env.items.DeleteItem(ctx, authed(owner, &api.DeleteItemRequest{ItemId: "a"}))
	require.NoError(t, err)

	_, err = env.store.Get(ctx, schema.WishlistItems, "a")
	assert.ErrorIs(t, err, docstore.ErrNotFound)

	// Already gone.
	_, err = env.items.DeleteItem(ctx, authed(owner, &api.DeleteItemRequest{ItemId: "a"}))
	assert.NoError(t, err)
}

func TestDeleteInvalidItemByOwner(t *testing.T) {
	env := setupTestServer(t)
	ctx := timeout(t)
	require.NoError(t, env.store.Set(ctx, schema.WishlistItems, "a", docstore.Document{"user": "u1", "title": "  "}))
	require.NoError(t, env.store.Set(ctx, schema.WishlistItems, "b", docstore.Document{"title": "Lamp"}))

	_, err := env.items.DeleteItem(ctx, authed(env.token(t, "u2"), &api.DeleteItemRequest{ItemId: "a"}))
	assert.Equal(t, connect.CodePermissionDenied, connect.CodeOf(err))

	_, err = env.items.DeleteItem(ctx, authed(env.token(t, "u1"), &api.DeleteItemRequest{ItemId: "a"}))
	require.NoError(t, err)
	_, err = env.store.Get(ctx, schema.WishlistItems, "a")
	assert.ErrorIs(t, err, docstore.ErrNotFound)

	// No owner to check against.
	_, err = env.items.DeleteItem(ctx, authed(env.token(t, "u1"), &api.DeleteItemRequest{ItemId: "b"}))
	assert.Equal(t, connect.CodeFailedPrecondition, connect.CodeOf(err))
}
