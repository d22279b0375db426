// Package client talks to a wishlist server over Connect. Its Profiles and
// Wishlists sources stream the same snapshots as the in-process syncers, so a
// view can run against either.
package client

import (
	"context"
	"fmt"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/wishlist/internal/models"
	"github.com/mmynk/wishlist/internal/stream"
	"github.com/mmynk/wishlist/pkg/api"
	"github.com/mmynk/wishlist/pkg/api/apiconnect"
)

// Client is a signed-in connection to a wishlist server.
type Client struct {
	Profiles  *ProfileClient
	Wishlists *WishlistClient
}

// New creates a client for the server at baseURL that authenticates every
// call with token.
func New(httpClient connect.HTTPClient, baseURL, token string) *Client {
	opts := connect.WithInterceptors(bearerToken(token))
	return &Client{
		Profiles:  &ProfileClient{rpc: apiconnect.NewProfileServiceClient(httpClient, baseURL, opts)},
		Wishlists: &WishlistClient{rpc: apiconnect.NewWishlistServiceClient(httpClient, baseURL, opts)},
	}
}

// ProfileClient streams the signed-in user's profile.
type ProfileClient struct {
	rpc apiconnect.ProfileServiceClient
}

// WhoAmI returns the principal the token belongs to.
func (c *ProfileClient) WhoAmI(ctx context.Context) (userID, email string, err error) {
	resp, err := c.rpc.WhoAmI(ctx, connect.NewRequest(&api.WhoAmIRequest{}))
	if err != nil {
		return "", "", err
	}
	return resp.Msg.UserId, resp.Msg.Email, nil
}

// SignOut revokes the client's token. The client is unusable afterwards.
func (c *ProfileClient) SignOut(ctx context.Context) error {
	_, err := c.rpc.SignOut(ctx, connect.NewRequest(&api.SignOutRequest{}))
	return err
}

// Subscribe streams profile snapshots. The server only serves the caller's
// own profile, so userID is checked against the first snapshot.
func (c *ProfileClient) Subscribe(ctx context.Context, userID string) (*stream.Stream[models.Profile], error) {
	return stream.New(ctx, func(ctx context.Context, publish func(models.Profile)) error {
		res, err := c.rpc.WatchProfile(ctx, connect.NewRequest(&api.WatchProfileRequest{}))
		if err != nil {
			return err
		}
		defer res.Close()

		for res.Receive() {
			profile, err := api.ToProfile(res.Msg())
			if err != nil {
				slog.Warn("Dropping malformed profile snapshot", "error", err)
				continue
			}
			if userID != "" && profile.User.ID != userID {
				return fmt.Errorf("server returned profile for %q, want %q", profile.User.ID, userID)
			}
			publish(profile)
		}
		return res.Err()
	}), nil
}

// WishlistClient streams and edits wishlists.
type WishlistClient struct {
	rpc apiconnect.WishlistServiceClient
}

// Subscribe streams ownerID's items. An empty ownerID follows the caller's
// own list.
func (c *WishlistClient) Subscribe(ctx context.Context, ownerID string) (*stream.Stream[models.Wishlist], error) {
	return stream.New(ctx, func(ctx context.Context, publish func(models.Wishlist)) error {
		res, err := c.rpc.WatchWishlist(ctx, connect.NewRequest(&api.WatchWishlistRequest{OwnerId: ownerID}))
		if err != nil {
			return err
		}
		defer res.Close()

		for res.Receive() {
			w, err := api.ToWishlist(res.Msg())
			if err != nil {
				slog.Warn("Dropping malformed wishlist snapshot", "owner_id", ownerID, "error", err)
				continue
			}
			publish(w)
		}
		return res.Err()
	}), nil
}

// Create adds an item to the caller's list. The server always uses the
// caller as owner; ownerID is accepted to match the in-process syncer.
func (c *WishlistClient) Create(ctx context.Context, ownerID, title, description string) (string, error) {
	resp, err := c.rpc.CreateItem(ctx, connect.NewRequest(&api.CreateItemRequest{
		Title:       title,
		Description: description,
	}))
	if err != nil {
		return "", err
	}
	return resp.Msg.ItemId, nil
}

// Update edits one of the caller's items.
func (c *WishlistClient) Update(ctx context.Context, itemID, title, description string) error {
	_, err := c.rpc.UpdateItem(ctx, connect.NewRequest(&api.UpdateItemRequest{
		ItemId:      itemID,
		Title:       title,
		Description: description,
	}))
	return err
}

// Delete removes one of the caller's items.
func (c *WishlistClient) Delete(ctx context.Context, itemID string) error {
	_, err := c.rpc.DeleteItem(ctx, connect.NewRequest(&api.DeleteItemRequest{ItemId: itemID}))
	return err
}
