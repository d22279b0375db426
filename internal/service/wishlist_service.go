package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/wishlist/internal/docstore"
	"github.com/mmynk/wishlist/internal/middleware"
	"github.com/mmynk/wishlist/internal/schema"
	"github.com/mmynk/wishlist/internal/syncer"
	"github.com/mmynk/wishlist/pkg/api"
	"github.com/mmynk/wishlist/pkg/api/apiconnect"
)

var errBlankTitle = errors.New("title must not be blank")

// WishlistService implements the Connect WishlistService
type WishlistService struct {
	apiconnect.UnimplementedWishlistServiceHandler
	users *syncer.UserSync
	items *syncer.WishlistSync
}

// NewWishlistService creates a new WishlistService over the given synchronizers.
func NewWishlistService(users *syncer.UserSync, items *syncer.WishlistSync) *WishlistService {
	return &WishlistService{users: users, items: items}
}

// WatchWishlist streams an owner's items. Callers may watch their own list or
// the list of anyone in their friends list.
func (s *WishlistService) WatchWishlist(ctx context.Context, req *connect.Request[api.WatchWishlistRequest], out *connect.ServerStream[api.WatchWishlistResponse]) error {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return connect.NewError(connect.CodeUnauthenticated, fmt.Errorf("authentication required"))
	}

	ownerID := req.Msg.OwnerId
	if ownerID == "" {
		ownerID = userID
	}

	slog.Info("WatchWishlist request received", "user_id", userID, "owner_id", ownerID)

	if ownerID != userID {
		if err := s.checkFriend(ctx, userID, ownerID); err != nil {
			return err
		}
	}

	wishlists, err := s.items.Subscribe(ctx, ownerID)
	if err != nil {
		slog.Error("WatchWishlist subscribe failed", "owner_id", ownerID, "error", err)
		return connect.NewError(connect.CodeInternal, err)
	}

	return forward(ctx, wishlists, out, api.FromWishlist)
}

func (s *WishlistService) checkFriend(ctx context.Context, userID, ownerID string) error {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		var verr *schema.ValidationError
		if errors.Is(err, docstore.ErrNotFound) || errors.As(err, &verr) {
			slog.Warn("WatchWishlist: caller has no valid profile", "user_id", userID, "error", err)
			return connect.NewError(connect.CodePermissionDenied, fmt.Errorf("you can only view your own or a friend's wishlist"))
		}
		slog.Error("WatchWishlist: failed to read caller profile", "user_id", userID, "error", err)
		return connect.NewError(connect.CodeInternal, err)
	}

	if !user.HasFriend(ownerID) {
		return connect.NewError(connect.CodePermissionDenied, fmt.Errorf("you can only view your own or a friend's wishlist"))
	}
	return nil
}

// CreateItem adds an item to the caller's wishlist.
func (s *WishlistService) CreateItem(ctx context.Context, req *connect.Request[api.CreateItemRequest]) (*connect.Response[api.CreateItemResponse], error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return nil, connect.NewError(connect.CodeUnauthenticated, fmt.Errorf("authentication required"))
	}

	slog.Info("CreateItem request received", "user_id", userID, "title", req.Msg.Title)

	if strings.TrimSpace(req.Msg.Title) == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errBlankTitle)
	}

	id, err := s.items.Create(ctx, userID, req.Msg.Title, req.Msg.Description)
	if err != nil {
		slog.Error("CreateItem failed", "user_id", userID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	slog.Info("Item created", "item_id", id, "user_id", userID)

	return connect.NewResponse(&api.CreateItemResponse{ItemId: id}), nil
}

// UpdateItem edits one of the caller's items.
func (s *WishlistService) UpdateItem(ctx context.Context, req *connect.Request[api.UpdateItemRequest]) (*connect.Response[api.UpdateItemResponse], error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return nil, connect.NewError(connect.CodeUnauthenticated, fmt.Errorf("authentication required"))
	}

	slog.Info("UpdateItem request received", "user_id", userID, "item_id", req.Msg.ItemId)

	if strings.TrimSpace(req.Msg.Title) == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errBlankTitle)
	}

	item, err := s.items.Get(ctx, req.Msg.ItemId)
	if err != nil {
		slog.Error("UpdateItem: failed to get existing item", "item_id", req.Msg.ItemId, "error", err)
		return nil, itemError(err)
	}

	if item.Owner != userID {
		return nil, connect.NewError(connect.CodePermissionDenied, fmt.Errorf("you can only edit your own items"))
	}

	if err := s.items.Update(ctx, item.ID, req.Msg.Title, req.Msg.Description); err != nil {
		slog.Error("UpdateItem failed", "item_id", item.ID, "error", err)
		return nil, itemError(err)
	}

	slog.Info("Item updated", "item_id", item.ID)

	return connect.NewResponse(&api.UpdateItemResponse{}), nil
}

// DeleteItem removes one of the caller's items. Deleting an item that no
// longer exists succeeds.
func (s *WishlistService) DeleteItem(ctx context.Context, req *connect.Request[api.DeleteItemRequest]) (*connect.Response[api.DeleteItemResponse], error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return nil, connect.NewError(connect.CodeUnauthenticated, fmt.Errorf("authentication required"))
	}

	slog.Info("DeleteItem request received", "user_id", userID, "item_id", req.Msg.ItemId)

	// Only the owner matters here; the owner may delete an item whose other
	// fields no longer validate.
	itemID := req.Msg.ItemId
	owner, err := s.items.Owner(ctx, itemID)
	if errors.Is(err, docstore.ErrNotFound) {
		return connect.NewResponse(&api.DeleteItemResponse{}), nil
	}
	if err != nil {
		slog.Error("DeleteItem: failed to get existing item", "item_id", itemID, "error", err)
		return nil, itemError(err)
	}

	if owner != userID {
		return nil, connect.NewError(connect.CodePermissionDenied, fmt.Errorf("you can only delete your own items"))
	}

	if err := s.items.Delete(ctx, itemID); err != nil {
		slog.Error("DeleteItem failed", "item_id", itemID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	slog.Info("Item deleted", "item_id", itemID)

	return connect.NewResponse(&api.DeleteItemResponse{}), nil
}

// itemError maps item lookup and write failures to Connect codes. A stored
// item that fails validation is a failed precondition.
func itemError(err error) *connect.Error {
	var verr *schema.ValidationError
	switch {
	case errors.Is(err, docstore.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.As(err, &verr):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}
