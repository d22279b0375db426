package syncer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mmynk/wishlist/internal/docstore"
	"github.com/mmynk/wishlist/internal/metrics"
	"github.com/mmynk/wishlist/internal/models"
	"github.com/mmynk/wishlist/internal/schema"
	"github.com/mmynk/wishlist/internal/stream"
)

// Mutation names used for metrics.
const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// WishlistSync publishes Wishlist snapshots and writes wishlist items.
type WishlistSync struct {
	store docstore.Store
	opts  options
}

// NewWishlistSync creates a WishlistSync backed by store.
func NewWishlistSync(store docstore.Store, opts ...Option) *WishlistSync {
	return &WishlistSync{store: store, opts: newOptions(opts)}
}

// Subscribe follows the items owned by ownerID. Every change publishes the
// full list in creation order.
func (s *WishlistSync) Subscribe(ctx context.Context, ownerID string) (*stream.Stream[models.Wishlist], error) {
	if ownerID == "" {
		return nil, ErrEmptyOwner
	}

	q := docstore.Query{
		Collection: schema.WishlistItems,
		Field:      schema.FieldOwner,
		Value:      ownerID,
	}

	return stream.New(ctx, func(ctx context.Context, publish func(models.Wishlist)) error {
		release := s.opts.metrics.SubscriptionOpened(metrics.StreamWishlist)
		defer release()

		results := docstore.WatchQuery(ctx, s.store, q)
		defer results.Close()

		for snaps := range results.C() {
			publish(models.Wishlist{OwnerID: ownerID, Items: s.parseItems(ownerID, snaps)})
			s.opts.metrics.SnapshotPublished(metrics.StreamWishlist)
		}
		return results.Err()
	}), nil
}

func (s *WishlistSync) parseItems(ownerID string, snaps []docstore.Snapshot) []models.WishlistItem {
	items := make([]models.WishlistItem, 0, len(snaps))
	for _, snap := range snaps {
		item, err := schema.ParseWishlistItem(snap)
		if err != nil {
			s.opts.logger.Warn("Dropping invalid wishlist item", "item_id", snap.ID, "error", err)
			s.opts.metrics.ValidationFailed(schema.RecordItem)
			continue
		}
		if item.Owner != ownerID {
			s.opts.logger.Warn("Dropping wishlist item with mismatched owner",
				"item_id", item.ID, "owner_id", ownerID, "item_owner", item.Owner)
			continue
		}
		items = append(items, item)
	}
	return items
}

// Get reads one item and validates it.
func (s *WishlistSync) Get(ctx context.Context, itemID string) (models.WishlistItem, error) {
	snap, err := s.store.Get(ctx, schema.WishlistItems, itemID)
	if err != nil {
		return models.WishlistItem{}, err
	}
	item, err := schema.ParseWishlistItem(snap)
	if err != nil {
		s.opts.metrics.ValidationFailed(schema.RecordItem)
		return models.WishlistItem{}, err
	}
	return item, nil
}

// Owner returns the owner of an item without validating its other fields.
func (s *WishlistSync) Owner(ctx context.Context, itemID string) (string, error) {
	snap, err := s.store.Get(ctx, schema.WishlistItems, itemID)
	if err != nil {
		return "", err
	}
	owner, err := schema.ParseItemOwner(snap.Data)
	if err != nil {
		s.opts.metrics.ValidationFailed(schema.RecordItem)
		return "", err
	}
	return owner, nil
}

// Create adds an item for ownerID and returns its ID. The title is trimmed;
// callers reject blank titles before calling. The new item reaches
// subscribers through the change feed, not through the return value.
func (s *WishlistSync) Create(ctx context.Context, ownerID, title, description string) (string, error) {
	if ownerID == "" {
		return "", ErrEmptyOwner
	}

	doc := docstore.Document{
		schema.FieldOwner:       ownerID,
		schema.FieldTitle:       strings.TrimSpace(title),
		schema.FieldDescription: description,
		schema.FieldCreatedAt:   s.timestamp(),
	}

	id, err := s.store.Add(ctx, schema.WishlistItems, doc)
	s.opts.metrics.Mutation(OpCreate, err)
	if err != nil {
		s.opts.logger.Error("Failed to create wishlist item", "owner_id", ownerID, "error", err)
		return "", fmt.Errorf("failed to create item: %w", err)
	}

	s.opts.logger.Info("Created wishlist item", "item_id", id, "owner_id", ownerID)
	return id, nil
}

// Update overwrites an item's title and description and stamps updatedAt.
// A missing item yields docstore.ErrNotFound.
func (s *WishlistSync) Update(ctx context.Context, itemID, title, description string) error {
	fields := docstore.Document{
		schema.FieldTitle:       strings.TrimSpace(title),
		schema.FieldDescription: description,
		schema.FieldUpdatedAt:   s.timestamp(),
	}

	err := s.store.Update(ctx, schema.WishlistItems, itemID, fields)
	s.opts.metrics.Mutation(OpUpdate, err)
	if err != nil {
		s.opts.logger.Error("Failed to update wishlist item", "item_id", itemID, "error", err)
		return fmt.Errorf("failed to update item: %w", err)
	}

	s.opts.logger.Info("Updated wishlist item", "item_id", itemID)
	return nil
}

// Delete removes an item. Deleting a missing item succeeds.
func (s *WishlistSync) Delete(ctx context.Context, itemID string) error {
	err := s.store.Delete(ctx, schema.WishlistItems, itemID)
	s.opts.metrics.Mutation(OpDelete, err)
	if err != nil {
		s.opts.logger.Error("Failed to delete wishlist item", "item_id", itemID, "error", err)
		return fmt.Errorf("failed to delete item: %w", err)
	}

	s.opts.logger.Info("Deleted wishlist item", "item_id", itemID)
	return nil
}

func (s *WishlistSync) timestamp() string {
	return s.opts.now().UTC().Format(time.RFC3339Nano)
}
