package models

import "time"

// WishlistItem represents a single entry on an owner's wishlist.
type WishlistItem struct {
	// ID is assigned by the store and stable across synchronizations.
	ID string

	// Owner is the identifier of the principal the item belongs to.
	Owner string

	// Title is the item name. Never blank.
	Title string

	// Description holds optional details ("prefer over-ear, Bluetooth").
	Description string

	// CreatedAt is when the item was created.
	CreatedAt time.Time

	// UpdatedAt is when the item was last edited. Zero if never edited.
	UpdatedAt time.Time
}

// Wishlist is one snapshot of an owner's items in creation order.
type Wishlist struct {
	OwnerID string
	Items   []WishlistItem
}

// Find returns the item with the given ID.
func (w Wishlist) Find(id string) (WishlistItem, bool) {
	for _, item := range w.Items {
		if item.ID == id {
			return item, true
		}
	}
	return WishlistItem{}, false
}
