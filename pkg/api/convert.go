package api

import (
	"fmt"
	"time"

	"github.com/mmynk/wishlist/internal/models"
)

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(field, s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s: %w", field, err)
	}
	return t.UTC(), nil
}

// FromProfile converts a profile snapshot to its wire form.
func FromProfile(p models.Profile) *WatchProfileResponse {
	friends := make([]*Friend, len(p.Friends))
	for i, f := range p.Friends {
		friends[i] = &Friend{
			Id:        f.ID,
			Email:     f.Email,
			Username:  f.Username,
			CreatedAt: formatTime(f.CreatedAt),
		}
	}

	ids := p.User.Friends
	if ids == nil {
		ids = []string{}
	}

	return &WatchProfileResponse{
		User: &User{
			Id:        p.User.ID,
			Email:     p.User.Email,
			Username:  p.User.Username,
			CreatedAt: formatTime(p.User.CreatedAt),
			Friends:   ids,
		},
		Friends: friends,
	}
}

// ToProfile converts a wire profile snapshot back to the model.
func ToProfile(msg *WatchProfileResponse) (models.Profile, error) {
	if msg == nil || msg.User == nil {
		return models.Profile{}, fmt.Errorf("profile snapshot without user")
	}

	createdAt, err := parseTime("user.createdAt", msg.User.CreatedAt)
	if err != nil {
		return models.Profile{}, err
	}
	ids := append([]string{}, msg.User.Friends...)

	p := models.Profile{
		User: models.User{
			ID:        msg.User.Id,
			Email:     msg.User.Email,
			Username:  msg.User.Username,
			CreatedAt: createdAt,
			Friends:   ids,
			Wishlist:  []models.WishlistItem{},
		},
		Friends: make([]models.Friend, 0, len(msg.Friends)),
	}

	for _, f := range msg.Friends {
		if f == nil {
			continue
		}
		createdAt, err := parseTime("friend.createdAt", f.CreatedAt)
		if err != nil {
			return models.Profile{}, err
		}
		p.Friends = append(p.Friends, models.Friend{
			ID:        f.Id,
			Email:     f.Email,
			Username:  f.Username,
			CreatedAt: createdAt,
		})
	}
	return p, nil
}

// FromItem converts a wishlist item to its wire form.
func FromItem(item models.WishlistItem) *WishlistItem {
	return &WishlistItem{
		Id:          item.ID,
		Owner:       item.Owner,
		Title:       item.Title,
		Description: item.Description,
		CreatedAt:   formatTime(item.CreatedAt),
		UpdatedAt:   formatTime(item.UpdatedAt),
	}
}

// ToItem converts a wire item back to the model.
func ToItem(msg *WishlistItem) (models.WishlistItem, error) {
	createdAt, err := parseTime("item.createdAt", msg.CreatedAt)
	if err != nil {
		return models.WishlistItem{}, err
	}
	updatedAt, err := parseTime("item.updatedAt", msg.UpdatedAt)
	if err != nil {
		return models.WishlistItem{}, err
	}
	return models.WishlistItem{
		ID:          msg.Id,
		Owner:       msg.Owner,
		Title:       msg.Title,
		Description: msg.Description,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}, nil
}

// FromWishlist converts a wishlist snapshot to its wire form.
func FromWishlist(w models.Wishlist) *WatchWishlistResponse {
	items := make([]*WishlistItem, len(w.Items))
	for i, item := range w.Items {
		items[i] = FromItem(item)
	}
	return &WatchWishlistResponse{OwnerId: w.OwnerID, Items: items}
}

// ToWishlist converts a wire wishlist snapshot back to the model.
func ToWishlist(msg *WatchWishlistResponse) (models.Wishlist, error) {
	w := models.Wishlist{
		OwnerID: msg.OwnerId,
		Items:   make([]models.WishlistItem, 0, len(msg.Items)),
	}
	for _, m := range msg.Items {
		if m == nil {
			continue
		}
		item, err := ToItem(m)
		if err != nil {
			return models.Wishlist{}, err
		}
		w.Items = append(w.Items, item)
	}
	return w, nil
}
