// Package api defines the wishlist.v1 wire messages. Messages travel as JSON
// over Connect; field names follow the proto3 JSON mapping (lowerCamelCase).
package api

// Friend is a friend's public profile.
type Friend struct {
	Id        string `json:"id"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// User is the caller's own profile.
type User struct {
	Id        string   `json:"id"`
	Email     string   `json:"email"`
	Username  string   `json:"username"`
	CreatedAt string   `json:"createdAt,omitempty"`
	Friends   []string `json:"friends"`
}

// WishlistItem is one entry on a wishlist. Timestamps are RFC 3339.
type WishlistItem struct {
	Id          string `json:"id"`
	Owner       string `json:"owner"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	CreatedAt   string `json:"createdAt,omitempty"`
	UpdatedAt   string `json:"updatedAt,omitempty"`
}

type WhoAmIRequest struct{}

type WhoAmIResponse struct {
	UserId string `json:"userId"`
	Email  string `json:"email"`
}

type WatchProfileRequest struct{}

// WatchProfileResponse is one complete profile snapshot.
type WatchProfileResponse struct {
	User    *User     `json:"user"`
	Friends []*Friend `json:"friends"`
}

type SignOutRequest struct{}

type SignOutResponse struct{}

type WatchWishlistRequest struct {
	OwnerId string `json:"ownerId"`
}

// WatchWishlistResponse is one complete wishlist snapshot for OwnerId.
type WatchWishlistResponse struct {
	OwnerId string          `json:"ownerId"`
	Items   []*WishlistItem `json:"items"`
}

type CreateItemRequest struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

type CreateItemResponse struct {
	ItemId string `json:"itemId"`
}

type UpdateItemRequest struct {
	ItemId      string `json:"itemId"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

type UpdateItemResponse struct{}

type DeleteItemRequest struct {
	ItemId string `json:"itemId"`
}

type DeleteItemResponse struct{}
