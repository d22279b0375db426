package models

import "time"

// User represents a signed-in principal's profile document.
type User struct {
	// ID is the principal identifier issued by the identity provider.
	ID string

	// Email is the user's email address.
	Email string

	// Username is the display name shown to friends.
	Username string

	// CreatedAt is when the profile was created. Zero if the document has none.
	CreatedAt time.Time

	// Friends lists friend identifiers. Order is preserved; identifiers with no
	// document are allowed and skipped when friends are resolved.
	Friends []string

	// Wishlist is the legacy embedded item list. New items live in their own
	// collection; this stays empty for most users.
	Wishlist []WishlistItem
}

// Friend is a read-only view of another principal.
type Friend struct {
	ID        string
	Email     string
	Username  string
	CreatedAt time.Time
}

// AsFriend projects u without its relational fields.
func (u User) AsFriend() Friend {
	return Friend{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.Username,
		CreatedAt: u.CreatedAt,
	}
}

// HasFriend reports whether id is in u's friend list.
func (u User) HasFriend(id string) bool {
	for _, f := range u.Friends {
		if f == id {
			return true
		}
	}
	return false
}

// Profile is one snapshot of a user together with the friends that resolved.
type Profile struct {
	User    User
	Friends []Friend
}
