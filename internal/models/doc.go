// Package models defines the core domain models for the wishlist service.
//
// # Records
//
// The following models mirror documents in the store after validation:
//   - User: the signed-in principal's profile, including friend identifiers
//   - Friend: read-only projection of another principal (no relational fields)
//   - WishlistItem: one entry on an owner's wishlist
//
// # Snapshots
//
// Synchronizers publish whole values, never diffs:
//   - Profile: one User together with its resolved friends
//   - Wishlist: all items of one owner, tagged with that owner
//
// # Design Principles
//
// 1. **Validated only**: nothing in this package is built from an unchecked document
// 2. **IDs, not pointers**: relationships are identifier strings
// 3. **Values**: snapshots are copied freely between goroutines and never mutated
package models
