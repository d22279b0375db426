// Package schema is the boundary gate between untyped store documents and the
// typed records in package models. Every document read from the store passes
// through one of the Parse functions before it enters local state.
package schema

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/mmynk/wishlist/internal/docstore"
	"github.com/mmynk/wishlist/internal/models"
)

// Collections.
const (
	Users         = "users"
	WishlistItems = "wishlistItems"
)

// Document fields.
const (
	FieldUID       = "uid"
	FieldEmail     = "email"
	FieldUsername  = "username"
	FieldCreatedAt = "createdAt"
	FieldUpdatedAt = "updatedAt"
	FieldFriends   = "friends"
	FieldWishlist  = "wishlist"

	FieldID          = "id"
	FieldOwner       = "user"
	FieldTitle       = "title"
	FieldDescription = "description"
)

// Record names used in ValidationError.
const (
	RecordUser   = "user"
	RecordFriend = "friend"
	RecordItem   = "wishlistItem"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidationError identifies the field that made a document unacceptable.
type ValidationError struct {
	Record string
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s: %s", e.Record, e.Field, e.Reason)
}

// ParseUser validates a users document. friends and wishlist default to empty
// when absent; every embedded wishlist entry must itself be a valid item.
func ParseUser(doc docstore.Document) (models.User, error) {
	r := reader{record: RecordUser, doc: doc}

	var (
		u   models.User
		err error
	)
	if u.ID, err = r.requiredString(FieldUID); err != nil {
		return models.User{}, err
	}
	if u.Email, err = r.email(FieldEmail); err != nil {
		return models.User{}, err
	}
	if u.Username, err = r.requiredString(FieldUsername); err != nil {
		return models.User{}, err
	}
	if u.CreatedAt, err = r.timestamp(FieldCreatedAt); err != nil {
		return models.User{}, err
	}
	if u.Friends, err = r.stringList(FieldFriends); err != nil {
		return models.User{}, err
	}

	entries, err := r.list(FieldWishlist)
	if err != nil {
		return models.User{}, err
	}
	u.Wishlist = make([]models.WishlistItem, 0, len(entries))
	for i, entry := range entries {
		m, ok := asMap(entry)
		if !ok {
			return models.User{}, r.fail(fmt.Sprintf("%s[%d]", FieldWishlist, i), "must be an object")
		}
		item, err := parseItem(reader{record: RecordUser, doc: m, path: fmt.Sprintf("%s[%d].", FieldWishlist, i)})
		if err != nil {
			return models.User{}, err
		}
		u.Wishlist = append(u.Wishlist, item)
	}

	return u, nil
}

// ParseFriend validates a users document as a Friend. Relational fields are
// ignored, so a friend whose own lists are malformed still resolves.
func ParseFriend(doc docstore.Document) (models.Friend, error) {
	r := reader{record: RecordFriend, doc: doc}

	var (
		f   models.Friend
		err error
	)
	if f.ID, err = r.requiredString(FieldUID); err != nil {
		return models.Friend{}, err
	}
	if f.Email, err = r.email(FieldEmail); err != nil {
		return models.Friend{}, err
	}
	if f.Username, err = r.requiredString(FieldUsername); err != nil {
		return models.Friend{}, err
	}
	if f.CreatedAt, err = r.timestamp(FieldCreatedAt); err != nil {
		return models.Friend{}, err
	}
	return f, nil
}

// ParseWishlistItem validates a wishlistItems snapshot. The snapshot ID is
// attached as the item ID, overriding any id field in the body.
func ParseWishlistItem(snap docstore.Snapshot) (models.WishlistItem, error) {
	doc := docstore.Merge(snap.Data, docstore.Document{FieldID: snap.ID})
	return parseItem(reader{record: RecordItem, doc: doc})
}

// ParseItemOwner reads only the owner field of a wishlistItems document, so
// an item that is otherwise invalid can still be attributed.
func ParseItemOwner(doc docstore.Document) (string, error) {
	return reader{record: RecordItem, doc: doc}.requiredString(FieldOwner)
}

func parseItem(r reader) (models.WishlistItem, error) {
	var (
		item models.WishlistItem
		err  error
	)
	if item.ID, err = r.requiredString(FieldID); err != nil {
		return models.WishlistItem{}, err
	}
	if item.Owner, err = r.requiredString(FieldOwner); err != nil {
		return models.WishlistItem{}, err
	}
	if item.Title, err = r.nonBlankString(FieldTitle); err != nil {
		return models.WishlistItem{}, err
	}
	if item.Description, err = r.optionalString(FieldDescription); err != nil {
		return models.WishlistItem{}, err
	}
	if item.CreatedAt, err = r.timestamp(FieldCreatedAt); err != nil {
		return models.WishlistItem{}, err
	}
	if item.UpdatedAt, err = r.timestamp(FieldUpdatedAt); err != nil {
		return models.WishlistItem{}, err
	}
	return item, nil
}

// reader pulls typed fields out of a document, reporting failures as
// ValidationErrors. path prefixes field names for nested records.
type reader struct {
	record string
	doc    map[string]any
	path   string
}

func (r reader) fail(field, reason string) error {
	return &ValidationError{Record: r.record, Field: r.path + field, Reason: reason}
}

func (r reader) requiredString(field string) (string, error) {
	v, ok := r.doc[field]
	if !ok || v == nil {
		return "", r.fail(field, "required")
	}
	s, ok := v.(string)
	if !ok {
		return "", r.fail(field, fmt.Sprintf("expected string, got %T", v))
	}
	return s, nil
}

// nonBlankString is requiredString that also rejects whitespace-only values.
func (r reader) nonBlankString(field string) (string, error) {
	s, err := r.requiredString(field)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(s) == "" {
		return "", r.fail(field, "must not be blank")
	}
	return s, nil
}

func (r reader) optionalString(field string) (string, error) {
	v, ok := r.doc[field]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", r.fail(field, fmt.Sprintf("expected string, got %T", v))
	}
	return s, nil
}

func (r reader) email(field string) (string, error) {
	s, err := r.requiredString(field)
	if err != nil {
		return "", err
	}
	if err := validate.Var(s, "email"); err != nil {
		return "", r.fail(field, "must be a valid email address")
	}
	return s, nil
}

func (r reader) list(field string) ([]any, error) {
	v, ok := r.doc[field]
	if !ok || v == nil {
		return nil, nil
	}
	switch l := v.(type) {
	case []any:
		return l, nil
	case []string:
		out := make([]any, len(l))
		for i, s := range l {
			out[i] = s
		}
		return out, nil
	default:
		return nil, r.fail(field, fmt.Sprintf("expected list, got %T", v))
	}
}

func (r reader) stringList(field string) ([]string, error) {
	entries, err := r.list(field)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(entries))
	for i, e := range entries {
		s, ok := e.(string)
		if !ok {
			return nil, r.fail(fmt.Sprintf("%s[%d]", field, i), fmt.Sprintf("expected string, got %T", e))
		}
		out = append(out, s)
	}
	return out, nil
}

func (r reader) timestamp(field string) (time.Time, error) {
	t, err := parseTimestamp(r.doc[field])
	if err != nil {
		return time.Time{}, r.fail(field, err.Error())
	}
	return t, nil
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case docstore.Document:
		return m, true
	default:
		return nil, false
	}
}
