// Package docstore defines the document store boundary: untyped records kept
// in named collections, one-shot reads and writes, and a change feed that the
// live watchers in this package turn into streams.
//
// Backends live in subpackages (sqlite, redisstore, memory). Everything read through
// this package is still untyped; callers pass it through the schema package
// before using it.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
)

var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("document not found")
	// ErrInvalidField is returned for query fields that are not plain identifiers.
	ErrInvalidField = errors.New("invalid field name")
	// ErrClosed is returned by a store after Close.
	ErrClosed = errors.New("store closed")
)

// Document is an untyped key-value record.
type Document map[string]any

// Snapshot is the state of one document at read time. Data is nil when the
// document does not exist.
type Snapshot struct {
	ID   string
	Data Document
}

// Exists reports whether the snapshot holds a document.
func (s Snapshot) Exists() bool {
	return s.Data != nil
}

// Query selects the documents of a collection whose Field equals Value.
// An empty Field selects the whole collection.
type Query struct {
	Collection string
	Field      string
	Value      any
}

// Matches reports whether doc satisfies the query filter.
func (q Query) Matches(doc Document) bool {
	if q.Field == "" {
		return true
	}
	v, ok := doc[q.Field]
	if !ok {
		return false
	}
	return v == q.Value
}

// Change signals that a document in Collection was written or deleted.
type Change struct {
	Collection string
	ID         string
}

// Store is the document store boundary.
type Store interface {
	// Get reads one document. Returns ErrNotFound if it does not exist.
	Get(ctx context.Context, collection, id string) (Snapshot, error)

	// Find returns the documents matching q in creation order.
	Find(ctx context.Context, q Query) ([]Snapshot, error)

	// Add creates a document under a store-assigned ID and returns the ID.
	Add(ctx context.Context, collection string, doc Document) (string, error)

	// Set creates or replaces the document with the given ID.
	Set(ctx context.Context, collection, id string, doc Document) error

	// Update merges fields into an existing document.
	// Returns ErrNotFound if it does not exist.
	Update(ctx context.Context, collection, id string, fields Document) error

	// Delete removes a document. Deleting a missing document is not an error.
	Delete(ctx context.Context, collection, id string) error

	// Listen delivers change signals for collection until ctx is done, then
	// closes the channel. Signals coalesce: a slow listener may observe several
	// writes as one Change.
	Listen(ctx context.Context, collection string) (<-chan Change, error)

	// Close releases any resources held by the store.
	Close() error
}

var fieldPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidateQuery checks that q can be evaluated by every backend.
func ValidateQuery(q Query) error {
	if q.Collection == "" {
		return fmt.Errorf("query: collection required")
	}
	if q.Field != "" && !fieldPattern.MatchString(q.Field) {
		return fmt.Errorf("%w: %q", ErrInvalidField, q.Field)
	}
	return nil
}
