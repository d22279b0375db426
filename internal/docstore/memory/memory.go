// Package memory provides an in-process implementation of docstore.Store.
// Nothing is persisted; it backs tests and STORE_DRIVER=memory.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/mmynk/wishlist/internal/docstore"
)

// Ensure Store implements docstore.Store
var _ docstore.Store = (*Store)(nil)

type entry struct {
	seq uint64
	doc docstore.Document
}

// Store keeps documents in maps guarded by a mutex.
type Store struct {
	mu          sync.RWMutex
	seq         uint64
	closed      bool
	collections map[string]map[string]entry
	feed        *docstore.Broadcaster
}

// New creates an empty store.
func New() *Store {
	return &Store{
		collections: make(map[string]map[string]entry),
		feed:        docstore.NewBroadcaster(),
	}
}

// Get reads one document.
func (s *Store) Get(ctx context.Context, collection, id string) (docstore.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return docstore.Snapshot{}, docstore.ErrClosed
	}
	e, ok := s.collections[collection][id]
	if !ok {
		return docstore.Snapshot{}, docstore.ErrNotFound
	}
	doc, err := docstore.Normalize(e.doc)
	if err != nil {
		return docstore.Snapshot{}, err
	}
	return docstore.Snapshot{ID: id, Data: doc}, nil
}

// Find returns matching documents in creation order.
func (s *Store) Find(ctx context.Context, q docstore.Query) ([]docstore.Snapshot, error) {
	if err := docstore.ValidateQuery(q); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, docstore.ErrClosed
	}

	type hit struct {
		seq  uint64
		snap docstore.Snapshot
	}
	var hits []hit
	for id, e := range s.collections[q.Collection] {
		if !q.Matches(e.doc) {
			continue
		}
		doc, err := docstore.Normalize(e.doc)
		if err != nil {
			return nil, err
		}
		hits = append(hits, hit{seq: e.seq, snap: docstore.Snapshot{ID: id, Data: doc}})
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].seq < hits[j].seq })

	snaps := make([]docstore.Snapshot, len(hits))
	for i, h := range hits {
		snaps[i] = h.snap
	}
	return snaps, nil
}

// Add stores doc under a new ULID.
func (s *Store) Add(ctx context.Context, collection string, doc docstore.Document) (string, error) {
	id := ulid.Make().String()
	if err := s.write(collection, id, doc, false); err != nil {
		return "", err
	}
	return id, nil
}

// Set creates or replaces a document.
func (s *Store) Set(ctx context.Context, collection, id string, doc docstore.Document) error {
	return s.write(collection, id, doc, false)
}

// Update merges fields into an existing document.
func (s *Store) Update(ctx context.Context, collection, id string, fields docstore.Document) error {
	return s.write(collection, id, fields, true)
}

func (s *Store) write(collection, id string, doc docstore.Document, merge bool) error {
	normalized, err := docstore.Normalize(doc)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return docstore.ErrClosed
	}
	coll, ok := s.collections[collection]
	if !ok {
		coll = make(map[string]entry)
		s.collections[collection] = coll
	}
	existing, exists := coll[id]
	switch {
	case merge && !exists:
		s.mu.Unlock()
		return docstore.ErrNotFound
	case merge:
		existing.doc = docstore.Merge(existing.doc, normalized)
		coll[id] = existing
	case exists:
		existing.doc = normalized
		coll[id] = existing
	default:
		s.seq++
		coll[id] = entry{seq: s.seq, doc: normalized}
	}
	s.mu.Unlock()

	s.feed.Publish(docstore.Change{Collection: collection, ID: id})
	return nil
}

// Delete removes a document; a missing document is a no-op.
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return docstore.ErrClosed
	}
	_, exists := s.collections[collection][id]
	if exists {
		delete(s.collections[collection], id)
	}
	s.mu.Unlock()

	if exists {
		s.feed.Publish(docstore.Change{Collection: collection, ID: id})
	}
	return nil
}

// Listen subscribes to the in-process change feed.
func (s *Store) Listen(ctx context.Context, collection string) (<-chan docstore.Change, error) {
	return s.feed.Listen(ctx, collection)
}

// Close drops all data and closes listeners.
func (s *Store) Close() error {
	s.mu.Lock()
	s.closed = true
	s.collections = nil
	s.mu.Unlock()

	s.feed.Close()
	return nil
}
