// Package supporters tracks which people have volunteered to fulfill a
// wishlist item. A Board is session state: it is not persisted and is owned
// by whoever created it.
package supporters

import (
	"slices"
	"sync"
)

// Board maps item IDs to the ordered set of supporter names.
// It is safe for concurrent use.
type Board struct {
	mu    sync.Mutex
	items map[string][]string
}

// NewBoard creates an empty board.
func NewBoard() *Board {
	return &Board{items: make(map[string][]string)}
}

// Add records name as a supporter of itemID. Adding an existing supporter
// is a no-op. Reports whether the board changed.
func (b *Board) Add(itemID, name string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	names := b.items[itemID]
	if slices.Contains(names, name) {
		return false
	}
	b.items[itemID] = append(names, name)
	return true
}

// Remove drops name from itemID's supporters. Reports whether the board changed.
func (b *Board) Remove(itemID, name string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	names := b.items[itemID]
	i := slices.Index(names, name)
	if i < 0 {
		return false
	}
	names = slices.Delete(slices.Clone(names), i, i+1)
	if len(names) == 0 {
		delete(b.items, itemID)
	} else {
		b.items[itemID] = names
	}
	return true
}

// Toggle adds name if absent and removes it otherwise. Reports whether name
// supports itemID afterwards.
func (b *Board) Toggle(itemID, name string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	names := b.items[itemID]
	if i := slices.Index(names, name); i >= 0 {
		names = slices.Delete(slices.Clone(names), i, i+1)
		if len(names) == 0 {
			delete(b.items, itemID)
		} else {
			b.items[itemID] = names
		}
		return false
	}
	b.items[itemID] = append(names, name)
	return true
}

// Has reports whether name supports itemID.
func (b *Board) Has(itemID, name string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Contains(b.items[itemID], name)
}

// List returns a copy of itemID's supporters in the order they were added.
func (b *Board) List(itemID string) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.items[itemID])
}

// Snapshot returns a copy of the whole board.
func (b *Board) Snapshot() map[string][]string {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make(map[string][]string, len(b.items))
	for id, names := range b.items {
		out[id] = slices.Clone(names)
	}
	return out
}
