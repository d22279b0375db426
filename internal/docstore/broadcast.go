package docstore

import (
	"context"
	"sync"
)

// Broadcaster is an in-process change feed. Backends without a native
// notification mechanism publish to it after every committed write.
type Broadcaster struct {
	mu        sync.Mutex
	closed    bool
	listeners map[string]map[chan Change]struct{}
}

// NewBroadcaster creates an empty change feed.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{listeners: make(map[string]map[chan Change]struct{})}
}

// Listen registers a listener for collection until ctx is done.
func (b *Broadcaster) Listen(ctx context.Context, collection string) (<-chan Change, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrClosed
	}

	ch := make(chan Change, 1)
	set, ok := b.listeners[collection]
	if !ok {
		set = make(map[chan Change]struct{})
		b.listeners[collection] = set
	}
	set[ch] = struct{}{}

	go func() {
		<-ctx.Done()
		b.remove(collection, ch)
	}()

	return ch, nil
}

func (b *Broadcaster) remove(collection string, ch chan Change) {
	b.mu.Lock()
	defer b.mu.Unlock()

	set, ok := b.listeners[collection]
	if !ok {
		return
	}
	if _, ok := set[ch]; !ok {
		return
	}
	delete(set, ch)
	if len(set) == 0 {
		delete(b.listeners, collection)
	}
	close(ch)
}

// Publish signals every listener of c.Collection. A listener that already has
// a pending signal keeps it; the new one is coalesced into it.
func (b *Broadcaster) Publish(c Change) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for ch := range b.listeners[c.Collection] {
		select {
		case ch <- c:
		default:
		}
	}
}

// Close closes every listener channel and rejects new listeners.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for _, set := range b.listeners {
		for ch := range set {
			close(ch)
		}
	}
	b.listeners = make(map[string]map[chan Change]struct{})
}
