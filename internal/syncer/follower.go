package syncer

import (
	"context"
	"errors"
	"sync"

	"github.com/mmynk/wishlist/internal/models"
	"github.com/mmynk/wishlist/internal/stream"
)

// ErrFollowerClosed is returned by Switch after Close.
var ErrFollowerClosed = errors.New("follower closed")

// WishlistSource is anything that can stream an owner's wishlist. Both
// WishlistSync and the remote client satisfy it.
type WishlistSource interface {
	Subscribe(ctx context.Context, ownerID string) (*stream.Stream[models.Wishlist], error)
}

// Follower streams the wishlist of one owner at a time and can be pointed at
// a different owner without the consumer re-subscribing.
type Follower struct {
	source WishlistSource
	out    *stream.Latest[models.Wishlist]

	mu      sync.Mutex
	owner   string
	inner   *stream.Stream[models.Wishlist]
	fwdDone chan struct{}
	closed  bool
}

// NewFollower creates a Follower that is not following anyone yet.
func NewFollower(source WishlistSource) *Follower {
	return &Follower{
		source: source,
		out:    stream.NewLatest[models.Wishlist](),
	}
}

// Follow returns a Follower over s.
func (s *WishlistSync) Follow() *Follower {
	return NewFollower(s)
}

// Switch starts following ownerID. The previous subscription is released and
// its unread snapshot discarded before the new one starts, so once Switch
// returns C never yields the previous owner's list. ctx bounds the new
// subscription. Switching to the current owner is a no-op.
func (f *Follower) Switch(ctx context.Context, ownerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return ErrFollowerClosed
	}
	if f.inner != nil && f.owner == ownerID {
		return nil
	}

	f.stopLocked()

	inner, err := f.source.Subscribe(ctx, ownerID)
	if err != nil {
		return err
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for w := range inner.C() {
			f.out.Put(w)
		}
	}()

	f.owner = ownerID
	f.inner = inner
	f.fwdDone = done
	return nil
}

// stopLocked releases the current subscription and waits for the forwarder.
func (f *Follower) stopLocked() {
	if f.inner == nil {
		return
	}
	f.inner.Close()
	<-f.fwdDone
	f.out.Drain()

	f.owner = ""
	f.inner = nil
	f.fwdDone = nil
}

// C yields snapshots of the owner being followed. It is closed by Close.
func (f *Follower) C() <-chan models.Wishlist {
	return f.out.C()
}

// Owner returns the owner being followed, or "" if none.
func (f *Follower) Owner() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.owner
}

// Err reports why the current subscription stopped on its own, if it did.
func (f *Follower) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.inner == nil {
		return nil
	}
	return f.inner.Err()
}

// Close releases the subscription and closes C. It is safe to call more than once.
func (f *Follower) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return
	}
	f.closed = true
	f.stopLocked()
	f.out.Close()
}
