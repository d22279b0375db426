package docstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"time"

	"github.com/mmynk/wishlist/internal/stream"
)

// WatchDocument streams the state of one document: the current state first,
// then a new snapshot whenever it changes. A missing document is published as
// a Snapshot whose Data is nil.
func WatchDocument(ctx context.Context, store Store, collection, id string) *stream.Stream[Snapshot] {
	return stream.New(ctx, func(ctx context.Context, publish func(Snapshot)) error {
		read := func(ctx context.Context) (Snapshot, error) {
			snap, err := store.Get(ctx, collection, id)
			if errors.Is(err, ErrNotFound) {
				return Snapshot{ID: id}, nil
			}
			return snap, err
		}
		return watch(ctx, store, collection, read, publish)
	})
}

// WatchQuery streams the result set of q: the current result first, then a
// full replacement whenever it changes.
func WatchQuery(ctx context.Context, store Store, q Query) *stream.Stream[[]Snapshot] {
	return stream.New(ctx, func(ctx context.Context, publish func([]Snapshot)) error {
		if err := ValidateQuery(q); err != nil {
			return err
		}
		read := func(ctx context.Context) ([]Snapshot, error) {
			snaps, err := store.Find(ctx, q)
			if err != nil {
				return nil, err
			}
			if snaps == nil {
				snaps = []Snapshot{}
			}
			return snaps, nil
		}
		return watch(ctx, store, q.Collection, read, publish)
	})
}

// Failed reads are retried after retryDelay, doubling up to maxRetryDelay,
// until a read succeeds or a change signal arrives.
var (
	retryDelay    = time.Second
	maxRetryDelay = 30 * time.Second
)

// watch listens before the first read so no write between the two is missed,
// then re-reads on every change signal and publishes only differing results.
func watch[T any](ctx context.Context, store Store, collection string, read func(context.Context) (T, error), publish func(T)) error {
	changes, err := store.Listen(ctx, collection)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", collection, err)
	}

	var (
		last      T
		published bool
		retry     *time.Timer
		retryC    <-chan time.Time
		delay     = retryDelay
	)
	defer func() {
		if retry != nil {
			retry.Stop()
		}
	}()

	refresh := func() {
		if retry != nil {
			retry.Stop()
			retry, retryC = nil, nil
		}

		v, err := read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			slog.Warn("Watch read failed", "collection", collection, "retry_in", delay, "error", err)
			retry = time.NewTimer(delay)
			retryC = retry.C
			delay = min(delay*2, maxRetryDelay)
			return
		}
		delay = retryDelay

		if published && reflect.DeepEqual(last, v) {
			return
		}
		last, published = v, true
		publish(v)
	}

	refresh()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-retryC:
			retry, retryC = nil, nil
			refresh()
		case _, ok := <-changes:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return ErrClosed
			}
			refresh()
		}
	}
}
