// Package stream provides live value streams with an explicit release handle.
//
// A Stream owns exactly one producer goroutine. Consumers read from C() and
// release the stream with Close; delivery is latest-value, so a slow consumer
// never sees a backlog, only the most recent snapshot.
package stream

import (
	"context"
	"sync"
)

// Latest is a single-slot mailbox. Put replaces any unread value.
// Only one goroutine may call Put at a time.
type Latest[T any] struct {
	ch chan T
}

// NewLatest returns an empty mailbox.
func NewLatest[T any]() *Latest[T] {
	return &Latest[T]{ch: make(chan T, 1)}
}

// Put stores v, discarding an unread previous value.
func (l *Latest[T]) Put(v T) {
	l.Drain()
	l.ch <- v
}

// Drain discards the unread value, if any.
func (l *Latest[T]) Drain() {
	select {
	case <-l.ch:
	default:
	}
}

// C returns the receive side of the mailbox.
func (l *Latest[T]) C() <-chan T {
	return l.ch
}

// Close closes the receive side. Put must not be called afterwards.
func (l *Latest[T]) Close() {
	close(l.ch)
}

// Stream is a live sequence of values produced by one goroutine.
type Stream[T any] struct {
	out    *Latest[T]
	cancel context.CancelFunc
	done   chan struct{}

	closeOnce sync.Once
	mu        sync.Mutex
	err       error
}

// New starts run in its own goroutine. run must return when ctx is done.
// Values passed to publish become visible on C().
func New[T any](ctx context.Context, run func(ctx context.Context, publish func(T)) error) *Stream[T] {
	ctx, cancel := context.WithCancel(ctx)
	s := &Stream[T]{
		out:    NewLatest[T](),
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(s.done)
		defer s.out.Close()
		err := run(ctx, s.out.Put)
		if err != nil && ctx.Err() == nil {
			s.mu.Lock()
			s.err = err
			s.mu.Unlock()
		}
	}()

	return s
}

// C returns the channel of published values. It is closed once the
// producer has exited.
func (s *Stream[T]) C() <-chan T {
	return s.out.C()
}

// Done is closed once the producer has exited.
func (s *Stream[T]) Done() <-chan struct{} {
	return s.done
}

// Err reports why the producer stopped on its own. It is nil while the
// stream is running and after a plain Close.
func (s *Stream[T]) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close stops the producer and waits for it to exit. Any value not yet
// received is discarded. Close is safe to call more than once.
func (s *Stream[T]) Close() {
	s.closeOnce.Do(func() {
		s.cancel()
		<-s.done
		s.out.Drain()
	})
}
