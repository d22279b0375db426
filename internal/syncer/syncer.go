// Package syncer binds document store collections to typed, validated
// snapshots. UserSync follows one user and resolves their friends;
// WishlistSync follows one owner's items and performs item mutations.
//
// Every snapshot a syncer publishes is complete: a profile together with all
// of its resolved friends, or an owner's whole item list. Documents that fail
// validation are logged and left out; they never stop a stream.
package syncer

import (
	"errors"
	"log/slog"
	"time"

	"github.com/mmynk/wishlist/internal/metrics"
)

// ErrEmptyOwner is returned when a subscription or mutation names no owner.
var ErrEmptyOwner = errors.New("owner id is required")

// DefaultFriendConcurrency bounds parallel friend reads when no limit is set.
const DefaultFriendConcurrency = 4

type options struct {
	logger      *slog.Logger
	metrics     *metrics.Metrics
	concurrency int
	now         func() time.Time
}

// Option configures a syncer.
type Option func(*options)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics records validation failures, snapshots and mutations on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithFriendConcurrency bounds how many friend documents are read at once.
func WithFriendConcurrency(n int) Option {
	return func(o *options) { o.concurrency = n }
}

// WithClock overrides the time source used for createdAt and updatedAt.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func newOptions(opts []Option) options {
	o := options{
		logger:      slog.Default(),
		concurrency: DefaultFriendConcurrency,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.concurrency < 1 {
		o.concurrency = 1
	}
	return o
}
