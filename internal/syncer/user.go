package syncer

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/mmynk/wishlist/internal/docstore"
	"github.com/mmynk/wishlist/internal/metrics"
	"github.com/mmynk/wishlist/internal/models"
	"github.com/mmynk/wishlist/internal/schema"
	"github.com/mmynk/wishlist/internal/stream"
)

// UserSync publishes Profile snapshots for a user.
type UserSync struct {
	store docstore.Store
	opts  options
}

// NewUserSync creates a UserSync reading from store.
func NewUserSync(store docstore.Store, opts ...Option) *UserSync {
	return &UserSync{store: store, opts: newOptions(opts)}
}

// Subscribe follows users/<ownerID>. Each time the document changes its
// friend list is resolved with one-shot reads and the result is published as
// a single Profile. A missing or invalid user document publishes nothing, so
// subscribers keep the last good profile.
func (s *UserSync) Subscribe(ctx context.Context, ownerID string) (*stream.Stream[models.Profile], error) {
	if ownerID == "" {
		return nil, ErrEmptyOwner
	}

	return stream.New(ctx, func(ctx context.Context, publish func(models.Profile)) error {
		release := s.opts.metrics.SubscriptionOpened(metrics.StreamProfile)
		defer release()

		docs := docstore.WatchDocument(ctx, s.store, schema.Users, ownerID)
		defer docs.Close()

		for snap := range docs.C() {
			profile, ok := s.resolve(ctx, snap)
			if !ok {
				continue
			}
			publish(profile)
			s.opts.metrics.SnapshotPublished(metrics.StreamProfile)
		}
		return docs.Err()
	}), nil
}

func (s *UserSync) resolve(ctx context.Context, snap docstore.Snapshot) (models.Profile, bool) {
	logger := s.opts.logger.With("user_id", snap.ID)

	if !snap.Exists() {
		logger.Debug("User document missing")
		return models.Profile{}, false
	}

	user, err := schema.ParseUser(snap.Data)
	if err != nil {
		logger.Warn("Dropping invalid user document", "error", err)
		s.opts.metrics.ValidationFailed(schema.RecordUser)
		return models.Profile{}, false
	}

	friends := s.fetchFriends(ctx, user.Friends)
	if ctx.Err() != nil {
		return models.Profile{}, false
	}

	return models.Profile{User: user, Friends: friends}, true
}

// fetchFriends reads each friend document once. Results keep the order of
// ids; friends that are missing, unreadable or invalid are skipped.
func (s *UserSync) fetchFriends(ctx context.Context, ids []string) []models.Friend {
	resolved := make([]*models.Friend, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.concurrency)
	for i, id := range ids {
		g.Go(func() error {
			friend, ok := s.fetchFriend(gctx, id)
			if ok {
				resolved[i] = &friend
			}
			return nil
		})
	}
	// Workers never fail; skipped friends are logged individually.
	_ = g.Wait()

	friends := make([]models.Friend, 0, len(ids))
	for _, f := range resolved {
		if f != nil {
			friends = append(friends, *f)
		}
	}
	return friends
}

func (s *UserSync) fetchFriend(ctx context.Context, id string) (models.Friend, bool) {
	logger := s.opts.logger.With("friend_id", id)

	snap, err := s.store.Get(ctx, schema.Users, id)
	if errors.Is(err, docstore.ErrNotFound) {
		logger.Debug("Friend document missing")
		return models.Friend{}, false
	}
	if err != nil {
		if ctx.Err() == nil {
			logger.Warn("Failed to fetch friend", "error", err)
		}
		return models.Friend{}, false
	}

	friend, err := schema.ParseFriend(snap.Data)
	if err != nil {
		logger.Warn("Dropping invalid friend document", "error", err)
		s.opts.metrics.ValidationFailed(schema.RecordFriend)
		return models.Friend{}, false
	}
	return friend, true
}

// Get reads and validates one user document without subscribing.
func (s *UserSync) Get(ctx context.Context, userID string) (models.User, error) {
	snap, err := s.store.Get(ctx, schema.Users, userID)
	if err != nil {
		return models.User{}, err
	}
	user, err := schema.ParseUser(snap.Data)
	if err != nil {
		s.opts.metrics.ValidationFailed(schema.RecordUser)
		return models.User{}, err
	}
	return user, nil
}
