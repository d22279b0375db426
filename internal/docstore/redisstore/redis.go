// Package redisstore provides a Redis-backed implementation of docstore.Store.
//
// Layout, for a key prefix P:
//
//	P doc:<collection>:<id>   JSON document body
//	P docs:<collection>       sorted set of ids scored by creation sequence
//	P seq:<collection>        creation sequence counter
//	P changes:<collection>    pub/sub channel carrying changed ids
//
// Because change signals travel over Redis Pub/Sub, several service replicas
// sharing one Redis observe each other's writes.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/go-redis/redis/v8"
	"github.com/oklog/ulid/v2"

	"github.com/mmynk/wishlist/internal/docstore"
)

// Ensure RedisStore implements docstore.Store
var _ docstore.Store = (*RedisStore)(nil)

const maxUpdateAttempts = 5

// RedisStore provides document persistence in Redis.
type RedisStore struct {
	client *redis.Client
	prefix string

	closeOnce sync.Once
	done      chan struct{}
}

// New connects to addr and verifies the connection.
func New(ctx context.Context, addr string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("could not connect to redis (%s): %w", addr, err)
	}
	return NewWithClient(client, ""), nil
}

// NewWithClient wraps an existing client. All keys are prefixed with prefix.
func NewWithClient(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: prefix,
		done:   make(chan struct{}),
	}
}

func (s *RedisStore) docKey(collection, id string) string {
	return fmt.Sprintf("%sdoc:%s:%s", s.prefix, collection, id)
}

func (s *RedisStore) indexKey(collection string) string {
	return fmt.Sprintf("%sdocs:%s", s.prefix, collection)
}

func (s *RedisStore) seqKey(collection string) string {
	return fmt.Sprintf("%sseq:%s", s.prefix, collection)
}

func (s *RedisStore) channel(collection string) string {
	return fmt.Sprintf("%schanges:%s", s.prefix, collection)
}

// Get retrieves a document by ID.
func (s *RedisStore) Get(ctx context.Context, collection, id string) (docstore.Snapshot, error) {
	data, err := s.client.Get(ctx, s.docKey(collection, id)).Bytes()
	if err == redis.Nil {
		return docstore.Snapshot{}, docstore.ErrNotFound
	}
	if err != nil {
		return docstore.Snapshot{}, fmt.Errorf("failed to get document: %w", err)
	}
	doc, err := docstore.Unmarshal(data)
	if err != nil {
		return docstore.Snapshot{}, err
	}
	return docstore.Snapshot{ID: id, Data: doc}, nil
}

// Find returns matching documents in creation order. The filter is applied
// after loading the collection index.
func (s *RedisStore) Find(ctx context.Context, q docstore.Query) ([]docstore.Snapshot, error) {
	if err := docstore.ValidateQuery(q); err != nil {
		return nil, err
	}

	ids, err := s.client.ZRange(ctx, s.indexKey(q.Collection), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read index: %w", err)
	}
	snaps := []docstore.Snapshot{}
	if len(ids) == 0 {
		return snaps, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.Get(ctx, s.docKey(q.Collection, id))
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, fmt.Errorf("failed to load documents: %w", err)
	}

	for i, cmd := range cmds {
		data, err := cmd.Bytes()
		if err != nil {
			if err == redis.Nil {
				// deleted between the index read and the load
				continue
			}
			return nil, err
		}
		doc, err := docstore.Unmarshal(data)
		if err != nil {
			return nil, err
		}
		if !q.Matches(doc) {
			continue
		}
		snaps = append(snaps, docstore.Snapshot{ID: ids[i], Data: doc})
	}
	return snaps, nil
}

// Add stores a new document under a generated ULID.
func (s *RedisStore) Add(ctx context.Context, collection string, doc docstore.Document) (string, error) {
	id := ulid.Make().String()
	if err := s.Set(ctx, collection, id, doc); err != nil {
		return "", err
	}
	return id, nil
}

// Set creates or replaces a document. A replaced document keeps its
// position in the creation order.
func (s *RedisStore) Set(ctx context.Context, collection, id string, doc docstore.Document) error {
	data, err := docstore.Marshal(doc)
	if err != nil {
		return err
	}

	seq, err := s.client.Incr(ctx, s.seqKey(collection)).Result()
	if err != nil {
		return fmt.Errorf("failed to allocate sequence: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.docKey(collection, id), data, 0)
	pipe.ZAddNX(ctx, s.indexKey(collection), &redis.Z{Score: float64(seq), Member: id})
	pipe.Publish(ctx, s.channel(collection), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}
	return nil
}

// Update merges fields into an existing document using an optimistic
// transaction on the document key.
func (s *RedisStore) Update(ctx context.Context, collection, id string, fields docstore.Document) error {
	key := s.docKey(collection, id)

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err == redis.Nil {
			return docstore.ErrNotFound
		}
		if err != nil {
			return err
		}
		current, err := docstore.Unmarshal(data)
		if err != nil {
			return err
		}
		merged, err := docstore.Marshal(docstore.Merge(current, fields))
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, merged, 0)
			pipe.Publish(ctx, s.channel(collection), id)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		err := s.client.Watch(ctx, txf, key)
		if err == redis.TxFailedErr {
			continue
		}
		if err != nil && !errors.Is(err, docstore.ErrNotFound) {
			return fmt.Errorf("failed to update document: %w", err)
		}
		return err
	}
	return fmt.Errorf("failed to update document: too much contention on %s", key)
}

// Delete removes a document. Deleting a missing document is a no-op.
func (s *RedisStore) Delete(ctx context.Context, collection, id string) error {
	pipe := s.client.TxPipeline()
	del := pipe.Del(ctx, s.docKey(collection, id))
	pipe.ZRem(ctx, s.indexKey(collection), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	if del.Val() > 0 {
		if err := s.client.Publish(ctx, s.channel(collection), id).Err(); err != nil {
			return fmt.Errorf("failed to publish change: %w", err)
		}
	}
	return nil
}

// Listen subscribes to the collection's change channel. The subscription is
// confirmed before Listen returns.
func (s *RedisStore) Listen(ctx context.Context, collection string) (<-chan docstore.Change, error) {
	select {
	case <-s.done:
		return nil, docstore.ErrClosed
	default:
	}

	ps := s.client.Subscribe(ctx, s.channel(collection))
	if _, err := ps.Receive(ctx); err != nil {
		ps.Close()
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}

	out := make(chan docstore.Change, 1)
	go func() {
		defer close(out)
		defer ps.Close()

		msgs := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.done:
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				select {
				case out <- docstore.Change{Collection: collection, ID: msg.Payload}:
				default:
				}
			}
		}
	}()

	return out, nil
}

// Close stops all listeners and closes the client.
func (s *RedisStore) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		err = s.client.Close()
	})
	return err
}
