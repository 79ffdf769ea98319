package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore persists identity records in Redis. Compare-and-set runs as a
// WATCH/MULTI transaction on the record key, so a concurrent writer aborts
// the transaction and surfaces ErrUpdateConflict.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithRedisTTL sets the per-record expiry, refreshed on every save.
// Zero keeps records forever.
func WithRedisTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStore) { s.ttl = ttl }
}

// WithRedisPrefix overrides the key prefix.
func WithRedisPrefix(prefix string) RedisOption {
	return func(s *RedisStore) { s.prefix = prefix }
}

// NewRedisStore wraps an existing client. The caller owns the client's
// lifecycle.
func NewRedisStore(client *redis.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		client: client,
		prefix: "palisade:identity:",
		ttl:    7 * 24 * time.Hour,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) key(id string) string { return s.prefix + id }

func (s *RedisStore) Load(ctx context.Context, id string) (*Record, error) {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("identity %s: corrupt record: %w", id, err)
	}
	return &rec, nil
}

func (s *RedisStore) Save(ctx context.Context, rec *Record) error {
	key := s.key(rec.ID)
	next := rec.Clone()
	next.Version++

	payload, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("identity %s: marshal record: %w", rec.ID, err)
	}

	txn := func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
			if rec.Version != 0 {
				return ErrUpdateConflict
			}
		case err != nil:
			return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		default:
			var stored Record
			if err := json.Unmarshal(current, &stored); err != nil {
				return fmt.Errorf("identity %s: corrupt record: %w", rec.ID, err)
			}
			if stored.Version != rec.Version {
				return ErrUpdateConflict
			}
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, s.ttl)
			return nil
		})
		return err
	}

	err = s.client.Watch(ctx, txn, key)
	switch {
	case err == nil:
		rec.Version = next.Version
		return nil
	case errors.Is(err, redis.TxFailedErr):
		// The watched key changed under us.
		return ErrUpdateConflict
	case errors.Is(err, ErrUpdateConflict), errors.Is(err, ErrStoreUnavailable):
		return err
	default:
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
}

var _ Store = (*RedisStore)(nil)
