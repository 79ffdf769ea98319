package identity

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T) *RedisStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client)
}

func TestRedisStoreRoundTrip(t *testing.T) {
	store := newTestRedisStore(t)
	ctx := context.Background()

	rec := NewRecord("user-42")
	rec.TrustScore = 0.8
	rec.Tier = TierWatched
	rec.AddFlag("pattern_match", rec.LastSeen)

	require.NoError(t, store.Save(ctx, rec))
	assert.Equal(t, uint64(1), rec.Version)

	loaded, err := store.Load(ctx, "user-42")
	require.NoError(t, err)
	assert.Equal(t, rec.ID, loaded.ID)
	assert.Equal(t, rec.TrustScore, loaded.TrustScore)
	assert.Equal(t, rec.Tier, loaded.Tier)
	assert.Equal(t, uint64(1), loaded.Version)
	require.Len(t, loaded.Flags, 1)
	assert.Equal(t, "pattern_match", loaded.Flags[0].Kind)
}

func TestRedisStoreNotFound(t *testing.T) {
	store := newTestRedisStore(t)

	_, err := store.Load(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStoreVersionConflict(t *testing.T) {
	store := newTestRedisStore(t)
	ctx := context.Background()

	rec := NewRecord("contended")
	require.NoError(t, store.Save(ctx, rec)) // version 1

	// A second writer holding the stale version 0 must lose.
	stale := NewRecord("contended")
	assert.ErrorIs(t, store.Save(ctx, stale), ErrUpdateConflict)

	// The current holder can keep writing.
	rec.TrustScore = 0.9
	require.NoError(t, store.Save(ctx, rec))
	assert.Equal(t, uint64(2), rec.Version)
}

func TestRedisStoreZeroVersionRequiresAbsence(t *testing.T) {
	store := newTestRedisStore(t)
	ctx := context.Background()

	first := NewRecord("fresh")
	require.NoError(t, store.Save(ctx, first))

	again := NewRecord("fresh")
	assert.ErrorIs(t, store.Save(ctx, again), ErrUpdateConflict)
}

func TestManagerOverRedis(t *testing.T) {
	store := newTestRedisStore(t)
	m := NewManager(store, nil, DefaultParams())
	ctx := context.Background()

	rec, durable, err := m.Commit(ctx, "redis-user", Delta{Escalate: true, TrustPenalty: 0.2, FlagKind: "cascade"})
	require.NoError(t, err)
	assert.True(t, durable)
	assert.Equal(t, TierWatched, rec.Tier)

	snap, err := m.Snapshot(ctx, "redis-user")
	require.NoError(t, err)
	assert.Equal(t, TierWatched, snap.Tier)
	assert.Equal(t, rec.TrustScore, snap.TrustScore)
}
