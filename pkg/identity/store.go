package identity

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Store errors. Connectivity failures map to ErrStoreUnavailable so the
// manager can fall back to the fail-cautious default instead of crashing.
var (
	ErrNotFound         = errors.New("identity: record not found")
	ErrStoreUnavailable = errors.New("identity: store unavailable")
	ErrUpdateConflict   = errors.New("identity: concurrent update conflict")
)

// Store persists identity records with optimistic concurrency.
//
// Save compares rec.Version against the stored version: on match it stores
// the record with the version incremented (mirrored back into rec), on
// mismatch it returns ErrUpdateConflict and stores nothing. A record with
// Version 0 saves only when the identity does not exist yet.
type Store interface {
	Load(ctx context.Context, id string) (*Record, error)
	Save(ctx context.Context, rec *Record) error
}

// =============================================================================
// IN-MEMORY STORE
// Default backend for single-process deployments and tests. Entries expire
// after a TTL refreshed on every save; a background loop evicts stale ones.
// =============================================================================

type memoryEntry struct {
	rec      *Record
	lastSave time.Time
}

// MemoryStore is a thread-safe in-process Store.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*memoryEntry

	ttl             time.Duration
	cleanupInterval time.Duration
	stop            chan struct{}
	stopOnce        sync.Once
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithTTL sets how long an identity may stay idle before eviction.
// Zero disables expiry.
func WithTTL(ttl time.Duration) MemoryOption {
	return func(s *MemoryStore) { s.ttl = ttl }
}

// WithCleanupInterval sets how often the eviction loop runs.
func WithCleanupInterval(interval time.Duration) MemoryOption {
	return func(s *MemoryStore) { s.cleanupInterval = interval }
}

// NewMemoryStore creates an in-memory store and starts its eviction loop
// when a TTL is configured.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		entries:         make(map[string]*memoryEntry),
		ttl:             24 * time.Hour,
		cleanupInterval: 10 * time.Minute,
		stop:            make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.ttl > 0 {
		go s.cleanupLoop()
	}
	return s
}

func (s *MemoryStore) Load(_ context.Context, id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[id]
	if !ok {
		return nil, ErrNotFound
	}
	return entry.rec.Clone(), nil
}

func (s *MemoryStore) Save(_ context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.entries[rec.ID]
	if ok {
		if existing.rec.Version != rec.Version {
			return ErrUpdateConflict
		}
	} else if rec.Version != 0 {
		return ErrUpdateConflict
	}

	stored := rec.Clone()
	stored.Version++
	s.entries[rec.ID] = &memoryEntry{rec: stored, lastSave: time.Now()}
	rec.Version = stored.Version
	return nil
}

// Len returns the number of live records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Close stops the eviction loop.
func (s *MemoryStore) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
}

func (s *MemoryStore) cleanupLoop() {
	ticker := time.NewTicker(s.cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.evictStale()
		case <-s.stop:
			return
		}
	}
}

func (s *MemoryStore) evictStale() {
	cutoff := time.Now().Add(-s.ttl)
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, entry := range s.entries {
		if entry.lastSave.Before(cutoff) {
			delete(s.entries, id)
		}
	}
}

var _ Store = (*MemoryStore)(nil)
