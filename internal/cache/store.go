// Package cache implements the private policy cache store backing the
// hybrid data service: TTL expiry, pluggable eviction, a background sweep,
// and optional best-effort snapshot persistence.
package cache

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ecoloop/greenrank/internal/config"
	"github.com/ecoloop/greenrank/internal/types"
)

// snapshotOpTimeout bounds each best-effort sink call issued by the store.
const snapshotOpTimeout = 3 * time.Second

// Store is a key/value cache with TTL expiry and a configurable eviction
// policy. Concurrent Set calls on the same key are last-writer-wins; the
// background sweep only removes entries that are already logically expired,
// so it is safe alongside foreground reads and writes.
type Store struct {
	mu      sync.Mutex
	entries map[string]*types.CacheEntry

	maxEntries int
	defaultTTL time.Duration
	policy     types.EvictionPolicy

	sink   types.SnapshotSink
	logger *slog.Logger

	stopCh chan struct{}
	wg     sync.WaitGroup
	closed atomic.Bool

	hits      atomic.Int64
	misses    atomic.Int64
	sets      atomic.Int64
	deletes   atomic.Int64
	evictions atomic.Int64
	expired   atomic.Int64
}

// NewStore creates a cache store. If sink is non-nil, surviving entries are
// restored from it and every mutation is mirrored into it best-effort.
func NewStore(cfg config.CacheConfig, sink types.SnapshotSink, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Store{
		entries:    make(map[string]*types.CacheEntry),
		maxEntries: cfg.MaxEntries,
		defaultTTL: cfg.DefaultTTL,
		policy:     cfg.Policy(),
		sink:       sink,
		logger:     logger.With("component", "cache-store"),
		stopCh:     make(chan struct{}),
	}

	if sink != nil {
		s.restore()
	}

	s.wg.Add(1)
	go s.sweepLoop(cfg.SweepInterval)

	return s
}

// Get returns the value stored under key. Expired entries are treated as
// absent and removed on the spot. Reads update the entry's access metadata.
func (s *Store) Get(key string) ([]byte, bool) {
	if s.closed.Load() {
		return nil, false
	}

	now := time.Now()

	s.mu.Lock()
	entry, ok := s.entries[key]
	if !ok {
		s.mu.Unlock()
		s.misses.Add(1)
		return nil, false
	}
	if entry.IsExpired(now) {
		delete(s.entries, key)
		s.mu.Unlock()
		s.expired.Add(1)
		s.misses.Add(1)
		s.sinkRemove(key)
		return nil, false
	}
	entry.AccessCount++
	entry.LastAccessedAt = now
	value := entry.Value
	s.mu.Unlock()

	s.hits.Add(1)
	return value, true
}

// Set stores value under key. A non-positive ttl falls back to the store's
// default. When the store is full, one entry is evicted first according to
// the configured policy.
func (s *Store) Set(key string, value []byte, ttl time.Duration) {
	if s.closed.Load() {
		return
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}

	now := time.Now()
	entry := &types.CacheEntry{
		Key:            key,
		Value:          value,
		CreatedAt:      now,
		TTL:            ttl,
		LastAccessedAt: now,
		SizeBytes:      len(value),
	}

	s.mu.Lock()
	if _, exists := s.entries[key]; !exists && len(s.entries) >= s.maxEntries {
		s.evictOneLocked(now)
	}
	s.entries[key] = entry
	// Snapshot the entry while still holding the lock: once s.mu is
	// released, concurrent Gets mutate the live entry's access metadata,
	// and the sink may marshal its argument asynchronously.
	snap := *entry
	s.mu.Unlock()

	s.sets.Add(1)
	s.sinkSave(&snap)
}

// Delete removes key if present.
func (s *Store) Delete(key string) {
	if s.closed.Load() {
		return
	}

	s.mu.Lock()
	_, ok := s.entries[key]
	if ok {
		delete(s.entries, key)
	}
	s.mu.Unlock()

	if ok {
		s.deletes.Add(1)
		s.sinkRemove(key)
	}
}

// Clear removes every entry, including snapshotted ones.
func (s *Store) Clear() {
	if s.closed.Load() {
		return
	}

	s.mu.Lock()
	s.entries = make(map[string]*types.CacheEntry)
	s.mu.Unlock()

	if s.sink != nil {
		ctx, cancel := context.WithTimeout(context.Background(), snapshotOpTimeout)
		defer cancel()
		if err := s.sink.RemoveAll(ctx); err != nil {
			s.logger.Warn("snapshot clear failed", "error", err)
		}
	}
}

// Len returns the number of live entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Stats returns the store's counters.
func (s *Store) Stats() types.CacheStats {
	return types.CacheStats{
		Hits:      s.hits.Load(),
		Misses:    s.misses.Load(),
		Sets:      s.sets.Load(),
		Deletes:   s.deletes.Load(),
		Evictions: s.evictions.Load(),
		Expired:   s.expired.Load(),
	}
}

// Close stops the background sweep and closes the sink.
func (s *Store) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	close(s.stopCh)
	s.wg.Wait()
	if s.sink != nil {
		return s.sink.Close()
	}
	return nil
}

// evictOneLocked removes one entry chosen by the configured policy.
// Callers hold s.mu.
func (s *Store) evictOneLocked(now time.Time) {
	victim := ""

	switch s.policy {
	case types.EvictFIFO:
		var oldest time.Time
		for k, e := range s.entries {
			if victim == "" || e.CreatedAt.Before(oldest) {
				victim, oldest = k, e.CreatedAt
			}
		}
	case types.EvictTTL:
		for k, e := range s.entries {
			if e.IsExpired(now) {
				victim = k
				break
			}
		}
		if victim == "" {
			victim = s.lruVictimLocked()
		}
	default: // LRU
		victim = s.lruVictimLocked()
	}

	if victim != "" {
		delete(s.entries, victim)
		s.evictions.Add(1)
		s.sinkRemove(victim)
	}
}

func (s *Store) lruVictimLocked() string {
	victim := ""
	var oldest time.Time
	for k, e := range s.entries {
		if victim == "" || e.LastAccessedAt.Before(oldest) {
			victim, oldest = k, e.LastAccessedAt
		}
	}
	return victim
}

// sweepLoop proactively removes expired entries at a fixed interval,
// independent of the active eviction policy.
func (s *Store) sweepLoop(interval time.Duration) {
	defer s.wg.Done()

	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.sweep(time.Now())
		}
	}
}

func (s *Store) sweep(now time.Time) {
	var removed []string

	s.mu.Lock()
	for k, e := range s.entries {
		if e.IsExpired(now) {
			delete(s.entries, k)
			removed = append(removed, k)
		}
	}
	s.mu.Unlock()

	if len(removed) > 0 {
		s.expired.Add(int64(len(removed)))
		for _, k := range removed {
			s.sinkRemove(k)
		}
		s.logger.Debug("sweep removed expired entries", "count", len(removed))
	}
}

// restore loads snapshotted entries, discarding anything past its TTL.
func (s *Store) restore() {
	ctx, cancel := context.WithTimeout(context.Background(), snapshotOpTimeout)
	defer cancel()

	entries, err := s.sink.Load(ctx)
	if err != nil {
		s.logger.Warn("snapshot restore failed", "error", err)
		return
	}

	now := time.Now()
	kept := 0
	s.mu.Lock()
	for _, e := range entries {
		if e.IsExpired(now) {
			continue
		}
		if kept >= s.maxEntries {
			break
		}
		s.entries[e.Key] = e
		kept++
	}
	s.mu.Unlock()

	s.logger.Info("restored cache snapshot", "loaded", len(entries), "kept", kept)
}

func (s *Store) sinkSave(entry *types.CacheEntry) {
	if s.sink == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), snapshotOpTimeout)
	defer cancel()
	if err := s.sink.Save(ctx, entry); err != nil {
		s.logger.Warn("snapshot save failed", "key", entry.Key, "error", err)
	}
}

func (s *Store) sinkRemove(key string) {
	if s.sink == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), snapshotOpTimeout)
	defer cancel()
	if err := s.sink.Remove(ctx, key); err != nil {
		s.logger.Warn("snapshot remove failed", "key", key, "error", err)
	}
}
