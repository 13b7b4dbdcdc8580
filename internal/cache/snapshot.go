package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ecoloop/greenrank/internal/config"
	"github.com/ecoloop/greenrank/internal/types"
)

// RedisSink persists cache entries to Redis under a namespaced key prefix.
// Saves are queued and written asynchronously; a full queue drops the write
// and bumps a counter, never blocking the cache store.
type RedisSink struct {
	client    *redis.Client
	keyPrefix string
	logger    *slog.Logger

	writeQueue    chan *types.CacheEntry
	droppedWrites atomic.Int64
	stopCh        chan struct{}
	wg            sync.WaitGroup
	closed        atomic.Bool
}

// NewRedisSink connects to Redis and starts the write worker. A failed
// initial ping is logged, not fatal: the sink degrades to dropping writes
// until Redis comes back.
func NewRedisSink(cfg config.SnapshotConfig, logger *slog.Logger) *RedisSink {
	if logger == nil {
		logger = slog.Default()
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password.Value(),
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	rs := &RedisSink{
		client:     client,
		keyPrefix:  cfg.KeyPrefix,
		logger:     logger.With("component", "snapshot-sink"),
		writeQueue: make(chan *types.CacheEntry, cfg.MaxPendingWrites),
		stopCh:     make(chan struct{}),
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		rs.logger.Warn("snapshot store initial connection failed", "error", err)
	} else {
		rs.logger.Info("snapshot store connected", "address", cfg.Address)
	}

	rs.wg.Add(1)
	go rs.writeWorker()

	return rs
}

// Save queues the entry for asynchronous persistence.
func (rs *RedisSink) Save(ctx context.Context, entry *types.CacheEntry) error {
	if rs.closed.Load() {
		return types.ErrSinkUnavailable
	}

	select {
	case rs.writeQueue <- entry:
		return nil
	default:
		rs.droppedWrites.Add(1)
		return nil
	}
}

// Remove deletes the snapshotted entry for key.
func (rs *RedisSink) Remove(ctx context.Context, key string) error {
	if rs.closed.Load() {
		return types.ErrSinkUnavailable
	}
	return rs.client.Del(ctx, rs.keyPrefix+key).Err()
}

// RemoveAll deletes every snapshotted entry in this sink's namespace.
func (rs *RedisSink) RemoveAll(ctx context.Context) error {
	if rs.closed.Load() {
		return types.ErrSinkUnavailable
	}

	iter := rs.client.Scan(ctx, 0, rs.keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := rs.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

// Load reads back every snapshotted entry in this sink's namespace.
// Corrupt entries are skipped.
func (rs *RedisSink) Load(ctx context.Context) ([]*types.CacheEntry, error) {
	if rs.closed.Load() {
		return nil, types.ErrSinkUnavailable
	}

	var entries []*types.CacheEntry

	iter := rs.client.Scan(ctx, 0, rs.keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		data, err := rs.client.Get(ctx, iter.Val()).Bytes()
		if err != nil {
			continue
		}
		var entry types.CacheEntry
		if err := json.Unmarshal(data, &entry); err != nil {
			rs.logger.Warn("skipping corrupt snapshot entry", "key", iter.Val(), "error", err)
			continue
		}
		entries = append(entries, &entry)
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// DroppedWrites returns the number of saves discarded due to a full queue.
func (rs *RedisSink) DroppedWrites() int64 {
	return rs.droppedWrites.Load()
}

// Close drains the write queue and closes the Redis client.
func (rs *RedisSink) Close() error {
	if rs.closed.Swap(true) {
		return nil
	}
	close(rs.stopCh)
	rs.wg.Wait()
	return rs.client.Close()
}

func (rs *RedisSink) writeWorker() {
	defer rs.wg.Done()

	for {
		select {
		case entry := <-rs.writeQueue:
			rs.persist(entry)
		case <-rs.stopCh:
			// Drain remaining writes before shutdown.
			for {
				select {
				case entry := <-rs.writeQueue:
					rs.persist(entry)
				default:
					return
				}
			}
		}
	}
}

func (rs *RedisSink) persist(entry *types.CacheEntry) {
	data, err := json.Marshal(entry)
	if err != nil {
		rs.logger.Warn("snapshot marshal failed", "key", entry.Key, "error", err)
		return
	}

	// Let Redis expire the snapshot when the entry would have expired anyway.
	ttl := time.Until(entry.ExpiresAt())
	if ttl <= 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), snapshotOpTimeout)
	defer cancel()
	if err := rs.client.Set(ctx, rs.keyPrefix+entry.Key, data, ttl).Err(); err != nil {
		rs.logger.Warn("snapshot write failed", "key", entry.Key, "error", err)
	}
}

var _ types.SnapshotSink = (*RedisSink)(nil)

// MemorySink is an in-process SnapshotSink. It is a valid substitution for
// the Redis sink in tests and for callers that want restart-less operation.
type MemorySink struct {
	mu      sync.Mutex
	entries map[string]*types.CacheEntry
}

func NewMemorySink() *MemorySink {
	return &MemorySink{entries: make(map[string]*types.CacheEntry)}
}

func (ms *MemorySink) Save(ctx context.Context, entry *types.CacheEntry) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	cp := *entry
	ms.entries[entry.Key] = &cp
	return nil
}

func (ms *MemorySink) Remove(ctx context.Context, key string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	delete(ms.entries, key)
	return nil
}

func (ms *MemorySink) RemoveAll(ctx context.Context) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.entries = make(map[string]*types.CacheEntry)
	return nil
}

func (ms *MemorySink) Load(ctx context.Context) ([]*types.CacheEntry, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	out := make([]*types.CacheEntry, 0, len(ms.entries))
	for _, e := range ms.entries {
		cp := *e
		out = append(out, &cp)
	}
	return out, nil
}

func (ms *MemorySink) Close() error { return nil }

var _ types.SnapshotSink = (*MemorySink)(nil)
