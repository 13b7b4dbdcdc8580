package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/allegro/bigcache/v3"
)

// memoLifeWindow is effectively "never": the memoizer has no expiry,
// bigcache just requires a window.
const memoLifeWindow = 10 * 365 * 24 * time.Hour

// Memoizer caches the results of pure functions, keyed by function name
// plus the deep value of its arguments (canonical JSON). It must only wrap
// deterministic, side-effect-free functions; that contract is the caller's,
// not enforced here.
type Memoizer struct {
	cache  *bigcache.BigCache
	logger *slog.Logger
}

// NewMemoizer creates a memoizer backed by an in-memory byte cache.
func NewMemoizer(logger *slog.Logger) (*Memoizer, error) {
	if logger == nil {
		logger = slog.Default()
	}

	cfg := bigcache.DefaultConfig(memoLifeWindow)
	cfg.CleanWindow = 0 // no expiry, nothing to clean
	cfg.Verbose = false

	bc, err := bigcache.New(context.Background(), cfg)
	if err != nil {
		return nil, err
	}

	return &Memoizer{
		cache:  bc,
		logger: logger.With("component", "memoizer"),
	}, nil
}

// Do returns the memoized result of fn for the given arguments,
// unmarshaling it into dest. fn runs at most once per distinct argument
// value; identical args (by deep value, not identity) hit the stored
// result. Errors from fn are never memoized.
func (m *Memoizer) Do(name string, args any, dest any, fn func() (any, error)) error {
	key, err := memoKey(name, args)
	if err != nil {
		return err
	}

	if data, err := m.cache.Get(key); err == nil {
		return json.Unmarshal(data, dest)
	}

	result, err := fn()
	if err != nil {
		return err
	}

	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("memoize %s: %w", name, err)
	}
	if err := m.cache.Set(key, data); err != nil {
		// Storage failure only costs a recomputation next time.
		m.logger.Debug("memo store failed", "fn", name, "error", err)
	}

	return json.Unmarshal(data, dest)
}

// Len returns the number of memoized results.
func (m *Memoizer) Len() int {
	return m.cache.Len()
}

// Clear empties the memo store.
func (m *Memoizer) Clear() error {
	return m.cache.Reset()
}

// Close releases the backing cache.
func (m *Memoizer) Close() error {
	return m.cache.Close()
}

func memoKey(name string, args any) (string, error) {
	data, err := json.Marshal(args)
	if err != nil {
		return "", fmt.Errorf("memoize %s: unhashable args: %w", name, err)
	}
	return name + "|" + string(data), nil
}
