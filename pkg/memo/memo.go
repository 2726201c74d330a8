package memo

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
)

// Cache memoizes content-producing operations by a structural key built from an
// operation description and its ordered arguments. Entries are never evicted;
// the key space is bounded by the catalog, not by user input.
//
// The pending computation is stored before it starts, so concurrent callers
// with the same key share a single invocation. Failed computations are dropped
// from the cache and retried by the next caller.
type Cache struct {
	logger  *slog.Logger
	enabled bool

	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	done  chan struct{}
	value any
	err   error
}

// New creates a cache. When enabled is false every call runs the operation
// fresh, which is what development mode wants for live editing.
func New(logger *slog.Logger, enabled bool) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		logger:  logger,
		enabled: enabled,
		entries: make(map[string]*entry),
	}
}

// Enabled reports whether results are being memoized.
func (c *Cache) Enabled() bool {
	return c.enabled
}

// Len returns the number of stored entries, pending ones included.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

type cacheKey struct {
	Description string `json:"description"`
	Arguments   []any  `json:"arguments"`
}

// Key returns the stable serialized form of (description, args).
func Key(description string, args []any) (string, error) {
	if args == nil {
		args = []any{}
	}
	data, err := json.Marshal(cacheKey{Description: description, Arguments: args})
	if err != nil {
		return "", fmt.Errorf("memo: cannot serialize key for %q: %w", description, err)
	}
	return string(data), nil
}

// Do returns the memoized result of fn for (description, args), invoking fn at
// most once per key while memoization is enabled. fn runs detached from the
// caller's cancellation; a caller whose ctx ends stops waiting but the
// computation itself carries on for the other waiters.
func (c *Cache) Do(ctx context.Context, description string, args []any, fn func(context.Context) (any, error)) (any, error) {
	if !c.enabled {
		return fn(ctx)
	}

	key, err := Key(description, args)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		c.mu.Unlock()
		return e.wait(ctx)
	}
	e := &entry{done: make(chan struct{})}
	c.entries[key] = e
	c.mu.Unlock()

	c.logger.Info("cache miss",
		slog.Group("cacheMiss",
			slog.String("description", description),
			slog.Any("arguments", args),
		))

	e.value, e.err = runSafely(description, func() (any, error) {
		return fn(context.WithoutCancel(ctx))
	})
	if e.err != nil {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
	}
	close(e.done)

	return e.value, e.err
}

func (e *entry) wait(ctx context.Context) (any, error) {
	select {
	case <-e.done:
		return e.value, e.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// runSafely converts a panic in fn into an error so that a pending entry is
// always resolved.
func runSafely(scope string, fn func() (any, error)) (value any, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			value = nil
			err = fmt.Errorf("%s: panic recovered: %v", scope, recovered)
		}
	}()
	return fn()
}
