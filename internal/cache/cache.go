package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"claimscope/internal/model"
)

// RefreshFunc produces a new snapshot from the authoritative event log.
type RefreshFunc func(ctx context.Context) (*model.Snapshot, error)

// Cache is a single-slot TTL cache over the scan pipeline. A fresh
// snapshot is served directly; an expired one triggers a refresh, and if
// that refresh fails the previous snapshot is served marked stale.
// At most one refresh runs at a time.
type Cache struct {
	ttl     time.Duration
	refresh RefreshFunc
	now     func() time.Time
	logger  *zap.Logger

	mu       sync.Mutex
	snapshot *model.Snapshot
	expired  bool
	inflight chan struct{}
	lastErr  error
}

// New builds a cache around a refresh function.
func New(ttl time.Duration, refresh RefreshFunc, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{
		ttl:     ttl,
		refresh: refresh,
		now:     time.Now,
		logger:  logger,
	}
}

// Invalidate marks the current snapshot expired so the next Get refreshes,
// without discarding it as a stale fallback.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.expired = true
	c.mu.Unlock()
}

// Get returns the current snapshot. stale reports that the snapshot is
// past its TTL and could not be replaced (the refresh failed or is still
// running). An error is returned only when no snapshot has ever been
// produced.
func (c *Cache) Get(ctx context.Context) (snapshot *model.Snapshot, stale bool, err error) {
	c.mu.Lock()

	if c.fresh() {
		snapshot = c.snapshot
		c.mu.Unlock()
		return snapshot, false, nil
	}

	if c.inflight != nil {
		// A refresh is already running. Serve the about-to-expire
		// snapshot if one exists, otherwise await the result.
		done := c.inflight
		previous := c.snapshot
		c.mu.Unlock()
		if previous != nil {
			return previous, true, nil
		}
		select {
		case <-ctx.Done():
			return nil, false, ctx.Err()
		case <-done:
		}
		c.mu.Lock()
		snapshot, err = c.snapshot, c.lastErr
		c.mu.Unlock()
		if snapshot == nil {
			return nil, false, fmt.Errorf("refresh: %w", err)
		}
		return snapshot, err != nil, nil
	}

	done := make(chan struct{})
	c.inflight = done
	previous := c.snapshot
	c.mu.Unlock()

	next, refreshErr := c.refresh(ctx)

	c.mu.Lock()
	c.inflight = nil
	c.lastErr = refreshErr
	if refreshErr == nil {
		c.snapshot = next
		c.expired = false
	}
	close(done)
	c.mu.Unlock()

	if refreshErr != nil {
		if previous != nil {
			c.logger.Warn("refresh failed, serving stale snapshot",
				zap.Time("produced_at", previous.ProducedAt),
				zap.Error(refreshErr),
			)
			return previous, true, nil
		}
		return nil, false, fmt.Errorf("refresh: %w", refreshErr)
	}
	return next, false, nil
}

// fresh reports whether the slot holds a snapshot within its TTL.
// Callers must hold c.mu.
func (c *Cache) fresh() bool {
	return c.snapshot != nil && !c.expired && c.now().Sub(c.snapshot.ProducedAt) < c.ttl
}
