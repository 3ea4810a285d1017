package audio

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultFlushInterval is how often accumulated scroll steps are applied.
const DefaultFlushInterval = 50 * time.Millisecond

// Coalescer accumulates scroll steps and applies them as one absolute
// volume change per flush.
type Coalescer struct {
	backend  Backend
	logger   *slog.Logger
	interval time.Duration

	mu      sync.Mutex
	pending int
}

// NewCoalescer returns a coalescer flushing every DefaultFlushInterval.
func NewCoalescer(b Backend, logger *slog.Logger) *Coalescer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coalescer{backend: b, logger: logger, interval: DefaultFlushInterval}
}

// Nudge adds delta percentage points to the pending change. Scroll up is +1.
func (c *Coalescer) Nudge(delta int) {
	c.mu.Lock()
	c.pending += delta
	c.mu.Unlock()
}

// Flush applies the pending change, if any. The lock is released before
// any backend call.
func (c *Coalescer) Flush(ctx context.Context) error {
	c.mu.Lock()
	delta := c.pending
	c.pending = 0
	c.mu.Unlock()

	if delta == 0 {
		return nil
	}
	cur, err := c.backend.Volume(ctx)
	if err != nil {
		return err
	}
	target := min(max(int(cur)+delta, 0), 100)
	if target == int(cur) {
		return nil
	}
	return c.backend.SetVolume(ctx, uint8(target))
}

// Run flushes on a ticker until ctx is done.
func (c *Coalescer) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.Flush(ctx); err != nil && ctx.Err() == nil {
				c.logger.Warn("volume change failed", "error", err)
			}
		}
	}
}

// Toggle flips the mute state.
func (c *Coalescer) Toggle(ctx context.Context) error {
	return c.backend.ToggleMute(ctx)
}
