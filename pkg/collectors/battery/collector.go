package battery

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/better-ecosystem/better-bar/pkg/sample"
)

// DefaultInterval is the polling cadence. Failures are not retried faster.
const DefaultInterval = 3 * time.Second

// Collector is the polled battery monitor.
type Collector struct {
	source  Source
	logger  *slog.Logger
	healthy atomic.Bool
	absent  atomic.Bool
}

// New creates the collector over source. Use Chain{NewUPower(), NewSysfs()}
// for the live system.
func New(source Source, logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Collector{source: source, logger: logger}
	c.healthy.Store(true)
	return c
}

// NewSystem creates the collector over UPower with a sysfs fallback.
func NewSystem(logger *slog.Logger) *Collector {
	return New(Chain{NewUPower(), NewSysfs()}, logger)
}

func (c *Collector) Name() string            { return string(sample.ModuleBattery) }
func (c *Collector) Interval() time.Duration { return DefaultInterval }
func (c *Collector) Healthy() bool           { return c.healthy.Load() }

// Collect reads the battery. A host without a battery yields (nil, nil).
func (c *Collector) Collect(ctx context.Context) (sample.Sample, error) {
	d, err := c.source.Query(ctx)
	switch {
	case errors.Is(err, ErrNoBattery):
		if !c.absent.Swap(true) {
			c.logger.Info("no battery found; battery module idle")
		}
		c.healthy.Store(true)
		return nil, nil
	case err != nil:
		c.healthy.Store(false)
		c.logger.Warn("battery query failed", "error", err)
		return nil, err
	}
	c.absent.Store(false)
	c.healthy.Store(true)
	return d.Sample(), nil
}
