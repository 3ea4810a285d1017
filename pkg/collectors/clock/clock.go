// Package clock is the wall-clock collector.
package clock

import (
	"context"
	"time"

	"github.com/better-ecosystem/better-bar/pkg/sample"
)

const (
	DefaultInterval = time.Second
	DefaultLayout   = "03:04 PM"
	DefaultTooltip  = "Monday, 02 January 2006"
)

// Collector reports the current time.
type Collector struct {
	now func() time.Time
}

// New returns a collector reading now; nil means time.Now.
func New(now func() time.Time) *Collector {
	if now == nil {
		now = time.Now
	}
	return &Collector{now: now}
}

func (c *Collector) Name() string            { return string(sample.ModuleClock) }
func (c *Collector) Interval() time.Duration { return DefaultInterval }
func (c *Collector) Healthy() bool           { return true }

func (c *Collector) Collect(ctx context.Context) (sample.Sample, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return sample.Clock{Time: c.now()}, nil
}

// Format renders t with a Go time layout, falling back to DefaultLayout.
func Format(t time.Time, layout string) string {
	if layout == "" {
		layout = DefaultLayout
	}
	return t.Format(layout)
}
