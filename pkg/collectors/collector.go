// Package collectors defines the interfaces, registry, and runner for
// better-bar monitors. Each polled monitor (cpu, memory, battery, network,
// clock) implements the Collector interface and is scheduled by a Runner that
// fans results into a single updates channel consumed by the sink. Event
// driven monitors (audio, compositor) produce the same Update values on their
// own channels.
package collectors

import (
	"context"
	"time"

	"github.com/better-ecosystem/better-bar/pkg/sample"
)

// Collector is the interface all polled data sources implement.
// Implementations live in sub-packages (e.g., pkg/collectors/cpu) and are
// registered with the Registry at startup.
type Collector interface {
	// Name returns a unique identifier for this collector. It matches the
	// sample.Module the collector produces (e.g., "cpu").
	Name() string

	// Collect performs one collection cycle. A collector may return a
	// fallback sample together with an error; the sink renders that sample in
	// the error state. Returning (nil, nil) means "nothing to report" and the
	// tick is a silent no-op.
	Collect(ctx context.Context) (sample.Sample, error)

	// Interval returns how often this collector should run.
	Interval() time.Duration

	// Healthy returns whether the collector is functioning. A collector that
	// has never run or whose last run succeeded is considered healthy.
	Healthy() bool
}

// CollectorStatus tracks the runtime state of a single collector. The runner
// updates this after every collection cycle; readers always get a copy.
type CollectorStatus struct {
	Name              string
	Healthy           bool
	Stopped           bool
	LastRun           time.Time
	LastError         error
	LastGood          sample.Sample
	RunCount          int64
	ErrorCount        int64
	ConsecutiveErrors int
	LastLatency       time.Duration
}

// Update carries the result of a single collection cycle (or a single event
// from a stream) to the consumer.
type Update struct {
	Source    string
	Data      sample.Sample
	Timestamp time.Time
	Error     error
}

// NewUpdate stamps an update with the current time.
func NewUpdate(source string, data sample.Sample, err error) Update {
	return Update{
		Source:    source,
		Data:      data,
		Timestamp: time.Now(),
		Error:     err,
	}
}
