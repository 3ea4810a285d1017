package collectors

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/better-ecosystem/better-bar/pkg/sample"
)

// DefaultUpdateBufferSize is the recommended capacity of the updates channel
// handed to NewRunner.
const DefaultUpdateBufferSize = 64

// VisibilityFunc reports whether the presentation element for a collector is
// currently visible. Collectors whose element is hidden are not run.
type VisibilityFunc func(name string) bool

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLogger sets the runner's logger.
func WithLogger(l *slog.Logger) RunnerOption {
	return func(r *Runner) { r.logger = l }
}

// WithVisibility installs the visibility check consulted every cycle.
func WithVisibility(fn VisibilityFunc) RunnerOption {
	return func(r *Runner) { r.visible = fn }
}

// Runner schedules every registered collector from a single goroutine. Due
// collectors run on their own offload goroutine so blocking I/O in one
// monitor never delays another; at most one collection per collector is in
// flight at a time.
type Runner struct {
	registry *Registry
	updates  chan<- Update
	logger   *slog.Logger
	visible  VisibilityFunc
	kick     chan struct{}

	mu      sync.Mutex
	cancel  context.CancelFunc
	running bool
	wg      sync.WaitGroup
}

// NewRunner returns a runner that sends results to updates.
func NewRunner(r *Registry, updates chan<- Update, opts ...RunnerOption) *Runner {
	rn := &Runner{
		registry: r,
		updates:  updates,
		logger:   slog.Default(),
		kick:     make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(rn)
	}
	return rn
}

// Start launches the scheduling loop. Every registered collector runs
// immediately, then on its interval. The loop exits when ctx is cancelled or
// Stop is called.
func (rn *Runner) Start(ctx context.Context) error {
	rn.mu.Lock()
	defer rn.mu.Unlock()

	if rn.running {
		return fmt.Errorf("runner already started")
	}
	ctx, cancel := context.WithCancel(ctx)
	rn.cancel = cancel
	rn.running = true

	rn.wg.Add(1)
	go rn.loop(ctx)
	return nil
}

// Stop cancels the loop and waits for it and every in-flight collection to
// return. It is safe to call more than once.
func (rn *Runner) Stop() {
	rn.mu.Lock()
	cancel := rn.cancel
	rn.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	rn.wg.Wait()

	rn.mu.Lock()
	rn.running = false
	rn.mu.Unlock()
}

// Refresh asks the loop to re-read the registry and visibility now instead of
// at its next deadline.
func (rn *Runner) Refresh() {
	select {
	case rn.kick <- struct{}{}:
	default:
	}
}

// RunOnce runs a single collection for the named collector outside the
// schedule, records its status, and returns the result. No update is sent.
func (rn *Runner) RunOnce(ctx context.Context, name string) (sample.Sample, error) {
	c, ok := rn.registry.Get(name)
	if !ok {
		return nil, fmt.Errorf("collector %q not registered", name)
	}
	u := rn.collect(ctx, name, c)
	return u.Data, u.Error
}

// Health returns the healthy flag of every registered collector.
func (rn *Runner) Health() map[string]bool {
	statuses := rn.registry.AllStatus()
	health := make(map[string]bool, len(statuses))
	for _, s := range statuses {
		health[s.Name] = s.Healthy
	}
	return health
}

func (rn *Runner) isVisible(name string) bool {
	return rn.visible == nil || rn.visible(name)
}

// schedule is the loop's private view of one collector. A schedule that
// replaced a still running one waits for that run to finish before its own
// first collection.
type schedule struct {
	name      string
	collector Collector
	next      time.Time
	inFlight  bool
	waitFor   *schedule
}

func (s *schedule) busy() bool { return s.inFlight || s.waitFor != nil }

func (rn *Runner) loop(ctx context.Context) {
	defer rn.wg.Done()

	done := make(chan *schedule)
	plan := make(map[string]*schedule)
	timer := time.NewTimer(time.Hour)
	defer timer.Stop()

	for {
		now := time.Now()
		wake := now.Add(time.Hour)

		rn.sync(plan, now)
		for name, s := range plan {
			if !rn.isVisible(name) {
				rn.markStopped(name, s.collector, true)
				continue
			}
			rn.markStopped(name, s.collector, false)
			if s.busy() {
				continue
			}
			if !now.Before(s.next) {
				s.inFlight = true
				s.next = advance(s.next, s.collector.Interval(), now)
				rn.wg.Add(1)
				go rn.offload(ctx, s, done)
			}
			if s.next.Before(wake) {
				wake = s.next
			}
		}

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(time.Until(wake))

		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		case <-rn.kick:
		case ran := <-done:
			ran.inFlight = false
			if s, ok := plan[ran.name]; ok && s.waitFor == ran {
				s.waitFor = nil
			}
		}
	}
}

// sync adds newly registered collectors (due immediately) and forgets
// unregistered or replaced ones.
func (rn *Runner) sync(plan map[string]*schedule, now time.Time) {
	names := rn.registry.List()
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		seen[name] = true
		c, ok := rn.registry.Get(name)
		if !ok {
			continue
		}
		prev, ok := plan[name]
		if ok && prev.collector == c {
			continue
		}
		s := &schedule{name: name, collector: c, next: now}
		if ok {
			switch {
			case prev.inFlight:
				s.waitFor = prev
			case prev.waitFor != nil:
				s.waitFor = prev.waitFor
			}
		}
		plan[name] = s
	}
	for name, s := range plan {
		if !seen[name] && !s.busy() {
			delete(plan, name)
		}
	}
}

// advance returns the next due time after a run scheduled at due. A run that
// starts late does not cause a burst of catch-up runs.
func advance(due time.Time, interval time.Duration, now time.Time) time.Time {
	if interval <= 0 {
		interval = time.Second
	}
	next := due.Add(interval)
	if !next.After(now) {
		next = now.Add(interval)
	}
	return next
}

func (rn *Runner) offload(ctx context.Context, s *schedule, done chan<- *schedule) {
	defer rn.wg.Done()

	u := rn.collect(ctx, s.name, s.collector)
	if ctx.Err() == nil && (u.Data != nil || u.Error != nil) {
		select {
		case rn.updates <- u:
		case <-ctx.Done():
		}
	}
	select {
	case done <- s:
	case <-ctx.Done():
	}
}

// collect runs one cycle and records it in the registry.
func (rn *Runner) collect(ctx context.Context, name string, c Collector) Update {
	start := time.Now()
	data, err := c.Collect(ctx)
	latency := time.Since(start)

	rn.registry.updateStatus(name, c, func(s *CollectorStatus) {
		s.LastRun = start
		s.LastLatency = latency
		s.RunCount++
		if err != nil {
			s.ErrorCount++
			s.ConsecutiveErrors++
			s.LastError = err
			s.Healthy = false
			return
		}
		s.ConsecutiveErrors = 0
		s.LastError = nil
		s.Healthy = true
		if data != nil {
			s.LastGood = data
		}
	})
	if err != nil {
		rn.logger.Debug("collection failed", "collector", name, "error", err, "latency", latency)
	}
	return Update{Source: name, Data: data, Timestamp: start, Error: err}
}

func (rn *Runner) markStopped(name string, c Collector, stopped bool) {
	rn.registry.updateStatus(name, c, func(s *CollectorStatus) {
		if s.Stopped != stopped {
			rn.logger.Debug("collector visibility changed", "collector", name, "stopped", stopped)
		}
		s.Stopped = stopped
	})
}
