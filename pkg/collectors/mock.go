package collectors

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/better-ecosystem/better-bar/pkg/sample"
)

// MockCollector implements Collector for testing. Its result is configurable
// and it counts Collect calls.
type MockCollector struct {
	name     string
	interval time.Duration

	mu      sync.RWMutex
	data    sample.Sample
	err     error
	healthy bool

	callCount atomic.Int64

	// CollectFunc, if set, replaces the configured result.
	CollectFunc func(ctx context.Context) (sample.Sample, error)
}

// MockCollectorOption configures a MockCollector.
type MockCollectorOption func(*MockCollector)

// WithData sets the sample returned by Collect.
func WithData(data sample.Sample) MockCollectorOption {
	return func(m *MockCollector) { m.data = data }
}

// WithError sets the error returned by Collect.
func WithError(err error) MockCollectorOption {
	return func(m *MockCollector) { m.err = err }
}

// WithHealthy sets the Healthy() return value.
func WithHealthy(healthy bool) MockCollectorOption {
	return func(m *MockCollector) { m.healthy = healthy }
}

// WithCollectFunc sets a custom function for Collect.
func WithCollectFunc(fn func(ctx context.Context) (sample.Sample, error)) MockCollectorOption {
	return func(m *MockCollector) { m.CollectFunc = fn }
}

// NewMockCollector creates a mock collector.
func NewMockCollector(name string, interval time.Duration, opts ...MockCollectorOption) *MockCollector {
	m := &MockCollector{
		name:     name,
		interval: interval,
		healthy:  true,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *MockCollector) Name() string            { return m.name }
func (m *MockCollector) Interval() time.Duration { return m.interval }

func (m *MockCollector) Healthy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.healthy
}

// SetHealthy updates the health status.
func (m *MockCollector) SetHealthy(h bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.healthy = h
}

// SetData updates the returned sample.
func (m *MockCollector) SetData(data sample.Sample) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = data
}

// SetError updates the returned error.
func (m *MockCollector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Collect increments the call counter and returns the configured result, or
// delegates to CollectFunc.
func (m *MockCollector) Collect(ctx context.Context) (sample.Sample, error) {
	m.callCount.Add(1)

	if m.CollectFunc != nil {
		return m.CollectFunc(ctx)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data, m.err
}

// CallCount returns how many times Collect has been called.
func (m *MockCollector) CallCount() int64 {
	return m.callCount.Load()
}
