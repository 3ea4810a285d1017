package collectors

import (
	"fmt"
	"maps"
	"slices"
	"sync"
)

// entry pairs a collector with the status the runner maintains for it.
type entry struct {
	collector Collector
	status    CollectorStatus
}

// Registry manages the set of enabled polled monitors. It is safe for
// concurrent use; the runner re-reads it every scheduling cycle, so
// registrations made while running take effect on the next cycle.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

// NewRegistry returns an empty registry ready for collector registration.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*entry)}
}

// Register adds a collector to the registry. It returns an error if a
// collector with the same name is already registered.
func (r *Registry) Register(c Collector) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := c.Name()
	if _, exists := r.entries[name]; exists {
		return fmt.Errorf("collector %q already registered", name)
	}
	r.entries[name] = &entry{
		collector: c,
		status:    CollectorStatus{Name: name, Healthy: true},
	}
	return nil
}

// Replace registers c, discarding any collector (and its status) previously
// registered under the same name. Used when a config reload rebuilds a
// monitor.
func (r *Registry) Replace(c Collector) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := c.Name()
	r.entries[name] = &entry{
		collector: c,
		status:    CollectorStatus{Name: name, Healthy: true},
	}
}

// Unregister removes a collector by name. It is a no-op if the name is not
// found.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, name)
}

// Get returns the collector with the given name, or false if not found.
func (r *Registry) Get(name string) (Collector, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[name]
	if !ok {
		return nil, false
	}
	return e.collector, true
}

// List returns a sorted slice of all registered collector names.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.entries))
}

// Status returns a copy of the runtime status for the named collector, or
// false if the collector is not registered.
func (r *Registry) Status(name string) (CollectorStatus, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[name]
	if !ok {
		return CollectorStatus{}, false
	}
	return e.status, true
}

// AllStatus returns a copy of all collector statuses, sorted by name.
func (r *Registry) AllStatus() []CollectorStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]CollectorStatus, 0, len(r.entries))
	for _, name := range slices.Sorted(maps.Keys(r.entries)) {
		result = append(result, r.entries[name].status)
	}
	return result
}

// updateStatus applies fn to the status of the named collector, but only if
// c is still the collector registered under that name. A result from a
// collector that was replaced mid-flight is dropped.
func (r *Registry) updateStatus(name string, c Collector, fn func(s *CollectorStatus)) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[name]
	if !ok || (c != nil && e.collector != c) {
		return false
	}
	fn(&e.status)
	return true
}
