// Package coalesce holds the debounce and diff helpers used between event
// producers and the presenter. Both types take explicit timestamps so callers
// own the clock, and neither is safe for concurrent use: the sink goroutine
// is the only caller.
package coalesce

import "time"

// Debouncer keeps the most recent value pushed and releases it once no newer
// value has arrived for the quiet period.
type Debouncer[T any] struct {
	quiet    time.Duration
	value    T
	deadline time.Time
	pending  bool
}

// NewDebouncer returns a debouncer with the given quiet period.
func NewDebouncer[T any](quiet time.Duration) *Debouncer[T] {
	return &Debouncer[T]{quiet: quiet}
}

// Push replaces any pending value with v and restarts the quiet period.
func (d *Debouncer[T]) Push(v T, now time.Time) {
	d.value = v
	d.deadline = now.Add(d.quiet)
	d.pending = true
}

// Due returns the pending value once its quiet period has elapsed.
func (d *Debouncer[T]) Due(now time.Time) (T, bool) {
	var zero T
	if !d.pending || now.Before(d.deadline) {
		return zero, false
	}
	v := d.value
	d.value = zero
	d.pending = false
	return v, true
}

// Next reports when the pending value becomes due.
func (d *Debouncer[T]) Next() (time.Time, bool) {
	return d.deadline, d.pending
}

// Pending reports whether a value is waiting.
func (d *Debouncer[T]) Pending() bool { return d.pending }

// Last remembers the previous value per key and reports whether a new one
// differs from it.
type Last[K comparable, V any] struct {
	equal func(a, b V) bool
	seen  map[K]V
}

// NewLast returns a Last using equal to compare values.
func NewLast[K comparable, V any](equal func(a, b V) bool) *Last[K, V] {
	return &Last[K, V]{equal: equal, seen: make(map[K]V)}
}

// Changed records v under k and returns true when it differs from the
// previously recorded value, or when k was never seen.
func (l *Last[K, V]) Changed(k K, v V) bool {
	prev, ok := l.seen[k]
	if ok && l.equal(prev, v) {
		return false
	}
	l.seen[k] = v
	return true
}

// Get returns the value last recorded under k.
func (l *Last[K, V]) Get(k K) (V, bool) {
	v, ok := l.seen[k]
	return v, ok
}

// Forget drops k so the next Changed call reports true.
func (l *Last[K, V]) Forget(k K) { delete(l.seen, k) }

// Equal is the equality func for comparable values.
func Equal[V comparable](a, b V) bool { return a == b }
