package sink

import (
	"sync/atomic"

	"github.com/better-ecosystem/better-bar/pkg/sample"
)

// Visibility holds per-module visibility flags. Modules not registered are
// never visible. Safe for concurrent use.
type Visibility struct {
	flags map[sample.Module]*atomic.Bool
}

// NewVisibility returns flags for modules, all visible.
func NewVisibility(modules []sample.Module) *Visibility {
	v := &Visibility{flags: make(map[sample.Module]*atomic.Bool, len(modules))}
	for _, m := range modules {
		b := new(atomic.Bool)
		b.Store(true)
		v.flags[m] = b
	}
	return v
}

func (v *Visibility) Visible(m sample.Module) bool {
	b, ok := v.flags[m]
	return ok && b.Load()
}

// Set changes the flag for a registered module.
func (v *Visibility) Set(m sample.Module, visible bool) {
	if b, ok := v.flags[m]; ok {
		b.Store(visible)
	}
}

// Toggle flips the flag and returns the new value.
func (v *Visibility) Toggle(m sample.Module) bool {
	b, ok := v.flags[m]
	if !ok {
		return false
	}
	for {
		old := b.Load()
		if b.CompareAndSwap(old, !old) {
			return !old
		}
	}
}

// Modules returns the registered modules in display order.
func (v *Visibility) Modules() []sample.Module {
	var out []sample.Module
	for _, m := range sample.Modules {
		if _, ok := v.flags[m]; ok {
			out = append(out, m)
		}
	}
	return out
}
