package coalesce

import (
	"slices"

	"github.com/better-ecosystem/better-bar/pkg/sample"
)

// Change is the presentation work a new workspace sample needs.
type Change int

const (
	// NoChange means the ids and the active id are unchanged.
	NoChange Change = iota
	// Restyle means only the active id moved.
	Restyle
	// Rebuild means the set of ids changed.
	Rebuild
)

func (c Change) String() string {
	switch c {
	case NoChange:
		return "none"
	case Restyle:
		return "restyle"
	case Rebuild:
		return "rebuild"
	}
	return "unknown"
}

// Workspaces tracks the last presented workspace sample.
type Workspaces struct {
	last  sample.Workspaces
	valid bool
}

// Next records ws and returns the work needed to present it.
func (w *Workspaces) Next(ws sample.Workspaces) Change {
	prev, valid := w.last, w.valid
	w.last, w.valid = ws, true
	switch {
	case !valid || !slices.Equal(prev.IDs, ws.IDs):
		return Rebuild
	case prev.ActiveID != ws.ActiveID:
		return Restyle
	}
	return NoChange
}

// Invalidate forces the next sample to rebuild, e.g. after an error
// placeholder replaced the buttons.
func (w *Workspaces) Invalidate() { w.valid = false }
