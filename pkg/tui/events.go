// Package tui is the terminal presenter: a one-line bar drawn with
// bubbletea and lipgloss, with mouse zones for workspaces and volume.
package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/better-ecosystem/better-bar/pkg/sample"
	"github.com/better-ecosystem/better-bar/pkg/sink"
)

// RenderEvent carries a new Display for one module into the update loop.
type RenderEvent struct {
	Module  sample.Module
	Display sink.Display
}

// WorkspacesEvent carries a workspace sample. Rebuild is false when only
// the active workspace moved.
type WorkspacesEvent struct {
	Workspaces sample.Workspaces
	Rebuild    bool
}

// WorkspaceErrorEvent replaces the workspace buttons with a placeholder.
type WorkspaceErrorEvent struct {
	Message string
}

// TickEvent is sent periodically to expire the status message.
type TickEvent struct {
	Time time.Time
}

// TickCmd returns a Cmd that sends a TickEvent after d.
func TickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return TickEvent{Time: t}
	})
}
