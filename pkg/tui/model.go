package tui

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"

	"github.com/better-ecosystem/better-bar/pkg/sample"
	"github.com/better-ecosystem/better-bar/pkg/sink"
	"github.com/better-ecosystem/better-bar/pkg/theme"
)

const (
	DefaultTitleWidth = 34
	statusTTL         = 3 * time.Second
	volumeZone        = "volume"
)

// Model is the bubbletea model of the bar.
type Model struct {
	visible *sink.Visibility
	actions sink.Actions
	zones   *zone.Manager
	keys    keyMap
	styles  styles

	renderer *lipgloss.Renderer
	theme    theme.Theme

	displays   map[sample.Module]sink.Display
	workspaces sample.Workspaces
	wsError    string
	rebuilds   int

	status      string
	statusUntil time.Time

	width      int
	titleWidth int
	scrollStep int
}

// ModelOption configures a Model.
type ModelOption func(*Model)

// WithRenderer sets the lipgloss renderer used for every style.
func WithRenderer(r *lipgloss.Renderer) ModelOption {
	return func(m *Model) { m.renderer = r }
}

// WithTheme sets the color palette.
func WithTheme(t theme.Theme) ModelOption {
	return func(m *Model) { m.theme = t }
}

// WithScrollStep sets the volume change per wheel notch or key press.
func WithScrollStep(n int) ModelOption {
	return func(m *Model) {
		if n > 0 {
			m.scrollStep = n
		}
	}
}

// WithTitleWidth sets the maximum window title width in cells.
func WithTitleWidth(n int) ModelOption {
	return func(m *Model) {
		if n > 0 {
			m.titleWidth = n
		}
	}
}

// NewModel creates the bar model. Hidden modules are toggled on v, so the
// monitors see the same flags.
func NewModel(v *sink.Visibility, actions sink.Actions, opts ...ModelOption) Model {
	if actions == nil {
		actions = sink.NopActions{}
	}
	m := Model{
		visible:    v,
		actions:    actions,
		zones:      zone.New(),
		keys:       defaultKeyMap(),
		displays:   make(map[sample.Module]sink.Display),
		titleWidth: DefaultTitleWidth,
		scrollStep: 1,
		theme:      theme.Get(theme.DefaultName),
	}
	for _, opt := range opts {
		opt(&m)
	}
	if m.renderer == nil {
		m.renderer = newRenderer(os.Stdout)
	}
	m.styles = newStyles(m.renderer, m.theme)
	return m
}

func (m Model) Init() tea.Cmd { return TickCmd(time.Second) }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		if msg.Action != tea.MouseActionPress {
			return m, nil
		}
		if id, ok := m.hit(msg); ok {
			m.activate(id, msg.Button)
		}

	case RenderEvent:
		m.displays[msg.Module] = msg.Display

	case WorkspacesEvent:
		m.wsError = ""
		if msg.Rebuild {
			m.workspaces = msg.Workspaces
			m.rebuilds++
		} else {
			m.workspaces.ActiveID = msg.Workspaces.ActiveID
		}

	case WorkspaceErrorEvent:
		m.wsError = msg.Message

	case TickEvent:
		if m.status != "" && !msg.Time.Before(m.statusUntil) {
			m.status = ""
		}
		return m, TickCmd(time.Second)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Mute):
		m.actions.ToggleMute()
		return m, nil
	case key.Matches(msg, m.keys.VolumeUp):
		m.actions.ScrollVolume(m.scrollStep)
		return m, nil
	case key.Matches(msg, m.keys.VolumeDown):
		m.actions.ScrollVolume(-m.scrollStep)
		return m, nil
	}
	for _, t := range m.keys.toggles() {
		if key.Matches(msg, t.binding) {
			state := "hidden"
			if m.visible.Toggle(t.module) {
				state = "shown"
			}
			m.setStatus(fmt.Sprintf("%s %s", sink.Title(t.module), state))
			return m, nil
		}
	}
	return m, nil
}

func (m *Model) setStatus(s string) {
	m.status = s
	m.statusUntil = time.Now().Add(statusTTL)
}

// hit returns the zone id under a mouse event.
func (m Model) hit(msg tea.MouseMsg) (string, bool) {
	ids := []string{volumeZone}
	for _, id := range m.workspaces.IDs {
		ids = append(ids, workspaceZone(id))
	}
	for _, id := range ids {
		if z := m.zones.Get(id); z != nil && z.InBounds(msg) {
			return id, true
		}
	}
	return "", false
}

// activate performs the gesture for a zone.
func (m Model) activate(id string, button tea.MouseButton) {
	if id == volumeZone {
		switch button {
		case tea.MouseButtonLeft:
			m.actions.ToggleMute()
		case tea.MouseButtonWheelUp:
			m.actions.ScrollVolume(m.scrollStep)
		case tea.MouseButtonWheelDown:
			m.actions.ScrollVolume(-m.scrollStep)
		}
		return
	}
	var ws int
	if _, err := fmt.Sscanf(id, "ws-%d", &ws); err == nil && button == tea.MouseButtonLeft {
		m.actions.SwitchWorkspace(ws)
	}
}

func workspaceZone(id int) string { return fmt.Sprintf("ws-%d", id) }
