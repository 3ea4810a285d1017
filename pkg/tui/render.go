package tui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/better-ecosystem/better-bar/pkg/sample"
)

const separator = "│"

func (m Model) View() string {
	var segs []string
	for _, mod := range m.visible.Modules() {
		if !m.visible.Visible(mod) {
			continue
		}
		if seg := m.segment(mod); seg != "" {
			segs = append(segs, seg)
		}
	}
	bar := strings.Join(segs, m.styles.sep.Render(separator))
	if m.width > 0 {
		bar = ansi.Truncate(bar, m.width, "")
	}
	return m.zones.Scan(lipgloss.JoinVertical(lipgloss.Left, bar, m.statusLine()))
}

func (m Model) segment(mod sample.Module) string {
	if mod == sample.ModuleWorkspaces {
		return m.workspaceButtons()
	}
	d, ok := m.displays[mod]
	if !ok {
		return ""
	}
	text := d.Text
	if mod == sample.ModuleWindowTitle {
		text = ansi.Truncate(text, m.titleWidth, "…")
	}
	out := m.styles.class(d.Class).Render(text)
	if mod == sample.ModuleVolume {
		out = m.zones.Mark(volumeZone, out)
	}
	return out
}

func (m Model) workspaceButtons() string {
	if m.wsError != "" {
		return m.styles.class("error").Render("WS Error")
	}
	if len(m.workspaces.IDs) == 0 {
		return ""
	}
	var b strings.Builder
	for _, id := range m.workspaces.IDs {
		st := m.styles.inactive
		if id == m.workspaces.ActiveID {
			st = m.styles.active
		}
		b.WriteString(m.zones.Mark(workspaceZone(id), st.Render(strconv.Itoa(id))))
	}
	return b.String()
}

// statusLine shows a transient status message, or the key hints.
func (m Model) statusLine() string {
	if m.status != "" {
		return m.styles.hint.Render(m.status)
	}
	parts := make([]string, 0, len(m.keys.help()))
	for _, b := range m.keys.help() {
		h := b.Help()
		parts = append(parts, h.Key+":"+h.Desc)
	}
	line := strings.Join(parts, "  ")
	if m.width > 0 {
		line = ansi.Truncate(line, m.width, "")
	}
	return m.styles.hint.Render(line)
}
