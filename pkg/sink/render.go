package sink

import (
	"fmt"
	"strings"

	"github.com/better-ecosystem/better-bar/pkg/audio"
	"github.com/better-ecosystem/better-bar/pkg/collectors/battery"
	"github.com/better-ecosystem/better-bar/pkg/collectors/clock"
	"github.com/better-ecosystem/better-bar/pkg/collectors/network"
	"github.com/better-ecosystem/better-bar/pkg/config"
	"github.com/better-ecosystem/better-bar/pkg/format"
	"github.com/better-ecosystem/better-bar/pkg/sample"
)

// Display is what a presenter shows for one module.
type Display struct {
	Text    string
	Icon    string
	Tooltip string
	// Class is a CSS-style state name ("error", "warning", "high", ...).
	Class string
}

var titles = map[sample.Module]string{
	sample.ModuleCPU:         "CPU",
	sample.ModuleMemory:      "Memory",
	sample.ModuleBattery:     "Battery",
	sample.ModuleNetwork:     "Network",
	sample.ModuleVolume:      "Volume",
	sample.ModuleWindowTitle: "Window",
	sample.ModuleWorkspaces:  "Workspaces",
	sample.ModuleClock:       "Clock",
}

// Title returns the human name of m.
func Title(m sample.Module) string {
	if t, ok := titles[m]; ok {
		return t
	}
	return string(m)
}

// ErrorDisplay is the placeholder for a module whose update carried no data.
func ErrorDisplay(m sample.Module, err error) Display {
	d := Display{Text: Title(m) + " Error", Class: "error"}
	if err != nil {
		d.Tooltip = err.Error()
	}
	return d
}

// Renderer turns samples into Displays using the configured templates.
type Renderer struct {
	cfg *config.Config
}

// NewRenderer returns a renderer over cfg; nil uses the defaults.
func NewRenderer(cfg *config.Config) *Renderer {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Renderer{cfg: cfg}
}

// Render formats s. A nil sample renders the error placeholder; a sample
// with an error renders normally with class "error".
func (r *Renderer) Render(m sample.Module, s sample.Sample, err error) Display {
	if s == nil {
		return ErrorDisplay(m, err)
	}
	d := r.render(s)
	if err != nil {
		d.Class = "error"
	}
	return d
}

func (r *Renderer) render(s sample.Sample) Display {
	switch v := s.(type) {
	case sample.CPU:
		return Display{
			Text:    fmt.Sprintf("CPU: %d%%", int(v.Utilization)),
			Icon:    "cpu-symbolic",
			Tooltip: fmt.Sprintf("Load: %.2f %.2f %.2f", v.Load1, v.Load5, v.Load15),
			Class:   level(v.Utilization, 30, 70),
		}

	case sample.Memory:
		pct := v.UsedPercentage()
		tip := fmt.Sprintf("Used: %s / %s (%s)\nAvailable: %s",
			format.KB(v.UsedKB), format.KB(v.TotalKB), format.Percent(pct), format.KB(v.AvailableKB))
		if v.ARCKB > 0 {
			tip += "\nZFS ARC: " + format.KB(v.ARCKB)
		}
		return Display{
			Text:    "RAM: " + format.KB(v.UsedKB),
			Icon:    "memory-symbolic",
			Tooltip: tip,
			Class:   level(pct, 50, 80),
		}

	case sample.Battery:
		c := r.cfg.Battery
		return Display{
			Text:    battery.FormatText(v, c.Format),
			Icon:    battery.IconName(v),
			Tooltip: tooltip(c.Tooltip, func() string { return battery.FormatTooltip(v, c.TooltipFormat) }),
			Class:   battery.Class(v),
		}

	case sample.Network:
		c := r.cfg.Network
		return Display{
			Text:    network.FormatText(v, c.Format),
			Icon:    network.IconName(v),
			Tooltip: tooltip(c.Tooltip, func() string { return network.FormatTooltip(v, c.TooltipFormat) }),
			Class:   network.Class(v),
		}

	case sample.Volume:
		c := r.cfg.Volume
		return Display{
			Text:    audio.FormatText(v, c.Format),
			Icon:    audio.IconName(v),
			Tooltip: tooltip(c.Tooltip, func() string { return audio.FormatTooltip(v, c.TooltipFormat) }),
			Class:   audio.Class(v),
		}

	case sample.WindowTitle:
		return Display{Text: v.Title, Tooltip: v.Title}

	case sample.Clock:
		c := r.cfg.Clock
		return Display{
			Text:    clock.Format(v.Time, c.Format),
			Tooltip: tooltip(c.Tooltip, func() string { return clock.Format(v.Time, c.TooltipFormat) }),
		}

	case sample.Workspaces:
		ids := make([]string, len(v.IDs))
		for i, id := range v.IDs {
			ids[i] = fmt.Sprint(id)
		}
		return Display{Text: strings.Join(ids, " "), Tooltip: fmt.Sprintf("Workspace %d", v.ActiveID)}
	}
	return Display{Text: fmt.Sprint(s)}
}

func tooltip(enabled bool, fn func() string) string {
	if !enabled {
		return ""
	}
	return fn()
}

// level maps a percentage to low, medium or high.
func level(pct, medium, high float64) string {
	switch {
	case pct < medium:
		return "low"
	case pct < high:
		return "medium"
	}
	return "high"
}
