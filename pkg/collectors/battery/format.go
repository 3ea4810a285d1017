package battery

import (
	"github.com/better-ecosystem/better-bar/pkg/format"
	"github.com/better-ecosystem/better-bar/pkg/sample"
)

// Default templates.
const (
	DefaultFormat  = "{icon} {percentage}"
	DefaultTooltip = "{state}: {time}"
)

// TimeLabel describes the remaining time for the tooltip and {time} token.
func TimeLabel(b sample.Battery) string {
	switch b.State {
	case sample.BatteryCharging:
		if b.Charged {
			return "Full"
		}
		if b.TimeToFull <= 0 {
			return "Full in Unknown"
		}
		return "Full in " + format.Countdown(b.TimeToFull)
	case sample.BatteryDischarging:
		if b.TimeToEmpty <= 0 {
			return "Empty in Unknown"
		}
		return "Empty in " + format.Countdown(b.TimeToEmpty)
	case sample.BatteryFull:
		return "Full"
	default:
		return "Unknown"
	}
}

// IconName returns the freedesktop symbolic icon for a level.
func IconName(b sample.Battery) string {
	suffix := "-symbolic"
	if b.State == sample.BatteryCharging {
		suffix = "-charging-symbolic"
	}
	switch p := b.Percentage; {
	case p >= 90:
		return "battery-full" + suffix
	case p >= 60:
		return "battery-good" + suffix
	case p >= 30:
		return "battery-medium" + suffix
	case p >= 10:
		return "battery-low" + suffix
	default:
		return "battery-caution" + suffix
	}
}

var glyphs = [...]string{"󰁺", "󰁼", "󰁾", "󰂀", "󰁹"}

// Glyph returns the nerd-font glyph used for the {icon} token.
func Glyph(b sample.Battery) string {
	if b.State == sample.BatteryCharging {
		return "󰂄"
	}
	switch p := b.Percentage; {
	case p >= 90:
		return glyphs[4]
	case p >= 60:
		return glyphs[3]
	case p >= 30:
		return glyphs[2]
	case p >= 10:
		return glyphs[1]
	default:
		return glyphs[0]
	}
}

// Class returns the CSS-style state class: "critical" below 15%, "warning"
// below 30%, otherwise empty.
func Class(b sample.Battery) string {
	switch {
	case b.Percentage < 15:
		return "critical"
	case b.Percentage < 30:
		return "warning"
	}
	return ""
}

// Vars returns the template tokens for b.
func Vars(b sample.Battery) format.Vars {
	return format.Vars{
		"percentage": format.Percent(float64(b.Percentage)),
		"state":      b.State.String(),
		"time":       TimeLabel(b),
		"icon":       Glyph(b),
	}
}

// FormatText expands the label template.
func FormatText(b sample.Battery, tmpl string) string {
	if tmpl == "" {
		tmpl = DefaultFormat
	}
	return format.Expand(tmpl, Vars(b))
}

// FormatTooltip expands the tooltip template.
func FormatTooltip(b sample.Battery, tmpl string) string {
	if tmpl == "" {
		tmpl = DefaultTooltip
	}
	return format.Expand(tmpl, Vars(b))
}
