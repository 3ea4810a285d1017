package audio

import (
	"strconv"

	"github.com/better-ecosystem/better-bar/pkg/format"
	"github.com/better-ecosystem/better-bar/pkg/sample"
)

const (
	DefaultFormat  = "{icon} {percentage}%"
	DefaultTooltip = "Volume: {state}"
)

// IconName returns the freedesktop symbolic icon for v.
func IconName(v sample.Volume) string {
	switch {
	case v.Muted || v.Percentage == 0:
		return "audio-volume-muted-symbolic"
	case v.Percentage > 70:
		return "audio-volume-high-symbolic"
	case v.Percentage > 30:
		return "audio-volume-medium-symbolic"
	}
	return "audio-volume-low-symbolic"
}

// Glyph returns the nerd-font glyph for the {icon} token.
func Glyph(v sample.Volume) string {
	switch {
	case v.Muted || v.Percentage == 0:
		return "󰝟"
	case v.Percentage > 70:
		return "󰕾"
	case v.Percentage > 30:
		return "󰖀"
	}
	return "󰕿"
}

// Class is "muted" while muted.
func Class(v sample.Volume) string {
	if v.Muted {
		return "muted"
	}
	return ""
}

// Vars returns the template tokens for v. {state} is "muted" or the level.
func Vars(v sample.Volume) format.Vars {
	pct := strconv.Itoa(int(v.Percentage))
	state := pct + "%"
	if v.Muted {
		state = "muted"
	}
	return format.Vars{
		"percentage": pct,
		"state":      state,
		"icon":       Glyph(v),
	}
}

func FormatText(v sample.Volume, tmpl string) string {
	if tmpl == "" {
		tmpl = DefaultFormat
	}
	return format.Expand(tmpl, Vars(v))
}

func FormatTooltip(v sample.Volume, tmpl string) string {
	if tmpl == "" {
		tmpl = DefaultTooltip
	}
	return format.Expand(tmpl, Vars(v))
}
