package network

import (
	"fmt"

	"github.com/better-ecosystem/better-bar/pkg/format"
	"github.com/better-ecosystem/better-bar/pkg/sample"
)

const (
	DefaultFormat  = "{icon} {ssid}"
	DefaultTooltip = "{ifname}: {ip}\nSignal: {signal} {frequency}\nDown: {down}  Up: {up}"
)

// IconName returns the freedesktop symbolic icon for the link.
func IconName(n sample.Network) string {
	if !n.Connected {
		return "network-offline-symbolic"
	}
	switch n.Kind {
	case sample.LinkWifi:
		switch {
		case n.SignalPct > 75:
			return "network-wireless-signal-excellent-symbolic"
		case n.SignalPct > 50:
			return "network-wireless-signal-good-symbolic"
		case n.SignalPct > 25:
			return "network-wireless-signal-ok-symbolic"
		case n.SignalPct > 0:
			return "network-wireless-signal-weak-symbolic"
		}
		return "network-wireless-signal-none-symbolic"
	case sample.LinkEthernet:
		return "network-wired-symbolic"
	}
	return "network-error-symbolic"
}

// Glyph returns the nerd-font glyph for the {icon} token.
func Glyph(n sample.Network) string {
	if !n.Connected {
		return "󰖪"
	}
	switch n.Kind {
	case sample.LinkWifi:
		switch {
		case n.SignalPct > 75:
			return "󰤨"
		case n.SignalPct > 50:
			return "󰤥"
		case n.SignalPct > 25:
			return "󰤢"
		}
		return "󰤟"
	case sample.LinkEthernet:
		return "󰈁"
	}
	return "󰖪"
}

// Class returns "disconnected" when the link is down.
func Class(n sample.Network) string {
	if !n.Connected {
		return "disconnected"
	}
	return ""
}

// Vars returns the template tokens for n.
func Vars(n sample.Network) format.Vars {
	status := "Disconnected"
	if n.Connected {
		status = "Connected"
	}
	ssid := n.SSID
	if ssid == "" && !n.Connected {
		ssid = "Disconnected"
	}
	freq := n.Freq
	if freq == "" {
		freq = "-"
	}
	return format.Vars{
		"ifname":    n.Interface,
		"ssid":      ssid,
		"ip":        n.IP,
		"signal":    fmt.Sprintf("%d%%", n.SignalPct),
		"frequency": freq,
		"down":      format.Rate(n.RxRate),
		"up":        format.Rate(n.TxRate),
		"type":      n.Kind.String(),
		"status":    status,
		"icon":      Glyph(n),
	}
}

// FormatText expands the label template.
func FormatText(n sample.Network, tmpl string) string {
	if tmpl == "" {
		tmpl = DefaultFormat
	}
	return format.Expand(tmpl, Vars(n))
}

// FormatTooltip expands the tooltip template.
func FormatTooltip(n sample.Network, tmpl string) string {
	if tmpl == "" {
		tmpl = DefaultTooltip
	}
	return format.Expand(tmpl, Vars(n))
}
