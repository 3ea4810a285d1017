package tui

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/better-ecosystem/better-bar/pkg/sample"
)

type keyMap struct {
	Quit          key.Binding
	ToggleNetwork key.Binding
	ToggleBattery key.Binding
	ToggleVolume  key.Binding
	Mute          key.Binding
	VolumeUp      key.Binding
	VolumeDown    key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		ToggleNetwork: key.NewBinding(
			key.WithKeys("N"),
			key.WithHelp("N", "network"),
		),
		ToggleBattery: key.NewBinding(
			key.WithKeys("B"),
			key.WithHelp("B", "battery"),
		),
		ToggleVolume: key.NewBinding(
			key.WithKeys("V"),
			key.WithHelp("V", "volume (stops the stream)"),
		),
		Mute: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "mute"),
		),
		VolumeUp: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "vol up"),
		),
		VolumeDown: key.NewBinding(
			key.WithKeys("-"),
			key.WithHelp("-", "vol down"),
		),
	}
}

// toggles maps visibility bindings to their module.
func (k keyMap) toggles() []struct {
	binding key.Binding
	module  sample.Module
} {
	return []struct {
		binding key.Binding
		module  sample.Module
	}{
		{k.ToggleNetwork, sample.ModuleNetwork},
		{k.ToggleBattery, sample.ModuleBattery},
		{k.ToggleVolume, sample.ModuleVolume},
	}
}

func (k keyMap) help() []key.Binding {
	return []key.Binding{k.Quit, k.Mute, k.VolumeUp, k.VolumeDown, k.ToggleNetwork, k.ToggleBattery, k.ToggleVolume}
}
