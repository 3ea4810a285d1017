// Package config provides the TOML (or YAML) configuration for better-bar.
package config

import (
	"errors"
	"fmt"
	"slices"

	"github.com/better-ecosystem/better-bar/pkg/sample"
	"github.com/better-ecosystem/better-bar/pkg/theme"
)

// Presentation modes.
const (
	ModeAuto  = "auto"
	ModeTUI   = "tui"
	ModeI3Bar = "i3bar"
)

// Config is a read-only snapshot handed to every component at construction.
type Config struct {
	General GeneralConfig  `toml:"general" yaml:"general"`
	Modules ModulesConfig  `toml:"modules" yaml:"modules"`
	Battery TemplateConfig `toml:"battery" yaml:"battery"`
	Network TemplateConfig `toml:"network" yaml:"network"`
	Volume  VolumeConfig   `toml:"volume" yaml:"volume"`
	Clock   ClockConfig    `toml:"clock" yaml:"clock"`
}

// GeneralConfig holds process-wide settings.
type GeneralConfig struct {
	LogLevel string `toml:"log_level" yaml:"log_level"`
	LogFile  string `toml:"log_file" yaml:"log_file"`
	// Mode selects the presenter: auto, tui or i3bar.
	Mode string `toml:"mode" yaml:"mode"`
	// Theme is a builtin palette name or a path to a .toml theme file.
	Theme string `toml:"theme" yaml:"theme"`
	// ReloadDebounce is the quiet period after a config file change before
	// it is re-read.
	ReloadDebounce Duration `toml:"reload_debounce" yaml:"reload_debounce"`
}

// ModulesConfig enables or disables each module.
type ModulesConfig struct {
	CPU         bool `toml:"cpu" yaml:"cpu"`
	Memory      bool `toml:"memory" yaml:"memory"`
	Battery     bool `toml:"battery" yaml:"battery"`
	Network     bool `toml:"network" yaml:"network"`
	Volume      bool `toml:"volume" yaml:"volume"`
	WindowTitle bool `toml:"window_title" yaml:"window_title"`
	Workspaces  bool `toml:"workspaces" yaml:"workspaces"`
	Clock       bool `toml:"clock" yaml:"clock"`
}

// Enabled reports the flag for m.
func (c ModulesConfig) Enabled(m sample.Module) bool {
	switch m {
	case sample.ModuleCPU:
		return c.CPU
	case sample.ModuleMemory:
		return c.Memory
	case sample.ModuleBattery:
		return c.Battery
	case sample.ModuleNetwork:
		return c.Network
	case sample.ModuleVolume:
		return c.Volume
	case sample.ModuleWindowTitle:
		return c.WindowTitle
	case sample.ModuleWorkspaces:
		return c.Workspaces
	case sample.ModuleClock:
		return c.Clock
	}
	return false
}

// TemplateConfig is a label template, a tooltip template and a tooltip
// switch. Empty templates use the module default.
type TemplateConfig struct {
	Format        string `toml:"format" yaml:"format"`
	Tooltip       bool   `toml:"tooltip" yaml:"tooltip"`
	TooltipFormat string `toml:"tooltip_format" yaml:"tooltip_format"`
}

// VolumeConfig adds the scroll step to the volume templates.
type VolumeConfig struct {
	TemplateConfig `yaml:",inline"`
	// ScrollStep is the percentage change per scroll notch.
	ScrollStep int `toml:"scroll_step" yaml:"scroll_step"`
}

// ClockConfig uses Go time layouts.
type ClockConfig struct {
	Format        string `toml:"format" yaml:"format"`
	Tooltip       bool   `toml:"tooltip" yaml:"tooltip"`
	TooltipFormat string `toml:"tooltip_format" yaml:"tooltip_format"`
}

var logLevels = []string{"debug", "info", "warn", "error"}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	if !slices.Contains(logLevels, c.General.LogLevel) {
		errs = append(errs, fmt.Errorf("general.log_level: %q is not one of %v", c.General.LogLevel, logLevels))
	}
	switch c.General.Mode {
	case ModeAuto, ModeTUI, ModeI3Bar:
	default:
		errs = append(errs, fmt.Errorf("general.mode: %q is not one of auto, tui, i3bar", c.General.Mode))
	}
	if t := c.General.Theme; t != "" && !theme.IsFile(t) && !theme.Has(t) {
		errs = append(errs, fmt.Errorf("general.theme: %q is not one of %v or a .toml file", c.General.Theme, theme.Names()))
	}
	if c.Volume.ScrollStep < 1 || c.Volume.ScrollStep > 25 {
		errs = append(errs, fmt.Errorf("volume.scroll_step: %d is outside 1..25", c.Volume.ScrollStep))
	}
	return errors.Join(errs...)
}
