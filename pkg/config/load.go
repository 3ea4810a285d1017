package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/better-ecosystem/better-bar/pkg/theme"
)

const appName = "better-bar"

// Load reads configuration from the standard config path.
// Search order:
//  1. $XDG_CONFIG_HOME/better-bar/config.{toml,yaml,yml}
//  2. ~/.config/better-bar/config.{toml,yaml,yml}
//
// If no file exists, returns DefaultConfig() and an empty path.
func Load() (*Config, string, error) {
	for _, p := range configSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			cfg, err := LoadFromFile(p)
			return cfg, p, err
		}
	}
	cfg := DefaultConfig()
	applyEnvOverrides(cfg)
	return cfg, "", nil
}

// LoadFromFile reads configuration from a specific file path. Files ending
// in .yaml or .yml are YAML, everything else TOML.
func LoadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := DefaultConfig()
			applyEnvOverrides(cfg)
			return cfg, nil
		}
		return nil, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		cfg, err := LoadYAML(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return cfg, nil
	}
	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader reads TOML configuration from an io.Reader.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := DefaultConfig()
	if _, err := toml.NewDecoder(r).Decode(cfg); err != nil {
		return nil, err
	}
	applyEnvOverrides(cfg)
	return cfg, nil
}

// LoadYAML reads YAML configuration from an io.Reader.
func LoadYAML(r io.Reader) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.NewDecoder(r).Decode(cfg); err != nil && err != io.EOF {
		return nil, err
	}
	applyEnvOverrides(cfg)
	return cfg, nil
}

// DefaultConfig returns every module enabled with the built-in templates.
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()

	return &Config{
		General: GeneralConfig{
			LogLevel:       "info",
			LogFile:        filepath.Join(xdgStateHome(home), appName, appName+".log"),
			Mode:           ModeAuto,
			Theme:          theme.DefaultName,
			ReloadDebounce: Duration{250 * time.Millisecond},
		},
		Modules: ModulesConfig{
			CPU:         true,
			Memory:      true,
			Battery:     true,
			Network:     true,
			Volume:      true,
			WindowTitle: true,
			Workspaces:  true,
			Clock:       true,
		},
		Battery: TemplateConfig{
			Format:        "{icon} {percentage}",
			Tooltip:       true,
			TooltipFormat: "{state}: {time}",
		},
		Network: TemplateConfig{
			Format:        "{icon} {ssid}",
			Tooltip:       true,
			TooltipFormat: "{ifname}: {ip}\nSignal: {signal} {frequency}\nDown: {down}  Up: {up}",
		},
		Volume: VolumeConfig{
			TemplateConfig: TemplateConfig{
				Format:        "{icon} {percentage}%",
				Tooltip:       true,
				TooltipFormat: "Volume: {state}",
			},
			ScrollStep: 1,
		},
		Clock: ClockConfig{
			Format:        "03:04 PM",
			Tooltip:       true,
			TooltipFormat: "Monday, 02 January 2006",
		},
	}
}

// applyEnvOverrides checks environment variables and overrides config values.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("BETTER_BAR_LOG_LEVEL"); v != "" {
		cfg.General.LogLevel = strings.ToLower(v)
	}
	if v := os.Getenv("BETTER_BAR_MODE"); v != "" {
		cfg.General.Mode = strings.ToLower(v)
	}
}

// configSearchPaths returns the ordered list of config file paths to try.
func configSearchPaths() []string {
	home, _ := os.UserHomeDir()
	dirs := []string{filepath.Join(xdgConfigHome(home), appName)}

	// If XDG_CONFIG_HOME was explicitly set, also try the fallback default.
	defaultDir := filepath.Join(home, ".config", appName)
	if dirs[0] != defaultDir {
		dirs = append(dirs, defaultDir)
	}

	var paths []string
	for _, d := range dirs {
		for _, name := range []string{"config.toml", "config.yaml", "config.yml"} {
			paths = append(paths, filepath.Join(d, name))
		}
	}
	return paths
}

// xdgConfigHome returns XDG_CONFIG_HOME or ~/.config as fallback.
func xdgConfigHome(home string) string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return v
	}
	return filepath.Join(home, ".config")
}

// xdgStateHome returns XDG_STATE_HOME or ~/.local/state as fallback.
func xdgStateHome(home string) string {
	if v := os.Getenv("XDG_STATE_HOME"); v != "" {
		return v
	}
	return filepath.Join(home, ".local", "state")
}
