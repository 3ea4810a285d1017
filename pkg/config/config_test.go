package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/better-ecosystem/better-bar/pkg/sample"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	for _, m := range sample.Modules {
		if !cfg.Modules.Enabled(m) {
			t.Errorf("module %s disabled by default", m)
		}
	}
	if cfg.General.ReloadDebounce.Duration != 250*time.Millisecond {
		t.Errorf("ReloadDebounce = %v", cfg.General.ReloadDebounce)
	}
}

func TestLoadFromReaderTOML(t *testing.T) {
	t.Setenv("BETTER_BAR_LOG_LEVEL", "")
	t.Setenv("BETTER_BAR_MODE", "")
	input := `
[general]
log_level = "debug"
mode = "i3bar"
reload_debounce = "1s"

[modules]
battery = false
clock = false

[battery]
format = "{percentage}"

[volume]
scroll_step = 5
tooltip = false
`
	cfg, err := LoadFromReader(strings.NewReader(input))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	if cfg.General.LogLevel != "debug" || cfg.General.Mode != ModeI3Bar {
		t.Errorf("general = %+v", cfg.General)
	}
	if cfg.General.ReloadDebounce.Duration != time.Second {
		t.Errorf("ReloadDebounce = %v, want 1s", cfg.General.ReloadDebounce)
	}
	if cfg.Modules.Battery || cfg.Modules.Clock || !cfg.Modules.CPU {
		t.Errorf("modules = %+v", cfg.Modules)
	}
	if cfg.Battery.Format != "{percentage}" {
		t.Errorf("battery.format = %q", cfg.Battery.Format)
	}
	if cfg.Battery.TooltipFormat != "{state}: {time}" {
		t.Errorf("unset battery.tooltip_format lost its default: %q", cfg.Battery.TooltipFormat)
	}
	if cfg.Volume.ScrollStep != 5 || cfg.Volume.Tooltip {
		t.Errorf("volume = %+v", cfg.Volume)
	}
}

func TestLoadFromReaderInvalidDuration(t *testing.T) {
	_, err := LoadFromReader(strings.NewReader("[general]\nreload_debounce = \"-1s\"\n"))
	if err == nil {
		t.Error("negative duration accepted")
	}
}

func TestLoadFromFileYAML(t *testing.T) {
	t.Setenv("BETTER_BAR_LOG_LEVEL", "")
	t.Setenv("BETTER_BAR_MODE", "")
	path := filepath.Join(t.TempDir(), "config.yaml")
	input := `general:
  mode: tui
modules:
  network: false
volume:
  format: "{percentage}"
  scroll_step: 2
`
	if err := os.WriteFile(path, []byte(input), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if cfg.General.Mode != ModeTUI || cfg.Modules.Network {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Volume.Format != "{percentage}" || cfg.Volume.ScrollStep != 2 {
		t.Errorf("volume = %+v", cfg.Volume)
	}
	if cfg.General.LogLevel != "info" {
		t.Errorf("log_level default lost: %q", cfg.General.LogLevel)
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil || cfg == nil {
		t.Fatalf("LoadFromFile(missing) = %v, %v; want defaults", cfg, err)
	}
}

func TestLoadFromFileSyntaxError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[general\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := LoadFromFile(path)
	if err == nil || !strings.Contains(err.Error(), path) {
		t.Errorf("LoadFromFile error = %v, want path in message", err)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("BETTER_BAR_LOG_LEVEL", "WARN")
	t.Setenv("BETTER_BAR_MODE", "tui")
	cfg, err := LoadFromReader(strings.NewReader(""))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.General.LogLevel != "warn" || cfg.General.Mode != ModeTUI {
		t.Errorf("general = %+v", cfg.General)
	}
}

func TestLoadSearchPaths(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	t.Setenv("HOME", t.TempDir())

	cfg, path, err := Load()
	if err != nil || path != "" || cfg == nil {
		t.Fatalf("Load with no file = %v, %q, %v", cfg, path, err)
	}

	dir := filepath.Join(xdg, appName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(dir, "config.yml")
	if err := os.WriteFile(want, []byte("modules:\n  cpu: false\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, path, err = Load()
	if err != nil || path != want {
		t.Fatalf("Load = %q, %v; want %q", path, err, want)
	}
	if cfg.Modules.CPU {
		t.Error("cpu should be disabled by the found file")
	}
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.General.LogLevel = "loud"
	cfg.General.Mode = "gtk"
	cfg.General.Theme = "solarized"
	cfg.Volume.ScrollStep = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate accepted invalid config")
	}
	for _, field := range []string{"general.log_level", "general.mode", "general.theme", "volume.scroll_step"} {
		if !strings.Contains(err.Error(), field) {
			t.Errorf("Validate error missing %s: %v", field, err)
		}
	}
}

func TestWatcherReload(t *testing.T) {
	t.Setenv("BETTER_BAR_LOG_LEVEL", "")
	t.Setenv("BETTER_BAR_MODE", "")
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[modules]\ncpu = true\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	got := make(chan *Config, 4)
	w := NewWatcher(path, 20*time.Millisecond, nil)
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, func(c *Config) { got <- c }) }()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(path, []byte("[general\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(path, []byte("[modules]\ncpu = false\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-got:
		if cfg.Modules.CPU {
			t.Error("reloaded config should have cpu disabled")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no reload delivered")
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run = %v", err)
	}
}

func TestDurationText(t *testing.T) {
	var d Duration
	if err := d.UnmarshalText([]byte("")); err != nil || d.Duration != 0 {
		t.Errorf("empty = %v, %v", d, err)
	}
	if err := d.UnmarshalText([]byte("nope")); err == nil {
		t.Error("invalid duration accepted")
	}
	if err := d.UnmarshalText([]byte("1m30s")); err != nil || d.Duration != 90*time.Second {
		t.Errorf("1m30s = %v, %v", d, err)
	}
	if b, _ := d.MarshalText(); string(b) != "1m30s" {
		t.Errorf("MarshalText = %q", b)
	}
}
