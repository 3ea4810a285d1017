package main

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/better-ecosystem/better-bar/pkg/bar"
	"github.com/better-ecosystem/better-bar/pkg/config"
	"github.com/better-ecosystem/better-bar/pkg/sample"
)

func TestLogLevel(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		want    slog.Level
	}{
		{"debug", false, slog.LevelDebug},
		{"warn", false, slog.LevelWarn},
		{"error", false, slog.LevelError},
		{"", false, slog.LevelInfo},
		{"loud", false, slog.LevelInfo},
		{"error", true, slog.LevelDebug},
	}
	for _, tt := range tests {
		if got := logLevel(tt.name, tt.verbose); got != tt.want {
			t.Errorf("logLevel(%q, %v) = %v, want %v", tt.name, tt.verbose, got, tt.want)
		}
	}
}

func TestResolveMode(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "out"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if got := resolveMode(config.ModeAuto, f); got != config.ModeI3Bar {
		t.Errorf("auto on a file = %q, want i3bar", got)
	}
	if got := resolveMode(config.ModeTUI, f); got != config.ModeTUI {
		t.Errorf("explicit tui = %q", got)
	}
}

func TestLoadConfigExplicitPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[general]\nmode = \"i3bar\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, got, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if got != path || cfg.General.Mode != config.ModeI3Bar {
		t.Errorf("loadConfig = %q, mode %q", got, cfg.General.Mode)
	}
}

func TestPrintStatus(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.json")
	st := bar.Status{
		PID:       4242,
		StartedAt: time.Date(2026, 1, 1, 8, 0, 0, 0, time.Local),
		UpdatedAt: time.Date(2026, 1, 1, 8, 5, 0, 0, time.Local),
		Modules: map[sample.Module]bar.ModuleStatus{
			sample.ModuleCPU:    {State: bar.StateRunning, Healthy: true, RunCount: 12},
			sample.ModuleVolume: {State: bar.StateFailed, LastError: "pactl not found"},
		},
	}
	if err := bar.WriteStatusFile(path, st); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := printStatus(&buf, path); err != nil {
		t.Fatalf("printStatus: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"pid 4242", "cpu", "running", "volume", "failed", "pactl not found"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "cpu") > strings.Index(out, "volume") {
		t.Error("modules not in display order")
	}

	if err := printStatus(&buf, filepath.Join(t.TempDir(), "none.json")); err == nil {
		t.Error("printStatus without a file should fail")
	}
}
