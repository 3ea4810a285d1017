package bar

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/better-ecosystem/better-bar/pkg/sample"
)

// ModuleStatus is one module's entry in the status file.
type ModuleStatus struct {
	State     State     `json:"state"`
	Healthy   bool      `json:"healthy"`
	LastRun   time.Time `json:"last_run,omitzero"`
	LastError string    `json:"last_error,omitempty"`
	RunCount  int64     `json:"run_count,omitempty"`
}

// Status is the snapshot a running bar writes for `better-bar -status`.
type Status struct {
	PID       int                            `json:"pid"`
	StartedAt time.Time                      `json:"started_at"`
	UpdatedAt time.Time                      `json:"updated_at"`
	Modules   map[sample.Module]ModuleStatus `json:"modules"`
}

// DefaultStatusPath returns $XDG_RUNTIME_DIR/better-bar/status.json, or a
// path under the system temp dir when XDG_RUNTIME_DIR is unset.
func DefaultStatusPath() string {
	dir := os.Getenv("XDG_RUNTIME_DIR")
	if dir == "" {
		dir = filepath.Join(os.TempDir(), fmt.Sprintf("better-bar-%d", os.Getuid()))
	} else {
		dir = filepath.Join(dir, "better-bar")
	}
	return filepath.Join(dir, "status.json")
}

// Snapshot collects the current status.
func (a *App) Snapshot() Status {
	a.mu.Lock()
	started := a.started
	a.mu.Unlock()
	st := Status{
		PID:       os.Getpid(),
		StartedAt: started,
		UpdatedAt: time.Now(),
		Modules:   make(map[sample.Module]ModuleStatus),
	}
	for m, state := range a.States() {
		st.Modules[m] = ModuleStatus{State: state, Healthy: state != StateFailed}
	}
	for _, cs := range a.registry.AllStatus() {
		m := sample.Module(cs.Name)
		ms := st.Modules[m]
		ms.Healthy = cs.Healthy
		ms.LastRun = cs.LastRun
		ms.RunCount = cs.RunCount
		if cs.LastError != nil {
			ms.LastError = cs.LastError.Error()
		}
		st.Modules[m] = ms
	}
	return st
}

func (a *App) writeStatus(ctx context.Context) {
	ticker := time.NewTicker(DefaultStatusInterval)
	defer ticker.Stop()
	defer os.Remove(a.statusPath)
	for {
		if err := WriteStatusFile(a.statusPath, a.Snapshot()); err != nil {
			a.logger.Warn("status file not written", "path", a.statusPath, "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// WriteStatusFile writes st as indented JSON to path. The write is atomic:
// content goes to a temporary file first and is then renamed into place.
func WriteStatusFile(path string, st Status) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create status directory: %w", err)
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal status: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write temp status file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename status file: %w", err)
	}
	return nil
}

// ReadStatusFile reads a status file written by WriteStatusFile.
func ReadStatusFile(path string) (Status, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Status{}, fmt.Errorf("read status file: %w", err)
	}
	var st Status
	if err := json.Unmarshal(data, &st); err != nil {
		return Status{}, fmt.Errorf("unmarshal status file: %w", err)
	}
	return st, nil
}
