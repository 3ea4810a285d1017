package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher re-reads a config file after it changes and hands each valid
// snapshot to a callback. The parent directory is watched so editors that
// replace the file by rename are seen too.
type Watcher struct {
	path     string
	debounce time.Duration
	logger   *slog.Logger
}

// NewWatcher returns a watcher for path. A zero debounce uses 250ms.
func NewWatcher(path string, debounce time.Duration, logger *slog.Logger) *Watcher {
	if debounce <= 0 {
		debounce = 250 * time.Millisecond
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{path: path, debounce: debounce, logger: logger}
}

// Run blocks until ctx is done. Invalid files are logged and skipped; the
// previous snapshot stays in effect.
func (w *Watcher) Run(ctx context.Context, fn func(*Config)) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fw.Close()

	dir := filepath.Dir(w.path)
	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	w.logger.Info("watching config", "path", w.path)

	base := filepath.Base(w.path)
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != base {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.logger.Debug("config event", "op", ev.Op.String())
			timer.Reset(w.debounce)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("config watcher error", "error", err)

		case <-timer.C:
			cfg, err := LoadFromFile(w.path)
			if err == nil {
				err = cfg.Validate()
			}
			if err != nil {
				w.logger.Error("config reload rejected", "error", err)
				continue
			}
			w.logger.Info("config reloaded", "path", w.path)
			fn(cfg)
		}
	}
}
