// Package bar wires the monitors, the sink and a presenter together and
// supervises their lifecycle.
package bar

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/better-ecosystem/better-bar/pkg/audio"
	"github.com/better-ecosystem/better-bar/pkg/collectors"
	"github.com/better-ecosystem/better-bar/pkg/collectors/battery"
	"github.com/better-ecosystem/better-bar/pkg/collectors/clock"
	"github.com/better-ecosystem/better-bar/pkg/collectors/cpu"
	"github.com/better-ecosystem/better-bar/pkg/collectors/memory"
	"github.com/better-ecosystem/better-bar/pkg/collectors/network"
	"github.com/better-ecosystem/better-bar/pkg/compositor"
	"github.com/better-ecosystem/better-bar/pkg/config"
	"github.com/better-ecosystem/better-bar/pkg/sample"
	"github.com/better-ecosystem/better-bar/pkg/sink"
)

// DefaultStatusInterval is how often the status file is rewritten.
const DefaultStatusInterval = 5 * time.Second

// CollectorFactory builds the polled collector for m, or nil if m is not
// a polled module.
type CollectorFactory func(m sample.Module, logger *slog.Logger) collectors.Collector

// SystemCollector is the factory for the live system.
func SystemCollector(m sample.Module, logger *slog.Logger) collectors.Collector {
	switch m {
	case sample.ModuleCPU:
		return cpu.New(logger)
	case sample.ModuleMemory:
		return memory.New(logger)
	case sample.ModuleBattery:
		return battery.NewSystem(logger)
	case sample.ModuleNetwork:
		return network.New(network.NewMonitor(logger))
	case sample.ModuleClock:
		return clock.New(nil)
	}
	return nil
}

// EnabledModules returns the modules switched on in cfg, in display order.
func EnabledModules(cfg *config.Config) []sample.Module {
	var out []sample.Module
	for _, m := range sample.Modules {
		if cfg.Modules.Enabled(m) {
			out = append(out, m)
		}
	}
	return out
}

// NewVisibility returns flags for every module with the ones disabled in
// cfg hidden, so a reload can switch them on later.
func NewVisibility(cfg *config.Config) *sink.Visibility {
	v := sink.NewVisibility(sample.Modules)
	for _, m := range sample.Modules {
		v.Set(m, cfg.Modules.Enabled(m))
	}
	return v
}

// App owns every monitor of one bar instance.
type App struct {
	visible    *sink.Visibility
	logger     *slog.Logger
	factory    CollectorFactory
	audio      audio.Backend
	ipc        compositor.IPC
	ipcErr     error
	statusPath string

	registry *collectors.Registry
	runner   *collectors.Runner
	polled   chan collectors.Update

	stream    *audio.Stream
	coalescer *audio.Coalescer

	mu      sync.Mutex
	cfg     *config.Config
	states  map[sample.Module]State
	ctx     context.Context
	started time.Time

	running atomic.Bool
}

// Option configures an App.
type Option func(*App)

// WithCollectorFactory replaces SystemCollector.
func WithCollectorFactory(f CollectorFactory) Option { return func(a *App) { a.factory = f } }

// WithAudio sets the audio backend instead of pactl.
func WithAudio(b audio.Backend) Option { return func(a *App) { a.audio = b } }

// WithCompositor sets the compositor IPC instead of the running Hyprland.
func WithCompositor(ipc compositor.IPC) Option {
	return func(a *App) { a.ipc, a.ipcErr = ipc, nil }
}

// WithStatusFile makes Run keep a status snapshot at path.
func WithStatusFile(path string) Option { return func(a *App) { a.statusPath = path } }

// New creates an App for cfg. Hidden modules in v are not polled.
func New(cfg *config.Config, v *sink.Visibility, logger *slog.Logger, opts ...Option) *App {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if v == nil {
		v = NewVisibility(cfg)
	}
	a := &App{
		visible:  v,
		logger:   logger.With("component", "bar"),
		factory:  SystemCollector,
		cfg:      cfg,
		registry: collectors.NewRegistry(),
		polled:   make(chan collectors.Update, collectors.DefaultUpdateBufferSize),
		states:   make(map[sample.Module]State),
		ctx:      context.Background(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.audio == nil {
		a.audio = audio.NewPactl(logger)
	}
	if a.ipc == nil && a.ipcErr == nil {
		h, err := compositor.NewHyprland()
		if err != nil {
			a.ipcErr = err
		} else {
			a.ipc = h
		}
	}
	a.runner = collectors.NewRunner(a.registry, a.polled,
		collectors.WithLogger(logger.With("component", "runner")),
		collectors.WithVisibility(func(name string) bool { return v.Visible(sample.Module(name)) }),
	)
	a.coalescer = audio.NewCoalescer(a.audio, logger.With("module", string(sample.ModuleVolume)))
	a.stream = audio.NewStream(a.audio, logger)
	return a
}

// Run starts every enabled monitor and feeds presenter p until ctx is done.
// Monitors that cannot start are marked failed; the rest of the bar keeps
// running.
func (a *App) Run(ctx context.Context, p sink.Presenter) error {
	if !a.running.CompareAndSwap(false, true) {
		return errors.New("bar already running")
	}
	a.mu.Lock()
	a.started = time.Now()
	a.ctx = ctx
	cfg := a.cfg
	a.mu.Unlock()

	src := sink.Sources{Polled: a.polled}

	for _, m := range polledModules {
		if !cfg.Modules.Enabled(m) {
			a.setState(m, StateDisabled)
			continue
		}
		c := a.factory(m, a.logger)
		if c == nil {
			a.setState(m, StateFailed)
			continue
		}
		a.registry.Replace(c)
		a.setState(m, StateRunning)
	}
	if err := a.runner.Start(ctx); err != nil {
		return err
	}
	defer a.runner.Stop()

	if cfg.Modules.Volume {
		volCtx, stopVolume := context.WithCancel(ctx)
		defer stopVolume()
		ch, err := a.stream.Start(volCtx)
		if err != nil {
			a.logger.Error("volume stream not started", "error", err)
			a.setState(sample.ModuleVolume, StateFailed)
		} else {
			src.Volume = ch
			src.StopVolume = stopVolume
			a.setState(sample.ModuleVolume, StateRunning)
			go a.coalescer.Run(ctx)
		}
	} else {
		a.setState(sample.ModuleVolume, StateDisabled)
	}

	a.startCompositor(ctx, cfg, &src)

	if a.statusPath != "" {
		go a.writeStatus(ctx)
	}

	s := sink.New(p, sink.NewRenderer(cfg), a.logger)
	err := s.Run(ctx, src)

	a.mu.Lock()
	for m, st := range a.states {
		if st == StateRunning {
			a.states[m] = StateStopped
		}
	}
	a.mu.Unlock()
	return err
}

func (a *App) startCompositor(ctx context.Context, cfg *config.Config, src *sink.Sources) {
	titles := cfg.Modules.WindowTitle
	workspaces := cfg.Modules.Workspaces
	mark := func(st State) {
		if titles {
			a.setState(sample.ModuleWindowTitle, st)
		}
		if workspaces {
			a.setState(sample.ModuleWorkspaces, st)
		}
	}
	if !titles {
		a.setState(sample.ModuleWindowTitle, StateDisabled)
	}
	if !workspaces {
		a.setState(sample.ModuleWorkspaces, StateDisabled)
	}
	if !titles && !workspaces {
		return
	}
	if a.ipcErr != nil {
		a.logger.Error("compositor unavailable", "error", a.ipcErr)
		mark(StateFailed)
		return
	}

	l := compositor.NewListener(a.ipc, a.logger)
	// Both channels are always consumed so the listener never blocks on a
	// disabled module; hidden modules are not rendered by the presenter.
	src.Titles = l.Titles()
	src.Workspaces = l.Workspaces()
	if err := l.Start(ctx); err != nil {
		mark(StateFailed)
		return
	}
	mark(StateRunning)
}

// Reload applies a new configuration. Polled monitors whose flag changed
// are registered or removed; event monitors keep their startup setting.
func (a *App) Reload(cfg *config.Config) {
	a.mu.Lock()
	old := a.cfg
	a.cfg = cfg
	a.mu.Unlock()

	changed := false
	for _, m := range polledModules {
		was, is := old.Modules.Enabled(m), cfg.Modules.Enabled(m)
		switch {
		case is && !was:
			c := a.factory(m, a.logger)
			if c == nil {
				a.setState(m, StateFailed)
				continue
			}
			a.registry.Replace(c)
			a.visible.Set(m, true)
			a.setState(m, StateRunning)
			a.logger.Info("module enabled", "module", m)
			changed = true
		case was && !is:
			a.registry.Unregister(string(m))
			a.visible.Set(m, false)
			a.setState(m, StateDisabled)
			a.logger.Info("module disabled", "module", m)
			changed = true
		}
	}
	for _, m := range []sample.Module{sample.ModuleVolume, sample.ModuleWindowTitle, sample.ModuleWorkspaces} {
		if old.Modules.Enabled(m) != cfg.Modules.Enabled(m) {
			a.logger.Warn("event monitor setting changed, restart to apply", "module", m)
		}
	}
	if changed {
		a.runner.Refresh()
	}
}

// States returns the supervised state of every module.
func (a *App) States() map[sample.Module]State {
	a.mu.Lock()
	out := make(map[sample.Module]State, len(a.states))
	for m, st := range a.states {
		out[m] = st
	}
	a.mu.Unlock()

	if st, ok := out[sample.ModuleVolume]; ok && st == StateRunning {
		out[sample.ModuleVolume] = streamState(a.stream.State())
	}
	for _, s := range a.registry.AllStatus() {
		m := sample.Module(s.Name)
		if s.Stopped && out[m] == StateRunning {
			out[m] = StateStopped
		}
	}
	return out
}

func (a *App) setState(m sample.Module, st State) {
	a.mu.Lock()
	a.states[m] = st
	a.mu.Unlock()
}

func (a *App) actionContext() context.Context {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ctx
}

// SwitchWorkspace asks the compositor to focus workspace id. It does not
// block the caller.
func (a *App) SwitchWorkspace(id int) {
	if a.ipc == nil {
		return
	}
	ctx := a.actionContext()
	go func() {
		if err := a.ipc.SwitchWorkspace(ctx, id); err != nil && ctx.Err() == nil {
			a.logger.Warn("workspace switch failed", "workspace", id, "error", err)
		}
	}()
}

// ToggleMute flips the default sink's mute state without blocking.
func (a *App) ToggleMute() {
	ctx := a.actionContext()
	go func() {
		if err := a.coalescer.Toggle(ctx); err != nil && ctx.Err() == nil {
			a.logger.Warn("mute toggle failed", "error", err)
		}
	}()
}

// ScrollVolume queues a volume change of delta percentage points.
func (a *App) ScrollVolume(delta int) { a.coalescer.Nudge(delta) }

var _ sink.Actions = (*App)(nil)
