// Package sink is the single consumer of every monitor's updates. It
// debounces window titles, diffs workspaces, suppresses identical
// re-renders and is the only caller of the Presenter.
package sink

import (
	"context"
	"log/slog"
	"time"

	"github.com/better-ecosystem/better-bar/pkg/coalesce"
	"github.com/better-ecosystem/better-bar/pkg/collectors"
	"github.com/better-ecosystem/better-bar/pkg/sample"
)

const (
	DefaultTitleDebounce = 100 * time.Millisecond
	DefaultHousekeeping  = time.Second
)

// Presenter is the presentation boundary. All methods except Visible are
// called from the sink goroutine only; Visible may be called from any
// goroutine.
type Presenter interface {
	Render(m sample.Module, d Display)
	RebuildWorkspaces(ws sample.Workspaces)
	RestyleWorkspaces(ws sample.Workspaces)
	WorkspaceError(msg string)
	Visible(m sample.Module) bool
}

// Sources are the inputs of Run. Nil channels are never read.
type Sources struct {
	Polled     <-chan collectors.Update
	Volume     <-chan collectors.Update
	Titles     <-chan collectors.Update
	Workspaces <-chan collectors.Update
	// StopVolume cancels the volume stream. Called at most once, when the
	// volume element is no longer visible.
	StopVolume func()
}

// Sink owns presentation state.
type Sink struct {
	presenter    Presenter
	renderer     *Renderer
	logger       *slog.Logger
	debounce     time.Duration
	housekeeping time.Duration
	now          func() time.Time

	last       *coalesce.Last[sample.Module, Display]
	title      *coalesce.Debouncer[collectors.Update]
	workspaces coalesce.Workspaces
	volumeOff  bool
}

// Option configures a Sink.
type Option func(*Sink)

// WithTitleDebounce sets the quiet period for window titles.
func WithTitleDebounce(d time.Duration) Option { return func(s *Sink) { s.debounce = d } }

// WithHousekeeping sets how often visibility is re-checked without updates.
func WithHousekeeping(d time.Duration) Option { return func(s *Sink) { s.housekeeping = d } }

// New creates a sink rendering with r into p.
func New(p Presenter, r *Renderer, logger *slog.Logger, opts ...Option) *Sink {
	if logger == nil {
		logger = slog.Default()
	}
	if r == nil {
		r = NewRenderer(nil)
	}
	s := &Sink{
		presenter:    p,
		renderer:     r,
		logger:       logger.With("component", "sink"),
		debounce:     DefaultTitleDebounce,
		housekeeping: DefaultHousekeeping,
		now:          time.Now,
		last:         coalesce.NewLast[sample.Module](coalesce.Equal[Display]),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.title = coalesce.NewDebouncer[collectors.Update](s.debounce)
	return s
}

// Run consumes src until ctx is done. Closed channels are dropped from the
// loop; Run keeps serving the rest.
func (s *Sink) Run(ctx context.Context, src Sources) error {
	tick := time.NewTicker(s.housekeeping)
	defer tick.Stop()

	titleTimer := time.NewTimer(time.Hour)
	titleTimer.Stop()
	defer titleTimer.Stop()

	s.checkVolume(src.StopVolume)

	for {
		select {
		case <-ctx.Done():
			return nil

		case u, ok := <-src.Polled:
			if !ok {
				s.closed("polled")
				src.Polled = nil
				continue
			}
			s.Apply(u)

		case u, ok := <-src.Volume:
			if !ok {
				s.closed("volume")
				src.Volume = nil
				continue
			}
			s.Apply(u)
			s.checkVolume(src.StopVolume)

		case u, ok := <-src.Titles:
			if !ok {
				s.closed("titles")
				src.Titles = nil
				continue
			}
			s.title.Push(u, s.now())
			titleTimer.Reset(s.debounce)

		case <-titleTimer.C:
			if u, ok := s.title.Due(s.now()); ok {
				s.Apply(u)
			} else if next, pending := s.title.Next(); pending {
				titleTimer.Reset(next.Sub(s.now()))
			}

		case u, ok := <-src.Workspaces:
			if !ok {
				s.closed("workspaces")
				src.Workspaces = nil
				continue
			}
			s.ApplyWorkspaces(u)

		case <-tick.C:
			s.checkVolume(src.StopVolume)
		}
	}
}

// Apply renders one module update unless the result is unchanged.
func (s *Sink) Apply(u collectors.Update) {
	m := sample.Module(u.Source)
	if u.Error != nil {
		s.logger.Debug("update carried error", "module", m, "error", u.Error)
	}
	d := s.renderer.Render(m, u.Data, u.Error)
	if !s.last.Changed(m, d) {
		return
	}
	s.presenter.Render(m, d)
}

// ApplyWorkspaces restyles when only the active workspace moved, rebuilds
// when the set of workspaces changed and otherwise does nothing. An update
// without data shows the error placeholder.
func (s *Sink) ApplyWorkspaces(u collectors.Update) {
	ws, ok := u.Data.(sample.Workspaces)
	if !ok {
		msg := "workspaces unavailable"
		if u.Error != nil {
			msg = u.Error.Error()
		}
		s.logger.Warn("workspace error", "error", u.Error)
		s.workspaces.Invalidate()
		s.presenter.WorkspaceError(msg)
		return
	}
	switch s.workspaces.Next(ws) {
	case coalesce.Rebuild:
		s.presenter.RebuildWorkspaces(ws)
	case coalesce.Restyle:
		s.presenter.RestyleWorkspaces(ws)
	}
}

func (s *Sink) checkVolume(stop func()) {
	if stop == nil || s.volumeOff || s.presenter.Visible(sample.ModuleVolume) {
		return
	}
	s.volumeOff = true
	s.logger.Info("volume element hidden, stopping stream")
	stop()
}

func (s *Sink) closed(name string) {
	s.logger.Debug("source closed", "source", name, "error", collectors.ErrChannelClosed)
}
