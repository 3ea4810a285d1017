package compositor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/better-ecosystem/better-bar/pkg/collectors"
	"github.com/better-ecosystem/better-bar/pkg/sample"
)

// DefaultBufferSize is the capacity of the titles and workspaces channels.
const DefaultBufferSize = 256

// DesktopTitle is shown when no window has focus.
const DesktopTitle = "Desktop"

var (
	titleEvents = map[string]bool{
		"activewindow": true,
		"workspace":    true,
		"openwindow":   true,
		"closewindow":  true,
	}
	workspaceEvents = map[string]bool{
		"workspace":        true,
		"createworkspace":  true,
		"destroyworkspace": true,
	}
)

// Listener re-queries compositor state whenever a relevant event arrives
// and publishes the result. Handlers never trust event payloads.
type Listener struct {
	ipc    IPC
	logger *slog.Logger

	titles     chan collectors.Update
	workspaces chan collectors.Update
	started    atomic.Bool
}

// NewListener creates a listener over ipc.
func NewListener(ipc IPC, logger *slog.Logger) *Listener {
	if logger == nil {
		logger = slog.Default()
	}
	return &Listener{
		ipc:        ipc,
		logger:     logger.With("module", "compositor"),
		titles:     make(chan collectors.Update, DefaultBufferSize),
		workspaces: make(chan collectors.Update, DefaultBufferSize),
	}
}

// Titles carries sample.WindowTitle updates. Closed when the listener ends.
func (l *Listener) Titles() <-chan collectors.Update { return l.titles }

// Workspaces carries sample.Workspaces updates. Closed when the listener
// ends.
func (l *Listener) Workspaces() <-chan collectors.Update { return l.workspaces }

// Start publishes the current title and workspaces, opens the event
// stream, and reads it on its own goroutine until ctx is done or the
// stream dies. A failed subscription is published once on both channels
// and returned; the listener is not restarted.
func (l *Listener) Start(ctx context.Context) error {
	if !l.started.CompareAndSwap(false, true) {
		return errors.New("compositor listener already started")
	}

	l.publishTitle(ctx)
	l.publishWorkspaces(ctx)

	stream, err := l.ipc.Subscribe(ctx)
	if err != nil {
		if collectors.KindOf(err) != collectors.KindSubscription {
			err = collectors.NewError(collectors.KindSubscription, "hyprland events", err)
		}
		l.logger.Error("event subscription failed", "error", err)
		l.fail(ctx, err)
		l.close()
		return err
	}

	go func() {
		defer l.close()
		defer stream.Close()
		stop := context.AfterFunc(ctx, func() { stream.Close() })
		defer stop()

		err := scanEvents(stream, func(ev Event) { l.handle(ctx, ev) })
		if ctx.Err() != nil {
			return
		}
		if err == nil {
			err = errors.New("event stream closed")
		}
		err = collectors.NewError(collectors.KindSubscription, "hyprland events", err)
		l.logger.Error("event stream ended, not restarting", "error", err)
		l.fail(ctx, err)
	}()
	return nil
}

func (l *Listener) handle(ctx context.Context, ev Event) {
	if titleEvents[ev.Name] {
		l.logger.Debug("title event", "event", ev.Name)
		l.publishTitle(ctx)
	}
	if workspaceEvents[ev.Name] {
		l.logger.Debug("workspace event", "event", ev.Name)
		l.publishWorkspaces(ctx)
	}
}

func (l *Listener) publishTitle(ctx context.Context) {
	send(ctx, l.titles, collectors.NewUpdate(string(sample.ModuleWindowTitle), sample.WindowTitle{Title: l.title(ctx)}, nil))
}

func (l *Listener) title(ctx context.Context) string {
	w, err := l.ipc.ActiveWindow(ctx)
	if err != nil {
		l.logger.Debug("active window query failed", "error", err)
		return DesktopTitle
	}
	if strings.TrimSpace(w.Title) == "" {
		return DesktopTitle
	}
	return w.Title
}

func (l *Listener) publishWorkspaces(ctx context.Context) {
	ws, err := QueryWorkspaces(ctx, l.ipc)
	if err != nil {
		l.logger.Warn("workspace query failed", "error", err)
		send(ctx, l.workspaces, collectors.NewUpdate(string(sample.ModuleWorkspaces), nil, err))
		return
	}
	send(ctx, l.workspaces, collectors.NewUpdate(string(sample.ModuleWorkspaces), ws, nil))
}

func (l *Listener) fail(ctx context.Context, err error) {
	send(ctx, l.titles, collectors.NewUpdate(string(sample.ModuleWindowTitle), nil, err))
	send(ctx, l.workspaces, collectors.NewUpdate(string(sample.ModuleWorkspaces), nil, err))
}

func (l *Listener) close() {
	close(l.titles)
	close(l.workspaces)
}

func send(ctx context.Context, ch chan<- collectors.Update, u collectors.Update) {
	select {
	case ch <- u:
	case <-ctx.Done():
	}
}

// QueryWorkspaces reads the workspace list and the active workspace. A
// failed active-workspace query falls back to workspace 1; a failed list
// query is an error.
func QueryWorkspaces(ctx context.Context, ipc IPC) (sample.Workspaces, error) {
	var (
		list   []Workspace
		active = 1
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ws, err := ipc.Workspaces(gctx)
		if err != nil {
			return fmt.Errorf("list workspaces: %w", err)
		}
		list = ws
		return nil
	})
	g.Go(func() error {
		if w, err := ipc.ActiveWorkspace(gctx); err == nil {
			active = w.ID
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return sample.Workspaces{}, err
	}

	ids := make([]int, 0, len(list))
	for _, w := range list {
		ids = append(ids, w.ID)
	}
	return sample.NewWorkspaces(ids, active), nil
}
