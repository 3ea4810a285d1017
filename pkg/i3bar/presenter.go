package i3bar

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"sync"

	"github.com/better-ecosystem/better-bar/pkg/sample"
	"github.com/better-ecosystem/better-bar/pkg/sink"
	"github.com/better-ecosystem/better-bar/pkg/theme"
)

// Presenter writes a full status line for every change. The write error,
// if any, is kept and returned by Err; later writes are skipped.
type Presenter struct {
	*sink.Visibility

	mu         sync.Mutex
	w          io.Writer
	logger     *slog.Logger
	theme      theme.Theme
	started    bool
	err        error
	displays   map[sample.Module]sink.Display
	workspaces sample.Workspaces
	wsError    string
}

// Option configures a Presenter.
type Option func(*Presenter)

// WithTheme sets the palette block colors are taken from.
func WithTheme(t theme.Theme) Option { return func(p *Presenter) { p.theme = t } }

// NewPresenter returns a presenter writing to w.
func NewPresenter(w io.Writer, v *sink.Visibility, logger *slog.Logger, opts ...Option) *Presenter {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Presenter{
		Visibility: v,
		w:          w,
		logger:     logger.With("component", "i3bar"),
		theme:      theme.Get(theme.DefaultName),
		displays:   make(map[sample.Module]sink.Display),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start writes the protocol header and opens the status-line array. Calling
// it again is a no-op.
func (p *Presenter) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.start()
}

func (p *Presenter) start() error {
	if p.started {
		return p.err
	}
	p.started = true
	hdr, err := json.Marshal(Header{Version: 1, ClickEvents: true})
	if err != nil {
		p.err = err
		return err
	}
	if _, err := fmt.Fprintf(p.w, "%s\n[\n", hdr); err != nil {
		p.err = fmt.Errorf("write i3bar header: %w", err)
	}
	return p.err
}

// Err returns the first write error.
func (p *Presenter) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

func (p *Presenter) Render(m sample.Module, d sink.Display) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.displays[m] = d
	p.emit()
}

func (p *Presenter) RebuildWorkspaces(ws sample.Workspaces) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.wsError = ""
	p.workspaces = ws
	p.emit()
}

func (p *Presenter) RestyleWorkspaces(ws sample.Workspaces) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.wsError = ""
	p.workspaces.ActiveID = ws.ActiveID
	p.emit()
}

func (p *Presenter) WorkspaceError(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.wsError = msg
	p.emit()
}

// Blocks returns the current status line.
func (p *Presenter) Blocks() []Block {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.blocks()
}

func (p *Presenter) blocks() []Block {
	out := []Block{}
	for _, m := range p.Modules() {
		if !p.Visible(m) {
			continue
		}
		if m == sample.ModuleWorkspaces {
			out = append(out, p.workspaceBlocks()...)
			continue
		}
		d, ok := p.displays[m]
		if !ok || d.Text == "" {
			continue
		}
		out = append(out, Block{
			FullText: d.Text,
			Color:    p.theme.Class(d.Class),
			Name:     string(m),
			Urgent:   d.Class == "critical",
		})
	}
	return out
}

func (p *Presenter) workspaceBlocks() []Block {
	name := string(sample.ModuleWorkspaces)
	if p.wsError != "" {
		return []Block{{FullText: "WS Error", Name: name, Color: p.theme.Error}}
	}
	noSep := false
	out := make([]Block, 0, len(p.workspaces.IDs))
	for _, id := range p.workspaces.IDs {
		b := Block{
			FullText:  strconv.Itoa(id),
			Name:      name,
			Instance:  strconv.Itoa(id),
			Color:     p.theme.Dim,
			Separator: &noSep,
		}
		if id == p.workspaces.ActiveID {
			b.Color = p.theme.Accent
		}
		out = append(out, b)
	}
	return out
}

// emit writes one status line followed by the array separator.
func (p *Presenter) emit() {
	if p.start() != nil {
		return
	}
	line, err := json.Marshal(p.blocks())
	if err != nil {
		p.err = err
		return
	}
	if _, err := fmt.Fprintf(p.w, "%s,\n", line); err != nil {
		p.err = fmt.Errorf("write status line: %w", err)
		p.logger.Error("i3bar output failed", "error", err)
	}
}
