package tui

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/better-ecosystem/better-bar/pkg/sample"
	"github.com/better-ecosystem/better-bar/pkg/sink"
)

// Presenter forwards sink calls into a running bubbletea program.
// Messages sent before Attach are queued.
type Presenter struct {
	*sink.Visibility

	mu      sync.Mutex
	prog    *tea.Program
	pending []tea.Msg
}

// NewPresenter returns a presenter sharing v with the model.
func NewPresenter(v *sink.Visibility) *Presenter {
	return &Presenter{Visibility: v}
}

// Attach connects the presenter to prog. Queued messages are delivered
// once the program's event loop is running.
func (p *Presenter) Attach(prog *tea.Program) {
	p.mu.Lock()
	p.prog = prog
	p.mu.Unlock()
	go p.flush()
}

// flush delivers queued messages in order. Sends happen under mu so that a
// later message can never overtake a queued one.
func (p *Presenter) flush() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.prog == nil {
		return
	}
	for _, msg := range p.pending {
		p.prog.Send(msg)
	}
	p.pending = nil
}

func (p *Presenter) send(msg tea.Msg) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.prog == nil {
		p.pending = append(p.pending, msg)
		return
	}
	for _, q := range p.pending {
		p.prog.Send(q)
	}
	p.pending = nil
	p.prog.Send(msg)
}

func (p *Presenter) Render(m sample.Module, d sink.Display) {
	p.send(RenderEvent{Module: m, Display: d})
}

func (p *Presenter) RebuildWorkspaces(ws sample.Workspaces) {
	p.send(WorkspacesEvent{Workspaces: ws, Rebuild: true})
}

func (p *Presenter) RestyleWorkspaces(ws sample.Workspaces) {
	p.send(WorkspacesEvent{Workspaces: ws})
}

func (p *Presenter) WorkspaceError(msg string) {
	p.send(WorkspaceErrorEvent{Message: msg})
}

// Run drives the program until the user quits or ctx is done.
func Run(ctx context.Context, m Model, p *Presenter, opts ...tea.ProgramOption) error {
	opts = append([]tea.ProgramOption{tea.WithContext(ctx), tea.WithMouseCellMotion()}, opts...)
	prog := tea.NewProgram(m, opts...)
	p.Attach(prog)
	_, err := prog.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
