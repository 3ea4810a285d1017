// Package audio streams the default sink's volume and mute state and turns
// scroll gestures into coalesced volume changes.
package audio

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/better-ecosystem/better-bar/pkg/collectors"
)

// DefaultSink is the pactl name of the current default output.
const DefaultSink = "@DEFAULT_SINK@"

// Backend is the audio server boundary.
type Backend interface {
	Volume(ctx context.Context) (uint8, error)
	Muted(ctx context.Context) (bool, error)
	// SetVolume sets an absolute percentage.
	SetVolume(ctx context.Context, pct uint8) error
	ToggleMute(ctx context.Context) error
	// Subscribe returns a line stream of server events. Closing it ends the
	// subscription.
	Subscribe(ctx context.Context) (io.ReadCloser, error)
}

// Pactl drives PulseAudio or PipeWire through the pactl CLI.
type Pactl struct {
	run    collectors.CommandRunner
	sink   string
	logger *slog.Logger
}

// NewPactl returns a backend for the default sink.
func NewPactl(logger *slog.Logger) *Pactl {
	return NewPactlWithRunner(collectors.ExecRunner{}, logger)
}

// NewPactlWithRunner returns a backend whose one-shot commands go through r.
func NewPactlWithRunner(r collectors.CommandRunner, logger *slog.Logger) *Pactl {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pactl{run: r, sink: DefaultSink, logger: logger}
}

func (p *Pactl) Volume(ctx context.Context) (uint8, error) {
	out, err := p.run.Run(ctx, "pactl", "get-sink-volume", p.sink)
	if err != nil {
		return 0, err
	}
	return ParseVolume(out)
}

func (p *Pactl) Muted(ctx context.Context) (bool, error) {
	out, err := p.run.Run(ctx, "pactl", "get-sink-mute", p.sink)
	if err != nil {
		return false, err
	}
	return ParseMute(out), nil
}

func (p *Pactl) SetVolume(ctx context.Context, pct uint8) error {
	if pct > 100 {
		pct = 100
	}
	_, err := p.run.Run(ctx, "pactl", "set-sink-volume", p.sink, fmt.Sprintf("%d%%", pct))
	return err
}

func (p *Pactl) ToggleMute(ctx context.Context) error {
	_, err := p.run.Run(ctx, "pactl", "set-sink-mute", p.sink, "toggle")
	return err
}

// Subscribe starts `pactl subscribe` in its own process group so that
// cancelling ctx or closing the stream terminates it together with any
// children.
func (p *Pactl) Subscribe(ctx context.Context) (io.ReadCloser, error) {
	cmd := exec.CommandContext(ctx, "pactl", "subscribe")
	setProcessGroup(cmd)
	cmd.Cancel = func() error { return terminate(cmd) }
	cmd.WaitDelay = time.Second

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, collectors.NewError(collectors.KindSubscription, "pactl subscribe", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, collectors.NewError(collectors.KindSubscription, "pactl subscribe", err)
	}
	p.logger.Debug("pactl subscribe started", "pid", cmd.Process.Pid)
	return &subscription{cmd: cmd, ReadCloser: stdout}, nil
}

type subscription struct {
	io.ReadCloser
	cmd  *exec.Cmd
	once sync.Once
	err  error
}

func (s *subscription) Close() error {
	s.once.Do(func() {
		if err := terminate(s.cmd); err != nil {
			s.err = err
		}
		_ = s.cmd.Wait()
	})
	return s.err
}

// ParseVolume returns the first "NN%" word of `pactl get-sink-volume`.
func ParseVolume(out []byte) (uint8, error) {
	for _, w := range strings.Fields(string(out)) {
		num, ok := strings.CutSuffix(w, "%")
		if !ok {
			continue
		}
		v, err := strconv.ParseUint(num, 10, 8)
		if err != nil {
			continue
		}
		return uint8(v), nil
	}
	return 0, collectors.Errorf(collectors.KindParse, "pactl get-sink-volume", "no volume percentage in %q", strings.TrimSpace(string(out)))
}

// ParseMute reports whether `pactl get-sink-mute` says yes.
func ParseMute(out []byte) bool {
	return strings.HasSuffix(strings.TrimSpace(string(out)), "yes")
}

// IsSinkEvent reports whether a `pactl subscribe` line can change the
// default sink's volume or mute: a change or new event on a sink, or a
// server change (default sink switched).
func IsSinkEvent(line string) bool {
	f := strings.Fields(line)
	if len(f) < 4 || f[0] != "Event" || f[2] != "on" {
		return false
	}
	kind := strings.Trim(f[1], "'")
	switch f[3] {
	case "sink":
		return kind == "change" || kind == "new"
	case "server":
		return kind == "change"
	}
	return false
}
