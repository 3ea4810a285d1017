package audio

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/better-ecosystem/better-bar/pkg/collectors"
	"github.com/better-ecosystem/better-bar/pkg/sample"
)

// DefaultBufferSize is the capacity of the channel returned by Start.
const DefaultBufferSize = 100

// State is the lifecycle of a Stream.
type State int32

const (
	StateIdle State = iota
	StateSubscribed
	StateStreaming
	StateStopped
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubscribed:
		return "subscribed"
	case StateStreaming:
		return "streaming"
	case StateStopped:
		return "stopped"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

// Stream turns the backend's event subscription into volume updates.
// A Stream runs once; after Stopped or Failed it is not restarted.
type Stream struct {
	backend Backend
	logger  *slog.Logger
	state   atomic.Int32
}

// NewStream creates an idle stream.
func NewStream(b Backend, logger *slog.Logger) *Stream {
	if logger == nil {
		logger = slog.Default()
	}
	return &Stream{backend: b, logger: logger.With("module", string(sample.ModuleVolume))}
}

// State returns the current lifecycle state.
func (s *Stream) State() State { return State(s.state.Load()) }

// Start emits the current volume, then one update per relevant server
// event. Sends block when the consumer falls behind. The channel is closed
// when the stream ends: after ctx is cancelled (Stopped) or after a single
// final error update when the subscription cannot start or dies (Failed).
func (s *Stream) Start(ctx context.Context) (<-chan collectors.Update, error) {
	if !s.state.CompareAndSwap(int32(StateIdle), int32(StateSubscribed)) {
		return nil, fmt.Errorf("volume stream already %s", s.State())
	}
	out := make(chan collectors.Update, DefaultBufferSize)
	go s.run(ctx, out)
	return out, nil
}

func (s *Stream) run(ctx context.Context, out chan<- collectors.Update) {
	defer close(out)

	if !s.emit(ctx, out) {
		s.stop()
		return
	}

	rc, err := s.backend.Subscribe(ctx)
	if err != nil {
		if ctx.Err() != nil {
			s.stop()
			return
		}
		s.fail(ctx, out, err)
		return
	}
	defer rc.Close()
	unblock := context.AfterFunc(ctx, func() { rc.Close() })
	defer unblock()

	s.state.Store(int32(StateStreaming))
	sc := bufio.NewScanner(rc)
	for sc.Scan() {
		if !IsSinkEvent(sc.Text()) {
			continue
		}
		if !s.emit(ctx, out) {
			s.stop()
			return
		}
	}

	if ctx.Err() != nil {
		s.stop()
		return
	}
	cause := sc.Err()
	if cause == nil {
		cause = errors.New("event stream ended")
	}
	s.fail(ctx, out, cause)
}

// emit queries the sink and sends the result. It returns false once ctx is
// done.
func (s *Stream) emit(ctx context.Context, out chan<- collectors.Update) bool {
	v, err := Query(ctx, s.backend)
	if ctx.Err() != nil {
		return false
	}
	var u collectors.Update
	if err != nil {
		s.logger.Warn("volume query failed", "error", err)
		u = collectors.NewUpdate(string(sample.ModuleVolume), nil, err)
	} else {
		u = collectors.NewUpdate(string(sample.ModuleVolume), v, nil)
	}
	select {
	case out <- u:
		return true
	case <-ctx.Done():
		return false
	}
}

func (s *Stream) stop() {
	s.state.Store(int32(StateStopped))
	s.logger.Debug("volume stream stopped")
}

func (s *Stream) fail(ctx context.Context, out chan<- collectors.Update, cause error) {
	s.state.Store(int32(StateFailed))
	err := cause
	if collectors.KindOf(err) != collectors.KindSubscription {
		err = collectors.NewError(collectors.KindSubscription, "pactl subscribe", cause)
	}
	s.logger.Error("volume stream failed, not restarting", "error", err)
	select {
	case out <- collectors.NewUpdate(string(sample.ModuleVolume), nil, err):
	case <-ctx.Done():
	}
}

// Query reads volume and mute concurrently.
func Query(ctx context.Context, b Backend) (sample.Volume, error) {
	var v sample.Volume
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		pct, err := b.Volume(gctx)
		if err != nil {
			return fmt.Errorf("volume: %w", err)
		}
		v.Percentage = min(pct, 100)
		return nil
	})
	g.Go(func() error {
		muted, err := b.Muted(gctx)
		if err != nil {
			return fmt.Errorf("mute: %w", err)
		}
		v.Muted = muted
		return nil
	})
	if err := g.Wait(); err != nil {
		return sample.Volume{}, err
	}
	return v, nil
}
