package audio

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/better-ecosystem/better-bar/pkg/collectors"
	"github.com/better-ecosystem/better-bar/pkg/sample"
)

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

type fakeBackend struct {
	mu      sync.Mutex
	vol     uint8
	muted   bool
	volErr  error
	sets    []uint8
	volCall int
	toggles int
	sub     io.ReadCloser
	subErr  error
}

func (f *fakeBackend) Volume(context.Context) (uint8, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.volCall++
	return f.vol, f.volErr
}

func (f *fakeBackend) Muted(context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.muted, nil
}

func (f *fakeBackend) SetVolume(_ context.Context, pct uint8) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sets = append(f.sets, pct)
	f.vol = pct
	return nil
}

func (f *fakeBackend) ToggleMute(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.toggles++
	f.muted = !f.muted
	return nil
}

func (f *fakeBackend) Subscribe(context.Context) (io.ReadCloser, error) {
	if f.subErr != nil {
		return nil, f.subErr
	}
	return f.sub, nil
}

func (f *fakeBackend) set(vol uint8, muted bool) {
	f.mu.Lock()
	f.vol, f.muted = vol, muted
	f.mu.Unlock()
}

func recv(t *testing.T, ch <-chan collectors.Update) collectors.Update {
	t.Helper()
	select {
	case u, ok := <-ch:
		if !ok {
			t.Fatal("channel closed unexpectedly")
		}
		return u
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for update")
	}
	return collectors.Update{}
}

func waitClosed(t *testing.T, ch <-chan collectors.Update) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("channel not closed")
		}
	}
}

// --- parsing ---

func TestParseVolume(t *testing.T) {
	out := "Volume: front-left: 32768 /  50% / -18.06 dB,   front-right: 32768 /  50% / -18.06 dB\n        balance 0.00\n"
	v, err := ParseVolume([]byte(out))
	if err != nil || v != 50 {
		t.Errorf("ParseVolume = %d, %v; want 50, nil", v, err)
	}

	_, err = ParseVolume([]byte("Failure: No such entity\n"))
	if !errors.Is(err, collectors.ErrParse) {
		t.Errorf("ParseVolume(garbage) error = %v, want ErrParse", err)
	}
}

func TestParseMute(t *testing.T) {
	if !ParseMute([]byte("Mute: yes\n")) {
		t.Error("Mute: yes should be muted")
	}
	if ParseMute([]byte("Mute: no\n")) {
		t.Error("Mute: no should not be muted")
	}
}

func TestIsSinkEvent(t *testing.T) {
	tests := map[string]bool{
		"Event 'change' on sink #54":        true,
		"Event 'new' on sink #55":           true,
		"Event 'remove' on sink #55":        false,
		"Event 'change' on server #-1":      true,
		"Event 'new' on sink-input #12":     false,
		"Event 'change' on source #3":       false,
		"Event 'change' on client #7":       false,
		"":                                  false,
		"garbage line with sink and change": false,
	}
	for line, want := range tests {
		if got := IsSinkEvent(line); got != want {
			t.Errorf("IsSinkEvent(%q) = %v, want %v", line, got, want)
		}
	}
}

func TestPactlCommands(t *testing.T) {
	var (
		mu    sync.Mutex
		calls []string
	)
	r := collectors.FuncRunner(func(_ context.Context, name string, args ...string) ([]byte, error) {
		line := strings.Join(append([]string{name}, args...), " ")
		mu.Lock()
		calls = append(calls, line)
		mu.Unlock()
		switch line {
		case "pactl get-sink-volume @DEFAULT_SINK@":
			return []byte("Volume: front-left: 42 /  42% / 0 dB\n"), nil
		case "pactl get-sink-mute @DEFAULT_SINK@":
			return []byte("Mute: yes\n"), nil
		}
		return nil, nil
	})
	p := NewPactlWithRunner(r, quiet())
	ctx := context.Background()

	v, err := Query(ctx, p)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if diff := cmp.Diff(sample.Volume{Percentage: 42, Muted: true}, v); diff != "" {
		t.Errorf("Query mismatch (-want +got):\n%s", diff)
	}

	calls = nil
	if err := p.SetVolume(ctx, 120); err != nil {
		t.Fatal(err)
	}
	if err := p.ToggleMute(ctx); err != nil {
		t.Fatal(err)
	}
	want := []string{
		"pactl set-sink-volume @DEFAULT_SINK@ 100%",
		"pactl set-sink-mute @DEFAULT_SINK@ toggle",
	}
	if diff := cmp.Diff(want, calls); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
}

// --- stream ---

func TestStreamLifecycle(t *testing.T) {
	pr, pw := io.Pipe()
	b := &fakeBackend{vol: 40, sub: pr}
	s := NewStream(b, quiet())
	if s.State() != StateIdle {
		t.Fatalf("initial state = %v", s.State())
	}

	ch, err := s.Start(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Start(context.Background()); err == nil {
		t.Error("second Start should fail")
	}

	first := recv(t, ch)
	if diff := cmp.Diff(sample.Volume{Percentage: 40}, first.Data); diff != "" || first.Source != "volume" {
		t.Errorf("initial update = %+v", first)
	}

	b.set(65, true)
	io.WriteString(pw, "Event 'new' on client #9\nEvent 'change' on sink #54\n")
	u := recv(t, ch)
	if diff := cmp.Diff(sample.Volume{Percentage: 65, Muted: true}, u.Data); diff != "" {
		t.Errorf("event update mismatch (-want +got):\n%s", diff)
	}
	if s.State() != StateStreaming {
		t.Errorf("state = %v, want streaming", s.State())
	}

	pw.Close()
	final := recv(t, ch)
	if final.Data != nil || !errors.Is(final.Error, collectors.ErrSubscription) {
		t.Errorf("final update = %+v, want SubscriptionFailed", final)
	}
	waitClosed(t, ch)
	if s.State() != StateFailed {
		t.Errorf("state = %v, want failed", s.State())
	}
}

func TestStreamSubscribeFailure(t *testing.T) {
	b := &fakeBackend{vol: 10, subErr: errors.New("exec: \"pactl\": executable file not found")}
	s := NewStream(b, quiet())
	ch, err := s.Start(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if u := recv(t, ch); u.Data == nil {
		t.Errorf("initial update = %+v, want data", u)
	}
	u := recv(t, ch)
	if !errors.Is(u.Error, collectors.ErrSubscription) {
		t.Errorf("error update = %v, want ErrSubscription", u.Error)
	}
	waitClosed(t, ch)
	if s.State() != StateFailed {
		t.Errorf("state = %v, want failed", s.State())
	}
}

func TestStreamCancelStops(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	b := &fakeBackend{vol: 10, sub: pr}
	s := NewStream(b, quiet())

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := s.Start(ctx)
	if err != nil {
		t.Fatal(err)
	}
	recv(t, ch)
	cancel()
	waitClosed(t, ch)
	if s.State() != StateStopped {
		t.Errorf("state = %v, want stopped", s.State())
	}
}

func TestStreamQueryErrorIsAnUpdate(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	b := &fakeBackend{volErr: collectors.Errorf(collectors.KindCommand, "pactl", "boom"), sub: pr}
	ch, err := NewStream(b, quiet()).Start(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	u := recv(t, ch)
	if u.Data != nil || !errors.Is(u.Error, collectors.ErrCommand) {
		t.Errorf("update = %+v, want command error", u)
	}
}

// --- coalescer ---

func TestCoalescerSingleAbsoluteCall(t *testing.T) {
	tests := []struct {
		name   string
		start  uint8
		nudges []int
		want   []uint8
	}{
		{"sum", 50, []int{1, 1, 1, 1, 1}, []uint8{55}},
		{"clamp high", 98, []int{1, 1, 1, 1, 1}, []uint8{100}},
		{"clamp low", 2, []int{-1, -1, -1, -1, -1}, []uint8{0}},
		{"cancel out", 50, []int{1, -1}, nil},
		{"unchanged at max", 100, []int{1, 1, 1}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &fakeBackend{vol: tt.start}
			c := NewCoalescer(b, quiet())
			for _, d := range tt.nudges {
				c.Nudge(d)
			}
			if err := c.Flush(context.Background()); err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.want, b.sets); diff != "" {
				t.Errorf("SetVolume calls mismatch (-want +got):\n%s", diff)
			}
			if err := c.Flush(context.Background()); err != nil {
				t.Fatal(err)
			}
			if len(b.sets) != len(tt.want) {
				t.Error("second flush issued another call")
			}
		})
	}
}

func TestCoalescerIdleFlushSkipsBackend(t *testing.T) {
	b := &fakeBackend{vol: 50}
	if err := NewCoalescer(b, quiet()).Flush(context.Background()); err != nil {
		t.Fatal(err)
	}
	if b.volCall != 0 {
		t.Errorf("Volume called %d times on empty flush", b.volCall)
	}
}

func TestCoalescerRun(t *testing.T) {
	b := &fakeBackend{vol: 20}
	c := NewCoalescer(b, quiet())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()

	c.Nudge(3)
	deadline := time.Now().Add(2 * time.Second)
	for {
		b.mu.Lock()
		n := len(b.sets)
		b.mu.Unlock()
		if n > 0 || time.Now().After(deadline) {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	cancel()
	<-done

	if diff := cmp.Diff([]uint8{23}, b.sets); diff != "" {
		t.Errorf("SetVolume calls mismatch (-want +got):\n%s", diff)
	}
}

func TestCoalescerToggle(t *testing.T) {
	b := &fakeBackend{}
	if err := NewCoalescer(b, quiet()).Toggle(context.Background()); err != nil {
		t.Fatal(err)
	}
	if b.toggles != 1 || !b.muted {
		t.Errorf("toggles = %d, muted = %v", b.toggles, b.muted)
	}
}

// --- formatting ---

func TestFormat(t *testing.T) {
	tests := []struct {
		v       sample.Volume
		text    string
		tooltip string
		icon    string
	}{
		{sample.Volume{Percentage: 80}, "󰕾 80%", "Volume: 80%", "audio-volume-high-symbolic"},
		{sample.Volume{Percentage: 50}, "󰖀 50%", "Volume: 50%", "audio-volume-medium-symbolic"},
		{sample.Volume{Percentage: 10}, "󰕿 10%", "Volume: 10%", "audio-volume-low-symbolic"},
		{sample.Volume{Percentage: 60, Muted: true}, "󰝟 60%", "Volume: muted", "audio-volume-muted-symbolic"},
	}
	for _, tt := range tests {
		if got := FormatText(tt.v, ""); got != tt.text {
			t.Errorf("FormatText(%+v) = %q, want %q", tt.v, got, tt.text)
		}
		if got := FormatTooltip(tt.v, ""); got != tt.tooltip {
			t.Errorf("FormatTooltip(%+v) = %q, want %q", tt.v, got, tt.tooltip)
		}
		if got := IconName(tt.v); got != tt.icon {
			t.Errorf("IconName(%+v) = %q, want %q", tt.v, got, tt.icon)
		}
	}
}
