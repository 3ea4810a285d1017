package cpu

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"testing/fstest"

	"github.com/shirou/gopsutil/v4/load"

	"github.com/better-ecosystem/better-bar/pkg/collectors"
	"github.com/better-ecosystem/better-bar/pkg/sample"
)

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

// --- ParseStat ---

func TestParseStat(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    Times
		wantErr error
	}{
		{
			name: "full line",
			in:   "cpu  10 20 30 40 50 60 70 80 90 100\ncpu0 1 2 3 4\n",
			want: Times{10, 20, 30, 40, 50, 60, 70, 80},
		},
		{
			name: "missing trailing fields are zero",
			in:   "cpu 1 2 3 4\n",
			want: Times{User: 1, Nice: 2, System: 3, Idle: 4},
		},
		{name: "too few fields", in: "cpu 1 2 3\n", wantErr: collectors.ErrParse},
		{name: "non numeric", in: "cpu 1 two 3 4\n", wantErr: collectors.ErrParse},
		{name: "empty", in: "", wantErr: collectors.ErrParse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStat([]byte(tt.in))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseStat = %+v, want %+v", got, tt.want)
			}
		})
	}
}

// --- Usage ---

func TestUsage(t *testing.T) {
	prev := Times{User: 100, System: 100, Idle: 800}
	cur := Times{User: 150, System: 150, Idle: 900}
	// active delta 100, total delta 200.
	if got := Usage(prev, cur); got != 50 {
		t.Errorf("Usage = %v, want 50", got)
	}
}

func TestUsageCounterRegression(t *testing.T) {
	prev := Times{User: 1000, Idle: 1000}
	cur := Times{User: 10, Idle: 10}
	if got := Usage(prev, cur); got != 0 {
		t.Errorf("Usage after regression = %v, want 0", got)
	}
}

func TestUsageNoElapsedTime(t *testing.T) {
	ts := Times{User: 5, Idle: 5}
	if got := Usage(ts, ts); got != 0 {
		t.Errorf("Usage with zero delta = %v, want 0", got)
	}
}

func TestUsageBounded(t *testing.T) {
	// Active grows faster than total only if idle regressed; still clamped.
	prev := Times{User: 0, Idle: 100}
	cur := Times{User: 200, Idle: 0}
	got := Usage(prev, cur)
	if got < 0 || got > 100 {
		t.Errorf("Usage = %v, want within [0,100]", got)
	}
}

// --- Reader ---

func TestReaderFirstSampleZero(t *testing.T) {
	fsys := fstest.MapFS{"stat": {Data: []byte("cpu 100 0 100 800\n")}}
	r := NewReaderFS(fsys, "stat")

	got, err := r.Sample()
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if got != 0 {
		t.Errorf("first Sample = %v, want 0", got)
	}

	fsys["stat"] = &fstest.MapFile{Data: []byte("cpu 150 0 150 900\n")}
	got, err = r.Sample()
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if got != 50 {
		t.Errorf("second Sample = %v, want 50", got)
	}
}

func TestReaderMissingFile(t *testing.T) {
	r := NewReaderFS(fstest.MapFS{}, "stat")
	_, err := r.Sample()
	if !errors.Is(err, collectors.ErrIO) {
		t.Errorf("err = %v, want ErrIO", err)
	}
}

// --- Collector ---

func TestCollectorFallbackAfterFailures(t *testing.T) {
	c := New(discard(),
		WithReader(NewReaderFS(fstest.MapFS{}, "stat")),
		WithLoad(nil),
	)
	ctx := context.Background()

	for i := 1; i <= 4; i++ {
		s, err := c.Collect(ctx)
		if err == nil {
			t.Fatalf("call %d: expected error", i)
		}
		if got := s.(sample.CPU).Utilization; got != 50 {
			t.Errorf("call %d: Utilization = %v, want 50", i, got)
		}
	}
	s, _ := c.Collect(ctx)
	if got := s.(sample.CPU).Utilization; got != 0 {
		t.Errorf("call 5: Utilization = %v, want 0", got)
	}
	if c.Healthy() {
		t.Error("collector should be unhealthy after failures")
	}
}

func TestCollectorSuccessResetsFailures(t *testing.T) {
	fsys := fstest.MapFS{}
	c := New(discard(), WithReader(NewReaderFS(fsys, "stat")), WithLoad(nil))
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, _ = c.Collect(ctx)
	}
	fsys["stat"] = &fstest.MapFile{Data: []byte("cpu 1 1 1 1\n")}
	if _, err := c.Collect(ctx); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	delete(fsys, "stat")

	s, _ := c.Collect(ctx)
	if got := s.(sample.CPU).Utilization; got != 50 {
		t.Errorf("Utilization after reset = %v, want 50", got)
	}
}

func TestCollectorLoadAverages(t *testing.T) {
	fsys := fstest.MapFS{"stat": {Data: []byte("cpu 1 1 1 1\n")}}
	c := New(discard(),
		WithReader(NewReaderFS(fsys, "stat")),
		WithLoad(func(context.Context) (*load.AvgStat, error) {
			return &load.AvgStat{Load1: 0.5, Load5: 0.25, Load15: 0.125}, nil
		}),
	)
	s, err := c.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	got := s.(sample.CPU)
	if got.Load1 != 0.5 || got.Load5 != 0.25 || got.Load15 != 0.125 {
		t.Errorf("load = %v/%v/%v", got.Load1, got.Load5, got.Load15)
	}
}

func TestCollectorLoadFailureIgnored(t *testing.T) {
	fsys := fstest.MapFS{"stat": {Data: []byte("cpu 1 1 1 1\n")}}
	c := New(discard(),
		WithReader(NewReaderFS(fsys, "stat")),
		WithLoad(func(context.Context) (*load.AvgStat, error) {
			return nil, errors.New("no loadavg")
		}),
	)
	if _, err := c.Collect(context.Background()); err != nil {
		t.Errorf("load failure must not fail Collect: %v", err)
	}
}

func TestCollectorIdentity(t *testing.T) {
	c := New(discard())
	if c.Name() != "cpu" {
		t.Errorf("Name() = %q, want %q", c.Name(), "cpu")
	}
	if c.Interval() != DefaultInterval {
		t.Errorf("Interval() = %v, want %v", c.Interval(), DefaultInterval)
	}
	if !c.Healthy() {
		t.Error("new collector should be healthy")
	}
}
