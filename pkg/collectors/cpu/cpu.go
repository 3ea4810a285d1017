// Package cpu computes aggregate CPU utilisation from /proc/stat deltas and
// exposes it as a polled collector.
package cpu

import (
	"bufio"
	"bytes"
	"context"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/load"

	"github.com/better-ecosystem/better-bar/pkg/collectors"
	"github.com/better-ecosystem/better-bar/pkg/sample"
)

const (
	// DefaultPath is the kernel's CPU accounting file.
	DefaultPath = "/proc/stat"

	// DefaultInterval is the polling cadence.
	DefaultInterval = time.Second

	// fallbackUsage is reported while failures are still considered
	// transient; after MaxTransientErrors consecutive failures the collector
	// reports zero instead.
	fallbackUsage      = 50.0
	MaxTransientErrors = 5
)

// Times is one /proc/stat aggregate line in jiffies.
type Times struct {
	User, Nice, System, Idle, IOWait, IRQ, SoftIRQ, Steal uint64
}

// Total is the sum of all eight counters.
func (t Times) Total() uint64 {
	return t.User + t.Nice + t.System + t.Idle + t.IOWait + t.IRQ + t.SoftIRQ + t.Steal
}

// Active is the total minus idle and iowait time.
func (t Times) Active() uint64 {
	return subSat(t.Total(), t.Idle+t.IOWait)
}

// ParseStat parses the first line of /proc/stat content. Up to eight numeric
// fields after the "cpu" label are read; missing trailing fields are zero.
func ParseStat(data []byte) (Times, error) {
	sc := bufio.NewScanner(bytes.NewReader(data))
	if !sc.Scan() {
		return Times{}, collectors.Errorf(collectors.KindParse, DefaultPath, "empty file")
	}
	fields := strings.Fields(sc.Text())
	if len(fields) == 0 {
		return Times{}, collectors.Errorf(collectors.KindParse, DefaultPath, "empty first line")
	}
	fields = fields[1:]
	if len(fields) > 8 {
		fields = fields[:8]
	}
	if len(fields) < 4 {
		return Times{}, collectors.Errorf(collectors.KindParse, DefaultPath, "want at least 4 fields, got %d", len(fields))
	}

	var v [8]uint64
	for i, f := range fields {
		n, err := strconv.ParseUint(f, 10, 64)
		if err != nil {
			return Times{}, collectors.NewError(collectors.KindParse, DefaultPath, err)
		}
		v[i] = n
	}
	return Times{
		User: v[0], Nice: v[1], System: v[2], Idle: v[3],
		IOWait: v[4], IRQ: v[5], SoftIRQ: v[6], Steal: v[7],
	}, nil
}

// Usage returns the utilisation between two readings as a percentage in
// [0,100]. Counter regressions saturate to zero rather than wrapping.
func Usage(prev, cur Times) float64 {
	totalDelta := subSat(cur.Total(), prev.Total())
	if totalDelta == 0 {
		return 0
	}
	activeDelta := subSat(cur.Active(), prev.Active())
	return sample.ClampPercent(float64(activeDelta) / float64(totalDelta) * 100)
}

func subSat(a, b uint64) uint64 {
	if b > a {
		return 0
	}
	return a - b
}

// Reader keeps the previous /proc/stat reading so consecutive calls yield
// utilisation over the interval between them.
type Reader struct {
	fsys fs.FS
	path string
	prev *Times
}

// NewReader reads DefaultPath from the root filesystem.
func NewReader() *Reader {
	return NewReaderFS(os.DirFS("/"), strings.TrimPrefix(DefaultPath, "/"))
}

// NewReaderFS reads path from fsys. Tests use fstest.MapFS.
func NewReaderFS(fsys fs.FS, path string) *Reader {
	return &Reader{fsys: fsys, path: path}
}

// Sample reads the current counters and returns utilisation since the
// previous successful call. The first call returns 0.
func (r *Reader) Sample() (float64, error) {
	data, err := fs.ReadFile(r.fsys, r.path)
	if err != nil {
		return 0, collectors.NewError(collectors.KindIO, DefaultPath, err)
	}
	cur, err := ParseStat(data)
	if err != nil {
		return 0, err
	}

	var usage float64
	if r.prev != nil {
		usage = Usage(*r.prev, cur)
	}
	r.prev = &cur
	return usage, nil
}

// LoadFunc returns load averages. It is best-effort: errors are ignored.
type LoadFunc func(ctx context.Context) (*load.AvgStat, error)

// Collector is the polled cpu monitor.
type Collector struct {
	reader *Reader
	load   LoadFunc
	logger *slog.Logger

	mu       sync.Mutex
	errCount int
}

// Option configures a Collector.
type Option func(*Collector)

// WithReader replaces the /proc/stat reader.
func WithReader(r *Reader) Option {
	return func(c *Collector) { c.reader = r }
}

// WithLoad replaces the load-average source. A nil func disables load
// averages.
func WithLoad(fn LoadFunc) Option {
	return func(c *Collector) { c.load = fn }
}

// New creates the cpu collector.
func New(logger *slog.Logger, opts ...Option) *Collector {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Collector{
		reader: NewReader(),
		load:   load.AvgWithContext,
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Collector) Name() string            { return string(sample.ModuleCPU) }
func (c *Collector) Interval() time.Duration { return DefaultInterval }

func (c *Collector) Healthy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errCount == 0
}

// Collect returns current utilisation. On failure it returns a fallback
// sample together with the error: 50% while fewer than MaxTransientErrors
// consecutive failures have occurred, 0% after that.
func (c *Collector) Collect(ctx context.Context) (sample.Sample, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	usage, err := c.reader.Sample()
	if err != nil {
		c.errCount++
		c.logger.Warn("cpu sample failed", "consecutive", c.errCount, "error", err)
		if c.errCount >= MaxTransientErrors {
			return sample.CPU{Utilization: 0}, err
		}
		return sample.CPU{Utilization: fallbackUsage}, err
	}
	c.errCount = 0

	s := sample.CPU{Utilization: usage}
	if c.load != nil {
		if avg, lerr := c.load(ctx); lerr == nil && avg != nil {
			s.Load1, s.Load5, s.Load15 = avg.Load1, avg.Load5, avg.Load15
		}
	}
	return s, nil
}
