// Package memory reads /proc/meminfo (plus the ZFS ARC size, which the kernel
// counts as used but which behaves like cache) and exposes it as a polled
// collector.
package memory

import (
	"bufio"
	"bytes"
	"context"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v4/mem"

	"github.com/better-ecosystem/better-bar/pkg/collectors"
	"github.com/better-ecosystem/better-bar/pkg/sample"
)

const (
	MeminfoPath  = "proc/meminfo"
	ArcstatsPath = "proc/spl/kstat/zfs/arcstats"

	DefaultInterval = 2 * time.Second
)

// VirtualMemoryFunc is the secondary memory source.
type VirtualMemoryFunc func(ctx context.Context) (*mem.VirtualMemoryStat, error)

// Reader produces memory samples from a filesystem rooted at "/".
type Reader struct {
	fsys     fs.FS
	fallback VirtualMemoryFunc
	logger   *slog.Logger
}

// NewReader reads from fsys. A nil fsys means the root filesystem; a nil
// fallback disables the gopsutil secondary source.
func NewReader(fsys fs.FS, fallback VirtualMemoryFunc, logger *slog.Logger) *Reader {
	if fsys == nil {
		fsys = os.DirFS("/")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{fsys: fsys, fallback: fallback, logger: logger}
}

// ParseMeminfo parses "Key: value kB" lines into a map of kB values. Lines
// whose value is not an integer are skipped.
func ParseMeminfo(data []byte) map[string]uint64 {
	out := make(map[string]uint64)
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		key, rest, ok := strings.Cut(sc.Text(), ":")
		if !ok {
			continue
		}
		fields := strings.Fields(rest)
		if len(fields) == 0 {
			continue
		}
		v, err := strconv.ParseUint(fields[0], 10, 64)
		if err != nil {
			continue
		}
		out[strings.TrimSpace(key)] = v
	}
	return out
}

// ParseArcSize returns the "size" row of arcstats in kB, or false.
func ParseArcSize(data []byte) (uint64, bool) {
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 3 || fields[0] != "size" {
			continue
		}
		v, err := strconv.ParseUint(fields[2], 10, 64)
		if err != nil {
			return 0, false
		}
		return v / 1024, true
	}
	return 0, false
}

// Sample never fails. Missing keys are zero and logged; an unreadable
// meminfo falls back to gopsutil, and if that fails too the zero sample is
// returned.
func (r *Reader) Sample(ctx context.Context) sample.Memory {
	data, err := fs.ReadFile(r.fsys, MeminfoPath)
	if err != nil {
		r.logger.Warn("meminfo unreadable", "error", collectors.NewError(collectors.KindIO, "/"+MeminfoPath, err))
		return r.secondary(ctx)
	}

	info := ParseMeminfo(data)
	total, ok := info["MemTotal"]
	if !ok {
		r.logger.Warn("meminfo missing key", "key", "MemTotal")
	}
	available, ok := info["MemAvailable"]
	if !ok {
		r.logger.Warn("meminfo missing key", "key", "MemAvailable")
	}

	var arc uint64
	if raw, err := fs.ReadFile(r.fsys, ArcstatsPath); err == nil {
		arc, _ = ParseArcSize(raw)
	}
	return build(total, available, arc)
}

func (r *Reader) secondary(ctx context.Context) sample.Memory {
	if r.fallback == nil {
		return sample.Memory{}
	}
	vm, err := r.fallback(ctx)
	if err != nil || vm == nil {
		r.logger.Warn("memory fallback failed", "error", err)
		return sample.Memory{}
	}
	return build(vm.Total/1024, vm.Available/1024, 0)
}

// build computes used = total - available + arc, saturating at zero for the
// subtraction.
func build(total, available, arc uint64) sample.Memory {
	var used uint64
	if total > available {
		used = total - available
	}
	return sample.Memory{
		UsedKB:      used + arc,
		TotalKB:     total,
		AvailableKB: available,
		ARCKB:       arc,
	}
}

// Collector is the polled memory monitor.
type Collector struct {
	reader *Reader
}

// New creates the memory collector over the live system.
func New(logger *slog.Logger) *Collector {
	return NewWithReader(NewReader(nil, mem.VirtualMemoryWithContext, logger))
}

// NewWithReader creates the collector over a custom reader.
func NewWithReader(r *Reader) *Collector {
	return &Collector{reader: r}
}

func (c *Collector) Name() string            { return string(sample.ModuleMemory) }
func (c *Collector) Interval() time.Duration { return DefaultInterval }
func (c *Collector) Healthy() bool           { return true }

// Collect always succeeds.
func (c *Collector) Collect(ctx context.Context) (sample.Sample, error) {
	return c.reader.Sample(ctx), nil
}
