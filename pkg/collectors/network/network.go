// Package network reports the active network link: interface, address,
// wifi signal and SSID, and throughput.
package network

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

	gnet "github.com/shirou/gopsutil/v4/net"

	"github.com/better-ecosystem/better-bar/pkg/collectors"
	"github.com/better-ecosystem/better-bar/pkg/sample"
)

const (
	DefaultInterval = 2 * time.Second

	wirelessPath = "proc/net/wireless"
	wiredSSID    = "Wired Connection"
	unknownSSID  = "Unknown Network"
)

// CountersFunc returns per-interface byte counters.
type CountersFunc func(ctx context.Context) ([]gnet.IOCountersStat, error)

func systemCounters(ctx context.Context) ([]gnet.IOCountersStat, error) {
	return gnet.IOCountersWithContext(ctx, true)
}

// Classify maps an interface name to a link kind.
func Classify(name string) sample.LinkKind {
	lower := strings.ToLower(name)
	switch {
	case strings.HasPrefix(lower, "wl"),
		strings.HasPrefix(lower, "ww"),
		strings.Contains(lower, "wifi"):
		return sample.LinkWifi
	case strings.HasPrefix(lower, "en"),
		strings.HasPrefix(lower, "eth"):
		return sample.LinkEthernet
	}
	return sample.LinkNone
}

// Monitor samples the active link. RxRate and TxRate are a rough
// approximation: the counter delta since the previous Sample divided by the
// elapsed wall time, with no smoothing.
type Monitor struct {
	run      collectors.CommandRunner
	fsys     fs.FS
	counters CountersFunc
	now      func() time.Time
	logger   *slog.Logger

	mu   sync.Mutex
	prev *snapshot
}

type snapshot struct {
	iface  string
	rx, tx uint64
	at     time.Time
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithRunner sets the command runner used for ip, iwconfig and nmcli.
func WithRunner(r collectors.CommandRunner) Option { return func(m *Monitor) { m.run = r } }

// WithFS sets the filesystem (rooted at "/") used for /proc/net/wireless.
func WithFS(fsys fs.FS) Option { return func(m *Monitor) { m.fsys = fsys } }

// WithCounters sets the byte-counter source.
func WithCounters(fn CountersFunc) Option { return func(m *Monitor) { m.counters = fn } }

// WithClock sets the time source used for rate computation.
func WithClock(now func() time.Time) Option { return func(m *Monitor) { m.now = now } }

// NewMonitor returns a monitor over the live system unless overridden.
func NewMonitor(logger *slog.Logger, opts ...Option) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Monitor{
		run:      collectors.ExecRunner{},
		fsys:     os.DirFS("/"),
		counters: systemCounters,
		now:      time.Now,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Sample never fails: every failure yields a disconnected sample.
func (m *Monitor) Sample(ctx context.Context) sample.Network {
	m.mu.Lock()
	defer m.mu.Unlock()

	counters, err := m.counters(ctx)
	if err != nil {
		m.logger.Debug("network counters unavailable", "error", err)
	}

	iface := m.defaultRoute(ctx)
	if iface == "" {
		iface = firstActive(counters)
	}
	if iface == "" {
		m.prev = nil
		return sample.Disconnected("")
	}

	ip, err := m.ipv4(ctx, iface)
	if err != nil {
		m.logger.Debug("address lookup failed", "iface", iface, "error", err)
		m.prev = nil
		return sample.Disconnected(iface)
	}

	s := sample.Network{
		Interface: iface,
		Kind:      Classify(iface),
		IP:        ip,
		Connected: ip != "" && ip != "0.0.0.0",
	}
	switch s.Kind {
	case sample.LinkWifi:
		m.wifi(ctx, &s)
	case sample.LinkEthernet:
		s.SignalPct = 100
		s.SSID = wiredSSID
	}
	s.RxRate, s.TxRate = m.rates(iface, counters)
	return s
}

// defaultRoute returns the dev of the default route, or "".
func (m *Monitor) defaultRoute(ctx context.Context) string {
	out, err := m.run.Run(ctx, "ip", "route", "show", "default")
	if err != nil {
		m.logger.Debug("default route lookup failed", "error", err)
		return ""
	}
	return ParseDefaultRoute(out)
}

// ParseDefaultRoute extracts the interface from `ip route show default`.
func ParseDefaultRoute(out []byte) string {
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || fields[0] != "default" {
			continue
		}
		for i := 0; i+1 < len(fields); i++ {
			if fields[i] == "dev" {
				return fields[i+1]
			}
		}
	}
	return ""
}

// firstActive returns the first non-loopback interface with traffic.
func firstActive(counters []gnet.IOCountersStat) string {
	for _, c := range counters {
		if c.Name == "" || c.Name == "lo" {
			continue
		}
		if c.BytesRecv+c.BytesSent+c.PacketsRecv+c.PacketsSent > 0 {
			return c.Name
		}
	}
	return ""
}

func (m *Monitor) ipv4(ctx context.Context, iface string) (string, error) {
	out, err := m.run.Run(ctx, "ip", "-4", "addr", "show", iface)
	if err != nil {
		return "", err
	}
	return ParseIPv4(out), nil
}

// ParseIPv4 returns the first inet address in `ip addr show` output, or
// "0.0.0.0" when there is none.
func ParseIPv4(out []byte) string {
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 2 || fields[0] != "inet" {
			continue
		}
		addr, _, _ := strings.Cut(fields[1], "/")
		if addr != "" {
			return addr
		}
	}
	return "0.0.0.0"
}

func (m *Monitor) wifi(ctx context.Context, s *sample.Network) {
	var info Wireless
	if out, err := m.run.Run(ctx, "iwconfig", s.Interface); err == nil {
		info = ParseIwconfig(out)
	}

	s.SignalPct = info.SignalPct
	if !info.HasSignal {
		if raw, err := fs.ReadFile(m.fsys, wirelessPath); err == nil {
			s.SignalPct = ParseProcWireless(raw, s.Interface)
		}
	}
	s.SignalPct = int(sample.ClampPercent(float64(s.SignalPct)))

	s.SSID = info.ESSID
	if s.SSID == "" {
		if out, err := m.run.Run(ctx, "nmcli", "-t", "-f", "active,ssid", "dev", "wifi"); err == nil {
			s.SSID = ParseNmcli(out)
		}
	}
	if s.SSID == "" {
		s.SSID = unknownSSID
	}
	s.Freq = info.Frequency
}

// Wireless is what iwconfig reports for one interface.
type Wireless struct {
	ESSID     string
	SignalPct int
	HasSignal bool
	Frequency string
}

// ParseIwconfig reads ESSID, signal level (dBm mapped to percent as
// (dBm+100)*2) and frequency from iwconfig output.
func ParseIwconfig(out []byte) Wireless {
	var w Wireless
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		line := sc.Text()
		if _, after, ok := strings.Cut(line, "ESSID:"); ok {
			essid := strings.Trim(strings.TrimSpace(after), `"`)
			if essid != "" && essid != "off/any" {
				w.ESSID = essid
			}
		}
		if _, after, ok := strings.Cut(line, "Frequency:"); ok {
			if f := strings.Fields(after); len(f) > 0 {
				w.Frequency = f[0]
				if len(f) > 1 && strings.HasSuffix(f[1], "Hz") {
					w.Frequency += " " + f[1]
				}
			}
		}
		if _, after, ok := strings.Cut(line, "Signal level="); ok {
			f := strings.Fields(after)
			if len(f) == 0 {
				continue
			}
			dbm, err := strconv.Atoi(strings.TrimSuffix(f[0], "dBm"))
			if err != nil {
				continue
			}
			w.SignalPct = int(sample.ClampPercent(float64((dbm + 100) * 2)))
			w.HasSignal = true
		}
	}
	return w
}

// ParseProcWireless returns link quality for iface from /proc/net/wireless,
// scaled so that 70 is 100%.
func ParseProcWireless(raw []byte, iface string) int {
	sc := bufio.NewScanner(bytes.NewReader(raw))
	for line := 0; sc.Scan(); line++ {
		if line < 2 {
			continue
		}
		name, rest, ok := strings.Cut(sc.Text(), ":")
		if !ok || strings.TrimSpace(name) != iface {
			continue
		}
		f := strings.Fields(rest)
		if len(f) < 2 {
			return 0
		}
		q, err := strconv.ParseFloat(strings.TrimSuffix(f[1], "."), 64)
		if err != nil {
			return 0
		}
		return int(sample.ClampPercent(q * 100 / 70))
	}
	return 0
}

// ParseNmcli returns the active SSID from `nmcli -t -f active,ssid dev wifi`.
func ParseNmcli(out []byte) string {
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		if ssid, ok := strings.CutPrefix(sc.Text(), "yes:"); ok && ssid != "" {
			return ssid
		}
	}
	return ""
}

// rates computes throughput since the previous sample of the same
// interface. The first sample, an interface change, or missing counters
// yield zero.
func (m *Monitor) rates(iface string, counters []gnet.IOCountersStat) (rx, tx float64) {
	now := m.now()
	var cur *snapshot
	for _, c := range counters {
		if c.Name == iface {
			cur = &snapshot{iface: iface, rx: c.BytesRecv, tx: c.BytesSent, at: now}
			break
		}
	}
	prev := m.prev
	m.prev = cur
	if cur == nil || prev == nil || prev.iface != iface {
		return 0, 0
	}
	elapsed := cur.at.Sub(prev.at).Seconds()
	if elapsed <= 0 {
		return 0, 0
	}
	return float64(subSat(cur.rx, prev.rx)) / elapsed, float64(subSat(cur.tx, prev.tx)) / elapsed
}

func subSat(a, b uint64) uint64 {
	if b > a {
		return 0
	}
	return a - b
}

// Collector is the polled network monitor.
type Collector struct {
	monitor *Monitor
}

// New creates the collector.
func New(m *Monitor) *Collector { return &Collector{monitor: m} }

func (c *Collector) Name() string            { return string(sample.ModuleNetwork) }
func (c *Collector) Interval() time.Duration { return DefaultInterval }
func (c *Collector) Healthy() bool           { return true }

// Collect never returns an error.
func (c *Collector) Collect(ctx context.Context) (sample.Sample, error) {
	return c.monitor.Sample(ctx), nil
}
