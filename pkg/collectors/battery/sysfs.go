package battery

import (
	"context"
	"io/fs"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/better-ecosystem/better-bar/pkg/collectors"
)

// DefaultSysfsRoot is the kernel's power_supply class directory.
const DefaultSysfsRoot = "/sys/class/power_supply"

// Sysfs reads the first BAT* supply under a power_supply directory.
type Sysfs struct {
	fsys fs.FS
}

// NewSysfs reads from DefaultSysfsRoot.
func NewSysfs() *Sysfs {
	return NewSysfsFS(os.DirFS(DefaultSysfsRoot))
}

// NewSysfsFS reads from fsys, whose root is a power_supply directory.
func NewSysfsFS(fsys fs.FS) *Sysfs {
	return &Sysfs{fsys: fsys}
}

func (s *Sysfs) Query(ctx context.Context) (Device, error) {
	if err := ctx.Err(); err != nil {
		return Device{}, err
	}
	dirs, err := fs.Glob(s.fsys, "BAT*")
	if err != nil || len(dirs) == 0 {
		return Device{}, ErrNoBattery
	}
	dir := dirs[0]

	capacity, err := s.read(dir, "capacity")
	if err != nil {
		return Device{}, collectors.NewError(collectors.KindIO, path.Join(DefaultSysfsRoot, dir, "capacity"), err)
	}
	pct, err := strconv.ParseFloat(capacity, 64)
	if err != nil {
		return Device{}, collectors.NewError(collectors.KindParse, path.Join(DefaultSysfsRoot, dir, "capacity"), err)
	}
	status, _ := s.read(dir, "status")

	d := Device{Percentage: pct, State: StateFromSysfs(status)}
	d.TimeToFull, d.TimeToEmpty = s.estimate(dir)
	return d, nil
}

// estimate derives time-to-full and time-to-empty from energy (µWh, µW) or
// charge (µAh, µA) counters. Either is zero when the counters are missing or
// the rate is zero.
func (s *Sysfs) estimate(dir string) (toFull, toEmpty time.Duration) {
	now, full, rate, ok := s.counters(dir, "energy_now", "energy_full", "power_now")
	if !ok {
		now, full, rate, ok = s.counters(dir, "charge_now", "charge_full", "current_now")
	}
	if !ok || rate <= 0 {
		return 0, 0
	}
	hours := func(v float64) time.Duration {
		return time.Duration(v / rate * float64(time.Hour))
	}
	if full > now {
		toFull = hours(full - now)
	}
	toEmpty = hours(now)
	return toFull, toEmpty
}

func (s *Sysfs) counters(dir, nowName, fullName, rateName string) (now, full, rate float64, ok bool) {
	vals := make([]float64, 3)
	for i, name := range []string{nowName, fullName, rateName} {
		raw, err := s.read(dir, name)
		if err != nil {
			return 0, 0, 0, false
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return 0, 0, 0, false
		}
		vals[i] = v
	}
	// Some drivers report a negative current while discharging.
	if vals[2] < 0 {
		vals[2] = -vals[2]
	}
	return vals[0], vals[1], vals[2], true
}

func (s *Sysfs) read(dir, name string) (string, error) {
	b, err := fs.ReadFile(s.fsys, path.Join(dir, name))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}
