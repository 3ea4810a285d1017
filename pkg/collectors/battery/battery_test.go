package battery

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"testing/fstest"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/google/go-cmp/cmp"

	"github.com/better-ecosystem/better-bar/pkg/collectors"
	"github.com/better-ecosystem/better-bar/pkg/sample"
)

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

// --- state mapping ---

func TestStateFromUPower(t *testing.T) {
	tests := map[uint32]sample.BatteryState{
		0:  sample.BatteryUnknown,
		1:  sample.BatteryCharging,
		2:  sample.BatteryDischarging,
		3:  sample.BatteryUnknown,
		4:  sample.BatteryFull,
		5:  sample.BatteryUnknown,
		6:  sample.BatteryUnknown,
		99: sample.BatteryUnknown,
	}
	for code, want := range tests {
		if got := StateFromUPower(code); got != want {
			t.Errorf("StateFromUPower(%d) = %v, want %v", code, got, want)
		}
	}
}

func TestStateFromSysfs(t *testing.T) {
	tests := map[string]sample.BatteryState{
		"Charging":     sample.BatteryCharging,
		"Discharging":  sample.BatteryDischarging,
		"Full":         sample.BatteryFull,
		"Not charging": sample.BatteryUnknown,
		"":             sample.BatteryUnknown,
	}
	for in, want := range tests {
		if got := StateFromSysfs(in); got != want {
			t.Errorf("StateFromSysfs(%q) = %v, want %v", in, got, want)
		}
	}
}

// --- UPower decoding ---

func TestPickBattery(t *testing.T) {
	paths := []dbus.ObjectPath{
		"/org/freedesktop/UPower/devices/line_power_AC",
		"/org/freedesktop/UPower/devices/battery_BAT0",
		"/org/freedesktop/UPower/devices/battery_BAT1",
	}
	got, ok := pickBattery(paths)
	if !ok || got != paths[1] {
		t.Errorf("pickBattery = %q, %v; want %q", got, ok, paths[1])
	}
	if _, ok := pickBattery(paths[:1]); ok {
		t.Error("pickBattery should fail without a battery path")
	}
}

func TestDeviceFromProps(t *testing.T) {
	props := map[string]dbus.Variant{
		"Percentage":  dbus.MakeVariant(87.6),
		"State":       dbus.MakeVariant(uint32(2)),
		"TimeToEmpty": dbus.MakeVariant(int64(5400)),
		"TimeToFull":  dbus.MakeVariant(int64(0)),
		"IsPresent":   dbus.MakeVariant(true),
	}
	got, err := deviceFromProps("bat", props)
	if err != nil {
		t.Fatalf("deviceFromProps: %v", err)
	}
	want := Device{Percentage: 87.6, State: sample.BatteryDischarging, TimeToEmpty: 90 * time.Minute}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Device mismatch (-want +got):\n%s", diff)
	}
}

func TestDeviceFromPropsErrors(t *testing.T) {
	_, err := deviceFromProps("bat", map[string]dbus.Variant{"State": dbus.MakeVariant(uint32(1))})
	if !errors.Is(err, collectors.ErrParse) {
		t.Errorf("missing Percentage: err = %v, want ErrParse", err)
	}
	_, err = deviceFromProps("bat", map[string]dbus.Variant{"Percentage": dbus.MakeVariant("full")})
	if !errors.Is(err, collectors.ErrParse) {
		t.Errorf("string Percentage: err = %v, want ErrParse", err)
	}
	_, err = deviceFromProps("bat", map[string]dbus.Variant{
		"Percentage": dbus.MakeVariant(50.0),
		"IsPresent":  dbus.MakeVariant(false),
	})
	if !errors.Is(err, ErrNoBattery) {
		t.Errorf("absent device: err = %v, want ErrNoBattery", err)
	}
}

func TestUPowerConnectFailure(t *testing.T) {
	u := &UPower{connect: func() (*dbus.Conn, error) { return nil, errors.New("no bus") }}
	_, err := u.Query(context.Background())
	if !errors.Is(err, collectors.ErrIO) {
		t.Errorf("err = %v, want ErrIO", err)
	}
	if err := u.Close(); err != nil {
		t.Errorf("Close on unconnected source = %v", err)
	}
}

// --- sysfs ---

func TestSysfsQuery(t *testing.T) {
	fsys := fstest.MapFS{
		"AC/online":        {Data: []byte("0\n")},
		"BAT0/capacity":    {Data: []byte("42\n")},
		"BAT0/status":      {Data: []byte("Discharging\n")},
		"BAT0/energy_now":  {Data: []byte("20000000\n")},
		"BAT0/energy_full": {Data: []byte("50000000\n")},
		"BAT0/power_now":   {Data: []byte("10000000\n")},
	}
	got, err := NewSysfsFS(fsys).Query(context.Background())
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	want := Device{
		Percentage:  42,
		State:       sample.BatteryDischarging,
		TimeToFull:  3 * time.Hour,
		TimeToEmpty: 2 * time.Hour,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Device mismatch (-want +got):\n%s", diff)
	}
}

func TestSysfsChargeCounters(t *testing.T) {
	fsys := fstest.MapFS{
		"BAT1/capacity":    {Data: []byte("50")},
		"BAT1/status":      {Data: []byte("Charging")},
		"BAT1/charge_now":  {Data: []byte("2000000")},
		"BAT1/charge_full": {Data: []byte("4000000")},
		"BAT1/current_now": {Data: []byte("-1000000")},
	}
	got, err := NewSysfsFS(fsys).Query(context.Background())
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if got.TimeToFull != 2*time.Hour {
		t.Errorf("TimeToFull = %v, want 2h", got.TimeToFull)
	}
}

func TestSysfsNoBattery(t *testing.T) {
	fsys := fstest.MapFS{"AC/online": {Data: []byte("1")}}
	_, err := NewSysfsFS(fsys).Query(context.Background())
	if !errors.Is(err, ErrNoBattery) {
		t.Errorf("err = %v, want ErrNoBattery", err)
	}
}

func TestSysfsBadCapacity(t *testing.T) {
	fsys := fstest.MapFS{"BAT0/capacity": {Data: []byte("lots")}}
	_, err := NewSysfsFS(fsys).Query(context.Background())
	if !errors.Is(err, collectors.ErrParse) {
		t.Errorf("err = %v, want ErrParse", err)
	}
}

// --- Chain ---

func TestChain(t *testing.T) {
	ok := SourceFunc(func(context.Context) (Device, error) { return Device{Percentage: 10}, nil })
	none := SourceFunc(func(context.Context) (Device, error) { return Device{}, ErrNoBattery })
	broken := SourceFunc(func(context.Context) (Device, error) {
		return Device{}, collectors.NewError(collectors.KindIO, "upower", errors.New("bus down"))
	})
	ctx := context.Background()

	if d, err := (Chain{broken, ok}).Query(ctx); err != nil || d.Percentage != 10 {
		t.Errorf("fallback: got %v, %v", d, err)
	}
	if _, err := (Chain{none, none}).Query(ctx); !errors.Is(err, ErrNoBattery) {
		t.Errorf("all absent: err = %v, want ErrNoBattery", err)
	}
	if _, err := (Chain{none, broken}).Query(ctx); !errors.Is(err, collectors.ErrIO) {
		t.Errorf("absent then broken: err = %v, want ErrIO", err)
	}
	if _, err := (Chain{}).Query(ctx); !errors.Is(err, ErrNoBattery) {
		t.Errorf("empty chain: err = %v, want ErrNoBattery", err)
	}
}

// --- formatting ---

func TestTimeLabel(t *testing.T) {
	tests := []struct {
		name string
		b    sample.Battery
		want string
	}{
		{"charging at 100 is full", sample.NewBattery(100, sample.BatteryCharging, 10*time.Minute, 0), "Full"},
		{"charging just below 100 keeps the estimate", sample.NewBattery(99.5, sample.BatteryCharging, 2*time.Minute, 0), "Full in 2m"},
		{"charging minutes", sample.NewBattery(80, sample.BatteryCharging, 25*time.Minute, 0), "Full in 25m"},
		{"charging hours", sample.NewBattery(20, sample.BatteryCharging, 95*time.Minute, 0), "Full in 01:35"},
		{"charging unknown", sample.NewBattery(20, sample.BatteryCharging, 0, 0), "Full in Unknown"},
		{"discharging", sample.NewBattery(50, sample.BatteryDischarging, 0, 3*time.Hour), "Empty in 03:00"},
		{"discharging unknown", sample.NewBattery(50, sample.BatteryDischarging, 0, 0), "Empty in Unknown"},
		{"full", sample.NewBattery(100, sample.BatteryFull, 0, 0), "Full"},
		{"unknown", sample.NewBattery(100, sample.BatteryUnknown, 0, 0), "Unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TimeLabel(tt.b); got != tt.want {
				t.Errorf("TimeLabel = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatText(t *testing.T) {
	b := sample.NewBattery(55, sample.BatteryDischarging, 0, 90*time.Minute)
	if got := FormatText(b, "{percentage} ({state}, {time})"); got != "55% (Discharging, Empty in 01:30)" {
		t.Errorf("FormatText = %q", got)
	}
	if got := FormatTooltip(b, ""); got != "Discharging: Empty in 01:30" {
		t.Errorf("FormatTooltip default = %q", got)
	}
	if got := FormatText(b, "{percentage} {unknown}"); got != "55% {unknown}" {
		t.Errorf("unknown tokens should be left intact, got %q", got)
	}
}

func TestIconAndClass(t *testing.T) {
	tests := []struct {
		pct   float64
		state sample.BatteryState
		icon  string
		class string
	}{
		{95, sample.BatteryDischarging, "battery-full-symbolic", ""},
		{70, sample.BatteryCharging, "battery-good-charging-symbolic", ""},
		{45, sample.BatteryDischarging, "battery-medium-symbolic", ""},
		{29, sample.BatteryDischarging, "battery-low-symbolic", "warning"},
		{14, sample.BatteryDischarging, "battery-low-symbolic", "critical"},
		{5, sample.BatteryCharging, "battery-caution-charging-symbolic", "critical"},
	}
	for _, tt := range tests {
		b := sample.NewBattery(tt.pct, tt.state, 0, 0)
		if got := IconName(b); got != tt.icon {
			t.Errorf("IconName(%v) = %q, want %q", tt.pct, got, tt.icon)
		}
		if got := Class(b); got != tt.class {
			t.Errorf("Class(%v) = %q, want %q", tt.pct, got, tt.class)
		}
	}
}

// --- Collector ---

func TestCollectorNoBatteryIsSilent(t *testing.T) {
	c := New(SourceFunc(func(context.Context) (Device, error) { return Device{}, ErrNoBattery }), quiet())
	s, err := c.Collect(context.Background())
	if s != nil || err != nil {
		t.Errorf("Collect = %v, %v; want nil, nil", s, err)
	}
	if !c.Healthy() {
		t.Error("missing battery is not a health failure")
	}
}

func TestCollectorError(t *testing.T) {
	c := New(SourceFunc(func(context.Context) (Device, error) {
		return Device{}, collectors.NewError(collectors.KindIO, "upower", errors.New("denied"))
	}), quiet())
	s, err := c.Collect(context.Background())
	if s != nil {
		t.Errorf("sample = %v, want nil", s)
	}
	if !errors.Is(err, collectors.ErrIO) {
		t.Errorf("err = %v, want ErrIO", err)
	}
	if c.Healthy() {
		t.Error("collector should be unhealthy after a failure")
	}
}

func TestCollectorSample(t *testing.T) {
	c := New(SourceFunc(func(context.Context) (Device, error) {
		return Device{Percentage: 64.4, State: sample.BatteryCharging, TimeToFull: time.Hour}, nil
	}), quiet())
	s, err := c.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	b := s.(sample.Battery)
	if b.Percentage != 64 || b.State != sample.BatteryCharging {
		t.Errorf("sample = %+v", b)
	}
	if b.SecondsRemaining == nil || *b.SecondsRemaining != 3600 {
		t.Errorf("SecondsRemaining = %v, want 3600", b.SecondsRemaining)
	}
	if c.Name() != "battery" || c.Interval() != 3*time.Second {
		t.Errorf("Name/Interval = %q/%v", c.Name(), c.Interval())
	}
}
