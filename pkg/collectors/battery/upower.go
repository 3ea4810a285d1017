package battery

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/better-ecosystem/better-bar/pkg/collectors"
)

const (
	upowerDest      = "org.freedesktop.UPower"
	upowerPath      = dbus.ObjectPath("/org/freedesktop/UPower")
	upowerDevice    = "org.freedesktop.UPower.Device"
	enumerateMethod = upowerDest + ".EnumerateDevices"
	getAllMethod    = "org.freedesktop.DBus.Properties.GetAll"
)

// UPower queries org.freedesktop.UPower on the system bus. The connection is
// opened on first use and re-opened after a failed call.
type UPower struct {
	mu      sync.Mutex
	conn    *dbus.Conn
	connect func() (*dbus.Conn, error)
}

// NewUPower returns a UPower source on the system bus.
func NewUPower() *UPower {
	return &UPower{connect: func() (*dbus.Conn, error) { return dbus.ConnectSystemBus() }}
}

// Query enumerates UPower devices and reads the first battery's properties.
func (u *UPower) Query(ctx context.Context) (Device, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.conn == nil {
		conn, err := u.connect()
		if err != nil {
			return Device{}, collectors.NewError(collectors.KindIO, "upower connect", err)
		}
		u.conn = conn
	}

	var paths []dbus.ObjectPath
	if err := u.conn.Object(upowerDest, upowerPath).CallWithContext(ctx, enumerateMethod, 0).Store(&paths); err != nil {
		u.resetLocked()
		return Device{}, collectors.NewError(collectors.KindIO, enumerateMethod, err)
	}
	path, ok := pickBattery(paths)
	if !ok {
		return Device{}, ErrNoBattery
	}

	var props map[string]dbus.Variant
	if err := u.conn.Object(upowerDest, path).CallWithContext(ctx, getAllMethod, 0, upowerDevice).Store(&props); err != nil {
		u.resetLocked()
		return Device{}, collectors.NewError(collectors.KindIO, string(path), err)
	}
	return deviceFromProps(string(path), props)
}

// Close releases the bus connection.
func (u *UPower) Close() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.conn == nil {
		return nil
	}
	err := u.conn.Close()
	u.conn = nil
	return err
}

func (u *UPower) resetLocked() {
	if u.conn != nil {
		_ = u.conn.Close()
		u.conn = nil
	}
}

// pickBattery returns the first device path naming a battery.
func pickBattery(paths []dbus.ObjectPath) (dbus.ObjectPath, bool) {
	for _, p := range paths {
		if strings.Contains(string(p), "battery") {
			return p, true
		}
	}
	return "", false
}

// deviceFromProps decodes a UPower.Device property map. A missing or
// mistyped Percentage is a parse error; every other property is optional.
func deviceFromProps(op string, props map[string]dbus.Variant) (Device, error) {
	if v, ok := props["IsPresent"]; ok {
		if present, ok := v.Value().(bool); ok && !present {
			return Device{}, ErrNoBattery
		}
	}

	pv, ok := props["Percentage"]
	if !ok {
		return Device{}, collectors.Errorf(collectors.KindParse, op, "missing Percentage")
	}
	pct, ok := pv.Value().(float64)
	if !ok {
		return Device{}, collectors.Errorf(collectors.KindParse, op, "Percentage has type %s", pv.Signature())
	}

	d := Device{Percentage: pct}
	if v, ok := props["State"]; ok {
		if code, ok := v.Value().(uint32); ok {
			d.State = StateFromUPower(code)
		}
	}
	d.TimeToFull = seconds(props["TimeToFull"])
	d.TimeToEmpty = seconds(props["TimeToEmpty"])
	return d, nil
}

func seconds(v dbus.Variant) time.Duration {
	switch n := v.Value().(type) {
	case int64:
		if n > 0 {
			return time.Duration(n) * time.Second
		}
	case uint64:
		return time.Duration(n) * time.Second
	case int32:
		if n > 0 {
			return time.Duration(n) * time.Second
		}
	}
	return 0
}
