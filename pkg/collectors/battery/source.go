// Package battery reads the primary battery from UPower over D-Bus, falling
// back to sysfs, and exposes it as a polled collector.
package battery

import (
	"context"
	"errors"
	"time"

	"github.com/better-ecosystem/better-bar/pkg/sample"
)

// ErrNoBattery is the benign result of a host with no battery device. The
// collector treats it as a silent no-op.
var ErrNoBattery = errors.New("no battery device found")

// Device is one raw reading from a power source.
type Device struct {
	Percentage  float64
	State       sample.BatteryState
	TimeToFull  time.Duration
	TimeToEmpty time.Duration
}

// Sample converts the reading into a bar sample.
func (d Device) Sample() sample.Battery {
	return sample.NewBattery(d.Percentage, d.State, d.TimeToFull, d.TimeToEmpty)
}

// Source is a power-management backend.
type Source interface {
	Query(ctx context.Context) (Device, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) (Device, error)

func (f SourceFunc) Query(ctx context.Context) (Device, error) { return f(ctx) }

// Chain tries each source in order and returns the first success. If every
// source fails, the first failure that is not ErrNoBattery is returned, so a
// broken D-Bus connection is not masked by an empty sysfs.
type Chain []Source

func (c Chain) Query(ctx context.Context) (Device, error) {
	var firstErr error
	for _, s := range c {
		d, err := s.Query(ctx)
		if err == nil {
			return d, nil
		}
		if firstErr == nil || (errors.Is(firstErr, ErrNoBattery) && !errors.Is(err, ErrNoBattery)) {
			firstErr = err
		}
	}
	if firstErr == nil {
		return Device{}, ErrNoBattery
	}
	return Device{}, firstErr
}

// StateFromUPower maps UPower's numeric device state. Codes other than
// charging (1), discharging (2) and fully charged (4) are Unknown.
func StateFromUPower(code uint32) sample.BatteryState {
	switch code {
	case 1:
		return sample.BatteryCharging
	case 2:
		return sample.BatteryDischarging
	case 4:
		return sample.BatteryFull
	default:
		return sample.BatteryUnknown
	}
}

// StateFromSysfs maps the power_supply "status" attribute.
func StateFromSysfs(status string) sample.BatteryState {
	switch status {
	case "Charging":
		return sample.BatteryCharging
	case "Discharging":
		return sample.BatteryDischarging
	case "Full":
		return sample.BatteryFull
	default:
		return sample.BatteryUnknown
	}
}
