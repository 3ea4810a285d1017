// Package sample defines the typed snapshots produced by better-bar monitors.
// A Sample is a tagged union: every concrete type reports the Module it
// belongs to, and consumers switch on the concrete type.
package sample

import (
	"slices"
	"time"
)

// Module identifies a bar module. Collector names and presenter slots use
// the same identifiers.
type Module string

const (
	ModuleCPU         Module = "cpu"
	ModuleMemory      Module = "memory"
	ModuleBattery     Module = "battery"
	ModuleNetwork     Module = "network"
	ModuleVolume      Module = "volume"
	ModuleWindowTitle Module = "window_title"
	ModuleWorkspaces  Module = "workspaces"
	ModuleClock       Module = "clock"
)

// Modules lists every module in display order (left to right).
var Modules = []Module{
	ModuleWorkspaces,
	ModuleWindowTitle,
	ModuleClock,
	ModuleCPU,
	ModuleMemory,
	ModuleNetwork,
	ModuleVolume,
	ModuleBattery,
}

// Sample is one monitor's snapshot of external state.
type Sample interface {
	Module() Module
}

// --- CPU ---

// CPU holds aggregate CPU utilisation (0-100) and best-effort load averages.
type CPU struct {
	Utilization float64 `json:"utilization"`
	Load1       float64 `json:"load1"`
	Load5       float64 `json:"load5"`
	Load15      float64 `json:"load15"`
}

func (CPU) Module() Module { return ModuleCPU }

// --- Memory ---

// Memory holds memory counters in kB as reported by /proc/meminfo. UsedKB
// already includes ARCKB.
type Memory struct {
	UsedKB      uint64 `json:"used_kb"`
	TotalKB     uint64 `json:"total_kb"`
	AvailableKB uint64 `json:"available_kb"`
	ARCKB       uint64 `json:"arc_kb"`
}

func (Memory) Module() Module { return ModuleMemory }

// UsedPercentage returns used/total*100, or 0 when total is 0.
func (m Memory) UsedPercentage() float64 {
	return ratio(m.UsedKB, m.TotalKB)
}

// AvailablePercentage returns available/total*100, or 0 when total is 0.
func (m Memory) AvailablePercentage() float64 {
	return ratio(m.AvailableKB, m.TotalKB)
}

func ratio(part, total uint64) float64 {
	if total == 0 {
		return 0
	}
	return ClampPercent(float64(part) / float64(total) * 100)
}

// --- Battery ---

// BatteryState is the exhaustive set of charge states shown by the bar.
type BatteryState int

const (
	BatteryUnknown BatteryState = iota
	BatteryCharging
	BatteryDischarging
	BatteryFull
)

// String returns the display name of the state.
func (s BatteryState) String() string {
	switch s {
	case BatteryCharging:
		return "Charging"
	case BatteryDischarging:
		return "Discharging"
	case BatteryFull:
		return "Full"
	default:
		return "Unknown"
	}
}

// Battery is a power-source reading. SecondsRemaining is nil unless the
// battery is charging (time to full) or discharging (time to empty) and the
// source reported an estimate. Percentage is rounded for display; Charged
// reports whether the unrounded reading reached 100.
type Battery struct {
	Percentage       int           `json:"percentage"`
	Charged          bool          `json:"charged"`
	State            BatteryState  `json:"state"`
	SecondsRemaining *uint64       `json:"seconds_remaining,omitempty"`
	TimeToFull       time.Duration `json:"time_to_full"`
	TimeToEmpty      time.Duration `json:"time_to_empty"`
}

func (Battery) Module() Module { return ModuleBattery }

// NewBattery builds a Battery sample, clamping the percentage and deriving
// SecondsRemaining from the state.
func NewBattery(pct float64, state BatteryState, toFull, toEmpty time.Duration) Battery {
	pct = ClampPercent(pct)
	b := Battery{
		Percentage:  int(pct + 0.5),
		Charged:     pct >= 100,
		State:       state,
		TimeToFull:  toFull,
		TimeToEmpty: toEmpty,
	}
	var remaining time.Duration
	switch state {
	case BatteryCharging:
		remaining = toFull
	case BatteryDischarging:
		remaining = toEmpty
	}
	if remaining > 0 {
		secs := uint64(remaining / time.Second)
		b.SecondsRemaining = &secs
	}
	return b
}

// --- Network ---

// LinkKind classifies the active interface.
type LinkKind int

const (
	LinkNone LinkKind = iota
	LinkWifi
	LinkEthernet
)

// String returns the display name of the link kind.
func (k LinkKind) String() string {
	switch k {
	case LinkWifi:
		return "WiFi"
	case LinkEthernet:
		return "Ethernet"
	default:
		return "None"
	}
}

// Network describes the active link. RxRate and TxRate are bytes per second;
// Freq is empty when no frequency is known.
type Network struct {
	Interface string   `json:"interface"`
	Kind      LinkKind `json:"kind"`
	Connected bool     `json:"connected"`
	SignalPct int      `json:"signal_pct"`
	IP        string   `json:"ip"`
	SSID      string   `json:"ssid"`
	RxRate    float64  `json:"rx_rate"`
	TxRate    float64  `json:"tx_rate"`
	Freq      string   `json:"freq,omitempty"`
}

func (Network) Module() Module { return ModuleNetwork }

// Disconnected returns the sample reported when no usable link exists.
func Disconnected(iface string) Network {
	return Network{
		Interface: iface,
		Kind:      LinkNone,
		Connected: false,
		SignalPct: 0,
		IP:        "-",
	}
}

// --- Volume ---

// Volume is the default sink level.
type Volume struct {
	Percentage uint8 `json:"percentage"`
	Muted      bool  `json:"muted"`
}

func (Volume) Module() Module { return ModuleVolume }

// --- Compositor ---

// Workspaces is the compositor's workspace list. IDs are unique and sorted
// ascending; ActiveID is a member of IDs whenever IDs is non-empty.
type Workspaces struct {
	IDs      []int `json:"ids"`
	ActiveID int   `json:"active_id"`
}

func (Workspaces) Module() Module { return ModuleWorkspaces }

// NewWorkspaces sorts and de-duplicates ids. When the list is non-empty and
// does not contain active, active is inserted: the compositor reported it as
// focused, so it exists even if the list query raced with its creation.
func NewWorkspaces(ids []int, active int) Workspaces {
	out := slices.Clone(ids)
	slices.Sort(out)
	out = slices.Compact(out)
	if len(out) > 0 {
		if _, found := slices.BinarySearch(out, active); !found {
			out = append(out, active)
			slices.Sort(out)
		}
	}
	return Workspaces{IDs: out, ActiveID: active}
}

// Equal reports whether two workspace snapshots are identical.
func (w Workspaces) Equal(o Workspaces) bool {
	return w.ActiveID == o.ActiveID && slices.Equal(w.IDs, o.IDs)
}

// WindowTitle is the focused window's title.
type WindowTitle struct {
	Title string `json:"title"`
}

func (WindowTitle) Module() Module { return ModuleWindowTitle }

// --- Clock ---

// Clock is a wall-clock reading.
type Clock struct {
	Time time.Time `json:"time"`
}

func (Clock) Module() Module { return ModuleClock }

// --- invariants ---

// ClampPercent bounds v to [0,100]. NaN maps to 0.
func ClampPercent(v float64) float64 {
	switch {
	case v != v:
		return 0
	case v < 0:
		return 0
	case v > 100:
		return 100
	}
	return v
}

// NonNegative returns v, or 0 when v is negative or NaN.
func NonNegative(v float64) float64 {
	if v != v || v < 0 {
		return 0
	}
	return v
}
