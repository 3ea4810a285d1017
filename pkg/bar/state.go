package bar

import (
	"fmt"

	"github.com/better-ecosystem/better-bar/pkg/audio"
	"github.com/better-ecosystem/better-bar/pkg/sample"
)

// State is the supervised lifecycle state of one module.
type State int

const (
	StateDisabled State = iota
	StateRunning
	StateFailed
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateDisabled:
		return "disabled"
	case StateRunning:
		return "running"
	case StateFailed:
		return "failed"
	case StateStopped:
		return "stopped"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *State) UnmarshalText(b []byte) error {
	for _, st := range []State{StateDisabled, StateRunning, StateFailed, StateStopped} {
		if st.String() == string(b) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown module state %q", b)
}

// streamState maps the volume stream's lifecycle onto module states.
func streamState(s audio.State) State {
	switch s {
	case audio.StateFailed:
		return StateFailed
	case audio.StateStopped:
		return StateStopped
	}
	return StateRunning
}

// polledModules are scheduled by the collectors runner. The rest are event
// driven.
var polledModules = []sample.Module{
	sample.ModuleCPU,
	sample.ModuleMemory,
	sample.ModuleBattery,
	sample.ModuleNetwork,
	sample.ModuleClock,
}
