package sink

// Actions are the gestures a presenter can forward back to the monitors.
type Actions interface {
	SwitchWorkspace(id int)
	ToggleMute()
	// ScrollVolume nudges the volume by delta percentage points.
	ScrollVolume(delta int)
}

// NopActions ignores every gesture.
type NopActions struct{}

func (NopActions) SwitchWorkspace(int) {}
func (NopActions) ToggleMute()         {}
func (NopActions) ScrollVolume(int)    {}
