// Package i3bar presents the bar through the i3bar/swaybar JSON protocol:
// a header line, then an endless JSON array of status lines on stdout, with
// click events arriving as an endless JSON array on stdin.
package i3bar

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strconv"

	"github.com/better-ecosystem/better-bar/pkg/collectors"
	"github.com/better-ecosystem/better-bar/pkg/sample"
	"github.com/better-ecosystem/better-bar/pkg/sink"
)

// Header opens the stream.
type Header struct {
	Version     int  `json:"version"`
	ClickEvents bool `json:"click_events"`
}

// Block is one status-line segment.
type Block struct {
	FullText  string `json:"full_text"`
	ShortText string `json:"short_text,omitempty"`
	Color     string `json:"color,omitempty"`
	Name      string `json:"name,omitempty"`
	Instance  string `json:"instance,omitempty"`
	Urgent    bool   `json:"urgent,omitempty"`
	// Separator is a pointer so the bar default applies when unset.
	Separator *bool `json:"separator,omitempty"`
}

// Click is a click event sent by the bar.
type Click struct {
	Name     string `json:"name"`
	Instance string `json:"instance"`
	Button   int    `json:"button"`
	X        int    `json:"x"`
	Y        int    `json:"y"`
}

// Mouse buttons as reported by i3bar and swaybar.
const (
	ButtonLeft      = 1
	ButtonMiddle    = 2
	ButtonRight     = 3
	ButtonWheelUp   = 4
	ButtonWheelDown = 5
)

// ParseClick decodes one line of the click stream. The opening "[" and the
// "," separating events are stripped; blank lines report ok=false.
func ParseClick(line []byte) (Click, bool, error) {
	line = bytes.TrimSpace(line)
	line = bytes.TrimPrefix(line, []byte("["))
	line = bytes.TrimSpace(bytes.TrimPrefix(line, []byte(",")))
	if len(line) == 0 {
		return Click{}, false, nil
	}
	var c Click
	if err := json.Unmarshal(line, &c); err != nil {
		return Click{}, false, collectors.NewError(collectors.KindParse, "click event", err)
	}
	return c, true, nil
}

// Clicks dispatches click events to the monitors.
type Clicks struct {
	actions sink.Actions
	step    int
	logger  *slog.Logger
}

// NewClicks returns a dispatcher nudging the volume by step per wheel notch.
func NewClicks(actions sink.Actions, step int, logger *slog.Logger) *Clicks {
	if logger == nil {
		logger = slog.Default()
	}
	if actions == nil {
		actions = sink.NopActions{}
	}
	if step <= 0 {
		step = 1
	}
	return &Clicks{actions: actions, step: step, logger: logger.With("component", "i3bar-clicks")}
}

// Dispatch performs the gesture for one click.
func (c *Clicks) Dispatch(ev Click) {
	switch sample.Module(ev.Name) {
	case sample.ModuleWorkspaces:
		if ev.Button != ButtonLeft {
			return
		}
		id, err := strconv.Atoi(ev.Instance)
		if err != nil {
			c.logger.Debug("click on unknown workspace", "instance", ev.Instance)
			return
		}
		c.actions.SwitchWorkspace(id)
	case sample.ModuleVolume:
		switch ev.Button {
		case ButtonLeft:
			c.actions.ToggleMute()
		case ButtonWheelUp:
			c.actions.ScrollVolume(c.step)
		case ButtonWheelDown:
			c.actions.ScrollVolume(-c.step)
		}
	}
}

// Run reads click events from r until EOF or ctx is done. Malformed lines
// are logged and skipped. If r is an io.Closer it is closed on cancellation.
func (c *Clicks) Run(ctx context.Context, r io.Reader) error {
	if rc, ok := r.(io.Closer); ok {
		stop := context.AfterFunc(ctx, func() { rc.Close() })
		defer stop()
	}
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		ev, ok, err := ParseClick(sc.Bytes())
		if err != nil {
			c.logger.Debug("skipping click event", "error", err)
			continue
		}
		if ok {
			c.Dispatch(ev)
		}
	}
	if ctx.Err() != nil {
		return nil
	}
	if err := sc.Err(); err != nil {
		return collectors.NewError(collectors.KindIO, "read click events", err)
	}
	return nil
}
