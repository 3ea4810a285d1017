// Package compositor talks to Hyprland over its unix-socket IPC and turns
// compositor events into window-title and workspace updates.
package compositor

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/better-ecosystem/better-bar/pkg/collectors"
)

const (
	requestSocket = ".socket.sock"
	eventSocket   = ".socket2.sock"
)

// Window is the subset of `j/activewindow` the bar reads.
type Window struct {
	Address string `json:"address"`
	Class   string `json:"class"`
	Title   string `json:"title"`
}

// Workspace is the subset of `j/workspaces` entries the bar reads.
type Workspace struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Windows int    `json:"windows"`
}

// IPC is the compositor boundary.
type IPC interface {
	ActiveWindow(ctx context.Context) (Window, error)
	Workspaces(ctx context.Context) ([]Workspace, error)
	ActiveWorkspace(ctx context.Context) (Workspace, error)
	SwitchWorkspace(ctx context.Context, id int) error
	// Subscribe returns the raw event stream, one "name>>data" per line.
	Subscribe(ctx context.Context) (io.ReadCloser, error)
}

// SocketDir locates the directory holding the Hyprland sockets for the
// running instance. Newer Hyprland uses $XDG_RUNTIME_DIR/hypr, older
// releases /tmp/hypr.
func SocketDir(getenv func(string) string) (string, error) {
	sig := getenv("HYPRLAND_INSTANCE_SIGNATURE")
	if sig == "" {
		return "", collectors.Errorf(collectors.KindSubscription, "hyprland", "HYPRLAND_INSTANCE_SIGNATURE is not set")
	}
	if rt := getenv("XDG_RUNTIME_DIR"); rt != "" {
		dir := filepath.Join(rt, "hypr", sig)
		if _, err := os.Stat(filepath.Join(dir, requestSocket)); err == nil {
			return dir, nil
		}
	}
	return filepath.Join("/tmp", "hypr", sig), nil
}

// Hyprland is the IPC client. Each request opens a fresh connection, as
// hyprctl does.
type Hyprland struct {
	dir    string
	dialer net.Dialer
}

// NewHyprland returns a client for the instance named in the environment.
func NewHyprland() (*Hyprland, error) {
	dir, err := SocketDir(os.Getenv)
	if err != nil {
		return nil, err
	}
	return NewHyprlandAt(dir), nil
}

// NewHyprlandAt returns a client for the sockets in dir.
func NewHyprlandAt(dir string) *Hyprland {
	return &Hyprland{dir: dir}
}

func (h *Hyprland) request(ctx context.Context, cmd string) ([]byte, error) {
	conn, err := h.dialer.DialContext(ctx, "unix", filepath.Join(h.dir, requestSocket))
	if err != nil {
		return nil, collectors.NewError(collectors.KindIO, "hyprland "+cmd, err)
	}
	defer conn.Close()
	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	if _, err := io.WriteString(conn, cmd); err != nil {
		return nil, collectors.NewError(collectors.KindIO, "hyprland "+cmd, err)
	}
	out, err := io.ReadAll(conn)
	if err != nil {
		return nil, collectors.NewError(collectors.KindIO, "hyprland "+cmd, err)
	}
	return out, nil
}

func (h *Hyprland) ActiveWindow(ctx context.Context) (Window, error) {
	out, err := h.request(ctx, "j/activewindow")
	if err != nil {
		return Window{}, err
	}
	return ParseWindow(out)
}

func (h *Hyprland) Workspaces(ctx context.Context) ([]Workspace, error) {
	out, err := h.request(ctx, "j/workspaces")
	if err != nil {
		return nil, err
	}
	var ws []Workspace
	if err := json.Unmarshal(out, &ws); err != nil {
		return nil, collectors.NewError(collectors.KindParse, "hyprland j/workspaces", err)
	}
	return ws, nil
}

func (h *Hyprland) ActiveWorkspace(ctx context.Context) (Workspace, error) {
	out, err := h.request(ctx, "j/activeworkspace")
	if err != nil {
		return Workspace{}, err
	}
	var w Workspace
	if err := json.Unmarshal(out, &w); err != nil {
		return Workspace{}, collectors.NewError(collectors.KindParse, "hyprland j/activeworkspace", err)
	}
	return w, nil
}

func (h *Hyprland) SwitchWorkspace(ctx context.Context, id int) error {
	cmd := "dispatch workspace " + strconv.Itoa(id)
	out, err := h.request(ctx, cmd)
	if err != nil {
		return err
	}
	if reply := strings.TrimSpace(string(out)); reply != "ok" {
		return collectors.Errorf(collectors.KindCommand, "hyprland "+cmd, "%s", reply)
	}
	return nil
}

func (h *Hyprland) Subscribe(ctx context.Context) (io.ReadCloser, error) {
	conn, err := h.dialer.DialContext(ctx, "unix", filepath.Join(h.dir, eventSocket))
	if err != nil {
		return nil, collectors.NewError(collectors.KindSubscription, "hyprland events", err)
	}
	return conn, nil
}

// ParseWindow decodes `j/activewindow`. With no focused window Hyprland
// answers "{}" or "Invalid", both of which yield an empty Window.
func ParseWindow(out []byte) (Window, error) {
	trimmed := strings.TrimSpace(string(out))
	if trimmed == "" || trimmed == "Invalid" || trimmed == "{}" {
		return Window{}, nil
	}
	var w Window
	if err := json.Unmarshal([]byte(trimmed), &w); err != nil {
		return Window{}, collectors.NewError(collectors.KindParse, "hyprland j/activewindow", err)
	}
	return w, nil
}

// Event is one line of the event socket.
type Event struct {
	Name string
	Data string
}

// ParseEvent splits "name>>data".
func ParseEvent(line string) (Event, bool) {
	name, data, ok := strings.Cut(line, ">>")
	if !ok || name == "" {
		return Event{}, false
	}
	return Event{Name: name, Data: data}, true
}

func (e Event) String() string { return fmt.Sprintf("%s>>%s", e.Name, e.Data) }

// scanEvents feeds each parsed event line to fn until r ends.
func scanEvents(r io.Reader, fn func(Event)) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if ev, ok := ParseEvent(sc.Text()); ok {
			fn(ev)
		}
	}
	return sc.Err()
}
