// Package theme holds the bar's color palettes. Presenters map a display
// class ("high", "critical", "muted", ...) onto the active palette, so the
// terminal bar and the i3bar output agree on colors.
package theme

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// DefaultName is the theme used when none is configured.
const DefaultName = "default"

// Theme is one palette. Every color is a #RRGGBB hex string.
type Theme struct {
	Name string

	// Base colors
	Foreground string
	Dim        string // separators, hints, idle modules
	Accent     string // active workspace

	// Usage levels (cpu, memory)
	Low    string
	Medium string
	High   string

	// States
	Warning  string
	Critical string
	Error    string
}

var (
	mu       sync.RWMutex
	registry = map[string]Theme{}
)

func init() {
	thRegisterBuiltins()
}

// Get returns a named theme, falling back to the default if not found.
func Get(name string) Theme {
	mu.RLock()
	defer mu.RUnlock()
	if t, ok := registry[strings.ToLower(name)]; ok {
		return t
	}
	return registry[DefaultName]
}

// Has reports whether name is a registered theme.
func Has(name string) bool {
	mu.RLock()
	defer mu.RUnlock()
	_, ok := registry[strings.ToLower(name)]
	return ok
}

// Names returns all available theme names sorted alphabetically.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve returns the theme for a config value: a builtin name, or a path
// to a TOML theme file.
func Resolve(nameOrPath string) (Theme, error) {
	if nameOrPath == "" {
		return Get(DefaultName), nil
	}
	if IsFile(nameOrPath) {
		data, err := os.ReadFile(nameOrPath)
		if err != nil {
			return Theme{}, fmt.Errorf("theme: %w", err)
		}
		return LoadFromTOML(data)
	}
	if !Has(nameOrPath) {
		return Theme{}, fmt.Errorf("theme: unknown theme %q (available: %s)", nameOrPath, strings.Join(Names(), ", "))
	}
	return Get(nameOrPath), nil
}

// IsFile reports whether a config value names a theme file rather than a
// builtin theme.
func IsFile(nameOrPath string) bool {
	return strings.EqualFold(filepath.Ext(nameOrPath), ".toml")
}

// Class returns the color for a display class, or "" for the plain
// foreground.
func (t Theme) Class(name string) string {
	switch name {
	case "low":
		return t.Low
	case "medium":
		return t.Medium
	case "high":
		return t.High
	case "warning":
		return t.Warning
	case "critical":
		return t.Critical
	case "error":
		return t.Error
	case "disconnected", "muted":
		return t.Dim
	}
	return ""
}

// thRegister adds a theme to the registry under its lowercase name.
func thRegister(t Theme) {
	mu.Lock()
	defer mu.Unlock()
	registry[strings.ToLower(t.Name)] = t
}
