package theme

import (
	"bytes"
	"fmt"
	"regexp"
	"sort"

	"github.com/BurntSushi/toml"
)

// thTOMLTheme is the TOML-serializable representation of a Theme.
type thTOMLTheme struct {
	Name   string       `toml:"name"`
	Base   thTOMLBase   `toml:"base"`
	Levels thTOMLLevels `toml:"levels"`
	Status thTOMLStatus `toml:"status"`
}

type thTOMLBase struct {
	Foreground string `toml:"foreground"`
	Dim        string `toml:"dim"`
	Accent     string `toml:"accent"`
}

type thTOMLLevels struct {
	Low    string `toml:"low"`
	Medium string `toml:"medium"`
	High   string `toml:"high"`
}

type thTOMLStatus struct {
	Warning  string `toml:"warning"`
	Critical string `toml:"critical"`
	Error    string `toml:"error"`
}

var thHexColorRegex = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// LoadFromTOML parses a TOML theme definition from raw bytes.
func LoadFromTOML(data []byte) (Theme, error) {
	var tt thTOMLTheme
	if err := toml.Unmarshal(data, &tt); err != nil {
		return Theme{}, fmt.Errorf("theme: parse TOML: %w", err)
	}

	t := Theme{
		Name:       tt.Name,
		Foreground: tt.Base.Foreground,
		Dim:        tt.Base.Dim,
		Accent:     tt.Base.Accent,

		Low:    tt.Levels.Low,
		Medium: tt.Levels.Medium,
		High:   tt.Levels.High,

		Warning:  tt.Status.Warning,
		Critical: tt.Status.Critical,
		Error:    tt.Status.Error,
	}

	if err := thValidateTheme(t); err != nil {
		return Theme{}, err
	}
	return t, nil
}

// SaveToTOML serializes a theme to TOML bytes.
func SaveToTOML(t Theme) ([]byte, error) {
	tt := thTOMLTheme{
		Name: t.Name,
		Base: thTOMLBase{
			Foreground: t.Foreground,
			Dim:        t.Dim,
			Accent:     t.Accent,
		},
		Levels: thTOMLLevels{
			Low:    t.Low,
			Medium: t.Medium,
			High:   t.High,
		},
		Status: thTOMLStatus{
			Warning:  t.Warning,
			Critical: t.Critical,
			Error:    t.Error,
		},
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(tt); err != nil {
		return nil, fmt.Errorf("theme: encode TOML: %w", err)
	}
	return buf.Bytes(), nil
}

// thColors returns every color field by its TOML key.
func thColors(t Theme) map[string]string {
	return map[string]string{
		"base.foreground": t.Foreground,
		"base.dim":        t.Dim,
		"base.accent":     t.Accent,
		"levels.low":      t.Low,
		"levels.medium":   t.Medium,
		"levels.high":     t.High,
		"status.warning":  t.Warning,
		"status.critical": t.Critical,
		"status.error":    t.Error,
	}
}

// thValidateTheme checks that the name and every color are present and that
// colors are #RRGGBB. Fields are checked in key order so errors are stable.
func thValidateTheme(t Theme) error {
	if t.Name == "" {
		return fmt.Errorf("theme: missing required field %q", "name")
	}
	colors := thColors(t)
	keys := make([]string, 0, len(colors))
	for k := range colors {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := colors[k]
		if v == "" {
			return fmt.Errorf("theme: missing required field %q", k)
		}
		if !thHexColorRegex.MatchString(v) {
			return fmt.Errorf("theme: invalid hex color %q for field %q (expected #RRGGBB)", v, k)
		}
	}
	return nil
}
