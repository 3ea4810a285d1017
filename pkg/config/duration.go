package config

import (
	"fmt"
	"time"
)

// Duration wraps time.Duration so config files can say "250ms" or "1s".
type Duration struct {
	time.Duration
}

// UnmarshalText parses a Go duration string. Empty means zero; negative
// durations are rejected.
func (d *Duration) UnmarshalText(text []byte) error {
	s := string(text)
	if s == "" {
		d.Duration = 0
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	if parsed < 0 {
		return fmt.Errorf("negative duration %q not allowed", s)
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}
