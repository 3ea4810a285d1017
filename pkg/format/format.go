// Package format renders samples into label text: template token expansion
// and the small unit formatters shared by the modules.
package format

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"
)

// Vars maps token names (without braces) to their replacement.
type Vars map[string]string

// Expand replaces every "{name}" in tmpl whose name is in vars. Replacement is
// a single left-to-right pass, so substituted text is never re-expanded and
// the order of vars does not matter. Unknown tokens are left untouched.
func Expand(tmpl string, vars Vars) string {
	if len(vars) == 0 {
		return tmpl
	}
	pairs := make([]string, 0, len(vars)*2)
	for _, k := range slices.Sorted(maps.Keys(vars)) {
		pairs = append(pairs, "{"+k+"}", vars[k])
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

// Rate formats a byte-per-second rate with binary units, e.g. "1.5 MB/s".
func Rate(bytesPerSec float64) string {
	if bytesPerSec != bytesPerSec || bytesPerSec < 0 {
		bytesPerSec = 0
	}
	const unit = 1024.0
	switch {
	case bytesPerSec < unit:
		return fmt.Sprintf("%d B/s", int64(bytesPerSec))
	case bytesPerSec < unit*unit:
		return fmt.Sprintf("%.1f KB/s", bytesPerSec/unit)
	case bytesPerSec < unit*unit*unit:
		return fmt.Sprintf("%.1f MB/s", bytesPerSec/(unit*unit))
	default:
		return fmt.Sprintf("%.1f GB/s", bytesPerSec/(unit*unit*unit))
	}
}

// KB formats a kB quantity as gigabytes with one decimal, e.g. "7.8 GB".
func KB(kb uint64) string {
	return fmt.Sprintf("%.1f GB", float64(kb)/1024/1024)
}

// Countdown renders d as "HH:MM" when it is at least an hour, else "Nm".
func Countdown(d time.Duration) string {
	secs := int64(d / time.Second)
	if secs < 0 {
		secs = 0
	}
	hours := secs / 3600
	minutes := (secs % 3600) / 60
	if hours > 0 {
		return fmt.Sprintf("%02d:%02d", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}

// Percent renders a percentage with no decimals, e.g. "42%".
func Percent(v float64) string {
	return fmt.Sprintf("%.0f%%", v)
}
