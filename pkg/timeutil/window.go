// Package timeutil parses the reporting windows accepted by the history
// and report commands.
package timeutil

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultWindow applies when no window is given.
const DefaultWindow = "1w"

const day = 24 * time.Hour

var units = []struct {
	names []string
	size  time.Duration
}{
	{[]string{"w", "wk", "wks", "week", "weeks"}, 7 * day},
	{[]string{"d", "day", "days"}, day},
	{[]string{"h", "hr", "hrs", "hour", "hours"}, time.Hour},
	{[]string{"m", "min", "mins", "minute", "minutes"}, time.Minute},
	{[]string{"s", "sec", "secs", "second", "seconds"}, time.Second},
}

func unitSize(name string) (time.Duration, bool) {
	for _, u := range units {
		for _, n := range u.names {
			if n == name {
				return u.size, true
			}
		}
	}
	return 0, false
}

// Window is a half-open interval of time ending at Until. A zero Since
// means unbounded.
type Window struct {
	Since time.Time
	Until time.Time
	Label string
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	if !w.Since.IsZero() && t.Before(w.Since) {
		return false
	}
	return t.Before(w.Until)
}

// Resolve turns input into a window ending at now. Besides durations such
// as "3d" or "1w2d6h" it accepts "today" (since local midnight) and "all".
func Resolve(input string, now time.Time) (Window, error) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "all":
		return Window{Until: now, Label: "all"}, nil
	case "today":
		y, m, d := now.Date()
		return Window{Since: time.Date(y, m, d, 0, 0, 0, 0, now.Location()), Until: now, Label: "today"}, nil
	}
	dur, label, err := ParseDuration(input)
	if err != nil {
		return Window{}, err
	}
	return Window{Since: now.Add(-dur), Until: now, Label: label}, nil
}

// ParseDuration reads a sequence of <number><unit> segments, with optional
// spaces, and returns the total and its canonical form. Empty input means
// DefaultWindow.
func ParseDuration(input string) (time.Duration, string, error) {
	s := strings.ToLower(strings.TrimSpace(input))
	if s == "" {
		s = DefaultWindow
	}
	var total time.Duration
	for i := 0; i < len(s); {
		for i < len(s) && s[i] == ' ' {
			i++
		}
		start := i
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
		}
		if start == i {
			return 0, "", fmt.Errorf("invalid window %q: expected a number at %q", input, s[start:])
		}
		n, err := strconv.ParseInt(s[start:i], 10, 64)
		if err != nil {
			return 0, "", fmt.Errorf("invalid window value %q: %w", s[start:i], err)
		}
		for i < len(s) && s[i] == ' ' {
			i++
		}
		ustart := i
		for i < len(s) && s[i] >= 'a' && s[i] <= 'z' {
			i++
		}
		size, ok := unitSize(s[ustart:i])
		if !ok {
			return 0, "", fmt.Errorf("unsupported window unit %q", s[ustart:i])
		}
		total += time.Duration(n) * size
	}
	if total <= 0 {
		return 0, "", fmt.Errorf("window must be greater than zero")
	}
	return total, FormatDuration(total), nil
}

// FormatDuration renders d with the largest units first, e.g. "1w2d6h".
func FormatDuration(d time.Duration) string {
	if d <= 0 {
		return "0s"
	}
	var b strings.Builder
	for _, u := range units {
		if d < u.size {
			continue
		}
		n := d / u.size
		d -= n * u.size
		fmt.Fprintf(&b, "%d%s", n, u.names[0])
	}
	if b.Len() == 0 {
		return "0s"
	}
	return b.String()
}
