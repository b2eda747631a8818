package executor

import (
	"fmt"
	"time"
)

// Window is a daily trading window evaluated in a specific timezone. When
// the window crosses midnight the gate wraps.
type Window struct {
	Location *time.Location
	Start    int // minutes since midnight
	End      int
}

// ParseWindow builds a Window from "15:04" bounds in the named timezone.
func ParseWindow(tz, start, end string) (Window, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return Window{}, fmt.Errorf("timezone %q: %w", tz, err)
	}
	s, err := parseMinutes(start)
	if err != nil {
		return Window{}, fmt.Errorf("window start %q: %w", start, err)
	}
	e, err := parseMinutes(end)
	if err != nil {
		return Window{}, fmt.Errorf("window end %q: %w", end, err)
	}
	return Window{Location: loc, Start: s, End: e}, nil
}

func parseMinutes(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

// Open reports whether now falls inside the window in its timezone.
func (w Window) Open(now time.Time) bool {
	local := now.In(w.Location)
	minutes := local.Hour()*60 + local.Minute()

	if w.Start <= w.End {
		return minutes >= w.Start && minutes < w.End
	}
	// crosses midnight
	return minutes >= w.Start || minutes < w.End
}

// AnyOpen reports whether any window is currently open.
func AnyOpen(windows []Window, now time.Time) bool {
	for _, w := range windows {
		if w.Open(now) {
			return true
		}
	}
	return false
}
