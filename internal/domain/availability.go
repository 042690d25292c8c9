package domain

import (
	"fmt"
	"time"
)

// Scheduling modes used to pick availability windows.
const (
	ModeWork     = "work"
	ModePersonal = "personal"
)

// TimeWindow is a time-of-day range during which placements are allowed.
// Times are "HH:MM" strings; Start must be before End.
type TimeWindow struct {
	Start string
	End   string
}

// Clip returns the window's concrete start/end instants on the given day.
func (w TimeWindow) Clip(day time.Time, loc *time.Location) (time.Time, time.Time, bool) {
	sh, sm, ok := ParseClock(w.Start)
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	eh, em, ok := ParseClock(w.End)
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	start := time.Date(day.Year(), day.Month(), day.Day(), sh, sm, 0, 0, loc)
	end := time.Date(day.Year(), day.Month(), day.Day(), eh, em, 0, 0, loc)
	if !end.After(start) {
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

// ParseClock parses "HH:MM" into hour and minute.
func ParseClock(s string) (hour, min int, ok bool) {
	if _, err := fmt.Sscanf(s, "%d:%d", &hour, &min); err != nil {
		return 0, 0, false
	}
	if hour < 0 || hour > 23 || min < 0 || min > 59 {
		return 0, 0, false
	}
	return hour, min, true
}

// DayAvailability holds a single weekday's planning windows per mode.
// Window order is preserved as configured; the planner scans them in order.
type DayAvailability struct {
	Enabled  bool
	Work     []TimeWindow
	Personal []TimeWindow
}

// Windows returns the window list for a mode. Unknown modes fall back to
// personal windows.
func (d DayAvailability) Windows(mode string) []TimeWindow {
	if mode == ModeWork {
		return d.Work
	}
	return d.Personal
}

// WeekAvailability maps weekdays to stored availability overrides. Missing
// weekdays fall back wholesale to the built-in default for that day.
type WeekAvailability map[time.Weekday]DayAvailability

// DefaultDayAvailability returns the built-in availability for a weekday:
// Sunday disabled, Mon-Sat with work 09:00-17:00 and personal 17:00-21:00.
func DefaultDayAvailability(wd time.Weekday) DayAvailability {
	if wd == time.Sunday {
		return DayAvailability{Enabled: false}
	}
	return DayAvailability{
		Enabled:  true,
		Work:     []TimeWindow{{Start: "09:00", End: "17:00"}},
		Personal: []TimeWindow{{Start: "17:00", End: "21:00"}},
	}
}

// Resolve returns the availability for a weekday, using the stored entry
// when present and the built-in default otherwise. A stored entry replaces
// the default wholesale, it is not merged field by field.
func (w WeekAvailability) Resolve(wd time.Weekday) DayAvailability {
	if w != nil {
		if day, ok := w[wd]; ok {
			return day
		}
	}
	return DefaultDayAvailability(wd)
}
