package domain

import "time"

// EventKey uniquely identifies one external calendar event.
type EventKey struct {
	Provider   string
	AccountID  string
	CalendarID string
	EventID    string
}

// CalendarEvent is an externally fetched calendar event snapshot.
type CalendarEvent struct {
	Provider   string
	AccountID  string
	CalendarID string
	EventID    string
	Title      string
	Start      time.Time
	End        time.Time
	AllDay     bool
	Location   string
}

func (e *CalendarEvent) Key() EventKey {
	return EventKey{Provider: e.Provider, AccountID: e.AccountID, CalendarID: e.CalendarID, EventID: e.EventID}
}

// HasTimes reports whether both instants parsed; events without them are
// excluded from fuzzy matching but still render.
func (e *CalendarEvent) HasTimes() bool {
	return !e.Start.IsZero() && !e.End.IsZero()
}

// FormatTime returns the event's time range for display.
func (e *CalendarEvent) FormatTime() string {
	if e.AllDay {
		return "all day"
	}
	if e.End.IsZero() {
		return e.Start.Format("15:04")
	}
	return e.Start.Format("15:04") + "-" + e.End.Format("15:04")
}

// Calendar describes one calendar on a connected account.
type Calendar struct {
	ID       string
	Name     string
	Writable bool
	Shared   bool
	Hidden   bool
}

// Account is a connected calendar account.
type Account struct {
	ID       string
	Provider string
	Email    string
}

// CalendarPrefs holds the user's stored calendar selections.
type CalendarPrefs struct {
	DefaultCalendarID string
	// DomainCalendars maps a scheduling domain ("work"/"personal") to the
	// calendar new events for that domain should land on.
	DomainCalendars map[string]string
	// ReadCalendarIDs are the calendars consulted for busy time and agenda.
	ReadCalendarIDs []string
}
