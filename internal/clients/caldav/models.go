package caldav

import "time"

// Calendar is one calendar discovered on the CalDAV account.
type Calendar struct {
	ID          string // Calendar path on the server
	DisplayName string
	Description string
}

// Event is a single calendar event as stored on the server.
type Event struct {
	UID       string
	Summary   string
	Location  string
	StartTime time.Time
	EndTime   time.Time
	AllDay    bool
}
