package model

import "time"

// Calendar tags. The public schedule renders all of them; the events page
// shows only CalendarEvents.
const (
	CalendarMass    = "mass"
	CalendarEvents  = "event"
	CalendarBooking = "booking"
)

// EventTimeLayout is the wire format for event start/end values. The
// calendar widget consumes these strings verbatim, so they are stored
// as-is rather than as timestamps.
const EventTimeLayout = "2006-01-02 15:04"

type CalendarEvent struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Start       string    `json:"start"` // YYYY-MM-DD HH:mm
	End         string    `json:"end"`   // YYYY-MM-DD HH:mm
	Description string    `json:"description"`
	CalendarID  string    `json:"calendarId,omitempty"`
	RRule       string    `json:"rrule,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// StartTime parses the event's start string in the given location.
func (e CalendarEvent) StartTime(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(EventTimeLayout, e.Start, loc)
}

// EndTime parses the event's end string in the given location.
func (e CalendarEvent) EndTime(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(EventTimeLayout, e.End, loc)
}
