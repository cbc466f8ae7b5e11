package models

import (
	"errors"
	"fmt"
	"time"
)

// GraphDateTimeLayout is the layout of the dateTime strings Microsoft Graph
// sends and accepts. Graph appends seven fractional digits on output, which
// time.Parse accepts without them being part of the layout.
const GraphDateTimeLayout = "2006-01-02T15:04:05"

// ErrInvalidEvent is returned when a NewEvent fails validation.
var ErrInvalidEvent = errors.New("invalid event")

// Event is a calendar event as listed from Outlook.
// Any field may be empty. Start and End keep the Graph dateTime strings as received.
type Event struct {
	Subject   string // Subject line of the event
	Organizer string // Organizer's display name
	Start     string // Start dateTime, in the zone requested from Graph
	End       string // End dateTime, in the zone requested from Graph
}

// Complete reports whether all four fields are present.
func (e Event) Complete() bool {
	return e.Subject != "" && e.Organizer != "" && e.Start != "" && e.End != ""
}

// StartTime parses Start, interpreting it in loc.
func (e Event) StartTime(loc *time.Location) (time.Time, error) {
	return ParseGraphDateTime(e.Start, loc)
}

// EndTime parses End, interpreting it in loc.
func (e Event) EndTime(loc *time.Location) (time.Time, error) {
	return ParseGraphDateTime(e.End, loc)
}

// ParseGraphDateTime parses a Graph dateTime string in loc.
func ParseGraphDateTime(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(GraphDateTimeLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse graph dateTime %q: %w", s, err)
	}
	return t, nil
}

// NewEvent holds everything needed to create an event.
type NewEvent struct {
	Subject   string
	Start     time.Time
	End       time.Time
	Attendees []string // Normalised attendee addresses, see ParseAttendees
	Body      string   // Plain text body
}

// Validate checks the fields Graph would otherwise reject or silently accept wrongly.
func (n NewEvent) Validate() error {
	switch {
	case n.Subject == "":
		return fmt.Errorf("%w: subject is empty", ErrInvalidEvent)
	case n.Start.IsZero():
		return fmt.Errorf("%w: start time is not set", ErrInvalidEvent)
	case n.End.IsZero():
		return fmt.Errorf("%w: end time is not set", ErrInvalidEvent)
	case !n.End.After(n.Start):
		return fmt.Errorf("%w: end time %s is not after start time %s", ErrInvalidEvent,
			n.End.Format(time.RFC3339), n.Start.Format(time.RFC3339))
	}
	return nil
}
