// Package ics renders listed Outlook events as iCalendar data.
package ics

import (
	"fmt"
	"io"
	"time"

	"outlookcal/internal/models"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"
)

const productID = "-//outlookcal//EN"

// namespace scopes the name-based UIDs generated by UID.
var namespace = uuid.NewSHA1(uuid.NameSpaceDNS, []byte("outlookcal"))

// UID derives a stable identifier from an event's subject and times, so the
// same Outlook event maps to the same iCalendar object on every run. Start and
// End are read in loc and hashed as UTC instants, so the zone the event was
// fetched in does not change the result.
func UID(e models.Event, loc *time.Location) (string, error) {
	start, end, err := times(e, loc)
	if err != nil {
		return "", err
	}
	return uid(e.Subject, start, end), nil
}

func uid(subject string, start, end time.Time) string {
	name := subject + "\x00" + start.UTC().Format(time.RFC3339) + "\x00" + end.UTC().Format(time.RFC3339)
	return uuid.NewSHA1(namespace, []byte(name)).String()
}

func times(e models.Event, loc *time.Location) (time.Time, time.Time, error) {
	start, err := e.StartTime(loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := e.EndTime(loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

// NewCalendar returns an empty VCALENDAR with the mandatory properties set.
func NewCalendar() *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, productID)
	return cal
}

// Component converts an event to a VEVENT. Start and End are read in loc,
// the zone the event was fetched in.
func Component(e models.Event, loc *time.Location, stamp time.Time) (*ical.Component, error) {
	start, end, err := times(e, loc)
	if err != nil {
		return nil, err
	}

	ve := ical.NewComponent(ical.CompEvent)
	ve.Props.SetText(ical.PropUID, uid(e.Subject, start, end))
	ve.Props.SetText(ical.PropSummary, e.Subject)
	ve.Props.SetDateTime(ical.PropDateTimeStamp, stamp.UTC())
	ve.Props.SetDateTime(ical.PropDateTimeStart, start.UTC())
	ve.Props.SetDateTime(ical.PropDateTimeEnd, end.UTC())
	if e.Organizer != "" {
		// Only the organizer's name is listed, which is not a valid ORGANIZER value.
		ve.Props.SetText(ical.PropDescription, "Organizer: "+e.Organizer)
	}
	return ve, nil
}

// Single wraps one event in its own calendar object, as CalDAV servers expect.
func Single(e models.Event, loc *time.Location, stamp time.Time) (*ical.Calendar, error) {
	ve, err := Component(e, loc, stamp)
	if err != nil {
		return nil, err
	}
	cal := NewCalendar()
	cal.Children = append(cal.Children, ve)
	return cal, nil
}

// Encode writes all events to w as a single VCALENDAR.
func Encode(w io.Writer, events []models.Event, loc *time.Location, stamp time.Time) error {
	cal := NewCalendar()
	for _, e := range events {
		ve, err := Component(e, loc, stamp)
		if err != nil {
			return fmt.Errorf("failed to convert event %q: %w", e.Subject, err)
		}
		cal.Children = append(cal.Children, ve)
	}

	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return fmt.Errorf("failed to encode calendar: %w", err)
	}
	return nil
}
