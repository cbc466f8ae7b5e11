package graph

import "outlookcal/internal/models"

// graphEvent is the subset of the Graph event resource this client reads and writes.
type graphEvent struct {
	ID        string            `json:"id,omitempty"`
	WebLink   string            `json:"webLink,omitempty"`
	Subject   string            `json:"subject"`
	Organizer *recipient        `json:"organizer,omitempty"`
	Start     *dateTimeTimeZone `json:"start"`
	End       *dateTimeTimeZone `json:"end"`
	Attendees []graphAttendee   `json:"attendees,omitempty"`
	Body      *itemBody         `json:"body,omitempty"`
}

type recipient struct {
	EmailAddress *emailAddress `json:"emailAddress"`
}

type emailAddress struct {
	Name    string `json:"name,omitempty"`
	Address string `json:"address"`
}

type dateTimeTimeZone struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

type graphAttendee struct {
	Type         string       `json:"type"`
	EmailAddress emailAddress `json:"emailAddress"`
}

type itemBody struct {
	Content     string `json:"content"`
	ContentType string `json:"contentType"`
}

func (g *graphEvent) toInternal() models.Event {
	e := models.Event{Subject: g.Subject}
	if g.Organizer != nil && g.Organizer.EmailAddress != nil {
		e.Organizer = g.Organizer.EmailAddress.Name
	}
	if g.Start != nil {
		e.Start = g.Start.DateTime
	}
	if g.End != nil {
		e.End = g.End.DateTime
	}
	return e
}
