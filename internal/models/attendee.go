package models

import (
	"fmt"
	"net/mail"
	"strings"
)

// ParseAttendees splits a semicolon separated attendee list into normalised addresses.
// Blank segments are dropped, so "" and ";" both yield no attendees.
func ParseAttendees(input string) ([]string, error) {
	var attendees []string
	for _, part := range strings.Split(input, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		addr, err := mail.ParseAddress(part)
		if err != nil {
			return nil, fmt.Errorf("invalid attendee %q: %w", part, err)
		}
		attendees = append(attendees, strings.ToLower(addr.Address))
	}
	return attendees, nil
}
