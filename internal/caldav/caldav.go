// Package caldav publishes events to a named calendar on a CalDAV server.
package caldav

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav"
	"github.com/emersion/go-webdav/caldav"
)

const userAgent = "outlookcal/1.0"

// userAgentTransport sets the User-Agent header on each request.
type userAgentTransport struct {
	Transport http.RoundTripper
}

// RoundTrip adds the User-Agent header.
func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.Header.Set("User-Agent", userAgent)
	return t.Transport.RoundTrip(r)
}

// Client is a client for a single calendar collection.
type Client struct {
	caldavClient *caldav.Client
	logger       *slog.Logger
	calendarPath string
}

// NewClient connects to endpoint and locates the calendar named calendarName
// through the principal and calendar home set.
func NewClient(ctx context.Context, logger *slog.Logger, endpoint, username, password, calendarName string, timeout time.Duration) (*Client, error) {
	c, err := newClient(endpoint, username, password, timeout, logger)
	if err != nil {
		return nil, err
	}

	logger.Info("Finding CalDAV calendar", "calendarName", calendarName)
	calendarPath, err := c.findCalendar(ctx, calendarName)
	if err != nil {
		return nil, fmt.Errorf("could not find calendar '%s': %w", calendarName, err)
	}
	c.calendarPath = calendarPath
	logger.Info("Successfully found CalDAV calendar", "path", calendarPath)

	return c, nil
}

func newClient(endpoint, username, password string, timeout time.Duration, logger *slog.Logger) (*Client, error) {
	httpClient := webdav.HTTPClientWithBasicAuth(&http.Client{
		Transport: &userAgentTransport{Transport: http.DefaultTransport},
		Timeout:   timeout,
	}, username, password)

	caldavClient, err := caldav.NewClient(httpClient, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create caldav client: %w", err)
	}
	return &Client{caldavClient: caldavClient, logger: logger}, nil
}

// PutEvent creates or replaces the calendar object <uid>.ics.
func (c *Client) PutEvent(ctx context.Context, uid string, cal *ical.Calendar) error {
	objectPath := path.Join(c.calendarPath, uid+".ics")
	c.logger.Debug("Writing calendar object", "path", objectPath)

	if _, err := c.caldavClient.PutCalendarObject(ctx, objectPath, cal); err != nil {
		return fmt.Errorf("failed to put calendar object %s: %w", objectPath, err)
	}
	return nil
}

// findCalendar discovers the user's calendars and returns the path of the one with the matching name.
func (c *Client) findCalendar(ctx context.Context, name string) (string, error) {
	principalPath, err := c.caldavClient.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to find principal path: %w", err)
	}

	homeSetPath, err := c.caldavClient.FindCalendarHomeSet(ctx, principalPath)
	if err != nil {
		return "", fmt.Errorf("failed to find calendar home set: %w", err)
	}

	calendars, err := c.caldavClient.FindCalendars(ctx, homeSetPath)
	if err != nil {
		return "", fmt.Errorf("failed to find calendars: %w", err)
	}

	return matchCalendar(calendars, name)
}

func matchCalendar(calendars []caldav.Calendar, name string) (string, error) {
	for _, cal := range calendars {
		if cal.Name == name {
			return cal.Path, nil
		}
	}
	return "", fmt.Errorf("no calendar found with name '%s'", name)
}
