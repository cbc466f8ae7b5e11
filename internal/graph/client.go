// Package graph talks to the Microsoft Graph calendar endpoints.
package graph

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"outlookcal/internal/models"

	"github.com/goccy/go-json"
)

const (
	// DefaultTop is the number of events ListEvents asks for when Window.Top is unset.
	DefaultTop = 25

	eventSelect  = "subject,organizer,start,end"
	eventOrderBy = "start/dateTime"
)

// Client provides access to the signed-in user's Outlook calendar.
type Client struct {
	httpClient *http.Client
	baseURL    string
	loc        *time.Location
	logger     *slog.Logger
}

// NewClient creates a Graph client. httpClient is expected to authenticate its
// requests (see auth.NewHTTPClient). Event times are exchanged with Graph in loc.
func NewClient(logger *slog.Logger, httpClient *http.Client, baseURL string, loc *time.Location) *Client {
	if loc == nil {
		loc = time.UTC
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		loc:        loc,
		logger:     logger,
	}
}

// Location is the zone event times are exchanged in.
func (c *Client) Location() *time.Location {
	return c.loc
}

// Window narrows ListEvents. The zero Window lists the first DefaultTop events.
type Window struct {
	From time.Time // Only events starting at or after From
	To   time.Time // Only events ending at or before To
	Top  int
}

func (w Window) query() string {
	top := w.Top
	if top <= 0 {
		top = DefaultTop
	}
	q := fmt.Sprintf("$select=%s&$orderby=%s&$top=%d", eventSelect, eventOrderBy, top)

	// Graph compares filter values against the stored UTC times.
	var filters []string
	if !w.From.IsZero() {
		filters = append(filters, fmt.Sprintf("start/dateTime ge '%s'", w.From.UTC().Format(models.GraphDateTimeLayout)))
	}
	if !w.To.IsZero() {
		filters = append(filters, fmt.Sprintf("end/dateTime le '%s'", w.To.UTC().Format(models.GraphDateTimeLayout)))
	}
	if len(filters) > 0 {
		q += "&$filter=" + escapeQuery(strings.Join(filters, " and "))
	}
	return q
}

// ListEvents fetches events from /me/events, ordered by start time.
// Items missing any of subject, organizer name, start or end are skipped.
func (c *Client) ListEvents(ctx context.Context, w Window) ([]models.Event, error) {
	endpoint := c.baseURL + "/me/events?" + w.query()
	c.logger.Debug("Fetching events", "url", endpoint)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Prefer", c.preferTimeZone())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, newAPIError(resp)
	}

	var result struct {
		Value []graphEvent `json:"value"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	events := make([]models.Event, 0, len(result.Value))
	for i, item := range result.Value {
		event := item.toInternal()
		if !event.Complete() {
			c.logger.Warn("Skipping incomplete event", "index", i, "subject", event.Subject)
			continue
		}
		events = append(events, event)
	}

	c.logger.Info("Successfully fetched events from Outlook", "count", len(events), "received", len(result.Value))
	return events, nil
}

// CreatedEvent is the event Graph stored in response to CreateEvent.
type CreatedEvent struct {
	ID      string
	WebLink string
	models.Event
}

// CreateEvent posts a new event to /me/events.
func (c *Client) CreateEvent(ctx context.Context, n models.NewEvent) (*CreatedEvent, error) {
	if err := n.Validate(); err != nil {
		return nil, err
	}

	body, err := json.Marshal(c.toGraphEvent(n))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}

	c.logger.Debug("Creating event", "subject", n.Subject, "attendees", len(n.Attendees))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/me/events", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", c.preferTimeZone())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return nil, newAPIError(resp)
	}

	var created graphEvent
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	c.logger.Info("Successfully created event in Outlook", "subject", created.Subject, "id", created.ID)
	return &CreatedEvent{
		ID:      created.ID,
		WebLink: created.WebLink,
		Event:   created.toInternal(),
	}, nil
}

func (c *Client) toGraphEvent(n models.NewEvent) *graphEvent {
	attendees := make([]graphAttendee, 0, len(n.Attendees))
	for _, addr := range n.Attendees {
		attendees = append(attendees, graphAttendee{
			Type:         "required",
			EmailAddress: emailAddress{Address: addr},
		})
	}
	return &graphEvent{
		Subject:   n.Subject,
		Start:     c.dateTime(n.Start),
		End:       c.dateTime(n.End),
		Attendees: attendees,
		Body:      &itemBody{Content: n.Body, ContentType: "text"},
	}
}

func (c *Client) dateTime(t time.Time) *dateTimeTimeZone {
	return &dateTimeTimeZone{
		DateTime: t.In(c.loc).Format(models.GraphDateTimeLayout),
		TimeZone: zoneName(c.loc),
	}
}

func (c *Client) preferTimeZone() string {
	return fmt.Sprintf("outlook.timezone=%q", zoneName(c.loc))
}

// zoneName returns a name Graph understands for loc.
func zoneName(loc *time.Location) string {
	if name := loc.String(); name != "" && name != "Local" {
		return name
	}
	return "UTC"
}

func escapeQuery(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
