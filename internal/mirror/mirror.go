// Package mirror copies Outlook events one way into a CalDAV calendar.
package mirror

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"outlookcal/internal/graph"
	"outlookcal/internal/ics"
	"outlookcal/internal/models"

	"github.com/emersion/go-ical"
)

// EventLister is the Outlook side of the mirror.
type EventLister interface {
	ListEvents(ctx context.Context, w graph.Window) ([]models.Event, error)
	Location() *time.Location
}

// Publisher is the CalDAV side of the mirror.
type Publisher interface {
	PutEvent(ctx context.Context, uid string, cal *ical.Calendar) error
}

// State records mirrored events. The key is the event UID, the value its subject.
type State map[string]string

// Mirror orchestrates the copy from Outlook to CalDAV.
type Mirror struct {
	logger    *slog.Logger
	lister    EventLister
	publisher Publisher
	window    graph.Window
	stateFile string
	state     State
	dryRun    bool
	now       func() time.Time
}

// Stats summarises one Run.
type Stats struct {
	Listed   int
	Mirrored int
	Skipped  int
	Failed   int
}

// New creates a Mirror, loading previously mirrored UIDs from stateFile.
func New(logger *slog.Logger, lister EventLister, publisher Publisher, window graph.Window, stateFile string, dryRun bool) (*Mirror, error) {
	state, err := loadState(stateFile)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load mirror state: %w", err)
		}
		logger.Info("No mirror state file found, starting fresh.", "file", stateFile)
		state = make(State)
	}

	return &Mirror{
		logger:    logger,
		lister:    lister,
		publisher: publisher,
		window:    window,
		stateFile: stateFile,
		state:     state,
		dryRun:    dryRun,
		now:       time.Now,
	}, nil
}

// Run performs one mirror cycle. Failures on single events are logged and counted.
func (m *Mirror) Run(ctx context.Context) (Stats, error) {
	m.logger.Info("Starting mirror cycle.")

	events, err := m.lister.ListEvents(ctx, m.window)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to list outlook events: %w", err)
	}

	stats := Stats{Listed: len(events)}
	for _, event := range events {
		mirrored, err := m.mirrorEvent(ctx, event)
		switch {
		case err != nil:
			stats.Failed++
			m.logger.Error("Failed to mirror event", "subject", event.Subject, "error", err)
		case mirrored:
			stats.Mirrored++
		default:
			stats.Skipped++
		}
	}

	if !m.dryRun && stats.Mirrored > 0 {
		if err := m.saveState(); err != nil {
			return stats, fmt.Errorf("failed to save mirror state: %w", err)
		}
	}

	m.logger.Info("Mirror cycle finished.", "listed", stats.Listed, "mirrored", stats.Mirrored,
		"skipped", stats.Skipped, "failed", stats.Failed)
	return stats, nil
}

// mirrorEvent reports whether the event was written (or would be, in a dry run).
func (m *Mirror) mirrorEvent(ctx context.Context, event models.Event) (bool, error) {
	uid, err := ics.UID(event, m.lister.Location())
	if err != nil {
		return false, err
	}
	if _, exists := m.state[uid]; exists {
		m.logger.Debug("Event already mirrored, skipping.", "subject", event.Subject, "uid", uid)
		return false, nil
	}

	cal, err := ics.Single(event, m.lister.Location(), m.now())
	if err != nil {
		return false, err
	}

	if m.dryRun {
		m.logger.Info("[DRY RUN] Would mirror event", "subject", event.Subject, "start", event.Start)
		return true, nil
	}

	if err := m.publisher.PutEvent(ctx, uid, cal); err != nil {
		return false, err
	}
	m.state[uid] = event.Subject
	m.logger.Info("Mirrored event", "subject", event.Subject, "uid", uid)
	return true, nil
}

func loadState(path string) (State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	if state == nil {
		state = make(State)
	}
	return state, nil
}

func (m *Mirror) saveState() error {
	data, err := json.MarshalIndent(m.state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal mirror state: %w", err)
	}
	return os.WriteFile(m.stateFile, data, 0o644)
}
