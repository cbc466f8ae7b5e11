package models_test

import (
	"errors"
	"testing"
	"time"

	"outlookcal/internal/models"

	"github.com/stretchr/testify/require"
)

func TestParseAttendees(t *testing.T) {
	t.Run("two addresses", func(t *testing.T) {
		got, err := models.ParseAttendees("a@x.com;b@y.com")
		require.NoError(t, err)
		require.Equal(t, []string{"a@x.com", "b@y.com"}, got)
	})

	t.Run("empty input", func(t *testing.T) {
		got, err := models.ParseAttendees("")
		require.NoError(t, err)
		require.Len(t, got, 0)
	})

	t.Run("whitespace, blanks and display names", func(t *testing.T) {
		got, err := models.ParseAttendees(" A@X.com ; ;Bob <bob@y.com>;")
		require.NoError(t, err)
		require.Equal(t, []string{"a@x.com", "bob@y.com"}, got)
	})

	t.Run("invalid address", func(t *testing.T) {
		_, err := models.ParseAttendees("a@x.com;not an address")
		require.Error(t, err)
		require.Contains(t, err.Error(), "not an address")
	})
}

func TestEventComplete(t *testing.T) {
	e := models.Event{Subject: "s", Organizer: "o", Start: "2021-10-09T10:00:00.0000000", End: "2021-10-09T11:00:00.0000000"}
	require.True(t, e.Complete())

	e.Organizer = ""
	require.False(t, e.Complete())
}

func TestEventTimes(t *testing.T) {
	e := models.Event{Start: "2021-10-09T10:00:00.0000000", End: "2021-10-09T11:30:00.0000000"}

	start, err := e.StartTime(time.UTC)
	require.NoError(t, err)
	require.Equal(t, time.Date(2021, 10, 9, 10, 0, 0, 0, time.UTC), start)

	end, err := e.EndTime(nil)
	require.NoError(t, err)
	require.Equal(t, time.Date(2021, 10, 9, 11, 30, 0, 0, time.UTC), end)

	_, err = models.Event{Start: "yesterday"}.StartTime(time.UTC)
	require.Error(t, err)
}

func TestNewEventValidate(t *testing.T) {
	start := time.Date(2021, 10, 9, 10, 0, 0, 0, time.UTC)
	valid := models.NewEvent{Subject: "Standup", Start: start, End: start.Add(time.Hour)}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name string
		edit func(*models.NewEvent)
	}{
		{"no subject", func(n *models.NewEvent) { n.Subject = "" }},
		{"no start", func(n *models.NewEvent) { n.Start = time.Time{} }},
		{"no end", func(n *models.NewEvent) { n.End = time.Time{} }},
		{"end equals start", func(n *models.NewEvent) { n.End = n.Start }},
		{"end before start", func(n *models.NewEvent) { n.End = n.Start.Add(-time.Minute) }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			n := valid
			tc.edit(&n)
			err := n.Validate()
			require.Error(t, err)
			require.True(t, errors.Is(err, models.ErrInvalidEvent))
		})
	}
}
