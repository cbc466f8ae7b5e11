// Package datetime turns user supplied date/time text into time.Time values.
package datetime

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// DisplayLayout is a medium date followed by a short time.
const DisplayLayout = "Jan 2, 2006 3:04 PM"

// ErrUnrecognized is returned when no layout matches and natural language
// parsing matches nothing or only part of the input.
var ErrUnrecognized = errors.New("unrecognized date/time")

// layouts are tried in order before falling back to natural language.
var layouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02 3:04pm",
	"2006-01-02 3:04 PM",
	"2006-01-02",
	DisplayLayout,
	"Jan 2, 2006 at 3:04 PM",
	"Jan 2 2006 3:04 PM",
	"Jan 2, 2006",
}

// fillers may surround a natural language match without changing its meaning.
var fillers = map[string]bool{"at": true, "on": true, "the": true, "of": true}

var parser = newParser()

func newParser() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}

// Parse reads input as a date/time in loc. Inputs without an explicit offset
// are interpreted in loc; natural language ("tomorrow at 3pm") is resolved
// relative to now.
func Parse(input string, loc *time.Location, now time.Time) (time.Time, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return time.Time{}, fmt.Errorf("%w: empty input", ErrUnrecognized)
	}
	if loc == nil {
		loc = time.UTC
	}

	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, input, loc); err == nil {
			return t, nil
		}
	}

	r, err := parser.Parse(input, now.In(loc))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %v", ErrUnrecognized, input, err)
	}
	if r == nil || !covers(input, r) {
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnrecognized, input)
	}
	return r.Time, nil
}

// covers reports whether every word of input is part of the match or a filler,
// so "banana 3pm" is rejected instead of read as 3pm.
func covers(input string, r *when.Result) bool {
	matched := map[string]int{}
	for _, w := range words(r.Text) {
		matched[w]++
	}
	for _, w := range words(input) {
		switch {
		case matched[w] > 0:
			matched[w]--
		case fillers[w]:
		default:
			return false
		}
	}
	return true
}

func words(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(c rune) bool {
		return unicode.IsSpace(c) || c == ','
	})
}

// Display formats t in loc for humans.
func Display(t time.Time, loc *time.Location) string {
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format(DisplayLayout)
}
