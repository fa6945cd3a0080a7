// Package timeparse resolves the Polish time expressions produced by the
// assistant ("za 2 godziny", "25.12.2024 10:00", "14:30") into absolute
// instants.
package timeparse

import (
	"strconv"
	"strings"
	"time"

	"github.com/wasilibs/go-re2"
)

// DisplayLayout is the format used for times shown to users and the LLM.
const DisplayLayout = "02.01.2006 15:04"

// DefaultDelay is applied when an expression cannot be understood.
const DefaultDelay = time.Hour

var (
	relativePattern = re2.MustCompile(`^za\s+(\d+)\s+(\S+)`)
	absolutePattern = re2.MustCompile(`^(\d{1,2})\.(\d{1,2})\.(\d{4})\s+(\d{1,2}):(\d{2})$`)
	clockPattern    = re2.MustCompile(`^(\d{2}):(\d{2})$`)
)

// Parse never fails: anything it cannot resolve becomes now + DefaultDelay.
//
// Grammars are tried in order and only the first one whose shape matches the
// input is attempted:
//  1. "za <N> <unit>" with unit stems minut, godzin, dni/dzie
//  2. "DD.MM.YYYY HH:MM"
//  3. "HH:MM" (exactly five characters), rolled to tomorrow unless strictly after now
func Parse(expr string, now time.Time) time.Time {
	s := strings.ToLower(strings.TrimSpace(expr))

	switch {
	case strings.HasPrefix(s, "za "):
		if t, ok := parseRelative(s, now); ok {
			return t
		}
	case strings.Contains(s, ".") && strings.Contains(s, ":"):
		if t, ok := parseAbsolute(s, now.Location()); ok {
			return t
		}
	case len(s) == 5 && strings.Contains(s, ":"):
		if t, ok := parseClock(s, now); ok {
			return t
		}
	}

	return now.Add(DefaultDelay)
}

func parseRelative(s string, now time.Time) (time.Time, bool) {
	m := relativePattern.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return time.Time{}, false
	}

	unit := m[2]
	switch {
	case strings.Contains(unit, "minut"):
		return now.Add(time.Duration(n) * time.Minute), true
	case strings.Contains(unit, "godzin"):
		return now.Add(time.Duration(n) * time.Hour), true
	case strings.Contains(unit, "dni"), strings.HasPrefix(unit, "dzie"):
		return now.AddDate(0, 0, n), true
	}
	return time.Time{}, false
}

func parseAbsolute(s string, loc *time.Location) (time.Time, bool) {
	m := absolutePattern.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}
	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	hour, _ := strconv.Atoi(m[4])
	minute, _ := strconv.Atoi(m[5])

	if hour > 23 || minute > 59 {
		return time.Time{}, false
	}

	t := time.Date(year, time.Month(month), day, hour, minute, 0, 0, loc)
	// time.Date normalizes 31.02 into March; reject instead.
	if t.Day() != day || int(t.Month()) != month || t.Year() != year {
		return time.Time{}, false
	}
	return t, true
}

func parseClock(s string, now time.Time) (time.Time, bool) {
	m := clockPattern.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}
	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	if hour > 23 || minute > 59 {
		return time.Time{}, false
	}

	t := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !t.After(now) {
		t = t.AddDate(0, 0, 1)
	}
	return t, true
}

// Format renders t in DisplayLayout.
func Format(t time.Time) string {
	return t.Format(DisplayLayout)
}
