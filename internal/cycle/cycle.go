// Package cycle maps a contribution frequency and an anchor date onto the
// sequence of cycle boundaries. Everything here is pure: the same inputs always
// produce the same boundaries, which reconciliation relies on.
package cycle

import (
	"fmt"
	"strings"
	"time"
)

// Frequency is how often a group collects contributions.
type Frequency string

const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
)

// ParseFrequency accepts a frequency in any letter case ("Weekly", "weekly").
func ParseFrequency(s string) (Frequency, error) {
	f := Frequency(strings.ToLower(strings.TrimSpace(s)))
	if !f.Valid() {
		return "", fmt.Errorf("unknown frequency %q", s)
	}

	return f, nil
}

func (f Frequency) Valid() bool {
	switch f {
	case Daily, Weekly, Monthly:
		return true
	}

	return false
}

// Start returns the first instant of cycle i.
func Start(f Frequency, anchor time.Time, i int) time.Time {
	switch f {
	case Daily:
		return anchor.AddDate(0, 0, i)
	case Weekly:
		return anchor.AddDate(0, 0, 7*i)
	case Monthly:
		return addMonthsClamped(anchor, i)
	}

	panic(fmt.Sprintf("cycle: unknown frequency %q", f))
}

// Boundary returns the half-open window [start, end) of cycle i. The end of a
// cycle is always the start of the next one.
func Boundary(f Frequency, anchor time.Time, i int) (time.Time, time.Time) {
	return Start(f, anchor, i), Start(f, anchor, i+1)
}

// IndexAt returns the largest cycle index whose start is not after t.
// Instants before the anchor belong to cycle 0.
func IndexAt(f Frequency, anchor, t time.Time) int {
	if !t.After(anchor) {
		return 0
	}

	i := estimate(f, anchor, t)

	for i > 0 && Start(f, anchor, i).After(t) {
		i--
	}

	for !Start(f, anchor, i+1).After(t) {
		i++
	}

	return i
}

// Window is one entry of a cycle schedule.
type Window struct {
	Index int
	Start time.Time
	End   time.Time
}

// Schedule lists n consecutive cycles starting at index from.
func Schedule(f Frequency, anchor time.Time, from, n int) []Window {
	out := make([]Window, 0, n)
	for i := from; i < from+n; i++ {
		start, end := Boundary(f, anchor, i)
		out = append(out, Window{Index: i, Start: start, End: end})
	}

	return out
}

func estimate(f Frequency, anchor, t time.Time) int {
	switch f {
	case Daily:
		return max(int(t.Sub(anchor).Hours()/24), 0)
	case Weekly:
		return max(int(t.Sub(anchor).Hours()/(24*7)), 0)
	case Monthly:
		months := (t.Year()-anchor.Year())*12 + int(t.Month()) - int(anchor.Month())
		return max(months, 0)
	}

	return 0
}

// addMonthsClamped adds n calendar months to t, clamping the day to the last
// day of the target month (Jan 31 + 1 month = Feb 28/29).
func addMonthsClamped(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	last := daysIn(first.Year(), first.Month(), t.Location())

	return first.AddDate(0, 0, min(d, last)-1)
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}
