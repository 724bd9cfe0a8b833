package cycle_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/ajo/internal/cycle"
)

func day(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func TestParseFrequency(t *testing.T) {
	tests := []struct {
		in      string
		want    cycle.Frequency
		wantErr bool
	}{
		{in: "Daily", want: cycle.Daily},
		{in: "weekly", want: cycle.Weekly},
		{in: " MONTHLY ", want: cycle.Monthly},
		{in: "yearly", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := cycle.ParseFrequency(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBoundary(t *testing.T) {
	tests := []struct {
		name      string
		freq      cycle.Frequency
		anchor    time.Time
		index     int
		wantStart time.Time
		wantEnd   time.Time
	}{
		{"daily first", cycle.Daily, day(2025, 1, 1), 0, day(2025, 1, 1), day(2025, 1, 2)},
		{"daily across month", cycle.Daily, day(2025, 1, 30), 3, day(2025, 2, 2), day(2025, 2, 3)},
		{"weekly first", cycle.Weekly, day(2025, 1, 1), 0, day(2025, 1, 1), day(2025, 1, 8)},
		{"weekly second", cycle.Weekly, day(2025, 1, 1), 1, day(2025, 1, 8), day(2025, 1, 15)},
		{"monthly plain", cycle.Monthly, day(2025, 1, 15), 2, day(2025, 3, 15), day(2025, 4, 15)},
		{"monthly clamps to february", cycle.Monthly, day(2025, 1, 31), 1, day(2025, 2, 28), day(2025, 3, 31)},
		{"monthly clamps leap year", cycle.Monthly, day(2024, 1, 31), 1, day(2024, 2, 29), day(2024, 3, 31)},
		{"monthly clamps to 30 day month", cycle.Monthly, day(2025, 1, 31), 3, day(2025, 4, 30), day(2025, 5, 31)},
		{"monthly across year", cycle.Monthly, day(2025, 11, 30), 3, day(2026, 2, 28), day(2026, 3, 30)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := cycle.Boundary(tt.freq, tt.anchor, tt.index)
			assert.Equal(t, tt.wantStart, start)
			assert.Equal(t, tt.wantEnd, end)
		})
	}
}

func TestBoundary_NoGapsNoOverlaps(t *testing.T) {
	anchors := []time.Time{day(2025, 1, 1), day(2025, 1, 31), day(2024, 2, 29), day(2025, 8, 30)}

	for _, f := range []cycle.Frequency{cycle.Daily, cycle.Weekly, cycle.Monthly} {
		for _, anchor := range anchors {
			for i := 0; i < 60; i++ {
				start, end := cycle.Boundary(f, anchor, i)
				nextStart, _ := cycle.Boundary(f, anchor, i+1)

				require.True(t, start.Before(end), "%s %s cycle %d is empty", f, anchor, i)
				require.Equal(t, end, nextStart, "%s %s cycle %d", f, anchor, i)
			}
		}
	}
}

func TestBoundary_Deterministic(t *testing.T) {
	anchor := day(2025, 1, 31)

	s1, e1 := cycle.Boundary(cycle.Monthly, anchor, 7)
	s2, e2 := cycle.Boundary(cycle.Monthly, anchor, 7)

	assert.Equal(t, s1, s2)
	assert.Equal(t, e1, e2)
}

func TestIndexAt(t *testing.T) {
	tests := []struct {
		name   string
		freq   cycle.Frequency
		anchor time.Time
		now    time.Time
		want   int
	}{
		{"before anchor", cycle.Weekly, day(2025, 1, 1), day(2024, 12, 1), 0},
		{"at anchor", cycle.Weekly, day(2025, 1, 1), day(2025, 1, 1), 0},
		{"end of first week", cycle.Weekly, day(2025, 1, 1), day(2025, 1, 7).Add(23 * time.Hour), 0},
		{"exact boundary", cycle.Weekly, day(2025, 1, 1), day(2025, 1, 8), 1},
		{"daily", cycle.Daily, day(2025, 1, 1), day(2025, 1, 11).Add(time.Hour), 10},
		{"monthly clamped", cycle.Monthly, day(2025, 1, 31), day(2025, 2, 28), 1},
		{"monthly before clamped start", cycle.Monthly, day(2025, 1, 31), day(2025, 2, 27), 0},
		{"monthly after clamped month", cycle.Monthly, day(2025, 1, 31), day(2025, 3, 30), 1},
		{"monthly next year", cycle.Monthly, day(2025, 1, 31), day(2026, 1, 31), 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cycle.IndexAt(tt.freq, tt.anchor, tt.now))
		})
	}
}

func TestIndexAt_MatchesBoundary(t *testing.T) {
	anchor := day(2025, 1, 31)

	for _, f := range []cycle.Frequency{cycle.Daily, cycle.Weekly, cycle.Monthly} {
		for i := 0; i < 40; i++ {
			start, end := cycle.Boundary(f, anchor, i)

			assert.Equal(t, i, cycle.IndexAt(f, anchor, start), "%s start of %d", f, i)
			assert.Equal(t, i, cycle.IndexAt(f, anchor, end.Add(-time.Second)), "%s end of %d", f, i)
		}
	}
}

func TestSchedule(t *testing.T) {
	got := cycle.Schedule(cycle.Weekly, day(2025, 1, 1), 2, 3)

	require.Len(t, got, 3)
	assert.Equal(t, 2, got[0].Index)
	assert.Equal(t, day(2025, 1, 15), got[0].Start)
	assert.Equal(t, day(2025, 1, 22), got[0].End)
	assert.Equal(t, got[0].End, got[1].Start)
	assert.Equal(t, 4, got[2].Index)
}
