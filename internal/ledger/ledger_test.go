package ledger_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/MrJamesThe3rd/ajo/internal/ledger"
)

var (
	start = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	due   = decimal.NewFromInt(1000)
)

func entry(user uuid.UUID, amount int64, idx int, at time.Time) ledger.Entry {
	return ledger.Entry{UserID: user, Amount: decimal.NewFromInt(amount), Date: at, Cycle: idx}
}

func TestStatus(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	stranger := uuid.New()
	members := []uuid.UUID{a, b, c}

	tests := []struct {
		name    string
		entries []ledger.Entry
		want    map[uuid.UUID]bool
	}{
		{
			name:    "no contributions",
			entries: nil,
			want:    map[uuid.UUID]bool{a: false, b: false, c: false},
		},
		{
			name: "exact and over payment count",
			entries: []ledger.Entry{
				entry(a, 1000, 0, start),
				entry(b, 1500, 0, start.Add(48*time.Hour)),
			},
			want: map[uuid.UUID]bool{a: true, b: true, c: false},
		},
		{
			name: "partial payments do not add up",
			entries: []ledger.Entry{
				entry(c, 500, 0, start.Add(time.Hour)),
				entry(c, 500, 0, start.Add(2*time.Hour)),
			},
			want: map[uuid.UUID]bool{a: false, b: false, c: false},
		},
		{
			name: "only the requested cycle counts",
			entries: []ledger.Entry{
				entry(a, 1000, 1, start.AddDate(0, 0, 7)),
				entry(b, 1000, 2, start.AddDate(0, 0, 14)),
			},
			want: map[uuid.UUID]bool{a: false, b: false, c: false},
		},
		{
			name: "late settlement counts toward its cycle",
			entries: []ledger.Entry{
				entry(c, 1000, 0, start.AddDate(0, 0, 8)),
			},
			want: map[uuid.UUID]bool{a: false, b: false, c: true},
		},
		{
			name:    "non members are ignored",
			entries: []ledger.Entry{entry(stranger, 5000, 0, start)},
			want:    map[uuid.UUID]bool{a: false, b: false, c: false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ledger.Status(members, tt.entries, due, 0)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestComplete(t *testing.T) {
	a, b := uuid.New(), uuid.New()

	assert.False(t, ledger.Complete(nil))
	assert.False(t, ledger.Complete(map[uuid.UUID]bool{a: true, b: false}))
	assert.True(t, ledger.Complete(map[uuid.UUID]bool{a: true, b: true}))
}

func TestOutstanding(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	status := map[uuid.UUID]bool{a: true, b: false, c: false}

	assert.Equal(t, []uuid.UUID{b, c}, ledger.Outstanding([]uuid.UUID{a, b, c}, status))
	assert.Empty(t, ledger.Outstanding([]uuid.UUID{a}, status))
}

func TestCollected(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	entries := []ledger.Entry{
		entry(a, 1000, 0, start),
		entry(b, 400, 0, start.Add(time.Hour)),
		entry(b, 700, 1, start.AddDate(0, 0, 7)),
		entry(uuid.New(), 900, 0, start),
	}

	got := ledger.Collected([]uuid.UUID{a, b}, entries, 0)
	assert.True(t, decimal.NewFromInt(1400).Equal(got), "got %s", got)
}
