package payout_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/ajo/internal/errs"
	"github.com/MrJamesThe3rd/ajo/internal/payout"
)

func seats(orders ...int) []payout.Seat {
	out := make([]payout.Seat, len(orders))
	for i, o := range orders {
		out[i] = payout.Seat{UserID: uuid.New(), Order: o}
	}

	return out
}

func TestAssign(t *testing.T) {
	tests := []struct {
		name    string
		seats   []payout.Seat
		vacated []int
		limit   int
		want    int
		wantErr error
	}{
		{name: "empty group", limit: 3, want: 1},
		{name: "next in line", seats: seats(1, 2), limit: 3, want: 3},
		{name: "skips retired order", seats: seats(1), vacated: []int{2}, limit: 3, want: 3},
		{name: "full", seats: seats(1, 2, 3), limit: 3, wantErr: errs.ErrGroupFull},
		{name: "full through retirement", seats: seats(1, 3), vacated: []int{2}, limit: 3, wantErr: errs.ErrGroupFull},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := payout.Assign(tt.seats, tt.vacated, tt.limit)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPayee(t *testing.T) {
	s := seats(1, 2, 3)

	for idx, want := range []int{1, 2, 3, 1, 2, 3} {
		got, ok := payout.Payee(s, idx, 3)
		require.True(t, ok)
		assert.Equal(t, want, got.Order, "cycle %d", idx)
	}
}

func TestPayee_VacatedOrder(t *testing.T) {
	s := seats(1, 3)

	_, ok := payout.Payee(s, 1, 3)
	assert.False(t, ok)

	got, ok := payout.Payee(s, 2, 3)
	require.True(t, ok)
	assert.Equal(t, 3, got.Order)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		seats   []payout.Seat
		vacated []int
		limit   int
		wantErr error
	}{
		{name: "contiguous", seats: seats(2, 1, 3), limit: 3},
		{name: "contiguous with retired", seats: seats(1, 3), vacated: []int{2}, limit: 4},
		{name: "gap", seats: seats(1, 3), limit: 3, wantErr: errs.ErrInvalidInput},
		{name: "duplicate", seats: seats(1, 1), limit: 3, wantErr: errs.ErrInvalidInput},
		{name: "out of range", seats: seats(0, 1), limit: 3, wantErr: errs.ErrInvalidInput},
		{name: "over limit", seats: seats(1, 2), limit: 1, wantErr: errs.ErrGroupFull},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := payout.Validate(tt.seats, tt.vacated, tt.limit)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
		})
	}
}

func TestDue(t *testing.T) {
	end := time.Date(2025, 1, 8, 0, 0, 0, 0, time.UTC)

	assert.False(t, payout.Due(false, end, end))
	assert.False(t, payout.Due(true, end.Add(-time.Second), end))
	assert.True(t, payout.Due(true, end, end))
	assert.True(t, payout.Due(true, end.Add(time.Hour), end))
}

func TestRotation(t *testing.T) {
	s := seats(1, 3)

	got := payout.Rotation(s, 1, 3, 3)
	require.Len(t, got, 3)
	assert.Equal(t, uuid.Nil, got[0].UserID)
	assert.Equal(t, 2, got[0].Order)
	assert.Equal(t, s[1].UserID, got[1].UserID)
	assert.Equal(t, s[0].UserID, got[2].UserID)
}
