// Package payout assigns payout positions to group members and decides who
// receives the pot for a given cycle.
package payout

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/ajo/internal/errs"
)

// Seat is a member's position in the payout rotation, 1-based.
type Seat struct {
	UserID uuid.UUID
	Order  int
}

// Assign returns the lowest payout order in [1, limit] that is neither held by
// a seat nor retired by a departed member.
func Assign(seats []Seat, vacated []int, limit int) (int, error) {
	taken := make(map[int]struct{}, len(seats)+len(vacated))
	for _, s := range seats {
		taken[s.Order] = struct{}{}
	}

	for _, o := range vacated {
		taken[o] = struct{}{}
	}

	for order := 1; order <= limit; order++ {
		if _, ok := taken[order]; !ok {
			return order, nil
		}
	}

	return 0, errs.ErrGroupFull
}

// PayeeOrder is the payout order that receives the pot in cycle idx.
func PayeeOrder(idx, limit int) int {
	if limit <= 0 {
		return 0
	}

	return idx%limit + 1
}

// Payee finds the seat that receives the pot in cycle idx. It reports false when
// the order belongs to nobody, either because it was never assigned or its
// holder left.
func Payee(seats []Seat, idx, limit int) (Seat, bool) {
	order := PayeeOrder(idx, limit)

	for _, s := range seats {
		if s.Order == order {
			return s, true
		}
	}

	return Seat{}, false
}

// Validate checks that orders are unique, inside [1, limit], and that held and
// retired orders together form 1..k with no gaps.
func Validate(seats []Seat, vacated []int, limit int) error {
	if len(seats) > limit {
		return fmt.Errorf("%d members exceed limit %d: %w", len(seats), limit, errs.ErrGroupFull)
	}

	orders := make([]int, 0, len(seats)+len(vacated))
	for _, s := range seats {
		orders = append(orders, s.Order)
	}

	orders = append(orders, vacated...)
	sort.Ints(orders)

	for i, o := range orders {
		if o < 1 || o > limit {
			return errs.Invalid("payout order %d outside 1..%d", o, limit)
		}

		if o != i+1 {
			if i > 0 && orders[i-1] == o {
				return errs.Invalid("payout order %d assigned twice", o)
			}

			return errs.Invalid("payout order %d missing", i+1)
		}
	}

	return nil
}

// Due reports whether a cycle that ended at end may be closed at now.
func Due(complete bool, now, end time.Time) bool {
	return complete && !now.Before(end)
}

// Rotation lists payees for n cycles starting at from. Cycles whose order is
// unheld carry a zero UserID.
func Rotation(seats []Seat, from, n, limit int) []Seat {
	out := make([]Seat, 0, n)

	for i := from; i < from+n; i++ {
		s, ok := Payee(seats, i, limit)
		if !ok {
			s = Seat{Order: PayeeOrder(i, limit)}
		}

		out = append(out, s)
	}

	return out
}
