// Package ledger derives per-cycle contribution status from the append-only
// contribution ledger. Nothing here is stored; every answer is recomputed from
// the entries passed in.
package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Entry is the part of a group contribution the ledger needs. Cycle is the
// index the contribution was recorded against, which for a payment settling
// arrears is earlier than the cycle its date falls in.
type Entry struct {
	UserID uuid.UUID
	Amount decimal.Decimal
	Date   time.Time
	Cycle  int
}

// Status reports, for every member, whether a single entry of at least
// required was recorded against cycle idx. Partial payments do not add up and
// overpayment does not carry into the next cycle.
func Status(members []uuid.UUID, entries []Entry, required decimal.Decimal, idx int) map[uuid.UUID]bool {
	status := make(map[uuid.UUID]bool, len(members))
	for _, m := range members {
		status[m] = false
	}

	for _, e := range entries {
		paid, isMember := status[e.UserID]
		if !isMember || paid {
			continue
		}

		if e.Cycle != idx {
			continue
		}

		if e.Amount.GreaterThanOrEqual(required) {
			status[e.UserID] = true
		}
	}

	return status
}

// Complete is true when there is at least one member and all of them paid.
func Complete(status map[uuid.UUID]bool) bool {
	if len(status) == 0 {
		return false
	}

	for _, paid := range status {
		if !paid {
			return false
		}
	}

	return true
}

// Outstanding lists the members that have not paid, in the order given.
func Outstanding(members []uuid.UUID, status map[uuid.UUID]bool) []uuid.UUID {
	var out []uuid.UUID

	for _, m := range members {
		if !status[m] {
			out = append(out, m)
		}
	}

	return out
}

// Collected sums the entries recorded against cycle idx by the given members.
func Collected(members []uuid.UUID, entries []Entry, idx int) decimal.Decimal {
	in := make(map[uuid.UUID]struct{}, len(members))
	for _, m := range members {
		in[m] = struct{}{}
	}

	total := decimal.Zero

	for _, e := range entries {
		if _, ok := in[e.UserID]; !ok {
			continue
		}

		if e.Cycle != idx {
			continue
		}

		total = total.Add(e.Amount)
	}

	return total
}
