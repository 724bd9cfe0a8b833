package goal

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Goal is a personal savings target. Its saved amount is never stored; it is
// summed from the contribution ledger on every read.
type Goal struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	Name         string
	TargetAmount decimal.Decimal
	TargetDate   *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Progress struct {
	Goal      *Goal
	Saved     decimal.Decimal
	Remaining decimal.Decimal
	// Percent is saved over target, rounded to two places. It exceeds 100 on overpayment.
	Percent  decimal.Decimal
	Complete bool
}

type Summary struct {
	Goals     int
	Completed int
	Saved     decimal.Decimal
	Target    decimal.Decimal
}

var hundred = decimal.NewFromInt(100)

func newProgress(g *Goal, saved decimal.Decimal) Progress {
	p := Progress{
		Goal:      g,
		Saved:     saved,
		Remaining: decimal.Max(g.TargetAmount.Sub(saved), decimal.Zero),
		Complete:  saved.GreaterThanOrEqual(g.TargetAmount),
	}

	if g.TargetAmount.IsPositive() {
		p.Percent = saved.Mul(hundred).Div(g.TargetAmount).Round(2)
	}

	return p
}
