package contribution

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/ajo/internal/cycle"
)

// Contribution is an immutable ledger row. Exactly one of GoalID and GroupID
// is set; CycleIndex is set only for group contributions.
type Contribution struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	GoalID     *uuid.UUID
	GroupID    *uuid.UUID
	CycleIndex *int
	Amount     decimal.Decimal
	Note       string
	Date       time.Time
	CreatedAt  time.Time
}

type TargetKind string

const (
	TargetGoal  TargetKind = "goal"
	TargetGroup TargetKind = "group"
)

func (c *Contribution) Kind() TargetKind {
	if c.GroupID != nil {
		return TargetGroup
	}

	return TargetGoal
}

type Target struct {
	GoalID  *uuid.UUID
	GroupID *uuid.UUID
}

func GoalTarget(id uuid.UUID) Target  { return Target{GoalID: &id} }
func GroupTarget(id uuid.UUID) Target { return Target{GroupID: &id} }

// GroupClock is what the recorder needs from a group to place a contribution
// in a cycle.
type GroupClock struct {
	Frequency    cycle.Frequency
	Anchor       time.Time
	CurrentCycle int
	CycleAmount  decimal.Decimal
}
