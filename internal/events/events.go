// Package events publishes domain events after ledger writes commit.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Type string

const (
	ContributionRecorded Type = "contribution.recorded"
	MemberJoined         Type = "member.joined"
	MemberLeft           Type = "member.left"
	CycleAdvanced        Type = "cycle.advanced"
	GroupCreated         Type = "group.created"
)

type Event struct {
	ID         uuid.UUID        `json:"id"`
	Type       Type             `json:"type"`
	GroupID    *uuid.UUID       `json:"group_id,omitempty"`
	GoalID     *uuid.UUID       `json:"goal_id,omitempty"`
	UserID     *uuid.UUID       `json:"user_id,omitempty"`
	CycleIndex *int             `json:"cycle_index,omitempty"`
	Amount     *decimal.Decimal `json:"amount,omitempty"`
	OccurredAt time.Time        `json:"occurred_at"`
}

func New(t Type) Event {
	return Event{ID: uuid.New(), Type: t, OccurredAt: time.Now().UTC()}
}

func (e Event) WithGroup(id uuid.UUID) Event {
	e.GroupID = &id
	return e
}

func (e Event) WithGoal(id uuid.UUID) Event {
	e.GoalID = &id
	return e
}

func (e Event) WithUser(id uuid.UUID) Event {
	e.UserID = &id
	return e
}

func (e Event) WithCycle(idx int) Event {
	e.CycleIndex = &idx
	return e
}

func (e Event) WithAmount(amount decimal.Decimal) Event {
	e.Amount = &amount
	return e
}

func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// Publisher delivers events. Callers treat a failed publish as non-fatal.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
