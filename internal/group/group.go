package group

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/ajo/internal/cycle"
	"github.com/MrJamesThe3rd/ajo/internal/payout"
)

// ErrInviteCodeTaken is returned by the store when an insert loses a race for
// an invite code. Create retries on it.
var ErrInviteCodeTaken = errors.New("invite code taken")

type Group struct {
	ID                uuid.UUID
	Name              string
	CycleAmount       decimal.Decimal
	Frequency         cycle.Frequency
	MemberLimit       int
	InviteCode        string
	AnchorDate        time.Time
	CurrentCycleIndex int
	CreatedBy         uuid.UUID
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// NextPayoutDate is the end of the current cycle.
func (g *Group) NextPayoutDate() time.Time {
	_, end := cycle.Boundary(g.Frequency, g.AnchorDate, g.CurrentCycleIndex)
	return end
}

type Member struct {
	GroupID     uuid.UUID
	UserID      uuid.UUID
	Name        string
	PayoutOrder int
	JoinedAt    time.Time
}

type MemberStatus struct {
	Member      *Member
	Contributed bool
}

// Status is the read view of a group at its current cycle.
type Status struct {
	Group      *Group
	CycleIndex int
	CycleStart time.Time
	CycleEnd   time.Time
	// Payee is nil when the payout order for this cycle has no holder.
	Payee     *Member
	Members   []MemberStatus
	Complete  bool
	InArrears bool
	Pool      decimal.Decimal
	Collected decimal.Decimal
}

func (s *Status) IsMember(userID uuid.UUID) bool {
	for _, m := range s.Members {
		if m.Member.UserID == userID {
			return true
		}
	}

	return false
}

type ScheduledPayout struct {
	CycleIndex  int
	Start       time.Time
	PayoutDate  time.Time
	PayoutOrder int
	Payee       *Member
}

func seats(members []*Member) []payout.Seat {
	out := make([]payout.Seat, len(members))
	for i, m := range members {
		out[i] = payout.Seat{UserID: m.UserID, Order: m.PayoutOrder}
	}

	return out
}

func userIDs(members []*Member) []uuid.UUID {
	out := make([]uuid.UUID, len(members))
	for i, m := range members {
		out[i] = m.UserID
	}

	return out
}

func findMember(members []*Member, userID uuid.UUID) *Member {
	for _, m := range members {
		if m.UserID == userID {
			return m
		}
	}

	return nil
}
