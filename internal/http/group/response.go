package group

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/ajo/internal/cycle"
	"github.com/MrJamesThe3rd/ajo/internal/group"
)

type groupResponse struct {
	ID                uuid.UUID       `json:"id"`
	Name              string          `json:"name"`
	CycleAmount       decimal.Decimal `json:"cycle_amount"`
	Frequency         cycle.Frequency `json:"frequency"`
	MemberLimit       int             `json:"member_limit"`
	InviteCode        string          `json:"invite_code"`
	AnchorDate        time.Time       `json:"anchor_date"`
	CurrentCycleIndex int             `json:"current_cycle_index"`
	NextPayoutDate    time.Time       `json:"next_payout_date"`
	CreatedBy         uuid.UUID       `json:"created_by"`
	CreatedAt         time.Time       `json:"created_at"`
}

type memberResponse struct {
	UserID      uuid.UUID `json:"user_id"`
	Name        string    `json:"name,omitempty"`
	PayoutOrder int       `json:"payout_order"`
	JoinedAt    time.Time `json:"joined_at"`
}

type memberStatusResponse struct {
	memberResponse
	Contributed bool `json:"contributed"`
}

type statusResponse struct {
	Group      groupResponse          `json:"group"`
	CycleIndex int                    `json:"cycle_index"`
	CycleStart time.Time              `json:"cycle_start"`
	CycleEnd   time.Time              `json:"cycle_end"`
	Payee      *memberResponse        `json:"payee"`
	Members    []memberStatusResponse `json:"members"`
	Complete   bool                   `json:"complete"`
	InArrears  bool                   `json:"in_arrears"`
	Pool       decimal.Decimal        `json:"pool"`
	Collected  decimal.Decimal        `json:"collected"`
}

type payoutResponse struct {
	CycleIndex  int             `json:"cycle_index"`
	Start       time.Time       `json:"start"`
	PayoutDate  time.Time       `json:"payout_date"`
	PayoutOrder int             `json:"payout_order"`
	Payee       *memberResponse `json:"payee"`
}

func toGroupResponse(g *group.Group) groupResponse {
	return groupResponse{
		ID:                g.ID,
		Name:              g.Name,
		CycleAmount:       g.CycleAmount,
		Frequency:         g.Frequency,
		MemberLimit:       g.MemberLimit,
		InviteCode:        g.InviteCode,
		AnchorDate:        g.AnchorDate,
		CurrentCycleIndex: g.CurrentCycleIndex,
		NextPayoutDate:    g.NextPayoutDate(),
		CreatedBy:         g.CreatedBy,
		CreatedAt:         g.CreatedAt,
	}
}

func toMemberResponse(m *group.Member) *memberResponse {
	if m == nil {
		return nil
	}

	return &memberResponse{
		UserID:      m.UserID,
		Name:        m.Name,
		PayoutOrder: m.PayoutOrder,
		JoinedAt:    m.JoinedAt,
	}
}

func toStatusResponse(s *group.Status) statusResponse {
	resp := statusResponse{
		Group:      toGroupResponse(s.Group),
		CycleIndex: s.CycleIndex,
		CycleStart: s.CycleStart,
		CycleEnd:   s.CycleEnd,
		Payee:      toMemberResponse(s.Payee),
		Members:    make([]memberStatusResponse, len(s.Members)),
		Complete:   s.Complete,
		InArrears:  s.InArrears,
		Pool:       s.Pool,
		Collected:  s.Collected,
	}

	for i, m := range s.Members {
		resp.Members[i] = memberStatusResponse{
			memberResponse: *toMemberResponse(m.Member),
			Contributed:    m.Contributed,
		}
	}

	return resp
}

func toPayoutList(ps []group.ScheduledPayout) []payoutResponse {
	resp := make([]payoutResponse, len(ps))
	for i, p := range ps {
		resp[i] = payoutResponse{
			CycleIndex:  p.CycleIndex,
			Start:       p.Start,
			PayoutDate:  p.PayoutDate,
			PayoutOrder: p.PayoutOrder,
			Payee:       toMemberResponse(p.Payee),
		}
	}

	return resp
}
