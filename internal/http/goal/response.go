package goal

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/ajo/internal/contribution"
	"github.com/MrJamesThe3rd/ajo/internal/goal"
)

type goalResponse struct {
	ID           uuid.UUID       `json:"id"`
	Name         string          `json:"name"`
	TargetAmount decimal.Decimal `json:"target_amount"`
	TargetDate   *time.Time      `json:"target_date,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

type progressResponse struct {
	goalResponse
	Saved     decimal.Decimal `json:"saved"`
	Remaining decimal.Decimal `json:"remaining"`
	Percent   decimal.Decimal `json:"percent"`
	Complete  bool            `json:"complete"`
}

type summaryResponse struct {
	Goals     int             `json:"goals"`
	Completed int             `json:"completed"`
	Saved     decimal.Decimal `json:"saved"`
	Target    decimal.Decimal `json:"target"`
}

type contributionResponse struct {
	ID        uuid.UUID       `json:"id"`
	Amount    decimal.Decimal `json:"amount"`
	Note      string          `json:"note,omitempty"`
	Date      time.Time       `json:"date"`
	CreatedAt time.Time       `json:"created_at"`
}

func toGoalResponse(g *goal.Goal) goalResponse {
	return goalResponse{
		ID:           g.ID,
		Name:         g.Name,
		TargetAmount: g.TargetAmount,
		TargetDate:   g.TargetDate,
		CreatedAt:    g.CreatedAt,
	}
}

func toProgressResponse(p *goal.Progress) progressResponse {
	return progressResponse{
		goalResponse: toGoalResponse(p.Goal),
		Saved:        p.Saved,
		Remaining:    p.Remaining,
		Percent:      p.Percent,
		Complete:     p.Complete,
	}
}

func toContributionList(cs []*contribution.Contribution) []contributionResponse {
	resp := make([]contributionResponse, len(cs))
	for i, c := range cs {
		resp[i] = contributionResponse{
			ID:        c.ID,
			Amount:    c.Amount,
			Note:      c.Note,
			Date:      c.Date,
			CreatedAt: c.CreatedAt,
		}
	}

	return resp
}
