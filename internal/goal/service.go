package goal

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/ajo/internal/errs"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=goal
type Repository interface {
	CreateGoal(ctx context.Context, g *Goal) error
	GetGoal(ctx context.Context, id uuid.UUID) (*Goal, error)
	ListGoals(ctx context.Context, userID uuid.UUID) ([]*Goal, error)

	SavedAmount(ctx context.Context, goalID uuid.UUID) (decimal.Decimal, error)
	SavedAmounts(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]decimal.Decimal, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

type CreateParams struct {
	UserID       uuid.UUID
	Name         string
	TargetAmount decimal.Decimal
	TargetDate   *time.Time
}

func (s *Service) Create(ctx context.Context, params CreateParams) (*Goal, error) {
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return nil, errs.Invalid("goal name is required")
	}

	if err := errs.CheckAmount(params.TargetAmount); err != nil {
		return nil, fmt.Errorf("target %w", err)
	}

	g := &Goal{
		UserID:       params.UserID,
		Name:         name,
		TargetAmount: params.TargetAmount,
		TargetDate:   params.TargetDate,
	}

	if err := s.repo.CreateGoal(ctx, g); err != nil {
		return nil, fmt.Errorf("creating goal: %w", err)
	}

	slog.Info("goal created", "goal_id", g.ID, "user_id", g.UserID, "target", g.TargetAmount.String())

	return g, nil
}

// Progress reports how far userID's goal is. Goals of other users are reported
// as not found.
func (s *Service) Progress(ctx context.Context, userID, goalID uuid.UUID) (*Progress, error) {
	g, err := s.repo.GetGoal(ctx, goalID)
	if err != nil {
		return nil, err
	}

	if g.UserID != userID {
		return nil, fmt.Errorf("goal %s: %w", goalID, errs.ErrNotFound)
	}

	saved, err := s.repo.SavedAmount(ctx, goalID)
	if err != nil {
		return nil, fmt.Errorf("summing goal contributions: %w", err)
	}

	p := newProgress(g, saved)

	return &p, nil
}

func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]Progress, error) {
	goals, err := s.repo.ListGoals(ctx, userID)
	if err != nil {
		return nil, err
	}

	if len(goals) == 0 {
		return nil, nil
	}

	saved, err := s.repo.SavedAmounts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("summing goal contributions: %w", err)
	}

	out := make([]Progress, len(goals))
	for i, g := range goals {
		out[i] = newProgress(g, saved[g.ID])
	}

	return out, nil
}

func (s *Service) Summary(ctx context.Context, userID uuid.UUID) (*Summary, error) {
	progress, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	sum := &Summary{Saved: decimal.Zero, Target: decimal.Zero}

	for _, p := range progress {
		sum.Goals++
		sum.Saved = sum.Saved.Add(p.Saved)
		sum.Target = sum.Target.Add(p.Goal.TargetAmount)

		if p.Complete {
			sum.Completed++
		}
	}

	return sum, nil
}
