package contribution

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/ajo/internal/cycle"
	"github.com/MrJamesThe3rd/ajo/internal/errs"
	"github.com/MrJamesThe3rd/ajo/internal/events"
	"github.com/MrJamesThe3rd/ajo/internal/metrics"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=contribution
type Repository interface {
	CreateContribution(ctx context.Context, c *Contribution) error
	GoalOwner(ctx context.Context, goalID uuid.UUID) (uuid.UUID, error)
	GroupClock(ctx context.Context, groupID uuid.UUID) (GroupClock, error)
	IsMember(ctx context.Context, groupID, userID uuid.UUID) (bool, error)

	ListByGoal(ctx context.Context, goalID uuid.UUID) ([]*Contribution, error)
	ListByGroupCycle(ctx context.Context, groupID uuid.UUID, idx int) ([]*Contribution, error)
	// SettledCycles lists the cycles from index from onward in which userID
	// made a single contribution of at least required.
	SettledCycles(ctx context.Context, groupID, userID uuid.UUID, from int, required decimal.Decimal) ([]int, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*Contribution, error)

	BeginBatch(ctx context.Context) (BatchTx, error)
}

type BatchTx interface {
	CreateContributions(ctx context.Context, cs []*Contribution) error
	Commit() error
	Rollback() error
}

type Service struct {
	repo      Repository
	publisher events.Publisher
	now       func() time.Time
}

type Option func(*Service)

func WithPublisher(p events.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{repo: repo, publisher: events.Nop{}, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

type RecordParams struct {
	UserID uuid.UUID
	Target Target
	Amount decimal.Decimal
	Note   string
	// Date defaults to now when zero.
	Date time.Time
}

// Line is one row of a batch recorded against a single goal.
type Line struct {
	Amount decimal.Decimal
	Date   time.Time
	Note   string
}

func (s *Service) Record(ctx context.Context, params RecordParams) (*Contribution, error) {
	if (params.Target.GoalID == nil) == (params.Target.GroupID == nil) {
		return nil, errs.Invalid("contribution needs exactly one of goal or group")
	}

	now := s.now()

	date := params.Date
	if date.IsZero() {
		date = now
	}

	if err := validateLine(params.Amount, date, now); err != nil {
		return nil, err
	}

	c := &Contribution{
		UserID: params.UserID,
		Amount: params.Amount,
		Note:   params.Note,
		Date:   date,
	}

	if params.Target.GoalID != nil {
		if err := s.checkGoal(ctx, *params.Target.GoalID, params.UserID); err != nil {
			return nil, err
		}

		c.GoalID = params.Target.GoalID
	} else {
		idx, err := s.placeInCycle(ctx, *params.Target.GroupID, params.UserID, date)
		if err != nil {
			return nil, err
		}

		c.GroupID = params.Target.GroupID
		c.CycleIndex = &idx
	}

	if err := s.repo.CreateContribution(ctx, c); err != nil {
		return nil, fmt.Errorf("recording contribution: %w", err)
	}

	metrics.ContributionsRecorded.WithLabelValues(string(c.Kind())).Inc()

	slog.Info("contribution recorded",
		"contribution_id", c.ID,
		"user_id", c.UserID,
		"target", c.Kind(),
		"amount", c.Amount.String(),
	)

	s.publish(ctx, c)

	return c, nil
}

// RecordBatch validates every line before writing any, then appends them all
// against goalID in one transaction.
func (s *Service) RecordBatch(ctx context.Context, userID, goalID uuid.UUID, lines []Line) ([]*Contribution, error) {
	if len(lines) == 0 {
		return nil, nil
	}

	now := s.now()

	for i, l := range lines {
		if l.Date.IsZero() {
			return nil, fmt.Errorf("line %d: missing date: %w", i+1, errs.ErrInvalidDate)
		}

		if err := validateLine(l.Amount, l.Date, now); err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
	}

	if err := s.checkGoal(ctx, goalID, userID); err != nil {
		return nil, err
	}

	btx, err := s.repo.BeginBatch(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin batch: %w", err)
	}
	defer btx.Rollback()

	cs := make([]*Contribution, len(lines))
	for i, l := range lines {
		cs[i] = &Contribution{
			UserID: userID,
			GoalID: &goalID,
			Amount: l.Amount,
			Note:   l.Note,
			Date:   l.Date,
		}
	}

	if err := btx.CreateContributions(ctx, cs); err != nil {
		return nil, fmt.Errorf("create contributions: %w", err)
	}

	if err := btx.Commit(); err != nil {
		return nil, fmt.Errorf("commit batch: %w", errs.Storage("committing batch", err))
	}

	metrics.ContributionsRecorded.WithLabelValues(string(TargetGoal)).Add(float64(len(cs)))

	slog.Info("contributions imported", "goal_id", goalID, "user_id", userID, "count", len(cs))

	for _, c := range cs {
		s.publish(ctx, c)
	}

	return cs, nil
}

func (s *Service) ListForGoal(ctx context.Context, goalID uuid.UUID) ([]*Contribution, error) {
	return s.repo.ListByGoal(ctx, goalID)
}

func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID) ([]*Contribution, error) {
	return s.repo.ListByUser(ctx, userID)
}

// ListForGroupCycle returns the group contributions recorded against cycle idx.
func (s *Service) ListForGroupCycle(ctx context.Context, groupID uuid.UUID, idx int) ([]*Contribution, error) {
	if idx < 0 {
		return nil, errs.Invalid("negative cycle index %d", idx)
	}

	return s.repo.ListByGroupCycle(ctx, groupID, idx)
}

func validateLine(amount decimal.Decimal, date, now time.Time) error {
	if err := errs.CheckAmount(amount); err != nil {
		return err
	}

	if date.After(now) {
		return fmt.Errorf("date %s is in the future: %w", date.Format(time.DateOnly), errs.ErrInvalidDate)
	}

	return nil
}

func (s *Service) checkGoal(ctx context.Context, goalID, userID uuid.UUID) error {
	owner, err := s.repo.GoalOwner(ctx, goalID)
	if err != nil {
		return err
	}

	if owner != userID {
		return fmt.Errorf("goal %s: %w", goalID, errs.ErrNotFound)
	}

	return nil
}

// placeInCycle picks the cycle a group contribution counts toward. That is the
// cycle date falls in, unless the payer still owes a cycle the group is held
// at, in which case the earliest such cycle is settled first.
func (s *Service) placeInCycle(ctx context.Context, groupID, userID uuid.UUID, date time.Time) (int, error) {
	clock, err := s.repo.GroupClock(ctx, groupID)
	if err != nil {
		return 0, err
	}

	member, err := s.repo.IsMember(ctx, groupID, userID)
	if err != nil {
		return 0, err
	}

	if !member {
		return 0, fmt.Errorf("group %s: %w", groupID, errs.ErrNotAMember)
	}

	if date.Before(clock.Anchor) {
		return 0, fmt.Errorf("date %s precedes the first cycle: %w", date.Format(time.DateOnly), errs.ErrInvalidDate)
	}

	idx := cycle.IndexAt(clock.Frequency, clock.Anchor, date)
	if idx <= clock.CurrentCycle {
		return idx, nil
	}

	settled, err := s.repo.SettledCycles(ctx, groupID, userID, clock.CurrentCycle, clock.CycleAmount)
	if err != nil {
		return 0, err
	}

	paid := make(map[int]bool, len(settled))
	for _, k := range settled {
		paid[k] = true
	}

	for k := clock.CurrentCycle; k < idx; k++ {
		if !paid[k] {
			return k, nil
		}
	}

	return idx, nil
}

func (s *Service) publish(ctx context.Context, c *Contribution) {
	e := events.New(events.ContributionRecorded).WithUser(c.UserID).WithAmount(c.Amount)
	if c.GoalID != nil {
		e = e.WithGoal(*c.GoalID)
	}

	if c.GroupID != nil {
		e = e.WithGroup(*c.GroupID)
	}

	if c.CycleIndex != nil {
		e = e.WithCycle(*c.CycleIndex)
	}

	if err := s.publisher.Publish(ctx, e); err != nil {
		slog.Warn("failed to publish event", "type", e.Type, "contribution_id", c.ID, "error", err)
	}
}
