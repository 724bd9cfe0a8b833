package group

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/MrJamesThe3rd/ajo/internal/cycle"
	"github.com/MrJamesThe3rd/ajo/internal/errs"
	"github.com/MrJamesThe3rd/ajo/internal/events"
	"github.com/MrJamesThe3rd/ajo/internal/ledger"
	"github.com/MrJamesThe3rd/ajo/internal/metrics"
	"github.com/MrJamesThe3rd/ajo/internal/payout"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=group
type Repository interface {
	CreateGroup(ctx context.Context, g *Group, creator *Member) error
	GetGroup(ctx context.Context, id uuid.UUID) (*Group, error)
	GetGroupByInviteCode(ctx context.Context, code string) (*Group, error)
	InviteCodeExists(ctx context.Context, code string) (bool, error)
	ListGroupsForUser(ctx context.Context, userID uuid.UUID) ([]*Group, error)

	ListMembers(ctx context.Context, groupID uuid.UUID) ([]*Member, error)
	// ListContributions returns the entries recorded against cycle idx.
	ListContributions(ctx context.Context, groupID uuid.UUID, idx int) ([]ledger.Entry, error)

	// AdvanceCycle moves the group from cycle from to from+1. It reports false
	// when the group was no longer at from.
	AdvanceCycle(ctx context.Context, groupID uuid.UUID, from int) (bool, error)

	// BeginMembership opens a transaction holding the group's membership lock.
	BeginMembership(ctx context.Context, groupID uuid.UUID) (MembershipTx, error)
}

type MembershipTx interface {
	ListMembers(ctx context.Context, groupID uuid.UUID) ([]*Member, error)
	ListVacatedSlots(ctx context.Context, groupID uuid.UUID) ([]int, error)
	AddMember(ctx context.Context, m *Member) error
	RemoveMember(ctx context.Context, groupID, userID uuid.UUID) error
	VacateSlot(ctx context.Context, groupID uuid.UUID, order int) error
	Commit() error
	Rollback() error
}

type Service struct {
	repo      Repository
	publisher events.Publisher
	now       func() time.Time
	codes     CodeGenerator

	codeLength   int
	codeAttempts int
}

type Option func(*Service)

func WithPublisher(p events.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithInviteCodes(length, attempts int) Option {
	return func(s *Service) {
		s.codeLength = length
		s.codeAttempts = attempts
	}
}

func WithCodeGenerator(gen CodeGenerator) Option {
	return func(s *Service) { s.codes = gen }
}

func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo:         repo,
		publisher:    events.Nop{},
		now:          time.Now,
		codes:        randomCode,
		codeLength:   6,
		codeAttempts: 5,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

type CreateParams struct {
	CreatorID   uuid.UUID
	Name        string
	CycleAmount decimal.Decimal
	Frequency   cycle.Frequency
	MemberLimit int
	// AnchorDate defaults to the start of the current UTC day.
	AnchorDate time.Time
}

func (s *Service) Create(ctx context.Context, params CreateParams) (*Group, error) {
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return nil, errs.Invalid("group name is required")
	}

	if err := errs.CheckAmount(params.CycleAmount); err != nil {
		return nil, fmt.Errorf("cycle %w", err)
	}

	if !params.Frequency.Valid() {
		return nil, errs.Invalid("unknown frequency %q", params.Frequency)
	}

	if params.MemberLimit < 2 {
		return nil, errs.Invalid("member limit must be at least 2, got %d", params.MemberLimit)
	}

	now := s.now()

	anchor := params.AnchorDate
	if anchor.IsZero() {
		y, m, d := now.UTC().Date()
		anchor = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}

	for attempt := 1; attempt <= s.codeAttempts; attempt++ {
		code, err := s.codes(s.codeLength)
		if err != nil {
			return nil, fmt.Errorf("generating invite code: %w", err)
		}

		taken, err := s.repo.InviteCodeExists(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("checking invite code: %w", err)
		}

		if taken {
			slog.Debug("invite code collision", "attempt", attempt)
			continue
		}

		g := &Group{
			Name:        name,
			CycleAmount: params.CycleAmount,
			Frequency:   params.Frequency,
			MemberLimit: params.MemberLimit,
			InviteCode:  code,
			AnchorDate:  anchor,
			CreatedBy:   params.CreatorID,
		}

		creator := &Member{UserID: params.CreatorID, PayoutOrder: 1, JoinedAt: now}

		err = s.repo.CreateGroup(ctx, g, creator)
		if errors.Is(err, ErrInviteCodeTaken) {
			slog.Debug("invite code taken at insert", "attempt", attempt)
			continue
		}

		if err != nil {
			return nil, fmt.Errorf("creating group: %w", err)
		}

		slog.Info("group created",
			"group_id", g.ID,
			"user_id", params.CreatorID,
			"frequency", g.Frequency,
			"member_limit", g.MemberLimit,
		)

		s.publish(ctx, events.New(events.GroupCreated).WithGroup(g.ID).WithUser(params.CreatorID))

		return g, nil
	}

	return nil, fmt.Errorf("allocating invite code after %d attempts: %w", s.codeAttempts, ErrInviteCodeTaken)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Group, error) {
	return s.repo.GetGroup(ctx, id)
}

func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID) ([]*Group, error) {
	return s.repo.ListGroupsForUser(ctx, userID)
}

// Join enrolls userID in the group behind code and assigns it the lowest free
// payout order. Concurrent joins on one group are serialized by the store.
func (s *Service) Join(ctx context.Context, code string, userID uuid.UUID) (*Member, error) {
	m, err := s.join(ctx, NormalizeInviteCode(code), userID)

	metrics.GroupJoins.WithLabelValues(joinResult(err)).Inc()

	return m, err
}

func (s *Service) join(ctx context.Context, code string, userID uuid.UUID) (*Member, error) {
	if code == "" {
		return nil, errs.ErrInvalidInviteCode
	}

	g, err := s.repo.GetGroupByInviteCode(ctx, code)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, fmt.Errorf("code %q: %w", code, errs.ErrInvalidInviteCode)
		}

		return nil, err
	}

	mtx, err := s.repo.BeginMembership(ctx, g.ID)
	if err != nil {
		return nil, fmt.Errorf("begin membership: %w", err)
	}
	defer mtx.Rollback()

	members, err := mtx.ListMembers(ctx, g.ID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}

	if findMember(members, userID) != nil {
		return nil, fmt.Errorf("group %s: %w", g.ID, errs.ErrAlreadyMember)
	}

	if len(members) >= g.MemberLimit {
		return nil, fmt.Errorf("group %s: %w", g.ID, errs.ErrGroupFull)
	}

	vacated, err := mtx.ListVacatedSlots(ctx, g.ID)
	if err != nil {
		return nil, fmt.Errorf("list vacated slots: %w", err)
	}

	order, err := payout.Assign(seats(members), vacated, g.MemberLimit)
	if err != nil {
		return nil, fmt.Errorf("group %s: %w", g.ID, err)
	}

	m := &Member{GroupID: g.ID, UserID: userID, PayoutOrder: order, JoinedAt: s.now()}
	if err := mtx.AddMember(ctx, m); err != nil {
		return nil, fmt.Errorf("add member: %w", err)
	}

	if err := mtx.Commit(); err != nil {
		return nil, errs.Storage("committing join", err)
	}

	slog.Info("member joined", "group_id", g.ID, "user_id", userID, "payout_order", order)

	s.publish(ctx, events.New(events.MemberJoined).WithGroup(g.ID).WithUser(userID))

	return m, nil
}

func joinResult(err error) string {
	switch {
	case err == nil:
		return "joined"
	case errors.Is(err, errs.ErrInvalidInviteCode):
		return "invalid_code"
	case errors.Is(err, errs.ErrAlreadyMember):
		return "already_member"
	case errors.Is(err, errs.ErrGroupFull):
		return "full"
	default:
		return "error"
	}
}

// Leave removes userID from the group. The member's payout order is retired,
// never handed to a later joiner. A payee leaving mid-cycle forfeits the pot.
func (s *Service) Leave(ctx context.Context, groupID, userID uuid.UUID) error {
	g, err := s.AdvanceCycleIfDue(ctx, groupID)
	if err != nil {
		return err
	}

	mtx, err := s.repo.BeginMembership(ctx, groupID)
	if err != nil {
		return fmt.Errorf("begin membership: %w", err)
	}
	defer mtx.Rollback()

	members, err := mtx.ListMembers(ctx, groupID)
	if err != nil {
		return fmt.Errorf("list members: %w", err)
	}

	m := findMember(members, userID)
	if m == nil {
		return fmt.Errorf("group %s: %w", groupID, errs.ErrNotAMember)
	}

	if err := mtx.RemoveMember(ctx, groupID, userID); err != nil {
		return fmt.Errorf("remove member: %w", err)
	}

	if err := mtx.VacateSlot(ctx, groupID, m.PayoutOrder); err != nil {
		return fmt.Errorf("vacate slot: %w", err)
	}

	if err := mtx.Commit(); err != nil {
		return errs.Storage("committing leave", err)
	}

	attrs := []any{"group_id", groupID, "user_id", userID, "payout_order", m.PayoutOrder}
	if payout.PayeeOrder(g.CurrentCycleIndex, g.MemberLimit) == m.PayoutOrder {
		attrs = append(attrs, "forfeited_cycle", g.CurrentCycleIndex)
	}

	slog.Info("member left", attrs...)

	s.publish(ctx, events.New(events.MemberLeft).WithGroup(groupID).WithUser(userID))

	return nil
}

// AdvanceCycleIfDue closes every cycle that is fully funded and past its end,
// in order, and returns the group at its resulting cycle. An underfunded cycle
// holds the group in place.
func (s *Service) AdvanceCycleIfDue(ctx context.Context, groupID uuid.UUID) (*Group, error) {
	g, err := s.repo.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	return s.advance(ctx, g)
}

func (s *Service) advance(ctx context.Context, g *Group) (*Group, error) {
	now := s.now()

	var members []*Member

	for {
		_, end := cycle.Boundary(g.Frequency, g.AnchorDate, g.CurrentCycleIndex)
		if now.Before(end) {
			return g, nil
		}

		if members == nil {
			var err error

			members, err = s.repo.ListMembers(ctx, g.ID)
			if err != nil {
				return nil, fmt.Errorf("list members: %w", err)
			}
		}

		entries, err := s.repo.ListContributions(ctx, g.ID, g.CurrentCycleIndex)
		if err != nil {
			return nil, fmt.Errorf("list contributions: %w", err)
		}

		complete := ledger.Complete(ledger.Status(userIDs(members), entries, g.CycleAmount, g.CurrentCycleIndex))
		if !payout.Due(complete, now, end) {
			return g, nil
		}

		from := g.CurrentCycleIndex

		advanced, err := s.repo.AdvanceCycle(ctx, g.ID, from)
		if err != nil {
			return nil, fmt.Errorf("advance cycle: %w", err)
		}

		if !advanced {
			// Another caller moved the group; continue from where it is now.
			if g, err = s.repo.GetGroup(ctx, g.ID); err != nil {
				return nil, err
			}

			continue
		}

		g.CurrentCycleIndex = from + 1

		metrics.CycleAdvances.Inc()

		slog.Info("cycle advanced", "group_id", g.ID, "cycle_index", g.CurrentCycleIndex)

		s.publish(ctx, events.New(events.CycleAdvanced).
			WithGroup(g.ID).
			WithCycle(g.CurrentCycleIndex).
			WithAmount(g.CycleAmount.Mul(decimal.NewFromInt(int64(len(members))))))
	}
}

// Status advances the group if due and reports its current cycle.
func (s *Service) Status(ctx context.Context, groupID uuid.UUID) (*Status, error) {
	g, err := s.AdvanceCycleIfDue(ctx, groupID)
	if err != nil {
		return nil, err
	}

	start, end := cycle.Boundary(g.Frequency, g.AnchorDate, g.CurrentCycleIndex)

	members, entries, err := s.load(ctx, g.ID, g.CurrentCycleIndex)
	if err != nil {
		return nil, err
	}

	ids := userIDs(members)
	paid := ledger.Status(ids, entries, g.CycleAmount, g.CurrentCycleIndex)
	complete := ledger.Complete(paid)

	st := &Status{
		Group:      g,
		CycleIndex: g.CurrentCycleIndex,
		CycleStart: start,
		CycleEnd:   end,
		Members:    make([]MemberStatus, len(members)),
		Complete:   complete,
		InArrears:  !complete && !s.now().Before(end),
		Pool:       g.CycleAmount.Mul(decimal.NewFromInt(int64(len(members)))),
		Collected:  ledger.Collected(ids, entries, g.CurrentCycleIndex),
	}

	for i, m := range members {
		st.Members[i] = MemberStatus{Member: m, Contributed: paid[m.UserID]}
	}

	if seat, ok := payout.Payee(seats(members), g.CurrentCycleIndex, g.MemberLimit); ok {
		st.Payee = findMember(members, seat.UserID)
	}

	return st, nil
}

// ContributionStatus reports, per current member, whether cycle idx is paid.
func (s *Service) ContributionStatus(ctx context.Context, groupID uuid.UUID, idx int) (map[uuid.UUID]bool, error) {
	if idx < 0 {
		return nil, errs.Invalid("negative cycle index %d", idx)
	}

	g, err := s.repo.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	members, entries, err := s.load(ctx, g.ID, idx)
	if err != nil {
		return nil, err
	}

	return ledger.Status(userIDs(members), entries, g.CycleAmount, idx), nil
}

func (s *Service) IsCycleComplete(ctx context.Context, groupID uuid.UUID, idx int) (bool, error) {
	status, err := s.ContributionStatus(ctx, groupID, idx)
	if err != nil {
		return false, err
	}

	return ledger.Complete(status), nil
}

// Schedule lists the next MemberLimit payouts starting at the current cycle.
func (s *Service) Schedule(ctx context.Context, groupID uuid.UUID) ([]ScheduledPayout, error) {
	g, err := s.AdvanceCycleIfDue(ctx, groupID)
	if err != nil {
		return nil, err
	}

	members, err := s.repo.ListMembers(ctx, g.ID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}

	windows := cycle.Schedule(g.Frequency, g.AnchorDate, g.CurrentCycleIndex, g.MemberLimit)
	rotation := payout.Rotation(seats(members), g.CurrentCycleIndex, g.MemberLimit, g.MemberLimit)

	out := make([]ScheduledPayout, len(windows))
	for i, w := range windows {
		out[i] = ScheduledPayout{
			CycleIndex:  w.Index,
			Start:       w.Start,
			PayoutDate:  w.End,
			PayoutOrder: rotation[i].Order,
			Payee:       findMember(members, rotation[i].UserID),
		}
	}

	return out, nil
}

func (s *Service) load(ctx context.Context, groupID uuid.UUID, idx int) ([]*Member, []ledger.Entry, error) {
	var (
		members []*Member
		entries []ledger.Entry
	)

	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		var err error

		members, err = s.repo.ListMembers(ctx, groupID)
		if err != nil {
			return fmt.Errorf("list members: %w", err)
		}

		return nil
	})

	eg.Go(func() error {
		var err error

		entries, err = s.repo.ListContributions(ctx, groupID, idx)
		if err != nil {
			return fmt.Errorf("list contributions: %w", err)
		}

		return nil
	})

	if err := eg.Wait(); err != nil {
		return nil, nil, err
	}

	return members, entries, nil
}

func (s *Service) publish(ctx context.Context, e events.Event) {
	if err := s.publisher.Publish(ctx, e); err != nil {
		slog.Warn("failed to publish event", "type", e.Type, "error", err)
	}
}
