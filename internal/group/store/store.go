package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"hash/fnv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/MrJamesThe3rd/ajo/internal/cycle"
	"github.com/MrJamesThe3rd/ajo/internal/errs"
	"github.com/MrJamesThe3rd/ajo/internal/group"
	"github.com/MrJamesThe3rd/ajo/internal/ledger"
)

const (
	uniqueViolation        = "23505"
	inviteCodeConstraint   = "groups_invite_code_key"
	membershipLockKeySpace = "group-membership"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Expected column order: id, name, cycle_amount, frequency, member_limit, invite_code,
// anchor_date, current_cycle_index, created_by, created_at, updated_at
func scanGroup(s scanner) (*group.Group, error) {
	var g group.Group

	var freq string

	if err := s.Scan(
		&g.ID, &g.Name, &g.CycleAmount, &freq, &g.MemberLimit, &g.InviteCode,
		&g.AnchorDate, &g.CurrentCycleIndex, &g.CreatedBy, &g.CreatedAt, &g.UpdatedAt,
	); err != nil {
		return nil, err
	}

	g.Frequency = cycle.Frequency(freq)
	g.AnchorDate = g.AnchorDate.UTC()

	return &g, nil
}

const selectGroupColumns = `
	g.id, g.name, g.cycle_amount, g.frequency, g.member_limit, g.invite_code,
	g.anchor_date, g.current_cycle_index, g.created_by, g.created_at, g.updated_at
`

func (s *Store) CreateGroup(ctx context.Context, g *group.Group, creator *group.Member) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errs.Storage("beginning transaction", err)
	}
	defer dbTx.Rollback()

	query := `
		INSERT INTO groups (name, cycle_amount, frequency, member_limit, invite_code, anchor_date,
			current_cycle_index, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, 0, $7, NOW(), NOW())
		RETURNING id, current_cycle_index, created_at, updated_at
	`

	err = dbTx.QueryRowContext(ctx, query,
		g.Name,
		g.CycleAmount,
		string(g.Frequency),
		g.MemberLimit,
		g.InviteCode,
		g.AnchorDate,
		g.CreatedBy,
	).Scan(&g.ID, &g.CurrentCycleIndex, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == inviteCodeConstraint {
			return group.ErrInviteCodeTaken
		}

		return errs.Storage("creating group", err)
	}

	creator.GroupID = g.ID
	if err := addMember(ctx, dbTx, creator); err != nil {
		return err
	}

	if err := dbTx.Commit(); err != nil {
		return errs.Storage("committing group", err)
	}

	return nil
}

func (s *Store) GetGroup(ctx context.Context, id uuid.UUID) (*group.Group, error) {
	query := `SELECT ` + selectGroupColumns + ` FROM groups g WHERE g.id = $1`

	g, err := scanGroup(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("group %s: %w", id, errs.ErrNotFound)
		}

		return nil, errs.Storage("getting group", err)
	}

	return g, nil
}

func (s *Store) GetGroupByInviteCode(ctx context.Context, code string) (*group.Group, error) {
	query := `SELECT ` + selectGroupColumns + ` FROM groups g WHERE g.invite_code = $1`

	g, err := scanGroup(s.db.QueryRowContext(ctx, query, code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("invite code: %w", errs.ErrNotFound)
		}

		return nil, errs.Storage("getting group by invite code", err)
	}

	return g, nil
}

func (s *Store) InviteCodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool

	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM groups WHERE invite_code = $1)`, code,
	).Scan(&exists)
	if err != nil {
		return false, errs.Storage("checking invite code", err)
	}

	return exists, nil
}

func (s *Store) ListGroupsForUser(ctx context.Context, userID uuid.UUID) ([]*group.Group, error) {
	query := `SELECT ` + selectGroupColumns + `
		FROM groups g
		JOIN group_members m ON m.group_id = g.id
		WHERE m.user_id = $1
		ORDER BY g.created_at ASC`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, errs.Storage("listing groups", err)
	}
	defer rows.Close()

	var groups []*group.Group

	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, errs.Storage("scanning group", err)
		}

		groups = append(groups, g)
	}

	if err := rows.Err(); err != nil {
		return nil, errs.Storage("listing groups", err)
	}

	return groups, nil
}

func (s *Store) ListMembers(ctx context.Context, groupID uuid.UUID) ([]*group.Member, error) {
	return listMembers(ctx, s.db, groupID, false)
}

func (s *Store) ListContributions(ctx context.Context, groupID uuid.UUID, idx int) ([]ledger.Entry, error) {
	query := `
		SELECT user_id, amount, date, cycle_index
		FROM contributions
		WHERE group_id = $1 AND cycle_index = $2
		ORDER BY date ASC, created_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query, groupID, idx)
	if err != nil {
		return nil, errs.Storage("listing group contributions", err)
	}
	defer rows.Close()

	var entries []ledger.Entry

	for rows.Next() {
		var e ledger.Entry
		if err := rows.Scan(&e.UserID, &e.Amount, &e.Date, &e.Cycle); err != nil {
			return nil, errs.Storage("scanning contribution", err)
		}

		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, errs.Storage("listing group contributions", err)
	}

	return entries, nil
}

func (s *Store) AdvanceCycle(ctx context.Context, groupID uuid.UUID, from int) (bool, error) {
	query := `
		UPDATE groups
		SET current_cycle_index = current_cycle_index + 1, updated_at = NOW()
		WHERE id = $1 AND current_cycle_index = $2
	`

	res, err := s.db.ExecContext(ctx, query, groupID, from)
	if err != nil {
		return false, errs.Storage("advancing cycle", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, errs.Storage("advancing cycle", err)
	}

	return n == 1, nil
}

func membershipLockKey(groupID uuid.UUID) int64 {
	h := fnv.New64a()
	h.Write([]byte(membershipLockKeySpace))
	h.Write([]byte{0})
	h.Write(groupID[:])

	return int64(h.Sum64())
}

type membershipTx struct {
	tx *sql.Tx
}

func (s *Store) BeginMembership(ctx context.Context, groupID uuid.UUID) (group.MembershipTx, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errs.Storage("beginning membership tx", err)
	}

	if _, err := dbTx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", membershipLockKey(groupID)); err != nil {
		dbTx.Rollback()
		return nil, errs.Storage("acquiring membership lock", err)
	}

	return &membershipTx{tx: dbTx}, nil
}

func (mtx *membershipTx) Commit() error   { return mtx.tx.Commit() }
func (mtx *membershipTx) Rollback() error { return mtx.tx.Rollback() }

func (mtx *membershipTx) ListMembers(ctx context.Context, groupID uuid.UUID) ([]*group.Member, error) {
	return listMembers(ctx, mtx.tx, groupID, true)
}

func (mtx *membershipTx) ListVacatedSlots(ctx context.Context, groupID uuid.UUID) ([]int, error) {
	rows, err := mtx.tx.QueryContext(ctx,
		`SELECT payout_order FROM group_vacated_slots WHERE group_id = $1 ORDER BY payout_order`, groupID)
	if err != nil {
		return nil, errs.Storage("listing vacated slots", err)
	}
	defer rows.Close()

	var orders []int

	for rows.Next() {
		var o int
		if err := rows.Scan(&o); err != nil {
			return nil, errs.Storage("scanning vacated slot", err)
		}

		orders = append(orders, o)
	}

	if err := rows.Err(); err != nil {
		return nil, errs.Storage("listing vacated slots", err)
	}

	return orders, nil
}

func (mtx *membershipTx) AddMember(ctx context.Context, m *group.Member) error {
	return addMember(ctx, mtx.tx, m)
}

func (mtx *membershipTx) RemoveMember(ctx context.Context, groupID, userID uuid.UUID) error {
	_, err := mtx.tx.ExecContext(ctx,
		`DELETE FROM group_members WHERE group_id = $1 AND user_id = $2`, groupID, userID)
	if err != nil {
		return errs.Storage("removing member", err)
	}

	return nil
}

func (mtx *membershipTx) VacateSlot(ctx context.Context, groupID uuid.UUID, order int) error {
	_, err := mtx.tx.ExecContext(ctx, `
		INSERT INTO group_vacated_slots (group_id, payout_order, vacated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT DO NOTHING`, groupID, order)
	if err != nil {
		return errs.Storage("vacating slot", err)
	}

	return nil
}

func addMember(ctx context.Context, q querier, m *group.Member) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO group_members (group_id, user_id, payout_order, joined_at)
		VALUES ($1, $2, $3, $4)`,
		m.GroupID, m.UserID, m.PayoutOrder, m.JoinedAt)
	if err != nil {
		return errs.Storage("adding member", err)
	}

	return nil
}

func listMembers(ctx context.Context, q querier, groupID uuid.UUID, forUpdate bool) ([]*group.Member, error) {
	query := `
		SELECT m.group_id, m.user_id, COALESCE(p.name, ''), m.payout_order, m.joined_at
		FROM group_members m
		LEFT JOIN profiles p ON p.id = m.user_id
		WHERE m.group_id = $1
		ORDER BY m.payout_order ASC`
	if forUpdate {
		query += ` FOR UPDATE OF m`
	}

	rows, err := q.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, errs.Storage("listing members", err)
	}
	defer rows.Close()

	var members []*group.Member

	for rows.Next() {
		var m group.Member
		if err := rows.Scan(&m.GroupID, &m.UserID, &m.Name, &m.PayoutOrder, &m.JoinedAt); err != nil {
			return nil, errs.Storage("scanning member", err)
		}

		members = append(members, &m)
	}

	if err := rows.Err(); err != nil {
		return nil, errs.Storage("listing members", err)
	}

	return members, nil
}
