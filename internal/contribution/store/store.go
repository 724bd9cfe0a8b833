package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/ajo/internal/contribution"
	"github.com/MrJamesThe3rd/ajo/internal/cycle"
	"github.com/MrJamesThe3rd/ajo/internal/errs"
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

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Expected column order: id, user_id, goal_id, group_id, cycle_index, amount, note, date, created_at
func scanContribution(s scanner) (*contribution.Contribution, error) {
	var c contribution.Contribution

	var cycleIndex sql.NullInt64

	if err := s.Scan(
		&c.ID, &c.UserID, &c.GoalID, &c.GroupID, &cycleIndex,
		&c.Amount, &c.Note, &c.Date, &c.CreatedAt,
	); err != nil {
		return nil, err
	}

	if cycleIndex.Valid {
		c.CycleIndex = new(int(cycleIndex.Int64))
	}

	return &c, nil
}

const selectColumns = `id, user_id, goal_id, group_id, cycle_index, amount, note, date, created_at`

const insertQuery = `
	INSERT INTO contributions (user_id, goal_id, group_id, cycle_index, amount, note, date, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
	RETURNING id, created_at
`

func insert(ctx context.Context, db execer, c *contribution.Contribution) error {
	return db.QueryRowContext(ctx, insertQuery,
		c.UserID,
		c.GoalID,
		c.GroupID,
		c.CycleIndex,
		c.Amount,
		c.Note,
		c.Date,
	).Scan(&c.ID, &c.CreatedAt)
}

func (s *Store) CreateContribution(ctx context.Context, c *contribution.Contribution) error {
	if err := insert(ctx, s.db, c); err != nil {
		return errs.Storage("creating contribution", err)
	}

	return nil
}

func (s *Store) GoalOwner(ctx context.Context, goalID uuid.UUID) (uuid.UUID, error) {
	var owner uuid.UUID

	err := s.db.QueryRowContext(ctx, `SELECT user_id FROM goals WHERE id = $1`, goalID).Scan(&owner)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return uuid.Nil, fmt.Errorf("goal %s: %w", goalID, errs.ErrNotFound)
		}

		return uuid.Nil, errs.Storage("getting goal owner", err)
	}

	return owner, nil
}

func (s *Store) GroupClock(ctx context.Context, groupID uuid.UUID) (contribution.GroupClock, error) {
	var (
		freq  string
		clock contribution.GroupClock
	)

	err := s.db.QueryRowContext(ctx,
		`SELECT frequency, anchor_date, current_cycle_index, cycle_amount FROM groups WHERE id = $1`, groupID,
	).Scan(&freq, &clock.Anchor, &clock.CurrentCycle, &clock.CycleAmount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return clock, fmt.Errorf("group %s: %w", groupID, errs.ErrNotFound)
		}

		return clock, errs.Storage("getting group clock", err)
	}

	clock.Frequency = cycle.Frequency(freq)

	return clock, nil
}

func (s *Store) IsMember(ctx context.Context, groupID, userID uuid.UUID) (bool, error) {
	var exists bool

	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM group_members WHERE group_id = $1 AND user_id = $2)`,
		groupID, userID,
	).Scan(&exists)
	if err != nil {
		return false, errs.Storage("checking membership", err)
	}

	return exists, nil
}

func (s *Store) ListByGoal(ctx context.Context, goalID uuid.UUID) ([]*contribution.Contribution, error) {
	return s.list(ctx, "listing goal contributions",
		`SELECT `+selectColumns+` FROM contributions WHERE goal_id = $1 ORDER BY date ASC, created_at ASC`,
		goalID)
}

func (s *Store) ListByGroupCycle(ctx context.Context, groupID uuid.UUID, idx int) ([]*contribution.Contribution, error) {
	return s.list(ctx, "listing group contributions",
		`SELECT `+selectColumns+` FROM contributions
		WHERE group_id = $1 AND cycle_index = $2
		ORDER BY date ASC, created_at ASC`,
		groupID, idx)
}

func (s *Store) SettledCycles(ctx context.Context, groupID, userID uuid.UUID, from int, required decimal.Decimal) ([]int, error) {
	query := `
		SELECT DISTINCT cycle_index
		FROM contributions
		WHERE group_id = $1 AND user_id = $2 AND cycle_index >= $3 AND amount >= $4
		ORDER BY cycle_index
	`

	rows, err := s.db.QueryContext(ctx, query, groupID, userID, from, required)
	if err != nil {
		return nil, errs.Storage("listing settled cycles", err)
	}
	defer rows.Close()

	var cycles []int

	for rows.Next() {
		var idx int
		if err := rows.Scan(&idx); err != nil {
			return nil, errs.Storage("scanning settled cycle", err)
		}

		cycles = append(cycles, idx)
	}

	if err := rows.Err(); err != nil {
		return nil, errs.Storage("listing settled cycles", err)
	}

	return cycles, nil
}

func (s *Store) ListByUser(ctx context.Context, userID uuid.UUID) ([]*contribution.Contribution, error) {
	return s.list(ctx, "listing user contributions",
		`SELECT `+selectColumns+` FROM contributions WHERE user_id = $1 ORDER BY date DESC, created_at DESC`,
		userID)
}

func (s *Store) list(ctx context.Context, op, query string, args ...any) ([]*contribution.Contribution, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errs.Storage(op, err)
	}
	defer rows.Close()

	var cs []*contribution.Contribution

	for rows.Next() {
		c, err := scanContribution(rows)
		if err != nil {
			return nil, errs.Storage("scanning contribution", err)
		}

		cs = append(cs, c)
	}

	if err := rows.Err(); err != nil {
		return nil, errs.Storage(op, err)
	}

	return cs, nil
}

type batchTx struct {
	tx *sql.Tx
}

func (s *Store) BeginBatch(ctx context.Context) (contribution.BatchTx, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errs.Storage("beginning batch tx", err)
	}

	return &batchTx{tx: dbTx}, nil
}

func (b *batchTx) Commit() error   { return b.tx.Commit() }
func (b *batchTx) Rollback() error { return b.tx.Rollback() }

func (b *batchTx) CreateContributions(ctx context.Context, cs []*contribution.Contribution) error {
	for _, c := range cs {
		if err := insert(ctx, b.tx, c); err != nil {
			return errs.Storage("creating contribution", err)
		}
	}

	return nil
}
