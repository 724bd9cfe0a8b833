package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/ajo/internal/errs"
	"github.com/MrJamesThe3rd/ajo/internal/goal"
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

// Expected column order: id, user_id, name, target_amount, target_date, created_at, updated_at
func scanGoal(s scanner) (*goal.Goal, error) {
	var g goal.Goal

	var targetDate sql.NullTime

	if err := s.Scan(
		&g.ID, &g.UserID, &g.Name, &g.TargetAmount, &targetDate, &g.CreatedAt, &g.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if targetDate.Valid {
		g.TargetDate = &targetDate.Time
	}

	return &g, nil
}

const selectGoalColumns = `id, user_id, name, target_amount, target_date, created_at, updated_at`

func (s *Store) CreateGoal(ctx context.Context, g *goal.Goal) error {
	query := `
		INSERT INTO goals (user_id, name, target_amount, target_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	err := s.db.QueryRowContext(ctx, query,
		g.UserID,
		g.Name,
		g.TargetAmount,
		g.TargetDate,
	).Scan(&g.ID, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return errs.Storage("creating goal", err)
	}

	return nil
}

func (s *Store) GetGoal(ctx context.Context, id uuid.UUID) (*goal.Goal, error) {
	query := `SELECT ` + selectGoalColumns + ` FROM goals WHERE id = $1`

	g, err := scanGoal(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("goal %s: %w", id, errs.ErrNotFound)
		}

		return nil, errs.Storage("getting goal", err)
	}

	return g, nil
}

func (s *Store) ListGoals(ctx context.Context, userID uuid.UUID) ([]*goal.Goal, error) {
	query := `SELECT ` + selectGoalColumns + ` FROM goals WHERE user_id = $1 ORDER BY created_at ASC`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, errs.Storage("listing goals", err)
	}
	defer rows.Close()

	var goals []*goal.Goal

	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, errs.Storage("scanning goal", err)
		}

		goals = append(goals, g)
	}

	if err := rows.Err(); err != nil {
		return nil, errs.Storage("listing goals", err)
	}

	return goals, nil
}

func (s *Store) SavedAmount(ctx context.Context, goalID uuid.UUID) (decimal.Decimal, error) {
	var saved decimal.Decimal

	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM contributions WHERE goal_id = $1`, goalID,
	).Scan(&saved)
	if err != nil {
		return decimal.Zero, errs.Storage("summing goal contributions", err)
	}

	return saved, nil
}

// SavedAmounts sums contributions per goal for every goal owned by userID.
// Goals without contributions are absent from the map.
func (s *Store) SavedAmounts(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	query := `
		SELECT c.goal_id, SUM(c.amount)
		FROM contributions c
		JOIN goals g ON g.id = c.goal_id
		WHERE g.user_id = $1
		GROUP BY c.goal_id
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, errs.Storage("summing goal contributions", err)
	}
	defer rows.Close()

	saved := make(map[uuid.UUID]decimal.Decimal)

	for rows.Next() {
		var (
			id  uuid.UUID
			sum decimal.Decimal
		)

		if err := rows.Scan(&id, &sum); err != nil {
			return nil, errs.Storage("scanning goal sum", err)
		}

		saved[id] = sum
	}

	if err := rows.Err(); err != nil {
		return nil, errs.Storage("summing goal contributions", err)
	}

	return saved, nil
}
