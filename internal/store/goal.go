package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Harshitk-cp/lumen/internal/domain"
	"github.com/google/uuid"
)

func (s *Store) AppendGoal(ctx context.Context, g *domain.Goal) error {
	if g.Description == "" {
		return fmt.Errorf("append goal: empty description")
	}
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	if g.CreatedAt.IsZero() {
		g.CreatedAt = s.now().UTC()
	}
	g.Priority = domain.Clamp01(g.Priority)
	g.Progress = domain.Clamp01(g.Progress)
	g.Status = domain.GoalActive
	g.CompletedAt = nil
	if g.Progress >= 1 {
		g.Status = domain.GoalCompleted
		done := g.CreatedAt
		g.CompletedAt = &done
	}

	_, err := s.execOne(ctx,
		`INSERT INTO goals (id, description, motivation, priority, progress, status, created_at, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID.String(), g.Description, g.Motivation, g.Priority, g.Progress, string(g.Status),
		toUnix(g.CreatedAt), nullableTime(g.CompletedAt),
	)
	if err != nil {
		return fmt.Errorf("append goal: %w", err)
	}
	return nil
}

func (s *Store) ListGoals(ctx context.Context, q domain.GoalQuery) ([]domain.Goal, error) {
	query := `SELECT id, description, motivation, priority, progress, status, created_at, completed_at FROM goals`
	var args []any
	if q.Status != "" {
		query += " WHERE status = ?"
		args = append(args, string(q.Status))
	}
	query += " ORDER BY priority DESC, created_at ASC LIMIT ?"
	args = append(args, limitOr(q.Limit, 50))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var goals []domain.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("list goals: %w", err)
		}
		goals = append(goals, *g)
	}
	return goals, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGoal(row rowScanner) (*domain.Goal, error) {
	var (
		g           domain.Goal
		id, status  string
		createdAt   int64
		completedAt sql.NullInt64
	)
	if err := row.Scan(&id, &g.Description, &g.Motivation, &g.Priority, &g.Progress, &status, &createdAt, &completedAt); err != nil {
		return nil, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("parse goal id %q: %w", id, err)
	}
	g.ID = parsed
	g.Status = domain.GoalStatus(status)
	g.CreatedAt = fromUnix(createdAt)
	g.CompletedAt = timePtr(completedAt)
	return &g, nil
}

// UpdateGoalProgress raises a goal's progress. Lowering it is
// ErrGoalRegression; reaching 1.0 completes the goal exactly once.
func (s *Store) UpdateGoalProgress(ctx context.Context, id uuid.UUID, progress float32) (*domain.Goal, error) {
	progress = domain.Clamp01(progress)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("update goal progress: %w", err)
	}
	defer tx.Rollback()

	g, err := scanGoal(tx.QueryRowContext(ctx,
		`SELECT id, description, motivation, priority, progress, status, created_at, completed_at FROM goals WHERE id = ?`,
		id.String(),
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update goal progress: %w", err)
	}

	if progress < g.Progress {
		return nil, fmt.Errorf("%w: %.3f -> %.3f", domain.ErrGoalRegression, g.Progress, progress)
	}
	if g.Status == domain.GoalCompleted {
		return g, nil
	}

	g.Progress = progress
	if progress >= 1 {
		done := s.now().UTC()
		g.Status = domain.GoalCompleted
		g.CompletedAt = &done
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE goals SET progress = ?, status = ?, completed_at = ? WHERE id = ?`,
		g.Progress, string(g.Status), nullableTime(g.CompletedAt), id.String(),
	); err != nil {
		return nil, fmt.Errorf("update goal progress: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("update goal progress: %w", err)
	}
	return g, nil
}
