package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Harshitk-cp/lumen/internal/domain"
)

func (s *Store) AppendEmotion(ctx context.Context, e *domain.EmotionSample) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now().UTC()
	}
	vals, err := json.Marshal(e.Values)
	if err != nil {
		return fmt.Errorf("append emotion: %w", err)
	}
	res, err := s.execOne(ctx,
		`INSERT INTO emotions (vals, dominant, valence, created_at) VALUES (?, ?, ?, ?)`,
		string(vals), e.Dominant, domain.ClampSigned(e.Valence), toUnix(e.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("append emotion: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		e.ID = id
	}
	return nil
}

// LatestEmotion returns ErrNotFound before the first sample is written.
func (s *Store) LatestEmotion(ctx context.Context) (*domain.EmotionSample, error) {
	samples, err := s.ListEmotions(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(samples) == 0 {
		return nil, ErrNotFound
	}
	return &samples[0], nil
}

// ListEmotions returns the newest samples first.
func (s *Store) ListEmotions(ctx context.Context, limit int) ([]domain.EmotionSample, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, vals, dominant, valence, created_at FROM emotions ORDER BY id DESC LIMIT ?`,
		limitOr(limit, 100),
	)
	if err != nil {
		return nil, fmt.Errorf("list emotions: %w", err)
	}
	defer rows.Close()

	var out []domain.EmotionSample
	for rows.Next() {
		var (
			e         domain.EmotionSample
			vals      string
			createdAt int64
		)
		if err := rows.Scan(&e.ID, &vals, &e.Dominant, &e.Valence, &createdAt); err != nil {
			return nil, fmt.Errorf("scan emotion: %w", err)
		}
		if err := json.Unmarshal([]byte(vals), &e.Values); err != nil {
			return nil, fmt.Errorf("decode emotion %d: %w", e.ID, err)
		}
		e.CreatedAt = fromUnix(createdAt)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) AppendCycle(ctx context.Context, c *domain.Cycle) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now().UTC()
	}
	res, err := s.execOne(ctx,
		`INSERT INTO cycles (cycle_number, action, outcome, created_at) VALUES (?, ?, ?, ?)`,
		c.CycleNumber, c.Action, c.Outcome, toUnix(c.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("append cycle: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		c.ID = id
	}
	return nil
}

// ListCycles returns the newest cycles first.
func (s *Store) ListCycles(ctx context.Context, limit int) ([]domain.Cycle, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, cycle_number, action, outcome, created_at FROM cycles ORDER BY id DESC LIMIT ?`,
		limitOr(limit, 100),
	)
	if err != nil {
		return nil, fmt.Errorf("list cycles: %w", err)
	}
	defer rows.Close()

	var out []domain.Cycle
	for rows.Next() {
		var (
			c         domain.Cycle
			createdAt int64
		)
		if err := rows.Scan(&c.ID, &c.CycleNumber, &c.Action, &c.Outcome, &createdAt); err != nil {
			return nil, fmt.Errorf("scan cycle: %w", err)
		}
		c.CreatedAt = fromUnix(createdAt)
		out = append(out, c)
	}
	return out, rows.Err()
}

// LastCycleNumber is zero for an empty log.
func (s *Store) LastCycleNumber(ctx context.Context) (int64, error) {
	var n sql.NullInt64
	err := s.db.QueryRowContext(ctx, `SELECT MAX(cycle_number) FROM cycles`).Scan(&n)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("last cycle number: %w", err)
	}
	return n.Int64, nil
}
