package store

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/Harshitk-cp/lumen/internal/domain"
	"github.com/google/uuid"
)

const (
	recallPool       = 500
	recencyHalfLife  = 6 * time.Hour
	importanceWeight = 0.6
)

func (s *Store) AppendMemory(ctx context.Context, m *domain.Memory) error {
	if !domain.ValidMemoryCategory(string(m.Category)) {
		return fmt.Errorf("append memory: invalid category %q", m.Category)
	}
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = s.now().UTC()
	}
	m.Normalize()

	_, err := s.execOne(ctx,
		`INSERT INTO memories (id, category, content, valence, importance, access_count, created_at)
		 VALUES (?, ?, ?, ?, ?, 0, ?)`,
		m.ID.String(), string(m.Category), m.Content, m.Valence, m.Importance, toUnix(m.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("append memory: %w", err)
	}
	m.AccessCount = 0
	return nil
}

// QueryMemories filters memories and counts each returned row as read.
func (s *Store) QueryMemories(ctx context.Context, q domain.MemoryQuery) ([]domain.Memory, error) {
	scored, err := s.readMemories(ctx, q)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Memory, len(scored))
	for i := range scored {
		out[i] = scored[i].Memory
	}
	return out, nil
}

// Recall returns the most relevant memories of a category, ranked by a blend
// of importance and recency. An empty category searches every category.
func (s *Store) Recall(ctx context.Context, category domain.MemoryCategory, limit int) ([]domain.MemoryWithScore, error) {
	return s.readMemories(ctx, domain.MemoryQuery{
		Category: category,
		OrderBy:  domain.OrderRelevance,
		Limit:    limit,
	})
}

func (s *Store) readMemories(ctx context.Context, q domain.MemoryQuery) ([]domain.MemoryWithScore, error) {
	limit := limitOr(q.Limit, 20)

	var (
		where []string
		args  []any
	)
	if q.Category != "" {
		where = append(where, "category = ?")
		args = append(args, string(q.Category))
	}
	if q.MinImportance > 0 {
		where = append(where, "importance >= ?")
		args = append(args, q.MinImportance)
	}
	if q.NegativeOnly {
		where = append(where, "valence < 0")
	}

	query := `SELECT id, category, content, valence, importance, access_count, created_at FROM memories`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	switch q.OrderBy {
	case domain.OrderImportance:
		query += " ORDER BY importance DESC, created_at DESC LIMIT ?"
		args = append(args, limit)
	case domain.OrderRelevance:
		query += " ORDER BY created_at DESC LIMIT ?"
		args = append(args, max(limit, recallPool))
	default:
		query += " ORDER BY created_at DESC LIMIT ?"
		args = append(args, limit)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("query memories: %w", err)
	}
	defer tx.Rollback()

	results, err := scanMemories(ctx, tx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query memories: %w", err)
	}

	if q.OrderBy == domain.OrderRelevance {
		now := s.now()
		for i := range results {
			results[i].Score = relevance(results[i].Memory, now)
		}
		sort.SliceStable(results, func(i, j int) bool {
			return results[i].Score > results[j].Score
		})
		if len(results) > limit {
			results = results[:limit]
		}
	}

	for i := range results {
		if _, err := tx.ExecContext(ctx,
			`UPDATE memories SET access_count = access_count + 1 WHERE id = ?`,
			results[i].ID.String(),
		); err != nil {
			return nil, fmt.Errorf("count memory access: %w", err)
		}
		results[i].AccessCount++
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("query memories: %w", err)
	}
	return results, nil
}

func scanMemories(ctx context.Context, tx *sql.Tx, query string, args ...any) ([]domain.MemoryWithScore, error) {
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.MemoryWithScore
	for rows.Next() {
		var (
			m         domain.MemoryWithScore
			id        string
			category  string
			createdAt int64
		)
		if err := rows.Scan(&id, &category, &m.Content, &m.Valence, &m.Importance, &m.AccessCount, &createdAt); err != nil {
			return nil, err
		}
		parsed, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("parse memory id %q: %w", id, err)
		}
		m.ID = parsed
		m.Category = domain.MemoryCategory(category)
		m.CreatedAt = fromUnix(createdAt)
		out = append(out, m)
	}
	return out, rows.Err()
}

// relevance blends importance with an exponential recency decay.
func relevance(m domain.Memory, now time.Time) float32 {
	age := now.Sub(m.CreatedAt)
	if age < 0 {
		age = 0
	}
	recency := math.Pow(0.5, age.Hours()/recencyHalfLife.Hours())
	return float32(importanceWeight*float64(m.Importance) + (1-importanceWeight)*recency)
}
