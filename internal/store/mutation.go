package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/Harshitk-cp/lumen/internal/domain"
	"github.com/google/uuid"
)

const mutationColumns = `id, kind, variable_name, old_value, new_value, accepted, reasoning, origin, created_at, finalized_at`

// BeginMutation writes a pending audit record.
func (s *Store) BeginMutation(ctx context.Context, m *domain.Mutation) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = s.now().UTC()
	}
	if m.Kind == "" {
		m.Kind = domain.MutationVariable
	}
	m.Accepted = nil
	m.FinalizedAt = nil

	_, err := s.execOne(ctx,
		`INSERT INTO mutations (`+mutationColumns+`) VALUES (?, ?, ?, ?, ?, NULL, ?, ?, ?, NULL)`,
		m.ID.String(), string(m.Kind), m.VariableName, m.OldValue, m.NewValue, m.Reasoning, m.Origin, toUnix(m.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("begin mutation: %w", err)
	}
	return nil
}

// FinalizeMutation sets the verdict of a pending record. A record can be
// finalized only once; later attempts return ErrMutationFinalized.
// An empty reasoning keeps the one recorded at begin.
func (s *Store) FinalizeMutation(ctx context.Context, id uuid.UUID, accepted bool, reasoning string) error {
	res, err := s.execOne(ctx,
		`UPDATE mutations
		 SET accepted = ?, reasoning = CASE WHEN ? = '' THEN reasoning ELSE ? END, finalized_at = ?
		 WHERE id = ? AND accepted IS NULL`,
		accepted, reasoning, reasoning, toUnix(s.now()), id.String(),
	)
	if err != nil {
		return fmt.Errorf("finalize mutation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finalize mutation: %w", err)
	}
	if n == 1 {
		return nil
	}

	var exists int
	err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM mutations WHERE id = ?`, id.String()).Scan(&exists)
	if err != nil {
		return fmt.Errorf("finalize mutation: %w", err)
	}
	if exists == 0 {
		return ErrNotFound
	}
	return domain.ErrMutationFinalized
}

func (s *Store) ListMutations(ctx context.Context, q domain.MutationQuery) ([]domain.Mutation, error) {
	var (
		where []string
		args  []any
	)
	if q.VariableName != "" {
		where = append(where, "variable_name = ?")
		args = append(args, q.VariableName)
	}
	if q.Accepted != nil {
		where = append(where, "accepted = ?")
		args = append(args, *q.Accepted)
	}
	query := `SELECT ` + mutationColumns + ` FROM mutations`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, limitOr(q.Limit, 100))
	return s.queryMutations(ctx, query, args...)
}

// PendingMutations lists records never finalized, oldest first.
func (s *Store) PendingMutations(ctx context.Context) ([]domain.Mutation, error) {
	return s.queryMutations(ctx,
		`SELECT `+mutationColumns+` FROM mutations WHERE accepted IS NULL ORDER BY created_at ASC`)
}

func (s *Store) queryMutations(ctx context.Context, query string, args ...any) ([]domain.Mutation, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list mutations: %w", err)
	}
	defer rows.Close()

	var out []domain.Mutation
	for rows.Next() {
		var (
			m           domain.Mutation
			id, kind    string
			accepted    sql.NullBool
			createdAt   int64
			finalizedAt sql.NullInt64
		)
		if err := rows.Scan(&id, &kind, &m.VariableName, &m.OldValue, &m.NewValue, &accepted,
			&m.Reasoning, &m.Origin, &createdAt, &finalizedAt); err != nil {
			return nil, fmt.Errorf("scan mutation: %w", err)
		}
		parsed, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("parse mutation id %q: %w", id, err)
		}
		m.ID = parsed
		m.Kind = domain.MutationKind(kind)
		if accepted.Valid {
			v := accepted.Bool
			m.Accepted = &v
		}
		m.CreatedAt = fromUnix(createdAt)
		m.FinalizedAt = timePtr(finalizedAt)
		out = append(out, m)
	}
	return out, rows.Err()
}
