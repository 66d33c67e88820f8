package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Harshitk-cp/lumen/internal/domain"
)

const sessionKey = "session"

// LoadSession returns a zero session on a fresh store.
func (s *Store) LoadSession(ctx context.Context) (*domain.Session, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM session WHERE key = ?`, sessionKey).Scan(&raw)
	if err != nil {
		if isNoRows(err) {
			return &domain.Session{}, nil
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	var sess domain.Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &sess, nil
}

func (s *Store) SaveSession(ctx context.Context, sess *domain.Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	_, err = s.execOne(ctx,
		`INSERT INTO session (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		sessionKey, string(raw),
	)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}
