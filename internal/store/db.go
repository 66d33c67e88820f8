// Package store persists every record kind in a single SQLite file opened in
// write-ahead-log mode. A process kill at any point leaves previously
// committed rows intact; the next Open replays the log before returning.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Harshitk-cp/lumen/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS memories (
	id           TEXT PRIMARY KEY,
	category     TEXT NOT NULL,
	content      TEXT NOT NULL,
	valence      REAL NOT NULL DEFAULT 0 CHECK (valence BETWEEN -1 AND 1),
	importance   REAL NOT NULL DEFAULT 0.5 CHECK (importance BETWEEN 0 AND 1),
	access_count INTEGER NOT NULL DEFAULT 0,
	created_at   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_memories_category ON memories(category, created_at);
CREATE INDEX IF NOT EXISTS idx_memories_importance ON memories(importance);

CREATE TABLE IF NOT EXISTS goals (
	id           TEXT PRIMARY KEY,
	description  TEXT NOT NULL,
	motivation   TEXT NOT NULL DEFAULT '',
	priority     REAL NOT NULL DEFAULT 0.5 CHECK (priority BETWEEN 0 AND 1),
	progress     REAL NOT NULL DEFAULT 0 CHECK (progress BETWEEN 0 AND 1),
	status       TEXT NOT NULL CHECK (status IN ('active', 'completed')),
	created_at   INTEGER NOT NULL,
	completed_at INTEGER
);
CREATE INDEX IF NOT EXISTS idx_goals_status ON goals(status, priority);

CREATE TABLE IF NOT EXISTS mutations (
	id            TEXT PRIMARY KEY,
	kind          TEXT NOT NULL,
	variable_name TEXT NOT NULL,
	old_value     TEXT NOT NULL DEFAULT '',
	new_value     TEXT NOT NULL DEFAULT '',
	accepted      INTEGER,
	reasoning     TEXT NOT NULL DEFAULT '',
	origin        TEXT NOT NULL DEFAULT '',
	created_at    INTEGER NOT NULL,
	finalized_at  INTEGER
);
CREATE INDEX IF NOT EXISTS idx_mutations_variable ON mutations(variable_name, created_at);
CREATE INDEX IF NOT EXISTS idx_mutations_pending ON mutations(accepted) WHERE accepted IS NULL;

CREATE TABLE IF NOT EXISTS emotions (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	vals       TEXT NOT NULL,
	dominant   TEXT NOT NULL,
	valence    REAL NOT NULL,
	created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS cycles (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	cycle_number INTEGER NOT NULL,
	action       TEXT NOT NULL,
	outcome      TEXT NOT NULL,
	created_at   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_cycles_number ON cycles(cycle_number);

CREATE TABLE IF NOT EXISTS session (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// Store implements domain.StateStore.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

var _ domain.StateStore = (*Store)(nil)

var pragmas = []string{
	"journal_mode(WAL)",
	"synchronous(FULL)",
	"busy_timeout(5000)",
	"foreign_keys(ON)",
}

func dsn(path string) string {
	return path + "?_pragma=" + strings.Join(pragmas, "&_pragma=")
}

// Open opens or creates the store at path, verifies its integrity and folds
// any surviving write-ahead log back into the main file. Failure to do so is
// ErrJournalCorruption and must be treated as fatal.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open state store: %w", err)
	}
	// One writer, one process.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, path: path, now: time.Now}
	if err := s.recover(ctx); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) recover(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrJournalCorruption, err)
	}

	rows, err := s.db.QueryContext(ctx, `PRAGMA integrity_check`)
	if err != nil {
		return fmt.Errorf("%w: integrity check: %v", domain.ErrJournalCorruption, err)
	}
	var problems []string
	for rows.Next() {
		var line string
		if err := rows.Scan(&line); err != nil {
			rows.Close()
			return fmt.Errorf("%w: integrity check: %v", domain.ErrJournalCorruption, err)
		}
		if line != "ok" {
			problems = append(problems, line)
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("%w: integrity check: %v", domain.ErrJournalCorruption, err)
	}
	rows.Close()
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", domain.ErrJournalCorruption, strings.Join(problems, "; "))
	}

	var busy, logFrames, checkpointed int
	if err := s.db.QueryRowContext(ctx, `PRAGMA wal_checkpoint(TRUNCATE)`).Scan(&busy, &logFrames, &checkpointed); err != nil {
		return fmt.Errorf("%w: replay journal: %v", domain.ErrJournalCorruption, err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Path() string {
	return s.path
}

// execOne runs a single-statement write in its own transaction.
func (s *Store) execOne(ctx context.Context, query string, args ...any) (sql.Result, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return res, nil
}

func toUnix(t time.Time) int64 {
	return t.UnixNano()
}

func fromUnix(n int64) time.Time {
	return time.Unix(0, n).UTC()
}

func nullableTime(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixNano(), Valid: true}
}

func timePtr(n sql.NullInt64) *time.Time {
	if !n.Valid {
		return nil
	}
	t := fromUnix(n.Int64)
	return &t
}

func limitOr(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	return limit
}
