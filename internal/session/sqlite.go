package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

const schema = `
CREATE TABLE IF NOT EXISTS rater_sessions (
	id         TEXT PRIMARY KEY,
	email      TEXT NOT NULL,
	venue      TEXT NOT NULL,
	first_name TEXT NOT NULL DEFAULT '',
	last_name  TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL,
	expires_at INTEGER NOT NULL
);
`

type sessionRow struct {
	Session
	CreatedAt int64 `db:"created_at"`
	ExpiresAt int64 `db:"expires_at"`
}

// SQLiteStore keeps sessions in a SQLite table.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore creates the sessions table on db if needed.
func NewSQLiteStore(db *sqlx.DB) (*SQLiteStore, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("run session migrations: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Load(ctx context.Context, id string) (Session, error) {
	var row sessionRow
	err := s.db.GetContext(ctx, &row, `SELECT id, email, venue, first_name, last_name, created_at, expires_at
		FROM rater_sessions WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("load session %s: %w", id, err)
	}
	sess := row.Session
	sess.CreatedAt = time.UnixMilli(row.CreatedAt)
	sess.ExpiresAt = time.UnixMilli(row.ExpiresAt)
	return sess, nil
}

func (s *SQLiteStore) Save(ctx context.Context, sess Session) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO rater_sessions (id, email, venue, first_name, last_name, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			email = excluded.email,
			venue = excluded.venue,
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			expires_at = excluded.expires_at
	`, sess.ID, sess.Email, sess.Venue, sess.FirstName, sess.LastName,
		sess.CreatedAt.UnixMilli(), sess.ExpiresAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("save session %s: %w", sess.ID, err)
	}
	return nil
}

func (s *SQLiteStore) Clear(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM rater_sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("clear session %s: %w", id, err)
	}
	return nil
}
