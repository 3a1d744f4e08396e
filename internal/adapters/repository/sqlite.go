package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/okian/stagerank/internal/domain/model"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS aggregate_snapshots (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	venue          TEXT    NOT NULL,
	scope          TEXT    NOT NULL,
	performer_id   TEXT    NOT NULL,
	average_rating REAL    NOT NULL,
	rating_count   INTEGER NOT NULL,
	comment_count  INTEGER NOT NULL,
	xp             INTEGER NOT NULL DEFAULT 0,
	has_xp         INTEGER NOT NULL DEFAULT 0,
	taken_at       INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_snapshots_series
	ON aggregate_snapshots (venue, scope, performer_id, taken_at);
`

// snapshotRow is the table shape; taken_at is unix nanoseconds.
type snapshotRow struct {
	Snapshot
	ID      int64 `db:"id"`
	TakenAt int64 `db:"taken_at"`
}

func (r snapshotRow) snapshot() Snapshot {
	s := r.Snapshot
	s.TakenAt = time.Unix(0, r.TakenAt).UTC()
	return s
}

const selectColumns = `id, venue, scope, performer_id, average_rating, rating_count, comment_count, xp, has_xp, taken_at`

// SQLiteStore keeps snapshot history in a SQLite database.
type SQLiteStore struct {
	db   *sqlx.DB
	opts settings
}

// Pragmas applied by the modernc driver to every new connection.
const pragmas = "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"

// OpenSQLite opens (or creates) a SQLite database at path and runs migrations.
func OpenSQLite(path string, opts ...Option) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", path+pragmas)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &SQLiteStore{db: db, opts: newSettings(opts)}, nil
}

// DB exposes the underlying handle so other stores can share the file.
func (s *SQLiteStore) DB() *sqlx.DB {
	return s.db
}

func (s *SQLiteStore) Record(ctx context.Context, snaps []Snapshot) (int, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin record: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	written := 0
	for _, snap := range snaps {
		if snap.TakenAt.IsZero() {
			snap.TakenAt = s.opts.now()
		}
		var last snapshotRow
		err := tx.GetContext(ctx, &last, `SELECT `+selectColumns+` FROM aggregate_snapshots
			WHERE venue = ? AND scope = ? AND performer_id = ?
			ORDER BY taken_at DESC, id DESC LIMIT 1`, snap.Venue, string(snap.Scope), snap.PerformerID)
		switch {
		case err == nil && sameState(last.Snapshot, snap):
			continue
		case err != nil && !errors.Is(err, sql.ErrNoRows):
			return 0, fmt.Errorf("latest snapshot %s: %w", snap.PerformerID, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO aggregate_snapshots (venue, scope, performer_id, average_rating, rating_count, comment_count, xp, has_xp, taken_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, snap.Venue, string(snap.Scope), snap.PerformerID, snap.AverageRating, snap.RatingCount,
			snap.CommentCount, snap.XP, snap.HasXP, snap.TakenAt.UnixNano())
		if err != nil {
			return 0, fmt.Errorf("insert snapshot %s: %w", snap.PerformerID, err)
		}
		written++
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit record: %w", err)
	}
	return written, nil
}

func (s *SQLiteStore) Previous(ctx context.Context, venue string, scope model.Scope, performerID string, ratingCount int) (Snapshot, error) {
	var row snapshotRow
	err := s.db.GetContext(ctx, &row, `SELECT `+selectColumns+` FROM aggregate_snapshots
		WHERE venue = ? AND scope = ? AND performer_id = ? AND rating_count < ?
		ORDER BY taken_at DESC, id DESC LIMIT 1`, venue, string(scope), performerID, ratingCount)
	return rowResult(row, err, performerID)
}

func (s *SQLiteStore) Checkpoint(ctx context.Context, venue string, scope model.Scope, performerID string, at time.Time) (Snapshot, error) {
	var row snapshotRow
	err := s.db.GetContext(ctx, &row, `SELECT `+selectColumns+` FROM aggregate_snapshots
		WHERE venue = ? AND scope = ? AND performer_id = ? AND has_xp = 1 AND taken_at <= ?
		ORDER BY taken_at DESC, id DESC LIMIT 1`, venue, string(scope), performerID, at.UnixNano())
	if errors.Is(err, sql.ErrNoRows) {
		err = s.db.GetContext(ctx, &row, `SELECT `+selectColumns+` FROM aggregate_snapshots
			WHERE venue = ? AND scope = ? AND performer_id = ? AND has_xp = 1 AND taken_at > ?
			ORDER BY taken_at ASC, id ASC LIMIT 1`, venue, string(scope), performerID, at.UnixNano())
	}
	return rowResult(row, err, performerID)
}

func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM aggregate_snapshots`); err != nil {
		return 0, fmt.Errorf("count snapshots: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func rowResult(row snapshotRow, err error, performerID string) (Snapshot, error) {
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, ErrNotFound
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("query snapshot %s: %w", performerID, err)
	}
	return row.snapshot(), nil
}
