package syncgate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"
)

const lastSyncKey = "last_sync"

// StateDB persists the last-sync marker and a log of attempts for the agent.
type StateDB struct {
	db *sql.DB
}

// Attempt is one row of the sync log.
type Attempt struct {
	ID          string
	AttemptedAt time.Time
	Date        string
	Performed   bool
	Reason      Reason
	Records     int
	Failed      int
	LastError   string
}

// OpenStateDB opens (or creates) the SQLite state database at dir/state.db.
func OpenStateDB(dir string) (*StateDB, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating state dir %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dir, "state.db"))
	if err != nil {
		return nil, fmt.Errorf("opening state db: %w", err)
	}
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS sync_state (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS sync_log (
		id           TEXT PRIMARY KEY,
		attempted_at TEXT NOT NULL,
		date         TEXT NOT NULL DEFAULT '',
		performed    INTEGER NOT NULL,
		reason       TEXT NOT NULL DEFAULT '',
		records      INTEGER NOT NULL DEFAULT 0,
		failed       INTEGER NOT NULL DEFAULT 0,
		last_error   TEXT NOT NULL DEFAULT ''
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating state tables: %w", err)
	}

	return &StateDB{db: db}, nil
}

// LastSync returns the stored marker, or the zero time when none was saved.
func (s *StateDB) LastSync(ctx context.Context) (time.Time, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM sync_state WHERE key = ?`, lastSyncKey).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("reading last sync: %w", err)
	}
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing last sync %q: %w", v, err)
	}
	return t, nil
}

// SetLastSync stores the marker.
func (s *StateDB) SetLastSync(ctx context.Context, t time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO sync_state (key, value) VALUES (?, ?)`,
		lastSyncKey, t.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("saving last sync: %w", err)
	}
	return nil
}

// RecordAttempt appends res to the sync log and returns the new entry's id.
func (s *StateDB) RecordAttempt(ctx context.Context, res Result, at time.Time) (string, error) {
	id := ulid.Make().String()
	var lastErr string
	if err := res.LastErr(); err != nil {
		lastErr = err.Error()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sync_log (id, attempted_at, date, performed, reason, records, failed, last_error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, at.UTC().Format(time.RFC3339Nano), res.Date, res.Performed, string(res.Reason),
		len(res.Records), res.Failed(), lastErr,
	)
	if err != nil {
		return "", fmt.Errorf("recording sync attempt: %w", err)
	}
	return id, nil
}

// RecentAttempts returns up to limit log entries, newest first.
func (s *StateDB) RecentAttempts(ctx context.Context, limit int) ([]Attempt, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, attempted_at, date, performed, reason, records, failed, last_error
		 FROM sync_log ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying sync log: %w", err)
	}
	defer rows.Close()

	var out []Attempt
	for rows.Next() {
		var a Attempt
		var at, reason string
		if err := rows.Scan(&a.ID, &at, &a.Date, &a.Performed, &reason, &a.Records, &a.Failed, &a.LastError); err != nil {
			return nil, fmt.Errorf("scanning sync log: %w", err)
		}
		a.AttemptedAt, _ = time.Parse(time.RFC3339Nano, at)
		a.Reason = Reason(reason)
		out = append(out, a)
	}
	return out, rows.Err()
}

// Close closes the state database.
func (s *StateDB) Close() error {
	return s.db.Close()
}
