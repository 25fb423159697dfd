package storage

import (
	"context"
	"fmt"

	"github.com/claude/healthsync/internal/models"
)

const sleepColumns = `id, date, start_time, end_time, duration_minutes, quality, created_at, updated_at`

// UpsertSleep inserts or replaces the sleep row for s.Date.
func (db *DB) UpsertSleep(ctx context.Context, s models.Sleep) error {
	now := db.stamp()
	err := db.conn.exec(ctx,
		`INSERT INTO sleep (date, start_time, end_time, duration_minutes, quality, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (date) DO UPDATE SET
		   start_time = excluded.start_time,
		   end_time = excluded.end_time,
		   duration_minutes = excluded.duration_minutes,
		   quality = excluded.quality,
		   updated_at = excluded.updated_at`,
		s.Date, s.StartTime, s.EndTime, s.DurationMinutes, s.Quality, now, now)
	if err != nil {
		return fmt.Errorf("upserting sleep: %w", err)
	}
	return nil
}

// GetSleep returns the sleep row for date, or ErrNotFound.
func (db *DB) GetSleep(ctx context.Context, date string) (*models.Sleep, error) {
	s, err := scanSleep(db.conn.queryRow(ctx,
		`SELECT `+sleepColumns+` FROM sleep WHERE date = ?`, date))
	if err != nil {
		return nil, fmt.Errorf("getting sleep: %w", err)
	}
	return &s, nil
}

// QuerySleep returns sleep rows in the range, newest date first.
func (db *DB) QuerySleep(ctx context.Context, r models.DateRange) ([]models.Sleep, error) {
	where, args := rangeWhere(r)
	rows, err := db.conn.query(ctx,
		`SELECT `+sleepColumns+` FROM sleep`+where+` ORDER BY date DESC, id DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying sleep: %w", err)
	}
	defer rows.Close()

	result := []models.Sleep{}
	for rows.Next() {
		s, err := scanSleep(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning sleep: %w", err)
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

func scanSleep(r row) (models.Sleep, error) {
	var s models.Sleep
	var created, updated string
	err := r.Scan(&s.ID, &s.Date, &s.StartTime, &s.EndTime, &s.DurationMinutes, &s.Quality, &created, &updated)
	if err != nil {
		return s, err
	}
	s.CreatedAt, s.UpdatedAt = parseStamp(created), parseStamp(updated)
	return s, nil
}
