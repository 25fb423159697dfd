package storage

import (
	"context"
	"fmt"

	"github.com/claude/healthsync/internal/models"
)

// AppendHeartRate inserts one heart-rate sample. Duplicates are not checked.
func (db *DB) AppendHeartRate(ctx context.Context, h models.HeartRate) error {
	err := db.conn.exec(ctx,
		`INSERT INTO heart_rate (date, "timestamp", bpm, created_at) VALUES (?, ?, ?, ?)`,
		h.Date, h.Timestamp, h.BPM, db.stamp())
	if err != nil {
		return fmt.Errorf("inserting heart rate: %w", err)
	}
	return nil
}

// QueryHeartRate returns samples in the range, newest date and timestamp first.
func (db *DB) QueryHeartRate(ctx context.Context, r models.DateRange) ([]models.HeartRate, error) {
	where, args := rangeWhere(r)
	rows, err := db.conn.query(ctx,
		`SELECT id, date, "timestamp", bpm, created_at FROM heart_rate`+where+
			` ORDER BY date DESC, "timestamp" DESC, id DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying heart rate: %w", err)
	}
	defer rows.Close()

	result := []models.HeartRate{}
	for rows.Next() {
		var h models.HeartRate
		var created string
		if err := rows.Scan(&h.ID, &h.Date, &h.Timestamp, &h.BPM, &created); err != nil {
			return nil, fmt.Errorf("scanning heart rate: %w", err)
		}
		h.CreatedAt = parseStamp(created)
		result = append(result, h)
	}
	return result, rows.Err()
}

// HeartRateStats returns avg/min/max bpm for date, or nil when the date has no samples.
func (db *DB) HeartRateStats(ctx context.Context, date string) (*models.HeartRateStats, error) {
	var (
		count          int64
		avg            *float64
		minBPM, maxBPM *int64
	)
	err := db.conn.queryRow(ctx,
		`SELECT COUNT(*), CAST(AVG(bpm) AS DOUBLE PRECISION), MIN(bpm), MAX(bpm)
		 FROM heart_rate WHERE date = ?`, date).Scan(&count, &avg, &minBPM, &maxBPM)
	if err != nil {
		return nil, fmt.Errorf("heart rate stats: %w", err)
	}
	if count == 0 || avg == nil || minBPM == nil || maxBPM == nil {
		return nil, nil
	}
	return &models.HeartRateStats{Avg: *avg, Min: *minBPM, Max: *maxBPM, Samples: count}, nil
}
