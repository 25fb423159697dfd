package storage

import (
	"context"
	"fmt"

	"github.com/claude/healthsync/internal/models"
)

// UpsertDistance inserts or replaces the distance row for d.Date.
func (db *DB) UpsertDistance(ctx context.Context, d models.Distance) error {
	now := db.stamp()
	err := db.conn.exec(ctx,
		`INSERT INTO distance (date, distance_meters, distance_km, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (date) DO UPDATE SET
		   distance_meters = excluded.distance_meters,
		   distance_km = excluded.distance_km,
		   updated_at = excluded.updated_at`,
		d.Date, d.DistanceMeters, d.DistanceKM, now, now)
	if err != nil {
		return fmt.Errorf("upserting distance: %w", err)
	}
	return nil
}

// QueryDistance returns distance rows in the range, newest date first.
func (db *DB) QueryDistance(ctx context.Context, r models.DateRange) ([]models.Distance, error) {
	where, args := rangeWhere(r)
	rows, err := db.conn.query(ctx,
		`SELECT id, date, distance_meters, distance_km, created_at, updated_at FROM distance`+
			where+` ORDER BY date DESC, id DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying distance: %w", err)
	}
	defer rows.Close()

	result := []models.Distance{}
	for rows.Next() {
		var d models.Distance
		var created, updated string
		if err := rows.Scan(&d.ID, &d.Date, &d.DistanceMeters, &d.DistanceKM, &created, &updated); err != nil {
			return nil, fmt.Errorf("scanning distance: %w", err)
		}
		d.CreatedAt, d.UpdatedAt = parseStamp(created), parseStamp(updated)
		result = append(result, d)
	}
	return result, rows.Err()
}
