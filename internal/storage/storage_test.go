package storage

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/claude/healthsync/internal/models"
)

// newTestDB migrates and opens a SQLite database in a temp dir.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "healthsync.db")
	if err := RunMigrations(DriverSQLite, path); err != nil {
		t.Fatalf("migrations: %v", err)
	}
	db, err := NewSQLite(context.Background(), path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(db.Close)
	return db
}

func f64(v float64) *float64 { return &v }

// TestUpsertStepsReplacesRow verifies a second upsert for the same date
// leaves one row carrying the second call's values, keeps created_at and
// bumps updated_at.
func TestUpsertStepsReplacesRow(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	first := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	db.now = func() time.Time { return first }
	if err := db.UpsertSteps(ctx, models.Steps{Date: "2024-01-01", Count: 1000, Distance: f64(700)}); err != nil {
		t.Fatal(err)
	}

	second := first.Add(time.Hour)
	db.now = func() time.Time { return second }
	if err := db.UpsertSteps(ctx, models.Steps{Date: "2024-01-01", Count: 2500}); err != nil {
		t.Fatal(err)
	}

	rows, err := db.QuerySteps(ctx, models.DateRange{})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	if rows[0].Count != 2500 {
		t.Errorf("count = %d, want 2500", rows[0].Count)
	}
	if rows[0].Distance != nil {
		t.Errorf("distance = %v, want nil", *rows[0].Distance)
	}
	if !rows[0].CreatedAt.Equal(first) {
		t.Errorf("created_at = %v, want %v", rows[0].CreatedAt, first)
	}
	if !rows[0].UpdatedAt.Equal(second) {
		t.Errorf("updated_at = %v, want %v", rows[0].UpdatedAt, second)
	}
}

// TestAppendHeartRateAccumulates verifies append kinds never collapse rows
// sharing a date.
func TestAppendHeartRateAccumulates(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	for i, ts := range []string{"2024-01-01T08:00:00Z", "2024-01-01T09:00:00Z", "2024-01-01T10:00:00Z"} {
		if err := db.AppendHeartRate(ctx, models.HeartRate{Date: "2024-01-01", Timestamp: ts, BPM: int64(60 + i)}); err != nil {
			t.Fatal(err)
		}
	}

	rows, err := db.QueryHeartRate(ctx, models.DateRange{Start: "2024-01-01", End: "2024-01-01"})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	if rows[0].Timestamp != "2024-01-01T10:00:00Z" {
		t.Errorf("first timestamp = %s, want the newest", rows[0].Timestamp)
	}
}

// TestQueryStepsRange covers the inclusive range and its one-sided forms.
func TestQueryStepsRange(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	for i, d := range []string{"2023-12-31", "2024-01-01", "2024-01-02", "2024-01-03", "2024-01-04"} {
		if err := db.UpsertSteps(ctx, models.Steps{Date: d, Count: int64(i)}); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		name string
		r    models.DateRange
		want []string
	}{
		{"both bounds", models.DateRange{Start: "2024-01-01", End: "2024-01-03"}, []string{"2024-01-03", "2024-01-02", "2024-01-01"}},
		{"start only", models.DateRange{Start: "2024-01-03"}, []string{"2024-01-04", "2024-01-03"}},
		{"end only", models.DateRange{End: "2024-01-01"}, []string{"2024-01-01", "2023-12-31"}},
		{"no bounds", models.DateRange{}, []string{"2024-01-04", "2024-01-03", "2024-01-02", "2024-01-01", "2023-12-31"}},
		{"empty", models.DateRange{Start: "2025-01-01"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := db.QuerySteps(ctx, tt.r)
			if err != nil {
				t.Fatal(err)
			}
			got := make([]string, 0, len(rows))
			for _, r := range rows {
				got = append(got, r.Date)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("dates = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestGetStepsNotFound verifies absence is reported with ErrNotFound and a
// zero count is returned as a real row.
func TestGetStepsNotFound(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if _, err := db.GetSteps(ctx, "2024-01-01"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}

	if err := db.UpsertSteps(ctx, models.Steps{Date: "2024-01-02", Count: 0}); err != nil {
		t.Fatal(err)
	}
	s, err := db.GetSteps(ctx, "2024-01-02")
	if err != nil {
		t.Fatalf("zero-count row: %v", err)
	}
	if s.Count != 0 {
		t.Errorf("count = %d, want 0", s.Count)
	}
}

// TestHeartRateStats verifies avg/min/max and the no-rows case.
func TestHeartRateStats(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	stats, err := db.HeartRateStats(ctx, "2024-01-01")
	if err != nil {
		t.Fatal(err)
	}
	if stats != nil {
		t.Errorf("stats with no rows = %+v, want nil", stats)
	}

	for _, bpm := range []int64{60, 70, 80} {
		if err := db.AppendHeartRate(ctx, models.HeartRate{Date: "2024-01-01", Timestamp: "t", BPM: bpm}); err != nil {
			t.Fatal(err)
		}
	}
	if err := db.AppendHeartRate(ctx, models.HeartRate{Date: "2024-01-02", Timestamp: "t", BPM: 150}); err != nil {
		t.Fatal(err)
	}

	stats, err = db.HeartRateStats(ctx, "2024-01-01")
	if err != nil {
		t.Fatal(err)
	}
	want := models.HeartRateStats{Avg: 70, Min: 60, Max: 80, Samples: 3}
	if stats == nil || *stats != want {
		t.Errorf("stats = %+v, want %+v", stats, want)
	}
}

// TestSleepCaloriesDistanceUpsert verifies every singleton kind keeps one
// row per date.
func TestSleepCaloriesDistanceUpsert(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	quality := "good"

	for _, s := range []models.Sleep{
		{Date: "2024-01-01", StartTime: "a", EndTime: "b", DurationMinutes: 400},
		{Date: "2024-01-01", StartTime: "c", EndTime: "d", DurationMinutes: 420, Quality: &quality},
	} {
		if err := db.UpsertSleep(ctx, s); err != nil {
			t.Fatal(err)
		}
	}
	sleep, err := db.QuerySleep(ctx, models.DateRange{})
	if err != nil {
		t.Fatal(err)
	}
	if len(sleep) != 1 {
		t.Fatalf("sleep rows = %d, want 1", len(sleep))
	}
	if sleep[0].DurationMinutes != 420 || sleep[0].Quality == nil || *sleep[0].Quality != "good" {
		t.Errorf("sleep = %+v", sleep[0])
	}

	for _, c := range []models.Calories{
		{Date: "2024-01-01", ActiveCalories: 100, RestingCalories: 1500, TotalCalories: 1600},
		{Date: "2024-01-01", ActiveCalories: 300, RestingCalories: 1500, TotalCalories: 1800},
	} {
		if err := db.UpsertCalories(ctx, c); err != nil {
			t.Fatal(err)
		}
	}
	cal, err := db.GetCalories(ctx, "2024-01-01")
	if err != nil {
		t.Fatal(err)
	}
	if cal.TotalCalories != 1800 {
		t.Errorf("total calories = %v, want 1800", cal.TotalCalories)
	}

	for _, d := range []models.Distance{
		{Date: "2024-01-01", DistanceMeters: 1000, DistanceKM: 1},
		{Date: "2024-01-01", DistanceMeters: 2000, DistanceKM: 2},
	} {
		if err := db.UpsertDistance(ctx, d); err != nil {
			t.Fatal(err)
		}
	}
	dist, err := db.QueryDistance(ctx, models.DateRange{})
	if err != nil {
		t.Fatal(err)
	}
	if len(dist) != 1 || dist[0].DistanceKM != 2 {
		t.Errorf("distance = %+v, want one row of 2 km", dist)
	}
}

// TestQueryWorkoutsTypeFilter verifies the optional type filter combines
// with the date range.
func TestQueryWorkoutsTypeFilter(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	for _, w := range []struct{ date, start, typ string }{
		{"2024-01-01", "2024-01-01T07:00:00Z", "Running"},
		{"2024-01-01", "2024-01-01T18:00:00Z", "Cycling"},
		{"2024-01-02", "2024-01-02T07:00:00Z", "Running"},
	} {
		err := db.AppendWorkout(ctx, models.Workout{
			Date: w.date, StartTime: w.start, EndTime: w.start, DurationMinutes: 30, Type: w.typ,
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	all, err := db.WorkoutsOn(ctx, "2024-01-01")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 || all[0].Type != "Cycling" {
		t.Errorf("workouts on 2024-01-01 = %+v, want the later Cycling first", all)
	}

	runs, err := db.QueryWorkouts(ctx, models.DateRange{}, "Running")
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 || runs[0].Date != "2024-01-02" {
		t.Errorf("runs = %+v, want two, newest first", runs)
	}

	runs, err = db.QueryWorkouts(ctx, models.DateRange{Start: "2024-01-02"}, "Running")
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 {
		t.Errorf("runs from 2024-01-02 = %d, want 1", len(runs))
	}
}

// TestRebind verifies ? placeholders become numbered PostgreSQL parameters.
func TestRebind(t *testing.T) {
	got := rebind(`SELECT * FROM steps WHERE date BETWEEN ? AND ? AND count > ?`)
	want := `SELECT * FROM steps WHERE date BETWEEN $1 AND $2 AND count > $3`
	if got != want {
		t.Errorf("rebind = %q, want %q", got, want)
	}
}
