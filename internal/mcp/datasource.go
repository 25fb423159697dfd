package mcp

import (
	"context"
	"log/slog"

	"github.com/claude/healthsync/internal/client"
	"github.com/claude/healthsync/internal/models"
	"github.com/claude/healthsync/internal/storage"
	"github.com/claude/healthsync/internal/summary"
)

// DataSource abstracts the data layer for MCP tools. Local (store) and
// *client.Client (remote via REST API) satisfy this interface.
type DataSource interface {
	Summarize(ctx context.Context, date string) (*models.DailySummary, error)
	QuerySteps(ctx context.Context, r models.DateRange) ([]models.Steps, error)
	QueryHeartRate(ctx context.Context, r models.DateRange) ([]models.HeartRate, error)
	QuerySleep(ctx context.Context, r models.DateRange) ([]models.Sleep, error)
	QueryCalories(ctx context.Context, r models.DateRange) ([]models.Calories, error)
	QueryDistance(ctx context.Context, r models.DateRange) ([]models.Distance, error)
	QueryWorkouts(ctx context.Context, r models.DateRange, workoutType string) ([]models.Workout, error)
}

// Compile-time checks: both data sources satisfy DataSource.
var (
	_ DataSource = (*Local)(nil)
	_ DataSource = (*client.Client)(nil)
)

// Local serves MCP queries straight from the store.
type Local struct {
	*storage.DB
	*summary.Aggregator
}

// NewLocal wraps db with its own summary aggregator.
func NewLocal(db *storage.DB, log *slog.Logger) *Local {
	return &Local{DB: db, Aggregator: summary.New(db, log)}
}
