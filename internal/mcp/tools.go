package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/claude/healthsync/internal/models"
	"github.com/mark3labs/mcp-go/mcp"
)

// maxSummaryDays caps get_summaries so one call cannot fan out unbounded lookups.
const maxSummaryDays = 31

func (h *handlers) today() string {
	return h.now().UTC().Format(models.DateLayout)
}

// dateRange parses start/end, defaulting to the last 7 days ending today.
func (h *handlers) dateRange(startStr, endStr string) (models.DateRange, error) {
	end := h.now().UTC()
	if endStr != "" {
		t, err := time.Parse(models.DateLayout, endStr)
		if err != nil {
			return models.DateRange{}, fmt.Errorf("end must be YYYY-MM-DD: %w", err)
		}
		end = t
	}
	start := end.AddDate(0, 0, -6)
	if startStr != "" {
		t, err := time.Parse(models.DateLayout, startStr)
		if err != nil {
			return models.DateRange{}, fmt.Errorf("start must be YYYY-MM-DD: %w", err)
		}
		start = t
	}
	if start.After(end) {
		return models.DateRange{}, fmt.Errorf("start %s is after end %s", start.Format(models.DateLayout), end.Format(models.DateLayout))
	}
	return models.DateRange{Start: start.Format(models.DateLayout), End: end.Format(models.DateLayout)}, nil
}

// --- Tool definitions ---

var toolGetDailySummary = mcp.NewTool("get_daily_summary",
	mcp.WithDescription("Get the combined view of one day: steps, calories, sleep, workouts and heart-rate statistics. Missing kinds are null; 'incomplete' lists kinds whose lookup failed."),
	mcp.WithString("date", mcp.Description("Day as YYYY-MM-DD. Defaults to today (UTC).")),
)

var toolGetSummaries = mcp.NewTool("get_summaries",
	mcp.WithDescription("Get daily summaries for every day in a range, oldest first. At most 31 days."),
	mcp.WithString("start", mcp.Description("Start date (YYYY-MM-DD). Defaults to 6 days before end.")),
	mcp.WithString("end", mcp.Description("End date (YYYY-MM-DD). Defaults to today.")),
)

var toolGetRecords = mcp.NewTool("get_records",
	mcp.WithDescription("List stored records of one kind in a date range, newest first."),
	mcp.WithString("kind", mcp.Required(), mcp.Description("Record kind"),
		mcp.Enum(string(models.KindSteps), string(models.KindHeartRate), string(models.KindSleep),
			string(models.KindCalories), string(models.KindWorkouts), string(models.KindDistance))),
	mcp.WithString("start", mcp.Description("Start date (YYYY-MM-DD). Defaults to 7 days ago.")),
	mcp.WithString("end", mcp.Description("End date (YYYY-MM-DD). Defaults to today.")),
	mcp.WithString("type", mcp.Description("Workout type filter, e.g. 'Running'. Only used for workouts.")),
)

// --- Tool handlers ---

func (h *handlers) getDailySummary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	date := req.GetString("date", h.today())
	if !models.ValidDate(date) {
		return mcp.NewToolResultError("date must be YYYY-MM-DD"), nil
	}

	sum, err := h.ds.Summarize(ctx, date)
	if err != nil {
		h.log.Error("mcp get_daily_summary", "date", date, "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(sum)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getSummaries(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	r, err := h.dateRange(req.GetString("start", ""), req.GetString("end", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid date range: " + err.Error()), nil
	}

	start, _ := time.Parse(models.DateLayout, r.Start)
	end, _ := time.Parse(models.DateLayout, r.End)
	if days := int(end.Sub(start).Hours()/24) + 1; days > maxSummaryDays {
		return mcp.NewToolResultError(fmt.Sprintf("range covers %d days, at most %d allowed", days, maxSummaryDays)), nil
	}

	var out []*models.DailySummary
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		sum, err := h.ds.Summarize(ctx, d.Format(models.DateLayout))
		if err != nil {
			h.log.Error("mcp get_summaries", "date", d.Format(models.DateLayout), "error", err)
			return mcp.NewToolResultError("query failed: " + err.Error()), nil
		}
		out = append(out, sum)
	}

	result, err := mcp.NewToolResultJSON(out)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getRecords(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kind, err := req.RequireString("kind")
	if err != nil {
		return mcp.NewToolResultError("kind parameter is required"), nil
	}

	r, err := h.dateRange(req.GetString("start", ""), req.GetString("end", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid date range: " + err.Error()), nil
	}

	var rows any
	switch models.Kind(kind) {
	case models.KindSteps:
		rows, err = h.ds.QuerySteps(ctx, r)
	case models.KindHeartRate:
		rows, err = h.ds.QueryHeartRate(ctx, r)
	case models.KindSleep:
		rows, err = h.ds.QuerySleep(ctx, r)
	case models.KindCalories:
		rows, err = h.ds.QueryCalories(ctx, r)
	case models.KindDistance:
		rows, err = h.ds.QueryDistance(ctx, r)
	case models.KindWorkouts:
		rows, err = h.ds.QueryWorkouts(ctx, r, req.GetString("type", ""))
	default:
		return mcp.NewToolResultError("unknown kind: " + kind), nil
	}
	if err != nil {
		h.log.Error("mcp get_records", "kind", kind, "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(rows)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
