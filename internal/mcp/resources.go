package mcp

import (
	"context"
	"encoding/json"

	"github.com/claude/healthsync/internal/models"
	"github.com/mark3labs/mcp-go/mcp"
)

func (h *handlers) dailySummary(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	sum, err := h.ds.Summarize(ctx, h.today())
	if err != nil {
		return nil, err
	}
	return jsonContents(req.Params.URI, sum)
}

func (h *handlers) recentWorkouts(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	now := h.now().UTC()
	r := models.DateRange{
		Start: now.AddDate(0, 0, -14).Format(models.DateLayout),
		End:   now.Format(models.DateLayout),
	}
	workouts, err := h.ds.QueryWorkouts(ctx, r, "")
	if err != nil {
		return nil, err
	}
	return jsonContents(req.Params.URI, workouts)
}

func jsonContents(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
