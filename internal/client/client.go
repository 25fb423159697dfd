// Package client talks to the healthsync REST API. It is used by the agent
// to sync and by the MCP server in remote mode.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/claude/healthsync/internal/models"
)

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// envelope is the response wrapper used by every endpoint.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

// Client calls the REST API. Each call is made once; there are no retries.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a Client for the server at baseURL.
func New(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, body any) ([]byte, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("client: marshal %s: %w", path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("client: create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("client: %s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("client: read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(data))}
		var env envelope
		if json.Unmarshal(data, &env) == nil && env.Error != "" {
			apiErr.Message = env.Error
		}
		return nil, apiErr
	}
	return data, nil
}

// data decodes the envelope's data field into v.
func (c *Client) data(ctx context.Context, path string, params url.Values, v any) error {
	body, err := c.do(ctx, http.MethodGet, path, params, nil)
	if err != nil {
		return err
	}
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("client: decode %s: %w", path, err)
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		return fmt.Errorf("client: decode %s data: %w", path, err)
	}
	return nil
}

func list[T any](ctx context.Context, c *Client, path string, params url.Values) ([]T, error) {
	var out []T
	if err := c.data(ctx, path, params, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) post(ctx context.Context, path string, v any) error {
	_, err := c.do(ctx, http.MethodPost, path, nil, v)
	return err
}

func rangeParams(r models.DateRange) url.Values {
	v := url.Values{}
	if r.Start != "" {
		v.Set("startDate", r.Start)
	}
	if r.End != "" {
		v.Set("endDate", r.End)
	}
	return v
}

// Health checks that the server is up.
func (c *Client) Health(ctx context.Context) error {
	body, err := c.do(ctx, http.MethodGet, "/api/health", nil, nil)
	if err != nil {
		return err
	}
	var resp struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("client: decode health: %w", err)
	}
	if resp.Status != "ok" {
		return fmt.Errorf("client: server status %q", resp.Status)
	}
	return nil
}

func (c *Client) UpsertSteps(ctx context.Context, s models.Steps) error {
	return c.post(ctx, "/api/steps", s)
}

func (c *Client) AppendHeartRate(ctx context.Context, h models.HeartRate) error {
	return c.post(ctx, "/api/heart-rate", h)
}

func (c *Client) UpsertSleep(ctx context.Context, s models.Sleep) error {
	return c.post(ctx, "/api/sleep", s)
}

func (c *Client) UpsertCalories(ctx context.Context, cal models.Calories) error {
	return c.post(ctx, "/api/calories", cal)
}

func (c *Client) AppendWorkout(ctx context.Context, w models.Workout) error {
	return c.post(ctx, "/api/workouts", w)
}

func (c *Client) UpsertDistance(ctx context.Context, d models.Distance) error {
	return c.post(ctx, "/api/distance", d)
}

func (c *Client) QuerySteps(ctx context.Context, r models.DateRange) ([]models.Steps, error) {
	return list[models.Steps](ctx, c, "/api/steps", rangeParams(r))
}

func (c *Client) QueryHeartRate(ctx context.Context, r models.DateRange) ([]models.HeartRate, error) {
	return list[models.HeartRate](ctx, c, "/api/heart-rate", rangeParams(r))
}

func (c *Client) QuerySleep(ctx context.Context, r models.DateRange) ([]models.Sleep, error) {
	return list[models.Sleep](ctx, c, "/api/sleep", rangeParams(r))
}

func (c *Client) QueryCalories(ctx context.Context, r models.DateRange) ([]models.Calories, error) {
	return list[models.Calories](ctx, c, "/api/calories", rangeParams(r))
}

func (c *Client) QueryDistance(ctx context.Context, r models.DateRange) ([]models.Distance, error) {
	return list[models.Distance](ctx, c, "/api/distance", rangeParams(r))
}

func (c *Client) QueryWorkouts(ctx context.Context, r models.DateRange, workoutType string) ([]models.Workout, error) {
	params := rangeParams(r)
	if workoutType != "" {
		params.Set("type", workoutType)
	}
	return list[models.Workout](ctx, c, "/api/workouts", params)
}

// Summarize fetches the daily summary. An empty date lets the server use today.
func (c *Client) Summarize(ctx context.Context, date string) (*models.DailySummary, error) {
	params := url.Values{}
	if date != "" {
		params.Set("date", date)
	}
	var out models.DailySummary
	if err := c.data(ctx, "/api/summary", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
