package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/claude/healthsync/internal/models"
	"github.com/claude/healthsync/internal/storage"
	"github.com/claude/healthsync/internal/summary"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// newTestServer builds a Server on a migrated SQLite store in a temp dir.
func newTestServer(t *testing.T) (*Server, *storage.DB) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "healthsync.db")
	if err := storage.RunMigrations(storage.DriverSQLite, path); err != nil {
		t.Fatalf("migrations: %v", err)
	}
	db, err := storage.NewSQLite(context.Background(), path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(db.Close)
	return New(db, summary.New(db, discard), discard), db
}

type response struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

func do(t *testing.T, s *Server, method, target, body string) (int, response) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	var resp response
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("%s %s: decode error: %v", method, target, err)
	}
	return rec.Code, resp
}

// TestHealthAndIndex covers the two fixed endpoints.
func TestHealthAndIndex(t *testing.T) {
	s, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var health map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&health); err != nil {
		t.Fatal(err)
	}
	if health["status"] != "ok" || health["message"] != "Server is running" {
		t.Errorf("health = %v", health)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	var index struct {
		Message   string            `json:"message"`
		Version   string            `json:"version"`
		Endpoints map[string]string `json:"endpoints"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&index); err != nil {
		t.Fatal(err)
	}
	if index.Version != Version || index.Endpoints["heartRate"] != "/api/heart-rate" {
		t.Errorf("index = %+v", index)
	}
}

// TestStepsUpsertAndRange posts the same date twice and lists by range.
func TestStepsUpsertAndRange(t *testing.T) {
	s, _ := newTestServer(t)

	for _, body := range []string{
		`{"date":"2024-01-01","count":1000}`,
		`{"date":"2024-01-01","count":1500,"distance":1.2}`,
		`{"date":"2024-01-03","count":700}`,
		`{"date":"2024-01-05","count":300}`,
	} {
		code, resp := do(t, s, http.MethodPost, "/api/steps", body)
		if code != http.StatusOK || resp.Message != "Steps saved successfully" {
			t.Fatalf("POST %s: %d %+v", body, code, resp)
		}
	}

	code, resp := do(t, s, http.MethodGet, "/api/steps?startDate=2024-01-01&endDate=2024-01-03", "")
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	var rows []models.Steps
	if err := json.Unmarshal(resp.Data, &rows); err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0].Date != "2024-01-03" || rows[1].Count != 1500 {
		t.Errorf("rows = %+v", rows)
	}
}

// TestValidationRejectsBeforeStorage verifies missing fields return 400 with
// the required-fields message and nothing is written.
func TestValidationRejectsBeforeStorage(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		body    string
		wantErr string
	}{
		{"sleep without duration", "/api/sleep",
			`{"date":"2024-01-01","start_time":"23:00","end_time":"07:00"}`,
			"Date, start_time, end_time, and duration_minutes are required"},
		{"steps without count", "/api/steps", `{"date":"2024-01-01"}`, "Date and count are required"},
		{"heart rate zero bpm", "/api/heart-rate",
			`{"date":"2024-01-01","timestamp":"2024-01-01T08:00:00Z","bpm":0}`,
			"Date, timestamp, and bpm are required"},
		{"workout without type", "/api/workouts",
			`{"date":"2024-01-01","start_time":"a","end_time":"b","duration_minutes":30}`,
			"Date, start_time, end_time, duration_minutes, and type are required"},
		{"calories missing total", "/api/calories",
			`{"date":"2024-01-01","active_calories":1,"resting_calories":2}`,
			"Date, active_calories, resting_calories, and total_calories are required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestServer(t)
			code, resp := do(t, s, http.MethodPost, tt.path, tt.body)
			if code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", code)
			}
			if resp.Success || resp.Error != tt.wantErr {
				t.Errorf("resp = %+v", resp)
			}

			_, list := do(t, s, http.MethodGet, tt.path, "")
			if string(list.Data) != "[]" {
				t.Errorf("stored rows = %s, want none", list.Data)
			}
		})
	}
}

// TestBadRequests covers malformed bodies and query parameters.
func TestBadRequests(t *testing.T) {
	s, _ := newTestServer(t)

	if code, resp := do(t, s, http.MethodPost, "/api/steps", `{"date":`); code != http.StatusBadRequest || !strings.HasPrefix(resp.Error, "invalid JSON") {
		t.Errorf("invalid JSON: %d %+v", code, resp)
	}
	if code, _ := do(t, s, http.MethodGet, "/api/heart-rate?startDate=01/02/2024", ""); code != http.StatusBadRequest {
		t.Errorf("bad startDate: status = %d", code)
	}
	if code, _ := do(t, s, http.MethodGet, "/api/summary?date=tomorrow", ""); code != http.StatusBadRequest {
		t.Errorf("bad summary date: status = %d", code)
	}
}

// TestWorkoutsTypeFilter verifies the type query parameter.
func TestWorkoutsTypeFilter(t *testing.T) {
	s, _ := newTestServer(t)
	for _, typ := range []string{"Running", "Yoga", "Running"} {
		body := `{"date":"2024-02-01","start_time":"08:00","end_time":"08:30","duration_minutes":30,"type":"` + typ + `"}`
		if code, resp := do(t, s, http.MethodPost, "/api/workouts", body); code != http.StatusOK {
			t.Fatalf("POST: %d %+v", code, resp)
		}
	}
	_, resp := do(t, s, http.MethodGet, "/api/workouts?type=Running", "")
	var rows []models.Workout
	if err := json.Unmarshal(resp.Data, &rows); err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Errorf("rows = %d, want 2", len(rows))
	}
}

// TestSummaryAbsentAndDefaultDate verifies absent kinds are null and the
// date defaults to today in UTC.
func TestSummaryAbsentAndDefaultDate(t *testing.T) {
	s, _ := newTestServer(t)
	s.now = func() time.Time { return time.Date(2024, 4, 2, 23, 30, 0, 0, time.FixedZone("UTC-5", -5*3600)) }

	if code, _ := do(t, s, http.MethodPost, "/api/steps", `{"date":"2024-04-03","count":0}`); code != http.StatusOK {
		t.Fatal("seed steps failed")
	}
	for _, bpm := range []string{"60", "80"} {
		body := `{"date":"2024-04-03","timestamp":"2024-04-03T0` + bpm[:1] + `:00:00Z","bpm":` + bpm + `}`
		if code, _ := do(t, s, http.MethodPost, "/api/heart-rate", body); code != http.StatusOK {
			t.Fatal("seed heart rate failed")
		}
	}

	code, resp := do(t, s, http.MethodGet, "/api/summary", "")
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(resp.Data, &raw); err != nil {
		t.Fatal(err)
	}
	if string(raw["date"]) != `"2024-04-03"` {
		t.Errorf("date = %s, want UTC today", raw["date"])
	}
	if string(raw["calories"]) != "null" || string(raw["sleep"]) != "null" {
		t.Errorf("absent kinds should be null: %s", resp.Data)
	}
	if string(raw["workouts"]) != "[]" {
		t.Errorf("workouts = %s, want []", raw["workouts"])
	}

	var sum models.DailySummary
	if err := json.Unmarshal(resp.Data, &sum); err != nil {
		t.Fatal(err)
	}
	if sum.Steps == nil || sum.Steps.Count != 0 {
		t.Errorf("steps = %+v, want zero record", sum.Steps)
	}
	if sum.HeartRate == nil || sum.HeartRate.Avg != 70 || sum.HeartRate.Samples != 2 {
		t.Errorf("heart rate = %+v", sum.HeartRate)
	}
}

// TestStorageFailureIsGeneric500 verifies store errors return a generic message.
func TestStorageFailureIsGeneric500(t *testing.T) {
	s, db := newTestServer(t)
	db.Close()

	code, resp := do(t, s, http.MethodGet, "/api/steps", "")
	if code != http.StatusInternalServerError || resp.Error != "Failed to get steps" {
		t.Errorf("GET: %d %+v", code, resp)
	}
	code, resp = do(t, s, http.MethodPost, "/api/sleep",
		`{"date":"2024-01-01","start_time":"a","end_time":"b","duration_minutes":400}`)
	if code != http.StatusInternalServerError || resp.Error != "Failed to save sleep" {
		t.Errorf("POST: %d %+v", code, resp)
	}
	code, resp = do(t, s, http.MethodGet, "/api/summary?date=2024-01-01", "")
	if code != http.StatusInternalServerError || resp.Error != "Failed to get summary" {
		t.Errorf("summary: %d %+v", code, resp)
	}
}
