package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/claude/healthsync/internal/models"
	"github.com/claude/healthsync/internal/summary"
)

// validator is implemented by the POST bodies in models.
type validator[R any] interface {
	Validate() (R, error)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Workout Health Data API",
		"version": Version,
		"endpoints": map[string]string{
			"health":    "/api/health",
			"steps":     "/api/steps",
			"heartRate": "/api/heart-rate",
			"sleep":     "/api/sleep",
			"calories":  "/api/calories",
			"workouts":  "/api/workouts",
			"distance":  "/api/distance",
			"summary":   "/api/summary",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "message": "Server is running"})
}

// listHandler serves a date-range query for one kind.
func listHandler[T any](s *Server, noun string, query func(context.Context, models.DateRange) ([]T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rng, err := parseRange(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		rows, err := query(r.Context(), rng)
		if err != nil {
			s.log.Error("query failed", "kind", noun, "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to get "+noun)
			return
		}
		writeData(w, rows)
	}
}

// saveHandler decodes and validates an In body, then stores the record.
// Validation failures never reach storage.
func saveHandler[In validator[R], R any](s *Server, noun, okMessage string, save func(context.Context, R) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in In
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
			return
		}
		rec, err := in.Validate()
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := save(r.Context(), rec); err != nil {
			s.log.Error("save failed", "kind", noun, "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to save "+noun)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": okMessage})
	}
}

func (s *Server) handleQueryWorkouts(w http.ResponseWriter, r *http.Request) {
	rng, err := parseRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	workouts, err := s.db.QueryWorkouts(r.Context(), rng, r.URL.Query().Get("type"))
	if err != nil {
		s.log.Error("query failed", "kind", models.KindWorkouts, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to get workouts")
		return
	}
	writeData(w, workouts)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = s.now().UTC().Format(models.DateLayout)
	}
	if !models.ValidDate(date) {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	sum, err := s.summary.Summarize(r.Context(), date)
	if err != nil {
		var serr *summary.Error
		if errors.As(err, &serr) {
			s.log.Error("summary failed", "date", serr.Date, "error", serr.Err)
		} else {
			s.log.Error("summary failed", "date", date, "error", err)
		}
		writeError(w, http.StatusInternalServerError, "Failed to get summary")
		return
	}
	writeData(w, sum)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, v any) {
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": v})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "error": msg})
}

func parseRange(r *http.Request) (models.DateRange, error) {
	rng := models.DateRange{
		Start: r.URL.Query().Get("startDate"),
		End:   r.URL.Query().Get("endDate"),
	}
	return rng, models.CheckRange(rng)
}
