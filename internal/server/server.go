package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/claude/healthsync/internal/models"
	"github.com/claude/healthsync/internal/storage"
	"github.com/claude/healthsync/internal/summary"
	"github.com/go-chi/chi/v5"
)

// Version is reported by the root index.
const Version = "1.0.0"

// Server holds dependencies for HTTP handlers.
type Server struct {
	db      *storage.DB
	summary *summary.Aggregator
	log     *slog.Logger
	now     func() time.Time
	router  chi.Router

	identity IdentityFunc
}

// New creates a new Server with all routes configured.
func New(db *storage.DB, agg *summary.Aggregator, log *slog.Logger) *Server {
	s := &Server{
		db:      db,
		summary: agg,
		log:     log,
		now:     time.Now,
		router:  chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(s.identify)
	s.router.Use(CORS)

	s.router.Get("/", s.handleIndex)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Get("/steps", listHandler(s, "steps", s.db.QuerySteps))
		r.Post("/steps", saveHandler[models.StepsInput](s, "steps", "Steps saved successfully", s.db.UpsertSteps))

		r.Get("/heart-rate", listHandler(s, "heart rate", s.db.QueryHeartRate))
		r.Post("/heart-rate", saveHandler[models.HeartRateInput](s, "heart rate", "Heart rate saved successfully", s.db.AppendHeartRate))

		r.Get("/sleep", listHandler(s, "sleep", s.db.QuerySleep))
		r.Post("/sleep", saveHandler[models.SleepInput](s, "sleep", "Sleep saved successfully", s.db.UpsertSleep))

		r.Get("/calories", listHandler(s, "calories", s.db.QueryCalories))
		r.Post("/calories", saveHandler[models.CaloriesInput](s, "calories", "Calories saved successfully", s.db.UpsertCalories))

		r.Get("/workouts", s.handleQueryWorkouts)
		r.Post("/workouts", saveHandler[models.WorkoutInput](s, "workout", "Workout saved successfully", s.db.AppendWorkout))

		r.Get("/distance", listHandler(s, "distance", s.db.QueryDistance))
		r.Post("/distance", saveHandler[models.DistanceInput](s, "distance", "Distance saved successfully", s.db.UpsertDistance))

		r.Get("/summary", s.handleSummary)
	})
}
