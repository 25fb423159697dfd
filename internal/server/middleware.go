package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

type ctxKey int

const requestInfoKey ctxKey = 0

// requestInfo is attached to every request by RequestLogging. Later
// middleware fills in Caller.
type requestInfo struct {
	ID     string
	Caller string
}

// IdentityFunc resolves the caller of a request from its remote address.
type IdentityFunc func(ctx context.Context, remoteAddr string) (string, error)

// SetIdentity installs a resolver used to tag requests with the caller's
// login. It is only set when serving on a tailnet.
func (s *Server) SetIdentity(fn IdentityFunc) {
	s.identity = fn
}

// identify records the caller on the request info. Lookup failures are
// logged and the request continues anonymously.
func (s *Server) identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.identity != nil {
			caller, err := s.identity(r.Context(), r.RemoteAddr)
			if err != nil {
				s.log.Debug("caller lookup failed", "remote", r.RemoteAddr, "error", err)
			} else if info := requestInfoFromContext(r.Context()); info != nil {
				info.Caller = caller
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RequestLogging returns middleware that logs each request. Every request
// gets an id, taken from X-Request-ID when present and echoed back.
func RequestLogging(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			info := &requestInfo{ID: r.Header.Get("X-Request-ID")}
			if info.ID == "" {
				info.ID = uuid.NewString()
			}
			w.Header().Set("X-Request-ID", info.ID)

			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r.WithContext(context.WithValue(r.Context(), requestInfoKey, info)))

			attrs := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", sw.status,
				"duration", time.Since(start).String(),
				"request_id", info.ID,
			}
			if info.Caller != "" {
				attrs = append(attrs, "caller", info.Caller)
			}
			log.Info("request", attrs...)
		})
	}
}

// CORS adds permissive CORS headers for local development.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requestInfoFromContext(ctx context.Context) *requestInfo {
	info, _ := ctx.Value(requestInfoKey).(*requestInfo)
	return info
}

// statusWriter wraps ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
