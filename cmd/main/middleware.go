package main

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// statusRecorder remembers the status code written through it.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	if r.status == 0 {
		r.status = status
	}
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// logRequests emits one "request" record per response and counts it in the
// request stats when they are enabled.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		if rec.status == 0 {
			rec.status = http.StatusOK
		}

		elapsed := time.Since(start)
		s.logger.Info("request",
			slog.Group("request",
				slog.String("method", r.Method),
				slog.String("url", r.URL.String()),
			),
			slog.Group("response",
				slog.Int("status", rec.status),
				slog.String("message", http.StatusText(rec.status)),
				slog.Float64("time", float64(elapsed.Microseconds())/1000),
			),
		)

		if s.stats != nil && countable(r.URL.Path) {
			if err := s.stats.Record(context.WithoutCancel(r.Context()), r.URL.Path, rec.status); err != nil {
				s.logger.Warn("Failed to record request stats", "path", r.URL.Path, "error", err)
			}
		}
	})
}

// countable excludes the server's own endpoints from the request stats.
func countable(path string) bool {
	return path != "/health" && !strings.HasPrefix(path, "/api/")
}

// setHeaders applies the configured security headers to every response.
func (s *Server) setHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for name, value := range s.config.Server.Headers {
			w.Header().Set(name, value)
		}
		next.ServeHTTP(w, r)
	})
}
