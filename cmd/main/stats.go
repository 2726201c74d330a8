package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"
)

const statsSchema = `
CREATE TABLE IF NOT EXISTS stats_path (
    path          TEXT NOT NULL,
    status        INTEGER NOT NULL,
    total_hits    INTEGER NOT NULL DEFAULT 1,
    first_seen    TIMESTAMP NOT NULL,
    last_seen     TIMESTAMP NOT NULL,
    PRIMARY KEY (path, status)
)`

const (
	defaultTopPaths = 100
	maxTopPaths     = 1000
)

// PathStats is the hit count of one path and status.
type PathStats struct {
	Path      string    `json:"path"`
	Status    int       `json:"status"`
	TotalHits int64     `json:"total_hits"`
	FirstSeen time.Time `json:"first_seen"`
	LastSeen  time.Time `json:"last_seen"`
}

// StatsSummary provides a high-level overview of all collected stats.
type StatsSummary struct {
	TotalRequests int64 `json:"total_requests"`
	UniquePaths   int64 `json:"unique_paths"`
	NotFound      int64 `json:"not_found"`
}

// StatsAPI counts served paths and exposes the counts over HTTP.
type StatsAPI struct {
	db      *sql.DB
	dialect dialect
	logger  *slog.Logger
	now     func() time.Time
}

func setupStatsSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, statsSchema)
	return err
}

func NewStatsAPI(db *sql.DB, d dialect, logger *slog.Logger) *StatsAPI {
	return &StatsAPI{
		db:      db,
		dialect: d,
		logger:  logger,
		now:     time.Now,
	}
}

func (s *StatsAPI) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/stats/summary", s.handleSummary)
	mux.HandleFunc("GET /api/stats/top_paths", s.handleTopPaths)
}

// Record counts one response.
func (s *StatsAPI) Record(ctx context.Context, path string, status int) error {
	now := s.now().UTC()
	_, err := s.db.ExecContext(ctx, s.dialect.rebind(`
        INSERT INTO stats_path (path, status, first_seen, last_seen) VALUES (?, ?, ?, ?)
        ON CONFLICT(path, status) DO UPDATE SET total_hits = stats_path.total_hits + 1, last_seen = excluded.last_seen
    `), path, status, now, now)
	if err != nil {
		return fmt.Errorf("failed to upsert stats_path: %w", err)
	}
	return nil
}

// Summary totals every recorded response.
func (s *StatsAPI) Summary(ctx context.Context) (StatsSummary, error) {
	var summary StatsSummary
	err := s.db.QueryRowContext(ctx, `
        SELECT COALESCE(SUM(total_hits), 0),
               COUNT(DISTINCT path),
               COALESCE(SUM(CASE WHEN status = 404 THEN total_hits ELSE 0 END), 0)
        FROM stats_path
    `).Scan(&summary.TotalRequests, &summary.UniquePaths, &summary.NotFound)
	if err != nil {
		return StatsSummary{}, fmt.Errorf("failed to query stats summary: %w", err)
	}
	return summary, nil
}

// TopPaths returns the most requested paths first.
func (s *StatsAPI) TopPaths(ctx context.Context, limit int) ([]PathStats, error) {
	rows, err := s.db.QueryContext(ctx, s.dialect.rebind(
		"SELECT path, status, total_hits, first_seen, last_seen FROM stats_path ORDER BY total_hits DESC, path LIMIT ?"),
		limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top paths: %w", err)
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	results := []PathStats{}
	for rows.Next() {
		var p PathStats
		if err = rows.Scan(&p.Path, &p.Status, &p.TotalHits, &p.FirstSeen, &p.LastSeen); err != nil {
			return nil, fmt.Errorf("failed to scan top paths: %w", err)
		}
		results = append(results, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read top paths: %w", err)
	}
	return results, nil
}

func (s *StatsAPI) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.Summary(r.Context())
	if err != nil {
		s.logger.Error("Failed to query stats summary", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Database error")
		return
	}
	respondWithJSON(w, http.StatusOK, summary)
}

func (s *StatsAPI) handleTopPaths(w http.ResponseWriter, r *http.Request) {
	limit := defaultTopPaths
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondWithError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxTopPaths)
	}

	results, err := s.TopPaths(r.Context(), limit)
	if err != nil {
		s.logger.Error("Failed to query top paths", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Database error")
		return
	}
	respondWithJSON(w, http.StatusOK, results)
}
