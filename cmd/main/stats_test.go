package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStatsAPI(t *testing.T, d dialect) (*StatsAPI, sqlmock.Sqlmock, *http.ServeMux) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	api := NewStatsAPI(db, d, slog.New(slog.NewTextHandler(io.Discard, nil)))
	mux := http.NewServeMux()
	api.RegisterRoutes(mux)
	return api, mock, mux
}

func TestStatsAPI_Record(t *testing.T) {
	api, mock, _ := setupStatsAPI(t, dialectSQLite)
	now := time.Date(2020, 1, 1, 12, 0, 0, 0, time.UTC)
	api.now = func() time.Time { return now }

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO stats_path (path, status, first_seen, last_seen) VALUES (?, ?, ?, ?)")).
		WithArgs("/talks/x", 200, now, now).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, api.Record(context.Background(), "/talks/x", 200))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStatsAPI_RecordPostgres(t *testing.T) {
	api, mock, _ := setupStatsAPI(t, dialectPostgres)

	mock.ExpectExec(regexp.QuoteMeta("VALUES ($1, $2, $3, $4)")).
		WithArgs("/", 404, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnError(assert.AnError)

	err := api.Record(context.Background(), "/", 404)
	assert.ErrorIs(t, err, assert.AnError)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStatsAPI_Summary(t *testing.T) {
	_, mock, mux := setupStatsAPI(t, dialectSQLite)

	mock.ExpectQuery(regexp.QuoteMeta("FROM stats_path")).
		WillReturnRows(sqlmock.NewRows([]string{"total", "paths", "not_found"}).AddRow(42, 7, 3))

	req := httptest.NewRequest(http.MethodGet, "/api/stats/summary", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"total_requests":42,"unique_paths":7,"not_found":3}`, rr.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStatsAPI_SummaryError(t *testing.T) {
	_, mock, mux := setupStatsAPI(t, dialectSQLite)

	mock.ExpectQuery(regexp.QuoteMeta("FROM stats_path")).WillReturnError(assert.AnError)

	req := httptest.NewRequest(http.MethodGet, "/api/stats/summary", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"error":"Database error"}`, rr.Body.String())
}

func TestStatsAPI_TopPaths(t *testing.T) {
	first := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	last := first.Add(time.Hour)

	tests := []struct {
		name      string
		query     string
		wantLimit int
	}{
		{"default", "", defaultTopPaths},
		{"explicit", "?limit=5", 5},
		{"capped", "?limit=5000", maxTopPaths},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, mock, mux := setupStatsAPI(t, dialectSQLite)
			mock.ExpectQuery(regexp.QuoteMeta("ORDER BY total_hits DESC, path LIMIT ?")).
				WithArgs(tt.wantLimit).
				WillReturnRows(sqlmock.NewRows([]string{"path", "status", "total_hits", "first_seen", "last_seen"}).
					AddRow("/", 200, 10, first, last).
					AddRow("/talks/x", 404, 2, first, last))

			req := httptest.NewRequest(http.MethodGet, "/api/stats/top_paths"+tt.query, nil)
			rr := httptest.NewRecorder()
			mux.ServeHTTP(rr, req)

			require.Equal(t, http.StatusOK, rr.Code)
			var got []PathStats
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
			require.Len(t, got, 2)
			assert.Equal(t, "/", got[0].Path)
			assert.Equal(t, int64(10), got[0].TotalHits)
			assert.Equal(t, 404, got[1].Status)
			assert.True(t, got[1].LastSeen.Equal(last))
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestStatsAPI_TopPathsBadLimit(t *testing.T) {
	_, mock, mux := setupStatsAPI(t, dialectSQLite)

	for _, limit := range []string{"0", "-1", "ten"} {
		req := httptest.NewRequest(http.MethodGet, "/api/stats/top_paths?limit="+limit, nil)
		rr := httptest.NewRecorder()
		mux.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code, limit)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDialect_Rebind(t *testing.T) {
	query := "SELECT a FROM t WHERE b = ? AND c = ? LIMIT ?"
	assert.Equal(t, query, dialectSQLite.rebind(query))
	assert.Equal(t, "SELECT a FROM t WHERE b = $1 AND c = $2 LIMIT $3", dialectPostgres.rebind(query))
	assert.Equal(t, "postgres", dialectPostgres.String())
	assert.Equal(t, "sqlite", dialectSQLite.String())
}

func TestCountable(t *testing.T) {
	assert.True(t, countable("/"))
	assert.True(t, countable("/talks/x/essay"))
	assert.False(t, countable("/health"))
	assert.False(t, countable("/api/stats/summary"))
}
