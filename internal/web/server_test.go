package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jagatabuk/inquirybot/internal/history"
	"github.com/jagatabuk/inquirybot/internal/processor"
	"github.com/jagatabuk/inquirybot/internal/scheduler"
)

type fixedStatus scheduler.Status

func (f fixedStatus) Status() scheduler.Status { return scheduler.Status(f) }

type fakeHistory struct {
	records []history.Record
	stats   history.Stats
	byType  map[string]int
	err     error
	limit   int
}

func (h *fakeHistory) GetRecent(limit int) ([]history.Record, error) {
	h.limit = limit
	if limit < len(h.records) {
		return h.records[:limit], h.err
	}
	return h.records, h.err
}

func (h *fakeHistory) GetStats() (history.Stats, error)     { return h.stats, h.err }
func (h *fakeHistory) CountByType() (map[string]int, error) { return h.byType, h.err }

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	s := NewServer("127.0.0.1:0", fixedStatus{}, nil, zap.NewNop())
	rec := get(t, s.Handler(), "/healthz")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}

func TestMetricsEndpoint(t *testing.T) {
	s := NewServer("127.0.0.1:0", fixedStatus{}, nil, zap.NewNop())
	rec := get(t, s.Handler(), "/metrics")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestAPIStatus(t *testing.T) {
	st := fixedStatus{
		State:       scheduler.StateIdle,
		Cycles:      4,
		LastCycleAt: time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC),
		LastResult:  "processed",
		LastOutcome: &processor.Outcome{Found: 2, Sent: 2},
	}
	hist := &fakeHistory{
		stats:  history.Stats{Total: 3, Sent: 2, Skipped: 1},
		byType: map[string]int{"pricing": 2},
	}
	s := NewServer("127.0.0.1:0", st, hist, zap.NewNop())

	rec := get(t, s.Handler(), "/api/status")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Scheduler scheduler.Status `json:"scheduler"`
		History   history.Stats    `json:"history"`
		ByType    map[string]int   `json:"by_type"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, scheduler.StateIdle, resp.Scheduler.State)
	assert.Equal(t, 4, resp.Scheduler.Cycles)
	assert.Equal(t, 2, resp.Scheduler.LastOutcome.Sent)
	assert.Equal(t, hist.stats, resp.History)
	assert.Equal(t, map[string]int{"pricing": 2}, resp.ByType)
}

func TestAPIStatusWithoutHistory(t *testing.T) {
	s := NewServer("127.0.0.1:0", fixedStatus{State: scheduler.StatePolling}, nil, zap.NewNop())
	rec := get(t, s.Handler(), "/api/status")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), `"history"`)
}

func TestAPIInquiries(t *testing.T) {
	hist := &fakeHistory{records: []history.Record{
		{ID: "a", MessageUID: 2, InquiryType: "pricing", Status: history.StatusSent},
		{ID: "b", MessageUID: 1, Status: history.StatusSkipped},
	}}
	h := NewServer("127.0.0.1:0", fixedStatus{}, hist, zap.NewNop()).Handler()

	rec := get(t, h, "/api/inquiries")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, defaultListLimit, hist.limit)

	var records []history.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records))
	require.Len(t, records, 2)
	assert.Equal(t, "pricing", records[0].InquiryType)

	rec = get(t, h, "/api/inquiries?limit=1000")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, maxListLimit, hist.limit)

	rec = get(t, h, "/api/inquiries?limit=abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPIInquiriesEmptyIsArray(t *testing.T) {
	h := NewServer("127.0.0.1:0", fixedStatus{}, &fakeHistory{}, zap.NewNop()).Handler()
	rec := get(t, h, "/api/inquiries")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestAPIInquiriesHistoryDisabled(t *testing.T) {
	h := NewServer("127.0.0.1:0", fixedStatus{}, nil, zap.NewNop()).Handler()
	assert.Equal(t, http.StatusNotFound, get(t, h, "/api/inquiries").Code)
}

func TestAPIHistoryError(t *testing.T) {
	h := NewServer("127.0.0.1:0", fixedStatus{}, &fakeHistory{err: errors.New("disk I/O error")}, zap.NewNop()).Handler()
	rec := get(t, h, "/api/status")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "disk")
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	now := time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"))

	now = now.Add(2 * time.Minute)
	assert.True(t, rl.Allow("a"))
	assert.NotContains(t, rl.requests, "b")
}

func TestAPIRateLimited(t *testing.T) {
	s := NewServer("127.0.0.1:0", fixedStatus{}, nil, zap.NewNop())
	s.rateLimiter = NewRateLimiter(1, time.Minute)
	h := s.Handler()

	assert.Equal(t, http.StatusOK, get(t, h, "/api/status").Code)
	assert.Equal(t, http.StatusTooManyRequests, get(t, h, "/api/status").Code)
	// health checks are not limited
	assert.Equal(t, http.StatusOK, get(t, h, "/healthz").Code)
}
