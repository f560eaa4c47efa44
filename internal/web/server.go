package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/jagatabuk/inquirybot/internal/history"
	"github.com/jagatabuk/inquirybot/internal/scheduler"
)

const (
	defaultRateLimit  = 60
	defaultRateWindow = time.Minute
	defaultListLimit  = 20
	maxListLimit      = 100
)

type RateLimiter struct {
	mu       sync.Mutex
	requests map[string][]time.Time
	limit    int
	window   time.Duration
	now      func() time.Time
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
		now:      time.Now,
	}
}

func (rl *RateLimiter) filterRecent(times []time.Time, windowStart time.Time) []time.Time {
	n := 0
	for _, t := range times {
		if t.After(windowStart) {
			times[n] = t
			n++
		}
	}
	return times[:n]
}

// Allow records a request for key and reports whether it is within the
// limit. Keys with no recent requests are dropped on the way.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	windowStart := now.Add(-rl.window)
	for k, times := range rl.requests {
		if k != key && len(rl.filterRecent(times, windowStart)) == 0 {
			delete(rl.requests, k)
		}
	}

	recent := rl.filterRecent(rl.requests[key], windowStart)
	if len(recent) >= rl.limit {
		rl.requests[key] = recent
		return false
	}
	rl.requests[key] = append(recent, now)
	return true
}

func (rl *RateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		if !rl.Allow(host) {
			writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// StatusSource reports the scheduler's state
type StatusSource interface {
	Status() scheduler.Status
}

// HistorySource is the read side of the history store
type HistorySource interface {
	GetRecent(limit int) ([]history.Record, error)
	GetStats() (history.Stats, error)
	CountByType() (map[string]int, error)
}

// Server exposes health, metrics and read-only status over HTTP
type Server struct {
	addr        string
	status      StatusSource
	history     HistorySource
	logger      *zap.Logger
	rateLimiter *RateLimiter
	httpServer  *http.Server
	started     time.Time
}

// NewServer creates the status server. history may be nil when the audit
// log is disabled.
func NewServer(addr string, status StatusSource, hist HistorySource, logger *zap.Logger) *Server {
	return &Server{
		addr:        addr,
		status:      status,
		history:     hist,
		logger:      logger.Named("web"),
		rateLimiter: NewRateLimiter(defaultRateLimit, defaultRateWindow),
		started:     time.Now(),
	}
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  zap.NewStdLog(s.logger),
		NoColor: true,
	}))
	r.Use(middleware.Recoverer)
	r.Use(securityHeaders)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(s.rateLimiter.middleware)
		r.Get("/status", s.handleAPIStatus)
		r.Get("/inquiries", s.handleAPIInquiries)
	})
	return r
}

// Start serves until Shutdown is called
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("status server listening", zap.String("addr", s.addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type statusResponse struct {
	Scheduler scheduler.Status `json:"scheduler"`
	UptimeSec int64            `json:"uptime_sec"`
	History   *history.Stats   `json:"history,omitempty"`
	ByType    map[string]int   `json:"by_type,omitempty"`
}

func (s *Server) handleAPIStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{
		Scheduler: s.status.Status(),
		UptimeSec: int64(time.Since(s.started).Seconds()),
	}

	if s.history != nil {
		stats, err := s.history.GetStats()
		if err != nil {
			s.internalError(w, err)
			return
		}
		byType, err := s.history.CountByType()
		if err != nil {
			s.internalError(w, err)
			return
		}
		resp.History = &stats
		resp.ByType = byType
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAPIInquiries(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "history is disabled"})
		return
	}

	limit := defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
			return
		}
		limit = min(n, maxListLimit)
	}

	records, err := s.history.GetRecent(limit)
	if err != nil {
		s.internalError(w, err)
		return
	}
	if records == nil {
		records = []history.Record{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) internalError(w http.ResponseWriter, err error) {
	s.logger.Error("request failed", zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
