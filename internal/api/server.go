// Package api exposes the HTTP interface the web layer calls to trigger
// crawls.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/laborview/jobspider/internal/batch"
	"github.com/laborview/jobspider/internal/metrics"
	"github.com/laborview/jobspider/internal/schedule"
	"github.com/laborview/jobspider/internal/spider"
)

// CrawlRequest is the configuration object handed in by the web layer.
// Missing cities/jobs fall back to the built-in default lists.
type CrawlRequest struct {
	Cities     []string     `json:"cities"`
	Jobs       []string     `json:"jobs"`
	Limit      int          `json:"limit"`
	Concurrent bool         `json:"concurrent"`
	Timer      TimerRequest `json:"timer"`
}

// TimerRequest mirrors the schedule window settings.
type TimerRequest struct {
	Enable          bool `json:"enable"`
	BeginHour       int  `json:"begin_hour"`
	BeginMinute     int  `json:"begin_minute"`
	EndHour         int  `json:"end_hour"`
	EndMinute       int  `json:"end_minute"`
	IntervalMinutes int  `json:"interval_minutes"`
}

func (t TimerRequest) window() schedule.Window {
	return schedule.Window{
		Enable:          t.Enable,
		BeginHour:       t.BeginHour,
		BeginMinute:     t.BeginMinute,
		EndHour:         t.EndHour,
		EndMinute:       t.EndMinute,
		IntervalMinutes: t.IntervalMinutes,
	}
}

// Server wires HTTP handlers to the batch runner. One crawl (or schedule
// loop) runs at a time; a second submission is rejected with 409.
type Server struct {
	router chi.Router
	runner *batch.Runner
	clock  spider.Clock
	logger *zap.Logger

	mu          sync.Mutex
	running     bool
	lastID      string
	lastSummary *batch.Summary
}

// NewServer constructs a Server with middleware and routes.
func NewServer(runner *batch.Runner, clock spider.Clock, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		runner: runner,
		clock:  clock,
		logger: logger,
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger))
	r.Use(recoverMiddleware(logger))

	r.Get("/healthz", s.healthz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/crawls", s.submitCrawl)
		r.Get("/status", s.getStatus)
	})

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) submitCrawl(w http.ResponseWriter, r *http.Request) {
	var req CrawlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Timer.Enable {
		begin := req.Timer.BeginHour*60 + req.Timer.BeginMinute
		end := req.Timer.EndHour*60 + req.Timer.EndMinute
		if begin >= end || req.Timer.IntervalMinutes < 1 {
			writeError(w, http.StatusBadRequest, "timer window must begin before it ends and have a positive interval")
			return
		}
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		writeError(w, http.StatusConflict, "a crawl is already running")
		return
	}
	id := uuid.NewString()
	s.running = true
	s.lastID = id
	s.mu.Unlock()

	go s.execute(id, req)

	writeJSON(w, http.StatusAccepted, map[string]string{"id": id})
}

// execute runs in the background; the crawl outlives the HTTP request.
func (s *Server) execute(id string, req CrawlRequest) {
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	logger := s.logger.With(zap.String("crawl_id", id))
	params := batch.Params{
		Cities:     req.Cities,
		Keywords:   req.Jobs,
		Limit:      req.Limit,
		Concurrent: req.Concurrent,
	}

	run := func(ctx context.Context) error {
		summary, err := s.runner.Run(ctx, params)
		if err != nil {
			return err
		}
		s.mu.Lock()
		s.lastSummary = &summary
		s.mu.Unlock()
		return nil
	}

	loop := schedule.NewLoop(req.Timer.window(), run, s.clock, logger)
	if err := loop.Run(context.Background()); err != nil {
		logger.Error("crawl failed", zap.Error(err))
	}
}

func (s *Server) getStatus(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{
		"running":      s.running,
		"last_id":      s.lastID,
		"last_summary": s.lastSummary,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
