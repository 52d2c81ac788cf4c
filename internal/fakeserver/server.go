// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package fakeserver is a stand-in for the standards Q&A backend, for local
// development and manual testing of the client.
package fakeserver

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/jeranaias/stdqa/internal/model"
)

// DefaultDocuments is the document count reported by /health.
const DefaultDocuments = 1696

// Options configures the fake backend.
type Options struct {
	Documents int
	// Delay is added before every /ask response.
	Delay time.Duration
	// FailEvery makes every Nth /ask return 500. Zero never fails.
	FailEvery int
	Logger    zerolog.Logger
}

// Server answers /health and /ask from a small canned table.
type Server struct {
	opts Options
	log  zerolog.Logger

	mu       sync.Mutex
	asks     int
	sessions map[string]int
}

// New creates a fake backend.
func New(opts Options) *Server {
	if opts.Documents <= 0 {
		opts.Documents = DefaultDocuments
	}
	return &Server{
		opts:     opts,
		log:      opts.Logger.With().Str("component", "fakeserver").Logger(),
		sessions: make(map[string]int),
	}
}

// Router returns the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/health", s.handleHealth)
	r.Post("/ask", s.handleAsk)
	return r
}

// SessionQuestions returns how many questions a session has asked.
func (s *Server) SessionQuestions(sessionID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[sessionID]
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"documents": s.opts.Documents,
	})
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req model.AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		respondError(w, http.StatusUnprocessableEntity, "question is required")
		return
	}

	s.mu.Lock()
	s.asks++
	n := s.asks
	s.sessions[req.SessionID]++
	s.mu.Unlock()

	if s.opts.Delay > 0 {
		select {
		case <-time.After(s.opts.Delay):
		case <-r.Context().Done():
			return
		}
	}
	if s.opts.FailEvery > 0 && n%s.opts.FailEvery == 0 {
		respondError(w, http.StatusInternalServerError, "simulated failure")
		return
	}

	respondJSON(w, http.StatusOK, model.AskResponse{Answer: Lookup(req.Question)})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Info().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("latency", time.Since(start)).
			Msg("request")
	})
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}
