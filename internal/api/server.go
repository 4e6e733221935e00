// Package api exposes internal/planner's external interface (§6) over
// HTTP and WebSocket, grounded on the teacher's cmd/game-server/main.go
// router assembly (chi + go-chi/cors + middleware.RequestID/RealIP/
// Logger/Recoverer, a /health endpoint, an authenticated route group) and
// cmd/game-server/api/middleware.go's auth pattern (adapted in auth.go).
package api

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"

	"contextualplanner/internal/historical"
	"contextualplanner/internal/planner"
	"contextualplanner/internal/problem"
)

// Session pairs one Problem with the mutex guarding it, per §5: every
// HTTP/WS handler that touches a session's Problem must hold its lock for
// the duration, since Problem itself is not goroutine-safe.
type Session struct {
	mu      sync.Mutex
	Problem *problem.Problem
}

// SessionStore holds every live Session by id, the server-side half of the
// teacher's lobby/session-registry pattern (tw-backend's lobby.Service
// tracks live characters by id the same way).
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewSessionStore returns an empty store.
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: map[string]*Session{}}
}

// Register adds or replaces the session for id.
func (s *SessionStore) Register(id string, p *problem.Problem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = &Session{Problem: p}
}

// Get returns the session for id, if any.
func (s *SessionStore) Get(id string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// Remove deletes the session for id.
func (s *SessionStore) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Server holds everything the HTTP handlers need.
type Server struct {
	Sessions         *SessionStore
	GlobalHistorical *historical.Historical
	Tokens           *TokenManager
	AllowedOrigins   []string
}

// NewRouter assembles the chi router: request-id/logging/recover
// middleware, CORS, an unauthenticated /health, and an authenticated
// /api group exposing planning operations — the same shape as the
// teacher's game-server router, generalized from game routes to planner
// routes.
func (s *Server) NewRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(s.Tokens))

			r.Get("/sessions/{id}/next-action", s.handleNextAction)
			r.Get("/sessions/{id}/plan", s.handlePlan)
			r.Post("/sessions/{id}/notify-done", s.handleNotifyDone)
			r.Get("/sessions/{id}/stream", s.handleStream)
		})
	})

	return r
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	id := chi.URLParam(r, "id")
	sess, ok := s.Sessions.Get(id)
	if !ok {
		respondError(w, http.StatusNotFound, "unknown session")
		return nil, false
	}
	return sess, true
}

func (s *Server) handleNextAction(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	inv, found := planner.LookForAnActionToDo(sess.Problem, s.GlobalHistorical)
	if !found {
		respondJSON(w, http.StatusOK, map[string]any{"found": false})
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"found": true, "action": inv.String()})
}

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	plan, cost := planner.PlanForEveryGoals(sess.Problem, s.GlobalHistorical)
	respondJSON(w, http.StatusOK, map[string]any{
		"plan":                 planner.PlanToStr(plan, "; "),
		"success":              cost.Success,
		"nb_actions":           cost.NbActions,
		"nb_goals_satisfied":   cost.NbGoalsSatisfied,
		"nb_goals_unsatisfied": cost.NbGoalsNotSatisfied,
	})
}

type notifyDoneRequest struct {
	ActionID string `json:"action_id"`
}

func (s *Server) handleNotifyDone(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	var req notifyDoneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	inv, found := planner.LookForAnActionToDo(sess.Problem, s.GlobalHistorical)
	if !found || inv.ActionID != req.ActionID {
		respondError(w, http.StatusConflict, "action is no longer the recommended next action")
		return
	}
	if err := planner.NotifyActionDone(sess.Problem, *inv); err != nil {
		log.Error().Err(err).Msg("failed to apply notified action")
		respondError(w, http.StatusInternalServerError, "failed to apply action")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"applied": true})
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
