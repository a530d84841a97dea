// Package server exposes the simulator over HTTP: session lifecycle,
// message dispatch and roster inspection. Handlers stay thin; all domain
// behavior lives behind the familysim façade.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	familysim "github.com/Naoya-Yasuda/hera-ai-family-simulator"
	"github.com/Naoya-Yasuda/hera-ai-family-simulator/core"
	"github.com/Naoya-Yasuda/hera-ai-family-simulator/logging"
)

// Server wires HTTP routes to a Simulator.
type Server struct {
	sim *familysim.Simulator
	log logging.Logger
}

// New creates a Server around a Simulator.
func New(sim *familysim.Simulator, log logging.Logger) *Server {
	if log == nil {
		log = logging.NoOpLogger{}
	}
	return &Server{sim: sim, log: log}
}

// Router builds the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Route("/api/sessions", func(api chi.Router) {
		api.Post("/", s.handleStartSession)
		api.Route("/{sessionID}", func(sr chi.Router) {
			sr.Get("/", s.handleGetSession)
			sr.Delete("/", s.handleCloseSession)
			sr.Post("/messages", s.handleSendMessage)
			sr.Post("/cancel", s.handleCancel)
		})
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var profile core.UserProfile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	res, err := s.sim.StartSession(r.Context(), profile)
	if err != nil {
		s.respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, res)
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(payload.Message) == "" {
		respondError(w, http.StatusBadRequest, "message is required")
		return
	}
	res, err := s.sim.SendMessage(r.Context(), sessionID, payload.Message)
	if err != nil {
		s.respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sim.Session(chi.URLParam(r, "sessionID"))
	if err != nil {
		s.respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"id":       sess.ID,
		"state":    sess.State,
		"roster":   sess.Personas(),
		"emotions": sess.Emotions(),
		"turns":    sess.History(),
		"created":  sess.Created,
	})
}

func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sim.CloseSession(chi.URLParam(r, "sessionID")); err != nil {
		s.respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"state": string(core.SessionClosed)})
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	s.sim.Cancel(chi.URLParam(r, "sessionID"))
	respondJSON(w, http.StatusAccepted, map[string]string{"status": "cancelled"})
}

// respondDomainError maps the module's error taxonomy onto HTTP statuses.
func (s *Server) respondDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrSessionNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, core.ErrSessionClosed):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, core.ErrProfileIncomplete):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, core.ErrStoreWriteConflict):
		respondError(w, http.StatusServiceUnavailable, err.Error())
	default:
		s.log.Error("request failed", "error", err.Error())
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
