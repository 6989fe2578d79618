package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"

	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/session"
	"github.com/claude/liftlog/internal/templates"
	"github.com/go-chi/chi/v5"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	rev, err := s.backend.Revision(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"revision": rev,
		"sessions": len(s.manager.Sessions()),
	})
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions := s.manager.Sessions()

	if typ := r.URL.Query().Get("type"); typ != "" {
		filtered := sessions[:0]
		for _, sess := range sessions {
			if sess.Type == models.SessionType(typ) {
				filtered = append(filtered, sess)
			}
		}
		sessions = filtered
	}
	if c := r.URL.Query().Get("completed"); c != "" {
		want := c == "true"
		filtered := sessions[:0]
		for _, sess := range sessions {
			if sess.Completed == want {
				filtered = append(filtered, sess)
			}
		}
		sessions = filtered
	}

	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].Date.After(sessions[j].Date.Time)
	})

	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n < len(sessions) {
			sessions = sessions[:n]
		}
	}

	writeJSON(w, http.StatusOK, sessions)
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Type string `json:"type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	sess, err := s.manager.Start(r.Context(), models.SessionType(req.Type))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

func (s *Server) handleActiveSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.manager.Active()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no active session"})
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleCancelSession(w http.ResponseWriter, r *http.Request) {
	purge := r.URL.Query().Get("purge") == "true"
	sess, err := s.manager.Cancel(r.Context(), purge)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"canceled": sess, "purged": purge})
}

func (s *Server) handleFinalizeSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.manager.Finalize(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleResumeSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.manager.Resume(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.manager.Get(chi.URLParam(r, "id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleEditSession(w http.ResponseWriter, r *http.Request) {
	var edited models.Session
	if err := json.NewDecoder(r.Body).Decode(&edited); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	sess, err := s.manager.EditCompleted(r.Context(), chi.URLParam(r, "id"), edited)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.manager.Delete(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"deleted": id})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps manager errors onto HTTP statuses and writes the JSON
// error body. Unrecognized errors are logged and reported as 500s.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.log.Error("request failed", "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrNoActiveSession),
		errors.Is(err, session.ErrSessionNotFound),
		errors.Is(err, templates.ErrNoTemplate):
		return http.StatusNotFound
	case errors.Is(err, session.ErrActiveSessionExists),
		errors.Is(err, session.ErrMurphStarted):
		return http.StatusConflict
	case errors.Is(err, session.ErrUndoExpired):
		return http.StatusGone
	case errors.Is(err, session.ErrUnknownType),
		errors.Is(err, session.ErrAlreadyCompleted),
		errors.Is(err, session.ErrNotCompleted),
		errors.Is(err, session.ErrNotStrength),
		errors.Is(err, session.ErrNotMurph),
		errors.Is(err, session.ErrEmptyExerciseName),
		errors.Is(err, session.ErrIndexOutOfRange),
		errors.Is(err, session.ErrInvalidDistance),
		errors.Is(err, session.ErrInvalidDuration),
		errors.Is(err, session.ErrBadImportMode):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
