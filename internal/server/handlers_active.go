package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/session"
	"github.com/go-chi/chi/v5"
)

func (s *Server) handleAddExercise(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name      string `json:"name"`
		Variation string `json:"variation"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	sess, err := s.manager.AddExercise(r.Context(), req.Name, req.Variation)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleRemoveExercise(w http.ResponseWriter, r *http.Request) {
	index, ok := indexParam(w, r, "index")
	if !ok {
		return
	}
	sess, err := s.manager.RemoveExercise(r.Context(), index)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleAddSet(w http.ResponseWriter, r *http.Request) {
	index, ok := indexParam(w, r, "index")
	if !ok {
		return
	}
	sess, err := s.manager.AddSet(r.Context(), index)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleUpdateSet(w http.ResponseWriter, r *http.Request) {
	index, ok := indexParam(w, r, "index")
	if !ok {
		return
	}
	setIndex, ok := indexParam(w, r, "setIndex")
	if !ok {
		return
	}

	var req struct {
		Weight *string `json:"weight"`
		Reps   *string `json:"reps"`
		Notes  *string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	sess, err := s.manager.UpdateSet(r.Context(), index, setIndex, session.UpdateSetInput{
		Weight: req.Weight,
		Reps:   req.Reps,
		Notes:  req.Notes,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleRemoveSet(w http.ResponseWriter, r *http.Request) {
	index, ok := indexParam(w, r, "index")
	if !ok {
		return
	}
	setIndex, ok := indexParam(w, r, "setIndex")
	if !ok {
		return
	}

	sess, deadline, err := s.manager.RemoveSet(r.Context(), index, setIndex)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session":      sess,
		"undoDeadline": models.NewTime(deadline),
	})
}

func (s *Server) handleUndoSet(w http.ResponseWriter, r *http.Request) {
	sess, err := s.manager.UndoRemoveSet(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// indexParam parses a non-negative integer URL parameter, writing a 400 on
// failure.
func indexParam(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	v, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || v < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid " + name + " parameter"})
		return 0, false
	}
	return v, true
}
