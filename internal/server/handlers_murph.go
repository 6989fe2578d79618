package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/claude/liftlog/internal/session"
)

func (s *Server) handleMurphStart(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Lite         bool     `json:"lite"`
		WeightVest   bool     `json:"weightVest"`
		WeightVestKg *float64 `json:"weightVestKg"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	sess, err := s.manager.StartMurph(r.Context(), session.MurphOptions{
		Lite:         req.Lite,
		WeightVest:   req.WeightVest,
		WeightVestKg: req.WeightVestKg,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

func (s *Server) handleMurphToggle(w http.ResponseWriter, r *http.Request) {
	sess, running, err := s.manager.ToggleMurphTimer(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"session": sess, "running": running})
}

func (s *Server) handleMurphRounds(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Delta int `json:"delta"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	sess, err := s.manager.AdjustRounds(r.Context(), req.Delta)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleMurphVest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		WeightVest   bool     `json:"weightVest"`
		WeightVestKg *float64 `json:"weightVestKg"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	sess, err := s.manager.UpdateMurphVest(r.Context(), req.WeightVest, req.WeightVestKg)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleMurphFinish(w http.ResponseWriter, r *http.Request) {
	sess, err := s.manager.FinishMurph(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// handleMurphStream streams timer events as server-sent events until the
// client disconnects.
func (s *Server) handleMurphStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "streaming not supported"})
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := s.manager.Subscribe()
	defer s.manager.Unsubscribe(ch)

	// Send current state immediately
	if ev, ok := s.manager.TimerState(); ok {
		fmt.Fprintf(w, "data: %s\n\n", mustJSON(ev))
	}
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", mustJSON(ev))
			flusher.Flush()
		}
	}
}

func mustJSON(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		return []byte("{}")
	}
	return b
}
