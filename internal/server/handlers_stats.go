package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/session"
	"github.com/claude/liftlog/internal/stats"
	"github.com/claude/liftlog/internal/templates"
	"github.com/go-chi/chi/v5"
)

func (s *Server) handleSaveRun(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Distance string       `json:"distance"`
		Minutes  string       `json:"minutes"`
		Seconds  string       `json:"seconds"`
		Date     *models.Time `json:"date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	in := session.RunInput{Distance: req.Distance, Minutes: req.Minutes, Seconds: req.Seconds}
	if req.Date != nil {
		in.When = req.Date.Time
	}

	sess, pace, err := s.manager.SaveRun(r.Context(), in)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"session": sess, "pace": pace})
}

func (s *Server) handleStatsSummary(w http.ResponseWriter, r *http.Request) {
	sessions := s.manager.Sessions()
	now := time.Now()

	windows := []int{7, 30}
	if days, ok := daysParam(r); ok {
		windows = []int{days}
	}
	out := make([]stats.Summary, 0, len(windows))
	for _, d := range windows {
		out = append(out, stats.Summarize(sessions, now, d))
	}
	writeJSON(w, http.StatusOK, map[string]any{"windows": out})
}

func (s *Server) handleStatsSplit(w http.ResponseWriter, r *http.Request) {
	days, ok := daysParam(r)
	if !ok {
		days = 30
	}
	writeJSON(w, http.StatusOK, stats.SplitDistribution(s.manager.Sessions(), time.Now(), days))
}

func (s *Server) handleStatsHeatmap(w http.ResponseWriter, r *http.Request) {
	days, ok := daysParam(r)
	if !ok {
		days = 84
	}
	writeJSON(w, http.StatusOK, stats.Heatmap(s.manager.Sessions(), time.Now(), days))
}

func (s *Server) handleStatsProgression(w http.ResponseWriter, r *http.Request) {
	exercise := r.URL.Query().Get("exercise")
	if exercise == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "exercise parameter required"})
		return
	}
	days, ok := daysParam(r)
	if !ok {
		days = 90
	}
	points := stats.ExerciseProgression(s.manager.Sessions(), exercise, time.Now(), days)
	writeJSON(w, http.StatusOK, stats.ChartPoints(points, 10))
}

func (s *Server) handleLastSet(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	typ := models.SessionType(q.Get("type"))
	exercise := q.Get("exercise")
	if !typ.Valid() || exercise == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "type and exercise parameters required"})
		return
	}
	setIndex := 0
	if v := q.Get("setIndex"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			setIndex = n
		}
	}
	excludeID := ""
	if active, ok := s.manager.Active(); ok {
		excludeID = active.ID
	}

	set := stats.FindLastSet(s.manager.Sessions(), typ, exercise, q.Get("variation"), setIndex, excludeID)
	if set == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, set)
}

func (s *Server) handleListExercises(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, stats.ListExercises(s.manager.Sessions()))
}

func (s *Server) handleTemplates(w http.ResponseWriter, r *http.Request) {
	type catalogEntry struct {
		Type      models.SessionType `json:"type"`
		Exercises []templates.Entry  `json:"exercises"`
	}
	out := make([]catalogEntry, 0)
	for _, typ := range templates.Types() {
		entries, err := templates.Describe(typ)
		if err != nil {
			continue
		}
		out = append(out, catalogEntry{Type: typ, Exercises: entries})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleTemplate(w http.ResponseWriter, r *http.Request) {
	entries, err := templates.Describe(models.SessionType(chi.URLParam(r, "type")))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// daysParam parses the days query parameter. ok is false when absent or
// unusable, letting each endpoint apply its own default.
func daysParam(r *http.Request) (int, bool) {
	v := r.URL.Query().Get("days")
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}
