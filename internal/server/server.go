package server

import (
	"log/slog"
	"net/http"

	"github.com/claude/liftlog/internal/backup"
	"github.com/claude/liftlog/internal/session"
	"github.com/claude/liftlog/internal/storage"
	"github.com/go-chi/chi/v5"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	manager *session.Manager
	backup  *backup.Service
	backend storage.Backend
	log     *slog.Logger
	apiKey  string
	router  chi.Router
}

// New creates a new Server with all routes configured. An empty apiKey
// disables authentication, for tailnet-only or localhost deployments.
func New(manager *session.Manager, backupSvc *backup.Service, backend storage.Backend, apiKey string, log *slog.Logger) *Server {
	s := &Server{
		manager: manager,
		backup:  backupSvc,
		backend: backend,
		log:     log,
		apiKey:  apiKey,
		router:  chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api/v1", func(r chi.Router) {
		if s.apiKey != "" {
			r.Use(APIKeyAuth(s.apiKey))
		}

		r.Get("/sessions", s.handleListSessions)
		r.Post("/sessions", s.handleStartSession)
		r.Get("/sessions/active", s.handleActiveSession)
		r.Delete("/sessions/active", s.handleCancelSession)
		r.Post("/sessions/active/finalize", s.handleFinalizeSession)
		r.Post("/sessions/active/exercises", s.handleAddExercise)
		r.Delete("/sessions/active/exercises/{index}", s.handleRemoveExercise)
		r.Post("/sessions/active/exercises/{index}/sets", s.handleAddSet)
		r.Patch("/sessions/active/exercises/{index}/sets/{setIndex}", s.handleUpdateSet)
		r.Delete("/sessions/active/exercises/{index}/sets/{setIndex}", s.handleRemoveSet)
		r.Post("/sessions/active/undo-set", s.handleUndoSet)
		r.Post("/sessions/{id}/resume", s.handleResumeSession)
		r.Get("/sessions/{id}", s.handleGetSession)
		r.Put("/sessions/{id}", s.handleEditSession)
		r.Delete("/sessions/{id}", s.handleDeleteSession)

		r.Post("/murph/start", s.handleMurphStart)
		r.Post("/murph/timer/toggle", s.handleMurphToggle)
		r.Post("/murph/rounds", s.handleMurphRounds)
		r.Post("/murph/vest", s.handleMurphVest)
		r.Post("/murph/finish", s.handleMurphFinish)
		r.Get("/murph/stream", s.handleMurphStream)

		r.Post("/runs", s.handleSaveRun)

		r.Get("/stats/summary", s.handleStatsSummary)
		r.Get("/stats/split", s.handleStatsSplit)
		r.Get("/stats/heatmap", s.handleStatsHeatmap)
		r.Get("/stats/progression", s.handleStatsProgression)
		r.Get("/stats/last-set", s.handleLastSet)
		r.Get("/stats/exercises", s.handleListExercises)

		r.Get("/templates", s.handleTemplates)
		r.Get("/templates/{type}", s.handleTemplate)

		r.Get("/backup/export", s.handleBackupExport)
		r.Post("/backup/import", s.handleBackupImport)
		r.Get("/backup/imports", s.handleImportHistory)
	})
}
