package server

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/claude/liftlog/internal/session"
)

// maxImportBytes bounds uploaded backup payloads before decompression.
const maxImportBytes = 256 << 20

func (s *Server) handleBackupExport(w http.ResponseWriter, r *http.Request) {
	data, name, err := s.backup.Payload()
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (s *Server) handleBackupImport(w http.ResponseWriter, r *http.Request) {
	mode := session.ImportMode(r.URL.Query().Get("mode"))
	if mode == "" {
		mode = session.ImportMerge
	}
	if mode != session.ImportMerge && mode != session.ImportReplace {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "mode must be replace or merge"})
		return
	}
	source := r.URL.Query().Get("source")
	if source == "" {
		source = "api"
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "reading request body: " + err.Error()})
		return
	}

	result, err := s.backup.Import(r.Context(), source, data, mode)
	if err != nil {
		s.log.Error("backup import failed", "source", source, "error", err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleImportHistory(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	records, err := s.backup.History(r.Context(), limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, records)
}
