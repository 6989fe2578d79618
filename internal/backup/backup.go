// Package backup moves whole stores across the process boundary: dated
// pretty-printed exports, replace/merge imports with an audit trail, and
// the scheduled export job.
package backup

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/session"
	"github.com/claude/liftlog/internal/storage"
)

const filePrefix = "liftlog-backup-"

// Service exports and imports whole stores.
type Service struct {
	log     *slog.Logger
	manager *session.Manager
	backend storage.Backend
	dir     string

	now func() time.Time
}

// NewService returns a backup service writing exports to dir.
func NewService(log *slog.Logger, manager *session.Manager, backend storage.Backend, dir string) *Service {
	return &Service{
		log:     log,
		manager: manager,
		backend: backend,
		dir:     dir,
		now:     time.Now,
	}
}

// FileName returns the dated export file name for the given day.
func FileName(now time.Time) string {
	return filePrefix + now.Format("2006-01-02") + ".json"
}

// Payload serializes the current store for download, returning the bytes
// and the suggested file name.
func (s *Service) Payload() ([]byte, string, error) {
	data, err := s.manager.Snapshot().EncodePretty()
	if err != nil {
		return nil, "", fmt.Errorf("encoding store: %w", err)
	}
	return data, FileName(s.now()), nil
}

// Export writes the current store to the backup directory and returns the
// file path. An existing export for the same day is never overwritten; the
// new file gets a numeric suffix instead.
func (s *Service) Export(ctx context.Context) (string, error) {
	data, name, err := s.Payload()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating backup directory: %w", err)
	}

	base := strings.TrimSuffix(name, ".json")
	path := filepath.Join(s.dir, name)
	for n := 2; ; n++ {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			break
		}
		if n > 99 {
			return "", fmt.Errorf("no free backup file name for %s", base)
		}
		path = filepath.Join(s.dir, fmt.Sprintf("%s-%02d.json", base, n))
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing backup: %w", err)
	}
	s.log.Info("backup written", "path", path, "bytes", len(data))
	return path, nil
}

// Result summarizes one import.
type Result struct {
	Source  string `json:"source"`
	Mode    string `json:"mode"`
	Added   int    `json:"added"`
	Skipped int    `json:"skipped"`
}

// Import parses a backup payload, which may be gzip or zip compressed, and
// applies it to the store in the given mode. Every attempt lands in the
// import log, failed ones with their error message. A failed import leaves
// the store untouched.
func (s *Service) Import(ctx context.Context, source string, data []byte, mode session.ImportMode) (*Result, error) {
	plain, err := Decompress(data)
	if err != nil {
		s.recordImport(ctx, source, mode, 0, 0, err)
		return nil, err
	}
	st, err := models.DecodeStore(plain)
	if err != nil {
		s.recordImport(ctx, source, mode, 0, 0, err)
		return nil, err
	}
	added, skipped, err := s.manager.ImportStore(ctx, st, mode)
	if err != nil {
		s.recordImport(ctx, source, mode, 0, 0, err)
		return nil, err
	}
	s.recordImport(ctx, source, mode, added, skipped, nil)
	s.log.Info("backup imported", "source", source, "mode", mode, "added", added, "skipped", skipped)
	return &Result{Source: source, Mode: string(mode), Added: added, Skipped: skipped}, nil
}

// ImportFile reads a backup from disk and imports it.
func (s *Service) ImportFile(ctx context.Context, path string, mode session.ImportMode) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading backup file: %w", err)
	}
	return s.Import(ctx, filepath.Base(path), data, mode)
}

// History returns the most recent import log entries, newest first.
func (s *Service) History(ctx context.Context, limit int) ([]storage.ImportRecord, error) {
	return s.backend.QueryImportRecords(ctx, limit)
}

// Prune deletes export files beyond the retain newest and returns how many
// were removed. Files not matching the export naming pattern are left alone.
func (s *Service) Prune(retain int) (int, error) {
	if retain < 1 {
		return 0, fmt.Errorf("retain must be at least 1, got %d", retain)
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("reading backup directory: %w", err)
	}

	type backupFile struct {
		name string
		mod  time.Time
	}
	var files []backupFile
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), filePrefix) || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, backupFile{name: e.Name(), mod: info.ModTime()})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].mod.After(files[j].mod) })

	removed := 0
	for _, f := range files[min(retain, len(files)):] {
		if err := os.Remove(filepath.Join(s.dir, f.name)); err != nil {
			s.log.Warn("removing old backup failed", "file", f.name, "error", err)
			continue
		}
		removed++
	}
	return removed, nil
}

// recordImport appends the attempt to the import log. Logging failures are
// reported but never fail the import itself.
func (s *Service) recordImport(ctx context.Context, source string, mode session.ImportMode, added, skipped int, importErr error) {
	rec := storage.ImportRecord{
		Source:          source,
		Mode:            string(mode),
		Status:          "success",
		SessionsAdded:   added,
		SessionsSkipped: skipped,
	}
	if importErr != nil {
		rec.Status = "error"
		msg := importErr.Error()
		rec.ErrorMessage = &msg
	}
	if _, err := s.backend.InsertImportRecord(ctx, rec); err != nil {
		s.log.Error("recording import outcome failed", "error", err)
	}
}
