package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/claude/liftlog/internal/models"
)

// ImportMode selects how an imported store combines with the current one.
type ImportMode string

const (
	// ImportReplace supersedes the current session collection wholesale.
	ImportReplace ImportMode = "replace"
	// ImportMerge keeps current sessions and appends imported ones whose
	// ids are not already present.
	ImportMerge ImportMode = "merge"
)

var ErrBadImportMode = errors.New("import mode must be replace or merge")

// ImportStore applies an already-parsed store. On a merge, an id collision
// keeps the existing session and silently drops the imported one. Replace
// clears the active handle; the imported history starts fresh. Any failure
// leaves the current store untouched.
func (m *Manager) ImportStore(ctx context.Context, st *models.Store, mode ImportMode) (added, skipped int, err error) {
	switch mode {
	case ImportReplace:
		m.stopTimer()
		m.mu.Lock()
		defer m.mu.Unlock()
		m.discardUndoLocked()
		m.active = nil
		next := st.Clone()
		next.Version = models.StoreVersion
		prev := m.store
		m.store = next
		if err := m.persistLocked(ctx); err != nil {
			m.store = prev
			return 0, 0, err
		}
		m.log.Info("store replaced from import", "sessions", len(next.Sessions))
		return len(next.Sessions), 0, nil

	case ImportMerge:
		m.mu.Lock()
		defer m.mu.Unlock()
		existing := make(map[string]bool, len(m.store.Sessions))
		for _, s := range m.store.Sessions {
			existing[s.ID] = true
		}
		before := len(m.store.Sessions)
		for _, s := range st.Sessions {
			if existing[s.ID] {
				skipped++
				continue
			}
			m.store.Sessions = append(m.store.Sessions, s.Clone())
			existing[s.ID] = true
			added++
		}
		if added > 0 {
			if err := m.persistLocked(ctx); err != nil {
				m.store.Sessions = m.store.Sessions[:before]
				return 0, 0, err
			}
		}
		m.log.Info("store merged from import", "added", added, "skipped", skipped)
		return added, skipped, nil

	default:
		return 0, 0, fmt.Errorf("%w: %q", ErrBadImportMode, mode)
	}
}
