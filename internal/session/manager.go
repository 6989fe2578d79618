// Package session implements the workout session lifecycle: starting
// sessions from templates, mutating the single active session, finalizing
// into history, and the bounded undo for set removal. Every mutation is
// persisted wholesale before it returns, so a crash never loses more than
// the in-flight change.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/stats"
	"github.com/claude/liftlog/internal/storage"
	"github.com/claude/liftlog/internal/templates"
)

var (
	ErrNoActiveSession     = errors.New("no active session")
	ErrActiveSessionExists = errors.New("another session is already active")
	ErrSessionNotFound     = errors.New("session not found")
	ErrUnknownType         = errors.New("unknown training type")
	ErrAlreadyCompleted    = errors.New("session is already completed")
	ErrNotCompleted        = errors.New("session is not completed")
	ErrNotStrength         = errors.New("session type has no exercise list")
	ErrEmptyExerciseName   = errors.New("exercise name must not be empty")
	ErrIndexOutOfRange     = errors.New("index out of range")
	ErrUndoExpired         = errors.New("undo window has expired")
	ErrNotMurph            = errors.New("active session is not a murph workout")
	ErrMurphStarted        = errors.New("vest cannot change once the workout has started")
	ErrInvalidDistance     = errors.New("distance must be a positive number")
	ErrInvalidDuration     = errors.New("duration must be positive")
)

// Manager is the single authority over the session collection. It owns the
// one-active-session invariant and the murph timer; all reads hand out deep
// copies so callers can never mutate managed state directly.
type Manager struct {
	log  *slog.Logger
	slot storage.Slot

	mu     sync.Mutex
	store  *models.Store
	active *models.Session
	undo   *pendingUndo

	timerOn     bool
	timerCancel context.CancelFunc
	timerDone   chan struct{} // closed when the tick goroutine exits

	subs   map[chan TimerEvent]struct{}
	subsMu sync.Mutex

	now          func() time.Time
	undoWindow   time.Duration
	tickInterval time.Duration
}

// NewManager creates a manager over the given slot. Call Load before use.
func NewManager(log *slog.Logger, slot storage.Slot) *Manager {
	return &Manager{
		log:          log,
		slot:         slot,
		store:        models.NewStore(),
		subs:         make(map[chan TimerEvent]struct{}),
		now:          time.Now,
		undoWindow:   5 * time.Second,
		tickInterval: time.Second,
	}
}

// Load reads the persisted store. Absent or unreadable data yields an empty
// store rather than an error; the next save rewrites the slot.
func (m *Manager) Load(ctx context.Context) error {
	data, ok, err := m.slot.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading store: %w", err)
	}
	if !ok {
		m.log.Info("no stored data, starting with empty store")
		return nil
	}
	st, err := models.DecodeStore(data)
	if err != nil {
		m.log.Warn("stored data unreadable, starting with empty store", "error", err)
		return nil
	}
	m.mu.Lock()
	m.store = st
	m.mu.Unlock()
	m.log.Info("store loaded", "sessions", len(st.Sessions))
	return nil
}

// Close stops a running murph timer. The storage backend is owned by the
// caller and closed separately.
func (m *Manager) Close() {
	m.stopTimer()
}

// persistLocked rewrites the slot from the current store.
func (m *Manager) persistLocked(ctx context.Context) error {
	data, err := m.store.Encode()
	if err != nil {
		return fmt.Errorf("encoding store: %w", err)
	}
	if err := m.slot.Save(ctx, data); err != nil {
		return fmt.Errorf("saving store: %w", err)
	}
	return nil
}

// saveActiveLocked upserts the active session into the store and persists.
// This is the auto-save contract: the active session is durable after every
// mutation, even before completion.
func (m *Manager) saveActiveLocked(ctx context.Context) error {
	if m.active != nil {
		m.store.Upsert(m.active.Clone())
	}
	return m.persistLocked(ctx)
}

// Start creates a new active session of the given type. A previously active
// session is abandoned as a draft: its auto-saved state stays in the store
// and it can be picked up again with Resume.
func (m *Manager) Start(ctx context.Context, typ models.SessionType) (*models.Session, error) {
	if !typ.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, typ)
	}
	m.stopTimer()
	m.mu.Lock()
	defer m.mu.Unlock()
	var murph *models.MurphData
	if typ == models.TypeMurph {
		murph = &models.MurphData{}
	}
	return m.startLocked(ctx, typ, murph)
}

func (m *Manager) startLocked(ctx context.Context, typ models.SessionType, murph *models.MurphData) (*models.Session, error) {
	if m.active != nil {
		m.log.Info("abandoning active session as draft", "id", m.active.ID, "type", m.active.Type)
		m.discardUndoLocked()
		m.active = nil
	}
	sess := models.NewSession(typ, m.now())
	switch typ {
	case models.TypeMurph:
		sess.MurphData = murph
	case models.TypeRun:
		sess.RunData = &models.RunData{}
	default:
		exercises, err := templates.Instantiate(typ, m.now())
		if err != nil {
			return nil, err
		}
		sess.Exercises = exercises
	}
	m.active = &sess
	if err := m.saveActiveLocked(ctx); err != nil {
		m.active = nil
		return nil, err
	}
	m.log.Info("session started", "id", sess.ID, "type", typ)
	out := sess.Clone()
	return &out, nil
}

// Resume re-activates a retained draft.
func (m *Manager) Resume(ctx context.Context, id string) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active != nil {
		return nil, ErrActiveSessionExists
	}
	stored, ok := m.store.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	if stored.Completed {
		return nil, ErrAlreadyCompleted
	}
	sess := stored.Clone()
	m.active = &sess
	m.log.Info("session resumed", "id", id, "type", sess.Type)
	out := sess.Clone()
	return &out, nil
}

// Cancel abandons the active session and returns it. The auto-saved draft
// stays in the store unless purge is set, which also deletes it.
func (m *Manager) Cancel(ctx context.Context, purge bool) (*models.Session, error) {
	m.stopTimer()
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return nil, ErrNoActiveSession
	}
	sess := m.active.Clone()
	m.discardUndoLocked()
	m.active = nil
	if purge {
		m.store.Delete(sess.ID)
		if err := m.persistLocked(ctx); err != nil {
			return nil, err
		}
	}
	m.log.Info("session canceled", "id", sess.ID, "purged", purge)
	return &sess, nil
}

// Active returns a copy of the active session, if any.
func (m *Manager) Active() (*models.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return nil, false
	}
	out := m.active.Clone()
	return &out, true
}

// Sessions returns copies of every stored session in insertion order.
func (m *Manager) Sessions() []models.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Session, len(m.store.Sessions))
	for i, s := range m.store.Sessions {
		out[i] = s.Clone()
	}
	return out
}

// Get returns a copy of one stored session.
func (m *Manager) Get(id string) (*models.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.store.Get(id)
	if !ok {
		return nil, false
	}
	out := s.Clone()
	return &out, true
}

// Snapshot returns a deep copy of the whole store, the unit backups export.
func (m *Manager) Snapshot() *models.Store {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store.Clone()
}

// Finalize completes the active session: sets endedAt, computes totals for
// strength types, and clears the active handle.
func (m *Manager) Finalize(ctx context.Context) (*models.Session, error) {
	m.stopTimer()
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.finalizeLocked(ctx)
}

func (m *Manager) finalizeLocked(ctx context.Context) (*models.Session, error) {
	if m.active == nil {
		return nil, ErrNoActiveSession
	}
	ended := models.NewTime(m.now())
	m.active.Completed = true
	m.active.EndedAt = &ended
	if m.active.Type.IsStrength() {
		totals := stats.ComputeTotals(*m.active)
		m.active.Totals = &totals
	}
	m.discardUndoLocked()
	if err := m.saveActiveLocked(ctx); err != nil {
		return nil, err
	}
	sess := m.active.Clone()
	m.active = nil
	m.log.Info("session finalized", "id", sess.ID, "type", sess.Type)
	return &sess, nil
}

// Delete removes a session from history unconditionally. Deleting the
// active session also drops the active handle; there is no undo.
func (m *Manager) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	deletingActive := m.active != nil && m.active.ID == id
	m.mu.Unlock()
	if deletingActive {
		m.stopTimer()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.store.Delete(id) {
		return ErrSessionNotFound
	}
	if m.active != nil && m.active.ID == id {
		m.discardUndoLocked()
		m.active = nil
	}
	if err := m.persistLocked(ctx); err != nil {
		return err
	}
	m.log.Info("session deleted", "id", id)
	return nil
}

// EditCompleted replaces a completed session wholesale with the edited
// copy. Identity and completion are preserved; totals are recomputed for
// strength types so stored aggregates always match the stored sets.
func (m *Manager) EditCompleted(ctx context.Context, id string, edited models.Session) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.store.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	if !stored.Completed {
		return nil, ErrNotCompleted
	}
	next := edited.Clone()
	next.ID = stored.ID
	next.Completed = true
	if next.Type.IsStrength() {
		totals := stats.ComputeTotals(next)
		next.Totals = &totals
	}
	m.store.Upsert(next)
	if err := m.persistLocked(ctx); err != nil {
		return nil, err
	}
	m.log.Info("session edited", "id", id)
	out := next.Clone()
	return &out, nil
}
