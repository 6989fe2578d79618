package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/claude/liftlog/internal/models"
)

// addedExerciseSets is the skeleton size for exercises added to a running
// session. Template instantiation applies its own 5-vs-3 policy; manual
// additions always start with 3.
const addedExerciseSets = 3

// pendingUndo holds one removed set for restoration within the undo window.
type pendingUndo struct {
	sessionID  string
	exerciseID string
	index      int
	set        models.Set
	expiresAt  time.Time
	timer      *time.Timer
}

// activeStrengthLocked returns the active session if it carries exercises.
func (m *Manager) activeStrengthLocked() (*models.Session, error) {
	if m.active == nil {
		return nil, ErrNoActiveSession
	}
	if !m.active.Type.IsStrength() {
		return nil, ErrNotStrength
	}
	return m.active, nil
}

func (m *Manager) discardUndoLocked() {
	if m.undo == nil {
		return
	}
	m.undo.timer.Stop()
	m.undo = nil
}

// AddExercise appends an exercise with a fresh identity and a blank set
// skeleton to the active session.
func (m *Manager) AddExercise(ctx context.Context, name, variation string) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, err := m.activeStrengthLocked()
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyExerciseName
	}
	ex := models.NewExercise(name, strings.TrimSpace(variation), len(sess.Exercises), addedExerciseSets, m.now())
	sess.Exercises = append(sess.Exercises, ex)
	m.discardUndoLocked()
	if err := m.saveActiveLocked(ctx); err != nil {
		return nil, err
	}
	out := sess.Clone()
	return &out, nil
}

// RemoveExercise deletes the exercise at index from the active session.
func (m *Manager) RemoveExercise(ctx context.Context, index int) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, err := m.activeStrengthLocked()
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(sess.Exercises) {
		return nil, fmt.Errorf("%w: exercise %d", ErrIndexOutOfRange, index)
	}
	sess.Exercises = append(sess.Exercises[:index], sess.Exercises[index+1:]...)
	m.discardUndoLocked()
	if err := m.saveActiveLocked(ctx); err != nil {
		return nil, err
	}
	out := sess.Clone()
	return &out, nil
}

// AddSet appends a blank set to the exercise at exerciseIndex.
func (m *Manager) AddSet(ctx context.Context, exerciseIndex int) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, err := m.activeStrengthLocked()
	if err != nil {
		return nil, err
	}
	if exerciseIndex < 0 || exerciseIndex >= len(sess.Exercises) {
		return nil, fmt.Errorf("%w: exercise %d", ErrIndexOutOfRange, exerciseIndex)
	}
	ex := &sess.Exercises[exerciseIndex]
	ex.Sets = append(ex.Sets, models.NewSet(m.now()))
	m.discardUndoLocked()
	if err := m.saveActiveLocked(ctx); err != nil {
		return nil, err
	}
	out := sess.Clone()
	return &out, nil
}

// UpdateSetInput carries free-text field values for one set. Nil leaves the
// field untouched; non-nil values go through the numeric input contract, so
// empty or unparseable text clears the value rather than erroring.
type UpdateSetInput struct {
	Weight *string
	Reps   *string
	Notes  *string
}

// UpdateSet writes one set's fields from form input. Scalar edits leave a
// pending set-removal undo intact.
func (m *Manager) UpdateSet(ctx context.Context, exerciseIndex, setIndex int, in UpdateSetInput) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, err := m.activeStrengthLocked()
	if err != nil {
		return nil, err
	}
	if exerciseIndex < 0 || exerciseIndex >= len(sess.Exercises) {
		return nil, fmt.Errorf("%w: exercise %d", ErrIndexOutOfRange, exerciseIndex)
	}
	ex := &sess.Exercises[exerciseIndex]
	if setIndex < 0 || setIndex >= len(ex.Sets) {
		return nil, fmt.Errorf("%w: set %d", ErrIndexOutOfRange, setIndex)
	}
	set := &ex.Sets[setIndex]
	if in.Weight != nil {
		set.WeightKg = models.ParseDecimal(*in.Weight)
	}
	if in.Reps != nil {
		set.Reps = models.ParseReps(*in.Reps)
	}
	if in.Notes != nil {
		set.Notes = strings.TrimSpace(*in.Notes)
	}
	if err := m.saveActiveLocked(ctx); err != nil {
		return nil, err
	}
	out := sess.Clone()
	return &out, nil
}

// RemoveSet deletes one set from the active session. The removed value is
// held for the undo window; the returned deadline is when the undo lapses.
func (m *Manager) RemoveSet(ctx context.Context, exerciseIndex, setIndex int) (*models.Session, time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, err := m.activeStrengthLocked()
	if err != nil {
		return nil, time.Time{}, err
	}
	if exerciseIndex < 0 || exerciseIndex >= len(sess.Exercises) {
		return nil, time.Time{}, fmt.Errorf("%w: exercise %d", ErrIndexOutOfRange, exerciseIndex)
	}
	ex := &sess.Exercises[exerciseIndex]
	if setIndex < 0 || setIndex >= len(ex.Sets) {
		return nil, time.Time{}, fmt.Errorf("%w: set %d", ErrIndexOutOfRange, setIndex)
	}
	removed := ex.Sets[setIndex].Clone()
	ex.Sets = append(ex.Sets[:setIndex], ex.Sets[setIndex+1:]...)

	m.discardUndoLocked()
	deadline := m.now().Add(m.undoWindow)
	undo := &pendingUndo{
		sessionID:  sess.ID,
		exerciseID: ex.ID,
		index:      setIndex,
		set:        removed,
		expiresAt:  deadline,
	}
	undo.timer = time.AfterFunc(m.undoWindow, func() {
		m.mu.Lock()
		if m.undo == undo {
			m.undo = nil
		}
		m.mu.Unlock()
	})
	m.undo = undo

	if err := m.saveActiveLocked(ctx); err != nil {
		return nil, time.Time{}, err
	}
	out := sess.Clone()
	return &out, deadline, nil
}

// RemovedSet is a set removal whose undo window may still be open, in a
// form callers can persist. One-shot processes write it down after
// RemoveSet and hand it back through SeedUndo in a later invocation.
type RemovedSet struct {
	SessionID  string     `json:"sessionId"`
	ExerciseID string     `json:"exerciseId"`
	SetIndex   int        `json:"setIndex"`
	Set        models.Set `json:"set"`
	ExpiresAt  time.Time  `json:"expiresAt"`
}

// PendingUndo returns the current set removal while its window is open.
func (m *Manager) PendingUndo() (RemovedSet, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.undo == nil || m.now().After(m.undo.expiresAt) {
		return RemovedSet{}, false
	}
	return RemovedSet{
		SessionID:  m.undo.sessionID,
		ExerciseID: m.undo.exerciseID,
		SetIndex:   m.undo.index,
		Set:        m.undo.set.Clone(),
		ExpiresAt:  m.undo.expiresAt,
	}, true
}

// SeedUndo installs a previously captured removal as the pending undo so
// UndoRemoveSet can restore it. Expired state or a removal belonging to a
// session other than the active one is rejected.
func (m *Manager) SeedUndo(u RemovedSet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.now().After(u.ExpiresAt) {
		return ErrUndoExpired
	}
	if m.active == nil || m.active.ID != u.SessionID {
		return ErrUndoExpired
	}
	m.discardUndoLocked()
	undo := &pendingUndo{
		sessionID:  u.SessionID,
		exerciseID: u.ExerciseID,
		index:      u.SetIndex,
		set:        u.Set.Clone(),
		expiresAt:  u.ExpiresAt,
	}
	undo.timer = time.AfterFunc(u.ExpiresAt.Sub(m.now()), func() {
		m.mu.Lock()
		if m.undo == undo {
			m.undo = nil
		}
		m.mu.Unlock()
	})
	m.undo = undo
	return nil
}

// UndoRemoveSet restores the most recently removed set to its original
// index with its original identity and creation time. After the window, or
// after any structural edit, there is nothing to restore.
func (m *Manager) UndoRemoveSet(ctx context.Context) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	undo := m.undo
	if undo == nil || m.now().After(undo.expiresAt) {
		return nil, ErrUndoExpired
	}
	if m.active == nil || m.active.ID != undo.sessionID {
		return nil, ErrUndoExpired
	}
	for i := range m.active.Exercises {
		ex := &m.active.Exercises[i]
		if ex.ID != undo.exerciseID {
			continue
		}
		at := undo.index
		if at > len(ex.Sets) {
			at = len(ex.Sets)
		}
		ex.Sets = append(ex.Sets[:at], append([]models.Set{undo.set}, ex.Sets[at:]...)...)
		m.discardUndoLocked()
		if err := m.saveActiveLocked(ctx); err != nil {
			return nil, err
		}
		out := m.active.Clone()
		return &out, nil
	}
	m.discardUndoLocked()
	return nil, ErrUndoExpired
}
