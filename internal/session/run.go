package session

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/claude/liftlog/internal/models"
)

// RunInput is the raw form input for logging a run. Distance accepts comma
// or dot decimals; minutes and seconds are free text composed into total
// seconds. When is the nominal session time; zero means now.
type RunInput struct {
	Distance string
	Minutes  string
	Seconds  string
	When     time.Time
}

// SaveRun validates and stores a completed run session, returning it with
// the derived pace display. Runs are single-shot: there is no live timer,
// and the session time is the user-supplied value rather than the wall
// clock. An active run draft is absorbed, keeping its identity.
func (m *Manager) SaveRun(ctx context.Context, in RunInput) (*models.Session, string, error) {
	dist := models.ParseDecimal(in.Distance)
	if dist == nil || *dist <= 0 {
		return nil, "", ErrInvalidDistance
	}
	minutes, seconds := 0, 0
	if v := models.ParseReps(in.Minutes); v != nil {
		minutes = *v
	}
	if v := models.ParseReps(in.Seconds); v != nil {
		seconds = *v
	}
	duration := minutes*60 + seconds
	if duration <= 0 {
		return nil, "", ErrInvalidDuration
	}

	when := in.When
	if when.IsZero() {
		when = m.now()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	sess := models.NewSession(models.TypeRun, when)
	if m.active != nil && m.active.Type == models.TypeRun {
		sess.ID = m.active.ID
		m.discardUndoLocked()
		m.active = nil
	}
	at := models.NewTime(when)
	sess.Date = at
	sess.StartedAt = at
	sess.EndedAt = &at
	sess.Completed = true
	sess.RunData = &models.RunData{Distance: *dist, Duration: duration}

	m.store.Upsert(sess.Clone())
	if err := m.persistLocked(ctx); err != nil {
		return nil, "", err
	}
	m.log.Info("run saved", "id", sess.ID, "distance_km", *dist, "duration_s", duration)
	out := sess.Clone()
	return &out, Pace(*dist, duration), nil
}

// Pace formats seconds-per-kilometer as "M:SS min/km". Derived for display
// only, never persisted.
func Pace(distanceKm float64, durationSec int) string {
	secPerKm := int(math.Round(float64(durationSec) / distanceKm))
	return fmt.Sprintf("%d:%02d min/km", secPerKm/60, secPerKm%60)
}
