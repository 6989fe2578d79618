package session

import (
	"context"
	"time"

	"github.com/claude/liftlog/internal/models"
)

const (
	// liteCapSeconds is the Lite-mode time limit. The elapsed counter is
	// clamped here and the timer auto-stops.
	liteCapSeconds = 25 * 60

	// maxFullRounds is the Full-mode round cap.
	maxFullRounds = 20
)

// MurphOptions configures a new murph session. Vest settings are fixed once
// the timer has been started.
type MurphOptions struct {
	Lite         bool
	WeightVest   bool
	WeightVestKg *float64
}

// TimerEvent is broadcast to murph stream subscribers on every state change
// and once per elapsed second while the clock runs. Display is what the
// clock shows: a countdown from 25 minutes in Lite mode, count-up in Full.
type TimerEvent struct {
	Kind    string `json:"kind"`
	Elapsed int    `json:"elapsed"`
	Display int    `json:"display"`
	Running bool   `json:"running"`
	Rounds  int    `json:"rounds"`
	Lite    bool   `json:"lite"`
}

// StartMurph creates a new active murph session in the chosen mode. A
// previously active session is abandoned as a draft, like Start.
func (m *Manager) StartMurph(ctx context.Context, opts MurphOptions) (*models.Session, error) {
	m.stopTimer()
	m.mu.Lock()
	defer m.mu.Unlock()
	data := &models.MurphData{IsLite: opts.Lite, WeightVest: opts.WeightVest}
	if opts.WeightVest && opts.WeightVestKg != nil {
		kg := *opts.WeightVestKg
		data.WeightVestKg = &kg
	}
	return m.startLocked(ctx, models.TypeMurph, data)
}

// activeMurphLocked returns the active session's murph block.
func (m *Manager) activeMurphLocked() (*models.MurphData, error) {
	if m.active == nil {
		return nil, ErrNoActiveSession
	}
	if m.active.Type != models.TypeMurph || m.active.MurphData == nil {
		return nil, ErrNotMurph
	}
	return m.active.MurphData, nil
}

// displaySeconds maps raw elapsed seconds to the shown clock value.
func displaySeconds(d *models.MurphData) int {
	elapsed := 0
	if d.TotalTime != nil {
		elapsed = *d.TotalTime
	}
	if d.IsLite {
		if rem := liteCapSeconds - elapsed; rem > 0 {
			return rem
		}
		return 0
	}
	return elapsed
}

// timerEventLocked builds an event from the active murph session.
func (m *Manager) timerEventLocked(kind string) TimerEvent {
	d := m.active.MurphData
	elapsed := 0
	if d.TotalTime != nil {
		elapsed = *d.TotalTime
	}
	return TimerEvent{
		Kind:    kind,
		Elapsed: elapsed,
		Display: displaySeconds(d),
		Running: m.timerOn,
		Rounds:  d.Rounds,
		Lite:    d.IsLite,
	}
}

// ToggleMurphTimer starts the clock, or pauses a running one. Returns the
// session and whether the clock is running after the toggle. Starting at
// the Lite cap is a no-op; the clock stays stopped.
func (m *Manager) ToggleMurphTimer(ctx context.Context) (*models.Session, bool, error) {
	m.mu.Lock()
	if _, err := m.activeMurphLocked(); err != nil {
		m.mu.Unlock()
		return nil, false, err
	}

	if m.timerOn {
		cancel, done := m.timerCancel, m.timerDone
		m.mu.Unlock()
		cancel()
		select {
		case <-done:
		case <-time.After(3 * time.Second):
		}

		m.mu.Lock()
		defer m.mu.Unlock()
		if _, err := m.activeMurphLocked(); err != nil {
			return nil, false, err
		}
		sess := m.active.Clone()
		m.broadcast(m.timerEventLocked("paused"))
		return &sess, false, nil
	}

	d := m.active.MurphData
	if d.TotalTime == nil {
		zero := 0
		d.TotalTime = &zero
	}
	if d.IsLite && *d.TotalTime >= liteCapSeconds {
		sess := m.active.Clone()
		m.mu.Unlock()
		return &sess, false, nil
	}
	if err := m.saveActiveLocked(ctx); err != nil {
		m.mu.Unlock()
		return nil, false, err
	}

	tctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	m.timerOn = true
	m.timerCancel = cancel
	m.timerDone = done
	sess := m.active.Clone()
	m.broadcast(m.timerEventLocked("started"))
	m.mu.Unlock()

	go m.runTimer(tctx, done)
	return &sess, true, nil
}

// stopTimer stops the tick goroutine if one is running and waits for it to
// exit. Must be called without holding mu.
func (m *Manager) stopTimer() {
	m.mu.Lock()
	if !m.timerOn {
		m.mu.Unlock()
		return
	}
	cancel, done := m.timerCancel, m.timerDone
	m.mu.Unlock()

	cancel()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
	}
}

func (m *Manager) runTimer(ctx context.Context, done chan struct{}) {
	defer func() {
		m.mu.Lock()
		m.timerOn = false
		m.timerCancel = nil
		m.timerDone = nil
		m.mu.Unlock()
		close(done)
	}()

	ticker := time.NewTicker(m.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !m.tick() {
				return
			}
		}
	}
}

// tick advances elapsed time by one second and persists it, so a reload
// mid-workout resumes from the last tick. Returns false when the goroutine
// should stop: the session is gone or the Lite cap was hit.
func (m *Manager) tick() bool {
	m.mu.Lock()
	if m.active == nil || m.active.Type != models.TypeMurph || m.active.MurphData == nil {
		m.mu.Unlock()
		return false
	}
	d := m.active.MurphData
	elapsed := 0
	if d.TotalTime != nil {
		elapsed = *d.TotalTime
	}
	elapsed++
	capped := false
	if d.IsLite && elapsed >= liteCapSeconds {
		elapsed = liteCapSeconds
		capped = true
	}
	d.TotalTime = &elapsed

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	err := m.saveActiveLocked(ctx)
	cancel()
	if err != nil {
		m.log.Error("persisting timer tick", "error", err)
	}

	kind := "tick"
	if capped {
		kind = "capped"
	}
	ev := m.timerEventLocked(kind)
	if capped {
		ev.Running = false
	}
	m.mu.Unlock()

	m.broadcast(ev)
	return !capped
}

// AdjustRounds changes the round counter by delta. Full mode caps at 20,
// Lite is unbounded; the counter never goes below zero.
func (m *Manager) AdjustRounds(ctx context.Context, delta int) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, err := m.activeMurphLocked()
	if err != nil {
		return nil, err
	}
	rounds := d.Rounds + delta
	if rounds < 0 {
		rounds = 0
	}
	if !d.IsLite && rounds > maxFullRounds {
		rounds = maxFullRounds
	}
	d.Rounds = rounds
	if err := m.saveActiveLocked(ctx); err != nil {
		return nil, err
	}
	sess := m.active.Clone()
	m.broadcast(m.timerEventLocked("rounds"))
	return &sess, nil
}

// UpdateMurphVest changes the vest settings. Allowed only before the first
// timer start; once the workout is underway the vest is fixed.
func (m *Manager) UpdateMurphVest(ctx context.Context, vest bool, vestKg *float64) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, err := m.activeMurphLocked()
	if err != nil {
		return nil, err
	}
	if m.timerOn || d.TotalTime != nil {
		return nil, ErrMurphStarted
	}
	d.WeightVest = vest
	d.WeightVestKg = nil
	if vest && vestKg != nil {
		kg := *vestKg
		d.WeightVestKg = &kg
	}
	if err := m.saveActiveLocked(ctx); err != nil {
		return nil, err
	}
	sess := m.active.Clone()
	return &sess, nil
}

// FinishMurph stops the clock and finalizes the murph session. Rounds,
// elapsed time, and vest settings persist; no totals block is attached.
func (m *Manager) FinishMurph(ctx context.Context) (*models.Session, error) {
	m.stopTimer()
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.activeMurphLocked(); err != nil {
		return nil, err
	}
	sess, err := m.finalizeLocked(ctx)
	if err != nil {
		return nil, err
	}
	d := sess.MurphData
	elapsed := 0
	if d.TotalTime != nil {
		elapsed = *d.TotalTime
	}
	m.broadcast(TimerEvent{
		Kind:    "finished",
		Elapsed: elapsed,
		Display: displaySeconds(d),
		Rounds:  d.Rounds,
		Lite:    d.IsLite,
	})
	return sess, nil
}

// MurphLog describes a murph performed away from the live timer, entered
// after the fact. When is the nominal session time; zero means now.
type MurphLog struct {
	Rounds    int
	TotalTime int // seconds
	Lite      bool
	Vest      bool
	VestKg    *float64
	When      time.Time
}

// LogMurph validates and stores a completed murph session without running
// the timer. Mode rules still apply: Full rounds cap at 20 and Lite time at
// the 25-minute limit. An untimed active murph draft is absorbed, keeping
// its identity; a draft with timer progress is left alone.
func (m *Manager) LogMurph(ctx context.Context, in MurphLog) (*models.Session, error) {
	if in.TotalTime <= 0 {
		return nil, ErrInvalidDuration
	}
	rounds := in.Rounds
	if rounds < 0 {
		rounds = 0
	}
	if !in.Lite && rounds > maxFullRounds {
		rounds = maxFullRounds
	}
	total := in.TotalTime
	if in.Lite && total > liteCapSeconds {
		total = liteCapSeconds
	}

	when := in.When
	if when.IsZero() {
		when = m.now()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	sess := models.NewSession(models.TypeMurph, when)
	if m.active != nil && m.active.Type == models.TypeMurph && !m.timerOn &&
		(m.active.MurphData == nil || m.active.MurphData.TotalTime == nil) {
		sess.ID = m.active.ID
		m.discardUndoLocked()
		m.active = nil
	}
	at := models.NewTime(when)
	sess.Date = at
	sess.StartedAt = at
	sess.EndedAt = &at
	sess.Completed = true
	data := &models.MurphData{Rounds: rounds, TotalTime: &total, IsLite: in.Lite, WeightVest: in.Vest}
	if in.Vest && in.VestKg != nil {
		kg := *in.VestKg
		data.WeightVestKg = &kg
	}
	sess.MurphData = data

	m.store.Upsert(sess.Clone())
	if err := m.persistLocked(ctx); err != nil {
		return nil, err
	}
	m.log.Info("murph logged", "id", sess.ID, "rounds", rounds, "total_s", total)
	out := sess.Clone()
	return &out, nil
}

// Subscribe registers a timer event channel. Slow receivers miss events
// rather than blocking the timer.
func (m *Manager) Subscribe() chan TimerEvent {
	ch := make(chan TimerEvent, 32)
	m.subsMu.Lock()
	m.subs[ch] = struct{}{}
	m.subsMu.Unlock()
	return ch
}

// Unsubscribe removes a channel registered with Subscribe.
func (m *Manager) Unsubscribe(ch chan TimerEvent) {
	m.subsMu.Lock()
	delete(m.subs, ch)
	m.subsMu.Unlock()
}

// TimerState returns a snapshot event for the active murph session, so new
// stream subscribers can render before the first broadcast arrives.
func (m *Manager) TimerState() (TimerEvent, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.activeMurphLocked(); err != nil {
		return TimerEvent{}, false
	}
	return m.timerEventLocked("state"), true
}

func (m *Manager) broadcast(ev TimerEvent) {
	m.subsMu.Lock()
	defer m.subsMu.Unlock()
	for ch := range m.subs {
		select {
		case ch <- ev:
		default:
			// slow subscriber, skip
		}
	}
}
