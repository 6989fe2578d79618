package models

import (
	"time"

	"github.com/google/uuid"
)

// SessionType identifies what kind of workout a session records.
type SessionType string

const (
	TypePush     SessionType = "push"
	TypePull     SessionType = "pull"
	TypeLegsCore SessionType = "legs_core"
	TypeMurph    SessionType = "murph"
	TypeRun      SessionType = "run"
)

// Valid reports whether t is a known session type.
func (t SessionType) Valid() bool {
	switch t {
	case TypePush, TypePull, TypeLegsCore, TypeMurph, TypeRun:
		return true
	}
	return false
}

// IsStrength reports whether sessions of this type carry exercises and
// receive a totals block at finalization.
func (t SessionType) IsStrength() bool {
	switch t {
	case TypePush, TypePull, TypeLegsCore:
		return true
	}
	return false
}

// Set is one logged weight×reps attempt. Weight and reps are independently
// nullable; a set logged with only one of them is valid.
type Set struct {
	ID        string   `json:"id"`
	WeightKg  *float64 `json:"weightKg"`
	Reps      *int     `json:"reps"`
	Notes     string   `json:"notes,omitempty"`
	CreatedAt Time     `json:"createdAt"`
}

// NewSet creates an empty set with a fresh identity.
func NewSet(now time.Time) Set {
	return Set{ID: uuid.NewString(), CreatedAt: NewTime(now)}
}

// Clone returns a deep copy. Pointer fields get their own storage so the
// copy cannot alias the original.
func (s Set) Clone() Set {
	out := s
	if s.WeightKg != nil {
		w := *s.WeightKg
		out.WeightKg = &w
	}
	if s.Reps != nil {
		r := *s.Reps
		out.Reps = &r
	}
	return out
}

// Exercise is an ordered group of sets within a session. History lookups
// key on (Name, Variation): the same lift with a different variation is a
// distinct exercise for "last performance" purposes.
type Exercise struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Variation     string `json:"variation,omitempty"`
	Sets          []Set  `json:"sets"`
	TargetRepHint string `json:"targetRepHint,omitempty"`
	Order         int    `json:"order"`
}

// NewExercise creates an exercise with a fresh identity and n empty sets.
func NewExercise(name, variation string, order, n int, now time.Time) Exercise {
	ex := Exercise{
		ID:        uuid.NewString(),
		Name:      name,
		Variation: variation,
		Sets:      make([]Set, 0, n),
		Order:     order,
	}
	for i := 0; i < n; i++ {
		ex.Sets = append(ex.Sets, NewSet(now))
	}
	return ex
}

// Clone returns a deep copy of the exercise and its sets.
func (e Exercise) Clone() Exercise {
	out := e
	out.Sets = make([]Set, len(e.Sets))
	for i, s := range e.Sets {
		out.Sets[i] = s.Clone()
	}
	return out
}

// Totals is computed once at finalization for strength sessions.
type Totals struct {
	VolumeKg float64 `json:"volumeKg"`
	SetCount int     `json:"setCount"`
}

// MurphData is the type-specific block for murph sessions. TotalTime is
// elapsed seconds; in Lite mode it never exceeds the 25-minute cap.
type MurphData struct {
	Rounds       int      `json:"rounds"`
	TotalTime    *int     `json:"totalTime,omitempty"`
	IsLite       bool     `json:"isLite,omitempty"`
	WeightVest   bool     `json:"weightVest,omitempty"`
	WeightVestKg *float64 `json:"weightVestKg,omitempty"`
}

// Clone returns a deep copy.
func (m *MurphData) Clone() *MurphData {
	if m == nil {
		return nil
	}
	out := *m
	if m.TotalTime != nil {
		t := *m.TotalTime
		out.TotalTime = &t
	}
	if m.WeightVestKg != nil {
		kg := *m.WeightVestKg
		out.WeightVestKg = &kg
	}
	return &out
}

// RunData is the type-specific block for run sessions. Distance is in
// kilometers, Duration in seconds. Pace is derived on demand, never stored.
type RunData struct {
	Distance float64 `json:"distance"`
	Duration int     `json:"duration"`
}

// Session is one logged workout. Exactly one of the strength shape
// (exercises, totals), MurphData, or RunData is active, keyed by Type.
type Session struct {
	ID        string      `json:"id"`
	Type      SessionType `json:"type"`
	Date      Time        `json:"date"`
	StartedAt Time        `json:"startedAt"`
	EndedAt   *Time       `json:"endedAt,omitempty"`
	Completed bool        `json:"completed"`
	Exercises []Exercise  `json:"exercises"`
	Location  string      `json:"location,omitempty"`
	Notes     string      `json:"notes,omitempty"`
	Totals    *Totals     `json:"totals,omitempty"`
	MurphData *MurphData  `json:"murphData,omitempty"`
	RunData   *RunData    `json:"runData,omitempty"`
}

// NewSession creates an incomplete session of the given type with a fresh
// identity, dated now.
func NewSession(t SessionType, now time.Time) Session {
	return Session{
		ID:        uuid.NewString(),
		Type:      t,
		Date:      NewTime(now),
		StartedAt: NewTime(now),
		Exercises: []Exercise{},
	}
}

// Clone returns a deep copy of the session, including exercises, sets, and
// the type-specific data blocks.
func (s Session) Clone() Session {
	out := s
	out.Exercises = make([]Exercise, len(s.Exercises))
	for i, ex := range s.Exercises {
		out.Exercises[i] = ex.Clone()
	}
	if s.EndedAt != nil {
		t := *s.EndedAt
		out.EndedAt = &t
	}
	if s.Totals != nil {
		tot := *s.Totals
		out.Totals = &tot
	}
	out.MurphData = s.MurphData.Clone()
	if s.RunData != nil {
		rd := *s.RunData
		out.RunData = &rd
	}
	return out
}
