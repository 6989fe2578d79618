// Package templates maps strength training types to their canonical
// exercise lists. Murph and run sessions carry no template; they start
// empty with a type-specific data block instead.
package templates

import (
	"errors"
	"fmt"
	"time"

	"github.com/claude/liftlog/internal/models"
)

// ErrNoTemplate is returned for types without a template (murph, run, and
// anything unknown). Callers surface this to the user instead of silently
// creating an empty session.
var ErrNoTemplate = errors.New("no template for session type")

const (
	heavySets     = 5
	accessorySets = 3
)

// heavyLifts designates the exercises that default to 5 working sets.
// Exact-name lookup; a renamed or variant exercise falls back to 3.
var heavyLifts = map[string]bool{
	"Bankdrücken": true,
	"Klimmzüge":   true,
	"Kreuzheben":  true,
}

// entry is one templated exercise: its display name and target rep hint.
// Set counts come from the heavy-lift table, not the entry.
type entry struct {
	name string
	hint string
}

// catalog defines the canonical exercise order per strength type.
var catalog = map[models.SessionType][]entry{
	models.TypePush: {
		{"Bankdrücken", "5x5"},
		{"Schrägbankdrücken", "3x8-10"},
		{"Schulterdrücken", "3x8-10"},
		{"Seitheben", "3x12-15"},
		{"Frontheben", "3x12-15"},
		{"Butterfly", "3x10-12"},
		{"Dips", "3x8-12"},
		{"Enges Bankdrücken", "3x8-10"},
		{"Trizepsdrücken", "3x10-12"},
		{"French Press", "3x10-12"},
		{"Liegestütze", "3xMax"},
	},
	models.TypePull: {
		{"Klimmzüge", "5x5"},
		{"Kreuzheben", "5x5"},
		{"Langhantelrudern", "3x8-10"},
		{"Latzug", "3x10-12"},
		{"Kurzhantelrudern", "3x10-12"},
		{"Face Pulls", "3x12-15"},
		{"Bizepscurls", "3x10-12"},
		{"Hammercurls", "3x10-12"},
		{"Shrugs", "3x12-15"},
	},
	models.TypeLegsCore: {
		{"Kniebeugen", "3x8-10"},
		{"Beinpresse", "3x10-12"},
		{"Ausfallschritte", "3x10-12"},
		{"Beinstrecker", "3x12-15"},
		{"Beincurls", "3x12-15"},
		{"Wadenheben", "3x15-20"},
		{"Planks", "3x60s"},
		{"Crunches", "3x15-20"},
		{"Beinheben", "3x12-15"},
		{"Russian Twists", "3x20"},
	},
}

// DefaultSetCount returns the default working-set count for an exercise:
// 5 for designated heavy lifts, 3 for everything else.
func DefaultSetCount(name string) int {
	if heavyLifts[name] {
		return heavySets
	}
	return accessorySets
}

// Instantiate builds the exercise list for a strength session, each
// exercise with a fresh identity and its default set skeleton. Returns
// ErrNoTemplate for non-strength or unknown types.
func Instantiate(t models.SessionType, now time.Time) ([]models.Exercise, error) {
	entries, ok := catalog[t]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoTemplate, t)
	}
	exercises := make([]models.Exercise, 0, len(entries))
	for i, e := range entries {
		ex := models.NewExercise(e.name, "", i, DefaultSetCount(e.name), now)
		ex.TargetRepHint = e.hint
		exercises = append(exercises, ex)
	}
	return exercises, nil
}

// Entry describes one templated exercise for catalog display.
type Entry struct {
	Name          string `json:"name"`
	SetCount      int    `json:"setCount"`
	TargetRepHint string `json:"targetRepHint,omitempty"`
}

// Describe returns the template for a type without instantiating it.
func Describe(t models.SessionType) ([]Entry, error) {
	entries, ok := catalog[t]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoTemplate, t)
	}
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		out = append(out, Entry{Name: e.name, SetCount: DefaultSetCount(e.name), TargetRepHint: e.hint})
	}
	return out, nil
}

// Types lists the types that have a template, in display order.
func Types() []models.SessionType {
	return []models.SessionType{models.TypePush, models.TypePull, models.TypeLegsCore}
}
