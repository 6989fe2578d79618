// Package stats derives summary statistics from the session history.
// Every function is pure over a snapshot of sessions; callers pass the
// reference time explicitly so windows are reproducible.
package stats

import (
	"math"
	"sort"
	"time"

	"github.com/claude/liftlog/internal/models"
)

// VolumeOf returns the session's training volume: the sum of weight×reps
// over all sets where both are logged. A set missing either contributes 0;
// null never excludes the session itself.
func VolumeOf(s models.Session) float64 {
	var total float64
	for _, ex := range s.Exercises {
		for _, set := range ex.Sets {
			if set.WeightKg != nil && set.Reps != nil {
				total += *set.WeightKg * float64(*set.Reps)
			}
		}
	}
	return total
}

// SetCount returns the total number of sets across all exercises,
// incomplete sets included.
func SetCount(s models.Session) int {
	n := 0
	for _, ex := range s.Exercises {
		n += len(ex.Sets)
	}
	return n
}

// ComputeTotals builds the totals block attached at finalization.
func ComputeTotals(s models.Session) models.Totals {
	return models.Totals{VolumeKg: VolumeOf(s), SetCount: SetCount(s)}
}

// Completed filters to finalized sessions, the population every aggregate
// below operates on.
func Completed(sessions []models.Session) []models.Session {
	out := make([]models.Session, 0, len(sessions))
	for _, s := range sessions {
		if s.Completed {
			out = append(out, s)
		}
	}
	return out
}

// inWindow reports whether the session date falls within the trailing
// window: date >= now - windowDays.
func inWindow(s models.Session, now time.Time, windowDays int) bool {
	cutoff := now.AddDate(0, 0, -windowDays)
	return !s.Date.Before(cutoff)
}

// Frequency counts completed sessions of any type within the window.
func Frequency(sessions []models.Session, now time.Time, windowDays int) int {
	if windowDays <= 0 {
		return 0
	}
	n := 0
	for _, s := range Completed(sessions) {
		if inWindow(s, now, windowDays) {
			n++
		}
	}
	return n
}

// VolumeInWindow sums totals.volumeKg over completed sessions in the
// window. Murph and run sessions carry no totals and contribute 0.
func VolumeInWindow(sessions []models.Session, now time.Time, windowDays int) float64 {
	if windowDays <= 0 {
		return 0
	}
	var total float64
	for _, s := range Completed(sessions) {
		if inWindow(s, now, windowDays) && s.Totals != nil {
			total += s.Totals.VolumeKg
		}
	}
	return total
}

// SplitShare holds one training type's share of the sessions in a window.
type SplitShare struct {
	Type  models.SessionType `json:"type"`
	Count int                `json:"count"`
	Pct   int                `json:"pct"`
}

// SplitDistribution counts completed sessions per type within the window.
// Percentages are rounded to the nearest integer for display and need not
// sum to exactly 100. Types with no sessions are omitted; the result is
// ordered by count descending, then type name.
func SplitDistribution(sessions []models.Session, now time.Time, windowDays int) []SplitShare {
	counts := make(map[models.SessionType]int)
	total := 0
	for _, s := range Completed(sessions) {
		if inWindow(s, now, windowDays) {
			counts[s.Type]++
			total++
		}
	}
	out := make([]SplitShare, 0, len(counts))
	for typ, n := range counts {
		pct := 0
		if total > 0 {
			pct = int(math.Round(float64(n) / float64(total) * 100))
		}
		out = append(out, SplitShare{Type: typ, Count: n, Pct: pct})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Type < out[j].Type
	})
	return out
}

// HeatmapDay holds one calendar day's session count and its intensity
// level on the 4-step scale: 0 sessions, 1, 2, and 3 or more.
type HeatmapDay struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
	Level int    `json:"level"`
}

// Heatmap buckets completed sessions onto the trailing `days` calendar
// dates in now's location, oldest first. Bucketing is by local calendar
// day, not rolling 24-hour periods.
func Heatmap(sessions []models.Session, now time.Time, days int) []HeatmapDay {
	if days <= 0 {
		return []HeatmapDay{}
	}
	loc := now.Location()
	counts := make(map[string]int)
	for _, s := range Completed(sessions) {
		counts[s.Date.In(loc).Format(models.DateOnlyLayout)]++
	}
	out := make([]HeatmapDay, 0, days)
	for i := days - 1; i >= 0; i-- {
		key := now.AddDate(0, 0, -i).In(loc).Format(models.DateOnlyLayout)
		n := counts[key]
		level := n
		if level > 3 {
			level = 3
		}
		out = append(out, HeatmapDay{Date: key, Count: n, Level: level})
	}
	return out
}

// ProgressionPoint holds one session's top weight for a tracked exercise.
type ProgressionPoint struct {
	Date      string  `json:"date"`
	MaxWeight float64 `json:"max_weight_kg"`
}

// ExerciseProgression returns one point per completed session in the
// window that contains an exercise with the given name, variation-agnostic,
// in chronological order. The point is the maximum logged weight across the
// matching exercise's sets with null treated as 0, so a session where the
// exercise was logged without weights still yields a 0-weight point.
// Display callers filter non-positive points via ChartPoints.
func ExerciseProgression(sessions []models.Session, exerciseName string, now time.Time, windowDays int) []ProgressionPoint {
	type dated struct {
		at    time.Time
		point ProgressionPoint
	}
	var points []dated
	for _, s := range Completed(sessions) {
		if !inWindow(s, now, windowDays) {
			continue
		}
		matched := false
		maxWeight := 0.0
		for _, ex := range s.Exercises {
			if ex.Name != exerciseName {
				continue
			}
			matched = true
			for _, set := range ex.Sets {
				if set.WeightKg != nil && *set.WeightKg > maxWeight {
					maxWeight = *set.WeightKg
				}
			}
		}
		if matched {
			points = append(points, dated{
				at:    s.Date.Time,
				point: ProgressionPoint{Date: s.Date.Format(models.DateOnlyLayout), MaxWeight: maxWeight},
			})
		}
	}
	sort.SliceStable(points, func(i, j int) bool { return points[i].at.Before(points[j].at) })
	out := make([]ProgressionPoint, 0, len(points))
	for _, p := range points {
		out = append(out, p.point)
	}
	return out
}

// ChartPoints prepares progression points for display: non-positive
// weights are dropped and only the most recent `limit` points remain.
func ChartPoints(points []ProgressionPoint, limit int) []ProgressionPoint {
	filtered := make([]ProgressionPoint, 0, len(points))
	for _, p := range points {
		if p.MaxWeight > 0 {
			filtered = append(filtered, p)
		}
	}
	if limit > 0 && len(filtered) > limit {
		filtered = filtered[len(filtered)-limit:]
	}
	return filtered
}

// FindLastSet is the "pre-fill from last time" lookup. It scans completed
// sessions of the given type in reverse chronological order, skipping
// excludeID, for the first exercise matching (name, variation) exactly.
// It returns the set at setIndex, or the exercise's last set when fewer
// sets exist, or nil when no completed session of the type contains the
// exercise. A nil result means "no prior data", not an error.
func FindLastSet(sessions []models.Session, typ models.SessionType, name, variation string, setIndex int, excludeID string) *models.Set {
	candidates := make([]models.Session, 0, len(sessions))
	for _, s := range Completed(sessions) {
		if s.Type == typ && s.ID != excludeID {
			candidates = append(candidates, s)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Date.After(candidates[j].Date.Time)
	})
	for _, s := range candidates {
		for _, ex := range s.Exercises {
			if ex.Name != name || ex.Variation != variation {
				continue
			}
			if len(ex.Sets) == 0 {
				return nil
			}
			idx := setIndex
			if idx >= len(ex.Sets) || idx < 0 {
				idx = len(ex.Sets) - 1
			}
			set := ex.Sets[idx].Clone()
			return &set
		}
	}
	return nil
}

// Summary holds the window aggregates the dashboard shows.
type Summary struct {
	WindowDays    int          `json:"window_days"`
	SessionCount  int          `json:"session_count"`
	VolumeKg      float64      `json:"volume_kg"`
	SetCount      int          `json:"set_count"`
	Split         []SplitShare `json:"split"`
	TotalSessions int          `json:"total_sessions"`
}

// Summarize assembles the aggregates for one trailing window.
func Summarize(sessions []models.Session, now time.Time, windowDays int) Summary {
	completed := Completed(sessions)
	setCount := 0
	for _, s := range completed {
		if inWindow(s, now, windowDays) && s.Totals != nil {
			setCount += s.Totals.SetCount
		}
	}
	return Summary{
		WindowDays:    windowDays,
		SessionCount:  Frequency(sessions, now, windowDays),
		VolumeKg:      VolumeInWindow(sessions, now, windowDays),
		SetCount:      setCount,
		Split:         SplitDistribution(sessions, now, windowDays),
		TotalSessions: len(completed),
	}
}

// ExerciseInfo describes one distinct (name, variation) pair seen in the
// completed history.
type ExerciseInfo struct {
	Name      string `json:"name"`
	Variation string `json:"variation,omitempty"`
	Sessions  int    `json:"sessions"`
	LastDate  string `json:"last_date"`
}

// ListExercises returns every distinct exercise logged in completed
// sessions, most recently performed first.
func ListExercises(sessions []models.Session) []ExerciseInfo {
	type key struct{ name, variation string }
	seen := make(map[key]*ExerciseInfo)
	last := make(map[key]time.Time)
	for _, s := range Completed(sessions) {
		counted := make(map[key]bool)
		for _, ex := range s.Exercises {
			k := key{ex.Name, ex.Variation}
			info, ok := seen[k]
			if !ok {
				info = &ExerciseInfo{Name: ex.Name, Variation: ex.Variation}
				seen[k] = info
			}
			if !counted[k] {
				info.Sessions++
				counted[k] = true
			}
			if s.Date.After(last[k]) {
				last[k] = s.Date.Time
				info.LastDate = s.Date.Format(models.DateOnlyLayout)
			}
		}
	}
	out := make([]ExerciseInfo, 0, len(seen))
	for _, info := range seen {
		out = append(out, *info)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LastDate != out[j].LastDate {
			return out[i].LastDate > out[j].LastDate
		}
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Variation < out[j].Variation
	})
	return out
}
