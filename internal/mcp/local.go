package mcp

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/stats"
	"github.com/claude/liftlog/internal/storage"
	"github.com/claude/liftlog/internal/templates"
)

// LocalSource implements DataSource by reading the store slot directly.
// Every query decodes a fresh snapshot, so writes from a concurrently
// running server become visible on the next tool call.
type LocalSource struct {
	slot storage.Slot
}

// Compile-time check: LocalSource satisfies DataSource.
var _ DataSource = (*LocalSource)(nil)

// NewLocalSource wraps a store slot as a DataSource.
func NewLocalSource(slot storage.Slot) *LocalSource {
	return &LocalSource{slot: slot}
}

func (l *LocalSource) load(ctx context.Context) ([]models.Session, error) {
	data, found, err := l.slot.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("localsource: load store: %w", err)
	}
	if !found {
		return nil, nil
	}
	st, err := models.DecodeStore(data)
	if err != nil {
		return nil, fmt.Errorf("localsource: %w", err)
	}
	return st.Sessions, nil
}

func (l *LocalSource) Sessions(ctx context.Context, typ models.SessionType, completed *bool, limit int) ([]models.Session, error) {
	sessions, err := l.load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.Session, 0, len(sessions))
	for _, s := range sessions {
		if typ != "" && s.Type != typ {
			continue
		}
		if completed != nil && s.Completed != *completed {
			continue
		}
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date.Time)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (l *LocalSource) Session(ctx context.Context, id string) (*models.Session, error) {
	sessions, err := l.load(ctx)
	if err != nil {
		return nil, err
	}
	for _, s := range sessions {
		if s.ID == id {
			return &s, nil
		}
	}
	return nil, fmt.Errorf("session %q not found", id)
}

func (l *LocalSource) TrainingStats(ctx context.Context, days int) (stats.Summary, error) {
	sessions, err := l.load(ctx)
	if err != nil {
		return stats.Summary{}, err
	}
	return stats.Summarize(sessions, time.Now(), days), nil
}

func (l *LocalSource) SplitDistribution(ctx context.Context, days int) ([]stats.SplitShare, error) {
	sessions, err := l.load(ctx)
	if err != nil {
		return nil, err
	}
	return stats.SplitDistribution(sessions, time.Now(), days), nil
}

func (l *LocalSource) Heatmap(ctx context.Context, days int) ([]stats.HeatmapDay, error) {
	sessions, err := l.load(ctx)
	if err != nil {
		return nil, err
	}
	return stats.Heatmap(sessions, time.Now(), days), nil
}

func (l *LocalSource) ExerciseProgression(ctx context.Context, exercise string, days int) ([]stats.ProgressionPoint, error) {
	sessions, err := l.load(ctx)
	if err != nil {
		return nil, err
	}
	points := stats.ExerciseProgression(sessions, exercise, time.Now(), days)
	return stats.ChartPoints(points, 10), nil
}

func (l *LocalSource) LastSet(ctx context.Context, typ models.SessionType, exercise, variation string, setIndex int) (*models.Set, error) {
	sessions, err := l.load(ctx)
	if err != nil {
		return nil, err
	}
	return stats.FindLastSet(sessions, typ, exercise, variation, setIndex, ""), nil
}

func (l *LocalSource) Exercises(ctx context.Context) ([]stats.ExerciseInfo, error) {
	sessions, err := l.load(ctx)
	if err != nil {
		return nil, err
	}
	return stats.ListExercises(sessions), nil
}

func (l *LocalSource) Templates(_ context.Context) ([]TemplateGroup, error) {
	out := make([]TemplateGroup, 0, len(templates.Types()))
	for _, typ := range templates.Types() {
		entries, err := templates.Describe(typ)
		if err != nil {
			continue
		}
		out = append(out, TemplateGroup{Type: typ, Exercises: entries})
	}
	return out, nil
}
