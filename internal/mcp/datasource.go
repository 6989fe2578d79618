package mcp

import (
	"context"

	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/stats"
	"github.com/claude/liftlog/internal/templates"
)

// DataSource abstracts the workout log for MCP tools. Both LocalSource
// (reading the store slot directly) and HTTPClient (remote via the REST
// API) satisfy this interface.
type DataSource interface {
	// Sessions returns sessions newest first. An empty type matches all
	// types, a nil completed matches both states, and limit <= 0 means
	// no limit.
	Sessions(ctx context.Context, typ models.SessionType, completed *bool, limit int) ([]models.Session, error)
	Session(ctx context.Context, id string) (*models.Session, error)
	TrainingStats(ctx context.Context, days int) (stats.Summary, error)
	SplitDistribution(ctx context.Context, days int) ([]stats.SplitShare, error)
	Heatmap(ctx context.Context, days int) ([]stats.HeatmapDay, error)
	ExerciseProgression(ctx context.Context, exercise string, days int) ([]stats.ProgressionPoint, error)
	// LastSet returns nil without error when no prior set matches.
	LastSet(ctx context.Context, typ models.SessionType, exercise, variation string, setIndex int) (*models.Set, error)
	Exercises(ctx context.Context) ([]stats.ExerciseInfo, error)
	Templates(ctx context.Context) ([]TemplateGroup, error)
}

// TemplateGroup is one session type's templated exercise list, the shape
// the template catalog endpoint serves.
type TemplateGroup struct {
	Type      models.SessionType `json:"type"`
	Exercises []templates.Entry  `json:"exercises"`
}
