package mcp

import (
	"context"
	"encoding/json"
	"time"

	"github.com/claude/liftlog/internal/models"
	"github.com/mark3labs/mcp-go/mcp"
)

// summaryWindows are the trailing windows the stats summary resource covers.
var summaryWindows = []int{7, 30}

func (h *handlers) statsSummary(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	windows := make([]any, 0, len(summaryWindows))
	for _, days := range summaryWindows {
		summary, err := h.ds.TrainingStats(ctx, days)
		if err != nil {
			return nil, err
		}
		windows = append(windows, summary)
	}

	data, err := json.Marshal(map[string]any{"windows": windows})
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (h *handlers) recentSessions(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	completed := true
	sessions, err := h.ds.Sessions(ctx, "", &completed, 0)
	if err != nil {
		return nil, err
	}

	cutoff := time.Now().AddDate(0, 0, -14)
	recent := make([]models.Session, 0, len(sessions))
	for _, s := range sessions {
		if s.Date.After(cutoff) {
			recent = append(recent, s)
		}
	}

	data, err := json.Marshal(recent)
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (h *handlers) templateCatalog(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	groups, err := h.ds.Templates(ctx)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(groups)
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
