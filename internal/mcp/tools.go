package mcp

import (
	"context"

	"github.com/claude/liftlog/internal/models"
	"github.com/mark3labs/mcp-go/mcp"
)

// boolArg reads an optional boolean argument, nil when absent.
func boolArg(req mcp.CallToolRequest, key string) *bool {
	v, ok := req.GetArguments()[key]
	if !ok {
		return nil
	}
	b, ok := v.(bool)
	if !ok {
		return nil
	}
	return &b
}

// --- Tool definitions ---

var toolGetSessions = mcp.NewTool("get_sessions",
	mcp.WithDescription("Query workout sessions newest first. Returns full session detail including exercises, sets, Murph data, and run data."),
	mcp.WithString("type", mcp.Description("Filter by session type"), mcp.Enum("push", "pull", "legs_core", "murph", "run")),
	mcp.WithBoolean("completed", mcp.Description("Filter by completion state. Omit to return both completed and in-progress sessions.")),
	mcp.WithNumber("limit", mcp.Description("Maximum number of sessions to return. Defaults to 20.")),
)

var toolGetSession = mcp.NewTool("get_session",
	mcp.WithDescription("Fetch a single workout session by id."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Session id")),
)

var toolGetTrainingStats = mcp.NewTool("get_training_stats",
	mcp.WithDescription("Aggregate stats for a trailing window: completed session count, total volume (kg), set count, and split distribution."),
	mcp.WithNumber("days", mcp.Description("Window length in days. Defaults to 30.")),
)

var toolGetSplitDistribution = mcp.NewTool("get_split_distribution",
	mcp.WithDescription("Completed session counts and percentages per training type within a trailing window."),
	mcp.WithNumber("days", mcp.Description("Window length in days. Defaults to 30.")),
)

var toolGetHeatmap = mcp.NewTool("get_heatmap",
	mcp.WithDescription("Per-day completed session counts for the trailing window, oldest first, with intensity levels 0-3."),
	mcp.WithNumber("days", mcp.Description("Number of trailing calendar days. Defaults to 84.")),
)

var toolGetExerciseProgression = mcp.NewTool("get_exercise_progression",
	mcp.WithDescription("Top logged weight per completed session for one exercise, chronological. Returns up to the 10 most recent points with positive weight."),
	mcp.WithString("exercise", mcp.Required(), mcp.Description("Exercise name, matched exactly (e.g. 'Bankdrücken')")),
	mcp.WithNumber("days", mcp.Description("Window length in days. Defaults to 90.")),
)

var toolFindLastSet = mcp.NewTool("find_last_set",
	mcp.WithDescription("Look up the most recent logged set for an exercise across completed sessions, the values a lifter would pre-fill from last time."),
	mcp.WithString("type", mcp.Required(), mcp.Description("Session type"), mcp.Enum("push", "pull", "legs_core")),
	mcp.WithString("exercise", mcp.Required(), mcp.Description("Exercise name, matched exactly")),
	mcp.WithString("variation", mcp.Description("Exercise variation, matched exactly. Defaults to none.")),
	mcp.WithNumber("set_index", mcp.Description("Set position to look up. Falls back to the exercise's last set when out of range. Defaults to 0.")),
)

var toolListExercises = mcp.NewTool("list_exercises",
	mcp.WithDescription("List every distinct exercise logged in completed sessions, most recently performed first, with session counts."),
)

var toolGetMurphHistory = mcp.NewTool("get_murph_history",
	mcp.WithDescription("Completed Murph sessions newest first, including total time, round counts, vest weight, and lite/full mode."),
	mcp.WithNumber("limit", mcp.Description("Maximum number of sessions to return. Defaults to 10.")),
)

var toolGetRunHistory = mcp.NewTool("get_run_history",
	mcp.WithDescription("Completed run sessions newest first, including distance and duration."),
	mcp.WithNumber("limit", mcp.Description("Maximum number of sessions to return. Defaults to 10.")),
)

// --- Tool handlers ---

func (h *handlers) getSessions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	typ := models.SessionType(req.GetString("type", ""))
	if typ != "" && !typ.Valid() {
		return mcp.NewToolResultError("unknown session type: " + string(typ)), nil
	}
	limit := req.GetInt("limit", 20)

	sessions, err := h.ds.Sessions(ctx, typ, boolArg(req, "completed"), limit)
	if err != nil {
		h.log.Error("mcp get_sessions", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(sessions)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id parameter is required"), nil
	}

	sess, err := h.ds.Session(ctx, id)
	if err != nil {
		h.log.Error("mcp get_session", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(sess)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getTrainingStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	days := req.GetInt("days", 30)
	if days < 1 {
		return mcp.NewToolResultError("days must be at least 1"), nil
	}

	summary, err := h.ds.TrainingStats(ctx, days)
	if err != nil {
		h.log.Error("mcp get_training_stats", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(summary)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getSplitDistribution(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	days := req.GetInt("days", 30)
	if days < 1 {
		return mcp.NewToolResultError("days must be at least 1"), nil
	}

	split, err := h.ds.SplitDistribution(ctx, days)
	if err != nil {
		h.log.Error("mcp get_split_distribution", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(split)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getHeatmap(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	days := req.GetInt("days", 84)
	if days < 1 {
		return mcp.NewToolResultError("days must be at least 1"), nil
	}

	cells, err := h.ds.Heatmap(ctx, days)
	if err != nil {
		h.log.Error("mcp get_heatmap", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(cells)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getExerciseProgression(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	exercise, err := req.RequireString("exercise")
	if err != nil {
		return mcp.NewToolResultError("exercise parameter is required"), nil
	}
	days := req.GetInt("days", 90)
	if days < 1 {
		return mcp.NewToolResultError("days must be at least 1"), nil
	}

	points, err := h.ds.ExerciseProgression(ctx, exercise, days)
	if err != nil {
		h.log.Error("mcp get_exercise_progression", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(points)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) findLastSet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	typStr, err := req.RequireString("type")
	if err != nil {
		return mcp.NewToolResultError("type parameter is required"), nil
	}
	typ := models.SessionType(typStr)
	if !typ.Valid() {
		return mcp.NewToolResultError("unknown session type: " + typStr), nil
	}
	exercise, err := req.RequireString("exercise")
	if err != nil {
		return mcp.NewToolResultError("exercise parameter is required"), nil
	}

	set, err := h.ds.LastSet(ctx, typ, exercise, req.GetString("variation", ""), req.GetInt("set_index", 0))
	if err != nil {
		h.log.Error("mcp find_last_set", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	payload := map[string]any{"found": set != nil}
	if set != nil {
		payload["set"] = set
	}
	result, err := mcp.NewToolResultJSON(payload)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) listExercises(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	exercises, err := h.ds.Exercises(ctx)
	if err != nil {
		h.log.Error("mcp list_exercises", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(exercises)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getMurphHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.typeHistory(ctx, req, models.TypeMurph, "get_murph_history")
}

func (h *handlers) getRunHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.typeHistory(ctx, req, models.TypeRun, "get_run_history")
}

func (h *handlers) typeHistory(ctx context.Context, req mcp.CallToolRequest, typ models.SessionType, tool string) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", 10)
	completed := true

	sessions, err := h.ds.Sessions(ctx, typ, &completed, limit)
	if err != nil {
		h.log.Error("mcp "+tool, "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(sessions)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
