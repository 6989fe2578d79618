package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// New creates an MCP server with all tools and resources registered.
// The data source decides whether queries hit the local store slot or a
// running server's REST API.
func New(ds DataSource, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("LiftLog", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("LiftLog workout history server. Query training sessions, volume and split statistics, exercise progression, Murph times, and run history. All tools are read-only."),
	)

	h := &handlers{ds: ds, log: log}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolGetSessions, Handler: h.getSessions},
		server.ServerTool{Tool: toolGetSession, Handler: h.getSession},
		server.ServerTool{Tool: toolGetTrainingStats, Handler: h.getTrainingStats},
		server.ServerTool{Tool: toolGetSplitDistribution, Handler: h.getSplitDistribution},
		server.ServerTool{Tool: toolGetHeatmap, Handler: h.getHeatmap},
		server.ServerTool{Tool: toolGetExerciseProgression, Handler: h.getExerciseProgression},
		server.ServerTool{Tool: toolFindLastSet, Handler: h.findLastSet},
		server.ServerTool{Tool: toolListExercises, Handler: h.listExercises},
		server.ServerTool{Tool: toolGetMurphHistory, Handler: h.getMurphHistory},
		server.ServerTool{Tool: toolGetRunHistory, Handler: h.getRunHistory},
	)

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resStatsSummary, Handler: h.statsSummary},
		server.ServerResource{Resource: resRecentSessions, Handler: h.recentSessions},
		server.ServerResource{Resource: resTemplates, Handler: h.templateCatalog},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds  DataSource
	log *slog.Logger
}

// --- Resource definitions ---

var resStatsSummary = mcp.NewResource(
	"liftlog://stats/summary",
	"Training Summary",
	mcp.WithResourceDescription("Session count, volume, set count, and split distribution for the trailing 7 and 30 day windows"),
	mcp.WithMIMEType("application/json"),
)

var resRecentSessions = mcp.NewResource(
	"liftlog://sessions/recent",
	"Recent Sessions",
	mcp.WithResourceDescription("Completed workout sessions from the last 14 days"),
	mcp.WithMIMEType("application/json"),
)

var resTemplates = mcp.NewResource(
	"liftlog://templates",
	"Session Templates",
	mcp.WithResourceDescription("Templated exercise lists for the push, pull, and legs_core session types"),
	mcp.WithMIMEType("application/json"),
)
