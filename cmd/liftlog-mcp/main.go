package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/claude/liftlog/internal/config"
	"github.com/claude/liftlog/internal/mcp"
	"github.com/claude/liftlog/internal/storage"
	"github.com/mark3labs/mcp-go/server"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "", "path to config file (defaults and env vars apply when empty)")
	apiURL := flag.String("api-url", "", "query a running LiftLog server at this base URL instead of the local store")
	apiKey := flag.String("api-key", "", "API key for -api-url mode (falls back to LIFTLOG_API_KEY)")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("liftlog-mcp", Version)
		return
	}

	// stdout carries the MCP protocol, so logs go to stderr.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	var ds mcp.DataSource
	if *apiURL != "" {
		key := *apiKey
		if key == "" {
			key = os.Getenv("LIFTLOG_API_KEY")
		}
		ds = mcp.NewHTTPClient(*apiURL, key)
	} else {
		var (
			cfg *config.Config
			err error
		)
		if *configPath != "" {
			cfg, err = config.Load(*configPath)
		} else {
			cfg, err = config.FromEnv()
		}
		if err != nil {
			log.Error("failed to load config", "error", err)
			os.Exit(1)
		}

		backend, err := openBackend(cfg)
		if err != nil {
			log.Error("failed to open storage", "backend", cfg.Storage.Backend, "error", err)
			os.Exit(1)
		}
		defer backend.Close()
		ds = mcp.NewLocalSource(backend)
	}

	srv := mcp.New(ds, Version, log)
	if err := server.ServeStdio(srv); err != nil {
		log.Error("mcp server error", "error", err)
		os.Exit(1)
	}
}

// openBackend opens the configured backend read-side. Schema setup is the
// main server's job; this binary only queries.
func openBackend(cfg *config.Config) (storage.Backend, error) {
	if cfg.Storage.Backend == "postgres" {
		return storage.OpenPostgres(context.Background(), cfg.Storage.PostgresDSN)
	}
	return storage.OpenSQLite(cfg.Storage.SQLitePath)
}
