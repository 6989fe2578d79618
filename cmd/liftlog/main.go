package main

import (
	"context"
	"flag"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/claude/liftlog/internal/backup"
	"github.com/claude/liftlog/internal/config"
	"github.com/claude/liftlog/internal/server"
	"github.com/claude/liftlog/internal/session"
	"github.com/claude/liftlog/internal/storage"
	"tailscale.com/tsnet"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "", "path to config file (defaults and env vars apply when empty)")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	log.Info("LiftLog starting", "version", Version)

	// Load config
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
	level, _ := cfg.Log.SlogLevel()
	log = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	// Open storage backend
	ctx := context.Background()
	backend, err := openBackend(ctx, cfg, log)
	if err != nil {
		log.Error("failed to open storage", "backend", cfg.Storage.Backend, "error", err)
		os.Exit(1)
	}
	defer backend.Close()

	// Load the workout store
	manager := session.NewManager(log, backend)
	if err := manager.Load(ctx); err != nil {
		log.Error("failed to load store", "error", err)
		os.Exit(1)
	}
	defer manager.Close()

	// Backup service, plus the export schedule when configured
	backupSvc := backup.NewService(log, manager, backend, cfg.Backup.Dir)

	var sched *backup.Scheduler
	if cfg.Backup.Schedule != "" {
		sched, err = backup.NewScheduler(log, backupSvc, cfg.Backup.Schedule, cfg.Backup.Retain)
		if err != nil {
			log.Error("failed to create backup scheduler", "error", err)
			os.Exit(1)
		}
		sched.Start()
	}

	// Create server
	srv := server.New(manager, backupSvc, backend, cfg.Server.APIKey, log)

	// Start server — tsnet or plain HTTP
	var listener net.Listener
	var tsServer *tsnet.Server

	if cfg.Tailscale.Enabled {
		tsServer = &tsnet.Server{
			Hostname: cfg.Tailscale.Hostname,
			AuthKey:  cfg.Tailscale.AuthKey,
			Dir:      cfg.Tailscale.StateDir,
		}
		if err := tsServer.Start(); err != nil {
			log.Error("tsnet start failed", "error", err)
			os.Exit(1)
		}
		defer tsServer.Close()

		listener, err = tsServer.Listen("tcp", ":80")
		if err != nil {
			log.Error("tsnet listen failed", "error", err)
			os.Exit(1)
		}
		log.Info("tsnet server starting", "hostname", cfg.Tailscale.Hostname)
	} else {
		addr := cfg.Server.Addr()
		listener, err = net.Listen("tcp", addr)
		if err != nil {
			log.Error("listen failed", "addr", addr, "error", err)
			os.Exit(1)
		}
		log.Info("server starting", "addr", addr)
	}

	httpSrv := &http.Server{Handler: srv}

	go func() {
		if err := httpSrv.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("shutting down", "signal", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}
	if sched != nil {
		if err := sched.Stop(); err != nil {
			log.Error("scheduler stop error", "error", err)
		}
	}
	log.Info("server stopped")
}

// openBackend opens the configured storage backend. Postgres deployments
// get migrations applied first; the SQLite backend creates its own schema.
func openBackend(ctx context.Context, cfg *config.Config, log *slog.Logger) (storage.Backend, error) {
	switch cfg.Storage.Backend {
	case "postgres":
		if err := storage.RunMigrations(cfg.Storage.PostgresDSN, cfg.Storage.MigrationsPath); err != nil {
			return nil, err
		}
		log.Info("migrations applied")
		return storage.OpenPostgres(ctx, cfg.Storage.PostgresDSN)
	default:
		return storage.OpenSQLite(cfg.Storage.SQLitePath)
	}
}
