package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/claude/liftlog/internal/backup"
	"github.com/claude/liftlog/internal/config"
	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/session"
	"github.com/claude/liftlog/internal/storage"
)

// cliEnv carries the opened backend and services through the command tree.
type cliEnv struct {
	cfg     *config.Config
	log     *slog.Logger
	backend storage.Backend
	manager *session.Manager
	backup  *backup.Service
	state   stateFile
	out     io.Writer
	styled  bool
}

// newApp builds the command tree around env. The global Before hook
// populates a fresh env from config; tests inject a prepared one, which
// setup leaves alone.
func newApp(env *cliEnv) *cli.App {
	app := &cli.App{
		Name:    "liftlog",
		Usage:   "Log strength sessions, murph workouts, and runs",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "Config file path (default: environment variables only)"},
			&cli.BoolFlag{Name: "plain", Usage: "Plain output without colors"},
		},
		Before: env.setup,
		After:  env.teardown,
		Commands: []*cli.Command{
			listCmd(env),
			showCmd(env),
			startCmd(env),
			resumeCmd(env),
			cancelCmd(env),
			finishCmd(env),
			deleteCmd(env),
			exerciseCmd(env),
			setCmd(env),
			lastCmd(env),
			runCmd(env),
			murphCmd(env),
			statsCmd(env),
			splitCmd(env),
			heatmapCmd(env),
			progressionCmd(env),
			templatesCmd(env),
			exportCmd(env),
			importCmd(env),
			importsCmd(env),
		},
	}
	// Let errors come back to the caller instead of exiting mid-test.
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// setup loads config and opens the backend. The help command stays free of
// storage side effects.
func (e *cliEnv) setup(c *cli.Context) error {
	if e.manager != nil || c.Args().First() == "help" {
		return nil
	}
	if e.out == nil {
		e.out = os.Stdout
	}
	var (
		cfg *config.Config
		err error
	)
	if path := c.String("config"); path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.FromEnv()
	}
	if err != nil {
		return err
	}
	e.cfg = cfg
	// Command output owns stdout; logs are warnings on stderr.
	e.log = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	switch cfg.Storage.Backend {
	case "postgres":
		e.backend, err = storage.OpenPostgres(c.Context, cfg.Storage.PostgresDSN)
	default:
		e.backend, err = storage.OpenSQLite(cfg.Storage.SQLitePath)
	}
	if err != nil {
		return err
	}
	e.manager = session.NewManager(e.log, e.backend)
	if err := e.manager.Load(c.Context); err != nil {
		return err
	}
	e.backup = backup.NewService(e.log, e.manager, e.backend, cfg.Backup.Dir)
	e.state = stateFile{path: statePath(cfg)}
	e.styled = !c.Bool("plain") && stdoutIsTerminal()
	return nil
}

func (e *cliEnv) teardown(c *cli.Context) error {
	if e.manager != nil {
		e.manager.Close()
	}
	if e.backend != nil {
		return e.backend.Close()
	}
	return nil
}

// statePath puts the CLI state next to the sqlite store, falling back to
// the default data directory for remote backends.
func statePath(cfg *config.Config) string {
	if cfg.Storage.Backend == "sqlite" && cfg.Storage.SQLitePath != "" {
		return filepath.Join(filepath.Dir(cfg.Storage.SQLitePath), "cli-state.json")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "cli-state.json"
	}
	return filepath.Join(home, ".liftlog", "cli-state.json")
}

// stdoutIsTerminal reports whether stdout is a terminal rather than a pipe
// or file.
func stdoutIsTerminal() bool {
	stat, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// resolveID expands a session id prefix, as printed by list, to the full
// id. An exact match always wins; otherwise the prefix must be unambiguous.
func (e *cliEnv) resolveID(arg string) (string, error) {
	if arg == "" {
		return "", cli.Exit("session id is required", 1)
	}
	if _, ok := e.manager.Get(arg); ok {
		return arg, nil
	}
	var matches []string
	for _, s := range e.manager.Sessions() {
		if strings.HasPrefix(s.ID, arg) {
			matches = append(matches, s.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", cli.Exit(fmt.Sprintf("no session matches %q", arg), 1)
	case 1:
		return matches[0], nil
	default:
		return "", cli.Exit(fmt.Sprintf("%q matches %d sessions, give more characters", arg, len(matches)), 1)
	}
}

// activate resumes the draft a mutating command operates on: the remembered
// resume choice while it still points at an uncompleted session, otherwise
// the most recently started draft.
func (e *cliEnv) activate(ctx context.Context) (*models.Session, error) {
	if sess, ok := e.manager.Active(); ok {
		return sess, nil
	}
	if st := e.state.read(); st.ActiveID != "" {
		if s, ok := e.manager.Get(st.ActiveID); ok && !s.Completed {
			return e.manager.Resume(ctx, st.ActiveID)
		}
	}
	var latest *models.Session
	for _, s := range e.manager.Sessions() {
		if s.Completed {
			continue
		}
		if latest == nil || s.StartedAt.After(latest.StartedAt.Time) {
			latest = &s
		}
	}
	if latest == nil {
		return nil, cli.Exit("no open session, run 'liftlog start' first", 1)
	}
	return e.manager.Resume(ctx, latest.ID)
}

// saveState applies mutate to the persisted CLI state. A write failure is
// worth a warning but never fails the command that already ran.
func (e *cliEnv) saveState(mutate func(*cliState)) {
	st := e.state.read()
	mutate(&st)
	if err := e.state.write(st); err != nil {
		e.log.Warn("writing cli state failed", "path", e.state.path, "error", err)
	}
}

// outputJSON writes v as indented JSON.
func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
