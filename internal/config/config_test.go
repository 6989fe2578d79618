package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const validYAML = `
server:
  host: "0.0.0.0"
  port: 8080
  api_key: "test-key-123"
storage:
  backend: "sqlite"
  sqlite_path: "/tmp/liftlog-test.db"
backup:
  dir: "/tmp/liftlog-backups"
  schedule: "0 3 * * *"
  retain: 7
log:
  level: "debug"
`

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

// TestLoadValid verifies that a well-formed YAML config loads with all fields populated.
func TestLoadValid(t *testing.T) {
	cfg, err := Load(writeTemp(t, validYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("server.host = %q, want %q", cfg.Server.Host, "0.0.0.0")
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("server.port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Server.APIKey != "test-key-123" {
		t.Errorf("server.api_key = %q, want %q", cfg.Server.APIKey, "test-key-123")
	}
	if cfg.Storage.Backend != "sqlite" {
		t.Errorf("storage.backend = %q, want %q", cfg.Storage.Backend, "sqlite")
	}
	if cfg.Backup.Schedule != "0 3 * * *" {
		t.Errorf("backup.schedule = %q, want %q", cfg.Backup.Schedule, "0 3 * * *")
	}
	if cfg.Backup.Retain != 7 {
		t.Errorf("backup.retain = %d, want 7", cfg.Backup.Retain)
	}
}

// TestLoadKeepsDefaults verifies that fields absent from the YAML keep
// their default values instead of zeroing out.
func TestLoadKeepsDefaults(t *testing.T) {
	yaml := `
server:
  port: 9090
`
	cfg, err := Load(writeTemp(t, yaml))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("server.port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Storage.Backend != "sqlite" {
		t.Errorf("storage.backend = %q, want default sqlite", cfg.Storage.Backend)
	}
	if cfg.Backup.Retain != 14 {
		t.Errorf("backup.retain = %d, want default 14", cfg.Backup.Retain)
	}
	if cfg.Tailscale.Hostname != "liftlog" {
		t.Errorf("tailscale.hostname = %q, want default liftlog", cfg.Tailscale.Hostname)
	}
}

// TestEnvOverride verifies that LIFTLOG_ env vars take precedence over YAML values.
// This ensures deployments can override config via environment.
func TestEnvOverride(t *testing.T) {
	t.Setenv("LIFTLOG_PORT", "9999")
	t.Setenv("LIFTLOG_API_KEY", "env-key")
	t.Setenv("LIFTLOG_STORAGE_BACKEND", "postgres")
	t.Setenv("LIFTLOG_POSTGRES_DSN", "postgres://u:p@localhost:5432/liftlog")

	cfg, err := Load(writeTemp(t, validYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("server.port = %d, want 9999", cfg.Server.Port)
	}
	if cfg.Server.APIKey != "env-key" {
		t.Errorf("server.api_key = %q, want %q", cfg.Server.APIKey, "env-key")
	}
	if cfg.Storage.Backend != "postgres" {
		t.Errorf("storage.backend = %q, want %q", cfg.Storage.Backend, "postgres")
	}
	// Unchanged fields should keep YAML values
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("server.host = %q, want %q", cfg.Server.Host, "0.0.0.0")
	}
}

// TestFromEnv verifies that running without a config file works on defaults
// plus environment.
func TestFromEnv(t *testing.T) {
	t.Setenv("LIFTLOG_SQLITE_PATH", "/tmp/envonly.db")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Storage.SQLitePath != "/tmp/envonly.db" {
		t.Errorf("storage.sqlite_path = %q, want /tmp/envonly.db", cfg.Storage.SQLitePath)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("server.port = %d, want default 8080", cfg.Server.Port)
	}
}

// TestValidationPortRange verifies that out-of-range ports are rejected.
// Prevents starting the server on a port the OS would refuse.
func TestValidationPortRange(t *testing.T) {
	for _, port := range []string{"0", "70000", "-1"} {
		yaml := strings.ReplaceAll(`
server:
  port: PORT
`, "PORT", port)
		if _, err := Load(writeTemp(t, yaml)); err == nil {
			t.Errorf("port %s accepted, want validation error", port)
		}
	}
}

// TestValidationBackend verifies that only the two known backends pass and
// that postgres requires a DSN.
func TestValidationBackend(t *testing.T) {
	if _, err := Load(writeTemp(t, `
storage:
  backend: "mysql"
`)); err == nil {
		t.Error("unknown backend accepted")
	}

	if _, err := Load(writeTemp(t, `
storage:
  backend: "postgres"
`)); err == nil {
		t.Error("postgres backend without DSN accepted")
	}
}

// TestValidationSchedule verifies that a malformed cron expression is
// rejected at load time rather than when the job first fires.
func TestValidationSchedule(t *testing.T) {
	if _, err := Load(writeTemp(t, `
backup:
  schedule: "not a cron line"
`)); err == nil {
		t.Error("malformed cron expression accepted")
	}

	if _, err := Load(writeTemp(t, `
backup:
  schedule: "*/15 * * * *"
`)); err != nil {
		t.Errorf("valid cron expression rejected: %v", err)
	}
}

// TestValidationRetain verifies that retain below 1 is rejected, since the
// pruner would otherwise delete every backup.
func TestValidationRetain(t *testing.T) {
	if _, err := Load(writeTemp(t, `
backup:
  retain: -3
`)); err == nil {
		t.Error("negative retain accepted")
	}
}

// TestSlogLevel verifies the level name mapping including the empty default.
func TestSlogLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{in: "debug", want: slog.LevelDebug},
		{in: "info", want: slog.LevelInfo},
		{in: "", want: slog.LevelInfo},
		{in: "WARN", want: slog.LevelWarn},
		{in: "error", want: slog.LevelError},
		{in: "verbose", wantErr: true},
	}
	for _, tt := range tests {
		got, err := LogConfig{Level: tt.in}.SlogLevel()
		if tt.wantErr {
			if err == nil {
				t.Errorf("level %q accepted", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("level %q: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("level %q = %v, want %v", tt.in, got, tt.want)
		}
	}
}

// TestExpandHome verifies ~ expansion in storage and backup paths.
func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}

	cfg, err := Load(writeTemp(t, `
storage:
  sqlite_path: "~/.liftlog/test.db"
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := filepath.Join(home, ".liftlog", "test.db")
	if cfg.Storage.SQLitePath != want {
		t.Errorf("sqlite_path = %q, want %q", cfg.Storage.SQLitePath, want)
	}
}

// TestLoadMissingFile verifies that a missing config file returns a clear error.
func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

// TestAddr verifies the listen address helper.
func TestAddr(t *testing.T) {
	s := ServerConfig{Host: "0.0.0.0", Port: 8080}
	if got, want := s.Addr(), "0.0.0.0:8080"; got != want {
		t.Errorf("Addr() = %q, want %q", got, want)
	}
}
