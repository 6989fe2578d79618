package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Backup    BackupConfig    `yaml:"backup"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
	Log       LogConfig       `yaml:"log"`
}

type ServerConfig struct {
	Host   string `yaml:"host"`
	Port   int    `yaml:"port"`
	APIKey string `yaml:"api_key"`
}

type StorageConfig struct {
	Backend        string `yaml:"backend"`
	SQLitePath     string `yaml:"sqlite_path"`
	PostgresDSN    string `yaml:"postgres_dsn"`
	MigrationsPath string `yaml:"migrations_path"`
}

type BackupConfig struct {
	Dir      string `yaml:"dir"`
	Schedule string `yaml:"schedule"`
	Retain   int    `yaml:"retain"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	AuthKey  string `yaml:"auth_key"`
	StateDir string `yaml:"state_dir"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Addr returns the host:port the HTTP server listens on.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// SlogLevel maps the configured level name to a slog level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", l.Level)
	}
}

// Default returns the zero-file configuration: sqlite under ~/.liftlog,
// listening on localhost, auth disabled.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8080,
		},
		Storage: StorageConfig{
			Backend:        "sqlite",
			SQLitePath:     "~/.liftlog/liftlog.db",
			MigrationsPath: "migrations",
		},
		Backup: BackupConfig{
			Dir:    "~/.liftlog/backups",
			Retain: 14,
		},
		Tailscale: TailscaleConfig{
			Hostname: "liftlog",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads config from a YAML file over the defaults, then applies
// environment variable overrides. Env vars use the prefix LIFTLOG_:
//
//	LIFTLOG_HOST, LIFTLOG_PORT, LIFTLOG_API_KEY,
//	LIFTLOG_STORAGE_BACKEND, LIFTLOG_SQLITE_PATH, LIFTLOG_POSTGRES_DSN,
//	LIFTLOG_BACKUP_DIR, LIFTLOG_BACKUP_SCHEDULE,
//	LIFTLOG_TS_AUTHKEY, LIFTLOG_LOG_LEVEL
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)
	cfg.expandPaths()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// FromEnv returns the defaults with environment overrides applied, for
// running without a config file.
func FromEnv() (*Config, error) {
	cfg := Default()
	applyEnvOverrides(cfg)
	cfg.expandPaths()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LIFTLOG_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("LIFTLOG_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("LIFTLOG_API_KEY"); v != "" {
		cfg.Server.APIKey = v
	}
	if v := os.Getenv("LIFTLOG_STORAGE_BACKEND"); v != "" {
		cfg.Storage.Backend = v
	}
	if v := os.Getenv("LIFTLOG_SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}
	if v := os.Getenv("LIFTLOG_POSTGRES_DSN"); v != "" {
		cfg.Storage.PostgresDSN = v
	}
	if v := os.Getenv("LIFTLOG_BACKUP_DIR"); v != "" {
		cfg.Backup.Dir = v
	}
	if v := os.Getenv("LIFTLOG_BACKUP_SCHEDULE"); v != "" {
		cfg.Backup.Schedule = v
	}
	if v := os.Getenv("LIFTLOG_TS_AUTHKEY"); v != "" {
		cfg.Tailscale.AuthKey = v
	}
	if v := os.Getenv("LIFTLOG_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}

// expandPaths resolves a leading ~/ in configured paths against the home
// directory. Paths are left untouched when the home directory is unknown.
func (c *Config) expandPaths() {
	c.Storage.SQLitePath = expandHome(c.Storage.SQLitePath)
	c.Backup.Dir = expandHome(c.Backup.Dir)
	c.Tailscale.StateDir = expandHome(c.Tailscale.StateDir)
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d is out of range", c.Server.Port)
	}
	switch c.Storage.Backend {
	case "sqlite":
		if c.Storage.SQLitePath == "" {
			return fmt.Errorf("storage.sqlite_path is required for the sqlite backend")
		}
	case "postgres":
		if c.Storage.PostgresDSN == "" {
			return fmt.Errorf("storage.postgres_dsn is required for the postgres backend")
		}
	default:
		return fmt.Errorf("storage.backend must be sqlite or postgres, got %q", c.Storage.Backend)
	}
	if c.Backup.Retain < 1 {
		return fmt.Errorf("backup.retain must be at least 1, got %d", c.Backup.Retain)
	}
	if c.Backup.Schedule != "" {
		parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
		if _, err := parser.Parse(c.Backup.Schedule); err != nil {
			return fmt.Errorf("backup.schedule: %w", err)
		}
	}
	if c.Tailscale.Enabled && c.Tailscale.Hostname == "" {
		return fmt.Errorf("tailscale.hostname is required when tailscale is enabled")
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}
	return nil
}
