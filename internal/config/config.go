package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`
	Static   StaticConfig   `yaml:"static"`
	Demos    DemosConfig    `yaml:"demos"`
	Backup   BackupConfig   `yaml:"backup"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port        int    `yaml:"port"`
	BasePath    string `yaml:"base_path"`
	TLSCertFile string `yaml:"tls_cert_file"`
	TLSKeyFile  string `yaml:"tls_key_file"`
	HTTP3       bool   `yaml:"http3"`
}

// TLSEnabled reports whether both a certificate and a key are configured.
func (s ServerConfig) TLSEnabled() bool {
	return s.TLSCertFile != "" && s.TLSKeyFile != ""
}

// DatabaseConfig holds SQLite settings.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	FilePath string `yaml:"file_path"`
}

// StaticConfig holds static asset settings.
type StaticConfig struct {
	Dir   string `yaml:"dir"`
	Watch bool   `yaml:"watch"`
}

// DemosConfig controls demo exploration seeding.
type DemosConfig struct {
	LoadOnStart bool `yaml:"load_on_start"`
}

// BackupConfig holds scheduled database backup settings. An empty Path
// puts backups in a "backups" directory next to the database.
type BackupConfig struct {
	Enabled        bool   `yaml:"enabled"`
	Path           string `yaml:"path"`
	IntervalHours  int    `yaml:"interval_hours"`
	RetentionCount int    `yaml:"retention_count"`
	MaxAgeDays     int    `yaml:"max_age_days"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:     8080,
			BasePath: "/",
		},
		Database: DatabaseConfig{
			Path: "/data/sprout.db",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Static: StaticConfig{
			Dir: "web/static",
		},
		Backup: BackupConfig{
			IntervalHours:  24,
			RetentionCount: 7,
		},
	}
}

// Load reads config from a YAML file (if it exists) and overrides with
// environment variables. Environment variables take precedence.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFromFile(path); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	cfg.loadFromEnv()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func (c *Config) loadFromFile(path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from operator-controlled env
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return yaml.Unmarshal(data, c)
}

func (c *Config) loadFromEnv() {
	if v := os.Getenv("SP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("SP_BASE_PATH"); v != "" {
		c.Server.BasePath = v
	}
	if v := os.Getenv("SP_TLS_CERT_FILE"); v != "" {
		c.Server.TLSCertFile = v
	}
	if v := os.Getenv("SP_TLS_KEY_FILE"); v != "" {
		c.Server.TLSKeyFile = v
	}
	if v := os.Getenv("SP_HTTP3"); v != "" {
		c.Server.HTTP3 = parseBool(v, c.Server.HTTP3)
	}
	if v := os.Getenv("SP_DB_PATH"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("SP_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("SP_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv("SP_LOG_FILE"); v != "" {
		c.Logging.FilePath = v
	}
	if v := os.Getenv("SP_STATIC_DIR"); v != "" {
		c.Static.Dir = v
	}
	if v := os.Getenv("SP_STATIC_WATCH"); v != "" {
		c.Static.Watch = parseBool(v, c.Static.Watch)
	}
	if v := os.Getenv("SP_LOAD_DEMOS"); v != "" {
		c.Demos.LoadOnStart = parseBool(v, c.Demos.LoadOnStart)
	}
	if v := os.Getenv("SP_BACKUP_ENABLED"); v != "" {
		c.Backup.Enabled = parseBool(v, c.Backup.Enabled)
	}
	if v := os.Getenv("SP_BACKUP_PATH"); v != "" {
		c.Backup.Path = v
	}
	if v := os.Getenv("SP_BACKUP_INTERVAL_HOURS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Backup.IntervalHours = n
		}
	}
	if v := os.Getenv("SP_BACKUP_RETENTION"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Backup.RetentionCount = n
		}
	}
	if v := os.Getenv("SP_BACKUP_MAX_AGE_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Backup.MaxAgeDays = n
		}
	}
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}
	if (c.Server.TLSCertFile == "") != (c.Server.TLSKeyFile == "") {
		return fmt.Errorf("tls_cert_file and tls_key_file must be set together")
	}
	if c.Server.HTTP3 && !c.Server.TLSEnabled() {
		return fmt.Errorf("http3 requires tls_cert_file and tls_key_file")
	}
	if c.Backup.Enabled && c.Backup.IntervalHours < 1 {
		return fmt.Errorf("invalid backup interval: %d hours", c.Backup.IntervalHours)
	}
	if c.Backup.RetentionCount < 0 || c.Backup.MaxAgeDays < 0 {
		return fmt.Errorf("backup retention and max age must not be negative")
	}
	c.Server.BasePath = strings.TrimRight(c.Server.BasePath, "/")
	return nil
}

// BackupDir resolves where backups are written.
func (c *Config) BackupDir() string {
	if c.Backup.Path != "" {
		return c.Backup.Path
	}
	return filepath.Join(filepath.Dir(c.Database.Path), "backups")
}

func parseBool(v string, fallback bool) bool {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
