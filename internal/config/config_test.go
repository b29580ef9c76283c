package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Server.BasePath != "" {
		t.Errorf("BasePath = %q, want empty after trimming", cfg.Server.BasePath)
	}
	if cfg.Database.Path != "/data/sprout.db" {
		t.Errorf("Database.Path = %q", cfg.Database.Path)
	}
	if cfg.Static.Dir != "web/static" {
		t.Errorf("Static.Dir = %q", cfg.Static.Dir)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want info", cfg.Logging.Level)
	}
}

func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
server:
  port: 9090
  base_path: /learn/
database:
  path: /tmp/sprout.db
logging:
  level: debug
  format: text
demos:
  load_on_start: true
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Server.BasePath != "/learn" {
		t.Errorf("BasePath = %q, want /learn", cfg.Server.BasePath)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Format = %q, want text", cfg.Logging.Format)
	}
	if !cfg.Demos.LoadOnStart {
		t.Error("expected LoadOnStart to be true")
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 9090\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SP_PORT", "7070")
	t.Setenv("SP_DB_PATH", "/srv/sprout.db")
	t.Setenv("SP_STATIC_WATCH", "true")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("Port = %d, want 7070", cfg.Server.Port)
	}
	if cfg.Database.Path != "/srv/sprout.db" {
		t.Errorf("Database.Path = %q", cfg.Database.Path)
	}
	if !cfg.Static.Watch {
		t.Error("expected Static.Watch from env")
	}
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad port", map[string]string{"SP_PORT": "70000"}},
		{"cert without key", map[string]string{"SP_TLS_CERT_FILE": "/tls/cert.pem"}},
		{"http3 without tls", map[string]string{"SP_HTTP3": "true"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(""); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestServerConfig_TLSEnabled(t *testing.T) {
	s := ServerConfig{TLSCertFile: "c", TLSKeyFile: "k"}
	if !s.TLSEnabled() {
		t.Error("expected TLS enabled")
	}
	if (ServerConfig{}).TLSEnabled() {
		t.Error("expected TLS disabled")
	}
}

func TestBackupDir(t *testing.T) {
	cfg := Default()
	cfg.Database.Path = "/srv/sprout/sprout.db"
	if got := cfg.BackupDir(); got != "/srv/sprout/backups" {
		t.Errorf("BackupDir = %q, want /srv/sprout/backups", got)
	}
	cfg.Backup.Path = "/mnt/backups"
	if got := cfg.BackupDir(); got != "/mnt/backups" {
		t.Errorf("BackupDir = %q, want /mnt/backups", got)
	}
}

func TestLoad_BackupEnv(t *testing.T) {
	t.Setenv("SP_BACKUP_ENABLED", "true")
	t.Setenv("SP_BACKUP_INTERVAL_HOURS", "6")
	t.Setenv("SP_BACKUP_RETENTION", "3")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.Backup.Enabled || cfg.Backup.IntervalHours != 6 || cfg.Backup.RetentionCount != 3 {
		t.Errorf("Backup = %+v", cfg.Backup)
	}

	t.Setenv("SP_BACKUP_INTERVAL_HOURS", "0")
	if _, err := Load(""); err == nil {
		t.Error("expected error for zero backup interval")
	}
}
