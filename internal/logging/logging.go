package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Config describes the desired logging configuration.
type Config struct {
	Level      string `json:"level"`
	Format     string `json:"format"`
	FilePath   string `json:"file_path,omitempty"`
	MaxSizeMB  int    `json:"max_size_mb,omitempty"`
	MaxBackups int    `json:"max_backups,omitempty"`
	MaxAgeDays int    `json:"max_age_days,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Level:      "info",
		Format:     "json",
		MaxSizeMB:  100,
		MaxBackups: 3,
		MaxAgeDays: 30,
	}
}

// WithOverrides returns a copy of c with level and format replaced by the
// given values when they are valid. Empty or unrecognized values are ignored.
func (c Config) WithOverrides(level, format string) Config {
	if ValidLevel(level) {
		c.Level = level
	}
	if ValidFormat(format) {
		c.Format = format
	}
	return c
}

// String returns a human-readable summary of the config.
func (c Config) String() string {
	s := fmt.Sprintf("level=%s format=%s", c.Level, c.Format)
	if c.FilePath != "" {
		s += fmt.Sprintf(" file=%s max_size=%dMB max_backups=%d max_age=%dd",
			c.FilePath, c.MaxSizeMB, c.MaxBackups, c.MaxAgeDays)
	}
	return s
}

// swapHandler is a slog.Handler whose delegate can be replaced while
// loggers derived from it are in use.
type swapHandler struct {
	inner atomic.Pointer[slog.Handler]
}

func newSwapHandler(h slog.Handler) *swapHandler {
	s := &swapHandler{}
	s.inner.Store(&h)
	return s
}

func (s *swapHandler) swap(h slog.Handler) {
	s.inner.Store(&h)
}

func (s *swapHandler) load() slog.Handler {
	return *s.inner.Load()
}

func (s *swapHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return s.load().Enabled(ctx, level)
}

func (s *swapHandler) Handle(ctx context.Context, r slog.Record) error {
	return s.load().Handle(ctx, r)
}

func (s *swapHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return newSwapHandler(s.load().WithAttrs(attrs))
}

func (s *swapHandler) WithGroup(name string) slog.Handler {
	return newSwapHandler(s.load().WithGroup(name))
}

// Manager owns the logger lifecycle and supports runtime reconfiguration.
type Manager struct {
	mu      sync.Mutex
	level   *slog.LevelVar
	handler *swapHandler
	config  Config
	file    io.Closer
}

// NewManager creates a Manager and returns it along with a ready-to-use logger.
func NewManager(cfg Config) (*Manager, *slog.Logger) {
	level := &slog.LevelVar{}
	level.Set(parseLevel(cfg.Level))

	out, file := openOutput(cfg)
	m := &Manager{
		level:   level,
		handler: newSwapHandler(newHandler(out, level, cfg.Format)),
		config:  cfg,
		file:    file,
	}
	return m, slog.New(m.handler)
}

// Reconfigure applies a new configuration. Level changes take effect
// immediately through the shared LevelVar; a format or file change rebuilds
// the underlying handler.
func (m *Manager) Reconfigure(cfg Config) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.level.Set(parseLevel(cfg.Level))

	if cfg.Format != m.config.Format || cfg.FilePath != m.config.FilePath ||
		cfg.MaxSizeMB != m.config.MaxSizeMB || cfg.MaxBackups != m.config.MaxBackups ||
		cfg.MaxAgeDays != m.config.MaxAgeDays {
		if m.file != nil {
			m.file.Close() //nolint:errcheck
			m.file = nil
		}
		out, file := openOutput(cfg)
		m.handler.swap(newHandler(out, m.level, cfg.Format))
		m.file = file
	}

	m.config = cfg
}

// Config returns the current configuration snapshot.
func (m *Manager) Config() Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.config
}

// Close releases the log file, if any.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.file == nil {
		return nil
	}
	err := m.file.Close()
	m.file = nil
	return err
}

// ValidLevel returns true if s is a recognized log level.
func ValidLevel(s string) bool {
	switch s {
	case "debug", "info", "warn", "error":
		return true
	}
	return false
}

// ValidFormat returns true if s is a recognized log format.
func ValidFormat(s string) bool {
	return s == "text" || s == "json"
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// openOutput returns stdout, or stdout teed into a rotating file when a
// file path is configured. The closer is the rotating file.
func openOutput(cfg Config) (io.Writer, io.Closer) {
	if cfg.FilePath == "" {
		return os.Stdout, nil
	}
	def := DefaultConfig()
	lj := &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    positiveOr(cfg.MaxSizeMB, def.MaxSizeMB),
		MaxBackups: positiveOr(cfg.MaxBackups, def.MaxBackups),
		MaxAge:     positiveOr(cfg.MaxAgeDays, def.MaxAgeDays),
	}
	return io.MultiWriter(os.Stdout, lj), lj
}

func newHandler(w io.Writer, leveler slog.Leveler, format string) slog.Handler {
	opts := &slog.HandlerOptions{Level: leveler}
	if format == "text" {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}

func positiveOr(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}
