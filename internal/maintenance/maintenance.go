// Package maintenance runs periodic housekeeping on the SQLite database:
// expired session cleanup, query planner statistics and WAL truncation.
package maintenance

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"time"
)

const lastRunKey = "maintenance.last_run_at"

// SessionCleaner removes sessions past their expiry.
type SessionCleaner interface {
	CleanExpiredSessions(ctx context.Context) error
}

// Status describes the database and the last maintenance pass.
type Status struct {
	DBFileSize   int64  `json:"db_file_size"`
	WALFileSize  int64  `json:"wal_file_size"`
	PageCount    int64  `json:"page_count"`
	PageSize     int64  `json:"page_size"`
	Sessions     int64  `json:"sessions"`
	Explorations int64  `json:"explorations"`
	LastRunAt    string `json:"last_run_at,omitempty"`
}

// Service provides database maintenance operations.
type Service struct {
	db       *sql.DB
	dbPath   string
	sessions SessionCleaner
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates a maintenance service. sessions may be nil.
func NewService(db *sql.DB, dbPath string, sessions SessionCleaner, logger *slog.Logger) *Service {
	return &Service{
		db:       db,
		dbPath:   dbPath,
		sessions: sessions,
		logger:   logger.With(slog.String("component", "maintenance")),
		now:      time.Now,
	}
}

// Status reports file sizes, row counts and the last run time.
func (s *Service) Status(ctx context.Context) (*Status, error) {
	st := &Status{}

	if info, err := os.Stat(s.dbPath); err == nil {
		st.DBFileSize = info.Size()
	}
	if info, err := os.Stat(s.dbPath + "-wal"); err == nil {
		st.WALFileSize = info.Size()
	}

	counts := []struct {
		query string
		dst   *int64
	}{
		{"PRAGMA page_count", &st.PageCount},
		{"PRAGMA page_size", &st.PageSize},
		{"SELECT COUNT(*) FROM sessions", &st.Sessions},
		{"SELECT COUNT(*) FROM explorations", &st.Explorations},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query).Scan(c.dst); err != nil {
			return nil, fmt.Errorf("%s: %w", c.query, err)
		}
	}

	var last string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, lastRunKey).Scan(&last)
	switch {
	case err == nil:
		st.LastRunAt = last
	case err != sql.ErrNoRows:
		return nil, fmt.Errorf("reading last run: %w", err)
	}

	return st, nil
}

// Run performs one maintenance pass. A failed session cleanup is logged and
// does not stop the database work.
func (s *Service) Run(ctx context.Context) error {
	if s.sessions != nil {
		if err := s.sessions.CleanExpiredSessions(ctx); err != nil {
			s.logger.Error("session cleanup failed", "error", err)
		}
	}

	if _, err := s.db.ExecContext(ctx, "PRAGMA optimize"); err != nil {
		return fmt.Errorf("PRAGMA optimize: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return fmt.Errorf("WAL checkpoint: %w", err)
	}

	now := s.now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		lastRunKey, now, now)
	if err != nil {
		return fmt.Errorf("recording last run: %w", err)
	}

	s.logger.Debug("maintenance complete")
	return nil
}

// Vacuum rebuilds the database file.
func (s *Service) Vacuum(ctx context.Context) error {
	s.logger.Info("running VACUUM")
	if _, err := s.db.ExecContext(ctx, "VACUUM"); err != nil {
		return fmt.Errorf("VACUUM: %w", err)
	}
	return nil
}

// StartScheduler calls Run every interval until ctx is cancelled.
func (s *Service) StartScheduler(ctx context.Context, interval time.Duration) {
	s.logger.Info("maintenance scheduler started", slog.String("interval", interval.String()))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("maintenance scheduler stopped")
			return
		case <-ticker.C:
			if err := s.Run(ctx); err != nil {
				s.logger.Error("scheduled maintenance failed", slog.Any("error", err))
			}
		}
	}
}
