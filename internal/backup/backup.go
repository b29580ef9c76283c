// Package backup writes point-in-time copies of the SQLite database with
// VACUUM INTO and prunes old copies by count and age.
package backup

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
)

const (
	filePrefix = "sprout-"
	fileSuffix = ".db"
	timeLayout = "20060102-150405"
)

// filenamePattern matches sprout-YYYYMMDD-HHMMSS.db.
var filenamePattern = regexp.MustCompile(`^sprout-\d{8}-\d{6}\.db$`)

// Errors returned by the service.
var (
	ErrInvalidFilename = errors.New("invalid backup filename")
	ErrNotFound        = errors.New("backup not found")
)

// Info describes a backup file.
type Info struct {
	Filename  string    `json:"filename"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// Policy bounds how many backups are kept. Zero disables a limit.
type Policy struct {
	Retention  int
	MaxAgeDays int
}

// Service manages database backups.
type Service struct {
	db     *sql.DB
	dir    string
	policy Policy
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a backup service writing into dir.
func NewService(db *sql.DB, dir string, policy Policy, logger *slog.Logger) *Service {
	return &Service{
		db:     db,
		dir:    dir,
		policy: policy,
		logger: logger.With(slog.String("component", "backup")),
		now:    time.Now,
	}
}

// Dir returns the backup directory.
func (s *Service) Dir() string {
	return s.dir
}

// Create writes a new backup.
func (s *Service) Create(ctx context.Context) (*Info, error) {
	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating backup directory: %w", err)
	}

	now := s.now().UTC().Truncate(time.Second)
	filename := filePrefix + now.Format(timeLayout) + fileSuffix
	dest := filepath.Join(s.dir, filename)

	if _, err := s.db.ExecContext(ctx, "VACUUM INTO ?", dest); err != nil {
		return nil, fmt.Errorf("VACUUM INTO: %w", err)
	}
	fi, err := os.Stat(dest)
	if err != nil {
		return nil, fmt.Errorf("stat backup file: %w", err)
	}

	s.logger.Info("backup complete", slog.String("filename", filename), slog.Int64("size", fi.Size()))
	return &Info{Filename: filename, Size: fi.Size(), CreatedAt: now}, nil
}

// List returns backups newest first. A missing directory means no backups.
func (s *Service) List() ([]Info, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading backup directory: %w", err)
	}

	var out []Info
	for _, entry := range entries {
		if entry.IsDir() || !filenamePattern.MatchString(entry.Name()) {
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			continue
		}
		stamp := strings.TrimSuffix(strings.TrimPrefix(entry.Name(), filePrefix), fileSuffix)
		created, err := time.Parse(timeLayout, stamp)
		if err != nil {
			created = fi.ModTime()
		}
		out = append(out, Info{Filename: entry.Name(), Size: fi.Size(), CreatedAt: created})
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Delete removes one backup by filename.
func (s *Service) Delete(filename string) error {
	if !ValidFilename(filename) {
		return ErrInvalidFilename
	}
	err := os.Remove(filepath.Join(s.dir, filename)) //nolint:gosec // G304: filename validated above
	if errors.Is(err, os.ErrNotExist) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("removing backup: %w", err)
	}
	s.logger.Info("backup deleted", slog.String("filename", filename))
	return nil
}

// Prune deletes backups beyond the retention count and those older than
// the max age. It returns the number removed.
func (s *Service) Prune() (int, error) {
	backups, err := s.List()
	if err != nil {
		return 0, err
	}

	var cutoff time.Time
	if s.policy.MaxAgeDays > 0 {
		cutoff = s.now().UTC().AddDate(0, 0, -s.policy.MaxAgeDays)
	}

	removed := 0
	for i, b := range backups {
		tooMany := s.policy.Retention > 0 && i >= s.policy.Retention
		tooOld := !cutoff.IsZero() && b.CreatedAt.Before(cutoff)
		if !tooMany && !tooOld {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, b.Filename)); err != nil {
			s.logger.Warn("failed to prune backup", slog.String("filename", b.Filename), slog.Any("error", err))
			continue
		}
		removed++
	}
	if removed > 0 {
		s.logger.Info("pruned backups", slog.Int("removed", removed))
	}
	return removed, nil
}

// StartScheduler creates and prunes backups every interval until ctx is
// cancelled.
func (s *Service) StartScheduler(ctx context.Context, interval time.Duration) {
	s.logger.Info("backup scheduler started",
		slog.String("interval", interval.String()),
		slog.Int("retention", s.policy.Retention))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("backup scheduler stopped")
			return
		case <-ticker.C:
			if _, err := s.Create(ctx); err != nil {
				s.logger.Error("scheduled backup failed", slog.Any("error", err))
				continue
			}
			if _, err := s.Prune(); err != nil {
				s.logger.Error("backup prune failed", slog.Any("error", err))
			}
		}
	}
}

// ValidFilename reports whether filename names a backup and stays inside
// the backup directory.
func ValidFilename(filename string) bool {
	if strings.ContainsAny(filename, `/\`) || strings.Contains(filename, "..") {
		return false
	}
	return filenamePattern.MatchString(filename)
}
