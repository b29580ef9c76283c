package backup

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sydlexius/sprout/internal/database"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrating: %v", err)
	}
	_, err = db.Exec(`INSERT INTO settings (key, value, updated_at) VALUES ('site_name', 'Sprout', '2026-01-01T00:00:00Z')`)
	if err != nil {
		t.Fatalf("seeding: %v", err)
	}
	return db
}

func newTestService(t *testing.T, policy Policy) *Service {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(setupTestDB(t), filepath.Join(t.TempDir(), "backups"), policy, logger)
}

// writeFake drops a placeholder backup file stamped at ts.
func writeFake(t *testing.T, dir string, ts time.Time) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o750); err != nil {
		t.Fatal(err)
	}
	name := filePrefix + ts.UTC().Format(timeLayout) + fileSuffix
	if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	return name
}

func TestCreate(t *testing.T) {
	svc := newTestService(t, Policy{})
	svc.now = func() time.Time { return time.Date(2026, 2, 20, 14, 30, 22, 0, time.UTC) }

	info, err := svc.Create(context.Background())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if info.Filename != "sprout-20260220-143022.db" {
		t.Errorf("Filename = %q", info.Filename)
	}
	if info.Size == 0 {
		t.Error("expected non-zero size")
	}

	copyDB, err := sql.Open("sqlite", filepath.Join(svc.Dir(), info.Filename))
	if err != nil {
		t.Fatalf("opening backup: %v", err)
	}
	defer copyDB.Close()

	var name string
	if err := copyDB.QueryRow(`SELECT value FROM settings WHERE key = 'site_name'`).Scan(&name); err != nil {
		t.Fatalf("querying backup: %v", err)
	}
	if name != "Sprout" {
		t.Errorf("site_name in backup = %q", name)
	}
}

func TestList_NewestFirstAndIgnoresStrays(t *testing.T) {
	svc := newTestService(t, Policy{})
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	older := writeFake(t, svc.Dir(), base)
	newer := writeFake(t, svc.Dir(), base.Add(time.Hour))
	if err := os.WriteFile(filepath.Join(svc.Dir(), "notes.txt"), []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	backups, err := svc.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(backups) != 2 {
		t.Fatalf("got %d backups, want 2", len(backups))
	}
	if backups[0].Filename != newer || backups[1].Filename != older {
		t.Errorf("order = %s, %s", backups[0].Filename, backups[1].Filename)
	}
}

func TestList_MissingDir(t *testing.T) {
	svc := newTestService(t, Policy{})
	backups, err := svc.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(backups) != 0 {
		t.Errorf("got %d backups, want 0", len(backups))
	}
}

func TestDelete(t *testing.T) {
	svc := newTestService(t, Policy{})
	name := writeFake(t, svc.Dir(), time.Now())

	if err := svc.Delete(name); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := svc.Delete(name); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete = %v, want ErrNotFound", err)
	}
	if err := svc.Delete("../evil.db"); !errors.Is(err, ErrInvalidFilename) {
		t.Errorf("traversal = %v, want ErrInvalidFilename", err)
	}
}

func TestPrune_Retention(t *testing.T) {
	svc := newTestService(t, Policy{Retention: 2})
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base.Add(24 * time.Hour) }
	for i := range 4 {
		writeFake(t, svc.Dir(), base.Add(time.Duration(i)*time.Minute))
	}

	removed, err := svc.Prune()
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if removed != 2 {
		t.Errorf("removed = %d, want 2", removed)
	}
	backups, _ := svc.List()
	if len(backups) != 2 {
		t.Fatalf("left %d backups, want 2", len(backups))
	}
	if !backups[1].CreatedAt.Equal(base.Add(2 * time.Minute)) {
		t.Errorf("oldest kept = %v", backups[1].CreatedAt)
	}
}

func TestPrune_MaxAge(t *testing.T) {
	svc := newTestService(t, Policy{MaxAgeDays: 30})
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	recent := writeFake(t, svc.Dir(), now.AddDate(0, 0, -1))
	writeFake(t, svc.Dir(), now.AddDate(0, 0, -60))

	if _, err := svc.Prune(); err != nil {
		t.Fatalf("Prune: %v", err)
	}
	backups, _ := svc.List()
	if len(backups) != 1 || backups[0].Filename != recent {
		t.Errorf("backups after prune = %+v", backups)
	}
}

func TestValidFilename(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"valid", "sprout-20260220-143022.db", true},
		{"path traversal", "../sprout-20260220-143022.db", false},
		{"backslash", `..\sprout-20260220-143022.db`, false},
		{"wrong prefix", "backup-20260220-143022.db", false},
		{"wrong extension", "sprout-20260220-143022.sql", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidFilename(tt.input); got != tt.want {
				t.Errorf("ValidFilename(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
