package maintenance

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/sydlexius/sprout/internal/database"
)

type fakeCleaner struct {
	calls int
	err   error
}

func (f *fakeCleaner) CleanExpiredSessions(context.Context) error {
	f.calls++
	return f.err
}

func setupTestDB(t *testing.T) (*sql.DB, string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := database.Open(dbPath)
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrating test db: %v", err)
	}
	return db, dbPath
}

func TestStatus(t *testing.T) {
	db, dbPath := setupTestDB(t)
	svc := NewService(db, dbPath, nil, slog.Default())

	st, err := svc.Status(context.Background())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if st.DBFileSize <= 0 {
		t.Error("expected positive DB file size")
	}
	if st.PageSize <= 0 || st.PageCount <= 0 {
		t.Errorf("page size/count = %d/%d, want positive", st.PageSize, st.PageCount)
	}
	if st.Sessions != 0 || st.Explorations != 0 {
		t.Errorf("sessions/explorations = %d/%d, want 0/0", st.Sessions, st.Explorations)
	}
	if st.LastRunAt != "" {
		t.Errorf("LastRunAt = %q, want empty before first run", st.LastRunAt)
	}
}

func TestRun_RecordsTimestampAndCleansSessions(t *testing.T) {
	db, dbPath := setupTestDB(t)
	cleaner := &fakeCleaner{}
	svc := NewService(db, dbPath, cleaner, slog.Default())
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	if err := svc.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if cleaner.calls != 1 {
		t.Errorf("cleanup calls = %d, want 1", cleaner.calls)
	}

	st, err := svc.Status(context.Background())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if st.LastRunAt != "2026-03-01T12:00:00Z" {
		t.Errorf("LastRunAt = %q", st.LastRunAt)
	}
}

func TestRun_CleanupFailureDoesNotAbort(t *testing.T) {
	db, dbPath := setupTestDB(t)
	svc := NewService(db, dbPath, &fakeCleaner{err: errors.New("boom")}, slog.Default())

	if err := svc.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	st, _ := svc.Status(context.Background())
	if st.LastRunAt == "" {
		t.Error("expected last run to be recorded")
	}
}

func TestVacuum(t *testing.T) {
	db, dbPath := setupTestDB(t)
	svc := NewService(db, dbPath, nil, slog.Default())

	if err := svc.Vacuum(context.Background()); err != nil {
		t.Fatalf("Vacuum: %v", err)
	}
}

func TestStartScheduler_StopsOnCancel(t *testing.T) {
	db, dbPath := setupTestDB(t)
	svc := NewService(db, dbPath, nil, slog.Default())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.StartScheduler(ctx, time.Hour)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}
