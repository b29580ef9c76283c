package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sydlexius/sprout/internal/database"
	"github.com/sydlexius/sprout/internal/user"
)

func newTestService(t *testing.T) (*Service, *user.Service) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("running migrations: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	users := user.NewService(db)
	return NewService(db, users), users
}

func TestSetup_OnlyOnce(t *testing.T) {
	svc, users := newTestService(t)
	ctx := context.Background()

	created, err := svc.Setup(ctx, "admin", "password123")
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if !created {
		t.Fatal("expected admin to be created")
	}

	u, err := users.GetByUsername(ctx, "admin")
	if err != nil {
		t.Fatalf("GetByUsername: %v", err)
	}
	if !u.IsAdmin() {
		t.Error("setup account should be admin")
	}

	created, err = svc.Setup(ctx, "other", "password123")
	if err != nil {
		t.Fatalf("second Setup: %v", err)
	}
	if created {
		t.Error("second setup should not create an account")
	}
}

func TestLoginAndValidate(t *testing.T) {
	svc, users := newTestService(t)
	ctx := context.Background()

	u, err := users.Create(ctx, "alice", "password123", user.RoleMember)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := svc.Login(ctx, "alice", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password: err = %v", err)
	}
	if _, err := svc.Login(ctx, "nobody", "password123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown user: err = %v", err)
	}

	token, err := svc.Login(ctx, "alice", "password123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	userID, err := svc.ValidateSession(ctx, token)
	if err != nil {
		t.Fatalf("ValidateSession: %v", err)
	}
	if userID != u.ID {
		t.Errorf("userID = %s, want %s", userID, u.ID)
	}

	if err := svc.Logout(ctx, token); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := svc.ValidateSession(ctx, token); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("after logout: err = %v, want ErrInvalidSession", err)
	}
}

func TestValidateSession_Expired(t *testing.T) {
	svc, users := newTestService(t)
	ctx := context.Background()

	if _, err := users.Create(ctx, "alice", "password123", user.RoleMember); err != nil {
		t.Fatalf("Create: %v", err)
	}
	token, err := svc.Login(ctx, "alice", "password123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	svc.now = func() time.Time { return time.Now().Add(25 * time.Hour) }

	if _, err := svc.ValidateSession(ctx, token); !errors.Is(err, ErrSessionExpired) {
		t.Errorf("err = %v, want ErrSessionExpired", err)
	}
	// Expired sessions are removed on validation.
	if _, err := svc.ValidateSession(ctx, token); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("err = %v, want ErrInvalidSession", err)
	}
}

func TestCleanExpiredSessions(t *testing.T) {
	svc, users := newTestService(t)
	ctx := context.Background()

	if _, err := users.Create(ctx, "alice", "password123", user.RoleMember); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Login(ctx, "alice", "password123"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	svc.now = func() time.Time { return time.Now().Add(48 * time.Hour) }
	if err := svc.CleanExpiredSessions(ctx); err != nil {
		t.Fatalf("CleanExpiredSessions: %v", err)
	}

	var count int
	if err := svc.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions`).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("sessions left = %d, want 0", count)
	}
}
