package user

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"github.com/sydlexius/sprout/internal/database"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("running migrations: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestCreateAndGet(t *testing.T) {
	svc := NewService(setupTestDB(t))
	ctx := context.Background()

	u, err := svc.Create(ctx, "alice", "password123", RoleMember)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if u.ID == "" {
		t.Fatal("expected ID to be set")
	}

	got, err := svc.GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Username != "alice" || got.Role != RoleMember {
		t.Errorf("got %+v", got)
	}
	if got.IsEditor() {
		t.Error("new user should not be an editor")
	}

	byName, err := svc.GetByUsername(ctx, "ALICE")
	if err != nil {
		t.Fatalf("GetByUsername: %v", err)
	}
	if byName.ID != u.ID {
		t.Errorf("case-insensitive lookup returned %s, want %s", byName.ID, u.ID)
	}
}

func TestCreate_Validation(t *testing.T) {
	svc := NewService(setupTestDB(t))
	ctx := context.Background()

	tests := []struct {
		name     string
		username string
		password string
		role     string
		want     error
	}{
		{"empty username", "", "password123", RoleMember, ErrInvalidUsername},
		{"punctuation", "bob!", "password123", RoleMember, ErrInvalidUsername},
		{"too long", strings.Repeat("a", 31), "password123", RoleMember, ErrInvalidUsername},
		{"bad role", "bob", "password123", "owner", ErrInvalidRole},
		{"short password", "bob", "short", RoleMember, ErrWeakPassword},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Create(ctx, tt.username, tt.password, tt.role); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestCreate_DuplicateUsername(t *testing.T) {
	svc := NewService(setupTestDB(t))
	ctx := context.Background()

	if _, err := svc.Create(ctx, "alice", "password123", RoleMember); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Create(ctx, "Alice", "password123", RoleMember); !errors.Is(err, ErrUsernameTaken) {
		t.Errorf("err = %v, want ErrUsernameTaken", err)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	svc := NewService(setupTestDB(t))
	if _, err := svc.GetByID(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestEditorRegistration(t *testing.T) {
	svc := NewService(setupTestDB(t))
	ctx := context.Background()

	u, err := svc.Create(ctx, "carol", "password123", RoleMember)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	ok, err := svc.HasRegisteredAsEditor(ctx, u.ID)
	if err != nil {
		t.Fatalf("HasRegisteredAsEditor: %v", err)
	}
	if ok {
		t.Error("expected not registered yet")
	}

	if err := svc.RegisterAsEditor(ctx, u.ID); err != nil {
		t.Fatalf("RegisterAsEditor: %v", err)
	}
	first, err := svc.GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !first.IsEditor() {
		t.Fatal("expected editor after registration")
	}

	if err := svc.RegisterAsEditor(ctx, u.ID); err != nil {
		t.Fatalf("second RegisterAsEditor: %v", err)
	}
	second, err := svc.GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !second.EditorRegisteredAt.Equal(*first.EditorRegisteredAt) {
		t.Error("re-registering should keep the original timestamp")
	}

	ok, err = svc.HasRegisteredAsEditor(ctx, u.ID)
	if err != nil || !ok {
		t.Errorf("HasRegisteredAsEditor = %v, %v; want true, nil", ok, err)
	}
}

func TestEditorRegistration_UnknownUser(t *testing.T) {
	svc := NewService(setupTestDB(t))
	ctx := context.Background()

	ok, err := svc.HasRegisteredAsEditor(ctx, "ghost")
	if err != nil || ok {
		t.Errorf("HasRegisteredAsEditor = %v, %v; want false, nil", ok, err)
	}
	if err := svc.RegisterAsEditor(ctx, "ghost"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestListDeleteAndPassword(t *testing.T) {
	svc := NewService(setupTestDB(t))
	ctx := context.Background()

	a, _ := svc.Create(ctx, "zed", "password123", RoleMember)
	if _, err := svc.Create(ctx, "amy", "password123", RoleAdmin); err != nil {
		t.Fatalf("Create: %v", err)
	}

	users, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(users) != 2 || users[0].Username != "amy" {
		t.Fatalf("List = %+v", users)
	}
	if !users[0].IsAdmin() {
		t.Error("amy should be admin")
	}

	if err := svc.SetPassword(ctx, a.ID, "newpassword"); err != nil {
		t.Fatalf("SetPassword: %v", err)
	}
	if err := svc.SetPassword(ctx, a.ID, "short"); !errors.Is(err, ErrWeakPassword) {
		t.Errorf("err = %v, want ErrWeakPassword", err)
	}

	if err := svc.Delete(ctx, a.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := svc.Delete(ctx, a.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete err = %v, want ErrNotFound", err)
	}
}

func TestPasswordHashing(t *testing.T) {
	long := strings.Repeat("x", 100)
	hash, err := HashPassword(long)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !CheckPassword(hash, long) {
		t.Error("expected password to match")
	}
	if CheckPassword(hash, long[:99]+"y") {
		t.Error("passwords differing after byte 72 must not match")
	}
}

func TestDelete_RemovesSessions(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	u, err := svc.Create(ctx, "bob", "password123", RoleMember)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO sessions (id, user_id, expires_at) VALUES ('tok', ?, '2099-01-01T00:00:00Z')`, u.ID); err != nil {
		t.Fatalf("inserting session: %v", err)
	}

	if err := svc.Delete(ctx, u.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM sessions`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("sessions left = %d, want 0", n)
	}
	if err := svc.Delete(ctx, u.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete = %v, want ErrNotFound", err)
	}
}
