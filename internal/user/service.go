package user

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const userColumns = `id, username, role, editor_registered_at, created_at, updated_at`

// Service provides account operations.
type Service struct {
	db *sql.DB
}

// NewService creates a user service.
func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

// Create inserts a new account with a bcrypt password hash.
func (s *Service) Create(ctx context.Context, username, password, role string) (*User, error) {
	if !ValidUsername(username) {
		return nil, ErrInvalidUsername
	}
	if role != RoleAdmin && role != RoleMember {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
	if len(password) < 8 {
		return nil, ErrWeakPassword
	}

	existing, err := s.GetByUsername(ctx, username)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, ErrUsernameTaken
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC().Truncate(time.Second)
	u := &User{
		ID:        uuid.New().String(),
		Username:  username,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO users (id, username, password_hash, role, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, u.ID, u.Username, hash, u.Role, now.Format(time.RFC3339), now.Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}
	return u, nil
}

// GetByID retrieves an account by primary key.
func (s *Service) GetByID(ctx context.Context, id string) (*User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting user by id: %w", err)
	}
	return u, nil
}

// GetByUsername retrieves an account by username, case-insensitively.
func (s *Service) GetByUsername(ctx context.Context, username string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ? COLLATE NOCASE`, username)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting user by username: %w", err)
	}
	return u, nil
}

// List returns all accounts ordered by username.
func (s *Service) List(ctx context.Context) ([]User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY username COLLATE NOCASE`)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// Delete removes an account together with its sessions.
func (s *Service) Delete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning delete: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = ?`, id); err != nil {
		return fmt.Errorf("deleting sessions: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}

// SetPassword replaces an account's password.
func (s *Service) SetPassword(ctx context.Context, id, password string) error {
	if len(password) < 8 {
		return ErrWeakPassword
	}
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		hash, time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("updating password: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// RegisterAsEditor marks the account as an editor. Registering twice keeps
// the original timestamp.
func (s *Service) RegisterAsEditor(ctx context.Context, id string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET editor_registered_at = COALESCE(editor_registered_at, ?), updated_at = ?
		WHERE id = ?
	`, now, now, id)
	if err != nil {
		return fmt.Errorf("registering editor: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// HasRegisteredAsEditor reports whether the account has registered as an
// editor. Unknown ids are simply not editors.
func (s *Service) HasRegisteredAsEditor(ctx context.Context, id string) (bool, error) {
	var registered sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT editor_registered_at FROM users WHERE id = ?`, id).Scan(&registered)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking editor registration: %w", err)
	}
	return registered.Valid && registered.String != "", nil
}

// HashPassword hashes with bcrypt over a hex SHA-256 prehash so passwords
// longer than bcrypt's 72-byte limit still count in full.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(prehash(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches a hash from HashPassword.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), prehash(password)) == nil
}

func prehash(password string) []byte {
	h := sha256.Sum256([]byte(password))
	return []byte(hex.EncodeToString(h[:]))
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (*User, error) {
	var (
		u                    User
		editorAt             sql.NullString
		createdAt, updatedAt string
	)
	if err := row.Scan(&u.ID, &u.Username, &u.Role, &editorAt, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	u.CreatedAt = parseTime(createdAt)
	u.UpdatedAt = parseTime(updatedAt)
	if editorAt.Valid && strings.TrimSpace(editorAt.String) != "" {
		t := parseTime(editorAt.String)
		u.EditorRegisteredAt = &t
	}
	return &u, nil
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// IsAdmin reports whether the account has the admin role. Unknown ids are
// not admins.
func (s *Service) IsAdmin(ctx context.Context, id string) (bool, error) {
	var role string
	err := s.db.QueryRowContext(ctx, `SELECT role FROM users WHERE id = ?`, id).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking role: %w", err)
	}
	return role == RoleAdmin, nil
}
