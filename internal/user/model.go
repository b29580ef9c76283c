package user

import (
	"errors"
	"time"
)

// Role constants.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// MaxUsernameLength is the longest username accepted.
const MaxUsernameLength = 30

// Errors returned by the service.
var (
	ErrNotFound        = errors.New("user not found")
	ErrInvalidUsername = errors.New("username must be 1-30 alphanumeric characters")
	ErrUsernameTaken   = errors.New("username already taken")
	ErrInvalidRole     = errors.New("invalid role")
	ErrWeakPassword    = errors.New("password must be at least 8 characters")
)

// User is a registered account.
type User struct {
	ID                 string     `json:"id"`
	Username           string     `json:"username"`
	Role               string     `json:"role"`
	EditorRegisteredAt *time.Time `json:"editor_registered_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// IsAdmin reports whether the user has the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsEditor reports whether the user has registered as an editor.
func (u *User) IsEditor() bool {
	return u.EditorRegisteredAt != nil
}

// ValidUsername reports whether name is 1-30 ASCII letters or digits.
func ValidUsername(name string) bool {
	if name == "" || len(name) > MaxUsernameLength {
		return false
	}
	for _, c := range name {
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9') {
			return false
		}
	}
	return true
}
