package exploration

import (
	"errors"
	"time"
)

// Errors returned by the service.
var (
	ErrNotFound     = errors.New("exploration not found")
	ErrNotDemo      = errors.New("not a demo exploration id")
	ErrInvalidDemo  = errors.New("invalid demo exploration")
	ErrTitleMissing = errors.New("exploration title is required")
)

// Exploration is a piece of learning content.
type Exploration struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Category     string    `json:"category"`
	Objective    string    `json:"objective"`
	LanguageCode string    `json:"language_code"`
	Version      int       `json:"version"`
	IsDemo       bool      `json:"is_demo"`
	Content      string    `json:"content,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
