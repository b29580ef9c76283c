package exploration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sydlexius/sprout/internal/event"
)

const explorationColumns = `id, title, category, objective, language_code, version,
	is_demo, content, created_at, updated_at`

// Service provides exploration storage and demo loading.
type Service struct {
	db     *sql.DB
	events event.Publisher
}

// NewService creates an exploration service.
func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

// SetEventBus sets the publisher used for demo.loaded events.
func (s *Service) SetEventBus(p event.Publisher) {
	s.events = p
}

// Create inserts a new authored exploration at version 1.
func (s *Service) Create(ctx context.Context, e *Exploration) error {
	if strings.TrimSpace(e.Title) == "" {
		return ErrTitleMissing
	}
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.LanguageCode == "" {
		e.LanguageCode = "en"
	}
	now := time.Now().UTC().Truncate(time.Second)
	e.Version = 1
	e.CreatedAt = now
	e.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO explorations (`+explorationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		e.ID, e.Title, e.Category, e.Objective, e.LanguageCode, e.Version,
		boolToInt(e.IsDemo), e.Content,
		now.Format(time.RFC3339), now.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("creating exploration: %w", err)
	}
	return nil
}

// GetByID retrieves an exploration by id, returning ErrNotFound if absent.
func (s *Service) GetByID(ctx context.Context, id string) (*Exploration, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+explorationColumns+` FROM explorations WHERE id = ?`, id)
	e, err := scanExploration(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting exploration: %w", err)
	}
	return e, nil
}

// Lookup is GetByID without the not-found error: a missing exploration
// returns nil, nil.
func (s *Service) Lookup(ctx context.Context, id string) (*Exploration, error) {
	e, err := s.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return e, err
}

// List returns all explorations ordered by title. Content is omitted.
func (s *Service) List(ctx context.Context) ([]Exploration, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+explorationColumns+` FROM explorations ORDER BY title COLLATE NOCASE, id`)
	if err != nil {
		return nil, fmt.Errorf("listing explorations: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var out []Exploration
	for rows.Next() {
		e, err := scanExploration(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning exploration: %w", err)
		}
		e.Content = ""
		out = append(out, *e)
	}
	return out, rows.Err()
}

// Update writes the editable fields and bumps the version.
func (s *Service) Update(ctx context.Context, e *Exploration) error {
	if strings.TrimSpace(e.Title) == "" {
		return ErrTitleMissing
	}
	now := time.Now().UTC().Truncate(time.Second)
	res, err := s.db.ExecContext(ctx, `
		UPDATE explorations
		SET title = ?, category = ?, objective = ?, language_code = ?, content = ?,
			version = version + 1, updated_at = ?
		WHERE id = ?
	`, e.Title, e.Category, e.Objective, e.LanguageCode, e.Content, now.Format(time.RFC3339), e.ID)
	if err != nil {
		return fmt.Errorf("updating exploration: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	if err := s.db.QueryRowContext(ctx, `SELECT version FROM explorations WHERE id = ?`, e.ID).Scan(&e.Version); err != nil {
		return fmt.Errorf("reading version: %w", err)
	}
	e.UpdatedAt = now
	return nil
}

// Delete removes an exploration.
func (s *Service) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM explorations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting exploration: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanExploration(row scanner) (*Exploration, error) {
	var (
		e                    Exploration
		isDemo               int
		createdAt, updatedAt string
	)
	err := row.Scan(&e.ID, &e.Title, &e.Category, &e.Objective, &e.LanguageCode, &e.Version,
		&isDemo, &e.Content, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	e.IsDemo = isDemo == 1
	e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	e.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &e, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
