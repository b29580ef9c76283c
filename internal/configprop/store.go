package configprop

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sydlexius/sprout/internal/event"
)

// Store reads and writes property values in the settings table.
type Store struct {
	db       *sql.DB
	registry *Registry
	events   event.Publisher
}

// NewStore creates a store over the given registry.
func NewStore(db *sql.DB, registry *Registry) *Store {
	return &Store{db: db, registry: registry}
}

// SetEventBus enables config.changed events on Set and Reset.
func (s *Store) SetEventBus(p event.Publisher) {
	s.events = p
}

// Registry returns the registry the store validates against.
func (s *Store) Registry() *Registry {
	return s.registry
}

// Value is a property together with its current value.
type Value struct {
	Property
	Value      any  `json:"value"`
	Overridden bool `json:"overridden"`
}

// String returns the current value of a UnicodeString property.
func (s *Store) String(ctx context.Context, p Property) (string, error) {
	if err := s.check(p, TypeUnicodeString); err != nil {
		return "", err
	}
	raw, ok, err := s.raw(ctx, p.Name)
	if err != nil {
		return "", err
	}
	if !ok {
		return p.Default.(string), nil
	}
	return raw, nil
}

// List returns the current value of a List property.
func (s *Store) List(ctx context.Context, p Property) ([]string, error) {
	if err := s.check(p, TypeList); err != nil {
		return nil, err
	}
	raw, ok, err := s.raw(ctx, p.Name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return append([]string(nil), p.Default.([]string)...), nil
	}
	var items []string
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", p.Name, err)
	}
	return items, nil
}

// Set stores an admin override. List values are given as a JSON array.
func (s *Store) Set(ctx context.Context, name, raw string) error {
	p, ok := s.registry.Lookup(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownProperty, name)
	}
	stored, err := p.encode(raw)
	if err != nil {
		return err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, name, stored, now)
	if err != nil {
		return fmt.Errorf("storing %s: %w", name, err)
	}

	s.publish(name, "set")
	return nil
}

// Reset removes an override so the default applies again.
func (s *Store) Reset(ctx context.Context, name string) error {
	if _, ok := s.registry.Lookup(name); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownProperty, name)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM settings WHERE key = ?`, name); err != nil {
		return fmt.Errorf("resetting %s: %w", name, err)
	}
	s.publish(name, "reset")
	return nil
}

// Snapshot returns every registered property with its current value.
func (s *Store) Snapshot(ctx context.Context) ([]Value, error) {
	props := s.registry.All()
	out := make([]Value, 0, len(props))
	for _, p := range props {
		_, overridden, err := s.raw(ctx, p.Name)
		if err != nil {
			return nil, err
		}
		v := Value{Property: p, Overridden: overridden}
		switch p.Type {
		case TypeList:
			v.Value, err = s.List(ctx, p)
		default:
			v.Value, err = s.String(ctx, p)
		}
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (s *Store) check(p Property, want Type) error {
	registered, ok := s.registry.Lookup(p.Name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownProperty, p.Name)
	}
	if registered.Type != want {
		return fmt.Errorf("%w: %s is %s, not %s", ErrInvalidValue, p.Name, registered.Type, want)
	}
	return nil
}

func (s *Store) raw(ctx context.Context, name string) (string, bool, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, name).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading %s: %w", name, err)
	}
	return v, true, nil
}

func (s *Store) publish(name, action string) {
	if s.events == nil {
		return
	}
	s.events.Publish(event.Event{
		Type: event.ConfigChanged,
		Data: map[string]any{"name": name, "action": action},
	})
}
