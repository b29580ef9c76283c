package exploration

import (
	"context"
	"embed"
	"fmt"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sydlexius/sprout/internal/event"
)

//go:embed demos/*.yaml
var demoFS embed.FS

// endState is the implicit terminal state a transition may point to.
const endState = "END"

// demoFiles maps each fixed demo id to its embedded file.
var demoFiles = map[string]string{
	"0": "demos/welcome.yaml",
	"1": "demos/multiples.yaml",
	"2": "demos/binary_search.yaml",
}

type demoFile struct {
	Title         string               `yaml:"title"`
	Category      string               `yaml:"category"`
	Objective     string               `yaml:"objective"`
	LanguageCode  string               `yaml:"language_code"`
	InitStateName string               `yaml:"init_state_name"`
	States        map[string]demoState `yaml:"states"`
}

type demoState struct {
	Content string   `yaml:"content"`
	Next    []string `yaml:"next,omitempty"`
}

// DemoIDs returns the ids of all bundled demos in ascending order.
func DemoIDs() []string {
	ids := make([]string, 0, len(demoFiles))
	for id := range demoFiles {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// IsDemoID reports whether id names a bundled demo.
func IsDemoID(id string) bool {
	_, ok := demoFiles[id]
	return ok
}

// DeleteDemo removes the stored copy of a demo. A demo that was never
// loaded is not an error.
func (s *Service) DeleteDemo(ctx context.Context, id string) error {
	if !IsDemoID(id) {
		return fmt.Errorf("%w: %q", ErrNotDemo, id)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM explorations WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting demo %s: %w", id, err)
	}
	return nil
}

// LoadDemo parses the bundled demo and stores it at version 1, replacing
// any existing row with the same id.
func (s *Service) LoadDemo(ctx context.Context, id string) error {
	e, err := parseDemo(id)
	if err != nil {
		return err
	}
	now := time.Now().UTC().Truncate(time.Second).Format(time.RFC3339)
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO explorations (`+explorationColumns+`)
		VALUES (?, ?, ?, ?, ?, 1, 1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			category = excluded.category,
			objective = excluded.objective,
			language_code = excluded.language_code,
			version = 1,
			is_demo = 1,
			content = excluded.content,
			updated_at = excluded.updated_at
	`, e.ID, e.Title, e.Category, e.Objective, e.LanguageCode, e.Content, now, now)
	if err != nil {
		return fmt.Errorf("loading demo %s: %w", id, err)
	}

	if s.events != nil {
		s.events.Publish(event.Event{
			Type: event.DemoLoaded,
			Data: map[string]any{"id": id, "title": e.Title},
		})
	}
	return nil
}

// LoadMissingDemos loads every bundled demo that is not stored yet and
// returns the ids it loaded.
func (s *Service) LoadMissingDemos(ctx context.Context) ([]string, error) {
	var loaded []string
	for _, id := range DemoIDs() {
		existing, err := s.Lookup(ctx, id)
		if err != nil {
			return loaded, err
		}
		if existing != nil {
			continue
		}
		if err := s.LoadDemo(ctx, id); err != nil {
			return loaded, err
		}
		loaded = append(loaded, id)
	}
	return loaded, nil
}

func parseDemo(id string) (*Exploration, error) {
	name, ok := demoFiles[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotDemo, id)
	}
	data, err := demoFS.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("reading demo %s: %w", id, err)
	}
	return decodeDemo(id, data)
}

func decodeDemo(id string, data []byte) (*Exploration, error) {
	var f demoFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidDemo, id, err)
	}
	if strings.TrimSpace(f.Title) == "" {
		return nil, fmt.Errorf("%w: %s: title is required", ErrInvalidDemo, id)
	}
	if _, ok := f.States[f.InitStateName]; !ok {
		return nil, fmt.Errorf("%w: %s: initial state %q not defined", ErrInvalidDemo, id, f.InitStateName)
	}
	for name, st := range f.States {
		for _, next := range st.Next {
			if next == endState {
				continue
			}
			if _, ok := f.States[next]; !ok {
				return nil, fmt.Errorf("%w: %s: state %q points to unknown state %q", ErrInvalidDemo, id, name, next)
			}
		}
	}
	if f.LanguageCode == "" {
		f.LanguageCode = "en"
	}

	content, err := yaml.Marshal(struct {
		InitStateName string               `yaml:"init_state_name"`
		States        map[string]demoState `yaml:"states"`
	}{f.InitStateName, f.States})
	if err != nil {
		return nil, fmt.Errorf("encoding demo %s: %w", id, err)
	}

	return &Exploration{
		ID:           id,
		Title:        f.Title,
		Category:     f.Category,
		Objective:    f.Objective,
		LanguageCode: f.LanguageCode,
		Version:      1,
		IsDemo:       true,
		Content:      string(content),
	}, nil
}
