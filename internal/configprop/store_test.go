package configprop

import (
	"context"
	"database/sql"
	"errors"
	"reflect"
	"testing"

	"github.com/sydlexius/sprout/internal/database"
	"github.com/sydlexius/sprout/internal/event"
)

var testSiteName = Property{
	Name:        "site_name",
	Type:        TypeUnicodeString,
	Description: "The site name",
	Default:     "SITE_NAME",
}

type recordingPublisher struct {
	events []event.Event
}

func (r *recordingPublisher) Publish(e event.Event) {
	r.events = append(r.events, e)
}

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

func newTestStore(t *testing.T) *Store {
	t.Helper()
	reg, err := NewRegistry(testSiteName, BannedUsernames)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return NewStore(setupTestDB(t), reg)
}

func TestNewRegistry_RejectsDuplicates(t *testing.T) {
	if _, err := NewRegistry(testSiteName, testSiteName); err == nil {
		t.Fatal("expected duplicate registration to fail")
	}
}

func TestNewRegistry_RejectsBadDefinitions(t *testing.T) {
	tests := []Property{
		{Name: "", Type: TypeUnicodeString, Default: ""},
		{Name: "x", Type: TypeUnicodeString, Default: 3},
		{Name: "y", Type: TypeList, Default: "nope"},
		{Name: "z", Type: "Float", Default: ""},
	}
	for _, p := range tests {
		if _, err := NewRegistry(p); err == nil {
			t.Errorf("expected %+v to be rejected", p)
		}
	}
}

func TestRegistry_AllSorted(t *testing.T) {
	reg, err := NewRegistry(testSiteName, BannedUsernames, LoggingLevel)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	var names []string
	for _, p := range reg.All() {
		names = append(names, p.Name)
	}
	want := []string{"banned_usernames", "logging_level", "site_name"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("All() = %v, want %v", names, want)
	}
}

func TestStore_StringDefaultAndOverride(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	got, err := s.String(ctx, testSiteName)
	if err != nil {
		t.Fatalf("String: %v", err)
	}
	if got != "SITE_NAME" {
		t.Errorf("default = %q, want SITE_NAME", got)
	}

	if err := s.Set(ctx, "site_name", "Sprout"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err = s.String(ctx, testSiteName)
	if err != nil {
		t.Fatalf("String: %v", err)
	}
	if got != "Sprout" {
		t.Errorf("override = %q, want Sprout", got)
	}
}

func TestStore_EmptyStringOverrideIsKept(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Set(ctx, "site_name", ""); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := s.String(ctx, testSiteName)
	if err != nil {
		t.Fatalf("String: %v", err)
	}
	if got != "" {
		t.Errorf("got %q, want empty override", got)
	}
}

func TestStore_List(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	got, err := s.List(ctx, BannedUsernames)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("default = %v, want empty", got)
	}

	if err := s.Set(ctx, "banned_usernames", `["troll","spammer"]`); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err = s.List(ctx, BannedUsernames)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"troll", "spammer"}) {
		t.Errorf("got %v", got)
	}
}

func TestStore_SetValidation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Set(ctx, "nope", "x"); !errors.Is(err, ErrUnknownProperty) {
		t.Errorf("unknown property: err = %v, want ErrUnknownProperty", err)
	}
	if err := s.Set(ctx, "banned_usernames", "troll"); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("bad list: err = %v, want ErrInvalidValue", err)
	}
	if err := s.Set(ctx, "banned_usernames", `[1,2]`); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("non-string list: err = %v, want ErrInvalidValue", err)
	}
}

func TestStore_TypeMismatch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.String(ctx, BannedUsernames); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("String on list: err = %v, want ErrInvalidValue", err)
	}
	if _, err := s.List(ctx, LoggingLevel); !errors.Is(err, ErrUnknownProperty) {
		t.Errorf("unregistered: err = %v, want ErrUnknownProperty", err)
	}
}

func TestStore_Reset(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Set(ctx, "site_name", "Sprout"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Reset(ctx, "site_name"); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	got, err := s.String(ctx, testSiteName)
	if err != nil {
		t.Fatalf("String: %v", err)
	}
	if got != "SITE_NAME" {
		t.Errorf("after reset = %q, want default", got)
	}
	if err := s.Reset(ctx, "nope"); !errors.Is(err, ErrUnknownProperty) {
		t.Errorf("Reset unknown: err = %v", err)
	}
}

func TestStore_Snapshot(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Set(ctx, "site_name", "Sprout"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	values, err := s.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(values) != 2 {
		t.Fatalf("got %d values, want 2", len(values))
	}
	// Sorted by name: banned_usernames first.
	if values[0].Name != "banned_usernames" || values[0].Overridden {
		t.Errorf("values[0] = %+v", values[0])
	}
	if values[1].Value != "Sprout" || !values[1].Overridden {
		t.Errorf("values[1] = %+v", values[1])
	}
}

func TestStore_PublishesChanges(t *testing.T) {
	s := newTestStore(t)
	pub := &recordingPublisher{}
	s.SetEventBus(pub)
	ctx := context.Background()

	if err := s.Set(ctx, "site_name", "Sprout"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Reset(ctx, "site_name"); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if err := s.Set(ctx, "banned_usernames", "bad"); err == nil {
		t.Fatal("expected invalid value")
	}

	if len(pub.events) != 2 {
		t.Fatalf("got %d events, want 2", len(pub.events))
	}
	if pub.events[0].Type != event.ConfigChanged || pub.events[0].Data["action"] != "set" {
		t.Errorf("events[0] = %+v", pub.events[0])
	}
	if pub.events[1].Data["action"] != "reset" {
		t.Errorf("events[1] = %+v", pub.events[1])
	}
}

func TestStore_LoggingPropertiesRejectUnknownValues(t *testing.T) {
	reg, err := NewRegistry(LoggingLevel, LoggingFormat)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	s := NewStore(setupTestDB(t), reg)
	ctx := context.Background()

	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{"logging_level", "verbose", true},
		{"logging_level", "debug", false},
		{"logging_level", "", false},
		{"logging_format", "xml", true},
		{"logging_format", "text", false},
	}
	for _, tt := range tests {
		err := s.Set(ctx, tt.name, tt.value)
		if tt.wantErr && !errors.Is(err, ErrInvalidValue) {
			t.Errorf("Set(%s, %q) = %v, want ErrInvalidValue", tt.name, tt.value, err)
		}
		if !tt.wantErr && err != nil {
			t.Errorf("Set(%s, %q) = %v, want nil", tt.name, tt.value, err)
		}
	}

	got, err := s.String(ctx, LoggingLevel)
	if err != nil {
		t.Fatalf("String: %v", err)
	}
	if got != "" {
		t.Errorf("logging_level = %q, want the last accepted value \"\"", got)
	}
}
