package exploration

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/sydlexius/sprout/internal/event"
)

func TestDemoIDs(t *testing.T) {
	want := []string{"0", "1", "2"}
	if got := DemoIDs(); !reflect.DeepEqual(got, want) {
		t.Errorf("DemoIDs = %v, want %v", got, want)
	}
	if !IsDemoID("1") || IsDemoID("42") {
		t.Error("IsDemoID mismatch")
	}
}

func TestBundledDemosParse(t *testing.T) {
	for _, id := range DemoIDs() {
		e, err := parseDemo(id)
		if err != nil {
			t.Errorf("demo %s: %v", id, err)
			continue
		}
		if !e.IsDemo || e.Version != 1 || e.Title == "" {
			t.Errorf("demo %s: %+v", id, e)
		}
	}
}

func TestDecodeDemo_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"bad yaml", "title: [unterminated"},
		{"no title", "init_state_name: A\nstates:\n  A:\n    content: hi\n"},
		{"missing init state", "title: T\ninit_state_name: B\nstates:\n  A:\n    content: hi\n"},
		{"dangling transition", "title: T\ninit_state_name: A\nstates:\n  A:\n    next: [C]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := decodeDemo("x", []byte(tt.data)); !errors.Is(err, ErrInvalidDemo) {
				t.Errorf("err = %v, want ErrInvalidDemo", err)
			}
		})
	}
}

func TestLoadAndDeleteDemo(t *testing.T) {
	svc := setupTestService(t)
	pub := &recordingPublisher{}
	svc.SetEventBus(pub)
	ctx := context.Background()

	if err := svc.LoadDemo(ctx, "0"); err != nil {
		t.Fatalf("LoadDemo: %v", err)
	}
	e, err := svc.GetByID(ctx, "0")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !e.IsDemo || e.Version != 1 {
		t.Errorf("loaded demo = %+v", e)
	}
	if len(pub.events) != 1 || pub.events[0].Type != event.DemoLoaded || pub.events[0].Data["id"] != "0" {
		t.Errorf("events = %+v", pub.events)
	}

	// Reloading over an edited copy restores version 1.
	e.Title = "Edited"
	if err := svc.Update(ctx, e); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := svc.LoadDemo(ctx, "0"); err != nil {
		t.Fatalf("second LoadDemo: %v", err)
	}
	e, err = svc.GetByID(ctx, "0")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if e.Version != 1 || e.Title == "Edited" {
		t.Errorf("reloaded demo = %+v", e)
	}

	if err := svc.DeleteDemo(ctx, "0"); err != nil {
		t.Fatalf("DeleteDemo: %v", err)
	}
	if e, _ := svc.Lookup(ctx, "0"); e != nil {
		t.Error("demo still present after DeleteDemo")
	}
	if err := svc.DeleteDemo(ctx, "0"); err != nil {
		t.Errorf("deleting an absent demo should succeed, got %v", err)
	}
}

func TestDemo_UnknownID(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	if err := svc.LoadDemo(ctx, "99"); !errors.Is(err, ErrNotDemo) {
		t.Errorf("LoadDemo err = %v, want ErrNotDemo", err)
	}
	if err := svc.DeleteDemo(ctx, "99"); !errors.Is(err, ErrNotDemo) {
		t.Errorf("DeleteDemo err = %v, want ErrNotDemo", err)
	}
}

func TestLoadMissingDemos(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	if err := svc.LoadDemo(ctx, "1"); err != nil {
		t.Fatalf("LoadDemo: %v", err)
	}
	loaded, err := svc.LoadMissingDemos(ctx)
	if err != nil {
		t.Fatalf("LoadMissingDemos: %v", err)
	}
	if want := []string{"0", "2"}; !reflect.DeepEqual(loaded, want) {
		t.Errorf("loaded = %v, want %v", loaded, want)
	}

	loaded, err = svc.LoadMissingDemos(ctx)
	if err != nil {
		t.Fatalf("LoadMissingDemos: %v", err)
	}
	if len(loaded) != 0 {
		t.Errorf("second run loaded %v, want none", loaded)
	}
}
