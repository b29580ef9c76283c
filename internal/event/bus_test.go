package event

import (
	"log/slog"
	"os"
	"sync"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestPublishSubscribe(t *testing.T) {
	bus := NewBus(testLogger(), 16)

	var received []Event
	bus.Subscribe(ConfigChanged, func(e Event) {
		received = append(received, e)
	})

	bus.Publish(Event{
		Type: ConfigChanged,
		Data: map[string]any{"name": "site_name"},
	})

	go bus.Start()
	bus.Stop()
	bus.Wait()

	if len(received) != 1 {
		t.Fatalf("got %d events, want 1", len(received))
	}
	if received[0].Data["name"] != "site_name" {
		t.Errorf("data[name] = %v, want site_name", received[0].Data["name"])
	}
	if received[0].Timestamp.IsZero() {
		t.Error("expected timestamp to be set")
	}
}

func TestMultipleSubscribers(t *testing.T) {
	bus := NewBus(testLogger(), 16)

	var mu sync.Mutex
	count := 0
	for range 3 {
		bus.Subscribe(DemoLoaded, func(_ Event) {
			mu.Lock()
			defer mu.Unlock()
			count++
		})
	}

	go bus.Start()
	bus.Publish(Event{Type: DemoLoaded})
	bus.Stop()
	bus.Wait()

	if count != 3 {
		t.Errorf("got %d handler calls, want 3", count)
	}
}

func TestOnlyMatchingTypeDispatched(t *testing.T) {
	bus := NewBus(testLogger(), 16)

	called := false
	bus.Subscribe(StaticChanged, func(_ Event) { called = true })

	bus.Publish(Event{Type: ConfigChanged})
	go bus.Start()
	bus.Stop()
	bus.Wait()

	if called {
		t.Error("handler for another type should not be called")
	}
}

func TestBufferFull(t *testing.T) {
	bus := NewBus(testLogger(), 2)

	count := 0
	bus.Subscribe(StaticChanged, func(_ Event) { count++ })

	// Not started: the third event is dropped.
	bus.Publish(Event{Type: StaticChanged})
	bus.Publish(Event{Type: StaticChanged})
	bus.Publish(Event{Type: StaticChanged})

	go bus.Start()
	bus.Stop()
	bus.Wait()

	if count != 2 {
		t.Errorf("got %d events, want 2", count)
	}
}

func TestHandlerPanicRecovery(t *testing.T) {
	bus := NewBus(testLogger(), 16)

	secondCalled := false
	bus.Subscribe(ConfigChanged, func(_ Event) {
		panic("test panic")
	})
	bus.Subscribe(ConfigChanged, func(_ Event) {
		secondCalled = true
	})

	bus.Publish(Event{Type: ConfigChanged})
	go bus.Start()
	bus.Stop()
	bus.Wait()

	if !secondCalled {
		t.Error("second handler should still be called after first panics")
	}
}

func TestStopIsIdempotent(t *testing.T) {
	bus := NewBus(testLogger(), 1)
	go bus.Start()
	bus.Stop()
	bus.Stop()
	bus.Wait()
}
