package logging_test

import (
	"context"
	"testing"
	"time"

	"cardclash/server/logging"
	"cardclash/server/logging/sinks"
)

func waitForEvents(t *testing.T, sink *sinks.MemorySink, want int) []logging.Event {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		events := sink.Events()
		if len(events) >= want {
			return events
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d events, have %d", want, len(sink.Events()))
	return nil
}

func TestRouterDeliversToSinks(t *testing.T) {
	memory := sinks.NewMemorySink()
	router, err := logging.NewRouter(nil, logging.DefaultConfig(), []logging.NamedSink{
		{Name: "memory", Sink: memory},
	})
	if err != nil {
		t.Fatalf("router: %v", err)
	}
	defer router.Close(context.Background())

	router.Publish(context.Background(), logging.Event{
		Type:     "combat.hit",
		Tick:     7,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryCombat,
	})

	events := waitForEvents(t, memory, 1)
	if events[0].Type != "combat.hit" || events[0].Tick != 7 {
		t.Fatalf("unexpected event %+v", events[0])
	}
	if events[0].Time.IsZero() {
		t.Fatalf("router should stamp a delivery time")
	}
}

func TestRouterFiltersBySeverity(t *testing.T) {
	memory := sinks.NewMemorySink()
	cfg := logging.DefaultConfig()
	cfg.MinimumSeverity = logging.SeverityWarn
	router, err := logging.NewRouter(nil, cfg, []logging.NamedSink{
		{Name: "memory", Sink: memory},
	})
	if err != nil {
		t.Fatalf("router: %v", err)
	}

	router.Publish(context.Background(), logging.Event{Type: "debug.noise", Severity: logging.SeverityInfo})
	router.Publish(context.Background(), logging.Event{Type: "combat.warn", Severity: logging.SeverityWarn})
	if err := router.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}

	events := memory.Events()
	if len(events) != 1 || events[0].Type != "combat.warn" {
		t.Fatalf("severity filter failed: %+v", events)
	}
}

func TestRouterAppliesStaticFields(t *testing.T) {
	memory := sinks.NewMemorySink()
	cfg := logging.DefaultConfig()
	cfg.Fields = map[string]any{"service": "cardclash"}
	router, err := logging.NewRouter(nil, cfg, []logging.NamedSink{
		{Name: "memory", Sink: memory},
	})
	if err != nil {
		t.Fatalf("router: %v", err)
	}

	router.Publish(context.Background(), logging.Event{Type: "combat.hit", Severity: logging.SeverityInfo})
	if err := router.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}

	events := memory.Events()
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if events[0].Extra["service"] != "cardclash" {
		t.Fatalf("static fields missing: %+v", events[0].Extra)
	}
}

func TestRouterIgnoresTypelessEvents(t *testing.T) {
	memory := sinks.NewMemorySink()
	router, err := logging.NewRouter(nil, logging.DefaultConfig(), []logging.NamedSink{
		{Name: "memory", Sink: memory},
	})
	if err != nil {
		t.Fatalf("router: %v", err)
	}
	router.Publish(context.Background(), logging.Event{Severity: logging.SeverityInfo})
	if err := router.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}
	if got := len(memory.Events()); got != 0 {
		t.Fatalf("typeless event delivered, %d events", got)
	}
}

func TestRouterCloseFlushesQueue(t *testing.T) {
	memory := sinks.NewMemorySink()
	router, err := logging.NewRouter(nil, logging.DefaultConfig(), []logging.NamedSink{
		{Name: "memory", Sink: memory},
	})
	if err != nil {
		t.Fatalf("router: %v", err)
	}

	const published = 50
	for i := 0; i < published; i++ {
		router.Publish(context.Background(), logging.Event{Type: "combat.hit", Severity: logging.SeverityInfo})
	}
	if err := router.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}

	stats := router.Stats()
	if got := len(memory.Events()); uint64(got) != stats.EventsTotal {
		t.Fatalf("delivered %d events, router counted %d", got, stats.EventsTotal)
	}
	if got := len(memory.Events()) + int(stats.DroppedTotal); got != published {
		t.Fatalf("delivered+dropped = %d, want %d", got, published)
	}

	// Publishing after close is a silent no-op.
	router.Publish(context.Background(), logging.Event{Type: "combat.hit", Severity: logging.SeverityInfo})
	if uint64(len(memory.Events())) != stats.EventsTotal {
		t.Fatalf("publish after close delivered an event")
	}
}

func TestRouterCountsDropsWhenQueueIsFull(t *testing.T) {
	release := make(chan struct{})
	blocking := &blockingSink{release: release}
	cfg := logging.DefaultConfig()
	cfg.BufferSize = 1
	router, err := logging.NewRouter(nil, cfg, []logging.NamedSink{
		{Name: "blocking", Sink: blocking},
	})
	if err != nil {
		t.Fatalf("router: %v", err)
	}

	// The first event occupies the dispatcher, the second fills the queue,
	// and later ones must be counted as dropped rather than blocking.
	for i := 0; i < 20; i++ {
		router.Publish(context.Background(), logging.Event{Type: "combat.hit", Severity: logging.SeverityInfo})
	}
	if router.Stats().DroppedTotal == 0 {
		t.Fatalf("expected drops with a full queue")
	}
	close(release)
	if err := router.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestRouterSinkLookup(t *testing.T) {
	memory := sinks.NewMemorySink()
	router, err := logging.NewRouter(nil, logging.DefaultConfig(), []logging.NamedSink{
		{Name: "memory", Sink: memory},
	})
	if err != nil {
		t.Fatalf("router: %v", err)
	}
	defer router.Close(context.Background())

	if router.Sink("memory") == nil {
		t.Fatalf("expected memory sink by name")
	}
	if router.Sink("missing") != nil {
		t.Fatalf("unknown sink name should return nil")
	}
}

// blockingSink holds every Write until released, so tests can force the
// router's queue to fill.
type blockingSink struct {
	release chan struct{}
}

func (s *blockingSink) Write(logging.Event) error {
	<-s.release
	return nil
}

func (s *blockingSink) Close(context.Context) error { return nil }
