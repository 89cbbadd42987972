package battle

import (
	"context"
	"sync"
	"testing"
	"time"

	"cardclash/server/catalog"
	"cardclash/server/logging"
	loggingpassives "cardclash/server/logging/passives"
)

// capturePublisher collects events synchronously for assertions.
type capturePublisher struct {
	mu     sync.Mutex
	events []logging.Event
}

func (p *capturePublisher) Publish(_ context.Context, event logging.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *capturePublisher) ofType(t logging.EventType) []logging.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var matched []logging.Event
	for _, event := range p.events {
		if event.Type == t {
			matched = append(matched, event)
		}
	}
	return matched
}

func passiveCatalog(t *testing.T, defs ...catalog.Definition) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.New(defs)
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	return cat
}

func healDefinition(procChance float64, cooldownMs int64) catalog.Definition {
	return catalog.Definition{
		Symbol: "h", Damage: 0, Speed: 3,
		Trajectory: catalog.TrajectoryStraight,
		Category:   catalog.CategorySupport,
		Rarity:     catalog.RarityUncommon,
		Statuses: []catalog.StatusSpec{{
			Kind:       catalog.StatusHeal,
			Trigger:    catalog.TriggerPeriodic,
			Magnitude:  15,
			ProcChance: procChance,
			CooldownMs: cooldownMs,
		}},
	}
}

func TestBindRoutesSpecsByTriggerAndKind(t *testing.T) {
	cat := passiveCatalog(t,
		healDefinition(1, 0),
		catalog.Definition{
			Symbol: "f", Damage: 10, Speed: 5,
			Trajectory: catalog.TrajectoryStraight,
			Category:   catalog.CategoryOverTime,
			Rarity:     catalog.RarityCommon,
			Statuses: []catalog.StatusSpec{{
				Kind: catalog.StatusBurn, Trigger: catalog.TriggerOnHit,
				DurationMs: 2000, TickDamage: 2, ProcChance: 0.5,
			}},
		},
		catalog.Definition{
			Symbol: "m", Damage: 10, Speed: 5,
			Trajectory: catalog.TrajectoryStraight,
			Category:   catalog.CategoryDirect,
			Rarity:     catalog.RarityEpic,
			Statuses: []catalog.StatusSpec{{
				Kind: catalog.StatusMultiply, Trigger: catalog.TriggerOnHit,
				DurationMs: 2000, Magnitude: 2, ProcChance: 0.5,
			}},
		},
		catalog.Definition{
			Symbol: "p", Damage: 10, Speed: 5,
			Trajectory: catalog.TrajectoryStraight,
			Category:   catalog.CategoryDirect,
			Rarity:     catalog.RarityCommon,
		},
	)
	engine := newPassiveEngine(constSource{0}, nil, nil)
	deck := []catalog.Card{{ID: "card-1", Rarity: catalog.RarityCommon, Symbols: []string{"h", "f", "m", "p"}}}

	bound := engine.Bind(cat, "a", deck)
	// Heal binds; the burn on-hit rider resolves on the damage path; the
	// multiply on-hit routes through the engine; the plain symbol has no
	// trigger at all.
	if len(bound) != 2 {
		t.Fatalf("bound %d passives, want 2", len(bound))
	}
	kinds := map[catalog.StatusKind]bool{}
	for _, passive := range bound {
		kinds[passive.Spec.Kind] = true
	}
	if !kinds[catalog.StatusHeal] || !kinds[catalog.StatusMultiply] {
		t.Fatalf("unexpected bound kinds: %v", kinds)
	}
}

func TestHandleEventProcsAndTargets(t *testing.T) {
	cat := passiveCatalog(t, healDefinition(1, 0))
	engine := newPassiveEngine(constSource{0}, nil, nil)
	engine.Bind(cat, "a", []catalog.Card{{ID: "card-1", Rarity: catalog.RarityCommon, Symbols: []string{"h"}}})

	activations := engine.HandleEvent(GameEvent{
		Kind:        catalog.TriggerPeriodic,
		CombatantID: "a",
		At:          time.Second,
		TargetID:    "b",
	}, 0)
	if len(activations) != 1 {
		t.Fatalf("got %d activations, want 1", len(activations))
	}
	heal, ok := activations[0].Effect.(HealEffect)
	if !ok {
		t.Fatalf("expected HealEffect, got %T", activations[0].Effect)
	}
	if heal.Amount != 15 {
		t.Fatalf("heal amount = %v, want 15", heal.Amount)
	}
	// Heals target the owner, not the enemy.
	if activations[0].TargetID != "a" {
		t.Fatalf("heal target = %s, want a", activations[0].TargetID)
	}
}

func TestCooldownExcludesProcsInsideWindow(t *testing.T) {
	cat := passiveCatalog(t, healDefinition(1, 5000))
	engine := newPassiveEngine(constSource{0}, nil, nil)
	engine.Bind(cat, "a", []catalog.Card{{ID: "card-1", Rarity: catalog.RarityCommon, Symbols: []string{"h"}}})

	event := func(at time.Duration) []Activation {
		return engine.HandleEvent(GameEvent{
			Kind:        catalog.TriggerPeriodic,
			CombatantID: "a",
			At:          at,
			TargetID:    "b",
		}, 0)
	}

	if got := event(time.Second); len(got) != 1 {
		t.Fatalf("first event should proc, got %d", len(got))
	}
	if got := event(3 * time.Second); len(got) != 0 {
		t.Fatalf("event inside the 5s cooldown must not proc, got %d", len(got))
	}
	if got := event(6100 * time.Millisecond); len(got) != 1 {
		t.Fatalf("event past the cooldown should proc, got %d", len(got))
	}

	passive := engine.Passives("a")[0]
	if passive.ProcCount != 2 {
		t.Fatalf("proc count = %d, want 2", passive.ProcCount)
	}
	if passive.LastProcAt != 6100*time.Millisecond {
		t.Fatalf("last proc at %v", passive.LastProcAt)
	}
}

func TestFailedRollDoesNotConsumeCooldown(t *testing.T) {
	cat := passiveCatalog(t, healDefinition(0.5, 5000))
	// 0.9 fails a 0.5 roll; 0.1 passes.
	rng := &sequenceSource{values: []float64{0.9, 0.1}}
	engine := newPassiveEngine(rng, nil, nil)
	engine.Bind(cat, "a", []catalog.Card{{ID: "card-1", Rarity: catalog.RarityCommon, Symbols: []string{"h"}}})

	first := engine.HandleEvent(GameEvent{Kind: catalog.TriggerPeriodic, CombatantID: "a", At: time.Second}, 0)
	if len(first) != 0 {
		t.Fatalf("failed roll should not activate")
	}
	// The failed roll left no cooldown behind, so the next event can proc
	// immediately.
	second := engine.HandleEvent(GameEvent{Kind: catalog.TriggerPeriodic, CombatantID: "a", At: 2 * time.Second}, 0)
	if len(second) != 1 {
		t.Fatalf("second roll should proc, got %d", len(second))
	}
}

func TestLuckyBonusRaisesProcChance(t *testing.T) {
	cat := passiveCatalog(t, healDefinition(0.2, 0))
	engine := newPassiveEngine(constSource{0.25}, nil, nil)
	engine.Bind(cat, "a", []catalog.Card{{ID: "card-1", Rarity: catalog.RarityCommon, Symbols: []string{"h"}}})

	event := GameEvent{Kind: catalog.TriggerPeriodic, CombatantID: "a", At: time.Second}
	if got := engine.HandleEvent(event, 0); len(got) != 0 {
		t.Fatalf("0.25 roll against 0.2 chance should fail")
	}
	if got := engine.HandleEvent(event, 0.1); len(got) != 1 {
		t.Fatalf("lucky bonus should lift the chance past the roll")
	}
}

func TestUnknownKindSkippedWithWarning(t *testing.T) {
	cat := passiveCatalog(t, catalog.Definition{
		Symbol: "x", Damage: 0, Speed: 3,
		Trajectory: catalog.TrajectoryStraight,
		Category:   catalog.CategoryUtility,
		Rarity:     catalog.RarityCommon,
		Statuses: []catalog.StatusSpec{{
			Kind:       "teleport",
			Trigger:    catalog.TriggerPeriodic,
			ProcChance: 1.0,
		}},
	})
	capture := &capturePublisher{}
	engine := newPassiveEngine(constSource{0}, capture, nil)
	engine.Bind(cat, "a", []catalog.Card{{ID: "card-1", Rarity: catalog.RarityCommon, Symbols: []string{"x"}}})

	activations := engine.HandleEvent(GameEvent{Kind: catalog.TriggerPeriodic, CombatantID: "a", At: time.Second}, 0)
	if len(activations) != 0 {
		t.Fatalf("unknown kind must not activate, got %d", len(activations))
	}
	warnings := capture.ofType(loggingpassives.EventUnknownKind)
	if len(warnings) != 1 {
		t.Fatalf("expected one unknown-kind warning, got %d", len(warnings))
	}
	// A skipped effect is not a proc.
	if engine.Passives("a")[0].ProcCount != 0 {
		t.Fatalf("skipped effect should not count as a proc")
	}
}

func TestDisablePreservesHistory(t *testing.T) {
	cat := passiveCatalog(t, healDefinition(1, 0))
	engine := newPassiveEngine(constSource{0}, nil, nil)
	bound := engine.Bind(cat, "a", []catalog.Card{{ID: "card-1", Rarity: catalog.RarityCommon, Symbols: []string{"h"}}})

	engine.HandleEvent(GameEvent{Kind: catalog.TriggerPeriodic, CombatantID: "a", At: time.Second}, 0)
	if !engine.Disable(bound[0].ID) {
		t.Fatalf("disable failed for %s", bound[0].ID)
	}
	if got := engine.HandleEvent(GameEvent{Kind: catalog.TriggerPeriodic, CombatantID: "a", At: 2 * time.Second}, 0); len(got) != 0 {
		t.Fatalf("disabled passive must not fire")
	}
	if bound[0].ProcCount != 1 {
		t.Fatalf("disable should preserve proc history, count %d", bound[0].ProcCount)
	}
	if engine.Disable("passive-999") {
		t.Fatalf("disabling an unknown id should report false")
	}
}

func TestResetClearsCountersAndReactivates(t *testing.T) {
	cat := passiveCatalog(t, healDefinition(1, 60000))
	engine := newPassiveEngine(constSource{0}, nil, nil)
	bound := engine.Bind(cat, "a", []catalog.Card{{ID: "card-1", Rarity: catalog.RarityCommon, Symbols: []string{"h"}}})

	engine.HandleEvent(GameEvent{Kind: catalog.TriggerPeriodic, CombatantID: "a", At: time.Second}, 0)
	engine.Disable(bound[0].ID)
	engine.Reset("a")

	passive := bound[0]
	if passive.ProcCount != 0 || passive.CooldownRemaining != 0 || passive.LastProcAt != 0 {
		t.Fatalf("reset left residue: %+v", passive)
	}
	if !passive.Active {
		t.Fatalf("reset should reactivate passives")
	}
}

func TestSnapshotHistory(t *testing.T) {
	cat := passiveCatalog(t, healDefinition(1, 0))
	engine := newPassiveEngine(constSource{0}, nil, nil)
	bound := engine.Bind(cat, "a", []catalog.Card{{ID: "card-1", Rarity: catalog.RarityCommon, Symbols: []string{"h"}}})
	engine.HandleEvent(GameEvent{Kind: catalog.TriggerPeriodic, CombatantID: "a", At: 1500 * time.Millisecond}, 0)

	history := engine.SnapshotHistory()
	entry, ok := history[bound[0].ID]
	if !ok {
		t.Fatalf("snapshot missing %s", bound[0].ID)
	}
	if entry.ProcCount != 1 || entry.LastProcAtMs != 1500 {
		t.Fatalf("unexpected history entry %+v", entry)
	}
}

func TestBurstTargetsEnemy(t *testing.T) {
	cat := passiveCatalog(t, catalog.Definition{
		Symbol: "b", Damage: 8, Speed: 5,
		Trajectory: catalog.TrajectoryStraight,
		Category:   catalog.CategoryDirect,
		Rarity:     catalog.RarityEpic,
		Statuses: []catalog.StatusSpec{{
			Kind:       catalog.StatusBurst,
			Trigger:    catalog.TriggerHighCombo,
			Magnitude:  25,
			ProcChance: 1.0,
		}},
	})
	engine := newPassiveEngine(constSource{0}, nil, nil)
	engine.Bind(cat, "a", []catalog.Card{{ID: "card-1", Rarity: catalog.RarityEpic, Symbols: []string{"b"}}})

	activations := engine.HandleEvent(GameEvent{
		Kind:        catalog.TriggerHighCombo,
		CombatantID: "a",
		At:          time.Second,
		TargetID:    "b",
		Combo:       5,
	}, 0)
	if len(activations) != 1 {
		t.Fatalf("expected one activation")
	}
	if activations[0].TargetID != "b" {
		t.Fatalf("burst target = %s, want the enemy", activations[0].TargetID)
	}
	burst, ok := activations[0].Effect.(BurstEffect)
	if !ok || burst.Damage != 25 {
		t.Fatalf("unexpected effect %+v", activations[0].Effect)
	}
}
