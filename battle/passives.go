package battle

import (
	"context"
	"fmt"
	"time"

	"cardclash/server/catalog"
	"cardclash/server/logging"
	loggingpassives "cardclash/server/logging/passives"
)

// Reactive thresholds: low-hp triggers fire when HP drops to a quarter of
// max, high-combo triggers when a combatant lands five consecutive hits.
const (
	lowHPThresholdRatio = 0.25
	highComboThreshold  = 5
)

// ActivePassive is one battle-scoped passive instance bound to a combatant.
// Created when the battle starts (one per status-bearing symbol in the
// deck), cleared when it ends, and mutated only by the passive engine.
type ActivePassive struct {
	ID           string
	OwnerID      string
	SourceCardID string
	Spec         catalog.StatusSpec

	Active            bool
	CooldownRemaining time.Duration
	ProcCount         int
	LastProcAt        time.Duration

	lastEvalAt time.Duration
}

// GameEvent is a trigger candidate fed to the passive engine: battle start,
// the periodic cadence, a landed hit, or a threshold crossing.
type GameEvent struct {
	Kind        catalog.TriggerKind
	CombatantID string
	At          time.Duration
	TargetID    string
	Combo       int
	HPRatio     float64
}

// PassiveEngine owns every ActivePassive for a battle, indexed by owning
// combatant and trigger kind.
type PassiveEngine struct {
	rng       RandomSource
	publisher logging.Publisher
	byOwner   map[string]map[catalog.TriggerKind][]*ActivePassive
	byID      map[string]*ActivePassive
	nextID    uint64
	tick      func() uint64
}

func newPassiveEngine(rng RandomSource, publisher logging.Publisher, tick func() uint64) *PassiveEngine {
	if publisher == nil {
		publisher = logging.NopPublisher()
	}
	if tick == nil {
		tick = func() uint64 { return 0 }
	}
	return &PassiveEngine{
		rng:       rng,
		publisher: publisher,
		byOwner:   make(map[string]map[catalog.TriggerKind][]*ActivePassive),
		byID:      make(map[string]*ActivePassive),
		tick:      tick,
	}
}

// Bind registers one ActivePassive per status spec carried by the deck's
// symbols. Specs without a trigger never fire and are skipped.
func (e *PassiveEngine) Bind(cat *catalog.Catalog, combatantID string, deck []catalog.Card) []*ActivePassive {
	var bound []*ActivePassive
	for _, card := range deck {
		for _, symbol := range card.Symbols {
			def := cat.Resolve(symbol)
			for _, spec := range def.Statuses {
				if spec.Trigger == "" {
					continue
				}
				if spec.Trigger == catalog.TriggerOnHit && isHitRiderKind(spec.Kind) {
					// Debuff riders resolve on the damage path; binding
					// them here too would apply them twice per hit.
					continue
				}
				e.nextID++
				passive := &ActivePassive{
					ID:           fmt.Sprintf("passive-%d", e.nextID),
					OwnerID:      combatantID,
					SourceCardID: card.ID,
					Spec:         spec,
					Active:       true,
				}
				triggers := e.byOwner[combatantID]
				if triggers == nil {
					triggers = make(map[catalog.TriggerKind][]*ActivePassive)
					e.byOwner[combatantID] = triggers
				}
				triggers[spec.Trigger] = append(triggers[spec.Trigger], passive)
				e.byID[passive.ID] = passive
				bound = append(bound, passive)
			}
		}
	}
	return bound
}

// HandleEvent matches the event against the combatant's passives of that
// trigger kind. For each match: decay the cooldown by the time elapsed since
// the passive's last evaluation, skip if still cooling, roll proc chance
// (a failed roll does not consume cooldown), and on success emit a typed
// activation. luckyBonus is added to the proc chance before the roll.
func (e *PassiveEngine) HandleEvent(event GameEvent, luckyBonus float64) []Activation {
	triggers := e.byOwner[event.CombatantID]
	if triggers == nil {
		return nil
	}
	matched := triggers[event.Kind]
	if len(matched) == 0 {
		return nil
	}

	var activations []Activation
	for _, passive := range matched {
		if !passive.Active {
			continue
		}
		elapsed := event.At - passive.lastEvalAt
		passive.lastEvalAt = event.At
		if elapsed > 0 && passive.CooldownRemaining > 0 {
			passive.CooldownRemaining -= elapsed
			if passive.CooldownRemaining < 0 {
				passive.CooldownRemaining = 0
			}
		}
		if passive.CooldownRemaining > 0 {
			continue
		}

		chance := passive.Spec.ProcChance + luckyBonus
		if chance <= 0 {
			continue
		}
		if chance < 1 && e.rng.Float64() >= chance {
			continue
		}

		effect, target, ok := e.buildEffect(passive, event)
		if !ok {
			continue
		}

		passive.ProcCount++
		passive.LastProcAt = event.At
		passive.CooldownRemaining = time.Duration(passive.Spec.CooldownMs) * time.Millisecond

		activation := Activation{
			PassiveID:   passive.ID,
			OwnerID:     passive.OwnerID,
			TargetID:    target,
			Effect:      effect,
			Description: describeEffect(passive.Spec),
		}
		activations = append(activations, activation)

		loggingpassives.Proc(context.Background(), e.publisher, e.tick(),
			logging.EntityRef{ID: passive.OwnerID, Kind: logging.EntityKindCombatant},
			logging.EntityRef{ID: target, Kind: logging.EntityKindCombatant},
			loggingpassives.ProcPayload{
				PassiveID:  passive.ID,
				Kind:       string(passive.Spec.Kind),
				Trigger:    string(event.Kind),
				Magnitude:  passive.Spec.Magnitude,
				DurationMs: passive.Spec.DurationMs,
				ProcCount:  passive.ProcCount,
			})
	}
	return activations
}

// buildEffect maps a spec to its typed effect and target. Unknown kinds are
// a forward-compatibility case: new content may name kinds this resolver
// does not support yet, so they log a warning and resolve to nothing.
func (e *PassiveEngine) buildEffect(passive *ActivePassive, event GameEvent) (ActivationEffect, string, bool) {
	spec := passive.Spec
	duration := time.Duration(spec.DurationMs) * time.Millisecond
	self := passive.OwnerID
	enemy := event.TargetID

	switch spec.Kind {
	case catalog.StatusHeal:
		return HealEffect{Amount: spec.Magnitude}, self, true
	case catalog.StatusShield:
		return ShieldEffect{Points: spec.Magnitude}, self, true
	case catalog.StatusBurn:
		return BurnEffect{TickDamage: spec.TickDamage, Duration: duration, Stackable: spec.Stackable}, enemy, true
	case catalog.StatusPoison:
		return PoisonEffect{TickDamage: spec.TickDamage, Duration: duration, Stackable: spec.Stackable}, enemy, true
	case catalog.StatusFreeze:
		return FreezeEffect{Factor: spec.Magnitude, Duration: duration}, enemy, true
	case catalog.StatusStun:
		return StunEffect{Duration: duration}, enemy, true
	case catalog.StatusBoost:
		return BoostEffect{Factor: spec.Magnitude, Duration: duration}, self, true
	case catalog.StatusBurst:
		return BurstEffect{Damage: spec.Magnitude}, enemy, true
	case catalog.StatusReflect:
		return ReflectEffect{Fraction: spec.Magnitude, Duration: duration}, self, true
	case catalog.StatusMultiply:
		return MultiplyEffect{Factor: spec.Magnitude, Duration: duration}, self, true
	case catalog.StatusLucky:
		return LuckyEffect{Bonus: spec.Magnitude, Duration: duration}, self, true
	default:
		loggingpassives.UnknownKind(context.Background(), e.publisher, e.tick(),
			logging.EntityRef{ID: passive.OwnerID, Kind: logging.EntityKindCombatant},
			string(spec.Kind))
		return nil, "", false
	}
}

// Reset clears proc counts, cooldowns, and timestamps for a combatant's
// passives. Used between battles, not mid-battle.
func (e *PassiveEngine) Reset(combatantID string) {
	for _, passives := range e.byOwner[combatantID] {
		for _, passive := range passives {
			passive.ProcCount = 0
			passive.CooldownRemaining = 0
			passive.LastProcAt = 0
			passive.lastEvalAt = 0
			passive.Active = true
		}
	}
}

// Disable suppresses a passive without removing it, preserving proc history.
func (e *PassiveEngine) Disable(passiveID string) bool {
	passive, ok := e.byID[passiveID]
	if !ok {
		return false
	}
	passive.Active = false
	return true
}

// Passives returns the instances bound to a combatant.
func (e *PassiveEngine) Passives(combatantID string) []*ActivePassive {
	var all []*ActivePassive
	for _, group := range e.byOwner[combatantID] {
		all = append(all, group...)
	}
	return all
}

// release drops every binding; called when the battle ends.
func (e *PassiveEngine) release() {
	e.byOwner = make(map[string]map[catalog.TriggerKind][]*ActivePassive)
	e.byID = make(map[string]*ActivePassive)
}

// SnapshotHistory exports proc counts and last proc times keyed by passive
// ID, for the persistence collaborator.
func (e *PassiveEngine) SnapshotHistory() map[string]PassiveHistory {
	snapshot := make(map[string]PassiveHistory, len(e.byID))
	for id, passive := range e.byID {
		snapshot[id] = PassiveHistory{
			ProcCount:    passive.ProcCount,
			LastProcAtMs: passive.LastProcAt.Milliseconds(),
		}
	}
	return snapshot
}

// PassiveHistory is the serializable proc history of one passive.
type PassiveHistory struct {
	ProcCount    int   `json:"procCount" yaml:"procCount"`
	LastProcAtMs int64 `json:"lastProcAtMs" yaml:"lastProcAtMs"`
}

func describeEffect(spec catalog.StatusSpec) string {
	switch spec.Kind {
	case catalog.StatusHeal:
		return fmt.Sprintf("Restores %.0f HP", spec.Magnitude)
	case catalog.StatusShield:
		return fmt.Sprintf("Grants a %.0f point shield", spec.Magnitude)
	case catalog.StatusBurn:
		return fmt.Sprintf("Burns for %.1f per tick", spec.TickDamage)
	case catalog.StatusPoison:
		return fmt.Sprintf("Poisons for %.1f per tick", spec.TickDamage)
	case catalog.StatusFreeze:
		return "Chills the enemy's spawn cadence"
	case catalog.StatusStun:
		return "Stuns the enemy"
	case catalog.StatusBoost:
		return fmt.Sprintf("Boosts outgoing damage x%.2f", spec.Magnitude)
	case catalog.StatusBurst:
		return fmt.Sprintf("Bursts for %.0f damage", spec.Magnitude)
	case catalog.StatusReflect:
		return fmt.Sprintf("Reflects %.0f%% of incoming damage", spec.Magnitude*100)
	case catalog.StatusMultiply:
		return fmt.Sprintf("Multiplies the next strike x%.1f", spec.Magnitude)
	case catalog.StatusLucky:
		return "Raises proc luck"
	default:
		return string(spec.Kind)
	}
}
