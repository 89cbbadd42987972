package combat

import (
	"context"

	"cardclash/server/logging"
)

const (
	// EventHit is emitted when a projectile connects with a combatant.
	EventHit logging.EventType = "combat.hit"
	// EventDefeated is emitted once when a combatant's HP reaches zero.
	EventDefeated logging.EventType = "combat.defeated"
	// EventBattleStarted marks the NotStarted -> Running transition.
	EventBattleStarted logging.EventType = "combat.battle_started"
	// EventBattleEnded marks the Running -> Ended transition.
	EventBattleEnded logging.EventType = "combat.battle_ended"
)

// HitPayload captures a resolved projectile hit.
type HitPayload struct {
	Symbol    string  `json:"symbol"`
	Damage    float64 `json:"damage"`
	Absorbed  float64 `json:"absorbed,omitempty"`
	Reflected float64 `json:"reflected,omitempty"`
	Health    float64 `json:"health"`
}

// BattleEndedPayload reports the final outcome of a battle.
type BattleEndedPayload struct {
	WinnerID         string  `json:"winnerId,omitempty"`
	SurvivorHP       float64 `json:"survivorHp"`
	ProjectilesFired uint64  `json:"projectilesFired"`
	Reason           string  `json:"reason,omitempty"`
}

// Hit publishes a combat.hit event.
func Hit(ctx context.Context, pub logging.Publisher, tick uint64, attacker, target logging.EntityRef, payload HitPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventHit,
		Tick:     tick,
		Actor:    attacker,
		Targets:  []logging.EntityRef{target},
		Severity: logging.SeverityDebug,
		Category: logging.CategoryCombat,
		Payload:  payload,
	})
}

// Defeated publishes a combat.defeated event.
func Defeated(ctx context.Context, pub logging.Publisher, tick uint64, attacker, target logging.EntityRef) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventDefeated,
		Tick:     tick,
		Actor:    attacker,
		Targets:  []logging.EntityRef{target},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryCombat,
	})
}

// BattleStarted publishes a combat.battle_started event.
func BattleStarted(ctx context.Context, pub logging.Publisher, battle logging.EntityRef) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventBattleStarted,
		Actor:    battle,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryCombat,
	})
}

// BattleEnded publishes a combat.battle_ended event.
func BattleEnded(ctx context.Context, pub logging.Publisher, tick uint64, battle logging.EntityRef, payload BattleEndedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventBattleEnded,
		Tick:     tick,
		Actor:    battle,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryCombat,
		Payload:  payload,
	})
}
