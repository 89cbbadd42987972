package battle

import (
	"time"

	"cardclash/server/catalog"
)

// HitResolution reports the outcome of one confirmed hit.
type HitResolution struct {
	Damage    float64 // applied to HP after shield absorption
	Absorbed  float64
	Reflected float64 // redirected back to the attacker
	NewHP     float64
	Died      bool // true only on the positive -> zero transition
	Applied   []catalog.StatusSpec
}

// resolveHit converts a confirmed hit into an HP delta on the target.
// Order: outgoing modifiers on the attacker scale the raw damage, the
// target's shield absorbs first, an active reflect redirects a fraction of
// the through-damage, then the definition's on-hit status riders roll their
// proc chance. Freeze and boost never touch this path; they act on spawn
// cadence elsewhere.
func resolveHit(rng RandomSource, policies StackPolicies, attacker, target *combatantState, def catalog.Definition, now time.Duration) HitResolution {
	res := HitResolution{}
	if target == nil {
		return res
	}

	raw := def.Damage
	if raw < 0 {
		raw = 0
	}
	if attacker != nil {
		raw *= attacker.status.outgoingMultiplier(now)
	}

	through, absorbed := target.status.absorb(raw)
	res.Absorbed = absorbed
	res.Reflected = through * target.status.reflectFraction(now)
	res.Damage = through

	res.Died = target.applyDamage(through)
	res.NewHP = target.hp

	attackerID := ""
	if attacker != nil {
		attackerID = attacker.id
	}
	for _, spec := range def.Statuses {
		if spec.Trigger != catalog.TriggerOnHit || !isHitRiderKind(spec.Kind) {
			continue
		}
		if spec.ProcChance <= 0 {
			continue
		}
		if spec.ProcChance < 1 && rng.Float64() >= spec.ProcChance {
			continue
		}
		applyStatusRider(policies, target, spec, attackerID, now)
		res.Applied = append(res.Applied, spec)
	}
	return res
}

// isHitRiderKind reports whether an on-hit status applies directly on the
// damage path. Debuffs ride the hit that carries them; beneficial on-hit
// kinds go through the passive engine with cooldown and proc tracking.
func isHitRiderKind(kind catalog.StatusKind) bool {
	switch kind {
	case catalog.StatusBurn, catalog.StatusPoison, catalog.StatusFreeze, catalog.StatusStun:
		return true
	}
	return false
}

// applyStatusRider registers the newly-triggered status on the target.
// Burn and poison become damage-over-time records; freeze and stun become
// duration-bounded debuffs.
func applyStatusRider(policies StackPolicies, target *combatantState, spec catalog.StatusSpec, sourceID string, now time.Duration) {
	duration := time.Duration(spec.DurationMs) * time.Millisecond
	switch spec.Kind {
	case catalog.StatusBurn, catalog.StatusPoison:
		target.status.addDoT(policies, spec.Kind, spec.Stackable, sourceID, spec.TickDamage, dotTickInterval, duration, now)
	case catalog.StatusFreeze:
		factor := spec.Magnitude
		if factor <= 0 || factor >= 1 {
			factor = 0.5
		}
		applyFreeze(target, factor, duration, now)
	case catalog.StatusStun:
		applyStun(target, duration, now)
	}
}

func applyFreeze(target *combatantState, factor float64, duration, now time.Duration) {
	if duration <= 0 {
		return
	}
	until := now + duration
	if until > target.status.frozenUntil {
		target.status.frozenUntil = until
	}
	target.status.frozenFactor = factor
}

func applyStun(target *combatantState, duration, now time.Duration) {
	if duration <= 0 {
		return
	}
	until := now + duration
	if until > target.status.stunnedUntil {
		target.status.stunnedUntil = until
	}
}
