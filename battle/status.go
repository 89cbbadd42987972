package battle

import (
	"time"

	"cardclash/server/catalog"
)

// StackPolicy resolves what happens when a status of the same kind lands on
// a target that already carries one. The source data's stackable flag only
// says a status may stack; the policy decides how.
type StackPolicy int

const (
	// StackRefresh keeps a single instance and restarts its duration.
	StackRefresh StackPolicy = iota
	// StackAdditive keeps every instance; damage-over-time records
	// accumulate.
	StackAdditive
	// StackIgnore drops the new application while one is active.
	StackIgnore
)

// StackPolicies maps effect kinds to their resolution policy. Battles take a
// copy at start, so a config can override per kind without touching others.
type StackPolicies map[catalog.StatusKind]StackPolicy

// DefaultStackPolicies: DoTs marked stackable accumulate, everything else
// refreshes.
func DefaultStackPolicies() StackPolicies {
	return StackPolicies{
		catalog.StatusBurn:   StackAdditive,
		catalog.StatusPoison: StackAdditive,
	}
}

func (p StackPolicies) policyFor(kind catalog.StatusKind, stackable bool) StackPolicy {
	policy, ok := p[kind]
	if !ok {
		return StackRefresh
	}
	if policy == StackAdditive && !stackable {
		return StackRefresh
	}
	return policy
}

// dotTickInterval is the cadence damage-over-time records tick at when the
// source spec does not provide one.
const dotTickInterval = 500 * time.Millisecond

// dotRecord is one registered damage-over-time effect on a combatant.
type dotRecord struct {
	kind       catalog.StatusKind
	sourceID   string
	tickDamage float64
	interval   time.Duration
	nextTickAt time.Duration
	expiresAt  time.Duration
}

// timedModifier is a duration-bounded multiplier or fraction.
type timedModifier struct {
	value float64
	until time.Duration
}

func (m timedModifier) active(now time.Duration) bool {
	return m.value != 0 && now < m.until
}

// statusState carries every active modifier on one combatant. Shield points
// absorb incoming damage before HP; reflect returns a fraction to the
// attacker; boost and multiply scale outgoing damage; freeze slows the spawn
// cadence; stun halts it; lucky raises subsequent proc rolls.
type statusState struct {
	shield float64

	reflect  timedModifier
	boost    timedModifier
	multiply timedModifier
	lucky    timedModifier

	frozenUntil  time.Duration
	frozenFactor float64
	stunnedUntil time.Duration

	dots []dotRecord
}

func (s *statusState) frozen(now time.Duration) bool {
	return now < s.frozenUntil
}

func (s *statusState) stunned(now time.Duration) bool {
	return now < s.stunnedUntil
}

// outgoingMultiplier combines boost and multiply. Multiply is consumed by
// the first hit it amplifies.
func (s *statusState) outgoingMultiplier(now time.Duration) float64 {
	mult := 1.0
	if s.boost.active(now) {
		mult *= s.boost.value
	}
	if s.multiply.active(now) {
		mult *= s.multiply.value
		s.multiply = timedModifier{}
	}
	return mult
}

func (s *statusState) reflectFraction(now time.Duration) float64 {
	if s.reflect.active(now) {
		return s.reflect.value
	}
	return 0
}

func (s *statusState) luckyBonus(now time.Duration) float64 {
	if s.lucky.active(now) {
		return s.lucky.value
	}
	return 0
}

// absorb consumes shield points and returns the damage that got through.
func (s *statusState) absorb(damage float64) (remaining, absorbed float64) {
	if s.shield <= 0 || damage <= 0 {
		return damage, 0
	}
	if s.shield >= damage {
		s.shield -= damage
		return 0, damage
	}
	absorbed = s.shield
	s.shield = 0
	return damage - absorbed, absorbed
}

// addDoT registers a damage-over-time record under the stacking policy. The
// stackable flag comes from the source spec; without it even an additive
// policy falls back to refresh.
func (s *statusState) addDoT(policies StackPolicies, kind catalog.StatusKind, stackable bool, sourceID string, tickDamage float64, interval, duration, now time.Duration) {
	if tickDamage <= 0 || duration <= 0 {
		return
	}
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	record := dotRecord{
		kind:       kind,
		sourceID:   sourceID,
		tickDamage: tickDamage,
		interval:   interval,
		nextTickAt: now + interval,
		expiresAt:  now + duration,
	}
	switch policies.policyFor(kind, stackable) {
	case StackAdditive:
		s.dots = append(s.dots, record)
	case StackIgnore:
		for _, existing := range s.dots {
			if existing.kind == kind && now < existing.expiresAt {
				return
			}
		}
		s.dots = append(s.dots, record)
	default: // refresh
		for i := range s.dots {
			if s.dots[i].kind == kind {
				s.dots[i] = record
				return
			}
		}
		s.dots = append(s.dots, record)
	}
}

// tickDoTs advances every DoT record and returns the damage due this tick,
// pruning expired records in place.
func (s *statusState) tickDoTs(now time.Duration) float64 {
	if len(s.dots) == 0 {
		return 0
	}
	total := 0.0
	kept := s.dots[:0]
	for _, dot := range s.dots {
		for dot.nextTickAt <= now && dot.nextTickAt <= dot.expiresAt {
			total += dot.tickDamage
			dot.nextTickAt += dot.interval
		}
		if now < dot.expiresAt {
			kept = append(kept, dot)
		}
	}
	s.dots = kept
	return total
}

// clear releases all modifiers; used when a battle ends.
func (s *statusState) clear() {
	*s = statusState{}
}
