package battle

import "time"

// ActivationEffect is a closed sum over the effect kinds the resolver
// supports. Each variant carries exactly the fields its application needs;
// applyActivation switches over the set exhaustively.
type ActivationEffect interface {
	isActivationEffect()
}

type HealEffect struct {
	Amount float64
}

type ShieldEffect struct {
	Points float64
}

type BurnEffect struct {
	TickDamage float64
	Duration   time.Duration
	Stackable  bool
}

type PoisonEffect struct {
	TickDamage float64
	Duration   time.Duration
	Stackable  bool
}

type FreezeEffect struct {
	Factor   float64
	Duration time.Duration
}

type StunEffect struct {
	Duration time.Duration
}

type BoostEffect struct {
	Factor   float64
	Duration time.Duration
}

type BurstEffect struct {
	Damage float64
}

type ReflectEffect struct {
	Fraction float64
	Duration time.Duration
}

type MultiplyEffect struct {
	Factor   float64
	Duration time.Duration
}

type LuckyEffect struct {
	Bonus    float64
	Duration time.Duration
}

func (HealEffect) isActivationEffect()     {}
func (ShieldEffect) isActivationEffect()   {}
func (BurnEffect) isActivationEffect()     {}
func (PoisonEffect) isActivationEffect()   {}
func (FreezeEffect) isActivationEffect()   {}
func (StunEffect) isActivationEffect()     {}
func (BoostEffect) isActivationEffect()    {}
func (BurstEffect) isActivationEffect()    {}
func (ReflectEffect) isActivationEffect()  {}
func (MultiplyEffect) isActivationEffect() {}
func (LuckyEffect) isActivationEffect()    {}

// Activation is the passive engine's output contract: which passive fired,
// on whom, and the typed effect to apply.
type Activation struct {
	PassiveID   string
	OwnerID     string
	TargetID    string
	Effect      ActivationEffect
	Description string
}
