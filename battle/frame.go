package battle

import "time"

// Frame is the per-tick push to the presentation layer: projectile
// positions for rendering, HP values for health bars, and activations for
// effect indicators. The push is one-way; the simulation never reads
// anything back.
type Frame struct {
	BattleID    string           `json:"battleId"`
	Tick        uint64           `json:"tick"`
	NowMs       int64            `json:"nowMs"`
	Phase       string           `json:"phase"`
	Projectiles []ProjectileView `json:"projectiles,omitempty"`
	Combatants  []CombatantView  `json:"combatants"`
	Hits        []HitView        `json:"hits,omitempty"`
	Activations []ActivationView `json:"activations,omitempty"`
	Result      *Result          `json:"result,omitempty"`
}

type ProjectileView struct {
	ID         string  `json:"id"`
	Symbol     string  `json:"symbol"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Trajectory string  `json:"trajectory"`
}

type CombatantView struct {
	ID     string  `json:"id"`
	HP     float64 `json:"hp"`
	MaxHP  float64 `json:"maxHp"`
	Shield float64 `json:"shield,omitempty"`
	Combo  int     `json:"combo,omitempty"`
}

type HitView struct {
	ProjectileID string  `json:"projectileId"`
	TargetID     string  `json:"targetId"`
	Damage       float64 `json:"damage"`
	Died         bool    `json:"died,omitempty"`
}

type ActivationView struct {
	PassiveID   string `json:"passiveId"`
	OwnerID     string `json:"ownerId"`
	TargetID    string `json:"targetId"`
	Kind        string `json:"kind"`
	Description string `json:"description,omitempty"`
}

// Result is the final outcome emitted on the Running -> Ended transition.
type Result struct {
	WinnerID         string  `json:"winnerId,omitempty"`
	SurvivorHP       float64 `json:"survivorHp"`
	ProjectilesFired uint64  `json:"projectilesFired"`
	Reason           string  `json:"reason"`
	EndedAtTick      uint64  `json:"endedAtTick"`
}

// FrameSink receives the per-tick push. Implementations must not block;
// the hub's sink fans frames out to subscribers on their own goroutines.
type FrameSink interface {
	PushFrame(Frame)
}

// FrameSinkFunc adapts a function to the FrameSink interface.
type FrameSinkFunc func(Frame)

func (f FrameSinkFunc) PushFrame(frame Frame) {
	if f == nil {
		return
	}
	f(frame)
}

func durationMs(d time.Duration) int64 {
	return d.Milliseconds()
}
