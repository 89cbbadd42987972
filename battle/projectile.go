package battle

import (
	"math"
	"time"

	"cardclash/server/catalog"
)

// Motion tuning. Speeds in the catalog are small scalar ratings; speedScale
// converts them to arena units per second.
const (
	speedScale      = 40.0
	arcGravity      = 160.0
	waveAmplitude   = 28.0
	waveFrequency   = 4.0
	spiralGrowth    = 14.0
	spiralFrequency = 3.0
	homingTurnRate  = math.Pi // radians per second
)

// Projectile is simulation-internal state for one spawned symbol. Positions
// are box centers; prevX/prevY hold the pre-advance position for the swept
// collision test.
type Projectile struct {
	ID      string
	OwnerID string
	Def     catalog.Definition

	X, Y         float64
	prevX, prevY float64
	spawnX       float64
	spawnY       float64
	dirX         float64 // +1 rightward, -1 leftward
	velX, velY   float64 // homing and arc integrate velocity directly

	Width  float64
	Height float64

	SpawnedAt time.Duration
	Lifetime  time.Duration
}

func (p *Projectile) speed() float64 {
	return p.Def.Speed * speedScale
}

// expired reports whether the projectile outlived its allotted flight time.
func (p *Projectile) expired(now time.Duration) bool {
	return p.Lifetime > 0 && now-p.SpawnedAt >= p.Lifetime
}

// advance moves the projectile along its trajectory function. now is the
// battle-relative time for this tick; dt the elapsed time since the last
// tick. Homing trajectories re-aim toward the nearest living enemy, clamped
// to the max turn rate.
func (p *Projectile) advance(now time.Duration, dt float64, targets []*combatantState) {
	p.prevX, p.prevY = p.X, p.Y
	if dt <= 0 {
		return
	}
	t := (now - p.SpawnedAt).Seconds()

	switch p.Def.Trajectory {
	case catalog.TrajectoryArc:
		p.X += p.dirX * p.speed() * dt
		p.velY += arcGravity * dt
		p.Y += p.velY * dt
	case catalog.TrajectoryWave:
		p.X += p.dirX * p.speed() * dt
		p.Y = p.spawnY + waveAmplitude*math.Sin(waveFrequency*t)
	case catalog.TrajectorySpiral:
		radius := spiralGrowth * t
		p.X = p.spawnX + p.dirX*p.speed()*t + radius*math.Cos(spiralFrequency*t)
		p.Y = p.spawnY + radius*math.Sin(spiralFrequency*t)
	case catalog.TrajectoryHoming:
		p.advanceHoming(dt, targets)
	default: // straight
		p.X += p.dirX * p.speed() * dt
	}
}

func (p *Projectile) advanceHoming(dt float64, targets []*combatantState) {
	target := nearestLivingTarget(p, targets)
	if target == nil {
		p.X += p.velX * dt
		p.Y += p.velY * dt
		return
	}

	tx, ty := target.hurtbox().center()
	desired := math.Atan2(ty-p.Y, tx-p.X)
	current := math.Atan2(p.velY, p.velX)

	diff := normalizeAngle(desired - current)
	maxTurn := homingTurnRate * dt
	if diff > maxTurn {
		diff = maxTurn
	} else if diff < -maxTurn {
		diff = -maxTurn
	}

	heading := current + diff
	speed := p.speed()
	p.velX = math.Cos(heading) * speed
	p.velY = math.Sin(heading) * speed
	p.X += p.velX * dt
	p.Y += p.velY * dt
}

func nearestLivingTarget(p *Projectile, targets []*combatantState) *combatantState {
	var nearest *combatantState
	best := math.MaxFloat64
	for _, target := range targets {
		if target == nil || target.id == p.OwnerID || target.hp <= 0 {
			continue
		}
		tx, ty := target.hurtbox().center()
		dx, dy := tx-p.X, ty-p.Y
		dist := dx*dx + dy*dy
		if dist < best {
			best = dist
			nearest = target
		}
	}
	return nearest
}

// normalizeAngle maps an angle difference into (-pi, pi].
func normalizeAngle(a float64) float64 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a <= -math.Pi {
		a += 2 * math.Pi
	}
	return a
}
