package battle

import (
	"context"
	"fmt"
	"time"

	"cardclash/server/catalog"
	"cardclash/server/logging"
	loggingcombat "cardclash/server/logging/combat"
)

// Phase is the battle lifecycle state machine.
type Phase int

const (
	PhaseNotStarted Phase = iota
	PhaseRunning
	PhaseEnded
)

func (p Phase) String() string {
	switch p {
	case PhaseNotStarted:
		return "not-started"
	case PhaseRunning:
		return "running"
	case PhaseEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// End reasons reported in Result.Reason.
const (
	EndReasonDefeat    = "defeat"
	EndReasonTimeLimit = "time-limit"
	EndReasonForfeit   = "forfeit"
)

// ErrInvalidArgument mirrors the gacha sentinel for malformed simulator
// input.
var ErrInvalidArgument = fmt.Errorf("invalid argument")

// Config tunes one battle instance. Zero values take defaults via
// normalized().
type Config struct {
	BattleID           string        `json:"battleId"`
	ArenaWidth         float64       `json:"arenaWidth"`
	ArenaHeight        float64       `json:"arenaHeight"`
	TimeLimit          time.Duration `json:"timeLimit"`
	PassiveCadence     time.Duration `json:"passiveCadence"`
	BaseSpawnInterval  time.Duration `json:"baseSpawnInterval"`
	ProjectileLifetime time.Duration `json:"projectileLifetime"`
	StackPolicies      StackPolicies `json:"-"`
}

func (cfg Config) normalized() Config {
	out := cfg
	if out.BattleID == "" {
		out.BattleID = "battle-1"
	}
	if out.ArenaWidth <= 0 {
		out.ArenaWidth = 800
	}
	if out.ArenaHeight <= 0 {
		out.ArenaHeight = 400
	}
	if out.TimeLimit <= 0 {
		out.TimeLimit = 90 * time.Second
	}
	if out.PassiveCadence <= 0 {
		out.PassiveCadence = time.Second
	}
	if out.BaseSpawnInterval <= 0 {
		out.BaseSpawnInterval = 1200 * time.Millisecond
	}
	if out.ProjectileLifetime <= 0 {
		out.ProjectileLifetime = 6 * time.Second
	}
	if out.StackPolicies == nil {
		out.StackPolicies = DefaultStackPolicies()
	}
	return out
}

// CombatantConfig describes one side of a battle.
type CombatantConfig struct {
	ID    string
	MaxHP float64
	Deck  []catalog.Card
}

// Combatant geometry. Sides face each other across the arena.
const (
	combatantMargin = 60.0
	hurtboxWidth    = 48.0
	hurtboxHeight   = 96.0
	projectileSize  = 16.0
	projectileGap   = 8.0
	minSpawnFactor  = 0.5
	maxSpawnFactor  = 2.0
	midSpeedRating  = 5.0
	freezeMinFactor = 0.1
)

type combatantState struct {
	id     string
	hp     float64
	maxHP  float64
	deck   []catalog.Card
	pool   *WeightedPool
	status statusState

	x    float64 // hurtbox center
	y    float64
	dirX float64 // facing: +1 fires rightward

	combo        int
	spawnClock   time.Duration
	died         bool
	lowHPLatched bool
	comboLatched bool
}

func (c *combatantState) hurtbox() aabb {
	return aabb{
		minX: c.x - hurtboxWidth/2,
		minY: c.y - hurtboxHeight/2,
		maxX: c.x + hurtboxWidth/2,
		maxY: c.y + hurtboxHeight/2,
	}
}

// applyDamage clamps HP to [0, maxHP] and reports death exactly once, on
// the positive -> zero transition.
func (c *combatantState) applyDamage(amount float64) bool {
	if amount <= 0 {
		return false
	}
	prev := c.hp
	c.hp -= amount
	if c.hp < 0 {
		c.hp = 0
	}
	if prev > 0 && c.hp == 0 && !c.died {
		c.died = true
		return true
	}
	return false
}

func (c *combatantState) heal(amount float64) {
	if amount <= 0 || c.hp <= 0 {
		return
	}
	c.hp += amount
	if c.hp > c.maxHP {
		c.hp = c.maxHP
	}
}

// Simulator drives one battle. Single-threaded and tick-driven: the caller
// passes the current battle-relative time into Start and every Step, and no
// component reads a live clock. All state is instance-scoped, so concurrent
// battles are fully isolated.
type Simulator struct {
	cfg       Config
	cat       *catalog.Catalog
	rng       RandomSource
	publisher logging.Publisher
	sink      FrameSink

	phase      Phase
	combatants []*combatantState
	byID       map[string]*combatantState

	projectiles      []*Projectile
	grid             *spatialGrid
	passives         *PassiveEngine
	nextProjectileID uint64
	projectilesFired uint64

	tick             uint64
	now              time.Duration
	lastPassiveCheck time.Duration
	result           *Result
}

// NewSimulator builds an idle battle. The random source is required so a
// fixed seed replays an identical fight.
func NewSimulator(cfg Config, cat *catalog.Catalog, rng RandomSource, publisher logging.Publisher, sink FrameSink) (*Simulator, error) {
	if rng == nil {
		return nil, fmt.Errorf("%w: random source is required", ErrInvalidArgument)
	}
	if cat == nil {
		cat = catalog.Default()
	}
	if publisher == nil {
		publisher = logging.NopPublisher()
	}
	normalized := cfg.normalized()
	s := &Simulator{
		cfg:       normalized,
		cat:       cat,
		rng:       rng,
		publisher: logging.WithBattle(publisher, normalized.BattleID),
		sink:      sink,
		phase:     PhaseNotStarted,
		byID:      make(map[string]*combatantState),
		grid:      newSpatialGrid(collisionCellSize),
	}
	s.passives = newPassiveEngine(rng, s.publisher, func() uint64 { return s.tick })
	return s, nil
}

// AddCombatant registers one side before the battle starts.
func (s *Simulator) AddCombatant(cfg CombatantConfig) error {
	if s.phase != PhaseNotStarted {
		return fmt.Errorf("%w: combatants join before the battle starts", ErrInvalidArgument)
	}
	if cfg.ID == "" {
		return fmt.Errorf("%w: combatant needs an id", ErrInvalidArgument)
	}
	if cfg.MaxHP <= 0 {
		return fmt.Errorf("%w: combatant %s needs positive max HP", ErrInvalidArgument, cfg.ID)
	}
	if _, exists := s.byID[cfg.ID]; exists {
		return fmt.Errorf("%w: duplicate combatant %s", ErrInvalidArgument, cfg.ID)
	}
	state := &combatantState{
		id:    cfg.ID,
		hp:    cfg.MaxHP,
		maxHP: cfg.MaxHP,
		deck:  append([]catalog.Card(nil), cfg.Deck...),
		y:     s.cfg.ArenaHeight / 2,
	}
	s.combatants = append(s.combatants, state)
	s.byID[cfg.ID] = state
	return nil
}

// Phase reports the lifecycle state.
func (s *Simulator) Phase() Phase {
	return s.phase
}

// Result returns the final outcome once the battle has ended.
func (s *Simulator) Result() *Result {
	return s.result
}

// Tick reports the number of completed steps.
func (s *Simulator) Tick() uint64 {
	return s.tick
}

// Passives exposes the engine for between-battle maintenance
// (Reset/Disable) and proc-history snapshots.
func (s *Simulator) Passives() *PassiveEngine {
	return s.passives
}

// Start transitions NotStarted -> Running: builds one weighted pool per
// combatant, places the sides, zeroes all timers, binds passives, and fires
// the battle-start triggers.
func (s *Simulator) Start(now time.Duration) error {
	if s.phase != PhaseNotStarted {
		return fmt.Errorf("%w: battle already %s", ErrInvalidArgument, s.phase)
	}
	if len(s.combatants) < 2 {
		return fmt.Errorf("%w: a battle needs two combatants", ErrInvalidArgument)
	}

	for i, c := range s.combatants {
		c.pool = LoadFromDeck(s.cat, c.deck)
		c.spawnClock = 0
		if i%2 == 0 {
			c.x = combatantMargin
			c.dirX = 1
		} else {
			c.x = s.cfg.ArenaWidth - combatantMargin
			c.dirX = -1
		}
		s.passives.Bind(s.cat, c.id, c.deck)
	}

	s.phase = PhaseRunning
	s.now = now
	s.lastPassiveCheck = now

	loggingcombat.BattleStarted(context.Background(), s.publisher,
		logging.EntityRef{ID: s.cfg.BattleID, Kind: logging.EntityKindBattle})

	var activations []Activation
	for _, c := range s.combatants {
		events := s.passives.HandleEvent(GameEvent{
			Kind:        catalog.TriggerBattleStart,
			CombatantID: c.id,
			At:          now,
			TargetID:    s.enemyID(c.id),
		}, c.status.luckyBonus(now))
		activations = append(activations, events...)
	}
	for _, activation := range activations {
		s.applyActivation(activation, now)
	}
	return nil
}

// Step advances one simulation frame. now is read once by the caller and
// passed in; all elapsed-time math derives from it. Calling Step after the
// battle ended is a no-op.
func (s *Simulator) Step(now time.Duration) {
	if s.phase != PhaseRunning {
		return
	}
	dt := (now - s.now).Seconds()
	if dt < 0 {
		dt = 0
	}
	s.tick++

	frame := Frame{
		BattleID: s.cfg.BattleID,
		Tick:     s.tick,
		NowMs:    durationMs(now),
	}

	// 1. Advance every live projectile along its trajectory.
	for _, p := range s.projectiles {
		p.advance(now, dt, s.combatants)
	}

	// 2. Spawn per cadence. Stun halts fire entirely; freeze stretches the
	// interval.
	for _, c := range s.combatants {
		if c.hp <= 0 || c.status.stunned(now) {
			continue
		}
		interval := s.spawnInterval(c, now)
		c.spawnClock += time.Duration(dt * float64(time.Second))
		for c.spawnClock >= interval {
			c.spawnClock -= interval
			s.spawnProjectile(c, now)
		}
	}

	// 3. Collisions, damage, on-hit triggers.
	hits := detectHits(s.grid, s.projectiles, s.combatants)
	consumed := make(map[int]bool, len(hits))
	var activations []Activation
	for _, hit := range hits {
		if consumed[hit.projectileIndex] {
			continue
		}
		consumed[hit.projectileIndex] = true
		p := s.projectiles[hit.projectileIndex]
		target := s.byID[hit.TargetID]
		attacker := s.byID[p.OwnerID]

		res := resolveHit(s.rng, s.cfg.StackPolicies, attacker, target, p.Def, now)
		frame.Hits = append(frame.Hits, HitView{
			ProjectileID: p.ID,
			TargetID:     hit.TargetID,
			Damage:       res.Damage,
			Died:         res.Died,
		})
		s.publishHit(p, target, res)

		if attacker != nil {
			attacker.combo++
			if res.Reflected > 0 {
				if attacker.applyDamage(res.Reflected) {
					s.publishDefeat(target, attacker)
				}
				s.checkLowHP(attacker, now, &activations)
			}
			s.checkCombo(attacker, now, &activations)
			events := s.passives.HandleEvent(GameEvent{
				Kind:        catalog.TriggerOnHit,
				CombatantID: attacker.id,
				At:          now,
				TargetID:    hit.TargetID,
				Combo:       attacker.combo,
			}, attacker.status.luckyBonus(now))
			activations = append(activations, events...)
		}
		if target != nil {
			if target.combo != 0 {
				target.combo = 0
				target.comboLatched = false
			}
			if res.Died {
				s.publishDefeat(attacker, target)
			}
			s.checkLowHP(target, now, &activations)
		}
	}

	// 4. Damage-over-time ticks.
	for _, c := range s.combatants {
		if c.hp <= 0 {
			continue
		}
		dotDamage := c.status.tickDoTs(now)
		if dotDamage > 0 {
			if c.applyDamage(dotDamage) {
				s.publishDefeat(nil, c)
			}
			s.checkLowHP(c, now, &activations)
		}
	}

	// 5. Prune consumed, out-of-bounds, and expired projectiles.
	s.pruneProjectiles(consumed, now)

	// 6. Periodic passive cadence, decoupled from the tick rate.
	if now-s.lastPassiveCheck >= s.cfg.PassiveCadence {
		s.lastPassiveCheck = now
		for _, c := range s.combatants {
			if c.hp <= 0 {
				continue
			}
			events := s.passives.HandleEvent(GameEvent{
				Kind:        catalog.TriggerPeriodic,
				CombatantID: c.id,
				At:          now,
				TargetID:    s.enemyID(c.id),
			}, c.status.luckyBonus(now))
			activations = append(activations, events...)
		}
	}

	for _, activation := range activations {
		s.applyActivation(activation, now)
		frame.Activations = append(frame.Activations, ActivationView{
			PassiveID:   activation.PassiveID,
			OwnerID:     activation.OwnerID,
			TargetID:    activation.TargetID,
			Kind:        effectKindName(activation.Effect),
			Description: activation.Description,
		})
	}

	s.now = now

	// 7. End conditions: one side at zero HP or the time limit expired.
	if s.phase == PhaseRunning {
		if winner, done := s.decideOutcome(now); done {
			s.end(winner, s.endReason(now), now)
		}
	}

	frame.Phase = s.phase.String()
	frame.Projectiles = s.projectileViews()
	frame.Combatants = s.combatantViews()
	frame.Result = s.result
	if s.sink != nil {
		s.sink.PushFrame(frame)
	}
}

// Forfeit ends the battle synchronously, discarding all projectile and
// passive state. Used for player forfeits and disconnects.
func (s *Simulator) Forfeit(loserID string, now time.Duration) {
	if s.phase != PhaseRunning {
		return
	}
	winner := s.byID[s.enemyID(loserID)]
	s.end(winner, EndReasonForfeit, now)
}

func (s *Simulator) spawnInterval(c *combatantState, now time.Duration) time.Duration {
	factor := c.pool.MeanSpeed / midSpeedRating
	if factor < minSpawnFactor {
		factor = minSpawnFactor
	}
	if factor > maxSpawnFactor {
		factor = maxSpawnFactor
	}
	interval := time.Duration(float64(s.cfg.BaseSpawnInterval) / factor)
	if c.status.frozen(now) {
		slow := c.status.frozenFactor
		if slow < freezeMinFactor {
			slow = freezeMinFactor
		}
		interval = time.Duration(float64(interval) / slow)
	}
	return interval
}

func (s *Simulator) spawnProjectile(c *combatantState, now time.Duration) {
	entry := c.pool.DrawWeighted(s.rng)
	s.nextProjectileID++
	s.projectilesFired++
	speed := entry.Definition.Speed * speedScale
	x := c.x + c.dirX*(hurtboxWidth/2+projectileGap+projectileSize/2)
	p := &Projectile{
		ID:        fmt.Sprintf("proj-%d", s.nextProjectileID),
		OwnerID:   c.id,
		Def:       entry.Definition,
		X:         x,
		Y:         c.y,
		prevX:     x,
		prevY:     c.y,
		spawnX:    x,
		spawnY:    c.y,
		dirX:      c.dirX,
		velX:      c.dirX * speed,
		Width:     projectileSize,
		Height:    projectileSize,
		SpawnedAt: now,
		Lifetime:  s.cfg.ProjectileLifetime,
	}
	if p.Def.Trajectory == catalog.TrajectoryArc {
		p.velY = -arcGravity / 2 // lob upward, gravity pulls it back down
	}
	s.projectiles = append(s.projectiles, p)
}

func (s *Simulator) pruneProjectiles(consumed map[int]bool, now time.Duration) {
	kept := s.projectiles[:0]
	for i, p := range s.projectiles {
		if consumed[i] || p.expired(now) || s.outOfBounds(p) {
			continue
		}
		kept = append(kept, p)
	}
	for i := len(kept); i < len(s.projectiles); i++ {
		s.projectiles[i] = nil
	}
	s.projectiles = kept
}

func (s *Simulator) outOfBounds(p *Projectile) bool {
	return p.X+p.Width/2 < 0 || p.X-p.Width/2 > s.cfg.ArenaWidth ||
		p.Y+p.Height/2 < 0 || p.Y-p.Height/2 > s.cfg.ArenaHeight
}

// applyActivation applies one typed passive effect. The switch is
// exhaustive over the closed effect set; unknown kinds were already skipped
// with a warning when the activation was built.
func (s *Simulator) applyActivation(a Activation, now time.Duration) {
	target := s.byID[a.TargetID]
	if target == nil {
		return
	}
	switch eff := a.Effect.(type) {
	case HealEffect:
		target.heal(eff.Amount)
		if target.hp > target.maxHP*lowHPThresholdRatio {
			target.lowHPLatched = false
		}
	case ShieldEffect:
		if eff.Points > 0 {
			target.status.shield += eff.Points
		}
	case BurnEffect:
		target.status.addDoT(s.cfg.StackPolicies, catalog.StatusBurn, eff.Stackable, a.OwnerID, eff.TickDamage, dotTickInterval, eff.Duration, now)
	case PoisonEffect:
		target.status.addDoT(s.cfg.StackPolicies, catalog.StatusPoison, eff.Stackable, a.OwnerID, eff.TickDamage, dotTickInterval, eff.Duration, now)
	case FreezeEffect:
		factor := eff.Factor
		if factor <= 0 || factor >= 1 {
			factor = 0.5
		}
		applyFreeze(target, factor, eff.Duration, now)
	case StunEffect:
		applyStun(target, eff.Duration, now)
	case BoostEffect:
		if eff.Factor > 0 {
			target.status.boost = timedModifier{value: eff.Factor, until: now + eff.Duration}
		}
	case BurstEffect:
		if target.applyDamage(eff.Damage) {
			s.publishDefeat(s.byID[a.OwnerID], target)
		}
	case ReflectEffect:
		if eff.Fraction > 0 {
			target.status.reflect = timedModifier{value: eff.Fraction, until: now + eff.Duration}
		}
	case MultiplyEffect:
		if eff.Factor > 0 {
			target.status.multiply = timedModifier{value: eff.Factor, until: now + eff.Duration}
		}
	case LuckyEffect:
		if eff.Bonus > 0 {
			target.status.lucky = timedModifier{value: eff.Bonus, until: now + eff.Duration}
		}
	}
}

// checkLowHP fires the low-hp trigger once per downward crossing of the
// threshold; healing back above re-arms it.
func (s *Simulator) checkLowHP(c *combatantState, now time.Duration, activations *[]Activation) {
	if c == nil || c.hp <= 0 {
		return
	}
	threshold := c.maxHP * lowHPThresholdRatio
	if c.hp > threshold {
		c.lowHPLatched = false
		return
	}
	if c.lowHPLatched {
		return
	}
	c.lowHPLatched = true
	events := s.passives.HandleEvent(GameEvent{
		Kind:        catalog.TriggerLowHP,
		CombatantID: c.id,
		At:          now,
		TargetID:    s.enemyID(c.id),
		HPRatio:     c.hp / c.maxHP,
	}, c.status.luckyBonus(now))
	*activations = append(*activations, events...)
}

// checkCombo fires the high-combo trigger once per streak reaching the
// threshold; the latch re-arms when the streak breaks.
func (s *Simulator) checkCombo(c *combatantState, now time.Duration, activations *[]Activation) {
	if c == nil || c.combo < highComboThreshold {
		return
	}
	if c.comboLatched {
		return
	}
	c.comboLatched = true
	events := s.passives.HandleEvent(GameEvent{
		Kind:        catalog.TriggerHighCombo,
		CombatantID: c.id,
		At:          now,
		TargetID:    s.enemyID(c.id),
		Combo:       c.combo,
	}, c.status.luckyBonus(now))
	*activations = append(*activations, events...)
}

func (s *Simulator) decideOutcome(now time.Duration) (*combatantState, bool) {
	living := make([]*combatantState, 0, len(s.combatants))
	for _, c := range s.combatants {
		if c.hp > 0 {
			living = append(living, c)
		}
	}
	if len(living) <= 1 {
		var winner *combatantState
		if len(living) == 1 {
			winner = living[0]
		}
		return winner, true
	}
	if now >= s.cfg.TimeLimit {
		winner := living[0]
		for _, c := range living[1:] {
			if c.hp > winner.hp {
				winner = c
			}
		}
		return winner, true
	}
	return nil, false
}

func (s *Simulator) endReason(now time.Duration) string {
	if now >= s.cfg.TimeLimit {
		for _, c := range s.combatants {
			if c.hp <= 0 {
				return EndReasonDefeat
			}
		}
		return EndReasonTimeLimit
	}
	return EndReasonDefeat
}

// end performs the Running -> Ended transition and releases all projectile
// and passive state for the battle.
func (s *Simulator) end(winner *combatantState, reason string, now time.Duration) {
	s.phase = PhaseEnded
	result := &Result{
		Reason:           reason,
		ProjectilesFired: s.projectilesFired,
		EndedAtTick:      s.tick,
	}
	if winner != nil {
		result.WinnerID = winner.id
		result.SurvivorHP = winner.hp
	}
	s.result = result

	s.projectiles = nil
	s.passives.release()
	for _, c := range s.combatants {
		c.status.clear()
		c.spawnClock = 0
		c.combo = 0
	}

	loggingcombat.BattleEnded(context.Background(), s.publisher, s.tick,
		logging.EntityRef{ID: s.cfg.BattleID, Kind: logging.EntityKindBattle},
		loggingcombat.BattleEndedPayload{
			WinnerID:         result.WinnerID,
			SurvivorHP:       result.SurvivorHP,
			ProjectilesFired: result.ProjectilesFired,
			Reason:           reason,
		})
}

func (s *Simulator) enemyID(combatantID string) string {
	for _, c := range s.combatants {
		if c.id != combatantID {
			return c.id
		}
	}
	return ""
}

func (s *Simulator) publishHit(p *Projectile, target *combatantState, res HitResolution) {
	if target == nil {
		return
	}
	loggingcombat.Hit(context.Background(), s.publisher, s.tick,
		logging.EntityRef{ID: p.OwnerID, Kind: logging.EntityKindCombatant},
		logging.EntityRef{ID: target.id, Kind: logging.EntityKindCombatant},
		loggingcombat.HitPayload{
			Symbol:    p.Def.Symbol,
			Damage:    res.Damage,
			Absorbed:  res.Absorbed,
			Reflected: res.Reflected,
			Health:    res.NewHP,
		})
}

func (s *Simulator) publishDefeat(attacker, target *combatantState) {
	if target == nil {
		return
	}
	attackerRef := logging.EntityRef{Kind: logging.EntityKindUnknown}
	if attacker != nil {
		attackerRef = logging.EntityRef{ID: attacker.id, Kind: logging.EntityKindCombatant}
	}
	loggingcombat.Defeated(context.Background(), s.publisher, s.tick,
		attackerRef,
		logging.EntityRef{ID: target.id, Kind: logging.EntityKindCombatant})
}

func (s *Simulator) projectileViews() []ProjectileView {
	if len(s.projectiles) == 0 {
		return nil
	}
	views := make([]ProjectileView, 0, len(s.projectiles))
	for _, p := range s.projectiles {
		views = append(views, ProjectileView{
			ID:         p.ID,
			Symbol:     p.Def.Symbol,
			X:          p.X,
			Y:          p.Y,
			Trajectory: string(p.Def.Trajectory),
		})
	}
	return views
}

func (s *Simulator) combatantViews() []CombatantView {
	views := make([]CombatantView, 0, len(s.combatants))
	for _, c := range s.combatants {
		views = append(views, CombatantView{
			ID:     c.id,
			HP:     c.hp,
			MaxHP:  c.maxHP,
			Shield: c.status.shield,
			Combo:  c.combo,
		})
	}
	return views
}

func effectKindName(effect ActivationEffect) string {
	switch effect.(type) {
	case HealEffect:
		return string(catalog.StatusHeal)
	case ShieldEffect:
		return string(catalog.StatusShield)
	case BurnEffect:
		return string(catalog.StatusBurn)
	case PoisonEffect:
		return string(catalog.StatusPoison)
	case FreezeEffect:
		return string(catalog.StatusFreeze)
	case StunEffect:
		return string(catalog.StatusStun)
	case BoostEffect:
		return string(catalog.StatusBoost)
	case BurstEffect:
		return string(catalog.StatusBurst)
	case ReflectEffect:
		return string(catalog.StatusReflect)
	case MultiplyEffect:
		return string(catalog.StatusMultiply)
	case LuckyEffect:
		return string(catalog.StatusLucky)
	default:
		return "unknown"
	}
}
