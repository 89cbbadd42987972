package catalog

// defaultDefinitions is the built-in content table. Content updates normally
// arrive as YAML documents (see document.go); this table keeps the engine
// playable with no data files present.
func defaultDefinitions() []Definition {
	return []Definition{
		{
			Symbol: "🔥", Damage: 12, Speed: 5, Trajectory: TrajectoryStraight,
			Category: CategoryOverTime, Rarity: RarityUncommon,
			Description: "Fireball that leaves the target burning",
			Statuses: []StatusSpec{
				{Kind: StatusBurn, Trigger: TriggerOnHit, DurationMs: 3000, TickDamage: 2, ProcChance: 0.35, CooldownMs: 2000, Stackable: true},
			},
		},
		{
			Symbol: "⚡", Damage: 16, Speed: 9, Trajectory: TrajectoryStraight,
			Category: CategoryDirect, Rarity: RarityRare,
			Description: "Fast bolt with a chance to stun",
			Statuses: []StatusSpec{
				{Kind: StatusStun, Trigger: TriggerOnHit, DurationMs: 800, ProcChance: 0.15, CooldownMs: 5000},
			},
		},
		{
			Symbol: "🌊", Damage: 9, Speed: 4, Trajectory: TrajectoryWave,
			Category: CategoryDirect, Rarity: RarityCommon,
			Description: "Rolling wave",
		},
		{
			Symbol: "🌪️", Damage: 11, Speed: 5, Trajectory: TrajectorySpiral,
			Category: CategoryDirect, Rarity: RarityUncommon,
			Description: "Widening twister",
		},
		{
			Symbol: "🎯", Damage: 10, Speed: 6, Trajectory: TrajectoryHoming,
			Category: CategoryDirect, Rarity: RarityRare,
			Description: "Seeking dart",
		},
		{
			Symbol: "🚀", Damage: 18, Speed: 7, Trajectory: TrajectoryArc,
			Category: CategoryDirect, Rarity: RarityRare,
			Description: "Lobbed rocket",
		},
		{
			Symbol: "❄️", Damage: 7, Speed: 4, Trajectory: TrajectoryStraight,
			Category: CategoryUtility, Rarity: RarityUncommon,
			Description: "Shard that chills the target",
			Statuses: []StatusSpec{
				{Kind: StatusFreeze, Trigger: TriggerOnHit, DurationMs: 1500, ProcChance: 0.25, CooldownMs: 4000, Magnitude: 0.5},
			},
		},
		{
			Symbol: "☠️", Damage: 6, Speed: 3, Trajectory: TrajectoryWave,
			Category: CategoryOverTime, Rarity: RarityRare,
			Description: "Venom cloud",
			Statuses: []StatusSpec{
				{Kind: StatusPoison, Trigger: TriggerOnHit, DurationMs: 5000, TickDamage: 1.5, ProcChance: 0.5, CooldownMs: 1500, Stackable: true},
			},
		},
		{
			Symbol: "💖", Damage: 0, Speed: 3, Trajectory: TrajectoryStraight,
			Category: CategorySupport, Rarity: RarityUncommon,
			Description: "Mends the owner when pressed",
			Statuses: []StatusSpec{
				{Kind: StatusHeal, Trigger: TriggerLowHP, Magnitude: 15, ProcChance: 0.6, CooldownMs: 8000},
			},
		},
		{
			Symbol: "🛡️", Damage: 0, Speed: 3, Trajectory: TrajectoryStraight,
			Category: CategorySupport, Rarity: RarityRare,
			Description: "Raises a shield at battle start",
			Statuses: []StatusSpec{
				{Kind: StatusShield, Trigger: TriggerBattleStart, Magnitude: 20, ProcChance: 1.0, CooldownMs: 10000},
			},
		},
		{
			Symbol: "🍀", Damage: 3, Speed: 4, Trajectory: TrajectoryStraight,
			Category: CategoryUtility, Rarity: RarityUncommon,
			Description: "Luck that favors later procs",
			Statuses: []StatusSpec{
				{Kind: StatusLucky, Trigger: TriggerPeriodic, DurationMs: 4000, Magnitude: 0.1, ProcChance: 0.3, CooldownMs: 6000},
			},
		},
		{
			Symbol: "💥", Damage: 8, Speed: 5, Trajectory: TrajectoryStraight,
			Category: CategoryDirect, Rarity: RarityEpic,
			Description: "Detonation rewarded on long combos",
			Statuses: []StatusSpec{
				{Kind: StatusBurst, Trigger: TriggerHighCombo, Magnitude: 25, ProcChance: 0.8, CooldownMs: 7000},
			},
		},
		{
			Symbol: "🪞", Damage: 2, Speed: 4, Trajectory: TrajectoryStraight,
			Category: CategorySupport, Rarity: RarityEpic,
			Description: "Mirror that returns part of incoming damage",
			Statuses: []StatusSpec{
				{Kind: StatusReflect, Trigger: TriggerPeriodic, DurationMs: 3000, Magnitude: 0.3, ProcChance: 0.4, CooldownMs: 9000},
			},
		},
		{
			Symbol: "✨", Damage: 4, Speed: 6, Trajectory: TrajectorySpiral,
			Category: CategoryUtility, Rarity: RarityCommon,
			Description: "Sparkle burst",
		},
		{
			Symbol: "⭐", Damage: 13, Speed: 6, Trajectory: TrajectoryArc,
			Category: CategoryDirect, Rarity: RarityUncommon,
			Description: "Falling star",
		},
		{
			Symbol: "🗡️", Damage: 10, Speed: 7, Trajectory: TrajectoryStraight,
			Category: CategoryDirect, Rarity: RarityCommon,
			Description: "Thrown blade",
		},
		{
			Symbol: "💪", Damage: 0, Speed: 3, Trajectory: TrajectoryStraight,
			Category: CategorySupport, Rarity: RarityRare,
			Description: "Surge of outgoing damage",
			Statuses: []StatusSpec{
				{Kind: StatusBoost, Trigger: TriggerPeriodic, DurationMs: 2500, Magnitude: 1.5, ProcChance: 0.35, CooldownMs: 6000},
			},
		},
		{
			Symbol: "🌀", Damage: 20, Speed: 5, Trajectory: TrajectoryHoming,
			Category: CategoryDirect, Rarity: RarityEpic,
			Description: "Vortex that doubles the next strike",
			Statuses: []StatusSpec{
				{Kind: StatusMultiply, Trigger: TriggerOnHit, DurationMs: 2000, Magnitude: 2.0, ProcChance: 0.2, CooldownMs: 8000},
			},
		},
		{
			Symbol: "🫧", Damage: 5, Speed: 4, Trajectory: TrajectoryWave,
			Category: CategoryDirect, Rarity: RarityCommon,
			Description: "Bubble stream",
		},
	}
}
