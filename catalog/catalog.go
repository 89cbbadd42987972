package catalog

import (
	"fmt"
)

// Rarity tiers shared by catalog entries and cards.
type Rarity string

const (
	RarityCommon   Rarity = "common"
	RarityUncommon Rarity = "uncommon"
	RarityRare     Rarity = "rare"
	RarityEpic     Rarity = "epic"
)

// rarityRank orders tiers for "rare or better" comparisons.
var rarityRank = map[Rarity]int{
	RarityCommon:   0,
	RarityUncommon: 1,
	RarityRare:     2,
	RarityEpic:     3,
}

// AtLeast reports whether r is the given tier or better.
func (r Rarity) AtLeast(min Rarity) bool {
	return rarityRank[r] >= rarityRank[min]
}

// Valid reports whether the tier is one of the known values.
func (r Rarity) Valid() bool {
	_, ok := rarityRank[r]
	return ok
}

// Trajectory identifies the path-shape function of a projectile.
type Trajectory string

const (
	TrajectoryStraight Trajectory = "straight"
	TrajectoryArc      Trajectory = "arc"
	TrajectoryWave     Trajectory = "wave"
	TrajectorySpiral   Trajectory = "spiral"
	TrajectoryHoming   Trajectory = "homing"
)

func (t Trajectory) Valid() bool {
	switch t {
	case TrajectoryStraight, TrajectoryArc, TrajectoryWave, TrajectorySpiral, TrajectoryHoming:
		return true
	}
	return false
}

// Category groups effects by how they deal their value.
type Category string

const (
	CategoryDirect   Category = "direct"
	CategoryOverTime Category = "overtime"
	CategoryUtility  Category = "utility"
	CategorySupport  Category = "support"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryDirect, CategoryOverTime, CategoryUtility, CategorySupport:
		return true
	}
	return false
}

// StatusKind enumerates the passive/status effect kinds the resolver knows.
// New kinds may appear in catalog data before the resolver supports them;
// that is handled downstream by skipping with a warning.
type StatusKind string

const (
	StatusHeal     StatusKind = "heal"
	StatusShield   StatusKind = "shield"
	StatusBurn     StatusKind = "burn"
	StatusFreeze   StatusKind = "freeze"
	StatusPoison   StatusKind = "poison"
	StatusBoost    StatusKind = "boost"
	StatusBurst    StatusKind = "burst"
	StatusReflect  StatusKind = "reflect"
	StatusMultiply StatusKind = "multiply"
	StatusLucky    StatusKind = "lucky"
	StatusStun     StatusKind = "stun"
)

// TriggerKind enumerates the game events a passive can bind to.
type TriggerKind string

const (
	TriggerBattleStart TriggerKind = "battle-start"
	TriggerPeriodic    TriggerKind = "periodic"
	TriggerLowHP       TriggerKind = "low-hp"
	TriggerHighCombo   TriggerKind = "high-combo"
	TriggerOnHit       TriggerKind = "on-hit"
)

func (t TriggerKind) Valid() bool {
	switch t {
	case TriggerBattleStart, TriggerPeriodic, TriggerLowHP, TriggerHighCombo, TriggerOnHit:
		return true
	}
	return false
}

// StatusSpec describes one status effect carried by a catalog entry.
type StatusSpec struct {
	Kind       StatusKind  `json:"kind" yaml:"kind"`
	Trigger    TriggerKind `json:"trigger,omitempty" yaml:"trigger"`
	DurationMs int64       `json:"durationMs,omitempty" yaml:"durationMs"`
	TickDamage float64     `json:"tickDamage,omitempty" yaml:"tickDamage"`
	ProcChance float64     `json:"procChance,omitempty" yaml:"procChance"`
	Magnitude  float64     `json:"magnitude,omitempty" yaml:"magnitude"`
	CooldownMs int64       `json:"cooldownMs,omitempty" yaml:"cooldownMs"`
	Stackable  bool        `json:"stackable,omitempty" yaml:"stackable"`
}

// Definition is one immutable catalog entry keyed by its symbol. The symbol
// is an opaque identifier chosen by content authors (in practice an emoji).
type Definition struct {
	Symbol      string       `json:"symbol" yaml:"symbol"`
	Damage      float64      `json:"damage" yaml:"damage"`
	Speed       float64      `json:"speed" yaml:"speed"`
	Trajectory  Trajectory   `json:"trajectory" yaml:"trajectory"`
	Category    Category     `json:"category" yaml:"category"`
	Rarity      Rarity       `json:"rarity" yaml:"rarity"`
	Description string       `json:"description,omitempty" yaml:"description"`
	Statuses    []StatusSpec `json:"statuses,omitempty" yaml:"statuses"`
}

// Card is a collectible owned by a player. Decks are ordered lists of cards;
// each card contributes its symbols to the combat pool.
type Card struct {
	ID      string   `json:"id" yaml:"id"`
	Name    string   `json:"name,omitempty" yaml:"name"`
	Rarity  Rarity   `json:"rarity" yaml:"rarity"`
	Symbols []string `json:"symbols" yaml:"symbols"`
}

// Catalog maps symbols to their definitions. Immutable after construction;
// lookups are plain map access.
type Catalog struct {
	entries  map[string]Definition
	byRarity map[Rarity][]string
	fallback Definition
}

// New builds a catalog from the provided definitions. Every entry is
// validated up front so lookups never have to re-check.
func New(defs []Definition) (*Catalog, error) {
	c := &Catalog{
		entries:  make(map[string]Definition, len(defs)),
		byRarity: make(map[Rarity][]string),
		fallback: fallbackDefinition(),
	}
	for i, def := range defs {
		if err := validateDefinition(def); err != nil {
			return nil, fmt.Errorf("catalog entry %d (%q): %w", i, def.Symbol, err)
		}
		if _, exists := c.entries[def.Symbol]; exists {
			return nil, fmt.Errorf("catalog entry %d: duplicate symbol %q", i, def.Symbol)
		}
		c.entries[def.Symbol] = def
		c.byRarity[def.Rarity] = append(c.byRarity[def.Rarity], def.Symbol)
	}
	return c, nil
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := New(defaultDefinitions())
	if err != nil {
		// The built-in table is validated by tests; a failure here is a
		// programming error, not a content error.
		panic(fmt.Sprintf("catalog: built-in definitions invalid: %v", err))
	}
	return c
}

// Lookup returns the definition for a symbol if it is catalogued.
func (c *Catalog) Lookup(symbol string) (Definition, bool) {
	def, ok := c.entries[symbol]
	return def, ok
}

// Resolve returns the definition for a symbol, substituting the fallback for
// unknown symbols. Unknown symbols are expected at the content boundary and
// must never break combat.
func (c *Catalog) Resolve(symbol string) Definition {
	if def, ok := c.entries[symbol]; ok {
		return def
	}
	def := c.fallback
	def.Symbol = symbol
	return def
}

// Fallback returns the default definition used for unknown symbols.
func (c *Catalog) Fallback() Definition {
	return c.fallback
}

// Len reports the number of catalogued symbols.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// SymbolsByRarity returns the catalogued symbols for one tier. The returned
// slice is a copy.
func (c *Catalog) SymbolsByRarity(r Rarity) []string {
	symbols := c.byRarity[r]
	if len(symbols) == 0 {
		return nil
	}
	return append([]string(nil), symbols...)
}

func fallbackDefinition() Definition {
	return Definition{
		Symbol:      "❓",
		Damage:      5,
		Speed:       4,
		Trajectory:  TrajectoryStraight,
		Category:    CategoryDirect,
		Rarity:      RarityCommon,
		Description: "Uncatalogued symbol",
	}
}

func validateDefinition(def Definition) error {
	if def.Symbol == "" {
		return fmt.Errorf("missing symbol")
	}
	if def.Damage < 0 {
		return fmt.Errorf("negative damage %v", def.Damage)
	}
	if def.Speed <= 0 {
		return fmt.Errorf("non-positive speed %v", def.Speed)
	}
	if !def.Trajectory.Valid() {
		return fmt.Errorf("unknown trajectory %q", def.Trajectory)
	}
	if !def.Category.Valid() {
		return fmt.Errorf("unknown category %q", def.Category)
	}
	if !def.Rarity.Valid() {
		return fmt.Errorf("unknown rarity %q", def.Rarity)
	}
	for i, status := range def.Statuses {
		if status.Kind == "" {
			return fmt.Errorf("status %d: missing kind", i)
		}
		if status.ProcChance < 0 || status.ProcChance > 1 {
			return fmt.Errorf("status %d: proc chance %v outside [0,1]", i, status.ProcChance)
		}
		if status.DurationMs < 0 {
			return fmt.Errorf("status %d: negative duration", i)
		}
		if status.CooldownMs < 0 {
			return fmt.Errorf("status %d: negative cooldown", i)
		}
		if status.Trigger != "" && !status.Trigger.Valid() {
			return fmt.Errorf("status %d: unknown trigger %q", i, status.Trigger)
		}
	}
	return nil
}
