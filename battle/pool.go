package battle

import (
	"cardclash/server/catalog"
)

// Selection weights. Entries carrying status effects trade a slice of spawn
// probability for their passive value; the floor keeps every entry drawable.
const (
	statusWeightPenalty = 0.8
	minimumWeight       = 0.05
)

var rarityBaseWeight = map[catalog.Rarity]float64{
	catalog.RarityCommon:   1.0,
	catalog.RarityUncommon: 1.25,
	catalog.RarityRare:     1.6,
	catalog.RarityEpic:     2.2,
}

var cardRarityMultiplier = map[catalog.Rarity]float64{
	catalog.RarityCommon:   1.0,
	catalog.RarityUncommon: 1.1,
	catalog.RarityRare:     1.25,
	catalog.RarityEpic:     1.5,
}

// LoadedSymbol binds a catalog definition to the card that contributed it,
// with the computed selection weight. Built fresh per battle.
type LoadedSymbol struct {
	Definition catalog.Definition
	CardID     string
	CardRarity catalog.Rarity
	Weight     float64
}

// WeightedPool is an ordered collection of loaded symbols plus precomputed
// aggregates. It is rebuilt whenever the deck changes, never mutated.
type WeightedPool struct {
	entries     []LoadedSymbol
	TotalWeight float64
	MeanDamage  float64
	MeanSpeed   float64
	StatusCount int
}

// LoadFromDeck resolves every symbol on every card through the catalog
// (unknown symbols get the fallback definition) and computes weights as
// rarity base x card multiplier x status penalty, floored at the minimum.
// An empty deck still yields a one-entry pool so draws never fail.
func LoadFromDeck(cat *catalog.Catalog, deck []catalog.Card) *WeightedPool {
	if cat == nil {
		cat = catalog.Default()
	}
	pool := &WeightedPool{}
	for _, card := range deck {
		for _, symbol := range card.Symbols {
			def := cat.Resolve(symbol)
			pool.entries = append(pool.entries, LoadedSymbol{
				Definition: def,
				CardID:     card.ID,
				CardRarity: card.Rarity,
				Weight:     symbolWeight(def, card.Rarity),
			})
		}
	}
	if len(pool.entries) == 0 {
		def := cat.Fallback()
		pool.entries = append(pool.entries, LoadedSymbol{
			Definition: def,
			CardRarity: catalog.RarityCommon,
			Weight:     symbolWeight(def, catalog.RarityCommon),
		})
	}
	pool.recompute()
	return pool
}

func symbolWeight(def catalog.Definition, cardRarity catalog.Rarity) float64 {
	base, ok := rarityBaseWeight[def.Rarity]
	if !ok {
		base = rarityBaseWeight[catalog.RarityCommon]
	}
	mult, ok := cardRarityMultiplier[cardRarity]
	if !ok {
		mult = 1.0
	}
	weight := base * mult
	if len(def.Statuses) > 0 {
		weight *= statusWeightPenalty
	}
	if weight < minimumWeight {
		weight = minimumWeight
	}
	return weight
}

func (p *WeightedPool) recompute() {
	p.TotalWeight = 0
	p.MeanDamage = 0
	p.MeanSpeed = 0
	p.StatusCount = 0
	if len(p.entries) == 0 {
		return
	}
	for _, entry := range p.entries {
		p.TotalWeight += entry.Weight
		p.MeanDamage += entry.Definition.Damage
		p.MeanSpeed += entry.Definition.Speed
		if len(entry.Definition.Statuses) > 0 {
			p.StatusCount++
		}
	}
	p.MeanDamage /= float64(len(p.entries))
	p.MeanSpeed /= float64(len(p.entries))
}

// Len reports the number of pool entries.
func (p *WeightedPool) Len() int {
	return len(p.entries)
}

// Entries returns a copy of the pool's members.
func (p *WeightedPool) Entries() []LoadedSymbol {
	return append([]LoadedSymbol(nil), p.entries...)
}

// DrawWeighted performs a cumulative roulette draw: a uniform value in
// [0, TotalWeight) selects the first entry whose running sum exceeds it.
// A draw of exactly 0 returns the first entry; a value just under the total
// returns the last.
func (p *WeightedPool) DrawWeighted(rng RandomSource) LoadedSymbol {
	if len(p.entries) == 0 {
		// Pools are never constructed empty; clamp rather than crash in a
		// live match.
		return LoadedSymbol{Definition: catalog.Default().Fallback(), Weight: minimumWeight}
	}
	target := rng.Float64() * p.TotalWeight
	cumulative := 0.0
	for _, entry := range p.entries {
		cumulative += entry.Weight
		if target < cumulative {
			return entry
		}
	}
	return p.entries[len(p.entries)-1]
}

// Validate reports whether a deck's symbols are healthy enough for combat:
// at least half must resolve in the catalog.
func Validate(cat *catalog.Catalog, symbols []string) bool {
	if cat == nil || len(symbols) == 0 {
		return false
	}
	resolved := 0
	for _, symbol := range symbols {
		if _, ok := cat.Lookup(symbol); ok {
			resolved++
		}
	}
	return resolved*2 >= len(symbols)
}
