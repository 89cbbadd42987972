package gacha

import (
	"context"
	"fmt"

	"cardclash/server/catalog"
	"cardclash/server/logging"
	loggingacquisition "cardclash/server/logging/acquisition"
)

// PityState tracks one player's rolls since their last rare-or-better
// outcome. It is the only state that survives across battles and is mutated
// exclusively by the engine's roll operations.
type PityState struct {
	CurrentCount int
}

// RollResult is the outcome of a single roll.
type RollResult struct {
	Card          catalog.Card
	Rarity        catalog.Rarity
	PityTriggered bool
	RollCount     int
}

// PityProgress is the read-only view of a player's pity window.
type PityProgress struct {
	CurrentCount int
	Threshold    int
}

// DropRates is the read-only view of the configured distribution.
type DropRates struct {
	PerRarity        map[catalog.Rarity]float64
	GuaranteedRareAt int
}

// AutoConfig drives RollAuto. Both MaxRolls and BatchSize are required;
// StopAtRarity optionally ends the run early once drawn.
type AutoConfig struct {
	MaxRolls     int
	BatchSize    int
	StopAtRarity catalog.Rarity
}

// Engine draws card outcomes from a drop table with a hard pity guarantee.
// It is an explicit service object: per-player pity lives in the instance,
// so tests and battles construct isolated engines instead of sharing
// process-wide state.
type Engine struct {
	table      DropTable
	cat        *catalog.Catalog
	rng        RandomSource
	publisher  logging.Publisher
	pity       map[string]*PityState
	nextCardID uint64
}

// NewEngine validates the drop table and constructs an engine. A nil rng
// falls back to the crypto-backed source; a nil publisher disables logging.
func NewEngine(table DropTable, cat *catalog.Catalog, rng RandomSource, publisher logging.Publisher) (*Engine, error) {
	normalized, err := table.normalized()
	if err != nil {
		return nil, err
	}
	if cat == nil {
		cat = catalog.Default()
	}
	if rng == nil {
		rng = DefaultSource()
	}
	if publisher == nil {
		publisher = logging.NopPublisher()
	}
	return &Engine{
		table:     normalized,
		cat:       cat,
		rng:       rng,
		publisher: publisher,
		pity:      make(map[string]*PityState),
	}, nil
}

func (e *Engine) state(playerID string) *PityState {
	st, ok := e.pity[playerID]
	if !ok {
		st = &PityState{}
		e.pity[playerID] = st
	}
	if st.CurrentCount < 0 {
		st.CurrentCount = 0
	}
	return st
}

// RollSingle draws one outcome and advances the player's pity window.
//
// The window counts this roll first, then applies the guarantee: when the
// count reaches the threshold without an organic rare-or-better draw, the
// outcome is forced up to the guaranteed tier. A pity-forced roll counts as
// the first roll of the next window; an organic rare-or-better resets the
// window to zero. The guarantee can only ever raise the effective tier.
func (e *Engine) RollSingle(playerID string) RollResult {
	st := e.state(playerID)
	st.CurrentCount++
	rollCount := st.CurrentCount

	rarity := e.table.draw(e.rng.Float64())
	pityTriggered := false
	if rarity.AtLeast(e.table.GuaranteedTier) {
		st.CurrentCount = 0
	} else if st.CurrentCount >= e.table.GuaranteedRareAt {
		rarity = e.table.GuaranteedTier
		pityTriggered = true
		st.CurrentCount = 1
	}

	result := RollResult{
		Card:          e.mintCard(rarity),
		Rarity:        rarity,
		PityTriggered: pityTriggered,
		RollCount:     rollCount,
	}

	playerRef := logging.EntityRef{ID: playerID, Kind: logging.EntityKindPlayer}
	payload := loggingacquisition.RollPayload{
		Rarity:    string(rarity),
		Symbol:    firstSymbol(result.Card),
		RollCount: rollCount,
		Pity:      pityTriggered,
	}
	loggingacquisition.Roll(context.Background(), e.publisher, playerRef, payload)
	if pityTriggered {
		loggingacquisition.PityTriggered(context.Background(), e.publisher, playerRef, payload)
	}
	return result
}

// RollMultiple draws count outcomes. A non-positive count is an
// ErrInvalidArgument, never silently coerced.
func (e *Engine) RollMultiple(playerID string, count int) ([]RollResult, error) {
	if count <= 0 {
		return nil, fmt.Errorf("%w: roll count must be positive, got %d", ErrInvalidArgument, count)
	}
	results := make([]RollResult, 0, count)
	for i := 0; i < count; i++ {
		results = append(results, e.RollSingle(playerID))
	}
	return results, nil
}

// RollAuto repeats rolls in fixed-size batches until MaxRolls is exhausted
// or a result at or above StopAtRarity appears.
func (e *Engine) RollAuto(playerID string, cfg AutoConfig) ([]RollResult, error) {
	if cfg.MaxRolls <= 0 {
		return nil, fmt.Errorf("%w: auto config requires positive MaxRolls, got %d", ErrInvalidArgument, cfg.MaxRolls)
	}
	if cfg.BatchSize <= 0 {
		return nil, fmt.Errorf("%w: auto config requires positive BatchSize, got %d", ErrInvalidArgument, cfg.BatchSize)
	}
	if cfg.StopAtRarity != "" && !cfg.StopAtRarity.Valid() {
		return nil, fmt.Errorf("%w: unknown stop rarity %q", ErrInvalidArgument, cfg.StopAtRarity)
	}

	results := make([]RollResult, 0, cfg.BatchSize)
	for len(results) < cfg.MaxRolls {
		batch := cfg.BatchSize
		if remaining := cfg.MaxRolls - len(results); batch > remaining {
			batch = remaining
		}
		for i := 0; i < batch; i++ {
			result := e.RollSingle(playerID)
			results = append(results, result)
			if cfg.StopAtRarity != "" && result.Rarity.AtLeast(cfg.StopAtRarity) {
				return results, nil
			}
		}
	}
	return results, nil
}

// PityProgress reports the player's window without mutating it.
func (e *Engine) PityProgress(playerID string) PityProgress {
	count := 0
	if st, ok := e.pity[playerID]; ok && st.CurrentCount > 0 {
		count = st.CurrentCount
	}
	return PityProgress{CurrentCount: count, Threshold: e.table.GuaranteedRareAt}
}

// DropRates reports the configured distribution without mutating it.
func (e *Engine) DropRates() DropRates {
	return DropRates{
		PerRarity:        e.table.CloneRates(),
		GuaranteedRareAt: e.table.GuaranteedRareAt,
	}
}

// SnapshotPity exports every player's pity counter for the persistence
// collaborator. The engine defines no file format; callers store the map
// verbatim.
func (e *Engine) SnapshotPity() map[string]int {
	snapshot := make(map[string]int, len(e.pity))
	for playerID, st := range e.pity {
		snapshot[playerID] = st.CurrentCount
	}
	return snapshot
}

// RestorePity accepts a snapshot back. Corrupt counters (negative values)
// normalize to zero instead of propagating.
func (e *Engine) RestorePity(snapshot map[string]int) {
	for playerID, count := range snapshot {
		if count < 0 {
			count = 0
		}
		e.pity[playerID] = &PityState{CurrentCount: count}
	}
}

// mintCard synthesizes the card for a drawn rarity, picking a catalogued
// symbol of that tier. Tiers with no catalogued symbols fall back down the
// ladder before resorting to the catalog fallback.
func (e *Engine) mintCard(rarity catalog.Rarity) catalog.Card {
	symbol := ""
	for _, tier := range []catalog.Rarity{rarity, catalog.RarityRare, catalog.RarityUncommon, catalog.RarityCommon} {
		symbols := e.cat.SymbolsByRarity(tier)
		if len(symbols) == 0 {
			continue
		}
		symbol = symbols[int(e.rng.Float64()*float64(len(symbols)))%len(symbols)]
		break
	}
	if symbol == "" {
		symbol = e.cat.Fallback().Symbol
	}
	e.nextCardID++
	def := e.cat.Resolve(symbol)
	return catalog.Card{
		ID:      fmt.Sprintf("card-%d", e.nextCardID),
		Name:    def.Description,
		Rarity:  rarity,
		Symbols: []string{symbol},
	}
}

func firstSymbol(card catalog.Card) string {
	if len(card.Symbols) == 0 {
		return ""
	}
	return card.Symbols[0]
}
