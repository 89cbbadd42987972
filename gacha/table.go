package gacha

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"cardclash/server/catalog"
)

// ErrInvalidArgument is returned for malformed caller input: non-positive
// roll counts, zero-value auto configs, broken drop tables. It is never
// retried internally.
var ErrInvalidArgument = errors.New("invalid argument")

const probabilityTolerance = 1e-9

// drawOrder fixes the tier walk for cumulative draws so a seeded source
// reproduces identical outcomes run to run.
var drawOrder = []catalog.Rarity{
	catalog.RarityCommon,
	catalog.RarityUncommon,
	catalog.RarityRare,
	catalog.RarityEpic,
}

// DropTable configures the rarity distribution and the pity guarantee.
type DropTable struct {
	Rates            map[catalog.Rarity]float64 `yaml:"rates"`
	GuaranteedRareAt int                        `yaml:"guaranteedRareAt"`
	GuaranteedTier   catalog.Rarity             `yaml:"guaranteedTier"`
}

// DefaultDropTable mirrors the live game's single-banner distribution.
func DefaultDropTable() DropTable {
	return DropTable{
		Rates: map[catalog.Rarity]float64{
			catalog.RarityCommon:   0.55,
			catalog.RarityUncommon: 0.27,
			catalog.RarityRare:     0.13,
			catalog.RarityEpic:     0.05,
		},
		GuaranteedRareAt: 10,
		GuaranteedTier:   catalog.RarityRare,
	}
}

// normalized applies defaults and validates the table. Probabilities must
// sum to 1 within tolerance; the guarantee threshold must be positive.
func (t DropTable) normalized() (DropTable, error) {
	out := t
	if out.GuaranteedTier == "" {
		out.GuaranteedTier = catalog.RarityRare
	}
	if !out.GuaranteedTier.Valid() {
		return out, fmt.Errorf("%w: unknown guaranteed tier %q", ErrInvalidArgument, out.GuaranteedTier)
	}
	if out.GuaranteedRareAt <= 0 {
		return out, fmt.Errorf("%w: guarantee threshold must be positive, got %d", ErrInvalidArgument, out.GuaranteedRareAt)
	}
	if len(out.Rates) == 0 {
		return out, fmt.Errorf("%w: drop table has no rates", ErrInvalidArgument)
	}
	sum := 0.0
	for rarity, p := range out.Rates {
		if !rarity.Valid() {
			return out, fmt.Errorf("%w: unknown rarity %q in drop table", ErrInvalidArgument, rarity)
		}
		if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 {
			return out, fmt.Errorf("%w: rate for %s must be a probability, got %v", ErrInvalidArgument, rarity, p)
		}
		sum += p
	}
	if math.Abs(sum-1.0) > probabilityTolerance {
		return out, fmt.Errorf("%w: drop rates sum to %v, want 1", ErrInvalidArgument, sum)
	}
	return out, nil
}

// CloneRates returns a defensive copy of the per-rarity probabilities.
func (t DropTable) CloneRates() map[catalog.Rarity]float64 {
	cloned := make(map[catalog.Rarity]float64, len(t.Rates))
	for rarity, p := range t.Rates {
		cloned[rarity] = p
	}
	return cloned
}

// draw walks the cumulative distribution in fixed tier order.
func (t DropTable) draw(roll float64) catalog.Rarity {
	cumulative := 0.0
	last := catalog.RarityCommon
	for _, rarity := range drawOrder {
		p, ok := t.Rates[rarity]
		if !ok || p <= 0 {
			continue
		}
		cumulative += p
		last = rarity
		if roll < cumulative {
			return rarity
		}
	}
	// Floating-point slack at the top of the range lands on the last tier.
	return last
}

// LoadDropTable reads a YAML drop-table document from disk.
func LoadDropTable(path string) (DropTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return DropTable{}, fmt.Errorf("gacha: read %s: %w", path, err)
	}
	var table DropTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return DropTable{}, fmt.Errorf("gacha: decode %s: %w", path, err)
	}
	return table.normalized()
}
