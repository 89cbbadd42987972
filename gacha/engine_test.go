package gacha

import (
	"errors"
	"testing"

	"cardclash/server/catalog"
)

// constSource always returns the same value, pinning draw outcomes.
type constSource struct{ value float64 }

func (s constSource) Float64() float64 { return s.value }

// sequenceSource replays a fixed series of values, wrapping at the end.
type sequenceSource struct {
	values []float64
	index  int
}

func (s *sequenceSource) Float64() float64 {
	v := s.values[s.index%len(s.values)]
	s.index++
	return v
}

func testDropTable() DropTable {
	return DropTable{
		Rates: map[catalog.Rarity]float64{
			catalog.RarityCommon:   0.6,
			catalog.RarityUncommon: 0.3,
			catalog.RarityRare:     0.1,
		},
		GuaranteedRareAt: 10,
		GuaranteedTier:   catalog.RarityRare,
	}
}

func newTestEngine(t *testing.T, rng RandomSource) *Engine {
	t.Helper()
	engine, err := NewEngine(testDropTable(), catalog.Default(), rng, nil)
	if err != nil {
		t.Fatalf("failed to build engine: %v", err)
	}
	return engine
}

func TestNewEngineRejectsBrokenTable(t *testing.T) {
	_, err := NewEngine(DropTable{GuaranteedRareAt: 10}, nil, nil, nil)
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestPityGuaranteeAtThreshold(t *testing.T) {
	// A constant zero source always draws common, so the guarantee must
	// intervene on exactly the tenth roll.
	engine := newTestEngine(t, constSource{0})

	for i := 1; i <= 9; i++ {
		result := engine.RollSingle("p1")
		if result.Rarity != catalog.RarityCommon {
			t.Fatalf("roll %d: expected common, got %s", i, result.Rarity)
		}
		if result.PityTriggered {
			t.Fatalf("roll %d: pity triggered early", i)
		}
		if result.RollCount != i {
			t.Fatalf("roll %d: roll count %d", i, result.RollCount)
		}
	}

	tenth := engine.RollSingle("p1")
	if !tenth.PityTriggered {
		t.Fatalf("tenth roll should trigger pity")
	}
	if tenth.Rarity != catalog.RarityRare {
		t.Fatalf("pity roll should be rare, got %s", tenth.Rarity)
	}
	if tenth.RollCount != 10 {
		t.Fatalf("pity roll count = %d, want 10", tenth.RollCount)
	}

	// A pity-forced roll counts as the first of the next window.
	progress := engine.PityProgress("p1")
	if progress.CurrentCount != 1 {
		t.Fatalf("post-pity count = %d, want 1", progress.CurrentCount)
	}
	if progress.Threshold != 10 {
		t.Fatalf("threshold = %d, want 10", progress.Threshold)
	}
}

func TestPityRepeatsAcrossWindows(t *testing.T) {
	engine := newTestEngine(t, constSource{0})
	pityRolls := []int{}
	for i := 1; i <= 19; i++ {
		if engine.RollSingle("p1").PityTriggered {
			pityRolls = append(pityRolls, i)
		}
	}
	if len(pityRolls) != 2 || pityRolls[0] != 10 || pityRolls[1] != 19 {
		t.Fatalf("pity fired at rolls %v, want [10 19]", pityRolls)
	}
}

func TestOrganicRareResetsWindow(t *testing.T) {
	// 0.95 draws rare under the test table; the second value feeds card
	// minting.
	engine := newTestEngine(t, &sequenceSource{values: []float64{0.95, 0.0}})

	result := engine.RollSingle("p1")
	if result.Rarity != catalog.RarityRare {
		t.Fatalf("expected organic rare, got %s", result.Rarity)
	}
	if result.PityTriggered {
		t.Fatalf("organic rare must not count as pity")
	}
	if progress := engine.PityProgress("p1"); progress.CurrentCount != 0 {
		t.Fatalf("organic rare should reset the window, count = %d", progress.CurrentCount)
	}
}

func TestPityIsPerPlayer(t *testing.T) {
	engine := newTestEngine(t, constSource{0})
	for i := 0; i < 9; i++ {
		engine.RollSingle("p1")
	}
	if progress := engine.PityProgress("p2"); progress.CurrentCount != 0 {
		t.Fatalf("p2 should have an untouched window, count = %d", progress.CurrentCount)
	}
	if progress := engine.PityProgress("p1"); progress.CurrentCount != 9 {
		t.Fatalf("p1 window = %d, want 9", progress.CurrentCount)
	}
}

func TestRollMultipleRejectsNonPositiveCount(t *testing.T) {
	engine := newTestEngine(t, constSource{0})
	for _, count := range []int{0, -3} {
		_, err := engine.RollMultiple("p1", count)
		if !errors.Is(err, ErrInvalidArgument) {
			t.Fatalf("count %d: expected ErrInvalidArgument, got %v", count, err)
		}
	}
}

func TestRollMultipleAdvancesPityOnce(t *testing.T) {
	engine := newTestEngine(t, constSource{0})
	results, err := engine.RollMultiple("p1", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 10 {
		t.Fatalf("got %d results, want 10", len(results))
	}
	if !results[9].PityTriggered {
		t.Fatalf("tenth result in a batch should trigger pity")
	}
}

func TestRollAutoValidation(t *testing.T) {
	engine := newTestEngine(t, constSource{0})
	tests := []struct {
		name string
		cfg  AutoConfig
	}{
		{"zero max rolls", AutoConfig{BatchSize: 5}},
		{"zero batch size", AutoConfig{MaxRolls: 10}},
		{"unknown stop rarity", AutoConfig{MaxRolls: 10, BatchSize: 5, StopAtRarity: "mythic"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := engine.RollAuto("p1", tc.cfg)
			if !errors.Is(err, ErrInvalidArgument) {
				t.Fatalf("expected ErrInvalidArgument, got %v", err)
			}
		})
	}
}

func TestRollAutoStopsAtRarity(t *testing.T) {
	// Third draw is rare; the run must stop there instead of exhausting
	// MaxRolls.
	engine := newTestEngine(t, &sequenceSource{values: []float64{
		0.1, 0.0, // common
		0.1, 0.0, // common
		0.95, 0.0, // rare
		0.1, 0.0,
	}})
	results, err := engine.RollAuto("p1", AutoConfig{
		MaxRolls:     50,
		BatchSize:    5,
		StopAtRarity: catalog.RarityRare,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	if results[2].Rarity != catalog.RarityRare {
		t.Fatalf("final result should be rare, got %s", results[2].Rarity)
	}
}

func TestRollAutoHonorsMaxRolls(t *testing.T) {
	engine := newTestEngine(t, constSource{0})
	results, err := engine.RollAuto("p1", AutoConfig{
		MaxRolls:     7,
		BatchSize:    3,
		StopAtRarity: catalog.RarityEpic,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// The test table never draws epic organically and pity forces rare, so
	// the run exhausts its budget.
	if len(results) != 7 {
		t.Fatalf("got %d results, want 7", len(results))
	}
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	engine := newTestEngine(t, constSource{0})
	for i := 0; i < 4; i++ {
		engine.RollSingle("p1")
	}
	snapshot := engine.SnapshotPity()
	if snapshot["p1"] != 4 {
		t.Fatalf("snapshot count = %d, want 4", snapshot["p1"])
	}

	restored := newTestEngine(t, constSource{0})
	restored.RestorePity(snapshot)
	if progress := restored.PityProgress("p1"); progress.CurrentCount != 4 {
		t.Fatalf("restored count = %d, want 4", progress.CurrentCount)
	}
}

func TestRestoreNormalizesCorruptCounters(t *testing.T) {
	engine := newTestEngine(t, constSource{0})
	engine.RestorePity(map[string]int{"p1": -5})
	if progress := engine.PityProgress("p1"); progress.CurrentCount != 0 {
		t.Fatalf("corrupt counter should normalize to 0, got %d", progress.CurrentCount)
	}
}

func TestSeededSourceReplaysIdenticalRolls(t *testing.T) {
	first := newTestEngine(t, NewSeededSource(42))
	second := newTestEngine(t, NewSeededSource(42))
	for i := 0; i < 40; i++ {
		a := first.RollSingle("p1")
		b := second.RollSingle("p1")
		if a.Rarity != b.Rarity || a.PityTriggered != b.PityTriggered {
			t.Fatalf("roll %d diverged: %+v vs %+v", i, a, b)
		}
		if len(a.Card.Symbols) != 1 || a.Card.Symbols[0] != b.Card.Symbols[0] {
			t.Fatalf("roll %d minted different symbols", i)
		}
	}
}

func TestDropRatesReportsConfiguredDistribution(t *testing.T) {
	engine := newTestEngine(t, constSource{0})
	rates := engine.DropRates()
	if rates.GuaranteedRareAt != 10 {
		t.Fatalf("threshold = %d, want 10", rates.GuaranteedRareAt)
	}
	if rates.PerRarity[catalog.RarityCommon] != 0.6 {
		t.Fatalf("common rate = %v, want 0.6", rates.PerRarity[catalog.RarityCommon])
	}
	// The returned map is a copy.
	rates.PerRarity[catalog.RarityCommon] = 0
	if engine.DropRates().PerRarity[catalog.RarityCommon] != 0.6 {
		t.Fatalf("DropRates leaked internal state")
	}
}
