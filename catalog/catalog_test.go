package catalog

import (
	"strings"
	"testing"
)

func validTestDefinition() Definition {
	return Definition{
		Symbol:     "🧪",
		Damage:     10,
		Speed:      5,
		Trajectory: TrajectoryStraight,
		Category:   CategoryDirect,
		Rarity:     RarityCommon,
	}
}

func TestDefaultCatalogIsValid(t *testing.T) {
	cat := Default()
	if cat.Len() == 0 {
		t.Fatalf("expected built-in catalog to have entries")
	}
	def, ok := cat.Lookup("🔥")
	if !ok {
		t.Fatalf("expected 🔥 in the built-in catalog")
	}
	if def.Trajectory != TrajectoryStraight {
		t.Fatalf("unexpected trajectory for 🔥: %s", def.Trajectory)
	}
	if len(def.Statuses) == 0 {
		t.Fatalf("expected 🔥 to carry a burn status")
	}
}

func TestNewRejectsInvalidDefinitions(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Definition)
		wantErr string
	}{
		{
			name:    "missing symbol",
			mutate:  func(d *Definition) { d.Symbol = "" },
			wantErr: "missing symbol",
		},
		{
			name:    "negative damage",
			mutate:  func(d *Definition) { d.Damage = -1 },
			wantErr: "negative damage",
		},
		{
			name:    "zero speed",
			mutate:  func(d *Definition) { d.Speed = 0 },
			wantErr: "non-positive speed",
		},
		{
			name:    "unknown trajectory",
			mutate:  func(d *Definition) { d.Trajectory = "zigzag" },
			wantErr: "unknown trajectory",
		},
		{
			name:    "unknown category",
			mutate:  func(d *Definition) { d.Category = "magic" },
			wantErr: "unknown category",
		},
		{
			name:    "unknown rarity",
			mutate:  func(d *Definition) { d.Rarity = "mythic" },
			wantErr: "unknown rarity",
		},
		{
			name: "proc chance above one",
			mutate: func(d *Definition) {
				d.Statuses = []StatusSpec{{Kind: StatusBurn, ProcChance: 1.5}}
			},
			wantErr: "proc chance",
		},
		{
			name: "status without kind",
			mutate: func(d *Definition) {
				d.Statuses = []StatusSpec{{ProcChance: 0.5}}
			},
			wantErr: "missing kind",
		},
		{
			name: "unknown trigger",
			mutate: func(d *Definition) {
				d.Statuses = []StatusSpec{{Kind: StatusBurn, Trigger: "on-dodge"}}
			},
			wantErr: "unknown trigger",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			def := validTestDefinition()
			tc.mutate(&def)
			_, err := New([]Definition{def})
			if err == nil {
				t.Fatalf("expected error for %s", tc.name)
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("error %q does not mention %q", err, tc.wantErr)
			}
		})
	}
}

func TestNewRejectsDuplicateSymbols(t *testing.T) {
	def := validTestDefinition()
	_, err := New([]Definition{def, def})
	if err == nil {
		t.Fatalf("expected duplicate symbol error")
	}
	if !strings.Contains(err.Error(), "duplicate symbol") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestResolveSubstitutesFallbackForUnknownSymbols(t *testing.T) {
	cat := Default()
	def := cat.Resolve("🦄")
	if def.Symbol != "🦄" {
		t.Fatalf("resolved definition should keep the queried symbol, got %q", def.Symbol)
	}
	fallback := cat.Fallback()
	if def.Damage != fallback.Damage || def.Speed != fallback.Speed {
		t.Fatalf("resolved definition should use fallback stats: got %+v", def)
	}
	if def.Trajectory != fallback.Trajectory {
		t.Fatalf("resolved definition should use fallback trajectory: got %s", def.Trajectory)
	}
}

func TestResolveReturnsCataloguedEntryUnchanged(t *testing.T) {
	cat := Default()
	want, _ := cat.Lookup("⚡")
	got := cat.Resolve("⚡")
	if got.Damage != want.Damage || got.Symbol != want.Symbol {
		t.Fatalf("resolve altered a catalogued entry: got %+v want %+v", got, want)
	}
}

func TestSymbolsByRarityReturnsCopy(t *testing.T) {
	cat := Default()
	symbols := cat.SymbolsByRarity(RarityCommon)
	if len(symbols) == 0 {
		t.Fatalf("expected common symbols in the built-in catalog")
	}
	symbols[0] = "tampered"
	fresh := cat.SymbolsByRarity(RarityCommon)
	if fresh[0] == "tampered" {
		t.Fatalf("SymbolsByRarity leaked internal state")
	}
}

func TestRarityAtLeast(t *testing.T) {
	tests := []struct {
		r    Rarity
		min  Rarity
		want bool
	}{
		{RarityCommon, RarityRare, false},
		{RarityRare, RarityRare, true},
		{RarityEpic, RarityRare, true},
		{RarityUncommon, RarityCommon, true},
		{RarityCommon, RarityEpic, false},
	}
	for _, tc := range tests {
		if got := tc.r.AtLeast(tc.min); got != tc.want {
			t.Errorf("%s.AtLeast(%s) = %v, want %v", tc.r, tc.min, got, tc.want)
		}
	}
}
