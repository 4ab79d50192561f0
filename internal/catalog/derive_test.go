package catalog

import (
	"testing"

	"github.com/skeletor601/BL4-SaveEditor/internal/testutil"
	"github.com/skeletor601/BL4-SaveEditor/pkg/parts"
)

func TestIsLegendary_NormalizesCaseAndPunctuation(t *testing.T) {
	for _, name := range []string{"Hellwalker", "HELLWALKER", "hell-walker", "  Hell Walker!! "} {
		r := testutil.NewRow(testutil.WithName(name), testutil.WithItemType(""))
		if !IsLegendary(r) {
			t.Errorf("IsLegendary(%q) = false, want true", name)
		}
	}
}

func TestIsLegendary_Containment(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"ATL_Enhancement.part_core_atl_sureshot", true}, // catalog id contains a legendary name
		{"King's Gambit", true},
		{"Gambit", true}, // contained in a legendary name
		{"Plain Shotgun Barrel", false},
		{"Shotgun Body", true}, // "Bod" is on the list; short names match inside words
		{"", false},
		{"!!!", false},
	}
	for _, tt := range tests {
		r := testutil.NewRow(testutil.WithName(tt.name), testutil.WithItemType(""))
		if got := IsLegendary(r); got != tt.want {
			t.Errorf("IsLegendary(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestIsLegendary_ItemTypeLabel(t *testing.T) {
	r := testutil.NewRow(testutil.WithName("DAD_Weapon.part_x"), testutil.WithItemType("Rowan's Charge"))
	if !IsLegendary(r) {
		t.Error("legendary item type label should count")
	}
}

func TestIsLegendary_ShortNameInItemType(t *testing.T) {
	// "Bod" is on the legendary list, so a plain "Body" item type matches.
	// Kept for parity with the web client's containment rule.
	r := parts.Normalize(parts.SourceRecord{"partName": "Bonn 91", "itemType": "Body"})
	if !IsLegendary(r) {
		t.Error("IsLegendary = false, want the short-name containment match")
	}
}

func TestIsLegendary_FallbackNameFields(t *testing.T) {
	r := parts.Normalize(parts.SourceRecord{"title": "Bugbear"})
	if !IsLegendary(r) {
		t.Error("title alias should be used as display name")
	}
}

func TestRarityTier(t *testing.T) {
	tests := []struct {
		name string
		row  *parts.Row
		want string
	}{
		{
			name: "legendary name beats common text",
			row:  testutil.NewRow(testutil.WithName("Hellwalker"), testutil.WithEffect("A common body.")),
			want: RarityLegendary,
		},
		{
			name: "epic in item type",
			row:  testutil.NewRow(testutil.WithName("x1"), testutil.WithItemType("Epic Shield")),
			want: RarityEpic,
		},
		{
			name: "uncommon is not common",
			row:  testutil.NewRow(testutil.WithName("x2"), testutil.WithItemType(""), testutil.WithEffect("Uncommon roll")),
			want: RarityUncommon,
		},
		{
			name: "common",
			row:  testutil.NewRow(testutil.WithName("x3"), testutil.WithItemType(""), testutil.WithEffect("COMMON roll")),
			want: RarityCommon,
		},
		{
			name: "rare in part type",
			row:  testutil.NewRow(testutil.WithName("x4"), testutil.WithItemType(""), testutil.WithPartType("Rare Barrel"), testutil.WithEffect("")),
			want: RarityRare,
		},
		{
			name: "unknown",
			row:  testutil.NewRow(testutil.WithName("x5"), testutil.WithItemType(""), testutil.WithEffect("")),
			want: RarityUnknown,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RarityTier(tt.row); got != tt.want {
				t.Errorf("RarityTier() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRarityTier_StatsField(t *testing.T) {
	r := parts.Normalize(parts.SourceRecord{"partName": "x6", "effect": "boom", "Stats": "Epic"})
	if got := RarityTier(r); got != RarityEpic {
		t.Errorf("RarityTier() = %q, want epic", got)
	}
}

func TestDeriveCategory_Priority(t *testing.T) {
	tests := []struct {
		name string
		row  *parts.Row
		want string
	}{
		{"class mod category", testutil.NewRow(testutil.WithCategory("Class Mod"), testutil.WithPartType("Heavy")), CategoryClassMod},
		{"heavy enhancement is enhancement", testutil.NewRow(testutil.WithCategory(""), testutil.WithPartType("Heavy Enhancement"), testutil.WithWeaponType("")), CategoryEnhancement},
		{"shield part type", testutil.NewRow(testutil.WithCategory(""), testutil.WithPartType("Shield"), testutil.WithWeaponType("")), CategoryShield},
		{"grenade category", testutil.NewRow(testutil.WithCategory("Grenade"), testutil.WithPartType("Body")), CategoryGrenade},
		{"repkit", testutil.NewRow(testutil.WithCategory("Repkit"), testutil.WithPartType("")), CategoryRepkit},
		{"launcher weapon", testutil.NewRow(testutil.WithCategory(""), testutil.WithPartType("Barrel"), testutil.WithWeaponType("Rocket Launcher")), CategoryHeavy},
		{"heavy part type", testutil.NewRow(testutil.WithCategory(""), testutil.WithPartType("Heavy Barrel"), testutil.WithWeaponType("")), CategoryHeavy},
		{"sniper", testutil.NewRow(testutil.WithCategory(""), testutil.WithPartType("Barrel"), testutil.WithWeaponType("Sniper")), CategoryWeapon},
		{"any weapon type", testutil.NewRow(testutil.WithCategory(""), testutil.WithPartType("Barrel"), testutil.WithWeaponType("Crossbow")), CategoryWeapon},
		{"unknown", testutil.NewRow(testutil.WithCategory(""), testutil.WithPartType("Barrel"), testutil.WithWeaponType("")), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeriveCategory(tt.row); got != tt.want {
				t.Errorf("DeriveCategory() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSearchBlob(t *testing.T) {
	r := parts.Normalize(parts.SourceRecord{
		"partName": "Golden",
		"partType": "Rarity",
		"ID":       9,
		"Flavor":   "Shiny  ",
	})
	got := SearchBlob(r)
	want := "golden rarity {9} 9 shiny   skin"
	if got != want {
		t.Errorf("SearchBlob() = %q, want %q", got, want)
	}
}

func TestEntry_FacetsMemoized(t *testing.T) {
	r := testutil.NewRow(testutil.WithName("Hellwalker"), testutil.WithWeaponType("Shotgun"))
	e := NewEntry(r)

	f1 := e.Facets()
	if f1.Rarity != RarityLegendary || !f1.Legendary || f1.Category != CategoryWeapon {
		t.Fatalf("Facets() = %+v", f1)
	}
	// Rows are immutable; a changed field must not leak into the memo.
	r.Name = "Plain"
	if f2 := e.Facets(); f2 != f1 {
		t.Errorf("Facets() changed after first call: %+v", f2)
	}
	if e.Key() != "Hellwalker" {
		t.Errorf("Key() = %q, want Hellwalker", e.Key())
	}
}

func TestEntry_LegendaryBadgeFromText(t *testing.T) {
	r := testutil.NewRow(testutil.WithName("Mystery Part"), testutil.WithItemType(""), testutil.WithEffect("Rumored Legendary effect"))
	f := NewEntry(r).Facets()
	if !f.Legendary {
		t.Error("badge should show when row text mentions legendary")
	}
	if f.Rarity != RarityLegendary {
		t.Errorf("Rarity = %q, want legendary from text scan", f.Rarity)
	}
}

func TestEntry_LegendaryWordOutsideScannedFields(t *testing.T) {
	tests := []struct {
		name string
		rec  parts.SourceRecord
	}{
		{"rarity field", parts.SourceRecord{"partName": "Foo Barrel", "effect": "rare roll", "rarity": "Legendary"}},
		{"pass-through field", parts.SourceRecord{"partName": "Foo Barrel", "notes": "legendary drop"}},
		{"manufacturer", parts.SourceRecord{"partName": "Foo Barrel", "manufacturer": "Legendary Arms"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewEntry(parts.Normalize(tt.rec)).Facets()
			if !f.Legendary {
				t.Fatal("Legendary = false, want true")
			}
			if f.Rarity != RarityLegendary {
				t.Errorf("Rarity = %q, want %q", f.Rarity, RarityLegendary)
			}
		})
	}
}

func TestEntry_NonLegendaryKeepsTextTier(t *testing.T) {
	f := NewEntry(parts.Normalize(parts.SourceRecord{"partName": "Foo Barrel", "effect": "rare roll"})).Facets()
	if f.Legendary || f.Rarity != RarityRare {
		t.Errorf("Facets() = %+v, want rare and not legendary", f)
	}
}

func TestSampleFacets(t *testing.T) {
	want := map[string]struct {
		rarity   string
		category string
	}{
		"ATL_Enhancement.part_core_atl_sureshot":     {RarityLegendary, CategoryEnhancement},
		"BOR_Enhancement.part_core_bor_traumabond":   {RarityLegendary, CategoryEnhancement},
		"BOR_Enhancement.part_core_bor_shortcircuit": {RarityLegendary, CategoryEnhancement},
		"DAD_Weapon.part_pistol_bonn91":              {RarityUnknown, CategoryWeapon},
		"ATL_ClassMod.Furnace":                       {RarityLegendary, CategoryClassMod},
		"MAL_Grenade.part_core":                      {RarityUnknown, CategoryGrenade},
	}
	for _, e := range Wrap(parts.Sample()) {
		w, ok := want[e.Key()]
		if !ok {
			t.Errorf("unexpected sample row %q", e.Key())
			continue
		}
		f := e.Facets()
		if f.Rarity != w.rarity || f.Category != w.category {
			t.Errorf("%s: rarity=%q category=%q, want %q %q", e.Key(), f.Rarity, f.Category, w.rarity, w.category)
		}
	}
}

func TestWrap_SkipsNil(t *testing.T) {
	if got := len(Wrap([]*parts.Row{nil, testutil.NewRow()})); got != 1 {
		t.Errorf("Wrap() len = %d, want 1", got)
	}
}
