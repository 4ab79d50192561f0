package parts

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_AliasSets(t *testing.T) {
	tests := []struct {
		name string
		raw  SourceRecord
	}{
		{
			name: "api camelCase",
			raw:  SourceRecord{"partName": "Hellwalker", "itemType": "Shotgun", "partType": "Body", "effect": "fire", "code": "{12:3}"},
		},
		{
			name: "snake_case",
			raw:  SourceRecord{"part_name": "Hellwalker", "item_type": "Shotgun", "part_type": "Body", "stats": "fire", "Code": "{12:3}"},
		},
		{
			name: "sample catalog columns",
			raw:  SourceRecord{"String": "Hellwalker", "Model Name": "Shotgun", "Part Type": "Body", "Stats (Level 50, Common)": "fire", "code": "{12:3}"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Normalize(tt.raw)
			assert.Equal(t, "Hellwalker", r.Name)
			assert.Equal(t, "Shotgun", r.ItemType)
			assert.Equal(t, "Body", r.PartType)
			assert.Equal(t, "fire", r.Effect)
			assert.Equal(t, "{12:3}", r.Code)
			assert.Equal(t, "Hellwalker", r.Identifier())
		})
	}
}

func TestNormalize_FirstNonEmptyAliasWins(t *testing.T) {
	r := Normalize(SourceRecord{
		"partName": "   ",
		"String":   "  Bonn 91 ",
		"name":     "ignored",
	})
	assert.Equal(t, "Bonn 91", r.Name)

	// Unused aliases still pass through for search.
	v, ok := r.Lookup("name")
	require.True(t, ok)
	assert.Equal(t, "ignored", v)
	_, ok = r.Lookup("String")
	assert.False(t, ok, "consumed alias should not be duplicated")
}

func TestNormalize_IDAndCodeSynthesis(t *testing.T) {
	r := Normalize(SourceRecord{"ID": 284})
	require.True(t, r.HasID)
	assert.Equal(t, int64(284), r.ID)
	assert.Equal(t, "{284}", r.Code)
	assert.Equal(t, "id:284", r.Identifier())

	r = Normalize(SourceRecord{"id": float64(7), "code": "{7:1}"})
	assert.Equal(t, "{7:1}", r.Code)

	r = Normalize(SourceRecord{"id": "not-a-number"})
	assert.False(t, r.HasID)
	assert.Equal(t, "", r.Code)

	r = Normalize(SourceRecord{"id": 2.5})
	assert.False(t, r.HasID)
}

func TestNormalize_JSONNumbers(t *testing.T) {
	dec := json.NewDecoder(strings.NewReader(`{"ID": 55, "level": 50}`))
	dec.UseNumber()
	var raw SourceRecord
	require.NoError(t, dec.Decode(&raw))

	r := Normalize(raw)
	assert.True(t, r.HasID)
	assert.Equal(t, int64(55), r.ID)
	v, ok := r.Lookup("level")
	require.True(t, ok)
	assert.Equal(t, "50", v)
}

func TestNormalize_PassThrough(t *testing.T) {
	r := Normalize(SourceRecord{
		"partName": "Sure Shot",
		"Rarity":   "Legendary",
		"tier":     3,
		"nested":   map[string]any{"a": 1},
		"list":     []any{"x"},
		"flag":     true,
		"_blob":    "stale cache",
		"__hot":    "x",
	})

	assert.Equal(t, "Legendary", r.Rarity)
	v, ok := r.Lookup("tier")
	require.True(t, ok)
	assert.Equal(t, "3", v)
	for _, k := range []string{"nested", "list", "flag", "_blob", "__hot"} {
		_, ok := r.Lookup(k)
		assert.False(t, ok, "key %q should be dropped", k)
	}
}

func TestNormalize_PartTypeFallsBackToCategory(t *testing.T) {
	r := Normalize(SourceRecord{"partName": "x", "category": "Shield"})
	assert.Equal(t, "Shield", r.PartType)
	assert.Equal(t, "Shield", r.Category)
}

func TestIdentifier_Deterministic(t *testing.T) {
	raw := SourceRecord{"flavor": "spicy", "level": 9}
	a := Normalize(raw).Identifier()
	b := Normalize(raw).Identifier()
	assert.NotEmpty(t, a)
	assert.Equal(t, a, b)
}

func TestRow_Labels(t *testing.T) {
	r := Normalize(SourceRecord{"partName": "Golden", "partType": "Rarity"})
	assert.Equal(t, "Golden Skin", r.PartNameLabel())
	assert.True(t, r.IsSkin())
	assert.Equal(t, "—", r.EffectLabel())
	assert.Equal(t, "—", r.CodeLabel())

	r = Normalize(SourceRecord{"Model Name": "Bonn 91", "ID": 55})
	assert.Equal(t, "Bonn 91", r.PartNameLabel())
	assert.Equal(t, "{55}", r.CodeLabel())
}

func TestSample(t *testing.T) {
	rows := Sample()
	require.Len(t, rows, 6)
	assert.Equal(t, "ATL_Enhancement.part_core_atl_sureshot", rows[0].Identifier())
	assert.Equal(t, "Sure Shot", rows[0].ItemType)
	assert.Equal(t, "{284:1}", rows[0].Code)

	// Callers get their own slice.
	rows[0] = nil
	assert.NotNil(t, Sample()[0])
}
