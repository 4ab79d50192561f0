// Package parts defines the canonical catalog row and the normalizer that
// builds it from loosely-typed item/part records.
package parts

import (
	"encoding/json"
	"strconv"
	"strings"
)

// SourceRecord is an untyped item/part record as delivered by an API, a
// parts file, or the built-in sample set.
type SourceRecord map[string]any

// Field is a pass-through source field kept for free-text search.
type Field struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Row is the canonical form of a catalog entry. Rows are treated as
// immutable once built; edits produce a new Row.
type Row struct {
	Name         string
	ItemType     string
	PartType     string
	Effect       string
	Code         string
	Category     string
	Manufacturer string
	Rarity       string
	WeaponType   string
	ID           int64
	HasID        bool

	// Extra holds string/number source fields not consumed by the
	// canonical schema, sorted by key.
	Extra []Field
}

// Identifier returns the stable favorites/sort key of the row.
func (r *Row) Identifier() string {
	if name := strings.TrimSpace(r.Name); name != "" {
		return name
	}
	if r.HasID {
		return "id:" + strconv.FormatInt(r.ID, 10)
	}
	b, err := json.Marshal(r.Map())
	if err != nil {
		return ""
	}
	return string(b)
}

// Lookup returns a pass-through field by its original key.
func (r *Row) Lookup(key string) (string, bool) {
	for i := range r.Extra {
		if r.Extra[i].Key == key {
			return r.Extra[i].Value, true
		}
	}
	return "", false
}

// Values returns every exposed field value in a fixed order: canonical
// fields first, then pass-through fields by key.
func (r *Row) Values() []string {
	out := []string{
		r.Name, r.ItemType, r.PartType, r.Effect, r.Code,
		r.Category, "", r.Manufacturer, r.Rarity, r.WeaponType,
	}
	if r.HasID {
		out[6] = strconv.FormatInt(r.ID, 10)
	}
	for i := range r.Extra {
		out = append(out, r.Extra[i].Value)
	}
	return out
}

// Map renders the row as a flat JSON-friendly object. Empty canonical
// fields are omitted.
func (r *Row) Map() map[string]any {
	m := make(map[string]any, 10+len(r.Extra))
	for i := range r.Extra {
		m[r.Extra[i].Key] = r.Extra[i].Value
	}
	set := func(k, v string) {
		if v != "" {
			m[k] = v
		}
	}
	set("partName", r.Name)
	set("itemType", r.ItemType)
	set("partType", r.PartType)
	set("effect", r.Effect)
	set("code", r.Code)
	set("category", r.Category)
	set("manufacturer", r.Manufacturer)
	set("rarity", r.Rarity)
	set("weaponType", r.WeaponType)
	if r.HasID {
		m["id"] = r.ID
	}
	return m
}

// MarshalJSON encodes the row using Map.
func (r *Row) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Map())
}

// CodeLabel is the code column projection: the code, else {id}, else a dash.
func (r *Row) CodeLabel() string {
	if c := strings.TrimSpace(r.Code); c != "" {
		return c
	}
	if r.HasID {
		return "{" + strconv.FormatInt(r.ID, 10) + "}"
	}
	return "—"
}

// PartNameLabel is the part-name column projection. Skin parts are tagged
// with the "rarity" part type in the source catalog, so they get a suffix.
func (r *Row) PartNameLabel() string {
	name := strings.TrimSpace(r.Name)
	if name == "" {
		name = strings.TrimSpace(r.ItemType)
	}
	if name == "" {
		name = "—"
	}
	if r.IsSkin() {
		return name + " Skin"
	}
	return name
}

// EffectLabel is the effect column projection.
func (r *Row) EffectLabel() string {
	if e := strings.TrimSpace(r.Effect); e != "" {
		return e
	}
	return "—"
}

// IsSkin reports whether the row's part type is exactly "rarity".
func (r *Row) IsSkin() bool {
	return strings.ToLower(strings.TrimSpace(r.PartType)) == "rarity"
}
