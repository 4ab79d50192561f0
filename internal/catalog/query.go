package catalog

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// QuickFilter narrows results to rows mentioning a damage flavor.
type QuickFilter string

// Quick filters. QuickNone disables the clause.
const (
	QuickNone   QuickFilter = ""
	QuickDamage QuickFilter = "damage"
	QuickCrit   QuickFilter = "crit"
	QuickSplash QuickFilter = "splash"
)

// ParseQuickFilter validates a quick filter name.
func ParseQuickFilter(s string) (QuickFilter, error) {
	switch q := QuickFilter(strings.ToLower(strings.TrimSpace(s))); q {
	case QuickNone, QuickDamage, QuickCrit, QuickSplash:
		return q, nil
	}
	return QuickNone, fmt.Errorf("unknown quick filter %q", s)
}

func (q QuickFilter) match(blob string) bool {
	switch q {
	case QuickDamage:
		return strings.Contains(blob, "damage")
	case QuickCrit:
		return (strings.Contains(blob, "crit") || strings.Contains(blob, "critical")) &&
			strings.Contains(blob, "damage")
	case QuickSplash:
		return strings.Contains(blob, "splash") && strings.Contains(blob, "damage")
	}
	return true
}

// RarityMode selects the rarity ordering applied before column sort.
type RarityMode string

// Rarity sort modes, using the labels the UI offers.
const (
	RarityDefault        RarityMode = "Default"
	RarityLegendaryFirst RarityMode = "Legendary first"
	RarityEpicFirst      RarityMode = "Epic first"
	RarityRareFirst      RarityMode = "Rare first"
	RarityCommonFirst    RarityMode = "Common first"
)

const rarityRankUnknown = 99

// ParseRarityMode accepts a UI label ("Epic first") or a short tier name
// ("epic"). An empty string is RarityDefault.
func ParseRarityMode(s string) (RarityMode, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "default":
		return RarityDefault, nil
	case "legendary", "legendary first":
		return RarityLegendaryFirst, nil
	case "epic", "epic first":
		return RarityEpicFirst, nil
	case "rare", "rare first":
		return RarityRareFirst, nil
	case "common", "common first":
		return RarityCommonFirst, nil
	}
	return RarityDefault, fmt.Errorf("unknown rarity sort %q", s)
}

var rarityRanks = map[string]int{
	RarityLegendary: 0,
	RarityEpic:      1,
	RarityRare:      2,
	RarityUncommon:  3,
	RarityCommon:    4,
}

// RarityRank orders tiers strongest first. Unknown tiers rank last.
func RarityRank(tier string) int {
	if r, ok := rarityRanks[tier]; ok {
		return r
	}
	return rarityRankUnknown
}

// Filters is the user's filter state. It is a value; Apply returns an
// updated copy.
type Filters struct {
	Category      string
	Manufacturer  string
	PartType      string
	FavoritesOnly bool
	Quick         QuickFilter
	SortRarity    RarityMode
}

// DefaultFilters disables every clause.
func DefaultFilters() Filters {
	return Filters{
		Category:     All,
		Manufacturer: All,
		PartType:     All,
		SortRarity:   RarityDefault,
	}
}

// Apply returns f updated with next. Changing the manufacturer resets the
// part type, since part type options are scoped to a manufacturer.
func (f Filters) Apply(next Filters) Filters {
	if next.Manufacturer != f.Manufacturer {
		next.PartType = All
	}
	return next
}

func isAll(v string) bool {
	return v == "" || v == All
}

// Membership answers favorites lookups for the favorites-only clause.
type Membership interface {
	Has(key string) bool
}

// Filter returns the entries matching every clause, preserving input order.
func Filter(entries []*Entry, f Filters, query string, favs Membership) []*Entry {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]*Entry, 0, len(entries))
	for _, e := range entries {
		if matches(e, f, q, favs) {
			out = append(out, e)
		}
	}
	return out
}

func matches(e *Entry, f Filters, q string, favs Membership) bool {
	r := e.Row()
	facets := e.Facets()
	if !isAll(f.Category) && facets.Category != f.Category {
		return false
	}
	if !isAll(f.Manufacturer) && strings.TrimSpace(r.Manufacturer) != f.Manufacturer {
		return false
	}
	if !isAll(f.PartType) && strings.TrimSpace(r.PartType) != f.PartType {
		return false
	}
	if f.FavoritesOnly && (favs == nil || !favs.Has(e.Key())) {
		return false
	}
	if q != "" && !strings.Contains(facets.Blob, q) {
		return false
	}
	return f.Quick.match(facets.Blob)
}

// SortByRarity orders entries by rarity tier. The sort is stable and the
// input slice is left untouched.
//
// In legacy mode every "X first" mode except Common puts the strongest tier
// first, and Common first reverses that; this is what the web client has
// always shown. With legacy off the chosen tier leads and the rest follow
// strongest first.
func SortByRarity(entries []*Entry, mode RarityMode, legacy bool) []*Entry {
	out := make([]*Entry, len(entries))
	copy(out, entries)
	if mode == RarityDefault || mode == "" {
		return out
	}

	rank := func(e *Entry) int { return RarityRank(e.Facets().Rarity) }
	var less func(a, b *Entry) bool
	switch {
	case legacy && mode == RarityCommonFirst:
		less = func(a, b *Entry) bool { return rank(a) > rank(b) }
	case legacy:
		less = func(a, b *Entry) bool { return rank(a) < rank(b) }
	default:
		lead := RarityRank(mode.tier())
		less = func(a, b *Entry) bool {
			ra, rb := rank(a), rank(b)
			if (ra == lead) != (rb == lead) {
				return ra == lead
			}
			return ra < rb
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func (m RarityMode) tier() string {
	switch m {
	case RarityLegendaryFirst:
		return RarityLegendary
	case RarityEpicFirst:
		return RarityEpic
	case RarityRareFirst:
		return RarityRare
	case RarityCommonFirst:
		return RarityCommon
	}
	return RarityUnknown
}

// Column is a sortable table column.
type Column string

// Sortable columns.
const (
	ColumnNone     Column = ""
	ColumnCode     Column = "code"
	ColumnItemType Column = "itemType"
	ColumnRarity   Column = "rarity"
	ColumnPartName Column = "partName"
	ColumnEffect   Column = "effect"
)

// ParseColumn validates a column name.
func ParseColumn(s string) (Column, error) {
	switch c := Column(strings.TrimSpace(s)); c {
	case ColumnNone, ColumnCode, ColumnItemType, ColumnRarity, ColumnPartName, ColumnEffect:
		return c, nil
	}
	return ColumnNone, fmt.Errorf("unknown sort column %q", s)
}

// Direction is a column sort direction.
type Direction string

// Sort directions.
const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// ParseDirection validates a direction. Empty means ascending.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "asc":
		return Asc, nil
	case "desc":
		return Desc, nil
	}
	return Asc, fmt.Errorf("unknown sort direction %q", s)
}

// ColumnSort is the table header sort state.
type ColumnSort struct {
	Column    Column
	Direction Direction
}

// Toggle returns the state after clicking col: the same column flips
// direction, a new column starts ascending.
func (s ColumnSort) Toggle(col Column) ColumnSort {
	if s.Column == col {
		if s.Direction == Desc {
			return ColumnSort{Column: col, Direction: Asc}
		}
		return ColumnSort{Column: col, Direction: Desc}
	}
	return ColumnSort{Column: col, Direction: Asc}
}

func (c Column) project(e *Entry) string {
	r := e.Row()
	switch c {
	case ColumnCode:
		return r.CodeLabel()
	case ColumnItemType:
		return r.ItemType
	case ColumnRarity:
		return e.Facets().Rarity
	case ColumnPartName:
		return r.PartNameLabel()
	case ColumnEffect:
		return r.EffectLabel()
	}
	return ""
}

// SortByColumn orders entries by the projected column text using English
// collation. The sort is stable; ColumnNone returns a copy in input order.
func SortByColumn(entries []*Entry, s ColumnSort) []*Entry {
	out := make([]*Entry, len(entries))
	copy(out, entries)
	if s.Column == ColumnNone {
		return out
	}

	keys := make(map[*Entry]string, len(out))
	for _, e := range out {
		keys[e] = s.Column.project(e)
	}
	// collate.Collator carries a buffer and is not safe for concurrent use.
	col := collate.New(language.English)
	sort.SliceStable(out, func(i, j int) bool {
		c := col.CompareString(keys[out[i]], keys[out[j]])
		if s.Direction == Desc {
			return c > 0
		}
		return c < 0
	})
	return out
}
