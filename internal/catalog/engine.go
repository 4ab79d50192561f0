// Package catalog holds the in-memory parts catalog: derived facets,
// filtering and sorting, source loading, and the parts HTTP module.
package catalog

import (
	"github.com/skeletor601/BL4-SaveEditor/pkg/parts"
)

// Search limits.
const (
	DefaultLimit = 500
	MaxLimit     = 5000
)

// SearchRequest is one query against the catalog.
type SearchRequest struct {
	Query   string
	Filters Filters
	Sort    ColumnSort
	// Limit caps the returned rows. Zero means DefaultLimit; values above
	// MaxLimit are clamped.
	Limit int
}

// Hit is a matched row with its derived attributes.
type Hit struct {
	Row      *parts.Row
	Key      string
	Facets   Facets
	Favorite bool
}

// SearchResult holds the ordered hits. Total counts every match before the
// limit was applied.
type SearchResult struct {
	Total int
	Hits  []Hit
}

// Engine answers searches over a Store snapshot.
type Engine struct {
	store  *Store
	favs   Membership
	legacy bool
}

// NewEngine creates an engine. favs may be nil when favorites are not
// tracked. legacyRarity selects the historical rarity sort behavior.
func NewEngine(store *Store, favs Membership, legacyRarity bool) *Engine {
	return &Engine{store: store, favs: favs, legacy: legacyRarity}
}

// Search filters, rarity-sorts, column-sorts, then limits.
func (e *Engine) Search(req SearchRequest) SearchResult {
	list := Filter(e.store.Snapshot(), req.Filters, req.Query, e.favs)
	list = SortByRarity(list, req.Filters.SortRarity, e.legacy)
	list = SortByColumn(list, req.Sort)

	res := SearchResult{Total: len(list)}
	if n := clampLimit(req.Limit); len(list) > n {
		list = list[:n]
	}
	res.Hits = make([]Hit, len(list))
	for i, en := range list {
		res.Hits[i] = Hit{
			Row:      en.Row(),
			Key:      en.Key(),
			Facets:   en.Facets(),
			Favorite: e.favs != nil && e.favs.Has(en.Key()),
		}
	}
	return res
}

func clampLimit(n int) int {
	switch {
	case n <= 0:
		return DefaultLimit
	case n > MaxLimit:
		return MaxLimit
	}
	return n
}
