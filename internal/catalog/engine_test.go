package catalog

import (
	"fmt"
	"testing"

	"github.com/skeletor601/BL4-SaveEditor/internal/testutil"
	"github.com/skeletor601/BL4-SaveEditor/pkg/parts"
)

func newSampleEngine(favs Membership) *Engine {
	s := NewStore()
	s.Replace(parts.Sample(), OriginSample)
	return NewEngine(s, favs, true)
}

func TestEngine_SearchComposesFilterAndSorts(t *testing.T) {
	e := newSampleEngine(nil)

	f := DefaultFilters()
	f.SortRarity = RarityCommonFirst
	res := e.Search(SearchRequest{
		Filters: f,
		Sort:    ColumnSort{Column: ColumnItemType, Direction: Asc},
	})

	if res.Total != 6 || len(res.Hits) != 6 {
		t.Fatalf("Total = %d, hits = %d, want 6", res.Total, len(res.Hits))
	}
	// Column sort runs last and decides the final order.
	want := []string{"Bonn 91", "Furnace", "Maliwan Grenade", "Short Circuit", "Sure Shot", "Trauma Bond"}
	for i, h := range res.Hits {
		if h.Row.ItemType != want[i] {
			t.Errorf("hit %d = %q, want %q", i, h.Row.ItemType, want[i])
		}
	}
}

func TestEngine_SearchRarityOnly(t *testing.T) {
	e := newSampleEngine(nil)
	f := DefaultFilters()
	f.SortRarity = RarityLegendaryFirst

	res := e.Search(SearchRequest{Filters: f})
	for i, h := range res.Hits {
		legendary := h.Facets.Rarity == RarityLegendary
		if i < 4 && !legendary {
			t.Errorf("hit %d (%s) should be legendary", i, h.Key)
		}
		if i >= 4 && legendary {
			t.Errorf("hit %d (%s) should not be legendary", i, h.Key)
		}
	}
}

func TestEngine_SearchFavorites(t *testing.T) {
	favs := memberSet{"DAD_Weapon.part_pistol_bonn91": true}
	e := newSampleEngine(favs)

	f := DefaultFilters()
	f.FavoritesOnly = true
	res := e.Search(SearchRequest{Filters: f})
	if res.Total != 1 || res.Hits[0].Row.ItemType != "Bonn 91" {
		t.Fatalf("favorites search = %+v", res)
	}
	if !res.Hits[0].Favorite {
		t.Error("hit should be flagged favorite")
	}
}

func TestEngine_SearchLimit(t *testing.T) {
	rows := make([]*parts.Row, 0, MaxLimit+10)
	for i := 0; i < MaxLimit+10; i++ {
		rows = append(rows, testutil.NewRow(testutil.WithName(fmt.Sprintf("row-%05d", i))))
	}
	s := NewStore()
	s.Replace(rows, "bulk")
	e := NewEngine(s, nil, true)

	tests := []struct {
		limit int
		want  int
	}{
		{0, DefaultLimit},
		{-3, DefaultLimit},
		{10, 10},
		{MaxLimit * 2, MaxLimit},
	}
	for _, tt := range tests {
		res := e.Search(SearchRequest{Limit: tt.limit})
		if len(res.Hits) != tt.want {
			t.Errorf("Limit %d: hits = %d, want %d", tt.limit, len(res.Hits), tt.want)
		}
		if res.Total != MaxLimit+10 {
			t.Errorf("Limit %d: Total = %d, want %d", tt.limit, res.Total, MaxLimit+10)
		}
	}
}

func TestEngine_EmptyStore(t *testing.T) {
	e := NewEngine(NewStore(), nil, true)
	res := e.Search(SearchRequest{Query: "anything"})
	if res.Total != 0 || len(res.Hits) != 0 {
		t.Errorf("empty store search = %+v", res)
	}
}
