package catalog

import (
	"sync"
	"testing"
	"time"

	"github.com/skeletor601/BL4-SaveEditor/internal/testutil"
	"github.com/skeletor601/BL4-SaveEditor/pkg/parts"
)

func optionRows() []*parts.Row {
	return []*parts.Row{
		testutil.NewRow(testutil.WithName("1"), testutil.WithManufacturer("Maliwan"), testutil.WithPartType("Grip")),
		testutil.NewRow(testutil.WithName("2"), testutil.WithManufacturer("Jakobs"), testutil.WithPartType("Barrel")),
		testutil.NewRow(testutil.WithName("3"), testutil.WithManufacturer("Jakobs"), testutil.WithPartType("Body")),
		testutil.NewRow(testutil.WithName("4"), testutil.WithManufacturer(""), testutil.WithPartType("Stock")),
		testutil.NewRow(testutil.WithName("5"), testutil.WithManufacturer("Jakobs"), testutil.WithPartType("Barrel")),
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestStore_Options(t *testing.T) {
	s := NewStore()
	s.Replace(optionRows(), "test")

	if got, want := s.ManufacturerOptions(), []string{"All", "Jakobs", "Maliwan"}; !equalStrings(got, want) {
		t.Errorf("ManufacturerOptions() = %v, want %v", got, want)
	}
	if got, want := s.PartTypeOptions(All), []string{"All", "Barrel", "Body", "Grip", "Stock"}; !equalStrings(got, want) {
		t.Errorf("PartTypeOptions(All) = %v, want %v", got, want)
	}
	if got, want := s.PartTypeOptions("Jakobs"), []string{"All", "Barrel", "Body"}; !equalStrings(got, want) {
		t.Errorf("PartTypeOptions(Jakobs) = %v, want %v", got, want)
	}
	if got, want := s.PartTypeOptions("Nobody"), []string{"All"}; !equalStrings(got, want) {
		t.Errorf("PartTypeOptions(Nobody) = %v, want %v", got, want)
	}
}

func TestStore_ReplaceAndManifest(t *testing.T) {
	clock := testutil.NewClock()
	s := NewStore(WithClock(clock.Now))

	if s.Len() != 0 {
		t.Fatalf("new store Len() = %d", s.Len())
	}

	s.Replace(parts.Sample(), OriginSample)
	m1 := s.Manifest()
	if len(m1.Datasets) != 1 || m1.Datasets[0].Name != "parts" || m1.Datasets[0].Version != "1.0.0" {
		t.Fatalf("Manifest() = %+v", m1)
	}
	if len(m1.Datasets[0].Hash) != 16 {
		t.Errorf("hash %q should be 16 hex chars", m1.Datasets[0].Hash)
	}
	if !m1.Datasets[0].UpdatedAt.Equal(clock.Now()) {
		t.Errorf("UpdatedAt = %v, want %v", m1.Datasets[0].UpdatedAt, clock.Now())
	}
	if s.Origin() != OriginSample || s.Len() != 6 {
		t.Errorf("Origin() = %q, Len() = %d", s.Origin(), s.Len())
	}

	// Same rows hash the same; different rows do not.
	clock.Advance(time.Hour)
	s.Replace(parts.Sample(), "again")
	if got := s.Manifest().Datasets[0].Hash; got != m1.Datasets[0].Hash {
		t.Errorf("hash changed for identical rows: %q vs %q", got, m1.Datasets[0].Hash)
	}
	s.Replace(optionRows(), "other")
	if got := s.Manifest().Datasets[0].Hash; got == m1.Datasets[0].Hash {
		t.Error("hash should change with content")
	}
}

func TestStore_SnapshotIsolation(t *testing.T) {
	s := NewStore()
	s.Replace(optionRows(), "test")
	snap := s.Snapshot()
	snap[0] = nil

	if s.Snapshot()[0] == nil {
		t.Error("Snapshot() exposed internal slice")
	}

	old := s.Snapshot()
	s.Replace(parts.Sample(), OriginSample)
	if len(old) != 5 {
		t.Errorf("earlier snapshot changed length to %d", len(old))
	}
}

func TestStore_ConcurrentReadersAndReload(t *testing.T) {
	s := NewStore()
	s.Replace(parts.Sample(), OriginSample)
	e := NewEngine(s, nil, true)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if i%4 == 0 {
					s.Replace(parts.Sample(), OriginSample)
					continue
				}
				_ = e.Search(SearchRequest{Query: "enhancement"})
			}
		}(i)
	}
	wg.Wait()

	if s.Len() != 6 {
		t.Errorf("Len() = %d after concurrent reloads", s.Len())
	}
}
