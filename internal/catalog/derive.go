package catalog

import (
	"regexp"
	"strings"
	"sync"

	"github.com/skeletor601/BL4-SaveEditor/pkg/parts"
)

// Rarity tiers, strongest first. An empty tier means unknown.
const (
	RarityLegendary = "legendary"
	RarityEpic      = "epic"
	RarityRare      = "rare"
	RarityUncommon  = "uncommon"
	RarityCommon    = "common"
	RarityUnknown   = ""
)

// Coarse categories. The empty string means the row could not be placed.
const (
	CategoryClassMod    = "Class Mod"
	CategoryEnhancement = "Enhancement"
	CategoryShield      = "Shield"
	CategoryGrenade     = "Grenade"
	CategoryRepkit      = "Repkit"
	CategoryHeavy       = "Heavy"
	CategoryWeapon      = "Weapon"
)

// Categories lists the filterable categories in display order.
var Categories = []string{
	CategoryWeapon, CategoryShield, CategoryClassMod, CategoryEnhancement,
	CategoryGrenade, CategoryRepkit, CategoryHeavy,
}

// rarityScanOrder is the priority in which tier words are looked for.
// "uncommon" precedes "common" because it contains it.
var rarityScanOrder = []string{RarityLegendary, RarityEpic, RarityRare, RarityUncommon, RarityCommon}

// legendaryNames is the curated list of known legendary item names.
var legendaryNames = []string{
	"Aegon's Dream", "Bloody Lumberjack", "Bonnie and Clyde", "Bugbear", "Chuck", "Cold Shoulder",
	"Divided Focus", "First Impression", "G.M.R", "Goalkeeper", "Lucian's Flank", "Murmur", "Oscar Mike",
	"Potato Thrower IV", "Rowan's Charge", "Rowdy Rider", "Star Helix", "Whiskey Foxtrot", "Wombo Combo",
	"Budget Deity", "Bully", "Hardpoint", "Inscriber", "King's Gambit", "Lucky Clover", "Noisy Cricket",
	"Phantom Flame", "Queen's Rest", "Rangefinder", "Roach", "Ruby's Grasp", "San Saba Songbird",
	"Seventh Sense", "Sideshow", "Zipper", "Acey May", "Anarchy", "Bod", "Convergence", "Forsaken Chaos",
	"Golden God", "Goremaster", "Hellwalker", "Hot Slugger", "Husky Friend", "Kaleidosplode", "Kickballer",
	"Lead Balloon", "Linebacker", "Mantra", "Missilaser", "Rainbow Vomit", "Sweet Embrace", "T.K's Wave",
	"Sure Shot", "Trauma Bond", "Short Circuit", "Furnace", "Blacksmith", "Shatterwight",
}

// legendarySet holds the normalized allow-list; legendaryList keeps a stable
// iteration order for the containment scan.
var legendarySet, legendaryList = buildLegendarySet(legendaryNames)

var (
	heavyWeaponRE = regexp.MustCompile(`heavy|launcher|ordnance`)
	gunWeaponRE   = regexp.MustCompile(`assault|rifle|pistol|smg|shotgun|sniper`)
)

func buildLegendarySet(names []string) (map[string]struct{}, []string) {
	set := make(map[string]struct{}, len(names))
	list := make([]string, 0, len(names))
	for _, n := range names {
		k := normalizeName(n)
		if k == "" {
			continue
		}
		if _, dup := set[k]; dup {
			continue
		}
		set[k] = struct{}{}
		list = append(list, k)
	}
	return set, list
}

// normalizeName lowercases s and strips everything outside [a-z0-9].
func normalizeName(s string) string {
	s = strings.ToLower(s)
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// legendaryName reports whether name matches the allow-list exactly or by
// containment in either direction.
func legendaryName(name string) bool {
	n := normalizeName(name)
	if n == "" {
		return false
	}
	if _, ok := legendarySet[n]; ok {
		return true
	}
	for _, l := range legendaryList {
		if strings.Contains(n, l) || strings.Contains(l, n) {
			return true
		}
	}
	return false
}

// IsLegendary reports whether the row names a known legendary item. The
// display name is checked first, then the item type label, which is where
// the source catalog carries the marketing name.
func IsLegendary(r *parts.Row) bool {
	return legendaryName(r.Name) || legendaryName(r.ItemType)
}

// RarityTier infers the rarity tier. A legendary name always wins over
// weaker textual hints.
func RarityTier(r *parts.Row) string {
	if IsLegendary(r) {
		return RarityLegendary
	}
	stats, _ := r.Lookup("Stats")
	h := strings.ToLower(strings.Join([]string{r.ItemType, r.PartType, r.Effect, r.Name, stats}, " "))
	for _, tier := range rarityScanOrder {
		if strings.Contains(h, tier) {
			return tier
		}
	}
	return RarityUnknown
}

// DeriveCategory buckets a row. The order is policy: a "heavy enhancement"
// is an Enhancement, not a Heavy.
func DeriveCategory(r *parts.Row) string {
	wt := strings.ToLower(r.WeaponType)
	pt := strings.ToLower(r.PartType)
	cat := strings.ToLower(r.Category)

	switch {
	case strings.Contains(cat, "class mod"):
		return CategoryClassMod
	case strings.Contains(cat, "enhancement") || strings.Contains(pt, "enhancement"):
		return CategoryEnhancement
	case strings.Contains(cat, "shield") || strings.Contains(pt, "shield"):
		return CategoryShield
	case strings.Contains(cat, "grenade") || strings.Contains(pt, "grenade"):
		return CategoryGrenade
	case strings.Contains(cat, "repkit") || strings.Contains(pt, "repkit"):
		return CategoryRepkit
	case heavyWeaponRE.MatchString(wt) || strings.Contains(pt, "heavy"):
		return CategoryHeavy
	case gunWeaponRE.MatchString(wt) || wt != "":
		return CategoryWeapon
	}
	return ""
}

// SearchBlob is the lowercase concatenation of every non-blank field value.
func SearchBlob(r *parts.Row) string {
	values := r.Values()
	out := make([]string, 0, len(values)+1)
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	if r.IsSkin() {
		out = append(out, "skin")
	}
	return strings.ToLower(strings.Join(out, " "))
}

// Facets are the derived, read-only attributes of a row. Legendary is the
// badge flag: a legendary name, or the word "legendary" anywhere in the row.
// A legendary row always carries the legendary rarity tier.
type Facets struct {
	Rarity    string
	Legendary bool
	Category  string
	Blob      string
}

// Entry pairs a row with its lazily computed facets. The memo belongs to
// this Entry; a replaced row gets a new Entry and a fresh computation.
type Entry struct {
	row    *parts.Row
	key    string
	once   sync.Once
	facets Facets
}

// NewEntry wraps a row.
func NewEntry(r *parts.Row) *Entry {
	return &Entry{row: r, key: r.Identifier()}
}

// Row returns the wrapped canonical row.
func (e *Entry) Row() *parts.Row { return e.row }

// Key returns the row identifier.
func (e *Entry) Key() string { return e.key }

// Facets computes the derived attributes on first call and caches them.
func (e *Entry) Facets() Facets {
	e.once.Do(func() {
		blob := SearchBlob(e.row)
		legendary := IsLegendary(e.row) || strings.Contains(blob, RarityLegendary)
		rarity := RarityLegendary
		if !legendary {
			rarity = RarityTier(e.row)
		}
		e.facets = Facets{
			Rarity:    rarity,
			Legendary: legendary,
			Category:  DeriveCategory(e.row),
			Blob:      blob,
		}
	})
	return e.facets
}

// Wrap builds entries for a batch of rows.
func Wrap(rows []*parts.Row) []*Entry {
	out := make([]*Entry, 0, len(rows))
	for _, r := range rows {
		if r == nil {
			continue
		}
		out = append(out, NewEntry(r))
	}
	return out
}
