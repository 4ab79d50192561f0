package parts

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Accepted key spellings per canonical field, in probe order.
var (
	nameKeys         = []string{"partName", "part_name", "Part Name", "String", "name", "title"}
	itemTypeKeys     = []string{"itemType", "item_type", "Item Type", "Model Name", "model_name"}
	partTypeKeys     = []string{"partType", "part_type", "Part Type"}
	effectKeys       = []string{"effect", "Effect", "Stats (Level 50, Common)", "stats", "Stats", "Effects"}
	codeKeys         = []string{"code", "Code"}
	categoryKeys     = []string{"category", "Category"}
	rarityKeys       = []string{"rarity", "Rarity"}
	manufacturerKeys = []string{"manufacturer", "Manufacturer"}
	weaponTypeKeys   = []string{"weaponType", "Weapon Type", "weapon_type"}
	idKeys           = []string{"id", "ID"}
)

// reservedKeys are cache slots of older clients; never copied into a row.
var reservedKeys = map[string]bool{"_blob": true, "__hot": true}

// Normalize converts a source record into a canonical Row. Missing fields
// become empty strings; nested values are dropped.
func Normalize(raw SourceRecord) *Row {
	used := make(map[string]bool, 12)
	pick := func(keys []string) string {
		for _, k := range keys {
			v, ok := raw[k]
			if !ok || v == nil {
				continue
			}
			s, ok := scalarString(v)
			if !ok {
				continue
			}
			if s = strings.TrimSpace(s); s != "" {
				used[k] = true
				return s
			}
		}
		return ""
	}

	r := &Row{
		Name:         pick(nameKeys),
		ItemType:     pick(itemTypeKeys),
		PartType:     pick(partTypeKeys),
		Effect:       pick(effectKeys),
		Code:         pick(codeKeys),
		Category:     pick(categoryKeys),
		Rarity:       pick(rarityKeys),
		Manufacturer: pick(manufacturerKeys),
		WeaponType:   pick(weaponTypeKeys),
	}
	if r.PartType == "" {
		r.PartType = r.Category
	}

	for _, k := range idKeys {
		if id, ok := numericID(raw[k]); ok {
			r.ID, r.HasID = id, true
			used[k] = true
			break
		}
	}
	if r.Code == "" && r.HasID {
		r.Code = "{" + strconv.FormatInt(r.ID, 10) + "}"
	}

	keys := make([]string, 0, len(raw))
	for k := range raw {
		if used[k] || reservedKeys[k] {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		s, ok := scalarString(raw[k])
		if !ok {
			continue
		}
		r.Extra = append(r.Extra, Field{Key: k, Value: s})
	}
	return r
}

// NormalizeAll normalizes a batch of records, preserving order.
func NormalizeAll(records []SourceRecord) []*Row {
	rows := make([]*Row, 0, len(records))
	for _, rec := range records {
		rows = append(rows, Normalize(rec))
	}
	return rows
}

// scalarString renders strings and numbers; anything else reports false.
func scalarString(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case json.Number:
		return x.String(), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32), true
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(x), true
	default:
		return "", false
	}
}

// numericID accepts integer-valued numbers only.
func numericID(v any) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case uint32:
		return int64(x), true
	case uint64:
		if x > math.MaxInt64 {
			return 0, false
		}
		return int64(x), true
	case float64:
		if x != math.Trunc(x) || math.IsInf(x, 0) || math.Abs(x) > 1<<53 {
			return 0, false
		}
		return int64(x), true
	case json.Number:
		n, err := x.Int64()
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}
