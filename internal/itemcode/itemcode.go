// Package itemcode parses the compact {prefix:part} item notation used by
// the modding tools and renders its quantity-expanded clipboard form.
package itemcode

import (
	"regexp"
	"strconv"
	"strings"
)

// Quantity bounds for BuildCopyFormat.
const (
	MinQuantity = 1
	MaxQuantity = 999
)

var (
	pairRE   = regexp.MustCompile(`^\s*\{\s*(\d+)\s*:\s*(\d+)\s*\}\s*$`)
	singleRE = regexp.MustCompile(`^\s*\{\s*(\d+)\s*\}\s*$`)
)

// Code is a parsed item code. A single-number code {A} has Prefix == Part.
type Code struct {
	Prefix int `json:"prefix"`
	Part   int `json:"part"`
}

// Parse accepts exactly {A} or {A:B}. Any other shape, or a number that
// does not fit in an int, reports false.
func Parse(text string) (Code, bool) {
	if m := pairRE.FindStringSubmatch(text); m != nil {
		prefix, err1 := strconv.Atoi(m[1])
		part, err2 := strconv.Atoi(m[2])
		if err1 != nil || err2 != nil {
			return Code{}, false
		}
		return Code{Prefix: prefix, Part: part}, true
	}
	if m := singleRE.FindStringSubmatch(text); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return Code{}, false
		}
		return Code{Prefix: n, Part: n}, true
	}
	return Code{}, false
}

// ClampQuantity limits qty to [MinQuantity, MaxQuantity].
func ClampQuantity(qty int) int {
	return max(MinQuantity, min(MaxQuantity, qty))
}

// BuildCopyFormat renders {prefix:[part part ...]} with part repeated qty
// times. The layout is consumed byte-for-byte by external tools.
func BuildCopyFormat(prefix, part, qty int) string {
	q := ClampQuantity(qty)
	p := strconv.Itoa(part)

	var b strings.Builder
	b.Grow(len(p)*q + q + 16)
	b.WriteByte('{')
	b.WriteString(strconv.Itoa(prefix))
	b.WriteString(":[")
	for i := 0; i < q; i++ {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(p)
	}
	b.WriteString("]}")
	return b.String()
}

// CopyPayload returns the clipboard payload for raw: the expanded form when
// raw parses, raw itself (trimmed) when it does not.
func CopyPayload(raw string, qty int) (payload string, parsed bool) {
	c, ok := Parse(raw)
	if !ok {
		return strings.TrimSpace(raw), false
	}
	return BuildCopyFormat(c.Prefix, c.Part, qty), true
}
