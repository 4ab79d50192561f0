package catalog

import (
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/skeletor601/BL4-SaveEditor/pkg/parts"
	"golang.org/x/crypto/blake2b"
)

// All is the filter value that disables a facet filter.
const All = "All"

// DatasetMeta describes the loaded dataset for the manifest endpoint.
type DatasetMeta struct {
	Name      string    `json:"name"`
	Version   string    `json:"version"`
	Hash      string    `json:"hash"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Manifest is the response shape of the manifest endpoint.
type Manifest struct {
	Datasets []DatasetMeta `json:"datasets"`
}

// Store holds the fully materialized catalog. Readers get snapshots; a
// reload swaps the whole entry slice.
type Store struct {
	mu        sync.RWMutex
	entries   []*Entry
	origin    string
	hash      string
	updatedAt time.Time
	now       func() time.Time
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithClock sets the time source used for UpdatedAt.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

// NewStore creates an empty Store.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Replace installs a new row set. origin names where the rows came from.
func (s *Store) Replace(rows []*parts.Row, origin string) {
	entries := Wrap(rows)
	hash := datasetHash(rows)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = entries
	s.origin = origin
	s.hash = hash
	s.updatedAt = s.now().UTC()
}

// Snapshot returns the current entries. The slice is a copy; entries are
// shared and read-only.
func (s *Store) Snapshot() []*Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cp := make([]*Entry, len(s.entries))
	copy(cp, s.entries)
	return cp
}

// Rows returns the canonical rows in load order.
func (s *Store) Rows() []*parts.Row {
	entries := s.Snapshot()
	rows := make([]*parts.Row, len(entries))
	for i, e := range entries {
		rows[i] = e.Row()
	}
	return rows
}

// Len returns the number of loaded rows.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Origin returns the source of the current dataset.
func (s *Store) Origin() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.origin
}

// Manifest describes the loaded dataset.
func (s *Store) Manifest() Manifest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Manifest{Datasets: []DatasetMeta{{
		Name:      "parts",
		Version:   "1.0.0",
		Hash:      s.hash,
		UpdatedAt: s.updatedAt,
	}}}
}

// ManufacturerOptions returns "All" followed by the sorted distinct
// manufacturers.
func (s *Store) ManufacturerOptions() []string {
	set := make(map[string]struct{})
	for _, e := range s.Snapshot() {
		if m := strings.TrimSpace(e.Row().Manufacturer); m != "" {
			set[m] = struct{}{}
		}
	}
	return options(set)
}

// PartTypeOptions returns "All" followed by the sorted distinct part types,
// restricted to manufacturer unless it is All.
func (s *Store) PartTypeOptions(manufacturer string) []string {
	set := make(map[string]struct{})
	for _, e := range s.Snapshot() {
		r := e.Row()
		if !isAll(manufacturer) && strings.TrimSpace(r.Manufacturer) != manufacturer {
			continue
		}
		if pt := strings.TrimSpace(r.PartType); pt != "" {
			set[pt] = struct{}{}
		}
	}
	return options(set)
}

func options(set map[string]struct{}) []string {
	out := make([]string, 0, len(set)+1)
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return append([]string{All}, out...)
}

// datasetHash is a short BLAKE2b-256 digest of the canonical rows.
func datasetHash(rows []*parts.Row) string {
	b, err := json.Marshal(rows)
	if err != nil {
		return "unknown"
	}
	sum := blake2b.Sum256(b)
	return hex.EncodeToString(sum[:])[:16]
}
