// Package favorites keeps the durable set of starred catalog identifiers
// and its portable export document.
package favorites

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/skeletor601/BL4-SaveEditor/internal/kv"
	"github.com/skeletor601/BL4-SaveEditor/internal/metrics"
	"go.uber.org/zap"
)

// SlotKey is the storage slot holding the JSON array of identifiers.
const SlotKey = "bl4_parts_favorites_v2"

// DocumentVersion is the export document version.
const DocumentVersion = 1

// ExportFilename is the suggested file name for exported documents.
const ExportFilename = "bl4-favorites.json"

// Document is the portable export format.
type Document struct {
	Version int      `json:"version"`
	Keys    []string `json:"keys"`
}

// ParseError reports an import document that is not valid JSON or has an
// unsupported shape. The ledger is unchanged when it is returned.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse favorites document: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Set is an immutable snapshot of ledger membership.
type Set map[string]struct{}

// Has reports membership.
func (s Set) Has(key string) bool {
	_, ok := s[key]
	return ok
}

// Ledger is the favorites set, persisted in full on every change.
type Ledger struct {
	mu      sync.Mutex
	keys    map[string]struct{}
	slots   kv.Slots
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewLedger creates an empty ledger over slots. Call Load to read the
// persisted set.
func NewLedger(slots kv.Slots, logger *zap.Logger, m *metrics.Metrics) *Ledger {
	return &Ledger{
		keys:    make(map[string]struct{}),
		slots:   slots,
		logger:  logger,
		metrics: m,
	}
}

// Load replaces membership with the persisted set. A missing slot, a
// storage failure, or a corrupt value all load as empty; failures are
// logged, never returned.
func (l *Ledger) Load(ctx context.Context) Set {
	keys := make(map[string]struct{})

	raw, err := l.slots.Read(ctx, SlotKey)
	switch {
	case errors.Is(err, kv.ErrNotFound):
	case err != nil:
		l.logger.Warn("favorites unreadable, starting empty", zap.Error(err))
	default:
		var list []string
		if err := json.Unmarshal([]byte(raw), &list); err != nil {
			l.logger.Warn("favorites slot corrupt, starting empty", zap.Error(err))
		} else {
			for _, k := range list {
				if k != "" {
					keys[k] = struct{}{}
				}
			}
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.keys = keys
	l.metrics.FavoritesCount(len(keys))
	l.logger.Debug("favorites loaded", zap.Int("count", len(keys)))
	return l.snapshotLocked()
}

// Has reports whether key is a favorite.
func (l *Ledger) Has(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.keys[key]
	return ok
}

// Len returns the number of favorites.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.keys)
}

// Keys returns the favorites sorted.
func (l *Ledger) Keys() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sortedLocked()
}

// Snapshot returns a copy of the current membership.
func (l *Ledger) Snapshot() Set {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshotLocked()
}

// Toggle flips membership of key and persists the whole set. It returns
// the new membership. An empty key is ignored and reports false.
func (l *Ledger) Toggle(ctx context.Context, key string) bool {
	if key == "" {
		return false
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	_, had := l.keys[key]
	if had {
		delete(l.keys, key)
	} else {
		l.keys[key] = struct{}{}
	}
	l.persistLocked(ctx)
	return !had
}

// Export returns the export document. With no subset every favorite is
// included, sorted; otherwise the subset's members in subset order.
func (l *Ledger) Export(subset []string) Document {
	l.mu.Lock()
	defer l.mu.Unlock()

	if subset == nil {
		return Document{Version: DocumentVersion, Keys: l.sortedLocked()}
	}
	keys := make([]string, 0, len(subset))
	seen := make(map[string]struct{}, len(subset))
	for _, k := range subset {
		if _, ok := l.keys[k]; !ok {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	return Document{Version: DocumentVersion, Keys: keys}
}

// Import merges a bare JSON array of keys or a Document into the ledger
// and returns how many keys were new. Entries that are not non-empty
// strings are skipped. Zero added is not an error.
func (l *Ledger) Import(ctx context.Context, data []byte) (int, error) {
	keys, err := parseDocument(data)
	if err != nil {
		return 0, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	added := 0
	for _, k := range keys {
		if _, ok := l.keys[k]; ok {
			continue
		}
		l.keys[k] = struct{}{}
		added++
	}
	if added > 0 {
		l.persistLocked(ctx)
	}
	return added, nil
}

func parseDocument(data []byte) ([]string, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &ParseError{Err: err}
	}

	var list []any
	switch v := doc.(type) {
	case []any:
		list = v
	case map[string]any:
		switch keys := v["keys"].(type) {
		case nil:
		case []any:
			list = keys
		default:
			return nil, &ParseError{Err: fmt.Errorf(`"keys" is %T, not an array`, keys)}
		}
	default:
		return nil, &ParseError{Err: fmt.Errorf("document is %T, not an array or object", doc)}
	}

	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out, nil
}

func (l *Ledger) persistLocked(ctx context.Context) {
	l.metrics.FavoritesCount(len(l.keys))
	b, err := json.Marshal(l.sortedLocked())
	if err != nil {
		l.logger.Error("encode favorites", zap.Error(err))
		return
	}
	if err := l.slots.Write(ctx, SlotKey, string(b)); err != nil {
		l.logger.Warn("persist favorites failed", zap.Error(err))
	}
}

func (l *Ledger) sortedLocked() []string {
	out := make([]string, 0, len(l.keys))
	for k := range l.keys {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (l *Ledger) snapshotLocked() Set {
	s := make(Set, len(l.keys))
	for k := range l.keys {
		s[k] = struct{}{}
	}
	return s
}
