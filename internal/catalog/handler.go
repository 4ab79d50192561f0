package catalog

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/skeletor601/BL4-SaveEditor/internal/itemcode"
	"github.com/skeletor601/BL4-SaveEditor/internal/metrics"
	"github.com/skeletor601/BL4-SaveEditor/internal/plugin"
	"github.com/skeletor601/BL4-SaveEditor/pkg/parts"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const maxUpdateBytes = 32 << 20

// Compile-time interface guard.
var _ plugin.Plugin = (*Module)(nil)

// Module serves the parts catalog under /api/parts.
type Module struct {
	store   *Store
	favs    Membership
	metrics *metrics.Metrics
	logger  *zap.Logger

	engine      *Engine
	secret      string
	sourceURL   string
	file        string
	timeout     time.Duration
	updateLimit *rate.Limiter
}

// New creates the parts module. favs may be nil.
func New(store *Store, favs Membership, m *metrics.Metrics) *Module {
	return &Module{
		store:   store,
		favs:    favs,
		metrics: m,
		logger:  zap.NewNop(),
		engine:  NewEngine(store, favs, true),
	}
}

func (m *Module) Name() string    { return "parts" }
func (m *Module) Version() string { return "1.0.0" }

func (m *Module) Init(cfg *viper.Viper, logger *zap.Logger) error {
	m.logger = logger
	if cfg == nil {
		cfg = viper.New()
	}
	m.secret = cfg.GetString("admin_secret")
	m.sourceURL = cfg.GetString("source_url")
	m.file = cfg.GetString("file")
	m.timeout = cfg.GetDuration("fetch_timeout")
	m.engine = NewEngine(m.store, m.favs, !cfg.GetBool("strict_rarity_priority"))

	perMinute := cfg.GetInt("updates_per_minute")
	if perMinute <= 0 {
		perMinute = 6
	}
	m.updateLimit = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute)

	if m.secret == "" {
		logger.Warn("admin secret not set; catalog updates are unauthenticated")
	}
	return nil
}

// Start performs the initial catalog load unless rows are already present.
func (m *Module) Start(ctx context.Context) error {
	if m.store.Len() > 0 {
		return nil
	}
	rows, origin := m.loader().Load(ctx)
	m.store.Replace(rows, origin)
	return nil
}

func (m *Module) Stop() error { return nil }

func (m *Module) loader() *Loader {
	var sources []Source
	if m.file != "" {
		sources = append(sources, &FileSource{Path: m.file})
	}
	if m.sourceURL != "" {
		sources = append(sources, NewHTTPSource(m.sourceURL, m.timeout))
	}
	return NewLoader(m.logger, m.metrics, sources...)
}

func (m *Module) Routes() []plugin.Route {
	return []plugin.Route{
		{Method: http.MethodGet, Path: "/data", Handler: m.handleData},
		{Method: http.MethodGet, Path: "/manifest", Handler: m.handleManifest},
		{Method: http.MethodGet, Path: "/search", Handler: m.handleSearch},
		{Method: http.MethodGet, Path: "/options", Handler: m.handleOptions},
		{Method: http.MethodPost, Path: "/copy-format", Handler: m.handleCopyFormat},
		{Method: http.MethodPost, Path: "/update", Handler: m.handleUpdate},
	}
}

// SearchItem is one row of a search response.
type SearchItem struct {
	Key       string     `json:"key"`
	Item      *parts.Row `json:"item"`
	Rarity    string     `json:"rarity"`
	Legendary bool       `json:"legendary"`
	Category  string     `json:"category"`
	Favorite  bool       `json:"favorite"`
	CodeLabel string     `json:"codeLabel"`
	PartLabel string     `json:"partNameLabel"`
}

// SearchResponse is the body of GET /api/parts/search.
type SearchResponse struct {
	Total int          `json:"total"`
	Count int          `json:"count"`
	Items []SearchItem `json:"items"`
}

// OptionsResponse lists filter dropdown values.
type OptionsResponse struct {
	Categories    []string `json:"categories"`
	Manufacturers []string `json:"manufacturers"`
	PartTypes     []string `json:"partTypes"`
}

// CopyRequest is the body of POST /api/parts/copy-format.
type CopyRequest struct {
	Code string `json:"code"`
	Qty  int    `json:"qty"`
}

// CopyResponse carries the clipboard payload.
type CopyResponse struct {
	Payload string `json:"payload"`
	Parsed  bool   `json:"parsed"`
}

// UpdateRequest is the body of POST /api/parts/update.
type UpdateRequest struct {
	Secret string               `json:"secret"`
	Items  []parts.SourceRecord `json:"items"`
}

func (m *Module) handleData(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"items": m.store.Rows()})
}

func (m *Module) handleManifest(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, m.store.Manifest())
}

// ParseSearchRequest builds a SearchRequest from URL query parameters.
func ParseSearchRequest(q map[string][]string) (SearchRequest, error) {
	get := func(k string) string {
		if v := q[k]; len(v) > 0 {
			return strings.TrimSpace(v[0])
		}
		return ""
	}

	f := DefaultFilters()
	if v := get("category"); v != "" {
		f.Category = v
	}
	if v := get("manufacturer"); v != "" {
		f.Manufacturer = v
	}
	if v := get("partType"); v != "" {
		f.PartType = v
	}
	if v := get("favorites"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return SearchRequest{}, err
		}
		f.FavoritesOnly = b
	}

	var err error
	if f.Quick, err = ParseQuickFilter(get("quick")); err != nil {
		return SearchRequest{}, err
	}
	if f.SortRarity, err = ParseRarityMode(get("sortRarity")); err != nil {
		return SearchRequest{}, err
	}

	var sort ColumnSort
	if sort.Column, err = ParseColumn(get("sort")); err != nil {
		return SearchRequest{}, err
	}
	if sort.Direction, err = ParseDirection(get("dir")); err != nil {
		return SearchRequest{}, err
	}

	req := SearchRequest{Query: get("q"), Filters: f, Sort: sort}
	if v := get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return SearchRequest{}, strconv.ErrSyntax
		}
		req.Limit = n
	}
	return req, nil
}

func (m *Module) handleSearch(w http.ResponseWriter, r *http.Request) {
	req, err := ParseSearchRequest(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid search parameters: "+err.Error())
		return
	}

	res := m.engine.Search(req)
	m.metrics.SearchServed()

	items := make([]SearchItem, len(res.Hits))
	for i, h := range res.Hits {
		items[i] = SearchItem{
			Key:       h.Key,
			Item:      h.Row,
			Rarity:    h.Facets.Rarity,
			Legendary: h.Facets.Legendary,
			Category:  h.Facets.Category,
			Favorite:  h.Favorite,
			CodeLabel: h.Row.CodeLabel(),
			PartLabel: h.Row.PartNameLabel(),
		}
	}
	writeJSON(w, http.StatusOK, SearchResponse{Total: res.Total, Count: len(items), Items: items})
}

func (m *Module) handleOptions(w http.ResponseWriter, r *http.Request) {
	manufacturer := strings.TrimSpace(r.URL.Query().Get("manufacturer"))
	if manufacturer == "" {
		manufacturer = All
	}
	writeJSON(w, http.StatusOK, OptionsResponse{
		Categories:    append([]string{All}, Categories...),
		Manufacturers: m.store.ManufacturerOptions(),
		PartTypes:     m.store.PartTypeOptions(manufacturer),
	})
}

func (m *Module) handleCopyFormat(w http.ResponseWriter, r *http.Request) {
	var req CopyRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Code) == "" {
		writeError(w, http.StatusBadRequest, "code is required")
		return
	}
	payload, parsed := itemcode.CopyPayload(req.Code, req.Qty)
	writeJSON(w, http.StatusOK, CopyResponse{Payload: payload, Parsed: parsed})
}

func (m *Module) handleUpdate(w http.ResponseWriter, r *http.Request) {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxUpdateBytes))
	dec.UseNumber()
	var req UpdateRequest
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if m.secret != "" && subtle.ConstantTimeCompare([]byte(req.Secret), []byte(m.secret)) != 1 {
		m.logger.Warn("catalog update rejected", zap.String("remote", r.RemoteAddr))
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if m.updateLimit != nil && !m.updateLimit.Allow() {
		writeError(w, http.StatusTooManyRequests, "catalog update rate limit exceeded")
		return
	}

	if len(req.Items) > 0 {
		rows := parts.NormalizeAll(req.Items)
		m.store.Replace(rows, "upload")
		m.metrics.CatalogLoaded("upload", len(rows), nil)
		m.logger.Info("catalog replaced from upload", zap.Int("rows", len(rows)))
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "count": len(rows)})
		return
	}

	if m.sourceURL != "" {
		rows, err := LoadFrom(r.Context(), NewHTTPSource(m.sourceURL, m.timeout))
		m.metrics.CatalogLoaded(m.sourceURL, len(rows), err)
		if err != nil {
			m.logger.Warn("catalog refresh failed", zap.Error(err))
			writeError(w, http.StatusBadGateway, "catalog source unavailable")
			return
		}
		m.store.Replace(rows, m.sourceURL)
		m.logger.Info("catalog refreshed from source", zap.Int("rows", len(rows)))
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "count": len(rows)})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"message": "No payload; configure a source URL or POST body items to update.",
	})
}

// -- helpers --

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"type":   "https://bl4editor.dev/problems/" + strings.ReplaceAll(strings.ToLower(http.StatusText(status)), " ", "-"),
		"title":  http.StatusText(status),
		"status": status,
		"detail": detail,
	})
}
