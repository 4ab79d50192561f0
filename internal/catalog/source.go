package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/skeletor601/BL4-SaveEditor/internal/metrics"
	"github.com/skeletor601/BL4-SaveEditor/pkg/parts"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// OriginSample names the built-in dataset.
const OriginSample = "sample"

// maxSourceBytes bounds a fetched or read parts document.
const maxSourceBytes = 64 << 20

// SourceError reports a catalog source that could not produce rows.
type SourceError struct {
	Source string
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("catalog source %s: %v", e.Source, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// errNoRows is returned when a source parsed but held nothing usable.
var errNoRows = errors.New("no rows")

// Source produces raw parts records.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]parts.SourceRecord, error)
}

// HTTPSource fetches a parts document from a URL.
type HTTPSource struct {
	URL    string
	Client *http.Client
}

// NewHTTPSource creates a source with a bounded client timeout.
func NewHTTPSource(url string, timeout time.Duration) *HTTPSource {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPSource{URL: url, Client: &http.Client{Timeout: timeout}}
}

// Name implements Source.
func (s *HTTPSource) Name() string { return s.URL }

// Fetch implements Source.
func (s *HTTPSource) Fetch(ctx context.Context) ([]parts.SourceRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, http.NoBody)
	if err != nil {
		return nil, &SourceError{Source: s.URL, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, &SourceError{Source: s.URL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &SourceError{Source: s.URL, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxSourceBytes))
	if err != nil {
		return nil, &SourceError{Source: s.URL, Err: fmt.Errorf("read body: %w", err)}
	}
	recs, err := DecodeRecords(data, false)
	if err != nil {
		return nil, &SourceError{Source: s.URL, Err: err}
	}
	return recs, nil
}

// FileSource reads a JSON or YAML parts file.
type FileSource struct {
	Path string
}

// Name implements Source.
func (s *FileSource) Name() string { return s.Path }

// Fetch implements Source. The context is unused; file reads are short.
func (s *FileSource) Fetch(_ context.Context) ([]parts.SourceRecord, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, &SourceError{Source: s.Path, Err: err}
	}
	ext := strings.ToLower(filepath.Ext(s.Path))
	recs, err := DecodeRecords(data, ext == ".yaml" || ext == ".yml")
	if err != nil {
		return nil, &SourceError{Source: s.Path, Err: err}
	}
	return recs, nil
}

// DecodeRecords parses a parts document: a bare array of records or an
// object with an "items" array. JSON numbers are kept as json.Number so
// large IDs survive.
func DecodeRecords(data []byte, isYAML bool) ([]parts.SourceRecord, error) {
	if isYAML {
		return decodeYAML(data)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	return recordsFrom(doc)
}

func decodeYAML(data []byte) ([]parts.SourceRecord, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return recordsFrom(doc)
}

func recordsFrom(doc any) ([]parts.SourceRecord, error) {
	var list []any
	switch v := doc.(type) {
	case []any:
		list = v
	case map[string]any:
		items, ok := v["items"].([]any)
		if !ok {
			return nil, errors.New(`document has no "items" array`)
		}
		list = items
	default:
		return nil, fmt.Errorf("unsupported document type %T", doc)
	}

	out := make([]parts.SourceRecord, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			out = append(out, parts.SourceRecord(m))
		}
	}
	return out, nil
}

// Loader tries each source in order and falls back to the sample dataset.
type Loader struct {
	sources []Source
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewLoader creates a loader. Sources are tried in the given order.
func NewLoader(logger *zap.Logger, m *metrics.Metrics, sources ...Source) *Loader {
	return &Loader{sources: sources, logger: logger, metrics: m}
}

// Load returns the first non-empty row set and its origin. Source failures
// are logged and never returned; the sample dataset is the last resort.
func (l *Loader) Load(ctx context.Context) ([]*parts.Row, string) {
	for _, src := range l.sources {
		rows, err := LoadFrom(ctx, src)
		l.metrics.CatalogLoaded(src.Name(), len(rows), err)
		if err != nil {
			l.logger.Warn("catalog source failed, trying next",
				zap.String("source", src.Name()),
				zap.Error(err),
			)
			continue
		}
		l.logger.Info("catalog loaded",
			zap.String("source", src.Name()),
			zap.Int("rows", len(rows)),
		)
		return rows, src.Name()
	}

	rows := parts.Sample()
	l.metrics.CatalogLoaded(OriginSample, len(rows), nil)
	l.logger.Info("using built-in sample catalog", zap.Int("rows", len(rows)))
	return rows, OriginSample
}

// LoadFrom fetches and normalizes one source. An empty result is an error.
func LoadFrom(ctx context.Context, src Source) ([]*parts.Row, error) {
	recs, err := src.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	rows := parts.NormalizeAll(recs)
	if len(rows) == 0 {
		return nil, &SourceError{Source: src.Name(), Err: errNoRows}
	}
	return rows, nil
}
