package favorites

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/skeletor601/BL4-SaveEditor/internal/plugin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const maxImportBytes = 1 << 20

// Compile-time interface guard.
var _ plugin.Plugin = (*Module)(nil)

// Module exposes the ledger under /api/favorites.
type Module struct {
	ledger *Ledger
	logger *zap.Logger
}

// New creates the favorites module around an existing ledger, which the
// parts module also reads for favorites-only searches.
func New(ledger *Ledger) *Module {
	return &Module{ledger: ledger, logger: zap.NewNop()}
}

func (m *Module) Name() string    { return "favorites" }
func (m *Module) Version() string { return "1.0.0" }

func (m *Module) Init(_ *viper.Viper, logger *zap.Logger) error {
	m.logger = logger
	return nil
}

// Start loads the persisted favorites.
func (m *Module) Start(ctx context.Context) error {
	set := m.ledger.Load(ctx)
	m.logger.Info("favorites ready", zap.Int("count", len(set)))
	return nil
}

func (m *Module) Stop() error { return nil }

func (m *Module) Routes() []plugin.Route {
	return []plugin.Route{
		{Method: http.MethodGet, Path: "", Handler: m.handleList},
		{Method: http.MethodPost, Path: "/toggle", Handler: m.handleToggle},
		{Method: http.MethodGet, Path: "/export", Handler: m.handleExport},
		{Method: http.MethodPost, Path: "/import", Handler: m.handleImport},
	}
}

// ToggleRequest is the body of POST /api/favorites/toggle.
type ToggleRequest struct {
	Key string `json:"key"`
}

// ToggleResponse reports the key's membership after the toggle.
type ToggleResponse struct {
	Key      string `json:"key"`
	Favorite bool   `json:"favorite"`
}

// ImportResponse reports the outcome of an import.
type ImportResponse struct {
	Added   int    `json:"added"`
	Message string `json:"message"`
}

func (m *Module) handleList(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"keys": m.ledger.Keys()})
}

func (m *Module) handleToggle(w http.ResponseWriter, r *http.Request) {
	var req ToggleRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxImportBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	key := strings.TrimSpace(req.Key)
	if key == "" {
		writeError(w, http.StatusBadRequest, "key is required")
		return
	}
	fav := m.ledger.Toggle(r.Context(), key)
	m.logger.Debug("favorite toggled", zap.String("key", key), zap.Bool("favorite", fav))
	writeJSON(w, http.StatusOK, ToggleResponse{Key: key, Favorite: fav})
}

func (m *Module) handleExport(w http.ResponseWriter, r *http.Request) {
	var subset []string
	if raw, ok := r.URL.Query()["keys"]; ok {
		subset = []string{}
		for _, v := range raw {
			for _, k := range strings.Split(v, ",") {
				if k = strings.TrimSpace(k); k != "" {
					subset = append(subset, k)
				}
			}
		}
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", ExportFilename))
	writeJSON(w, http.StatusOK, m.ledger.Export(subset))
}

func (m *Module) handleImport(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "import document too large")
		return
	}

	added, err := m.ledger.Import(r.Context(), data)
	if err != nil {
		var perr *ParseError
		if errors.As(err, &perr) {
			m.logger.Info("favorites import rejected", zap.Error(err))
			writeError(w, http.StatusBadRequest, "Import failed")
			return
		}
		m.logger.Error("favorites import", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Import failed")
		return
	}

	writeJSON(w, http.StatusOK, ImportResponse{Added: added, Message: ImportMessage(added)})
}

// ImportMessage is the user-facing summary of an import.
func ImportMessage(added int) string {
	if added == 0 {
		return "No new favorites in that file"
	}
	return fmt.Sprintf("Imported %d favorite(s)", added)
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
