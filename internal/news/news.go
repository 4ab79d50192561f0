// Package news serves the announcement text shown on the editor dashboard.
package news

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/skeletor601/BL4-SaveEditor/internal/plugin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// File is the news file looked up in the data directory.
const File = "news.txt"

// DefaultContent is served when neither a news file nor configured content
// exists.
const DefaultContent = `Change themes top right, next to Credits Button.

Welcome to the BL4 AIO Save Editor Web. If you have any problems or need help, message on Discord.
Repo: https://github.com/skeletor601/BL4-SaveEditor`

// Compile-time interface guard.
var _ plugin.Plugin = (*Module)(nil)

// Module is the "news" module.
type Module struct {
	dataDir string
	content string
	logger  *zap.Logger
}

// New creates the news module reading from dataDir.
func New(dataDir string) *Module {
	return &Module{dataDir: dataDir, logger: zap.NewNop()}
}

func (m *Module) Name() string    { return "news" }
func (m *Module) Version() string { return "1.0.0" }

func (m *Module) Init(cfg *viper.Viper, logger *zap.Logger) error {
	m.logger = logger
	if cfg != nil {
		m.content = strings.TrimSpace(cfg.GetString("content"))
	}
	return nil
}

func (m *Module) Start(context.Context) error { return nil }
func (m *Module) Stop() error                 { return nil }

func (m *Module) Routes() []plugin.Route {
	return []plugin.Route{
		{Method: http.MethodGet, Path: "", Handler: m.handleNews},
	}
}

// Content resolves the current news text. The file is re-read on every
// call so operators can edit it without a restart. An unreadable file
// yields the default text, not the configured content.
func (m *Module) Content() string {
	raw, err := os.ReadFile(filepath.Join(m.dataDir, File))
	switch {
	case err == nil:
		return strings.TrimSpace(string(raw))
	case !errors.Is(err, fs.ErrNotExist):
		m.logger.Warn("read news file", zap.Error(err))
		return DefaultContent
	case m.content != "":
		return m.content
	}
	return DefaultContent
}

func (m *Module) handleNews(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"content": m.Content()})
}
