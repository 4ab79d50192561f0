// Package server hosts the HTTP surface: core routes, module route
// mounting under /api/{module}, and the middleware chain.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/skeletor601/BL4-SaveEditor/internal/metrics"
	"github.com/skeletor601/BL4-SaveEditor/internal/plugin"
	"github.com/skeletor601/BL4-SaveEditor/internal/version"
	"go.uber.org/zap"
)

// Options configures a Server.
type Options struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CORSOrigins  []string

	// DataDir holds version_info.txt.
	DataDir string
	// App is the release info served when version_info.txt is absent.
	App version.AppInfo
}

// Server is the editor backend HTTP server.
type Server struct {
	httpServer *http.Server
	registry   *plugin.Registry
	metrics    *metrics.Metrics
	logger     *zap.Logger
	mux        *http.ServeMux
	opts       Options
	now        func() time.Time
}

// New creates a new Server instance. m may be nil.
func New(opts Options, reg *plugin.Registry, m *metrics.Metrics, logger *zap.Logger) *Server {
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = 15 * time.Second
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 60 * time.Second
	}
	mux := http.NewServeMux()

	s := &Server{
		registry: reg,
		metrics:  m,
		logger:   logger,
		mux:      mux,
		opts:     opts,
		now:      time.Now,
	}
	s.httpServer = &http.Server{
		Addr:         opts.Addr,
		Handler:      s.chain(mux),
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	s.registerCoreRoutes()
	s.mountPluginRoutes()

	return s
}

// Handler returns the full handler chain, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// chain wraps h in the middleware stack, outermost first.
func (s *Server) chain(h http.Handler) http.Handler {
	h = s.observe(h)
	h = cors(s.opts.CORSOrigins, h)
	h = s.recoverPanics(h)
	return requestID(h)
}

// registerCoreRoutes sets up routes that are always available.
func (s *Server) registerCoreRoutes() {
	s.mux.HandleFunc("GET /api/health", s.handleHealth)
	s.mux.HandleFunc("GET /api/version", s.handleVersion)
	s.mux.HandleFunc("GET /api/plugins", s.handlePlugins)
	s.mux.Handle("GET /metrics", s.metrics.Handler())
	s.mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		NotFound(w, "no route for "+r.Method+" "+r.URL.Path, r.URL.Path)
	})
}

// mountPluginRoutes registers all plugin routes under /api/{plugin}.
func (s *Server) mountPluginRoutes() {
	allRoutes := s.registry.AllRoutes()
	for pluginName, routes := range allRoutes {
		for _, route := range routes {
			pattern := fmt.Sprintf("%s /api/%s%s", route.Method, pluginName, route.Path)
			s.mux.HandleFunc(pattern, route.Handler)
			s.logger.Debug("mounted route",
				zap.String("plugin", pluginName),
				zap.String("pattern", pattern),
			)
		}
	}
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":        true,
		"timestamp": s.now().UTC().Format(time.RFC3339Nano),
	})
}

func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, version.ReadAppInfo(s.opts.DataDir, s.opts.App))
}

// handlePlugins returns the list of enabled modules.
func (s *Server) handlePlugins(w http.ResponseWriter, _ *http.Request) {
	type pluginResponse struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	}
	mounted := s.registry.AllRoutes()
	info := make([]pluginResponse, 0, len(mounted))
	for _, p := range s.registry.All() {
		if _, ok := mounted[p.Name()]; !ok {
			continue
		}
		info = append(info, pluginResponse{Name: p.Name(), Version: p.Version()})
	}
	writeJSON(w, http.StatusOK, info)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-BL4-Editor-Version", version.Short())
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
