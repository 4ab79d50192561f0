// Package saveproxy forwards save decrypt/encrypt calls to the external
// save service. Request and response bodies pass through untouched.
package saveproxy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/skeletor601/BL4-SaveEditor/internal/metrics"
	"github.com/skeletor601/BL4-SaveEditor/internal/plugin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Operations forwarded to the save service.
const (
	OpDecrypt = "decrypt"
	OpEncrypt = "encrypt"
)

// maxSaveBytes bounds an uploaded save; base64 .sav files are a few MiB.
const maxSaveBytes = 64 << 20

// Outcome labels for the proxy request counter.
const (
	outcomeOK           = "ok"
	outcomeUpstreamFail = "upstream_error"
	outcomeUnavailable  = "unavailable"
	outcomeRateLimited  = "rate_limited"
	outcomeUnconfigured = "unconfigured"
)

// Compile-time interface guard.
var _ plugin.Plugin = (*Module)(nil)

// Module is the "save" module.
type Module struct {
	metrics *metrics.Metrics
	logger  *zap.Logger

	upstream *url.URL
	proxy    *httputil.ReverseProxy
	limiter  *rate.Limiter
	timeout  time.Duration
}

// New creates the save proxy module. m may be nil.
func New(m *metrics.Metrics) *Module {
	return &Module{metrics: m, logger: zap.NewNop()}
}

func (m *Module) Name() string    { return "save" }
func (m *Module) Version() string { return "1.0.0" }

// Init reads upstream_url, timeout, requests_per_second and burst. An
// empty upstream leaves the routes mounted but answering 503.
func (m *Module) Init(cfg *viper.Viper, logger *zap.Logger) error {
	m.logger = logger
	if cfg == nil {
		cfg = viper.New()
	}

	m.timeout = cfg.GetDuration("timeout")
	if m.timeout <= 0 {
		m.timeout = 60 * time.Second
	}
	rps := cfg.GetFloat64("requests_per_second")
	burst := cfg.GetInt("burst")
	if rps > 0 {
		if burst <= 0 {
			burst = 1
		}
		m.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}

	raw := strings.TrimSpace(cfg.GetString("upstream_url"))
	if raw == "" {
		logger.Warn("save service URL not set; decrypt and encrypt are unavailable")
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid save upstream URL %q", raw)
	}
	m.upstream = u
	m.proxy = &httputil.ReverseProxy{
		Rewrite:        m.rewrite,
		ModifyResponse: m.modifyResponse,
		ErrorHandler:   m.proxyError,
	}
	logger.Info("save proxy configured", zap.String("upstream", u.Redacted()))
	return nil
}

func (m *Module) Start(context.Context) error { return nil }
func (m *Module) Stop() error                 { return nil }

func (m *Module) Routes() []plugin.Route {
	return []plugin.Route{
		{Method: http.MethodPost, Path: "/" + OpDecrypt, Handler: m.forward(OpDecrypt)},
		{Method: http.MethodPost, Path: "/" + OpEncrypt, Handler: m.forward(OpEncrypt)},
	}
}

func (m *Module) forward(op string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if m.limiter != nil && !m.limiter.Allow() {
			m.metrics.ProxyRequest(op, outcomeRateLimited)
			writeError(w, http.StatusTooManyRequests, "Too many requests. Try again shortly.")
			return
		}
		if m.proxy == nil {
			m.metrics.ProxyRequest(op, outcomeUnconfigured)
			writeError(w, http.StatusServiceUnavailable, "Save service is not configured on this server.")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), m.timeout)
		defer cancel()
		r = r.WithContext(ctx)
		r.Body = http.MaxBytesReader(w, r.Body, maxSaveBytes)
		m.proxy.ServeHTTP(w, r)
	}
}

// rewrite targets upstream_url joined with the operation name, so an
// upstream of http://saves:5000/api/save receives /api/save/decrypt.
func (m *Module) rewrite(pr *httputil.ProxyRequest) {
	op := path.Base(pr.In.URL.Path)
	pr.SetURL(m.upstream)
	pr.Out.URL.Path = strings.TrimSuffix(m.upstream.Path, "/") + "/" + op
	pr.Out.URL.RawPath = ""
	pr.Out.URL.RawQuery = m.upstream.RawQuery
	pr.SetXForwarded()
}

func (m *Module) modifyResponse(resp *http.Response) error {
	op := path.Base(resp.Request.URL.Path)
	outcome := outcomeOK
	if resp.StatusCode >= http.StatusInternalServerError {
		outcome = outcomeUpstreamFail
		m.logger.Warn("save service error",
			zap.String("op", op),
			zap.Int("status", resp.StatusCode),
		)
	}
	m.metrics.ProxyRequest(op, outcome)
	return nil
}

func (m *Module) proxyError(w http.ResponseWriter, r *http.Request, err error) {
	op := path.Base(r.URL.Path)
	m.metrics.ProxyRequest(op, outcomeUnavailable)

	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		writeError(w, http.StatusRequestEntityTooLarge, "Save file is too large.")
	case errors.Is(err, context.DeadlineExceeded), errors.Is(r.Context().Err(), context.DeadlineExceeded):
		m.logger.Warn("save service timed out", zap.String("op", op), zap.Duration("timeout", m.timeout))
		writeError(w, http.StatusGatewayTimeout, "Save service timed out.")
	default:
		m.logger.Warn("save service unreachable", zap.String("op", op), zap.Error(err))
		writeError(w, http.StatusBadGateway, "Save service is unavailable. Is the API running?")
	}
}

// writeError uses the {error} body the web client reads on failure.
func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
