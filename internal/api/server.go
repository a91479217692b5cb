// Package api provides the Redline proofreading REST API server.
package api

import (
	"bufio"
	"context"
	_ "embed"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/quillworks/redline/internal/assistant"
	"github.com/quillworks/redline/internal/docstore"
	"github.com/quillworks/redline/internal/logging"
	"github.com/quillworks/redline/internal/metrics"
	"github.com/quillworks/redline/internal/server"
	"github.com/quillworks/redline/internal/styleguide"
)

//go:embed web/index.html
var indexHTML []byte

// proofreader is the slice of the assistant the handlers need, kept
// narrow so tests can substitute a fake.
type proofreader interface {
	Proofread(ctx context.Context, text string, opts assistant.Options) (*assistant.Outcome, error)
}

// Server is the proofreading API server.
type Server struct {
	cfg       Config
	proof     proofreader
	sessions  assistant.SessionProvider
	store     *docstore.Store
	guides    *styleguide.Library
	metrics   *metrics.Metrics
	hub       *Hub
	jobs      *JobStore
	limiter   *RateLimiter
	upgrader  websocket.Upgrader
	startTime time.Time
}

// New assembles a server from its collaborators.
func New(cfg Config, proof proofreader, sessions assistant.SessionProvider, store *docstore.Store, guides *styleguide.Library) *Server {
	m := metrics.New()
	hub := NewHub()
	hub.onCount = func(n int) { m.WSClients.Set(float64(n)) }

	apiVersion = cfg.version()

	s := &Server{
		cfg:       cfg,
		proof:     proof,
		sessions:  sessions,
		store:     store,
		guides:    guides,
		metrics:   m,
		hub:       hub,
		jobs:      NewJobStore(),
		startTime: time.Now(),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return isOriginAllowed(r.Header.Get("Origin"), cfg.AllowedOrigins)
		},
	}
	if cfg.RateLimitRequests > 0 {
		rlCfg := RateLimiterConfig{
			RequestsPerMinute: cfg.RateLimitRequests,
			BurstSize:         cfg.RateLimitBurst,
		}
		if rlCfg.BurstSize == 0 {
			rlCfg.BurstSize = 10
		}
		s.limiter = NewRateLimiter(rlCfg)
		s.limiter.onLimit = func() { m.RateLimited.Inc() }
	}
	return s
}

// Start validates the configuration, starts the websocket hub and serves
// until the listener fails.
func (s *Server) Start() error {
	if err := ValidateAuthConfig(s.cfg.Auth); err != nil {
		return fmt.Errorf("invalid auth config: %w", err)
	}
	if s.cfg.TLS.Enabled {
		if s.cfg.TLS.CertFile == "" || s.cfg.TLS.KeyFile == "" {
			return fmt.Errorf("TLS enabled but cert or key file not specified")
		}
		if _, err := os.Stat(s.cfg.TLS.CertFile); err != nil {
			return fmt.Errorf("TLS cert file not found: %w", err)
		}
		if _, err := os.Stat(s.cfg.TLS.KeyFile); err != nil {
			return fmt.Errorf("TLS key file not found: %w", err)
		}
	}

	go s.hub.Run()

	handler := s.Handler()

	protocol := "http"
	wsProtocol := "ws"
	if s.cfg.TLS.Enabled {
		protocol = "https"
		wsProtocol = "wss"
		logging.Info("TLS enabled", "cert_file", s.cfg.TLS.CertFile)
	} else {
		logging.Warn("TLS disabled - using plain HTTP",
			"recommendation", "consider using TLS or reverse proxy for production")
	}
	if s.cfg.Auth.Enabled {
		logging.SecurityEvent("authentication_configured", "api",
			"enabled", true,
			"note", "API key required")
	} else {
		logging.SecurityEvent("authentication_configured", "api",
			"enabled", false,
			"note", "all requests allowed")
	}
	if len(s.cfg.AllowedOrigins) > 0 {
		logging.SecurityEvent("cors_configured", "api",
			"mode", "restricted",
			"allowed_origins_count", len(s.cfg.AllowedOrigins))
	} else {
		logging.SecurityEvent("cors_configured", "api",
			"mode", "permissive",
			"note", "allowing all origins (*) - consider restricting for production")
	}
	logging.ServerStartup("rest_api", protocol, s.cfg.Port,
		"websocket_protocol", wsProtocol,
		"version", s.cfg.version())

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	if s.cfg.TLS.Enabled {
		return http.ListenAndServeTLS(addr, s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile, handler)
	}
	return http.ListenAndServe(addr, handler)
}

// Handler returns the routed handler wrapped in the full middleware
// chain, innermost first: security headers, auth, rate limiting, CORS,
// metrics and request logging.
func (s *Server) Handler() http.Handler {
	mux := s.setupRoutes()

	var handler http.Handler = server.SecurityHeadersWithCSP(server.WebUICSPConfig(), mux)
	handler = AuthMiddleware(s.cfg.Auth, handler)
	if s.limiter != nil {
		handler = s.limiter.Middleware(handler)
	}
	handler = server.CORSMiddlewareWithConfig(server.CORSConfig{
		AllowedOrigins: s.cfg.AllowedOrigins,
	}, handler)
	handler = s.metricsMiddleware(handler)
	handler = logging.CombinedMiddleware(handler)
	return handler
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/", s.handleRoot)
	mux.HandleFunc("/api", s.handleInfo)
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", s.metrics.Handler())
	mux.HandleFunc("/api/proofread", s.handleProofread)
	mux.HandleFunc("/api/proofread-docx", s.handleProofreadDocx)
	mux.HandleFunc("/api/export", s.handleExport)
	mux.HandleFunc("/api/download/", s.handleDownload)
	mux.HandleFunc("/api/documents", s.handleDocuments)
	mux.HandleFunc("/api/documents/", s.handleDocumentByID)
	mux.HandleFunc("/api/jobs", s.handleJobs)
	mux.HandleFunc("/api/jobs/", s.handleJobByID)
	mux.HandleFunc("/api/style-guides", s.handleStyleGuides)
	mux.HandleFunc("/api/style-guides/", s.handleStyleGuideByName)
	mux.HandleFunc("/api/admin/sessions", s.handleSessions)
	mux.HandleFunc("/api/admin/sessions/reset", s.handleSessionsReset)
	mux.HandleFunc("/ws", s.handleWebSocket)

	return mux
}

// metricsMiddleware records request counts and latency per route pattern.
func (s *Server) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.metrics.ObserveHTTP(r.Method, routePattern(r.URL.Path), rec.status, time.Since(start))
	})
}

// statusRecorder captures the response status for metrics. It forwards
// Hijack so the websocket upgrade keeps working under the middleware.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	return hj.Hijack()
}

// routePattern collapses path parameters so metric label cardinality
// stays bounded.
func routePattern(path string) string {
	switch {
	case strings.HasPrefix(path, "/api/download/"):
		return "/api/download/{id}"
	case strings.HasPrefix(path, "/api/documents/"):
		if path == "/api/documents/stats" {
			return path
		}
		return "/api/documents/{id}"
	case strings.HasPrefix(path, "/api/jobs/"):
		return "/api/jobs/{id}"
	case strings.HasPrefix(path, "/api/style-guides/"):
		rest := strings.TrimPrefix(path, "/api/style-guides/")
		if rest == "bundle" {
			return path
		}
		if strings.HasSuffix(rest, "/html") {
			return "/api/style-guides/{name}/html"
		}
		return "/api/style-guides/{name}"
	}

	switch path {
	case "/", "/api", "/health", "/metrics", "/ws",
		"/api/proofread", "/api/proofread-docx", "/api/export",
		"/api/documents", "/api/jobs", "/api/style-guides",
		"/api/admin/sessions", "/api/admin/sessions/reset":
		return path
	}
	return "other"
}
