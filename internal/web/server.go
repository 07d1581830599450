// Package web provides the HTTP server and handlers for the labeling UI.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/JonMunkholm/sentilabel/internal/config"
	"github.com/JonMunkholm/sentilabel/internal/core"
	"github.com/JonMunkholm/sentilabel/internal/web/middleware"
	"github.com/JonMunkholm/sentilabel/internal/web/templates"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

//go:embed static
var staticFiles embed.FS

// Server is the HTTP server for the labeling application.
//
// It owns one session state machine. Every handler that touches the machine
// holds mu, so transitions never overlap.
type Server struct {
	cfg     config.Config
	router  *chi.Mux
	server  *http.Server
	limiter *rateLimiter

	mu       sync.Mutex
	machine  *core.Machine
	flash    *templates.Flash
	username string // last name entered, prefilled on file selection
}

// NewServer creates a new Server around machine.
func NewServer(machine *core.Machine, cfg config.Config) *Server {
	s := &Server{
		cfg:     cfg,
		machine: machine,
		router:  chi.NewRouter(),
	}
	if cfg.Rate.Enabled {
		s.limiter = newRateLimiter(cfg.Rate.RequestsPerMinute, cfg.Rate.Burst)
	}
	s.setupMiddleware()
	s.setupRoutes()
	s.server = &http.Server{
		Handler:      s.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(middleware.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Metrics)
	s.router.Use(chimw.Recoverer)
	s.router.Use(chimw.Compress(5))
	if s.cfg.Server.RequestTimeout > 0 {
		s.router.Use(chimw.Timeout(s.cfg.Server.RequestTimeout))
	}

	s.router.Use(securityHeaders(s.cfg.Security.EnableCSP))

	if s.limiter != nil {
		s.router.Use(s.limiter.middleware)
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	s.router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	// Page
	s.router.Get("/", s.handleIndex)

	// CheckResume
	s.router.Post("/resume", s.action("", func(m *core.Machine) error { return m.Resume() }))
	s.router.Post("/start-new", s.action("", func(m *core.Machine) error { return m.StartNew() }))
	s.router.Post("/progress/delete", s.action("Saved progress deleted.", func(m *core.Machine) error { return m.DeleteSnapshot() }))

	// FileSelection
	s.router.Post("/start", s.handleStart)
	s.router.Post("/completed/reset", s.action("Completed files reset.", func(m *core.Machine) error { return m.ResetCompleted() }))

	// Labeling
	s.router.Post("/sentiment", s.handleSelect)
	s.router.Post("/submit", s.handleSubmit)
	s.router.Post("/save-exit", s.action("Progress saved.", func(m *core.Machine) error { return m.SaveAndExit() }))

	// Complete
	s.router.Post("/export/retry", s.action("", func(m *core.Machine) error { return m.RetryExport() }))
	s.router.Get("/report/download", s.handleDownloadReport)

	// Any stage
	s.router.Post("/reset", s.action("", func(m *core.Machine) error { return m.Reset() }))

	// API routes
	s.router.Route("/api", func(r chi.Router) {
		r.Get("/state", s.handleState)
		r.Get("/files", s.handleListFiles)
	})

	s.router.Get("/healthz", s.handleHealth)
	s.router.Handle("/metrics", promhttp.Handler())
}

// Start begins listening for HTTP requests. It returns http.ErrServerClosed
// after Shutdown, including a Shutdown that ran before Start.
func (s *Server) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	slog.Info("starting server", "addr", ln.Addr().String())
	return s.server.Serve(ln)
}

// Run starts background jobs that live as long as ctx, currently the rate
// limiter's visitor cleanup.
func (s *Server) Run(ctx context.Context) {
	if s.limiter != nil {
		s.limiter.cleanup(ctx, time.Minute)
	}
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(enableCSP bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Prevent MIME type sniffing
			w.Header().Set("X-Content-Type-Options", "nosniff")

			// Prevent clickjacking
			w.Header().Set("X-Frame-Options", "DENY")

			// The UI has no scripts and only the embedded stylesheet
			if enableCSP {
				w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'none'; style-src 'self'; img-src 'self' data:; form-action 'self'")
			}

			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

			next.ServeHTTP(w, r)
		})
	}
}

// writeJSON encodes v as JSON and writes it to w.
// Logs encoding errors since headers are already sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
