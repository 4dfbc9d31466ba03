// Package web provides the HTTP API for logbook page reconstruction.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/JonMunkholm/logbookscan/internal/config"
	"github.com/JonMunkholm/logbookscan/internal/ingest"
	"github.com/JonMunkholm/logbookscan/internal/logbook"
	"github.com/JonMunkholm/logbookscan/internal/logging"
	"github.com/JonMunkholm/logbookscan/internal/ocr"
	mw "github.com/JonMunkholm/logbookscan/internal/web/middleware"
)

// Server is the reconstruction HTTP server.
type Server struct {
	cfg       *config.Config
	recon     *logbook.Reconstructor
	limiter   *ScanLimiter
	fetcher   *ingest.S3Fetcher // nil when storage is not configured
	rescanner *ocr.Rescanner    // nil when OCR is disabled

	rateLimiter *mw.RateLimiter
	router      *chi.Mux
	server      *http.Server
}

// Option configures optional collaborators of a Server.
type Option func(*Server)

// WithFetcher enables source=s3://bucket/key requests.
func WithFetcher(f *ingest.S3Fetcher) Option {
	return func(s *Server) {
		s.fetcher = f
	}
}

// WithRecognizer enables page-image uploads for rescanning empty cells.
func WithRecognizer(rec ocr.Recognizer) Option {
	return func(s *Server) {
		if rec != nil {
			s.rescanner = ocr.NewRescanner(rec)
		}
	}
}

// NewServer creates a Server. The Reconstructor is shared by all requests.
func NewServer(cfg *config.Config, recon *logbook.Reconstructor, opts ...Option) *Server {
	s := &Server{
		cfg:     cfg,
		recon:   recon,
		limiter: NewScanLimiter(cfg.Scan.MaxConcurrent, cfg.Scan.MaxWaitTime),
		router:  chi.NewRouter(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(mw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(mw.Logger)
	s.router.Use(chimw.Recoverer)
	s.router.Use(chimw.Compress(5))
	s.router.Use(chimw.Timeout(s.cfg.Server.RequestTimeout))
	s.router.Use(securityHeaders(s.cfg.Security.EnableCSP))

	if len(s.cfg.Security.CORSOrigins) > 0 {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.cfg.Security.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-API-Key", "HX-Request", "HX-Target", "HX-Current-URL"},
			ExposedHeaders: []string{"X-Scan-ID", "Retry-After"},
			MaxAge:         300,
		}))
	}

	if s.cfg.Rate.Enabled {
		s.rateLimiter = mw.NewRateLimiter(s.cfg.Rate)
		s.router.Use(s.rateLimiter.Handler)
	}
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(mw.APIKeyAuth(s.cfg.Security))

		r.Get("/rules", s.handleRules)
		r.Get("/status", s.handleStatus)
		r.Post("/reconstruct", s.handleReconstruct)
	})
}

// Start listens on the configured address until Shutdown is called.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("starting server", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections, waits for in-flight scans and stops
// the rate limiter.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
	if s.server == nil {
		return nil
	}
	if err := s.server.Shutdown(ctx); err != nil {
		return err
	}
	return s.limiter.WaitForDrain(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Limiter returns the scan limiter.
func (s *Server) Limiter() *ScanLimiter {
	return s.limiter
}

const contentSecurityPolicy = "default-src 'self'; script-src 'self' 'unsafe-inline'; style-src 'self' 'unsafe-inline'; img-src 'self' data:; font-src 'self'"

// securityHeaders sets the standard hardening headers on every response.
func securityHeaders(enableCSP bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			if enableCSP {
				h.Set("Content-Security-Policy", contentSecurityPolicy)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// writeJSON encodes v as JSON. Encoding errors are only logged since the
// status line has already gone out.
func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.FromContext(r.Context()).Error("json encode error", "error", err)
	}
}
