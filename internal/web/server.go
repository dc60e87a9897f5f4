// Package web provides the JSON HTTP API for protest-filing imports.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/JonMunkholm/protesto/internal/config"
	"github.com/JonMunkholm/protesto/internal/core"
	"github.com/JonMunkholm/protesto/internal/web/middleware"
)

// ImportService is the part of core.Service the handlers use.
type ImportService interface {
	Import(ctx context.Context, req core.ImportRequest) (*core.ImportResult, error)
	Validate(mediaType string, data []byte) (core.ValidationReport, []core.LogicalRecord, error)
	GetImport(ctx context.Context, id uuid.UUID) (*core.ImportAuditLog, error)
	ListImports(ctx context.Context, limit, offset int) ([]core.ImportAuditLog, error)
	Formats() []string
	LimiterStatus() core.ImportLimiterStatus
}

// Pinger reports storage health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server is the HTTP server for the import API.
type Server struct {
	service ImportService
	cfg     *config.Config
	pinger  Pinger
	metrics http.Handler
	router  *chi.Mux
	server  *http.Server
}

// NewServer builds the router. pinger and metrics may be nil.
func NewServer(service ImportService, cfg *config.Config, pinger Pinger, metrics http.Handler) *Server {
	s := &Server{
		service: service,
		cfg:     cfg,
		pinger:  pinger,
		metrics: metrics,
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(middleware.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(middleware.RequestMetadata)
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	s.router.Use(securityHeaders)
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	if s.metrics != nil && s.cfg.Metrics.Enabled {
		s.router.Handle(s.cfg.Metrics.Path, s.metrics)
	}

	// Rate limiting applies per client IP; imports get a tighter bucket.
	limit, importLimit := passThrough, passThrough
	if s.cfg.Rate.Enabled {
		limit = middleware.NewRateLimiter(s.cfg.Rate.RequestsPerMinute).Middleware
		importLimit = middleware.NewRateLimiter(s.cfg.Rate.ImportLimit).Middleware
	}

	s.router.Route("/api", func(r chi.Router) {
		r.Use(limit)
		r.Use(middleware.APIKeyAuth(&s.cfg.Security))
		r.Use(middleware.UserIdentity)

		r.Get("/formats", s.handleFormats)

		r.With(importLimit).Post("/imports", s.handleImport)
		r.With(importLimit).Post("/imports/validate", s.handleValidate)
		r.Get("/imports", s.handleListImports)
		r.Get("/imports/{importID}", s.handleGetImport)
	})
}

// Start listens on the configured address until Shutdown.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("starting server", "addr", s.server.Addr)
	err := s.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"status":  "ok",
		"imports": s.service.LimiterStatus(),
	}
	if s.pinger != nil {
		if err := s.pinger.Ping(r.Context()); err != nil {
			slog.Warn("health check failed", "error", err)
			resp["status"] = "unavailable"
			writeJSONStatus(w, http.StatusServiceUnavailable, resp)
			return
		}
	}
	writeJSON(w, resp)
}

func (s *Server) handleFormats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string][]string{"formats": s.service.Formats()})
}

func passThrough(next http.Handler) http.Handler { return next }

// securityHeaders adds security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

// writeJSONStatus encodes v as JSON. Encoding errors are only logged since
// the header is already sent.
func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
