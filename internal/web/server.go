// Package web provides the HTTP server for converting statements over HTTP.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/JonMunkholm/pdf2ynab/internal/config"
	"github.com/JonMunkholm/pdf2ynab/internal/core"
	mw "github.com/JonMunkholm/pdf2ynab/internal/web/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// HistoryLister lists recent conversion runs. Implemented by history.Store.
type HistoryLister interface {
	Recent(ctx context.Context, limit int) ([]core.Run, error)
}

// Server is the HTTP server for the converter.
type Server struct {
	service *core.Service
	history HistoryLister
	limiter *core.ConversionLimiter
	cfg     *config.Config
	router  *chi.Mux
	server  *http.Server
}

// NewServer creates a new Server. history may be nil when no database is
// configured.
func NewServer(service *core.Service, cfg *config.Config, history HistoryLister) *Server {
	s := &Server{
		service: service,
		history: history,
		limiter: core.NewConversionLimiter(cfg.Convert.MaxConcurrent, cfg.Convert.MaxWaitTime),
		cfg:     cfg,
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	s.server = &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(mw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(mw.Logger)
	s.router.Use(middleware.Recoverer)
	if s.cfg.Server.RequestTimeout > 0 {
		s.router.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))
	}
	s.router.Use(securityHeaders)
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/", s.handleIndex)
	s.router.Get("/healthz", s.handleHealth)
	s.router.With(mw.APIKeyAuth(&s.cfg.Security)).Post("/convert", s.handleConvertForm)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(mw.APIKeyAuth(&s.cfg.Security))

		r.Get("/formats", s.handleListFormats)
		r.Get("/formats/{code}", s.handleGetFormat)

		r.Post("/convert/{code}", s.handleConvert)
		r.Post("/preview/{code}", s.handlePreview)

		r.Get("/history", s.handleHistory)
	})
}

// Start begins listening for HTTP requests on the configured address.
// It returns http.ErrServerClosed after Shutdown.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown waits for in-flight conversions, then stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if status := s.limiter.Status(); status.Active > 0 {
		slog.Info("waiting for conversions to complete", "active", status.Active)
		if err := s.limiter.WaitForDrain(ctx); err != nil {
			slog.Warn("conversions did not complete in time", "error", err)
		}
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'; form-action 'self'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// writeJSON encodes v as JSON and writes it to w.
// Encoding errors are logged since headers are already sent.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
