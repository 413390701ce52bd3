package api

import (
	"context"
	"net/http"
	"time"

	"github.com/ignite/outreach/internal/auth"
	"github.com/ignite/outreach/internal/config"
	"github.com/ignite/outreach/internal/tracking"
)

// Server represents the API server
type Server struct {
	config  config.ServerConfig
	handler http.Handler
	server  *http.Server
}

// NewServer creates a new API server
func NewServer(cfg config.ServerConfig, h *Handlers, authManager *auth.Manager, trk *tracking.Handler) *Server {
	return &Server{
		config:  cfg,
		handler: SetupRoutes(h, authManager, trk),
	}
}

// ListenAndServe starts the HTTP server
func (s *Server) ListenAndServe(addr string) error {
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.handler,
		// Uploads are small CSVs; LLM-backed generation is the slow path
		// and gets headroom on the write side.
		ReadTimeout:       1 * time.Minute,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      10 * time.Minute,
		IdleTimeout:       120 * time.Second,
	}

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler returns the HTTP handler for testing
func (s *Server) Handler() http.Handler {
	return s.handler
}
