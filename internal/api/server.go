package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"slabcore/internal/config"
	"slabcore/internal/harness"
)

// Server runs the HTTP/WebSocket API described in SPEC_FULL.md's HTTP
// surface table: a thin ops layer over the harness, not part of the
// specified wire contract itself.
type Server struct {
	cfg      config.DashboardConfig
	h        *harness.Harness
	fullCfg  config.Config
	hub      *Hub
	handlers *Handlers
	server   *http.Server
	logger   *slog.Logger
}

// NewServer creates a new API server.
func NewServer(cfg config.DashboardConfig, h *harness.Harness, fullCfg config.Config, logger *slog.Logger) *Server {
	hub := NewHub(logger)
	handlers := NewHandlers(h, fullCfg, hub, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", handlers.HandleHealth)
	mux.HandleFunc("GET /api/slabs/{slab_id}/quote", handlers.HandleQuote)
	mux.HandleFunc("GET /api/slabs/{slab_id}/instruments/{idx}", handlers.HandleInstrument)
	mux.HandleFunc("GET /api/portfolios/{account_idx}", handlers.HandlePortfolio)
	mux.HandleFunc("POST /api/slabs/{slab_id}/instructions", handlers.HandleSlabInstruction)
	mux.HandleFunc("POST /api/router/instructions", handlers.HandleRouterInstruction)
	mux.HandleFunc("GET /ws", handlers.HandleWebSocket)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		cfg:      cfg,
		h:        h,
		fullCfg:  fullCfg,
		hub:      hub,
		handlers: handlers,
		server:   server,
		logger:   logger.With("component", "api-server"),
	}
}

// Start runs the WebSocket hub and HTTP server, blocking until Stop is
// called or the listener fails.
func (s *Server) Start() error {
	go s.hub.Run()

	s.logger.Info("dashboard server starting", "addr", s.server.Addr)

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Stop gracefully stops the server.
func (s *Server) Stop() error {
	s.logger.Info("stopping dashboard server")

	ctx, cancel := context.WithTimeout(context.Background(), config.DefaultDashboardTimeout*2)
	defer cancel()

	return s.server.Shutdown(ctx)
}
