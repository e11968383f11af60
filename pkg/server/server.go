package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"breakapp-hq/tally/pkg/budget"
	"breakapp-hq/tally/pkg/config"
	"breakapp-hq/tally/pkg/server/middleware"
	"breakapp-hq/tally/pkg/telemetry/health"
	"breakapp-hq/tally/pkg/telemetry/metrics"
)

// Server is the HTTP API server for the budget engine.
type Server struct {
	config       *config.Config
	service      *budget.Service
	checker      *health.Checker
	collector    *metrics.Collector
	version      VersionInfo
	httpServer   *http.Server
	shutdownChan chan struct{}
	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
}

// VersionInfo carries build identification for the /version endpoint.
type VersionInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// NewServer creates an API server over the given service. checker and
// collector are optional; nil disables the respective endpoints' detail.
func NewServer(cfg *config.Config, service *budget.Service, checker *health.Checker, collector *metrics.Collector, version VersionInfo) *Server {
	if checker == nil {
		checker = health.New(0)
	}
	return &Server{
		config:       cfg,
		service:      service,
		checker:      checker,
		collector:    collector,
		version:      version,
		shutdownChan: make(chan struct{}),
	}
}

// Start starts the HTTP server and blocks until shutdown.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	s.isRunning = true
	s.mu.Unlock()

	handler := s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:           s.config.Server.ListenAddress,
		Handler:        handler,
		ReadTimeout:    s.config.Server.ReadTimeout,
		WriteTimeout:   s.config.Server.WriteTimeout,
		IdleTimeout:    s.config.Server.IdleTimeout,
		MaxHeaderBytes: s.config.Server.MaxHeaderBytes,
	}

	errChan := make(chan error, 1)
	go func() {
		slog.Info("starting budget API server",
			"address", s.config.Server.ListenAddress,
		)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-ctx.Done():
		slog.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case sig := <-sigChan:
		slog.Info("received shutdown signal", "signal", sig.String())
		return s.Shutdown(context.Background())
	case err := <-errChan:
		return err
	case <-s.shutdownChan:
		slog.Info("shutdown requested")
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		if !s.isRunning {
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		slog.Info("initiating graceful shutdown",
			"timeout", s.config.Server.ShutdownTimeout.String(),
		)

		shutdownCtx, cancel := context.WithTimeout(ctx, s.config.Server.ShutdownTimeout)
		defer cancel()

		if s.httpServer != nil {
			if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
				slog.Error("error during server shutdown", "error", err)
				shutdownErr = fmt.Errorf("server shutdown error: %w", err)
			}
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		slog.Info("budget API server stopped")
	})

	return shutdownErr
}

// setupRoutes configures HTTP routes and the middleware chain.
func (s *Server) setupRoutes() http.Handler {
	mux := http.NewServeMux()

	h := newHandlers(s.service)

	mux.HandleFunc("POST /v1/budgets", h.createBudget)
	mux.HandleFunc("GET /v1/budgets", h.listBudgets)
	mux.HandleFunc("GET /v1/budgets/{id}", h.getBudget)
	mux.HandleFunc("POST /v1/budgets/{id}/charge", h.charge)
	mux.HandleFunc("POST /v1/budgets/{id}/reset", h.reset)
	mux.HandleFunc("POST /v1/budgets/{id}/deactivate", h.deactivate)
	mux.HandleFunc("GET /v1/budgets/{id}/report", h.report)
	mux.HandleFunc("GET /v1/budgets/{id}/alerts", h.listAlerts)
	mux.HandleFunc("POST /v1/alerts/{id}/resolve", h.resolveAlert)
	mux.HandleFunc("POST /v1/alerts/{id}/read", h.readAlert)
	mux.HandleFunc("GET /v1/analytics", h.analytics)

	mux.HandleFunc("/health", s.checker.LivenessHandler())
	mux.HandleFunc("/ready", s.checker.ReadinessHandler())
	mux.HandleFunc("/version", health.VersionHandler(
		s.version.Version, s.version.Commit, s.version.BuildTime))

	if s.collector != nil && s.config.Telemetry.Metrics.Enabled {
		mux.Handle(s.config.Telemetry.Metrics.Path, s.collector.Handler())
	}

	var handler http.Handler = mux
	handler = middleware.RequestIDMiddleware(handler)
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.RecoveryMiddleware(handler)

	return handler
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}
