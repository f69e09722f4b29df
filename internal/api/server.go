package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/nearscan/explorer-api/internal/api/handler"
	"github.com/nearscan/explorer-api/internal/cache"
	"github.com/nearscan/explorer-api/internal/feed"
	"go.uber.org/zap"
)

// Server wraps the HTTP server for the explorer API
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
}

// NewServer creates a new API server instance
func NewServer(store handler.Store, c *cache.Cache, hub *feed.Hub, logger *zap.Logger, addr string) (*Server, error) {
	h := handler.NewHandler(store, c, hub, logger)
	router := h.NewRouter()

	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &Server{
		httpServer: server,
		logger:     logger,
	}, nil
}

// Run starts the HTTP server and blocks until the context is canceled
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("starting HTTP API server", zap.String("addr", s.httpServer.Addr))

	// Start server in goroutine
	errChan := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Wait for context cancellation or server error
	select {
	case <-ctx.Done():
		s.logger.Info("shutting down HTTP API server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	case err := <-errChan:
		return err
	}
}
