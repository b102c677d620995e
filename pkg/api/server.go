// Package api implements the control/observability HTTP surface: a
// replica's lease status, Prometheus metrics, and an admin-only
// step-down action. It plays no role in the election state machine
// itself; it is a read path plus one voluntary override.
package api

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/marmos91/tso-lease/internal/logger"
	"github.com/marmos91/tso-lease/pkg/api/auth"
	"github.com/marmos91/tso-lease/pkg/config"
	"github.com/marmos91/tso-lease/pkg/election"
)

// Server wraps the control API's http.Server with graceful shutdown.
type Server struct {
	server       *http.Server
	shutdownOnce sync.Once
}

// NewServer builds the control API server from cfg, bound to
// controller for election state, with a JWT service built from cfg for
// admin auth.
func NewServer(cfg config.APIConfig, controller *election.Controller) (*Server, error) {
	if len(cfg.JWTSecret) < 32 {
		return nil, fmt.Errorf("api: jwt secret must be at least 32 characters")
	}

	jwtService, err := auth.NewService(auth.Config{
		Secret:               cfg.JWTSecret,
		TokenTTL:             cfg.TokenTTL,
		OperatorUsername:     cfg.OperatorUsername,
		OperatorPasswordHash: cfg.OperatorPasswordHash,
	})
	if err != nil {
		return nil, fmt.Errorf("api: build jwt service: %w", err)
	}

	router := NewRouter(controller, jwtService)

	httpServer := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{server: httpServer}, nil
}

// Start listens and serves until ctx is cancelled, then performs a
// graceful shutdown and returns nil. A listen failure (not a normal
// shutdown) is returned as an error.
func (s *Server) Start(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		logger.Info("api: server listening", "addr", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			select {
			case errChan <- err:
			default:
			}
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("api: shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.Stop(shutdownCtx)
	case err := <-errChan:
		return fmt.Errorf("api: server failed: %w", err)
	}
}

// Stop gracefully shuts down the server. Safe to call multiple times
// and concurrently with Start.
func (s *Server) Stop(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if err := s.server.Shutdown(ctx); err != nil {
			shutdownErr = fmt.Errorf("api: shutdown error: %w", err)
			logger.Error("api: shutdown error", "error", err)
			return
		}
		logger.Info("api: stopped gracefully")
	})
	return shutdownErr
}
