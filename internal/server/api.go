package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/syncwave/internal/queue"
	"github.com/desertthunder/syncwave/internal/repositories"
	"github.com/desertthunder/syncwave/internal/services"
	"github.com/desertthunder/syncwave/internal/shared"
)

const shutdownTimeout = 10 * time.Second

// APIServer owns the HTTP listener for the job API.
type APIServer struct {
	srv    *http.Server
	logger *log.Logger
}

// NewAPIServer assembles the router, middleware, and handlers for the job API.
func NewAPIServer(
	cfg shared.ServerConfig,
	jobs *repositories.JobRepository,
	q queue.Queue,
	target services.TargetCatalog,
	provider *services.SpotifyTokenProvider,
	logger *log.Logger,
) *APIServer {
	router := NewBasicRouter()
	router.Use(Recovery(logger), Logging(logger))

	router.Handler(NewAPI(jobs, q, target, logger))
	router.Handler(&HealthHandler{})
	router.Handler(NewAuthHandler(provider, logger))

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	return &APIServer{
		srv:    &http.Server{Addr: addr, Handler: router},
		logger: logger,
	}
}

// Run serves until the context is cancelled, then drains in-flight requests.
func (s *APIServer) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("api listening", "addr", s.srv.Addr)
		if err := s.srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	return <-errCh
}
