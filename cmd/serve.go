package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/desertthunder/syncwave/internal/repositories"
	"github.com/desertthunder/syncwave/internal/server"
	"github.com/desertthunder/syncwave/internal/services"
	"github.com/urfave/cli/v3"
)

// Serve runs the HTTP API until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	q, err := r.connectQueue(ctx)
	if err != nil {
		return err
	}
	defer q.Close()

	api := server.NewAPIServer(
		r.config.Server,
		repositories.NewJobRepository(db),
		q,
		services.NewSpotifyService(r.httpClient),
		r.tokenProvider(),
		r.logger,
	)

	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return api.Run(runCtx)
}

func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Run the job submission HTTP API",
		Action: r.Serve,
	}
}
