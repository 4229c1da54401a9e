package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/desertthunder/syncwave/internal/repositories"
	"github.com/desertthunder/syncwave/internal/services"
	"github.com/desertthunder/syncwave/internal/tasks"
	"github.com/urfave/cli/v3"
)

// WorkerRun starts the queue consumer and blocks until interrupted.
func (r *Runner) WorkerRun(ctx context.Context, cmd *cli.Command) error {
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

	jobs := repositories.NewJobRepository(db)
	cache := repositories.NewMatchCache(repositories.NewSongCacheRepository(db), r.logger)
	source := services.NewYouTubeService(r.config.Credentials.YouTube.APIKey, r.httpClient)
	target := services.NewSpotifyService(r.httpClient)

	processor := tasks.NewProcessor(
		jobs,
		cache,
		source,
		target,
		r.tokenProvider(),
		r.searchLimiter(),
		r.config.Worker.AppendBatchSize,
		r.logger,
	)

	worker := tasks.NewWorker(q, processor, r.logger)

	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	worker.Start(runCtx)
	r.writePlain("Worker running. Press Ctrl+C to stop.\n")

	<-runCtx.Done()
	worker.Stop()

	return nil
}

func workerCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "worker",
		Usage:  "Run the migration job consumer",
		Action: r.WorkerRun,
	}
}
