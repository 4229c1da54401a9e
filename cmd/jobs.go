package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/syncwave/internal/formatter"
	"github.com/desertthunder/syncwave/internal/models"
	"github.com/desertthunder/syncwave/internal/repositories"
	"github.com/desertthunder/syncwave/internal/services"
	"github.com/desertthunder/syncwave/internal/shared"
	"github.com/urfave/cli/v3"
)

// identify resolves the configured refresh token to a Spotify identity.
func (r *Runner) identify(ctx context.Context) (*services.SpotifyUser, string, error) {
	refreshToken := r.config.Credentials.Spotify.RefreshToken
	if refreshToken == "" {
		return nil, "", fmt.Errorf("%w: run `syncwave auth spotify` first", shared.ErrNoRefreshToken)
	}

	accessToken, err := r.tokenProvider().AccessToken(ctx, refreshToken)
	if err != nil {
		return nil, "", err
	}

	user, err := services.NewSpotifyService(r.httpClient).CurrentUser(ctx, accessToken)
	if err != nil {
		return nil, "", err
	}

	return user, refreshToken, nil
}

// JobsSubmit creates a migration job and enqueues it for the worker.
func (r *Runner) JobsSubmit(ctx context.Context, cmd *cli.Command) error {
	urls := cmd.StringSlice("url")
	if len(urls) == 0 {
		return fmt.Errorf("%w: at least one --url is required", shared.ErrMissingArgument)
	}

	opts := models.JobOptions{
		Visibility:           cmd.String("visibility"),
		MaxTracksPerPlaylist: cmd.Int("max-tracks"),
	}

	user, refreshToken, err := r.identify(ctx)
	if err != nil {
		return err
	}

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

	job := models.NewJob(user.ID, user.DisplayName, refreshToken, urls, opts)

	if err := repositories.NewJobRepository(db).Create(job); err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}

	msg := models.QueueMessage{
		JobID:         job.JobID,
		Type:          job.Type,
		SpotifyUserID: job.SpotifyUserID,
		PlaylistURLs:  job.PlaylistURLs,
		Options:       job.Options,
	}
	if err := q.Enqueue(ctx, msg); err != nil {
		return fmt.Errorf("failed to enqueue job: %w", err)
	}

	r.logger.Info("job submitted", "job_id", job.JobID)
	r.writePlain("✓ Job submitted: %s\n", job.JobID)
	r.writePlain("Check progress with: syncwave jobs status %s\n", job.JobID)

	return nil
}

// JobsStatus prints one job in the requested format.
func (r *Runner) JobsStatus(ctx context.Context, cmd *cli.Command) error {
	jobID := cmd.StringArg("job-id")
	if jobID == "" {
		return fmt.Errorf("%w: job id argument is required", shared.ErrMissingArgument)
	}

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	job, err := repositories.NewJobRepository(db).Get(jobID)
	if err != nil {
		return err
	}

	switch format := cmd.String("format"); format {
	case formatter.FormatJSON:
		data, err := formatter.JobToJSON(job)
		if err != nil {
			return err
		}
		r.output.Write(data)
		r.output.Write([]byte("\n"))
	case formatter.FormatMarkdown:
		r.output.Write(formatter.JobToMarkdown(job))
	case formatter.FormatText:
		r.output.Write(formatter.JobToText(job))
	default:
		return fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, format)
	}

	return nil
}

// JobsList prints the caller's jobs, newest first.
func (r *Runner) JobsList(ctx context.Context, cmd *cli.Command) error {
	user, _, err := r.identify(ctx)
	if err != nil {
		return err
	}

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	jobs, err := repositories.NewJobRepository(db).ListByUser(user.ID)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(jobs, true)
	}

	r.output.Write(formatter.JobList(jobs))
	return nil
}

func jobsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "jobs",
		Usage: "Submit and inspect migration jobs",
		Commands: []*cli.Command{
			{
				Name:  "submit",
				Usage: "Submit a YouTube playlist for migration",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:    "url",
						Aliases: []string{"u"},
						Usage:   "YouTube playlist URL (repeatable)",
					},
					&cli.StringFlag{
						Name:  "visibility",
						Usage: "Destination playlist visibility (private or public)",
						Value: models.VisibilityPrivate,
					},
					&cli.IntFlag{
						Name:  "max-tracks",
						Usage: "Maximum tracks per destination playlist",
						Value: models.DefaultMaxTracksPerList,
					},
				},
				Action: r.JobsSubmit,
			},
			{
				Name:  "status",
				Usage: "Show the status of a job",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "job-id"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Output format: json, markdown, or text",
						Value:   formatter.FormatText,
					},
				},
				Action: r.JobsStatus,
			},
			{
				Name:  "list",
				Usage: "List your jobs, newest first",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.JobsList,
			},
		},
	}
}
