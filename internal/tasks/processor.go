// package tasks implements the playlist migration pipeline.
//
// The core abstraction is Processor, which turns one queued migration job into
// a populated Spotify playlist: fetch the source playlist, match each item,
// build the destination, and record progress and outcome on the job record.
// Worker owns the consume loop that feeds the processor.
package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/syncwave/internal/match"
	"github.com/desertthunder/syncwave/internal/models"
	"github.com/desertthunder/syncwave/internal/repositories"
	"github.com/desertthunder/syncwave/internal/services"
	"github.com/desertthunder/syncwave/internal/shared"
	"golang.org/x/time/rate"
)

// DefaultAppendBatchSize is the number of track URIs sent per append call.
// Matches the Spotify platform cap.
const DefaultAppendBatchSize = 100

// Processor executes migration jobs end to end.
//
// A processing failure marks the job failed and keeps any partially built
// destination playlist; it is never retried (see [queue.AckPolicyImmediate]).
type Processor struct {
	jobs    *repositories.JobRepository
	cache   *repositories.MatchCache
	source  services.SourceCatalog
	target  services.TargetCatalog
	creds   services.CredentialProvider
	limiter *rate.Limiter
	batch   int
	logger  *log.Logger
}

// NewProcessor wires the migration pipeline. A nil limiter disables search
// throttling; batch sizes outside 1..100 fall back to [DefaultAppendBatchSize].
func NewProcessor(
	jobs *repositories.JobRepository,
	cache *repositories.MatchCache,
	source services.SourceCatalog,
	target services.TargetCatalog,
	creds services.CredentialProvider,
	limiter *rate.Limiter,
	batch int,
	logger *log.Logger,
) *Processor {
	if batch <= 0 || batch > DefaultAppendBatchSize {
		batch = DefaultAppendBatchSize
	}

	return &Processor{
		jobs:    jobs,
		cache:   cache,
		source:  source,
		target:  target,
		creds:   creds,
		limiter: limiter,
		batch:   batch,
		logger:  logger,
	}
}

// ProcessJob runs one migration to completion, recording the terminal status
// on the job record. The returned error reflects why the job failed; callers
// should log it but must not requeue the message.
func (p *Processor) ProcessJob(ctx context.Context, msg models.QueueMessage) error {
	logger := shared.WithLogger(p.logger, "job_id", msg.JobID)

	if err := p.run(ctx, msg, logger); err != nil {
		logger.Error("job failed", "error", err)

		if _, terr := p.jobs.Transition(msg.JobID, models.StatusFailed, func(j *models.Job) {
			j.Error = err.Error()
		}); terr != nil {
			logger.Error("failed to record job failure", "error", terr)
		}

		return err
	}

	return nil
}

func (p *Processor) run(ctx context.Context, msg models.QueueMessage, logger *log.Logger) error {
	job, err := p.jobs.Transition(msg.JobID, models.StatusProcessing, func(j *models.Job) {
		j.Progress = models.Progress{Step: "scraping YouTube", Percent: 10}
	})
	if err != nil {
		return err
	}

	playlist, err := p.source.FetchPlaylist(ctx, job.PlaylistURLs[0])
	if err != nil {
		return err
	}
	logger.Info("fetched source playlist", "title", playlist.Title, "videos", len(playlist.Videos))

	accessToken, err := p.creds.AccessToken(ctx, job.SpotifyRefreshToken)
	if err != nil {
		return err
	}

	name := fmt.Sprintf("%s (from YouTube - %s)", playlist.Title, time.Now().Format("Jan 2"))
	description := fmt.Sprintf("Migrated from YouTube playlist: %s", playlist.Title)
	public := job.Options.Visibility == models.VisibilityPublic

	created, err := p.target.CreatePlaylist(ctx, job.SpotifyUserID, name, description, public, accessToken)
	if err != nil {
		return err
	}
	logger.Info("created destination playlist", "playlist_id", created.ID)

	matched, failedSongs, err := p.matchVideos(ctx, job, playlist.Videos, accessToken, logger)
	if err != nil {
		return err
	}

	if limit := job.Options.MaxTracksPerPlaylist; len(matched) > limit {
		logger.Warn("truncating matches to playlist cap", "matched", len(matched), "cap", limit)
		matched = matched[:limit]
	}

	for start := 0; start < len(matched); start += p.batch {
		end := min(start+p.batch, len(matched))
		if err := p.target.AddTracks(ctx, created.ID, matched[start:end], accessToken); err != nil {
			return err
		}
	}

	_, err = p.jobs.Transition(job.JobID, models.StatusCompleted, func(j *models.Job) {
		j.Progress = models.Progress{Step: "done", Percent: 100}
		j.Result = &models.JobResult{
			SpotifyPlaylistID:   created.ID,
			SpotifyPlaylistURL:  created.URL,
			SpotifyPlaylistName: name,
			Matched:             len(matched),
			Failed:              len(failedSongs),
			FailedSongs:         failedSongs,
		}
	})
	if err != nil {
		return err
	}

	logger.Info("job complete", "matched", len(matched), "total", len(playlist.Videos))
	return nil
}

// matchVideos resolves each source item to a Spotify track URI, in playlist
// order. Cache hits skip the search round trip entirely; accepted fresh
// matches are written back to the cache. A search failure aborts the job.
func (p *Processor) matchVideos(
	ctx context.Context,
	job *models.Job,
	videos []models.SourceVideo,
	accessToken string,
	logger *log.Logger,
) (matched, failedSongs []string, err error) {
	failedSongs = []string{}
	total := len(videos)

	for i, video := range videos {
		percent := 10 + (i*80)/total
		step := fmt.Sprintf("matching songs (%d/%d)", i+1, total)
		if err := p.jobs.SetProgress(job.JobID, step, percent); err != nil {
			return nil, nil, err
		}

		if uri, ok := p.cache.Lookup(ctx, video.Title); ok {
			logger.Debug("cache hit", "title", video.Title)
			matched = append(matched, uri)
			continue
		}

		if p.limiter != nil {
			if err := p.limiter.Wait(ctx); err != nil {
				return nil, nil, err
			}
		}

		normalized := match.Normalize(video.Title)
		candidates, err := p.target.Search(ctx, normalized.Query(), accessToken)
		if err != nil {
			return nil, nil, err
		}

		result := match.Score(normalized.Title, normalized.Artist, video.Duration, candidates)
		if result.Accepted() {
			matched = append(matched, result.Track.URI)
			p.cache.Store(ctx, video.Title, result.Track.URI, result.Track.Name, result.Track.Artists)
			logger.Debug("matched", "title", video.Title, "track", result.Track.Name, "confidence", result.Confidence)
		} else {
			failedSongs = append(failedSongs, video.Title)
			logger.Debug("no match", "title", video.Title, "reason", result.Reason, "confidence", result.Confidence)
		}
	}

	return matched, failedSongs, nil
}
