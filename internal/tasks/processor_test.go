package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/syncwave/internal/match"
	"github.com/desertthunder/syncwave/internal/models"
	"github.com/desertthunder/syncwave/internal/repositories"
	"github.com/desertthunder/syncwave/internal/services"
	"github.com/desertthunder/syncwave/internal/shared"
	tu "github.com/desertthunder/syncwave/internal/testing"
)

type processorFixture struct {
	db     *sql.DB
	jobs   *repositories.JobRepository
	cache  *repositories.SongCacheRepository
	logger *log.Logger
}

func setupFixture(t *testing.T) *processorFixture {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return &processorFixture{
		db:     db,
		jobs:   repositories.NewJobRepository(db),
		cache:  repositories.NewSongCacheRepository(db),
		logger: shared.NewLogger(io.Discard),
	}
}

func (f *processorFixture) newProcessor(t *testing.T, source services.SourceCatalog, target services.TargetCatalog) *Processor {
	t.Helper()
	return NewProcessor(
		f.jobs,
		repositories.NewMatchCache(f.cache, f.logger),
		source,
		target,
		&tu.StaticCredentialProvider{Token: "access_token"},
		nil, // no throttling in tests
		0,
		f.logger,
	)
}

func (f *processorFixture) queueJob(t *testing.T) (*models.Job, models.QueueMessage) {
	t.Helper()

	job := models.NewJob("user123", "Test User", "refresh_abc",
		[]string{"https://www.youtube.com/playlist?list=PLmix"}, models.JobOptions{})
	if err := f.jobs.Create(job); err != nil {
		t.Fatalf("failed to create job: %v", err)
	}

	return job, models.QueueMessage{
		JobID:         job.JobID,
		Type:          job.Type,
		SpotifyUserID: job.SpotifyUserID,
		PlaylistURLs:  job.PlaylistURLs,
		Options:       job.Options,
	}
}

// exactCandidate builds a search result that scores a perfect title and
// duration match for the given source title.
func exactCandidate(title string, durationSec int) match.Candidate {
	slug := strings.ReplaceAll(strings.ToLower(title), " ", "-")
	return match.Candidate{
		ID:         slug,
		Name:       title,
		DurationMS: durationSec * 1000,
		URI:        "spotify:track:" + slug,
	}
}

// progressRecordingTarget snapshots the job's stored progress percent on every
// search, so tests can assert the sequence the processor wrote.
type progressRecordingTarget struct {
	tu.MockTargetCatalog
	jobs     *repositories.JobRepository
	jobID    string
	percents []int
	steps    []string
}

func (p *progressRecordingTarget) Search(ctx context.Context, query, accessToken string) ([]match.Candidate, error) {
	job, err := p.jobs.Get(p.jobID)
	if err != nil {
		return nil, err
	}
	p.percents = append(p.percents, job.Progress.Percent)
	p.steps = append(p.steps, job.Progress.Step)
	return p.MockTargetCatalog.Search(ctx, query, accessToken)
}

func TestProcessJob(t *testing.T) {
	t.Run("Migrates Playlist End To End", func(t *testing.T) {
		f := setupFixture(t)
		job, msg := f.queueJob(t)

		source := &tu.MockSourceCatalog{Playlist: &models.SourcePlaylist{
			Title: "Road Trip Mix",
			Videos: []models.SourceVideo{
				{Title: "Blinding Lights", VideoID: "v1", Duration: 200},
				{Title: "Some Obscure Demo", VideoID: "v2", Duration: 180},
				{Title: "Levitating", VideoID: "v3", Duration: 203},
			},
		}}

		target := &progressRecordingTarget{jobs: f.jobs, jobID: job.JobID}
		target.SearchResults = map[string][]match.Candidate{
			"Blinding Lights": {exactCandidate("Blinding Lights", 200)},
			"Levitating":      {exactCandidate("Levitating", 203)},
		}
		target.Created = &services.CreatedPlaylist{ID: "pl1", URL: "https://open.spotify.com/playlist/pl1"}

		proc := f.newProcessor(t, source, target)
		if err := proc.ProcessJob(context.Background(), msg); err != nil {
			t.Fatalf("expected job to complete, got %v", err)
		}

		stored, err := f.jobs.Get(job.JobID)
		if err != nil {
			t.Fatalf("failed to load job: %v", err)
		}

		if stored.Status != models.StatusCompleted {
			t.Fatalf("expected completed status, got %s", stored.Status)
		}
		if stored.Progress.Step != "done" || stored.Progress.Percent != 100 {
			t.Errorf("expected done/100 progress, got %+v", stored.Progress)
		}
		if stored.Result == nil {
			t.Fatal("expected a result on the completed job")
		}
		if stored.Result.Matched != 2 || stored.Result.Failed != 1 {
			t.Errorf("expected 2 matched / 1 failed, got %d / %d", stored.Result.Matched, stored.Result.Failed)
		}
		if len(stored.Result.FailedSongs) != 1 || stored.Result.FailedSongs[0] != "Some Obscure Demo" {
			t.Errorf("unexpected failed songs: %v", stored.Result.FailedSongs)
		}
		if stored.Result.SpotifyPlaylistID != "pl1" {
			t.Errorf("unexpected playlist id %s", stored.Result.SpotifyPlaylistID)
		}
		if !strings.HasPrefix(stored.Result.SpotifyPlaylistName, "Road Trip Mix (from YouTube - ") {
			t.Errorf("unexpected playlist name %q", stored.Result.SpotifyPlaylistName)
		}

		if len(target.AddCalls) != 1 {
			t.Fatalf("expected 1 append call, got %d", len(target.AddCalls))
		}
		want := []string{"spotify:track:blinding-lights", "spotify:track:levitating"}
		if got := target.AddCalls[0]; len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
			t.Errorf("unexpected appended uris: %v", got)
		}

		// Progress markers written before each search: 10 + i*80/total.
		wantPercents := []int{10, 36, 63}
		if len(target.percents) != len(wantPercents) {
			t.Fatalf("expected %d progress snapshots, got %v", len(wantPercents), target.percents)
		}
		for i, want := range wantPercents {
			if target.percents[i] != want {
				t.Errorf("snapshot %d: expected percent %d, got %d", i, want, target.percents[i])
			}
		}
		if target.steps[0] != "matching songs (1/3)" {
			t.Errorf("unexpected first step %q", target.steps[0])
		}
		if target.steps[2] != "matching songs (3/3)" {
			t.Errorf("unexpected last step %q", target.steps[2])
		}
	})

	t.Run("Chunks Appends At One Hundred", func(t *testing.T) {
		f := setupFixture(t)
		_, msg := f.queueJob(t)

		const total = 250
		videos := make([]models.SourceVideo, 0, total)
		results := make(map[string][]match.Candidate, total)
		for i := range total {
			title := fmt.Sprintf("Track %03d", i)
			videos = append(videos, models.SourceVideo{Title: title, Duration: 180})
			results[title] = []match.Candidate{exactCandidate(title, 180)}
		}

		source := &tu.MockSourceCatalog{Playlist: &models.SourcePlaylist{Title: "Mega Mix", Videos: videos}}
		target := &tu.MockTargetCatalog{SearchResults: results}

		proc := f.newProcessor(t, source, target)
		if err := proc.ProcessJob(context.Background(), msg); err != nil {
			t.Fatalf("expected job to complete, got %v", err)
		}

		if len(target.AddCalls) != 3 {
			t.Fatalf("expected 3 append calls, got %d", len(target.AddCalls))
		}
		for i, wantLen := range []int{100, 100, 50} {
			if len(target.AddCalls[i]) != wantLen {
				t.Errorf("append %d: expected %d uris, got %d", i, wantLen, len(target.AddCalls[i]))
			}
		}
		if target.AddCalls[0][0] != "spotify:track:track-000" {
			t.Errorf("unexpected first uri %s", target.AddCalls[0][0])
		}
		if target.AddCalls[2][49] != "spotify:track:track-249" {
			t.Errorf("unexpected last uri %s", target.AddCalls[2][49])
		}
	})

	t.Run("Cache Hit Skips Search", func(t *testing.T) {
		f := setupFixture(t)
		_, msg := f.queueJob(t)

		title := "Blinding Lights (Official Video)"
		err := f.cache.Put(context.Background(), models.CachedMatch{
			YouTubeTitle: title,
			SpotifyURI:   "spotify:track:cached",
			SpotifyName:  "Blinding Lights",
		})
		if err != nil {
			t.Fatalf("failed to seed cache: %v", err)
		}

		source := &tu.MockSourceCatalog{Playlist: &models.SourcePlaylist{
			Title:  "Cached Mix",
			Videos: []models.SourceVideo{{Title: title, Duration: 200}},
		}}
		target := &tu.MockTargetCatalog{}

		proc := f.newProcessor(t, source, target)
		if err := proc.ProcessJob(context.Background(), msg); err != nil {
			t.Fatalf("expected job to complete, got %v", err)
		}

		if len(target.SearchCalls) != 0 {
			t.Errorf("expected zero searches, got %v", target.SearchCalls)
		}
		if len(target.AddCalls) != 1 || target.AddCalls[0][0] != "spotify:track:cached" {
			t.Errorf("expected cached uri appended, got %v", target.AddCalls)
		}
	})

	t.Run("Stores Accepted Matches In Cache", func(t *testing.T) {
		f := setupFixture(t)
		_, msg := f.queueJob(t)

		source := &tu.MockSourceCatalog{Playlist: &models.SourcePlaylist{
			Title:  "Fresh Mix",
			Videos: []models.SourceVideo{{Title: "Levitating", Duration: 203}},
		}}
		target := &tu.MockTargetCatalog{SearchResults: map[string][]match.Candidate{
			"Levitating": {exactCandidate("Levitating", 203)},
		}}

		proc := f.newProcessor(t, source, target)
		if err := proc.ProcessJob(context.Background(), msg); err != nil {
			t.Fatalf("expected job to complete, got %v", err)
		}

		entry, err := f.cache.Get(context.Background(), "Levitating")
		if err != nil {
			t.Fatalf("expected a cache entry, got %v", err)
		}
		if entry.SpotifyURI != "spotify:track:levitating" {
			t.Errorf("unexpected cached uri %s", entry.SpotifyURI)
		}
	})

	t.Run("Source Failure Marks Job Failed", func(t *testing.T) {
		f := setupFixture(t)
		job, msg := f.queueJob(t)

		source := &tu.MockSourceCatalog{Err: fmt.Errorf("%w: playlist not found or is private", shared.ErrPlaylistNotFound)}
		target := &tu.MockTargetCatalog{}

		proc := f.newProcessor(t, source, target)
		if err := proc.ProcessJob(context.Background(), msg); err == nil {
			t.Fatal("expected an error")
		}

		stored, err := f.jobs.Get(job.JobID)
		if err != nil {
			t.Fatalf("failed to load job: %v", err)
		}
		if stored.Status != models.StatusFailed {
			t.Errorf("expected failed status, got %s", stored.Status)
		}
		if stored.Error == "" {
			t.Error("expected an error message on the job")
		}
		if stored.Result != nil {
			t.Error("expected no result on a failed job")
		}
	})

	t.Run("Search Failure Leaves Partial Playlist", func(t *testing.T) {
		f := setupFixture(t)
		job, msg := f.queueJob(t)

		source := &tu.MockSourceCatalog{Playlist: &models.SourcePlaylist{
			Title:  "Doomed Mix",
			Videos: []models.SourceVideo{{Title: "Anything", Duration: 100}},
		}}
		target := &tu.MockTargetCatalog{
			SearchErr: fmt.Errorf("%w: Spotify API status 500", shared.ErrAPIRequest),
			Created:   &services.CreatedPlaylist{ID: "pl_partial", URL: "https://open.spotify.com/playlist/pl_partial"},
		}

		proc := f.newProcessor(t, source, target)
		if err := proc.ProcessJob(context.Background(), msg); !errors.Is(err, shared.ErrAPIRequest) {
			t.Fatalf("expected ErrAPIRequest, got %v", err)
		}

		stored, err := f.jobs.Get(job.JobID)
		if err != nil {
			t.Fatalf("failed to load job: %v", err)
		}
		if stored.Status != models.StatusFailed {
			t.Errorf("expected failed status, got %s", stored.Status)
		}
		if len(target.AddCalls) != 0 {
			t.Errorf("expected no appends after search failure, got %v", target.AddCalls)
		}
	})

	t.Run("Missing Refresh Token Fails Job", func(t *testing.T) {
		f := setupFixture(t)
		job, msg := f.queueJob(t)

		source := &tu.MockSourceCatalog{Playlist: &models.SourcePlaylist{
			Title:  "Tokenless Mix",
			Videos: []models.SourceVideo{{Title: "Anything", Duration: 100}},
		}}
		target := &tu.MockTargetCatalog{}

		proc := NewProcessor(
			f.jobs,
			repositories.NewMatchCache(f.cache, f.logger),
			source,
			target,
			&tu.StaticCredentialProvider{Err: shared.ErrNoRefreshToken},
			nil,
			0,
			f.logger,
		)

		if err := proc.ProcessJob(context.Background(), msg); !errors.Is(err, shared.ErrNoRefreshToken) {
			t.Fatalf("expected ErrNoRefreshToken, got %v", err)
		}

		stored, _ := f.jobs.Get(job.JobID)
		if stored.Status != models.StatusFailed {
			t.Errorf("expected failed status, got %s", stored.Status)
		}
	})

	t.Run("Unknown Job Fails Cleanly", func(t *testing.T) {
		f := setupFixture(t)

		proc := f.newProcessor(t, &tu.MockSourceCatalog{}, &tu.MockTargetCatalog{})
		msg := models.QueueMessage{
			JobID:         "job_missing",
			Type:          models.JobTypePlaylistMigration,
			SpotifyUserID: "user123",
			PlaylistURLs:  []string{"https://www.youtube.com/playlist?list=PLx"},
		}

		if err := proc.ProcessJob(context.Background(), msg); !errors.Is(err, shared.ErrJobNotFound) {
			t.Fatalf("expected ErrJobNotFound, got %v", err)
		}
	})
}
