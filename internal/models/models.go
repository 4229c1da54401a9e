// package models defines the data model for the playlist migration service
package models

import (
	"fmt"
	"time"

	"github.com/desertthunder/syncwave/internal/shared"
)

// JobType identifies the kind of work a job performs. Playlist migration is the
// only variant.
const JobTypePlaylistMigration = "PLAYLIST_MIGRATION"

// JobStatus is the lifecycle state of a migration job.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusProcessing JobStatus = "processing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
)

// Valid reports whether s is a known job status.
func (s JobStatus) Valid() bool {
	switch s {
	case StatusQueued, StatusProcessing, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// Terminal reports whether s is a final state.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransitionTo reports whether the status machine permits moving from s to next.
//
// Transitions are monotone: queued → processing → {completed, failed}. A terminal
// status never transitions again, and no status moves backward.
func (s JobStatus) CanTransitionTo(next JobStatus) bool {
	switch s {
	case StatusQueued:
		return next == StatusProcessing || next == StatusFailed
	case StatusProcessing:
		return next == StatusCompleted || next == StatusFailed
	default:
		return false
	}
}

// Visibility labels for target playlists.
const (
	VisibilityPrivate = "private"
	VisibilityPublic  = "public"
)

// Limits on job submissions.
const (
	MaxPlaylistURLs         = 20
	MaxPlaylistURLLength    = 2048
	DefaultMaxTracksPerList = 500
)

// JobOptions holds per-job tuning supplied by the submitter.
type JobOptions struct {
	Visibility           string `json:"visibility"`
	MaxTracksPerPlaylist int    `json:"maxTracksPerPlaylist"`
}

// ApplyDefaults fills zero-valued options with their defaults.
func (o *JobOptions) ApplyDefaults() {
	if o.Visibility == "" {
		o.Visibility = VisibilityPrivate
	}
	if o.MaxTracksPerPlaylist <= 0 {
		o.MaxTracksPerPlaylist = DefaultMaxTracksPerList
	}
}

// Progress is the human-readable state of a running job.
type Progress struct {
	Step    string `json:"step"`
	Percent int    `json:"percent"`
}

// JobResult records the outcome of a completed migration.
type JobResult struct {
	SpotifyPlaylistID   string   `json:"spotifyPlaylistId"`
	SpotifyPlaylistURL  string   `json:"spotifyPlaylistUrl"`
	SpotifyPlaylistName string   `json:"spotifyPlaylistName"`
	Matched             int      `json:"matched"`
	Failed              int      `json:"failed"`
	FailedSongs         []string `json:"failedSongs"`
}

// Job is the durable record of a playlist migration request.
//
// Created by the submission endpoint, owned by the job processor while running,
// and read by status pollers. Status transitions follow [JobStatus.CanTransitionTo].
type Job struct {
	JobID               string     `json:"jobId"`
	Type                string     `json:"type"`
	Status              JobStatus  `json:"status"`
	SpotifyUserID       string     `json:"spotifyUserId"`
	DisplayName         string     `json:"displayName,omitempty"`
	SpotifyRefreshToken string     `json:"-"` // never serialized to clients
	PlaylistURLs        []string   `json:"playlistUrls"`
	Options             JobOptions `json:"options"`
	Progress            Progress   `json:"progress"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt"`
	Error               string     `json:"error,omitempty"`
	Result              *JobResult `json:"result,omitempty"`
}

// NewJob constructs a queued migration job with a generated id and defaulted options.
func NewJob(spotifyUserID, displayName, refreshToken string, playlistURLs []string, opts JobOptions) *Job {
	opts.ApplyDefaults()
	now := time.Now().UTC()

	return &Job{
		JobID:               shared.GenerateJobID(),
		Type:                JobTypePlaylistMigration,
		Status:              StatusQueued,
		SpotifyUserID:       spotifyUserID,
		DisplayName:         displayName,
		SpotifyRefreshToken: refreshToken,
		PlaylistURLs:        playlistURLs,
		Options:             opts,
		Progress:            Progress{Step: "queued", Percent: 0},
		CreatedAt:           now,
		UpdatedAt:           now,
	}
}

// Validate checks the job's data and returns an error if any bound is violated.
func (j *Job) Validate() error {
	if j.JobID == "" {
		return fmt.Errorf("%w: missing job id", shared.ErrInvalidInput)
	}
	if j.Type != JobTypePlaylistMigration {
		return fmt.Errorf("%w: unknown job type %q", shared.ErrInvalidInput, j.Type)
	}
	if !j.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", shared.ErrInvalidInput, j.Status)
	}
	if j.SpotifyUserID == "" {
		return fmt.Errorf("%w: missing owner", shared.ErrInvalidInput)
	}
	if len(j.PlaylistURLs) == 0 {
		return fmt.Errorf("%w: playlistUrls must be a non-empty array", shared.ErrInvalidInput)
	}
	if len(j.PlaylistURLs) > MaxPlaylistURLs {
		return fmt.Errorf("%w: maximum %d playlists per job", shared.ErrInvalidInput, MaxPlaylistURLs)
	}
	for _, url := range j.PlaylistURLs {
		if url == "" || len(url) > MaxPlaylistURLLength {
			return fmt.Errorf("%w: invalid playlist URL", shared.ErrInvalidInput)
		}
	}
	if v := j.Options.Visibility; v != VisibilityPrivate && v != VisibilityPublic {
		return fmt.Errorf("%w: visibility must be private or public", shared.ErrInvalidInput)
	}
	if j.Progress.Percent < 0 || j.Progress.Percent > 100 {
		return fmt.Errorf("%w: progress percent out of range", shared.ErrInvalidInput)
	}
	if j.UpdatedAt.Before(j.CreatedAt) {
		return fmt.Errorf("%w: updatedAt precedes createdAt", shared.ErrInvalidInput)
	}
	return nil
}

// QueueMessage is the unit of work published to and consumed from the queue.
//
// The payload is a tagged variant keyed by Type and validated at the queue
// boundary before entering the typed pipeline.
type QueueMessage struct {
	JobID         string     `json:"jobId"`
	Type          string     `json:"type"`
	SpotifyUserID string     `json:"spotifyUserId"`
	PlaylistURLs  []string   `json:"playlistUrls"`
	Options       JobOptions `json:"options"`
}

// Validate checks the queue message before it is handed to the processor.
func (m *QueueMessage) Validate() error {
	if m.JobID == "" {
		return fmt.Errorf("%w: missing job id", shared.ErrInvalidInput)
	}
	if m.Type != JobTypePlaylistMigration {
		return fmt.Errorf("%w: unknown job type %q", shared.ErrInvalidInput, m.Type)
	}
	if len(m.PlaylistURLs) == 0 {
		return fmt.Errorf("%w: message has no playlist URLs", shared.ErrInvalidInput)
	}
	return nil
}

// SourceVideo is a single item scraped from a source playlist.
type SourceVideo struct {
	Title    string `json:"title"`
	VideoID  string `json:"videoId"`
	Duration int    `json:"duration"` // seconds
}

// SourcePlaylist is a scraped source playlist with its items in original order.
type SourcePlaylist struct {
	Title  string        `json:"title"`
	Videos []SourceVideo `json:"videos"`
}

// CachedMatch is a previously resolved source-title → Spotify-track mapping.
type CachedMatch struct {
	YouTubeTitle   string    `json:"youtubeTitle"` // lowercased raw title
	SpotifyURI     string    `json:"spotifyUri"`
	SpotifyName    string    `json:"spotifyName"`
	SpotifyArtists []string  `json:"spotifyArtists"`
	CachedAt       time.Time `json:"cachedAt"`
}
