// package repositories provides the persistence layer for jobs and cached matches.
//
// JobRepository is the durable job store: unconditional overwrites keyed by job
// id (last writer wins), with a secondary lookup by owner ordered newest first.
// SongCacheRepository backs the best-effort match cache.
package repositories

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/desertthunder/syncwave/internal/models"
	"github.com/desertthunder/syncwave/internal/shared"
)

// JobRepository persists migration jobs in SQLite.
type JobRepository struct {
	db *sql.DB
}

// NewJobRepository creates a new JobRepository with the given database connection
func NewJobRepository(db *sql.DB) *JobRepository {
	return &JobRepository{db: db}
}

// Create inserts a new job record.
func (r *JobRepository) Create(job *models.Job) error {
	if err := job.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	urls, err := json.Marshal(job.PlaylistURLs)
	if err != nil {
		return fmt.Errorf("failed to encode playlist URLs: %w", err)
	}

	query := `
		INSERT INTO jobs (
			job_id, job_type, status, spotify_user_id, display_name,
			spotify_refresh_token, playlist_urls, visibility,
			max_tracks_per_playlist, progress_step, progress_percent,
			error_message, result_json, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		job.JobID,
		job.Type,
		string(job.Status),
		job.SpotifyUserID,
		nullable(job.DisplayName),
		nullable(job.SpotifyRefreshToken),
		string(urls),
		job.Options.Visibility,
		job.Options.MaxTracksPerPlaylist,
		job.Progress.Step,
		job.Progress.Percent,
		nullable(job.Error),
		resultJSON(job.Result),
		job.CreatedAt,
		job.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert job: %w", err)
	}

	return nil
}

// Get retrieves a job by its id.
func (r *JobRepository) Get(id string) (*models.Job, error) {
	query := selectColumns + ` FROM jobs WHERE job_id = ?`

	job, err := scanJob(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", shared.ErrJobNotFound, id)
	}
	return job, err
}

// Update overwrites a job record unconditionally, keyed by job id.
//
// No optimistic concurrency control: concurrent writers race and the last write
// wins, matching the store's contract.
func (r *JobRepository) Update(job *models.Job) error {
	job.UpdatedAt = time.Now().UTC()

	if err := job.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	urls, err := json.Marshal(job.PlaylistURLs)
	if err != nil {
		return fmt.Errorf("failed to encode playlist URLs: %w", err)
	}

	query := `
		UPDATE jobs
		SET job_type = ?, status = ?, spotify_user_id = ?, display_name = ?,
			spotify_refresh_token = ?, playlist_urls = ?, visibility = ?,
			max_tracks_per_playlist = ?, progress_step = ?, progress_percent = ?,
			error_message = ?, result_json = ?, updated_at = ?
		WHERE job_id = ?
	`

	result, err := r.db.Exec(query,
		job.Type,
		string(job.Status),
		job.SpotifyUserID,
		nullable(job.DisplayName),
		nullable(job.SpotifyRefreshToken),
		string(urls),
		job.Options.Visibility,
		job.Options.MaxTracksPerPlaylist,
		job.Progress.Step,
		job.Progress.Percent,
		nullable(job.Error),
		resultJSON(job.Result),
		job.UpdatedAt,
		job.JobID,
	)
	if err != nil {
		return fmt.Errorf("failed to update job: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrJobNotFound, job.JobID)
	}

	return nil
}

// ListByUser retrieves all jobs owned by the given user, newest first.
func (r *JobRepository) ListByUser(userID string) ([]*models.Job, error) {
	query := selectColumns + ` FROM jobs WHERE spotify_user_id = ? ORDER BY created_at DESC`

	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*models.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return jobs, nil
}

// Transition moves a job to the next status after checking the state machine,
// applying mutate to the record before writing it back.
//
// Returns an error when the job is already terminal or the transition is not
// monotone; the stored record is left untouched in that case.
func (r *JobRepository) Transition(id string, next models.JobStatus, mutate func(*models.Job)) (*models.Job, error) {
	job, err := r.Get(id)
	if err != nil {
		return nil, err
	}

	if !job.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: cannot transition job %s from %s to %s",
			shared.ErrInvalidArgument, id, job.Status, next)
	}

	job.Status = next
	if mutate != nil {
		mutate(job)
	}

	if err := r.Update(job); err != nil {
		return nil, err
	}

	return job, nil
}

// SetProgress overwrites the progress marker of a processing job.
func (r *JobRepository) SetProgress(id string, step string, percent int) error {
	job, err := r.Get(id)
	if err != nil {
		return err
	}

	if job.Status.Terminal() {
		return fmt.Errorf("%w: job %s is already %s", shared.ErrInvalidArgument, id, job.Status)
	}

	job.Progress = models.Progress{Step: step, Percent: percent}
	return r.Update(job)
}

const selectColumns = `
	SELECT job_id, job_type, status, spotify_user_id, display_name,
		spotify_refresh_token, playlist_urls, visibility,
		max_tracks_per_playlist, progress_step, progress_percent,
		error_message, result_json, created_at, updated_at
`

// rowScanner abstracts over *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanJob scans a single row into a [models.Job].
func scanJob(row rowScanner) (*models.Job, error) {
	var (
		job          models.Job
		status       string
		displayName  sql.NullString
		refreshToken sql.NullString
		urls         string
		errorMessage sql.NullString
		result       sql.NullString
	)

	err := row.Scan(
		&job.JobID,
		&job.Type,
		&status,
		&job.SpotifyUserID,
		&displayName,
		&refreshToken,
		&urls,
		&job.Options.Visibility,
		&job.Options.MaxTracksPerPlaylist,
		&job.Progress.Step,
		&job.Progress.Percent,
		&errorMessage,
		&result,
		&job.CreatedAt,
		&job.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan job: %w", err)
	}

	job.Status = models.JobStatus(status)
	job.DisplayName = displayName.String
	job.SpotifyRefreshToken = refreshToken.String
	job.Error = errorMessage.String

	if err := json.Unmarshal([]byte(urls), &job.PlaylistURLs); err != nil {
		return nil, fmt.Errorf("failed to decode playlist URLs: %w", err)
	}

	if result.Valid && result.String != "" {
		var jr models.JobResult
		if err := json.Unmarshal([]byte(result.String), &jr); err != nil {
			return nil, fmt.Errorf("failed to decode job result: %w", err)
		}
		job.Result = &jr
	}

	return &job, nil
}

// nullable converts an empty string to NULL for storage.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// resultJSON encodes a job result for storage, NULL when absent.
func resultJSON(result *models.JobResult) any {
	if result == nil {
		return nil
	}

	data, err := json.Marshal(result)
	if err != nil {
		return nil
	}
	return string(data)
}
