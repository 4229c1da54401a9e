// package formatter renders migration jobs for CLI output (JSON, Markdown, plain text)
package formatter

import (
	"bytes"
	"fmt"

	"github.com/desertthunder/syncwave/internal/models"
	"github.com/desertthunder/syncwave/internal/shared"
)

// Format names accepted by the jobs status command.
const (
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
	FormatText     = "text"
)

// JobToJSON renders a job status view as indented JSON.
func JobToJSON(job *models.Job) ([]byte, error) {
	return shared.MarshalJSON(job, true)
}

// JobToMarkdown renders a job as a Markdown summary with the result breakdown
// when the job has finished.
func JobToMarkdown(job *models.Job) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# Job %s\n\n", job.JobID))
	buf.WriteString(fmt.Sprintf("**Status**: %s\n", job.Status))
	buf.WriteString(fmt.Sprintf("**Progress**: %s (%d%%)\n", job.Progress.Step, job.Progress.Percent))
	buf.WriteString(fmt.Sprintf("**Submitted**: %s\n", job.CreatedAt.Format("2006-01-02 15:04:05")))
	buf.WriteString(fmt.Sprintf("**Updated**: %s\n", job.UpdatedAt.Format("2006-01-02 15:04:05")))

	if job.Error != "" {
		buf.WriteString(fmt.Sprintf("\n**Error**: %s\n", job.Error))
	}

	if job.Result != nil {
		buf.WriteString("\n## Result\n\n")
		buf.WriteString(fmt.Sprintf("**Playlist**: [%s](%s)\n", job.Result.SpotifyPlaylistName, job.Result.SpotifyPlaylistURL))
		buf.WriteString(fmt.Sprintf("**Matched**: %d\n", job.Result.Matched))
		buf.WriteString(fmt.Sprintf("**Failed**: %d\n", job.Result.Failed))

		if len(job.Result.FailedSongs) > 0 {
			buf.WriteString("\n### Unmatched Songs\n\n")
			for i, title := range job.Result.FailedSongs {
				buf.WriteString(fmt.Sprintf("%d. %s\n", i+1, title))
			}
		}
	}

	return buf.Bytes()
}

// JobToText renders a job as plain text for terminal display.
func JobToText(job *models.Job) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Job: %s\n", job.JobID))
	buf.WriteString(fmt.Sprintf("Status: %s\n", job.Status))
	buf.WriteString(fmt.Sprintf("Progress: %s (%d%%)\n", job.Progress.Step, job.Progress.Percent))

	if job.Error != "" {
		buf.WriteString(fmt.Sprintf("Error: %s\n", job.Error))
	}

	if job.Result != nil {
		buf.WriteString(fmt.Sprintf("Playlist: %s\n", job.Result.SpotifyPlaylistName))
		buf.WriteString(fmt.Sprintf("URL: %s\n", job.Result.SpotifyPlaylistURL))
		buf.WriteString(fmt.Sprintf("Matched: %d, Failed: %d\n", job.Result.Matched, job.Result.Failed))

		for _, title := range job.Result.FailedSongs {
			buf.WriteString(fmt.Sprintf("  ✗ %s\n", title))
		}
	}

	return buf.Bytes()
}

// JobList renders a one-line-per-job table for the jobs list command.
func JobList(jobs []*models.Job) []byte {
	var buf bytes.Buffer

	if len(jobs) == 0 {
		buf.WriteString("No jobs found.\n")
		return buf.Bytes()
	}

	for _, job := range jobs {
		buf.WriteString(fmt.Sprintf("%-28s  %-10s  %3d%%  %s\n",
			job.JobID, job.Status, job.Progress.Percent, job.CreatedAt.Format("2006-01-02 15:04")))
	}

	return buf.Bytes()
}
