package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/syncwave/internal/models"
	"github.com/desertthunder/syncwave/internal/queue"
	"github.com/desertthunder/syncwave/internal/repositories"
	"github.com/desertthunder/syncwave/internal/services"
)

// Cookie names set by the OAuth callback and read on every API request.
const (
	accessTokenCookie  = "spotify_access_token"
	refreshTokenCookie = "spotify_refresh_token"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// API serves the job submission and status endpoints.
//
// Every request is authenticated by resolving the caller's token cookies
// against the Spotify identity endpoint; jobs are only visible to their owner.
type API struct {
	jobs   *repositories.JobRepository
	queue  queue.Queue
	target services.TargetCatalog
	logger *log.Logger
}

// NewAPI creates the job API handler.
func NewAPI(jobs *repositories.JobRepository, q queue.Queue, target services.TargetCatalog, logger *log.Logger) *API {
	return &API{jobs: jobs, queue: q, target: target, logger: logger}
}

// Routes returns the path patterns this handler serves.
func (a *API) Routes() []string {
	return []string{"/api/jobs", "/api/jobs/"}
}

// ServeHTTP dispatches job API requests.
func (a *API) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/api/jobs" && r.Method == http.MethodPost:
		a.submitJob(w, r)
	case r.URL.Path == "/api/jobs" && r.Method == http.MethodGet:
		a.listJobs(w, r)
	case strings.HasPrefix(r.URL.Path, "/api/jobs/") && r.Method == http.MethodGet:
		a.getJob(w, r, strings.TrimPrefix(r.URL.Path, "/api/jobs/"))
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// authenticate resolves the caller's Spotify identity from the token cookies.
// Returns the identity and the refresh token for job creation.
func (a *API) authenticate(r *http.Request) (*services.SpotifyUser, string, error) {
	refresh, err := r.Cookie(refreshTokenCookie)
	if err != nil || refresh.Value == "" {
		return nil, "", errors.New("Not authenticated")
	}

	access, err := r.Cookie(accessTokenCookie)
	if err != nil || access.Value == "" {
		return nil, "", errors.New("No access token - please refresh")
	}

	user, err := a.target.CurrentUser(r.Context(), access.Value)
	if err != nil {
		return nil, "", errors.New("Failed to verify Spotify identity")
	}

	return user, refresh.Value, nil
}

// submitJobRequest is the POST /api/jobs body.
type submitJobRequest struct {
	Type   string `json:"type"`
	Source struct {
		Platform     string   `json:"platform"`
		PlaylistURLs []string `json:"playlistUrls"`
	} `json:"source"`
	Target struct {
		Platform string `json:"platform"`
	} `json:"target"`
	Options models.JobOptions `json:"options"`
}

func (a *API) submitJob(w http.ResponseWriter, r *http.Request) {
	user, refreshToken, err := a.authenticate(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	var body submitJobRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if body.Type != models.JobTypePlaylistMigration {
		writeError(w, http.StatusBadRequest, "Invalid job type")
		return
	}
	if body.Source.Platform != "youtube" {
		writeError(w, http.StatusBadRequest, "Only YouTube source supported")
		return
	}

	urls := body.Source.PlaylistURLs
	if len(urls) == 0 {
		writeError(w, http.StatusBadRequest, "playlistUrls must be non-empty array")
		return
	}
	if len(urls) > models.MaxPlaylistURLs {
		writeError(w, http.StatusBadRequest, "Maximum 20 playlists per job")
		return
	}
	for _, u := range urls {
		if u == "" || len(u) > models.MaxPlaylistURLLength {
			writeError(w, http.StatusBadRequest, "Invalid playlist URL")
			return
		}
	}

	job := models.NewJob(user.ID, user.DisplayName, refreshToken, urls, body.Options)

	if err := a.jobs.Create(job); err != nil {
		a.logger.Error("failed to create job", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to create job")
		return
	}

	msg := models.QueueMessage{
		JobID:         job.JobID,
		Type:          job.Type,
		SpotifyUserID: job.SpotifyUserID,
		PlaylistURLs:  job.PlaylistURLs,
		Options:       job.Options,
	}
	if err := a.queue.Enqueue(r.Context(), msg); err != nil {
		a.logger.Error("failed to enqueue job", "job_id", job.JobID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to queue job")
		return
	}

	a.logger.Info("job submitted", "job_id", job.JobID, "user", job.SpotifyUserID)
	writeJSON(w, http.StatusAccepted, map[string]any{
		"jobId":  job.JobID,
		"status": job.Status,
	})
}

// jobStatusResponse is the client view of a job: the refresh token and other
// internals never leave the server.
type jobStatusResponse struct {
	JobID     string            `json:"jobId"`
	Status    models.JobStatus  `json:"status"`
	Progress  models.Progress   `json:"progress"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
	Error     string            `json:"error,omitempty"`
	Result    *models.JobResult `json:"result,omitempty"`
}

func statusView(job *models.Job) jobStatusResponse {
	return jobStatusResponse{
		JobID:     job.JobID,
		Status:    job.Status,
		Progress:  job.Progress,
		CreatedAt: job.CreatedAt,
		UpdatedAt: job.UpdatedAt,
		Error:     job.Error,
		Result:    job.Result,
	}
}

func (a *API) getJob(w http.ResponseWriter, r *http.Request, jobID string) {
	user, _, err := a.authenticate(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	job, err := a.jobs.Get(jobID)
	if err != nil {
		writeError(w, http.StatusNotFound, "Job not found")
		return
	}

	if job.SpotifyUserID != user.ID {
		writeError(w, http.StatusForbidden, "Unauthorized - this job belongs to another user")
		return
	}

	writeJSON(w, http.StatusOK, statusView(job))
}

func (a *API) listJobs(w http.ResponseWriter, r *http.Request) {
	user, _, err := a.authenticate(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	jobs, err := a.jobs.ListByUser(user.ID)
	if err != nil {
		a.logger.Error("failed to list jobs", "user", user.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch jobs")
		return
	}

	views := make([]jobStatusResponse, 0, len(jobs))
	for _, job := range jobs {
		views = append(views, statusView(job))
	}

	writeJSON(w, http.StatusOK, map[string]any{"jobs": views})
}

// HealthHandler reports service liveness.
type HealthHandler struct{}

// Routes returns the path patterns this handler serves.
func (h *HealthHandler) Routes() []string {
	return []string{"/health"}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"service":   "syncwave",
		"status":    "ok",
		"message":   "Syncwave backend is running",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// AuthHandler serves the browser OAuth flow: login redirects to the Spotify
// consent page, callback exchanges the code and sets the token cookies.
type AuthHandler struct {
	provider *services.SpotifyTokenProvider
	logger   *log.Logger
}

// NewAuthHandler creates the browser OAuth handler.
func NewAuthHandler(provider *services.SpotifyTokenProvider, logger *log.Logger) *AuthHandler {
	return &AuthHandler{provider: provider, logger: logger}
}

// Routes returns the path patterns this handler serves.
func (h *AuthHandler) Routes() []string {
	return []string{"/auth/spotify/login", "/auth/spotify/callback"}
}

func (h *AuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/auth/spotify/login":
		http.Redirect(w, r, h.provider.AuthCodeURL(""), http.StatusFound)
	case "/auth/spotify/callback":
		h.callback(w, r)
	default:
		writeError(w, http.StatusNotFound, "Not found")
	}
}

func (h *AuthHandler) callback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		writeError(w, http.StatusBadRequest, "Missing code")
		return
	}

	token, err := h.provider.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("token exchange failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Token exchange failed")
		return
	}

	accessMaxAge := int(time.Until(token.Expiry).Seconds())
	if accessMaxAge <= 0 {
		accessMaxAge = 3600
	}

	http.SetCookie(w, &http.Cookie{
		Name:     accessTokenCookie,
		Value:    token.AccessToken,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		MaxAge:   accessMaxAge,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     refreshTokenCookie,
		Value:    token.RefreshToken,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		MaxAge:   60 * 60 * 24 * 30,
	})

	http.Redirect(w, r, "/", http.StatusFound)
}
