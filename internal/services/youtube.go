// YouTube Data API v3 implementation of [SourceCatalog]
//
// Response types based on https://developers.google.com/youtube/v3/docs
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/desertthunder/syncwave/internal/models"
	"github.com/desertthunder/syncwave/internal/shared"
)

const defaultYouTubeBaseURL = "https://www.googleapis.com/youtube/v3"

// youtubeSnippet holds the fields we read from a snippet part.
type youtubeSnippet struct {
	Title string `json:"title"`
}

type youtubeContentDetails struct {
	VideoID  string `json:"videoId,omitempty"`
	Duration string `json:"duration,omitempty"` // ISO 8601, e.g. PT4M33S
}

type youtubeResource struct {
	ID             string                `json:"id"`
	Snippet        youtubeSnippet        `json:"snippet"`
	ContentDetails youtubeContentDetails `json:"contentDetails"`
}

type youtubeListResponse struct {
	Items         []youtubeResource `json:"items"`
	NextPageToken string            `json:"nextPageToken"`
}

// YouTubeService implements [SourceCatalog] against the YouTube Data API.
type YouTubeService struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewYouTubeService creates a new YouTube Data API client.
func NewYouTubeService(apiKey string, client *http.Client) *YouTubeService {
	if client == nil {
		client = http.DefaultClient
	}

	return &YouTubeService{
		apiKey:     apiKey,
		baseURL:    defaultYouTubeBaseURL,
		httpClient: client,
	}
}

// Name returns the platform name.
func (y *YouTubeService) Name() string {
	return "YouTube"
}

var playlistIDPattern = regexp.MustCompile(`[?&]list=([^&]+)`)

// ExtractPlaylistID pulls the playlist identifier out of a YouTube playlist URL.
func ExtractPlaylistID(playlistURL string) (string, error) {
	m := playlistIDPattern.FindStringSubmatch(playlistURL)
	if m == nil {
		return "", fmt.Errorf("%w: invalid YouTube playlist URL", shared.ErrInvalidInput)
	}
	return m[1], nil
}

// FetchPlaylist retrieves a complete playlist with per-item durations.
//
// Pages through playlistItems 50 at a time until no nextPageToken is returned,
// then resolves durations from the videos endpoint.
func (y *YouTubeService) FetchPlaylist(ctx context.Context, playlistRef string) (*models.SourcePlaylist, error) {
	if y.apiKey == "" {
		return nil, fmt.Errorf("%w: YouTube API key not configured", shared.ErrMissingCredentials)
	}

	playlistID, err := ExtractPlaylistID(playlistRef)
	if err != nil {
		return nil, err
	}

	var meta youtubeListResponse
	params := url.Values{"part": {"snippet"}, "id": {playlistID}}
	if err := y.doRequest(ctx, "/playlists", params, &meta); err != nil {
		return nil, err
	}
	if len(meta.Items) == 0 {
		return nil, fmt.Errorf("%w: playlist not found or is private", shared.ErrPlaylistNotFound)
	}

	playlist := &models.SourcePlaylist{Title: meta.Items[0].Snippet.Title}

	pageToken := ""
	for {
		params := url.Values{
			"part":       {"snippet,contentDetails"},
			"playlistId": {playlistID},
			"maxResults": {"50"},
		}
		if pageToken != "" {
			params.Set("pageToken", pageToken)
		}

		var page youtubeListResponse
		if err := y.doRequest(ctx, "/playlistItems", params, &page); err != nil {
			return nil, err
		}

		videos, err := y.fetchVideos(ctx, videoIDs(page.Items))
		if err != nil {
			return nil, err
		}
		playlist.Videos = append(playlist.Videos, videos...)

		if page.NextPageToken == "" {
			break
		}
		pageToken = page.NextPageToken
	}

	return playlist, nil
}

// fetchVideos resolves titles and durations for a batch of video ids.
func (y *YouTubeService) fetchVideos(ctx context.Context, ids []string) ([]models.SourceVideo, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	params := url.Values{
		"part": {"contentDetails,snippet"},
		"id":   {strings.Join(ids, ",")},
	}

	var resp youtubeListResponse
	if err := y.doRequest(ctx, "/videos", params, &resp); err != nil {
		return nil, err
	}

	videos := make([]models.SourceVideo, 0, len(resp.Items))
	for _, item := range resp.Items {
		videos = append(videos, models.SourceVideo{
			Title:    item.Snippet.Title,
			VideoID:  item.ID,
			Duration: ParseISO8601Duration(item.ContentDetails.Duration),
		})
	}

	return videos, nil
}

// doRequest performs a GET against the Data API with the key appended.
func (y *YouTubeService) doRequest(ctx context.Context, endpoint string, params url.Values, result any) error {
	params.Set("key", y.apiKey)
	apiURL := y.baseURL + endpoint + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := y.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w: YouTube API", shared.ErrRateLimited)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: YouTube API status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

func videoIDs(items []youtubeResource) []string {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		if item.ContentDetails.VideoID != "" {
			ids = append(ids, item.ContentDetails.VideoID)
		}
	}
	return ids
}

var durationPattern = regexp.MustCompile(`PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?`)

// ParseISO8601Duration converts an ISO 8601 duration (e.g. "PT4M33S") to whole
// seconds. Missing fields are treated as zero; unparseable input yields 0.
func ParseISO8601Duration(duration string) int {
	m := durationPattern.FindStringSubmatch(duration)
	if m == nil {
		return 0
	}

	hours, _ := strconv.Atoi(zeroDefault(m[1]))
	minutes, _ := strconv.Atoi(zeroDefault(m[2]))
	seconds, _ := strconv.Atoi(zeroDefault(m[3]))

	return hours*3600 + minutes*60 + seconds
}

func zeroDefault(s string) string {
	if s == "" {
		return "0"
	}
	return s
}
