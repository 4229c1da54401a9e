// Spotify API implementation of [TargetCatalog]
//
// Response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/desertthunder/syncwave/internal/match"
	"github.com/desertthunder/syncwave/internal/shared"
)

const (
	defaultSpotifyBaseURL = "https://api.spotify.com/v1"

	// MaxTracksPerAppend is the Spotify platform limit on URIs per append call.
	MaxTracksPerAppend = 100

	searchLimit = 10
)

type spotifyArtist struct {
	Name string `json:"name"`
}

type spotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []spotifyArtist `json:"artists"`
	DurationMS int             `json:"duration_ms"`
	URI        string          `json:"uri"`
}

type spotifySearchResponse struct {
	Tracks struct {
		Items []spotifyTrack `json:"items"`
	} `json:"tracks"`
}

type spotifyPlaylistResponse struct {
	ID           string `json:"id"`
	ExternalURLs struct {
		Spotify string `json:"spotify"`
	} `json:"external_urls"`
}

// SpotifyService implements [TargetCatalog] against the Spotify Web API.
//
// All methods take the caller's access token; token refresh belongs to
// [SpotifyTokenProvider].
type SpotifyService struct {
	baseURL    string
	httpClient *http.Client
}

// NewSpotifyService creates a new Spotify Web API client.
func NewSpotifyService(client *http.Client) *SpotifyService {
	if client == nil {
		client = http.DefaultClient
	}

	return &SpotifyService{
		baseURL:    defaultSpotifyBaseURL,
		httpClient: client,
	}
}

// Name returns the platform name.
func (s *SpotifyService) Name() string {
	return "Spotify"
}

// Search returns up to 10 track candidates for the query.
func (s *SpotifyService) Search(ctx context.Context, query, accessToken string) ([]match.Candidate, error) {
	endpoint := fmt.Sprintf("/search?q=%s&type=track&limit=%d", url.QueryEscape(query), searchLimit)

	var resp spotifySearchResponse
	if err := s.doRequest(ctx, http.MethodGet, endpoint, accessToken, nil, &resp); err != nil {
		return nil, fmt.Errorf("spotify search failed: %w", err)
	}

	candidates := make([]match.Candidate, 0, len(resp.Tracks.Items))
	for _, track := range resp.Tracks.Items {
		names := make([]string, 0, len(track.Artists))
		for _, a := range track.Artists {
			names = append(names, a.Name)
		}

		candidates = append(candidates, match.Candidate{
			ID:         track.ID,
			Name:       track.Name,
			Artists:    names,
			DurationMS: track.DurationMS,
			URI:        track.URI,
		})
	}

	return candidates, nil
}

// CreatePlaylist creates an empty playlist owned by userID.
func (s *SpotifyService) CreatePlaylist(ctx context.Context, userID, name, description string, public bool, accessToken string) (*CreatedPlaylist, error) {
	endpoint := fmt.Sprintf("/users/%s/playlists", url.PathEscape(userID))
	body := map[string]any{
		"name":        name,
		"description": description,
		"public":      public,
	}

	var resp spotifyPlaylistResponse
	if err := s.doRequest(ctx, http.MethodPost, endpoint, accessToken, body, &resp); err != nil {
		return nil, fmt.Errorf("failed to create playlist: %w", err)
	}

	return &CreatedPlaylist{ID: resp.ID, URL: resp.ExternalURLs.Spotify}, nil
}

// AddTracks appends track URIs to a playlist.
//
// The platform caps appends at 100 URIs; callers chunk, this method enforces.
func (s *SpotifyService) AddTracks(ctx context.Context, playlistID string, uris []string, accessToken string) error {
	if len(uris) == 0 {
		return nil
	}
	if len(uris) > MaxTracksPerAppend {
		return fmt.Errorf("%w: at most %d tracks per append, got %d", shared.ErrInvalidArgument, MaxTracksPerAppend, len(uris))
	}

	endpoint := fmt.Sprintf("/playlists/%s/tracks", url.PathEscape(playlistID))
	body := map[string]any{"uris": uris}

	if err := s.doRequest(ctx, http.MethodPost, endpoint, accessToken, body, nil); err != nil {
		return fmt.Errorf("failed to add tracks to playlist: %w", err)
	}

	return nil
}

// CurrentUser resolves the identity behind an access token.
func (s *SpotifyService) CurrentUser(ctx context.Context, accessToken string) (*SpotifyUser, error) {
	var user SpotifyUser
	if err := s.doRequest(ctx, http.MethodGet, "/me", accessToken, nil, &user); err != nil {
		return nil, fmt.Errorf("%w: failed to verify Spotify identity", shared.ErrNotAuthenticated)
	}
	return &user, nil
}

// doRequest performs an authenticated HTTP request to the Spotify API.
func (s *SpotifyService) doRequest(ctx context.Context, method, endpoint, accessToken string, body, result any) error {
	if accessToken == "" {
		return fmt.Errorf("%w: missing access token", shared.ErrNotAuthenticated)
	}

	apiURL := s.baseURL + endpoint

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w: Spotify API", shared.ErrRateLimited)
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%w: Spotify API status 401", shared.ErrNotAuthenticated)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: Spotify API status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}
