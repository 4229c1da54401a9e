// package services defines clients for the source and target catalog HTTP APIs
//
// YouTube (Data API v3) is the source platform; Spotify is the target.
package services

import (
	"context"

	"github.com/desertthunder/syncwave/internal/match"
	"github.com/desertthunder/syncwave/internal/models"
)

// SourceCatalog reads playlists from the source platform.
type SourceCatalog interface {
	// FetchPlaylist retrieves a complete playlist with per-item durations,
	// paginating internally until the API reports no further page.
	FetchPlaylist(ctx context.Context, playlistRef string) (*models.SourcePlaylist, error)

	// Name returns the platform name (e.g. "YouTube").
	Name() string
}

// CreatedPlaylist identifies a playlist created on the target platform.
type CreatedPlaylist struct {
	ID  string
	URL string
}

// SpotifyUser is the owner identity on the target platform.
type SpotifyUser struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// TargetCatalog searches the target platform and builds playlists on it.
type TargetCatalog interface {
	// Search returns up to 10 track candidates for the query.
	Search(ctx context.Context, query, accessToken string) ([]match.Candidate, error)

	// CreatePlaylist creates an empty playlist owned by userID.
	CreatePlaylist(ctx context.Context, userID, name, description string, public bool, accessToken string) (*CreatedPlaylist, error)

	// AddTracks appends track URIs to a playlist. Callers must chunk to at most
	// 100 URIs per call.
	AddTracks(ctx context.Context, playlistID string, uris []string, accessToken string) error

	// CurrentUser resolves the identity behind an access token.
	CurrentUser(ctx context.Context, accessToken string) (*SpotifyUser, error)

	// Name returns the platform name (e.g. "Spotify").
	Name() string
}

// CredentialProvider exchanges a stored refresh credential for a short-lived
// access token, decoupling token lifecycle from the matching pipeline.
type CredentialProvider interface {
	AccessToken(ctx context.Context, refreshToken string) (string, error)
}
