package services

import (
	"context"
	"fmt"

	"github.com/desertthunder/syncwave/internal/shared"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
)

// SpotifyTokenProvider implements [CredentialProvider] using the OAuth2
// refresh-token grant against the Spotify accounts service.
type SpotifyTokenProvider struct {
	config *oauth2.Config
}

// NewSpotifyTokenProvider creates a provider from the configured client credentials.
func NewSpotifyTokenProvider(cfg shared.SpotifyConfig) *SpotifyTokenProvider {
	return &SpotifyTokenProvider{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes: []string{
				"user-read-private",
				"playlist-modify-private",
				"playlist-modify-public",
			},
			Endpoint: oauth2.Endpoint{
				AuthURL:  spotifyAuthURL,
				TokenURL: spotifyTokenURL,
			},
		},
	}
}

// AccessToken exchanges a stored refresh credential for a short-lived access token.
func (p *SpotifyTokenProvider) AccessToken(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", shared.ErrNoRefreshToken
	}

	source := p.config.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})

	token, err := source.Token()
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
	}

	return token.AccessToken, nil
}

// AuthCodeURL returns the OAuth2 authorization URL for user login.
func (p *SpotifyTokenProvider) AuthCodeURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Exchange trades an authorization code for a token pair.
func (p *SpotifyTokenProvider) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}
	return token, nil
}

// OAuthConfig exposes the underlying config for the callback server.
func (p *SpotifyTokenProvider) OAuthConfig() *oauth2.Config {
	return p.config
}
