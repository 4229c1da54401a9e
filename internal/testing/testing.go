// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"testing"

	"github.com/desertthunder/syncwave/internal/match"
	"github.com/desertthunder/syncwave/internal/models"
	"github.com/desertthunder/syncwave/internal/services"
)

// MockSourceCatalog is a test double for [services.SourceCatalog]
type MockSourceCatalog struct {
	Playlist *models.SourcePlaylist
	Err      error

	FetchCalls []string
}

func (m *MockSourceCatalog) FetchPlaylist(ctx context.Context, playlistRef string) (*models.SourcePlaylist, error) {
	m.FetchCalls = append(m.FetchCalls, playlistRef)
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Playlist, nil
}

func (m *MockSourceCatalog) Name() string { return "MockSource" }

// MockTargetCatalog is a test double for [services.TargetCatalog]. Search
// results are keyed by query; unknown queries return no candidates.
type MockTargetCatalog struct {
	SearchResults map[string][]match.Candidate
	SearchErr     error
	User          *services.SpotifyUser
	UserErr       error
	Created       *services.CreatedPlaylist
	CreateErr     error
	AddErr        error

	SearchCalls []string
	AddCalls    [][]string
}

func (m *MockTargetCatalog) Search(ctx context.Context, query, accessToken string) ([]match.Candidate, error) {
	m.SearchCalls = append(m.SearchCalls, query)
	if m.SearchErr != nil {
		return nil, m.SearchErr
	}
	return m.SearchResults[query], nil
}

func (m *MockTargetCatalog) CreatePlaylist(ctx context.Context, userID, name, description string, public bool, accessToken string) (*services.CreatedPlaylist, error) {
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	if m.Created != nil {
		return m.Created, nil
	}
	return &services.CreatedPlaylist{ID: "mock_playlist", URL: "https://open.spotify.com/playlist/mock_playlist"}, nil
}

func (m *MockTargetCatalog) AddTracks(ctx context.Context, playlistID string, uris []string, accessToken string) error {
	batch := make([]string, len(uris))
	copy(batch, uris)
	m.AddCalls = append(m.AddCalls, batch)
	return m.AddErr
}

func (m *MockTargetCatalog) CurrentUser(ctx context.Context, accessToken string) (*services.SpotifyUser, error) {
	if m.UserErr != nil {
		return nil, m.UserErr
	}
	if m.User != nil {
		return m.User, nil
	}
	return &services.SpotifyUser{ID: "mock_user", DisplayName: "Mock User"}, nil
}

func (m *MockTargetCatalog) Name() string { return "MockTarget" }

// StaticCredentialProvider is a test double for [services.CredentialProvider]
type StaticCredentialProvider struct {
	Token string
	Err   error
}

func (s *StaticCredentialProvider) AccessToken(ctx context.Context, refreshToken string) (string, error) {
	if s.Err != nil {
		return "", s.Err
	}
	return s.Token, nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// RoundTripFunc adapts a function into an [http.RoundTripper], letting tests
// vary the response per request.
type RoundTripFunc func(*http.Request) (*http.Response, error)

func (f RoundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
