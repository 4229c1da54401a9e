package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/syncwave/internal/models"
)

// SongCacheRepository persists resolved title→track matches, keyed by the
// lowercased raw source title.
type SongCacheRepository struct {
	db *sql.DB
}

// NewSongCacheRepository creates a new SongCacheRepository with the given database connection
func NewSongCacheRepository(db *sql.DB) *SongCacheRepository {
	return &SongCacheRepository{db: db}
}

// Get retrieves a cached match by raw title. Returns sql.ErrNoRows on a miss.
func (r *SongCacheRepository) Get(ctx context.Context, title string) (*models.CachedMatch, error) {
	query := `
		SELECT youtube_title, spotify_uri, spotify_name, spotify_artists, cached_at
		FROM song_cache
		WHERE youtube_title = ?
	`

	var (
		entry   models.CachedMatch
		artists string
	)

	err := r.db.QueryRowContext(ctx, query, strings.ToLower(title)).Scan(
		&entry.YouTubeTitle,
		&entry.SpotifyURI,
		&entry.SpotifyName,
		&artists,
		&entry.CachedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(artists), &entry.SpotifyArtists); err != nil {
		return nil, fmt.Errorf("failed to decode cached artists: %w", err)
	}

	return &entry, nil
}

// Put stores a resolved match, overwriting any previous entry for the same key.
func (r *SongCacheRepository) Put(ctx context.Context, entry models.CachedMatch) error {
	artists, err := json.Marshal(entry.SpotifyArtists)
	if err != nil {
		return fmt.Errorf("failed to encode artists: %w", err)
	}

	if entry.CachedAt.IsZero() {
		entry.CachedAt = time.Now().UTC()
	}

	query := `
		INSERT OR REPLACE INTO song_cache (youtube_title, spotify_uri, spotify_name, spotify_artists, cached_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, query,
		strings.ToLower(entry.YouTubeTitle),
		entry.SpotifyURI,
		entry.SpotifyName,
		string(artists),
		entry.CachedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to store cache entry: %w", err)
	}

	return nil
}

// Count returns the number of cached matches.
func (r *SongCacheRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM song_cache").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count cache entries: %w", err)
	}
	return count, nil
}

// MatchCache is the best-effort lookup layer over [SongCacheRepository].
//
// Neither method can fail observably: storage errors are logged and degrade to
// a miss (Lookup) or a dropped write (Store), so callers are structurally
// prevented from treating cache trouble as fatal.
type MatchCache struct {
	repo   *SongCacheRepository
	logger *log.Logger
}

// NewMatchCache creates a best-effort cache over the given repository.
func NewMatchCache(repo *SongCacheRepository, logger *log.Logger) *MatchCache {
	return &MatchCache{repo: repo, logger: logger}
}

// Lookup returns the cached Spotify URI for a raw source title, if present.
func (c *MatchCache) Lookup(ctx context.Context, title string) (string, bool) {
	entry, err := c.repo.Get(ctx, title)
	if err != nil {
		if err != sql.ErrNoRows {
			c.logger.Warn("cache lookup failed", "title", title, "error", err)
		}
		return "", false
	}

	c.logger.Debug("cache hit", "title", title, "uri", entry.SpotifyURI)
	return entry.SpotifyURI, true
}

// Store records a resolved match. Failures are logged and dropped.
func (c *MatchCache) Store(ctx context.Context, title, uri, name string, artists []string) {
	entry := models.CachedMatch{
		YouTubeTitle:   title,
		SpotifyURI:     uri,
		SpotifyName:    name,
		SpotifyArtists: artists,
	}

	if err := c.repo.Put(ctx, entry); err != nil {
		c.logger.Warn("cache store failed", "title", title, "error", err)
		return
	}

	c.logger.Debug("cached match", "title", title, "name", name)
}
