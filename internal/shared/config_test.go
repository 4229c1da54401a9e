package shared

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Database.Path == "" {
		t.Error("expected default database path")
	}
	if config.Redis.QueueKey != "syncwave:jobs" {
		t.Errorf("expected default queue key, got %q", config.Redis.QueueKey)
	}
	if config.Worker.AppendBatchSize != 100 {
		t.Errorf("expected append batch size 100, got %d", config.Worker.AppendBatchSize)
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	content := `
[credentials.spotify]
client_id = "abc"
client_secret = "def"

[credentials.youtube]
api_key = "yt-key"

[database]
path = "test.db"

[redis]
addr = "localhost:6380"
queue_key = "test:jobs"
poll_seconds = 5
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if config.Credentials.Spotify.ClientID != "abc" {
		t.Errorf("expected client_id abc, got %q", config.Credentials.Spotify.ClientID)
	}
	if config.Credentials.YouTube.APIKey != "yt-key" {
		t.Errorf("expected api_key yt-key, got %q", config.Credentials.YouTube.APIKey)
	}
	if config.Redis.PollTimeout() != 5*time.Second {
		t.Errorf("expected 5s poll timeout, got %v", config.Redis.PollTimeout())
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig("/nonexistent/config.toml"); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestPollTimeoutDefault(t *testing.T) {
	r := RedisConfig{}
	if r.PollTimeout() != 20*time.Second {
		t.Errorf("expected 20s default, got %v", r.PollTimeout())
	}
}

func TestSaveConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	config := DefaultConfig()
	config.Credentials.Spotify.RefreshToken = "refresh-123"

	if err := SaveConfig(path, config); err != nil {
		t.Fatalf("failed to save config: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("saved config should be loadable: %v", err)
	}

	if loaded.Credentials.Spotify.RefreshToken != "refresh-123" {
		t.Errorf("expected refresh token to round-trip, got %q", loaded.Credentials.Spotify.RefreshToken)
	}
}

func TestCreateConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	if err := CreateConfigFile(path); err != nil {
		t.Fatalf("failed to create config file: %v", err)
	}

	if err := CreateConfigFile(path); err == nil {
		t.Error("expected error when config file already exists")
	}

	if _, err := LoadConfig(path); err != nil {
		t.Errorf("created config should be loadable: %v", err)
	}
}
