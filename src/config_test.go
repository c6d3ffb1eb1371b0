package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	filename := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(filename, []byte(content), 0644))
	return filename
}

func TestLoadConfig(t *testing.T) {
	filename := writeConfig(t, `
bind: localhost:3000
redis:
  host: redis
  db: 2
lastfm_api_key: fm
youtube_api_key: yt
tags: [rock, jazz]
`)
	conf, err := LoadConfig(filename)
	require.NoError(t, err)
	assert.Empty(t, conf.Validate())
	assert.Equal(t, "localhost:3000", conf.Address)
	assert.Equal(t, "redis", conf.Redis.Host)
	assert.Equal(t, 2, conf.Redis.DB)
	assert.Equal(t, []string{"rock", "jazz"}, conf.Tags)
	assert.Equal(t, 64, conf.InspectQueue)
}

func TestLoadConfigUnknownField(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "colors: {}\n"))
	assert.Error(t, err)
}

func TestLoadConfigEnvironment(t *testing.T) {
	t.Setenv("COSETTE_REDIS_HOST", "cache")
	t.Setenv("COSETTE_REDIS_DB", "3")
	t.Setenv("COSETTE_LASTFM_API_KEY", "env-fm")
	t.Setenv("COSETTE_YOUTUBE_API_KEY", "env-yt")

	conf, err := LoadConfig(writeConfig(t, "lastfm_api_key: file-fm\n"))
	require.NoError(t, err)
	assert.Equal(t, "cache", conf.Redis.Host)
	assert.Equal(t, 3, conf.Redis.DB)
	assert.Equal(t, "env-fm", conf.LastFMAPIKey)
	assert.Equal(t, "env-yt", conf.YouTubeAPIKey)
	assert.Equal(t, ":8080", conf.Address)
}

func TestLoadConfigMissingFile(t *testing.T) {
	conf, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	errs := conf.Validate()
	assert.Len(t, errs, 2)
}
