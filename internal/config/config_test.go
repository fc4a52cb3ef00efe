package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "./Cafes.csv", cfg.Dataset.Path)
	assert.Equal(t, 15*time.Minute, cfg.Dataset.ParseRefreshInterval())
	assert.Equal(t, "Mar del Plata, Buenos Aires, Argentina", cfg.Geocoder.CityBias)
	assert.Equal(t, 10*time.Second, cfg.Geocoder.ParseTimeout())
	assert.Equal(t, "sqlite", cfg.Votes.Backend)
	assert.Equal(t, 5.0, cfg.Ranking.SmoothingVotes)
	assert.Equal(t, 2.0, cfg.Search.DefaultRadiusKM)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
dataset:
  url: https://example.com/export.csv
  refresh_interval: 5m
votes:
  backend: csv
  csv_path: /tmp/votes.csv
server:
  port: 9090
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://example.com/export.csv", cfg.Dataset.URL)
	assert.Equal(t, 5*time.Minute, cfg.Dataset.ParseRefreshInterval())
	assert.Equal(t, "csv", cfg.Votes.Backend)
	assert.Equal(t, 9090, cfg.Server.Port)

	// Untouched sections keep defaults.
	assert.Equal(t, "Mar del Plata, Buenos Aires, Argentina", cfg.Geocoder.CityBias)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/does/not/exist.yaml")
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CAFECERCA_DATASET_URL", "https://env.example.com/cafes.csv")
	t.Setenv("CAFECERCA_DB_PATH", "/var/lib/cafecerca.db")
	t.Setenv("CAFECERCA_VOTES_BACKEND", "csv")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "https://env.example.com/cafes.csv", cfg.Dataset.URL)
	assert.Equal(t, "/var/lib/cafecerca.db", cfg.Database.Path)
	assert.Equal(t, "csv", cfg.Votes.Backend)
}

func TestParseIntervalFallback(t *testing.T) {
	d := DatasetConfig{RefreshInterval: "not a duration"}
	assert.Equal(t, 15*time.Minute, d.ParseRefreshInterval())

	g := GeocoderConfig{Timeout: ""}
	assert.Equal(t, 10*time.Second, g.ParseTimeout())
}
