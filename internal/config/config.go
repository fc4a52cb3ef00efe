package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration.
type Config struct {
	Dataset  DatasetConfig  `yaml:"dataset"`
	Geocoder GeocoderConfig `yaml:"geocoder"`
	Database DatabaseConfig `yaml:"database"`
	Votes    VotesConfig    `yaml:"votes"`
	Ranking  RankingConfig  `yaml:"ranking"`
	Search   SearchConfig   `yaml:"search"`
	Server   ServerConfig   `yaml:"server"`
}

// DatasetConfig points at the cafe table. URL takes precedence over
// Path when both are set.
type DatasetConfig struct {
	Path            string `yaml:"path"`
	URL             string `yaml:"url"`
	RefreshInterval string `yaml:"refresh_interval"`
}

// ParseRefreshInterval returns the dataset cache TTL as time.Duration.
func (d DatasetConfig) ParseRefreshInterval() time.Duration {
	dur, err := time.ParseDuration(d.RefreshInterval)
	if err != nil {
		return 15 * time.Minute
	}
	return dur
}

// GeocoderConfig configures the address resolver.
type GeocoderConfig struct {
	BaseURL  string `yaml:"base_url"`
	CityBias string `yaml:"city_bias"`
	Timeout  string `yaml:"timeout"`
}

// ParseTimeout returns the geocoding timeout as time.Duration.
func (g GeocoderConfig) ParseTimeout() time.Duration {
	dur, err := time.ParseDuration(g.Timeout)
	if err != nil {
		return 10 * time.Second
	}
	return dur
}

// DatabaseConfig configures SQLite storage for votes.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// VotesConfig picks the vote ledger backend: "sqlite" or "csv".
type VotesConfig struct {
	Backend string `yaml:"backend"`
	CSVPath string `yaml:"csv_path"`
}

// RankingConfig configures vote aggregation.
type RankingConfig struct {
	SmoothingVotes float64 `yaml:"smoothing_votes"`
}

// SearchConfig configures proximity search defaults.
type SearchConfig struct {
	DefaultRadiusKM float64 `yaml:"default_radius_km"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Dataset: DatasetConfig{
			Path:            "./Cafes.csv",
			RefreshInterval: "15m",
		},
		Geocoder: GeocoderConfig{
			BaseURL:  "https://nominatim.openstreetmap.org",
			CityBias: "Mar del Plata, Buenos Aires, Argentina",
			Timeout:  "10s",
		},
		Database: DatabaseConfig{Path: "./cafecerca.db"},
		Votes: VotesConfig{
			Backend: "sqlite",
			CSVPath: "./votes.csv",
		},
		Ranking: RankingConfig{SmoothingVotes: 5},
		Search:  SearchConfig{DefaultRadiusKM: 2.0},
		Server:  ServerConfig{Port: 8080},
	}
}

// Load reads configuration from a YAML file and applies env var overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// applyEnvOverrides overrides config values with environment variables.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CAFECERCA_DATASET_PATH"); v != "" {
		cfg.Dataset.Path = v
	}
	if v := os.Getenv("CAFECERCA_DATASET_URL"); v != "" {
		cfg.Dataset.URL = v
	}
	if v := os.Getenv("CAFECERCA_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("CAFECERCA_GEOCODER_URL"); v != "" {
		cfg.Geocoder.BaseURL = v
	}
	if v := os.Getenv("CAFECERCA_VOTES_BACKEND"); v != "" {
		cfg.Votes.Backend = v
	}
}
