package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/contentbuild/internal/foundation/errors"
	"git.home.luguber.info/inful/contentbuild/internal/logfields"
)

// DefaultPath is the configuration file looked up when -c is not given.
const DefaultPath = "contentbuild.yaml"

// Mode selects production (one-shot, published content) or development behaviour.
type Mode string

const (
	ModeProduction  Mode = "production"
	ModeDevelopment Mode = "development"
)

// SourceType names a content source implementation.
type SourceType string

const (
	SourceContentful SourceType = "contentful"
	SourceLocalFS    SourceType = "localfs"
)

// Config is the root configuration.
type Config struct {
	Mode       Mode             `yaml:"mode,omitempty"`
	Source     SourceConfig     `yaml:"source"`
	Pages      PagesConfig      `yaml:"pages,omitempty"`
	Target     TargetConfig     `yaml:"target,omitempty"`
	Dev        DevConfig        `yaml:"dev,omitempty"`
	LiveUpdate LiveUpdateConfig `yaml:"live_update,omitempty"`
	History    HistoryConfig    `yaml:"history,omitempty"`
}

// SourceConfig selects and configures the content source.
type SourceConfig struct {
	Type       SourceType       `yaml:"type"`
	Contentful ContentfulConfig `yaml:"contentful,omitempty"`
	LocalFS    LocalFSConfig    `yaml:"localfs,omitempty"`
	Retry      RetryConfig      `yaml:"retry,omitempty"`
}

// ContentfulConfig holds credentials and tuning for the Contentful source.
// Empty credential fields are filled from CONTENTFUL_* environment variables.
type ContentfulConfig struct {
	AccessToken       string  `yaml:"access_token,omitempty"`
	DeliveryToken     string  `yaml:"delivery_token,omitempty"`
	PreviewToken      string  `yaml:"preview_token,omitempty"`
	SpaceID           string  `yaml:"space_id,omitempty"`
	Environment       string  `yaml:"environment,omitempty"`
	PageSize          int     `yaml:"page_size,omitempty"`
	RequestsPerSecond float64 `yaml:"requests_per_second,omitempty"`
	PollInterval      string  `yaml:"poll_interval,omitempty"`
	DeliveryBaseURL   string  `yaml:"delivery_base_url,omitempty"`
	PreviewBaseURL    string  `yaml:"preview_base_url,omitempty"`
	ManagementBaseURL string  `yaml:"management_base_url,omitempty"`
}

// LocalFSConfig configures the directory-backed source.
type LocalFSConfig struct {
	Dir      string            `yaml:"dir"`
	Models   map[string]string `yaml:"models,omitempty"` // top-level directory -> model name
	Debounce string            `yaml:"debounce,omitempty"`
}

// RetryConfig controls retries for transient source failures.
type RetryConfig struct {
	Mode       string `yaml:"mode,omitempty"` // fixed|linear|exponential
	Initial    string `yaml:"initial,omitempty"`
	Max        string `yaml:"max,omitempty"`
	MaxRetries *int   `yaml:"max_retries,omitempty"`
}

// PagesConfig overrides the page derivation models.
type PagesConfig struct {
	Models      []string `yaml:"models,omitempty"`
	ConfigModel string   `yaml:"config_model,omitempty"`
}

// TargetConfig configures the build cache.
type TargetConfig struct {
	CacheFile        string `yaml:"cache_file,omitempty"`
	FlattenAssetURLs *bool  `yaml:"flatten_asset_urls,omitempty"`
}

// DevConfig configures development mode.
type DevConfig struct {
	Listen         string `yaml:"listen,omitempty"`
	Debounce       string `yaml:"debounce,omitempty"`
	WatchConfig    bool   `yaml:"watch_config,omitempty"`
	ShutdownPeriod string `yaml:"shutdown_period,omitempty"`
}

// LiveUpdateConfig configures change notifications in development mode.
type LiveUpdateConfig struct {
	NATSURL string `yaml:"nats_url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// HistoryConfig configures the SQLite cycle history. Empty path disables it.
type HistoryConfig struct {
	Path string `yaml:"path,omitempty"`
}

// IsDevelopment reports whether development mode is active.
func (c *Config) IsDevelopment() bool {
	return c != nil && c.Mode == ModeDevelopment
}

// ShouldFlattenAssetURLs reports the effective flatten_asset_urls value.
func (c *Config) ShouldFlattenAssetURLs() bool {
	return c.Target.FlattenAssetURLs == nil || *c.Target.FlattenAssetURLs
}

// Load reads path, applies .env files, environment overrides and defaults, and
// validates the result. A missing file at DefaultPath yields an env-only config.
func Load(path string) (*Config, error) {
	loadEnvFiles()

	cfg := &Config{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
			return nil, errors.WrapError(err, errors.CategoryConfig, "failed to parse configuration").
				Fatal().
				WithContext("path", path).
				Build()
		}
	case os.IsNotExist(err) && path == DefaultPath:
		slog.Debug("No configuration file, using environment only", logfields.Path(path))
	case os.IsNotExist(err):
		return nil, errors.ConfigError("configuration file not found").WithContext("path", path).Build()
	default:
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to read configuration").
			Fatal().
			WithContext("path", path).
			Build()
	}

	applyEnv(cfg)
	if err := applyDefaults(cfg); err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML without touching the environment or .env files. Used by tests
// and by the config watcher to detect changes.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := applyDefaults(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Duration parses a duration string, returning fallback when empty or invalid.
func Duration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
