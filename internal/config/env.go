package config

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"git.home.luguber.info/inful/contentbuild/internal/logfields"
)

// Environment variables consumed by the Contentful source.
const (
	EnvAccessToken   = "CONTENTFUL_ACCESS_TOKEN"
	EnvDeliveryToken = "CONTENTFUL_DELIVERY_TOKEN"
	EnvPreviewToken  = "CONTENTFUL_PREVIEW_TOKEN"
	EnvSpaceID       = "CONTENTFUL_SPACE_ID"
	EnvEnvironment   = "CONTENTFUL_ENVIRONMENT"

	// EnvNodeEnv switches development mode when set to "development", matching
	// the convention of the site build that consumes the cache.
	EnvNodeEnv = "NODE_ENV"
	// EnvLogLevel overrides the log level (debug|info|warn|error).
	EnvLogLevel = "CONTENTBUILD_LOG_LEVEL"
)

// envFiles in precedence order; godotenv never overrides a variable that is already set.
var envFiles = []string{".env.local", ".env"}

// loadEnvFiles loads every existing env file. Existing process variables win,
// then .env.local, then .env.
func loadEnvFiles() {
	for _, path := range envFiles {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			slog.Warn("Failed to load env file", logfields.Path(path), logfields.Error(err))
			continue
		}
		slog.Debug("Loaded environment variables", logfields.Path(path))
	}
}

// applyEnv fills empty fields from the environment.
func applyEnv(cfg *Config) {
	cf := &cfg.Source.Contentful
	fill := func(dst *string, key string) {
		if *dst == "" {
			*dst = os.Getenv(key)
		}
	}
	fill(&cf.AccessToken, EnvAccessToken)
	fill(&cf.DeliveryToken, EnvDeliveryToken)
	fill(&cf.PreviewToken, EnvPreviewToken)
	fill(&cf.SpaceID, EnvSpaceID)
	fill(&cf.Environment, EnvEnvironment)

	if cfg.Mode == "" && os.Getenv(EnvNodeEnv) == string(ModeDevelopment) {
		cfg.Mode = ModeDevelopment
	}
}
