package config

import (
	"log/slog"
	"os"
	"strings"
)

// ForceDevelopment switches the configuration into development mode (e.g. --dev).
func (c *Config) ForceDevelopment() {
	c.Mode = ModeDevelopment
}

// ForceProduction switches the configuration into production mode.
func (c *Config) ForceProduction() {
	c.Mode = ModeProduction
}

// LogLevel resolves the log level from the verbose flag and CONTENTBUILD_LOG_LEVEL.
// The verbose flag wins.
func LogLevel(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	switch strings.ToLower(os.Getenv(EnvLogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
