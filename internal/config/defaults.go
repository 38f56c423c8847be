package config

import "git.home.luguber.info/inful/contentbuild/internal/retry"

// Defaults.
const (
	DefaultEnvironment       = "master"
	DefaultPageSize          = 1000
	DefaultRequestsPerSec    = 10.0
	DefaultPollInterval      = "10s"
	DefaultCacheFile         = ".contentbuild-cache.json"
	DefaultListen            = "127.0.0.1:8088"
	DefaultDebounce          = "500ms"
	DefaultShutdownPeriod    = "10s"
	DefaultLiveUpdateSubject = "contentbuild.updates"
	DefaultLocalFSDir        = "content"
)

// DefaultApplier applies defaults for a specific configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config) error
	Domain() string
}

type sourceDefaults struct{}

func (sourceDefaults) Domain() string { return "source" }

func (sourceDefaults) ApplyDefaults(cfg *Config) error {
	if cfg.Source.Type == "" {
		cfg.Source.Type = SourceContentful
	}
	cf := &cfg.Source.Contentful
	if cf.Environment == "" {
		cf.Environment = DefaultEnvironment
	}
	if cf.PageSize <= 0 || cf.PageSize > DefaultPageSize {
		cf.PageSize = DefaultPageSize
	}
	if cf.RequestsPerSecond <= 0 {
		cf.RequestsPerSecond = DefaultRequestsPerSec
	}
	if cf.PollInterval == "" {
		cf.PollInterval = DefaultPollInterval
	}
	if cfg.Source.LocalFS.Dir == "" {
		cfg.Source.LocalFS.Dir = DefaultLocalFSDir
	}
	if cfg.Source.LocalFS.Debounce == "" {
		cfg.Source.LocalFS.Debounce = DefaultDebounce
	}
	if cfg.Source.Retry.Mode == "" {
		cfg.Source.Retry.Mode = string(retry.DefaultPolicy().Mode)
	}
	return nil
}

type targetDefaults struct{}

func (targetDefaults) Domain() string { return "target" }

func (targetDefaults) ApplyDefaults(cfg *Config) error {
	if cfg.Target.CacheFile == "" {
		cfg.Target.CacheFile = DefaultCacheFile
	}
	if cfg.Target.FlattenAssetURLs == nil {
		v := true
		cfg.Target.FlattenAssetURLs = &v
	}
	return nil
}

type devDefaults struct{}

func (devDefaults) Domain() string { return "dev" }

func (devDefaults) ApplyDefaults(cfg *Config) error {
	if cfg.Mode == "" {
		cfg.Mode = ModeProduction
	}
	if cfg.Dev.Listen == "" {
		cfg.Dev.Listen = DefaultListen
	}
	if cfg.Dev.Debounce == "" {
		cfg.Dev.Debounce = DefaultDebounce
	}
	if cfg.Dev.ShutdownPeriod == "" {
		cfg.Dev.ShutdownPeriod = DefaultShutdownPeriod
	}
	if cfg.LiveUpdate.Subject == "" {
		cfg.LiveUpdate.Subject = DefaultLiveUpdateSubject
	}
	return nil
}

var defaultAppliers = []DefaultApplier{sourceDefaults{}, targetDefaults{}, devDefaults{}}

func applyDefaults(cfg *Config) error {
	for _, a := range defaultAppliers {
		if err := a.ApplyDefaults(cfg); err != nil {
			return err
		}
	}
	return nil
}

// RetryPolicy converts the retry section into a policy.
func (c *Config) RetryPolicy() retry.Policy {
	r := c.Source.Retry
	maxRetries := -1
	if r.MaxRetries != nil {
		maxRetries = *r.MaxRetries
	}
	return retry.NewPolicy(retry.BackoffMode(r.Mode), Duration(r.Initial, 0), Duration(r.Max, 0), maxRetries)
}
