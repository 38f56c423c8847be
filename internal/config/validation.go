package config

import (
	"time"

	"git.home.luguber.info/inful/contentbuild/internal/foundation/errors"
	"git.home.luguber.info/inful/contentbuild/internal/retry"
)

// Validate checks the configuration after defaults have been applied.
func Validate(cfg *Config) error {
	v := &configurationValidator{config: cfg}
	return v.validate()
}

type configurationValidator struct {
	config *Config
}

func (cv *configurationValidator) validate() error {
	if err := cv.validateMode(); err != nil {
		return err
	}
	if err := cv.validateSource(); err != nil {
		return err
	}
	if err := cv.validateDurations(); err != nil {
		return err
	}
	return nil
}

func (cv *configurationValidator) validateMode() error {
	switch cv.config.Mode {
	case ModeProduction, ModeDevelopment:
		return nil
	default:
		return errors.ValidationError("invalid mode").
			WithContext("field", "mode").
			WithContext("value", string(cv.config.Mode)).
			Build()
	}
}

func (cv *configurationValidator) validateSource() error {
	src := cv.config.Source
	switch src.Type {
	case SourceContentful:
		if src.Contentful.AccessToken == "" {
			return errors.ConfigError("contentful access token is required").
				WithContext("field", "source.contentful.access_token").
				WithContext("env", EnvAccessToken).
				Build()
		}
		if src.Contentful.SpaceID == "" {
			return errors.ConfigError("contentful space id is required").
				WithContext("field", "source.contentful.space_id").
				WithContext("env", EnvSpaceID).
				Build()
		}
	case SourceLocalFS:
		if src.LocalFS.Dir == "" {
			return errors.ConfigError("localfs directory is required").
				WithContext("field", "source.localfs.dir").
				Build()
		}
	default:
		return errors.ValidationError("unsupported source type").
			WithContext("field", "source.type").
			WithContext("value", string(src.Type)).
			Build()
	}

	switch retry.BackoffMode(src.Retry.Mode) {
	case retry.BackoffFixed, retry.BackoffLinear, retry.BackoffExponential:
	default:
		return errors.ValidationError("invalid retry mode").
			WithContext("field", "source.retry.mode").
			WithContext("value", src.Retry.Mode).
			Build()
	}
	return nil
}

func (cv *configurationValidator) validateDurations() error {
	fields := map[string]string{
		"source.contentful.poll_interval": cv.config.Source.Contentful.PollInterval,
		"source.localfs.debounce":         cv.config.Source.LocalFS.Debounce,
		"source.retry.initial":            cv.config.Source.Retry.Initial,
		"source.retry.max":                cv.config.Source.Retry.Max,
		"dev.debounce":                    cv.config.Dev.Debounce,
		"dev.shutdown_period":             cv.config.Dev.ShutdownPeriod,
	}
	for field, value := range fields {
		if value == "" {
			continue
		}
		if d, err := time.ParseDuration(value); err != nil || d <= 0 {
			return errors.ValidationError("invalid duration").
				WithContext("field", field).
				WithContext("value", value).
				Build()
		}
	}
	return nil
}
