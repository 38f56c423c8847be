package commands

import (
	"git.home.luguber.info/inful/contentbuild/internal/config"
	"git.home.luguber.info/inful/contentbuild/internal/eventstore"
	"git.home.luguber.info/inful/contentbuild/internal/foundation/errors"
	"git.home.luguber.info/inful/contentbuild/internal/liveupdate"
	"git.home.luguber.info/inful/contentbuild/internal/metrics"
	"git.home.luguber.info/inful/contentbuild/internal/pages"
	"git.home.luguber.info/inful/contentbuild/internal/pipeline"
	"git.home.luguber.info/inful/contentbuild/internal/source"
	"git.home.luguber.info/inful/contentbuild/internal/source/contentful"
	"git.home.luguber.info/inful/contentbuild/internal/source/localfs"
	"git.home.luguber.info/inful/contentbuild/internal/target"
)

// newSource builds the configured content source. Development mode reads
// preview content from Contentful.
func newSource(cfg *config.Config, rec metrics.Recorder) (source.Source, error) {
	switch cfg.Source.Type {
	case config.SourceLocalFS:
		return localfs.New(localfs.Options{
			Dir:      cfg.Source.LocalFS.Dir,
			Models:   cfg.Source.LocalFS.Models,
			Debounce: config.Duration(cfg.Source.LocalFS.Debounce, 0),
		}), nil
	case config.SourceContentful:
		cf := cfg.Source.Contentful
		src, err := contentful.New(contentful.Options{
			AccessToken:       cf.AccessToken,
			DeliveryToken:     cf.DeliveryToken,
			PreviewToken:      cf.PreviewToken,
			SpaceID:           cf.SpaceID,
			Environment:       cf.Environment,
			Preview:           cfg.IsDevelopment(),
			DeliveryBaseURL:   cf.DeliveryBaseURL,
			PreviewBaseURL:    cf.PreviewBaseURL,
			ManagementBaseURL: cf.ManagementBaseURL,
			PageSize:          cf.PageSize,
			RequestsPerSecond: cf.RequestsPerSecond,
			Retry:             cfg.RetryPolicy(),
			PollInterval:      config.Duration(cf.PollInterval, 0),
			Recorder:          rec,
		})
		if err != nil {
			return nil, err
		}
		return src, nil
	default:
		return nil, errors.ConfigError("unsupported source type").
			WithContext("type", string(cfg.Source.Type)).
			Build()
	}
}

func newDeriver(cfg *config.Config) *pages.Deriver {
	var opts []pages.Option
	if len(cfg.Pages.Models) > 0 {
		opts = append(opts, pages.WithPageModels(cfg.Pages.Models...))
	}
	if cfg.Pages.ConfigModel != "" {
		opts = append(opts, pages.WithConfigModel(cfg.Pages.ConfigModel))
	}
	return pages.New(opts...)
}

// openHistory opens the cycle history store, or returns nil when disabled.
func openHistory(cfg *config.Config) (eventstore.Store, func(), error) {
	if cfg.History.Path == "" {
		return nil, func() {}, nil
	}
	store, err := eventstore.NewSQLiteStore(cfg.History.Path)
	if err != nil {
		return nil, func() {}, err
	}
	return store, func() { _ = store.Close() }, nil
}

func newRunner(cfg *config.Config, src source.Source, rec metrics.Recorder, store eventstore.Store, notifier liveupdate.Notifier) *pipeline.Runner {
	opts := []pipeline.Option{
		pipeline.WithDeriver(newDeriver(cfg)),
		pipeline.WithFlattenAssetURLs(cfg.ShouldFlattenAssetURLs()),
		pipeline.WithRecorder(rec),
	}
	if store != nil {
		opts = append(opts, pipeline.WithEventStore(store))
	}
	if notifier != nil {
		opts = append(opts, pipeline.WithNotifier(notifier))
	}
	return pipeline.New(src, target.NewWriter(cfg.Target.CacheFile), opts...)
}
