package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"git.home.luguber.info/inful/contentbuild/internal/config"
	"git.home.luguber.info/inful/contentbuild/internal/liveupdate"
	"git.home.luguber.info/inful/contentbuild/internal/logfields"
	"git.home.luguber.info/inful/contentbuild/internal/metrics"
	"git.home.luguber.info/inful/contentbuild/internal/server"
	"git.home.luguber.info/inful/contentbuild/internal/source"
)

// DevCmd implements the 'dev' command.
type DevCmd struct {
	Listen string `help:"Dev server listen address (defaults to dev.listen)"`
}

func (d *DevCmd) Run(g *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	for {
		cfg.ForceDevelopment()
		if d.Listen != "" {
			cfg.Dev.Listen = d.Listen
		}

		genCtx, cancelGen := context.WithCancel(ctx)
		reloaded := make(chan *config.Config, 1)
		if cfg.Dev.WatchConfig {
			w := config.NewWatcher(root.Config, config.Duration(cfg.Dev.Debounce, 0))
			go func() {
				err := w.Watch(genCtx, func(next *config.Config) {
					select {
					case reloaded <- next:
					default:
					}
					cancelGen()
				})
				if err != nil {
					slog.Warn("Config watcher stopped", logfields.Error(err))
				}
			}()
		}

		err := runDev(genCtx, g, cfg)
		cancelGen()
		if err != nil {
			return err
		}

		select {
		case next := <-reloaded:
			slog.Info("Restarting with reloaded configuration")
			cfg = next
		default:
			return nil
		}
	}
}

// runDev runs the dev server and refresh loop until ctx is done.
func runDev(ctx context.Context, g *Global, cfg *config.Config) error {
	reg := prom.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rec := metrics.NewPrometheusRecorder(reg)

	hub := liveupdate.NewHub(rec)
	notifiers := liveupdate.Multi{hub}
	if cfg.LiveUpdate.NATSURL != "" {
		nn, err := liveupdate.NewNATSNotifier(cfg.LiveUpdate.NATSURL, cfg.LiveUpdate.Subject)
		if err != nil {
			slog.Warn("NATS live update disabled", logfields.Error(err))
		} else {
			defer nn.Close()
			notifiers = append(notifiers, nn)
		}
	}

	src, err := newSource(cfg, rec)
	if err != nil {
		return err
	}
	store, closeStore, err := openHistory(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	runner := newRunner(cfg, src, rec, store, notifiers)

	srv := server.New(server.Options{
		Addr:      cfg.Dev.Listen,
		CachePath: cfg.Target.CacheFile,
		Status:    runner,
		Hub:       hub,
		Metrics:   metrics.HTTPHandler(reg),
	})
	if err := srv.Start(ctx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), config.Duration(cfg.Dev.ShutdownPeriod, 10*time.Second))
		defer cancel()
		if err := srv.Stop(stopCtx); err != nil {
			slog.Warn("Dev server shutdown", logfields.Error(err))
		}
	}()
	_, _ = fmt.Fprintf(g.out(), "Serving content on http://%s (source: %s)\n", srv.Addr(), src.Name())

	var watchers []source.Watcher
	if w, ok := src.(source.Watcher); ok {
		watchers = append(watchers, w)
	}
	return runner.Run(ctx, watchers...)
}
