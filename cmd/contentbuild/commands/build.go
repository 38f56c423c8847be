package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/contentbuild/internal/config"
	"git.home.luguber.info/inful/contentbuild/internal/metrics"
	"git.home.luguber.info/inful/contentbuild/internal/pipeline"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Dev bool `help:"Read preview content as in development mode"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	if b.Dev {
		cfg.ForceDevelopment()
	} else {
		cfg.ForceProduction()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	report, err := RunBuild(ctx, cfg)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(g.out(), "Wrote %s: %d objects, %d pages (changed: %t)\n",
		report.CachePath, report.Objects, report.Pages, report.Changed)
	return nil
}

// RunBuild executes one refresh cycle for cfg.
func RunBuild(ctx context.Context, cfg *config.Config) (*pipeline.Report, error) {
	rec := metrics.NoopRecorder{}
	src, err := newSource(cfg, rec)
	if err != nil {
		return nil, err
	}
	store, closeStore, err := openHistory(cfg)
	if err != nil {
		return nil, err
	}
	defer closeStore()

	return newRunner(cfg, src, rec, store, nil).RunOnce(ctx, pipeline.TriggerManual)
}
