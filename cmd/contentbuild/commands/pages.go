package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"git.home.luguber.info/inful/contentbuild/internal/config"
	"git.home.luguber.info/inful/contentbuild/internal/metrics"
	"git.home.luguber.info/inful/contentbuild/internal/target"
)

// PagesCmd implements the 'pages' command.
type PagesCmd struct {
	JSON bool `help:"Print pages and props as JSON"`
	Dev  bool `help:"Read preview content as in development mode"`
}

// pageLine is one row of the pages listing.
type pageLine struct {
	URLPath string   `json:"urlPath"`
	Model   string   `json:"model"`
	ID      string   `json:"id"`
	Classes []string `json:"pageCssClasses"`
}

func (p *PagesCmd) Run(g *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	if p.Dev {
		cfg.ForceDevelopment()
	}
	src, err := newSource(cfg, metrics.NoopRecorder{})
	if err != nil {
		return err
	}
	entries, err := src.Fetch(context.Background())
	if err != nil {
		return err
	}
	objects := entries
	if cfg.ShouldFlattenAssetURLs() {
		objects = target.FlattenAssetURLs(entries)
	}
	result, err := newDeriver(cfg).Derive(objects)
	if err != nil {
		return err
	}

	lines := make([]pageLine, 0, len(result.Pages))
	for _, page := range result.Pages {
		lines = append(lines, pageLine{
			URLPath: page.Metadata.URLPath,
			Model:   page.Metadata.ModelName,
			ID:      page.Metadata.ID,
			Classes: page.Metadata.PageCSSClasses,
		})
	}

	if p.JSON {
		enc := json.NewEncoder(g.out())
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{"pages": lines, "hasSite": result.Props.Site != nil})
	}

	tw := tabwriter.NewWriter(g.out(), 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "URL PATH\tMODEL\tID")
	for _, l := range lines {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", l.URLPath, l.Model, l.ID)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if result.Props.Site == nil {
		_, _ = fmt.Fprintln(g.out(), "warning: no site config entry found")
	}
	return nil
}
