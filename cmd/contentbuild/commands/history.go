package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"git.home.luguber.info/inful/contentbuild/internal/config"
	"git.home.luguber.info/inful/contentbuild/internal/eventstore"
	"git.home.luguber.info/inful/contentbuild/internal/foundation/errors"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int    `short:"n" default:"20" help:"Number of cycles to show"`
	JSON  bool   `help:"Print cycles as JSON"`
	DB    string `name:"db" help:"History database (defaults to history.path)"`
}

func (h *HistoryCmd) Run(g *Global, root *CLI) error {
	dbPath := h.DB
	if dbPath == "" {
		cfg, err := config.Load(root.Config)
		if err != nil {
			return err
		}
		dbPath = cfg.History.Path
	}
	if dbPath == "" {
		return errors.ConfigError("history is disabled (set history.path)").Build()
	}

	store, err := eventstore.NewSQLiteStore(dbPath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	projection := eventstore.NewCycleHistoryProjection(store, h.Limit)
	if err := projection.Rebuild(context.Background()); err != nil {
		return err
	}
	cycles := projection.History()

	if h.JSON {
		enc := json.NewEncoder(g.out())
		enc.SetIndent("", "  ")
		return enc.Encode(cycles)
	}

	tw := tabwriter.NewWriter(g.out(), 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "STARTED\tCYCLE\tTRIGGER\tSTATUS\tENTRIES\tPAGES\tCHANGED\tDURATION\tERROR")
	for _, c := range cycles {
		errText := ""
		if c.ErrorMessage != "" {
			errText = c.ErrorStage + ": " + c.ErrorMessage
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%t\t%s\t%s\n",
			c.StartedAt.Local().Format(time.DateTime), shortID(c.CycleID), c.Trigger, c.Status,
			c.Entries, c.Pages, c.Changed, c.Duration.Round(time.Millisecond), errText)
	}
	return tw.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
