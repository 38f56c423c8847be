// Package commands implements the contentbuild CLI commands.
package commands

import (
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/contentbuild/internal/config"
)

// Global carries shared state into commands.
type Global struct {
	Logger *slog.Logger
	Out    io.Writer
}

func (g *Global) out() io.Writer {
	if g == nil || g.Out == nil {
		return os.Stdout
	}
	return g.Out
}

// CLI is the root command with global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"contentbuild.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build   BuildCmd   `cmd:"" help:"Run one refresh cycle and write the build cache"`
	Dev     DevCmd     `cmd:"" help:"Development mode: watch content, refresh the cache and serve it"`
	Pages   PagesCmd   `cmd:"" help:"Fetch content and print derived page paths without writing"`
	Props   PropsCmd   `cmd:"" help:"Print the props of one page from the build cache"`
	Init    InitCmd    `cmd:"" help:"Write a default configuration file"`
	History HistoryCmd `cmd:"" help:"List recent refresh cycles from the history database"`
}

// AfterApply runs after flag parsing; sets up logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: config.LogLevel(c.Verbose)}))
	slog.SetDefault(logger)
	return nil
}
