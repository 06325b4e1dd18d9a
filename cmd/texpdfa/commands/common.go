package commands

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/texpdfa/internal/config"
)

// Global context passed to subcommands.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path (optional)" default:""`
	Verbose bool             `short:"v" help:"Show all under-the-hood commands and their output"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build  BuildCmd  `cmd:"" default:"withargs" help:"Compile a LaTeX project into a PDF/A-compliant document"`
	Verify VerifyCmd `cmd:"" help:"Verify an existing PDF against a PDF/A compliance profile"`
	Clean  CleanCmd  `cmd:"" help:"Remove intermediate compilation artifacts from a project"`
	Watch  WatchCmd  `cmd:"" help:"Rebuild the archival document whenever a source file changes"`
}

// AfterApply runs after flag parsing; sets up logging once.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// loadConfig reads the optional configuration file and layers the shared CLI
// state on top.
func loadConfig(root *CLI) (*config.Config, error) {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return nil, err
	}
	if root.Verbose {
		cfg.Steps.Verbose = true
	}
	return cfg, nil
}
