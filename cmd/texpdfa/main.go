package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/texpdfa/cmd/texpdfa/commands"
	pipeerrors "git.home.luguber.info/inful/texpdfa/internal/errors"
	"git.home.luguber.info/inful/texpdfa/internal/ux"
	"git.home.luguber.info/inful/texpdfa/internal/version"
)

func main() {
	var cli commands.CLI
	ctx := kong.Parse(&cli,
		kong.Name("texpdfa"),
		kong.Description("Compile a LaTeX project into a PDF/A-compliant archival document."),
		kong.Vars{"version": version.Version},
	)

	g := &commands.Global{Logger: slog.Default()}
	if err := ctx.Run(g, &cli); err != nil {
		fmt.Fprintln(os.Stderr, ux.Errorf("%v", err))
		slog.Debug("Run failed", "category", pipeerrors.GetCategory(err))
		os.Exit(1)
	}
}
