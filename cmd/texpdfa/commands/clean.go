package commands

import (
	"fmt"

	"git.home.luguber.info/inful/texpdfa/internal/cleanup"
	"git.home.luguber.info/inful/texpdfa/internal/config"
	"git.home.luguber.info/inful/texpdfa/internal/ux"
)

// CleanCmd implements the 'clean' command: the intermediate-artifact sweep
// without a build.
type CleanCmd struct {
	TexFile string `arg:"" help:"The main tex file of your LaTeX project"`
}

func (cc *CleanCmd) Run(g *Global, _ *CLI) error {
	cfg := &config.Config{MainTexFile: cc.TexFile}
	err := cleanup.Sweep(cfg.SourceDir(), cfg.CompiledPDFName())
	if err != nil {
		// Best effort even standalone: report what could not be removed
		// without signaling a failed invocation.
		g.Logger.Warn("Some files could not be removed", "error", err)
	}
	fmt.Println(sweepMessage(cfg.SourceDir(), err))
	return nil
}

// sweepMessage picks the closing status line for a sweep result.
func sweepMessage(dir string, err error) string {
	if err != nil {
		return ux.Errorf("Some intermediate files in %s could not be removed", dir)
	}
	return ux.Successf("Removed intermediate files in %s", dir)
}
