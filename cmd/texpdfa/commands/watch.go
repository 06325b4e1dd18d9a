package commands

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/texpdfa/internal/ux"
	"git.home.luguber.info/inful/texpdfa/internal/version"
	"git.home.luguber.info/inful/texpdfa/internal/watch"
)

// WatchCmd implements the 'watch' command: rebuild the archival document
// whenever a project source file changes.
type WatchCmd struct {
	BuildCmd
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	// Interactive prompts have no place in a rebuild loop.
	w.IgnoreMetadata = true
	w.apply(cfg)
	if err := cfg.Finalize(); err != nil {
		return err
	}

	fmt.Println(ux.Banner(version.Version))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// One initial build so the watcher starts from a known-good state.
	if err := runPipeline(ctx, cfg, g); err != nil {
		return err
	}

	watcher := watch.New(cfg.SourceDir(), g.Logger, func(ctx context.Context) error {
		return runPipeline(ctx, cfg, g)
	})
	if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
