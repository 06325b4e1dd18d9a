// Package watch re-runs the compilation whenever a source file in the project
// directory changes, with debouncing so editor save bursts trigger one build.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// SourceExtensions are the file types whose changes trigger a rebuild.
var SourceExtensions = []string{".tex", ".bib", ".xmpdata"}

// Watcher monitors a project directory and invokes a rebuild callback.
type Watcher struct {
	dir      string
	debounce time.Duration
	logger   *slog.Logger
	rebuild  func(context.Context) error
}

// New constructs a Watcher over the project directory.
func New(dir string, logger *slog.Logger, rebuild func(context.Context) error) *Watcher {
	return &Watcher{
		dir:      dir,
		debounce: 2 * time.Second,
		logger:   logger,
		rebuild:  rebuild,
	}
}

// Run blocks, rebuilding on relevant changes, until the context is canceled.
// Rebuild failures are logged and watching continues; only watcher
// infrastructure errors end the loop.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer fsw.Close()

	abs, err := filepath.Abs(w.dir)
	if err != nil {
		return fmt.Errorf("resolve project directory: %w", err)
	}
	// Watching the directory is more reliable than watching individual
	// files: editors replace files on save.
	if err := fsw.Add(abs); err != nil {
		return fmt.Errorf("watch project directory %s: %w", abs, err)
	}

	w.logger.Info("Watching project for changes", "dir", abs, "extensions", SourceExtensions)

	var timer *time.Timer
	pending := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !relevant(event) {
				continue
			}
			w.logger.Debug("Source change detected", "file", event.Name, "op", event.Op.String())
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, func() {
				select {
				case pending <- struct{}{}:
				default:
				}
			})
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("File watcher error", "error", err)
		case <-pending:
			if err := w.rebuild(ctx); err != nil {
				w.logger.Error("Rebuild failed", "error", err)
			} else {
				w.logger.Info("Rebuild finished")
			}
		}
	}
}

// relevant filters events down to writes/creates/renames of source files.
// The extension whitelist keeps the pipeline's own outputs (.aux, .pdf,
// .backup) from retriggering a build loop.
func relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return false
	}
	ext := filepath.Ext(event.Name)
	for _, want := range SourceExtensions {
		if ext == want {
			return true
		}
	}
	return false
}
