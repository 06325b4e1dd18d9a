package watch

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/require"
)

func TestRelevant(t *testing.T) {
	require.True(t, relevant(fsnotify.Event{Name: "thesis.tex", Op: fsnotify.Write}))
	require.True(t, relevant(fsnotify.Event{Name: "refs.bib", Op: fsnotify.Create}))
	require.True(t, relevant(fsnotify.Event{Name: "thesis.xmpdata", Op: fsnotify.Rename}))

	require.False(t, relevant(fsnotify.Event{Name: "thesis.aux", Op: fsnotify.Write}))
	require.False(t, relevant(fsnotify.Event{Name: "thesis.pdf", Op: fsnotify.Write}))
	require.False(t, relevant(fsnotify.Event{Name: "thesis.tex.backup", Op: fsnotify.Create}))
	require.False(t, relevant(fsnotify.Event{Name: "thesis.tex", Op: fsnotify.Chmod}))
}

func TestRun_DebouncedRebuildOnSourceChange(t *testing.T) {
	dir := t.TempDir()
	tex := filepath.Join(dir, "thesis.tex")
	require.NoError(t, os.WriteFile(tex, []byte("\\documentclass{article}\n"), 0o644))

	var rebuilds atomic.Int32
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	w := New(dir, logger, func(context.Context) error {
		rebuilds.Add(1)
		return nil
	})
	w.debounce = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Give the watcher time to register, then burst-save the file.
	time.Sleep(200 * time.Millisecond)
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(tex, []byte("\\documentclass{article}\n% edit\n"), 0o644))
		time.Sleep(10 * time.Millisecond)
	}

	require.Eventually(t, func() bool { return rebuilds.Load() >= 1 }, 5*time.Second, 20*time.Millisecond)
	// The burst collapsed into a single rebuild.
	time.Sleep(200 * time.Millisecond)
	require.Equal(t, int32(1), rebuilds.Load())

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}

func TestRun_MissingDirectoryFails(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	w := New(filepath.Join(t.TempDir(), "absent"), logger, func(context.Context) error { return nil })

	err := w.Run(context.Background())
	require.Error(t, err)
}
