// Package cleanup removes the intermediate artifacts a compilation run
// leaves in the project directory. Best-effort: one failed deletion never
// prevents the others.
package cleanup

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	pipeerrors "git.home.luguber.info/inful/texpdfa/internal/errors"
)

// IntermediateExtensions are the auxiliary file types the compiler and the
// reference resolver produce.
var IntermediateExtensions = []string{".aux", ".bbl", ".blg", ".toc", ".out", ".log"}

// Sweep deletes every intermediate file directly inside dir, then the
// compiled pre-conversion artifact. Failures are collected and reported once
// as an aggregate; the caller treats the result as a warning, not a fatal
// stage failure.
func Sweep(dir, compiledArtifactName string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return pipeerrors.Wrap(err, pipeerrors.CategoryCleanup, pipeerrors.SeverityWarning, "read project directory")
	}

	exts := make(map[string]bool, len(IntermediateExtensions))
	for _, ext := range IntermediateExtensions {
		exts[ext] = true
	}

	var failures []error
	for _, entry := range entries {
		if entry.IsDir() || !exts[filepath.Ext(entry.Name())] {
			continue
		}
		if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil {
			failures = append(failures, fmt.Errorf("remove %s: %w", entry.Name(), err))
		}
	}

	if compiledArtifactName != "" {
		if err := os.Remove(filepath.Join(dir, compiledArtifactName)); err != nil {
			failures = append(failures, fmt.Errorf("remove %s: %w", compiledArtifactName, err))
		}
	}

	if len(failures) > 0 {
		return pipeerrors.Wrap(errors.Join(failures...), pipeerrors.CategoryCleanup, pipeerrors.SeverityWarning,
			fmt.Sprintf("%d file(s) could not be removed", len(failures)))
	}
	return nil
}
