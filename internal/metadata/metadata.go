// Package metadata manages the .xmpdata sidecar file the pdfx package reads
// its document metadata from. Terminal interaction goes through the Prompter
// capability so the pipeline core never touches terminal I/O directly.
package metadata

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/charmbracelet/huh"

	"git.home.luguber.info/inful/texpdfa/internal/config"
	pipeerrors "git.home.luguber.info/inful/texpdfa/internal/errors"
)

//go:embed sample.xmpdata
var sampleXMPData []byte

// Prompter is the capability set the metadata step needs from its caller.
type Prompter interface {
	Confirm(prompt string) (bool, error)
	OpenInEditor(path string) error
}

// Ensure places a metadata sidecar next to the main tex file. An existing
// sidecar is only touched if the user asks for it; a missing one is seeded
// from the sample template. Both paths offer to open the file for editing.
func Ensure(cfg *config.Config, p Prompter, logger *slog.Logger) error {
	name := cfg.Stem() + ".xmpdata"
	path := filepath.Join(cfg.SourceDir(), name)

	if _, err := os.Stat(path); err == nil {
		logger.Warn("Metadata sidecar already exists", "file", name)
		modify, err := p.Confirm(fmt.Sprintf("%s already exists in your project folder. Modify it?", name))
		if err != nil {
			return pipeerrors.Wrap(err, pipeerrors.CategoryInternal, pipeerrors.SeverityFatal, "metadata prompt")
		}
		if !modify {
			return nil
		}
	} else {
		if err := os.WriteFile(path, sampleXMPData, 0o644); err != nil {
			return pipeerrors.Wrap(err, pipeerrors.CategoryFilesystem, pipeerrors.SeverityFatal,
				fmt.Sprintf("copy metadata template to project folder; add %s manually or re-run with --ignore-metadata", name))
		}
		logger.Info("Metadata template added to project folder", "file", name)
	}

	open, err := p.Confirm(fmt.Sprintf("Open %s in your default editor to fill in the document metadata?", name))
	if err != nil {
		return pipeerrors.Wrap(err, pipeerrors.CategoryInternal, pipeerrors.SeverityFatal, "metadata prompt")
	}
	if open {
		if err := p.OpenInEditor(path); err != nil {
			logger.Warn("Could not open editor, edit the file manually", "file", path, "error", err)
		}
		// Block until the user is done editing; the answer itself is moot.
		if _, err := p.Confirm("Save the file, then confirm to continue"); err != nil {
			return pipeerrors.Wrap(err, pipeerrors.CategoryInternal, pipeerrors.SeverityFatal, "metadata prompt")
		}
	}
	return nil
}

// HuhPrompter is the production Prompter backed by interactive terminal forms.
type HuhPrompter struct{}

// Confirm asks a yes/no question on the terminal.
func (HuhPrompter) Confirm(prompt string) (bool, error) {
	var answer bool
	err := huh.NewConfirm().Title(prompt).Value(&answer).Run()
	return answer, err
}

// OpenInEditor opens the file with the platform's default handler.
func (HuhPrompter) OpenInEditor(path string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", path)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", "", path)
	default:
		cmd = exec.Command("xdg-open", path)
	}
	return cmd.Start()
}
