// Package toolchain resolves the external executables the pipeline drives and
// performs the pre-flight checks that run before any side effect.
package toolchain

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"git.home.luguber.info/inful/texpdfa/internal/config"
	pipeerrors "git.home.luguber.info/inful/texpdfa/internal/errors"
)

// Tool is one named external executable.
type Tool struct {
	Name string
	Path string
}

// Resolve verifies that the tool is invocable: an explicit path must be a
// regular file, a bare name must resolve via PATH.
func (t Tool) Resolve() error {
	if strings.ContainsRune(t.Path, os.PathSeparator) {
		info, err := os.Stat(t.Path)
		if err != nil || !info.Mode().IsRegular() {
			return pipeerrors.PreconditionError(
				fmt.Sprintf("%s (path: %s) does not exist or is not a regular file", t.Name, t.Path))
		}
		return nil
	}
	if _, err := exec.LookPath(t.Path); err != nil {
		return pipeerrors.PreconditionError(
			fmt.Sprintf("%s (%q) not found in PATH", t.Name, t.Path))
	}
	return nil
}

// Preflight checks the source document, the conversion resource, and every
// required executable. It runs before patching so a failed check never leaves
// the source document partially modified.
func Preflight(cfg *config.Config) error {
	info, err := os.Stat(cfg.MainTexFile)
	if err != nil || !info.Mode().IsRegular() {
		return pipeerrors.PreconditionError(
			fmt.Sprintf("%s is not a file or does not exist", cfg.MainTexFile))
	}

	if cfg.Toolchain.PDFADefPS == "" {
		return pipeerrors.PreconditionError("no PDF/A definition PostScript resource configured")
	}
	if _, err := os.Stat(cfg.Toolchain.PDFADefPS); err != nil {
		return pipeerrors.PreconditionError(
			fmt.Sprintf("PDF/A definition resource %s does not exist", cfg.Toolchain.PDFADefPS))
	}

	tools := []Tool{
		{Name: "pdflatex", Path: cfg.Toolchain.PDFLaTeX},
		{Name: "bibtex", Path: cfg.Toolchain.BibTeX},
		{Name: "ghostscript", Path: cfg.Toolchain.Ghostscript},
		{Name: "exiftool", Path: cfg.Toolchain.ExifTool},
		{Name: "qpdf", Path: cfg.Toolchain.QPDF},
	}
	if cfg.Steps.Verify {
		tools = append(tools, Tool{Name: "veraPDF", Path: cfg.Toolchain.VeraPDF})
	}

	for _, tool := range tools {
		if err := tool.Resolve(); err != nil {
			return err
		}
	}
	return nil
}
