// Package texpatch injects the archival directives into a LaTeX source
// document exactly once, creating a byte-identical backup before the first
// modification and converging on re-runs instead of re-inserting.
package texpatch

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	pipeerrors "git.home.luguber.info/inful/texpdfa/internal/errors"
)

// programName seeds the marker sentinel; a document carrying it has already
// been patched by this tool.
const programName = "texpdfa"

// BackupSuffix is appended to the original document path before the first
// patch. The backup is never overwritten or deleted by the pipeline.
const BackupSuffix = ".backup"

var (
	markerStart = strings.Repeat("%", 30) + programName + strings.Repeat("%", 30)
	markerEnd   = strings.Repeat("%", len(markerStart))

	// pdfxDirective matches the conformance package invocation so a re-run
	// can swap only its parameters, leaving the rest of the file untouched.
	pdfxDirective = regexp.MustCompile(`\\usepackage(\[[^\]]*\])?\{pdfx\}`)
)

// Outcome reports which patch path was taken.
type Outcome int

const (
	// OutcomeFreshlyPatched means the document was unpatched: a backup was
	// created and both directive blocks were injected.
	OutcomeFreshlyPatched Outcome = iota
	// OutcomeAlreadyPatched means the marker was found and only the
	// conformance directive's parameters were updated in place.
	OutcomeAlreadyPatched
)

// Directives are the preamble instructions injected into the document.
type Directives struct {
	// BeforeClass goes above \documentclass (engine directives).
	BeforeClass []string
	// Preamble goes immediately after the \documentclass line.
	Preamble []string
}

// NewDirectives builds the directive set targeting one conformance profile.
func NewDirectives(version int, level string) Directives {
	return Directives{
		BeforeClass: []string{
			`\pdfobjcompresslevel=0`,
			`\pdfminorversion=7`,
			`\pdfinclusioncopyfonts=1`,
		},
		Preamble: []string{
			fmt.Sprintf(`\usepackage[a-%d%s]{pdfx}`, version, level),
		},
	}
}

// IsPatched reports whether the document preamble carries the marker. Only
// lines up to \begin{document} are considered, so marker text quoted in the
// document body cannot produce a false positive.
func IsPatched(content string) bool {
	for _, line := range strings.SplitAfter(content, "\n") {
		if strings.Contains(line, `\begin{document}`) {
			break
		}
		if strings.Contains(line, markerStart) {
			return true
		}
	}
	return false
}

// Patch applies the directives to the document at path. On a fresh document
// it moves the original to the backup path and rewrites the file with the
// marker-delimited blocks; on an already-patched document it performs a
// targeted substitution of the conformance directive's parameters only.
func Patch(path string, d Directives) (Outcome, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, pipeerrors.Wrap(err, pipeerrors.CategoryFilesystem, pipeerrors.SeverityFatal, "read source document")
	}
	content := string(raw)

	info, err := os.Stat(path)
	if err != nil {
		return 0, pipeerrors.Wrap(err, pipeerrors.CategoryFilesystem, pipeerrors.SeverityFatal, "stat source document")
	}
	mode := info.Mode().Perm()

	if IsPatched(content) {
		if len(d.Preamble) == 0 {
			return OutcomeAlreadyPatched, nil
		}
		updated := pdfxDirective.ReplaceAllString(content, d.Preamble[0])
		if updated != content {
			if err := os.WriteFile(path, []byte(updated), mode); err != nil {
				return 0, pipeerrors.Wrap(err, pipeerrors.CategoryFilesystem, pipeerrors.SeverityFatal, "update conformance directive")
			}
		}
		return OutcomeAlreadyPatched, nil
	}

	backup := path + BackupSuffix
	if _, err := os.Stat(backup); err == nil {
		// An unpatched document next to an existing backup means a previous
		// run was manually unwound; never clobber the recovery copy.
		return 0, pipeerrors.New(pipeerrors.CategoryFilesystem, pipeerrors.SeverityFatal,
			fmt.Sprintf("backup %s already exists but the document is unpatched; move it aside before re-running", backup))
	}

	if err := os.Rename(path, backup); err != nil {
		return 0, pipeerrors.Wrap(err, pipeerrors.CategoryFilesystem, pipeerrors.SeverityFatal, "create backup of source document")
	}

	if err := os.WriteFile(path, []byte(inject(content, d)), mode); err != nil {
		// The rename already happened: the operator can restore manually.
		return 0, pipeerrors.Wrap(err, pipeerrors.CategoryFilesystem, pipeerrors.SeverityFatal,
			fmt.Sprintf("write patched document (original preserved at %s, restore it manually)", backup))
	}
	return OutcomeFreshlyPatched, nil
}

// inject builds the patched document text: the before-class block, then the
// original lines verbatim with the preamble block inserted immediately after
// the first line containing the class declaration. The declaration is found
// by substring, so a commented-out \documentclass earlier in the file wins;
// that is an accepted limitation.
func inject(content string, d Directives) string {
	var b strings.Builder
	writeBlock(&b, d.BeforeClass)

	inserted := false
	for _, line := range strings.SplitAfter(content, "\n") {
		b.WriteString(line)
		if !inserted && strings.Contains(line, "documentclass") {
			if !strings.HasSuffix(line, "\n") {
				b.WriteString("\n")
			}
			writeBlock(&b, d.Preamble)
			inserted = true
		}
	}
	return b.String()
}

func writeBlock(b *strings.Builder, directives []string) {
	b.WriteString(markerStart + "\n")
	for _, cmd := range directives {
		b.WriteString(cmd + "\n")
	}
	b.WriteString(markerEnd + "\n")
}
