package texpatch

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleDoc = `% thesis main file
\documentclass{article}
\usepackage{graphicx}
\begin{document}
Hello.
\end{document}
`

func writeDoc(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "thesis.tex")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestPatch_FreshDocument(t *testing.T) {
	path := writeDoc(t, sampleDoc)

	outcome, err := Patch(path, NewDirectives(1, "b"))
	require.NoError(t, err)
	require.Equal(t, OutcomeFreshlyPatched, outcome)

	// Backup is byte-identical to the original.
	backup, err := os.ReadFile(path + BackupSuffix)
	require.NoError(t, err)
	require.Equal(t, sampleDoc, string(backup))

	patched, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(patched)

	require.True(t, strings.HasPrefix(text, markerStart+"\n"), "engine directives go before the class declaration")
	require.Contains(t, text, `\pdfminorversion=7`)
	require.Contains(t, text, `\usepackage[a-1b]{pdfx}`)

	// The conformance directive sits after the class declaration.
	classIdx := strings.Index(text, `\documentclass{article}`)
	pdfxIdx := strings.Index(text, `{pdfx}`)
	require.Greater(t, pdfxIdx, classIdx)

	// Original body survives verbatim.
	require.Contains(t, text, "\\begin{document}\nHello.\n\\end{document}\n")
}

func TestPatch_RepatchIsIdempotent(t *testing.T) {
	path := writeDoc(t, sampleDoc)

	_, err := Patch(path, NewDirectives(1, "b"))
	require.NoError(t, err)
	first, err := os.ReadFile(path)
	require.NoError(t, err)

	outcome, err := Patch(path, NewDirectives(1, "b"))
	require.NoError(t, err)
	require.Equal(t, OutcomeAlreadyPatched, outcome)

	second, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, string(first), string(second))

	// The marker never duplicates.
	require.Equal(t, 1, strings.Count(string(second), markerStart+"\n"+`\pdfobjcompresslevel=0`))
}

func TestPatch_RepatchUpdatesConformanceParametersOnly(t *testing.T) {
	path := writeDoc(t, sampleDoc)

	_, err := Patch(path, NewDirectives(1, "b"))
	require.NoError(t, err)
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	outcome, err := Patch(path, NewDirectives(2, "u"))
	require.NoError(t, err)
	require.Equal(t, OutcomeAlreadyPatched, outcome)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NotContains(t, string(after), `[a-1b]`)
	require.Contains(t, string(after), `\usepackage[a-2u]{pdfx}`)

	// Everything except the directive parameters is preserved byte-for-byte.
	expected := strings.Replace(string(before), `[a-1b]`, `[a-2u]`, 1)
	require.Equal(t, expected, string(after))
}

func TestPatch_RepatchLeavesBackupUntouched(t *testing.T) {
	path := writeDoc(t, sampleDoc)

	_, err := Patch(path, NewDirectives(1, "b"))
	require.NoError(t, err)
	info1, err := os.Stat(path + BackupSuffix)
	require.NoError(t, err)

	_, err = Patch(path, NewDirectives(3, "a"))
	require.NoError(t, err)

	info2, err := os.Stat(path + BackupSuffix)
	require.NoError(t, err)
	require.Equal(t, info1.ModTime(), info2.ModTime())
	require.Equal(t, info1.Size(), info2.Size())

	backup, err := os.ReadFile(path + BackupSuffix)
	require.NoError(t, err)
	require.Equal(t, sampleDoc, string(backup))
}

func TestPatch_RefusesToClobberExistingBackup(t *testing.T) {
	path := writeDoc(t, sampleDoc)
	require.NoError(t, os.WriteFile(path+BackupSuffix, []byte("precious"), 0o644))

	_, err := Patch(path, NewDirectives(1, "b"))
	require.Error(t, err)

	backup, readErr := os.ReadFile(path + BackupSuffix)
	require.NoError(t, readErr)
	require.Equal(t, "precious", string(backup))
}

func TestPatch_MissingSourceFails(t *testing.T) {
	_, err := Patch(filepath.Join(t.TempDir(), "absent.tex"), NewDirectives(1, "b"))
	require.Error(t, err)
}

func TestIsPatched_IgnoresMarkerTextInBody(t *testing.T) {
	doc := sampleDoc + "% " + markerStart + " quoted in a trailing comment\n"
	// The sentinel appears after \begin{document}, so the preamble scan
	// must not treat the document as patched.
	require.False(t, IsPatched(doc))

	path := writeDoc(t, doc)
	outcome, err := Patch(path, NewDirectives(1, "b"))
	require.NoError(t, err)
	require.Equal(t, OutcomeFreshlyPatched, outcome)
}

func TestInject_OnlyFirstClassDeclarationLine(t *testing.T) {
	doc := "\\documentclass{book}\n% documentclass mentioned again\n\\begin{document}\n\\end{document}\n"
	out := inject(doc, NewDirectives(1, "b"))
	require.Equal(t, 1, strings.Count(out, `\usepackage[a-1b]{pdfx}`))

	// Block lands after the first matching line, not the comment.
	bookIdx := strings.Index(out, `\documentclass{book}`)
	pdfxIdx := strings.Index(out, `{pdfx}`)
	commentIdx := strings.Index(out, "% documentclass")
	require.Greater(t, pdfxIdx, bookIdx)
	require.Less(t, pdfxIdx, commentIdx)
}
