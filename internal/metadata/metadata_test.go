package metadata

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/texpdfa/internal/config"
)

// fakePrompter scripts the answers and records the questions asked.
type fakePrompter struct {
	answers []bool
	asked   []string
	opened  []string
}

func (f *fakePrompter) Confirm(prompt string) (bool, error) {
	f.asked = append(f.asked, prompt)
	answer := false
	if len(f.answers) > 0 {
		answer = f.answers[0]
		f.answers = f.answers[1:]
	}
	return answer, nil
}

func (f *fakePrompter) OpenInEditor(path string) error {
	f.opened = append(f.opened, path)
	return nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	tex := filepath.Join(dir, "thesis.tex")
	require.NoError(t, os.WriteFile(tex, []byte("\\documentclass{article}\n"), 0o644))
	return &config.Config{MainTexFile: tex}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestEnsure_SeedsTemplateWhenMissing(t *testing.T) {
	cfg := testConfig(t)
	p := &fakePrompter{answers: []bool{false}} // decline editor

	require.NoError(t, Ensure(cfg, p, quietLogger()))

	data, err := os.ReadFile(filepath.Join(cfg.SourceDir(), "thesis.xmpdata"))
	require.NoError(t, err)
	require.Contains(t, string(data), `\Title{`)
	require.Empty(t, p.opened)
}

func TestEnsure_ExistingSidecarLeftAloneOnDecline(t *testing.T) {
	cfg := testConfig(t)
	sidecar := filepath.Join(cfg.SourceDir(), "thesis.xmpdata")
	require.NoError(t, os.WriteFile(sidecar, []byte(`\Title{Mine}`), 0o644))

	p := &fakePrompter{answers: []bool{false}} // decline modification
	require.NoError(t, Ensure(cfg, p, quietLogger()))

	data, err := os.ReadFile(sidecar)
	require.NoError(t, err)
	require.Equal(t, `\Title{Mine}`, string(data))
	require.Len(t, p.asked, 1)
}

func TestEnsure_ExistingSidecarNotOverwrittenOnModify(t *testing.T) {
	cfg := testConfig(t)
	sidecar := filepath.Join(cfg.SourceDir(), "thesis.xmpdata")
	require.NoError(t, os.WriteFile(sidecar, []byte(`\Title{Mine}`), 0o644))

	// Modify yes, open editor yes, done yes.
	p := &fakePrompter{answers: []bool{true, true, true}}
	require.NoError(t, Ensure(cfg, p, quietLogger()))

	// Modification happens in the user's editor; the file is never replaced
	// with the template.
	data, err := os.ReadFile(sidecar)
	require.NoError(t, err)
	require.Equal(t, `\Title{Mine}`, string(data))
	require.Equal(t, []string{sidecar}, p.opened)
}

func TestEnsure_OpensEditorForFreshTemplate(t *testing.T) {
	cfg := testConfig(t)
	p := &fakePrompter{answers: []bool{true, true}} // open editor, confirm done

	require.NoError(t, Ensure(cfg, p, quietLogger()))
	require.Len(t, p.opened, 1)
}
