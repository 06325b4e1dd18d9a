package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	pipeerrors "git.home.luguber.info/inful/texpdfa/internal/errors"
)

func texFile(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "thesis.tex")
	require.NoError(t, os.WriteFile(path, []byte("\\documentclass{article}\n"), 0o644))
	return path
}

func TestFinalize_Defaults(t *testing.T) {
	cfg := &Config{MainTexFile: texFile(t)}
	require.NoError(t, cfg.Finalize())

	require.Equal(t, LevelB, cfg.Conformance.Level)
	require.Equal(t, ConformanceVersion(1), cfg.Conformance.Version)
	require.Equal(t, "pdflatex", cfg.Toolchain.PDFLaTeX)
	require.Equal(t, "thesis-PDFA-1b.pdf", cfg.OutputFilename)
	require.Equal(t, cfg.SourceDir(), cfg.OutputDir)
	require.Equal(t, "thesis.pdf", cfg.CompiledPDFName())
}

func TestFinalize_AppendsPDFExtension(t *testing.T) {
	cfg := &Config{MainTexFile: texFile(t), OutputFilename: "archive"}
	require.NoError(t, cfg.Finalize())
	require.Equal(t, "archive.pdf", cfg.OutputFilename)
}

func TestFinalize_RejectsBadLevel(t *testing.T) {
	cfg := &Config{MainTexFile: texFile(t)}
	cfg.Conformance.Level = "x"

	err := cfg.Finalize()
	require.Error(t, err)
	require.True(t, pipeerrors.IsCategory(err, pipeerrors.CategoryConfig))
}

func TestFinalize_RejectsBadVersion(t *testing.T) {
	cfg := &Config{MainTexFile: texFile(t)}
	cfg.Conformance.Version = 4

	err := cfg.Finalize()
	require.Error(t, err)
	require.True(t, pipeerrors.IsCategory(err, pipeerrors.CategoryConfig))
}

func TestFinalize_VerifyRequiresVeraPDF(t *testing.T) {
	cfg := &Config{MainTexFile: texFile(t)}
	cfg.Steps.Verify = true

	err := cfg.Finalize()
	require.Error(t, err)
	require.Contains(t, err.Error(), "veraPDF")

	cfg.Toolchain.VeraPDF = "/opt/verapdf/verapdf"
	require.NoError(t, cfg.Finalize())
}

func TestFinalize_CreatesOutputDir(t *testing.T) {
	cfg := &Config{
		MainTexFile: texFile(t),
		OutputDir:   filepath.Join(t.TempDir(), "out", "nested"),
	}
	require.NoError(t, cfg.Finalize())

	info, err := os.Stat(cfg.OutputDir)
	require.NoError(t, err)
	require.True(t, info.IsDir())
}

func TestLoad_ExpandsEnvironment(t *testing.T) {
	t.Setenv("TEXPDFA_TEST_GS", "/opt/gs/bin/gs")
	dir := t.TempDir()
	path := filepath.Join(dir, "texpdfa.yaml")
	body := "toolchain:\n  ghostscript: ${TEXPDFA_TEST_GS}\nconformance:\n  level: u\n  version: 2\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/opt/gs/bin/gs", cfg.Toolchain.Ghostscript)
	require.Equal(t, LevelU, cfg.Conformance.Level)
	require.Equal(t, ConformanceVersion(2), cfg.Conformance.Version)
}

func TestLoad_MissingFileIsConfigError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	require.True(t, pipeerrors.IsCategory(err, pipeerrors.CategoryConfig))
}

func TestProfile(t *testing.T) {
	c := Conformance{Level: LevelB, Version: 3}
	require.Equal(t, "3b", c.Profile())
}
