package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/texpdfa/internal/config"
	"git.home.luguber.info/inful/texpdfa/internal/metadata"
	"git.home.luguber.info/inful/texpdfa/internal/pipeline"
	"git.home.luguber.info/inful/texpdfa/internal/runner"
	"git.home.luguber.info/inful/texpdfa/internal/texpatch"
	"git.home.luguber.info/inful/texpdfa/internal/ux"
	"git.home.luguber.info/inful/texpdfa/internal/version"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	TexFile string `arg:"" help:"The main tex file of your LaTeX project"`

	ConformanceLevel   string `name:"conformance-level" short:"l" help:"PDF/A conformance level: a, b, or u (default b)"`
	ConformanceVersion int    `name:"conformance-version" help:"PDF/A standard version: 1, 2, or 3 (default 1)"`
	OutputDir          string `short:"o" help:"Directory for the generated PDF (defaults to the project directory)"`
	OutputFilename     string `name:"output-filename" help:"Filename of the generated PDF (defaults to <stem>-PDFA-<version><level>.pdf)"`
	IgnoreMetadata     bool   `short:"i" help:"Skip the metadata sidecar step"`
	NoClean            bool   `name:"no-clean" help:"Keep the intermediate compilation files"`
	Verify             bool   `help:"Verify the generated PDF with veraPDF (requires --verapdf-path)"`

	PDFLaTeXPath      string   `name:"pdflatex-path" help:"pdflatex executable (defaults to PATH lookup)"`
	PDFLaTeXExtraArgs []string `name:"pdflatex-extra-args" help:"Extra arguments appended to every pdflatex invocation"`
	BibTeXPath        string   `name:"bibtex-path" help:"bibtex executable (defaults to PATH lookup)"`
	GSPath            string   `name:"gs-path" help:"Ghostscript executable (defaults to PATH lookup)"`
	ExifToolPath      string   `name:"exiftool-path" help:"exiftool executable (defaults to PATH lookup)"`
	QPDFPath          string   `name:"qpdf-path" help:"qpdf executable (defaults to PATH lookup)"`
	VeraPDFPath       string   `name:"verapdf-path" help:"veraPDF executable (required with --verify)"`
	PDFADefPS         string   `name:"pdfa-def-ps" help:"PDF/A definition PostScript resource for Ghostscript"`
	ToolTimeout       int      `name:"tool-timeout" help:"Per-tool timeout in seconds (0 disables)"`
}

// apply layers the command's flags over the file-based configuration. Flags
// the user did not pass are zero-valued and must not touch the file values;
// the flag defaults live in config.Finalize, not in kong tags.
func (b *BuildCmd) apply(cfg *config.Config) {
	cfg.MainTexFile = b.TexFile
	if b.ConformanceLevel != "" {
		cfg.Conformance.Level = config.ConformanceLevel(b.ConformanceLevel)
	}
	if b.ConformanceVersion != 0 {
		cfg.Conformance.Version = config.ConformanceVersion(b.ConformanceVersion)
	}
	if b.OutputDir != "" {
		cfg.OutputDir = b.OutputDir
	}
	if b.OutputFilename != "" {
		cfg.OutputFilename = b.OutputFilename
	}
	if b.IgnoreMetadata {
		cfg.Steps.IgnoreMetadata = true
	}
	if b.NoClean {
		cfg.Steps.KeepIntermediate = true
	}
	if b.Verify {
		cfg.Steps.Verify = true
	}
	if b.PDFLaTeXPath != "" {
		cfg.Toolchain.PDFLaTeX = b.PDFLaTeXPath
	}
	if len(b.PDFLaTeXExtraArgs) > 0 {
		cfg.Toolchain.PDFLaTeXExtraArgs = b.PDFLaTeXExtraArgs
	}
	if b.BibTeXPath != "" {
		cfg.Toolchain.BibTeX = b.BibTeXPath
	}
	if b.GSPath != "" {
		cfg.Toolchain.Ghostscript = b.GSPath
	}
	if b.ExifToolPath != "" {
		cfg.Toolchain.ExifTool = b.ExifToolPath
	}
	if b.QPDFPath != "" {
		cfg.Toolchain.QPDF = b.QPDFPath
	}
	if b.VeraPDFPath != "" {
		cfg.Toolchain.VeraPDF = b.VeraPDFPath
	}
	if b.PDFADefPS != "" {
		cfg.Toolchain.PDFADefPS = b.PDFADefPS
	}
	if b.ToolTimeout > 0 {
		cfg.Toolchain.TimeoutSeconds = b.ToolTimeout
	}
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	b.apply(cfg)
	if err := cfg.Finalize(); err != nil {
		return err
	}

	fmt.Println(ux.Banner(version.Version))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return runPipeline(ctx, cfg, g)
}

// runPipeline executes one full run and prints the closing notes.
func runPipeline(ctx context.Context, cfg *config.Config, g *Global) error {
	controller := pipeline.New(cfg, runner.NewExecRunner(g.Logger), metadata.HuhPrompter{}, g.Logger)
	report, err := controller.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Println(ux.Successf("Generated %s", report.OutputPath))
	if report.Verdict != nil {
		fmt.Println(ux.Verdict(report.Verdict.ProfileName, report.Verdict.Statement,
			report.Verdict.Passed, report.Verdict.Failed, report.Verdict.Compliant))
	}
	fmt.Println(ux.Notes(report.OutputPath, texpatch.BackupSuffix))
	return nil
}
