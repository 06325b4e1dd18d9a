// Package pipeline drives the fixed stage sequence that turns a LaTeX project
// into a PDF/A-compliant archival document: patch, multi-pass compile,
// conversion, metadata repair, linearization, cleanup, and verification.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"git.home.luguber.info/inful/texpdfa/internal/cleanup"
	"git.home.luguber.info/inful/texpdfa/internal/config"
	"git.home.luguber.info/inful/texpdfa/internal/metadata"
	"git.home.luguber.info/inful/texpdfa/internal/runner"
	"git.home.luguber.info/inful/texpdfa/internal/texpatch"
	"git.home.luguber.info/inful/texpdfa/internal/toolchain"
	"git.home.luguber.info/inful/texpdfa/internal/verapdf"
)

// toolFatal matches the fatal condition a tool prints while still exiting 0.
// pdflatex in nonstopmode is the usual offender, but the scan applies to
// every captured invocation.
var toolFatal = regexp.MustCompile(`Fatal error[\s\S]*`)

// Controller owns one pipeline run over an immutable configuration.
type Controller struct {
	cfg      *config.Config
	runner   runner.Runner
	prompter metadata.Prompter
	logger   *slog.Logger
	report   *Report

	// preflight is swappable for tests that fake the toolchain.
	preflight func(*config.Config) error
}

// New builds a Controller. The logger is required; pass a discard logger to
// silence it.
func New(cfg *config.Config, r runner.Runner, p metadata.Prompter, logger *slog.Logger) *Controller {
	return &Controller{
		cfg:       cfg,
		runner:    r,
		prompter:  p,
		logger:    logger,
		preflight: toolchain.Preflight,
	}
}

// Run executes the full stage sequence. The returned Report is populated even
// when an error is returned; cleanup failures surface only as warnings on it.
func (c *Controller) Run(ctx context.Context) (*Report, error) {
	c.report = newReport(c.cfg.OutputPath())
	logger := c.logger.With("run_id", c.report.RunID)

	stages := []namedStage{
		{StagePreflight, c.stagePreflight},
	}
	if !c.cfg.Steps.IgnoreMetadata {
		stages = append(stages, namedStage{StageMetadata, c.stageMetadata})
	}
	stages = append(stages,
		namedStage{StagePatch, c.stagePatch},
		namedStage{StageCompile, c.stageCompile},
		namedStage{StageConvert, c.stageConvert},
		namedStage{StageRepair, c.stageRepair},
		namedStage{StageLinearize, c.stageLinearize},
	)
	if !c.cfg.Steps.KeepIntermediate {
		stages = append(stages, namedStage{StageCleanup, c.stageCleanup})
	}
	if c.cfg.Steps.Verify {
		stages = append(stages, namedStage{StageVerify, c.stageVerify})
	}

	logger.Info("Starting archival compilation",
		"source", c.cfg.MainTexFile,
		"profile", c.cfg.Conformance.Profile(),
		"output", c.cfg.OutputPath())

	if err := c.runStages(ctx, stages); err != nil {
		return c.report, err
	}
	logger.Info("Archival compilation finished", "output", c.cfg.OutputPath())
	return c.report, nil
}

// run invokes one external command, streaming when verbose passthrough is on.
// Every captured run is scanned for the fatal signature.
func (c *Controller) run(ctx context.Context, cmd runner.Command, opts runner.Options) error {
	opts.Stream = c.cfg.Steps.Verbose
	opts.FatalPattern = toolFatal
	if c.cfg.Toolchain.TimeoutSeconds > 0 {
		opts.Timeout = time.Duration(c.cfg.Toolchain.TimeoutSeconds) * time.Second
	}
	_, err := c.runner.Run(ctx, cmd, opts)
	return err
}

func (c *Controller) stagePreflight(context.Context) error {
	if err := c.preflight(c.cfg); err != nil {
		return err
	}
	c.logger.Info("Requirements OK", "source", c.cfg.MainTexFile)
	return nil
}

func (c *Controller) stageMetadata(context.Context) error {
	return metadata.Ensure(c.cfg, c.prompter, c.logger)
}

func (c *Controller) stagePatch(context.Context) error {
	d := texpatch.NewDirectives(int(c.cfg.Conformance.Version), string(c.cfg.Conformance.Level))
	outcome, err := texpatch.Patch(c.cfg.MainTexFile, d)
	if err != nil {
		return err
	}
	c.report.PatchOutcome = outcome
	if outcome == texpatch.OutcomeAlreadyPatched {
		c.logger.Info("Source document already patched, conformance directive updated in place")
	} else {
		c.logger.Info("Source document patched", "backup", c.cfg.MainTexFile+texpatch.BackupSuffix)
	}
	return nil
}

// stageCompile resolves forward references by design: the first pass writes
// the auxiliary files the reference resolver needs, and two more passes
// stabilize pagination and reference numbers. The four-call sequence is the
// documented minimum for convergence and is never terminated early.
func (c *Controller) stageCompile(ctx context.Context) error {
	sequence := []runner.Command{
		c.compileCommand(),
		c.resolveCommand(),
		c.compileCommand(),
		c.compileCommand(),
	}
	for i, cmd := range sequence {
		if err := c.run(ctx, cmd, runner.Options{}); err != nil {
			return fmt.Errorf("pass %d/%d: %w", i+1, len(sequence), err)
		}
	}
	c.logger.Info("Project compiled", "artifact", c.cfg.CompiledPDFPath())
	return nil
}

func (c *Controller) stageConvert(ctx context.Context) error {
	if err := c.run(ctx, c.convertCommand(), runner.Options{}); err != nil {
		return err
	}
	c.logger.Info("Archival conversion finished", "output", c.cfg.OutputPath())
	return nil
}

func (c *Controller) stageRepair(ctx context.Context) error {
	// exiftool reports progress on stderr even on success.
	if err := c.run(ctx, c.repairCommand(), runner.Options{IgnoreStderr: true}); err != nil {
		return err
	}
	c.logger.Info("Metadata restored onto converted document")
	return nil
}

func (c *Controller) stageLinearize(ctx context.Context) error {
	if err := c.run(ctx, c.linearizeCommand(), runner.Options{}); err != nil {
		return err
	}
	c.logger.Info("Document linearized for streamed access")
	return nil
}

// stageCleanup is best-effort housekeeping over already-produced output; its
// failure is a warning, never a run failure.
func (c *Controller) stageCleanup(context.Context) error {
	if err := cleanup.Sweep(c.cfg.SourceDir(), c.cfg.CompiledPDFName()); err != nil {
		return newWarnStageError(StageCleanup, err)
	}
	c.logger.Info("Intermediate files removed")
	return nil
}

func (c *Controller) stageVerify(ctx context.Context) error {
	verdict, err := c.VerifyDocument(ctx, c.cfg.OutputPath())
	if err != nil {
		return err
	}
	c.report.Verdict = &verdict
	if verdict.Compliant {
		c.logger.Info("Document is compliant",
			"profile", verdict.ProfileName, "passed", verdict.Passed, "failed", verdict.Failed)
	} else {
		// A structurally valid "not compliant" verdict is a result, not an
		// error; the operator decides what to do with it.
		c.logger.Warn("Document is not compliant",
			"profile", verdict.ProfileName, "passed", verdict.Passed, "failed", verdict.Failed,
			"statement", verdict.Statement)
	}
	return nil
}

// VerifyDocument runs the compliance validator against an arbitrary document
// and parses its report. Output is always captured, regardless of verbose
// passthrough, because the report arrives on stdout.
func (c *Controller) VerifyDocument(ctx context.Context, document string) (verapdf.Verdict, error) {
	out, err := c.runner.Run(ctx, c.verifyCommand(document),
		runner.Options{IgnoreStderr: true, FatalPattern: toolFatal})
	if err != nil {
		return verapdf.Verdict{}, err
	}
	return verapdf.ParseReport([]byte(out.Stdout))
}

// Command builders: structured argument vectors, no shell, no escaping.

func (c *Controller) compileCommand() runner.Command {
	args := []string{"-no-shell-escape", "-interaction=nonstopmode", c.cfg.MainTexFile}
	args = append(args, c.cfg.Toolchain.PDFLaTeXExtraArgs...)
	return runner.Command{Path: c.cfg.Toolchain.PDFLaTeX, Args: args, Dir: c.cfg.SourceDir()}
}

func (c *Controller) resolveCommand() runner.Command {
	return runner.Command{Path: c.cfg.Toolchain.BibTeX, Args: []string{c.cfg.Stem()}, Dir: c.cfg.SourceDir()}
}

func (c *Controller) convertCommand() runner.Command {
	return runner.Command{
		Path: c.cfg.Toolchain.Ghostscript,
		Args: []string{
			fmt.Sprintf("-dPDFA=%d", int(c.cfg.Conformance.Version)),
			"-dBATCH",
			"-dNOPAUSE",
			"-sProcessColorModel=DeviceRGB",
			"-dOverprint=/disable",
			"-sColorConversionStrategy=RGB",
			"-sDEVICE=pdfwrite",
			"-dPDFACompatibilityPolicy=1",
			"-sOutputFile=" + c.cfg.OutputPath(),
			c.cfg.Toolchain.PDFADefPS,
			c.cfg.CompiledPDFPath(),
		},
	}
}

func (c *Controller) repairCommand() runner.Command {
	return runner.Command{
		Path: c.cfg.Toolchain.ExifTool,
		Args: []string{
			"-TagsFromFile", c.cfg.CompiledPDFPath(),
			"-all:all>all:all",
			"-xmp-dc:all>xmp-dc:all",
			"-pdf:subject>pdf:subject",
			"-overwrite_original",
			c.cfg.OutputPath(),
		},
	}
}

func (c *Controller) linearizeCommand() runner.Command {
	return runner.Command{
		Path: c.cfg.Toolchain.QPDF,
		Args: []string{"--linearize", "--newline-before-endstream", "--replace-input", c.cfg.OutputPath()},
	}
}

func (c *Controller) verifyCommand(document string) runner.Command {
	return runner.Command{
		Path: c.cfg.Toolchain.VeraPDF,
		Args: []string{document, "-f", c.cfg.Conformance.Profile()},
	}
}
