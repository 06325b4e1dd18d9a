package commands

import (
	"context"
	"fmt"
	"os"

	"git.home.luguber.info/inful/texpdfa/internal/config"
	"git.home.luguber.info/inful/texpdfa/internal/metadata"
	"git.home.luguber.info/inful/texpdfa/internal/pipeline"
	"git.home.luguber.info/inful/texpdfa/internal/runner"
	"git.home.luguber.info/inful/texpdfa/internal/toolchain"
	"git.home.luguber.info/inful/texpdfa/internal/ux"
)

// VerifyCmd implements the 'verify' command: compliance-check an existing PDF
// without running the compilation pipeline.
type VerifyCmd struct {
	PDF string `arg:"" help:"The PDF document to verify"`

	ConformanceLevel   string `name:"conformance-level" short:"l" help:"PDF/A conformance level: a, b, or u (default b)"`
	ConformanceVersion int    `name:"conformance-version" help:"PDF/A standard version: 1, 2, or 3 (default 1)"`
	VeraPDFPath        string `name:"verapdf-path" required:"" help:"veraPDF executable"`
}

func (v *VerifyCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	if v.ConformanceLevel != "" {
		cfg.Conformance.Level = config.ConformanceLevel(v.ConformanceLevel)
	}
	if v.ConformanceVersion != 0 {
		cfg.Conformance.Version = config.ConformanceVersion(v.ConformanceVersion)
	}
	if cfg.Conformance.Level == "" {
		cfg.Conformance.Level = config.LevelB
	}
	if cfg.Conformance.Version == 0 {
		cfg.Conformance.Version = 1
	}
	if err := cfg.Conformance.Level.Validate(); err != nil {
		return err
	}
	if err := cfg.Conformance.Version.Validate(); err != nil {
		return err
	}
	cfg.Toolchain.VeraPDF = v.VeraPDFPath

	if info, err := os.Stat(v.PDF); err != nil || !info.Mode().IsRegular() {
		return fmt.Errorf("%s is not a file or does not exist", v.PDF)
	}
	if err := (toolchain.Tool{Name: "veraPDF", Path: cfg.Toolchain.VeraPDF}).Resolve(); err != nil {
		return err
	}

	controller := pipeline.New(cfg, runner.NewExecRunner(g.Logger), metadata.HuhPrompter{}, g.Logger)
	verdict, err := controller.VerifyDocument(context.Background(), v.PDF)
	if err != nil {
		return err
	}

	fmt.Println(ux.Verdict(verdict.ProfileName, verdict.Statement, verdict.Passed, verdict.Failed, verdict.Compliant))
	return nil
}
