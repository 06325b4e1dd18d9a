// Package config holds the immutable pipeline configuration: source document,
// conformance target, toolchain executables, and step toggles.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	pipeerrors "git.home.luguber.info/inful/texpdfa/internal/errors"
)

// ConformanceLevel is the PDF/A conformance level.
// Level a requires tagged PDF, which pdflatex cannot reliably emit, so most
// archives ask for level b.
type ConformanceLevel string

const (
	LevelA ConformanceLevel = "a"
	LevelB ConformanceLevel = "b"
	LevelU ConformanceLevel = "u"
)

// Validate checks the level against the closed enumeration.
func (l ConformanceLevel) Validate() error {
	switch l {
	case LevelA, LevelB, LevelU:
		return nil
	}
	return pipeerrors.ConfigError(fmt.Sprintf("conformance level must be a, b, or u (got %q)", string(l)))
}

// ConformanceVersion is the PDF/A standard version (ISO 19005 part).
type ConformanceVersion int

// Validate checks the version against the closed enumeration.
func (v ConformanceVersion) Validate() error {
	if v < 1 || v > 3 {
		return pipeerrors.ConfigError(fmt.Sprintf("conformance version must be 1, 2, or 3 (got %d)", int(v)))
	}
	return nil
}

// Conformance selects the archival profile the pipeline targets.
type Conformance struct {
	Level   ConformanceLevel   `yaml:"level"`
	Version ConformanceVersion `yaml:"version"`
}

// Profile returns the short profile identifier, e.g. "1b".
func (c Conformance) Profile() string {
	return fmt.Sprintf("%d%s", int(c.Version), string(c.Level))
}

// Toolchain holds the executable names or paths of the external tools the
// pipeline drives. A bare name is resolved via PATH, anything containing a
// path separator is taken literally.
type Toolchain struct {
	PDFLaTeX    string `yaml:"pdflatex"`
	BibTeX      string `yaml:"bibtex"`
	Ghostscript string `yaml:"ghostscript"`
	ExifTool    string `yaml:"exiftool"`
	QPDF        string `yaml:"qpdf"`
	VeraPDF     string `yaml:"verapdf,omitempty"`

	// PDFADefPS is the PostScript PDF/A definition resource handed to
	// Ghostscript. Its absence is a fatal precondition.
	PDFADefPS string `yaml:"pdfa_def_ps"`

	// PDFLaTeXExtraArgs is appended to every compile invocation.
	PDFLaTeXExtraArgs []string `yaml:"pdflatex_extra_args,omitempty"`

	// TimeoutSeconds, when positive, bounds every external tool invocation;
	// a tool exceeding it is forcibly terminated.
	TimeoutSeconds int `yaml:"tool_timeout_seconds,omitempty"`
}

// Steps toggles the optional pipeline stages. The toggles are phrased so the
// zero value is the default behavior: metadata prompt on, cleanup sweep on,
// verification off.
type Steps struct {
	IgnoreMetadata   bool `yaml:"ignore_metadata"`
	KeepIntermediate bool `yaml:"keep_intermediate"`
	Verify           bool `yaml:"verify"`
	Verbose          bool `yaml:"verbose"`
}

// Config represents one pipeline run. It is captured at start and treated as
// immutable afterwards.
type Config struct {
	MainTexFile    string      `yaml:"-"`
	OutputDir      string      `yaml:"output_dir,omitempty"`
	OutputFilename string      `yaml:"output_filename,omitempty"`
	Conformance    Conformance `yaml:"conformance"`
	Toolchain      Toolchain   `yaml:"toolchain"`
	Steps          Steps       `yaml:"steps"`
}

// Load reads an optional YAML configuration file. Environment variables in
// the file body are expanded, and a .env file alongside the working directory
// is honored first so ${VAR} references resolve from it.
func Load(configPath string) (*Config, error) {
	// Best effort; a missing .env is the normal case.
	_ = godotenv.Load()

	cfg := &Config{}
	if configPath == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, pipeerrors.ConfigError(fmt.Sprintf("configuration file not found: %s", configPath))
		}
		return nil, pipeerrors.Wrap(err, pipeerrors.CategoryConfig, pipeerrors.SeverityFatal, "read config file")
	}

	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, pipeerrors.Wrap(err, pipeerrors.CategoryConfig, pipeerrors.SeverityFatal, "unmarshal config")
	}
	return cfg, nil
}

// Finalize applies defaults, validates the configuration, and creates the
// output directory. It must be called once, before the pipeline starts; no
// other side effect happens before it succeeds.
func (c *Config) Finalize() error {
	if c.MainTexFile == "" {
		return pipeerrors.ConfigError("main tex file is required")
	}

	if c.Conformance.Level == "" {
		c.Conformance.Level = LevelB
	}
	if c.Conformance.Version == 0 {
		c.Conformance.Version = 1
	}
	if err := c.Conformance.Level.Validate(); err != nil {
		return err
	}
	if err := c.Conformance.Version.Validate(); err != nil {
		return err
	}

	if c.Toolchain.PDFLaTeX == "" {
		c.Toolchain.PDFLaTeX = "pdflatex"
	}
	if c.Toolchain.BibTeX == "" {
		c.Toolchain.BibTeX = "bibtex"
	}
	if c.Toolchain.Ghostscript == "" {
		c.Toolchain.Ghostscript = "gs"
	}
	if c.Toolchain.ExifTool == "" {
		c.Toolchain.ExifTool = "exiftool"
	}
	if c.Toolchain.QPDF == "" {
		c.Toolchain.QPDF = "qpdf"
	}

	if c.Steps.Verify && c.Toolchain.VeraPDF == "" {
		return pipeerrors.ConfigError("verification requested but no veraPDF path was provided")
	}

	if c.OutputDir == "" {
		c.OutputDir = c.SourceDir()
	}
	if c.OutputFilename == "" {
		c.OutputFilename = fmt.Sprintf("%s-PDFA-%s.pdf", c.Stem(), c.Conformance.Profile())
	} else if !strings.HasSuffix(c.OutputFilename, ".pdf") {
		c.OutputFilename += ".pdf"
	}

	if err := os.MkdirAll(c.OutputDir, 0o755); err != nil {
		return pipeerrors.Wrap(err, pipeerrors.CategoryFilesystem, pipeerrors.SeverityFatal, "create output directory")
	}
	return nil
}

// SourceDir returns the project directory containing the main tex file.
func (c *Config) SourceDir() string {
	return filepath.Dir(c.MainTexFile)
}

// Stem returns the main tex filename without its extension.
func (c *Config) Stem() string {
	base := filepath.Base(c.MainTexFile)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// CompiledPDFName returns the name of the intermediate artifact pdflatex
// produces, before the archival conversion.
func (c *Config) CompiledPDFName() string {
	return c.Stem() + ".pdf"
}

// CompiledPDFPath returns the full path of the intermediate artifact.
func (c *Config) CompiledPDFPath() string {
	return filepath.Join(c.SourceDir(), c.CompiledPDFName())
}

// OutputPath returns the full path of the final archival document.
func (c *Config) OutputPath() string {
	return filepath.Join(c.OutputDir, c.OutputFilename)
}
