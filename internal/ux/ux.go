// Package ux provides the terminal presentation layer: banner, status lines,
// and the closing notes. Pipeline packages never import it.
package ux

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorAmber  = lipgloss.Color("#F4D03F")
	colorGreen  = lipgloss.Color("#27AE60")
	colorRed    = lipgloss.Color("#E74C3C")
	colorMuted  = lipgloss.Color("#7F8C8D")
	colorAccent = lipgloss.Color("#3498DB")
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorAmber)
	successStyle = lipgloss.NewStyle().Foreground(colorGreen)
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorRed)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	pathStyle    = lipgloss.NewStyle().Underline(true).Foreground(colorAccent)

	bannerBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorAmber).
			Padding(0, 2)
)

// Banner renders the program banner shown at the start of a build.
func Banner(version string) string {
	body := titleStyle.Render("texpdfa") + "\n" +
		"Compile a LaTeX project into a PDF/A-compliant archival document\n" +
		mutedStyle.Render("version: "+version)
	return bannerBox.Render(body)
}

// Successf renders a green status line.
func Successf(format string, args ...any) string {
	return successStyle.Render("✔ " + fmt.Sprintf(format, args...))
}

// Errorf renders a red status line.
func Errorf(format string, args ...any) string {
	return errorStyle.Render("✘ " + fmt.Sprintf(format, args...))
}

// Path highlights a filesystem path inside surrounding text.
func Path(p string) string {
	return pathStyle.Render(p)
}

// Notes renders the closing reminders after a successful run.
func Notes(outputPath, backupSuffix string) string {
	lines := []string{
		"The generated PDF is at: " + Path(outputPath),
		"Verify that the PDF works, including the outlines and the references.",
		"Verify the metadata in your PDF reader's properties tab.",
		"If something went wrong with your LaTeX main file, a backup with the " + backupSuffix + " suffix is in the project folder.",
		"Use veraPDF-GUI to re-verify or to inspect any remaining failed checks.",
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("Notes") + "\n")
	for _, line := range lines {
		b.WriteString(mutedStyle.Render("• ") + line + "\n")
	}
	return b.String()
}

// Verdict renders a compliance verification summary.
func Verdict(profile, statement string, passed, failed int, compliant bool) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("veraPDF verification results") + "\n")
	b.WriteString(fmt.Sprintf("Profile: %s\n", profile))
	b.WriteString(successStyle.Render(fmt.Sprintf("  Passed checks: %d", passed)) + "\n")
	b.WriteString(errorStyle.Render(fmt.Sprintf("  Failed checks: %d", failed)) + "\n")
	if compliant {
		b.WriteString(Successf("%s", statement))
	} else {
		b.WriteString(Errorf("%s", statement))
	}
	return b.String()
}
