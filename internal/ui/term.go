package ui

import (
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/cosmelab/labgrid/internal/heatmap"
)

// Color definitions for consistent styling across the CLI.
var (
	// Density bands, matching the heatmap legend
	colorBandLow    = color.New(color.FgCyan)
	colorBandMedium = color.New(color.FgYellow)
	colorBandHigh   = color.New(color.FgGreen, color.Bold)

	// Insight/results: yellow to make it pop
	colorInsight = color.New(color.FgYellow)

	// Headers: bold
	colorHeader = color.New(color.Bold)

	// Stats: green for positive metrics
	colorStats = color.New(color.FgGreen)

	// Warnings: offline data, resubmissions
	colorWarn = color.New(color.FgMagenta)

	// Muted: for secondary information
	colorMuted = color.New(color.FgWhite, color.Faint)
)

// termWidth returns the terminal width, or a default if detection fails.
func termWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80 // sensible default
	}
	return width
}

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// DisableColor disables all color output.
func DisableColor() {
	color.NoColor = true
}

// EnableColor enables color output (if terminal supports it).
func EnableColor() {
	color.NoColor = false
}

// formatBand formats a cell count in its density band color.
func formatBand(s string, b heatmap.Band) string {
	switch b {
	case heatmap.BandLow:
		return colorBandLow.Sprint(s)
	case heatmap.BandMedium:
		return colorBandMedium.Sprint(s)
	case heatmap.BandHigh:
		return colorBandHigh.Sprint(s)
	default:
		return colorMuted.Sprint(s)
	}
}

// formatInsight formats text for insight/coaching output.
func formatInsight(s string) string {
	return colorInsight.Sprint(s)
}

// formatHeader formats text as a header.
func formatHeader(s string) string {
	return colorHeader.Sprint(s)
}

// formatStats formats text for statistics.
func formatStats(s string) string {
	return colorStats.Sprint(s)
}

// formatWarn formats text as a warning.
func formatWarn(s string) string {
	return colorWarn.Sprint(s)
}

// formatMuted formats text as secondary/muted.
func formatMuted(s string) string {
	return colorMuted.Sprint(s)
}
