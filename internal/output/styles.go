// Package output renders the user-facing lines of the CLI: file diff lists,
// confirmations and summaries. Diagnostics go through log/slog instead.
package output

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Color palette; the only place lipgloss colors are declared.
var (
	ColorCyan   = lipgloss.Color("14")
	ColorGreen  = lipgloss.Color("10")
	ColorYellow = lipgloss.Color("220")
	ColorRed    = lipgloss.Color("196")
	ColorDim    = lipgloss.Color("240")
)

// Semantic styles.
var (
	StyleNoun    = lipgloss.NewStyle().Foreground(ColorCyan)
	StyleSuccess = lipgloss.NewStyle().Foreground(ColorGreen)
	StyleWarning = lipgloss.NewStyle().Foreground(ColorYellow)
	StyleError   = lipgloss.NewStyle().Foreground(ColorRed).Bold(true)
	StyleDim     = lipgloss.NewStyle().Faint(true)
	StyleSummary = lipgloss.NewStyle().Bold(true)
)

// File markers used in diff listings.
const (
	MarkerMissing = "-"
	MarkerAdded   = "+"
)

// markerStyle returns the style of a file marker; unknown markers are unstyled.
func markerStyle(marker string) lipgloss.Style {
	switch marker {
	case MarkerMissing:
		return StyleError
	case MarkerAdded:
		return StyleWarning
	default:
		return lipgloss.NewStyle()
	}
}

// FormatFileLine renders " - path" with a colored marker.
func FormatFileLine(marker, path string) string {
	return " " + markerStyle(marker).Render(marker) + " " + path
}

// FormatCheckmark renders a green checkmark with a message.
func FormatCheckmark(msg string) string {
	return StyleSuccess.Render("✔") + " " + msg
}

// FormatWarning renders a yellow warning line.
func FormatWarning(msg string) string {
	return StyleWarning.Render("⚠ " + msg)
}

// FormatFailure renders a red failure line.
func FormatFailure(msg string) string {
	return StyleError.Render("✖ " + msg)
}

// Printer writes styled lines to a stream.
type Printer struct {
	w io.Writer
}

// NewPrinter returns a Printer writing to w.
func NewPrinter(w io.Writer) *Printer { return &Printer{w: w} }

// Writer returns the underlying stream.
func (p *Printer) Writer() io.Writer { return p.w }

// Line writes one line.
func (p *Printer) Line(s string) { _, _ = fmt.Fprintln(p.w, s) }

// Linef formats and writes one line.
func (p *Printer) Linef(format string, args ...any) { p.Line(fmt.Sprintf(format, args...)) }

// Files writes a titled list of files with the given marker.
func (p *Printer) Files(title, marker string, files []string) {
	if len(files) == 0 {
		return
	}
	p.Line(title)
	for _, f := range files {
		p.Line(FormatFileLine(marker, f))
	}
}
