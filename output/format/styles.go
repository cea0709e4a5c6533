package format

import (
	"io"

	"github.com/ansel1/pxtest/terminal"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Symbol constants for test results
const (
	SymbolPass    = "✓"
	SymbolFail    = "✗"
	SymbolSkip    = "∙"
	SymbolPointer = "→"
)

// Styles holds the lipgloss styles used by every renderer.
type Styles struct {
	Pass   lipgloss.Style // green
	Fail   lipgloss.Style // red, bold
	Skip   lipgloss.Style // yellow
	Error  lipgloss.Style // red
	Banner lipgloss.Style // cyan, bold
	Bold   lipgloss.Style
	Plain  lipgloss.Style
}

// NewStyles creates styles for a stream with the given capabilities.
//
// The color profile is forced from caps rather than detected from the
// environment, so styling depends only on whether the output is interactive.
func NewStyles(caps terminal.Capabilities) Styles {
	r := lipgloss.NewRenderer(io.Discard)
	if caps.Color {
		r.SetColorProfile(termenv.ANSI)
	} else {
		r.SetColorProfile(termenv.Ascii)
	}

	base := r.NewStyle().TabWidth(lipgloss.NoTabConversion)
	return Styles{
		Pass:   base.Foreground(lipgloss.Color("2")),
		Fail:   base.Foreground(lipgloss.Color("1")).Bold(true),
		Skip:   base.Foreground(lipgloss.Color("3")),
		Error:  base.Foreground(lipgloss.Color("1")),
		Banner: base.Foreground(lipgloss.Color("6")).Bold(true),
		Bold:   base.Bold(true),
		Plain:  base,
	}
}
