// Package terminal probes an output stream for interactive capabilities.
package terminal

import (
	"io"

	"github.com/mattn/go-isatty"
	"golang.org/x/term"
)

// DefaultWidth is used when the terminal width cannot be determined.
const DefaultWidth = 80

// Capabilities describes what can safely be written to an output stream.
type Capabilities struct {
	Interactive bool // carriage-return redraws are allowed
	Color       bool // ANSI styling is allowed
	Width       int  // columns available for a single line
}

// fder is implemented by *os.File.
type fder interface {
	Fd() uintptr
}

// Probe reports the capabilities of w. Only writers backed by a terminal file
// descriptor are interactive; everything else (pipes, files, buffers) gets
// plain, append-only output.
func Probe(w io.Writer) Capabilities {
	f, ok := w.(fder)
	if !ok {
		return Plain()
	}
	fd := f.Fd()
	if !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
		return Plain()
	}
	width := DefaultWidth
	if cols, _, err := term.GetSize(int(fd)); err == nil && cols > 0 {
		width = cols
	}
	return Interactive(width)
}

// Plain returns the capabilities of a non-interactive stream.
func Plain() Capabilities {
	return Capabilities{Width: DefaultWidth}
}

// Interactive returns the capabilities of a terminal with the given width.
func Interactive(width int) Capabilities {
	if width <= 0 {
		width = DefaultWidth
	}
	return Capabilities{Interactive: true, Color: true, Width: width}
}
