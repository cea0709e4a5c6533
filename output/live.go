package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/ansel1/pxtest/output/format"
	"github.com/ansel1/pxtest/results"
	"github.com/ansel1/pxtest/terminal"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/x/ansi"
	"github.com/go-pkgz/lgr"
	"github.com/mattn/go-runewidth"
)

// Live is the single point of output for a session. It owns the live
// progress line and the per-file grouping of result lines.
//
// On an interactive terminal the progress line is redrawn in place with a
// carriage return and padded over the previous one. Otherwise output is
// plain, append-only text: no redraws, no escape sequences.
type Live struct {
	w         io.Writer
	caps      terminal.Capabilities
	formatter *format.Formatter
	log       lgr.L

	frames      []string
	frame       int
	lastLen     int    // visible width of the progress line on screen, 0 if none
	currentFile string // file of the last printed result line
	spinning    bool
}

// NewLive creates a renderer writing to w.
func NewLive(w io.Writer, caps terminal.Capabilities, formatter *format.Formatter, log lgr.L) *Live {
	if log == nil {
		log = lgr.NoOp
	}
	return &Live{
		w:         w,
		caps:      caps,
		formatter: formatter,
		log:       log,
		frames:    spinner.MiniDot.Frames,
	}
}

// StartSpinner enables progress redraws. It is a no-op on plain output.
func (l *Live) StartSpinner() {
	l.spinning = l.caps.Interactive
}

// StopSpinner disables progress redraws and clears the progress line.
func (l *Live) StopSpinner() {
	l.spinning = false
	l.clear()
}

// Spinning reports whether progress redraws are enabled.
func (l *Live) Spinning() bool {
	return l.spinning
}

// Progress redraws the progress line while the spinner is active.
// Each redraw advances the spinner by one frame.
func (l *Live) Progress(counts results.Counts, collected int, note string) {
	if !l.caps.Interactive || !l.spinning {
		return
	}

	line := l.progressLine(counts, collected, note)
	width := runewidth.StringWidth(line)
	l.write("\r" + line + strings.Repeat(" ", Padding(l.lastLen, width)))
	l.lastLen = width
}

func (l *Live) progressLine(counts results.Counts, collected int, note string) string {
	total := "?"
	if collected > 0 {
		total = fmt.Sprintf("%d", collected)
	}

	frame := l.frames[l.frame%len(l.frames)]
	l.frame++

	line := fmt.Sprintf("%s %d/%s • pass:%d fail:%d skip:%d err:%d",
		frame, counts.Total(), total, counts.Passed, counts.Failed, counts.Skipped, counts.Error)
	if note != "" {
		line += " • " + note
	}

	// a wrapped line can no longer be overwritten with a carriage return
	if limit := l.caps.Width - 1; limit > 0 && runewidth.StringWidth(line) > limit {
		line = runewidth.Truncate(line, limit, "…")
	}
	return line
}

// Padding is the number of spaces needed to hide a previous line of width
// prev after writing a line of width next over it.
func Padding(prev, next int) int {
	return max(prev-next, 0)
}

// clear blanks the progress line, leaving the cursor at its start.
func (l *Live) clear() {
	if !l.caps.Interactive || l.lastLen == 0 {
		return
	}
	l.write("\r" + strings.Repeat(" ", l.lastLen) + "\r")
	l.lastLen = 0
}

// TestResult prints one result line, preceded by a file header whenever the
// file differs from the previous result's.
func (l *Live) TestResult(o results.Outcome) {
	if o.Path != l.currentFile {
		l.currentFile = o.Path
		l.Println("")
		l.Println(o.Path)
	}
	l.Print(l.formatter.TestLine(o))
}

// Raw prints a line of engine output verbatim.
func (l *Live) Raw(line []byte) {
	l.Println(string(line))
}

// Println prints s followed by a newline.
func (l *Live) Println(s string) {
	l.Print(s + "\n")
}

// Print prints a block of complete lines, clearing the progress line first.
func (l *Live) Print(s string) {
	l.clear()
	l.write(s)
}

func (l *Live) write(s string) {
	if !l.caps.Interactive {
		s = sanitize(s)
	}
	if _, err := io.WriteString(l.w, s); err != nil {
		l.log.Logf("DEBUG write failed: %v", err)
	}
}

// sanitize removes escape sequences and carriage returns that may be embedded
// in engine-supplied text.
func sanitize(s string) string {
	return strings.ReplaceAll(ansi.Strip(s), "\r", "")
}
