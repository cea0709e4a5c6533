package format

import (
	"fmt"
	"strings"
	"time"

	"github.com/ansel1/pxtest/parser"
	"github.com/ansel1/pxtest/results"
	"github.com/charmbracelet/lipgloss"
)

// Indentation constants
const (
	IndentLevel1 = "  "
	IndentLevel2 = "   "
	IndentLevel3 = "     "
)

// Formatter renders report text. It holds no state; every method returns
// complete lines terminated by "\n".
type Formatter struct {
	styles Styles
}

// NewFormatter creates a formatter using styles.
func NewFormatter(styles Styles) *Formatter {
	return &Formatter{styles: styles}
}

// formatSeconds formats d as seconds with two decimals, e.g. "1.25s".
func formatSeconds(d time.Duration) string {
	return fmt.Sprintf("%.2fs", d.Seconds())
}

func plural(n int, singular, pluralForm string) string {
	if n == 1 {
		return singular
	}
	return pluralForm
}

// Banner renders the session identity lines.
func (f *Formatter) Banner(start parser.SessionStart) string {
	parts := []string{"px test"}
	if start.Python != "" {
		parts = append(parts, "Python "+start.Python)
	}
	if start.Pytest != "" {
		parts = append(parts, "pytest "+start.Pytest)
	}

	cfg := start.Config
	if cfg == "" {
		cfg = "auto-detected"
	}

	var b strings.Builder
	b.WriteString(f.styles.Banner.Render(strings.Join(parts, "  •  ")) + "\n")
	fmt.Fprintf(&b, "root:   %s\n", start.Root)
	fmt.Fprintf(&b, "config: %s\n", cfg)
	return b.String()
}

// Collected renders the line printed when discovery finishes.
func (f *Formatter) Collected(tests, files int, d time.Duration) string {
	return fmt.Sprintf("collected %d %s from %d %s in %s\n",
		tests, plural(tests, "test", "tests"),
		files, plural(files, "file", "files"),
		formatSeconds(d))
}

// StatusStyle returns the icon and style for a status:
// passes are green checks, skips and expected failures yellow dots, and
// everything else a bold red cross.
func (f *Formatter) StatusStyle(status results.Status) (string, lipgloss.Style) {
	switch status {
	case results.StatusPassed, results.StatusXPassed:
		return SymbolPass, f.styles.Pass
	case results.StatusSkipped, results.StatusXFailed:
		return SymbolSkip, f.styles.Skip
	default:
		return SymbolFail, f.styles.Fail
	}
}

// TestLine renders one per-test result line.
func (f *Formatter) TestLine(o results.Outcome) string {
	icon, style := f.StatusStyle(o.Status)
	line := fmt.Sprintf("%s%s %s  %s", IndentLevel1, icon, o.Name, formatSeconds(o.Duration))
	return style.Render(line) + "\n"
}

// Summary renders the final result block. The verdict comes only from the
// engine's exit status.
func (f *Formatter) Summary(counts results.Counts, exitStatus int, elapsed time.Duration) string {
	label, style := SymbolPass+" PASSED", f.styles.Pass.Bold(true)
	if exitStatus != 0 {
		label, style = SymbolFail+" FAILED", f.styles.Fail
	}

	total := counts.Total()
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(style.Render(fmt.Sprintf("RESULT   %s (exit code %d)", label, exitStatus)) + "\n")
	fmt.Fprintf(&b, "TOTAL    %d %s in %s\n", total, plural(total, "test", "tests"), formatSeconds(elapsed))
	fmt.Fprintf(&b, "PASSED   %d\n", counts.Passed)
	fmt.Fprintf(&b, "FAILED   %d\n", counts.Failed)
	fmt.Fprintf(&b, "SKIPPED  %d\n", counts.Skipped)
	fmt.Fprintf(&b, "ERRORS   %d\n", counts.Error)
	if counts.XFailed > 0 {
		fmt.Fprintf(&b, "XFAILED  %d\n", counts.XFailed)
	}
	if counts.XPassed > 0 {
		fmt.Fprintf(&b, "XPASSED  %d\n", counts.XPassed)
	}
	return b.String()
}

func renderSectionHeader(header string, style lipgloss.Style) string {
	return style.Render(header) + "\n" + strings.Repeat("-", len(header)) + "\n"
}
