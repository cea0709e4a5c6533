package format

import (
	"strings"
	"testing"
	"time"

	"github.com/ansel1/pxtest/parser"
	"github.com/ansel1/pxtest/results"
	"github.com/ansel1/pxtest/terminal"
	"github.com/stretchr/testify/assert"
)

func plainFormatter() *Formatter {
	return NewFormatter(NewStyles(terminal.Plain()))
}

func colorFormatter() *Formatter {
	return NewFormatter(NewStyles(terminal.Interactive(80)))
}

func TestSummary_FailingRun(t *testing.T) {
	counts := results.Counts{Passed: 3, Failed: 1, Skipped: 1}

	got := plainFormatter().Summary(counts, 1, 1234*time.Millisecond)

	want := `
RESULT   ✗ FAILED (exit code 1)
TOTAL    5 tests in 1.23s
PASSED   3
FAILED   1
SKIPPED  1
ERRORS   0
`
	assert.Equal(t, want, got)
}

func TestSummary_LabelFollowsExitStatusOnly(t *testing.T) {
	// failures were counted but the engine says the run passed
	got := plainFormatter().Summary(results.Counts{Failed: 2}, 0, 0)
	assert.Contains(t, got, "RESULT   ✓ PASSED (exit code 0)")

	// nothing failed but the engine reports an internal error
	got = plainFormatter().Summary(results.Counts{Passed: 1}, 3, 0)
	assert.Contains(t, got, "RESULT   ✗ FAILED (exit code 3)")
	assert.Contains(t, got, "TOTAL    1 test in 0.00s")
}

func TestSummary_ExpectedFailureCounts(t *testing.T) {
	got := plainFormatter().Summary(results.Counts{Passed: 1, XFailed: 2, XPassed: 1}, 0, 0)

	assert.Contains(t, got, "TOTAL    4 tests")
	assert.Contains(t, got, "XFAILED  2\n")
	assert.Contains(t, got, "XPASSED  1\n")

	got = plainFormatter().Summary(results.Counts{Passed: 1}, 0, 0)
	assert.NotContains(t, got, "XFAILED")
	assert.NotContains(t, got, "XPASSED")
}

func TestSummary_Colors(t *testing.T) {
	got := colorFormatter().Summary(results.Counts{Passed: 1}, 0, 0)
	assert.Contains(t, got, "\x1b[")

	got = plainFormatter().Summary(results.Counts{Passed: 1}, 1, 0)
	assert.NotContains(t, got, "\x1b[")
}

func TestBanner(t *testing.T) {
	got := plainFormatter().Banner(parser.SessionStart{
		Root:   "/work/project",
		Config: "pyproject.toml",
		Python: "3.12.1",
		Pytest: "8.3.2",
	})
	assert.Equal(t, "px test  •  Python 3.12.1  •  pytest 8.3.2\nroot:   /work/project\nconfig: pyproject.toml\n", got)

	got = plainFormatter().Banner(parser.SessionStart{Root: "/work/project"})
	assert.Equal(t, "px test\nroot:   /work/project\nconfig: auto-detected\n", got)
}

func TestCollected(t *testing.T) {
	f := plainFormatter()
	assert.Equal(t, "collected 12 tests from 3 files in 0.50s\n", f.Collected(12, 3, 500*time.Millisecond))
	assert.Equal(t, "collected 1 test from 1 file in 0.00s\n", f.Collected(1, 1, 0))
	assert.Equal(t, "collected 0 tests from 0 files in 0.00s\n", f.Collected(0, 0, 0))
}

func TestTestLine(t *testing.T) {
	f := plainFormatter()

	tests := []struct {
		status results.Status
		icon   string
	}{
		{results.StatusPassed, SymbolPass},
		{results.StatusXPassed, SymbolPass},
		{results.StatusSkipped, SymbolSkip},
		{results.StatusXFailed, SymbolSkip},
		{results.StatusFailed, SymbolFail},
		{results.StatusError, SymbolFail},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			got := f.TestLine(results.Outcome{Name: "test_x", Status: tt.status, Duration: 10 * time.Millisecond})
			assert.Equal(t, "  "+tt.icon+" test_x  0.01s\n", got)
		})
	}
}

func TestTestLine_Styles(t *testing.T) {
	f := colorFormatter()

	pass := f.TestLine(results.Outcome{Name: "a", Status: results.StatusPassed})
	fail := f.TestLine(results.Outcome{Name: "a", Status: results.StatusFailed})
	skip := f.TestLine(results.Outcome{Name: "a", Status: results.StatusSkipped})

	assert.Contains(t, pass, "\x1b[")
	assert.Contains(t, pass, "32") // green
	assert.Contains(t, skip, "33") // yellow
	assert.Contains(t, fail, "31") // red
	assert.True(t, strings.HasSuffix(fail, "\n"))
}
