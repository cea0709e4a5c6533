package output

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/ansel1/pxtest/output/format"
	"github.com/ansel1/pxtest/results"
	"github.com/ansel1/pxtest/terminal"
	"github.com/go-pkgz/lgr"
	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLive(caps terminal.Capabilities) (*Live, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewLive(&buf, caps, format.NewFormatter(format.NewStyles(caps)), nil), &buf
}

func TestLive_PlainNeverRedraws(t *testing.T) {
	live, buf := newLive(terminal.Plain())

	live.StartSpinner()
	assert.False(t, live.Spinning())
	live.Progress(results.Counts{Passed: 1}, 4, "collecting")
	live.StopSpinner()

	assert.Empty(t, buf.String())
}

func TestLive_ProgressLine(t *testing.T) {
	live, buf := newLive(terminal.Interactive(200))
	live.StartSpinner()

	live.Progress(results.Counts{}, 0, "collecting")
	assert.Equal(t, "\r⠋ 0/? • pass:0 fail:0 skip:0 err:0 • collecting", buf.String())

	buf.Reset()
	live.Progress(results.Counts{Passed: 2, Failed: 1, Skipped: 1, Error: 1, XFailed: 1}, 12, "")
	// shorter line is padded over the previous one
	want := "\r⠙ 6/12 • pass:2 fail:1 skip:1 err:1"
	prev := runewidth.StringWidth("⠋ 0/? • pass:0 fail:0 skip:0 err:0 • collecting")
	assert.Equal(t, want+strings.Repeat(" ", prev-runewidth.StringWidth(want[1:])), buf.String())
}

func TestLive_SpinnerFramesCycle(t *testing.T) {
	live, buf := newLive(terminal.Interactive(200))
	live.StartSpinner()

	var frames []string
	for i := 0; i < 11; i++ {
		buf.Reset()
		live.Progress(results.Counts{}, 1, "")
		frames = append(frames, strings.Fields(strings.TrimPrefix(buf.String(), "\r"))[0])
	}

	assert.Equal(t, []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏", "⠋"}, frames)
}

func TestLive_PaddingNeverLeavesStaleCharacters(t *testing.T) {
	live, buf := newLive(terminal.Interactive(500))
	live.StartSpinner()

	notes := []string{"collecting", "", "a much longer note than before", "x", ""}
	prevWidth := 0
	for i, note := range notes {
		buf.Reset()
		live.Progress(results.Counts{Passed: i * 100}, 0, note)

		out := strings.TrimPrefix(buf.String(), "\r")
		line := strings.TrimRight(out, " ")
		pad := len(out) - len(line)
		width := runewidth.StringWidth(line)

		assert.Equal(t, Padding(prevWidth, width), pad)
		assert.GreaterOrEqual(t, runewidth.StringWidth(out), prevWidth)
		prevWidth = width
	}
}

func TestPadding(t *testing.T) {
	assert.Equal(t, 0, Padding(0, 10))
	assert.Equal(t, 0, Padding(10, 10))
	assert.Equal(t, 4, Padding(14, 10))
	assert.Equal(t, 0, Padding(3, 40))
}

func TestLive_ProgressTruncatedToWidth(t *testing.T) {
	live, buf := newLive(terminal.Interactive(20))
	live.StartSpinner()

	live.Progress(results.Counts{}, 0, "collecting")

	line := strings.TrimPrefix(buf.String(), "\r")
	assert.Equal(t, 19, runewidth.StringWidth(line))
	assert.True(t, strings.HasSuffix(line, "…"))
}

func TestLive_ClearMatchesTruncatedWidth(t *testing.T) {
	live, buf := newLive(terminal.Interactive(20))
	live.StartSpinner()
	live.Progress(results.Counts{}, 0, "collecting")

	buf.Reset()
	live.StopSpinner()
	assert.Equal(t, "\r"+strings.Repeat(" ", 19)+"\r", buf.String())
}

func TestLive_StopSpinnerClearsLine(t *testing.T) {
	live, buf := newLive(terminal.Interactive(200))
	live.StartSpinner()
	live.Progress(results.Counts{}, 0, "")
	width := runewidth.StringWidth(strings.TrimPrefix(buf.String(), "\r"))

	buf.Reset()
	live.StopSpinner()
	assert.Equal(t, "\r"+strings.Repeat(" ", width)+"\r", buf.String())
	assert.False(t, live.Spinning())

	// nothing to clear the second time, and no more redraws
	buf.Reset()
	live.StopSpinner()
	live.Progress(results.Counts{}, 0, "")
	assert.Empty(t, buf.String())
}

func TestLive_PrintClearsProgressLine(t *testing.T) {
	live, buf := newLive(terminal.Interactive(200))
	live.StartSpinner()
	live.Progress(results.Counts{}, 0, "")

	buf.Reset()
	live.Println("hello")
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "\r "))
	assert.True(t, strings.HasSuffix(out, "\rhello\n"))
}

func TestLive_TestResultsGroupedByFile(t *testing.T) {
	live, buf := newLive(terminal.Plain())

	live.TestResult(results.Outcome{Path: "tests/test_a.py", Name: "test_one", Status: results.StatusPassed, Duration: 10 * time.Millisecond})
	live.TestResult(results.Outcome{Path: "tests/test_a.py", Name: "test_two", Status: results.StatusFailed, Duration: 20 * time.Millisecond})
	live.TestResult(results.Outcome{Path: "tests/test_b.py", Name: "test_three", Status: results.StatusSkipped})
	live.TestResult(results.Outcome{Path: "tests/test_a.py", Name: "test_four", Status: results.StatusXFailed})

	want := `
tests/test_a.py
  ✓ test_one  0.01s
  ✗ test_two  0.02s

tests/test_b.py
  ∙ test_three  0.00s

tests/test_a.py
  ∙ test_four  0.00s
`
	assert.Equal(t, want, buf.String())
}

func TestLive_RawIsSanitizedWhenPlain(t *testing.T) {
	live, buf := newLive(terminal.Plain())

	live.Raw([]byte("\x1b[32mcolored\x1b[0m output\r"))
	assert.Equal(t, "colored output\n", buf.String())

	interactive, ibuf := newLive(terminal.Interactive(80))
	interactive.Raw([]byte("\x1b[32mcolored\x1b[0m"))
	assert.Equal(t, "\x1b[32mcolored\x1b[0m\n", ibuf.String())
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) { return 0, assert.AnError }

func TestLive_WriteErrorsAreLogged(t *testing.T) {
	var logged []string
	log := func(format string, args ...any) { logged = append(logged, format) }

	caps := terminal.Plain()
	live := NewLive(failingWriter{}, caps, format.NewFormatter(format.NewStyles(caps)), lgr.Func(log))
	live.Println("lost")

	require.Len(t, logged, 1)
	assert.Contains(t, logged[0], "write failed")
}
