// Package analyzer turns a buffered failure record into a crash message, a
// crash location and a short heuristic explanation.
package analyzer

import (
	"strings"

	"github.com/ansel1/pxtest/results"
)

// FallbackMessage is shown when a failure carries no usable text.
const FallbackMessage = "test failed"

const (
	assertionPrefix = "AssertionError:"
	didNotRaise     = "DID NOT RAISE"
)

// Analysis is everything the post-mortem needs to render one failure.
type Analysis struct {
	Message     string
	Path        string
	Line        int // one-based
	Explanation []string
}

// Analyze extracts message, location and explanation from rec.
func Analyze(rec *results.FailureRecord) Analysis {
	path, line := Location(rec)
	a := Analysis{
		Message: Message(rec),
		Path:    path,
		Line:    line,
	}
	if rec.Crash != nil {
		a.Explanation = Explain(rec.Crash.Message)
	}
	return a
}

// Message prefers the structured crash message, then the first line of the
// rendered failure text, then FallbackMessage.
func Message(rec *results.FailureRecord) string {
	if rec.Crash != nil && rec.Crash.Message != "" {
		return rec.Crash.Message
	}
	if rec.Text != "" {
		first, _, _ := strings.Cut(rec.Text, "\n")
		if first = strings.TrimRight(first, "\r"); first != "" {
			return first
		}
	}
	return FallbackMessage
}

// Location prefers the structured crash location. Otherwise it falls back to
// the test's own location, whose line is zero-based and is shifted by one.
func Location(rec *results.FailureRecord) (path string, line int) {
	if rec.Crash != nil && rec.Crash.Path != "" {
		return rec.Crash.Path, rec.Crash.Line
	}
	return rec.Path, rec.Line + 1
}

// Explain derives human-readable explanation lines from a crash message.
// It returns nil when there is nothing worth explaining.
func Explain(message string) []string {
	if message == "" {
		return nil
	}

	var summary string
	lowered := strings.ToLower(message)
	switch {
	case strings.Contains(lowered, "did not raise"):
		expected := message
		if idx := strings.LastIndex(message, didNotRaise); idx >= 0 {
			expected = message[idx+len(didNotRaise):]
		}
		expected = strings.TrimSpace(expected)
		if expected == "" {
			expected = "expected exception"
		}
		summary = "Expected " + expected + " to be raised, but none was."

	case strings.Contains(lowered, "assert") && strings.Contains(message, "=="):
		left, right, _ := strings.Cut(message, "==")
		left = strings.ReplaceAll(left, assertionPrefix, "")
		left = strings.TrimSpace(strings.Replace(left, "assert", "", 1))
		summary = "Expected: " + strings.TrimSpace(right)
		if left != "" {
			summary += "\nActual: " + left
		}

	default:
		summary = strings.TrimSpace(strings.ReplaceAll(message, assertionPrefix, ""))
	}

	var lines []string
	for _, l := range strings.Split(summary, "\n") {
		if strings.TrimSpace(l) != "" {
			lines = append(lines, l)
		}
	}
	return lines
}
