// Package snippet reads a window of source lines around a target line.
package snippet

import (
	"os"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DefaultRadius is the number of context lines on each side of the target.
const DefaultRadius = 2

// Line is a single source line with its one-based number.
type Line struct {
	Number int
	Text   string
}

// Load returns the lines around line (one-based) in path, radius lines on each
// side. Unreadable or non UTF-8 files yield nil: a missing snippet is never an
// error.
func Load(path string, line, radius int) []Line {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	decoder := transform.Chain(encoding.UTF8Validator, unicode.UTF8BOM.NewDecoder())
	text, _, err := transform.Bytes(decoder, data)
	if err != nil {
		return nil
	}

	return Window(splitLines(string(text)), line, radius)
}

// Window selects the inclusive window [max(0, line-radius-1), min(len, line+radius))
// of zero-based indexes from lines and numbers each entry one-based.
func Window(lines []string, line, radius int) []Line {
	radius = min(max(radius, 0), len(lines))
	start := max(0, line-radius-1)
	end := min(len(lines), line+radius)
	if start >= end {
		return nil
	}

	snippet := make([]Line, 0, end-start)
	for idx := start; idx < end; idx++ {
		snippet = append(snippet, Line{Number: idx + 1, Text: lines[idx]})
	}
	return snippet
}

// splitLines splits text into lines without their terminators. A trailing
// newline does not start a new line.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.TrimSuffix(text, "\n")
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
