package format

import (
	"fmt"
	"strings"

	"github.com/ansel1/pxtest/analyzer"
	"github.com/ansel1/pxtest/results"
	"github.com/ansel1/pxtest/snippet"
)

// snippetNumberWidth is the width line numbers are right-aligned to.
const snippetNumberWidth = 4

// Failure is one analyzed failure ready for the post-mortem.
type Failure struct {
	NodeID   string
	Analysis analyzer.Analysis
	Snippet  []snippet.Line // nil when the source could not be read
}

// Failures renders the failures section.
func (f *Formatter) Failures(failures []Failure) string {
	if len(failures) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(renderSectionHeader(fmt.Sprintf("FAILURES (%d)", len(failures)), f.styles.Fail))
	for i, failure := range failures {
		f.formatFailure(&b, i+1, failure)
	}
	return b.String()
}

func (f *Formatter) formatFailure(b *strings.Builder, idx int, failure Failure) {
	a := failure.Analysis

	b.WriteString("\n")
	b.WriteString(f.styles.Bold.Render(fmt.Sprintf("%d) %s", idx, failure.NodeID)) + "\n")
	b.WriteString("\n")

	for _, line := range strings.Split(a.Message, "\n") {
		b.WriteString(f.styles.Error.Render(IndentLevel2+line) + "\n")
	}
	b.WriteString("\n")

	if len(failure.Snippet) > 0 {
		fmt.Fprintf(b, "%s%s:%d\n", IndentLevel2, a.Path, a.Line)
		for _, line := range failure.Snippet {
			pointer := " "
			if line.Number == a.Line {
				pointer = SymbolPointer
			}
			fmt.Fprintf(b, "%s%s%*d  %s\n", IndentLevel1, pointer, snippetNumberWidth, line.Number, line.Text)
		}
		b.WriteString("\n")
	}

	if len(a.Explanation) > 0 {
		b.WriteString(IndentLevel2 + "Explanation:\n")
		for _, line := range a.Explanation {
			b.WriteString(IndentLevel3 + line + "\n")
		}
	}
}

// CollectionErrors renders the collection errors section.
func (f *Formatter) CollectionErrors(errs []results.CollectionError) string {
	if len(errs) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(renderSectionHeader(fmt.Sprintf("COLLECTION ERRORS (%d)", len(errs)), f.styles.Fail))
	for i, e := range errs {
		b.WriteString("\n")
		b.WriteString(f.styles.Bold.Render(fmt.Sprintf("%d) %s", i+1, e.Path)) + "\n")
		if e.Summary == "" {
			continue
		}
		for _, line := range strings.Split(strings.TrimRight(e.Summary, "\n"), "\n") {
			b.WriteString(f.styles.Error.Render(IndentLevel2+line) + "\n")
		}
	}
	return b.String()
}
