package results

import (
	"time"

	"github.com/ansel1/pxtest/parser"
)

// Status is the terminal status of one reported test phase.
type Status string

const (
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
	StatusError   Status = "error"
	StatusXFailed Status = "xfailed" // expected failure
	StatusXPassed Status = "xpassed" // unexpected pass
)

// Phases the engine reports for each test
const (
	PhaseSetup    = "setup"
	PhaseCall     = "call"
	PhaseTeardown = "teardown"
)

// Counts tallies outcomes per status.
type Counts struct {
	Passed  int
	Failed  int
	Skipped int
	Error   int
	XFailed int
	XPassed int
}

// Add increments the counter for status. Unknown statuses are ignored.
func (c *Counts) Add(status Status) {
	switch status {
	case StatusPassed:
		c.Passed++
	case StatusFailed:
		c.Failed++
	case StatusSkipped:
		c.Skipped++
	case StatusError:
		c.Error++
	case StatusXFailed:
		c.XFailed++
	case StatusXPassed:
		c.XPassed++
	}
}

// Total returns the sum of all counters.
func (c Counts) Total() int {
	return c.Passed + c.Failed + c.Skipped + c.Error + c.XFailed + c.XPassed
}

// Outcome is a single classified test phase, ready to be rendered.
type Outcome struct {
	Path     string
	Name     string
	Status   Status
	Duration time.Duration
}

// FailureRecord is a failed test phase kept for the post-mortem.
type FailureRecord struct {
	NodeID string
	Path   string // test location as reported by the engine
	Line   int    // zero-based line of the test definition
	When   string
	Text   string        // full rendered failure text
	Crash  *parser.Crash // nil when the engine had no structured crash info
}

// CollectionError is a failure that happened while discovering tests in Path.
type CollectionError struct {
	Path    string
	Summary string
}

// Session holds the run-wide progress state of one engine session.
type Session struct {
	StartTime          time.Time
	CollectionStart    time.Time // zero until collection starts
	CollectionDuration time.Duration
	Collected          int
	Files              []string // distinct collected file paths, sorted
	Counts             Counts
	ExitStatus         int
	Finished           bool

	Failures         []*FailureRecord  // in arrival order
	CollectionErrors []CollectionError // in arrival order
}

// NewSession creates a session started at start. Collection is assumed to
// start immediately.
func NewSession(start time.Time) *Session {
	return &Session{
		StartTime:        start,
		CollectionStart:  start,
		Failures:         make([]*FailureRecord, 0),
		CollectionErrors: make([]CollectionError, 0),
	}
}
