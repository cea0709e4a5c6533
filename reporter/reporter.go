// Package reporter turns a stream of engine lifecycle events into the live
// terminal report: banner, progress line, per-file results, failures
// post-mortem and summary.
package reporter

import (
	"io"
	"path/filepath"
	"time"

	"github.com/ansel1/pxtest/analyzer"
	"github.com/ansel1/pxtest/output"
	"github.com/ansel1/pxtest/output/format"
	"github.com/ansel1/pxtest/parser"
	"github.com/ansel1/pxtest/results"
	"github.com/ansel1/pxtest/snippet"
	"github.com/ansel1/pxtest/terminal"
	"github.com/go-pkgz/lgr"
)

// ExitInterrupted is the exit status reported when the event stream ended
// before the engine finished the session.
const ExitInterrupted = 2

const noteCollecting = "collecting"

// Reporter consumes lifecycle events for one engine session. It is not safe
// for concurrent use: a single goroutine must feed it.
type Reporter struct {
	caps      terminal.Capabilities
	now       func() time.Time
	log       lgr.L
	radius    int
	formatter *format.Formatter
	live      *output.Live

	session *results.Session
	root    string
}

// Option configures a Reporter.
type Option func(*Reporter)

// WithCapabilities sets the output capabilities. Default is plain output.
func WithCapabilities(caps terminal.Capabilities) Option {
	return func(r *Reporter) {
		r.caps = caps
	}
}

// WithClock sets the time source used for durations.
func WithClock(now func() time.Time) Option {
	return func(r *Reporter) {
		r.now = now
	}
}

// WithLogger sets the debug logger.
func WithLogger(l lgr.L) Option {
	return func(r *Reporter) {
		r.log = l
	}
}

// WithSnippetRadius sets the number of source lines shown around a failure.
func WithSnippetRadius(n int) Option {
	return func(r *Reporter) {
		if n >= 0 {
			r.radius = n
		}
	}
}

// New creates a reporter writing to w.
func New(w io.Writer, opts ...Option) *Reporter {
	r := &Reporter{
		caps:   terminal.Plain(),
		now:    time.Now,
		log:    lgr.NoOp,
		radius: snippet.DefaultRadius,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		r.log = lgr.NoOp
	}
	r.formatter = format.NewFormatter(format.NewStyles(r.caps))
	r.live = output.NewLive(w, r.caps, r.formatter, r.log)
	return r
}

// Dispatch applies one lifecycle event.
func (r *Reporter) Dispatch(evt parser.Event) {
	if r.session != nil && r.session.Finished {
		r.log.Logf("DEBUG ignoring %s event after session_finish", evt.Kind)
		return
	}

	switch evt.Kind {
	case parser.KindSessionStart:
		r.sessionStart(deref(evt.SessionStart))
	case parser.KindCollectionFinish:
		r.collectionFinish(deref(evt.CollectionFinish))
	case parser.KindCollectReport:
		r.collectReport(deref(evt.CollectReport))
	case parser.KindTestReport:
		r.testReport(deref(evt.TestReport))
	case parser.KindSessionFinish:
		r.sessionFinish(deref(evt.SessionFinish))
	default:
		r.log.Logf("DEBUG ignoring unknown event kind %q", evt.Kind)
	}
}

func deref[T any](p *T) T {
	if p == nil {
		var zero T
		return zero
	}
	return *p
}

// RawLine prints a line of engine output that was not an event.
func (r *Reporter) RawLine(line []byte) {
	r.live.Raw(line)
}

// Interrupt ends a session whose event stream stopped before session_finish.
// The progress line is cleared; buffered failures are not rendered.
func (r *Reporter) Interrupt() {
	r.live.StopSpinner()
	if r.session != nil && !r.session.Finished {
		r.log.Logf("WARN event stream ended before session_finish, %d results received", r.session.Completed())
	}
}

// Finished reports whether session_finish was received.
func (r *Reporter) Finished() bool {
	return r.session != nil && r.session.Finished
}

// ExitStatus returns the engine's exit status, or ExitInterrupted when the
// session never finished.
func (r *Reporter) ExitStatus() int {
	if !r.Finished() {
		return ExitInterrupted
	}
	return r.session.ExitStatus
}

// Session returns the current session state, nil before the first event.
func (r *Reporter) Session() *results.Session {
	return r.session
}

// ensureSession starts a session on the first event, whatever its kind.
func (r *Reporter) ensureSession() *results.Session {
	if r.session == nil {
		r.log.Logf("DEBUG session started without session_start")
		r.begin()
	}
	return r.session
}

func (r *Reporter) begin() {
	r.session = results.NewSession(r.now())
	r.live.StartSpinner()
}

func (r *Reporter) sessionStart(start parser.SessionStart) {
	if r.session != nil {
		r.log.Logf("DEBUG ignoring duplicate session_start")
		return
	}
	r.root = start.Root
	r.live.Print(r.formatter.Banner(start))
	r.begin()
	r.progress()
}

func (r *Reporter) collectionFinish(cf parser.CollectionFinish) {
	s := r.ensureSession()
	s.FinishCollection(cf.Items, r.now())
	r.live.StopSpinner()
	r.live.Print(r.formatter.Collected(s.Collected, len(s.Files), s.CollectionDuration))
	r.live.Println("")
}

func (r *Reporter) collectReport(rep parser.CollectReport) {
	r.ensureSession().RecordCollectReport(rep)
	r.progress()
}

func (r *Reporter) testReport(rep parser.TestReport) {
	outcome, ok := r.ensureSession().RecordTestReport(rep)
	if !ok {
		r.log.Logf("DEBUG no status for %s phase %q outcome %q", rep.NodeID, rep.When, rep.Outcome)
		return
	}
	r.live.TestResult(outcome)
}

func (r *Reporter) sessionFinish(fin parser.SessionFinish) {
	s := r.ensureSession()
	s.Finish(fin.ExitStatus)
	r.live.StopSpinner()

	r.live.Print(r.formatter.Failures(r.analyze(s.Failures)))
	r.live.Print(r.formatter.CollectionErrors(s.CollectionErrors))
	r.live.Print(r.formatter.Summary(s.Counts, s.ExitStatus, s.Elapsed(r.now())))
}

func (r *Reporter) progress() {
	s := r.session
	r.live.Progress(s.Counts, s.Collected, noteCollecting)
}

func (r *Reporter) analyze(records []*results.FailureRecord) []format.Failure {
	failures := make([]format.Failure, 0, len(records))
	for _, rec := range records {
		a := analyzer.Analyze(rec)
		failures = append(failures, format.Failure{
			NodeID:   rec.NodeID,
			Analysis: a,
			Snippet:  r.loadSnippet(a.Path, a.Line),
		})
	}
	return failures
}

// loadSnippet loads source around line. Relative paths are resolved against the
// session root.
func (r *Reporter) loadSnippet(path string, line int) []snippet.Line {
	if path == "" || line <= 0 {
		return nil
	}
	if !filepath.IsAbs(path) && r.root != "" {
		path = filepath.Join(r.root, path)
	}
	lines := snippet.Load(path, line, r.radius)
	if lines == nil {
		r.log.Logf("DEBUG no snippet for %s:%d", path, line)
	}
	return lines
}
