package results

import (
	"slices"
	"time"

	"github.com/ansel1/pxtest/parser"
)

// Classify maps a reported phase and outcome to a terminal status.
//
// Only the call phase's pass counts as passed; a skip in any phase is skipped;
// a failure is failed during call and error during setup or teardown.
// ok is false when the phase produces no status.
func Classify(when, outcome string, xfail bool) (status Status, ok bool) {
	switch when {
	case PhaseSetup, PhaseCall, PhaseTeardown:
	default:
		return "", false
	}

	switch outcome {
	case "passed":
		if when != PhaseCall {
			return "", false
		}
		if xfail {
			return StatusXPassed, true
		}
		return StatusPassed, true
	case "skipped":
		if xfail {
			return StatusXFailed, true
		}
		return StatusSkipped, true
	case "failed":
		if when == PhaseCall {
			return StatusFailed, true
		}
		return StatusError, true
	}
	return "", false
}

// Completed returns the number of outcomes and collection errors seen so far.
func (s *Session) Completed() int {
	return s.Counts.Total()
}

// FinishCollection freezes the collected count and file set.
func (s *Session) FinishCollection(items []parser.Item, now time.Time) {
	s.Collected = len(items)

	files := make([]string, 0, len(items))
	for _, item := range items {
		files = append(files, item.Path)
	}
	slices.Sort(files)
	s.Files = slices.Compact(files)

	start := s.CollectionStart
	if start.IsZero() {
		start = s.StartTime
	}
	s.CollectionDuration = now.Sub(start)
}

// RecordCollectReport counts a failed collector as an error and keeps it for
// the post-mortem. It returns true when the report failed.
func (s *Session) RecordCollectReport(rep parser.CollectReport) bool {
	if !rep.Failed {
		return false
	}
	s.Counts.Add(StatusError)
	s.CollectionErrors = append(s.CollectionErrors, CollectionError{
		Path:    rep.Path,
		Summary: rep.Summary,
	})
	return true
}

// RecordTestReport classifies rep, updates the counters and buffers failures.
// ok is false when the report produced no terminal status.
func (s *Session) RecordTestReport(rep parser.TestReport) (outcome Outcome, ok bool) {
	status, ok := Classify(rep.When, rep.Outcome, rep.XFail)
	if !ok {
		return Outcome{}, false
	}
	s.Counts.Add(status)

	if rep.Outcome == "failed" {
		s.Failures = append(s.Failures, &FailureRecord{
			NodeID: rep.NodeID,
			Path:   rep.Path,
			Line:   rep.Line,
			When:   rep.When,
			Text:   rep.Longrepr,
			Crash:  rep.Crash,
		})
	}

	name := rep.Name
	if name == "" {
		name = rep.NodeID
	}
	return Outcome{
		Path:     rep.Path,
		Name:     name,
		Status:   status,
		Duration: time.Duration(rep.Duration * float64(time.Second)),
	}, true
}

// Finish records the engine's exit status.
func (s *Session) Finish(exitStatus int) {
	s.ExitStatus = exitStatus
	s.Finished = true
}

// Elapsed returns the wall time since the session started.
func (s *Session) Elapsed(now time.Time) time.Duration {
	return now.Sub(s.StartTime)
}
