package parser

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrNotEvent is returned for JSON values that carry no "event" discriminator.
var ErrNotEvent = errors.New("not a lifecycle event")

// DecodeError reports a recognized event whose payload could not be decoded.
type DecodeError struct {
	Kind Kind
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Kind, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Kind identifies the lifecycle event carried by an Event
type Kind string

const (
	KindSessionStart     Kind = "session_start"     // Engine session began
	KindCollectionFinish Kind = "collection_finish" // Discovery finished
	KindCollectReport    Kind = "collect_report"    // One collector (file) was processed
	KindTestReport       Kind = "test_report"       // One phase of one test finished
	KindSessionFinish    Kind = "session_finish"    // Engine session ended
)

// SessionStart is the payload of KindSessionStart
type SessionStart struct {
	Root   string `json:"root"`
	Config string `json:"config,omitempty"` // config file the engine loaded, empty if auto-detected
	Python string `json:"python,omitempty"`
	Pytest string `json:"pytest,omitempty"`
}

// Item is a single collected test
type Item struct {
	NodeID string `json:"nodeid"`
	Path   string `json:"path"`
}

// CollectionFinish is the payload of KindCollectionFinish
type CollectionFinish struct {
	Items []Item `json:"items"`
}

// CollectReport is the payload of KindCollectReport
type CollectReport struct {
	Path    string `json:"path"`
	Failed  bool   `json:"failed"`
	Summary string `json:"summary,omitempty"`
}

// Crash is the structured location and message of a failure, when the engine has one.
// Line is one-based.
type Crash struct {
	Path    string `json:"path"`
	Line    int    `json:"lineno"`
	Message string `json:"message"`
}

// TestReport is the payload of KindTestReport.
// Line is the zero-based line of the test definition, as the engine reports it.
type TestReport struct {
	NodeID   string  `json:"nodeid"`
	Path     string  `json:"path"`
	Line     int     `json:"lineno"`
	Name     string  `json:"name"`
	When     string  `json:"when"`    // "setup", "call" or "teardown"
	Outcome  string  `json:"outcome"` // "passed", "failed" or "skipped"
	Duration float64 `json:"duration"`
	Longrepr string  `json:"longrepr,omitempty"` // full rendered failure text
	Crash    *Crash  `json:"crash,omitempty"`
	XFail    bool    `json:"xfail,omitempty"` // test was marked as expected to fail
}

// SessionFinish is the payload of KindSessionFinish
type SessionFinish struct {
	ExitStatus int `json:"exitstatus"`
}

// Event is a tagged variant: exactly one payload pointer matching Kind is set.
// Events of an unrecognized Kind carry no payload.
type Event struct {
	Kind Kind
	Time time.Time

	SessionStart     *SessionStart
	CollectionFinish *CollectionFinish
	CollectReport    *CollectReport
	TestReport       *TestReport
	SessionFinish    *SessionFinish
}

// Known reports whether e is one of the lifecycle kinds above.
func (e Event) Known() bool {
	switch e.Kind {
	case KindSessionStart, KindCollectionFinish, KindCollectReport, KindTestReport, KindSessionFinish:
		return true
	}
	return false
}

type envelope struct {
	Event Kind            `json:"event"`
	Time  json.RawMessage `json:"time"`
}

// parseTime accepts an RFC 3339 string or Unix seconds. Anything else yields
// the zero time; the timestamp only paces replay.
func parseTime(raw json.RawMessage) time.Time {
	if len(raw) == 0 {
		return time.Time{}
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return time.Time{}
		}
		return t
	}

	var secs float64
	if err := json.Unmarshal(raw, &secs); err == nil && secs > 0 {
		whole, frac := math.Modf(secs)
		return time.Unix(int64(whole), int64(frac*float64(time.Second))).UTC()
	}
	return time.Time{}
}

// ParseEvent parses a single line of the engine's JSON event stream
func ParseEvent(line []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(line, &env); err != nil {
		return Event{}, err
	}
	if env.Event == "" {
		return Event{}, ErrNotEvent
	}

	evt := Event{Kind: env.Event, Time: parseTime(env.Time)}
	var payload any
	switch env.Event {
	case KindSessionStart:
		evt.SessionStart = &SessionStart{}
		payload = evt.SessionStart
	case KindCollectionFinish:
		evt.CollectionFinish = &CollectionFinish{}
		payload = evt.CollectionFinish
	case KindCollectReport:
		evt.CollectReport = &CollectReport{}
		payload = evt.CollectReport
	case KindTestReport:
		evt.TestReport = &TestReport{}
		payload = evt.TestReport
	case KindSessionFinish:
		evt.SessionFinish = &SessionFinish{}
		payload = evt.SessionFinish
	default:
		return evt, nil
	}

	if err := json.Unmarshal(line, payload); err != nil {
		return Event{}, &DecodeError{Kind: env.Event, Err: err}
	}
	return evt, nil
}
