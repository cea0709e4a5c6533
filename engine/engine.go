package engine

import (
	"bufio"
	"errors"
	"io"

	"github.com/ansel1/pxtest/parser"
)

// maxLineSize bounds a single input line. Rendered failure text travels inside
// test_report lines and can be much larger than bufio's 64KiB default.
const maxLineSize = 8 * 1024 * 1024

// EventType identifies the type of event emitted by the engine
type EventType string

const (
	EventRawLine   EventType = "raw"       // Non-event line from input
	EventLifecycle EventType = "lifecycle" // Parsed lifecycle event
	EventError     EventType = "error"     // Error occurred during processing
	EventComplete  EventType = "complete"  // Input stream finished
)

// Event represents a single event emitted by the engine
type Event struct {
	Type    EventType
	RawLine []byte       // Populated for EventRawLine
	Report  parser.Event // Populated for EventLifecycle
	Error   error        // Populated for EventError
}

// Engine reads the test engine's output and streams events.
// It keeps no state about the run; that belongs to the reporter.
type Engine struct {
	// Output writers for pass-through file writing
	rawWriter  io.Writer
	jsonWriter io.Writer
}

// Option configures the engine
type Option func(*Engine)

// WithRawOutput configures engine to write all raw lines to w
func WithRawOutput(w io.Writer) Option {
	return func(e *Engine) {
		e.rawWriter = w
	}
}

// WithJSONOutput configures engine to write parsed event lines to w
func WithJSONOutput(w io.Writer) Option {
	return func(e *Engine) {
		e.jsonWriter = w
	}
}

// NewEngine creates a new event processing engine
func NewEngine(opts ...Option) *Engine {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Stream reads from input, parses lines, and emits events via channel.
// The channel is closed after EventComplete.
func (e *Engine) Stream(input io.Reader) <-chan Event {
	events := make(chan Event, 100)

	go func() {
		defer close(events)

		scanner := newScanner(input)
		for scanner.Scan() {
			line := scanner.Bytes()

			if e.rawWriter != nil {
				e.rawWriter.Write(line)
				e.rawWriter.Write([]byte("\n"))
			}

			evt, err := parser.ParseEvent(line)
			if err != nil {
				var derr *parser.DecodeError
				if errors.As(err, &derr) {
					events <- Event{Type: EventError, Error: err}
					continue
				}
				// Not an event; scanner reuses its buffer so copy the line
				lineCopy := make([]byte, len(line))
				copy(lineCopy, line)
				events <- Event{
					Type:    EventRawLine,
					RawLine: lineCopy,
				}
				continue
			}

			if e.jsonWriter != nil {
				e.jsonWriter.Write(line)
				e.jsonWriter.Write([]byte("\n"))
			}

			events <- Event{
				Type:   EventLifecycle,
				Report: evt,
			}
		}

		if err := scanner.Err(); err != nil {
			events <- Event{
				Type:  EventError,
				Error: err,
			}
		}

		events <- Event{
			Type: EventComplete,
		}
	}()

	return events
}

func newScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return scanner
}
