package engine

import (
	"fmt"
	"io"
	"time"

	"github.com/ansel1/pxtest/parser"
)

// replayLine is one recorded input line and the pause that preceded it.
type replayLine struct {
	data []byte        // line including its trailing newline
	wait time.Duration // recorded gap since the previous lifecycle event
}

// ReplayReader replays a recorded event stream. Before each lifecycle event it
// pauses for the recorded gap since the previous event, scaled by rate. Raw
// lines and unknown event kinds are replayed without a pause.
type ReplayReader struct {
	lines   []replayLine
	pending []byte
	rate    float64
	sleep   func(time.Duration)
}

// NewReplayReader reads all of r and prepares it for replay.
// rate scales the recorded delays: 0 replays instantly, 0.5 at twice the speed.
func NewReplayReader(r io.Reader, rate float64) (*ReplayReader, error) {
	var (
		lines []replayLine
		last  time.Time
	)

	scanner := newScanner(r)
	for scanner.Scan() {
		raw := scanner.Bytes()
		line := replayLine{data: append(append(make([]byte, 0, len(raw)+1), raw...), '\n')}

		if ts, ok := eventTime(raw); ok {
			if !last.IsZero() && ts.After(last) {
				line.wait = ts.Sub(last)
			}
			last = ts
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read recorded events: %w", err)
	}

	return &ReplayReader{
		lines: lines,
		rate:  rate,
		sleep: time.Sleep,
	}, nil
}

// eventTime returns the timestamp of a known lifecycle event line.
func eventTime(line []byte) (time.Time, bool) {
	evt, err := parser.ParseEvent(line)
	if err != nil || !evt.Known() || evt.Time.IsZero() {
		return time.Time{}, false
	}
	return evt.Time, true
}

// Read implements io.Reader. A line is released only after its pause.
func (r *ReplayReader) Read(p []byte) (int, error) {
	if len(r.pending) == 0 {
		if len(r.lines) == 0 {
			return 0, io.EOF
		}
		next := r.lines[0]
		r.lines = r.lines[1:]

		if r.rate > 0 && next.wait > 0 {
			r.sleep(time.Duration(float64(next.wait) * r.rate))
		}
		r.pending = next.data
	}

	n := copy(p, r.pending)
	r.pending = r.pending[n:]
	return n, nil
}
