// Package main provides pxtest, a live terminal reporter for a test engine's
// lifecycle event stream.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/ansel1/pxtest/engine"
	"github.com/ansel1/pxtest/reporter"
	"github.com/ansel1/pxtest/terminal"
	"github.com/go-pkgz/lgr"
	"github.com/jessevdk/go-flags"
)

// opts holds all command-line options.
type opts struct {
	File     string  `short:"f" long:"file" env:"PXTEST_FILE" description:"read events from file instead of stdin"`
	Replay   bool    `long:"replay" env:"PXTEST_REPLAY" description:"replay events with timing from the original run (requires --file)"`
	Rate     float64 `long:"rate" env:"PXTEST_RATE" default:"1" description:"replay rate multiplier (0=instant, 1=original speed, 0.5=2x speed)"`
	NoTTY    bool    `long:"notty" env:"PXTEST_NOTTY" description:"plain output even on a terminal"`
	Outfile  string  `long:"outfile" env:"PXTEST_OUTFILE" description:"save all input to the specified file"`
	JSONFile string  `long:"jsonfile" env:"PXTEST_JSONFILE" description:"save event lines to the specified file"`
	Context  int     `long:"context" env:"PXTEST_CONTEXT" default:"2" description:"source lines shown around a failure"`
	LogFile  string  `long:"log-file" env:"PXTEST_LOG_FILE" description:"write the debug log to the specified file"`
	Debug    bool    `long:"debug" env:"PXTEST_DEBUG" description:"enable debug logging"`
}

func main() {
	var o opts
	parser := flags.NewParser(&o, flags.Default)

	if _, err := parser.Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	// the first signal also reaches the engine, which still reports
	// session_finish; a second one kills the process
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	go func() {
		<-ctx.Done()
		cancel()
	}()

	code, err := run(ctx, o, os.Stdin, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		code = 1
	}
	cancel()
	os.Exit(code)
}

// run reports one event stream read from stdin (or --file) to stdout and
// returns the process exit code.
func run(ctx context.Context, o opts, stdin io.Reader, stdout io.Writer) (int, error) {
	if err := validateFlags(o); err != nil {
		return 1, err
	}

	var closers []io.Closer
	defer func() {
		for _, c := range closers {
			_ = c.Close()
		}
	}()

	log, logCloser, err := setupLogger(o)
	if err != nil {
		return 1, err
	}
	if logCloser != nil {
		closers = append(closers, logCloser)
	}

	input, err := openInput(o, stdin, &closers)
	if err != nil {
		return 1, err
	}

	var engineOpts []engine.Option
	if o.Outfile != "" {
		f, err := os.Create(o.Outfile)
		if err != nil {
			return 1, fmt.Errorf("create output file: %w", err)
		}
		closers = append(closers, f)
		engineOpts = append(engineOpts, engine.WithRawOutput(f))
	}
	if o.JSONFile != "" {
		f, err := os.Create(o.JSONFile)
		if err != nil {
			return 1, fmt.Errorf("create JSON file: %w", err)
		}
		closers = append(closers, f)
		engineOpts = append(engineOpts, engine.WithJSONOutput(f))
	}

	caps := terminal.Probe(stdout)
	if o.NoTTY {
		caps = terminal.Plain()
	}
	log.Logf("DEBUG output capabilities: %+v", caps)

	rep := reporter.New(stdout,
		reporter.WithCapabilities(caps),
		reporter.WithLogger(log),
		reporter.WithSnippetRadius(o.Context),
	)

	events := engine.NewEngine(engineOpts...).Stream(input)
	return consume(ctx, rep, events, log), nil
}

// consume feeds engine events to the reporter until the stream completes.
// Once ctx is canceled it returns as soon as the session has finished, and
// otherwise keeps reading so a late session_finish is still reported.
func consume(ctx context.Context, rep *reporter.Reporter, events <-chan engine.Event, log lgr.L) int {
	if log == nil {
		log = lgr.NoOp
	}

	done := ctx.Done()
	for {
		if done == nil && rep.Finished() {
			return rep.ExitStatus()
		}

		select {
		case <-done:
			if rep.Finished() {
				return rep.ExitStatus()
			}
			log.Logf("INFO interrupted, waiting for session_finish")
			done = nil
		case evt, ok := <-events:
			if !ok {
				rep.Interrupt()
				return rep.ExitStatus()
			}
			switch evt.Type {
			case engine.EventLifecycle:
				rep.Dispatch(evt.Report)
			case engine.EventRawLine:
				rep.RawLine(evt.RawLine)
			case engine.EventError:
				log.Logf("WARN %v", evt.Error)
			case engine.EventComplete:
				if !rep.Finished() {
					rep.Interrupt()
				}
				return rep.ExitStatus()
			}
		}
	}
}

// validateFlags checks for conflicting CLI flags.
func validateFlags(o opts) error {
	if o.Replay && o.File == "" {
		return errors.New("--replay requires --file")
	}
	if o.Rate < 0 {
		return errors.New("--rate must be >= 0")
	}
	if o.Context < 0 {
		return errors.New("--context must be >= 0")
	}
	return nil
}

// setupLogger returns the debug logger. Without --log-file nothing is logged:
// stdout belongs to the report.
func setupLogger(o opts) (lgr.L, io.Closer, error) {
	if o.LogFile == "" {
		return lgr.NoOp, nil, nil
	}
	f, err := os.OpenFile(o.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}

	options := []lgr.Option{lgr.Out(f), lgr.Err(f), lgr.Msec, lgr.LevelBraces}
	if o.Debug {
		options = append(options, lgr.Debug)
	}
	return lgr.New(options...), f, nil
}

// openInput returns the event source: stdin, a file, or a file replayed with
// its recorded timing.
func openInput(o opts, stdin io.Reader, closers *[]io.Closer) (io.Reader, error) {
	if o.File == "" {
		return stdin, nil
	}
	f, err := os.Open(o.File)
	if err != nil {
		return nil, fmt.Errorf("open input file: %w", err)
	}
	*closers = append(*closers, f)

	if !o.Replay {
		return f, nil
	}
	replay, err := engine.NewReplayReader(f, o.Rate)
	if err != nil {
		return nil, fmt.Errorf("create replay reader: %w", err)
	}
	return replay, nil
}
