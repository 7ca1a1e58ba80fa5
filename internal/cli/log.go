// Package cli implements the slidegrid command-line interface.
//
// This package provides commands for laying out product payloads onto slides,
// rendering the resulting sequences, previewing them in the terminal, running
// the HTTP server, and managing the local cache and generation history. The
// CLI is built using cobra and supports verbose logging via the
// charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - generate: Lay out a payload and render it in one step
//   - layout: Compute the slide sequence only (slides.json)
//   - render: Render an existing slide sequence
//   - preview: Browse slides interactively
//   - serve: Run the HTTP API
//   - demo: Write a sample payload
//   - history: Inspect past generations
//   - cache: Manage the local cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context to allow structured progress tracking.
//
// # Example
//
//	import "github.com/matzehuels/slidegrid/internal/cli"
//
//	func main() {
//	    c := cli.New(os.Stderr, cli.LogInfo)
//	    if err := c.RootCommand().Execute(); err != nil {
//	        os.Exit(1)
//	    }
//	}
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a logger that writes to w at level, with short
// timestamps like "14:32:01.45".
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress measures a multi-step command. Steps log at debug level with the
// time since the previous step; done logs at info level with the total.
type progress struct {
	logger *log.Logger
	start  time.Time
	last   time.Time
}

func newProgress(l *log.Logger) *progress {
	now := time.Now()
	return &progress{logger: l, start: now, last: now}
}

// step logs msg and keyvals with the time since the previous step.
func (p *progress) step(msg string, keyvals ...any) {
	now := time.Now()
	keyvals = append(keyvals, "took", now.Sub(p.last).Round(time.Millisecond))
	p.last = now
	p.logger.Debug(msg, keyvals...)
}

// done logs msg with the total elapsed time, e.g. "Placed 42 products (1.234s)".
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

type loggerKey struct{}

// withLogger attaches l to ctx.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// loggerFromContext returns the logger attached by withLogger, or
// log.Default().
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*log.Logger); ok && l != nil {
		return l
	}
	return log.Default()
}
