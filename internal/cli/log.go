// Package cli implements the uisync command-line interface.
//
// This package provides commands for pulling UI definitions from the remote
// document store into a local source tree, pushing local changes back,
// rendering the definition hierarchy, running a local dev emulator of the
// platform, and managing the response cache. The CLI is built using cobra
// and supports verbose logging via the charmbracelet/log library.
//
// # Commands
//
//   - pull:  Download records' UI definitions into the source directory
//   - push:  Rebuild and upload records' UI definitions
//   - tree:  Render a record's definition hierarchy as DOT or SVG
//   - serve: Run a local platform emulator for offline development
//   - cache: Manage the response cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context so the sync core can report per-record
// progress without knowing about the terminal.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a logger with timestamp formatting, writing to w and
// filtering at the given level.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with
// the elapsed duration.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time since the tracker was created,
// rounded to the nearest millisecond.
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

// ctxKey is the type for context keys used in this package.
type ctxKey int

const loggerKey ctxKey = 0

// withLogger returns a new context with the given logger attached.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext retrieves the logger from ctx, falling back to
// log.Default() so commands always have a valid logger.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
