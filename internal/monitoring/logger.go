// Package monitoring provides the three log streams used across the viewer.
//
//   - Ops: lifecycle events, load failures, storage errors.
//   - Diag: per-case pairing and classification decisions.
//   - Trace: per-request navigation and rendering events.
//
// Ops and Diag go to stderr by default; Trace is off.
package monitoring

import (
	"io"
	"log"
	"os"
	"sync"
)

// Prefix is prepended to every line.
const Prefix = "[jaw] "

// LogWriters holds the io.Writers for each logging stream.
type LogWriters struct {
	Ops   io.Writer
	Diag  io.Writer
	Trace io.Writer
}

// DefaultLogWriters sends Ops and Diag to stderr and mutes Trace.
func DefaultLogWriters() LogWriters {
	return LogWriters{Ops: os.Stderr, Diag: os.Stderr}
}

var (
	mu          sync.RWMutex
	opsLogger   *log.Logger
	diagLogger  *log.Logger
	traceLogger *log.Logger
)

func init() {
	SetLogWriters(DefaultLogWriters())
}

// SetLogWriters configures all three logging streams at once.
// Pass nil for any writer to disable that stream.
func SetLogWriters(w LogWriters) {
	mu.Lock()
	defer mu.Unlock()
	opsLogger = newLogger(w.Ops)
	diagLogger = newLogger(w.Diag)
	traceLogger = newLogger(w.Trace)
}

// Mute disables every stream.
func Mute() { SetLogWriters(LogWriters{}) }

func newLogger(w io.Writer) *log.Logger {
	if w == nil {
		return nil
	}
	return log.New(w, Prefix, log.LstdFlags|log.Lmicroseconds)
}

func logf(l **log.Logger, format string, args ...interface{}) {
	mu.RLock()
	lg := *l
	mu.RUnlock()
	if lg != nil {
		lg.Printf(format, args...)
	}
}

// Opsf logs to the ops stream.
func Opsf(format string, args ...interface{}) { logf(&opsLogger, format, args...) }

// Diagf logs to the diag stream.
func Diagf(format string, args ...interface{}) { logf(&diagLogger, format, args...) }

// Tracef logs to the trace stream.
func Tracef(format string, args ...interface{}) { logf(&traceLogger, format, args...) }
