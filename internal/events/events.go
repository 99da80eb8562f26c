// Package events decouples reconciliation decisions from their presentation.
//
// The driver and post-processor never print; every classified decision is
// emitted as an Event to a Sink, and the CLI decides how to render it.
package events

import (
	"fmt"
	"log/slog"
	"sync"
)

// Severity orders events from informational to run-threatening
type Severity int

const (
	SeverityInfo Severity = iota
	SeveritySuccess
	SeverityWarning
	SeverityError
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeveritySuccess:
		return "success"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "info"
	}
}

// NoRow marks an event that is not tied to a worksheet row
const NoRow = -1

// Event is one classified decision
type Event struct {
	Severity Severity
	Row      int
	Message  string
	Err      error
}

// Sink receives events and progress as they happen
type Sink interface {
	Emit(Event)
	Progress(done, total int)
}

// Emitf builds and emits an event
func Emitf(s Sink, sev Severity, row int, format string, args ...any) {
	s.Emit(Event{Severity: sev, Row: row, Message: fmt.Sprintf(format, args...)})
}

// LogSink renders events through slog
type LogSink struct {
	Logger *slog.Logger
}

// NewLogSink returns a sink that logs through logger (slog.Default when nil)
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{Logger: logger}
}

func (l *LogSink) Emit(e Event) {
	attrs := []any{"tier", e.Severity.String()}
	if e.Row != NoRow {
		attrs = append(attrs, "row", e.Row)
	}
	if e.Err != nil {
		attrs = append(attrs, "error", e.Err)
	}

	switch e.Severity {
	case SeverityWarning:
		l.Logger.Warn(e.Message, attrs...)
	case SeverityError:
		l.Logger.Error(e.Message, attrs...)
	case SeverityCritical:
		l.Logger.Error(e.Message, append(attrs, "critical", true)...)
	default:
		l.Logger.Info(e.Message, attrs...)
	}
}

func (l *LogSink) Progress(done, total int) {
	l.Logger.Info("Progress", "progress", fmt.Sprintf("%d/%d", done, total))
}

// Recorder keeps every event in memory, for summaries and tests
type Recorder struct {
	mu     sync.Mutex
	events []Event
	done   int
	total  int
}

func (r *Recorder) Emit(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *Recorder) Progress(done, total int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.done, r.total = done, total
}

// Events returns a copy of the recorded events
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Count returns how many events carried sev
func (r *Recorder) Count(sev Severity) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Severity == sev {
			n++
		}
	}
	return n
}

// LastProgress returns the most recent progress report
func (r *Recorder) LastProgress() (done, total int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.done, r.total
}

type multi []Sink

// Multi fans events out to every sink
func Multi(sinks ...Sink) Sink {
	return multi(sinks)
}

func (m multi) Emit(e Event) {
	for _, s := range m {
		s.Emit(e)
	}
}

func (m multi) Progress(done, total int) {
	for _, s := range m {
		s.Progress(done, total)
	}
}

// Discard drops everything
var Discard Sink = discard{}

type discard struct{}

func (discard) Emit(Event)        {}
func (discard) Progress(int, int) {}
