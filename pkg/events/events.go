// Package events is the single channel through which import and export
// operations report outcomes: log lines, progress notices, results and errors.
package events

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Kind discriminates events.
type Kind string

const (
	KindLog      Kind = "log"
	KindProgress Kind = "progress"
	KindResult   Kind = "result"
	KindError    Kind = "error"
)

// Level is the severity of a log event.
type Level string

const (
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// Event is one message on the channel.
type Event struct {
	Kind      Kind      `json:"kind"`
	Level     Level     `json:"level,omitempty"`
	Message   string    `json:"message,omitempty"`
	Operation string    `json:"operation,omitempty"`
	Payload   any       `json:"payload,omitempty"`
	Time      time.Time `json:"ts"`
}

// Sink receives events. Implementations must not block for long.
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

func (f SinkFunc) Emit(e Event) { f(e) }

// Discard drops every event.
var Discard Sink = SinkFunc(func(Event) {})

// Multi fans an event out to every non-nil sink in order.
func Multi(sinks ...Sink) Sink {
	var live []Sink
	for _, s := range sinks {
		if s != nil {
			live = append(live, s)
		}
	}
	return SinkFunc(func(e Event) {
		for _, s := range live {
			s.Emit(e)
		}
	})
}

// Now is a replaceable clock for testing.
var Now = func() time.Time { return time.Now() }

// Recorder keeps every event in memory. It is safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Emit(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Logs returns the log events at level.
func (r *Recorder) Logs(level Level) []Event {
	var out []Event
	for _, e := range r.Events() {
		if e.Kind == KindLog && e.Level == level {
			out = append(out, e)
		}
	}
	return out
}

// OfKind returns the events of kind k.
func (r *Recorder) OfKind(k Kind) []Event {
	var out []Event
	for _, e := range r.Events() {
		if e.Kind == k {
			out = append(out, e)
		}
	}
	return out
}

// Logger emits events for one operation and mirrors them to slog.
type Logger struct {
	sink Sink
	log  *slog.Logger
	op   string
}

// NewLogger returns a Logger writing to sink. A nil logger uses slog.Default();
// a nil sink discards events.
func NewLogger(sink Sink, logger *slog.Logger) *Logger {
	if sink == nil {
		sink = Discard
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Logger{sink: sink, log: logger}
}

// WithOperation returns a copy that tags every event with op.
func (l *Logger) WithOperation(op string) *Logger {
	out := *l
	out.op = op
	out.log = l.log.With("op", op)
	return &out
}

// Slog returns the underlying structured logger.
func (l *Logger) Slog() *slog.Logger { return l.log }

func (l *Logger) emit(e Event) {
	e.Operation = l.op
	e.Time = Now()
	l.sink.Emit(e)
}

func (l *Logger) logf(level Level, slogLevel slog.Level, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	l.log.Log(context.Background(), slogLevel, msg)
	l.emit(Event{Kind: KindLog, Level: level, Message: msg})
}

func (l *Logger) Infof(format string, args ...any) {
	l.logf(LevelInfo, slog.LevelInfo, format, args...)
}

func (l *Logger) Warnf(format string, args ...any) {
	l.logf(LevelWarn, slog.LevelWarn, format, args...)
}

func (l *Logger) Errorf(format string, args ...any) {
	l.logf(LevelError, slog.LevelError, format, args...)
}

// Progress emits an advisory progress notice.
func (l *Logger) Progress(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	l.log.Debug(msg, "kind", KindProgress)
	l.emit(Event{Kind: KindProgress, Message: msg})
}

// Result reports a successful operation.
func (l *Logger) Result(payload any) {
	l.log.Info("operation complete")
	l.emit(Event{Kind: KindResult, Payload: payload})
}

// Fail reports a failed operation.
func (l *Logger) Fail(err error) {
	l.log.Error("operation failed", "error", err)
	l.emit(Event{Kind: KindError, Message: err.Error()})
}
