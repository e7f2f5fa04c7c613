// Package testutil provides structured logging helpers for engine and
// language server tests.
package testutil

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

// LogRecord is one captured log call.
type LogRecord struct {
	Level   slog.Level
	Message string
	Attrs   map[string]any
}

// LogRecorder captures everything logged through its Logger and echoes it
// to t.Log, so logs only appear on failure or with -v.
type LogRecorder struct {
	t testing.TB

	mu      sync.Mutex
	records []LogRecord
}

// NewLogRecorder returns an empty recorder bound to t.
func NewLogRecorder(t testing.TB) *LogRecorder {
	t.Helper()
	return &LogRecorder{t: t}
}

// NewTestLogger returns a debug-level logger that writes to t.Log.
func NewTestLogger(t testing.TB) *slog.Logger {
	t.Helper()
	return NewLogRecorder(t).Logger()
}

// Logger returns a debug-level logger feeding the recorder.
func (r *LogRecorder) Logger() *slog.Logger {
	return slog.New(&recordHandler{rec: r})
}

// Records returns a copy of the captured records in logging order.
func (r *LogRecorder) Records() []LogRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]LogRecord(nil), r.records...)
}

// Find returns the first record with the given level and message.
func (r *LogRecorder) Find(level slog.Level, msg string) (LogRecord, bool) {
	for _, rec := range r.Records() {
		if rec.Level == level && rec.Message == msg {
			return rec, true
		}
	}
	return LogRecord{}, false
}

// Count returns how many records have the given level.
func (r *LogRecorder) Count(level slog.Level) int {
	n := 0
	for _, rec := range r.Records() {
		if rec.Level == level {
			n++
		}
	}
	return n
}

func (r *LogRecorder) add(rec LogRecord) {
	r.mu.Lock()
	r.records = append(r.records, rec)
	r.mu.Unlock()

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", rec.Level, rec.Message)
	for k, v := range rec.Attrs {
		fmt.Fprintf(&b, " %s=%v", k, v)
	}
	r.t.Log(b.String())
}

// recordHandler is a slog.Handler writing into a LogRecorder. Groups
// prefix attribute keys with "group.".
type recordHandler struct {
	rec    *LogRecorder
	attrs  []slog.Attr
	prefix string
}

func (h *recordHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *recordHandler) Handle(_ context.Context, r slog.Record) error {
	attrs := make(map[string]any, len(h.attrs)+r.NumAttrs())
	for _, a := range h.attrs {
		attrs[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		attrs[h.prefix+a.Key] = a.Value.Any()
		return true
	})
	h.rec.add(LogRecord{Level: r.Level, Message: r.Message, Attrs: attrs})
	return nil
}

func (h *recordHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append([]slog.Attr(nil), h.attrs...)
	for _, a := range attrs {
		next.attrs = append(next.attrs, slog.Attr{Key: h.prefix + a.Key, Value: a.Value})
	}
	return &next
}

func (h *recordHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.prefix = h.prefix + name + "."
	return &next
}
