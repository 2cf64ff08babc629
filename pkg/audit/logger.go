package audit

import (
	"context"
	"time"
)

// Logger is the append-only audit sink. Implementations may fail; callers
// that guard user actions must swallow those failures (see authz.Guard).
type Logger interface {
	// Record appends one entry.
	Record(ctx context.Context, entry *Entry) error

	// Close flushes and releases the underlying sink.
	Close() error
}

// Searcher is implemented by sinks that can be queried back, used by the
// admin console's log viewer.
type Searcher interface {
	Search(ctx context.Context, filter SearchFilter) ([]*Entry, error)
}

// contextKey is the type for context keys
type contextKey string

const loggerKey contextKey = "audit_logger"

// WithLogger attaches an audit logger to the context.
func WithLogger(ctx context.Context, logger Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext retrieves the audit logger from context, returning a no-op
// logger when none is attached.
func FromContext(ctx context.Context) Logger {
	if logger, ok := ctx.Value(loggerKey).(Logger); ok {
		return logger
	}
	return NopLogger{}
}

// NopLogger discards every entry.
type NopLogger struct{}

func (NopLogger) Record(ctx context.Context, entry *Entry) error { return nil }
func (NopLogger) Close() error                                   { return nil }

// NewEntry builds an entry stamped with the current UTC time.
func NewEntry(action Action, outcome Outcome) *Entry {
	return &Entry{
		Timestamp: time.Now().UTC(),
		Action:    action,
		Outcome:   outcome,
	}
}
