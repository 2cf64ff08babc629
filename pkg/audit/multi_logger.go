package audit

import "context"

// MultiLogger fans one entry out to several sinks. Failures in one sink do
// not stop the others; the first error is reported.
type MultiLogger struct {
	loggers []Logger
}

// NewMultiLogger creates a logger that records to every given sink.
func NewMultiLogger(loggers ...Logger) *MultiLogger {
	return &MultiLogger{loggers: loggers}
}

// Record writes the entry to all sinks.
func (m *MultiLogger) Record(ctx context.Context, entry *Entry) error {
	var firstErr error
	for _, logger := range m.loggers {
		if err := logger.Record(ctx, entry); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Close closes all sinks.
func (m *MultiLogger) Close() error {
	var firstErr error
	for _, logger := range m.loggers {
		if err := logger.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
