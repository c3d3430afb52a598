// Package interfaces defines core domain contracts.
//
//nolint:revive // Package name 'interfaces' is intentional for domain layer
package interfaces

import "sync"

// Logger defines the interface for structured logging
type Logger interface {
	// Debug logs debug-level messages, shown only when debug mode is on
	Debug(msg string, fields ...Field)

	// Info logs informational messages
	Info(msg string, fields ...Field)

	// Warn logs recoverable problems
	Warn(msg string, fields ...Field)

	// Error logs fatal problems
	Error(msg string, fields ...Field)
}

// Field represents a structured log field
type Field struct {
	Key   string
	Value any
}

// F creates a new Field (convenience function)
func F(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// KeyVals flattens fields into alternating key/value pairs
func KeyVals(fields []Field) []any {
	kv := make([]any, 0, len(fields)*2)
	for _, f := range fields {
		kv = append(kv, f.Key, f.Value)
	}
	return kv
}

// NoOpLogger is a logger that does nothing (useful for tests)
type NoOpLogger struct{}

// Debug does nothing (no-op implementation)
func (n *NoOpLogger) Debug(_ string, _ ...Field) {}

// Info does nothing (no-op implementation)
func (n *NoOpLogger) Info(_ string, _ ...Field) {}

// Warn does nothing (no-op implementation)
func (n *NoOpLogger) Warn(_ string, _ ...Field) {}

// Error does nothing (no-op implementation)
func (n *NoOpLogger) Error(_ string, _ ...Field) {}

// LogEntry is a single message captured by RecordingLogger
type LogEntry struct {
	Level   string
	Message string
	Fields  []Field
}

// RecordingLogger keeps every message in memory so tests can assert on them
type RecordingLogger struct {
	mu      sync.Mutex
	Entries []LogEntry
}

// Debug records a debug message
func (r *RecordingLogger) Debug(msg string, fields ...Field) { r.record("DEBUG", msg, fields) }

// Info records an informational message
func (r *RecordingLogger) Info(msg string, fields ...Field) { r.record("INFO", msg, fields) }

// Warn records a warning
func (r *RecordingLogger) Warn(msg string, fields ...Field) { r.record("WARN", msg, fields) }

// Error records an error
func (r *RecordingLogger) Error(msg string, fields ...Field) { r.record("ERROR", msg, fields) }

// Count returns how many messages were recorded at level
func (r *RecordingLogger) Count(level string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, e := range r.Entries {
		if e.Level == level {
			n++
		}
	}
	return n
}

func (r *RecordingLogger) record(level, msg string, fields []Field) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Entries = append(r.Entries, LogEntry{Level: level, Message: msg, Fields: fields})
}
