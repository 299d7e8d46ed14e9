package sdk

import (
	"maps"
	"sync"
	"time"
)

// Log levels accepted by Logger.
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// LogEntry is a single record written by a function.
type LogEntry struct {
	// Level is the log level (debug, info, warn, error).
	Level string `json:"level"`
	// Message is the log message.
	Message string `json:"message"`
	// Data contains structured log data.
	Data map[string]any `json:"data"`
	// Timestamp is when the log was recorded, in UTC.
	Timestamp time.Time `json:"timestamp"`
}

// LogBuffer is the append-only log of one invocation.
type LogBuffer struct {
	mu      sync.Mutex
	entries []LogEntry
}

// NewLogBuffer returns an empty buffer.
func NewLogBuffer() *LogBuffer {
	return &LogBuffer{entries: []LogEntry{}}
}

func (b *LogBuffer) append(e LogEntry) {
	b.mu.Lock()
	b.entries = append(b.entries, e)
	b.mu.Unlock()
}

// Entries returns a copy of the buffered entries in append order.
func (b *LogBuffer) Entries() []LogEntry {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]LogEntry, len(b.entries))
	copy(out, b.entries)
	return out
}

// Len returns the number of buffered entries.
func (b *LogBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}

// Logger writes structured entries into a LogBuffer.
type Logger struct {
	buf *LogBuffer
	now func() time.Time
}

// NewLogger returns a Logger bound to buf.
func NewLogger(buf *LogBuffer) *Logger {
	return &Logger{buf: buf, now: time.Now}
}

func (l *Logger) Debug(message string, data ...map[string]any) { l.log(LevelDebug, message, data) }
func (l *Logger) Info(message string, data ...map[string]any)  { l.log(LevelInfo, message, data) }
func (l *Logger) Warn(message string, data ...map[string]any)  { l.log(LevelWarn, message, data) }
func (l *Logger) Error(message string, data ...map[string]any) { l.log(LevelError, message, data) }

func (l *Logger) log(level, message string, data []map[string]any) {
	merged := make(map[string]any)
	for _, d := range data {
		maps.Copy(merged, d)
	}
	l.buf.append(LogEntry{
		Level:     level,
		Message:   message,
		Data:      merged,
		Timestamp: l.now().UTC(),
	})
}
