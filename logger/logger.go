// Package logger defines the logging contract shared by the go-putbytes packages.
//
// Every component in this module accepts a Logger through its options and falls back
// to the package-level default returned by GetLogger. Messages are structured: each
// call takes a message followed by alternating keys and values.
//
// Log Levels:
//
//   - DebugLevel: per-chunk and per-frame tracing, disabled by default.
//   - InfoLevel:  transfer milestones (prepared, committed, installed).
//   - WarnLevel:  recoverable oddities such as dropped frames.
//   - ErrorLevel: failed transfers and broken links.
//   - FatalLevel: logs and then exits the process; only used by commands.
package logger

// Level is the logging severity level.
type Level = int8

const (
	// DebugLevel logs are voluminous and usually disabled.
	DebugLevel Level = iota - 1
	// InfoLevel is the default logging priority.
	InfoLevel
	// WarnLevel logs are more important than Info, but don't need individual
	// human review.
	WarnLevel
	// ErrorLevel logs are high-priority.
	ErrorLevel
	// FatalLevel logs a message, then calls os.Exit(1).
	FatalLevel
)

// Logger is the structured logger used throughout go-putbytes.
type Logger interface {
	// Debug logs a message at DebugLevel.
	Debug(msg string, keysAndValues ...any)
	// Info logs a message at InfoLevel.
	Info(msg string, keysAndValues ...any)
	// Warn logs a message at WarnLevel.
	Warn(msg string, keysAndValues ...any)
	// Error logs a message at ErrorLevel.
	Error(msg string, keysAndValues ...any)
	// Fatal logs a message at FatalLevel and then calls os.Exit(1).
	Fatal(msg string, keysAndValues ...any)
	// With creates a child logger carrying the given key-values on every record.
	// The parent is not affected.
	With(keyValues ...any) Logger
	// Level returns the minimum enabled level.
	Level() Level
	// SetLevel sets the minimum enabled level. Children created by With share it.
	SetLevel(level Level)
}

// ParseLevel maps a level name ("debug", "info", "warn", "error", "fatal") to a Level.
// It returns false for unknown names.
func ParseLevel(name string) (Level, bool) {
	switch name {
	case "debug":
		return DebugLevel, true
	case "info", "":
		return InfoLevel, true
	case "warn", "warning":
		return WarnLevel, true
	case "error":
		return ErrorLevel, true
	case "fatal":
		return FatalLevel, true
	default:
		return InfoLevel, false
	}
}
