package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// LogLevel represents the available log levels
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// Intention tags a log line with why it was emitted, so that terminal output
// can prefix it with a consistent icon.
type Intention string

const (
	IntentionConfig   Intention = "config"
	IntentionStatus   Intention = "status"
	IntentionWildcard Intention = "wildcard"
	IntentionLibrary  Intention = "library"
	IntentionExpand   Intention = "expand"
)

var intentionIcons = map[Intention]string{
	IntentionConfig:   "⚙️",
	IntentionStatus:   "📊",
	IntentionWildcard: "🃏",
	IntentionLibrary:  "📚",
	IntentionExpand:   "🎲",
}

// Logger provides a structured logger instance configured for the application
type Logger struct {
	*slog.Logger
	root *slog.Logger // without component, so WithComponent replaces rather than stacks
}

// ParseLevel maps a settings string onto a LogLevel, defaulting to info.
func ParseLevel(s string) LogLevel {
	switch LogLevel(strings.ToLower(strings.TrimSpace(s))) {
	case LogLevelDebug:
		return LogLevelDebug
	case LogLevelWarn:
		return LogLevelWarn
	case LogLevelError:
		return LogLevelError
	default:
		return LogLevelInfo
	}
}

func (l LogLevel) slogLevel() slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a new structured logger writing to stderr with the specified level
func NewLogger(level LogLevel) *Logger {
	return NewLoggerWithWriter(os.Stderr, level)
}

// NewLoggerWithWriter creates a logger that writes text records to w.
// Expansion output goes to stdout, so logs must never share that stream.
func NewLoggerWithWriter(w io.Writer, level LogLevel) *Logger {
	opts := &slog.HandlerOptions{
		Level: level.slogLevel(),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{
					Key:   "time",
					Value: slog.StringValue(a.Value.Time().Format("15:04:05")),
				}
			}
			// wrapped errors would otherwise print their stack trace
			if a.Value.Kind() == slog.KindAny {
				if err, ok := a.Value.Any().(error); ok {
					return slog.String(a.Key, err.Error())
				}
			}
			return a
		},
	}

	root := slog.New(slog.NewTextHandler(w, opts))
	return &Logger{Logger: root, root: root}
}

// NewDefaultLogger creates a logger with INFO level for general use
func NewDefaultLogger() *Logger {
	return NewLogger(LogLevelInfo)
}

// NewDiscardLogger returns a logger that drops everything. Used by tests and
// by library callers that do not want engine diagnostics.
func NewDiscardLogger() *Logger {
	return NewLoggerWithWriter(io.Discard, LogLevelError)
}

// WithComponent creates a logger with a component context for better tracing
func (l *Logger) WithComponent(component string) *Logger {
	root := l.root
	if root == nil {
		root = l.Logger
	}
	return &Logger{
		Logger: root.With("component", component),
		root:   root,
	}
}

// InfoWithIcon logs info message with emoji for user-friendly output
func (l *Logger) InfoWithIcon(icon string, msg string, args ...any) {
	l.Info(icon+" "+msg, args...)
}

// WarnWithIcon logs warning message with emoji for user-friendly output
func (l *Logger) WarnWithIcon(icon string, msg string, args ...any) {
	l.Warn(icon+" "+msg, args...)
}

// ErrorWithIcon logs error message with emoji for user-friendly output
func (l *Logger) ErrorWithIcon(icon string, msg string, args ...any) {
	l.Error(icon+" "+msg, args...)
}

// DebugWithIcon logs debug message with emoji for development
func (l *Logger) DebugWithIcon(icon string, msg string, args ...any) {
	l.Debug(icon+" "+msg, args...)
}

// InfoWithIntention logs an info message prefixed with the intention's icon
func (l *Logger) InfoWithIntention(intention Intention, msg string, args ...any) {
	l.InfoWithIcon(intention.icon(), msg, args...)
}

// DebugWithIntention logs a debug message prefixed with the intention's icon
func (l *Logger) DebugWithIntention(intention Intention, msg string, args ...any) {
	l.DebugWithIcon(intention.icon(), msg, args...)
}

// WarnWithIntention logs a warning prefixed with the intention's icon
func (l *Logger) WarnWithIntention(intention Intention, msg string, args ...any) {
	l.WarnWithIcon(intention.icon(), msg, args...)
}

func (i Intention) icon() string {
	if icon, ok := intentionIcons[i]; ok {
		return icon
	}
	return "•"
}

// Default logger instance - single instance for the entire application
var Default = NewDefaultLogger()

// SetGlobalLogLevel updates the global default logger with a new log level
// This affects all component loggers created after this call
func SetGlobalLogLevel(level LogLevel) {
	Default = NewLogger(level)
}

// NewComponentLogger creates a new logger for a specific component
func NewComponentLogger(component string) *Logger {
	return Default.WithComponent(component)
}
