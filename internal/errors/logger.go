package errors

import (
	stderrors "errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"maps"
	"os"
	"slices"
	"strings"
)

// Logger is a JSON slog logger that knows how to unpack AppError values.
type Logger struct {
	logger *slog.Logger
}

// NewLogger writes to stderr so stdout stays free for command output.
func NewLogger(level slog.Level) *Logger {
	return NewLoggerWithWriter(os.Stderr, level)
}

func NewLoggerWithWriter(w io.Writer, level slog.Level) *Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return &Logger{logger: slog.New(handler)}
}

// New creates a stderr logger for a configured level name.
func New(level string) (*Logger, error) {
	slogLevel, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	return NewLogger(slogLevel), nil
}

// ParseLevel maps debug, info, warn (or warning) and error to slog levels.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level: %s", level)
	}
}

// With returns a logger that adds args to every record.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{logger: l.logger.With(args...)}
}

// StdLogger adapts the logger for APIs that take a *log.Logger, such as
// http.Server.ErrorLog. Lines are logged at error level.
func (l *Logger) StdLogger() *log.Logger {
	return slog.NewLogLogger(l.logger.Handler(), slog.LevelError)
}

// LogError logs err at error level. An AppError anywhere in the chain is
// flattened into error_type, error_code, error_message, cause and its
// context keys (sorted).
func (l *Logger) LogError(err error, message string, args ...any) {
	var appErr *AppError
	if !stderrors.As(err, &appErr) {
		l.logger.Error(message, append([]any{"error", err.Error()}, args...)...)
		return
	}

	attrs := []any{
		"error_type", appErr.Type,
		"error_code", appErr.Code,
		"error_message", appErr.Message,
	}
	if appErr.Cause != nil {
		attrs = append(attrs, "cause", appErr.Cause.Error())
	}
	for _, key := range slices.Sorted(maps.Keys(appErr.Context)) {
		attrs = append(attrs, key, appErr.Context[key])
	}
	if err != error(appErr) {
		attrs = append(attrs, "error", err.Error())
	}
	l.logger.Error(message, append(attrs, args...)...)
}

func (l *Logger) Info(message string, args ...any)  { l.logger.Info(message, args...) }
func (l *Logger) Debug(message string, args ...any) { l.logger.Debug(message, args...) }
func (l *Logger) Warn(message string, args ...any)  { l.logger.Warn(message, args...) }
func (l *Logger) Error(message string, args ...any) { l.logger.Error(message, args...) }
