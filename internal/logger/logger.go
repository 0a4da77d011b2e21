package logger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	apperrors "github.com/renderdragon/backend/internal/errors"
)

// Level represents the log level
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

// ParseLevel maps a level name to a Level. Unknown names fall back to info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Entry represents a structured log line
type Entry struct {
	Timestamp string                 `json:"timestamp"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	RequestID string                 `json:"request_id,omitempty"`
	TraceID   string                 `json:"trace_id,omitempty"`
	Component string                 `json:"component,omitempty"`
	Error     *ErrorDetails          `json:"error,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
	Caller    string                 `json:"caller,omitempty"`
}

// ErrorDetails contains structured error information
type ErrorDetails struct {
	Code       string `json:"code,omitempty"`
	Message    string `json:"message"`
	Category   string `json:"category,omitempty"`
	StackTrace string `json:"stack_trace,omitempty"`
}

// Config configures a Logger. Zero values fall back to stdout, info level
// and the default redactor.
type Config struct {
	Output    io.Writer
	Level     Level
	Component string
	Redactor  *Redactor
}

// Logger writes JSON lines
type Logger struct {
	mu        *sync.Mutex
	output    io.Writer
	level     Level
	component string
	redactor  *Redactor
}

var defaultLogger = New(&Config{Output: os.Stdout, Level: LevelInfo})

// New creates a new logger
func New(cfg *Config) *Logger {
	if cfg == nil {
		cfg = &Config{}
	}
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	redactor := cfg.Redactor
	if redactor == nil {
		redactor = DefaultRedactor()
	}
	return &Logger{
		mu:        &sync.Mutex{},
		output:    out,
		level:     cfg.Level,
		component: cfg.Component,
		redactor:  redactor,
	}
}

// SetDefault sets the default logger
func SetDefault(l *Logger) {
	defaultLogger = l
}

// Default returns the default logger
func Default() *Logger {
	return defaultLogger
}

// WithComponent returns a logger sharing this logger's output with a different component name
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		mu:        l.mu,
		output:    l.output,
		level:     l.level,
		component: component,
		redactor:  l.redactor,
	}
}

// Enabled reports whether messages at level would be written
func (l *Logger) Enabled(level Level) bool {
	return level >= l.level
}

func (l *Logger) log(ctx context.Context, level Level, msg string, fields map[string]interface{}, err error) {
	if level < l.level {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	entry := Entry{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Level:     level.String(),
		Message:   l.redactor.Redact(msg),
		RequestID: apperrors.GetRequestID(ctx),
		TraceID:   GetTraceID(ctx),
		Component: l.component,
		Fields:    l.redactor.RedactFields(fields),
	}

	if level >= LevelError {
		_, file, line, ok := runtime.Caller(2)
		if ok {
			parts := strings.Split(file, "/")
			if len(parts) > 2 {
				file = strings.Join(parts[len(parts)-2:], "/")
			}
			entry.Caller = fmt.Sprintf("%s:%d", file, line)
		}
	}

	if err != nil {
		entry.Error = &ErrorDetails{
			Message: l.redactor.Redact(err.Error()),
		}

		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			entry.Error.Code = appErr.Code
			entry.Error.Category = string(appErr.Category)
		}

		if level >= LevelError {
			entry.Error.StackTrace = getStackTrace()
		}
	}

	data, mErr := json.Marshal(entry)
	if mErr != nil {
		entry.Fields = map[string]interface{}{"marshal_error": mErr.Error()}
		data, _ = json.Marshal(entry)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.output.Write(append(data, '\n'))
}

// Debug logs a debug message
func (l *Logger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {
	l.log(ctx, LevelDebug, msg, firstFields(fields), nil)
}

// Info logs an info message
func (l *Logger) Info(ctx context.Context, msg string, fields ...map[string]interface{}) {
	l.log(ctx, LevelInfo, msg, firstFields(fields), nil)
}

// Warn logs a warning message
func (l *Logger) Warn(ctx context.Context, msg string, fields ...map[string]interface{}) {
	l.log(ctx, LevelWarn, msg, firstFields(fields), nil)
}

// WarnErr logs a warning with an attached error
func (l *Logger) WarnErr(ctx context.Context, msg string, err error, fields ...map[string]interface{}) {
	l.log(ctx, LevelWarn, msg, firstFields(fields), err)
}

// Error logs an error message
func (l *Logger) Error(ctx context.Context, msg string, err error, fields ...map[string]interface{}) {
	l.log(ctx, LevelError, msg, firstFields(fields), err)
}

func firstFields(fields []map[string]interface{}) map[string]interface{} {
	if len(fields) > 0 {
		return fields[0]
	}
	return nil
}

// Package-level convenience functions

func Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {
	defaultLogger.Debug(ctx, msg, fields...)
}

func Info(ctx context.Context, msg string, fields ...map[string]interface{}) {
	defaultLogger.Info(ctx, msg, fields...)
}

func Warn(ctx context.Context, msg string, fields ...map[string]interface{}) {
	defaultLogger.Warn(ctx, msg, fields...)
}

func Error(ctx context.Context, msg string, err error, fields ...map[string]interface{}) {
	defaultLogger.Error(ctx, msg, err, fields...)
}

func getStackTrace() string {
	buf := make([]byte, 4096)
	n := runtime.Stack(buf, false)
	return string(buf[:n])
}
