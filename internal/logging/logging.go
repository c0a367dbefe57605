package logging

import (
	"crypto/rand"
	"encoding/hex"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	charmlog "github.com/charmbracelet/log"
)

type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
)

type Field struct {
	Key   string
	Value any
}

type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	With(fields ...Field) Logger
	Enabled(level Level) bool
}

type logfmtLogger struct {
	base  *charmlog.Logger
	level Level
}

// New returns a logger writing logfmt lines to out.
func New(out io.Writer, level Level) Logger {
	if out == nil {
		out = os.Stdout
	}
	base := charmlog.NewWithOptions(out, charmlog.Options{
		Level:           charmLevel(level),
		Formatter:       charmlog.LogfmtFormatter,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339Nano,
		TimeFunction: func(t time.Time) time.Time {
			return t.UTC()
		},
	})
	return &logfmtLogger{base: base, level: level}
}

func Nop() Logger {
	return New(io.Discard, Error)
}

func (l *logfmtLogger) Enabled(level Level) bool {
	if l == nil {
		return false
	}
	return level >= l.level
}

func (l *logfmtLogger) With(fields ...Field) Logger {
	if l == nil {
		return Nop()
	}
	return &logfmtLogger{base: l.base.With(keyvals(fields)...), level: l.level}
}

func (l *logfmtLogger) Debug(msg string, fields ...Field) {
	if l == nil {
		return
	}
	l.base.Debug(msg, keyvals(fields)...)
}

func (l *logfmtLogger) Info(msg string, fields ...Field) {
	if l == nil {
		return
	}
	l.base.Info(msg, keyvals(fields)...)
}

func (l *logfmtLogger) Warn(msg string, fields ...Field) {
	if l == nil {
		return
	}
	l.base.Warn(msg, keyvals(fields)...)
}

func (l *logfmtLogger) Error(msg string, fields ...Field) {
	if l == nil {
		return
	}
	l.base.Error(msg, keyvals(fields)...)
}

func keyvals(fields []Field) []any {
	out := make([]any, 0, len(fields)*2)
	for _, field := range fields {
		out = append(out, field.Key, formatValue(field.Value))
	}
	return out
}

func formatValue(value any) any {
	switch v := value.(type) {
	case nil:
		return "null"
	case error:
		return v.Error()
	case time.Duration:
		return v.String()
	case []byte:
		return string(v)
	default:
		return v
	}
}

func charmLevel(level Level) charmlog.Level {
	switch level {
	case Debug:
		return charmlog.DebugLevel
	case Warn:
		return charmlog.WarnLevel
	case Error:
		return charmlog.ErrorLevel
	default:
		return charmlog.InfoLevel
	}
}

func ParseLevel(raw string) Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return Debug
	case "warn", "warning":
		return Warn
	case "error":
		return Error
	default:
		return Info
	}
}

func NewRequestID() string {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return strconv.FormatInt(time.Now().UnixNano(), 36)
	}
	return hex.EncodeToString(buf[:])
}

func F(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// Err is shorthand for an "error" field.
func Err(err error) Field {
	return Field{Key: "error", Value: err}
}
