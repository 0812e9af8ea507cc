package logging

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"time"
)

// Level represents the severity of a log entry.
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

var levelRank = map[Level]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
}

// ParseLevel maps a case-insensitive level name to a Level. Empty input
// yields fallback.
func ParseLevel(value string, fallback Level) (Level, error) {
	trimmed := strings.ToUpper(strings.TrimSpace(value))
	if trimmed == "" {
		return fallback, nil
	}
	if trimmed == "WARNING" {
		trimmed = string(LevelWarn)
	}
	level := Level(trimmed)
	if _, ok := levelRank[level]; !ok {
		return fallback, fmt.Errorf("unknown log level %q", value)
	}
	return level, nil
}

// Field represents a key-value pair in structured logging.
type Field struct {
	Key   string
	Value any
}

// F creates a Field from a key-value pair.
func F(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// Logger provides structured logging capabilities with context support.
type Logger interface {
	Debug(ctx context.Context, msg string, fields ...Field)
	Info(ctx context.Context, msg string, fields ...Field)
	Warn(ctx context.Context, msg string, fields ...Field)
	Error(ctx context.Context, msg string, err error, fields ...Field)
	WithFields(fields ...Field) Logger
}

// NoOpLogger is a logger that discards all log entries.
type NoOpLogger struct{}

func (n *NoOpLogger) Debug(_ context.Context, _ string, _ ...Field)          {}
func (n *NoOpLogger) Info(_ context.Context, _ string, _ ...Field)           {}
func (n *NoOpLogger) Warn(_ context.Context, _ string, _ ...Field)           {}
func (n *NoOpLogger) Error(_ context.Context, _ string, _ error, _ ...Field) {}
func (n *NoOpLogger) WithFields(_ ...Field) Logger                           { return n }

// StdLogger writes structured log entries to a writer.
type StdLogger struct {
	fields   []Field
	minLevel Level
	logger   *log.Logger
	now      func() time.Time
}

// NewStdLogger creates a new logger with the specified minimum log level and
// writer. If writer is nil, logs are discarded.
func NewStdLogger(minLevel Level, writer io.Writer) *StdLogger {
	if writer == nil {
		writer = io.Discard
	}
	return &StdLogger{
		minLevel: minLevel,
		logger:   log.New(writer, "", 0), // No prefix, we format our own
		now:      time.Now,
	}
}

func (s *StdLogger) log(level Level, msg string, err error, fields ...Field) {
	if levelRank[level] < levelRank[s.minLevel] {
		return
	}

	allFields := append(append([]Field(nil), s.fields...), fields...)

	parts := []string{
		fmt.Sprintf("[%s]", s.now().Format(time.RFC3339)),
		fmt.Sprintf("[%s]", level),
	}
	if err != nil {
		parts = append(parts, fmt.Sprintf("[error=%q]", err.Error()))
	}
	parts = append(parts, msg)

	if len(allFields) > 0 {
		fieldParts := make([]string, 0, len(allFields))
		for _, f := range allFields {
			fieldParts = append(fieldParts, fmt.Sprintf("%s=%v", f.Key, f.Value))
		}
		parts = append(parts, fmt.Sprintf("fields=[%s]", strings.Join(fieldParts, " ")))
	}

	s.logger.Println(strings.Join(parts, " "))
}

func (s *StdLogger) Debug(_ context.Context, msg string, fields ...Field) {
	s.log(LevelDebug, msg, nil, fields...)
}

func (s *StdLogger) Info(_ context.Context, msg string, fields ...Field) {
	s.log(LevelInfo, msg, nil, fields...)
}

func (s *StdLogger) Warn(_ context.Context, msg string, fields ...Field) {
	s.log(LevelWarn, msg, nil, fields...)
}

func (s *StdLogger) Error(_ context.Context, msg string, err error, fields ...Field) {
	s.log(LevelError, msg, err, fields...)
}

func (s *StdLogger) WithFields(fields ...Field) Logger {
	return &StdLogger{
		fields:   append(append([]Field(nil), s.fields...), fields...),
		minLevel: s.minLevel,
		logger:   s.logger,
		now:      s.now,
	}
}
