package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Level represents the logging level.
type Level int

const (
	// LevelDebug is the most verbose level.
	LevelDebug Level = iota
	// LevelInfo is for informational messages.
	LevelInfo
	// LevelWarn is for warning messages.
	LevelWarn
	// LevelError is for error messages.
	LevelError
)

// String returns the string representation of the log level.
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

// ParseLevel parses a string into a Level. Unknown values map to LevelInfo.
func ParseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Format represents the log output format.
type Format int

const (
	// FormatText outputs logs in human-readable text format.
	FormatText Format = iota
	// FormatJSON outputs one JSON object per line.
	FormatJSON
)

// ParseFormat parses a string into a Format.
func ParseFormat(s string) Format {
	if strings.ToLower(s) == "json" {
		return FormatJSON
	}
	return FormatText
}

// Logger is the interface for structured logging.
type Logger interface {
	// Debug logs a debug message with optional key-value pairs.
	Debug(msg string, keysAndValues ...interface{})
	// Info logs an info message with optional key-value pairs.
	Info(msg string, keysAndValues ...interface{})
	// Warn logs a warning message with optional key-value pairs.
	Warn(msg string, keysAndValues ...interface{})
	// Error logs an error message with optional key-value pairs.
	Error(msg string, keysAndValues ...interface{})
	// Named returns a logger that tags every entry with a component name.
	Named(component string) Logger
	// WithFields returns a new logger with the given fields.
	WithFields(keysAndValues ...interface{}) Logger
}

type field struct {
	key   string
	value interface{}
}

// logger is the default implementation of Logger. Child loggers share the
// parent's output and lock.
type logger struct {
	level     Level
	format    Format
	output    io.Writer
	mu        *sync.Mutex
	component string
	fields    []field
}

// Config holds the logger configuration.
type Config struct {
	Level  string
	Format string
	Output string
}

// New creates a new Logger with the given configuration. Output is "stdout",
// "stderr" or a file path; a file that cannot be opened falls back to stderr.
func New(cfg Config) Logger {
	var output io.Writer
	switch cfg.Output {
	case "", "stdout":
		output = os.Stdout
	case "stderr":
		output = os.Stderr
	default:
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			output = os.Stderr
		} else {
			output = f
		}
	}
	return NewWriter(cfg, output)
}

// NewWriter creates a Logger writing to w. cfg.Output is ignored.
func NewWriter(cfg Config, w io.Writer) Logger {
	return &logger{
		level:  ParseLevel(cfg.Level),
		format: ParseFormat(cfg.Format),
		output: w,
		mu:     &sync.Mutex{},
	}
}

// NewDefault creates a new Logger with default settings.
func NewDefault() Logger {
	return NewWriter(Config{Level: "info", Format: "text"}, os.Stderr)
}

// NewNop creates a no-op logger that discards all output.
func NewNop() Logger {
	return nopLogger{}
}

// Debug logs a debug message.
func (l *logger) Debug(msg string, keysAndValues ...interface{}) {
	l.log(LevelDebug, msg, keysAndValues)
}

// Info logs an info message.
func (l *logger) Info(msg string, keysAndValues ...interface{}) {
	l.log(LevelInfo, msg, keysAndValues)
}

// Warn logs a warning message.
func (l *logger) Warn(msg string, keysAndValues ...interface{}) {
	l.log(LevelWarn, msg, keysAndValues)
}

// Error logs an error message.
func (l *logger) Error(msg string, keysAndValues ...interface{}) {
	l.log(LevelError, msg, keysAndValues)
}

// Named returns a child logger for a component. Nested names are joined
// with a dot.
func (l *logger) Named(component string) Logger {
	child := l.clone()
	if child.component == "" {
		child.component = component
	} else {
		child.component += "." + component
	}
	return child
}

// WithFields returns a new logger with the given fields.
func (l *logger) WithFields(keysAndValues ...interface{}) Logger {
	child := l.clone()
	child.fields = appendPairs(child.fields, keysAndValues)
	return child
}

func (l *logger) clone() *logger {
	fields := make([]field, len(l.fields))
	copy(fields, l.fields)
	return &logger{
		level:     l.level,
		format:    l.format,
		output:    l.output,
		mu:        l.mu,
		component: l.component,
		fields:    fields,
	}
}

func appendPairs(fields []field, keysAndValues []interface{}) []field {
	for i := 0; i < len(keysAndValues)-1; i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprint(keysAndValues[i])
		}
		fields = append(fields, field{key: key, value: keysAndValues[i+1]})
	}
	return fields
}

func (l *logger) log(level Level, msg string, keysAndValues []interface{}) {
	if level < l.level {
		return
	}

	ts := time.Now().UTC().Format(time.RFC3339)
	fields := appendPairs(append([]field(nil), l.fields...), keysAndValues)

	var line string
	if l.format == FormatJSON {
		line = l.formatJSON(ts, level, msg, fields)
	} else {
		line = l.formatText(ts, level, msg, fields)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.output, line)
}

func (l *logger) formatJSON(ts string, level Level, msg string, fields []field) string {
	entry := make(map[string]interface{}, len(fields)+4)
	for _, f := range fields {
		entry[f.key] = jsonValue(f.value)
	}
	entry["ts"] = ts
	entry["level"] = level.String()
	entry["msg"] = msg
	if l.component != "" {
		entry["component"] = l.component
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Sprintf(`{"ts":%q,"level":"error","msg":"failed to marshal log entry"}`, ts)
	}
	return string(data)
}

// formatText renders "ts [level] component: msg k=v ..." with fields in the
// order they were added.
func (l *logger) formatText(ts string, level Level, msg string, fields []field) string {
	var b strings.Builder
	b.WriteString(ts)
	b.WriteString(" [")
	b.WriteString(level.String())
	b.WriteString("] ")
	if l.component != "" {
		b.WriteString(l.component)
		b.WriteString(": ")
	}
	b.WriteString(msg)
	for _, f := range fields {
		fmt.Fprintf(&b, " %s=%v", f.key, f.value)
	}
	return b.String()
}

// jsonValue renders errors and Stringers as text so they survive marshaling.
func jsonValue(v interface{}) interface{} {
	switch x := v.(type) {
	case error:
		return x.Error()
	case fmt.Stringer:
		return x.String()
	default:
		return v
	}
}

type nopLogger struct{}

func (nopLogger) Debug(_ string, _ ...interface{})     {}
func (nopLogger) Info(_ string, _ ...interface{})      {}
func (nopLogger) Warn(_ string, _ ...interface{})      {}
func (nopLogger) Error(_ string, _ ...interface{})     {}
func (n nopLogger) Named(_ string) Logger              { return n }
func (n nopLogger) WithFields(_ ...interface{}) Logger { return n }
