// Package telemetry provides the structured logging contract used across
// gcpolicy components, backed by zerolog.
package telemetry

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Logger is the logging contract components accept in their configs.
// Implementations must be safe for concurrent use.
type Logger interface {
	Trace(msg string, fields ...Field)
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	// WithModule returns a child logger that tags every line with the
	// component name.
	WithModule(name string) Logger
}

// Config controls the default logger built by New.
type Config struct {
	// Level is the minimum level to emit: trace, debug, info, warn or error.
	// Empty or unknown values fall back to info.
	Level string
	// Writer receives the log output. Defaults to os.Stderr.
	Writer io.Writer
	// Pretty switches from JSON lines to human-readable console output.
	Pretty bool
}

// New builds a zerolog-backed Logger.
func New(config Config) Logger {
	w := config.Writer
	if w == nil {
		w = os.Stderr
	}
	if config.Pretty {
		w = zerolog.ConsoleWriter{Out: w}
	}
	level := zerolog.InfoLevel
	if config.Level != "" {
		if parsed, err := zerolog.ParseLevel(strings.ToLower(config.Level)); err == nil {
			level = parsed
		}
	}
	log := zerolog.New(w).Level(level).With().Timestamp().Logger()
	return zerologLogger{log: log}
}

// NewNop returns a Logger that discards everything.
func NewNop() Logger {
	return zerologLogger{log: zerolog.Nop()}
}

type fieldKind uint8

const (
	fieldString fieldKind = iota
	fieldInt
	fieldFloat64
	fieldBool
	fieldError
)

// Field is a single structured key/value attached to a log line.
type Field struct {
	kind fieldKind
	key  string
	str  string
	num  int
	fl   float64
	b    bool
	err  error
}

// String builds a string field.
func String(key, value string) Field {
	return Field{kind: fieldString, key: key, str: value}
}

// Int builds an integer field.
func Int(key string, value int) Field {
	return Field{kind: fieldInt, key: key, num: value}
}

// Float64 builds a float field.
func Float64(key string, value float64) Field {
	return Field{kind: fieldFloat64, key: key, fl: value}
}

// Bool builds a boolean field.
func Bool(key string, value bool) Field {
	return Field{kind: fieldBool, key: key, b: value}
}

// Err builds an error field under the conventional "error" key.
func Err(err error) Field {
	return Field{kind: fieldError, key: "error", err: err}
}

type zerologLogger struct {
	log zerolog.Logger
}

func (l zerologLogger) Trace(msg string, fields ...Field) { emit(l.log.Trace(), msg, fields) }
func (l zerologLogger) Debug(msg string, fields ...Field) { emit(l.log.Debug(), msg, fields) }
func (l zerologLogger) Info(msg string, fields ...Field)  { emit(l.log.Info(), msg, fields) }
func (l zerologLogger) Warn(msg string, fields ...Field)  { emit(l.log.Warn(), msg, fields) }
func (l zerologLogger) Error(msg string, fields ...Field) { emit(l.log.Error(), msg, fields) }

func (l zerologLogger) WithModule(name string) Logger {
	return zerologLogger{log: l.log.With().Str("module", name).Logger()}
}

func emit(e *zerolog.Event, msg string, fields []Field) {
	for _, f := range fields {
		switch f.kind {
		case fieldString:
			e = e.Str(f.key, f.str)
		case fieldInt:
			e = e.Int(f.key, f.num)
		case fieldFloat64:
			e = e.Float64(f.key, f.fl)
		case fieldBool:
			e = e.Bool(f.key, f.b)
		case fieldError:
			e = e.Err(f.err)
		}
	}
	e.Msg(msg)
}
