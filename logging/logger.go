// Package logging builds the zap loggers used by the command-line tools
// and adapts them, or any logr.Logger, to the engine's diagnostics sink.
package logging

import (
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Format represents the logging format.
type Format string

const (
	// FormatConsole indicates human-readable console format.
	FormatConsole Format = "CONSOLE"
	// FormatJSON indicates structured JSON format.
	FormatJSON Format = "JSON"
)

// Environment variables read by NewFromEnv.
const (
	EnvLevel  = "LOGGING_LEVEL"
	EnvFormat = "LOGGING_FORMAT"
)

// ParseLevel converts a level name to a zap level. Unknown names mean info.
func ParseLevel(level string) zapcore.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return zapcore.DebugLevel
	case "WARN", "WARNING":
		return zapcore.WarnLevel
	case "ERROR":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// ParseFormat converts a format name, falling back to def.
func ParseFormat(format string, def Format) Format {
	switch f := Format(strings.ToUpper(format)); f {
	case FormatConsole, FormatJSON:
		return f
	default:
		return def
	}
}

// New creates a logger writing to stderr.
func New(level string, format Format) *zap.Logger {
	return NewTo(zapcore.Lock(os.Stderr), level, format)
}

// NewFromEnv creates a logger configured by LOGGING_LEVEL and
// LOGGING_FORMAT, defaulting to INFO and CONSOLE.
func NewFromEnv() *zap.Logger {
	return New(os.Getenv(EnvLevel), ParseFormat(os.Getenv(EnvFormat), FormatConsole))
}

// NewTo creates a logger writing to w.
func NewTo(w zapcore.WriteSyncer, level string, format Format) *zap.Logger {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeDuration: zapcore.StringDurationEncoder,
	}

	var encoder zapcore.Encoder
	if format == FormatJSON {
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	} else {
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		encoderConfig.EncodeTime = timeEncoder
		encoderConfig.ConsoleSeparator = " | "
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	core := zapcore.NewCore(encoder, w, zap.NewAtomicLevelAt(ParseLevel(level)))
	return zap.New(core)
}

// timeEncoder encodes the time as a human-readable timestamp.
func timeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.Format("2006-01-02 15:04:05 MST"))
}
