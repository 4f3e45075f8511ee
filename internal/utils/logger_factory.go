package utils

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	logLevelDebugStringConstant          = "debug"
	logLevelInfoStringConstant           = "info"
	logLevelWarnStringConstant           = "warn"
	logLevelErrorStringConstant          = "error"
	logFormatStructuredStringConstant    = "structured"
	logFormatConsoleStringConstant       = "console"
	unsupportedLogLevelTemplateConstant  = "unsupported log level: %s"
	unsupportedLogFormatTemplateConstant = "unsupported log format: %s"
	structuredTimeKeyConstant            = "ts"
	structuredMessageKeyConstant         = "msg"
	structuredLevelKeyConstant           = "level"
	structuredLoggerNameKeyConstant      = "logger"
	structuredStacktraceKeyConstant      = "stacktrace"
	consoleMessageKeyConstant            = "message"
	consoleLevelKeyConstant              = "level"
)

// LogLevel enumerates supported logging granularities.
type LogLevel string

// Exported log level constants for reuse across packages.
const (
	LogLevelDebug LogLevel = LogLevel(logLevelDebugStringConstant)
	LogLevelInfo  LogLevel = LogLevel(logLevelInfoStringConstant)
	LogLevelWarn  LogLevel = LogLevel(logLevelWarnStringConstant)
	LogLevelError LogLevel = LogLevel(logLevelErrorStringConstant)
)

// LogFormat enumerates supported logger output encodings.
type LogFormat string

// Exported log format constants for reuse across packages.
const (
	LogFormatStructured LogFormat = LogFormat(logFormatStructuredStringConstant)
	LogFormatConsole    LogFormat = LogFormat(logFormatConsoleStringConstant)
)

var logLevelMapping = map[LogLevel]zapcore.Level{
	LogLevelDebug: zapcore.DebugLevel,
	LogLevelInfo:  zapcore.InfoLevel,
	LogLevelWarn:  zapcore.WarnLevel,
	LogLevelError: zapcore.ErrorLevel,
}

// LoggerFactory builds zap.Logger instances that write diagnostics to a single destination, stderr by default.
// Diagnostics stay off stdout so command reports remain pipeable.
type LoggerFactory struct {
	destination zapcore.WriteSyncer
}

// NewLoggerFactory constructs a logger factory writing to standard error.
func NewLoggerFactory() *LoggerFactory {
	return &LoggerFactory{destination: zapcore.Lock(os.Stderr)}
}

// NewLoggerFactoryWithDestination constructs a logger factory writing to destination.
func NewLoggerFactoryWithDestination(destination io.Writer) *LoggerFactory {
	if destination == nil {
		return NewLoggerFactory()
	}
	return &LoggerFactory{destination: zapcore.Lock(zapcore.AddSync(destination))}
}

// CreateLogger produces a zap.Logger honoring the requested log level and format. Level and format names are case-insensitive.
func (factory *LoggerFactory) CreateLogger(requestedLogLevel LogLevel, requestedLogFormat LogFormat) (*zap.Logger, error) {
	normalizedLevel := LogLevel(strings.ToLower(strings.TrimSpace(string(requestedLogLevel))))
	zapLogLevel, levelExists := logLevelMapping[normalizedLevel]
	if !levelExists {
		return nil, fmt.Errorf(unsupportedLogLevelTemplateConstant, requestedLogLevel)
	}

	var encoder zapcore.Encoder
	switch LogFormat(strings.ToLower(strings.TrimSpace(string(requestedLogFormat)))) {
	case LogFormatStructured:
		encoder = zapcore.NewJSONEncoder(structuredEncoderConfiguration())
	case LogFormatConsole:
		encoder = zapcore.NewConsoleEncoder(consoleEncoderConfiguration())
	default:
		return nil, fmt.Errorf(unsupportedLogFormatTemplateConstant, requestedLogFormat)
	}

	destination := factory.destination
	if destination == nil {
		destination = zapcore.Lock(os.Stderr)
	}

	core := zapcore.NewCore(encoder, destination, zap.NewAtomicLevelAt(zapLogLevel))
	return zap.New(core, zap.ErrorOutput(destination)), nil
}

func structuredEncoderConfiguration() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        structuredTimeKeyConstant,
		LevelKey:       structuredLevelKeyConstant,
		NameKey:        structuredLoggerNameKeyConstant,
		MessageKey:     structuredMessageKeyConstant,
		StacktraceKey:  structuredStacktraceKeyConstant,
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}
}

// consoleEncoderConfiguration omits timestamps and callers so lifecycle messages read like plain progress output.
func consoleEncoderConfiguration() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		LevelKey:         consoleLevelKeyConstant,
		MessageKey:       consoleMessageKeyConstant,
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeLevel:      zapcore.CapitalLevelEncoder,
		EncodeDuration:   zapcore.StringDurationEncoder,
		ConsoleSeparator: " ",
	}
}
