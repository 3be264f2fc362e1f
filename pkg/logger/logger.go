package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// level is shared by every logger created through New so that SetLevel
// affects loggers that were created before the configuration was loaded.
var level = zap.NewAtomicLevelAt(zapcore.InfoLevel)

// Logger is a thin printf-style wrapper around a zap sugared logger
type Logger struct {
	sugar     *zap.SugaredLogger
	channelID string
}

// New creates a new logger with the given channel ID
func New(channelID string) *Logger {
	cfg := zap.NewProductionConfig()
	cfg.Level = level
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.RFC3339TimeEncoder
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.OutputPaths = []string{"stdout"}
	cfg.DisableStacktrace = true

	base, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		base = zap.NewNop()
	}
	return fromZap(base, channelID)
}

// NewWithCore creates a logger writing to the given zap core
func NewWithCore(core zapcore.Core, channelID string) *Logger {
	return fromZap(zap.New(core, zap.AddCallerSkip(1)), channelID)
}

func fromZap(base *zap.Logger, channelID string) *Logger {
	if channelID != "" {
		base = base.With(zap.String("channel", channelID))
	}
	return &Logger{
		sugar:     base.Sugar(),
		channelID: channelID,
	}
}

// With returns a child logger for another channel sharing the same core
func (l *Logger) With(channelID string) *Logger {
	return fromZap(l.sugar.Desugar(), channelID)
}

// Info logs an info message
func (l *Logger) Info(format string, v ...interface{}) {
	l.sugar.Infof(format, v...)
}

// Error logs an error message
func (l *Logger) Error(format string, v ...interface{}) {
	l.sugar.Errorf(format, v...)
}

// Debug logs a debug message
func (l *Logger) Debug(format string, v ...interface{}) {
	l.sugar.Debugf(format, v...)
}

// Warn logs a warning message
func (l *Logger) Warn(format string, v ...interface{}) {
	l.sugar.Warnf(format, v...)
}

// Sync flushes buffered log entries
func (l *Logger) Sync() error {
	return l.sugar.Sync()
}

// SetLevel changes the level of every logger built by New.
// Unknown names leave the level unchanged and return an error.
func SetLevel(name string) error {
	return level.UnmarshalText([]byte(name))
}

// Global logger instance for application-wide logging
var Global = New("")
