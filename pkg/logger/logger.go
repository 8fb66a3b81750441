// Package logger provides structured logging for the auction house services.
// It wraps logrus so services depend on a single narrow surface instead of the
// backend directly.
package logger

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger is a named, structured logger.
type Logger struct {
	entry *logrus.Entry
}

// NewDefault returns a logger for the given component writing JSON to stderr.
// The level is taken from AUCTION_LOG_LEVEL when set.
func NewDefault(component string) *Logger {
	base := logrus.New()
	base.SetOutput(os.Stderr)
	base.SetFormatter(&logrus.JSONFormatter{})
	base.SetLevel(levelFromEnv())
	return &Logger{entry: base.WithField("component", component)}
}

// New derives a child logger that shares the parent's backend but reports a
// different component. A nil parent behaves like NewDefault.
func New(parent *Logger, component string) *Logger {
	if parent == nil {
		return NewDefault(component)
	}
	return &Logger{entry: parent.entry.Logger.WithField("component", component)}
}

func levelFromEnv() logrus.Level {
	lvl, err := logrus.ParseLevel(strings.TrimSpace(os.Getenv("AUCTION_LOG_LEVEL")))
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}

// SetLevel adjusts the minimum level on the underlying logger.
func (l *Logger) SetLevel(level string) {
	if parsed, err := logrus.ParseLevel(strings.TrimSpace(level)); err == nil {
		l.entry.Logger.SetLevel(parsed)
	}
}

// WithField returns a logger with an additional structured field.
func (l *Logger) WithField(key string, value any) *Logger {
	return &Logger{entry: l.entry.WithField(key, value)}
}

// WithFields returns a logger with additional structured fields.
func (l *Logger) WithFields(fields map[string]any) *Logger {
	return &Logger{entry: l.entry.WithFields(logrus.Fields(fields))}
}

// WithError returns a logger carrying the error as a field.
func (l *Logger) WithError(err error) *Logger {
	return &Logger{entry: l.entry.WithError(err)}
}

func (l *Logger) Debug(args ...any)                 { l.entry.Debug(args...) }
func (l *Logger) Debugf(format string, args ...any) { l.entry.Debugf(format, args...) }
func (l *Logger) Info(args ...any)                  { l.entry.Info(args...) }
func (l *Logger) Infof(format string, args ...any)  { l.entry.Infof(format, args...) }
func (l *Logger) Warn(args ...any)                  { l.entry.Warn(args...) }
func (l *Logger) Warnf(format string, args ...any)  { l.entry.Warnf(format, args...) }
func (l *Logger) Error(args ...any)                 { l.entry.Error(args...) }
func (l *Logger) Errorf(format string, args ...any) { l.entry.Errorf(format, args...) }
