package lottery

import (
	"github.com/sirupsen/logrus"
)

// DefaultLogger implements Logger on top of logrus
type DefaultLogger struct {
	entry *logrus.Entry
}

// NewDefaultLogger creates a logger writing through the given logrus instance.
// A nil instance falls back to the logrus standard logger.
func NewDefaultLogger(l *logrus.Logger) *DefaultLogger {
	if l == nil {
		l = logrus.StandardLogger()
	}
	return &DefaultLogger{entry: logrus.NewEntry(l).WithField("component", "lottery")}
}

// WithField returns a logger that attaches key=value to every entry
func (l *DefaultLogger) WithField(key string, value any) *DefaultLogger {
	return &DefaultLogger{entry: l.logEntry().WithField(key, value)}
}

func (l *DefaultLogger) logEntry() *logrus.Entry {
	if l.entry == nil {
		l.entry = logrus.NewEntry(logrus.StandardLogger()).WithField("component", "lottery")
	}
	return l.entry
}

// Info logs an info message
func (l *DefaultLogger) Info(msg string, args ...any) {
	l.logEntry().Infof(msg, args...)
}

// Error logs an error message
func (l *DefaultLogger) Error(msg string, args ...any) {
	l.logEntry().Errorf(msg, args...)
}

// Debug logs a debug message
func (l *DefaultLogger) Debug(msg string, args ...any) {
	l.logEntry().Debugf(msg, args...)
}

// SilentLogger implements Logger interface but does not output any logs
// This is useful for testing environments where log output is not desired
type SilentLogger struct{}

// NewSilentLogger creates a new silent logger instance
func NewSilentLogger() *SilentLogger {
	return &SilentLogger{}
}

// Info does nothing (silent)
func (l *SilentLogger) Info(msg string, args ...any) {}

// Error does nothing (silent)
func (l *SilentLogger) Error(msg string, args ...any) {}

// Debug does nothing (silent)
func (l *SilentLogger) Debug(msg string, args ...any) {}
