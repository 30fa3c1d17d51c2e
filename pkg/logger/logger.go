package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Logger wraps logrus to provide structured logging with preset fields.
type Logger struct {
	entry *logrus.Entry
}

// Init configures the global logrus state. JSON output keeps the logs
// machine-parseable for collection downstream.
func Init(level logrus.Level) {
	logrus.SetFormatter(&logrus.JSONFormatter{
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
		},
	})
	logrus.SetOutput(os.Stdout)
	logrus.SetLevel(level)
}

// ParseLevel maps a config string onto a logrus level, defaulting to info.
func ParseLevel(s string) logrus.Level {
	lvl, err := logrus.ParseLevel(s)
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}

// New creates a Logger preset with the component name.
func New(component string) *Logger {
	return &Logger{
		entry: logrus.WithField("component", component),
	}
}

// WithSession returns a Logger that tags every entry with the session id.
func (l *Logger) WithSession(sessionID string) *Logger {
	return &Logger{entry: l.entry.WithField("session_id", sessionID)}
}

// WithField returns a Logger with one extra structured field.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{entry: l.entry.WithField(key, value)}
}

// Info records an info-level message.
func (l *Logger) Info(message string) {
	l.entry.Info(message)
}

// Warn records a warning-level message.
func (l *Logger) Warn(message string) {
	l.entry.Warn(message)
}

// Error records an error-level message.
func (l *Logger) Error(message string) {
	l.entry.Error(message)
}

// Debug records a debug-level message.
func (l *Logger) Debug(message string) {
	l.entry.Debug(message)
}

// Fatal records a fatal message and terminates the process.
func (l *Logger) Fatal(message string) {
	l.entry.Fatal(message)
}
