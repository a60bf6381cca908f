package utils

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Logger provides leveled logging throughout the application.
type Logger struct {
	log *logrus.Logger
}

// NewLogger creates a Logger writing text lines with full timestamps to stdout.
func NewLogger() *Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	l.SetLevel(logrus.InfoLevel)
	return &Logger{log: l}
}

// NewDiscardLogger returns a Logger that drops everything. Used by tests.
func NewDiscardLogger() *Logger {
	l := NewLogger()
	l.log.SetOutput(io.Discard)
	return l
}

// SetLevel parses a level name (debug, info, warn, error).
func (l *Logger) SetLevel(level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	l.log.SetLevel(lvl)
	return nil
}

// SetOutput redirects log output.
func (l *Logger) SetOutput(w io.Writer) {
	l.log.SetOutput(w)
}

// With returns a child logger that attaches the field to every line.
func (l *Logger) With(key string, value any) *Entry {
	return &Entry{entry: l.log.WithField(key, value)}
}

func (l *Logger) Info(format string, args ...any) {
	l.log.Infof(format, args...)
}

func (l *Logger) Warn(format string, args ...any) {
	l.log.Warnf(format, args...)
}

func (l *Logger) Error(format string, args ...any) {
	l.log.Errorf(format, args...)
}

func (l *Logger) Debug(format string, args ...any) {
	l.log.Debugf(format, args...)
}

// Entry is a Logger bound to structured fields.
type Entry struct {
	entry *logrus.Entry
}

func (e *Entry) Info(format string, args ...any) {
	e.entry.Infof(format, args...)
}

func (e *Entry) Warn(format string, args ...any) {
	e.entry.Warnf(format, args...)
}
