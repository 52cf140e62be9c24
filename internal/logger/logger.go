package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/oarkflow/smsc-simulator/pkg/smpp"
)

// Options selects the level, format and destination of log output.
type Options struct {
	Level  string // debug, info, warn, error
	Format string // text or json
	Output string // stdout, stderr, or a file path
}

// DefaultLogger implements the smpp.Logger interface on top of logrus.
type DefaultLogger struct {
	entry *logrus.Entry
}

// New builds a logger from opts. The returned closer releases the log file
// when Output names one.
func New(opts Options) (smpp.Logger, io.Closer, error) {
	base := logrus.New()

	level, err := logrus.ParseLevel(strings.ToLower(opts.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	base.SetLevel(level)

	switch strings.ToLower(opts.Format) {
	case "json":
		base.SetFormatter(&logrus.JSONFormatter{})
	default:
		base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	var closer io.Closer = nopCloser{}
	switch opts.Output {
	case "", "stdout":
		base.SetOutput(os.Stdout)
	case "stderr":
		base.SetOutput(os.Stderr)
	default:
		f, err := os.OpenFile(opts.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file %s: %w", opts.Output, err)
		}
		base.SetOutput(f)
		closer = f
	}

	return &DefaultLogger{entry: logrus.NewEntry(base)}, closer, nil
}

// NewDefaultLogger creates a text logger on stdout at the given level
func NewDefaultLogger(level string) smpp.Logger {
	l, _, _ := New(Options{Level: level})
	return l
}

// NewWithWriter creates a text logger writing to w, mainly for tests.
func NewWithWriter(w io.Writer, level string) smpp.Logger {
	base := logrus.New()
	base.SetOutput(w)
	base.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true, DisableColors: true})
	if lvl, err := logrus.ParseLevel(level); err == nil {
		base.SetLevel(lvl)
	}
	return &DefaultLogger{entry: logrus.NewEntry(base)}
}

// Debug logs a debug message
func (l *DefaultLogger) Debug(msg string, fields ...interface{}) {
	l.with(fields).Debug(msg)
}

// Info logs an info message
func (l *DefaultLogger) Info(msg string, fields ...interface{}) {
	l.with(fields).Info(msg)
}

// Warn logs a warning message
func (l *DefaultLogger) Warn(msg string, fields ...interface{}) {
	l.with(fields).Warn(msg)
}

// Error logs an error message
func (l *DefaultLogger) Error(msg string, fields ...interface{}) {
	l.with(fields).Error(msg)
}

// Fatal logs a fatal message and exits
func (l *DefaultLogger) Fatal(msg string, fields ...interface{}) {
	l.with(fields).Fatal(msg)
}

// WithFields returns a logger with additional fields
func (l *DefaultLogger) WithFields(fields map[string]interface{}) smpp.Logger {
	return &DefaultLogger{entry: l.entry.WithFields(logrus.Fields(fields))}
}

// with converts alternating key/value arguments to logrus fields. A trailing
// key without a value is logged under "extra".
func (l *DefaultLogger) with(kv []interface{}) *logrus.Entry {
	if len(kv) == 0 {
		return l.entry
	}

	fields := make(logrus.Fields, len(kv)/2+1)
	for i := 0; i < len(kv); i += 2 {
		if i+1 >= len(kv) {
			fields["extra"] = kv[i]
			break
		}
		fields[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return l.entry.WithFields(fields)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
