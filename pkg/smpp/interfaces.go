package smpp

import (
	"time"
)

// Clock returns the current time. Sessions and the server read time only
// through a Clock so tests can drive timers deterministically.
type Clock func() time.Time

// MessageStore holds accepted messages until their delivery time. It is only
// touched from the server's control goroutine and needs no locking.
type MessageStore interface {
	// Put appends msg to the bucket for deliverAt under identity.
	Put(identity string, deliverAt time.Time, msg *Message)

	// TakeDue removes and returns the earliest message for identity whose
	// bucket time is not after now. It returns nil when nothing is due.
	TakeDue(identity string, now time.Time) *Message

	// Len returns the number of pending messages across all identities.
	Len() int
}

// FeatureFlags answers per-identity feature lookups consulted when building
// a bind response.
type FeatureFlags interface {
	Enabled(identity, feature string) bool
}

// SubmitLimiter decides whether a bound identity may submit another message.
type SubmitLimiter interface {
	Allow(identity string, now time.Time) bool
}

// FeatureSCInterfaceVersion controls the sc_interface_version TLV in bind
// responses.
const FeatureSCInterfaceVersion = "sc_interface_version"

// Logger interface defines logging operations
type Logger interface {
	// Debug logs a debug message
	Debug(msg string, fields ...interface{})

	// Info logs an info message
	Info(msg string, fields ...interface{})

	// Warn logs a warning message
	Warn(msg string, fields ...interface{})

	// Error logs an error message
	Error(msg string, fields ...interface{})

	// Fatal logs a fatal message and exits
	Fatal(msg string, fields ...interface{})

	// WithFields returns a logger with additional fields
	WithFields(fields map[string]interface{}) Logger
}

// MetricsCollector interface defines metrics collection operations
type MetricsCollector interface {
	// IncCounter increments a counter metric
	IncCounter(name string, labels map[string]string)

	// SetGauge sets a gauge metric
	SetGauge(name string, value float64, labels map[string]string)

	// ObserveHistogram observes a value for a histogram metric
	ObserveHistogram(name string, value float64, labels map[string]string)

	// RecordDuration records a duration metric
	RecordDuration(name string, duration time.Duration, labels map[string]string)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{})               {}
func (nopLogger) Info(string, ...interface{})                {}
func (nopLogger) Warn(string, ...interface{})                {}
func (nopLogger) Error(string, ...interface{})               {}
func (nopLogger) Fatal(string, ...interface{})               {}
func (l nopLogger) WithFields(map[string]interface{}) Logger { return l }

type nopMetrics struct{}

func (nopMetrics) IncCounter(string, map[string]string)                    {}
func (nopMetrics) SetGauge(string, float64, map[string]string)             {}
func (nopMetrics) ObserveHistogram(string, float64, map[string]string)     {}
func (nopMetrics) RecordDuration(string, time.Duration, map[string]string) {}

type noFlags struct{}

func (noFlags) Enabled(string, string) bool { return false }
