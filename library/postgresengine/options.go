package postgresengine

import (
	"time"
)

// Logger interface for SQL query logging, operational information, warnings,
// and error reporting. A *slog.Logger satisfies it directly.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// MetricsCollector interface for collecting store performance and
// operational metrics. Dependency-free so users can bridge to any metrics
// backend.
type MetricsCollector interface {
	RecordDuration(metric string, duration time.Duration, labels map[string]string)
	IncrementCounter(metric string, labels map[string]string)
}

// Option defines a functional option for configuring a Store.
type Option func(*Store) error

// WithLogger sets the logger for the Store.
// The logger will receive messages at different levels based on the logger's
// configured level:
//
// Debug level: SQL statements with execution timing (development use)
// Info level: operation outcomes, conflict occurrences (production-safe)
// Warn level: non-critical issues like rollback/cleanup failures
// Error level: critical failures that cause operation failures.
func WithLogger(logger Logger) Option {
	return func(s *Store) error {
		s.logger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for the Store. The collector will
// receive statement durations plus counters for conflicts, storage errors,
// and transaction errors.
func WithMetrics(collector MetricsCollector) Option {
	return func(s *Store) error {
		s.metricsCollector = collector
		return nil
	}
}
