package postgresengine

import (
	"github.com/navikt/syfooversiktsrv-go/personoversikt"
)

// Option defines a functional option for configuring the Store.
type Option func(*Store) error

// WithStatusTableName sets the table name for the aggregate rows.
func WithStatusTableName(tableName string) Option {
	return func(s *Store) error {
		if tableName == "" {
			return personoversikt.ErrEmptyTableName
		}

		s.statusTableName = tableName

		return nil
	}
}

// WithVirksomhetTableName sets the table name for the employer-association rows.
func WithVirksomhetTableName(tableName string) Option {
	return func(s *Store) error {
		if tableName == "" {
			return personoversikt.ErrEmptyTableName
		}

		s.virksomhetTableName = tableName

		return nil
	}
}

// WithLogger sets the logger for the Store.
//
// Debug level: SQL statements with execution timing (development use)
// Info level: apply outcomes and durations (production-safe)
// Warn level: non-critical issues like cleanup failures
// Error level: critical failures that cause operation failures.
func WithLogger(logger personoversikt.Logger) Option {
	return func(s *Store) error {
		s.logger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for the Store. The collector
// receives apply durations and counters for applied, stale-skipped and
// failed operations.
func WithMetrics(collector personoversikt.MetricsCollector) Option {
	return func(s *Store) error {
		s.metricsCollector = collector
		return nil
	}
}
