package postgresengine

import (
	"math"
	"time"
)

const (
	logMsgSQLExecuted        = "executed sql"
	logMsgOperation          = "store operation: "
	logMsgBeginTxFailed      = "failed to begin serializable transaction"
	logMsgCommitFailed       = "failed to commit transaction"
	logMsgRollbackFailed     = "failed to roll back transaction"
	logMsgSerializationAbort = "serialization abort detected, mapped to checkout conflict"
	logMsgDBQueryFailed      = "database query execution failed"
	logMsgDBExecFailed       = "database statement execution failed"
	logMsgRowsAffectedFailed = "failed to get rows affected count"
	logMsgCloseRowsFailed    = "failed to close database rows"
	logMsgBuildQueryFailed   = "failed to build sql query"
	logMsgScanRowFailed      = "failed to scan database row"

	logAttrError      = "error"
	logAttrQuery      = "query"
	logAttrDurationMS = "duration_ms"

	metricStatementDuration = "librarystore_statement_duration"
	metricCheckoutConflicts = "librarystore_checkout_conflicts_total"
	metricStorageErrors     = "librarystore_storage_errors_total"
	metricTransactionErrors = "librarystore_transaction_errors_total"

	labelOperation = "operation"
)

// logQueryWithDuration logs SQL statements with execution time at debug
// level and records the duration metric if collectors are configured.
func (s *Store) logQueryWithDuration(sqlQuery string, duration time.Duration) {
	if s.logger != nil {
		s.logger.Debug(logMsgSQLExecuted, logAttrDurationMS, toMilliseconds(duration), logAttrQuery, sqlQuery)
	}

	if s.metricsCollector != nil {
		s.metricsCollector.RecordDuration(metricStatementDuration, duration, nil)
	}
}

// logOperation logs operational information at info level if the logger is
// configured.
func (s *Store) logOperation(operation string, args ...any) {
	if s.logger != nil {
		s.logger.Info(logMsgOperation+operation, args...)
	}
}

// logConflict logs conflict occurrences at info level; conflicts are
// expected outcomes under contention, not errors.
func (s *Store) logConflict(msg string, err error) {
	if s.logger != nil {
		s.logger.Info(msg, logAttrError, err.Error())
	}
}

// logError logs error information at the error level if the logger is
// configured.
func (s *Store) logError(message string, err error, args ...any) {
	if s.logger != nil {
		allArgs := []any{logAttrError, err.Error()}
		allArgs = append(allArgs, args...)
		s.logger.Error(message, allArgs...)
	}
}

// recordErrorMetric increments an error counter if the collector is
// configured.
func (s *Store) recordErrorMetric(metric string) {
	if s.metricsCollector != nil {
		s.metricsCollector.IncrementCounter(metric, nil)
	}
}

// recordOperationMetric increments a counter labeled with the operation name.
func (s *Store) recordOperationMetric(metric string, operation string) {
	if s.metricsCollector != nil {
		s.metricsCollector.IncrementCounter(metric, map[string]string{labelOperation: operation})
	}
}

// toMilliseconds converts a time.Duration to float64 milliseconds with 3
// decimal places.
func toMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}
