package postgresengine

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/navikt/syfooversiktsrv-go/personoversikt/postgresengine/internal/adapters"
)

const (
	logMsgDBQueryFailed       = "db query failed"
	logMsgDBExecFailed        = "db exec failed"
	logMsgScanRowFailed       = "scanning db row failed"
	logMsgRowsAffectedFailed  = "getting rows affected failed"
	logMsgRollbackFailed      = "rolling back transaction failed"
	logMsgCloseRowsFailed     = "closing db rows failed"
	logMsgSQLQueryExecuted    = "sql query executed"
	logMsgSnapshotApplied     = "tilfelle snapshot applied"
	logMsgSnapshotSkippedStale = "tilfelle snapshot skipped as stale"
	logMsgHendelseApplied     = "hendelse applied"

	logAttrError               = "error"
	logAttrQuery               = "query"
	logAttrAction              = "action"
	logAttrDurationMS          = "durationMS"
	logAttrReferanseTidspunkt  = "referanseTidspunkt"
	logAttrOpprettetTidspunkt  = "opprettetTidspunkt"
	logAttrVirksomhetCount     = "virksomhetCount"
	logAttrHendelseType        = "hendelseType"

	logActionSelectStatus       = "select status"
	logActionSelectVirksomheter = "select virksomheter"
	logActionExec               = "exec"

	metricApplyTilfelleDuration = "personoversikt_apply_tilfelle_duration"
	metricApplyHendelseDuration = "personoversikt_apply_hendelse_duration"

	metricLabelResult = "result"
	metricLabelStatus = "status"

	metricStatusSuccess = "success"
	metricStatusError   = "error"
)

func (s *Store) rollback(ctx context.Context, tx adapters.DBTx) {
	if err := tx.Rollback(ctx); err != nil {
		s.logError(logMsgRollbackFailed, err)
	}
}

func (s *Store) closeRows(rows adapters.DBRows) {
	if err := rows.Close(); err != nil {
		s.logError(logMsgCloseRowsFailed, err)
	}
}

func (s *Store) logError(msg string, err error, args ...any) {
	if s.logger == nil {
		return
	}

	s.logger.Error(msg, append([]any{logAttrError, err}, args...)...)
}

func (s *Store) logOperation(msg string, args ...any) {
	if s.logger == nil {
		return
	}

	s.logger.Debug(msg, args...)
}

func (s *Store) logQueryWithDuration(sqlQuery string, action string, duration time.Duration) {
	if s.logger == nil {
		return
	}

	s.logger.Debug(logMsgSQLQueryExecuted,
		logAttrAction, action,
		logAttrDurationMS, duration.Milliseconds(),
		logAttrQuery, sqlQuery)
}

func (s *Store) recordApplyMetrics(metric string, result string, err error, duration time.Duration) {
	if s.metricsCollector == nil {
		return
	}

	status := metricStatusSuccess
	if err != nil {
		status = metricStatusError
	}

	s.metricsCollector.RecordDuration(metric, duration, map[string]string{
		metricLabelResult: result,
		metricLabelStatus: status,
	})
}

func parseUUID(value string) (uuid.UUID, error) {
	return uuid.Parse(value)
}
