package postgresengine

import "errors"

var (
	ErrBeginTxFailed              = errors.New("beginning transaction failed")
	ErrCommitTxFailed             = errors.New("committing transaction failed")
	ErrBuildingQueryFailed        = errors.New("building query failed")
	ErrQueryingStatusFailed       = errors.New("querying person status failed")
	ErrQueryingVirksomheterFailed = errors.New("querying virksomheter failed")
	ErrScanningDBRowFailed        = errors.New("scanning database row failed")
	ErrExecutingStatementFailed   = errors.New("executing statement failed")
	ErrGettingRowsAffectedFailed  = errors.New("getting rows affected failed")
)
