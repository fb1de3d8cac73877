package reconciler

import (
	"context"
	"time"

	"github.com/navikt/syfooversiktsrv-go/personoversikt"
)

// Record is one raw entry read from the partitioned record log. ID is the
// log's own position token for the entry and is passed back on Commit.
type Record struct {
	Stream  personoversikt.StreamTag
	ID      string
	Payload []byte
}

// RecordLog is the consumer-side contract to the partitioned record log.
//
// Poll returns up to max records, blocking up to wait when none are pending.
// Commit acknowledges records as durably processed; records polled but never
// committed are redelivered to a later Poll, so processing must be
// idempotent. Records for the same person arrive in log order within a
// stream.
type RecordLog interface {
	Poll(ctx context.Context, max int, wait time.Duration) ([]Record, error)
	Commit(ctx context.Context, records []Record) error
}
