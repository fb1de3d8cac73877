// Package postgresengine provides the PostgreSQL implementation of the
// aggregate repository.
//
// It supports multiple database libraries (pgx/v5, database/sql, sqlx)
// through internal adapters, selected by the constructor used. Queries are
// built with goqu and executed as interpolated SQL strings.
//
// Per-person atomicity is implemented with one transaction per write
// operation and a row-level lock on the person row, so writers to the same
// person are serialized while writers to different persons proceed in
// parallel. Aggregate creation races are resolved with conflict-tolerant
// inserts on the identifier.
package postgresengine

import "github.com/navikt/syfooversiktsrv-go/personoversikt"

var (
	_ personoversikt.Repository    = (*Store)(nil)
	_ personoversikt.FlagWriter    = (*Store)(nil)
	_ personoversikt.BackfillStore = (*Store)(nil)
)
