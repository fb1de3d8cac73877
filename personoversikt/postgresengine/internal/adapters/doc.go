// Package adapters provides database client adapters for the Postgres
// aggregate store, hiding the concrete client (pgxpool.Pool, sqlx.DB or
// sql.DB) behind the DBAdapter interface. The transaction interface DBTx
// scopes the per-person read-modify-write that gives the store its atomicity
// guarantee.
package adapters
