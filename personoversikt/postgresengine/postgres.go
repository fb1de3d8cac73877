package postgresengine

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect import
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"

	"github.com/navikt/syfooversiktsrv-go/personoversikt"
	"github.com/navikt/syfooversiktsrv-go/personoversikt/postgresengine/internal/adapters"
)

const (
	defaultStatusTableName     = "person_oversikt_status"
	defaultVirksomhetTableName = "person_oversikt_virksomhet"

	dialectPostgres = "postgres"

	colFnr                    = "fnr"
	colVeilederIdent          = "veileder_ident"
	colTildeltEnhet           = "tildelt_enhet"
	colNavn                   = "navn"
	colFodselsdato            = "fodselsdato"
	colMotebehov              = "motebehov_ubehandlet"
	colOppfolgingsplanLPS     = "oppfolgingsplan_lps_bistand_ubehandlet"
	colDialogmotesvar         = "dialogmotesvar_ubehandlet"
	colBehandlerdialog        = "behandlerdialog_ubehandlet"
	colBehandlerBerOmBistand  = "behandler_ber_om_bistand_ubehandlet"
	colOppfolgingsoppgave     = "oppfolgingsoppgave_aktiv"
	colDialogmotekandidat     = "dialogmotekandidat"
	colSenOppfolgingKandidat  = "sen_oppfolging_kandidat"
	colTilfelleReferanse      = "tilfelle_referanse_tidspunkt"
	colTilfelleOpprettet      = "tilfelle_opprettet_tidspunkt"
	colTilfelleFragmentID     = "tilfelle_fragment_id"
	colTilfelleArbeidstaker   = "tilfelle_arbeidstaker_at_end"
	colTilfelleStart          = "tilfelle_start"
	colTilfelleEnd            = "tilfelle_end"
	colTilfelleAntallSykedag  = "tilfelle_antall_sykedager"

	colVirksomhetID      = "id"
	colVirksomhetsnummer = "virksomhetsnummer"
	colKnyttetTidspunkt  = "knyttet_tidspunkt"
	colSortIndex         = "sort_index"
)

// ErrFlagUnknown is returned when SetFlag receives a flag name outside the known set.
var ErrFlagUnknown = errors.New("unknown flag name")

// Store is the Postgres-backed aggregate repository. It implements
// personoversikt.Repository, FlagWriter and BackfillStore.
//
// Per-person atomicity is implemented with a transaction around each
// read-modify-write, taking a row-level lock on the person row so that
// concurrent writers to the same person are serialized while writers to
// different persons proceed in parallel.
type Store struct {
	db                  adapters.DBAdapter
	statusTableName     string
	virksomhetTableName string
	logger              personoversikt.Logger
	metricsCollector    personoversikt.MetricsCollector
}

// NewStoreFromPGXPool creates a Store using a pgx pool with optional configuration.
func NewStoreFromPGXPool(db *pgxpool.Pool, options ...Option) (*Store, error) {
	if db == nil {
		return nil, personoversikt.ErrNilDatabaseConnection
	}

	return newStore(adapters.NewPGXAdapter(db), options...)
}

// NewStoreFromSQLDB creates a Store using a sql.DB with optional configuration.
func NewStoreFromSQLDB(db *sql.DB, options ...Option) (*Store, error) {
	if db == nil {
		return nil, personoversikt.ErrNilDatabaseConnection
	}

	return newStore(adapters.NewSQLAdapter(db), options...)
}

// NewStoreFromSQLX creates a Store using a sqlx.DB with optional configuration.
func NewStoreFromSQLX(db *sqlx.DB, options ...Option) (*Store, error) {
	if db == nil {
		return nil, personoversikt.ErrNilDatabaseConnection
	}

	return newStore(adapters.NewSQLXAdapter(db), options...)
}

func newStore(db adapters.DBAdapter, options ...Option) (*Store, error) {
	s := &Store{
		db:                  db,
		statusTableName:     defaultStatusTableName,
		virksomhetTableName: defaultVirksomhetTableName,
	}

	for _, option := range options {
		if err := option(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

func (s *Store) builder() goqu.DialectWrapper {
	return goqu.Dialect(dialectPostgres)
}

// Get returns the aggregate for the identifier, or found=false when absent.
// Both reads run in one transaction so the caller never observes a
// mid-reconciliation state.
func (s *Store) Get(ctx context.Context, fnr personoversikt.PersonIdent) (personoversikt.PersonOversiktStatus, bool, error) {
	var empty personoversikt.PersonOversiktStatus

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return empty, false, errors.Join(ErrBeginTxFailed, err)
	}
	defer s.rollback(ctx, tx)

	status, found, err := s.selectStatus(ctx, tx, fnr, false)
	if err != nil {
		return empty, false, err
	}

	if !found {
		return empty, false, nil
	}

	if status.Tilfelle != nil {
		virksomheter, selectErr := s.selectVirksomheter(ctx, tx, fnr)
		if selectErr != nil {
			return empty, false, selectErr
		}

		status.Tilfelle.Virksomheter = virksomheter
	}

	if err = tx.Commit(ctx); err != nil {
		return empty, false, errors.Join(ErrCommitTxFailed, err)
	}

	return status, true, nil
}

// CreateIfAbsent creates an empty aggregate unless one exists. Idempotent.
func (s *Store) CreateIfAbsent(ctx context.Context, fnr personoversikt.PersonIdent) (personoversikt.PersonOversiktStatus, error) {
	var empty personoversikt.PersonOversiktStatus

	insertSQL, err := s.buildInsertEmptyStatus(fnr)
	if err != nil {
		return empty, err
	}

	if _, err = s.exec(ctx, insertSQL); err != nil {
		return empty, err
	}

	status, _, err := s.Get(ctx, fnr)
	if err != nil {
		return empty, err
	}

	return status, nil
}

// buildInsertEmptyStatus builds an insert that is a no-op when the person already exists.
func (s *Store) buildInsertEmptyStatus(fnr personoversikt.PersonIdent) (string, error) {
	insertStmt := s.builder().
		Insert(s.statusTableName).
		Cols(colFnr).
		Vals(goqu.Vals{string(fnr)}).
		OnConflict(goqu.DoNothing())

	sqlQuery, _, toSQLErr := insertStmt.ToSQL()
	if toSQLErr != nil {
		return "", errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}

// statusRow mirrors the aggregate columns with nullable temporaries for scanning.
type statusRow struct {
	fnr                   string
	veilederIdent         sql.NullString
	tildeltEnhet          sql.NullString
	navn                  sql.NullString
	fodselsdato           sql.NullTime
	motebehov             bool
	oppfolgingsplanLPS    bool
	dialogmotesvar        bool
	behandlerdialog       bool
	behandlerBerOmBistand bool
	oppfolgingsoppgave    bool
	dialogmotekandidat    bool
	senOppfolging         bool
	tilfelleReferanse     sql.NullTime
	tilfelleOpprettet     sql.NullTime
	tilfelleFragmentID    sql.NullString
	tilfelleArbeidstaker  sql.NullBool
	tilfelleStart         sql.NullTime
	tilfelleEnd           sql.NullTime
	tilfelleAntall        sql.NullInt64
}

func statusColumns() []any {
	return []any{
		colFnr,
		colVeilederIdent,
		colTildeltEnhet,
		colNavn,
		colFodselsdato,
		colMotebehov,
		colOppfolgingsplanLPS,
		colDialogmotesvar,
		colBehandlerdialog,
		colBehandlerBerOmBistand,
		colOppfolgingsoppgave,
		colDialogmotekandidat,
		colSenOppfolgingKandidat,
		colTilfelleReferanse,
		colTilfelleOpprettet,
		colTilfelleFragmentID,
		colTilfelleArbeidstaker,
		colTilfelleStart,
		colTilfelleEnd,
		colTilfelleAntallSykedag,
	}
}

// selectStatus reads the person row, optionally taking a row-level lock.
func (s *Store) selectStatus(
	ctx context.Context,
	tx adapters.DBTx,
	fnr personoversikt.PersonIdent,
	lockRow bool,
) (personoversikt.PersonOversiktStatus, bool, error) {

	var empty personoversikt.PersonOversiktStatus

	selectStmt := s.builder().
		From(s.statusTableName).
		Select(statusColumns()...).
		Where(goqu.Ex{colFnr: string(fnr)})

	if lockRow {
		selectStmt = selectStmt.ForUpdate(exp.Wait)
	}

	sqlQuery, _, toSQLErr := selectStmt.ToSQL()
	if toSQLErr != nil {
		return empty, false, errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	start := time.Now()
	rows, queryErr := tx.Query(ctx, sqlQuery)
	s.logQueryWithDuration(sqlQuery, logActionSelectStatus, time.Since(start))

	if queryErr != nil {
		s.logError(logMsgDBQueryFailed, queryErr, logAttrQuery, sqlQuery)
		return empty, false, errors.Join(ErrQueryingStatusFailed, queryErr)
	}
	defer s.closeRows(rows)

	if !rows.Next() {
		return empty, false, nil
	}

	row := statusRow{}
	scanErr := rows.Scan(
		&row.fnr,
		&row.veilederIdent,
		&row.tildeltEnhet,
		&row.navn,
		&row.fodselsdato,
		&row.motebehov,
		&row.oppfolgingsplanLPS,
		&row.dialogmotesvar,
		&row.behandlerdialog,
		&row.behandlerBerOmBistand,
		&row.oppfolgingsoppgave,
		&row.dialogmotekandidat,
		&row.senOppfolging,
		&row.tilfelleReferanse,
		&row.tilfelleOpprettet,
		&row.tilfelleFragmentID,
		&row.tilfelleArbeidstaker,
		&row.tilfelleStart,
		&row.tilfelleEnd,
		&row.tilfelleAntall,
	)
	if scanErr != nil {
		s.logError(logMsgScanRowFailed, scanErr)
		return empty, false, errors.Join(ErrScanningDBRowFailed, scanErr)
	}

	return statusFromRow(row), true, nil
}

func statusFromRow(row statusRow) personoversikt.PersonOversiktStatus {
	status := personoversikt.PersonOversiktStatus{
		FNR:                                 personoversikt.PersonIdent(row.fnr),
		VeilederIdent:                       stringPtrFromNull(row.veilederIdent),
		TildeltEnhet:                        stringPtrFromNull(row.tildeltEnhet),
		Navn:                                stringPtrFromNull(row.navn),
		Fodselsdato:                         timePtrFromNull(row.fodselsdato),
		MotebehovUbehandlet:                 row.motebehov,
		OppfolgingsplanLPSBistandUbehandlet: row.oppfolgingsplanLPS,
		DialogmotesvarUbehandlet:            row.dialogmotesvar,
		BehandlerdialogUbehandlet:           row.behandlerdialog,
		BehandlerBerOmBistandUbehandlet:     row.behandlerBerOmBistand,
		OppfolgingsoppgaveAktiv:             row.oppfolgingsoppgave,
		Dialogmotekandidat:                  row.dialogmotekandidat,
		SenOppfolgingKandidat:               row.senOppfolging,
	}

	if row.tilfelleReferanse.Valid && row.tilfelleOpprettet.Valid {
		status.Tilfelle = &personoversikt.Oppfolgingstilfelle{
			ReferanseTidspunkt:        row.tilfelleReferanse.Time.UTC(),
			OpprettetTidspunkt:        row.tilfelleOpprettet.Time.UTC(),
			FragmentID:                row.tilfelleFragmentID.String,
			ArbeidstakerAtTilfelleEnd: row.tilfelleArbeidstaker.Bool,
			Start:                     row.tilfelleStart.Time,
			End:                       row.tilfelleEnd.Time,
			AntallSykedager:           intPtrFromNull(row.tilfelleAntall),
		}
	}

	return status
}

// selectVirksomheter reads the association rows in display (snapshot) order.
func (s *Store) selectVirksomheter(
	ctx context.Context,
	tx adapters.DBTx,
	fnr personoversikt.PersonIdent,
) ([]personoversikt.Virksomhet, error) {

	selectStmt := s.builder().
		From(s.virksomhetTableName).
		Select(colVirksomhetID, colVirksomhetsnummer, colNavn, colKnyttetTidspunkt).
		Where(goqu.Ex{colFnr: string(fnr)}).
		Order(goqu.I(colSortIndex).Asc())

	sqlQuery, _, toSQLErr := selectStmt.ToSQL()
	if toSQLErr != nil {
		return nil, errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	start := time.Now()
	rows, queryErr := tx.Query(ctx, sqlQuery)
	s.logQueryWithDuration(sqlQuery, logActionSelectVirksomheter, time.Since(start))

	if queryErr != nil {
		s.logError(logMsgDBQueryFailed, queryErr, logAttrQuery, sqlQuery)
		return nil, errors.Join(ErrQueryingVirksomheterFailed, queryErr)
	}
	defer s.closeRows(rows)

	virksomheter := make([]personoversikt.Virksomhet, 0)

	for rows.Next() {
		var (
			id      string
			number  string
			navn    sql.NullString
			knyttet time.Time
		)

		if scanErr := rows.Scan(&id, &number, &navn, &knyttet); scanErr != nil {
			s.logError(logMsgScanRowFailed, scanErr)
			return nil, errors.Join(ErrScanningDBRowFailed, scanErr)
		}

		parsedID, parseErr := parseUUID(id)
		if parseErr != nil {
			return nil, errors.Join(ErrScanningDBRowFailed, parseErr)
		}

		virksomheter = append(virksomheter, personoversikt.Virksomhet{
			ID:                parsedID,
			Virksomhetsnummer: number,
			Navn:              stringPtrFromNull(navn),
			KnyttetTidspunkt:  knyttet.UTC(),
		})
	}

	return virksomheter, nil
}

func (s *Store) exec(ctx context.Context, sqlQuery string) (int64, error) {
	start := time.Now()
	result, execErr := s.db.Exec(ctx, sqlQuery)
	s.logQueryWithDuration(sqlQuery, logActionExec, time.Since(start))

	if execErr != nil {
		s.logError(logMsgDBExecFailed, execErr, logAttrQuery, sqlQuery)
		return 0, errors.Join(ErrExecutingStatementFailed, execErr)
	}

	rowsAffected, rowsErr := result.RowsAffected()
	if rowsErr != nil {
		s.logError(logMsgRowsAffectedFailed, rowsErr)
		return 0, errors.Join(ErrGettingRowsAffectedFailed, rowsErr)
	}

	return rowsAffected, nil
}

func (s *Store) execTx(ctx context.Context, tx adapters.DBTx, sqlQuery string) (int64, error) {
	start := time.Now()
	result, execErr := tx.Exec(ctx, sqlQuery)
	s.logQueryWithDuration(sqlQuery, logActionExec, time.Since(start))

	if execErr != nil {
		s.logError(logMsgDBExecFailed, execErr, logAttrQuery, sqlQuery)
		return 0, errors.Join(ErrExecutingStatementFailed, execErr)
	}

	rowsAffected, rowsErr := result.RowsAffected()
	if rowsErr != nil {
		s.logError(logMsgRowsAffectedFailed, rowsErr)
		return 0, errors.Join(ErrGettingRowsAffectedFailed, rowsErr)
	}

	return rowsAffected, nil
}

func stringPtrFromNull(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}

	value := v.String

	return &value
}

func timePtrFromNull(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}

	value := v.Time

	return &value
}

func intPtrFromNull(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}

	value := int(v.Int64)

	return &value
}
