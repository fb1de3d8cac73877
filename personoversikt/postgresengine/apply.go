package postgresengine

import (
	"context"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"

	"github.com/navikt/syfooversiktsrv-go/personoversikt"
	"github.com/navikt/syfooversiktsrv-go/personoversikt/postgresengine/internal/adapters"
)

// ApplyTilfelleSnapshot runs the tie-break against the stored snapshot and,
// when accepted, the virksomhet set reconciliation, as one atomic unit for
// the person. The person row is locked for the duration of the transaction,
// so concurrent writers to the same person are serialized; a rejected
// snapshot rolls back and reports ResultSkippedStale.
func (s *Store) ApplyTilfelleSnapshot(
	ctx context.Context,
	fnr personoversikt.PersonIdent,
	tilfelle personoversikt.Oppfolgingstilfelle,
) (personoversikt.ApplyResult, error) {

	start := time.Now()

	result, err := s.applyTilfelleSnapshot(ctx, fnr, tilfelle)

	s.recordApplyMetrics(metricApplyTilfelleDuration, string(result), err, time.Since(start))

	return result, err
}

func (s *Store) applyTilfelleSnapshot(
	ctx context.Context,
	fnr personoversikt.PersonIdent,
	tilfelle personoversikt.Oppfolgingstilfelle,
) (personoversikt.ApplyResult, error) {

	tx, err := s.lockedStatusTx(ctx, fnr)
	if err != nil {
		return "", err
	}
	defer s.rollback(ctx, tx.tx)

	if !tilfelle.Supersedes(tx.status.Tilfelle) {
		s.logOperation(logMsgSnapshotSkippedStale,
			logAttrReferanseTidspunkt, tilfelle.ReferanseTidspunkt,
			logAttrOpprettetTidspunkt, tilfelle.OpprettetTidspunkt)

		return personoversikt.ResultSkippedStale, nil
	}

	persisted, err := s.selectVirksomheter(ctx, tx.tx, fnr)
	if err != nil {
		return "", err
	}

	delta := personoversikt.ReconcileVirksomheter(persisted, virksomhetsnummer(tilfelle.Virksomheter), time.Now())

	if err = s.updateTilfelleColumns(ctx, tx.tx, fnr, tilfelle); err != nil {
		return "", err
	}

	if err = s.deleteVirksomheter(ctx, tx.tx, delta.DeleteIDs); err != nil {
		return "", err
	}

	if err = s.writeVirksomhetOrder(ctx, tx.tx, fnr, delta); err != nil {
		return "", err
	}

	if err = tx.tx.Commit(ctx); err != nil {
		return "", errors.Join(ErrCommitTxFailed, err)
	}

	s.logOperation(logMsgSnapshotApplied,
		logAttrReferanseTidspunkt, tilfelle.ReferanseTidspunkt,
		logAttrVirksomhetCount, len(delta.Ordered))

	return personoversikt.ResultApplied, nil
}

// ApplyHendelse reads the locked aggregate, runs the flag state machine and
// writes the flag columns back, atomically for the person. A BEHANDLET
// hendelse for an unknown person is a no-op and creates nothing.
func (s *Store) ApplyHendelse(
	ctx context.Context,
	fnr personoversikt.PersonIdent,
	hendelseType personoversikt.OversikthendelseType,
) (personoversikt.ApplyResult, error) {

	start := time.Now()

	result, err := s.applyHendelse(ctx, fnr, hendelseType)

	s.recordApplyMetrics(metricApplyHendelseDuration, string(result), err, time.Since(start))

	return result, err
}

func (s *Store) applyHendelse(
	ctx context.Context,
	fnr personoversikt.PersonIdent,
	hendelseType personoversikt.OversikthendelseType,
) (personoversikt.ApplyResult, error) {

	tx, err := s.lockedStatusTx(ctx, fnr)
	if err != nil {
		return "", err
	}
	defer s.rollback(ctx, tx.tx)

	// the deferred rollback discards the provisional row insert
	if !tx.found && !hendelseType.IsMottatt() {
		return personoversikt.ResultNoop, nil
	}

	status := tx.status
	personoversikt.ApplyHendelse(&status, hendelseType)

	if err = s.updateFlagColumns(ctx, tx.tx, fnr, status); err != nil {
		return "", err
	}

	if err = tx.tx.Commit(ctx); err != nil {
		return "", errors.Join(ErrCommitTxFailed, err)
	}

	s.logOperation(logMsgHendelseApplied, logAttrHendelseType, string(hendelseType))

	return personoversikt.ResultApplied, nil
}

// SetFlag stores an opaque subsystem-owned flag value. Setting a flag true
// for an unseen person creates the aggregate; clearing a flag for an unseen
// person is a no-op.
func (s *Store) SetFlag(
	ctx context.Context,
	fnr personoversikt.PersonIdent,
	flag personoversikt.Flag,
	value bool,
) error {

	column, known := flagColumns[flag]
	if !known {
		return ErrFlagUnknown
	}

	tx, err := s.lockedStatusTx(ctx, fnr)
	if err != nil {
		return err
	}
	defer s.rollback(ctx, tx.tx)

	// the deferred rollback discards the provisional row insert
	if !tx.found && !value {
		return nil
	}

	updateStmt := s.builder().
		Update(s.statusTableName).
		Set(goqu.Record{column: value}).
		Where(goqu.Ex{colFnr: string(fnr)})

	sqlQuery, _, toSQLErr := updateStmt.ToSQL()
	if toSQLErr != nil {
		return errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	if _, err = s.execTx(ctx, tx.tx, sqlQuery); err != nil {
		return err
	}

	if err = tx.tx.Commit(ctx); err != nil {
		return errors.Join(ErrCommitTxFailed, err)
	}

	return nil
}

var flagColumns = map[personoversikt.Flag]string{
	personoversikt.FlagOppfolgingsoppgaveAktiv: colOppfolgingsoppgave,
	personoversikt.FlagDialogmotekandidat:      colDialogmotekandidat,
	personoversikt.FlagSenOppfolgingKandidat:   colSenOppfolgingKandidat,
}

// lockedStatus bundles the transaction with the locked person row. The row
// always exists and is row-locked by the time callers see it; found reports
// whether it existed before this transaction, so the no-op paths (BEHANDLET,
// clearing a flag) can roll the provisional insert back instead of leaving a
// phantom aggregate behind.
type lockedStatus struct {
	tx     adapters.DBTx
	status personoversikt.PersonOversiktStatus
	found  bool
}

// lockedStatusTx begins a transaction and returns the row-locked aggregate.
//
// A select with no matching row acquires no lock, so for an unseen person the
// row is inserted inside the transaction and re-selected with the lock held.
// The insert is conflict-tolerant: of two concurrent creators one inserts and
// the other blocks on the conflicting key until the first commits, then
// no-ops and re-selects the committed row. Either way every writer leaves
// here holding the row lock, never a snapshot of pre-insert emptiness.
func (s *Store) lockedStatusTx(ctx context.Context, fnr personoversikt.PersonIdent) (lockedStatus, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return lockedStatus{}, errors.Join(ErrBeginTxFailed, err)
	}

	status, found, err := s.selectStatus(ctx, tx, fnr, true)
	if err != nil {
		s.rollback(ctx, tx)
		return lockedStatus{}, err
	}

	if !found {
		insertSQL, buildErr := s.buildInsertEmptyStatus(fnr)
		if buildErr != nil {
			s.rollback(ctx, tx)
			return lockedStatus{}, buildErr
		}

		inserted, execErr := s.execTx(ctx, tx, insertSQL)
		if execErr != nil {
			s.rollback(ctx, tx)
			return lockedStatus{}, execErr
		}

		// inserted == 0 means a concurrent creator won the race; the
		// re-select then observes their committed state under the lock.
		found = inserted == 0

		status, _, err = s.selectStatus(ctx, tx, fnr, true)
		if err != nil {
			s.rollback(ctx, tx)
			return lockedStatus{}, err
		}
	}

	return lockedStatus{tx: tx, status: status, found: found}, nil
}

// updateTilfelleColumns writes the accepted snapshot's scalar fields to the
// locked person row.
func (s *Store) updateTilfelleColumns(
	ctx context.Context,
	tx adapters.DBTx,
	fnr personoversikt.PersonIdent,
	tilfelle personoversikt.Oppfolgingstilfelle,
) error {

	updateStmt := s.builder().
		Update(s.statusTableName).
		Set(goqu.Record{
			colTilfelleReferanse:     tilfelle.ReferanseTidspunkt,
			colTilfelleOpprettet:     tilfelle.OpprettetTidspunkt,
			colTilfelleFragmentID:    tilfelle.FragmentID,
			colTilfelleArbeidstaker:  tilfelle.ArbeidstakerAtTilfelleEnd,
			colTilfelleStart:         tilfelle.Start,
			colTilfelleEnd:           tilfelle.End,
			colTilfelleAntallSykedag: nullableInt(tilfelle.AntallSykedager),
		}).
		Where(goqu.Ex{colFnr: string(fnr)})

	sqlQuery, _, toSQLErr := updateStmt.ToSQL()
	if toSQLErr != nil {
		return errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	_, err := s.execTx(ctx, tx, sqlQuery)

	return err
}

// updateFlagColumns writes the five hendelse-owned flag cells back to the
// locked person row from the computed aggregate.
func (s *Store) updateFlagColumns(
	ctx context.Context,
	tx adapters.DBTx,
	fnr personoversikt.PersonIdent,
	status personoversikt.PersonOversiktStatus,
) error {

	updateStmt := s.builder().
		Update(s.statusTableName).
		Set(goqu.Record{
			colMotebehov:             status.MotebehovUbehandlet,
			colOppfolgingsplanLPS:    status.OppfolgingsplanLPSBistandUbehandlet,
			colDialogmotesvar:        status.DialogmotesvarUbehandlet,
			colBehandlerdialog:       status.BehandlerdialogUbehandlet,
			colBehandlerBerOmBistand: status.BehandlerBerOmBistandUbehandlet,
		}).
		Where(goqu.Ex{colFnr: string(fnr)})

	sqlQuery, _, toSQLErr := updateStmt.ToSQL()
	if toSQLErr != nil {
		return errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	_, err := s.execTx(ctx, tx, sqlQuery)

	return err
}

// deleteVirksomheter removes associations by their stable identifiers,
// never by position.
func (s *Store) deleteVirksomheter(ctx context.Context, tx adapters.DBTx, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}

	idStrings := make([]string, 0, len(ids))
	for _, id := range ids {
		idStrings = append(idStrings, id.String())
	}

	deleteStmt := s.builder().
		Delete(s.virksomhetTableName).
		Where(goqu.C(colVirksomhetID).In(idStrings))

	sqlQuery, _, toSQLErr := deleteStmt.ToSQL()
	if toSQLErr != nil {
		return errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	_, err := s.execTx(ctx, tx, sqlQuery)

	return err
}

// writeVirksomhetOrder inserts the fresh associations and rewrites the
// display order to follow the accepted snapshot. Preserved associations keep
// their identifier, name and original association timestamp.
func (s *Store) writeVirksomhetOrder(
	ctx context.Context,
	tx adapters.DBTx,
	fnr personoversikt.PersonIdent,
	delta personoversikt.VirksomhetDelta,
) error {

	created := make(map[uuid.UUID]struct{}, len(delta.Create))
	for _, v := range delta.Create {
		created[v.ID] = struct{}{}
	}

	for index, v := range delta.Ordered {
		if _, isNew := created[v.ID]; isNew {
			insertStmt := s.builder().
				Insert(s.virksomhetTableName).
				Cols(colVirksomhetID, colFnr, colVirksomhetsnummer, colKnyttetTidspunkt, colSortIndex).
				Vals(goqu.Vals{v.ID.String(), string(fnr), v.Virksomhetsnummer, v.KnyttetTidspunkt, index})

			sqlQuery, _, toSQLErr := insertStmt.ToSQL()
			if toSQLErr != nil {
				return errors.Join(ErrBuildingQueryFailed, toSQLErr)
			}

			if _, err := s.execTx(ctx, tx, sqlQuery); err != nil {
				return err
			}

			continue
		}

		updateStmt := s.builder().
			Update(s.virksomhetTableName).
			Set(goqu.Record{colSortIndex: index}).
			Where(goqu.Ex{colVirksomhetID: v.ID.String()})

		sqlQuery, _, toSQLErr := updateStmt.ToSQL()
		if toSQLErr != nil {
			return errors.Join(ErrBuildingQueryFailed, toSQLErr)
		}

		if _, err := s.execTx(ctx, tx, sqlQuery); err != nil {
			return err
		}
	}

	return nil
}

func virksomhetsnummer(virksomheter []personoversikt.Virksomhet) []string {
	numbers := make([]string, 0, len(virksomheter))
	for _, v := range virksomheter {
		numbers = append(numbers, v.Virksomhetsnummer)
	}

	return numbers
}

func nullableInt(p *int) any {
	if p == nil {
		return nil
	}

	return *p
}
