package postgresengine

import (
	"context"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"

	"github.com/navikt/syfooversiktsrv-go/personoversikt"
)

// ListMissingNavn returns identifiers of aggregates without a name, up to limit.
func (s *Store) ListMissingNavn(ctx context.Context, limit int) ([]personoversikt.PersonIdent, error) {
	selectStmt := s.builder().
		From(s.statusTableName).
		Select(colFnr).
		Where(goqu.C(colNavn).IsNull()).
		Order(goqu.I(colFnr).Asc()).
		Limit(uint(limit))

	sqlQuery, _, toSQLErr := selectStmt.ToSQL()
	if toSQLErr != nil {
		return nil, errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	rows, queryErr := s.db.Query(ctx, sqlQuery)
	if queryErr != nil {
		s.logError(logMsgDBQueryFailed, queryErr, logAttrQuery, sqlQuery)
		return nil, errors.Join(ErrQueryingStatusFailed, queryErr)
	}
	defer s.closeRows(rows)

	idents := make([]personoversikt.PersonIdent, 0, limit)

	for rows.Next() {
		var fnr string
		if scanErr := rows.Scan(&fnr); scanErr != nil {
			s.logError(logMsgScanRowFailed, scanErr)
			return nil, errors.Join(ErrScanningDBRowFailed, scanErr)
		}

		idents = append(idents, personoversikt.PersonIdent(fnr))
	}

	return idents, nil
}

// FillPersonInfo sets name and birthdate where they are currently null. Each
// column is guarded independently, so a row whose name was filled by an
// earlier partial lookup can still receive its birthdate later, and the fill
// never overwrites what a fresher source has written.
func (s *Store) FillPersonInfo(
	ctx context.Context,
	fnr personoversikt.PersonIdent,
	navn string,
	fodselsdato *time.Time,
) error {

	record := goqu.Record{}
	if navn != "" {
		record[colNavn] = goqu.L("COALESCE(?, ?)", goqu.C(colNavn), navn)
	}
	if fodselsdato != nil {
		record[colFodselsdato] = goqu.L(
			"COALESCE(?, ?)", goqu.C(colFodselsdato), *fodselsdato,
		)
	}

	if len(record) == 0 {
		return nil
	}

	updateStmt := s.builder().
		Update(s.statusTableName).
		Set(record).
		Where(goqu.Ex{colFnr: string(fnr)})

	sqlQuery, _, toSQLErr := updateStmt.ToSQL()
	if toSQLErr != nil {
		return errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	_, err := s.exec(ctx, sqlQuery)

	return err
}

// ListVirksomheterMissingNavn returns associations without an employer name, up to limit.
func (s *Store) ListVirksomheterMissingNavn(ctx context.Context, limit int) ([]personoversikt.Virksomhet, error) {
	selectStmt := s.builder().
		From(s.virksomhetTableName).
		Select(colVirksomhetID, colVirksomhetsnummer, colKnyttetTidspunkt).
		Where(goqu.C(colNavn).IsNull()).
		Order(goqu.I(colVirksomhetID).Asc()).
		Limit(uint(limit))

	sqlQuery, _, toSQLErr := selectStmt.ToSQL()
	if toSQLErr != nil {
		return nil, errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	rows, queryErr := s.db.Query(ctx, sqlQuery)
	if queryErr != nil {
		s.logError(logMsgDBQueryFailed, queryErr, logAttrQuery, sqlQuery)
		return nil, errors.Join(ErrQueryingVirksomheterFailed, queryErr)
	}
	defer s.closeRows(rows)

	virksomheter := make([]personoversikt.Virksomhet, 0, limit)

	for rows.Next() {
		var (
			id      string
			number  string
			knyttet time.Time
		)

		if scanErr := rows.Scan(&id, &number, &knyttet); scanErr != nil {
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
			KnyttetTidspunkt:  knyttet.UTC(),
		})
	}

	return virksomheter, nil
}

// FillVirksomhetsnavn sets the employer name on the association where it is currently null.
func (s *Store) FillVirksomhetsnavn(ctx context.Context, id uuid.UUID, navn string) error {
	updateStmt := s.builder().
		Update(s.virksomhetTableName).
		Set(goqu.Record{colNavn: navn}).
		Where(goqu.Ex{colVirksomhetID: id.String()}, goqu.C(colNavn).IsNull())

	sqlQuery, _, toSQLErr := updateStmt.ToSQL()
	if toSQLErr != nil {
		return errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	_, err := s.exec(ctx, sqlQuery)

	return err
}
