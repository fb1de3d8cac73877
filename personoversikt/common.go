package personoversikt

import (
	"errors"
	"time"
)

var (
	// ErrInvalidPersonIdent is returned when a person identifier fails boundary validation.
	ErrInvalidPersonIdent = errors.New("person ident must be 11 digits")

	// ErrNilDatabaseConnection is returned when a nil database handle is supplied to an engine constructor.
	ErrNilDatabaseConnection = errors.New("database connection must not be nil")

	// ErrEmptyTableName is returned when an empty table name is supplied via an option.
	ErrEmptyTableName = errors.New("empty table name supplied")
)

const personIdentLength = 11

// PersonIdent is the opaque national identifier used as the natural key of the aggregate.
//
// It should only be constructed with BuildPersonIdent so that malformed input
// is rejected at the boundary.
type PersonIdent string

// BuildPersonIdent validates the raw identifier for length and format.
func BuildPersonIdent(raw string) (PersonIdent, error) {
	if len(raw) != personIdentLength {
		return "", ErrInvalidPersonIdent
	}

	for _, r := range raw {
		if r < '0' || r > '9' {
			return "", ErrInvalidPersonIdent
		}
	}

	return PersonIdent(raw), nil
}

// ToTidspunkt normalizes a timestamp to UTC with microsecond precision,
// matching the precision of the persisted timestamp columns.
func ToTidspunkt(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
