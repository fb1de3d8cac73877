package personoversikt

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ApplyResult reports how a write operation landed.
type ApplyResult string

const (
	// ResultApplied means the operation mutated the aggregate.
	ResultApplied ApplyResult = "applied"

	// ResultSkippedStale means the tie-break rejected the incoming snapshot.
	// This is a normal outcome, not an error.
	ResultSkippedStale ApplyResult = "skipped_stale"

	// ResultNoop means the operation carried no information for the current
	// state, e.g. a BEHANDLET hendelse for a person with no aggregate.
	ResultNoop ApplyResult = "noop"
)

// Flag names an opaque activity flag owned by a subsystem outside this core.
type Flag string

const (
	FlagOppfolgingsoppgaveAktiv Flag = "oppfolgingsoppgave_aktiv"
	FlagDialogmotekandidat      Flag = "dialogmotekandidat"
	FlagSenOppfolgingKandidat   Flag = "sen_oppfolging_kandidat"
)

// Repository owns the durable per-person aggregate.
//
// Every per-person operation is atomic: a concurrent reader never observes a
// partial update, and concurrent writers to the same person are serialized.
// Operations on different persons are fully independent.
type Repository interface {
	// Get returns the aggregate for the identifier, or found=false when absent.
	Get(ctx context.Context, fnr PersonIdent) (status PersonOversiktStatus, found bool, err error)

	// CreateIfAbsent creates an empty aggregate unless one exists. Idempotent.
	CreateIfAbsent(ctx context.Context, fnr PersonIdent) (PersonOversiktStatus, error)

	// ApplyTilfelleSnapshot runs the tie-break against the stored snapshot
	// and, when accepted, the virksomhet set reconciliation, as one atomic
	// unit for the person. A rejected snapshot yields ResultSkippedStale.
	ApplyTilfelleSnapshot(ctx context.Context, fnr PersonIdent, tilfelle Oppfolgingstilfelle) (ApplyResult, error)

	// ApplyHendelse mutates the flag owned by the hendelse family.
	// MOTTATT creates the aggregate for unseen persons; BEHANDLET for an
	// unknown person is a no-op and never creates a phantom aggregate.
	ApplyHendelse(ctx context.Context, fnr PersonIdent, hendelseType OversikthendelseType) (ApplyResult, error)
}

// FlagWriter is the interface-segregated accessor for subsystems that own an
// opaque activity flag on the shared aggregate row. Each subsystem writes only
// its own named flag; nothing here is reconciled by the core.
type FlagWriter interface {
	// SetFlag stores the value. Setting a flag true for an unseen person
	// creates the aggregate; clearing a flag for an unseen person is a no-op.
	SetFlag(ctx context.Context, fnr PersonIdent, flag Flag, value bool) error
}

// BackfillStore exposes the display-metadata operations used by the lazy
// enrichment pass. Values are only ever filled in where they are missing;
// non-null metadata is never overwritten.
type BackfillStore interface {
	// ListMissingNavn returns identifiers of aggregates without a name, up to limit.
	ListMissingNavn(ctx context.Context, limit int) ([]PersonIdent, error)

	// FillPersonInfo sets name and birthdate where they are currently null.
	FillPersonInfo(ctx context.Context, fnr PersonIdent, navn string, fodselsdato *time.Time) error

	// ListVirksomheterMissingNavn returns associations without an employer name, up to limit.
	ListVirksomheterMissingNavn(ctx context.Context, limit int) ([]Virksomhet, error)

	// FillVirksomhetsnavn sets the employer name on the association where it is currently null.
	FillVirksomhetsnavn(ctx context.Context, id uuid.UUID, navn string) error
}

// PersonInfo is the result of a display-metadata lookup. Partial results are
// allowed: an empty Navn or nil Fodselsdato leaves the field unfilled.
type PersonInfo struct {
	Navn        string
	Fodselsdato *time.Time
}

// PersonInfoLookup is the narrow contract to the external name/birthdate registry.
type PersonInfoLookup interface {
	Lookup(ctx context.Context, fnr PersonIdent) (PersonInfo, error)
}

// VirksomhetsnavnLookup is the narrow contract to the external employer-name registry.
type VirksomhetsnavnLookup interface {
	Navn(ctx context.Context, virksomhetsnummer string) (string, error)
}
