package personoversikt

import "time"

// PersonOversiktStatus is the canonical per-person aggregate served to the
// caseworker queue. There is exactly one instance per PersonIdent.
//
// It is mutated field-by-field by independent writers: the tilfelle stream
// owns the Oppfolgingstilfelle fields, each hendelse family owns exactly one
// of the Ubehandlet flags, and external subsystems own the opaque flags
// written through the FlagWriter contract. No writer ever replaces the
// aggregate wholesale.
type PersonOversiktStatus struct {
	FNR PersonIdent

	// Tildeling, assigned by the caseworker-assignment workflow (out of core scope).
	VeilederIdent *string
	TildeltEnhet  *string

	// Display metadata, lazily backfilled from external registries.
	// Never overwritten once non-nil except by an explicit correction.
	Navn         *string
	Fodselsdato  *time.Time

	// Unhandled flags, each owned by exactly one hendelse-type family.
	MotebehovUbehandlet                 bool
	OppfolgingsplanLPSBistandUbehandlet bool
	DialogmotesvarUbehandlet            bool
	BehandlerdialogUbehandlet           bool
	BehandlerBerOmBistandUbehandlet     bool

	// Opaque activity flags written by their owning subsystems via SetFlag.
	OppfolgingsoppgaveAktiv bool
	Dialogmotekandidat      bool
	SenOppfolgingKandidat   bool

	// Latest accepted tilfelle snapshot, nil until the first snapshot arrives.
	Tilfelle *Oppfolgingstilfelle
}

// BuildPersonOversiktStatus creates an empty aggregate for a previously-unseen person.
func BuildPersonOversiktStatus(fnr PersonIdent) PersonOversiktStatus {
	return PersonOversiktStatus{FNR: fnr}
}

// HasNavn reports whether display metadata backfill is still needed for the name.
func (s PersonOversiktStatus) HasNavn() bool {
	return s.Navn != nil && *s.Navn != ""
}

// HasFodselsdato reports whether display metadata backfill is still needed for the birthdate.
func (s PersonOversiktStatus) HasFodselsdato() bool {
	return s.Fodselsdato != nil
}

// Copy returns a deep copy so that readers never share mutable state with the store.
func (s PersonOversiktStatus) Copy() PersonOversiktStatus {
	out := s

	out.VeilederIdent = copyStringPtr(s.VeilederIdent)
	out.TildeltEnhet = copyStringPtr(s.TildeltEnhet)
	out.Navn = copyStringPtr(s.Navn)

	if s.Fodselsdato != nil {
		fodselsdato := *s.Fodselsdato
		out.Fodselsdato = &fodselsdato
	}

	if s.Tilfelle != nil {
		tilfelle := s.Tilfelle.Copy()
		out.Tilfelle = &tilfelle
	}

	return out
}

func copyStringPtr(p *string) *string {
	if p == nil {
		return nil
	}

	v := *p

	return &v
}
