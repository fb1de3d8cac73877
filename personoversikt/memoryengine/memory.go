// Package memoryengine provides an in-memory implementation of the
// personoversikt storage contracts. It serializes writers per person with an
// entry-level mutex while operations on different persons proceed in
// parallel, mirroring the atomicity scope of the Postgres engine.
package memoryengine

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/navikt/syfooversiktsrv-go/personoversikt"
)

// Store is an in-memory aggregate repository. The zero value is not usable;
// construct it with NewStore.
type Store struct {
	mu      sync.RWMutex
	entries map[personoversikt.PersonIdent]*entry

	now func() time.Time
}

type entry struct {
	mu     sync.Mutex
	status personoversikt.PersonOversiktStatus
}

// Option defines a functional option for configuring the Store.
type Option func(*Store)

// WithClock overrides the time source, used by tests for deterministic
// association timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore creates an empty in-memory store.
func NewStore(options ...Option) *Store {
	s := &Store{
		entries: make(map[personoversikt.PersonIdent]*entry),
		now:     time.Now,
	}

	for _, option := range options {
		option(s)
	}

	return s
}

// Get returns a deep copy of the aggregate so callers never share state with the store.
func (s *Store) Get(_ context.Context, fnr personoversikt.PersonIdent) (personoversikt.PersonOversiktStatus, bool, error) {
	s.mu.RLock()
	e, found := s.entries[fnr]
	s.mu.RUnlock()

	if !found {
		return personoversikt.PersonOversiktStatus{}, false, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	return e.status.Copy(), true, nil
}

// CreateIfAbsent creates an empty aggregate unless one exists.
func (s *Store) CreateIfAbsent(_ context.Context, fnr personoversikt.PersonIdent) (personoversikt.PersonOversiktStatus, error) {
	e := s.entryFor(fnr)

	e.mu.Lock()
	defer e.mu.Unlock()

	return e.status.Copy(), nil
}

// ApplyTilfelleSnapshot runs the tie-break against the stored snapshot and,
// when accepted, the virksomhet set reconciliation, atomically for the person.
func (s *Store) ApplyTilfelleSnapshot(
	_ context.Context,
	fnr personoversikt.PersonIdent,
	tilfelle personoversikt.Oppfolgingstilfelle,
) (personoversikt.ApplyResult, error) {

	e := s.entryFor(fnr)

	e.mu.Lock()
	defer e.mu.Unlock()

	if !tilfelle.Supersedes(e.status.Tilfelle) {
		return personoversikt.ResultSkippedStale, nil
	}

	var persisted []personoversikt.Virksomhet
	if e.status.Tilfelle != nil {
		persisted = e.status.Tilfelle.Virksomheter
	}

	delta := personoversikt.ReconcileVirksomheter(persisted, virksomhetsnummer(tilfelle.Virksomheter), s.now())

	accepted := tilfelle.Copy()
	accepted.Virksomheter = delta.Ordered
	e.status.Tilfelle = &accepted

	return personoversikt.ResultApplied, nil
}

// ApplyHendelse mutates the flag owned by the hendelse family.
func (s *Store) ApplyHendelse(
	_ context.Context,
	fnr personoversikt.PersonIdent,
	hendelseType personoversikt.OversikthendelseType,
) (personoversikt.ApplyResult, error) {

	if !hendelseType.IsMottatt() {
		s.mu.RLock()
		_, found := s.entries[fnr]
		s.mu.RUnlock()

		if !found {
			return personoversikt.ResultNoop, nil
		}
	}

	e := s.entryFor(fnr)

	e.mu.Lock()
	defer e.mu.Unlock()

	personoversikt.ApplyHendelse(&e.status, hendelseType)

	return personoversikt.ResultApplied, nil
}

// SetFlag stores an opaque subsystem-owned flag value.
func (s *Store) SetFlag(_ context.Context, fnr personoversikt.PersonIdent, flag personoversikt.Flag, value bool) error {
	if !value {
		s.mu.RLock()
		_, found := s.entries[fnr]
		s.mu.RUnlock()

		if !found {
			return nil
		}
	}

	e := s.entryFor(fnr)

	e.mu.Lock()
	defer e.mu.Unlock()

	switch flag {
	case personoversikt.FlagOppfolgingsoppgaveAktiv:
		e.status.OppfolgingsoppgaveAktiv = value
	case personoversikt.FlagDialogmotekandidat:
		e.status.Dialogmotekandidat = value
	case personoversikt.FlagSenOppfolgingKandidat:
		e.status.SenOppfolgingKandidat = value
	}

	return nil
}

// ListMissingNavn returns identifiers of aggregates without a name, up to limit.
func (s *Store) ListMissingNavn(_ context.Context, limit int) ([]personoversikt.PersonIdent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idents := make([]personoversikt.PersonIdent, 0)
	for fnr, e := range s.entries {
		e.mu.Lock()
		missing := !e.status.HasNavn()
		e.mu.Unlock()

		if missing {
			idents = append(idents, fnr)
		}
	}

	sort.Slice(idents, func(i, j int) bool { return idents[i] < idents[j] })

	if limit > 0 && len(idents) > limit {
		idents = idents[:limit]
	}

	return idents, nil
}

// FillPersonInfo sets name and birthdate where they are currently missing.
func (s *Store) FillPersonInfo(
	_ context.Context,
	fnr personoversikt.PersonIdent,
	navn string,
	fodselsdato *time.Time,
) error {

	s.mu.RLock()
	e, found := s.entries[fnr]
	s.mu.RUnlock()

	if !found {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.status.HasNavn() && navn != "" {
		e.status.Navn = &navn
	}

	if !e.status.HasFodselsdato() && fodselsdato != nil {
		fd := *fodselsdato
		e.status.Fodselsdato = &fd
	}

	return nil
}

// ListVirksomheterMissingNavn returns associations without an employer name, up to limit.
func (s *Store) ListVirksomheterMissingNavn(_ context.Context, limit int) ([]personoversikt.Virksomhet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]personoversikt.Virksomhet, 0)
	for _, e := range s.entries {
		e.mu.Lock()
		if e.status.Tilfelle != nil {
			for _, v := range e.status.Tilfelle.Virksomheter {
				if v.Navn == nil {
					out = append(out, v.Copy())
				}
			}
		}
		e.mu.Unlock()
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Virksomhetsnummer < out[j].Virksomhetsnummer })

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}

	return out, nil
}

// FillVirksomhetsnavn sets the employer name on the association where it is missing.
func (s *Store) FillVirksomhetsnavn(_ context.Context, id uuid.UUID, navn string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, e := range s.entries {
		e.mu.Lock()
		if e.status.Tilfelle != nil {
			for i := range e.status.Tilfelle.Virksomheter {
				v := &e.status.Tilfelle.Virksomheter[i]
				if v.ID == id && v.Navn == nil {
					n := navn
					v.Navn = &n
				}
			}
		}
		e.mu.Unlock()
	}

	return nil
}

// entryFor returns the entry for the person, creating it if absent.
func (s *Store) entryFor(fnr personoversikt.PersonIdent) *entry {
	s.mu.RLock()
	e, found := s.entries[fnr]
	s.mu.RUnlock()

	if found {
		return e
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if e, found = s.entries[fnr]; found {
		return e
	}

	e = &entry{status: personoversikt.BuildPersonOversiktStatus(fnr)}
	s.entries[fnr] = e

	return e
}

func virksomhetsnummer(virksomheter []personoversikt.Virksomhet) []string {
	numbers := make([]string, 0, len(virksomheter))
	for _, v := range virksomheter {
		numbers = append(numbers, v.Virksomhetsnummer)
	}

	return numbers
}
