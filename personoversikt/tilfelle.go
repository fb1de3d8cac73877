package personoversikt

import "time"

// Oppfolgingstilfelle is the latest accepted sick-leave episode snapshot for a person.
//
// ReferanseTidspunkt says when the episode fragment occurred in the business
// timeline, OpprettetTidspunkt when the producing system created the record.
// Together they form the ordering key used by the tie-break rule.
type Oppfolgingstilfelle struct {
	ReferanseTidspunkt        time.Time
	OpprettetTidspunkt        time.Time
	FragmentID                string
	ArbeidstakerAtTilfelleEnd bool
	Start                     time.Time
	End                       time.Time
	AntallSykedager           *int
	Virksomheter              []Virksomhet
}

// Copy returns a deep copy of the snapshot.
func (t Oppfolgingstilfelle) Copy() Oppfolgingstilfelle {
	out := t

	if t.AntallSykedager != nil {
		antall := *t.AntallSykedager
		out.AntallSykedager = &antall
	}

	if t.Virksomheter != nil {
		out.Virksomheter = make([]Virksomhet, len(t.Virksomheter))
		for i, v := range t.Virksomheter {
			out.Virksomheter[i] = v.Copy()
		}
	}

	return out
}

// NewerTilfelle is the tie-break comparator deciding which of two conflicting
// snapshots for the same person is authoritative.
//
// The ordering is lexicographic: ReferanseTidspunkt first, OpprettetTidspunkt
// as tie-break, and only a strictly greater pair wins. An equal pair is an
// exact redelivery, so the current record wins and applying the candidate is
// a no-op. The same function is used within a poll batch and against the
// persisted snapshot, which makes the outcome independent of whether
// conflicting records arrive in the same poll or in different polls.
func NewerTilfelle(candidate Oppfolgingstilfelle, current Oppfolgingstilfelle) bool {
	if candidate.ReferanseTidspunkt.After(current.ReferanseTidspunkt) {
		return true
	}

	if candidate.ReferanseTidspunkt.Before(current.ReferanseTidspunkt) {
		return false
	}

	return candidate.OpprettetTidspunkt.After(current.OpprettetTidspunkt)
}

// Supersedes reports whether the candidate snapshot must replace the stored
// one. A candidate for a person with no stored snapshot is always accepted.
func (t Oppfolgingstilfelle) Supersedes(stored *Oppfolgingstilfelle) bool {
	if stored == nil {
		return true
	}

	return NewerTilfelle(t, *stored)
}
