package personoversikt

import (
	"time"

	"github.com/google/uuid"
)

// Virksomhet is an employer association on a person's episode, identified by
// the employer number. The ID is the stable identifier downstream consumers
// hold references to; it must survive reconciliation for associations that
// are present in consecutive snapshots.
type Virksomhet struct {
	ID                uuid.UUID
	Virksomhetsnummer string
	Navn              *string
	KnyttetTidspunkt  time.Time
}

// Copy returns a copy with an independent Navn pointer.
func (v Virksomhet) Copy() Virksomhet {
	out := v
	out.Navn = copyStringPtr(v.Navn)

	return out
}

// VirksomhetDelta is the minimal set of operations transforming a persisted
// association list into the one implied by an accepted snapshot.
//
// Ordered is the full resulting list in snapshot order, with preserved
// associations carrying their original ID, Navn and KnyttetTidspunkt.
type VirksomhetDelta struct {
	Create    []Virksomhet
	DeleteIDs []uuid.UUID
	Ordered   []Virksomhet
}

// ReconcileVirksomheter computes the add/remove delta between the persisted
// association list and the snapshot's employer numbers.
//
// The diff is keyed by employer number, never by position: associations whose
// number is absent from the snapshot are deleted by their stable ID,
// numbers absent from the persisted list get fresh associations, and numbers
// present in both are left untouched so their identity survives.
func ReconcileVirksomheter(persisted []Virksomhet, snapshotNumbers []string, now time.Time) VirksomhetDelta {
	persistedByNumber := make(map[string]Virksomhet, len(persisted))
	for _, v := range persisted {
		persistedByNumber[v.Virksomhetsnummer] = v
	}

	wanted := make(map[string]struct{}, len(snapshotNumbers))

	delta := VirksomhetDelta{
		Ordered: make([]Virksomhet, 0, len(snapshotNumbers)),
	}

	for _, number := range snapshotNumbers {
		if _, duplicate := wanted[number]; duplicate {
			continue
		}
		wanted[number] = struct{}{}

		if existing, found := persistedByNumber[number]; found {
			delta.Ordered = append(delta.Ordered, existing.Copy())
			continue
		}

		created := Virksomhet{
			ID:                uuid.New(),
			Virksomhetsnummer: number,
			KnyttetTidspunkt:  ToTidspunkt(now),
		}
		delta.Create = append(delta.Create, created)
		delta.Ordered = append(delta.Ordered, created)
	}

	for _, v := range persisted {
		if _, stillWanted := wanted[v.Virksomhetsnummer]; !stillWanted {
			delta.DeleteIDs = append(delta.DeleteIDs, v.ID)
		}
	}

	return delta
}
