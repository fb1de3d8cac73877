package reconciler

import (
	"github.com/navikt/syfooversiktsrv-go/personoversikt"
)

// batch is the decoded content of one poll, split by event kind. Tilfelle
// snapshots are collapsed to one winner per person; all other events keep
// their arrival order.
type batch struct {
	tilfeller []personoversikt.TilfelleEvent
	rest      []personoversikt.StreamEvent
}

// addTilfelle folds a snapshot into the per-person winner using the same
// tie-break that is later applied against the persisted state. The surviving
// snapshot of each person keeps the position of that person's first
// occurrence, so the overall apply order stays deterministic.
func (b *batch) addTilfelle(event personoversikt.TilfelleEvent) {
	for i, existing := range b.tilfeller {
		if existing.FNR != event.FNR {
			continue
		}

		if personoversikt.NewerTilfelle(event.Tilfelle, existing.Tilfelle) {
			b.tilfeller[i] = event
		}

		return
	}

	b.tilfeller = append(b.tilfeller, event)
}

func (b *batch) add(event personoversikt.StreamEvent) {
	if tilfelle, ok := event.(personoversikt.TilfelleEvent); ok {
		b.addTilfelle(tilfelle)
		return
	}

	b.rest = append(b.rest, event)
}

func (b *batch) empty() bool {
	return len(b.tilfeller) == 0 && len(b.rest) == 0
}
