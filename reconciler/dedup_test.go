package reconciler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navikt/syfooversiktsrv-go/personoversikt"
)

func tilfelleEvent(fnr personoversikt.PersonIdent, referanse, opprettet time.Time) personoversikt.TilfelleEvent {
	return personoversikt.TilfelleEvent{
		FNR: fnr,
		Tilfelle: personoversikt.Oppfolgingstilfelle{
			ReferanseTidspunkt: referanse,
			OpprettetTidspunkt: opprettet,
		},
	}
}

func Test_Batch_CollapsesTilfellerPerPerson(t *testing.T) {
	t1 := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	t2 := time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC)
	t3 := time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC)

	var b batch
	b.add(tilfelleEvent("12345678901", t1, t1))
	b.add(tilfelleEvent("12345678901", t3, t1))
	b.add(tilfelleEvent("12345678901", t2, t2))
	b.add(tilfelleEvent("10987654321", t1, t1))

	require.Len(t, b.tilfeller, 2)

	assert.Equal(t, personoversikt.PersonIdent("12345678901"), b.tilfeller[0].FNR)
	assert.Equal(t, t3, b.tilfeller[0].Tilfelle.ReferanseTidspunkt)
	assert.Equal(t, personoversikt.PersonIdent("10987654321"), b.tilfeller[1].FNR)
}

func Test_Batch_WinnerIsPermutationIndependent(t *testing.T) {
	t1 := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	t2 := time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC)
	t3 := time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC)

	events := []personoversikt.TilfelleEvent{
		tilfelleEvent("12345678901", t1, t3),
		tilfelleEvent("12345678901", t2, t1),
		tilfelleEvent("12345678901", t1, t2),
	}

	permutations := [][]int{
		{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0},
	}

	for _, permutation := range permutations {
		var b batch
		for _, i := range permutation {
			b.add(events[i])
		}

		require.Len(t, b.tilfeller, 1)
		assert.Equal(t, t2, b.tilfeller[0].Tilfelle.ReferanseTidspunkt)
		assert.Equal(t, t1, b.tilfeller[0].Tilfelle.OpprettetTidspunkt)
	}
}

func Test_Batch_EqualPairKeepsFirstSeen(t *testing.T) {
	referanse := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	first := tilfelleEvent("12345678901", referanse, referanse)
	first.Tilfelle.FragmentID = "first"

	second := tilfelleEvent("12345678901", referanse, referanse)
	second.Tilfelle.FragmentID = "second"

	var b batch
	b.add(first)
	b.add(second)

	require.Len(t, b.tilfeller, 1)
	assert.Equal(t, "first", b.tilfeller[0].Tilfelle.FragmentID)
}

func Test_Batch_NonTilfelleEventsKeepArrivalOrder(t *testing.T) {
	var b batch

	b.add(personoversikt.HendelseEvent{FNR: "12345678901", HendelseType: personoversikt.MotebehovSvarMottatt})
	b.add(tilfelleEvent("12345678901", time.Now(), time.Now()))
	b.add(personoversikt.KandidatEvent{FNR: "12345678901", Kandidat: true})
	b.add(personoversikt.HendelseEvent{FNR: "12345678901", HendelseType: personoversikt.MotebehovSvarBehandlet})

	require.Len(t, b.rest, 3)

	hendelse1, ok := b.rest[0].(personoversikt.HendelseEvent)
	require.True(t, ok)
	assert.Equal(t, personoversikt.MotebehovSvarMottatt, hendelse1.HendelseType)

	_, ok = b.rest[1].(personoversikt.KandidatEvent)
	require.True(t, ok)

	hendelse2, ok := b.rest[2].(personoversikt.HendelseEvent)
	require.True(t, ok)
	assert.Equal(t, personoversikt.MotebehovSvarBehandlet, hendelse2.HendelseType)
}

func Test_Batch_Empty(t *testing.T) {
	var b batch
	assert.True(t, b.empty())

	b.add(personoversikt.KandidatEvent{FNR: "12345678901", Kandidat: true})
	assert.False(t, b.empty())
}
