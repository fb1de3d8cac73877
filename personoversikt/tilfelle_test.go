package personoversikt_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/navikt/syfooversiktsrv-go/personoversikt"
)

func tilfelleAt(referanse, opprettet time.Time) personoversikt.Oppfolgingstilfelle {
	return personoversikt.Oppfolgingstilfelle{
		ReferanseTidspunkt: referanse,
		OpprettetTidspunkt: opprettet,
	}
}

func Test_NewerTilfelle_Ordering(t *testing.T) {
	t1 := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	t2 := time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC)
	t3 := time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC)
	t5 := time.Date(2025, 3, 5, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		candidate personoversikt.Oppfolgingstilfelle
		current   personoversikt.Oppfolgingstilfelle
		newer     bool
	}{
		{
			name:      "later_referanse_wins",
			candidate: tilfelleAt(t2, t1),
			current:   tilfelleAt(t1, t3),
			newer:     true,
		},
		{
			name:      "earlier_referanse_loses_regardless_of_opprettet",
			candidate: tilfelleAt(t1, t5),
			current:   tilfelleAt(t2, t1),
			newer:     false,
		},
		{
			name:      "equal_referanse_later_opprettet_wins",
			candidate: tilfelleAt(t1, t5),
			current:   tilfelleAt(t1, t3),
			newer:     true,
		},
		{
			name:      "equal_referanse_earlier_opprettet_loses",
			candidate: tilfelleAt(t1, t2),
			current:   tilfelleAt(t1, t3),
			newer:     false,
		},
		{
			name:      "equal_pair_is_not_newer",
			candidate: tilfelleAt(t1, t3),
			current:   tilfelleAt(t1, t3),
			newer:     false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.newer, personoversikt.NewerTilfelle(tc.candidate, tc.current))
		})
	}
}

func Test_NewerTilfelle_IsAntisymmetricForDistinctPairs(t *testing.T) {
	t1 := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	t2 := time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC)

	a := tilfelleAt(t1, t2)
	b := tilfelleAt(t2, t1)

	assert.True(t, personoversikt.NewerTilfelle(b, a))
	assert.False(t, personoversikt.NewerTilfelle(a, b))
}

func Test_Supersedes_NilStoredAlwaysAccepted(t *testing.T) {
	candidate := tilfelleAt(
		time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
	)

	assert.True(t, candidate.Supersedes(nil))
}

func Test_Supersedes_EqualPairIsRejected(t *testing.T) {
	referanse := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	opprettet := time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC)

	stored := tilfelleAt(referanse, opprettet)
	candidate := tilfelleAt(referanse, opprettet)

	assert.False(t, candidate.Supersedes(&stored))
}

func Test_Oppfolgingstilfelle_CopyIsIndependent(t *testing.T) {
	antall := 12
	navn := "Eple AS"

	original := personoversikt.Oppfolgingstilfelle{
		ReferanseTidspunkt: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
		OpprettetTidspunkt: time.Date(2025, 3, 1, 11, 0, 0, 0, time.UTC),
		AntallSykedager:    &antall,
		Virksomheter: []personoversikt.Virksomhet{
			{Virksomhetsnummer: "912345678", Navn: &navn},
		},
	}

	copied := original.Copy()

	*copied.AntallSykedager = 99
	*copied.Virksomheter[0].Navn = "changed"
	copied.Virksomheter[0].Virksomhetsnummer = "000000000"

	assert.Equal(t, 12, *original.AntallSykedager)
	assert.Equal(t, "Eple AS", *original.Virksomheter[0].Navn)
	assert.Equal(t, "912345678", original.Virksomheter[0].Virksomhetsnummer)
}
