package memoryengine_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navikt/syfooversiktsrv-go/personoversikt"
	"github.com/navikt/syfooversiktsrv-go/personoversikt/memoryengine"
)

const testFNR = personoversikt.PersonIdent("12345678901")

func snapshotAt(referanse, opprettet time.Time, numbers ...string) personoversikt.Oppfolgingstilfelle {
	virksomheter := make([]personoversikt.Virksomhet, 0, len(numbers))
	for _, number := range numbers {
		virksomheter = append(virksomheter, personoversikt.Virksomhet{Virksomhetsnummer: number})
	}

	return personoversikt.Oppfolgingstilfelle{
		ReferanseTidspunkt: referanse,
		OpprettetTidspunkt: opprettet,
		Virksomheter:       virksomheter,
	}
}

func Test_Store_GetUnknownPersonReportsNotFound(t *testing.T) {
	store := memoryengine.NewStore()

	_, found, err := store.Get(context.Background(), testFNR)

	require.NoError(t, err)
	assert.False(t, found)
}

func Test_Store_CreateIfAbsentIsIdempotent(t *testing.T) {
	store := memoryengine.NewStore()
	ctx := context.Background()

	first, err := store.CreateIfAbsent(ctx, testFNR)
	require.NoError(t, err)

	_, applyErr := store.ApplyHendelse(ctx, testFNR, personoversikt.MotebehovSvarMottatt)
	require.NoError(t, applyErr)

	second, err := store.CreateIfAbsent(ctx, testFNR)
	require.NoError(t, err)

	assert.False(t, first.MotebehovUbehandlet)
	assert.True(t, second.MotebehovUbehandlet, "second create must return the existing aggregate")
}

func Test_Store_ApplyTilfelleSnapshot_FirstSnapshotIsApplied(t *testing.T) {
	store := memoryengine.NewStore()
	ctx := context.Background()

	referanse := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	result, err := store.ApplyTilfelleSnapshot(ctx, testFNR, snapshotAt(referanse, referanse, "911111111"))
	require.NoError(t, err)
	assert.Equal(t, personoversikt.ResultApplied, result)

	status, found, err := store.Get(ctx, testFNR)
	require.NoError(t, err)
	require.True(t, found)
	require.NotNil(t, status.Tilfelle)

	assert.Equal(t, referanse, status.Tilfelle.ReferanseTidspunkt)
	require.Len(t, status.Tilfelle.Virksomheter, 1)
	assert.Equal(t, "911111111", status.Tilfelle.Virksomheter[0].Virksomhetsnummer)
}

func Test_Store_ApplyTilfelleSnapshot_StaleSnapshotIsSkipped(t *testing.T) {
	store := memoryengine.NewStore()
	ctx := context.Background()

	t1 := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	t2 := time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC)
	t5 := time.Date(2025, 3, 5, 10, 0, 0, 0, time.UTC)

	_, err := store.ApplyTilfelleSnapshot(ctx, testFNR, snapshotAt(t2, t1, "911111111"))
	require.NoError(t, err)

	// earlier referanse loses even with a much later opprettet
	result, err := store.ApplyTilfelleSnapshot(ctx, testFNR, snapshotAt(t1, t5, "922222222"))
	require.NoError(t, err)
	assert.Equal(t, personoversikt.ResultSkippedStale, result)

	status, _, err := store.Get(ctx, testFNR)
	require.NoError(t, err)
	require.Len(t, status.Tilfelle.Virksomheter, 1)
	assert.Equal(t, "911111111", status.Tilfelle.Virksomheter[0].Virksomhetsnummer)
}

func Test_Store_ApplyTilfelleSnapshot_ExactRedeliveryIsSkipped(t *testing.T) {
	store := memoryengine.NewStore()
	ctx := context.Background()

	referanse := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	opprettet := time.Date(2025, 3, 1, 10, 5, 0, 0, time.UTC)

	_, err := store.ApplyTilfelleSnapshot(ctx, testFNR, snapshotAt(referanse, opprettet, "911111111"))
	require.NoError(t, err)

	result, err := store.ApplyTilfelleSnapshot(ctx, testFNR, snapshotAt(referanse, opprettet, "911111111"))
	require.NoError(t, err)
	assert.Equal(t, personoversikt.ResultSkippedStale, result)
}

func Test_Store_ApplyTilfelleSnapshot_OutcomeIsOrderIndependent(t *testing.T) {
	t1 := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	t2 := time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC)

	older := snapshotAt(t1, t1, "911111111")
	newer := snapshotAt(t2, t1, "922222222")

	orders := [][]personoversikt.Oppfolgingstilfelle{
		{older, newer},
		{newer, older},
	}

	for _, order := range orders {
		store := memoryengine.NewStore()
		ctx := context.Background()

		for _, snapshot := range order {
			_, err := store.ApplyTilfelleSnapshot(ctx, testFNR, snapshot)
			require.NoError(t, err)
		}

		status, _, err := store.Get(ctx, testFNR)
		require.NoError(t, err)
		require.NotNil(t, status.Tilfelle)
		assert.Equal(t, t2, status.Tilfelle.ReferanseTidspunkt)
		require.Len(t, status.Tilfelle.Virksomheter, 1)
		assert.Equal(t, "922222222", status.Tilfelle.Virksomheter[0].Virksomhetsnummer)
	}
}

func Test_Store_ApplyTilfelleSnapshot_PreservesVirksomhetIdentityAcrossSnapshots(t *testing.T) {
	store := memoryengine.NewStore()
	ctx := context.Background()

	t1 := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	t2 := time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC)

	_, err := store.ApplyTilfelleSnapshot(ctx, testFNR, snapshotAt(t1, t1, "911111111", "922222222"))
	require.NoError(t, err)

	before, _, err := store.Get(ctx, testFNR)
	require.NoError(t, err)
	require.Len(t, before.Tilfelle.Virksomheter, 2)

	keptID := before.Tilfelle.Virksomheter[1].ID
	keptKnyttet := before.Tilfelle.Virksomheter[1].KnyttetTidspunkt

	_, err = store.ApplyTilfelleSnapshot(ctx, testFNR, snapshotAt(t2, t2, "922222222", "933333333"))
	require.NoError(t, err)

	after, _, err := store.Get(ctx, testFNR)
	require.NoError(t, err)
	require.Len(t, after.Tilfelle.Virksomheter, 2)

	assert.Equal(t, "922222222", after.Tilfelle.Virksomheter[0].Virksomhetsnummer)
	assert.Equal(t, keptID, after.Tilfelle.Virksomheter[0].ID)
	assert.Equal(t, keptKnyttet, after.Tilfelle.Virksomheter[0].KnyttetTidspunkt)

	assert.Equal(t, "933333333", after.Tilfelle.Virksomheter[1].Virksomhetsnummer)
	assert.NotEqual(t, keptID, after.Tilfelle.Virksomheter[1].ID)
}

func Test_Store_ApplyHendelse_MottattCreatesAggregate(t *testing.T) {
	store := memoryengine.NewStore()
	ctx := context.Background()

	result, err := store.ApplyHendelse(ctx, testFNR, personoversikt.MotebehovSvarMottatt)
	require.NoError(t, err)
	assert.Equal(t, personoversikt.ResultApplied, result)

	status, found, err := store.Get(ctx, testFNR)
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, status.MotebehovUbehandlet)
}

func Test_Store_ApplyHendelse_BehandletForUnknownPersonIsNoop(t *testing.T) {
	store := memoryengine.NewStore()
	ctx := context.Background()

	result, err := store.ApplyHendelse(ctx, testFNR, personoversikt.MotebehovSvarBehandlet)
	require.NoError(t, err)
	assert.Equal(t, personoversikt.ResultNoop, result)

	_, found, err := store.Get(ctx, testFNR)
	require.NoError(t, err)
	assert.False(t, found, "a BEHANDLET hendelse must not create a phantom aggregate")
}

func Test_Store_SetFlag_TrueCreatesAggregate(t *testing.T) {
	store := memoryengine.NewStore()
	ctx := context.Background()

	err := store.SetFlag(ctx, testFNR, personoversikt.FlagDialogmotekandidat, true)
	require.NoError(t, err)

	status, found, err := store.Get(ctx, testFNR)
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, status.Dialogmotekandidat)
}

func Test_Store_SetFlag_FalseForUnknownPersonIsNoop(t *testing.T) {
	store := memoryengine.NewStore()
	ctx := context.Background()

	err := store.SetFlag(ctx, testFNR, personoversikt.FlagDialogmotekandidat, false)
	require.NoError(t, err)

	_, found, err := store.Get(ctx, testFNR)
	require.NoError(t, err)
	assert.False(t, found)
}

func Test_Store_Backfill_FillsOnlyMissingMetadata(t *testing.T) {
	store := memoryengine.NewStore()
	ctx := context.Background()

	other := personoversikt.PersonIdent("10987654321")

	_, err := store.CreateIfAbsent(ctx, testFNR)
	require.NoError(t, err)
	_, err = store.CreateIfAbsent(ctx, other)
	require.NoError(t, err)

	fodselsdato := time.Date(1984, 6, 15, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.FillPersonInfo(ctx, testFNR, "Kari Nordmann", &fodselsdato))

	missing, err := store.ListMissingNavn(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []personoversikt.PersonIdent{other}, missing)

	// a second fill must not overwrite
	require.NoError(t, store.FillPersonInfo(ctx, testFNR, "Ola Nordmann", nil))

	status, _, err := store.Get(ctx, testFNR)
	require.NoError(t, err)
	require.NotNil(t, status.Navn)
	assert.Equal(t, "Kari Nordmann", *status.Navn)
}

func Test_Store_Backfill_FillsVirksomhetsnavn(t *testing.T) {
	store := memoryengine.NewStore()
	ctx := context.Background()

	referanse := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	_, err := store.ApplyTilfelleSnapshot(ctx, testFNR, snapshotAt(referanse, referanse, "911111111"))
	require.NoError(t, err)

	missing, err := store.ListVirksomheterMissingNavn(ctx, 10)
	require.NoError(t, err)
	require.Len(t, missing, 1)

	require.NoError(t, store.FillVirksomhetsnavn(ctx, missing[0].ID, "Eple AS"))

	missingAfter, err := store.ListVirksomheterMissingNavn(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, missingAfter)

	status, _, err := store.Get(ctx, testFNR)
	require.NoError(t, err)
	require.NotNil(t, status.Tilfelle.Virksomheter[0].Navn)
	assert.Equal(t, "Eple AS", *status.Tilfelle.Virksomheter[0].Navn)
}

func Test_Store_GetReturnsIndependentCopy(t *testing.T) {
	store := memoryengine.NewStore()
	ctx := context.Background()

	referanse := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	_, err := store.ApplyTilfelleSnapshot(ctx, testFNR, snapshotAt(referanse, referanse, "911111111"))
	require.NoError(t, err)

	first, _, err := store.Get(ctx, testFNR)
	require.NoError(t, err)

	first.Tilfelle.Virksomheter[0].Virksomhetsnummer = "mutated"

	second, _, err := store.Get(ctx, testFNR)
	require.NoError(t, err)
	assert.Equal(t, "911111111", second.Tilfelle.Virksomheter[0].Virksomhetsnummer)
}
