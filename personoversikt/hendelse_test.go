package personoversikt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navikt/syfooversiktsrv-go/personoversikt"
)

func Test_HendelseEffects_CoverAllTypes(t *testing.T) {
	for _, hendelseType := range personoversikt.AllHendelseTypes() {
		assert.True(t, hendelseType.Known(), "type %s must be known", hendelseType)
	}

	assert.False(t, personoversikt.OversikthendelseType("SOMETHING_ELSE").Known())
}

func Test_ApplyHendelse_MottattSetsAndBehandletClears(t *testing.T) {
	tests := []struct {
		name      string
		mottatt   personoversikt.OversikthendelseType
		behandlet personoversikt.OversikthendelseType
		flag      func(personoversikt.PersonOversiktStatus) bool
	}{
		{
			name:      "motebehov",
			mottatt:   personoversikt.MotebehovSvarMottatt,
			behandlet: personoversikt.MotebehovSvarBehandlet,
			flag:      func(s personoversikt.PersonOversiktStatus) bool { return s.MotebehovUbehandlet },
		},
		{
			name:      "oppfolgingsplan_lps",
			mottatt:   personoversikt.OppfolgingsplanLPSBistandMottatt,
			behandlet: personoversikt.OppfolgingsplanLPSBistandBehandlet,
			flag:      func(s personoversikt.PersonOversiktStatus) bool { return s.OppfolgingsplanLPSBistandUbehandlet },
		},
		{
			name:      "dialogmotesvar",
			mottatt:   personoversikt.DialogmotesvarMottatt,
			behandlet: personoversikt.DialogmotesvarBehandlet,
			flag:      func(s personoversikt.PersonOversiktStatus) bool { return s.DialogmotesvarUbehandlet },
		},
		{
			name:      "behandlerdialog",
			mottatt:   personoversikt.BehandlerdialogSvarMottatt,
			behandlet: personoversikt.BehandlerdialogSvarBehandlet,
			flag:      func(s personoversikt.PersonOversiktStatus) bool { return s.BehandlerdialogUbehandlet },
		},
		{
			name:      "behandler_ber_om_bistand",
			mottatt:   personoversikt.BehandlerBerOmBistandMottatt,
			behandlet: personoversikt.BehandlerBerOmBistandBehandlet,
			flag:      func(s personoversikt.PersonOversiktStatus) bool { return s.BehandlerBerOmBistandUbehandlet },
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			status := personoversikt.BuildPersonOversiktStatus("12345678901")

			personoversikt.ApplyHendelse(&status, tc.mottatt)
			assert.True(t, tc.flag(status))

			personoversikt.ApplyHendelse(&status, tc.behandlet)
			assert.False(t, tc.flag(status))
		})
	}
}

func Test_ApplyHendelse_FamiliesAreIndependent(t *testing.T) {
	status := personoversikt.BuildPersonOversiktStatus("12345678901")

	personoversikt.ApplyHendelse(&status, personoversikt.MotebehovSvarMottatt)
	personoversikt.ApplyHendelse(&status, personoversikt.DialogmotesvarMottatt)

	personoversikt.ApplyHendelse(&status, personoversikt.MotebehovSvarBehandlet)

	assert.False(t, status.MotebehovUbehandlet)
	assert.True(t, status.DialogmotesvarUbehandlet)
	assert.False(t, status.OppfolgingsplanLPSBistandUbehandlet)
	assert.False(t, status.BehandlerdialogUbehandlet)
	assert.False(t, status.BehandlerBerOmBistandUbehandlet)
}

func Test_ApplyHendelse_IsIdempotent(t *testing.T) {
	status := personoversikt.BuildPersonOversiktStatus("12345678901")

	personoversikt.ApplyHendelse(&status, personoversikt.MotebehovSvarMottatt)
	personoversikt.ApplyHendelse(&status, personoversikt.MotebehovSvarMottatt)

	assert.True(t, status.MotebehovUbehandlet)

	personoversikt.ApplyHendelse(&status, personoversikt.MotebehovSvarBehandlet)
	personoversikt.ApplyHendelse(&status, personoversikt.MotebehovSvarBehandlet)

	assert.False(t, status.MotebehovUbehandlet)
}

func Test_ApplyHendelse_BehandletBeforeMottattStaysCleared(t *testing.T) {
	status := personoversikt.BuildPersonOversiktStatus("12345678901")

	personoversikt.ApplyHendelse(&status, personoversikt.MotebehovSvarBehandlet)

	assert.False(t, status.MotebehovUbehandlet)
}

func Test_ApplyHendelse_LeavesOtherFieldsUntouched(t *testing.T) {
	veileder := "Z999999"

	status := personoversikt.BuildPersonOversiktStatus("12345678901")
	status.VeilederIdent = &veileder
	status.Dialogmotekandidat = true

	personoversikt.ApplyHendelse(&status, personoversikt.BehandlerdialogSvarMottatt)

	require.NotNil(t, status.VeilederIdent)
	assert.Equal(t, "Z999999", *status.VeilederIdent)
	assert.True(t, status.Dialogmotekandidat)
}

func Test_IsMottatt_PartitionsTheEnum(t *testing.T) {
	mottatt := 0

	for _, hendelseType := range personoversikt.AllHendelseTypes() {
		if hendelseType.IsMottatt() {
			mottatt++
		}
	}

	assert.Equal(t, len(personoversikt.AllHendelseTypes())/2, mottatt)
	assert.False(t, personoversikt.OversikthendelseType("SOMETHING_ELSE").IsMottatt())
}
