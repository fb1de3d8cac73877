package personoversikt

import "errors"

// ErrUnknownHendelseType is returned by the decoder for hendelse types outside the closed enum.
var ErrUnknownHendelseType = errors.New("unknown oversikthendelse type")

// OversikthendelseType enumerates the lifecycle hendelser. The type space is
// partitioned into families; each family has exactly a MOTTATT variant that
// raises its flag and a BEHANDLET variant that clears it. Families never
// cross-influence each other's flags, so hendelser for different families
// commute freely.
//
// Same-family hendelser are ordered by arrival, not by an embedded timestamp.
// The upstream hendelse stream carries no usable ordering key other than
// delivery order, unlike tilfelle snapshots which carry the
// (referanse, opprettet) pair.
type OversikthendelseType string

const (
	MotebehovSvarMottatt             OversikthendelseType = "MOTEBEHOV_SVAR_MOTTATT"
	MotebehovSvarBehandlet           OversikthendelseType = "MOTEBEHOV_SVAR_BEHANDLET"
	OppfolgingsplanLPSBistandMottatt OversikthendelseType = "OPPFOLGINGSPLANLPS_BISTAND_MOTTATT"
	OppfolgingsplanLPSBistandBehandlet OversikthendelseType = "OPPFOLGINGSPLANLPS_BISTAND_BEHANDLET"
	DialogmotesvarMottatt            OversikthendelseType = "DIALOGMOTESVAR_MOTTATT"
	DialogmotesvarBehandlet          OversikthendelseType = "DIALOGMOTESVAR_BEHANDLET"
	BehandlerdialogSvarMottatt       OversikthendelseType = "BEHANDLERDIALOG_SVAR_MOTTATT"
	BehandlerdialogSvarBehandlet     OversikthendelseType = "BEHANDLERDIALOG_SVAR_BEHANDLET"
	BehandlerBerOmBistandMottatt     OversikthendelseType = "BEHANDLER_BER_OM_BISTAND_MOTTATT"
	BehandlerBerOmBistandBehandlet   OversikthendelseType = "BEHANDLER_BER_OM_BISTAND_BEHANDLET"
)

// hendelseEffect describes what a hendelse type does to the aggregate:
// which flag cell it owns and whether it sets or clears it.
type hendelseEffect struct {
	flag func(*PersonOversiktStatus) *bool
	set  bool
}

// hendelseEffects is the exhaustive mapping table for the closed enum.
// Test_HendelseEffects_CoverAllTypes keeps it in sync with AllHendelseTypes.
var hendelseEffects = map[OversikthendelseType]hendelseEffect{
	MotebehovSvarMottatt:               {flag: motebehovFlag, set: true},
	MotebehovSvarBehandlet:             {flag: motebehovFlag, set: false},
	OppfolgingsplanLPSBistandMottatt:   {flag: oppfolgingsplanLPSFlag, set: true},
	OppfolgingsplanLPSBistandBehandlet: {flag: oppfolgingsplanLPSFlag, set: false},
	DialogmotesvarMottatt:              {flag: dialogmotesvarFlag, set: true},
	DialogmotesvarBehandlet:            {flag: dialogmotesvarFlag, set: false},
	BehandlerdialogSvarMottatt:         {flag: behandlerdialogFlag, set: true},
	BehandlerdialogSvarBehandlet:       {flag: behandlerdialogFlag, set: false},
	BehandlerBerOmBistandMottatt:       {flag: behandlerBerOmBistandFlag, set: true},
	BehandlerBerOmBistandBehandlet:     {flag: behandlerBerOmBistandFlag, set: false},
}

func motebehovFlag(s *PersonOversiktStatus) *bool             { return &s.MotebehovUbehandlet }
func oppfolgingsplanLPSFlag(s *PersonOversiktStatus) *bool    { return &s.OppfolgingsplanLPSBistandUbehandlet }
func dialogmotesvarFlag(s *PersonOversiktStatus) *bool        { return &s.DialogmotesvarUbehandlet }
func behandlerdialogFlag(s *PersonOversiktStatus) *bool       { return &s.BehandlerdialogUbehandlet }
func behandlerBerOmBistandFlag(s *PersonOversiktStatus) *bool { return &s.BehandlerBerOmBistandUbehandlet }

// AllHendelseTypes lists every member of the closed enum.
func AllHendelseTypes() []OversikthendelseType {
	return []OversikthendelseType{
		MotebehovSvarMottatt,
		MotebehovSvarBehandlet,
		OppfolgingsplanLPSBistandMottatt,
		OppfolgingsplanLPSBistandBehandlet,
		DialogmotesvarMottatt,
		DialogmotesvarBehandlet,
		BehandlerdialogSvarMottatt,
		BehandlerdialogSvarBehandlet,
		BehandlerBerOmBistandMottatt,
		BehandlerBerOmBistandBehandlet,
	}
}

// Known reports whether the type is a member of the closed enum.
func (t OversikthendelseType) Known() bool {
	_, found := hendelseEffects[t]

	return found
}

// IsMottatt reports whether the type is the flag-raising member of its family.
// MOTTATT hendelser create the aggregate for previously-unseen persons;
// BEHANDLET hendelser never do.
func (t OversikthendelseType) IsMottatt() bool {
	effect, found := hendelseEffects[t]

	return found && effect.set
}

// ApplyHendelse mutates the aggregate's flag cell owned by the hendelse family.
//
// It is a total function over the closed enum: it only sets or clears the
// owning flag and leaves every other field unchanged, so applying the same
// hendelse twice is a no-op. Unknown types are rejected at the decode
// boundary and leave the aggregate untouched here.
func ApplyHendelse(status *PersonOversiktStatus, hendelseType OversikthendelseType) {
	effect, found := hendelseEffects[hendelseType]
	if !found {
		return
	}

	*effect.flag(status) = effect.set
}
