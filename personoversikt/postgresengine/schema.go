package postgresengine

// Schema is the DDL the Store expects. Migration tooling is an external
// concern; the statement is exposed so operators and test harnesses can
// provision matching tables.
const Schema = `
CREATE TABLE IF NOT EXISTS person_oversikt_status (
    fnr                                    CHAR(11) PRIMARY KEY,
    veileder_ident                         TEXT,
    tildelt_enhet                          TEXT,
    navn                                   TEXT,
    fodselsdato                            DATE,
    motebehov_ubehandlet                   BOOLEAN NOT NULL DEFAULT FALSE,
    oppfolgingsplan_lps_bistand_ubehandlet BOOLEAN NOT NULL DEFAULT FALSE,
    dialogmotesvar_ubehandlet              BOOLEAN NOT NULL DEFAULT FALSE,
    behandlerdialog_ubehandlet             BOOLEAN NOT NULL DEFAULT FALSE,
    behandler_ber_om_bistand_ubehandlet    BOOLEAN NOT NULL DEFAULT FALSE,
    oppfolgingsoppgave_aktiv               BOOLEAN NOT NULL DEFAULT FALSE,
    dialogmotekandidat                     BOOLEAN NOT NULL DEFAULT FALSE,
    sen_oppfolging_kandidat                BOOLEAN NOT NULL DEFAULT FALSE,
    tilfelle_referanse_tidspunkt           TIMESTAMP WITH TIME ZONE,
    tilfelle_opprettet_tidspunkt           TIMESTAMP WITH TIME ZONE,
    tilfelle_fragment_id                   TEXT,
    tilfelle_arbeidstaker_at_end           BOOLEAN,
    tilfelle_start                         DATE,
    tilfelle_end                           DATE,
    tilfelle_antall_sykedager              INTEGER
);

CREATE TABLE IF NOT EXISTS person_oversikt_virksomhet (
    id                UUID PRIMARY KEY,
    fnr               CHAR(11) NOT NULL REFERENCES person_oversikt_status (fnr),
    virksomhetsnummer TEXT NOT NULL,
    navn              TEXT,
    knyttet_tidspunkt TIMESTAMP WITH TIME ZONE NOT NULL,
    sort_index        INTEGER NOT NULL,
    UNIQUE (fnr, virksomhetsnummer)
);

CREATE INDEX IF NOT EXISTS person_oversikt_virksomhet_fnr_idx
    ON person_oversikt_virksomhet (fnr);
`
