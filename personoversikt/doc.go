// Package personoversikt provides the core abstractions and pure functions
// for folding several independent, unordered, at-least-once delivered event
// streams into one canonical per-person sick-leave follow-up aggregate.
//
// The package defines the aggregate (PersonOversiktStatus), the deterministic
// tie-break comparator for conflicting tilfelle snapshots (NewerTilfelle),
// the identifier-keyed employer-association set reconciliation
// (ReconcileVirksomheter), the hendelse-to-flag state machine
// (ApplyHendelse), the record decoder (DecodeRecord), and the Repository
// contract implemented by the storage engines.
//
// Key types:
//   - PersonOversiktStatus: the canonical per-person aggregate
//   - Oppfolgingstilfelle: the latest accepted episode snapshot
//   - OversikthendelseType: closed enum of lifecycle hendelser
//   - Repository / FlagWriter / BackfillStore: storage contracts
//
// Engines live in subpackages:
//   - memoryengine: in-memory Repository for tests and single-process use
//   - postgresengine: Postgres Repository with per-person transactional atomicity
//
// All comparator, reconciliation and state machine functions are pure and
// deterministic, so applying the same record twice, or applying conflicting
// records in any order, converges to the same aggregate state.
package personoversikt
