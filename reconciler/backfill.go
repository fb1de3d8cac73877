package reconciler

import (
	"context"
	"errors"
	"time"

	"github.com/navikt/syfooversiktsrv-go/personoversikt"
)

const (
	defaultBackfillBatchSize = 50
	defaultBackfillInterval  = 10 * time.Minute
)

var (
	ErrNilBackfillStore = errors.New("backfill store must not be nil")
	ErrNilPersonLookup  = errors.New("person info lookup must not be nil")
)

const (
	logMsgListMissingFailed     = "listing aggregates missing navn failed"
	logMsgPersonLookupFailed    = "person info lookup failed, skipping"
	logMsgFillPersonFailed      = "filling person info failed"
	logMsgVirksomhetListFailed  = "listing virksomheter missing navn failed"
	logMsgVirksomhetLookupFailed = "virksomhetsnavn lookup failed, skipping"
	logMsgFillVirksomhetFailed  = "filling virksomhetsnavn failed"
	logMsgBackfillPassDone      = "backfill pass done"
	logMsgBackfillStopped       = "backfill service stopped"

	logAttrFilled            = "filled"
	logAttrVirksomhetID      = "virksomhetID"
	logAttrVirksomhetsnummer = "virksomhetsnummer"
)

// Backfiller lazily fills display metadata (person name and birthdate,
// employer names) on aggregates where it is missing. Lookup failures for one
// entry never block the rest of the pass; the entry stays unfilled and is
// picked up again on a later pass.
type Backfiller struct {
	store        personoversikt.BackfillStore
	persons      personoversikt.PersonInfoLookup
	virksomheter personoversikt.VirksomhetsnavnLookup
	logger       personoversikt.Logger

	batchSize int
	interval  time.Duration
}

// BackfillOption configures optional Backfiller behaviour.
type BackfillOption func(*Backfiller)

// WithBackfillBatchSize caps how many missing entries one pass handles per kind.
func WithBackfillBatchSize(size int) BackfillOption {
	return func(b *Backfiller) {
		if size > 0 {
			b.batchSize = size
		}
	}
}

// WithBackfillInterval sets the pause between passes in Run.
func WithBackfillInterval(interval time.Duration) BackfillOption {
	return func(b *Backfiller) {
		if interval > 0 {
			b.interval = interval
		}
	}
}

// WithBackfillLogger attaches a logger to the backfiller.
func WithBackfillLogger(logger personoversikt.Logger) BackfillOption {
	return func(b *Backfiller) {
		b.logger = logger
	}
}

// NewBackfiller wires the enrichment pass. The virksomhet lookup may be nil,
// in which case employer names are left for another consumer to fill.
func NewBackfiller(
	store personoversikt.BackfillStore,
	persons personoversikt.PersonInfoLookup,
	virksomheter personoversikt.VirksomhetsnavnLookup,
	options ...BackfillOption,
) (*Backfiller, error) {

	if store == nil {
		return nil, ErrNilBackfillStore
	}

	if persons == nil {
		return nil, ErrNilPersonLookup
	}

	b := &Backfiller{
		store:        store,
		persons:      persons,
		virksomheter: virksomheter,
		batchSize:    defaultBackfillBatchSize,
		interval:     defaultBackfillInterval,
	}

	for _, option := range options {
		option(b)
	}

	return b, nil
}

// Run executes passes on the configured interval until the context is canceled.
func (b *Backfiller) Run(ctx context.Context) error {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		if err := b.RunOnce(ctx); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			b.logInfo(logMsgBackfillStopped)
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunOnce executes one enrichment pass over both kinds of missing metadata.
func (b *Backfiller) RunOnce(ctx context.Context) error {
	filled, err := b.fillPersons(ctx)
	if err != nil {
		return err
	}

	virksomhetFilled, err := b.fillVirksomheter(ctx)
	if err != nil {
		return err
	}

	b.logDebug(logMsgBackfillPassDone, logAttrFilled, filled+virksomhetFilled)

	return nil
}

func (b *Backfiller) fillPersons(ctx context.Context) (int, error) {
	idents, err := b.store.ListMissingNavn(ctx, b.batchSize)
	if err != nil {
		b.logError(logMsgListMissingFailed, err)
		return 0, err
	}

	filled := 0

	for _, fnr := range idents {
		if ctx.Err() != nil {
			return filled, ctx.Err()
		}

		info, lookupErr := b.persons.Lookup(ctx, fnr)
		if lookupErr != nil {
			b.logError(logMsgPersonLookupFailed, lookupErr)
			continue
		}

		if info.Navn == "" {
			continue
		}

		if fillErr := b.store.FillPersonInfo(ctx, fnr, info.Navn, info.Fodselsdato); fillErr != nil {
			b.logError(logMsgFillPersonFailed, fillErr)
			return filled, fillErr
		}

		filled++
	}

	return filled, nil
}

func (b *Backfiller) fillVirksomheter(ctx context.Context) (int, error) {
	if b.virksomheter == nil {
		return 0, nil
	}

	missing, err := b.store.ListVirksomheterMissingNavn(ctx, b.batchSize)
	if err != nil {
		b.logError(logMsgVirksomhetListFailed, err)
		return 0, err
	}

	filled := 0

	for _, virksomhet := range missing {
		if ctx.Err() != nil {
			return filled, ctx.Err()
		}

		navn, lookupErr := b.virksomheter.Navn(ctx, virksomhet.Virksomhetsnummer)
		if lookupErr != nil {
			b.logError(logMsgVirksomhetLookupFailed, lookupErr,
				logAttrVirksomhetsnummer, virksomhet.Virksomhetsnummer)

			continue
		}

		if navn == "" {
			continue
		}

		if fillErr := b.store.FillVirksomhetsnavn(ctx, virksomhet.ID, navn); fillErr != nil {
			b.logError(logMsgFillVirksomhetFailed, fillErr, logAttrVirksomhetID, virksomhet.ID.String())
			return filled, fillErr
		}

		filled++
	}

	return filled, nil
}

func (b *Backfiller) logDebug(msg string, args ...any) {
	if b.logger == nil {
		return
	}

	b.logger.Debug(msg, args...)
}

func (b *Backfiller) logInfo(msg string, args ...any) {
	if b.logger == nil {
		return
	}

	b.logger.Info(msg, args...)
}

func (b *Backfiller) logError(msg string, err error, args ...any) {
	if b.logger == nil {
		return
	}

	b.logger.Error(msg, append([]any{logAttrError, err}, args...)...)
}
