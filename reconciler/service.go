package reconciler

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/navikt/syfooversiktsrv-go/personoversikt"
)

// Phase names the externally observable state of the reconciliation loop.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhasePolling    Phase = "polling"
	PhaseProcessing Phase = "processing"
	PhaseCommitting Phase = "committing"
)

const (
	defaultBatchSize      = 100
	defaultPollTimeout    = 2 * time.Second
	defaultInitialBackoff = time.Second
	defaultMaxBackoff     = time.Minute
)

var (
	ErrNilRecordLog  = errors.New("record log must not be nil")
	ErrNilRepository = errors.New("repository must not be nil")
)

const (
	logMsgPollFailed       = "polling record log failed"
	logMsgDecodeFailed     = "decoding record failed, skipping"
	logMsgApplyFailed      = "applying batch failed, retrying"
	logMsgCommitFailed     = "committing offsets failed, retrying"
	logMsgBatchCommitted   = "batch committed"
	logMsgServiceStopped   = "reconciliation service stopped"

	logAttrError       = "error"
	logAttrStream      = "stream"
	logAttrRecordID    = "recordID"
	logAttrRecordCount = "recordCount"
	logAttrSkipped     = "skippedRecords"
	logAttrBackoff     = "backoff"

	metricBatchDuration  = "reconciler_batch_duration"
	metricBatchSize      = "reconciler_batch_size"
	metricRecordsSkipped = "reconciler_records_skipped"
	metricApplyResults   = "reconciler_apply_results"

	metricLabelResult = "result"
)

// Service drives the reconciliation loop: poll a batch from the record log,
// decode and apply it to the repository, then commit the offsets. Offsets are
// committed only after every durable write of the batch has succeeded, so a
// crash between apply and commit causes redelivery, which the repository's
// idempotent operations absorb.
type Service struct {
	log     RecordLog
	repo    personoversikt.Repository
	flags   personoversikt.FlagWriter
	logger  personoversikt.Logger
	metrics personoversikt.MetricsCollector

	batchSize      int
	pollTimeout    time.Duration
	initialBackoff time.Duration
	maxBackoff     time.Duration

	// phase holds a Phase; atomic because Phase() is read from outside
	// the Run goroutine
	phase atomic.Value
}

// ServiceOption configures optional Service behaviour.
type ServiceOption func(*Service)

// WithBatchSize caps the number of records fetched per poll.
func WithBatchSize(size int) ServiceOption {
	return func(s *Service) {
		if size > 0 {
			s.batchSize = size
		}
	}
}

// WithPollTimeout sets how long one poll blocks when no records are pending.
func WithPollTimeout(timeout time.Duration) ServiceOption {
	return func(s *Service) {
		if timeout > 0 {
			s.pollTimeout = timeout
		}
	}
}

// WithBackoff sets the initial and maximum delay for retrying a failed
// apply or commit. The delay doubles per attempt up to the maximum.
func WithBackoff(initial, max time.Duration) ServiceOption {
	return func(s *Service) {
		if initial > 0 {
			s.initialBackoff = initial
		}
		if max > 0 {
			s.maxBackoff = max
		}
	}
}

// WithServiceLogger attaches a logger to the service.
func WithServiceLogger(logger personoversikt.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithServiceMetrics attaches a metrics collector to the service.
func WithServiceMetrics(metrics personoversikt.MetricsCollector) ServiceOption {
	return func(s *Service) {
		s.metrics = metrics
	}
}

// NewService wires the reconciliation loop. The flag writer handles the
// kandidat and meeting-status streams; passing the same store as repo and
// flags is the common case.
func NewService(
	log RecordLog,
	repo personoversikt.Repository,
	flags personoversikt.FlagWriter,
	options ...ServiceOption,
) (*Service, error) {

	if log == nil {
		return nil, ErrNilRecordLog
	}

	if repo == nil {
		return nil, ErrNilRepository
	}

	s := &Service{
		log:            log,
		repo:           repo,
		flags:          flags,
		batchSize:      defaultBatchSize,
		pollTimeout:    defaultPollTimeout,
		initialBackoff: defaultInitialBackoff,
		maxBackoff:     defaultMaxBackoff,
	}
	s.setPhase(PhaseIdle)

	for _, option := range options {
		option(s)
	}

	return s, nil
}

// Phase returns the loop's current phase. Safe to call from any goroutine
// while Run is executing. Primarily for observability.
func (s *Service) Phase() Phase {
	return s.phase.Load().(Phase)
}

func (s *Service) setPhase(phase Phase) {
	s.phase.Store(phase)
}

// Run polls, processes and commits until the context is canceled. It only
// returns between batches, never mid-batch, so a graceful shutdown leaves no
// half-applied, uncommitted work behind beyond what redelivery handles anyway.
func (s *Service) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			s.setPhase(PhaseIdle)
			s.logInfo(logMsgServiceStopped)

			return ctx.Err()
		}

		if err := s.runOnce(ctx); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				continue
			}

			return err
		}
	}
}

// runOnce performs one poll / process / commit cycle.
func (s *Service) runOnce(ctx context.Context) error {
	s.setPhase(PhasePolling)

	records, err := s.log.Poll(ctx, s.batchSize, s.pollTimeout)
	if err != nil {
		s.logError(logMsgPollFailed, err)
		return s.sleep(ctx, s.initialBackoff)
	}

	if len(records) == 0 {
		s.setPhase(PhaseIdle)
		return nil
	}

	start := time.Now()

	s.setPhase(PhaseProcessing)
	decoded, skipped := s.decodeBatch(records)

	if err = s.retry(ctx, logMsgApplyFailed, func() error {
		return s.applyBatch(ctx, decoded)
	}); err != nil {
		return err
	}

	s.setPhase(PhaseCommitting)
	if err = s.retry(ctx, logMsgCommitFailed, func() error {
		return s.log.Commit(ctx, records)
	}); err != nil {
		return err
	}

	s.recordBatchMetrics(len(records), skipped, time.Since(start))
	s.logDebug(logMsgBatchCommitted, logAttrRecordCount, len(records), logAttrSkipped, skipped)

	return nil
}

// decodeBatch turns raw records into typed events. Records that cannot be
// decoded are logged and skipped; they still get committed with the batch so
// a poison record cannot wedge the partition.
func (s *Service) decodeBatch(records []Record) (batch, int) {
	var decoded batch
	skipped := 0

	for _, record := range records {
		event, err := personoversikt.DecodeRecord(record.Stream, record.Payload)
		if err != nil {
			skipped++
			s.logError(logMsgDecodeFailed, err,
				logAttrStream, string(record.Stream),
				logAttrRecordID, record.ID)

			continue
		}

		decoded.add(event)
	}

	return decoded, skipped
}

// applyBatch writes the batch to the repository. Snapshot winners go first,
// then the remaining events in arrival order. Every operation is idempotent,
// so a retry after a partial failure re-applies safely.
func (s *Service) applyBatch(ctx context.Context, decoded batch) error {
	if decoded.empty() {
		return nil
	}

	for _, event := range decoded.tilfeller {
		result, err := s.repo.ApplyTilfelleSnapshot(ctx, event.FNR, event.Tilfelle)
		if err != nil {
			return err
		}

		s.countApplyResult(result)
	}

	for _, event := range decoded.rest {
		if err := s.applyEvent(ctx, event); err != nil {
			return err
		}
	}

	return nil
}

func (s *Service) applyEvent(ctx context.Context, event personoversikt.StreamEvent) error {
	switch e := event.(type) {
	case personoversikt.HendelseEvent:
		result, err := s.repo.ApplyHendelse(ctx, e.FNR, e.HendelseType)
		if err != nil {
			return err
		}

		s.countApplyResult(result)

		return nil

	case personoversikt.KandidatEvent:
		return s.setFlag(ctx, e.FNR, personoversikt.FlagDialogmotekandidat, e.Kandidat)

	case personoversikt.MoteStatusEvent:
		if !e.IsTerminal() {
			return nil
		}

		return s.setFlag(ctx, e.FNR, personoversikt.FlagDialogmotekandidat, false)

	default:
		return nil
	}
}

func (s *Service) setFlag(ctx context.Context, fnr personoversikt.PersonIdent, flag personoversikt.Flag, value bool) error {
	if s.flags == nil {
		return nil
	}

	return s.flags.SetFlag(ctx, fnr, flag, value)
}

// retry runs op with exponential backoff until it succeeds or the context is
// canceled. Transient storage failures are absorbed here; the uncommitted
// batch is simply re-applied on the next attempt.
func (s *Service) retry(ctx context.Context, failMsg string, op func() error) error {
	backoff := s.initialBackoff

	for {
		err := op()
		if err == nil {
			return nil
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}

		s.logError(failMsg, err, logAttrBackoff, backoff)

		if sleepErr := s.sleep(ctx, backoff); sleepErr != nil {
			return sleepErr
		}

		backoff *= 2
		if backoff > s.maxBackoff {
			backoff = s.maxBackoff
		}
	}
}

func (s *Service) sleep(ctx context.Context, duration time.Duration) error {
	timer := time.NewTimer(duration)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (s *Service) logDebug(msg string, args ...any) {
	if s.logger == nil {
		return
	}

	s.logger.Debug(msg, args...)
}

func (s *Service) logInfo(msg string, args ...any) {
	if s.logger == nil {
		return
	}

	s.logger.Info(msg, args...)
}

func (s *Service) logError(msg string, err error, args ...any) {
	if s.logger == nil {
		return
	}

	s.logger.Error(msg, append([]any{logAttrError, err}, args...)...)
}

func (s *Service) recordBatchMetrics(total int, skipped int, duration time.Duration) {
	if s.metrics == nil {
		return
	}

	s.metrics.RecordDuration(metricBatchDuration, duration, nil)
	s.metrics.RecordValue(metricBatchSize, float64(total), nil)

	if skipped > 0 {
		s.metrics.RecordValue(metricRecordsSkipped, float64(skipped), nil)
	}
}

func (s *Service) countApplyResult(result personoversikt.ApplyResult) {
	if s.metrics == nil {
		return
	}

	s.metrics.IncrementCounter(metricApplyResults, map[string]string{
		metricLabelResult: string(result),
	})
}
