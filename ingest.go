package lottery

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Ingestor validates candidate batches and appends the accepted draws to a store.
// Candidates are processed independently: one rejection never blocks the rest.
type Ingestor struct {
	validator   *DrawValidator
	store       DrawStore
	lockManager *DistributedLockManager
	recovery    *ErrorRecovery
	monitor     *IngestMonitor
	reports     *ReportStore
	logger      Logger
}

// NewIngestor creates an ingestor without locking, retries or report persistence
func NewIngestor(validator *DrawValidator, store DrawStore, logger Logger) *Ingestor {
	if logger == nil {
		logger = NewSilentLogger()
	}
	return &Ingestor{
		validator: validator,
		store:     store,
		monitor:   NewIngestMonitor(),
		logger:    logger,
	}
}

// WithLock serialises runs for the same game across processes
func (in *Ingestor) WithLock(lm *DistributedLockManager) *Ingestor {
	in.lockManager = lm
	return in
}

// WithRetry retries retryable storage failures per record.
// Retrying is safe because inserts are idempotent.
func (in *Ingestor) WithRetry(recovery *ErrorRecovery) *Ingestor {
	in.recovery = recovery
	return in
}

// WithMonitor replaces the default monitor
func (in *Ingestor) WithMonitor(m *IngestMonitor) *Ingestor {
	if m != nil {
		in.monitor = m
	}
	return in
}

// WithReportStore persists every finished report
func (in *Ingestor) WithReportStore(rs *ReportStore) *Ingestor {
	in.reports = rs
	return in
}

func (in *Ingestor) releaseLock(ctx context.Context, lock *Lock) {
	released, err := lock.Release(context.WithoutCancel(ctx))
	switch {
	case err != nil:
		in.logger.Error("Failed to release ingest lock %s: %v", lock.Key(), err)
	case !released:
		// 锁已过期或被他人持有, 本次导入可能与其他进程重叠
		in.logger.Error("Ingest lock %s expired before release (expiration %s); the run was not exclusive",
			lock.Key(), lock.manager.Expiration())
	}
}

// Monitor returns the ingestor's monitor
func (in *Ingestor) Monitor() *IngestMonitor { return in.monitor }

// Ingest runs one ingestion pass over candidates.
// A storage failure aborts the run; the partial report is returned with the error.
func (in *Ingestor) Ingest(ctx context.Context, candidates []Candidate) (*IngestReport, error) {
	game := in.validator.Game()
	report := &IngestReport{
		RunID:     uuid.NewString(),
		Game:      game.Name,
		StartTime: time.Now(),
		Received:  len(candidates),
	}

	if in.lockManager != nil {
		lock, err := in.lockManager.Acquire(ctx, "ingest:"+game.Name)
		if err != nil {
			return in.abort(ctx, report, err)
		}
		defer in.releaseLock(ctx, lock)
	}

	records, rejections := in.validator.ValidateAll(candidates)
	report.Rejected = len(rejections)
	report.Rejections = rejections
	for _, rj := range rejections {
		in.logger.Debug("Rejected candidate #%d (%s): %s", rj.Index, rj.Candidate.DateString, rj.ErrorMsg)
	}

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return in.abort(ctx, report, ErrSystemError.WithDetails("ingest cancelled").WithCause(err))
		}

		outcome, err := in.insert(ctx, rec)
		if err != nil {
			in.monitor.RecordStorageError()
			return in.abort(ctx, report, err)
		}

		switch outcome {
		case Inserted:
			report.Inserted++
		case Skipped:
			report.Skipped++
		}
	}

	report.FinishTime = time.Now()
	in.monitor.RecordRun(report, false)
	in.saveReport(ctx, report)

	in.logger.Info("Ingest %s finished: received=%d, inserted=%d, skipped=%d, rejected=%d, duration=%v",
		report.RunID, report.Received, report.Inserted, report.Skipped, report.Rejected, report.Duration())
	return report, nil
}

func (in *Ingestor) insert(ctx context.Context, rec DrawRecord) (InsertOutcome, error) {
	if in.recovery == nil {
		return in.store.Insert(ctx, rec)
	}

	var outcome InsertOutcome
	err := in.recovery.ExecuteWithRetry(ctx, func() error {
		o, err := in.store.Insert(ctx, rec)
		outcome = o
		return err
	})
	return outcome, err
}

func (in *Ingestor) abort(ctx context.Context, report *IngestReport, err error) (*IngestReport, error) {
	report.Aborted = true
	report.AbortReason = err.Error()
	report.FinishTime = time.Now()

	in.monitor.RecordRun(report, true)
	in.saveReport(ctx, report)

	in.logger.Error("Ingest %s aborted after %d/%d candidates: %v",
		report.RunID, report.Processed(), report.Received, err)
	return report, err
}

// saveReport is best effort; a lost report never fails the run
func (in *Ingestor) saveReport(ctx context.Context, report *IngestReport) {
	if in.reports == nil {
		return
	}
	if err := in.reports.Save(context.WithoutCancel(ctx), report); err != nil {
		in.logger.Error("Failed to save ingest report %s: %v", report.RunID, err)
	}
}
