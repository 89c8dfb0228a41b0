// Package scheduler runs the periodic reconciliation jobs using gocron v2.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/orris-inc/coinpayable/internal/application/payment/usecases"
	"github.com/orris-inc/coinpayable/internal/shared/biztime"
	"github.com/orris-inc/coinpayable/internal/shared/logger"
)

// ReconcileJob runs one reconciliation batch over every unconfirmed payment
type ReconcileJob interface {
	Execute(ctx context.Context) (*usecases.ReconcileSummary, error)
}

// BatchJob processes a batch and returns the number of items processed
type BatchJob interface {
	Execute(ctx context.Context) (int, error)
}

// SchedulerManager owns the single gocron scheduler of the process
type SchedulerManager struct {
	scheduler gocron.Scheduler
	logger    logger.Interface

	started   bool
	startedMu sync.RWMutex
}

func NewSchedulerManager(log logger.Interface) (*SchedulerManager, error) {
	scheduler, err := gocron.NewScheduler(
		gocron.WithLocation(time.UTC),
	)
	if err != nil {
		return nil, err
	}

	return &SchedulerManager{
		scheduler: scheduler,
		logger:    log,
	}, nil
}

// RegisterReconcileJob runs job every interval. A batch never overlaps the previous one.
func (m *SchedulerManager) RegisterReconcileJob(job ReconcileJob, interval time.Duration) error {
	_, err := m.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			// A batch may run longer than one tick; the singleton mode skips overlapping runs
			ctx, cancel := context.WithTimeout(context.Background(), 10*interval)
			defer cancel()
			m.reconcile(ctx, job)
		}),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithTags("payment", "reconcile"),
		gocron.WithName("payment-reconcile"),
	)
	if err != nil {
		return err
	}

	m.logger.Infow("registered reconcile job", "interval", interval.String())
	return nil
}

func (m *SchedulerManager) reconcile(ctx context.Context, job ReconcileJob) {
	startTime := biztime.NowUTC()

	summary, err := job.Execute(ctx)
	if err != nil {
		m.logger.Errorw("reconcile batch failed",
			"error", err,
			"duration", time.Since(startTime),
		)
		return
	}

	if summary.Processed > 0 {
		m.logger.Infow("reconcile batch completed",
			"processed", summary.Processed,
			"partially_paid", summary.PartiallyPaid,
			"paid", summary.Paid,
			"confirmed", summary.Confirmed,
			"expired", summary.Expired,
			"skipped", summary.Skipped,
			"failed", summary.Failed,
			"duration", time.Since(startTime),
		)
	}
}

// RegisterRateRefreshJob stores fresh conversion rates every interval
func (m *SchedulerManager) RegisterRateRefreshJob(job BatchJob, interval time.Duration) error {
	_, err := m.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			m.refreshRates(ctx, job)
		}),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithTags("rates", "refresh"),
		gocron.WithName("rates-refresh"),
	)
	if err != nil {
		return err
	}

	m.logger.Infow("registered rate refresh job", "interval", interval.String())
	return nil
}

func (m *SchedulerManager) refreshRates(ctx context.Context, job BatchJob) {
	stored, err := job.Execute(ctx)
	if err != nil {
		m.logger.Errorw("failed to refresh conversion rates", "error", err)
		return
	}

	m.logger.Debugw("conversion rates refreshed", "stored", stored)
}

// Start starts the scheduler and all registered jobs.
func (m *SchedulerManager) Start() {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()

	if m.started {
		return
	}

	m.scheduler.Start()
	m.started = true
	m.logger.Infow("scheduler manager started", "job_count", len(m.scheduler.Jobs()))
}

// Stop waits for running jobs to complete before returning.
func (m *SchedulerManager) Stop() error {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()

	if !m.started {
		return nil
	}

	m.logger.Infow("stopping scheduler manager")

	err := m.scheduler.Shutdown()
	m.started = false

	if err != nil {
		m.logger.Errorw("scheduler manager shutdown with error", "error", err)
		return err
	}

	m.logger.Infow("scheduler manager stopped")
	return nil
}

func (m *SchedulerManager) IsStarted() bool {
	m.startedMu.RLock()
	defer m.startedMu.RUnlock()
	return m.started
}

// Jobs returns all registered jobs for inspection.
func (m *SchedulerManager) Jobs() []gocron.Job {
	return m.scheduler.Jobs()
}
