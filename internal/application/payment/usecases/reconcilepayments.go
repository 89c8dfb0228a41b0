package usecases

import (
	"context"
	"fmt"
	"sync"

	"github.com/orris-inc/coinpayable/internal/application/payment/blockchain"
	"github.com/orris-inc/coinpayable/internal/application/payment/paymentlock"
	"github.com/orris-inc/coinpayable/internal/domain/payment"
	vo "github.com/orris-inc/coinpayable/internal/domain/payment/valueobjects"
	"github.com/orris-inc/coinpayable/internal/shared/biztime"
	"github.com/orris-inc/coinpayable/internal/shared/goroutine"
	"github.com/orris-inc/coinpayable/internal/shared/logger"
)

// ReconcileSummary counts the outcome of one reconciliation pass
type ReconcileSummary struct {
	Processed     int `json:"processed"`
	PartiallyPaid int `json:"partially_paid"`
	Paid          int `json:"paid"`
	Confirmed     int `json:"confirmed"`
	Expired       int `json:"expired"`
	Skipped       int `json:"skipped"`
	Failed        int `json:"failed"`
}

type reconcileOutcome int

const (
	outcomeProcessed reconcileOutcome = iota
	outcomeSkipped
	outcomeFailed
)

type reconcileResult struct {
	outcome reconcileOutcome
	fired   []vo.PaymentEvent
}

func (r *reconcileResult) fire(event vo.PaymentEvent) {
	r.fired = append(r.fired, event)
}

func (s *ReconcileSummary) add(res reconcileResult) {
	switch res.outcome {
	case outcomeSkipped:
		s.Skipped++
	case outcomeFailed:
		s.Failed++
	default:
		s.Processed++
	}
	for _, event := range res.fired {
		switch event {
		case vo.PaymentEventPartiallyPay:
			s.PartiallyPaid++
		case vo.PaymentEventPay:
			s.Paid++
		case vo.PaymentEventConfirm:
			s.Confirmed++
		case vo.PaymentEventExpire:
			s.Expired++
		}
	}
}

// ReconcilePaymentsUseCase runs one pass over every unconfirmed payment.
// A failure on one payment is logged and never aborts the pass.
type ReconcilePaymentsUseCase struct {
	paymentRepo  payment.PaymentRepository
	adapters     blockchain.Registry
	syncer       *LedgerSyncer
	stateMachine *payment.StateMachine
	locker       paymentlock.Locker
	settings     Settings
	executeMu    sync.Mutex // Prevents overlapping passes within one process
	logger       logger.Interface
}

func NewReconcilePaymentsUseCase(
	paymentRepo payment.PaymentRepository,
	adapters blockchain.Registry,
	syncer *LedgerSyncer,
	stateMachine *payment.StateMachine,
	locker paymentlock.Locker,
	settings Settings,
	logger logger.Interface,
) *ReconcilePaymentsUseCase {
	return &ReconcilePaymentsUseCase{
		paymentRepo:  paymentRepo,
		adapters:     adapters,
		syncer:       syncer,
		stateMachine: stateMachine,
		locker:       locker,
		settings:     settings,
		logger:       logger,
	}
}

func (uc *ReconcilePaymentsUseCase) Execute(ctx context.Context) (*ReconcileSummary, error) {
	uc.executeMu.Lock()
	defer uc.executeMu.Unlock()

	payments, err := uc.paymentRepo.FindUnconfirmed(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to find unconfirmed payments: %w", err)
	}

	summary := &ReconcileSummary{}
	if len(payments) == 0 {
		return summary, nil
	}

	uc.logger.Debugw("reconciling unconfirmed payments",
		"count", len(payments),
		"concurrency", uc.settings.Concurrency,
	)

	var summaryMu sync.Mutex
	pool := goroutine.NewPool(uc.logger, "reconcile-payment", uc.settings.Concurrency)
	for _, p := range payments {
		if ctx.Err() != nil {
			break
		}
		p := p
		pool.Go(func() {
			res := uc.reconcileOne(ctx, p.ID())
			summaryMu.Lock()
			summary.add(res)
			summaryMu.Unlock()
		})
	}
	pool.Wait()

	uc.logger.Infow("reconciliation pass finished",
		"processed", summary.Processed,
		"partially_paid", summary.PartiallyPaid,
		"paid", summary.Paid,
		"confirmed", summary.Confirmed,
		"expired", summary.Expired,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
	)

	return summary, ctx.Err()
}

func (uc *ReconcilePaymentsUseCase) reconcileOne(ctx context.Context, paymentID uint) reconcileResult {
	res := reconcileResult{outcome: outcomeProcessed}

	unlock, ok, err := uc.locker.TryLock(ctx, paymentID)
	if err != nil {
		uc.logger.Warnw("failed to acquire payment lock", "payment_id", paymentID, "error", err)
		res.outcome = outcomeFailed
		return res
	}
	if !ok {
		uc.logger.Debugw("payment locked by another worker, skipping", "payment_id", paymentID)
		res.outcome = outcomeSkipped
		return res
	}
	defer unlock()

	// Reload under the lock, the batch snapshot may be stale
	p, err := uc.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		uc.logger.Warnw("failed to load payment", "payment_id", paymentID, "error", err)
		res.outcome = outcomeFailed
		return res
	}
	if !p.State().IsUnconfirmed() {
		res.outcome = outcomeSkipped
		return res
	}

	adapter, err := uc.adapters.AdapterFor(p.CoinType())
	if err != nil {
		uc.logger.Warnw("no adapter for payment", "payment_id", paymentID, "coin_type", p.CoinType(), "error", err)
		res.outcome = outcomeSkipped
		return res
	}

	// Settle from the stored ledger first, a fully observed payment needs no network call
	if err := uc.settle(ctx, p, adapter, &res); err != nil {
		uc.logger.Warnw("failed to settle payment", "payment_id", paymentID, "error", err)
		res.outcome = outcomeFailed
		return res
	}
	if p.State().IsConfirmed() {
		return res
	}

	merged, _, err := uc.syncer.Sync(ctx, p, nil)
	if err != nil {
		uc.logger.Warnw("failed to sync payment transactions, skipping",
			"payment_id", paymentID,
			"coin_type", p.CoinType(),
			"error", err,
		)
		res.outcome = outcomeSkipped
		// A payment the explorer or rate source never answers for still expires on time
		if err := uc.expire(ctx, p, &res); err != nil {
			res.outcome = outcomeFailed
		}
		return res
	}
	p = merged

	if err := uc.settle(ctx, p, adapter, &res); err != nil {
		uc.logger.Warnw("failed to settle payment", "payment_id", paymentID, "error", err)
		res.outcome = outcomeFailed
		return res
	}

	if err := uc.expire(ctx, p, &res); err != nil {
		res.outcome = outcomeFailed
	}
	return res
}

// expire fires expire on a pending payment past its grace period
func (uc *ReconcilePaymentsUseCase) expire(ctx context.Context, p *payment.Payment, res *reconcileResult) error {
	if !p.IsExpired(uc.settings.ExpireAfter, biztime.NowUTC()) {
		return nil
	}
	if err := uc.stateMachine.Fire(ctx, p, vo.PaymentEventExpire); err != nil {
		uc.logger.Warnw("failed to expire payment", "payment_id", p.ID(), "error", err)
		return err
	}
	res.fire(vo.PaymentEventExpire)
	uc.logger.Infow("payment expired", "payment_id", p.ID(), "expired_at", p.ExpiresAt(uc.settings.ExpireAfter))
	return nil
}

// settle fires pay then confirm once the ledger covers the price, or partially_pay on a first partial amount
func (uc *ReconcilePaymentsUseCase) settle(ctx context.Context, p *payment.Payment, conv payment.UnitConverter, res *reconcileResult) error {
	paid := p.CurrencyAmountPaid(conv)

	if paid >= p.Price().AmountInCents() {
		if uc.stateMachine.CanFire(p, vo.PaymentEventPay) {
			if err := uc.stateMachine.Fire(ctx, p, vo.PaymentEventPay); err != nil {
				return err
			}
			res.fire(vo.PaymentEventPay)
			uc.logger.Infow("payment paid in full", "payment_id", p.ID(), "currency_amount_paid", paid)
		}

		threshold := uc.settings.RequiredConfirmations(p.CoinType())
		if uc.stateMachine.CanFire(p, vo.PaymentEventConfirm) && p.TransactionsConfirmed(threshold) {
			if err := uc.stateMachine.Fire(ctx, p, vo.PaymentEventConfirm); err != nil {
				return err
			}
			res.fire(vo.PaymentEventConfirm)
			uc.logger.Infow("payment confirmed", "payment_id", p.ID(), "required_confirmations", threshold)
		}
		return nil
	}

	if paid > 0 && uc.stateMachine.CanFire(p, vo.PaymentEventPartiallyPay) {
		if err := uc.stateMachine.Fire(ctx, p, vo.PaymentEventPartiallyPay); err != nil {
			return err
		}
		res.fire(vo.PaymentEventPartiallyPay)
		uc.logger.Infow("payment partially paid", "payment_id", p.ID(), "currency_amount_paid", paid)
	}
	return nil
}
