package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/orris-inc/coinpayable/internal/application/payment/blockchain"
	"github.com/orris-inc/coinpayable/internal/application/payment/exchangerate"
	"github.com/orris-inc/coinpayable/internal/domain/payment"
	"github.com/orris-inc/coinpayable/internal/shared/logger"
)

// LedgerSyncer fetches a payment's transactions and merges them into its ledger.
// The adapter call runs outside the database transaction. Only the merge holds the row lock.
type LedgerSyncer struct {
	paymentRepo  payment.PaymentRepository
	adapters     blockchain.Registry
	rates        exchangerate.RateProvider
	txMgr        TransactionRunner
	fetchTimeout time.Duration
	logger       logger.Interface
}

func NewLedgerSyncer(
	paymentRepo payment.PaymentRepository,
	adapters blockchain.Registry,
	rates exchangerate.RateProvider,
	txMgr TransactionRunner,
	fetchTimeout time.Duration,
	logger logger.Interface,
) *LedgerSyncer {
	return &LedgerSyncer{
		paymentRepo:  paymentRepo,
		adapters:     adapters,
		rates:        rates,
		txMgr:        txMgr,
		fetchTimeout: fetchTimeout,
		logger:       logger,
	}
}

// Sync returns the merged payment reloaded under lock and the raw fetch result.
// overrideRate, when set, replaces the latest provider rate for stamping and recomputation.
func (s *LedgerSyncer) Sync(ctx context.Context, p *payment.Payment, overrideRate *decimal.Decimal) (*payment.Payment, []payment.ObservedTransaction, error) {
	if p.Address() == nil {
		return nil, nil, blockchain.NewAdapterError(p.CoinType(), "fetch_transactions",
			fmt.Errorf("payment %d has no receiving address", p.ID()))
	}

	adapter, err := s.adapters.AdapterFor(p.CoinType())
	if err != nil {
		return nil, nil, err
	}

	observed, err := s.fetch(ctx, adapter, p)
	if err != nil {
		return nil, nil, err
	}

	rate, err := s.resolveRate(ctx, p, overrideRate)
	if err != nil {
		return nil, nil, err
	}

	var merged *payment.Payment
	err = s.txMgr.RunInTransaction(ctx, func(txCtx context.Context) error {
		locked, err := s.paymentRepo.GetByIDForUpdate(txCtx, p.ID())
		if err != nil {
			return err
		}

		changed, err := locked.MergeTransactions(observed, rate)
		if err != nil {
			return fmt.Errorf("failed to merge transactions: %w", err)
		}

		s.logRateDivergence(locked, rate)

		if err := locked.UpdateCoinAmountDue(adapter, rate); err != nil {
			return fmt.Errorf("failed to recompute coin amount due: %w", err)
		}

		if err := s.paymentRepo.SaveLedger(txCtx, locked, changed); err != nil {
			return err
		}

		merged = locked
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return merged, observed, nil
}

func (s *LedgerSyncer) fetch(ctx context.Context, adapter blockchain.Adapter, p *payment.Payment) ([]payment.ObservedTransaction, error) {
	fetchCtx := ctx
	if s.fetchTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, s.fetchTimeout)
		defer cancel()
	}

	observed, err := adapter.FetchTransactions(fetchCtx, *p.Address())
	if err != nil {
		return nil, blockchain.NewAdapterError(p.CoinType(), "fetch_transactions", err)
	}
	return observed, nil
}

func (s *LedgerSyncer) resolveRate(ctx context.Context, p *payment.Payment, overrideRate *decimal.Decimal) (decimal.Decimal, error) {
	if overrideRate != nil {
		if !overrideRate.IsPositive() {
			return decimal.Zero, payment.ErrInvalidConversionRate
		}
		return *overrideRate, nil
	}

	rate, err := s.rates.LatestPrice(ctx, p.CoinType(), p.Currency())
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get %s/%s rate: %w", p.CoinType(), p.Currency(), err)
	}
	return rate, nil
}

// logRateDivergence flags recomputation at a rate other than the ones stamped on the ledger
func (s *LedgerSyncer) logRateDivergence(p *payment.Payment, rate decimal.Decimal) {
	for _, tx := range p.Transactions() {
		if !tx.CoinConversion().Equal(rate) {
			s.logger.Debugw("recomputing coin amount due at a rate different from a ledger snapshot",
				"payment_id", p.ID(),
				"transaction_hash", tx.Hash(),
				"snapshot_rate", tx.CoinConversion().String(),
				"current_rate", rate.String(),
			)
			return
		}
	}
}
