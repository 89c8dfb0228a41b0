package usecases

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/orris-inc/coinpayable/internal/application/payment/blockchain"
	"github.com/orris-inc/coinpayable/internal/application/payment/dto"
	"github.com/orris-inc/coinpayable/internal/application/payment/paymentlock"
	"github.com/orris-inc/coinpayable/internal/domain/payment"
	"github.com/orris-inc/coinpayable/internal/shared/errors"
	"github.com/orris-inc/coinpayable/internal/shared/logger"
)

type RefreshPaymentCommand struct {
	PaymentID uint
	// Rate overrides the latest conversion rate when set
	Rate *decimal.Decimal
}

type RefreshPaymentResult struct {
	Payment *dto.PaymentDTO              `json:"payment"`
	Fetched []dto.ObservedTransactionDTO `json:"fetched"`
}

// RefreshPaymentUseCase fetches and merges the transactions of one payment on demand.
// It does not fire state transitions. The next reconciliation pass does.
type RefreshPaymentUseCase struct {
	paymentRepo payment.PaymentRepository
	adapters    blockchain.Registry
	syncer      *LedgerSyncer
	locker      paymentlock.Locker
	settings    Settings
	logger      logger.Interface
}

func NewRefreshPaymentUseCase(
	paymentRepo payment.PaymentRepository,
	adapters blockchain.Registry,
	syncer *LedgerSyncer,
	locker paymentlock.Locker,
	settings Settings,
	logger logger.Interface,
) *RefreshPaymentUseCase {
	return &RefreshPaymentUseCase{
		paymentRepo: paymentRepo,
		adapters:    adapters,
		syncer:      syncer,
		locker:      locker,
		settings:    settings,
		logger:      logger,
	}
}

func (uc *RefreshPaymentUseCase) Execute(ctx context.Context, cmd RefreshPaymentCommand) (*RefreshPaymentResult, error) {
	if cmd.PaymentID == 0 {
		return nil, errors.NewValidationError("payment id is required")
	}

	unlock, ok, err := uc.locker.TryLock(ctx, cmd.PaymentID)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire payment lock: %w", err)
	}
	if !ok {
		return nil, errors.NewConflictError("payment is being reconciled", fmt.Sprintf("payment %d", cmd.PaymentID))
	}
	defer unlock()

	p, err := uc.paymentRepo.GetByID(ctx, cmd.PaymentID)
	if err != nil {
		return nil, err
	}

	merged, observed, err := uc.syncer.Sync(ctx, p, cmd.Rate)
	if err != nil {
		uc.logger.Warnw("failed to refresh payment",
			"payment_id", cmd.PaymentID,
			"error", err,
		)
		return nil, err
	}

	adapter, err := uc.adapters.AdapterFor(merged.CoinType())
	if err != nil {
		return nil, err
	}

	uc.logger.Infow("payment refreshed",
		"payment_id", merged.ID(),
		"fetched", len(observed),
		"coin_amount_due", merged.CoinAmountDue().String(),
	)

	return &RefreshPaymentResult{
		Payment: dto.ToPaymentDTO(merged, adapter, uc.settings.ExpireAfter),
		Fetched: dto.ToObservedTransactionDTOs(observed),
	}, nil
}
