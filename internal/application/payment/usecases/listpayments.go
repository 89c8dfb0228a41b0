package usecases

import (
	"context"
	"strings"
	"time"

	"github.com/orris-inc/coinpayable/internal/application/payment/blockchain"
	"github.com/orris-inc/coinpayable/internal/application/payment/dto"
	"github.com/orris-inc/coinpayable/internal/domain/payment"
	"github.com/orris-inc/coinpayable/internal/shared/biztime"
	"github.com/orris-inc/coinpayable/internal/shared/errors"
	"github.com/orris-inc/coinpayable/internal/shared/logger"
)

const (
	ScopeUnconfirmed = "unconfirmed"
	ScopeUnpaid      = "unpaid"
	ScopeStale       = "stale"

	// StaleAfter is how long a payment may go without an update before it counts as stale
	StaleAfter = 30 * time.Minute
)

// ListPaymentsQuery selects payments by a named scope. An empty scope means unconfirmed.
type ListPaymentsQuery struct {
	Scope string
}

type ListPaymentsUseCase struct {
	paymentRepo payment.PaymentRepository
	adapters    blockchain.Registry
	settings    Settings
	logger      logger.Interface
}

func NewListPaymentsUseCase(
	paymentRepo payment.PaymentRepository,
	adapters blockchain.Registry,
	settings Settings,
	logger logger.Interface,
) *ListPaymentsUseCase {
	return &ListPaymentsUseCase{
		paymentRepo: paymentRepo,
		adapters:    adapters,
		settings:    settings,
		logger:      logger,
	}
}

func (uc *ListPaymentsUseCase) Execute(ctx context.Context, query ListPaymentsQuery) ([]*dto.PaymentDTO, error) {
	var (
		payments []*payment.Payment
		err      error
	)
	switch scope := strings.ToLower(strings.TrimSpace(query.Scope)); scope {
	case "", ScopeUnconfirmed:
		payments, err = uc.paymentRepo.FindUnconfirmed(ctx)
	case ScopeUnpaid:
		payments, err = uc.paymentRepo.FindUnpaid(ctx)
	case ScopeStale:
		payments, err = uc.paymentRepo.FindStale(ctx, biztime.NowUTC().Add(-StaleAfter))
	default:
		return nil, errors.NewValidationError("invalid scope",
			"scope must be one of: "+strings.Join([]string{ScopeUnconfirmed, ScopeUnpaid, ScopeStale}, ", "))
	}
	if err != nil {
		return nil, err
	}

	result := make([]*dto.PaymentDTO, 0, len(payments))
	for _, p := range payments {
		adapter, err := uc.adapters.AdapterFor(p.CoinType())
		if err != nil {
			// A coin disabled after the payment was created
			uc.logger.Warnw("listing payment without adapter", "payment_id", p.ID(), "coin_type", p.CoinType(), "error", err)
			continue
		}
		result = append(result, dto.ToPaymentDTO(p, adapter, uc.settings.ExpireAfter))
	}
	return result, nil
}
