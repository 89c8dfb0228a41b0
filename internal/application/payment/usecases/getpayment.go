package usecases

import (
	"context"
	"strings"

	"github.com/orris-inc/coinpayable/internal/application/payment/blockchain"
	"github.com/orris-inc/coinpayable/internal/application/payment/dto"
	"github.com/orris-inc/coinpayable/internal/domain/payment"
	"github.com/orris-inc/coinpayable/internal/shared/errors"
	"github.com/orris-inc/coinpayable/internal/shared/logger"
)

// GetPaymentQuery selects a payment by exactly one of its keys
type GetPaymentQuery struct {
	ID              uint
	Address         string
	TransactionHash string
}

type GetPaymentUseCase struct {
	paymentRepo payment.PaymentRepository
	adapters    blockchain.Registry
	settings    Settings
	logger      logger.Interface
}

func NewGetPaymentUseCase(
	paymentRepo payment.PaymentRepository,
	adapters blockchain.Registry,
	settings Settings,
	logger logger.Interface,
) *GetPaymentUseCase {
	return &GetPaymentUseCase{
		paymentRepo: paymentRepo,
		adapters:    adapters,
		settings:    settings,
		logger:      logger,
	}
}

func (uc *GetPaymentUseCase) Execute(ctx context.Context, query GetPaymentQuery) (*dto.PaymentDTO, error) {
	address := strings.TrimSpace(query.Address)
	hash := strings.TrimSpace(query.TransactionHash)

	var (
		p   *payment.Payment
		err error
	)
	switch {
	case query.ID != 0:
		p, err = uc.paymentRepo.GetByID(ctx, query.ID)
	case address != "":
		p, err = uc.paymentRepo.GetByAddress(ctx, address)
	case hash != "":
		p, err = uc.paymentRepo.GetByTransactionHash(ctx, hash)
	default:
		return nil, errors.NewValidationError("payment id, address or transaction hash is required")
	}
	if err != nil {
		return nil, err
	}

	adapter, err := uc.adapters.AdapterFor(p.CoinType())
	if err != nil {
		return nil, err
	}

	return dto.ToPaymentDTO(p, adapter, uc.settings.ExpireAfter), nil
}
