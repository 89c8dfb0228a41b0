package usecases

import (
	"context"

	"github.com/orris-inc/coinpayable/internal/application/payment/blockchain"
	"github.com/orris-inc/coinpayable/internal/application/payment/dto"
	"github.com/orris-inc/coinpayable/internal/domain/payment"
	vo "github.com/orris-inc/coinpayable/internal/domain/payment/valueobjects"
	"github.com/orris-inc/coinpayable/internal/shared/errors"
	"github.com/orris-inc/coinpayable/internal/shared/logger"
)

type CompPaymentCommand struct {
	PaymentID uint
}

// CompPaymentUseCase waives an unpaid or partially paid payment. The payable is notified as paid.
type CompPaymentUseCase struct {
	paymentRepo  payment.PaymentRepository
	adapters     blockchain.Registry
	stateMachine *payment.StateMachine
	settings     Settings
	logger       logger.Interface
}

func NewCompPaymentUseCase(
	paymentRepo payment.PaymentRepository,
	adapters blockchain.Registry,
	stateMachine *payment.StateMachine,
	settings Settings,
	logger logger.Interface,
) *CompPaymentUseCase {
	return &CompPaymentUseCase{
		paymentRepo:  paymentRepo,
		adapters:     adapters,
		stateMachine: stateMachine,
		settings:     settings,
		logger:       logger,
	}
}

func (uc *CompPaymentUseCase) Execute(ctx context.Context, cmd CompPaymentCommand) (*dto.PaymentDTO, error) {
	if cmd.PaymentID == 0 {
		return nil, errors.NewValidationError("payment id is required")
	}

	p, err := uc.paymentRepo.GetByID(ctx, cmd.PaymentID)
	if err != nil {
		return nil, err
	}

	if err := uc.stateMachine.Fire(ctx, p, vo.PaymentEventComp); err != nil {
		return nil, err
	}

	uc.logger.Infow("payment comped", "payment_id", p.ID(), "payable", p.Payable().String())

	adapter, err := uc.adapters.AdapterFor(p.CoinType())
	if err != nil {
		return nil, err
	}
	return dto.ToPaymentDTO(p, adapter, uc.settings.ExpireAfter), nil
}
