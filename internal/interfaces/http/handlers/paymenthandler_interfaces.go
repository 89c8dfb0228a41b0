package handlers

import (
	"context"

	"github.com/orris-inc/coinpayable/internal/application/payment/dto"
	"github.com/orris-inc/coinpayable/internal/application/payment/usecases"
)

type createPaymentUseCase interface {
	Execute(ctx context.Context, cmd usecases.CreatePaymentCommand) (*dto.PaymentDTO, error)
}

type getPaymentUseCase interface {
	Execute(ctx context.Context, query usecases.GetPaymentQuery) (*dto.PaymentDTO, error)
}

type listPaymentsUseCase interface {
	Execute(ctx context.Context, query usecases.ListPaymentsQuery) ([]*dto.PaymentDTO, error)
}

type refreshPaymentUseCase interface {
	Execute(ctx context.Context, cmd usecases.RefreshPaymentCommand) (*usecases.RefreshPaymentResult, error)
}

type compPaymentUseCase interface {
	Execute(ctx context.Context, cmd usecases.CompPaymentCommand) (*dto.PaymentDTO, error)
}
