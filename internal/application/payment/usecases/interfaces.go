package usecases

import (
	"context"

	"github.com/orris-inc/coinpayable/internal/application/payment/dto"
)

// TransactionRunner runs fn inside one database transaction carried by ctx
type TransactionRunner interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type CreatePaymentExecutor interface {
	Execute(ctx context.Context, cmd CreatePaymentCommand) (*dto.PaymentDTO, error)
}

type GetPaymentExecutor interface {
	Execute(ctx context.Context, query GetPaymentQuery) (*dto.PaymentDTO, error)
}

type RefreshPaymentExecutor interface {
	Execute(ctx context.Context, cmd RefreshPaymentCommand) (*RefreshPaymentResult, error)
}

type CompPaymentExecutor interface {
	Execute(ctx context.Context, cmd CompPaymentCommand) (*dto.PaymentDTO, error)
}

type ReconcilePaymentsExecutor interface {
	Execute(ctx context.Context) (*ReconcileSummary, error)
}

type UpdateConversionRatesExecutor interface {
	Execute(ctx context.Context) (int, error)
}

type ListPaymentsExecutor interface {
	Execute(ctx context.Context, query ListPaymentsQuery) ([]*dto.PaymentDTO, error)
}
