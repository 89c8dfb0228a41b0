package usecases

import (
	"context"
	"fmt"
	"strings"

	"github.com/orris-inc/coinpayable/internal/application/payment/blockchain"
	"github.com/orris-inc/coinpayable/internal/application/payment/dto"
	"github.com/orris-inc/coinpayable/internal/application/payment/exchangerate"
	"github.com/orris-inc/coinpayable/internal/domain/payment"
	vo "github.com/orris-inc/coinpayable/internal/domain/payment/valueobjects"
	"github.com/orris-inc/coinpayable/internal/shared/errors"
	"github.com/orris-inc/coinpayable/internal/shared/logger"
)

type CreatePaymentCommand struct {
	PayableType string
	PayableID   string
	CoinType    string
	Price       int64 // fiat cents
	Currency    string
	Reason      string
}

// CreatePaymentUseCase validates, persists and assigns an address to a new payment.
// The whole creation rolls back when any step fails.
type CreatePaymentUseCase struct {
	paymentRepo payment.PaymentRepository
	adapters    blockchain.Registry
	rates       exchangerate.RateProvider
	txMgr       TransactionRunner
	settings    Settings
	logger      logger.Interface
}

func NewCreatePaymentUseCase(
	paymentRepo payment.PaymentRepository,
	adapters blockchain.Registry,
	rates exchangerate.RateProvider,
	txMgr TransactionRunner,
	settings Settings,
	logger logger.Interface,
) *CreatePaymentUseCase {
	return &CreatePaymentUseCase{
		paymentRepo: paymentRepo,
		adapters:    adapters,
		rates:       rates,
		txMgr:       txMgr,
		settings:    settings,
		logger:      logger,
	}
}

func (uc *CreatePaymentUseCase) Execute(ctx context.Context, cmd CreatePaymentCommand) (*dto.PaymentDTO, error) {
	coinType, err := vo.NewCoinType(cmd.CoinType)
	if err != nil {
		return nil, errors.NewValidationError("invalid coin type", err.Error())
	}

	payable, err := vo.NewPayableRef(cmd.PayableType, cmd.PayableID)
	if err != nil {
		return nil, errors.NewValidationError("invalid payable", err.Error())
	}

	currency := cmd.Currency
	if currency == "" {
		currency = uc.settings.DefaultCurrency
	}
	if !uc.settings.AcceptsCurrency(currency) {
		return nil, errors.NewValidationError("unsupported currency",
			fmt.Sprintf("%s has no refreshed conversion rate, accepted: %s", currency, strings.Join(uc.settings.Currencies, ", ")))
	}
	price := vo.NewMoney(cmd.Price, currency)

	// Validate before touching the adapter or the database
	draft, err := payment.NewPayment(payable, coinType, price, cmd.Reason)
	if err != nil {
		return nil, err
	}

	adapter, err := uc.adapters.AdapterFor(coinType)
	if err != nil {
		return nil, err
	}

	rate, err := uc.rates.LatestPrice(ctx, coinType, draft.Currency())
	if err != nil {
		return nil, fmt.Errorf("failed to get %s/%s rate: %w", coinType, draft.Currency(), err)
	}
	if err := draft.UpdateCoinAmountDue(adapter, rate); err != nil {
		return nil, err
	}

	var p *payment.Payment
	err = uc.txMgr.RunInTransaction(ctx, func(txCtx context.Context) error {
		// Rebuilt on every attempt, a retried transaction must not see the id or address of a rolled back one
		attempt, err := payment.NewPayment(payable, coinType, price, cmd.Reason)
		if err != nil {
			return err
		}
		if err := attempt.UpdateCoinAmountDue(adapter, rate); err != nil {
			return err
		}

		if err := uc.paymentRepo.Create(txCtx, attempt); err != nil {
			return err
		}

		address, err := uc.createAddress(txCtx, adapter, attempt)
		if err != nil {
			return err
		}

		if err := attempt.AssignAddress(address); err != nil {
			return err
		}
		if err := uc.paymentRepo.SaveAddress(txCtx, attempt); err != nil {
			return err
		}

		p = attempt
		return nil
	})
	if err != nil {
		uc.logger.Errorw("failed to create payment",
			"payable", payable.String(),
			"coin_type", coinType,
			"error", err,
		)
		return nil, err
	}

	uc.logger.Infow("payment created",
		"payment_id", p.ID(),
		"payable", payable.String(),
		"coin_type", coinType,
		"price", p.Price().String(),
		"coin_amount_due", p.CoinAmountDue().String(),
		"address", *p.Address(),
	)

	return dto.ToPaymentDTO(p, adapter, uc.settings.ExpireAfter), nil
}

func (uc *CreatePaymentUseCase) createAddress(ctx context.Context, adapter blockchain.Adapter, p *payment.Payment) (string, error) {
	addrCtx := ctx
	if uc.settings.FetchTimeout > 0 {
		var cancel context.CancelFunc
		addrCtx, cancel = context.WithTimeout(ctx, uc.settings.FetchTimeout)
		defer cancel()
	}

	address, err := adapter.CreateAddress(addrCtx, p.ID())
	if err != nil {
		return "", blockchain.NewAdapterError(p.CoinType(), "create_address", err)
	}
	if err := p.CoinType().ValidateAddress(address); err != nil {
		return "", blockchain.NewAdapterError(p.CoinType(), "create_address", err)
	}
	return address, nil
}
