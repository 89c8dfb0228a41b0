package mappers

import (
	"fmt"

	"github.com/orris-inc/coinpayable/internal/domain/payment"
	vo "github.com/orris-inc/coinpayable/internal/domain/payment/valueobjects"
	"github.com/orris-inc/coinpayable/internal/infrastructure/persistence/models"
)

// PaymentToModel maps the payment row only. Ledger rows are written separately.
func PaymentToModel(p *payment.Payment) *models.CoinPaymentModel {
	return &models.CoinPaymentModel{
		ID:             p.ID(),
		PayableType:    p.Payable().Type(),
		PayableID:      p.Payable().ID(),
		CoinType:       p.CoinType().String(),
		Price:          p.Price().AmountInCents(),
		Currency:       p.Currency(),
		Reason:         p.Reason(),
		Address:        p.Address(),
		CoinAmountDue:  p.CoinAmountDue(),
		CoinConversion: p.CoinConversion(),
		State:          p.State().String(),
		Version:        p.Version(),
		CreatedAt:      p.CreatedAt(),
		UpdatedAt:      p.UpdatedAt(),
	}
}

func PaymentToDomain(model *models.CoinPaymentModel) (*payment.Payment, error) {
	payable, err := vo.NewPayableRef(model.PayableType, model.PayableID)
	if err != nil {
		return nil, fmt.Errorf("invalid payable reference: %w", err)
	}

	coinType, err := vo.NewCoinType(model.CoinType)
	if err != nil {
		return nil, err
	}

	state := vo.PaymentState(model.State)
	if !state.IsValid() {
		return nil, fmt.Errorf("invalid payment state: %s", model.State)
	}

	transactions := make([]*payment.Transaction, 0, len(model.Transactions))
	for i := range model.Transactions {
		transactions = append(transactions, TransactionToDomain(&model.Transactions[i]))
	}

	return payment.ReconstructPaymentWithParams(payment.PaymentReconstructParams{
		ID:             model.ID,
		Payable:        payable,
		CoinType:       coinType,
		Price:          vo.NewMoney(model.Price, model.Currency),
		Reason:         model.Reason,
		Address:        model.Address,
		CoinAmountDue:  model.CoinAmountDue,
		CoinConversion: model.CoinConversion,
		State:          state,
		Transactions:   transactions,
		Version:        model.Version,
		CreatedAt:      model.CreatedAt,
		UpdatedAt:      model.UpdatedAt,
	}), nil
}

func TransactionToModel(tx *payment.Transaction) *models.CoinPaymentTransactionModel {
	return &models.CoinPaymentTransactionModel{
		ID:              tx.ID(),
		PaymentID:       tx.PaymentID(),
		TransactionHash: tx.Hash(),
		Confirmations:   tx.Confirmations(),
		EstimatedValue:  tx.EstimatedValue(),
		CoinConversion:  tx.CoinConversion(),
		CreatedAt:       tx.CreatedAt(),
		UpdatedAt:       tx.UpdatedAt(),
	}
}

func TransactionToDomain(model *models.CoinPaymentTransactionModel) *payment.Transaction {
	return payment.ReconstructTransaction(payment.TransactionReconstructParams{
		ID:             model.ID,
		PaymentID:      model.PaymentID,
		Hash:           model.TransactionHash,
		Confirmations:  model.Confirmations,
		EstimatedValue: model.EstimatedValue,
		CoinConversion: model.CoinConversion,
		CreatedAt:      model.CreatedAt,
		UpdatedAt:      model.UpdatedAt,
	})
}
