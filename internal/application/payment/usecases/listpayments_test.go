package usecases

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orris-inc/coinpayable/internal/domain/payment"
	vo "github.com/orris-inc/coinpayable/internal/domain/payment/valueobjects"
	"github.com/orris-inc/coinpayable/internal/shared/biztime"
	"github.com/orris-inc/coinpayable/internal/shared/errors"
)

func TestListPayments_Scopes(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	restore := biztime.SetClock(func() time.Time { return now })
	defer restore()

	unconfirmed := []*payment.Payment{buildPayment(paymentFixture{id: 1}), buildPayment(paymentFixture{id: 2, state: vo.PaymentStatePaidInFull})}
	unpaid := []*payment.Payment{buildPayment(paymentFixture{id: 1})}
	stale := []*payment.Payment{buildPayment(paymentFixture{id: 3, state: vo.PaymentStateExpired})}

	var staleBefore time.Time
	repo := &mockPaymentRepository{
		FindUnconfirmedFunc: func(ctx context.Context) ([]*payment.Payment, error) { return unconfirmed, nil },
		FindUnpaidFunc:      func(ctx context.Context) ([]*payment.Payment, error) { return unpaid, nil },
		FindStaleFunc: func(ctx context.Context, updatedBefore time.Time) ([]*payment.Payment, error) {
			staleBefore = updatedBefore
			return stale, nil
		},
	}
	uc := NewListPaymentsUseCase(repo, mockRegistry{vo.CoinTypeBTC: &mockAdapter{}}, testSettings(), newMockLogger())

	tests := []struct {
		scope string
		want  []uint
	}{
		{"", []uint{1, 2}},
		{"unconfirmed", []uint{1, 2}},
		{"Unpaid", []uint{1}},
		{"stale", []uint{3}},
	}
	for _, tt := range tests {
		t.Run(tt.scope, func(t *testing.T) {
			result, err := uc.Execute(context.Background(), ListPaymentsQuery{Scope: tt.scope})
			require.NoError(t, err)

			ids := make([]uint, 0, len(result))
			for _, p := range result {
				ids = append(ids, p.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}

	assert.Equal(t, now.Add(-StaleAfter), staleBefore)
}

func TestListPayments_InvalidScope(t *testing.T) {
	uc := NewListPaymentsUseCase(&mockPaymentRepository{}, mockRegistry{}, testSettings(), newMockLogger())

	_, err := uc.Execute(context.Background(), ListPaymentsQuery{Scope: "paid"})
	assert.True(t, errors.IsValidationError(err))
}

func TestListPayments_SkipsPaymentsOfDisabledCoins(t *testing.T) {
	repo := &mockPaymentRepository{
		FindUnpaidFunc: func(ctx context.Context) ([]*payment.Payment, error) {
			return []*payment.Payment{buildPayment(paymentFixture{id: 1})}, nil
		},
	}
	uc := NewListPaymentsUseCase(repo, mockRegistry{}, testSettings(), newMockLogger())

	result, err := uc.Execute(context.Background(), ListPaymentsQuery{Scope: ScopeUnpaid})
	require.NoError(t, err)
	assert.Empty(t, result)
}
