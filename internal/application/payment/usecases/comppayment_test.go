package usecases

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orris-inc/coinpayable/internal/domain/payment"
	vo "github.com/orris-inc/coinpayable/internal/domain/payment/valueobjects"
)

func TestCompPayment(t *testing.T) {
	tests := []struct {
		name    string
		state   vo.PaymentState
		wantErr bool
	}{
		{"pending", vo.PaymentStatePending, false},
		{"partial payment", vo.PaymentStatePartialPayment, false},
		{"paid in full", vo.PaymentStatePaidInFull, true},
		{"confirmed", vo.PaymentStateConfirmed, true},
		{"expired", vo.PaymentStateExpired, true},
		{"already comped", vo.PaymentStateComped, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, store := newMemoryRepository(buildPayment(paymentFixture{id: 3, state: tt.state}))
			hook := newRecordingHook()
			uc := NewCompPaymentUseCase(repo, mockRegistry{vo.CoinTypeBTC: &mockAdapter{}}, payment.NewStateMachine(repo, hook), testSettings(), newMockLogger())

			result, err := uc.Execute(context.Background(), CompPaymentCommand{PaymentID: 3})

			if tt.wantErr {
				assert.ErrorIs(t, err, payment.ErrInvalidTransition)
				assert.Equal(t, tt.state, store.state(3))
				assert.Empty(t, hook.eventsOf(3))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "comped", result.State)
			assert.Equal(t, vo.PaymentStateComped, store.state(3))
			assert.Equal(t, []vo.PaymentEvent{vo.PaymentEventComp}, hook.eventsOf(3))
		})
	}
}
