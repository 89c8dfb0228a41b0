package payment

import (
	"errors"
	"fmt"

	vo "github.com/orris-inc/coinpayable/internal/domain/payment/valueobjects"
)

var (
	// ErrInvalidTransition matches every *InvalidTransitionError via errors.Is
	ErrInvalidTransition = errors.New("invalid payment state transition")
	// ErrInvalidConversionRate is returned when amount math is asked to divide by a non-positive rate
	ErrInvalidConversionRate = errors.New("conversion rate must be positive")
	// ErrAddressAlreadyAssigned guards the set-once receiving address
	ErrAddressAlreadyAssigned = errors.New("payment address already assigned")
)

// InvalidTransitionError reports an event fired from a state that does not allow it
type InvalidTransitionError struct {
	PaymentID uint
	From      vo.PaymentState
	Event     vo.PaymentEvent
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("payment %d: cannot %s from state %s", e.PaymentID, e.Event, e.From)
}

func (e *InvalidTransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}
