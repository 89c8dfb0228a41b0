package valueobjects

// PaymentState is the lifecycle position of a coin payment
type PaymentState string

const (
	PaymentStatePending        PaymentState = "pending"
	PaymentStatePartialPayment PaymentState = "partial_payment"
	PaymentStatePaidInFull     PaymentState = "paid_in_full"
	PaymentStateConfirmed      PaymentState = "confirmed"
	PaymentStateComped         PaymentState = "comped"
	PaymentStateExpired        PaymentState = "expired"
)

var validStates = map[PaymentState]bool{
	PaymentStatePending:        true,
	PaymentStatePartialPayment: true,
	PaymentStatePaidInFull:     true,
	PaymentStateConfirmed:      true,
	PaymentStateComped:         true,
	PaymentStateExpired:        true,
}

// UnconfirmedStates are the states the reconciliation batch visits
func UnconfirmedStates() []PaymentState {
	return []PaymentState{PaymentStatePending, PaymentStatePartialPayment, PaymentStatePaidInFull}
}

// UnpaidStates are the states still waiting for funds
func UnpaidStates() []PaymentState {
	return []PaymentState{PaymentStatePending, PaymentStatePartialPayment}
}

func (s PaymentState) IsValid() bool {
	return validStates[s]
}

func (s PaymentState) IsPending() bool {
	return s == PaymentStatePending
}

func (s PaymentState) IsConfirmed() bool {
	return s == PaymentStateConfirmed
}

// IsTerminal reports whether no event can leave this state
func (s PaymentState) IsTerminal() bool {
	return s == PaymentStateConfirmed || s == PaymentStateComped || s == PaymentStateExpired
}

func (s PaymentState) IsUnconfirmed() bool {
	return s == PaymentStatePending || s == PaymentStatePartialPayment || s == PaymentStatePaidInFull
}

func (s PaymentState) String() string {
	return string(s)
}
