package valueobjects

import "fmt"

// PaymentEvent drives a state machine transition
type PaymentEvent string

const (
	PaymentEventPartiallyPay PaymentEvent = "partially_pay"
	PaymentEventPay          PaymentEvent = "pay"
	PaymentEventConfirm      PaymentEvent = "confirm"
	PaymentEventComp         PaymentEvent = "comp"
	PaymentEventExpire       PaymentEvent = "expire"
)

// Notification names delivered to payables
const (
	NotificationPartiallyPaid = "partially_paid"
	NotificationPaid          = "paid"
	NotificationConfirmed     = "confirmed"
	NotificationExpired       = "expired"
)

func NewPaymentEvent(event string) (PaymentEvent, error) {
	e := PaymentEvent(event)
	if e.NotificationName() == "" {
		return "", fmt.Errorf("invalid payment event: %s", event)
	}
	return e, nil
}

// NotificationName maps the event to the name its payable sees. pay and comp both notify "paid".
func (e PaymentEvent) NotificationName() string {
	switch e {
	case PaymentEventPartiallyPay:
		return NotificationPartiallyPaid
	case PaymentEventPay, PaymentEventComp:
		return NotificationPaid
	case PaymentEventConfirm:
		return NotificationConfirmed
	case PaymentEventExpire:
		return NotificationExpired
	default:
		return ""
	}
}

func (e PaymentEvent) String() string {
	return string(e)
}
