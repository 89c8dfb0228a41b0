package payment

import (
	"context"
	"fmt"
	"time"

	vo "github.com/orris-inc/coinpayable/internal/domain/payment/valueobjects"
)

type transitionKey struct {
	from  vo.PaymentState
	event vo.PaymentEvent
}

var transitions = map[transitionKey]vo.PaymentState{
	{vo.PaymentStatePending, vo.PaymentEventPartiallyPay}: vo.PaymentStatePartialPayment,
	{vo.PaymentStatePending, vo.PaymentEventPay}:          vo.PaymentStatePaidInFull,
	{vo.PaymentStatePartialPayment, vo.PaymentEventPay}:   vo.PaymentStatePaidInFull,
	{vo.PaymentStatePaidInFull, vo.PaymentEventConfirm}:   vo.PaymentStateConfirmed,
	{vo.PaymentStatePending, vo.PaymentEventComp}:         vo.PaymentStateComped,
	{vo.PaymentStatePartialPayment, vo.PaymentEventComp}:  vo.PaymentStateComped,
	{vo.PaymentStatePending, vo.PaymentEventExpire}:       vo.PaymentStateExpired,
}

// Transition returns the target state of event fired from state from
func Transition(from vo.PaymentState, event vo.PaymentEvent) (vo.PaymentState, error) {
	to, ok := transitions[transitionKey{from: from, event: event}]
	if !ok {
		return "", &InvalidTransitionError{From: from, Event: event}
	}
	return to, nil
}

// StateSaver persists a transition as a compare-and-set on the previous state
type StateSaver interface {
	SaveState(ctx context.Context, p *Payment, from vo.PaymentState) error
}

// TransitionHook runs once after every persisted transition
type TransitionHook interface {
	AfterTransition(ctx context.Context, p *Payment, event vo.PaymentEvent)
}

type StateMachine struct {
	saver StateSaver
	hooks []TransitionHook
}

func NewStateMachine(saver StateSaver, hooks ...TransitionHook) *StateMachine {
	return &StateMachine{saver: saver, hooks: hooks}
}

func (m *StateMachine) CanFire(p *Payment, event vo.PaymentEvent) bool {
	_, err := Transition(p.state, event)
	return err == nil
}

// Fire applies event to p, persists it and then runs the hooks.
// An invalid event or a failed save leaves p unchanged and runs no hook.
func (m *StateMachine) Fire(ctx context.Context, p *Payment, event vo.PaymentEvent) error {
	from := p.state
	to, err := Transition(from, event)
	if err != nil {
		return &InvalidTransitionError{PaymentID: p.id, From: from, Event: event}
	}

	prevVersion, prevUpdatedAt := p.version, p.updatedAt
	p.state = to
	p.touch()

	if err := m.saver.SaveState(ctx, p, from); err != nil {
		p.restoreState(from, prevVersion, prevUpdatedAt)
		return fmt.Errorf("failed to persist %s of payment %d: %w", event, p.id, err)
	}

	for _, hook := range m.hooks {
		hook.AfterTransition(ctx, p, event)
	}
	return nil
}

func (p *Payment) restoreState(state vo.PaymentState, version int, updatedAt time.Time) {
	p.state = state
	p.version = version
	p.updatedAt = updatedAt
}
