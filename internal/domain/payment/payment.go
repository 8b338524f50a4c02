package payment

import (
	"fmt"
	"time"

	"github.com/cassiomorais/cybersource-gateway/internal/domain/errors"
	"github.com/google/uuid"
)

// State represents the payment state in the state machine
type State string

const (
	StateNew               State = "new"
	StatePending           State = "pending"
	StateAuthorization     State = "authorization"
	StateCompleted         State = "completed"
	StatePartiallyRefunded State = "partially_refunded"
	StateRefunded          State = "refunded"
	StateVoided            State = "authorization_voided"
	StateFailed            State = "failed"
)

// Payment represents a single transaction attempt against the processor.
// Its ID doubles as the transaction_uuid correlator echoed back by the
// hosted-checkout return callback.
type Payment struct {
	ID             uuid.UUID
	OrderID        string
	Amount         Amount
	RefundedCents  int64
	RemoteID       string
	RemoteState    string
	State          State
	AvsCode        string
	AvsLabel       string
	PaymentMethodID *uuid.UUID
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Amount represents a monetary amount in the smallest currency unit (e.g. cents).
type Amount struct {
	ValueCents int64
	Currency   string
}

// String returns a human-readable representation of the amount.
func (a Amount) String() string {
	return fmt.Sprintf("%s %s", a.FormatDecimal(), a.Currency)
}

// FormatDecimal renders the amount with exactly two decimal places, the
// format the processor expects on the wire.
func (a Amount) FormatDecimal() string {
	sign := ""
	cents := a.ValueCents
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

// Validate checks that the amount is valid.
func (a Amount) Validate() error {
	if a.ValueCents <= 0 {
		return errors.ErrInvalidAmount
	}
	if len(a.Currency) != 3 {
		return errors.NewValidationError("currency", "must be a 3-letter ISO 4217 code")
	}
	return nil
}

// NewPayment creates a new payment in state "new" for the given order.
func NewPayment(orderID string, amount Amount) (*Payment, error) {
	if err := amount.Validate(); err != nil {
		return nil, err
	}
	if orderID == "" {
		return nil, errors.NewValidationError("order_id", "cannot be empty")
	}

	now := time.Now()
	return &Payment{
		ID:        uuid.New(),
		OrderID:   orderID,
		Amount:    amount,
		State:     StateNew,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// transitions covers both flows: the hosted-checkout flow only ever moves
// new -> pending (accepted decisions) or gets deleted, while the on-site
// flow runs the authorize/capture/refund/void lifecycle.
var transitions = map[State][]State{
	StateNew: {
		StatePending,
		StateAuthorization,
		StateCompleted, // auth-and-capture in one call
		StateFailed,
	},
	StatePending: {
		StateFailed,
	},
	StateAuthorization: {
		StateCompleted,
		StateVoided,
		StateFailed,
	},
	StateCompleted: {
		StatePartiallyRefunded,
		StateRefunded,
		StateFailed,
	},
	StatePartiallyRefunded: {
		StatePartiallyRefunded,
		StateRefunded,
		StateFailed,
	},
	StateRefunded: {}, // Terminal state
	StateVoided:   {}, // Terminal state
	StateFailed:   {}, // Terminal state
}

// CanTransitionTo checks if the payment can transition to the given state
func (p *Payment) CanTransitionTo(newState State) bool {
	allowed, exists := transitions[p.State]
	if !exists {
		return false
	}
	for _, s := range allowed {
		if s == newState {
			return true
		}
	}
	return false
}

// TransitionTo transitions the payment to a new state
func (p *Payment) TransitionTo(newState State) error {
	if !p.CanTransitionTo(newState) {
		return errors.NewDomainError(
			"invalid_transition",
			"cannot transition from "+string(p.State)+" to "+string(newState),
			errors.ErrInvalidStateTransition,
		)
	}

	p.State = newState
	p.UpdatedAt = time.Now()
	return nil
}

// AssertState is the optimistic precondition guard run before every remote
// call. A violation indicates a logic bug or a racing request that observed
// a stale state; it is fatal and must not be retried.
func (p *Payment) AssertState(states ...State) error {
	for _, s := range states {
		if p.State == s {
			return nil
		}
	}
	return errors.NewDomainError(
		"state_violation",
		fmt.Sprintf("payment %s is in state %q", p.ID, p.State),
		errors.ErrStateViolation,
	)
}

// RefundableCents returns how much of the payment can still be refunded.
func (p *Payment) RefundableCents() int64 {
	return p.Amount.ValueCents - p.RefundedCents
}

// RecordRefund accumulates a refund and moves the payment to
// partially_refunded or refunded depending on the running total.
func (p *Payment) RecordRefund(cents int64) error {
	if cents <= 0 || cents > p.RefundableCents() {
		return errors.ErrRefundExceedsBalance
	}
	p.RefundedCents += cents
	if p.RefundedCents < p.Amount.ValueCents {
		return p.TransitionTo(StatePartiallyRefunded)
	}
	return p.TransitionTo(StateRefunded)
}

// MarkFailed transitions the payment to its terminal failed state.
func (p *Payment) MarkFailed() error {
	return p.TransitionTo(StateFailed)
}
