package payment

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for payment persistence
type Repository interface {
	// Create creates a new payment
	Create(ctx context.Context, payment *Payment) error

	// GetByID retrieves a payment by ID
	GetByID(ctx context.Context, id uuid.UUID) (*Payment, error)

	// GetByOrderAndID retrieves a payment by its transaction correlator,
	// scoped to the order it belongs to.
	GetByOrderAndID(ctx context.Context, orderID string, id uuid.UUID) (*Payment, error)

	// Update updates an existing payment
	Update(ctx context.Context, payment *Payment) error

	// Delete removes a payment that never reached a committed state.
	Delete(ctx context.Context, id uuid.UUID) error
}

// MethodRepository defines the interface for payment method persistence
type MethodRepository interface {
	Create(ctx context.Context, method *Method) error
	GetByID(ctx context.Context, id uuid.UUID) (*Method, error)
	Update(ctx context.Context, method *Method) error
	Delete(ctx context.Context, id uuid.UUID) error
}
