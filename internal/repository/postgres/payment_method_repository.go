package postgres

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cassiomorais/cybersource-gateway/internal/domain/errors"
	"github.com/cassiomorais/cybersource-gateway/internal/domain/payment"
)

// PaymentMethodRepository persists payment methods.
type PaymentMethodRepository struct {
	pool *pgxpool.Pool
}

// NewPaymentMethodRepository creates a payment method repository.
func NewPaymentMethodRepository(pool *pgxpool.Pool) *PaymentMethodRepository {
	return &PaymentMethodRepository{pool: pool}
}

func (r *PaymentMethodRepository) db(ctx context.Context) DBTX {
	return ConnFromCtx(ctx, r.pool)
}

const methodColumns = `id, owner_id, masked_number, brand, exp_month, exp_year,
	transient_token, remote_instrument_id, remote_customer_id, reusable,
	expires_at, created_at, updated_at`

func (r *PaymentMethodRepository) Create(ctx context.Context, m *payment.Method) error {
	_, err := r.db(ctx).Exec(ctx,
		`INSERT INTO payment_methods (`+methodColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		m.ID, m.OwnerID, m.MaskedNumber, m.Brand, m.ExpMonth, m.ExpYear,
		m.TransientToken, m.RemoteInstrumentID, m.RemoteCustomerID, m.Reusable,
		m.ExpiresAt, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create payment method: %w", err)
	}
	return nil
}

func (r *PaymentMethodRepository) GetByID(ctx context.Context, id uuid.UUID) (*payment.Method, error) {
	m := &payment.Method{}
	err := r.db(ctx).QueryRow(ctx,
		`SELECT `+methodColumns+` FROM payment_methods WHERE id = $1`, id,
	).Scan(
		&m.ID, &m.OwnerID, &m.MaskedNumber, &m.Brand, &m.ExpMonth, &m.ExpYear,
		&m.TransientToken, &m.RemoteInstrumentID, &m.RemoteCustomerID, &m.Reusable,
		&m.ExpiresAt, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, errors.ErrPaymentMethodNotFound
		}
		return nil, fmt.Errorf("scan payment method: %w", err)
	}
	return m, nil
}

func (r *PaymentMethodRepository) Update(ctx context.Context, m *payment.Method) error {
	tag, err := r.db(ctx).Exec(ctx,
		`UPDATE payment_methods
		 SET masked_number = $2, brand = $3, exp_month = $4, exp_year = $5,
		     transient_token = $6, remote_instrument_id = $7,
		     remote_customer_id = $8, reusable = $9, expires_at = $10,
		     updated_at = $11
		 WHERE id = $1`,
		m.ID, m.MaskedNumber, m.Brand, m.ExpMonth, m.ExpYear,
		m.TransientToken, m.RemoteInstrumentID, m.RemoteCustomerID, m.Reusable,
		m.ExpiresAt, m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update payment method: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return errors.ErrPaymentMethodNotFound
	}
	return nil
}

func (r *PaymentMethodRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db(ctx).Exec(ctx, `DELETE FROM payment_methods WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete payment method: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return errors.ErrPaymentMethodNotFound
	}
	return nil
}
