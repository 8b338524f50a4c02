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

// PaymentRepository persists payments.
type PaymentRepository struct {
	pool *pgxpool.Pool
}

// NewPaymentRepository creates a payment repository.
func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{pool: pool}
}

func (r *PaymentRepository) db(ctx context.Context) DBTX {
	return ConnFromCtx(ctx, r.pool)
}

const paymentColumns = `id, order_id, amount_cents, currency, refunded_cents,
	remote_id, remote_state, state, avs_code, avs_label, payment_method_id,
	created_at, updated_at`

func (r *PaymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	_, err := r.db(ctx).Exec(ctx,
		`INSERT INTO payments (`+paymentColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		p.ID, p.OrderID, p.Amount.ValueCents, p.Amount.Currency, p.RefundedCents,
		p.RemoteID, p.RemoteState, p.State, p.AvsCode, p.AvsLabel, p.PaymentMethodID,
		p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

func (r *PaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	row := r.db(ctx).QueryRow(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id)
	return scanPayment(row)
}

func (r *PaymentRepository) GetByOrderAndID(ctx context.Context, orderID string, id uuid.UUID) (*payment.Payment, error) {
	row := r.db(ctx).QueryRow(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE order_id = $1 AND id = $2`,
		orderID, id)
	return scanPayment(row)
}

func (r *PaymentRepository) Update(ctx context.Context, p *payment.Payment) error {
	tag, err := r.db(ctx).Exec(ctx,
		`UPDATE payments
		 SET amount_cents = $2, currency = $3, refunded_cents = $4,
		     remote_id = $5, remote_state = $6, state = $7,
		     avs_code = $8, avs_label = $9, payment_method_id = $10,
		     updated_at = $11
		 WHERE id = $1`,
		p.ID, p.Amount.ValueCents, p.Amount.Currency, p.RefundedCents,
		p.RemoteID, p.RemoteState, p.State, p.AvsCode, p.AvsLabel,
		p.PaymentMethodID, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update payment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return errors.ErrPaymentNotFound
	}
	return nil
}

func (r *PaymentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db(ctx).Exec(ctx, `DELETE FROM payments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete payment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return errors.ErrPaymentNotFound
	}
	return nil
}

func scanPayment(row pgx.Row) (*payment.Payment, error) {
	p := &payment.Payment{}
	err := row.Scan(
		&p.ID, &p.OrderID, &p.Amount.ValueCents, &p.Amount.Currency, &p.RefundedCents,
		&p.RemoteID, &p.RemoteState, &p.State, &p.AvsCode, &p.AvsLabel,
		&p.PaymentMethodID, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, errors.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("scan payment: %w", err)
	}
	return p, nil
}
