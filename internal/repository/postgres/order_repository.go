package postgres

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cassiomorais/cybersource-gateway/internal/domain/order"
)

// ErrOrderNotFound is returned when no order snapshot exists for an id.
var ErrOrderNotFound = stderrors.New("order not found")

// OrderRepository reads the order snapshots the surrounding commerce system
// writes into this database. The gateway never creates or mutates orders;
// it only reads them and appends audit comments through OrderLogRepository.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository creates an order repository.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

func (r *OrderRepository) db(ctx context.Context) DBTX {
	return ConnFromCtx(ctx, r.pool)
}

func (r *OrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	ord := &order.Order{}
	var itemsJSON []byte
	err := r.db(ctx).QueryRow(ctx,
		`SELECT id, email, owner_id, bill_to_given_name, bill_to_family_name,
		        bill_to_organization, bill_to_address_line1, bill_to_address_line2,
		        bill_to_locality, bill_to_administrative_area, bill_to_postal_code,
		        bill_to_country_code, items, balance_cents, currency
		 FROM orders WHERE id = $1`, id,
	).Scan(
		&ord.ID, &ord.Email, &ord.OwnerID,
		&ord.BillingAddress.GivenName, &ord.BillingAddress.FamilyName,
		&ord.BillingAddress.Organization, &ord.BillingAddress.AddressLine1,
		&ord.BillingAddress.AddressLine2, &ord.BillingAddress.Locality,
		&ord.BillingAddress.AdministrativeArea, &ord.BillingAddress.PostalCode,
		&ord.BillingAddress.CountryCode, &itemsJSON, &ord.BalanceCents, &ord.Currency,
	)
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}

	if len(itemsJSON) > 0 {
		if err := json.Unmarshal(itemsJSON, &ord.Items); err != nil {
			return nil, fmt.Errorf("decode order items: %w", err)
		}
	}
	return ord, nil
}

// OrderLogRepository appends order audit comments.
type OrderLogRepository struct {
	pool *pgxpool.Pool
}

// NewOrderLogRepository creates an order log repository.
func NewOrderLogRepository(pool *pgxpool.Pool) *OrderLogRepository {
	return &OrderLogRepository{pool: pool}
}

func (r *OrderLogRepository) db(ctx context.Context) DBTX {
	return ConnFromCtx(ctx, r.pool)
}

func (r *OrderLogRepository) AddComment(ctx context.Context, orderID, comment string) error {
	_, err := r.db(ctx).Exec(ctx,
		`INSERT INTO order_log (order_id, comment, created_at) VALUES ($1, $2, $3)`,
		orderID, comment, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("add order comment: %w", err)
	}
	return nil
}
