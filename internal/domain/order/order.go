// Package order holds the collaborator-owned order types this gateway
// consumes. Order management itself lives elsewhere; the gateway only needs
// enough of the order to build processor requests and append audit comments.
package order

import "context"

// Address is the billing address attached to an order.
type Address struct {
	GivenName    string
	FamilyName   string
	Organization string
	AddressLine1 string
	AddressLine2 string
	Locality     string
	AdministrativeArea string
	PostalCode   string
	CountryCode  string
}

// Empty reports whether no address fields are set.
func (a Address) Empty() bool {
	return a == Address{}
}

// LineItem is a single order line.
type LineItem struct {
	SKU            string
	Title          string
	UnitPriceCents int64
	Quantity       int
}

// Order is the slice of an order this gateway cares about.
type Order struct {
	ID             string
	Email          string
	OwnerID        string // empty for anonymous checkout
	BillingAddress Address
	Items          []LineItem
	BalanceCents   int64
	Currency       string
}

// Log appends order-level audit comments, e.g. for declined transactions.
type Log interface {
	AddComment(ctx context.Context, orderID, comment string) error
}

// Repository loads orders owned by the surrounding commerce system.
type Repository interface {
	GetByID(ctx context.Context, id string) (*Order, error)
}
