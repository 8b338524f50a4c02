package hosted

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cassiomorais/cybersource-gateway/internal/domain/errors"
	"github.com/cassiomorais/cybersource-gateway/internal/domain/order"
	"github.com/cassiomorais/cybersource-gateway/internal/domain/payment"
	"github.com/cassiomorais/cybersource-gateway/internal/gateway/signature"
)

// maxLineItems is the processor's cap on invoice line items.
const maxLineItems = 200

// RedirectRequest carries the per-request inputs for building the redirect
// form that are not part of the order itself.
type RedirectRequest struct {
	Amount        payment.Amount
	ReturnURL     string
	CancelURL     string
	ClientIP      string
	Authenticated bool
}

// RedirectForm is the fully assembled, signed hosted-checkout POST.
type RedirectForm struct {
	URL       string
	Fields    *signature.FieldSet
	PaymentID string
}

// BuildRedirectForm assembles the full signed field set for the redirect
// POST. It creates the local Payment record first, exactly once, because the
// payment id is the transaction_uuid correlator and is itself a signed field.
func (g *Gateway) BuildRedirectForm(ctx context.Context, ord *order.Order, req RedirectRequest) (*RedirectForm, error) {
	if g.cfg.SecretKey == "" {
		return nil, errors.ErrSecretNotConfigured
	}
	if g.cfg.MerchantID == "" {
		return nil, errors.ErrMerchantNotConfigured
	}
	if g.cfg.ProfileID == "" {
		return nil, errors.ErrProfileNotConfigured
	}

	p, err := payment.NewPayment(ord.ID, req.Amount)
	if err != nil {
		return nil, err
	}
	if err := g.paymentRepo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create payment: %w", err)
	}

	data := signature.NewFieldSet()

	// Required fields, in the order the processor documentation lists them.
	data.Set("access_key", g.cfg.AccessKey)
	data.Set("profile_id", g.cfg.ProfileID)
	data.Set("reference_number", ord.ID)
	data.Set("locale", g.cfg.Locale)
	data.Set("amount", req.Amount.FormatDecimal())
	data.Set("currency", req.Amount.Currency)
	data.Set("transaction_type", g.cfg.TransactionType)
	data.Set("transaction_uuid", p.ID.String())
	// UTC timestamp; used by the processor to detect duplicate attempts.
	data.Set("signed_date_time", time.Now().UTC().Format("2006-01-02T15:04:05Z"))

	// Session artifacts the checkout form posts along but the processor must
	// not expect to be signed. Anonymous sessions carry no session token;
	// declaring a field and then not sending it trips an access-denied error
	// on the processor side.
	if req.Authenticated {
		data.Set("unsigned_field_names", "form_build_id,form_id,form_token")
	} else {
		data.Set("unsigned_field_names", "form_build_id,form_id")
	}

	// The processor accepts at most 15 characters for the client IP; IPv6
	// addresses are longer and get truncated.
	if req.ClientIP != "" {
		data.Set("customer_ip_address", truncate(req.ClientIP, 15))
	}
	data.Set("payment_method", "card")
	if req.ReturnURL != "" {
		data.Set("override_custom_receipt_page", req.ReturnURL)
	}
	if req.CancelURL != "" {
		data.Set("override_custom_cancel_page", req.CancelURL)
	}
	if ord.Email != "" {
		data.Set("bill_to_email", ord.Email)
	}

	g.addBillingFields(data, ord.BillingAddress)

	// Helpful for sorting transactions in the processor's back office.
	if g.siteName != "" {
		data.Set("merchant_defined_data5", truncate(g.siteName, 100))
	}

	sent := g.addLineItems(data, ord.Items)
	if sent > 0 {
		data.Set("line_item_count", strconv.Itoa(sent))
	}

	// The signed-field list must list itself, otherwise the list of what was
	// signed is itself open to tampering.
	data.Set("signed_field_names", "")
	names := data.Names()
	data.Set("signed_field_names", strings.Join(names, ","))

	sig, err := signature.Sign(data, g.cfg.SecretKey)
	if err != nil {
		return nil, err
	}
	data.Set("signature", sig)

	if g.cfg.LogAPICalls {
		g.logger.Info().
			Str("order_id", ord.ID).
			Str("transaction_uuid", p.ID.String()).
			Strs("signed_field_names", names).
			Msg("built hosted checkout redirect form")
	}

	return &RedirectForm{
		URL:       g.RedirectURL(),
		Fields:    data,
		PaymentID: p.ID.String(),
	}, nil
}

func (g *Gateway) addBillingFields(data *signature.FieldSet, addr order.Address) {
	if addr.Empty() {
		return
	}
	if addr.GivenName != "" {
		data.Set("bill_to_forename", addr.GivenName)
	}
	if addr.FamilyName != "" {
		data.Set("bill_to_surname", addr.FamilyName)
	}
	if addr.Organization != "" {
		data.Set("bill_to_company_name", addr.Organization)
	}
	if addr.AddressLine1 != "" {
		data.Set("bill_to_address_line1", addr.AddressLine1)
	}
	if addr.AddressLine2 != "" {
		data.Set("bill_to_address_line2", addr.AddressLine2)
	}
	if addr.Locality != "" {
		data.Set("bill_to_address_city", addr.Locality)
	}
	// State is optional; some countries have none.
	if addr.AdministrativeArea != "" {
		data.Set("bill_to_address_state", addr.AdministrativeArea)
	}
	if addr.CountryCode != "" {
		data.Set("bill_to_address_country", addr.CountryCode)
	}
	if addr.PostalCode != "" {
		data.Set("bill_to_address_postal_code", addr.PostalCode)
	}
}

// addLineItems emits item_N_* fields for at most the first maxLineItems
// input items. Items with a negative unit price are skipped, keeping their
// positional index, because the processor rejects negative line amounts;
// the order itself is not rejected. Returns how many items were sent.
func (g *Gateway) addLineItems(data *signature.FieldSet, items []order.LineItem) int {
	sent := 0
	for i := 0; i < len(items) && i < maxLineItems; i++ {
		item := items[i]
		if item.UnitPriceCents < 0 {
			continue
		}
		sent++
		prefix := fmt.Sprintf("item_%d_", i)
		unitPrice := payment.Amount{ValueCents: item.UnitPriceCents}
		data.Set(prefix+"unit_price", unitPrice.FormatDecimal())
		data.Set(prefix+"quantity", strconv.Itoa(item.Quantity))
		if item.Title != "" {
			data.Set(prefix+"name", truncate(item.Title, 199))
		}
		data.Set(prefix+"sku", item.SKU)
	}
	return sent
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
