package hosted

import (
	"context"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cassiomorais/cybersource-gateway/internal/config"
	"github.com/cassiomorais/cybersource-gateway/internal/domain/errors"
	"github.com/cassiomorais/cybersource-gateway/internal/domain/payment"
	"github.com/cassiomorais/cybersource-gateway/internal/gateway/signature"
	"github.com/cassiomorais/cybersource-gateway/internal/testutil"
)

// signedReturnValues builds a return POST whose signature covers the given
// pairs in order, the way the processor signs its callback.
func signedReturnValues(t *testing.T, secret string, pairs [][2]string) url.Values {
	t.Helper()

	fields := signature.NewFieldSet()
	for _, pair := range pairs {
		fields.Set(pair[0], pair[1])
	}
	fields.Set("signed_field_names", "")
	fields.Set("signed_field_names", strings.Join(fields.Names(), ","))

	sig, err := signature.Sign(fields, secret)
	require.NoError(t, err)

	values := url.Values{}
	for _, name := range fields.Names() {
		v, _ := fields.Get(name)
		values.Set(name, v)
	}
	values.Set("signature", sig)
	return values
}

func acceptPairs(p *payment.Payment) [][2]string {
	return [][2]string{
		{"req_reference_number", p.OrderID},
		{"req_transaction_uuid", p.ID.String()},
		{"req_transaction_type", config.SAHCTransactionAuthCreateToken},
		{"req_currency", "USD"},
		{"decision", "ACCEPT"},
		{"message", "Request was processed successfully."},
		{"auth_avs_code", "Y"},
		{"auth_amount", "49.99"},
		{"card_type_name", "Visa"},
		{"payment_token", "token-9000"},
		{"transaction_id", "txn-1"},
	}
}

func storedPayment(t *testing.T, f *hostedFixture) *payment.Payment {
	t.Helper()
	p := testutil.NewTestPayment(payment.StateNew)
	require.NoError(t, f.paymentRepo.Create(context.Background(), p))
	return p
}

func TestOnReturnReferenceMismatchIsIgnored(t *testing.T) {
	f := newHostedFixture(t, testGatewayConfig())
	p := storedPayment(t, f)

	raw := signedReturnValues(t, testSecret, acceptPairs(p))
	raw.Set("req_reference_number", "9999")

	got, err := f.gateway.OnReturn(context.Background(), "1042", raw)
	assert.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, payment.StateNew, f.paymentRepo.Stored(p.ID).State)
}

func TestOnReturnUnknownTransactionIsIgnored(t *testing.T) {
	f := newHostedFixture(t, testGatewayConfig())
	p := storedPayment(t, f)

	raw := signedReturnValues(t, testSecret, acceptPairs(p))
	raw.Set("req_transaction_uuid", "not-a-uuid")
	got, err := f.gateway.OnReturn(context.Background(), "1042", raw)
	assert.NoError(t, err)
	assert.Nil(t, got)

	other := testutil.NewTestPayment(payment.StateNew)
	raw = signedReturnValues(t, testSecret, acceptPairs(other))
	got, err = f.gateway.OnReturn(context.Background(), "1042", raw)
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestOnReturnMissingSignature(t *testing.T) {
	f := newHostedFixture(t, testGatewayConfig())
	p := storedPayment(t, f)

	raw := signedReturnValues(t, testSecret, acceptPairs(p))
	raw.Del("signature")

	_, err := f.gateway.OnReturn(context.Background(), "1042", raw)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrNoSignature)

	var gwErr *errors.GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, errors.GenericDeclineMessage, gwErr.Message)
}

func TestOnReturnMissingSignedFieldNames(t *testing.T) {
	f := newHostedFixture(t, testGatewayConfig())
	p := storedPayment(t, f)

	raw := signedReturnValues(t, testSecret, acceptPairs(p))
	raw.Del("signed_field_names")

	_, err := f.gateway.OnReturn(context.Background(), "1042", raw)
	assert.ErrorIs(t, err, errors.ErrNoSignedFieldNames)
}

func TestOnReturnTamperedFieldFailsValidation(t *testing.T) {
	f := newHostedFixture(t, testGatewayConfig())
	p := storedPayment(t, f)

	raw := signedReturnValues(t, testSecret, acceptPairs(p))
	raw.Set("auth_amount", "0.01")

	_, err := f.gateway.OnReturn(context.Background(), "1042", raw)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrSignatureMismatch)

	// The payment is left alone for a later, valid callback.
	assert.Equal(t, payment.StateNew, f.paymentRepo.Stored(p.ID).State)
}

func TestOnReturnAccept(t *testing.T) {
	f := newHostedFixture(t, testGatewayConfig())
	p := storedPayment(t, f)

	raw := signedReturnValues(t, testSecret, acceptPairs(p))

	got, err := f.gateway.OnReturn(context.Background(), "1042", raw)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, payment.StatePending, got.State)
	assert.Equal(t, "ACCEPT", got.RemoteState)
	assert.Equal(t, "token-9000", got.RemoteID)
	assert.Equal(t, "Y", got.AvsCode)
	assert.Equal(t, "Street address and five-digit postal code match.", got.AvsLabel)
	assert.Equal(t, int64(4999), got.Amount.ValueCents)
	assert.Equal(t, "USD", got.Amount.Currency)

	stored := f.paymentRepo.Stored(p.ID)
	require.NotNil(t, stored)
	assert.Equal(t, payment.StatePending, stored.State)
}

func TestOnReturnAcceptUnknownAvsCode(t *testing.T) {
	f := newHostedFixture(t, testGatewayConfig())
	p := storedPayment(t, f)

	pairs := acceptPairs(p)
	pairs[6] = [2]string{"auth_avs_code", "9"}
	raw := signedReturnValues(t, testSecret, pairs)

	got, err := f.gateway.OnReturn(context.Background(), "1042", raw)
	require.NoError(t, err)
	assert.Equal(t, "Unknown AVS response code.", got.AvsLabel)
}

func TestOnReturnAcceptUnsupportedCardBrand(t *testing.T) {
	f := newHostedFixture(t, testGatewayConfig())
	p := storedPayment(t, f)

	pairs := acceptPairs(p)
	pairs[8] = [2]string{"card_type_name", "Carte Blanche"}
	raw := signedReturnValues(t, testSecret, pairs)

	_, err := f.gateway.OnReturn(context.Background(), "1042", raw)
	assert.ErrorIs(t, err, errors.ErrUnsupportedCardBrand)
}

func TestOnReturnDeclineDeletesPaymentAndComments(t *testing.T) {
	f := newHostedFixture(t, testGatewayConfig())
	p := storedPayment(t, f)

	pairs := acceptPairs(p)
	pairs[4] = [2]string{"decision", "DECLINE"}
	pairs[5] = [2]string{"message", "Decline - Insufficient funds in the account."}
	raw := signedReturnValues(t, testSecret, pairs)

	_, err := f.gateway.OnReturn(context.Background(), "1042", raw)
	require.Error(t, err)

	var gwErr *errors.GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, errors.GenericDeclineMessage, gwErr.Message)

	assert.Nil(t, f.paymentRepo.Stored(p.ID))

	comments := f.orderLog.Comments("1042")
	require.Len(t, comments, 1)
	assert.Contains(t, comments[0], p.ID.String())
	assert.Contains(t, comments[0], "DECLINE:Decline - Insufficient funds in the account.")
}

func TestOnReturnDeclineIncludesInvalidFields(t *testing.T) {
	f := newHostedFixture(t, testGatewayConfig())
	p := storedPayment(t, f)

	pairs := acceptPairs(p)
	pairs[4] = [2]string{"decision", "ERROR"}
	pairs[5] = [2]string{"message", "Invalid field or fields in the request."}
	pairs = append(pairs, [2]string{"invalid_fields", "bill_to_address_postal_code"})
	raw := signedReturnValues(t, testSecret, pairs)

	_, err := f.gateway.OnReturn(context.Background(), "1042", raw)
	require.Error(t, err)

	comments := f.orderLog.Comments("1042")
	require.Len(t, comments, 1)
	assert.Contains(t, comments[0], " - bill_to_address_postal_code")
}

func TestOnReturnUnknownDecisionRecordsRemoteState(t *testing.T) {
	f := newHostedFixture(t, testGatewayConfig())
	p := storedPayment(t, f)

	pairs := acceptPairs(p)
	pairs[4] = [2]string{"decision", "PARTIAL"}
	raw := signedReturnValues(t, testSecret, pairs)

	got, err := f.gateway.OnReturn(context.Background(), "1042", raw)
	require.NoError(t, err)
	assert.Equal(t, "PARTIAL", got.RemoteState)
	assert.Equal(t, payment.StateNew, got.State)
}
