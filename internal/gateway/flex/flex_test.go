package flex

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cassiomorais/cybersource-gateway/internal/config"
	"github.com/cassiomorais/cybersource-gateway/internal/cybersource"
	"github.com/cassiomorais/cybersource-gateway/internal/domain/errors"
	"github.com/cassiomorais/cybersource-gateway/internal/domain/payment"
	"github.com/cassiomorais/cybersource-gateway/internal/testutil"
)

type gatewayFixture struct {
	gateway     *Gateway
	api         *testutil.MockAPIClient
	paymentRepo *testutil.MockPaymentRepository
	methodRepo  *testutil.MockMethodRepository
	orderLog    *testutil.MockOrderLog
}

func newFixture(t *testing.T) *gatewayFixture {
	t.Helper()
	f := &gatewayFixture{
		api:         &testutil.MockAPIClient{},
		paymentRepo: testutil.NewMockPaymentRepository(),
		methodRepo:  testutil.NewMockMethodRepository(),
		orderLog:    testutil.NewMockOrderLog(),
	}
	f.gateway = NewGateway(config.FlexConfig{
		MerchantID:      "test_merchant",
		TransactionType: config.FlexTransactionAuthOnly,
	}, f.api, f.paymentRepo, f.methodRepo, f.orderLog, nil, zerolog.Nop())
	return f
}

func TestCreatePaymentWithTransientToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ord := testutil.NewTestOrder()
	p := testutil.NewTestPayment(payment.StateNew)
	m := testutil.NewTestMethod(true)
	require.NoError(t, f.paymentRepo.Create(ctx, p))
	require.NoError(t, f.methodRepo.Create(ctx, m))

	var sent *cybersource.CreatePaymentRequest
	f.api.CreatePaymentFunc = func(ctx context.Context, req *cybersource.CreatePaymentRequest) (*cybersource.PaymentResponse, error) {
		sent = req
		return &cybersource.PaymentResponse{
			ID:     "remote-42",
			Status: cybersource.StatusAuthorized,
			TokenInformation: &cybersource.ResponseTokenInformation{
				Customer:          &cybersource.IDRef{ID: "customer-9"},
				PaymentInstrument: &cybersource.IDRef{ID: "instrument-9"},
			},
		}, nil
	}

	require.NoError(t, f.gateway.CreatePayment(ctx, ord, p, m, false))

	require.NotNil(t, sent)
	assert.Equal(t, []string{"TOKEN_CREATE"}, sent.ProcessingInformation.ActionList)
	assert.Equal(t, []string{"customer", "paymentInstrument", "shippingAddress"}, sent.ProcessingInformation.ActionTokenTypes)
	assert.False(t, sent.ProcessingInformation.Capture)
	require.NotNil(t, sent.TokenInformation)
	assert.NotEmpty(t, sent.TokenInformation.TransientTokenJwt)
	assert.Nil(t, sent.PaymentInformation)
	assert.Equal(t, "1042", sent.ClientReferenceInformation.Code)
	assert.Equal(t, "49.99", sent.OrderInformation.AmountDetails.TotalAmount)
	assert.Equal(t, "Ada", sent.OrderInformation.BillTo.FirstName)

	assert.Equal(t, payment.StateAuthorization, p.State)
	assert.Equal(t, "remote-42", p.RemoteID)
	require.NotNil(t, p.PaymentMethodID)
	assert.Equal(t, m.ID, *p.PaymentMethodID)

	stored := f.methodRepo.Stored(m.ID)
	require.NotNil(t, stored)
	assert.True(t, stored.Reusable)
	assert.Empty(t, stored.TransientToken)
	assert.Equal(t, "instrument-9", stored.RemoteInstrumentID)
	assert.Equal(t, "customer-9", stored.RemoteCustomerID)
}

func TestCreatePaymentAnonymousOwnerSkipsCustomerID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ord := testutil.NewTestOrder()
	ord.OwnerID = ""
	p := testutil.NewTestPayment(payment.StateNew)
	m := testutil.NewTestMethod(true)
	m.OwnerID = ""
	require.NoError(t, f.paymentRepo.Create(ctx, p))
	require.NoError(t, f.methodRepo.Create(ctx, m))

	f.api.CreatePaymentFunc = func(ctx context.Context, req *cybersource.CreatePaymentRequest) (*cybersource.PaymentResponse, error) {
		return &cybersource.PaymentResponse{
			ID:     "remote-43",
			Status: cybersource.StatusAuthorized,
			TokenInformation: &cybersource.ResponseTokenInformation{
				Customer:          &cybersource.IDRef{ID: "customer-9"},
				PaymentInstrument: &cybersource.IDRef{ID: "instrument-9"},
			},
		}, nil
	}

	require.NoError(t, f.gateway.CreatePayment(ctx, ord, p, m, false))

	stored := f.methodRepo.Stored(m.ID)
	require.NotNil(t, stored)
	assert.Equal(t, "instrument-9", stored.RemoteInstrumentID)
	assert.Empty(t, stored.RemoteCustomerID)
}

func TestCreatePaymentWithStoredInstrumentAndCapture(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ord := testutil.NewTestOrder()
	p := testutil.NewTestPayment(payment.StateNew)
	m := testutil.NewTestMethod(false)
	require.NoError(t, f.paymentRepo.Create(ctx, p))
	require.NoError(t, f.methodRepo.Create(ctx, m))

	var sent *cybersource.CreatePaymentRequest
	f.api.CreatePaymentFunc = func(ctx context.Context, req *cybersource.CreatePaymentRequest) (*cybersource.PaymentResponse, error) {
		sent = req
		return &cybersource.PaymentResponse{ID: "remote-44", Status: cybersource.StatusAuthorized}, nil
	}

	require.NoError(t, f.gateway.CreatePayment(ctx, ord, p, m, true))

	require.NotNil(t, sent)
	assert.True(t, sent.ProcessingInformation.Capture)
	assert.Nil(t, sent.TokenInformation)
	require.NotNil(t, sent.PaymentInformation)
	assert.Equal(t, "instrument-1", sent.PaymentInformation.PaymentInstrument.ID)

	assert.Equal(t, payment.StateCompleted, p.State)
}

func TestCreatePaymentDeclined(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ord := testutil.NewTestOrder()
	p := testutil.NewTestPayment(payment.StateNew)
	m := testutil.NewTestMethod(false)
	require.NoError(t, f.paymentRepo.Create(ctx, p))

	f.api.CreatePaymentFunc = func(ctx context.Context, req *cybersource.CreatePaymentRequest) (*cybersource.PaymentResponse, error) {
		return &cybersource.PaymentResponse{
			ID:     "remote-45",
			Status: cybersource.StatusDeclined,
			ErrorInformation: &cybersource.ErrorInformation{
				Reason:  "PROCESSOR_DECLINED",
				Message: "Decline - General decline of the card.",
			},
		}, nil
	}

	err := f.gateway.CreatePayment(ctx, ord, p, m, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrDeclined)
	var gwErr *errors.GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, "PROCESSOR_DECLINED", gwErr.Reason)

	stored := f.paymentRepo.Stored(p.ID)
	require.NotNil(t, stored)
	assert.Equal(t, payment.StateFailed, stored.State)
	assert.Equal(t, cybersource.StatusDeclined, stored.RemoteState)
}

func TestCreatePaymentInvalidRequest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p := testutil.NewTestPayment(payment.StateNew)
	require.NoError(t, f.paymentRepo.Create(ctx, p))

	f.api.CreatePaymentFunc = func(ctx context.Context, req *cybersource.CreatePaymentRequest) (*cybersource.PaymentResponse, error) {
		return &cybersource.PaymentResponse{
			Status: cybersource.StatusInvalidRequest,
			ErrorInformation: &cybersource.ErrorInformation{
				Reason:  "MISSING_FIELD",
				Message: "Declined - The request is missing one or more fields",
			},
		}, nil
	}

	err := f.gateway.CreatePayment(ctx, testutil.NewTestOrder(), p, testutil.NewTestMethod(false), false)
	assert.ErrorIs(t, err, errors.ErrInvalidRequest)
}

func TestCreatePaymentStateViolationSkipsAPICall(t *testing.T) {
	f := newFixture(t)

	p := testutil.NewTestPayment(payment.StateCompleted)
	err := f.gateway.CreatePayment(context.Background(), testutil.NewTestOrder(), p, testutil.NewTestMethod(false), false)

	assert.ErrorIs(t, err, errors.ErrStateViolation)
	assert.Empty(t, f.api.Calls())
}

func TestCapturePaymentPartial(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p := testutil.NewTestPayment(payment.StateAuthorization)
	require.NoError(t, f.paymentRepo.Create(ctx, p))

	var sent *cybersource.CaptureRequest
	f.api.CapturePaymentFunc = func(ctx context.Context, remoteID string, req *cybersource.CaptureRequest) (*cybersource.PaymentResponse, error) {
		sent = req
		return &cybersource.PaymentResponse{ID: remoteID, Status: "PENDING"}, nil
	}

	require.NoError(t, f.gateway.CapturePayment(ctx, p, 3000))

	require.NotNil(t, sent)
	assert.Equal(t, "30.00", sent.OrderInformation.AmountDetails.TotalAmount)
	assert.Equal(t, payment.StateCompleted, p.State)
	assert.Equal(t, int64(3000), p.Amount.ValueCents)
}

func TestCapturePaymentDefaultsToFullAmount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p := testutil.NewTestPayment(payment.StateAuthorization)
	require.NoError(t, f.paymentRepo.Create(ctx, p))

	require.NoError(t, f.gateway.CapturePayment(ctx, p, 0))
	assert.Equal(t, int64(4999), p.Amount.ValueCents)
	assert.Equal(t, payment.StateCompleted, p.State)
}

func TestCaptureExceedingAuthorizationFails(t *testing.T) {
	f := newFixture(t)

	p := testutil.NewTestPayment(payment.StateAuthorization)
	err := f.gateway.CapturePayment(context.Background(), p, 5000)

	assert.ErrorIs(t, err, errors.ErrInvalidAmount)
	assert.Empty(t, f.api.Calls())
}

func TestRefundPaymentAccumulates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p := testutil.NewTestPayment(payment.StateCompleted)
	require.NoError(t, f.paymentRepo.Create(ctx, p))

	require.NoError(t, f.gateway.RefundPayment(ctx, p, 2000))
	assert.Equal(t, payment.StatePartiallyRefunded, p.State)
	assert.Equal(t, int64(2000), p.RefundedCents)

	// Zero amount refunds the rest.
	require.NoError(t, f.gateway.RefundPayment(ctx, p, 0))
	assert.Equal(t, payment.StateRefunded, p.State)
	assert.Equal(t, int64(4999), p.RefundedCents)
}

func TestRefundExceedingBalanceSkipsAPICall(t *testing.T) {
	f := newFixture(t)

	p := testutil.NewTestPayment(payment.StateCompleted)
	p.RefundedCents = 4000
	p.State = payment.StatePartiallyRefunded

	err := f.gateway.RefundPayment(context.Background(), p, 1500)
	assert.ErrorIs(t, err, errors.ErrRefundExceedsBalance)
	assert.Empty(t, f.api.Calls())
}

func TestVoidPayment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p := testutil.NewTestPayment(payment.StateAuthorization)
	require.NoError(t, f.paymentRepo.Create(ctx, p))

	require.NoError(t, f.gateway.VoidPayment(ctx, p))
	assert.Equal(t, payment.StateVoided, p.State)

	stored := f.paymentRepo.Stored(p.ID)
	require.NotNil(t, stored)
	assert.Equal(t, payment.StateVoided, stored.State)
}

func TestVoidCompletedPaymentFails(t *testing.T) {
	f := newFixture(t)

	p := testutil.NewTestPayment(payment.StateCompleted)
	err := f.gateway.VoidPayment(context.Background(), p)

	assert.ErrorIs(t, err, errors.ErrStateViolation)
	assert.Empty(t, f.api.Calls())
}

func TestGenerateCaptureContext(t *testing.T) {
	f := newFixture(t)

	var sent *cybersource.GenerateKeyRequest
	var format string
	f.api.GenerateKeyFunc = func(ctx context.Context, f string, req *cybersource.GenerateKeyRequest) (*cybersource.KeyResponse, error) {
		format = f
		sent = req
		return &cybersource.KeyResponse{KeyID: "key-77"}, nil
	}

	keyID, err := f.gateway.GenerateCaptureContext(context.Background(), "https://shop.example.com")
	require.NoError(t, err)
	assert.Equal(t, "key-77", keyID)
	assert.Equal(t, "JWT", format)
	require.NotNil(t, sent)
	assert.Equal(t, "RsaOaep256", sent.EncryptionType)
	assert.Equal(t, "https://shop.example.com", sent.TargetOrigin)
}

func TestGenerateCaptureContextRejectsInsecureOrigin(t *testing.T) {
	f := newFixture(t)

	_, err := f.gateway.GenerateCaptureContext(context.Background(), "http://shop.example.com")
	assert.ErrorIs(t, err, errors.ErrInsecureOrigin)
	assert.Empty(t, f.api.Calls())
}
