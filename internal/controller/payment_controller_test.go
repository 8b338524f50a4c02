package controller

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cassiomorais/cybersource-gateway/internal/config"
	"github.com/cassiomorais/cybersource-gateway/internal/cybersource"
	"github.com/cassiomorais/cybersource-gateway/internal/domain/payment"
	"github.com/cassiomorais/cybersource-gateway/internal/gateway/flex"
	"github.com/cassiomorais/cybersource-gateway/internal/testutil"
)

type paymentTestEnv struct {
	router      chi.Router
	api         *testutil.MockAPIClient
	paymentRepo *testutil.MockPaymentRepository
	methodRepo  *testutil.MockMethodRepository
}

func newPaymentEnv(t *testing.T) *paymentTestEnv {
	t.Helper()
	env := &paymentTestEnv{
		api:         &testutil.MockAPIClient{},
		paymentRepo: testutil.NewMockPaymentRepository(),
		methodRepo:  testutil.NewMockMethodRepository(),
	}
	flexCfg := config.FlexConfig{
		MerchantID:      "test_merchant",
		TransactionType: config.FlexTransactionAuthOnly,
	}
	gw := flex.NewGateway(flexCfg, env.api, env.paymentRepo, env.methodRepo,
		testutil.NewMockOrderLog(), nil, zerolog.Nop())
	ctrl := NewPaymentController(flexCfg, gw,
		testutil.NewMockOrderRepository(testutil.NewTestOrder()),
		env.paymentRepo, env.methodRepo,
		testutil.PassthroughTxRunner{}, testutil.NewMemoryCaptureContextStore(),
		zerolog.Nop())

	env.router = chi.NewRouter()
	env.router.Post("/payments", ctrl.Create)
	env.router.Get("/payments/{id}", ctrl.Get)
	env.router.Post("/payments/{id}/capture", ctrl.Capture)
	env.router.Post("/payments/{id}/refund", ctrl.Refund)
	env.router.Post("/payments/{id}/void", ctrl.Void)
	env.router.Delete("/payment-methods/{id}", ctrl.DeleteMethod)
	env.router.Post("/capture-context", ctrl.CaptureContext)
	return env
}

func (env *paymentTestEnv) post(t *testing.T, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func TestCreatePaymentEndpointWithTransientToken(t *testing.T) {
	env := newPaymentEnv(t)
	env.api.CreatePaymentFunc = func(ctx context.Context, req *cybersource.CreatePaymentRequest) (*cybersource.PaymentResponse, error) {
		return &cybersource.PaymentResponse{
			ID:     "remote-1",
			Status: cybersource.StatusAuthorized,
			TokenInformation: &cybersource.ResponseTokenInformation{
				Customer:          &cybersource.IDRef{ID: "customer-1"},
				PaymentInstrument: &cybersource.IDRef{ID: "instrument-1"},
			},
		}, nil
	}

	token := testutil.TransientToken("411111XXXXXXXX1111", "12", "2031")
	body := fmt.Sprintf(`{"order_id":"1042","transient_token":%q}`, token)
	w := env.post(t, "/payments", body)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp createPaymentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, string(payment.StateAuthorization), resp.Payment.State)
	assert.Equal(t, int64(4999), resp.Payment.AmountCents)
	assert.Equal(t, "411111XXXXXXXX1111", resp.Method.MaskedNumber)
	assert.Equal(t, string(payment.BrandVisa), resp.Method.Brand)
	assert.True(t, resp.Method.Reusable)
}

func TestCreatePaymentEndpointRequiresExactlyOneSource(t *testing.T) {
	env := newPaymentEnv(t)

	w := env.post(t, "/payments", `{"order_id":"1042"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	token := testutil.TransientToken("4111", "12", "2031")
	body := fmt.Sprintf(`{"order_id":"1042","transient_token":%q,"payment_method_id":"%s"}`,
		token, testutil.NewTestMethod(false).ID)
	w = env.post(t, "/payments", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreatePaymentEndpointUnknownOrder(t *testing.T) {
	env := newPaymentEnv(t)

	token := testutil.TransientToken("4111", "12", "2031")
	body := fmt.Sprintf(`{"order_id":"9999","transient_token":%q}`, token)
	w := env.post(t, "/payments", body)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreatePaymentEndpointDeclineReturnsGenericMessage(t *testing.T) {
	env := newPaymentEnv(t)
	env.api.CreatePaymentFunc = func(ctx context.Context, req *cybersource.CreatePaymentRequest) (*cybersource.PaymentResponse, error) {
		return &cybersource.PaymentResponse{
			Status: cybersource.StatusDeclined,
			ErrorInformation: &cybersource.ErrorInformation{
				Reason:  "PROCESSOR_DECLINED",
				Message: "Decline - General decline of the card.",
			},
		}, nil
	}

	token := testutil.TransientToken("411111XXXXXXXX1111", "12", "2031")
	body := fmt.Sprintf(`{"order_id":"1042","transient_token":%q}`, token)
	w := env.post(t, "/payments", body)

	require.Equal(t, http.StatusPaymentRequired, w.Code)
	var resp errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "payment_failed", resp.Code)
	assert.NotContains(t, resp.Error, "PROCESSOR_DECLINED")
}

func TestCaptureEndpoint(t *testing.T) {
	env := newPaymentEnv(t)
	p := testutil.NewTestPayment(payment.StateAuthorization)
	require.NoError(t, env.paymentRepo.Create(context.Background(), p))

	w := env.post(t, "/payments/"+p.ID.String()+"/capture", `{"amount_cents":3000}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp paymentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, string(payment.StateCompleted), resp.State)
	assert.Equal(t, int64(3000), resp.AmountCents)
}

func TestRefundEndpointExceedingBalance(t *testing.T) {
	env := newPaymentEnv(t)
	p := testutil.NewTestPayment(payment.StateCompleted)
	require.NoError(t, env.paymentRepo.Create(context.Background(), p))

	w := env.post(t, "/payments/"+p.ID.String()+"/refund", `{"amount_cents":9999}`)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "refund_exceeds_balance", resp.Code)
}

func TestVoidEndpointWrongState(t *testing.T) {
	env := newPaymentEnv(t)
	p := testutil.NewTestPayment(payment.StateCompleted)
	require.NoError(t, env.paymentRepo.Create(context.Background(), p))

	w := env.post(t, "/payments/"+p.ID.String()+"/void", "")
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestGetPaymentEndpoint(t *testing.T) {
	env := newPaymentEnv(t)
	p := testutil.NewTestPayment(payment.StatePending)
	require.NoError(t, env.paymentRepo.Create(context.Background(), p))

	req := httptest.NewRequest(http.MethodGet, "/payments/"+p.ID.String(), nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp paymentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, p.ID.String(), resp.ID)
}

func TestDeleteMethodEndpoint(t *testing.T) {
	env := newPaymentEnv(t)
	m := testutil.NewTestMethod(false)
	require.NoError(t, env.methodRepo.Create(context.Background(), m))

	req := httptest.NewRequest(http.MethodDelete, "/payment-methods/"+m.ID.String(), nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Nil(t, env.methodRepo.Stored(m.ID))
}

func TestCaptureContextEndpointCachesPerSession(t *testing.T) {
	env := newPaymentEnv(t)

	body := `{"session_id":"sess-1","target_origin":"https://shop.example.com"}`
	w := env.post(t, "/capture-context", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp captureContextResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "key-1", resp.KeyID)

	// Second call for the same session reuses the cached key.
	w = env.post(t, "/capture-context", body)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, env.api.Calls(), 1)

	// Regeneration mints a new one.
	w = env.post(t, "/capture-context", `{"session_id":"sess-1","target_origin":"https://shop.example.com","regenerate":true}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, env.api.Calls(), 2)
}

func TestCaptureContextEndpointRejectsHTTPOrigin(t *testing.T) {
	env := newPaymentEnv(t)

	w := env.post(t, "/capture-context", `{"session_id":"sess-1","target_origin":"http://shop.example.com"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}
