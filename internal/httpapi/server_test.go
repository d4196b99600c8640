package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MarkoPoloResearchLab/billing/internal/slot/fileslot"
	"github.com/MarkoPoloResearchLab/billing/pkg/billing"
	"github.com/MarkoPoloResearchLab/billing/pkg/cartstore"
	"github.com/MarkoPoloResearchLab/billing/pkg/checkout"
	"github.com/MarkoPoloResearchLab/billing/pkg/credits"
	"github.com/shopspring/decimal"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestCartEndpoints(test *testing.T) {
	fixture := newAPIFixture(test)

	var envelope cartEnvelope
	fixture.do(test, http.MethodPost, "/api/cart/items", map[string]any{
		"productId": "plan",
		"name":      "Plan",
		"price":     "25",
		"quantity":  3,
		"vertical":  "digital",
		"metadata":  map[string]any{"seats": 3},
	}, http.StatusOK, &envelope)
	require.Len(test, envelope.Cart.Items, 1)
	assert.Equal(test, 3, envelope.Cart.ItemCount)
	assert.Equal(test, "75", envelope.Cart.Total)
	assert.Contains(test, envelope.Cart.FormattedTotal, "£")
	itemID := envelope.Cart.Items[0].ID

	fixture.do(test, http.MethodPatch, "/api/cart/items/"+itemID, map[string]any{"quantity": 1}, http.StatusOK, &envelope)
	assert.Equal(test, 1, envelope.Cart.ItemCount)

	fixture.do(test, http.MethodGet, "/api/cart", nil, http.StatusOK, &envelope)
	assert.Equal(test, "25", envelope.Cart.Total)

	fixture.do(test, http.MethodDelete, "/api/cart/items/"+itemID, nil, http.StatusOK, &envelope)
	assert.Empty(test, envelope.Cart.Items)

	fixture.addItem(test, "addon", "5", 2)
	fixture.do(test, http.MethodDelete, "/api/cart", nil, http.StatusOK, &envelope)
	assert.Empty(test, envelope.Cart.Items)
	assert.Equal(test, 0, fixture.store.ItemCount())
}

func TestAddItemRejectsInvalidInput(test *testing.T) {
	fixture := newAPIFixture(test)

	var failure errorEnvelope
	fixture.do(test, http.MethodPost, "/api/cart/items", map[string]any{"productId": "plan", "name": "Plan", "price": "-1", "quantity": 1}, http.StatusBadRequest, &failure)
	assert.Equal(test, "invalid_item", failure.Error.Code)

	fixture.do(test, http.MethodPost, "/api/cart/items", map[string]any{"productId": "plan", "name": "Plan", "price": "1", "quantity": 1, "vertical": "games"}, http.StatusBadRequest, &failure)
	assert.Equal(test, "invalid_item", failure.Error.Code)

	fixture.do(test, http.MethodPatch, "/api/cart/items/any", map[string]any{}, http.StatusBadRequest, &failure)
	assert.Equal(test, "invalid_payload", failure.Error.Code)
}

func TestCheckoutFlow(test *testing.T) {
	fixture := newAPIFixture(test)
	fixture.addItem(test, "plan", "100", 1)

	var state checkoutEnvelope
	fixture.do(test, http.MethodPost, "/api/checkout", map[string]any{
		"promotion": map[string]any{"code": "TEN", "kind": "percentage", "value": "10"},
	}, http.StatusOK, &state)
	require.NotNil(test, state.Session)
	assert.Equal(test, "108", state.Session.Total.String())
	assert.Equal(test, "review", state.Step)
	require.NotNil(test, state.Balance)
	assert.Equal(test, "200", state.Balance.Available.String())

	fixture.do(test, http.MethodPost, "/api/checkout/next", nil, http.StatusOK, &state)
	assert.Equal(test, "payment", state.Step)

	var failure errorEnvelope
	fixture.do(test, http.MethodPost, "/api/checkout/next", nil, http.StatusConflict, &failure)
	assert.Equal(test, "invalid_checkout_state", failure.Error.Code)

	fixture.do(test, http.MethodPost, "/api/checkout/payment-method", map[string]any{"method": "cash"}, http.StatusBadRequest, &failure)
	assert.Equal(test, "invalid_payment_method", failure.Error.Code)

	fixture.do(test, http.MethodPost, "/api/checkout/payment-method", map[string]any{"method": "credits"}, http.StatusOK, &state)
	assert.Equal(test, checkout.PaymentCredits, state.Session.PaymentMethod)

	fixture.do(test, http.MethodPost, "/api/checkout/next", nil, http.StatusOK, &state)
	assert.Equal(test, "confirm", state.Step)
	fixture.do(test, http.MethodPost, "/api/checkout/prev", nil, http.StatusOK, &state)
	assert.Equal(test, "payment", state.Step)

	fixture.do(test, http.MethodPost, "/api/checkout/complete", nil, http.StatusOK, &state)
	assert.Equal(test, checkout.StatusCompleted, state.Session.Status)
	assert.Equal(test, "order-1", state.Session.OrderID)
	assert.Equal(test, 0, fixture.store.ItemCount())

	fixture.do(test, http.MethodPost, "/api/checkout/complete", nil, http.StatusConflict, &failure)
	assert.Equal(test, 1, fixture.orders.calls)
}

func TestCheckoutErrorsMapToStatusCodes(test *testing.T) {
	fixture := newAPIFixture(test)

	var failure errorEnvelope
	fixture.do(test, http.MethodPost, "/api/checkout", nil, http.StatusConflict, &failure)
	assert.Equal(test, "empty_cart", failure.Error.Code)

	fixture.addItem(test, "plan", "500", 1)
	fixture.do(test, http.MethodPost, "/api/checkout", nil, http.StatusOK, nil)
	fixture.do(test, http.MethodPost, "/api/checkout/payment-method", map[string]any{"method": "credits"}, http.StatusPaymentRequired, &failure)
	assert.Equal(test, "insufficient_balance", failure.Error.Code)

	fixture.do(test, http.MethodPost, "/api/checkout/payment-method", map[string]any{"method": "card"}, http.StatusOK, nil)
	fixture.orders.err = errors.New("card declined")
	fixture.do(test, http.MethodPost, "/api/checkout/complete", nil, http.StatusPaymentRequired, &failure)
	assert.Equal(test, "payment_failed", failure.Error.Code)
	assert.Equal(test, 1, fixture.store.ItemCount())

	fixture.do(test, http.MethodPost, "/api/checkout", nil, http.StatusOK, nil)
	fixture.now = fixture.now.Add(31 * time.Minute)
	fixture.do(test, http.MethodPost, "/api/checkout/cancel", nil, http.StatusGone, &failure)
	assert.Equal(test, "session_expired", failure.Error.Code)

	var state checkoutEnvelope
	fixture.do(test, http.MethodGet, "/api/checkout", nil, http.StatusOK, &state)
	assert.True(test, state.Expired)
}

func TestPaymentFailureLogsErrorPath(test *testing.T) {
	fixture := newAPIFixture(test)
	fixture.addItem(test, "plan", "10", 1)
	fixture.do(test, http.MethodPost, "/api/checkout", nil, http.StatusOK, nil)
	fixture.do(test, http.MethodPost, "/api/checkout/payment-method", map[string]any{"method": "card"}, http.StatusOK, nil)
	fixture.orders.err = billing.WrapError(billing.OperationOrderAPI, billing.SubjectOrder, "rejected", errors.New("card declined"))

	var failure errorEnvelope
	fixture.do(test, http.MethodPost, "/api/checkout/complete", nil, http.StatusPaymentRequired, &failure)
	assert.Contains(test, failure.Error.Message, "order_api.order.rejected")

	entries := fixture.logs.FilterMessage("payment refused").AllUntimed()
	require.Len(test, entries, 1)
	assert.Equal(test, "order_api.order.rejected", entries[0].ContextMap()["error_path"])
}

func TestCreditBonusEndpoint(test *testing.T) {
	fixture := newAPIFixture(test)

	var payload struct {
		BonusPercent decimal.Decimal `json:"bonusPercent"`
		TotalCredits decimal.Decimal `json:"totalCredits"`
	}
	fixture.do(test, http.MethodGet, "/api/credits/bonus?amount=100", nil, http.StatusOK, &payload)
	assert.Equal(test, "15", payload.BonusPercent.String())
	assert.Equal(test, "115", payload.TotalCredits.String())

	var failure errorEnvelope
	fixture.do(test, http.MethodGet, "/api/credits/bonus?amount=lots", nil, http.StatusBadRequest, &failure)
	assert.Equal(test, "invalid_amount", failure.Error.Code)
}

func TestHealthAndCORS(test *testing.T) {
	fixture := newAPIFixture(test)
	request := httptest.NewRequest(http.MethodOptions, "/api/cart", nil)
	request.Header.Set("Origin", "http://localhost:8000")
	request.Header.Set("Access-Control-Request-Method", http.MethodPost)
	recorder := httptest.NewRecorder()
	fixture.router.ServeHTTP(recorder, request)
	assert.Equal(test, "http://localhost:8000", recorder.Header().Get("Access-Control-Allow-Origin"))

	fixture.do(test, http.MethodGet, "/healthz", nil, http.StatusOK, nil)
}

type apiFixture struct {
	router http.Handler
	store  *cartstore.Store
	orders *stubOrderGateway
	logs   *observer.ObservedLogs
	now    time.Time
}

func newAPIFixture(test *testing.T) *apiFixture {
	test.Helper()
	fixture := &apiFixture{
		orders: &stubOrderGateway{orderID: "order-1"},
		now:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	store, err := cartstore.New(context.Background(), fileslot.New(afero.NewMemMapFs(), "/data", ""))
	require.NoError(test, err)
	service, err := checkout.NewService(
		store,
		fixture.orders,
		func() time.Time { return fixture.now },
		checkout.WithBalanceSource(stubBalanceSource{available: decimal.NewFromInt(200)}),
	)
	require.NoError(test, err)
	fixture.store = store
	core, logs := observer.New(zapcore.DebugLevel)
	fixture.logs = logs
	fixture.router = NewRouter(store, service, zap.New(core), Options{
		AllowedOrigins: []string{"http://localhost:8000"},
		RequestTimeout: time.Second,
	})
	return fixture
}

func (fixture *apiFixture) addItem(test *testing.T, productID string, price string, quantity int) {
	test.Helper()
	fixture.do(test, http.MethodPost, "/api/cart/items", map[string]any{
		"productId": productID,
		"name":      productID,
		"price":     price,
		"quantity":  quantity,
	}, http.StatusOK, nil)
}

func (fixture *apiFixture) do(test *testing.T, method string, path string, payload map[string]any, wantStatus int, target any) {
	test.Helper()
	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(test, err)
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}
	request := httptest.NewRequest(method, path, body)
	if payload != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	recorder := httptest.NewRecorder()
	fixture.router.ServeHTTP(recorder, request)
	require.Equal(test, wantStatus, recorder.Code, recorder.Body.String())
	if target != nil {
		require.NoError(test, json.Unmarshal(recorder.Body.Bytes(), target))
	}
}

type cartEnvelope struct {
	Cart struct {
		Items []struct {
			ID string `json:"id"`
		} `json:"items"`
		Total          string `json:"total"`
		ItemCount      int    `json:"itemCount"`
		FormattedTotal string `json:"formattedTotal"`
	} `json:"cart"`
}

type checkoutEnvelope struct {
	Session *checkout.Session `json:"session"`
	Step    string            `json:"step"`
	Expired bool              `json:"expired"`
	Balance *struct {
		Available decimal.Decimal `json:"available"`
	} `json:"balance"`
}

type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type stubOrderGateway struct {
	orderID string
	err     error
	calls   int
}

func (gateway *stubOrderGateway) SubmitOrder(context.Context, checkout.OrderRequest) (checkout.OrderReceipt, error) {
	gateway.calls++
	if gateway.err != nil {
		return checkout.OrderReceipt{}, gateway.err
	}
	return checkout.OrderReceipt{OrderID: gateway.orderID}, nil
}

type stubBalanceSource struct {
	available decimal.Decimal
}

func (source stubBalanceSource) FetchBalance(context.Context) (credits.Balance, error) {
	return credits.NewBalance(source.available, decimal.Zero), nil
}
