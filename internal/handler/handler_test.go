package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"scannimart/internal/model"
	"scannimart/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGate struct {
	service.GateService
	submit func(identifier string, confirm bool) (*service.GateResult, error)
	scan   func(sessionID, code string) (*service.ScanOutcome, error)
}

func (s stubGate) Submit(_ context.Context, identifier string, confirm bool) (*service.GateResult, error) {
	return s.submit(identifier, confirm)
}

func (s stubGate) ScanItem(_ context.Context, sessionID, code string) (*service.ScanOutcome, error) {
	return s.scan(sessionID, code)
}

type stubCheckout struct {
	err   error
	order *model.Order
}

func (s stubCheckout) Checkout(context.Context, *service.CheckoutRequest) (*model.Order, error) {
	return s.order, s.err
}

func doJSON(t *testing.T, app *fiber.App, method, path, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func gateApp(gate service.GateService) *fiber.App {
	h := NewGateHandler(gate)
	app := fiber.New()
	app.Post("/gate/verify", h.Submit)
	app.Post("/gate/sessions/:id/scan", h.ScanItem)
	return app
}

func TestSubmitMapsEveryOutcome(t *testing.T) {
	tests := []struct {
		kind     service.OutcomeKind
		status   int
		severity string
	}{
		{service.OutcomeGranted, 200, "success"},
		{service.OutcomePaymentRequired, 200, "info"},
		{service.OutcomeAlreadyUsed, 409, "danger"},
		{service.OutcomePaymentPending, 422, "warning"},
		{service.OutcomeNotFound, 404, "error"},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			app := gateApp(stubGate{submit: func(string, bool) (*service.GateResult, error) {
				return &service.GateResult{Outcome: &service.VerificationOutcome{Kind: tt.kind}}, nil
			}})

			status, body := doJSON(t, app, "POST", "/gate/verify", `{"identifier":"ABC123"}`)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, string(tt.kind), body["outcome"])
			assert.Equal(t, tt.severity, body["severity"])
			assert.NotEmpty(t, body["message"])
		})
	}
}

func TestSubmitPassesIdentifierAndConfirmFlag(t *testing.T) {
	var gotID string
	var gotConfirm bool
	app := gateApp(stubGate{submit: func(id string, confirm bool) (*service.GateResult, error) {
		gotID, gotConfirm = id, confirm
		order := &service.OrderSummary{ID: uuid.New(), ReadableID: "ABC123", Status: model.StatusVerified}
		return &service.GateResult{Outcome: &service.VerificationOutcome{Kind: service.OutcomeGranted, Order: order}}, nil
	}})

	status, body := doJSON(t, app, "POST", "/gate/verify", `{"identifier":"abc123","confirm_payment":true}`)
	require.Equal(t, 200, status)
	assert.Equal(t, "abc123", gotID)
	assert.True(t, gotConfirm)
	assert.Equal(t, "ABC123", body["order"].(map[string]any)["readable_id"])
}

func TestSubmitRequiresIdentifier(t *testing.T) {
	app := gateApp(stubGate{})
	status, _ := doJSON(t, app, "POST", "/gate/verify", `{"identifier":"  "}`)
	assert.Equal(t, 400, status)
}

func TestSubmitConflict(t *testing.T) {
	app := gateApp(stubGate{submit: func(string, bool) (*service.GateResult, error) {
		return nil, service.ErrConflict
	}})

	status, body := doJSON(t, app, "POST", "/gate/verify", `{"identifier":"ABC123"}`)
	assert.Equal(t, 409, status)
	assert.Equal(t, "conflict", body["outcome"])
}

func TestScanUnknownSession(t *testing.T) {
	app := gateApp(stubGate{scan: func(string, string) (*service.ScanOutcome, error) {
		return nil, service.ErrSessionNotFound
	}})

	status, _ := doJSON(t, app, "POST", "/gate/sessions/nope/scan", `{"code":"123456"}`)
	assert.Equal(t, 404, status)
}

func TestCheckoutNamesOffendingProduct(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		code    string
		product string
	}{
		{"out of stock", &service.OutOfStockError{ProductName: "Butter", Remaining: 0}, 409, "out_of_stock", "Butter"},
		{"missing product", &service.ProductNotFoundError{Item: "Jam"}, 404, "product_not_found", "Jam"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewOrderHandler(stubCheckout{err: tt.err}, nil)
			app := fiber.New()
			app.Post("/checkout", h.Checkout)

			status, body := doJSON(t, app, "POST", "/checkout", `{"items":[],"payment_method":"UPI"}`)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, body["code"])
			assert.Equal(t, tt.product, body["product"])
		})
	}
}

func TestCheckoutReturnsPass(t *testing.T) {
	order := &model.Order{
		ReadableID:   "QX7K2M",
		QRCodeString: "SCN-abc",
		Status:       model.StatusPaid,
		TotalAmount:  decimal.NewFromInt(60),
	}
	order.ID = uuid.New()

	h := NewOrderHandler(stubCheckout{order: order}, nil)
	app := fiber.New()
	app.Post("/checkout", h.Checkout)

	status, body := doJSON(t, app, "POST", "/checkout", `{"items":[],"payment_method":"UPI"}`)
	require.Equal(t, 201, status)
	data := body["data"].(map[string]any)
	assert.Equal(t, "QX7K2M", data["readable_id"])
	assert.Equal(t, "SCN-abc", data["qr_code_string"])
	assert.Equal(t, "paid", data["status"])
}

func TestStoreFailureIsGeneric(t *testing.T) {
	h := NewOrderHandler(stubCheckout{err: fmt.Errorf("checkout: %w", &service.StoreError{Op: "insert order", Err: fmt.Errorf("connection reset")})}, nil)
	app := fiber.New()
	app.Post("/checkout", h.Checkout)

	status, body := doJSON(t, app, "POST", "/checkout", `{"items":[],"payment_method":"UPI"}`)
	assert.Equal(t, 500, status)
	assert.Equal(t, "Internal Server Error", body["error"])
}

func TestChatWithoutAssistant(t *testing.T) {
	h := NewAIHandler(nil)
	app := fiber.New()
	app.Post("/ai/chat", h.Chat)

	status, _ := doJSON(t, app, "POST", "/ai/chat", `{"question":"best sellers?"}`)
	assert.Equal(t, 503, status)
}
