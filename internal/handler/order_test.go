package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/tour-checkout/internal/gateway"
	"github.com/iliyamo/tour-checkout/internal/invoice"
	"github.com/iliyamo/tour-checkout/internal/model"
	"github.com/iliyamo/tour-checkout/internal/orchestrator"
)

// mockService implements CheckoutService for testing.
type mockService struct {
	createFn  func(ctx context.Context, snap *model.CartSnapshot) (string, error)
	captureFn func(ctx context.Context, id string) (*model.OrderRecord, error)
	orderFn   func(ctx context.Context, id string) (*model.OrderRecord, error)
	lastSnap  *model.CartSnapshot
}

func (m *mockService) CreateOrder(ctx context.Context, snap *model.CartSnapshot) (string, error) {
	m.lastSnap = snap
	if m.createFn != nil {
		return m.createFn(ctx, snap)
	}
	return "G1", nil
}

func (m *mockService) CaptureOrder(ctx context.Context, id string) (*model.OrderRecord, error) {
	if m.captureFn != nil {
		return m.captureFn(ctx, id)
	}
	return &model.OrderRecord{GatewayOrderID: id}, nil
}

func (m *mockService) Order(ctx context.Context, id string) (*model.OrderRecord, error) {
	if m.orderFn != nil {
		return m.orderFn(ctx, id)
	}
	return &model.OrderRecord{GatewayOrderID: id}, nil
}

func doCreate(t *testing.T, svc CheckoutService, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rr := httptest.NewRecorder()
	c := e.NewContext(req, rr)
	require.NoError(t, NewOrderHandler(svc, nil).CreateOrder(c))
	return rr
}

func doCapture(t *testing.T, svc CheckoutService, id string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/orders/"+id+"/capture", strings.NewReader("{}"))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rr := httptest.NewRecorder()
	c := e.NewContext(req, rr)
	c.SetPath("/orders/:id/capture")
	c.SetParamNames("id")
	c.SetParamValues(id)
	require.NoError(t, NewOrderHandler(svc, nil).CaptureOrder(c))
	return rr
}

func doInvoice(t *testing.T, svc CheckoutService, asm *invoice.Assembler, id string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/orders/"+id+"/invoice", nil)
	rr := httptest.NewRecorder()
	c := e.NewContext(req, rr)
	c.SetPath("/orders/:id/invoice")
	c.SetParamNames("id")
	c.SetParamValues(id)
	require.NoError(t, NewOrderHandler(svc, asm).Invoice(c))
	return rr
}

func TestCreateOrder_Created(t *testing.T) {
	svc := &mockService{}
	body := `{"lineItems":[{"id":"eu-citizen","name":"EU","unitPrice":32,"quantity":2,"date":"2026-09-01","language":"Español","time":"10:00"}],"customer":{"firstName":"Ana","lastName":"García","email":"a@b.c","phone":"1","country":"ES","street":"s","city":"c","state":"st","postalCode":"28001"},"reservationId":"res-42"}`

	rr := doCreate(t, svc, body)
	assert.Equal(t, http.StatusCreated, rr.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "G1", resp["gatewayOrderId"])

	// The snapshot reaches the service as sent by the client.
	require.NotNil(t, svc.lastSnap)
	assert.Equal(t, "res-42", svc.lastSnap.ReservationID)
	assert.Equal(t, 2, svc.lastSnap.LineItems[0].Quantity)
}

func TestCreateOrder_InvalidBody(t *testing.T) {
	rr := doCreate(t, &mockService{}, "{not json")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCreateOrder_ValidationError(t *testing.T) {
	svc := &mockService{
		createFn: func(context.Context, *model.CartSnapshot) (string, error) {
			return "", &orchestrator.ValidationError{Msg: "cart is empty"}
		},
	}
	rr := doCreate(t, svc, `{"lineItems":[],"customer":{}}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "cart is empty")
}

func TestCreateOrder_GatewayErrorPassesStatusThrough(t *testing.T) {
	svc := &mockService{
		createFn: func(context.Context, *model.CartSnapshot) (string, error) {
			return "", &gateway.Error{StatusCode: 422, Message: "UNPROCESSABLE_ENTITY"}
		},
	}
	rr := doCreate(t, svc, `{"lineItems":[],"customer":{}}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, rr.Body.String(), "UNPROCESSABLE_ENTITY")
}

func TestCreateOrder_GatewayNetworkErrorBecomesBadGateway(t *testing.T) {
	svc := &mockService{
		createFn: func(context.Context, *model.CartSnapshot) (string, error) {
			return "", &gateway.Error{Message: "connection refused"}
		},
	}
	rr := doCreate(t, svc, `{"lineItems":[],"customer":{}}`)
	assert.Equal(t, http.StatusBadGateway, rr.Code)
}

func TestCaptureOrder_ReturnsRecord(t *testing.T) {
	svc := &mockService{
		captureFn: func(_ context.Context, id string) (*model.OrderRecord, error) {
			return &model.OrderRecord{
				GatewayOrderID: id,
				CapturedAmount: decimal.RequireFromString("64.00"),
				CurrencyCode:   "EUR",
				Recorded:       false,
				LedgerError:    "ledger: 503 unavailable",
			}, nil
		},
	}
	rr := doCapture(t, svc, "G1")
	// A ledger failure degrades the response but never fails it.
	assert.Equal(t, http.StatusOK, rr.Code)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &rec))
	assert.Equal(t, "G1", rec["gatewayOrderId"])
	assert.Equal(t, false, rec["recorded"])
}

func TestCaptureOrder_UnknownID(t *testing.T) {
	svc := &mockService{
		captureFn: func(context.Context, string) (*model.OrderRecord, error) {
			return nil, orchestrator.ErrUnknownOrder
		},
	}
	rr := doCapture(t, svc, "nope")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCaptureOrder_IdempotencyViolation(t *testing.T) {
	svc := &mockService{
		captureFn: func(context.Context, string) (*model.OrderRecord, error) {
			return nil, &orchestrator.IdempotencyError{GatewayOrderID: "G1", Msg: "capture already in progress"}
		},
	}
	rr := doCapture(t, svc, "G1")
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestCaptureOrder_AmountMismatch(t *testing.T) {
	svc := &mockService{
		captureFn: func(context.Context, string) (*model.OrderRecord, error) {
			return nil, &orchestrator.AmountMismatchError{
				GatewayOrderID: "G1",
				Expected:       decimal.RequireFromString("64.00"),
				Actual:         decimal.RequireFromString("50.00"),
			}
		},
	}
	rr := doCapture(t, svc, "G1")
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Contains(t, rr.Body.String(), "64.00")
	assert.Contains(t, rr.Body.String(), "50.00")
}

func TestCaptureOrder_UnexpectedErrorIsNotLeaked(t *testing.T) {
	svc := &mockService{
		captureFn: func(context.Context, string) (*model.OrderRecord, error) {
			return nil, errors.New("redis: connection refused")
		},
	}
	rr := doCapture(t, svc, "G1")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	// The infrastructure detail stays in the server log, not the body.
	assert.Contains(t, rr.Body.String(), "internal error")
	assert.NotContains(t, rr.Body.String(), "redis")
}

func TestInvoice_ReturnsDocumentWithConfiguredQRBase(t *testing.T) {
	svc := &mockService{
		orderFn: func(_ context.Context, id string) (*model.OrderRecord, error) {
			return &model.OrderRecord{
				GatewayOrderID: id,
				Customer:       model.CustomerProfile{FirstName: "Ana", LastName: "García", Email: "a@b.c"},
				LineItems: []model.TicketLineItem{
					{ID: "eu-citizen", Name: "EU", UnitPrice: decimal.RequireFromString("32"), Quantity: 2, Language: "Español", Time: "10:00"},
				},
				CapturedAmount: decimal.RequireFromString("64.00"),
				CurrencyCode:   "EUR",
				CapturedAt:     time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
				Recorded:       true,
			}, nil
		},
	}
	cfg := invoice.DefaultConfig()
	cfg.QRBaseURL = "https://staging.example.test/invoice"

	rr := doInvoice(t, svc, invoice.NewAssembler(cfg), "5O190127TN364715T")
	assert.Equal(t, http.StatusOK, rr.Code)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &doc))
	assert.Equal(t, "INV-5O190127", doc["invoiceNumber"])
	// The QR reference follows the configured base URL, not a constant.
	assert.Equal(t, "https://staging.example.test/invoice/5O190127TN364715T", doc["qrReference"])
	assert.Equal(t, "PAID", doc["status"])
}

func TestInvoice_UnknownID(t *testing.T) {
	svc := &mockService{
		orderFn: func(context.Context, string) (*model.OrderRecord, error) {
			return nil, orchestrator.ErrUnknownOrder
		},
	}
	rr := doInvoice(t, svc, nil, "nope")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
