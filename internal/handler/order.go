package handler

import (
	"context"  // request-scoped contexts forwarded to the service
	"errors"   // for errors.Is comparisons against sentinel values
	"log"      // diagnostics for unexpected internal failures
	"net/http" // HTTP status codes

	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/tour-checkout/internal/gateway"
	"github.com/iliyamo/tour-checkout/internal/invoice"
	"github.com/iliyamo/tour-checkout/internal/model"
	"github.com/iliyamo/tour-checkout/internal/orchestrator"
)

// CheckoutService is the slice of the orchestrator the HTTP layer
// depends on. Keeping it an interface lets handler tests run against a
// stub without a gateway or ledger.
type CheckoutService interface {
	CreateOrder(ctx context.Context, snap *model.CartSnapshot) (string, error)
	CaptureOrder(ctx context.Context, gatewayOrderID string) (*model.OrderRecord, error)
	Order(ctx context.Context, gatewayOrderID string) (*model.OrderRecord, error)
}

// OrderHandler exposes the checkout flow over HTTP: order creation,
// capture and the invoice document view. Validation, state transitions
// and all calls to the external collaborators live in the orchestrator;
// the handler only binds requests and translates errors into the
// response envelope.
type OrderHandler struct {
	Service   CheckoutService
	Assembler *invoice.Assembler
}

// NewOrderHandler constructs an OrderHandler. The service must be
// non-nil; a nil assembler falls back to the default invoice constants.
func NewOrderHandler(svc CheckoutService, asm *invoice.Assembler) *OrderHandler {
	if svc == nil {
		panic("nil service passed to NewOrderHandler")
	}
	if asm == nil {
		asm = invoice.NewAssembler(invoice.DefaultConfig())
	}
	return &OrderHandler{Service: svc, Assembler: asm}
}

// CreateOrder handles POST /orders. The body carries the cart snapshot
// ({lineItems, customer, reservationId?}); on success it returns 201
// with the gateway-assigned order id the client needs for approval and
// capture.
func (h *OrderHandler) CreateOrder(c echo.Context) error {
	var snap model.CartSnapshot
	if err := c.Bind(&snap); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	id, err := h.Service.CreateOrder(c.Request().Context(), &snap)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"gatewayOrderId": id})
}

// CaptureOrder handles POST /orders/:id/capture. On success it returns
// 200 with the finalized order record, including the captured amount,
// currency and the recorded flag. A repeat call for an already captured
// order returns the same record; the payment is never re-executed.
func (h *OrderHandler) CaptureOrder(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "gateway order id is required"})
	}
	rec, err := h.Service.CaptureOrder(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, rec)
}

// Invoice handles GET /orders/:id/invoice. It serves the assembled
// invoice document as JSON, the data behind the QR reference; the
// visual rendering of that data is the client's concern. Only captured
// orders have an invoice, anything else is a 404.
func (h *OrderHandler) Invoice(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "gateway order id is required"})
	}
	rec, err := h.Service.Order(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, h.Assembler.Assemble(rec))
}

// writeError translates orchestrator and adapter errors into the error
// envelope. The user-visible contract matters here: validation,
// mismatch and gateway failures mean "payment failed, try again", while
// a ledger failure never reaches this function because a capture with
// an unrecorded order still succeeds.
func writeError(c echo.Context, err error) error {
	var (
		vErr  *orchestrator.ValidationError
		amErr *orchestrator.AmountMismatchError
		idErr *orchestrator.IdempotencyError
		gwErr *gateway.Error
	)
	switch {
	case errors.As(err, &vErr):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": vErr.Msg})
	case errors.Is(err, orchestrator.ErrUnknownOrder):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "unknown gateway order id"})
	case errors.As(err, &idErr):
		return c.JSON(http.StatusConflict, echo.Map{"error": idErr.Msg})
	case errors.As(err, &amErr):
		return c.JSON(http.StatusConflict, echo.Map{
			"error": "captured amount does not match the order total",
			"details": echo.Map{
				"expected": amErr.Expected.StringFixed(2),
				"captured": amErr.Actual.StringFixed(2),
			},
		})
	case errors.As(err, &gwErr):
		// Propagate the provider's status code unchanged so the client
		// can tell client-fixable (4xx) from transient (5xx) failures.
		status := gwErr.StatusCode
		if status < 400 || status > 599 {
			status = http.StatusBadGateway
		}
		return c.JSON(status, echo.Map{
			"error":   gwErr.Message,
			"details": echo.Map{"gatewayStatus": gwErr.StatusCode},
		})
	default:
		// Store or other infrastructure failures: keep the detail out of
		// the response but leave a trace for the operator.
		log.Printf("handler: internal error on %s %s: %v", c.Request().Method, c.Path(), err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}
