// Package gateway wraps the external payment service provider behind a
// thin, stateless adapter. The orchestrator only ever sees the two
// operations the checkout flow needs: creating an order for an intent
// and capturing a previously approved order.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/plutov/paypal/v4"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/tour-checkout/internal/config"
	"github.com/iliyamo/tour-checkout/internal/model"
)

// Error is a structured gateway failure. StatusCode carries the
// provider's HTTP status unchanged so callers can distinguish
// client-fixable (4xx) from transient (5xx) conditions; it is zero when
// the call never reached the provider (network failure, timeout).
type Error struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("gateway: %s", e.Message)
	}
	return fmt.Sprintf("gateway: %d %s", e.StatusCode, e.Message)
}

// fallbackPayerName is used when the customer name collapses to an
// empty string, mirroring the behavior of the original checkout.
const fallbackPayerName = "Customer"

// ordersAPI is the slice of the PayPal SDK client the adapter uses.
// Narrowing the dependency to an interface keeps the adapter testable
// without network access.
type ordersAPI interface {
	CreateOrder(ctx context.Context, intent string, purchaseUnits []paypal.PurchaseUnitRequest, payer *paypal.CreateOrderPayer, appContext *paypal.ApplicationContext) (*paypal.Order, error)
	CaptureOrder(ctx context.Context, orderID string, captureOrderRequest paypal.CaptureOrderRequest) (*paypal.CaptureOrderResponse, error)
}

// PayPalClient adapts the PayPal Orders v2 API to the checkout core.
// It is stateless: every method call is an independent request bounded
// by the HTTP client timeout configured at construction time.
type PayPalClient struct {
	api         ordersAPI
	currency    string
	countryCode string
	locale      string
	now         func() time.Time
}

// NewPayPalClient builds the adapter from application configuration.
// The underlying SDK client authenticates lazily with the configured
// REST credentials; construction fails only on malformed configuration.
func NewPayPalClient(cfg config.Config) (*PayPalClient, error) {
	c, err := paypal.NewClient(cfg.PayPalClientID, cfg.PayPalSecret, cfg.PayPalAPIBase)
	if err != nil {
		return nil, fmt.Errorf("paypal client: %w", err)
	}
	// The SDK ships without a timeout; checkout requests must never
	// block on the provider indefinitely.
	c.Client = &http.Client{Timeout: cfg.GatewayTimeout}
	return &PayPalClient{
		api:         c,
		currency:    cfg.Currency,
		countryCode: cfg.CountryCode,
		locale:      cfg.Locale,
		now:         time.Now,
	}, nil
}

// CreateOrder maps an order intent to the gateway's order-creation
// schema and returns the gateway-assigned identifier. The shipping
// address is the customer's own; the amount is the intent total as a
// fixed two-decimal string so the gateway validates exactly what the
// orchestrator computed.
func (p *PayPalClient) CreateOrder(ctx context.Context, intent model.OrderIntent) (model.GatewayOrder, error) {
	units := []paypal.PurchaseUnitRequest{
		{
			Amount: &paypal.PurchaseUnitAmount{
				Currency: intent.CurrencyCode,
				Value:    intent.TotalAmount.StringFixed(2),
			},
			Shipping: &paypal.ShippingDetail{
				Name: &paypal.Name{FullName: payerFullName(intent.Customer)},
				Address: &paypal.ShippingDetailAddressPortable{
					AddressLine1: intent.Customer.Street,
					AdminArea1:   intent.Customer.State,
					AdminArea2:   intent.Customer.City,
					PostalCode:   intent.Customer.PostalCode,
					CountryCode:  p.countryCode,
				},
			},
		},
	}
	appCtx := &paypal.ApplicationContext{
		ShippingPreference: paypal.ShippingPreferenceSetProvidedAddress,
		Locale:             p.locale,
	}
	ord, err := p.api.CreateOrder(ctx, paypal.OrderIntentCapture, units, nil, appCtx)
	if err != nil {
		return model.GatewayOrder{}, translate(err)
	}
	return model.GatewayOrder{GatewayOrderID: ord.ID, Status: ord.Status}, nil
}

// CaptureOrder triggers capture on an existing gateway order and
// returns the gateway's authoritative captured amount, currency and
// payer identity.
func (p *PayPalClient) CaptureOrder(ctx context.Context, gatewayOrderID string) (model.CaptureResult, error) {
	resp, err := p.api.CaptureOrder(ctx, gatewayOrderID, paypal.CaptureOrderRequest{})
	if err != nil {
		return model.CaptureResult{}, translate(err)
	}
	res := model.CaptureResult{
		GatewayOrderID: resp.ID,
		CurrencyCode:   p.currency,
		CapturedAt:     p.now().UTC(),
	}
	if resp.Payer != nil {
		res.PayerID = resp.Payer.PayerID
	}
	amount, currency, ok := capturedAmount(resp)
	if !ok {
		return model.CaptureResult{}, &Error{Message: "capture response contains no completed capture"}
	}
	res.CapturedAmount = amount
	if currency != "" {
		res.CurrencyCode = currency
	}
	return res, nil
}

// capturedAmount extracts the first capture from the response purchase
// units. A standard checkout produces exactly one purchase unit with
// one capture.
func capturedAmount(resp *paypal.CaptureOrderResponse) (decimal.Decimal, string, bool) {
	for _, unit := range resp.PurchaseUnits {
		if unit.Payments == nil {
			continue
		}
		for _, capture := range unit.Payments.Captures {
			if capture.Amount == nil {
				continue
			}
			amount, err := decimal.NewFromString(capture.Amount.Value)
			if err != nil {
				return decimal.Zero, "", false
			}
			return amount, capture.Amount.Currency, true
		}
	}
	return decimal.Zero, "", false
}

// payerFullName joins first and last name the way the gateway expects a
// shipping contact, falling back to a constant when both are blank.
func payerFullName(c model.CustomerProfile) string {
	full := strings.TrimSpace(c.FirstName + " " + c.LastName)
	if full == "" {
		return fallbackPayerName
	}
	return full
}

// translate converts SDK errors into *Error, preserving the provider
// status code when one exists.
func translate(err error) error {
	var pe *paypal.ErrorResponse
	if errors.As(err, &pe) {
		status := 0
		if pe.Response != nil {
			status = pe.Response.StatusCode
		}
		msg := pe.Message
		if msg == "" {
			msg = pe.Name
		}
		return &Error{StatusCode: status, Message: msg}
	}
	return &Error{Message: err.Error()}
}
