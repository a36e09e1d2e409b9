package gateway

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/plutov/paypal/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/tour-checkout/internal/model"
)

// fakeOrdersAPI implements ordersAPI for testing.
type fakeOrdersAPI struct {
	createFn    func(ctx context.Context, intent string, units []paypal.PurchaseUnitRequest, payer *paypal.CreateOrderPayer, appCtx *paypal.ApplicationContext) (*paypal.Order, error)
	captureFn   func(ctx context.Context, orderID string, req paypal.CaptureOrderRequest) (*paypal.CaptureOrderResponse, error)
	lastIntent  string
	lastUnits   []paypal.PurchaseUnitRequest
	lastAppCtx  *paypal.ApplicationContext
	lastOrderID string
}

func (f *fakeOrdersAPI) CreateOrder(ctx context.Context, intent string, units []paypal.PurchaseUnitRequest, payer *paypal.CreateOrderPayer, appCtx *paypal.ApplicationContext) (*paypal.Order, error) {
	f.lastIntent = intent
	f.lastUnits = units
	f.lastAppCtx = appCtx
	if f.createFn != nil {
		return f.createFn(ctx, intent, units, payer, appCtx)
	}
	return &paypal.Order{ID: "5O190127TN364715T", Status: "CREATED"}, nil
}

func (f *fakeOrdersAPI) CaptureOrder(ctx context.Context, orderID string, req paypal.CaptureOrderRequest) (*paypal.CaptureOrderResponse, error) {
	f.lastOrderID = orderID
	if f.captureFn != nil {
		return f.captureFn(ctx, orderID, req)
	}
	return &paypal.CaptureOrderResponse{
		ID:     orderID,
		Status: "COMPLETED",
		Payer:  &paypal.PayerWithNameAndPhone{PayerID: "PAYER9"},
		PurchaseUnits: []paypal.CapturedPurchaseUnit{
			{
				Payments: &paypal.CapturedPayments{
					Captures: []paypal.CaptureAmount{
						{ID: "CAP1", Status: "COMPLETED", Amount: &paypal.PurchaseUnitAmount{Currency: "EUR", Value: "64.00"}},
					},
				},
			},
		},
	}, nil
}

func newTestClient(api ordersAPI) *PayPalClient {
	return &PayPalClient{
		api:         api,
		currency:    "EUR",
		countryCode: "ES",
		locale:      "es-ES",
		now:         func() time.Time { return time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC) },
	}
}

func sampleIntent() model.OrderIntent {
	return model.OrderIntent{
		Customer: model.CustomerProfile{
			FirstName:  "Ana",
			LastName:   "García",
			Street:     "Calle Mayor 1",
			City:       "Madrid",
			State:      "Madrid",
			PostalCode: "28001",
		},
		CurrencyCode: "EUR",
		TotalAmount:  decimal.RequireFromString("64"),
	}
}

func TestCreateOrder_MapsIntent(t *testing.T) {
	api := &fakeOrdersAPI{}
	gw, err := newTestClient(api).CreateOrder(context.Background(), sampleIntent())
	require.NoError(t, err)
	assert.Equal(t, "5O190127TN364715T", gw.GatewayOrderID)
	assert.Equal(t, "CREATED", gw.Status)

	assert.Equal(t, paypal.OrderIntentCapture, api.lastIntent)
	require.Len(t, api.lastUnits, 1)
	unit := api.lastUnits[0]
	// The amount is always the fixed two-decimal rendering of the total.
	assert.Equal(t, "64.00", unit.Amount.Value)
	assert.Equal(t, "EUR", unit.Amount.Currency)
	assert.Equal(t, "Ana García", unit.Shipping.Name.FullName)
	assert.Equal(t, "Calle Mayor 1", unit.Shipping.Address.AddressLine1)
	assert.Equal(t, "Madrid", unit.Shipping.Address.AdminArea2)
	assert.Equal(t, "28001", unit.Shipping.Address.PostalCode)
	assert.Equal(t, "ES", unit.Shipping.Address.CountryCode)

	require.NotNil(t, api.lastAppCtx)
	assert.Equal(t, paypal.ShippingPreferenceSetProvidedAddress, api.lastAppCtx.ShippingPreference)
	assert.Equal(t, "es-ES", api.lastAppCtx.Locale)
}

func TestCreateOrder_BlankNameFallsBack(t *testing.T) {
	api := &fakeOrdersAPI{}
	intent := sampleIntent()
	intent.Customer.FirstName = ""
	intent.Customer.LastName = "  "

	_, err := newTestClient(api).CreateOrder(context.Background(), intent)
	require.NoError(t, err)
	assert.Equal(t, fallbackPayerName, api.lastUnits[0].Shipping.Name.FullName)
}

func TestCaptureOrder_ParsesCapture(t *testing.T) {
	api := &fakeOrdersAPI{}
	res, err := newTestClient(api).CaptureOrder(context.Background(), "5O190127TN364715T")
	require.NoError(t, err)
	assert.Equal(t, "5O190127TN364715T", api.lastOrderID)
	assert.Equal(t, "64.00", res.CapturedAmount.StringFixed(2))
	assert.Equal(t, "EUR", res.CurrencyCode)
	assert.Equal(t, "PAYER9", res.PayerID)
	assert.Equal(t, time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC), res.CapturedAt)
}

func TestCaptureOrder_NoCompletedCapture(t *testing.T) {
	api := &fakeOrdersAPI{
		captureFn: func(_ context.Context, orderID string, _ paypal.CaptureOrderRequest) (*paypal.CaptureOrderResponse, error) {
			return &paypal.CaptureOrderResponse{ID: orderID, Status: "COMPLETED"}, nil
		},
	}
	_, err := newTestClient(api).CaptureOrder(context.Background(), "G1")
	var gwErr *Error
	require.ErrorAs(t, err, &gwErr)
	assert.Zero(t, gwErr.StatusCode)
}

func TestTranslate_PreservesProviderStatus(t *testing.T) {
	api := &fakeOrdersAPI{
		createFn: func(context.Context, string, []paypal.PurchaseUnitRequest, *paypal.CreateOrderPayer, *paypal.ApplicationContext) (*paypal.Order, error) {
			return nil, &paypal.ErrorResponse{
				Response: &http.Response{StatusCode: http.StatusUnprocessableEntity},
				Name:     "UNPROCESSABLE_ENTITY",
				Message:  "The requested action could not be performed.",
			}
		},
	}
	_, err := newTestClient(api).CreateOrder(context.Background(), sampleIntent())
	var gwErr *Error
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, http.StatusUnprocessableEntity, gwErr.StatusCode)
	assert.Equal(t, "The requested action could not be performed.", gwErr.Message)
}
