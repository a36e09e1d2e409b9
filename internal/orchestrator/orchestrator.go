// Package orchestrator drives the checkout state machine: it turns a
// cart snapshot into a payment-gateway order, captures funds once the
// payer has approved, and records the finalized order with the
// downstream ledger. It is the sole owner of order state during
// checkout; each operation is a short-lived request with no hidden
// retries and no background jobs.
package orchestrator

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/tour-checkout/internal/model"
	"github.com/iliyamo/tour-checkout/internal/queue"
	"github.com/iliyamo/tour-checkout/internal/store"
)

// amountTolerance is one minor currency unit. The gateway may round the
// captured amount differently than the intent by at most this much;
// anything larger is a mismatch.
var amountTolerance = decimal.New(1, -2)

// Gateway is the slice of the payment gateway client the orchestrator
// depends on.
type Gateway interface {
	CreateOrder(ctx context.Context, intent model.OrderIntent) (model.GatewayOrder, error)
	CaptureOrder(ctx context.Context, gatewayOrderID string) (model.CaptureResult, error)
}

// Ledger is the slice of the order ledger client the orchestrator
// depends on.
type Ledger interface {
	RecordOrder(ctx context.Context, rec *model.OrderRecord) (model.LedgerAck, error)
}

// EventPublisher emits a typed event after a successful capture. A nil
// publisher disables events; publish failures are logged and ignored.
type EventPublisher func(ctx context.Context, ev queue.OrderCapturedEvent) error

// Orchestrator owns the checkout state machine. Per attempt the states
// are CREATED -> CAPTURING -> CAPTURED -> RECORDED with a terminal
// FAILED(reason) reachable from any non-terminal state; the store
// arbitrates the CAPTURING claim so a capture never runs concurrently
// with itself for the same gateway order id.
type Orchestrator struct {
	gateway  Gateway
	ledger   Ledger
	store    store.OrderStore
	publish  EventPublisher
	currency string
	now      func() time.Time
}

// New constructs an Orchestrator. All dependencies except the publisher
// must be non-nil.
func New(gw Gateway, lg Ledger, st store.OrderStore, currency string, publish EventPublisher) *Orchestrator {
	if gw == nil || lg == nil || st == nil {
		panic("nil dependency passed to orchestrator.New")
	}
	return &Orchestrator{
		gateway:  gw,
		ledger:   lg,
		store:    st,
		publish:  publish,
		currency: currency,
		now:      time.Now,
	}
}

// CreateOrder validates the cart snapshot, computes the order total
// server-side, creates a matching order on the payment gateway and
// stores the resulting intent under the gateway-assigned id. On a
// gateway error nothing is stored; the caller lets the customer retry
// the whole flow.
func (o *Orchestrator) CreateOrder(ctx context.Context, snap *model.CartSnapshot) (string, error) {
	if err := validateSnapshot(snap); err != nil {
		return "", err
	}
	intent := model.NewOrderIntent(snap, o.currency)
	gw, err := o.gateway.CreateOrder(ctx, intent)
	if err != nil {
		return "", err
	}
	if err := o.store.Put(ctx, &store.Order{
		GatewayOrderID: gw.GatewayOrderID,
		Intent:         intent,
	}); err != nil {
		// The gateway order exists but cannot be tracked; it will
		// expire uncaptured on the gateway side.
		return "", err
	}
	return gw.GatewayOrderID, nil
}

// CaptureOrder finalizes payment for a previously created order. The
// capture claim serializes concurrent attempts per id; a repeat call on
// an already captured order returns the stored record without touching
// the gateway again. The captured amount must match the stored intent
// within one minor currency unit or the order fails terminally with no
// record created. Ledger recording failures degrade the result
// (Recorded=false) but never fail the capture.
func (o *Orchestrator) CaptureOrder(ctx context.Context, gatewayOrderID string) (*model.OrderRecord, error) {
	claimed, err := o.store.ClaimCapture(ctx, gatewayOrderID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return nil, ErrUnknownOrder
		case errors.Is(err, store.ErrCaptureInProgress):
			return nil, &IdempotencyError{GatewayOrderID: gatewayOrderID, Msg: "capture already in progress"}
		default:
			return nil, err
		}
	}
	switch claimed.State {
	case store.StateCaptured, store.StateRecorded:
		// Idempotent replay of the stored outcome.
		return claimed.Record, nil
	case store.StateFailed:
		return nil, &IdempotencyError{GatewayOrderID: gatewayOrderID, Msg: "order previously failed: " + claimed.FailReason}
	}

	// Tamper/race protection: the total recomputed from the stored line
	// items must still equal the total sent at creation time.
	if recomputed := model.CartTotal(claimed.Intent.LineItems); !recomputed.Equal(claimed.Intent.TotalAmount) {
		_ = o.store.Fail(ctx, gatewayOrderID, "AMOUNT_MISMATCH")
		return nil, &AmountMismatchError{
			GatewayOrderID: gatewayOrderID,
			Expected:       claimed.Intent.TotalAmount,
			Actual:         recomputed,
		}
	}

	res, err := o.gateway.CaptureOrder(ctx, gatewayOrderID)
	if err != nil {
		// A gateway failure leaves the order in CREATED so the client
		// may retry the capture.
		if relErr := o.store.Release(ctx, gatewayOrderID); relErr != nil {
			log.Printf("orchestrator: release claim for %s failed: %v", gatewayOrderID, relErr)
		}
		return nil, err
	}

	if res.CapturedAmount.LessThanOrEqual(decimal.Zero) ||
		res.CapturedAmount.Sub(claimed.Intent.TotalAmount).Abs().GreaterThan(amountTolerance) {
		_ = o.store.Fail(ctx, gatewayOrderID, "AMOUNT_MISMATCH")
		return nil, &AmountMismatchError{
			GatewayOrderID: gatewayOrderID,
			Expected:       claimed.Intent.TotalAmount,
			Actual:         res.CapturedAmount,
		}
	}

	capturedAt := res.CapturedAt
	if capturedAt.IsZero() {
		capturedAt = o.now().UTC()
	}
	rec := &model.OrderRecord{
		GatewayOrderID: gatewayOrderID,
		ReservationID:  claimed.Intent.ReservationID,
		Customer:       claimed.Intent.Customer,
		LineItems:      claimed.Intent.LineItems,
		CapturedAmount: res.CapturedAmount,
		CurrencyCode:   res.CurrencyCode,
		PayerID:        res.PayerID,
		CapturedAt:     capturedAt,
	}

	state := store.StateRecorded
	if err := o.PersistOrder(ctx, rec); err != nil {
		// Payment correctness over bookkeeping completeness: money has
		// moved, so the capture still succeeds. The discrepancy is
		// reported for later reconciliation.
		log.Printf("orchestrator: ledger recording for %s failed: %v", gatewayOrderID, err)
		state = store.StateCaptured
	}

	claimed.State = state
	claimed.Record = rec
	if err := o.store.Complete(ctx, claimed); err != nil {
		log.Printf("orchestrator: storing final order %s failed: %v", gatewayOrderID, err)
	}

	o.publishCaptured(ctx, rec)
	return rec, nil
}

// Order returns the finalized record of a captured order, for read
// views such as the invoice document. An invoice exists only for a
// captured order, so ids that were never created, not yet captured or
// terminally failed all yield ErrUnknownOrder.
func (o *Orchestrator) Order(ctx context.Context, gatewayOrderID string) (*model.OrderRecord, error) {
	stored, err := o.store.Get(ctx, gatewayOrderID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUnknownOrder
		}
		return nil, err
	}
	if stored.Record == nil {
		return nil, ErrUnknownOrder
	}
	return stored.Record, nil
}

// PersistOrder submits a finalized order record to the ledger and
// attaches the acknowledgement. On failure the record is marked
// unrecorded and the ledger error is kept on the record so it reaches
// the caller; the error itself never aborts a capture.
func (o *Orchestrator) PersistOrder(ctx context.Context, rec *model.OrderRecord) error {
	ack, err := o.ledger.RecordOrder(ctx, rec)
	if err != nil {
		rec.Recorded = false
		rec.LedgerError = err.Error()
		return err
	}
	rec.Recorded = true
	rec.LedgerAck = &ack
	rec.LedgerError = ""
	return nil
}

// publishCaptured emits the typed order.captured event. Failures are
// logged only; event delivery is best effort.
func (o *Orchestrator) publishCaptured(ctx context.Context, rec *model.OrderRecord) {
	if o.publish == nil {
		return
	}
	ticketCount := 0
	for _, it := range rec.LineItems {
		ticketCount += it.Quantity
	}
	ev := queue.OrderCapturedEvent{
		GatewayOrderID: rec.GatewayOrderID,
		ReservationID:  rec.ReservationID,
		CustomerName:   strings.TrimSpace(rec.Customer.FirstName + " " + rec.Customer.LastName),
		CustomerEmail:  rec.Customer.Email,
		TicketCount:    ticketCount,
		TotalAmount:    rec.CapturedAmount.StringFixed(2),
		Currency:       rec.CurrencyCode,
		CapturedAt:     rec.CapturedAt.UTC().Format(time.RFC3339),
		Recorded:       rec.Recorded,
	}
	if err := o.publish(ctx, ev); err != nil {
		log.Printf("orchestrator: publish order.captured for %s failed: %v", rec.GatewayOrderID, err)
	}
}

// validateSnapshot enforces the checkout preconditions: a non-empty
// cart, positive prices, quantities of at least one and a fully filled
// customer profile.
func validateSnapshot(snap *model.CartSnapshot) error {
	if snap == nil || len(snap.LineItems) == 0 {
		return &ValidationError{Msg: "cart is empty"}
	}
	for _, it := range snap.LineItems {
		if it.Quantity < 1 {
			return &ValidationError{Msg: "line item " + it.ID + " has quantity below 1"}
		}
		if !it.UnitPrice.IsPositive() {
			return &ValidationError{Msg: "line item " + it.ID + " has a non-positive unit price"}
		}
	}
	c := snap.Customer
	fields := []struct {
		name  string
		value string
	}{
		{"firstName", c.FirstName},
		{"lastName", c.LastName},
		{"email", c.Email},
		{"phone", c.Phone},
		{"country", c.Country},
		{"street", c.Street},
		{"city", c.City},
		{"state", c.State},
		{"postalCode", c.PostalCode},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return &ValidationError{Msg: "customer field " + f.name + " is required"}
		}
	}
	return nil
}
