// Package model defines the domain entities of the checkout core: ticket
// line items, customer profiles, order intents and the durable order
// record produced once a payment has been captured.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TicketLineItem is a single ticket selection inside a cart snapshot.
// Line items are immutable once the snapshot has been submitted; the
// orchestrator recomputes all totals from them and never trusts a
// client-supplied amount.
//
// Fields:
//  ID        – ticket type identifier (e.g. "eu-citizen").
//  Name      – human-readable ticket name shown on the invoice.
//  UnitPrice – price of a single ticket, must be > 0.
//  Quantity  – number of tickets of this type, must be >= 1.
//  Date      – tour date the ticket is valid for.
//  Language  – tour language (e.g. "Español").
//  Time      – tour start time (e.g. "10:00").
type TicketLineItem struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
	Date      string          `json:"date"`
	Language  string          `json:"language"`
	Time      string          `json:"time"`
}

// LineTotal returns unit price multiplied by quantity. No rounding is
// applied here; rounding happens once, on the order total.
func (t TicketLineItem) LineTotal() decimal.Decimal {
	return t.UnitPrice.Mul(decimal.NewFromInt(int64(t.Quantity)))
}

// CustomerProfile carries the buyer details collected at checkout. Every
// field must be a non-empty string for checkout to proceed; shape
// validation (email format etc.) is deliberately out of scope.
type CustomerProfile struct {
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Country    string `json:"country"`
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
}

// CartSnapshot is the read-only input to checkout: the selected line
// items, the customer profile and an optional correlation id for the
// externally held reservation slot. It is supplied fresh per request;
// the core never reads cart state from ambient storage.
type CartSnapshot struct {
	LineItems     []TicketLineItem `json:"lineItems"`
	Customer      CustomerProfile  `json:"customer"`
	ReservationID string           `json:"reservationId,omitempty"`
}

// TicketCount returns the total number of tickets across all line items.
func (s *CartSnapshot) TicketCount() int {
	n := 0
	for _, it := range s.LineItems {
		n += it.Quantity
	}
	return n
}

// OrderIntent is derived from a cart snapshot at order-creation time and
// is never stored outside the checkout state machine. TotalAmount is the
// sum of unitPrice*quantity over all line items rounded to 2 decimal
// places using standard half-away-from-zero rounding, so the value sent
// to the gateway matches what is validated again at capture time.
type OrderIntent struct {
	LineItems     []TicketLineItem `json:"lineItems"`
	Customer      CustomerProfile  `json:"customer"`
	ReservationID string           `json:"reservationId,omitempty"`
	CurrencyCode  string           `json:"currencyCode"`
	TotalAmount   decimal.Decimal  `json:"totalAmount"`
}

// NewOrderIntent derives an OrderIntent from a cart snapshot. The total
// is computed server-side; calling it twice on the same snapshot yields
// the same total.
func NewOrderIntent(snap *CartSnapshot, currencyCode string) OrderIntent {
	return OrderIntent{
		LineItems:     snap.LineItems,
		Customer:      snap.Customer,
		ReservationID: snap.ReservationID,
		CurrencyCode:  currencyCode,
		TotalAmount:   CartTotal(snap.LineItems),
	}
}

// CartTotal sums unitPrice*quantity over the given line items and rounds
// the result to 2 decimal places, half away from zero (not banker's
// rounding, which the gateway would reject on a price mismatch).
func CartTotal(items []TicketLineItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.LineTotal())
	}
	return total.Round(2)
}

// GatewayOrder references an order created on the payment gateway. The
// gateway owns it; this core only keeps the identifier and last known
// status.
type GatewayOrder struct {
	GatewayOrderID string `json:"gatewayOrderId"`
	Status         string `json:"status"`
}

// CaptureResult is the gateway's authoritative proof of payment for a
// captured order.
type CaptureResult struct {
	GatewayOrderID string          `json:"gatewayOrderId"`
	CapturedAmount decimal.Decimal `json:"capturedAmount"`
	CurrencyCode   string          `json:"currencyCode"`
	PayerID        string          `json:"payerId"`
	CapturedAt     time.Time       `json:"capturedAt"`
}

// LedgerAck is the acknowledgement returned by the order ledger after a
// successful RecordOrder call.
type LedgerAck struct {
	RecordID   string    `json:"recordId,omitempty"`
	ReceivedAt time.Time `json:"receivedAt"`
}

// OrderRecord is the durable outcome of a checkout. It is created only
// after a successful capture and never mutated afterwards except to
// attach the ledger acknowledgement; deletion and refunds are out of
// scope. Recorded reports whether the downstream ledger accepted the
// order; a false value never invalidates the payment itself.
type OrderRecord struct {
	GatewayOrderID string           `json:"gatewayOrderId"`
	ReservationID  string           `json:"reservationId,omitempty"`
	Customer       CustomerProfile  `json:"customer"`
	LineItems      []TicketLineItem `json:"lineItems"`
	CapturedAmount decimal.Decimal  `json:"capturedAmount"`
	CurrencyCode   string           `json:"currencyCode"`
	PayerID        string           `json:"payerId,omitempty"`
	CapturedAt     time.Time        `json:"capturedAt"`
	Recorded       bool             `json:"recorded"`
	LedgerAck      *LedgerAck       `json:"ledgerAck,omitempty"`
	LedgerError    string           `json:"ledgerError,omitempty"`
}
