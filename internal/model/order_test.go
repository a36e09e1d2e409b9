package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func item(id string, price string, qty int) TicketLineItem {
	return TicketLineItem{
		ID:        id,
		Name:      id,
		UnitPrice: decimal.RequireFromString(price),
		Quantity:  qty,
		Date:      "2026-09-01",
		Language:  "Español",
		Time:      "10:00",
	}
}

func TestCartTotal_SumsAndRounds(t *testing.T) {
	items := []TicketLineItem{
		item("eu-citizen", "32", 2),
		item("eu-student", "21", 1),
	}
	total := CartTotal(items)
	assert.Equal(t, "85.00", total.StringFixed(2))
}

func TestCartTotal_RoundsHalfAwayFromZero(t *testing.T) {
	// 3 * 0.335 = 1.005, which banker's rounding would turn into 1.00.
	items := []TicketLineItem{item("frac", "0.335", 3)}
	assert.Equal(t, "1.01", CartTotal(items).StringFixed(2))
}

func TestCartTotal_Idempotent(t *testing.T) {
	items := []TicketLineItem{item("eu-citizen", "32", 2)}
	first := CartTotal(items)
	second := CartTotal(items)
	assert.True(t, first.Equal(second))
}

func TestNewOrderIntent(t *testing.T) {
	snap := &CartSnapshot{
		LineItems:     []TicketLineItem{item("eu-citizen", "32", 2)},
		Customer:      CustomerProfile{FirstName: "Ana", LastName: "García"},
		ReservationID: "res-42",
	}
	intent := NewOrderIntent(snap, "EUR")
	assert.Equal(t, "EUR", intent.CurrencyCode)
	assert.Equal(t, "res-42", intent.ReservationID)
	assert.Equal(t, "64.00", intent.TotalAmount.StringFixed(2))
	assert.Len(t, intent.LineItems, 1)
}

func TestTicketLineItem_LineTotal(t *testing.T) {
	it := item("non-eu-citizen", "50", 3)
	assert.Equal(t, "150.00", it.LineTotal().StringFixed(2))
}

func TestCartSnapshot_TicketCount(t *testing.T) {
	snap := &CartSnapshot{LineItems: []TicketLineItem{
		item("eu-citizen", "32", 2),
		item("eu-student", "21", 3),
	}}
	assert.Equal(t, 5, snap.TicketCount())
}
