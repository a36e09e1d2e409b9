// Package queue defines message payloads exchanged over the message broker.
package queue

// OrderCapturedEvent is published when a checkout payment has been
// captured. It replaces the ad hoc browser event broadcast of the
// original system with a typed payload carrying enough information for
// downstream consumers to log, notify, or trigger fulfillment without
// querying the ledger.
type OrderCapturedEvent struct {
	GatewayOrderID string `json:"gateway_order_id"`
	ReservationID  string `json:"reservation_id,omitempty"`
	CustomerName   string `json:"customer_name"`
	CustomerEmail  string `json:"customer_email"`
	TicketCount    int    `json:"ticket_count"`
	TotalAmount    string `json:"total_amount"`
	Currency       string `json:"currency"`
	CapturedAt     string `json:"captured_at"`
	Recorded       bool   `json:"recorded"`
}
