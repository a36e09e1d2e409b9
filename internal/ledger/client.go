// Package ledger wraps the external order ledger (the back-office
// system of record) behind a small outbound HTTP adapter. Recording is
// fire-and-forget from the payment's perspective: a failure here never
// invalidates a captured payment, but it is always surfaced to the
// caller so an operator can reconcile later.
package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/iliyamo/tour-checkout/internal/config"
	"github.com/iliyamo/tour-checkout/internal/model"
)

// Error is a structured ledger failure. StatusCode is the ledger's HTTP
// status, or zero when the call never completed.
type Error struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("ledger: %s", e.Message)
	}
	return fmt.Sprintf("ledger: %d %s", e.StatusCode, e.Message)
}

// recordPayload is the wire shape of the outbound recording call.
type recordPayload struct {
	GatewayOrderID string                `json:"gatewayOrderId"`
	ReservationID  string                `json:"reservationId,omitempty"`
	Customer       model.CustomerProfile `json:"customer"`
	TicketCount    int                   `json:"ticketCount"`
	CapturedAt     time.Time             `json:"capturedAt"`
}

// ack is the loosely parsed 2xx response body. The ledger may return an
// identifier for the stored row; anything it returns beyond that is
// ignored.
type ack struct {
	ID string `json:"id"`
}

// Client talks to the order ledger service.
type Client struct {
	baseURL string
	http    *http.Client
	now     func() time.Time
}

// NewClient constructs a ledger client from application configuration.
// Every call is bounded by the configured ledger timeout.
func NewClient(cfg config.Config) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.LedgerBaseURL, "/"),
		http:    &http.Client{Timeout: cfg.LedgerTimeout},
		now:     time.Now,
	}
}

// RecordOrder submits a finalized order to the ledger's /orders
// endpoint. Any 2xx response is success; everything else, including
// transport failures, is returned as *Error.
func (c *Client) RecordOrder(ctx context.Context, rec *model.OrderRecord) (model.LedgerAck, error) {
	ticketCount := 0
	for _, it := range rec.LineItems {
		ticketCount += it.Quantity
	}
	body, err := json.Marshal(recordPayload{
		GatewayOrderID: rec.GatewayOrderID,
		ReservationID:  rec.ReservationID,
		Customer:       rec.Customer,
		TicketCount:    ticketCount,
		CapturedAt:     rec.CapturedAt,
	})
	if err != nil {
		return model.LedgerAck{}, &Error{Message: fmt.Sprintf("encode order: %v", err)}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return model.LedgerAck{}, &Error{Message: fmt.Sprintf("build request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return model.LedgerAck{}, &Error{Message: err.Error()}
	}
	defer func() { _ = resp.Body.Close() }()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := strings.TrimSpace(string(raw))
		if msg == "" {
			msg = resp.Status
		}
		return model.LedgerAck{}, &Error{StatusCode: resp.StatusCode, Message: msg}
	}

	var a ack
	_ = json.Unmarshal(raw, &a) // body is optional on success
	return model.LedgerAck{RecordID: a.ID, ReceivedAt: c.now().UTC()}, nil
}
