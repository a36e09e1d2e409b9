// Package orchestrator error types. These sentinel and structured
// values let the HTTP layer distinguish user-fixable rejections from
// security-relevant ones without string matching. Gateway and ledger
// failures keep their own types (gateway.Error, ledger.Error) and pass
// through the orchestrator untouched.
package orchestrator

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrUnknownOrder is returned when a capture is requested for a gateway
// order id this core never created. Handlers should translate this into
// an HTTP 404 response.
var ErrUnknownOrder = errors.New("unknown gateway order id")

// ValidationError reports a bad or incomplete cart or customer profile.
// The flow aborts before any gateway call is attempted.
type ValidationError struct {
	Msg string
}

// Error implements the error interface.
func (e *ValidationError) Error() string { return "validation: " + e.Msg }

// AmountMismatchError reports that the gateway's captured amount
// disagrees with the stored order intent by more than one minor
// currency unit. This is treated as a security-relevant rejection: the
// order moves to its terminal failed state and no order record is
// created.
type AmountMismatchError struct {
	GatewayOrderID string
	Expected       decimal.Decimal
	Actual         decimal.Decimal
}

// Error implements the error interface.
func (e *AmountMismatchError) Error() string {
	return fmt.Sprintf("amount mismatch on order %s: expected %s, gateway captured %s",
		e.GatewayOrderID, e.Expected.StringFixed(2), e.Actual.StringFixed(2))
}

// IdempotencyError reports a duplicate or out-of-order capture attempt:
// either another capture for the same id is in flight, or the order has
// already reached a terminal failure. The prior outcome is never
// re-executed.
type IdempotencyError struct {
	GatewayOrderID string
	Msg            string
}

// Error implements the error interface.
func (e *IdempotencyError) Error() string {
	return fmt.Sprintf("capture of order %s rejected: %s", e.GatewayOrderID, e.Msg)
}
