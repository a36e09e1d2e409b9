// Package store holds the checkout state machine's only shared mutable
// resource: the record mapping a gateway order id to its current state
// and, once captured, the final order record. Two implementations
// exist: an in-memory store for single-instance deployments and tests,
// and a Redis-backed store for multi-instance deployments. Both
// serialize capture attempts per gateway order id so a capture can
// never execute concurrently with itself.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/iliyamo/tour-checkout/internal/model"
)

// State is the lifecycle state of a checkout attempt.
type State string

const (
	// StateCreated means the gateway order exists and may be captured.
	StateCreated State = "CREATED"
	// StateCapturing is the claim state held while a capture call is in
	// flight. It is internal to the core and never a terminal answer.
	StateCapturing State = "CAPTURING"
	// StateCaptured means funds moved but the ledger did not record the
	// order (payment correctness over bookkeeping completeness).
	StateCaptured State = "CAPTURED"
	// StateRecorded means funds moved and the ledger acknowledged the order.
	StateRecorded State = "RECORDED"
	// StateFailed is the terminal failure state; Order.FailReason says why.
	StateFailed State = "FAILED"
)

// Terminal reports whether no further transition is possible from s.
func (s State) Terminal() bool {
	return s == StateCaptured || s == StateRecorded || s == StateFailed
}

// Order is the stored checkout attempt keyed by gateway order id. The
// intent is kept so the total can be re-validated at capture time; the
// record is attached once a capture succeeds.
type Order struct {
	GatewayOrderID string             `json:"gatewayOrderId"`
	State          State              `json:"state"`
	Intent         model.OrderIntent  `json:"intent"`
	Record         *model.OrderRecord `json:"record,omitempty"`
	FailReason     string             `json:"failReason,omitempty"`
	CreatedAt      time.Time          `json:"createdAt"`
	UpdatedAt      time.Time          `json:"updatedAt"`
}

// Sentinel errors shared by all store implementations. Higher layers
// translate these into HTTP responses: an unknown id becomes 404 and an
// in-flight duplicate becomes an idempotency violation.
var (
	// ErrNotFound is returned when no order exists under the given id.
	ErrNotFound = errors.New("order not found")
	// ErrCaptureInProgress is returned when another request currently
	// holds the capture claim for the same gateway order id.
	ErrCaptureInProgress = errors.New("capture already in progress")
	// ErrDuplicate is returned when Put sees an id that already exists.
	ErrDuplicate = errors.New("order already exists")
)

// OrderStore persists checkout attempts and arbitrates capture claims.
type OrderStore interface {
	// Put saves a freshly created order. The order must be in
	// StateCreated; an existing id yields ErrDuplicate.
	Put(ctx context.Context, o *Order) error
	// Get returns a copy of the stored order or ErrNotFound.
	Get(ctx context.Context, gatewayOrderID string) (*Order, error)
	// ClaimCapture atomically moves a CREATED order to CAPTURING and
	// returns it. If the order is already CAPTURING it returns
	// ErrCaptureInProgress; if it is in a terminal state the stored
	// order is returned unchanged so the caller can replay or reject;
	// unknown ids yield ErrNotFound.
	ClaimCapture(ctx context.Context, gatewayOrderID string) (*Order, error)
	// Complete stores the final order (CAPTURED or RECORDED, with its
	// record attached) and releases the capture claim.
	Complete(ctx context.Context, o *Order) error
	// Release returns a CAPTURING order to CREATED after a retryable
	// gateway failure so the client may attempt capture again.
	Release(ctx context.Context, gatewayOrderID string) error
	// Fail moves the order to the terminal FAILED state with a reason
	// and releases the capture claim.
	Fail(ctx context.Context, gatewayOrderID string, reason string) error
}
