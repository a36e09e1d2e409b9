package store

import (
	"context"
	"sync"
	"time"

	"github.com/iliyamo/tour-checkout/internal/model"
)

// MemoryStore keeps checkout attempts in a mutex-guarded map. It is the
// default store when no Redis server is configured and the store used
// throughout the tests. All orders are deep-copied on the way in and
// out so callers can never mutate shared state behind the lock.
type MemoryStore struct {
	mu     sync.Mutex
	orders map[string]*Order
}

// NewMemoryStore constructs an empty in-memory order store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{orders: make(map[string]*Order)}
}

// clone deep-copies an order: the line item slices and the record and
// ack pointers are duplicated, not shared with the original.
func clone(o *Order) *Order {
	cp := *o
	cp.Intent.LineItems = append([]model.TicketLineItem(nil), o.Intent.LineItems...)
	if o.Record != nil {
		rec := *o.Record
		rec.LineItems = append([]model.TicketLineItem(nil), o.Record.LineItems...)
		if o.Record.LedgerAck != nil {
			ack := *o.Record.LedgerAck
			rec.LedgerAck = &ack
		}
		cp.Record = &rec
	}
	return &cp
}

// Put implements OrderStore.
func (s *MemoryStore) Put(_ context.Context, o *Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[o.GatewayOrderID]; ok {
		return ErrDuplicate
	}
	now := time.Now().UTC()
	cp := clone(o)
	cp.State = StateCreated
	cp.CreatedAt = now
	cp.UpdatedAt = now
	s.orders[o.GatewayOrderID] = cp
	return nil
}

// Get implements OrderStore.
func (s *MemoryStore) Get(_ context.Context, id string) (*Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(o), nil
}

// ClaimCapture implements OrderStore. The check-and-set runs under the
// store mutex, which is what guarantees at-most-once capture for a
// double-submitting client on a single instance.
func (s *MemoryStore) ClaimCapture(_ context.Context, id string) (*Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	switch o.State {
	case StateCapturing:
		return nil, ErrCaptureInProgress
	case StateCreated:
		o.State = StateCapturing
		o.UpdatedAt = time.Now().UTC()
	}
	return clone(o), nil
}

// Complete implements OrderStore.
func (s *MemoryStore) Complete(_ context.Context, o *Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[o.GatewayOrderID]; !ok {
		return ErrNotFound
	}
	cp := clone(o)
	cp.UpdatedAt = time.Now().UTC()
	s.orders[o.GatewayOrderID] = cp
	return nil
}

// Release implements OrderStore.
func (s *MemoryStore) Release(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return ErrNotFound
	}
	if o.State == StateCapturing {
		o.State = StateCreated
		o.UpdatedAt = time.Now().UTC()
	}
	return nil
}

// Fail implements OrderStore.
func (s *MemoryStore) Fail(_ context.Context, id string, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return ErrNotFound
	}
	o.State = StateFailed
	o.FailReason = reason
	o.UpdatedAt = time.Now().UTC()
	return nil
}
