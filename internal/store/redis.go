package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	orderKeyPrefix = "order:"
	claimKeyPrefix = "order:capture:"
)

// RedisStore keeps checkout attempts as JSON documents in Redis and
// uses a SET NX claim key to serialize capture attempts across
// instances. Orders expire after the configured TTL; an uncaptured
// gateway order expires on the gateway side anyway, so the record only
// needs to outlive the checkout session by a comfortable margin.
type RedisStore struct {
	rdb      *redis.Client
	orderTTL time.Duration
	claimTTL time.Duration
}

// NewRedisStore constructs a Redis-backed order store. orderTTL bounds
// how long an order document is retained; claimTTL bounds how long a
// crashed capture attempt can block retries. Zero values fall back to
// 24h and 2m respectively.
func NewRedisStore(rdb *redis.Client, orderTTL, claimTTL time.Duration) *RedisStore {
	if orderTTL <= 0 {
		orderTTL = 24 * time.Hour
	}
	if claimTTL <= 0 {
		claimTTL = 2 * time.Minute
	}
	return &RedisStore{rdb: rdb, orderTTL: orderTTL, claimTTL: claimTTL}
}

func (s *RedisStore) load(ctx context.Context, id string) (*Order, error) {
	raw, err := s.rdb.Get(ctx, orderKeyPrefix+id).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get order: %w", err)
	}
	var o Order
	if err := json.Unmarshal(raw, &o); err != nil {
		return nil, fmt.Errorf("decode stored order: %w", err)
	}
	return &o, nil
}

func (s *RedisStore) save(ctx context.Context, o *Order) error {
	raw, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("encode order: %w", err)
	}
	if err := s.rdb.Set(ctx, orderKeyPrefix+o.GatewayOrderID, raw, s.orderTTL).Err(); err != nil {
		return fmt.Errorf("redis set order: %w", err)
	}
	return nil
}

// Put implements OrderStore.
func (s *RedisStore) Put(ctx context.Context, o *Order) error {
	now := time.Now().UTC()
	cp := *o
	cp.State = StateCreated
	cp.CreatedAt = now
	cp.UpdatedAt = now
	raw, err := json.Marshal(&cp)
	if err != nil {
		return fmt.Errorf("encode order: %w", err)
	}
	ok, err := s.rdb.SetNX(ctx, orderKeyPrefix+cp.GatewayOrderID, raw, s.orderTTL).Result()
	if err != nil {
		return fmt.Errorf("redis setnx order: %w", err)
	}
	if !ok {
		return ErrDuplicate
	}
	return nil
}

// Get implements OrderStore.
func (s *RedisStore) Get(ctx context.Context, id string) (*Order, error) {
	return s.load(ctx, id)
}

// ClaimCapture implements OrderStore. The claim key is the cross-instance
// lock: only the request that wins SET NX may run the gateway capture
// call. A stale CAPTURING state left behind by a crashed attempt is
// reclaimable once the old claim key has expired. Terminal orders are
// answered before the lock is even attempted, so concurrent replays of
// an already-decided order never contend on the claim key.
func (s *RedisStore) ClaimCapture(ctx context.Context, id string) (*Order, error) {
	if o, err := s.load(ctx, id); err != nil {
		return nil, err
	} else if o.State.Terminal() {
		return o, nil
	}
	won, err := s.rdb.SetNX(ctx, claimKeyPrefix+id, "1", s.claimTTL).Result()
	if err != nil {
		return nil, fmt.Errorf("redis claim capture: %w", err)
	}
	if !won {
		return nil, ErrCaptureInProgress
	}
	o, err := s.load(ctx, id)
	if err != nil {
		s.rdb.Del(ctx, claimKeyPrefix+id)
		return nil, err
	}
	if o.State.Terminal() {
		s.rdb.Del(ctx, claimKeyPrefix+id)
		return o, nil
	}
	o.State = StateCapturing
	o.UpdatedAt = time.Now().UTC()
	if err := s.save(ctx, o); err != nil {
		s.rdb.Del(ctx, claimKeyPrefix+id)
		return nil, err
	}
	return o, nil
}

// Complete implements OrderStore.
func (s *RedisStore) Complete(ctx context.Context, o *Order) error {
	cp := *o
	cp.UpdatedAt = time.Now().UTC()
	if err := s.save(ctx, &cp); err != nil {
		return err
	}
	s.rdb.Del(ctx, claimKeyPrefix+o.GatewayOrderID)
	return nil
}

// Release implements OrderStore.
func (s *RedisStore) Release(ctx context.Context, id string) error {
	o, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if o.State == StateCapturing {
		o.State = StateCreated
		o.UpdatedAt = time.Now().UTC()
		if err := s.save(ctx, o); err != nil {
			return err
		}
	}
	s.rdb.Del(ctx, claimKeyPrefix+id)
	return nil
}

// Fail implements OrderStore.
func (s *RedisStore) Fail(ctx context.Context, id string, reason string) error {
	o, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	o.State = StateFailed
	o.FailReason = reason
	o.UpdatedAt = time.Now().UTC()
	if err := s.save(ctx, o); err != nil {
		return err
	}
	s.rdb.Del(ctx, claimKeyPrefix+id)
	return nil
}
