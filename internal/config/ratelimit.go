package config

import (
	"time"
)

// RateLimitConfig controls the Redis token bucket applied to the
// checkout routes. Limits are deliberately generous: the point is to
// blunt a runaway client hammering the payment gateway, not to meter
// normal shoppers.
type RateLimitConfig struct {
	Enabled        bool          // disable entirely with RATE_LIMIT_ENABLED=false
	Capacity       int           // bucket size (burst allowance)
	RefillTokens   int           // tokens added per refill interval
	RefillInterval time.Duration // how often tokens are added
	TTL            time.Duration // idle expiry of a bucket key
	Prefix         string        // Redis key prefix
}

// LoadRateLimitConfig reads the rate limit settings from the
// environment, clamping nonsense values to safe minimums.
func LoadRateLimitConfig() RateLimitConfig {
	cfg := RateLimitConfig{
		Enabled:        envBool("RATE_LIMIT_ENABLED", true),
		Capacity:       envInt("RATE_LIMIT_CAPACITY", 30),
		RefillTokens:   envInt("RATE_LIMIT_REFILL_TOKENS", 1),
		RefillInterval: envDur("RATE_LIMIT_REFILL_INTERVAL", time.Second),
		TTL:            envDur("RATE_LIMIT_TTL", 10*time.Minute),
		Prefix:         envStr("RATE_LIMIT_PREFIX", "rl:checkout"),
	}
	if cfg.Capacity < 1 {
		cfg.Capacity = 1
	}
	if cfg.RefillTokens < 1 {
		cfg.RefillTokens = 1
	}
	if cfg.RefillInterval <= 0 {
		cfg.RefillInterval = time.Second
	}
	if minTTL := 5 * cfg.RefillInterval; cfg.TTL < minTTL {
		cfg.TTL = minTTL
	}
	return cfg
}
