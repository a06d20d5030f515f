package config

import (
	"testing"
	"time"
)

func TestMutationBucketStricterThanGeneral(t *testing.T) {
	general := LoadRateLimitConfig()
	mutation := LoadMutationRateLimitConfig()

	if mutation.Capacity >= general.Capacity {
		t.Fatalf("mutation capacity %d is not stricter than general %d",
			mutation.Capacity, general.Capacity)
	}
	if mutation.RefillInterval <= general.RefillInterval {
		t.Fatalf("mutation refill %v is not slower than general %v",
			mutation.RefillInterval, general.RefillInterval)
	}
	if mutation.Prefix == general.Prefix {
		t.Fatal("mutation and general buckets share a key prefix")
	}
}

func TestRateLimitEnvOverrides(t *testing.T) {
	t.Setenv("RATE_LIMIT_MUTATION_CAPACITY", "2")
	t.Setenv("RATE_LIMIT_MUTATION_REFILL_INTERVAL", "1m")
	t.Setenv("RATE_LIMIT_MUTATION_ENABLED", "true")

	cfg := LoadMutationRateLimitConfig()
	if cfg.Capacity != 2 {
		t.Fatalf("Capacity = %d, want 2", cfg.Capacity)
	}
	if cfg.RefillInterval != time.Minute {
		t.Fatalf("RefillInterval = %v, want 1m", cfg.RefillInterval)
	}
	// TTL must cover several refill intervals or idle buckets reset.
	if cfg.TTL < 5*time.Minute {
		t.Fatalf("TTL = %v, want at least 5m for a 1m refill", cfg.TTL)
	}
}

func TestRateLimitClampsInvalidValues(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_TOKENS", "-3")

	cfg := LoadRateLimitConfig()
	if cfg.Capacity != 1 {
		t.Fatalf("Capacity = %d, want clamp to 1", cfg.Capacity)
	}
	if cfg.RefillTokens != 1 {
		t.Fatalf("RefillTokens = %d, want clamp to 1", cfg.RefillTokens)
	}
}
