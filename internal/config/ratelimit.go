package config

import (
	"os"
	"strconv"
	"time"
)

// RateLimitConfig drives a Redis-backed token bucket. The service runs
// two buckets: a general one covering the authenticated API and a much
// stricter one for allocation runs and clears, which are expensive
// batch jobs no operator needs to trigger in quick succession.
type RateLimitConfig struct {
	Enabled        bool
	Capacity       int
	RefillTokens   int
	RefillInterval time.Duration
	TTL            time.Duration
	KeyStrategy    string
	Prefix         string
	Debug          bool
}

// LoadRateLimitConfig builds the general bucket from RATE_LIMIT_*
// variables: 60 tokens, one refilled per second, keyed by
// ip+user+route.
func LoadRateLimitConfig() RateLimitConfig {
	return rateLimitFromEnv("RATE_LIMIT_", RateLimitConfig{
		Enabled:        true,
		Capacity:       60,
		RefillTokens:   1,
		RefillInterval: time.Second,
		TTL:            10 * time.Minute,
		KeyStrategy:    "ip_user_route",
		Prefix:         "rl",
	})
}

// LoadMutationRateLimitConfig builds the bucket in front of the
// allocation mutations (runs and clears). RATE_LIMIT_MUTATION_*
// variables override the defaults: 5 tokens with one refilled every
// 30 seconds, keyed per user and route so one admin retrying a run
// does not block another clearing an enclosure.
func LoadMutationRateLimitConfig() RateLimitConfig {
	return rateLimitFromEnv("RATE_LIMIT_MUTATION_", RateLimitConfig{
		Enabled:        true,
		Capacity:       5,
		RefillTokens:   1,
		RefillInterval: 30 * time.Second,
		TTL:            30 * time.Minute,
		KeyStrategy:    "user_route",
		Prefix:         "rlm",
	})
}

// rateLimitFromEnv overlays environment variables carrying the given
// prefix onto the defaults and clamps the result to sane bounds.
func rateLimitFromEnv(prefix string, def RateLimitConfig) RateLimitConfig {
	cfg := RateLimitConfig{
		Enabled:        envBool(prefix+"ENABLED", def.Enabled),
		Capacity:       envInt(prefix+"CAPACITY", def.Capacity),
		RefillTokens:   envInt(prefix+"REFILL_TOKENS", def.RefillTokens),
		RefillInterval: envDur(prefix+"REFILL_INTERVAL", def.RefillInterval),
		TTL:            envDur(prefix+"TTL", def.TTL),
		KeyStrategy:    envStr(prefix+"KEY_STRATEGY", def.KeyStrategy),
		Prefix:         envStr(prefix+"PREFIX", def.Prefix),
		Debug:          envBool(prefix+"DEBUG", def.Debug),
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
	// The bucket state must outlive several refill intervals or idle
	// buckets reset to full capacity too eagerly.
	if min := 5 * cfg.RefillInterval; cfg.TTL < min {
		cfg.TTL = min
	}
	return cfg
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envBool(key string, def bool) bool {
	switch os.Getenv(key) {
	case "1", "true", "TRUE", "True", "yes", "YES", "on", "ON":
		return true
	case "0", "false", "FALSE", "False", "no", "NO", "off", "OFF":
		return false
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return def
}

func envDur(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	return def
}
