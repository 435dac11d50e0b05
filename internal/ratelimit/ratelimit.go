package ratelimit

import (
	"sync"
	"time"
)

// TokenBucket implements a token bucket rate limiter
type TokenBucket struct {
	mu         sync.Mutex
	tokens     int
	capacity   int
	rate       int // tokens per second
	lastRefill time.Time
	lastUsed   time.Time
}

// NewTokenBucket creates a new token bucket with the given rate and capacity
func NewTokenBucket(rate, capacity int) *TokenBucket {
	now := time.Now()
	return &TokenBucket{
		tokens:     capacity,
		capacity:   capacity,
		rate:       rate,
		lastRefill: now,
		lastUsed:   now,
	}
}

// Allow consumes a token if one is available.
func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := time.Now()
	tb.lastUsed = now
	tokensToAdd := int(now.Sub(tb.lastRefill).Seconds() * float64(tb.rate))
	if tokensToAdd > 0 {
		tb.tokens += tokensToAdd
		if tb.tokens > tb.capacity {
			tb.tokens = tb.capacity
		}
		tb.lastRefill = now
	}

	if tb.tokens > 0 {
		tb.tokens--
		return true
	}
	return false
}

func (tb *TokenBucket) idleSince() time.Time {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return tb.lastUsed
}

// Limits configures a RateLimiter. Zero rates disable that check.
type Limits struct {
	GlobalConnRate int // front-end connections per second, all peers
	PeerConnRate   int // front-end connections per second, per peer
	DialRate       int // backend dials per second, per target
	Burst          int
}

// RateLimiter guards session admission: front-end connections globally and
// per peer, and backend dials per target so a reconnect storm cannot flood a
// legacy service.
type RateLimiter struct {
	mu         sync.Mutex
	globalConn *TokenBucket
	peerConn   map[string]*TokenBucket
	dial       map[string]*TokenBucket
	limits     Limits
}

func NewRateLimiter(l Limits) *RateLimiter {
	if l.Burst <= 0 {
		l.Burst = 1
	}
	rl := &RateLimiter{
		peerConn: make(map[string]*TokenBucket),
		dial:     make(map[string]*TokenBucket),
		limits:   l,
	}
	if l.GlobalConnRate > 0 {
		rl.globalConn = NewTokenBucket(l.GlobalConnRate, l.Burst)
	}
	return rl
}

// Enabled reports whether any limit is active.
func (rl *RateLimiter) Enabled() bool {
	return rl.limits.GlobalConnRate > 0 || rl.limits.PeerConnRate > 0 || rl.limits.DialRate > 0
}

// AllowConnection checks the global and per-peer connection limits.
func (rl *RateLimiter) AllowConnection(peer string) bool {
	if rl.globalConn != nil && !rl.globalConn.Allow() {
		return false
	}
	if rl.limits.PeerConnRate <= 0 {
		return true
	}
	return rl.bucket(rl.peerConn, peer, rl.limits.PeerConnRate).Allow()
}

// AllowDial checks the per-target backend dial limit.
func (rl *RateLimiter) AllowDial(target string) bool {
	if rl.limits.DialRate <= 0 {
		return true
	}
	return rl.bucket(rl.dial, target, rl.limits.DialRate).Allow()
}

func (rl *RateLimiter) bucket(m map[string]*TokenBucket, key string, rate int) *TokenBucket {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	b, ok := m[key]
	if !ok {
		b = NewTokenBucket(rate, rl.limits.Burst)
		m[key] = b
	}
	return b
}

// CleanupIdle drops per-key buckets unused for longer than maxIdle and
// returns how many were removed.
func (rl *RateLimiter) CleanupIdle(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)
	rl.mu.Lock()
	defer rl.mu.Unlock()
	removed := 0
	for _, m := range []map[string]*TokenBucket{rl.peerConn, rl.dial} {
		for key, b := range m {
			if b.idleSince().Before(cutoff) {
				delete(m, key)
				removed++
			}
		}
	}
	return removed
}
