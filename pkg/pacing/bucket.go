package pacing

import (
    "sync"
    "time"

    "meshbbs/pkg/clock"
)

// TokenBucket is a simple leaky bucket for shaping; tokens are bytes.
type TokenBucket struct {
    mu       sync.Mutex
    clk      clock.Clock
    capacity int64
    tokens   int64
    rate     int64 // tokens per second
    last     time.Time
}

func NewTokenBucket(ratePerSec, capacity int64, clk clock.Clock) *TokenBucket {
    if capacity <= 0 { capacity = ratePerSec }
    if clk == nil { clk = clock.Real() }
    return &TokenBucket{clk: clk, capacity: capacity, tokens: capacity, rate: ratePerSec, last: clk.Now()}
}

// Allow tries to consume n tokens; if not enough, returns duration to wait.
// A request larger than capacity is allowed once the bucket is full.
func (b *TokenBucket) Allow(n int64) (ok bool, wait time.Duration) {
    b.mu.Lock(); defer b.mu.Unlock()
    if b.rate <= 0 { return true, 0 }
    now := b.clk.Now()
    dt := now.Sub(b.last)
    if dt > 0 {
        add := (b.rate * dt.Nanoseconds()) / int64(time.Second)
        if add > 0 {
            b.tokens += add
            if b.tokens > b.capacity { b.tokens = b.capacity }
            b.last = now
        }
    }
    if n > b.capacity { n = b.capacity }
    if b.tokens >= n {
        b.tokens -= n
        return true, 0
    }
    need := n - b.tokens
    nanos := (need*int64(time.Second) + b.rate - 1) / b.rate
    return false, time.Duration(nanos)
}
