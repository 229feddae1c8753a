package service

import (
	"math"
	"sync"
	"time"
)

// TokenBucket is an in-memory per-key rate limiter. The import endpoint keys
// it by user so one account cannot queue unbounded OCR work.
type TokenBucket struct {
	mu       sync.Mutex
	buckets  map[string]*bucket
	rate     float64 // tokens per second
	capacity float64
	now      func() time.Time
	stop     chan struct{}
	once     sync.Once
}

type bucket struct {
	tokens float64
	last   time.Time
}

// NewTokenBucket creates a limiter holding up to capacity tokens per key and
// refilling at rate tokens per second. Call Close to stop the background
// sweep of idle keys.
func NewTokenBucket(rate, capacity float64) *TokenBucket {
	tb := &TokenBucket{
		buckets:  make(map[string]*bucket),
		rate:     rate,
		capacity: capacity,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	go tb.sweep(5*time.Minute, 10*time.Minute)
	return tb
}

// Allow consumes one token for key and reports whether one was available.
func (tb *TokenBucket) Allow(key string) bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	b := tb.refill(key)
	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

// RetryAfter returns how long key must wait before its next token.
func (tb *TokenBucket) RetryAfter(key string) time.Duration {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	b := tb.refill(key)
	if b.tokens >= 1 || tb.rate <= 0 {
		return 0
	}
	secs := (1 - b.tokens) / tb.rate
	return time.Duration(math.Ceil(secs)) * time.Second
}

// Close stops the idle-key sweep.
func (tb *TokenBucket) Close() {
	tb.once.Do(func() { close(tb.stop) })
}

func (tb *TokenBucket) refill(key string) *bucket {
	now := tb.now()
	b, ok := tb.buckets[key]
	if !ok {
		b = &bucket{tokens: tb.capacity, last: now}
		tb.buckets[key] = b
	}
	elapsed := now.Sub(b.last).Seconds()
	b.tokens = min(b.tokens+elapsed*tb.rate, tb.capacity)
	b.last = now
	return b
}

func (tb *TokenBucket) sweep(every, idle time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-tb.stop:
			return
		case <-ticker.C:
			tb.mu.Lock()
			cutoff := tb.now().Add(-idle)
			for key, b := range tb.buckets {
				if b.last.Before(cutoff) {
					delete(tb.buckets, key)
				}
			}
			tb.mu.Unlock()
		}
	}
}
