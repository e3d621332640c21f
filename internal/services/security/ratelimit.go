package security

import (
	"sync"
	"time"
)

// RateLimiter is a fixed-window request counter keyed by client IP
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	limit   int
	period  time.Duration
	message string
	now     func() time.Time
	done    chan struct{}
	once    sync.Once
}

type window struct {
	count     int
	expiresAt time.Time
}

// NewRateLimiter allows limit requests per period and starts a cleanup goroutine
func NewRateLimiter(limit int, period time.Duration, message string) *RateLimiter {
	rl := &RateLimiter{
		windows: make(map[string]*window),
		limit:   limit,
		period:  period,
		message: message,
		now:     time.Now,
		done:    make(chan struct{}),
	}

	go rl.cleanupLoop()

	return rl
}

// Allow counts a request for key. When the budget is spent it returns false
// and the time until the window resets.
func (rl *RateLimiter) Allow(key string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	w, ok := rl.windows[key]
	if !ok || !now.Before(w.expiresAt) {
		rl.windows[key] = &window{count: 1, expiresAt: now.Add(rl.period)}
		return true, 0
	}

	if w.count >= rl.limit {
		return false, w.expiresAt.Sub(now)
	}

	w.count++
	return true, 0
}

// Refund gives back one request, used to skip successful requests
func (rl *RateLimiter) Refund(key string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if w, ok := rl.windows[key]; ok && w.count > 0 {
		w.count--
	}
}

// Remaining returns how many requests key has left in its window
func (rl *RateLimiter) Remaining(key string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, ok := rl.windows[key]
	if !ok || !rl.now().Before(w.expiresAt) {
		return rl.limit
	}
	return rl.limit - w.count
}

// Message is the client-facing text for a rejected request
func (rl *RateLimiter) Message() string {
	return rl.message
}

// Close stops the cleanup goroutine
func (rl *RateLimiter) Close() {
	rl.once.Do(func() { close(rl.done) })
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.done:
			return
		}
	}
}

func (rl *RateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for key, w := range rl.windows {
		if !now.Before(w.expiresAt) {
			delete(rl.windows, key)
		}
	}
}
