package bot

import (
	"sync"

	"golang.org/x/time/rate"
)

// RateLimiter provides per-user rate limiting of URL submissions
type RateLimiter struct {
	limiters map[int64]*rate.Limiter
	mu       sync.RWMutex
	rate     rate.Limit
	burst    int
}

// NewRateLimiter creates a limiter allowing requestsPerMin submissions per
// user. It returns nil when requestsPerMin is not positive; a nil limiter
// allows everything.
func NewRateLimiter(requestsPerMin int) *RateLimiter {
	if requestsPerMin <= 0 {
		return nil
	}
	return &RateLimiter{
		limiters: make(map[int64]*rate.Limiter),
		rate:     rate.Limit(float64(requestsPerMin) / 60.0), // Convert to per-second
		burst:    min(max(requestsPerMin/10, 5), requestsPerMin),
	}
}

// Allow reports whether userID may submit now and consumes a token
func (rl *RateLimiter) Allow(userID int64) bool {
	if rl == nil {
		return true
	}
	return rl.getLimiter(userID).Allow()
}

// getLimiter returns the rate limiter for a user, creating one if needed
func (rl *RateLimiter) getLimiter(userID int64) *rate.Limiter {
	rl.mu.RLock()
	limiter, exists := rl.limiters[userID]
	rl.mu.RUnlock()

	if exists {
		return limiter
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if limiter, exists = rl.limiters[userID]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(rl.rate, rl.burst)
	rl.limiters[userID] = limiter
	return limiter
}

// Cleanup removes limiters that are back at full burst
func (rl *RateLimiter) Cleanup() {
	if rl == nil {
		return
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for userID, limiter := range rl.limiters {
		if limiter.Tokens() >= float64(rl.burst) {
			delete(rl.limiters, userID)
		}
	}
}
