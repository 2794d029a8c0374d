package ratelimit

import (
	"sync"

	"golang.org/x/time/rate"
)

// Limiter manages command rate limits for multiple chats
type Limiter struct {
	limiters map[int64]*rate.Limiter
	mu       sync.Mutex
	rate     rate.Limit
	burst    int
}

// NewLimiter creates a new rate limiter
// requestsPerHour: commands allowed per hour per chat (e.g., 60)
// burst: max commands in a burst (e.g., 5)
// A non-positive requestsPerHour disables limiting.
func NewLimiter(requestsPerHour int, burst int) *Limiter {
	r := rate.Inf
	if requestsPerHour > 0 {
		// Convert requests per hour to requests per second
		r = rate.Limit(float64(requestsPerHour) / 3600.0)
	}
	if burst <= 0 {
		burst = 1
	}

	return &Limiter{
		limiters: make(map[int64]*rate.Limiter),
		rate:     r,
		burst:    burst,
	}
}

// GetLimiter returns the rate limiter for a specific chat
func (l *Limiter) GetLimiter(chatID int64) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, exists := l.limiters[chatID]
	if !exists {
		limiter = rate.NewLimiter(l.rate, l.burst)
		l.limiters[chatID] = limiter
	}

	return limiter
}

// Allow checks if a command is allowed for the given chat
func (l *Limiter) Allow(chatID int64) bool {
	return l.GetLimiter(chatID).Allow()
}

// Tokens returns the current number of available tokens for a chat
func (l *Limiter) Tokens(chatID int64) float64 {
	return l.GetLimiter(chatID).Tokens()
}
