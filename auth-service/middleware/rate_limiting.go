package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"astraldraft-backend/shared/utils/response"
)

// RateLimit - per-key limit state
type RateLimit struct {
	Count      int
	ResetAt    time.Time
	LastAccess time.Time
	Blocked    bool
	BlockUntil time.Time
}

// RateLimiter throttles by client IP before requests reach the handlers.
// This is the outer, coarse layer; the account lockout tracker inside the
// login handler is the per-account layer.
type RateLimiter struct {
	store       map[string]*RateLimit
	mutex       sync.RWMutex
	cleanupTime time.Duration
}

// RateLimitConfig - rate limiter tuning per route group
type RateLimitConfig struct {
	MaxRequests   int
	TimeWindow    time.Duration
	BlockDuration time.Duration
}

// NewRateLimiter creates a limiter and starts its cleanup goroutine
func NewRateLimiter(cleanupTime time.Duration) *RateLimiter {
	limiter := &RateLimiter{
		store:       make(map[string]*RateLimit),
		cleanupTime: cleanupTime,
	}

	if cleanupTime > 0 {
		go limiter.cleanup()
	}

	return limiter
}

// cleanup removes records idle for over a day
func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(rl.cleanupTime)
	defer ticker.Stop()

	for range ticker.C {
		rl.mutex.Lock()
		now := time.Now()
		for key, limit := range rl.store {
			if now.Sub(limit.LastAccess) > 24*time.Hour {
				delete(rl.store, key)
			}
		}
		rl.mutex.Unlock()
	}
}

// isAllowed checks the limit for key and reports how long a blocked caller
// should wait.
func (rl *RateLimiter) isAllowed(key string, config RateLimitConfig) (bool, time.Duration) {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	now := time.Now()
	limit, exists := rl.store[key]

	if !exists {
		rl.store[key] = &RateLimit{
			Count:      1,
			ResetAt:    now.Add(config.TimeWindow),
			LastAccess: now,
		}
		return true, 0
	}

	if limit.Blocked {
		if now.After(limit.BlockUntil) {
			limit.Blocked = false
			limit.Count = 1
			limit.ResetAt = now.Add(config.TimeWindow)
			limit.LastAccess = now
			return true, 0
		}
		return false, limit.BlockUntil.Sub(now)
	}

	if now.After(limit.ResetAt) {
		limit.Count = 1
		limit.ResetAt = now.Add(config.TimeWindow)
		limit.LastAccess = now
		return true, 0
	}

	if limit.Count >= config.MaxRequests {
		limit.Blocked = true
		limit.BlockUntil = now.Add(config.BlockDuration)
		limit.LastAccess = now
		return false, config.BlockDuration
	}

	limit.Count++
	limit.LastAccess = now
	return true, 0
}

// RateLimitMiddleware - general per-IP rate limiting middleware
func (rl *RateLimiter) RateLimitMiddleware(config RateLimitConfig) gin.HandlerFunc {
	return rl.middleware("", config, "Rate limit exceeded. Please try again later.")
}

// LoginRateLimitMiddleware - login endpoint rate limiting middleware
func (rl *RateLimiter) LoginRateLimitMiddleware(config RateLimitConfig) gin.HandlerFunc {
	return rl.middleware("login:", config, "Too many login attempts. Please try again later.")
}

// RegistrationRateLimitMiddleware - registration endpoint rate limiting middleware
func (rl *RateLimiter) RegistrationRateLimitMiddleware(config RateLimitConfig) gin.HandlerFunc {
	return rl.middleware("register:", config, "Too many registration attempts. Please try again later.")
}

func (rl *RateLimiter) middleware(keyPrefix string, config RateLimitConfig, message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyPrefix + c.ClientIP()

		allowed, retryAfter := rl.isAllowed(key, config)
		if !allowed {
			response.Throttled(c, response.CodeRateLimited, message, int(retryAfter.Seconds()))
			return
		}

		c.Next()
	}
}
