package middleware

import (
	"net/http"
	"sync"
	"time"

	"clinicdesk/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimit applies a token-bucket limit per client IP. Used on the
// login route to slow down credential stuffing; it is not a retry
// policy — clients that hit it get 429 and back off on their own.
func RateLimit(perSecond float64, burst int) gin.HandlerFunc {
	type bucket struct {
		lim  *rate.Limiter
		seen time.Time
	}

	var (
		mu      sync.Mutex
		buckets = make(map[string]*bucket)
	)
	const ttl = 5 * time.Minute

	// drop buckets for IPs that went quiet
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			now := time.Now()
			mu.Lock()
			for ip, b := range buckets {
				if now.Sub(b.seen) > ttl {
					delete(buckets, ip)
				}
			}
			mu.Unlock()
		}
	}()

	return func(c *gin.Context) {
		ip := c.ClientIP()
		if ip == "" {
			ip = "unknown"
		}

		mu.Lock()
		b, ok := buckets[ip]
		if !ok {
			b = &bucket{lim: rate.NewLimiter(rate.Limit(perSecond), burst)}
			buckets[ip] = b
		}
		b.seen = time.Now()
		mu.Unlock()

		if !b.lim.Allow() {
			response.Error(c, http.StatusTooManyRequests, "RATE_LIMITED", "Too many attempts, slow down")
			c.Abort()
			return
		}

		c.Next()
	}
}
