package middleware

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"
)

// ClientRateLimiter throttles requests per client IP. Discovery endpoints fan
// out into dozens of outbound DNS/HTTP/SMTP requests per call, so the API edge
// needs a far lower ceiling than a typical JSON service.
type ClientRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      rate.Limit
	burst    int
}

func NewClientRateLimiter(rps float64, burst int) *ClientRateLimiter {
	return &ClientRateLimiter{
		limiters: make(map[string]*rate.Limiter),
		rps:      rate.Limit(rps),
		burst:    burst,
	}
}

func (rl *ClientRateLimiter) limiterFor(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	l, ok := rl.limiters[ip]
	if !ok {
		l = rate.NewLimiter(rl.rps, rl.burst)
		rl.limiters[ip] = l
	}
	return l
}

// Handler returns the fiber middleware enforcing the limit.
func (rl *ClientRateLimiter) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !rl.limiterFor(c.IP()).Allow() {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Rate limit exceeded, slow down",
			})
		}
		return c.Next()
	}
}
