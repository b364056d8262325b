// middleware/ratelimit.go
package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// SubmitRateLimit caps score submissions per user. This guards request
// volume only — the daily score cap limits cumulative reward-earning
// separately, inside validation.
func SubmitRateLimit(maxPerMinute int) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        maxPerMinute,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			// Keyed on the gateway-resolved user so bursts count per account
			if userID := c.Get("X-User-ID"); userID != "" {
				return userID
			}
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "too many submissions, slow down",
			})
		},
	})
}
