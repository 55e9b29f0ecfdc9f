package ratelimit

import (
	"math"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	apperrors "github.com/spec-kit/account-service/pkg/util/errorutil"
)

// KeyFunc derives the bucket a request is counted in.
type KeyFunc func(c *fiber.Ctx) string

// ByIP counts requests per client address.
func ByIP(c *fiber.Ctx) string {
	return c.IP()
}

// Middleware rejects requests over the limiter budget with 429. Limiter
// failures let the request through. A nil limiter disables the check.
func Middleware(limiter Limiter, key KeyFunc, logger *zap.Logger) fiber.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if key == nil {
		key = ByIP
	}
	return func(c *fiber.Ctx) error {
		if limiter == nil {
			return c.Next()
		}

		res, err := limiter.Allow(c.UserContext(), key(c))
		if err != nil {
			logger.Warn("rate limiter unavailable", zap.String("path", c.Path()), zap.Error(err))
			return c.Next()
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		if !res.Allowed {
			if res.RetryAfter > 0 {
				c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(math.Ceil(res.RetryAfter.Seconds()))))
			}
			return apperrors.NewTooManyRequests("too many login attempts, try again later")
		}
		return c.Next()
	}
}
