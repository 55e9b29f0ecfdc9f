package observability

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// RequestLogger logs one line per request and feeds the request counters.
// It must run outside the error-handling middleware so the final status is
// visible.
func RequestLogger(logger *zap.Logger, metrics *Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		dur := time.Since(start)
		status := c.Response().StatusCode()

		metrics.RecordRequest(RouteKey(c), c.Method(), status, dur)

		fields := []zap.Field{
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Int64("duration_ms", dur.Milliseconds()),
			zap.String("remote_ip", c.IP()),
		}
		if rid := c.GetRespHeader(fiber.HeaderXRequestID); rid != "" {
			fields = append(fields, zap.String("request_id", rid))
		}

		switch {
		case err != nil || status >= 500:
			logger.Error("request completed", append(fields, zap.Error(err))...)
		case status >= 400:
			logger.Warn("request completed", fields...)
		default:
			logger.Info("request completed", fields...)
		}
		return err
	}
}

// UnmatchedRoute is the metrics key of requests no route handled.
const UnmatchedRoute = "unmatched"

// RouteKey returns the registered route pattern serving c, so metrics keys
// stay bounded by the route table rather than by client input.
func RouteKey(c *fiber.Ctx) string {
	route := c.Route()
	if route == nil || route.Path == "" || route.Path == "/" {
		return UnmatchedRoute
	}
	return route.Path
}
