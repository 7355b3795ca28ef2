package observability

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// RequestIDKey is the fiber Locals key holding the request id.
const RequestIDKey = "request_id"

// RequestLogger logs each request once it completes and records it in metrics
// under its route template, so /tickets/1 and /tickets/2 share a counter.
func RequestLogger(logger *zap.Logger, metrics *Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		elapsed := time.Since(start)

		status := c.Response().StatusCode()
		route := c.Path()
		if r := c.Route(); r != nil && r.Path != "" {
			route = r.Path
		}
		metrics.RecordRequest(route, c.Method(), status, elapsed)

		fields := []zap.Field{
			zap.String("method", c.Method()),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Duration("duration", elapsed),
		}
		if id := c.Locals(RequestIDKey); id != nil {
			fields = append(fields, zap.String("request_id", fmt.Sprint(id)))
		}
		if guildID := c.Params("guildId"); guildID != "" {
			fields = append(fields, zap.String("guild_id", guildID))
		}
		logger.Info("http request", fields...)
		return err
	}
}
