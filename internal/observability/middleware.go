package observability

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"backend-yatube/internal/apperr"

	"github.com/gofiber/fiber/v2"
)

// ContextMiddleware copies the request id from fiber locals into the user
// context so service-level log lines carry it.
func ContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		if rid, ok := c.Locals("requestid").(string); ok {
			ctx = context.WithValue(ctx, RequestIDKey, rid)
		}
		c.SetUserContext(ctx)
		return c.Next()
	}
}

// RequestLogger logs one line per request and updates the request counter.
func RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = StatusFor(err)
		}

		ctx := c.UserContext()
		if uid, ok := c.Locals("user_id").(int64); ok {
			ctx = context.WithValue(ctx, UserIDKey, uid)
		}

		fields := []any{
			slog.Int("status", status),
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.String("ip", c.IP()),
			slog.Duration("latency", time.Since(start)),
		}
		if err != nil && status >= fiber.StatusInternalServerError {
			fields = append(fields, slog.String("error", err.Error()))
			Logger.ErrorContext(ctx, "request failed", fields...)
		} else {
			Logger.InfoContext(ctx, "request processed", fields...)
		}

		route := c.Route().Path
		HTTPRequests.WithLabelValues(c.Method(), route, strconv.Itoa(status)).Inc()
		return err
	}
}

// StatusFor maps a handler error to the status the error handler will send.
func StatusFor(err error) int {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	switch apperr.KindOf(err) {
	case apperr.KindNotFound:
		return fiber.StatusNotFound
	case apperr.KindPermissionDenied:
		return fiber.StatusForbidden
	case apperr.KindValidation:
		return fiber.StatusBadRequest
	}
	return fiber.StatusInternalServerError
}
