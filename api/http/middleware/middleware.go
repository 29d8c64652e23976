// Package middleware holds the Fiber middleware shared by all routes.
package middleware

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/artem13815/jobboard/api/http/presenter"
	"github.com/artem13815/jobboard/pkg/apperr"
	"github.com/artem13815/jobboard/pkg/auth"
	"github.com/artem13815/jobboard/pkg/security/jwt"
)

// AccessLog logs every request after it has been handled.
func AccessLog(logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		if err != nil {
			// let the app error handler set the final status before logging
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		userID, _ := c.Locals(jwt.LocalUserID).(string)
		fields := []zap.Field{
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", c.Response().StatusCode()),
			zap.Duration("duration", time.Since(start)),
			zap.String("user_id", userID),
			zap.String("ip", c.IP()),
		}
		if c.Response().StatusCode() >= fiber.StatusInternalServerError {
			logger.Error("request handled", fields...)
		} else {
			logger.Info("request handled", fields...)
		}
		return nil
	}
}

// Recover turns a panic into a 500 response and logs the stack.
func Recover(logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered",
					zap.Any("panic", r),
					zap.ByteString("stack", debug.Stack()),
					zap.String("path", c.Path()),
				)
				err = apperr.Internal("panic", fmt.Errorf("%v", r))
			}
		}()
		return c.Next()
	}
}

// RequireRole rejects callers whose token role is not one of roles. It
// must run after the auth middleware.
func RequireRole(roles ...auth.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, _ := c.Locals(jwt.LocalRole).(auth.Role)
		for _, r := range roles {
			if role == r {
				return c.Next()
			}
		}
		return presenter.Fail(c, apperr.Forbidden("this action requires role "+rolesList(roles)))
	}
}

func rolesList(roles []auth.Role) string {
	out := ""
	for i, r := range roles {
		if i > 0 {
			out += " or "
		}
		out += string(r)
	}
	return out
}

// Limiter counts hits per route and caller in a fixed window.
type Limiter interface {
	Allow(ctx context.Context, route, caller string, limit int) (bool, error)
}

// RateLimit keys on the authenticated actor, falling back to the client IP.
// A limiter failure lets the request through.
func RateLimit(limiter Limiter, route string, limit int, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, _ := c.Locals(jwt.LocalUserID).(string)
		if caller == "" {
			caller = c.IP()
		}
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()

		ok, err := limiter.Allow(ctx, route, caller, limit)
		if err != nil {
			logger.Error("rate limit check failed",
				zap.String("route", route),
				zap.String("caller", caller),
				zap.Error(err),
			)
			return c.Next()
		}
		if !ok {
			logger.Warn("rate limit exceeded",
				zap.String("route", route),
				zap.String("caller", caller),
			)
			return presenter.JSON(c, fiber.StatusTooManyRequests, presenter.ErrorResponse{
				Message: fmt.Sprintf("too many requests: at most %d per minute", limit),
				Kind:    "rate_limited",
			})
		}
		return c.Next()
	}
}
