package middleware

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/artem13815/jobboard/api/http/presenter"
	"github.com/artem13815/jobboard/pkg/auth"
	"github.com/artem13815/jobboard/pkg/security/jwt"
)

type stubLimiter struct {
	allow bool
	err   error
	keys  []string
}

func (s *stubLimiter) Allow(_ context.Context, route, caller string, _ int) (bool, error) {
	s.keys = append(s.keys, route+":"+caller)
	return s.allow, s.err
}

func withRole(role auth.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(jwt.LocalUserID, "b1a4c3d2-0000-4000-8000-000000000001")
		c.Locals(jwt.LocalRole, role)
		return c.Next()
	}
}

func ok(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) }

func status(t *testing.T, app *fiber.App, path string) int {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest("GET", path, nil))
	require.NoError(t, err)
	return resp.StatusCode
}

func TestRequireRole(t *testing.T) {
	app := fiber.New()
	app.Get("/employer", withRole(auth.RoleEmployer), RequireRole(auth.RoleEmployer), ok)
	app.Get("/applicant", withRole(auth.RoleEmployer), RequireRole(auth.RoleApplicant), ok)
	app.Get("/anon", RequireRole(auth.RoleApplicant, auth.RoleEmployer), ok)

	assert.Equal(t, fiber.StatusOK, status(t, app, "/employer"))
	assert.Equal(t, fiber.StatusForbidden, status(t, app, "/applicant"))
	assert.Equal(t, fiber.StatusForbidden, status(t, app, "/anon"))
}

func TestRateLimit(t *testing.T) {
	logger := zap.NewNop()

	denied := &stubLimiter{allow: false}
	app := fiber.New()
	app.Get("/", withRole(auth.RoleApplicant), RateLimit(denied, "apply", 1, logger), ok)
	assert.Equal(t, fiber.StatusTooManyRequests, status(t, app, "/"))
	assert.Equal(t, []string{"apply:b1a4c3d2-0000-4000-8000-000000000001"}, denied.keys)

	broken := &stubLimiter{err: errors.New("redis: connection refused")}
	app = fiber.New()
	app.Get("/", RateLimit(broken, "login", 1, logger), ok)
	assert.Equal(t, fiber.StatusOK, status(t, app, "/"))
	require.Len(t, broken.keys, 1)
	assert.Contains(t, broken.keys[0], "login:")
}

func TestRecoverAndAccessLog(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)

	app := fiber.New(fiber.Config{ErrorHandler: presenter.ErrorHandler(logger)})
	app.Use(AccessLog(logger), Recover(logger))
	app.Get("/panic", func(*fiber.Ctx) error { panic("boom") })
	app.Get("/ok", ok)

	assert.Equal(t, fiber.StatusInternalServerError, status(t, app, "/panic"))
	assert.Equal(t, 1, logs.FilterMessage("panic recovered").Len())

	assert.Equal(t, fiber.StatusOK, status(t, app, "/ok"))
	handled := logs.FilterMessage("request handled").All()
	require.Len(t, handled, 2)
	assert.Equal(t, int64(500), handled[0].ContextMap()["status"])
	assert.Equal(t, int64(200), handled[1].ContextMap()["status"])
}
