package jwt

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/artem13815/jobboard/pkg/apperr"
	"github.com/artem13815/jobboard/pkg/auth"
)

const (
	LocalUserID = "userId"
	LocalRole   = "role"
)

// NewAuthMiddleware validates the Bearer token and puts the actor id
// (string) and role (auth.Role) into c.Locals.
func NewAuthMiddleware(verifier auth.TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if header == "" {
			return unauthorized(c, "missing Authorization header")
		}
		// Support both "Bearer <token>" and a bare token.
		tokenStr := strings.TrimSpace(header)
		if scheme, rest, ok := strings.Cut(tokenStr, " "); ok && strings.EqualFold(scheme, "Bearer") {
			tokenStr = strings.TrimSpace(rest)
		}
		if tokenStr == "" {
			return unauthorized(c, "empty token")
		}
		id, err := verifier.Verify(c.UserContext(), tokenStr)
		if err != nil {
			return unauthorized(c, apperr.Message(err))
		}
		c.Locals(LocalUserID, id.ActorID.String())
		c.Locals(LocalRole, id.Role)
		return c.Next()
	}
}

func unauthorized(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"message": msg,
		"kind":    apperr.KindUnauthorized,
	})
}
