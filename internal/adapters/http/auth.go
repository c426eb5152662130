package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/geolocator/internal/pkg/auth"
	"github.com/samirrijal/geolocator/internal/pkg/logging"
)

const (
	localUserID   = "userID"
	localUsername = "username"
)

// RequireAuth verifies the bearer token and stores the caller in Locals.
func RequireAuth(tokens *auth.Tokens) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
			return errUnauthorized(c, "missing bearer token")
		}
		claims, err := tokens.Verify(strings.TrimSpace(header[7:]))
		if err != nil {
			return errUnauthorized(c, "invalid or expired token")
		}

		c.Locals(localUserID, claims.UserID())
		c.Locals(localUsername, claims.Username)

		ctx := c.UserContext()
		c.SetUserContext(logging.WithLogger(ctx, logging.FromContext(ctx).With("user_id", claims.UserID())))
		return c.Next()
	}
}

func userIDFrom(c *fiber.Ctx) string {
	id, _ := c.Locals(localUserID).(string)
	return id
}
