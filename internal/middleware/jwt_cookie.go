package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/Windi-Fikriyansyah/homeservice_be/internal/session"
)

// TokenFromRequest reads the session token from the cookie, falling back to a
// bearer Authorization header.
func TokenFromRequest(c *fiber.Ctx) string {
	if tok := c.Cookies(session.CookieName); tok != "" {
		return tok
	}
	auth := c.Get(fiber.HeaderAuthorization)
	if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}

// RequireSession rejects requests without a live session and attaches the
// session to the request otherwise.
func RequireSession(mgr *session.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := mgr.Current(c.UserContext(), TokenFromRequest(c))
		if err != nil {
			if !errors.Is(err, session.ErrInvalid) && !errors.Is(err, session.ErrNotFound) {
				mgr.Log.WithError(err).Error("load session")
			}
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "Please sign in to continue",
			})
		}

		session.Attach(c, s)
		return c.Next()
	}
}
