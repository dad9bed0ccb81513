package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Windi-Fikriyansyah/homeservice_be/internal/session"
)

// OptionalSession attaches the session when the request carries a valid token
// and lets anonymous requests through.
func OptionalSession(mgr *session.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tok := TokenFromRequest(c)
		if tok == "" {
			return c.Next()
		}
		if s, err := mgr.Current(c.UserContext(), tok); err == nil {
			session.Attach(c, s)
		}
		return c.Next()
	}
}
