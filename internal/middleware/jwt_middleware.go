package middleware

import (
	"net/url"
	"strings"

	"blog/internal/services"

	"github.com/gofiber/fiber/v2"
)

// SessionCookieName is the cookie carrying the session token.
const SessionCookieName = "blog_session"

// UserIDKey is the c.Locals key holding the authenticated user id.
const UserIDKey = "user_id"

// SessionToken returns the session token from the cookie, falling back to
// an "Authorization: Bearer <token>" header.
func SessionToken(c *fiber.Ctx) string {
	if token := c.Cookies(SessionCookieName); token != "" {
		return token
	}
	parts := strings.SplitN(c.Get(fiber.HeaderAuthorization), " ", 2)
	if len(parts) == 2 && parts[0] == "Bearer" {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// UserID returns the id stored by AuthRequired, or "".
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(UserIDKey).(string)
	return id
}

// LoginRedirect builds the login URL that returns to path after sign-in.
func LoginRedirect(path string) string {
	return "/login?redirectTo=" + url.QueryEscape(path)
}

// AuthRequired is a Fiber middleware that rejects requests without a valid session.
func AuthRequired(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := authService.GetUserID(c.UserContext(), SessionToken(c))
		if userID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message":  "Authentication required",
				"redirect": LoginRedirect(c.OriginalURL()),
			})
		}

		c.Locals(UserIDKey, userID)
		return c.Next()
	}
}
