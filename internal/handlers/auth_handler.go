package handlers

import (
	"errors"
	"log"
	"strings"
	"time"

	"blog/internal/middleware"
	"blog/internal/models"
	"blog/internal/services"

	"github.com/gofiber/fiber/v2"
)

// DefaultLoginRedirect is where a successful login lands without a usable redirectTo.
const DefaultLoginRedirect = "/admin"

// AuthHandler handles HTTP requests for authentication.
type AuthHandler struct {
	authService  *services.AuthService
	cookieSecure bool
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService, cookieSecure bool) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		cookieSecure: cookieSecure,
	}
}

// RegisterRoutes registers the authentication routes with the Fiber app.
func (h *AuthHandler) RegisterRoutes(router fiber.Router) {
	authRoutes := router.Group("/auth")
	authRoutes.Post("/login", h.HandleLogin)
	authRoutes.Post("/logout", h.HandleLogout)
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Username   string `json:"username" form:"username"`
	Password   string `json:"password" form:"password"`
	RedirectTo string `json:"redirectTo" form:"redirectTo"`
}

// SafeRedirect returns to when it is a local path, otherwise DefaultLoginRedirect.
func SafeRedirect(to string) string {
	if !strings.HasPrefix(to, "/") || strings.HasPrefix(to, "//") || strings.Contains(to, "\\") {
		return DefaultLoginRedirect
	}
	return to
}

// HandleLogin verifies credentials, sets the session cookie and redirects.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil || req.Username == "" || req.Password == "" {
		if err != nil {
			log.Printf("Error parsing login request body: %v", err)
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"formError": "Form not submitted correctly.",
			"fields":    fiber.Map{"username": req.Username},
		})
	}

	user, err := h.authService.VerifyLogin(c.UserContext(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, models.ErrInvalidCredentials) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"formError": "Username/Password combination is incorrect",
				"fields":    fiber.Map{"username": req.Username},
			})
		}
		log.Printf("Error during login for user %s: %v", req.Username, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"formError": "An unexpected error occurred. Please try again later.",
		})
	}

	session, err := h.authService.CreateUserSession(user.ID)
	if err != nil {
		log.Printf("Error creating session for user %s: %v", user.Username, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"formError": "An unexpected error occurred. Please try again later.",
		})
	}

	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HTTPOnly: true,
		Secure:   h.cookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.Redirect(SafeRedirect(req.RedirectTo), fiber.StatusSeeOther)
}

// HandleLogout revokes the session, clears the cookie and redirects home.
func (h *AuthHandler) HandleLogout(c *fiber.Ctx) error {
	if err := h.authService.Logout(c.UserContext(), middleware.SessionToken(c)); err != nil {
		log.Printf("Error during logout: %v", err)
	}

	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HTTPOnly: true,
		Secure:   h.cookieSecure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.Redirect("/", fiber.StatusSeeOther)
}
