package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/learnhub/api/internal/auth"
	"github.com/learnhub/api/pkg/response"
)

// Authenticate validates the bearer token and stores the caller identity in
// context locals
func Authenticate(authn *auth.Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := auth.BearerToken(c.Get("Authorization"))
		if err != nil {
			return response.Unauthorized(c, "Missing or malformed authorization header")
		}

		id, err := authn.Authenticate(token)
		if err != nil {
			if errors.Is(err, auth.ErrNotConfigured) {
				return response.Unauthorized(c, "Authentication not configured")
			}
			return response.Unauthorized(c, "Invalid or expired token")
		}

		setIdentity(c, id.UserID, id.Email, id.Name)
		return c.Next()
	}
}

func setIdentity(c *fiber.Ctx, userID, email, name string) {
	c.Locals("userId", userID)
	c.Locals("email", email)
	c.Locals("name", name)
}

// GetUserID extracts user ID from context
func GetUserID(c *fiber.Ctx) string {
	if userID, ok := c.Locals("userId").(string); ok {
		return userID
	}
	return ""
}

// GetUserEmail extracts user email from context
func GetUserEmail(c *fiber.Ctx) string {
	if email, ok := c.Locals("email").(string); ok {
		return email
	}
	return ""
}

// Requester names the caller for audit fields, preferring the email
func Requester(c *fiber.Ctx) string {
	if email := GetUserEmail(c); email != "" {
		return email
	}
	return GetUserID(c)
}
