package auth

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
)

const LocalUserID = "userID"

// JWTAuth guards owner-scoped routes. The verified subject is stored in
// the request locals for handlers to read.
func JWTAuth(verifier *Verifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authz := c.Get("Authorization")
		if authz == "" {
			return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "missing authorization"})
		}
		parts := strings.SplitN(authz, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "invalid authorization"})
		}
		userID, err := verifier.UserID(parts[1])
		if err != nil {
			return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "invalid token"})
		}
		c.Locals(LocalUserID, userID)
		return c.Next()
	}
}

// APIKeyAuth guards the messaging routes. The records behind them are
// scoped by one shared application key: any holder may read and write
// any conversation, participant, or message.
func APIKeyAuth(key string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if key == "" {
			return c.Next()
		}
		if c.Get("X-Api-Key") != key {
			return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "invalid api key"})
		}
		return c.Next()
	}
}
