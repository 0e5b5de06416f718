package middleware

import (
	"crypto/subtle"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// InternalAuth guards operator-triggered internal endpoints with a shared
// bearer secret. The secret is captured at construction time; an empty secret
// fails closed so a misconfigured deployment cannot expose the endpoint.
func InternalAuth(secret string) fiber.Handler {
	configured := strings.TrimSpace(secret)

	return func(c *fiber.Ctx) error {
		if configured == "" {
			log.Print("internal auth: no shared secret configured, rejecting request")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Internal endpoint is not configured"})
		}

		token := extractBearerToken(c)
		if token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(configured)) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing or invalid bearer token"})
		}

		return c.Next()
	}
}

func extractBearerToken(c *fiber.Ctx) string {
	auth := strings.TrimSpace(c.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}
