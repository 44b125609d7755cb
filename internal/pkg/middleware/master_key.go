package middleware

import (
	"crypto/subtle"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/dollarchain/creditrail/internal/pkg/env"
)

// MasterKeyMiddleware guards the admin routes with the shared
// X-App-Master-Key header. A missing APP_MASTER_KEY is a deployment
// error and never falls open.
func MasterKeyMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		configured := env.GetEnv("APP_MASTER_KEY", "")
		if configured == "" {
			log.Print("master key middleware: APP_MASTER_KEY is not configured")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "server_misconfigured", "message": "Admin access is not configured"})
		}

		provided := strings.TrimSpace(c.Get("X-App-Master-Key"))
		if provided == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(configured)) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Invalid master key"})
		}

		return c.Next()
	}
}
