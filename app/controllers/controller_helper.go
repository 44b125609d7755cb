package controllers

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/dollarchain/creditrail/internal/pkg/env"
)

func jsonError(c *fiber.Ctx, status int, code string) error {
	return c.Status(status).JSON(fiber.Map{"error": code})
}

// publicDomain returns the externally reachable base URL without a
// trailing slash.
func publicDomain() string {
	return strings.TrimRight(env.GetEnv("PUBLIC_DOMAIN", ""), "/")
}

// syntheticEmail builds a placeholder address for mobile-money charges
// where the caller supplied none. The provider requires an email on
// every charge.
func syntheticEmail(clientID string) string {
	domain := publicDomain()
	domain = strings.TrimPrefix(domain, "https://")
	domain = strings.TrimPrefix(domain, "http://")
	if domain == "" {
		domain = "example.com"
	}
	return fmt.Sprintf("no-email-%s@%s", clientID, domain)
}

func firstHeaderValue(c *fiber.Ctx, keys ...string) string {
	for _, k := range keys {
		v := strings.TrimSpace(c.Get(k))
		if v != "" {
			return v
		}
	}
	return ""
}
