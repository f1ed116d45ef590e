package genservice

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
)

// apiKeyMiddleware rejects requests without the shared secret.
func apiKeyMiddleware(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := c.Get("X-API-Key")
		if key == "" || key != secret {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"detail": "Invalid or missing API key",
			})
		}
		return c.Next()
	}
}

// accessLogMiddleware logs every request except health probes.
func accessLogMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		if c.Path() != "/health" {
			log.Printf("%s - \"%s %s\" %d %.4fs", c.IP(), c.Method(), c.Path(), c.Response().StatusCode(), time.Since(start).Seconds())
		}
		return err
	}
}
