package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// CORS returns a Fiber handler that allows origins ending with allowedSuffix.
// Requests without an Origin header (same-origin, curl, the scraper pipeline)
// pass through untouched.
func CORS(allowedSuffix string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		origin := c.Get("Origin")
		if origin == "" {
			return c.Next()
		}
		if allowedSuffix == "" || strings.HasSuffix(strings.ToLower(origin), strings.ToLower(allowedSuffix)) {
			c.Set("Access-Control-Allow-Origin", origin)
			c.Set("Access-Control-Allow-Headers", "Content-Type")
			if c.Method() == fiber.MethodOptions {
				return c.SendStatus(fiber.StatusNoContent)
			}
			return c.Next()
		}
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"status": "error",
			"error": fiber.Map{
				"message":    "Not allowed by CORS",
				"statusCode": 403,
			},
		})
	}
}
