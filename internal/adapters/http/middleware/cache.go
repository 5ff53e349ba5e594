package middleware

import (
	"github.com/gofiber/fiber/v2"
)

// MasterDataCache returns cache middleware for master data (1 hour cache).
// Wards and complaint types change rarely; clients can cache them.
func MasterDataCache() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		// Set cache headers only for successful GET requests
		if c.Method() == "GET" && c.Response().StatusCode() == 200 {
			c.Set("Cache-Control", "public, max-age=3600")
		}

		return err
	}
}

// NoCacheHeaders sets no-cache headers. Captcha challenges and OTP
// session responses must never be served from a cache.
func NoCacheHeaders() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set("Cache-Control", "no-store, no-cache, must-revalidate")
		c.Set("Pragma", "no-cache")
		c.Set("Expires", "0")
		return c.Next()
	}
}
