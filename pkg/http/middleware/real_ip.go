package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// RealIPMiddleware 获取真实 IP 中间件
func RealIPMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if ip := realIPFromHeaders(c); ip != "" {
			c.Locals("ip", ip)
		}
		return c.Next()
	}
}

func realIPFromHeaders(c *fiber.Ctx) string {
	// XFF: client, proxy1, proxy2
	if xff := c.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	return strings.TrimSpace(c.Get("X-Real-IP"))
}
