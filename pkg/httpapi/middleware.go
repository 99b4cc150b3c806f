package httpapi

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

func (s *Server) authenticate(c *fiber.Ctx) error {
	if s.cfg.APIKey == "" {
		return c.Next()
	}
	got := c.Get("x-api-key")
	if got == "" {
		got = c.Query("api_key")
	}
	if subtle.ConstantTimeCompare([]byte(got), []byte(s.cfg.APIKey)) != 1 {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}
	return c.Next()
}

func (s *Server) rateLimiter() fiber.Handler {
	if s.cfg.RateLimit < 0 {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	return limiter.New(limiter.Config{
		Max:               s.cfg.RateLimit,
		Expiration:        s.cfg.RateWindow,
		KeyGenerator:      rateKey,
		LimiterMiddleware: limiter.SlidingWindow{},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate_limited"})
		},
	})
}

// rateKey buckets requests by scope, method and client, for example
// "entity:tasks:GET:203.0.113.7". The client is fiber's c.IP(): the
// X-Forwarded-For hop when the peer is a trusted proxy, the peer otherwise.
func rateKey(c *fiber.Ctx) string {
	rest := strings.TrimPrefix(c.Path(), Prefix+"/")
	scope, _, _ := strings.Cut(rest, "/")
	switch scope {
	case "studies", "mapping", "discover", "_state":
	default:
		scope = "entity:" + scope
	}
	return scope + ":" + c.Method() + ":" + c.IP()
}
