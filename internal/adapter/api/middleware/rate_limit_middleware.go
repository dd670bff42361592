package middleware

import (
	"log"

	"github.com/labstack/echo/v4"

	"campusaid/internal/infrastructure/ratelimit"
	"campusaid/pkg/errors"
	"campusaid/pkg/response"
)

// RateLimit throttles requests per authenticated user, falling back to the client IP for
// anonymous routes.
func RateLimit(limiter *ratelimit.RateLimiter, action string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key, _ := c.Get("uid").(string)
			if key == "" {
				key = "ip:" + c.RealIP()
			}

			allowed, wait := limiter.Allow(key, action)
			if !allowed {
				log.Printf("RATE LIMIT: Blocked %s on %s (retry in %v)", key, c.Path(), wait)
				return response.Error(c, errors.TooManyRequests("Rate limit exceeded", wait))
			}

			return next(c)
		}
	}
}
