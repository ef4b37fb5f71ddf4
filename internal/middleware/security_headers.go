package middleware

import (
	"context"
	"strconv"
	"strings"

	"market/pkg/httperror"

	"github.com/gofiber/fiber/v2"
)

// NewSecurityHeadersMiddleware trusts the gateway-injected identity headers
// and puts the seller id into the request context. Actual authentication
// happens upstream.
func NewSecurityHeadersMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := strings.TrimSpace(c.Get("User-ID"))
		authorization := strings.TrimSpace(c.Get("Authorization"))

		if userID == "" || authorization == "" {
			return unauthorized(c)
		}

		id, err := strconv.ParseInt(userID, 10, 64)
		if err != nil || id < 1 {
			return unauthorized(c)
		}

		userCtx := c.UserContext()
		if userCtx == nil {
			userCtx = context.Background()
		}

		userCtx = context.WithValue(userCtx, "UserID", id)
		userCtx = context.WithValue(userCtx, "Jwt", authorization)

		c.SetUserContext(userCtx)
		return c.Next()
	}
}

// NewAdminHeadersMiddleware guards the block surface. Admin privilege itself
// is validated by the gateway; only the header presence is checked here.
func NewAdminHeadersMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		adminID := strings.TrimSpace(c.Get("Admin-ID"))
		authorization := strings.TrimSpace(c.Get("Authorization"))

		if adminID == "" || authorization == "" {
			return unauthorized(c)
		}

		id, err := strconv.ParseInt(adminID, 10, 64)
		if err != nil || id < 1 {
			return unauthorized(c)
		}

		userCtx := c.UserContext()
		if userCtx == nil {
			userCtx = context.Background()
		}

		userCtx = context.WithValue(userCtx, "AdminID", id)
		userCtx = context.WithValue(userCtx, "Jwt", authorization)

		c.SetUserContext(userCtx)
		return c.Next()
	}
}

func unauthorized(c *fiber.Ctx) error {
	err := httperror.Unauthorized(
		"market.security_headers.unauthorized",
		"Security headers mismatch",
		nil,
	)

	return c.Status(err.Status).JSON(fiber.Map{
		"code":    err.Code,
		"message": err.Message,
	})
}
