package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/policy"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// RequireInternal ensures a staff principal is authenticated.
func RequireInternal() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if _, err := policy.RequireInternal(principal); err != nil {
			return err
		}
		return c.Next()
	}
}

// RequireClient ensures a client portal principal is authenticated.
func RequireClient() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if _, err := policy.RequireClient(principal); err != nil {
			return err
		}
		return c.Next()
	}
}

// RequireManager ensures the staff principal holds the manager role.
func RequireManager() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if err := policy.RequireManager(principal); err != nil {
			return err
		}
		return c.Next()
	}
}
