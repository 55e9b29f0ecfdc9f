package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/account-service/pkg/util/errorutil"
)

// EntryPoint answers a protected request that carries no identity. The error
// is rendered by the error-handling middleware like any other.
func EntryPoint(_ *fiber.Ctx) error {
	return errorutil.NewUnauthorized("full authentication is required to access this resource")
}

// AccessDenied answers an authenticated request lacking the required authority.
func AccessDenied(_ *fiber.Ctx) error {
	return errorutil.NewForbidden("access is denied")
}

// RequireAuthenticated ensures an identity is present.
func RequireAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := IdentityFromContext(c); !ok {
			return EntryPoint(c)
		}
		return c.Next()
	}
}

// RequireAuthority ensures the identity carries one of the allowed authorities.
func RequireAuthority(allowed ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, ok := IdentityFromContext(c)
		if !ok {
			return EntryPoint(c)
		}
		if len(allowed) > 0 && !identity.HasAnyAuthority(allowed...) {
			return AccessDenied(c)
		}
		return c.Next()
	}
}
