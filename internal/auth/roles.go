package auth

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/shopfront-dev/storefront/pkg/util/errorutil"
)

// Redirect targets for denied browser requests.
const (
	LoginPath   = "/admin/login"
	LandingPath = "/admin"
)

// RequireAuthenticated admits any authenticated session. Anonymous callers
// are sent to the login page.
func RequireAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := PrincipalFromContext(c); !ok {
			return denyAnonymous(c)
		}
		return c.Next()
	}
}

// RequireSuperAdmin admits only authenticated sessions carrying the
// super-admin claim. Authenticated admins without it go back to the landing
// page rather than the login page.
func RequireSuperAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return denyAnonymous(c)
		}
		if !principal.IsSuperAdmin {
			if WantsJSON(c) {
				return apperrors.NewForbidden("super admin required")
			}
			return c.Redirect(LandingPath, fiber.StatusSeeOther)
		}
		return c.Next()
	}
}

func denyAnonymous(c *fiber.Ctx) error {
	if WantsJSON(c) {
		return apperrors.NewUnauthorized("authentication required")
	}
	return c.Redirect(LoginPath, fiber.StatusSeeOther)
}

// WantsJSON reports whether the client prefers JSON over an HTML page.
func WantsJSON(c *fiber.Ctx) bool {
	return c.Accepts(fiber.MIMETextHTML, fiber.MIMEApplicationJSON) == fiber.MIMEApplicationJSON
}
