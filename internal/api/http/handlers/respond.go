package handlers

import (
	"errors"
	"net/url"

	"github.com/gofiber/fiber/v2"

	"github.com/shopfront-dev/storefront/internal/auth"
	apperrors "github.com/shopfront-dev/storefront/pkg/util/errorutil"
)

// done finishes a form post: browsers follow a 303 to location, JSON clients
// get the result inline.
func done(c *fiber.Ctx, location string, status int, data any) error {
	if auth.WantsJSON(c) {
		return c.Status(status).JSON(fiber.Map{"data": data})
	}
	return c.Redirect(location, fiber.StatusSeeOther)
}

// fail sends a browser back to location with the domain error message in the
// error query parameter. JSON clients and server failures get the error
// envelope.
func fail(c *fiber.Ctx, location string, err error) error {
	var domainErr *apperrors.DomainError
	if auth.WantsJSON(c) || !errors.As(err, &domainErr) || domainErr.HTTPStatus >= fiber.StatusInternalServerError {
		return err
	}
	return c.Redirect(location+"?error="+url.QueryEscape(domainErr.Message), fiber.StatusSeeOther)
}

func render(c *fiber.Ctx, data any) error {
	return c.JSON(fiber.Map{"data": data})
}
