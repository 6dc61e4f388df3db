package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/shopfront-dev/storefront/internal/api/dto"
	"github.com/shopfront-dev/storefront/internal/auth"
	"github.com/shopfront-dev/storefront/internal/service"
	apperrors "github.com/shopfront-dev/storefront/pkg/util/errorutil"
)

// SettingsHandler updates contact settings. Super-admin only.
type SettingsHandler struct {
	settings *service.SettingService
}

// NewSettingsHandler constructs handler.
func NewSettingsHandler(settings *service.SettingService) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

// SetContactMethod handles POST /admin/contact-method.
func (h *SettingsHandler) SetContactMethod(c *fiber.Ctx) error {
	var req dto.ContactMethodRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	method, err := h.settings.SetContactMethod(c.UserContext(), req.ContactMethod)
	if err != nil {
		return err
	}
	return done(c, auth.LandingPath, fiber.StatusOK, fiber.Map{"contactMethod": method})
}

// SetContactPhone handles POST /admin/contact-phone.
func (h *SettingsHandler) SetContactPhone(c *fiber.Ctx) error {
	var req dto.ContactPhoneRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	phone, err := h.settings.SetContactPhone(c.UserContext(), req.ContactPhone)
	if err != nil {
		return err
	}
	return done(c, auth.LandingPath, fiber.StatusOK, fiber.Map{"contactPhone": phone})
}
