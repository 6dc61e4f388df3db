package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/shopfront-dev/storefront/internal/api/dto"
	"github.com/shopfront-dev/storefront/internal/auth"
	"github.com/shopfront-dev/storefront/internal/service"
)

// StorefrontHandler serves the public catalog and the admin landing page.
type StorefrontHandler struct {
	products *service.ProductService
	settings *service.SettingService
}

// NewStorefrontHandler constructs handler.
func NewStorefrontHandler(products *service.ProductService, settings *service.SettingService) *StorefrontHandler {
	return &StorefrontHandler{products: products, settings: settings}
}

// Home handles GET /.
func (h *StorefrontHandler) Home(c *fiber.Ctx) error {
	products, err := h.products.List(c.UserContext())
	if err != nil {
		return err
	}
	contact, err := h.settings.ContactSettings(c.UserContext())
	if err != nil {
		return err
	}
	return render(c, dto.StorefrontView{Products: products, Contact: *contact})
}

// Dashboard handles GET /admin.
func (h *StorefrontHandler) Dashboard(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	products, err := h.products.List(c.UserContext())
	if err != nil {
		return err
	}
	contact, err := h.settings.ContactSettings(c.UserContext())
	if err != nil {
		return err
	}
	return render(c, dto.DashboardView{
		Username:     principal.Username,
		IsSuperAdmin: principal.IsSuperAdmin,
		Products:     products,
		Contact:      *contact,
	})
}
