package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/shopfront-dev/storefront/internal/api/dto"
	"github.com/shopfront-dev/storefront/internal/auth"
	"github.com/shopfront-dev/storefront/internal/service"
	apperrors "github.com/shopfront-dev/storefront/pkg/util/errorutil"
)

// ProductsHandler manages catalog entries for authenticated admins.
type ProductsHandler struct {
	products *service.ProductService
}

// NewProductsHandler constructs handler.
func NewProductsHandler(products *service.ProductService) *ProductsHandler {
	return &ProductsHandler{products: products}
}

// Create handles POST /admin/products.
func (h *ProductsHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateProductRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	// the image is optional; a missing part is not an error
	image, _ := c.FormFile("image")

	product, err := h.products.Create(c.UserContext(), req.Name, req.Description, image)
	if err != nil {
		return err
	}
	return done(c, auth.LandingPath, fiber.StatusCreated, product)
}

// Delete handles POST /admin/products/:id/delete.
func (h *ProductsHandler) Delete(c *fiber.Ctx) error {
	if err := h.products.Delete(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return done(c, auth.LandingPath, fiber.StatusOK, fiber.Map{"deleted": c.Params("id")})
}
