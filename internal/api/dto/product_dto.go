package dto

import "github.com/shopfront-dev/storefront/internal/domain"

// CreateProductRequest carries the text fields of a product upload.
type CreateProductRequest struct {
	Name        string `json:"name" form:"name"`
	Description string `json:"description" form:"description"`
}

// StorefrontView is the public page model.
type StorefrontView struct {
	Products []domain.Product       `json:"products"`
	Contact  domain.ContactSettings `json:"contact"`
}

// DashboardView is the admin landing page model.
type DashboardView struct {
	Username     string                 `json:"username"`
	IsSuperAdmin bool                   `json:"is_super_admin"`
	Products     []domain.Product       `json:"products"`
	Contact      domain.ContactSettings `json:"contact"`
}
