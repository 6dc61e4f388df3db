package service

import (
	"context"
	"mime/multipart"
	"strings"

	"go.uber.org/zap"

	"github.com/shopfront-dev/storefront/internal/domain"
	"github.com/shopfront-dev/storefront/internal/events"
	"github.com/shopfront-dev/storefront/internal/repository"
	apperrors "github.com/shopfront-dev/storefront/pkg/util/errorutil"
)

// ImageStore persists uploaded product images.
type ImageStore interface {
	Save(file *multipart.FileHeader) (string, error)
	Remove(publicPath string) error
}

// ProductService manages the catalog.
type ProductService struct {
	products   repository.ProductRepository
	images     ImageStore
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewProductService builds the service.
func NewProductService(products repository.ProductRepository, images ImageStore, dispatcher events.Dispatcher, logger *zap.Logger) *ProductService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductService{
		products:   products,
		images:     images,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// List returns every product in creation order.
func (s *ProductService) List(ctx context.Context) ([]domain.Product, error) {
	products, err := s.products.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return products, nil
}

// Create adds a product. image is optional; when the insert fails the stored
// file is removed again.
func (s *ProductService) Create(ctx context.Context, name, description string, image *multipart.FileHeader) (*domain.Product, error) {
	name = strings.TrimSpace(name)
	description = strings.TrimSpace(description)
	details := map[string]any{}
	if name == "" {
		details["name"] = "required"
	}
	if description == "" {
		details["description"] = "required"
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("invalid product data", details)
	}

	product := &domain.Product{Name: name, Description: description}
	if image != nil && s.images != nil {
		path, err := s.images.Save(image)
		if err != nil {
			return nil, err
		}
		product.ImagePath = &path
	}

	if err := s.products.Create(ctx, product); err != nil {
		if product.ImagePath != nil {
			if rmErr := s.images.Remove(*product.ImagePath); rmErr != nil {
				s.logger.Warn("orphaned product image", zap.String("path", *product.ImagePath), zap.Error(rmErr))
			}
		}
		return nil, apperrors.MapError(err)
	}

	publishEvent(ctx, s.dispatcher, events.Event{
		Type:    events.EventProductCreated,
		Subject: product.ID,
		Payload: events.ProductCreatedPayload{Name: product.Name, ImagePath: product.ImagePath},
	})
	return product, nil
}

// Delete removes a product. Its image is cleaned up by the product_deleted
// subscriber.
func (s *ProductService) Delete(ctx context.Context, id string) error {
	product, err := s.products.Delete(ctx, id)
	if err != nil {
		return apperrors.MapError(err)
	}
	publishEvent(ctx, s.dispatcher, events.Event{
		Type:    events.EventProductDeleted,
		Subject: product.ID,
		Payload: events.ProductDeletedPayload{Name: product.Name, ImagePath: product.ImagePath},
	})
	return nil
}
