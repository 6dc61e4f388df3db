package domain

import "time"

// Product is a catalog entry shown on the storefront.
type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	ImagePath   *string   `json:"image,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
