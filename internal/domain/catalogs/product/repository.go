package product

import (
	"context"

	"cashpoint/internal/core/id"
)

// Repository defines storage operations for products.
type Repository interface {
	Create(ctx context.Context, p *Product) error

	GetByID(ctx context.Context, productID id.ID) (*Product, error)

	GetByCode(ctx context.Context, code string) (*Product, error)

	List(ctx context.Context, activeOnly bool) ([]Product, error)
}
