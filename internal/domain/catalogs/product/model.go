// Package product provides the sellable product catalog.
//
// Products are reference data: they are seeded, listed and resolved, but
// not managed through the API. Sales record a position per product with
// the price captured at sale time.
package product

import (
	"context"

	"cashpoint/internal/core/apperror"
	"cashpoint/internal/core/entity"
	"cashpoint/internal/core/types"
)

// Product is a sellable position with a list price.
type Product struct {
	entity.Catalog

	Price types.Money `db:"price" json:"price"`

	Active bool `db:"active" json:"active"`
}

// New creates an active product.
func New(code, name string, price types.Money) *Product {
	return &Product{
		Catalog: entity.NewCatalog(code, name),
		Price:   price,
		Active:  true,
	}
}

// Validate implements entity validation.
func (p *Product) Validate(ctx context.Context) error {
	if err := p.Catalog.Validate(ctx); err != nil {
		return err
	}
	if p.Price.IsNegative() {
		return apperror.NewValidation("price must not be negative").
			WithDetail("field", "price")
	}
	return nil
}
