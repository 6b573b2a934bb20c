// Package item provides the stocked item catalog.
package item

import (
	"context"

	"cashpoint/internal/core/entity"
)

// Item is a physical good tracked per session by the movement ledger
// (tokens, wristbands, vouchers). Items carry no price; selling happens
// through products, which may hand out items.
type Item struct {
	entity.Catalog

	Description string `db:"description" json:"description,omitempty"`
}

// New creates an item.
func New(code, name string) *Item {
	return &Item{Catalog: entity.NewCatalog(code, name)}
}

// Validate implements entity validation.
func (i *Item) Validate(ctx context.Context) error {
	return i.Catalog.Validate(ctx)
}
