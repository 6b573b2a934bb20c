package item

import (
	"context"

	"cashpoint/internal/core/id"
)

// Repository defines storage operations for items.
type Repository interface {
	Create(ctx context.Context, i *Item) error

	GetByID(ctx context.Context, itemID id.ID) (*Item, error)

	GetByCode(ctx context.Context, code string) (*Item, error)

	// GetByIDs resolves a batch of item references in one query.
	// Every requested ID must exist; a missing one is a not-found error.
	GetByIDs(ctx context.Context, itemIDs []id.ID) (map[id.ID]*Item, error)

	Update(ctx context.Context, i *Item) error

	List(ctx context.Context) ([]Item, error)
}
