package catalog_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"cashpoint/internal/core/apperror"
	"cashpoint/internal/core/id"
	"cashpoint/internal/domain/catalogs/item"
	"cashpoint/internal/infrastructure/storage/postgres"
)

const itemsTable = "cat_items"

// ItemRepo implements item.Repository.
type ItemRepo struct {
	*BaseCatalogRepo[*item.Item]
}

// NewItemRepo creates a new item repository.
func NewItemRepo(txManager *postgres.TxManager) *ItemRepo {
	return &ItemRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			txManager,
			itemsTable,
			postgres.ExtractDBColumns[item.Item](),
			func() *item.Item { return &item.Item{} },
		),
	}
}

// GetByIDs resolves a batch of items; every requested ID must exist.
func (r *ItemRepo) GetByIDs(ctx context.Context, itemIDs []id.ID) (map[id.ID]*item.Item, error) {
	if len(itemIDs) == 0 {
		return map[id.ID]*item.Item{}, nil
	}

	items, err := r.BaseCatalogRepo.List(ctx, squirrel.Eq{"id": itemIDs})
	if err != nil {
		return nil, err
	}

	result := make(map[id.ID]*item.Item, len(items))
	for _, i := range items {
		result[i.ID] = i
	}

	for _, itemID := range itemIDs {
		if _, ok := result[itemID]; !ok {
			return nil, apperror.NewNotFound(itemsTable, itemID.String())
		}
	}
	return result, nil
}

// List retrieves all items.
func (r *ItemRepo) List(ctx context.Context) ([]item.Item, error) {
	items, err := r.BaseCatalogRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]item.Item, 0, len(items))
	for _, i := range items {
		result = append(result, *i)
	}
	return result, nil
}
