package catalog_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"cashpoint/internal/domain/catalogs/product"
	"cashpoint/internal/infrastructure/storage/postgres"
)

const productsTable = "cat_products"

// ProductRepo implements product.Repository.
type ProductRepo struct {
	*BaseCatalogRepo[*product.Product]
}

// NewProductRepo creates a new product repository.
func NewProductRepo(txManager *postgres.TxManager) *ProductRepo {
	return &ProductRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			txManager,
			productsTable,
			postgres.ExtractDBColumns[product.Product](),
			func() *product.Product { return &product.Product{} },
		),
	}
}

// List retrieves products, optionally only active (sellable) ones.
func (r *ProductRepo) List(ctx context.Context, activeOnly bool) ([]product.Product, error) {
	var conds []squirrel.Sqlizer
	if activeOnly {
		conds = append(conds, squirrel.Eq{"active": true})
	}

	products, err := r.BaseCatalogRepo.List(ctx, conds...)
	if err != nil {
		return nil, err
	}

	result := make([]product.Product, 0, len(products))
	for _, p := range products {
		result = append(result, *p)
	}
	return result, nil
}
