package catalog_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"cashpoint/internal/domain/catalogs/cashdesk"
	"cashpoint/internal/infrastructure/storage/postgres"
)

const cashdesksTable = "cat_cashdesks"

// CashdeskRepo implements cashdesk.Repository.
type CashdeskRepo struct {
	*BaseCatalogRepo[*cashdesk.Cashdesk]
}

// NewCashdeskRepo creates a new cashdesk repository.
func NewCashdeskRepo(txManager *postgres.TxManager) *CashdeskRepo {
	return &CashdeskRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			txManager,
			cashdesksTable,
			postgres.ExtractDBColumns[cashdesk.Cashdesk](),
			func() *cashdesk.Cashdesk { return &cashdesk.Cashdesk{} },
		),
	}
}

// List retrieves cashdesks, optionally only active ones.
func (r *CashdeskRepo) List(ctx context.Context, activeOnly bool) ([]cashdesk.Cashdesk, error) {
	var conds []squirrel.Sqlizer
	if activeOnly {
		conds = append(conds, squirrel.Eq{"active": true})
	}

	desks, err := r.BaseCatalogRepo.List(ctx, conds...)
	if err != nil {
		return nil, err
	}

	result := make([]cashdesk.Cashdesk, 0, len(desks))
	for _, d := range desks {
		result = append(result, *d)
	}
	return result, nil
}
