package dto

import (
	"cashpoint/internal/core/apperror"
	"cashpoint/internal/core/id"
	"cashpoint/internal/domain/transaction"
)

// SaleLineRequest is one requested line of a sale.
type SaleLineRequest struct {
	ProductID string `json:"productId" binding:"required"`
}

// SaleRequest for POST /sessions/:id/sales.
type SaleRequest struct {
	Lines []SaleLineRequest `json:"lines" binding:"required"`
}

// ToSaleLines converts to the domain sale lines.
func (r SaleRequest) ToSaleLines() ([]transaction.SaleLine, error) {
	lines := make([]transaction.SaleLine, 0, len(r.Lines))
	for _, l := range r.Lines {
		productID, err := id.Parse(l.ProductID)
		if err != nil {
			return nil, apperror.NewValidation("invalid product id").
				WithDetail("productId", l.ProductID)
		}
		lines = append(lines, transaction.SaleLine{ProductID: productID})
	}
	return lines, nil
}
