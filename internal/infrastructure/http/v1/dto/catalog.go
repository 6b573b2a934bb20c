package dto

import (
	"cashpoint/internal/domain/catalogs/cashdesk"
	"cashpoint/internal/domain/catalogs/item"
)

// CreateCashdeskRequest for POST /cashdesks.
type CreateCashdeskRequest struct {
	Code         string `json:"code" binding:"required"`
	Name         string `json:"name" binding:"required"`
	IPAddress    string `json:"ipAddress"`
	PrinterQueue string `json:"printerQueue"`
}

// ToCashdesk converts to the domain entity.
func (r CreateCashdeskRequest) ToCashdesk() *cashdesk.Cashdesk {
	c := cashdesk.New(r.Code, r.Name)
	c.IPAddress = r.IPAddress
	c.PrinterQueue = r.PrinterQueue
	return c
}

// SetActiveRequest toggles the active flag of a catalog entry or user.
type SetActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// CreateItemRequest for POST /items.
type CreateItemRequest struct {
	Code        string `json:"code" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// ToItem converts to the domain entity.
func (r CreateItemRequest) ToItem() *item.Item {
	i := item.New(r.Code, r.Name)
	i.Description = r.Description
	return i
}
