package dto

import (
	"cashpoint/internal/core/apperror"
	"cashpoint/internal/core/id"
	"cashpoint/internal/core/types"
	"cashpoint/internal/domain/session"
)

// MovementRequest is one (item, amount) pair in open/resupply requests.
type MovementRequest struct {
	ItemID string `json:"itemId" binding:"required"`
	Amount int    `json:"amount" binding:"required"`
}

// CountedItemRequest is one (item, counted amount) pair in end requests.
type CountedItemRequest struct {
	ItemID string `json:"itemId" binding:"required"`
	Amount int    `json:"amount"`
}

// OpenSessionRequest for POST /sessions.
type OpenSessionRequest struct {
	CashdeskID       string            `json:"cashdeskId" binding:"required"`
	OperatorID       string            `json:"operatorId" binding:"required"`
	CashBefore       types.Money       `json:"cashBefore"`
	InitialMovements []MovementRequest `json:"initialMovements"`
}

// ToOpenInput converts to the domain input.
func (r OpenSessionRequest) ToOpenInput() (session.OpenInput, error) {
	cashdeskID, err := id.Parse(r.CashdeskID)
	if err != nil {
		return session.OpenInput{}, apperror.NewValidation("invalid cashdesk id")
	}
	operatorID, err := id.Parse(r.OperatorID)
	if err != nil {
		return session.OpenInput{}, apperror.NewValidation("invalid operator id")
	}

	movements, err := toInitialMovements(r.InitialMovements)
	if err != nil {
		return session.OpenInput{}, err
	}

	return session.OpenInput{
		CashdeskID:       cashdeskID,
		OperatorID:       operatorID,
		CashBefore:       r.CashBefore,
		InitialMovements: movements,
	}, nil
}

// ResupplyRequest for POST /sessions/:id/resupply.
type ResupplyRequest struct {
	Movements []MovementRequest `json:"movements" binding:"required"`
}

// ToInitialMovements converts to the domain movements.
func (r ResupplyRequest) ToInitialMovements() ([]session.InitialMovement, error) {
	return toInitialMovements(r.Movements)
}

// EndSessionRequest for POST /sessions/:id/end.
type EndSessionRequest struct {
	CashAfter    types.Money          `json:"cashAfter"`
	CountedItems []CountedItemRequest `json:"countedItems"`
}

// ToEndInput converts to the domain input.
func (r EndSessionRequest) ToEndInput(sessionID id.ID) (session.EndInput, error) {
	counted := make([]session.CountedItem, 0, len(r.CountedItems))
	for _, c := range r.CountedItems {
		itemID, err := id.Parse(c.ItemID)
		if err != nil {
			return session.EndInput{}, apperror.NewValidation("invalid item id").
				WithDetail("itemId", c.ItemID)
		}
		counted = append(counted, session.CountedItem{ItemID: itemID, Amount: c.Amount})
	}

	return session.EndInput{
		SessionID: sessionID,
		CashAfter: r.CashAfter,
		Counted:   counted,
	}, nil
}

// MoveSessionRequest for POST /sessions/:id/move.
type MoveSessionRequest struct {
	CashdeskID string `json:"cashdeskId" binding:"required"`
}

func toInitialMovements(reqs []MovementRequest) ([]session.InitialMovement, error) {
	movements := make([]session.InitialMovement, 0, len(reqs))
	for _, m := range reqs {
		itemID, err := id.Parse(m.ItemID)
		if err != nil {
			return nil, apperror.NewValidation("invalid item id").
				WithDetail("itemId", m.ItemID)
		}
		movements = append(movements, session.InitialMovement{ItemID: itemID, Amount: m.Amount})
	}
	return movements, nil
}

// StockEntry is one line of a stock mapping response.
type StockEntry struct {
	ItemID string `json:"itemId"`
	Amount int    `json:"amount"`
}
