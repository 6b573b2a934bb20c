// Package transaction provides sale transactions and the reversal engine.
package transaction

import (
	"time"

	"cashpoint/internal/core/id"
	"cashpoint/internal/core/types"
)

// PositionType tags the transactional sense of a position.
type PositionType string

const (
	// TypeSale is a regular sold line
	TypeSale PositionType = "sale"
	// TypeReversal cancels exactly one sale position
	TypeReversal PositionType = "reversal"
)

// Transaction is one receipt: a sale event or a bulk reversal.
type Transaction struct {
	ID id.ID `db:"id" json:"id"`

	SessionID id.ID `db:"session_id" json:"sessionId"`

	// ReceiptNumber is the sequential printed number (e.g. RCP-2026-00042)
	ReceiptNumber string `db:"receipt_number" json:"receiptNumber"`

	// ActorID is the user who rang the receipt up, or who reversed
	ActorID id.ID `db:"actor_id" json:"actorId"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// NewTransaction creates a transaction for a session.
func NewTransaction(sessionID id.ID, receiptNumber string, actorID id.ID) *Transaction {
	return &Transaction{
		ID:            id.New(),
		SessionID:     sessionID,
		ReceiptNumber: receiptNumber,
		ActorID:       actorID,
		CreatedAt:     time.Now().UTC(),
	}
}

// Position is one line of a transaction. Positions are append-only;
// cancelling one means appending a reversal position pointing back at it.
type Position struct {
	ID id.ID `db:"id" json:"id"`

	TransactionID id.ID `db:"transaction_id" json:"transactionId"`

	// SessionID is denormalized from the transaction so session-wide
	// reversal and cash totals need no join.
	SessionID id.ID `db:"session_id" json:"sessionId"`

	Type PositionType `db:"type" json:"type"`

	ProductID id.ID `db:"product_id" json:"productId"`

	// Price is the product price captured at sale time. A reversal
	// carries the same price as the position it cancels; the opposite
	// sense comes from the type tag.
	Price types.Money `db:"price" json:"price"`

	// Reverses points at the position this one cancels. Null on sales.
	// A position may be referenced by at most one reversal.
	Reverses *id.ID `db:"reverses" json:"reverses,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// NewSalePosition creates a sale line.
func NewSalePosition(transactionID, sessionID, productID id.ID, price types.Money) Position {
	return Position{
		ID:            id.New(),
		TransactionID: transactionID,
		SessionID:     sessionID,
		Type:          TypeSale,
		ProductID:     productID,
		Price:         price,
		CreatedAt:     time.Now().UTC(),
	}
}

// NewReversalPosition creates the position cancelling original.
// Same product and price, opposite sense, back-reference set.
func NewReversalPosition(transactionID id.ID, original Position) Position {
	reverses := original.ID
	return Position{
		ID:            id.New(),
		TransactionID: transactionID,
		SessionID:     original.SessionID,
		Type:          TypeReversal,
		ProductID:     original.ProductID,
		Price:         original.Price,
		Reverses:      &reverses,
		CreatedAt:     time.Now().UTC(),
	}
}

// SignedAmount is the cash effect of the position: positive for sales,
// negative for reversals.
func (p Position) SignedAmount() types.Money {
	if p.Type == TypeReversal {
		return p.Price.Neg()
	}
	return p.Price
}

// Receipt is a transaction with its positions, as returned to callers.
type Receipt struct {
	Transaction Transaction `json:"transaction"`
	Positions   []Position  `json:"positions"`
	Total       types.Money `json:"total"`
}
