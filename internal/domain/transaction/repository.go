package transaction

import (
	"context"

	"cashpoint/internal/core/id"
	"cashpoint/internal/core/types"
)

// Repository defines storage operations for transactions and positions.
// Both tables are append-only; no update or delete exists.
type Repository interface {
	// Create inserts a transaction with its positions in one batch
	Create(ctx context.Context, t *Transaction, positions []Position) error

	GetByID(ctx context.Context, transactionID id.ID) (*Transaction, error)

	ListBySession(ctx context.Context, sessionID id.ID) ([]Transaction, error)

	ListPositionsByTransaction(ctx context.Context, transactionID id.ID) ([]Position, error)

	// ListPositionsBySession returns every position of a session in
	// ledger order. The reversal engine reads this under the session
	// row lock so the set cannot grow mid-reversal.
	ListPositionsBySession(ctx context.Context, sessionID id.ID) ([]Position, error)

	// CashTotalBySession sums the signed cash effect of all positions
	// of a session. Satisfies the session package's CashTotals contract.
	CashTotalBySession(ctx context.Context, sessionID id.ID) (types.Money, error)
}

// Auditor records an audit trail entry inside the current transaction.
type Auditor interface {
	Record(ctx context.Context, entityType string, entityID id.ID, action string, changes any) error
}
