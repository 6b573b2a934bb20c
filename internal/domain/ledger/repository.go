// Package ledger provides the append-only item movement ledger.
package ledger

import (
	"context"
	"time"

	"cashpoint/internal/core/id"
)

// Repository defines storage operations for the movement ledger.
// Implementations must only ever append - no update or delete exists.
type Repository interface {
	// Append batch inserts movements (used inside mutation transactions)
	Append(ctx context.Context, movements []Movement) error

	// ListBySession retrieves all movements for a session in ledger order
	ListBySession(ctx context.Context, sessionID id.ID) ([]Movement, error)

	// SumBySession returns computed stock per item for a session
	SumBySession(ctx context.Context, sessionID id.ID) ([]Stock, error)

	// SumBySessionItem returns computed stock of one item at a session
	SumBySessionItem(ctx context.Context, sessionID, itemID id.ID) (int, error)

	// SumAtTime returns stock per item counting only movements dated <= at
	SumAtTime(ctx context.Context, sessionID id.ID, at time.Time) ([]Stock, error)
}
