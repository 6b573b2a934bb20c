package session

import (
	"context"

	"cashpoint/internal/core/id"
	"cashpoint/internal/core/types"
)

// Repository defines storage operations for sessions.
type Repository interface {
	Create(ctx context.Context, s *Session) error

	GetByID(ctx context.Context, sessionID id.ID) (*Session, error)

	// GetForUpdate retrieves a session with a row lock.
	// Must be called inside a transaction; serializes concurrent mutations.
	GetForUpdate(ctx context.Context, sessionID id.ID) (*Session, error)

	// FindOpenByCashdesk returns the open session at a cashdesk, or nil.
	// Called with the cashdesk row locked, so the answer stays true for
	// the rest of the transaction.
	FindOpenByCashdesk(ctx context.Context, cashdeskID id.ID) (*Session, error)

	// Update persists closing data and correction counters.
	// Opening data and the ledger are immutable and never written here.
	Update(ctx context.Context, s *Session) error

	ListActive(ctx context.Context) ([]Session, error)

	ListByCashdesk(ctx context.Context, cashdeskID id.ID) ([]Session, error)
}

// Auditor records an audit trail entry inside the current transaction.
type Auditor interface {
	Record(ctx context.Context, entityType string, entityID id.ID, action string, changes any) error
}

// CashTotals reports cash turnover per session. Implemented by the
// transaction repository; sessions only need the aggregate.
type CashTotals interface {
	CashTotalBySession(ctx context.Context, sessionID id.ID) (types.Money, error)
}
