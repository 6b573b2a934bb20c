package cashdesk

import (
	"context"

	"cashpoint/internal/core/id"
)

// Repository defines storage operations for cashdesks.
type Repository interface {
	Create(ctx context.Context, c *Cashdesk) error

	GetByID(ctx context.Context, cashdeskID id.ID) (*Cashdesk, error)

	// GetForUpdate retrieves a cashdesk with a row lock. Session open and
	// move take this lock to serialize the one-open-session check.
	GetForUpdate(ctx context.Context, cashdeskID id.ID) (*Cashdesk, error)

	GetByCode(ctx context.Context, code string) (*Cashdesk, error)

	Update(ctx context.Context, c *Cashdesk) error

	List(ctx context.Context, activeOnly bool) ([]Cashdesk, error)
}
