// Package cashdesk provides the cashdesk catalog.
package cashdesk

import (
	"context"

	"cashpoint/internal/core/apperror"
	"cashpoint/internal/core/entity"
)

// Cashdesk is a physical point of sale. At most one open session may be
// bound to a desk at any time; that invariant is enforced by the session
// service under a lock on this row.
type Cashdesk struct {
	entity.Catalog

	// Active marks the desk as usable for new sessions. Inactive desks
	// keep their session history but reject opens and moves.
	Active bool `db:"active" json:"active"`

	// IPAddress identifies the desk terminal on the venue network
	IPAddress string `db:"ip_address" json:"ipAddress,omitempty"`

	// PrinterQueue is the CUPS queue for the receipt printer, if any
	PrinterQueue string `db:"printer_queue" json:"printerQueue,omitempty"`
}

// New creates an active cashdesk.
func New(code, name string) *Cashdesk {
	return &Cashdesk{
		Catalog: entity.NewCatalog(code, name),
		Active:  true,
	}
}

// Validate implements entity validation.
func (c *Cashdesk) Validate(ctx context.Context) error {
	return c.Catalog.Validate(ctx)
}

// EnsureUsable returns an error unless the desk accepts new sessions.
func (c *Cashdesk) EnsureUsable() error {
	if !c.Active {
		return apperror.NewState(apperror.CodeInvalidState, "cashdesk is not active").
			WithDetail("cashdeskId", c.ID.String())
	}
	return nil
}
