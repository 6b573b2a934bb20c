package report

import (
	"context"

	"cashpoint/internal/core/id"
)

// Repository defines storage operations for report artifacts.
type Repository interface {
	Create(ctx context.Context, a *Artifact) error

	// GetLatestBySession returns the newest artifact for a session,
	// or a not-found error if none was ever generated.
	GetLatestBySession(ctx context.Context, sessionID id.ID) (*Artifact, error)

	ListBySession(ctx context.Context, sessionID id.ID) ([]Artifact, error)
}

// Renderer turns a reconciliation snapshot into a stored artifact and
// returns its reference. Rendering may be slow and is retried by callers;
// it runs outside any database transaction.
type Renderer interface {
	Render(ctx context.Context, snapshot *Snapshot) (ref string, err error)
}
