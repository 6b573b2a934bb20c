// Package report decides when a session report is stale and tracks the
// generated artifacts. Rendering itself is a pluggable collaborator.
package report

import (
	"time"

	"cashpoint/internal/core/id"
	"cashpoint/internal/core/types"
	"cashpoint/internal/domain/ledger"
	"cashpoint/internal/domain/session"
)

// Artifact is a pointer to one generated report for a session, together
// with the session change timestamp it was built from. Artifacts are
// append-only; regeneration stores a new row.
type Artifact struct {
	ID id.ID `db:"id" json:"id"`

	SessionID id.ID `db:"session_id" json:"sessionId"`

	// Ref is the opaque storage reference returned by the renderer
	Ref string `db:"ref" json:"ref"`

	// SessionStateAt is the session's UpdatedAt at generation time.
	// The artifact is stale once the session has changed past it.
	SessionStateAt time.Time `db:"session_state_at" json:"sessionStateAt"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// NewArtifact records a rendered report reference.
func NewArtifact(sessionID id.ID, ref string, sessionStateAt time.Time) *Artifact {
	return &Artifact{
		ID:             id.New(),
		SessionID:      sessionID,
		Ref:            ref,
		SessionStateAt: sessionStateAt,
		CreatedAt:      time.Now().UTC(),
	}
}

// Snapshot is the full data a renderer receives: the closed session with
// its cash turnover and per-item movement totals.
type Snapshot struct {
	Session     session.Session `json:"session"`
	CashInSales types.Money     `json:"cashInSales"`
	Stock       []ledger.Stock  `json:"stock"`
}
