// Package ledger provides the append-only item movement ledger.
// A movement is never updated or deleted - corrections are new entries.
package ledger

import (
	"time"

	"cashpoint/internal/core/id"
)

// Movement is a signed ledger entry changing an item's stock at a session.
// Positive amounts add stock to the desk, negative amounts remove it.
type Movement struct {
	// ID is unique identifier for this movement (UUIDv7, time-ordered)
	ID id.ID `db:"id" json:"id"`

	// SessionID is the owning cashdesk session
	SessionID id.ID `db:"session_id" json:"sessionId"`

	// ItemID is the stocked item this movement applies to
	ItemID id.ID `db:"item_id" json:"itemId"`

	// Amount is the signed stock change in whole items
	Amount int `db:"amount" json:"amount"`

	// ActorID is the backoffice user who caused the movement
	ActorID id.ID `db:"actor_id" json:"actorId"`

	// CreatedAt orders the entry within the ledger. Movements appended by
	// reconciliation are dated strictly after the session end timestamp.
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// NewMovement creates a movement dated now.
func NewMovement(sessionID, itemID id.ID, amount int, actorID id.ID) Movement {
	return Movement{
		ID:        id.New(),
		SessionID: sessionID,
		ItemID:    itemID,
		Amount:    amount,
		ActorID:   actorID,
		CreatedAt: time.Now().UTC(),
	}
}

// NewMovementAt creates a movement with an explicit timestamp.
// Used by reconciliation, which must date corrections after session end.
func NewMovementAt(sessionID, itemID id.ID, amount int, actorID id.ID, at time.Time) Movement {
	return Movement{
		ID:        id.New(),
		SessionID: sessionID,
		ItemID:    itemID,
		Amount:    amount,
		ActorID:   actorID,
		CreatedAt: at,
	}
}

// Stock is the computed stock of one item at one session:
// the sum of all signed movement amounts for the (session, item) pair.
type Stock struct {
	ItemID   id.ID  `db:"item_id" json:"itemId"`
	ItemName string `db:"item_name" json:"itemName"`
	Total    int    `db:"total" json:"total"`
}
