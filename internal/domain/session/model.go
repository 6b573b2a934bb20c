// Package session provides the cashdesk session lifecycle and reconciliation.
package session

import (
	"context"
	"time"

	"cashpoint/internal/core/apperror"
	"cashpoint/internal/core/id"
	"cashpoint/internal/core/types"
)

// State represents the lifecycle state of a session.
type State string

const (
	// StateOpen - end timestamp is null, the desk is trading
	StateOpen State = "open"
	// StateEnded - end timestamp set, closing data present
	StateEnded State = "ended"
	// StateCorrected - ended again after being ended. Same behaviour as
	// Ended, but the re-entry is observable so reports can be regenerated.
	StateCorrected State = "corrected"
)

// Session is one operator's accountable shift at a cashdesk.
// A session is never deleted; it is owned by its cashdesk for its entire life.
type Session struct {
	ID      id.ID `db:"id" json:"id"`
	Version int   `db:"version" json:"version"`

	CashdeskID id.ID `db:"cashdesk_id" json:"cashdeskId"`

	// OperatorID is the user running the desk during the shift
	OperatorID id.ID `db:"operator_id" json:"operatorId"`

	// OpenedByID is the backoffice user who opened the session.
	// Immutable, like all opening data.
	OpenedByID id.ID `db:"opened_by_id" json:"openedById"`

	// ClosedByID is the backoffice user of the latest end/correction pass
	ClosedByID *id.ID `db:"closed_by_id" json:"closedById,omitempty"`

	StartedAt time.Time  `db:"started_at" json:"startedAt"`
	EndedAt   *time.Time `db:"ended_at" json:"endedAt,omitempty"`

	CashBefore types.Money  `db:"cash_before" json:"cashBefore"`
	CashAfter  *types.Money `db:"cash_after" json:"cashAfter,omitempty"`

	// Corrections counts re-end passes. Zero while open or after the first
	// end; anything above zero means the session is in the corrected state.
	Corrections int `db:"corrections" json:"corrections"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`

	// UpdatedAt is bumped on every end/correction pass and is compared
	// against the report artifact timestamp for staleness.
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// NewSession creates an open session with the given opening data.
func NewSession(cashdeskID, operatorID, openedByID id.ID, cashBefore types.Money) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:         id.New(),
		Version:    1,
		CashdeskID: cashdeskID,
		OperatorID: operatorID,
		OpenedByID: openedByID,
		StartedAt:  now,
		CashBefore: cashBefore,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// State derives the lifecycle state from the end timestamp and correction count.
func (s *Session) State() State {
	if s.EndedAt == nil {
		return StateOpen
	}
	if s.Corrections > 0 {
		return StateCorrected
	}
	return StateEnded
}

// IsOpen reports whether the session is still trading.
func (s *Session) IsOpen() bool {
	return s.EndedAt == nil
}

// Validate implements entity validation for opening data.
func (s *Session) Validate(ctx context.Context) error {
	if id.IsNil(s.CashdeskID) {
		return apperror.NewValidation("cashdesk is required").
			WithDetail("field", "cashdeskId")
	}
	if id.IsNil(s.OperatorID) {
		return apperror.NewValidation("operator is required").
			WithDetail("field", "operatorId")
	}
	if id.IsNil(s.OpenedByID) {
		return apperror.NewValidation("opening backoffice user is required").
			WithDetail("field", "openedById")
	}
	if s.CashBefore.IsNegative() {
		return apperror.NewValidation("opening cash must not be negative").
			WithDetail("field", "cashBefore")
	}
	return nil
}

// End records the first end pass: timestamp, closing user and closing cash.
// The original start and opening data stay untouched.
func (s *Session) End(closedByID id.ID, cashAfter types.Money) error {
	if !s.IsOpen() {
		return apperror.NewSessionEnded(s.ID.String())
	}
	now := time.Now().UTC()
	s.EndedAt = &now
	s.ClosedByID = &closedByID
	s.CashAfter = &cashAfter
	s.Touch()
	return nil
}

// Correct overwrites closing data on an already-ended session.
// End timestamp, closing cash and closing user may change any number of
// times; each pass increments the correction counter.
func (s *Session) Correct(closedByID id.ID, cashAfter types.Money) error {
	if s.IsOpen() {
		return apperror.NewState(apperror.CodeSessionNotOpen, "cannot correct a session that has not ended")
	}
	now := time.Now().UTC()
	s.EndedAt = &now
	s.ClosedByID = &closedByID
	s.CashAfter = &cashAfter
	s.Corrections++
	s.Touch()
	return nil
}

// MoveTo reassigns the session to another cashdesk.
// Legal only while the session is still open.
func (s *Session) MoveTo(cashdeskID id.ID) error {
	if !s.IsOpen() {
		return apperror.NewSessionEnded(s.ID.String())
	}
	if id.IsNil(cashdeskID) {
		return apperror.NewValidation("cashdesk is required").
			WithDetail("field", "cashdeskId")
	}
	s.CashdeskID = cashdeskID
	s.Touch()
	return nil
}

// Touch updates the UpdatedAt timestamp and increments version.
func (s *Session) Touch() {
	s.UpdatedAt = time.Now().UTC()
	s.Version++
}

// CountedItem is one (item, counted amount) pair observed by the operator at close.
type CountedItem struct {
	ItemID id.ID `json:"itemId"`
	Amount int   `json:"amount"`
}

// InitialMovement is one (item, amount) pair stocked at session open.
type InitialMovement struct {
	ItemID id.ID `json:"itemId"`
	Amount int   `json:"amount"`
}

// ItemReconciliation is the per-item outcome of an end pass.
type ItemReconciliation struct {
	ItemID   id.ID `json:"itemId"`
	Expected int   `json:"expected"`
	Counted  int   `json:"counted"`
	Delta    int   `json:"delta"`
}

// Summary is the full reconciliation snapshot produced by an end pass.
// The report renderer receives exactly this data.
type Summary struct {
	SessionID   id.ID                `json:"sessionId"`
	CashdeskID  id.ID                `json:"cashdeskId"`
	State       State                `json:"state"`
	StartedAt   time.Time            `json:"startedAt"`
	EndedAt     time.Time            `json:"endedAt"`
	CashBefore  types.Money          `json:"cashBefore"`
	CashAfter   types.Money          `json:"cashAfter"`
	CashInSales types.Money          `json:"cashInSales"`
	Items       []ItemReconciliation `json:"items"`
	Corrections int                  `json:"corrections"`
}
