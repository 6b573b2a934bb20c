package session

import (
	"context"
	"fmt"
	"time"

	"cashpoint/internal/core/apperror"
	"cashpoint/internal/core/id"
	"cashpoint/internal/core/tx"
	"cashpoint/internal/core/types"
	"cashpoint/internal/domain/catalogs/cashdesk"
	"cashpoint/internal/domain/catalogs/item"
	"cashpoint/internal/domain/ledger"
	"cashpoint/pkg/logger"
)

const (
	auditActionOpen     = "open"
	auditActionResupply = "resupply"
	auditActionEnd      = "end"
	auditActionCorrect  = "correct"
	auditActionMove     = "move"
)

// Service implements the session lifecycle: open, resupply, end with
// reconciliation, correction passes and moves between desks.
//
// Every mutation runs in a single transaction holding a row lock on the
// session (or, for open, the cashdesk), so the reconciliation snapshot
// cannot be changed by a concurrent resupply mid-computation.
type Service struct {
	repo       Repository
	ledger     *ledger.Service
	cashdesks  cashdesk.Repository
	items      *item.Service
	cashTotals CashTotals
	audit      Auditor
	txManager  tx.Manager
}

// NewService creates a new session service.
func NewService(
	repo Repository,
	ledgerSvc *ledger.Service,
	cashdesks cashdesk.Repository,
	items *item.Service,
	cashTotals CashTotals,
	audit Auditor,
	txManager tx.Manager,
) *Service {
	return &Service{
		repo:       repo,
		ledger:     ledgerSvc,
		cashdesks:  cashdesks,
		items:      items,
		cashTotals: cashTotals,
		audit:      audit,
		txManager:  txManager,
	}
}

// OpenInput carries the opening data for a new session.
type OpenInput struct {
	CashdeskID       id.ID
	OperatorID       id.ID
	CashBefore       types.Money
	InitialMovements []InitialMovement
}

// Open starts a session at a cashdesk with opening cash and optional
// initial stock. The cashdesk row is locked for the whole transaction so
// at most one open session can ever exist per desk.
func (s *Service) Open(ctx context.Context, in OpenInput, actorID id.ID) (*Session, error) {
	sess := NewSession(in.CashdeskID, in.OperatorID, actorID, in.CashBefore)
	if err := sess.Validate(ctx); err != nil {
		return nil, err
	}
	if err := validateSupply(in.InitialMovements); err != nil {
		return nil, err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		desk, err := s.cashdesks.GetForUpdate(ctx, in.CashdeskID)
		if err != nil {
			return err
		}
		if err := desk.EnsureUsable(); err != nil {
			return err
		}

		open, err := s.repo.FindOpenByCashdesk(ctx, in.CashdeskID)
		if err != nil {
			return err
		}
		if open != nil {
			return apperror.NewDeskOccupied(in.CashdeskID.String()).
				WithDetail("openSessionId", open.ID.String())
		}

		if err := s.resolveItems(ctx, in.InitialMovements); err != nil {
			return err
		}

		if err := s.repo.Create(ctx, sess); err != nil {
			return err
		}

		if err := s.ledger.Record(ctx, supplyMovements(sess.ID, in.InitialMovements, actorID)); err != nil {
			return err
		}

		return s.audit.Record(ctx, "session", sess.ID, auditActionOpen, sess)
	})
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}

	logger.Info(ctx, "session opened",
		"session_id", sess.ID,
		"cashdesk_id", in.CashdeskID,
		"operator_id", in.OperatorID,
	)
	return sess, nil
}

// Resupply appends positive stock movements to an open session.
func (s *Service) Resupply(ctx context.Context, sessionID id.ID, supply []InitialMovement, actorID id.ID) error {
	if len(supply) == 0 {
		return apperror.NewValidation("at least one movement is required")
	}
	if err := validateSupply(supply); err != nil {
		return err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		sess, err := s.repo.GetForUpdate(ctx, sessionID)
		if err != nil {
			return err
		}
		if !sess.IsOpen() {
			return apperror.NewSessionEnded(sessionID.String())
		}

		if err := s.resolveItems(ctx, supply); err != nil {
			return err
		}

		if err := s.ledger.Record(ctx, supplyMovements(sessionID, supply, actorID)); err != nil {
			return err
		}

		return s.audit.Record(ctx, "session", sessionID, auditActionResupply, supply)
	})
	if err != nil {
		return fmt.Errorf("resupply session: %w", err)
	}

	logger.Info(ctx, "session resupplied", "session_id", sessionID, "items", len(supply))
	return nil
}

// EndInput carries the closing data for an end or correction pass.
type EndInput struct {
	SessionID id.ID
	CashAfter types.Money
	Counted   []CountedItem
}

// End closes a session, or corrects an already-closed one.
//
// Each pass reconciles the submitted counts against the current computed
// stock and appends only the difference, dated strictly after the end
// timestamp. Re-submitting counts the ledger already reflects appends
// nothing, so a repeated end is safe. On a correction pass the closing
// cash, closing user and end timestamp are overwritten; nothing that
// happened before is edited.
func (s *Service) End(ctx context.Context, in EndInput, actorID id.ID) (*Summary, error) {
	if in.CashAfter.IsNegative() {
		return nil, apperror.NewValidation("closing cash must not be negative").
			WithDetail("field", "cashAfter")
	}
	if err := validateCounted(in.Counted); err != nil {
		return nil, err
	}

	var summary *Summary

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		sess, err := s.repo.GetForUpdate(ctx, in.SessionID)
		if err != nil {
			return err
		}

		wasOpen := sess.IsOpen()
		if wasOpen {
			err = sess.End(actorID, in.CashAfter)
		} else {
			err = sess.Correct(actorID, in.CashAfter)
		}
		if err != nil {
			return err
		}
		if err := s.repo.Update(ctx, sess); err != nil {
			return err
		}

		counted := make([]id.ID, 0, len(in.Counted))
		for _, c := range in.Counted {
			counted = append(counted, c.ItemID)
		}
		if _, err := s.items.Resolve(ctx, counted); err != nil {
			return err
		}

		items, err := s.reconcile(ctx, sess, in.Counted, actorID)
		if err != nil {
			return err
		}

		cashInSales, err := s.cashTotals.CashTotalBySession(ctx, sess.ID)
		if err != nil {
			return err
		}

		summary = &Summary{
			SessionID:   sess.ID,
			CashdeskID:  sess.CashdeskID,
			State:       sess.State(),
			StartedAt:   sess.StartedAt,
			EndedAt:     *sess.EndedAt,
			CashBefore:  sess.CashBefore,
			CashAfter:   *sess.CashAfter,
			CashInSales: cashInSales,
			Items:       items,
			Corrections: sess.Corrections,
		}

		action := auditActionEnd
		if !wasOpen {
			action = auditActionCorrect
		}
		return s.audit.Record(ctx, "session", sess.ID, action, summary)
	})
	if err != nil {
		return nil, fmt.Errorf("end session: %w", err)
	}

	logger.Info(ctx, "session ended",
		"session_id", in.SessionID,
		"state", summary.State,
		"corrections", summary.Corrections,
	)
	return summary, nil
}

// reconcile appends correcting movements for every counted item whose
// count differs from the computed stock. Corrections are dated strictly
// after the end timestamp so they stay attributable to the closing
// moment rather than pre-close stock.
func (s *Service) reconcile(ctx context.Context, sess *Session, counted []CountedItem, actorID id.ID) ([]ItemReconciliation, error) {
	computed, err := s.ledger.CurrentStock(ctx, sess.ID)
	if err != nil {
		return nil, err
	}

	stamp := time.Now().UTC()
	if !stamp.After(*sess.EndedAt) {
		stamp = sess.EndedAt.Add(time.Microsecond)
	}

	result := make([]ItemReconciliation, 0, len(counted))
	var corrections []ledger.Movement

	for _, c := range counted {
		expected := computed[c.ItemID]
		delta := c.Amount - expected

		result = append(result, ItemReconciliation{
			ItemID:   c.ItemID,
			Expected: expected,
			Counted:  c.Amount,
			Delta:    delta,
		})

		if delta == 0 {
			continue
		}
		corrections = append(corrections, ledger.NewMovementAt(sess.ID, c.ItemID, delta, actorID, stamp))
	}

	if err := s.ledger.Record(ctx, corrections); err != nil {
		return nil, err
	}
	return result, nil
}

// Move reassigns an open session to another cashdesk. The target desk is
// locked and checked the same way open checks it.
func (s *Service) Move(ctx context.Context, sessionID, newCashdeskID id.ID, actorID id.ID) error {
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		sess, err := s.repo.GetForUpdate(ctx, sessionID)
		if err != nil {
			return err
		}
		if sess.CashdeskID == newCashdeskID {
			return nil
		}

		desk, err := s.cashdesks.GetForUpdate(ctx, newCashdeskID)
		if err != nil {
			return err
		}
		if err := desk.EnsureUsable(); err != nil {
			return err
		}

		open, err := s.repo.FindOpenByCashdesk(ctx, newCashdeskID)
		if err != nil {
			return err
		}
		if open != nil {
			return apperror.NewDeskOccupied(newCashdeskID.String()).
				WithDetail("openSessionId", open.ID.String())
		}

		if err := sess.MoveTo(newCashdeskID); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, sess); err != nil {
			return err
		}

		return s.audit.Record(ctx, "session", sessionID, auditActionMove, map[string]any{
			"cashdeskId": newCashdeskID,
		})
	})
	if err != nil {
		return fmt.Errorf("move session: %w", err)
	}

	logger.Info(ctx, "session moved", "session_id", sessionID, "cashdesk_id", newCashdeskID)
	return nil
}

// Get retrieves a session by ID.
func (s *Service) Get(ctx context.Context, sessionID id.ID) (*Session, error) {
	return s.repo.GetByID(ctx, sessionID)
}

// CurrentStock returns item => computed stock for a session,
// always derived from the ledger sum.
func (s *Service) CurrentStock(ctx context.Context, sessionID id.ID) (map[id.ID]int, error) {
	if _, err := s.repo.GetByID(ctx, sessionID); err != nil {
		return nil, err
	}
	return s.ledger.CurrentStock(ctx, sessionID)
}

// History returns the movement ledger of a session in order.
func (s *Service) History(ctx context.Context, sessionID id.ID) ([]ledger.Movement, error) {
	if _, err := s.repo.GetByID(ctx, sessionID); err != nil {
		return nil, err
	}
	return s.ledger.History(ctx, sessionID)
}

// ActiveSession pairs an open session with its computed stock.
type ActiveSession struct {
	Session Session        `json:"session"`
	Stock   []ledger.Stock `json:"stock"`
}

// ListActive returns all open sessions.
func (s *Service) ListActive(ctx context.Context) ([]Session, error) {
	return s.repo.ListActive(ctx)
}

// ListActiveWithStock returns all open sessions with their computed stock,
// for the backoffice overview.
func (s *Service) ListActiveWithStock(ctx context.Context) ([]ActiveSession, error) {
	sessions, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]ActiveSession, 0, len(sessions))
	for _, sess := range sessions {
		stock, err := s.ledger.StockBySession(ctx, sess.ID)
		if err != nil {
			return nil, err
		}
		result = append(result, ActiveSession{Session: sess, Stock: stock})
	}
	return result, nil
}

func (s *Service) resolveItems(ctx context.Context, supply []InitialMovement) error {
	if len(supply) == 0 {
		return nil
	}
	ids := make([]id.ID, 0, len(supply))
	for _, m := range supply {
		ids = append(ids, m.ItemID)
	}
	_, err := s.items.Resolve(ctx, ids)
	return err
}

func validateSupply(supply []InitialMovement) error {
	seen := make(map[id.ID]struct{}, len(supply))
	for i, m := range supply {
		if id.IsNil(m.ItemID) {
			return apperror.NewValidation(fmt.Sprintf("movement %d: item is required", i))
		}
		if m.Amount <= 0 {
			return apperror.NewValidation(fmt.Sprintf("movement %d: amount must be positive", i)).
				WithDetail("itemId", m.ItemID.String())
		}
		if _, ok := seen[m.ItemID]; ok {
			return apperror.NewValidation(fmt.Sprintf("movement %d: duplicate item", i)).
				WithDetail("itemId", m.ItemID.String())
		}
		seen[m.ItemID] = struct{}{}
	}
	return nil
}

func validateCounted(counted []CountedItem) error {
	seen := make(map[id.ID]struct{}, len(counted))
	for i, c := range counted {
		if id.IsNil(c.ItemID) {
			return apperror.NewValidation(fmt.Sprintf("counted item %d: item is required", i))
		}
		if c.Amount < 0 {
			return apperror.NewValidation(fmt.Sprintf("counted item %d: amount must not be negative", i)).
				WithDetail("itemId", c.ItemID.String())
		}
		if _, ok := seen[c.ItemID]; ok {
			return apperror.NewValidation(fmt.Sprintf("counted item %d: duplicate item", i)).
				WithDetail("itemId", c.ItemID.String())
		}
		seen[c.ItemID] = struct{}{}
	}
	return nil
}

func supplyMovements(sessionID id.ID, supply []InitialMovement, actorID id.ID) []ledger.Movement {
	movements := make([]ledger.Movement, 0, len(supply))
	for _, m := range supply {
		movements = append(movements, ledger.NewMovement(sessionID, m.ItemID, m.Amount, actorID))
	}
	return movements
}
