package transaction

import (
	"context"
	"fmt"
	"time"

	"cashpoint/internal/core/apperror"
	"cashpoint/internal/core/id"
	"cashpoint/internal/core/numerator"
	"cashpoint/internal/core/tx"
	"cashpoint/internal/core/types"
	"cashpoint/internal/domain/catalogs/product"
	"cashpoint/internal/domain/session"
	"cashpoint/pkg/logger"
)

const (
	auditActionSale    = "sale"
	auditActionReverse = "reverse"

	receiptPrefix = "RCP"
)

// Service implements sale recording and the reversal engine.
//
// Reversal is all-or-nothing: the session row lock freezes the position
// set, and a single already-reversed position fails the whole call with
// no positions created.
type Service struct {
	repo      Repository
	sessions  session.Repository
	products  product.Repository
	numbers   numerator.Generator
	numConfig numerator.Config
	audit     Auditor
	txManager tx.Manager
}

// NewService creates a new transaction service.
func NewService(
	repo Repository,
	sessions session.Repository,
	products product.Repository,
	numbers numerator.Generator,
	audit Auditor,
	txManager tx.Manager,
) *Service {
	return &Service{
		repo:      repo,
		sessions:  sessions,
		products:  products,
		numbers:   numbers,
		numConfig: numerator.DefaultConfig(receiptPrefix),
		audit:     audit,
		txManager: txManager,
	}
}

// SaleLine is one requested line of a sale.
type SaleLine struct {
	ProductID id.ID `json:"productId"`
}

// RecordSale records a sale at an open session. The product price is
// captured into the position at sale time, so later price changes never
// rewrite receipts.
func (s *Service) RecordSale(ctx context.Context, sessionID id.ID, lines []SaleLine, actorID id.ID) (*Receipt, error) {
	if len(lines) == 0 {
		return nil, apperror.NewValidation("at least one sale line is required")
	}
	for i, line := range lines {
		if id.IsNil(line.ProductID) {
			return nil, apperror.NewValidation(fmt.Sprintf("line %d: product is required", i))
		}
	}
	if id.IsNil(actorID) {
		return nil, apperror.NewValidation("acting user is required")
	}

	var receipt *Receipt

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		sess, err := s.sessions.GetForUpdate(ctx, sessionID)
		if err != nil {
			return err
		}
		if !sess.IsOpen() {
			return apperror.NewSessionEnded(sessionID.String())
		}

		number, err := s.numbers.GetNextNumber(ctx, s.numConfig, numerator.DefaultOptions(), time.Now().UTC())
		if err != nil {
			return fmt.Errorf("next receipt number: %w", err)
		}

		t := NewTransaction(sessionID, number, actorID)
		positions := make([]Position, 0, len(lines))
		total := types.Zero()

		for _, line := range lines {
			prod, err := s.products.GetByID(ctx, line.ProductID)
			if err != nil {
				return err
			}
			if !prod.Active {
				return apperror.NewValidation("product is not sellable").
					WithDetail("productId", prod.ID.String())
			}
			pos := NewSalePosition(t.ID, sessionID, prod.ID, prod.Price)
			positions = append(positions, pos)
			total = total.Add(pos.Price)
		}

		if err := s.repo.Create(ctx, t, positions); err != nil {
			return err
		}

		receipt = &Receipt{Transaction: *t, Positions: positions, Total: total}
		return s.audit.Record(ctx, "transaction", t.ID, auditActionSale, receipt)
	})
	if err != nil {
		return nil, fmt.Errorf("record sale: %w", err)
	}

	logger.Info(ctx, "sale recorded",
		"transaction_id", receipt.Transaction.ID,
		"session_id", sessionID,
		"receipt_number", receipt.Transaction.ReceiptNumber,
		"positions", len(receipt.Positions),
	)
	return receipt, nil
}

// ReverseSession cancels every unreversed position of a session by
// appending reversal positions under one new transaction.
//
// If any position is already reversed when the attempt begins, nothing is
// created and the call fails with a flow error. Stock movements are not
// touched: reversing sales does not restock items.
func (s *Service) ReverseSession(ctx context.Context, sessionID id.ID, actorID id.ID) (*Receipt, error) {
	if id.IsNil(actorID) {
		return nil, apperror.NewValidation("acting user is required")
	}

	var receipt *Receipt

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.sessions.GetForUpdate(ctx, sessionID); err != nil {
			return err
		}

		positions, err := s.repo.ListPositionsBySession(ctx, sessionID)
		if err != nil {
			return err
		}

		originals, err := unreversedOriginals(positions)
		if err != nil {
			return err
		}
		if len(originals) == 0 {
			return apperror.NewFlow(apperror.CodeFlow, "session has no positions to reverse").
				WithDetail("sessionId", sessionID.String())
		}

		receipt, err = s.appendReversal(ctx, sessionID, originals, actorID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("reverse session: %w", err)
	}

	logger.Info(ctx, "session reversed",
		"session_id", sessionID,
		"positions", len(receipt.Positions),
	)
	return receipt, nil
}

// ReverseTransaction cancels a single receipt, with the same
// all-or-nothing rule applied to that receipt's positions.
func (s *Service) ReverseTransaction(ctx context.Context, transactionID id.ID, actorID id.ID) (*Receipt, error) {
	if id.IsNil(actorID) {
		return nil, apperror.NewValidation("acting user is required")
	}

	var receipt *Receipt

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		t, err := s.repo.GetByID(ctx, transactionID)
		if err != nil {
			return err
		}
		if _, err := s.sessions.GetForUpdate(ctx, t.SessionID); err != nil {
			return err
		}

		// Session scope: reversals of this receipt may live in other
		// transactions, so check references session-wide.
		all, err := s.repo.ListPositionsBySession(ctx, t.SessionID)
		if err != nil {
			return err
		}
		reversed := referencedPositions(all)

		var originals []Position
		for _, p := range all {
			if p.TransactionID != transactionID || p.Type != TypeSale {
				continue
			}
			if _, ok := reversed[p.ID]; ok {
				return apperror.NewAlreadyReversed(p.ID.String())
			}
			originals = append(originals, p)
		}
		if len(originals) == 0 {
			return apperror.NewFlow(apperror.CodeFlow, "transaction has no positions to reverse").
				WithDetail("transactionId", transactionID.String())
		}

		receipt, err = s.appendReversal(ctx, t.SessionID, originals, actorID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("reverse transaction: %w", err)
	}

	logger.Info(ctx, "transaction reversed",
		"transaction_id", transactionID,
		"positions", len(receipt.Positions),
	)
	return receipt, nil
}

// appendReversal writes one reversal transaction covering originals.
// Runs inside the caller's transaction, after all flow checks passed.
func (s *Service) appendReversal(ctx context.Context, sessionID id.ID, originals []Position, actorID id.ID) (*Receipt, error) {
	number, err := s.numbers.GetNextNumber(ctx, s.numConfig, numerator.DefaultOptions(), time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("next receipt number: %w", err)
	}

	t := NewTransaction(sessionID, number, actorID)
	reversals := make([]Position, 0, len(originals))
	total := types.Zero()

	for _, original := range originals {
		rev := NewReversalPosition(t.ID, original)
		reversals = append(reversals, rev)
		total = total.Add(rev.SignedAmount())
	}

	if err := s.repo.Create(ctx, t, reversals); err != nil {
		return nil, err
	}

	receipt := &Receipt{Transaction: *t, Positions: reversals, Total: total}
	if err := s.audit.Record(ctx, "transaction", t.ID, auditActionReverse, receipt); err != nil {
		return nil, err
	}
	return receipt, nil
}

// Get returns a receipt: the transaction with its positions and total.
func (s *Service) Get(ctx context.Context, transactionID id.ID) (*Receipt, error) {
	t, err := s.repo.GetByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	positions, err := s.repo.ListPositionsByTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	total := types.Zero()
	for _, p := range positions {
		total = total.Add(p.SignedAmount())
	}
	return &Receipt{Transaction: *t, Positions: positions, Total: total}, nil
}

// ListBySession returns all transactions of a session.
func (s *Service) ListBySession(ctx context.Context, sessionID id.ID) ([]Transaction, error) {
	return s.repo.ListBySession(ctx, sessionID)
}

// unreversedOriginals returns the sale positions with no reversal
// referencing them. A single already-reversed sale fails the whole set.
func unreversedOriginals(positions []Position) ([]Position, error) {
	reversed := referencedPositions(positions)

	var originals []Position
	for _, p := range positions {
		if p.Type != TypeSale {
			continue
		}
		if _, ok := reversed[p.ID]; ok {
			return nil, apperror.NewAlreadyReversed(p.ID.String())
		}
		originals = append(originals, p)
	}
	return originals, nil
}

// referencedPositions collects the IDs targeted by a reversal.
func referencedPositions(positions []Position) map[id.ID]struct{} {
	refs := make(map[id.ID]struct{})
	for _, p := range positions {
		if p.Reverses != nil {
			refs[*p.Reverses] = struct{}{}
		}
	}
	return refs
}
