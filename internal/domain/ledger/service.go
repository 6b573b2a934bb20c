package ledger

import (
	"context"
	"fmt"

	"cashpoint/internal/core/apperror"
	"cashpoint/internal/core/id"
	"cashpoint/pkg/logger"
)

// Service provides business operations for the movement ledger.
// Transactions are managed by the caller (session service).
type Service struct {
	repo Repository
}

// NewService creates a new ledger service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Record appends movements to the ledger.
// Called during session mutations within a transaction.
func (s *Service) Record(ctx context.Context, movements []Movement) error {
	if len(movements) == 0 {
		return nil
	}

	for i, m := range movements {
		if m.Amount == 0 {
			return apperror.NewValidation(fmt.Sprintf("movement %d: amount must not be zero", i))
		}
		if id.IsNil(m.SessionID) {
			return apperror.NewValidation(fmt.Sprintf("movement %d: session_id is required", i))
		}
		if id.IsNil(m.ItemID) {
			return apperror.NewValidation(fmt.Sprintf("movement %d: item_id is required", i))
		}
		if id.IsNil(m.ActorID) {
			return apperror.NewValidation(fmt.Sprintf("movement %d: actor_id is required", i))
		}
	}

	if err := s.repo.Append(ctx, movements); err != nil {
		return fmt.Errorf("append movements: %w", err)
	}

	logger.Info(ctx, "recorded item movements",
		"count", len(movements),
		"session_id", movements[0].SessionID,
	)

	return nil
}

// CurrentStock returns item => computed stock for a session.
// Always consistent with the ledger sum, never a stored balance.
func (s *Service) CurrentStock(ctx context.Context, sessionID id.ID) (map[id.ID]int, error) {
	stocks, err := s.repo.SumBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("sum movements: %w", err)
	}

	result := make(map[id.ID]int, len(stocks))
	for _, st := range stocks {
		result[st.ItemID] = st.Total
	}
	return result, nil
}

// StockBySession returns the computed stock rows for a session, with item
// names resolved, for overview listings.
func (s *Service) StockBySession(ctx context.Context, sessionID id.ID) ([]Stock, error) {
	stocks, err := s.repo.SumBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("sum movements: %w", err)
	}
	return stocks, nil
}

// StockOf returns the computed stock of a single item at a session.
func (s *Service) StockOf(ctx context.Context, sessionID, itemID id.ID) (int, error) {
	total, err := s.repo.SumBySessionItem(ctx, sessionID, itemID)
	if err != nil {
		return 0, fmt.Errorf("sum movements for item: %w", err)
	}
	return total, nil
}

// History returns the full movement list for a session in ledger order.
func (s *Service) History(ctx context.Context, sessionID id.ID) ([]Movement, error) {
	return s.repo.ListBySession(ctx, sessionID)
}
