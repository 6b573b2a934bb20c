package item

import (
	"context"
	"fmt"

	"cashpoint/internal/core/id"
	"cashpoint/internal/core/tx"
	"cashpoint/pkg/logger"
)

// Service provides business operations for items.
type Service struct {
	repo      Repository
	txManager tx.Manager
}

// NewService creates a new item service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{repo: repo, txManager: txManager}
}

// Create validates and persists a new item.
func (s *Service) Create(ctx context.Context, i *Item) error {
	if err := i.Validate(ctx); err != nil {
		return err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, i)
	})
	if err != nil {
		return fmt.Errorf("create item: %w", err)
	}

	logger.Info(ctx, "item created", "item_id", i.ID, "code", i.Code)
	return nil
}

// Get retrieves an item by ID.
func (s *Service) Get(ctx context.Context, itemID id.ID) (*Item, error) {
	return s.repo.GetByID(ctx, itemID)
}

// Resolve checks that every referenced item exists and returns them keyed
// by ID. Used by session mutations before touching the ledger.
func (s *Service) Resolve(ctx context.Context, itemIDs []id.ID) (map[id.ID]*Item, error) {
	if len(itemIDs) == 0 {
		return map[id.ID]*Item{}, nil
	}
	return s.repo.GetByIDs(ctx, itemIDs)
}

// List returns all items.
func (s *Service) List(ctx context.Context) ([]Item, error) {
	return s.repo.List(ctx)
}
