package cashdesk

import (
	"context"
	"fmt"

	"cashpoint/internal/core/id"
	"cashpoint/internal/core/tx"
	"cashpoint/pkg/logger"
)

// Service provides business operations for cashdesks.
type Service struct {
	repo      Repository
	txManager tx.Manager
}

// NewService creates a new cashdesk service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{repo: repo, txManager: txManager}
}

// Create validates and persists a new cashdesk.
func (s *Service) Create(ctx context.Context, c *Cashdesk) error {
	if err := c.Validate(ctx); err != nil {
		return err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, c)
	})
	if err != nil {
		return fmt.Errorf("create cashdesk: %w", err)
	}

	logger.Info(ctx, "cashdesk created", "cashdesk_id", c.ID, "code", c.Code)
	return nil
}

// Get retrieves a cashdesk by ID.
func (s *Service) Get(ctx context.Context, cashdeskID id.ID) (*Cashdesk, error) {
	return s.repo.GetByID(ctx, cashdeskID)
}

// List returns cashdesks, optionally only active ones.
func (s *Service) List(ctx context.Context, activeOnly bool) ([]Cashdesk, error) {
	return s.repo.List(ctx, activeOnly)
}

// SetActive toggles whether the desk accepts new sessions.
func (s *Service) SetActive(ctx context.Context, cashdeskID id.ID, active bool) (*Cashdesk, error) {
	var desk *Cashdesk

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		desk, err = s.repo.GetForUpdate(ctx, cashdeskID)
		if err != nil {
			return err
		}

		desk.Active = active
		desk.Touch()
		return s.repo.Update(ctx, desk)
	})
	if err != nil {
		return nil, fmt.Errorf("set cashdesk active: %w", err)
	}

	logger.Info(ctx, "cashdesk activity changed", "cashdesk_id", cashdeskID, "active", active)
	return desk, nil
}
