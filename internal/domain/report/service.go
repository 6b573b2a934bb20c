package report

import (
	"context"
	"fmt"
	"time"

	"cashpoint/internal/core/apperror"
	"cashpoint/internal/core/id"
	"cashpoint/internal/core/tx"
	"cashpoint/internal/domain/ledger"
	"cashpoint/internal/domain/session"
	"cashpoint/pkg/logger"
)

// Service implements the report trigger: staleness checks, regeneration
// and artifact bookkeeping.
type Service struct {
	repo       Repository
	sessions   session.Repository
	ledger     *ledger.Service
	cashTotals session.CashTotals
	renderer   Renderer
	txManager  tx.Manager
}

// NewService creates a new report service.
func NewService(
	repo Repository,
	sessions session.Repository,
	ledgerSvc *ledger.Service,
	cashTotals session.CashTotals,
	renderer Renderer,
	txManager tx.Manager,
) *Service {
	return &Service{
		repo:       repo,
		sessions:   sessions,
		ledger:     ledgerSvc,
		cashTotals: cashTotals,
		renderer:   renderer,
		txManager:  txManager,
	}
}

// NeedsReport reports whether a session's stored report is missing or
// stale. Open sessions never need a report.
func (s *Service) NeedsReport(ctx context.Context, sessionID id.ID) (bool, error) {
	sess, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return false, err
	}
	if sess.IsOpen() {
		return false, nil
	}

	latest, err := s.repo.GetLatestBySession(ctx, sessionID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return true, nil
		}
		return false, err
	}

	return latest.SessionStateAt.Before(sess.UpdatedAt), nil
}

// Generate renders a fresh report for an ended session and records the
// artifact. If the stored report is still current, it is returned as-is.
//
// Rendering runs outside the transaction so a slow or failing renderer
// never holds locks; the staleness check makes retries safe.
func (s *Service) Generate(ctx context.Context, sessionID id.ID) (*Artifact, error) {
	sess, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.IsOpen() {
		return nil, apperror.NewState(apperror.CodeInvalidState, "cannot report on an open session").
			WithDetail("sessionId", sessionID.String())
	}

	latest, err := s.repo.GetLatestBySession(ctx, sessionID)
	if err != nil && !apperror.IsNotFound(err) {
		return nil, err
	}
	if latest != nil && !latest.SessionStateAt.Before(sess.UpdatedAt) {
		return latest, nil
	}

	snapshot, err := s.snapshot(ctx, sess)
	if err != nil {
		return nil, err
	}

	ref, err := s.renderer.Render(ctx, snapshot)
	if err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}

	artifact, err := s.RecordArtifact(ctx, sessionID, ref, sess.UpdatedAt)
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "report generated",
		"session_id", sessionID,
		"artifact_id", artifact.ID,
		"ref", ref,
	)
	return artifact, nil
}

// RecordArtifact stores a rendered artifact reference together with the
// session change timestamp it reflects.
func (s *Service) RecordArtifact(ctx context.Context, sessionID id.ID, ref string, at time.Time) (*Artifact, error) {
	if ref == "" {
		return nil, apperror.NewValidation("artifact ref is required")
	}

	artifact := NewArtifact(sessionID, ref, at)

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, artifact)
	})
	if err != nil {
		return nil, fmt.Errorf("record report artifact: %w", err)
	}
	return artifact, nil
}

// Latest returns the newest artifact for a session.
func (s *Service) Latest(ctx context.Context, sessionID id.ID) (*Artifact, error) {
	return s.repo.GetLatestBySession(ctx, sessionID)
}

// snapshot assembles the renderer input for an ended session.
func (s *Service) snapshot(ctx context.Context, sess *session.Session) (*Snapshot, error) {
	stock, err := s.ledger.StockBySession(ctx, sess.ID)
	if err != nil {
		return nil, err
	}

	cashInSales, err := s.cashTotals.CashTotalBySession(ctx, sess.ID)
	if err != nil {
		return nil, err
	}

	return &Snapshot{
		Session:     *sess,
		CashInSales: cashInSales,
		Stock:       stock,
	}, nil
}
