// Package report_repo provides the PostgreSQL implementation of the
// report artifact repository.
package report_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"cashpoint/internal/core/apperror"
	"cashpoint/internal/core/id"
	"cashpoint/internal/domain/report"
	"cashpoint/internal/infrastructure/storage/postgres"
)

const artifactsTable = "report_artifacts"

// ArtifactRepo implements report.Repository.
type ArtifactRepo struct {
	txManager  *postgres.TxManager
	builder    squirrel.StatementBuilderType
	selectCols []string
}

// NewArtifactRepo creates a new artifact repository.
func NewArtifactRepo(txManager *postgres.TxManager) *ArtifactRepo {
	return &ArtifactRepo{
		txManager:  txManager,
		builder:    squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		selectCols: postgres.ExtractDBColumns[report.Artifact](),
	}
}

func (r *ArtifactRepo) querier(ctx context.Context) postgres.Querier {
	return r.txManager.GetQuerier(ctx)
}

// Create inserts an artifact record.
func (r *ArtifactRepo) Create(ctx context.Context, a *report.Artifact) error {
	data := postgres.StructToMap(a)

	q := r.builder.Insert(artifactsTable).SetMap(data)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert artifact: %w", err)
	}
	return nil
}

// GetLatestBySession returns the newest artifact for a session.
func (r *ArtifactRepo) GetLatestBySession(ctx context.Context, sessionID id.ID) (*report.Artifact, error) {
	q := r.builder.Select(r.selectCols...).
		From(artifactsTable).
		Where(squirrel.Eq{"session_id": sessionID}).
		OrderBy("created_at DESC").
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var a report.Artifact
	if err := pgxscan.Get(ctx, r.querier(ctx), &a, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("report artifact", sessionID.String())
		}
		return nil, fmt.Errorf("get latest artifact: %w", err)
	}
	return &a, nil
}

// ListBySession returns all artifacts ever generated for a session.
func (r *ArtifactRepo) ListBySession(ctx context.Context, sessionID id.ID) ([]report.Artifact, error) {
	q := r.builder.Select(r.selectCols...).
		From(artifactsTable).
		Where(squirrel.Eq{"session_id": sessionID}).
		OrderBy("created_at DESC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var artifacts []report.Artifact
	if err := pgxscan.Select(ctx, r.querier(ctx), &artifacts, sql, args...); err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}
	return artifacts, nil
}
