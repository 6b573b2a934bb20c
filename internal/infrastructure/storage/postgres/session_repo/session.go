// Package session_repo provides the PostgreSQL implementation of the
// session repository.
package session_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"cashpoint/internal/core/apperror"
	"cashpoint/internal/core/id"
	"cashpoint/internal/domain/session"
	"cashpoint/internal/infrastructure/storage/postgres"
)

const sessionsTable = "sessions"

// SessionRepo implements session.Repository.
type SessionRepo struct {
	txManager  *postgres.TxManager
	builder    squirrel.StatementBuilderType
	selectCols []string
}

// NewSessionRepo creates a new session repository.
func NewSessionRepo(txManager *postgres.TxManager) *SessionRepo {
	return &SessionRepo{
		txManager:  txManager,
		builder:    squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		selectCols: postgres.ExtractDBColumns[session.Session](),
	}
}

func (r *SessionRepo) querier(ctx context.Context) postgres.Querier {
	return r.txManager.GetQuerier(ctx)
}

func (r *SessionRepo) baseSelect() squirrel.SelectBuilder {
	return r.builder.Select(r.selectCols...).From(sessionsTable)
}

// Create inserts a new session.
func (r *SessionRepo) Create(ctx context.Context, s *session.Session) error {
	data := postgres.StructToMap(s)

	q := r.builder.Insert(sessionsTable).SetMap(data)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// GetByID retrieves a session by ID.
func (r *SessionRepo) GetByID(ctx context.Context, sessionID id.ID) (*session.Session, error) {
	return r.get(ctx, sessionID, false)
}

// GetForUpdate retrieves a session with a row lock.
// Must run inside a transaction.
func (r *SessionRepo) GetForUpdate(ctx context.Context, sessionID id.ID) (*session.Session, error) {
	return r.get(ctx, sessionID, true)
}

func (r *SessionRepo) get(ctx context.Context, sessionID id.ID, forUpdate bool) (*session.Session, error) {
	q := r.baseSelect().Where(squirrel.Eq{"id": sessionID})
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	} else {
		q = q.Limit(1)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var s session.Session
	if err := pgxscan.Get(ctx, r.querier(ctx), &s, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("session", sessionID.String())
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return &s, nil
}

// FindOpenByCashdesk returns the open session at a cashdesk, or nil.
func (r *SessionRepo) FindOpenByCashdesk(ctx context.Context, cashdeskID id.ID) (*session.Session, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"cashdesk_id": cashdeskID}).
		Where("ended_at IS NULL").
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var s session.Session
	if err := pgxscan.Get(ctx, r.querier(ctx), &s, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("find open session: %w", err)
	}
	return &s, nil
}

// Update persists closing data with optimistic locking. The session's
// Version has already been bumped in memory by Touch.
func (r *SessionRepo) Update(ctx context.Context, s *session.Session) error {
	data := postgres.StructToMap(s)

	// Opening data never changes after create. The cashdesk reference
	// stays writable because move reassigns it.
	delete(data, "id")
	delete(data, "version")
	delete(data, "operator_id")
	delete(data, "opened_by_id")
	delete(data, "started_at")
	delete(data, "cash_before")
	delete(data, "created_at")

	q := r.builder.Update(sessionsTable).
		SetMap(data).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": s.ID}).
		Where(squirrel.Eq{"version": s.Version - 1})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification("session", s.ID)
	}
	return nil
}

// ListActive returns all open sessions, oldest first.
func (r *SessionRepo) ListActive(ctx context.Context) ([]session.Session, error) {
	q := r.baseSelect().
		Where("ended_at IS NULL").
		OrderBy("started_at")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var sessions []session.Session
	if err := pgxscan.Select(ctx, r.querier(ctx), &sessions, sql, args...); err != nil {
		return nil, fmt.Errorf("list active sessions: %w", err)
	}
	return sessions, nil
}

// ListByCashdesk returns a cashdesk's sessions, newest first.
func (r *SessionRepo) ListByCashdesk(ctx context.Context, cashdeskID id.ID) ([]session.Session, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"cashdesk_id": cashdeskID}).
		OrderBy("started_at DESC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var sessions []session.Session
	if err := pgxscan.Select(ctx, r.querier(ctx), &sessions, sql, args...); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}
