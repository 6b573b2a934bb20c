// Package ledger_repo provides the PostgreSQL implementation of the
// movement ledger. The table is append-only: the repository exposes no
// update or delete.
package ledger_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"cashpoint/internal/core/id"
	"cashpoint/internal/domain/ledger"
	"cashpoint/internal/infrastructure/storage/postgres"
)

const (
	movementsTable = "item_movements"
	itemsTable     = "cat_items"
)

var movementColumns = []string{
	"id", "session_id", "item_id", "amount", "actor_id", "created_at",
}

// MovementRepo implements ledger.Repository.
type MovementRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewMovementRepo creates a new movement repository.
func NewMovementRepo(txManager *postgres.TxManager) *MovementRepo {
	return &MovementRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *MovementRepo) querier(ctx context.Context) postgres.Querier {
	return r.txManager.GetQuerier(ctx)
}

// Append batch inserts movements.
func (r *MovementRepo) Append(ctx context.Context, movements []ledger.Movement) error {
	if len(movements) == 0 {
		return nil
	}

	// Fast path: COPY when inside a transaction.
	if tx := r.txManager.GetTx(ctx); tx != nil {
		inserter := postgres.NewBatchInserter(r.txManager)
		rows := make([][]any, 0, len(movements))
		for _, m := range movements {
			rows = append(rows, []any{
				m.ID, m.SessionID, m.ItemID, m.Amount, m.ActorID, m.CreatedAt,
			})
		}
		if _, err := inserter.CopyFromSlice(ctx, movementsTable, movementColumns, rows); err != nil {
			return fmt.Errorf("copy movements: %w", err)
		}
		return nil
	}

	// Fallback: plain insert. Prefer calling Append within a transaction.
	q := r.builder.Insert(movementsTable).Columns(movementColumns...)
	for _, m := range movements {
		q = q.Values(m.ID, m.SessionID, m.ItemID, m.Amount, m.ActorID, m.CreatedAt)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert movements: %w", err)
	}
	return nil
}

// ListBySession retrieves all movements for a session in ledger order.
func (r *MovementRepo) ListBySession(ctx context.Context, sessionID id.ID) ([]ledger.Movement, error) {
	q := r.builder.Select(movementColumns...).
		From(movementsTable).
		Where(squirrel.Eq{"session_id": sessionID}).
		OrderBy("created_at", "id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var movements []ledger.Movement
	if err := pgxscan.Select(ctx, r.querier(ctx), &movements, sql, args...); err != nil {
		return nil, fmt.Errorf("select movements: %w", err)
	}
	return movements, nil
}

// SumBySession returns computed stock per item for a session.
func (r *MovementRepo) SumBySession(ctx context.Context, sessionID id.ID) ([]ledger.Stock, error) {
	q := r.builder.Select(
		"m.item_id",
		"i.name AS item_name",
		"SUM(m.amount)::bigint AS total",
	).
		From(movementsTable+" m").
		Join(itemsTable+" i ON i.id = m.item_id").
		Where(squirrel.Eq{"m.session_id": sessionID}).
		GroupBy("m.item_id", "i.name").
		OrderBy("i.name")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var stocks []ledger.Stock
	if err := pgxscan.Select(ctx, r.querier(ctx), &stocks, sql, args...); err != nil {
		return nil, fmt.Errorf("sum movements: %w", err)
	}
	return stocks, nil
}

// SumBySessionItem returns computed stock of one item at a session.
// An item with no movements has stock zero.
func (r *MovementRepo) SumBySessionItem(ctx context.Context, sessionID, itemID id.ID) (int, error) {
	q := r.builder.Select("COALESCE(SUM(amount), 0)::bigint").
		From(movementsTable).
		Where(squirrel.Eq{
			"session_id": sessionID,
			"item_id":    itemID,
		})

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	var total int
	if err := r.querier(ctx).QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum movements for item: %w", err)
	}
	return total, nil
}

// SumAtTime returns stock per item counting only movements dated at or
// before the given time.
func (r *MovementRepo) SumAtTime(ctx context.Context, sessionID id.ID, at time.Time) ([]ledger.Stock, error) {
	q := r.builder.Select(
		"m.item_id",
		"i.name AS item_name",
		"SUM(m.amount)::bigint AS total",
	).
		From(movementsTable+" m").
		Join(itemsTable+" i ON i.id = m.item_id").
		Where(squirrel.Eq{"m.session_id": sessionID}).
		Where(squirrel.LtOrEq{"m.created_at": at}).
		GroupBy("m.item_id", "i.name").
		OrderBy("i.name")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var stocks []ledger.Stock
	if err := pgxscan.Select(ctx, r.querier(ctx), &stocks, sql, args...); err != nil {
		return nil, fmt.Errorf("sum movements at time: %w", err)
	}
	return stocks, nil
}
