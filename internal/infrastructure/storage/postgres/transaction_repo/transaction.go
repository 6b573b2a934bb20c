// Package transaction_repo provides the PostgreSQL implementation of the
// transaction repository. Transactions and positions are append-only.
package transaction_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"cashpoint/internal/core/apperror"
	"cashpoint/internal/core/id"
	"cashpoint/internal/core/types"
	"cashpoint/internal/domain/transaction"
	"cashpoint/internal/infrastructure/storage/postgres"
)

const (
	transactionsTable = "transactions"
	positionsTable    = "transaction_positions"
)

var positionColumns = []string{
	"id", "transaction_id", "session_id", "type",
	"product_id", "price", "reverses", "created_at",
}

// TransactionRepo implements transaction.Repository.
type TransactionRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewTransactionRepo creates a new transaction repository.
func NewTransactionRepo(txManager *postgres.TxManager) *TransactionRepo {
	return &TransactionRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *TransactionRepo) querier(ctx context.Context) postgres.Querier {
	return r.txManager.GetQuerier(ctx)
}

// Create inserts a transaction with its positions.
func (r *TransactionRepo) Create(ctx context.Context, t *transaction.Transaction, positions []transaction.Position) error {
	data := postgres.StructToMap(t)

	q := r.builder.Insert(transactionsTable).SetMap(data)
	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}

	if len(positions) == 0 {
		return nil
	}

	// COPY when inside a transaction, which Create always should be.
	if tx := r.txManager.GetTx(ctx); tx != nil {
		inserter := postgres.NewBatchInserter(r.txManager)
		rows := make([][]any, 0, len(positions))
		for _, p := range positions {
			rows = append(rows, []any{
				p.ID, p.TransactionID, p.SessionID, string(p.Type),
				p.ProductID, p.Price, p.Reverses, p.CreatedAt,
			})
		}
		if _, err := inserter.CopyFromSlice(ctx, positionsTable, positionColumns, rows); err != nil {
			return fmt.Errorf("copy positions: %w", err)
		}
		return nil
	}

	pq := r.builder.Insert(positionsTable).Columns(positionColumns...)
	for _, p := range positions {
		pq = pq.Values(
			p.ID, p.TransactionID, p.SessionID, string(p.Type),
			p.ProductID, p.Price, p.Reverses, p.CreatedAt,
		)
	}

	sql, args, err = pq.ToSql()
	if err != nil {
		return fmt.Errorf("build positions insert: %w", err)
	}
	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert positions: %w", err)
	}
	return nil
}

// GetByID retrieves a transaction by ID.
func (r *TransactionRepo) GetByID(ctx context.Context, transactionID id.ID) (*transaction.Transaction, error) {
	q := r.builder.Select(postgres.ExtractDBColumns[transaction.Transaction]()...).
		From(transactionsTable).
		Where(squirrel.Eq{"id": transactionID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var t transaction.Transaction
	if err := pgxscan.Get(ctx, r.querier(ctx), &t, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("transaction", transactionID.String())
		}
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	return &t, nil
}

// ListBySession returns all transactions of a session in receipt order.
func (r *TransactionRepo) ListBySession(ctx context.Context, sessionID id.ID) ([]transaction.Transaction, error) {
	q := r.builder.Select(postgres.ExtractDBColumns[transaction.Transaction]()...).
		From(transactionsTable).
		Where(squirrel.Eq{"session_id": sessionID}).
		OrderBy("created_at", "id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var transactions []transaction.Transaction
	if err := pgxscan.Select(ctx, r.querier(ctx), &transactions, sql, args...); err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return transactions, nil
}

// ListPositionsByTransaction returns a receipt's positions.
func (r *TransactionRepo) ListPositionsByTransaction(ctx context.Context, transactionID id.ID) ([]transaction.Position, error) {
	return r.listPositions(ctx, squirrel.Eq{"transaction_id": transactionID})
}

// ListPositionsBySession returns every position of a session.
func (r *TransactionRepo) ListPositionsBySession(ctx context.Context, sessionID id.ID) ([]transaction.Position, error) {
	return r.listPositions(ctx, squirrel.Eq{"session_id": sessionID})
}

func (r *TransactionRepo) listPositions(ctx context.Context, cond squirrel.Sqlizer) ([]transaction.Position, error) {
	q := r.builder.Select(positionColumns...).
		From(positionsTable).
		Where(cond).
		OrderBy("created_at", "id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var positions []transaction.Position
	if err := pgxscan.Select(ctx, r.querier(ctx), &positions, sql, args...); err != nil {
		return nil, fmt.Errorf("list positions: %w", err)
	}
	return positions, nil
}

// CashTotalBySession sums the signed cash effect of a session's positions:
// sales count positive, reversals negative.
func (r *TransactionRepo) CashTotalBySession(ctx context.Context, sessionID id.ID) (types.Money, error) {
	q := r.builder.Select(
		"COALESCE(SUM(CASE WHEN type = 'reversal' THEN -price ELSE price END), 0) AS total",
	).
		From(positionsTable).
		Where(squirrel.Eq{"session_id": sessionID})

	sql, args, err := q.ToSql()
	if err != nil {
		return types.Zero(), fmt.Errorf("build query: %w", err)
	}

	var total types.Money
	if err := r.querier(ctx).QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return types.Zero(), fmt.Errorf("sum cash: %w", err)
	}
	return total, nil
}
