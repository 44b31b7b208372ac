package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/SahilSarmalkar99/MumbaiHacks/internal/catalog"
	catalogstore "github.com/SahilSarmalkar99/MumbaiHacks/internal/catalog/store"
	"github.com/SahilSarmalkar99/MumbaiHacks/internal/database"
	"github.com/SahilSarmalkar99/MumbaiHacks/internal/inventory"
	"github.com/SahilSarmalkar99/MumbaiHacks/internal/txn"
)

type Store struct {
	db     *sql.DB
	policy txn.Policy
}

func New(db *sql.DB, policy txn.Policy) *Store {
	return &Store{db: db, policy: policy}
}

func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, tx inventory.Tx) error) error {
	return database.RunInTx(ctx, s.db, s.policy, func(ctx context.Context, tx *sql.Tx) error {
		return fn(ctx, &TxOps{Tx: tx})
	})
}

func (s *Store) ListLogs(ctx context.Context, filter inventory.LogFilter) ([]*inventory.LogEntry, error) {
	query := `
		SELECT id, product_id, change, previous_stock, new_stock, reason, actor_id, created_at
		FROM inventory_logs
		WHERE TRUE`

	var args []any

	argIdx := 1

	if filter.ProductID != nil {
		query += fmt.Sprintf(" AND product_id = $%d", argIdx)

		args = append(args, *filter.ProductID)
		argIdx++
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", argIdx)

	args = append(args, filter.Limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing inventory logs: %w", err)
	}
	defer rows.Close()

	var entries []*inventory.LogEntry

	for rows.Next() {
		var e inventory.LogEntry
		if err := rows.Scan(
			&e.ID, &e.ProductID, &e.Change, &e.PreviousStock, &e.NewStock, &e.Reason, &e.ActorID, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning inventory log: %w", err)
		}

		entries = append(entries, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating inventory log rows: %w", err)
	}

	return entries, nil
}

// TxOps implements inventory.Tx on top of a serializable *sql.Tx. Product
// reads take a row lock so concurrent writers queue instead of conflicting.
type TxOps struct {
	Tx *sql.Tx
}

func (o *TxOps) GetProduct(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	query := `SELECT ` + catalogstore.SelectColumns + `
		FROM products p
		WHERE p.id = $1 AND p.deleted_at IS NULL
		FOR UPDATE`

	p, err := catalogstore.ScanProduct(o.Tx.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, catalog.ErrNotFound
		}

		return nil, fmt.Errorf("locking product: %w", err)
	}

	return p, nil
}

func (o *TxOps) SetStock(ctx context.Context, id uuid.UUID, stock int64) error {
	query := `
		UPDATE products
		SET stock = $1, updated_at = NOW()
		WHERE id = $2
	`

	if _, err := o.Tx.ExecContext(ctx, query, stock, id); err != nil {
		return fmt.Errorf("updating stock: %w", err)
	}

	return nil
}

func (o *TxOps) AppendLog(ctx context.Context, e *inventory.LogEntry) error {
	query := `
		INSERT INTO inventory_logs (id, product_id, change, previous_stock, new_stock, reason, actor_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	if _, err := o.Tx.ExecContext(ctx, query,
		e.ID, e.ProductID, e.Change, e.PreviousStock, e.NewStock, e.Reason, e.ActorID, e.CreatedAt,
	); err != nil {
		return fmt.Errorf("inserting inventory log: %w", err)
	}

	return nil
}

func (o *TxOps) SumLogs(ctx context.Context, productID uuid.UUID) (int64, error) {
	var sum int64

	query := `SELECT COALESCE(SUM(change), 0) FROM inventory_logs WHERE product_id = $1`
	if err := o.Tx.QueryRowContext(ctx, query, productID).Scan(&sum); err != nil {
		return 0, fmt.Errorf("summing inventory logs: %w", err)
	}

	return sum, nil
}
