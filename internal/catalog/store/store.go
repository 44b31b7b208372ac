package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/SahilSarmalkar99/MumbaiHacks/internal/catalog"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Scanner is satisfied by both *sql.Row and *sql.Rows.
type Scanner interface {
	Scan(dest ...any) error
}

// SelectColumns is the column list ScanProduct expects, qualified with the p alias.
const SelectColumns = `
	p.id, p.name, p.sku, p.unit_price, p.currency, p.stock, p.tax_percent, p.unit,
	p.allow_negative_stock, p.created_at, p.updated_at, p.deleted_at
`

// ScanProduct reads a product row in SelectColumns order.
func ScanProduct(s Scanner) (*catalog.Product, error) {
	var p catalog.Product

	if err := s.Scan(
		&p.ID, &p.Name, &p.SKU, &p.UnitPrice, &p.Currency, &p.Stock, &p.TaxPercent, &p.Unit,
		&p.AllowNegativeStock, &p.CreatedAt, &p.UpdatedAt, &p.DeletedAt,
	); err != nil {
		return nil, err
	}

	return &p, nil
}

func (s *Store) CreateProduct(ctx context.Context, p *catalog.Product, actorID string) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer dbTx.Rollback()

	query := `
		INSERT INTO products (id, name, sku, unit_price, currency, stock, tax_percent, unit, allow_negative_stock, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		RETURNING created_at
	`

	err = dbTx.QueryRowContext(ctx, query,
		p.ID,
		p.Name,
		p.SKU,
		p.UnitPrice,
		p.Currency,
		p.Stock,
		p.TaxPercent,
		p.Unit,
		p.AllowNegativeStock,
	).Scan(&p.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating product: %w", err)
	}

	if p.Stock != 0 {
		logQuery := `
			INSERT INTO inventory_logs (id, product_id, change, previous_stock, new_stock, reason, actor_id, created_at)
			VALUES ($1, $2, $3, 0, $3, $4, $5, $6)
		`
		if _, err := dbTx.ExecContext(ctx, logQuery,
			uuid.New(), p.ID, p.Stock, catalog.OpeningStockReason, actorID, p.CreatedAt,
		); err != nil {
			return fmt.Errorf("logging opening stock: %w", err)
		}
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

func (s *Store) GetProduct(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	query := `SELECT ` + SelectColumns + ` FROM products p WHERE p.id = $1 AND p.deleted_at IS NULL`

	p, err := ScanProduct(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, catalog.ErrNotFound
		}

		return nil, fmt.Errorf("getting product: %w", err)
	}

	return p, nil
}

func (s *Store) ListProducts(ctx context.Context, filter catalog.ListFilter) ([]*catalog.Product, error) {
	query := `SELECT ` + SelectColumns + ` FROM products p WHERE TRUE`

	var args []any

	argIdx := 1

	if !filter.IncludeDeleted {
		query += " AND p.deleted_at IS NULL"
	}

	if filter.Query != "" {
		query += fmt.Sprintf(" AND (p.name ILIKE $%d OR p.sku ILIKE $%d)", argIdx, argIdx)

		args = append(args, "%"+filter.Query+"%")
		argIdx++
	}

	query += " ORDER BY lower(p.name) ASC, p.created_at ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	defer rows.Close()

	var products []*catalog.Product

	for rows.Next() {
		p, err := ScanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning product: %w", err)
		}

		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating product rows: %w", err)
	}

	return products, nil
}

// UpdateProduct writes the catalog fields of p and refreshes p.Stock and
// p.UpdatedAt from the stored row.
func (s *Store) UpdateProduct(ctx context.Context, p *catalog.Product) error {
	query := `
		UPDATE products
		SET name = $1, sku = $2, unit_price = $3, currency = $4, tax_percent = $5, unit = $6,
			allow_negative_stock = $7, updated_at = NOW()
		WHERE id = $8 AND deleted_at IS NULL
		RETURNING stock, updated_at
	`

	err := s.db.QueryRowContext(ctx, query,
		p.Name,
		p.SKU,
		p.UnitPrice,
		p.Currency,
		p.TaxPercent,
		p.Unit,
		p.AllowNegativeStock,
		p.ID,
	).Scan(&p.Stock, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return catalog.ErrNotFound
		}

		return fmt.Errorf("updating product: %w", err)
	}

	return nil
}

func (s *Store) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE products
		SET deleted_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`

	res, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("deleting product: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting product: %w", err)
	}

	if n == 0 {
		return catalog.ErrNotFound
	}

	return nil
}
