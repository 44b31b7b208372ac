package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/SahilSarmalkar99/MumbaiHacks/internal/invoice"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

// Execer is satisfied by *sql.DB and *sql.Tx.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

const selectInvoiceColumns = `
	id, seller_id, buyer_name, buyer_contact, buyer_address, buyer_date, status, items,
	subtotal, total_tax, total, currency, payment_method, template_id, created_at, updated_at, deleted_at
`

func scanInvoice(s scanner) (*invoice.Invoice, error) {
	var inv invoice.Invoice

	var status, payment string

	var items []byte

	if err := s.Scan(
		&inv.ID, &inv.SellerID, &inv.Buyer.Name, &inv.Buyer.Contact, &inv.Buyer.Address, &inv.Buyer.Date, &status, &items,
		&inv.Subtotal, &inv.TotalTax, &inv.Total, &inv.Currency, &payment, &inv.TemplateID,
		&inv.CreatedAt, &inv.UpdatedAt, &inv.DeletedAt,
	); err != nil {
		return nil, err
	}

	inv.Buyer.Status = invoice.Status(status)
	inv.PaymentMethod = invoice.PaymentMethod(payment)

	if err := json.Unmarshal(items, &inv.Items); err != nil {
		return nil, fmt.Errorf("decoding line items: %w", err)
	}

	return &inv, nil
}

// Insert writes a new invoice row through ex, which is usually the checkout
// transaction.
func Insert(ctx context.Context, ex Execer, inv *invoice.Invoice) error {
	items, err := json.Marshal(inv.Items)
	if err != nil {
		return fmt.Errorf("encoding line items: %w", err)
	}

	query := `
		INSERT INTO invoices (
			id, seller_id, buyer_name, buyer_contact, buyer_address, buyer_date, status, items,
			subtotal, total_tax, total, currency, payment_method, template_id, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err = ex.ExecContext(ctx, query,
		inv.ID,
		inv.SellerID,
		inv.Buyer.Name,
		inv.Buyer.Contact,
		inv.Buyer.Address,
		inv.Buyer.Date,
		inv.Buyer.Status,
		items,
		inv.Subtotal,
		inv.TotalTax,
		inv.Total,
		inv.Currency,
		inv.PaymentMethod,
		inv.TemplateID,
		inv.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting invoice: %w", err)
	}

	return nil
}

func (s *Store) GetInvoice(ctx context.Context, id uuid.UUID) (*invoice.Invoice, error) {
	query := `SELECT ` + selectInvoiceColumns + ` FROM invoices WHERE id = $1 AND deleted_at IS NULL`

	inv, err := scanInvoice(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, invoice.ErrNotFound
		}

		return nil, fmt.Errorf("getting invoice: %w", err)
	}

	return inv, nil
}

func (s *Store) ListInvoices(ctx context.Context, filter invoice.ListFilter) ([]*invoice.Invoice, error) {
	query := `SELECT ` + selectInvoiceColumns + ` FROM invoices WHERE deleted_at IS NULL`

	var args []any

	argIdx := 1

	if filter.SellerID != "" {
		query += fmt.Sprintf(" AND seller_id = $%d", argIdx)

		args = append(args, filter.SellerID)
		argIdx++
	}

	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argIdx)

		args = append(args, *filter.Status)
		argIdx++
	}

	if filter.StartDate != nil {
		query += fmt.Sprintf(" AND buyer_date >= $%d", argIdx)

		args = append(args, *filter.StartDate)
		argIdx++
	}

	if filter.EndDate != nil {
		query += fmt.Sprintf(" AND buyer_date <= $%d", argIdx)

		args = append(args, *filter.EndDate)
		argIdx++
	}

	query += " ORDER BY created_at DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)

		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing invoices: %w", err)
	}
	defer rows.Close()

	var invoices []*invoice.Invoice

	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning invoice: %w", err)
		}

		invoices = append(invoices, inv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating invoice rows: %w", err)
	}

	return invoices, nil
}

func (s *Store) UpdateStatus(ctx context.Context, id uuid.UUID, from, to invoice.Status) error {
	query := `
		UPDATE invoices
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3 AND deleted_at IS NULL
	`

	res, err := s.db.ExecContext(ctx, query, to, id, from)
	if err != nil {
		return fmt.Errorf("updating status: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating status: %w", err)
	}

	if n == 0 {
		return invoice.ErrStatusChanged
	}

	return nil
}

func (s *Store) DeleteInvoice(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE invoices
		SET deleted_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`

	res, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("deleting invoice: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting invoice: %w", err)
	}

	if n == 0 {
		return invoice.ErrNotFound
	}

	return nil
}
