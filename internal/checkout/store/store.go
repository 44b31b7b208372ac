package store

import (
	"context"
	"database/sql"

	"github.com/SahilSarmalkar99/MumbaiHacks/internal/checkout"
	"github.com/SahilSarmalkar99/MumbaiHacks/internal/database"
	inventorystore "github.com/SahilSarmalkar99/MumbaiHacks/internal/inventory/store"
	"github.com/SahilSarmalkar99/MumbaiHacks/internal/invoice"
	invoicestore "github.com/SahilSarmalkar99/MumbaiHacks/internal/invoice/store"
	"github.com/SahilSarmalkar99/MumbaiHacks/internal/txn"
)

type Store struct {
	db     *sql.DB
	policy txn.Policy
}

func New(db *sql.DB, policy txn.Policy) *Store {
	return &Store{db: db, policy: policy}
}

type checkoutTx struct {
	*inventorystore.TxOps
}

func (t checkoutTx) CreateInvoice(ctx context.Context, inv *invoice.Invoice) error {
	return invoicestore.Insert(ctx, t.Tx, inv)
}

func (s *Store) RunCheckout(ctx context.Context, fn func(ctx context.Context, tx checkout.Tx) error) error {
	return database.RunInTx(ctx, s.db, s.policy, func(ctx context.Context, tx *sql.Tx) error {
		return fn(ctx, checkoutTx{TxOps: &inventorystore.TxOps{Tx: tx}})
	})
}
