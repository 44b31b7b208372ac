package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SahilSarmalkar99/MumbaiHacks/internal/catalog"
	"github.com/SahilSarmalkar99/MumbaiHacks/internal/checkout"
	"github.com/SahilSarmalkar99/MumbaiHacks/internal/inventory"
	"github.com/SahilSarmalkar99/MumbaiHacks/internal/invoice"
	"github.com/SahilSarmalkar99/MumbaiHacks/internal/store/memory"
	"github.com/SahilSarmalkar99/MumbaiHacks/internal/txn"
)

var (
	_ catalog.Repository   = (*memory.Store)(nil)
	_ inventory.Repository = (*memory.Store)(nil)
	_ invoice.Repository   = (*memory.Store)(nil)
	_ checkout.Store       = (*memory.Store)(nil)
)

func newProduct(name, sku string, stock int64) *catalog.Product {
	return &catalog.Product{
		ID:        uuid.New(),
		Name:      name,
		SKU:       sku,
		UnitPrice: decimal.NewFromInt(10),
		Currency:  "INR",
		Stock:     stock,
	}
}

func TestStore_Products(t *testing.T) {
	ctx := context.Background()
	st := memory.New()

	chai := newProduct("Masala Chai", "TEA-1", 4)
	atta := newProduct("atta 10kg", "FLR-10", 0)
	gone := newProduct("Biscuits", "BIS-1", 2)

	for _, p := range []*catalog.Product{chai, atta, gone} {
		require.NoError(t, st.CreateProduct(ctx, p, "seed"))
	}

	require.NoError(t, st.DeleteProduct(ctx, gone.ID))
	assert.ErrorIs(t, st.DeleteProduct(ctx, gone.ID), catalog.ErrNotFound)

	_, err := st.GetProduct(ctx, gone.ID)
	assert.ErrorIs(t, err, catalog.ErrNotFound)

	all, err := st.ListProducts(ctx, catalog.ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "atta 10kg", all[0].Name)
	assert.Equal(t, "Masala Chai", all[1].Name)

	withDeleted, err := st.ListProducts(ctx, catalog.ListFilter{IncludeDeleted: true})
	require.NoError(t, err)
	assert.Len(t, withDeleted, 3)

	bySKU, err := st.ListProducts(ctx, catalog.ListFilter{Query: "tea"})
	require.NoError(t, err)
	require.Len(t, bySKU, 1)
	assert.Equal(t, chai.ID, bySKU[0].ID)

	// Opening stock is logged only when non-zero.
	logs, err := st.ListLogs(ctx, inventory.LogFilter{})
	require.NoError(t, err)
	assert.Len(t, logs, 2)
}

func TestStore_UpdateProductKeepsStock(t *testing.T) {
	ctx := context.Background()
	st := memory.New()

	p := newProduct("Soap", "", 6)
	require.NoError(t, st.CreateProduct(ctx, p, "seed"))

	edit := *p
	edit.Name = "Neem Soap"
	edit.Stock = 999
	require.NoError(t, st.UpdateProduct(ctx, &edit))

	got, err := st.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Neem Soap", got.Name)
	assert.Equal(t, int64(6), got.Stock)
	assert.Equal(t, int64(6), edit.Stock)
}

func TestStore_ConflictingCommitIsRetried(t *testing.T) {
	ctx := context.Background()
	st := memory.New(memory.WithPolicy(txn.Policy{MaxAttempts: 3}))

	p := newProduct("Soap", "", 6)
	require.NoError(t, st.CreateProduct(ctx, p, "seed"))

	runs := 0
	err := st.RunInTx(ctx, func(ctx context.Context, tx inventory.Tx) error {
		runs++

		got, err := tx.GetProduct(ctx, p.ID)
		if err != nil {
			return err
		}

		if runs == 1 {
			// A competing writer commits between our read and our commit.
			st.Corrupt(p.ID, got.Stock+100)
		}

		return tx.SetStock(ctx, p.ID, got.Stock-1)
	})
	require.NoError(t, err)

	assert.Equal(t, 2, runs)

	got, err := st.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(105), got.Stock)
}

func TestStore_AbortedTxLeavesNoTrace(t *testing.T) {
	ctx := context.Background()
	st := memory.New()

	p := newProduct("Soap", "", 6)
	require.NoError(t, st.CreateProduct(ctx, p, "seed"))

	errBoom := errors.New("boom")
	err := st.RunCheckout(ctx, func(ctx context.Context, tx checkout.Tx) error {
		if err := tx.SetStock(ctx, p.ID, 0); err != nil {
			return err
		}

		if err := tx.CreateInvoice(ctx, &invoice.Invoice{ID: uuid.New()}); err != nil {
			return err
		}

		return errBoom
	})
	assert.ErrorIs(t, err, errBoom)

	got, err := st.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(6), got.Stock)

	invs, err := st.ListInvoices(ctx, invoice.ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, invs)
}

func TestStore_Invoices(t *testing.T) {
	ctx := context.Background()
	st := memory.New()

	base := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	mk := func(seller string, day int, status invoice.Status) *invoice.Invoice {
		inv := &invoice.Invoice{
			ID:        uuid.New(),
			SellerID:  seller,
			Buyer:     invoice.BuyerInfo{Name: "b", Contact: "c", Date: base.AddDate(0, 0, day), Status: status},
			CreatedAt: base.AddDate(0, 0, day),
		}

		require.NoError(t, st.RunCheckout(ctx, func(ctx context.Context, tx checkout.Tx) error {
			return tx.CreateInvoice(ctx, inv)
		}))

		return inv
	}

	first := mk("s1", 1, invoice.StatusDraft)
	second := mk("s1", 5, invoice.StatusPending)
	mk("s2", 3, invoice.StatusPaid)

	got, err := st.ListInvoices(ctx, invoice.ListFilter{SellerID: "s1"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, second.ID, got[0].ID)
	assert.Equal(t, first.ID, got[1].ID)

	start := base.AddDate(0, 0, 2)
	got, err = st.ListInvoices(ctx, invoice.ListFilter{StartDate: &start, Limit: 1})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, second.ID, got[0].ID)

	require.NoError(t, st.UpdateStatus(ctx, first.ID, invoice.StatusDraft, invoice.StatusSent))
	assert.ErrorIs(t, st.UpdateStatus(ctx, first.ID, invoice.StatusDraft, invoice.StatusPaid), invoice.ErrStatusChanged)

	require.NoError(t, st.DeleteInvoice(ctx, first.ID))
	_, err = st.GetInvoice(ctx, first.ID)
	assert.ErrorIs(t, err, invoice.ErrNotFound)
	assert.ErrorIs(t, st.DeleteInvoice(ctx, first.ID), invoice.ErrNotFound)
}
