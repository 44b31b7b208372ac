package checkout_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/SahilSarmalkar99/MumbaiHacks/internal/apperr"
	"github.com/SahilSarmalkar99/MumbaiHacks/internal/catalog"
	"github.com/SahilSarmalkar99/MumbaiHacks/internal/checkout"
	"github.com/SahilSarmalkar99/MumbaiHacks/internal/inventory"
	"github.com/SahilSarmalkar99/MumbaiHacks/internal/invoice"
	"github.com/SahilSarmalkar99/MumbaiHacks/internal/store/memory"
	"github.com/SahilSarmalkar99/MumbaiHacks/internal/txn"
)

var fixedNow = time.Date(2026, 5, 14, 9, 30, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

type fixture struct {
	store *memory.Store
	tr    *checkout.Transactor
}

func newFixture(t *testing.T, notifier checkout.Notifier, opts ...memory.Option) *fixture {
	t.Helper()

	opts = append([]memory.Option{memory.WithClock(clock)}, opts...)
	st := memory.New(opts...)

	return &fixture{store: st, tr: checkout.NewTransactor(st, notifier, clock)}
}

func (f *fixture) product(t *testing.T, stock int64, price, tax string) *catalog.Product {
	t.Helper()

	p := &catalog.Product{
		ID:         uuid.New(),
		Name:       "item-" + price,
		UnitPrice:  decimal.RequireFromString(price),
		Currency:   "INR",
		Stock:      stock,
		TaxPercent: decimal.RequireFromString(tax),
	}
	require.NoError(t, f.store.CreateProduct(context.Background(), p, "seed"))

	return p
}

func (f *fixture) stock(t *testing.T, id uuid.UUID) int64 {
	t.Helper()

	p, err := f.store.GetProduct(context.Background(), id)
	require.NoError(t, err)

	return p.Stock
}

func (f *fixture) logs(t *testing.T, id uuid.UUID) []*inventory.LogEntry {
	t.Helper()

	entries, err := f.store.ListLogs(context.Background(), inventory.LogFilter{ProductID: &id})
	require.NoError(t, err)

	return entries
}

func (f *fixture) invoiceCount(t *testing.T) int {
	t.Helper()

	invs, err := f.store.ListInvoices(context.Background(), invoice.ListFilter{})
	require.NoError(t, err)

	return len(invs)
}

func request(lines ...checkout.Line) checkout.Request {
	return checkout.Request{
		SellerID:      "seller-1",
		Buyer:         invoice.BuyerInfo{Name: "Asha", Contact: "9876543210"},
		Lines:         lines,
		PaymentMethod: invoice.PaymentCash,
	}
}

func TestCheckout_Success(t *testing.T) {
	f := newFixture(t, nil)
	p := f.product(t, 10, "100", "18")

	inv, err := f.tr.Checkout(context.Background(), request(checkout.Line{ProductID: p.ID, Quantity: 2}))
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, inv.ID)
	assert.True(t, inv.Subtotal.Equal(decimal.NewFromInt(200)), inv.Subtotal.String())
	assert.True(t, inv.TotalTax.Equal(decimal.NewFromInt(36)), inv.TotalTax.String())
	assert.True(t, inv.Total.Equal(decimal.NewFromInt(236)), inv.Total.String())
	assert.Equal(t, invoice.StatusDraft, inv.Buyer.Status)
	assert.Equal(t, fixedNow, inv.Buyer.Date)
	assert.Equal(t, invoice.DefaultTemplate, inv.TemplateID)
	assert.Equal(t, "INR", inv.Currency)

	assert.Equal(t, int64(8), f.stock(t, p.ID))

	entries := f.logs(t, p.ID)
	require.Len(t, entries, 2)

	sale := entries[0]
	assert.Equal(t, int64(-2), sale.Change)
	assert.Equal(t, int64(10), sale.PreviousStock)
	assert.Equal(t, int64(8), sale.NewStock)
	assert.Equal(t, checkout.SaleReason, sale.Reason)
	assert.Equal(t, "seller-1", sale.ActorID)

	stored, err := f.store.GetInvoice(context.Background(), inv.ID)
	require.NoError(t, err)
	assert.True(t, stored.Total.Equal(inv.Total))
}

func TestCheckout_InsufficientStock(t *testing.T) {
	f := newFixture(t, nil)
	p := f.product(t, 1, "50", "0")

	_, err := f.tr.Checkout(context.Background(), request(checkout.Line{ProductID: p.ID, Quantity: 5}))

	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperr.KindInsufficientStock, appErr.Kind)
	assert.Equal(t, []apperr.FailedItem{{ProductID: p.ID, Requested: 5, Available: 1}}, appErr.FailedItems)

	assert.Equal(t, int64(1), f.stock(t, p.ID))
	assert.Equal(t, 0, f.invoiceCount(t))
}

func TestCheckout_ReportsEveryFailedLine(t *testing.T) {
	f := newFixture(t, nil)
	ok := f.product(t, 10, "10", "5")
	short := f.product(t, 2, "20", "5")
	missing := uuid.New()

	_, err := f.tr.Checkout(context.Background(), request(
		checkout.Line{ProductID: ok.ID, Quantity: 3},
		checkout.Line{ProductID: short.ID, Quantity: 4},
		checkout.Line{ProductID: missing, Quantity: 1},
	))

	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperr.KindInsufficientStock, appErr.Kind)
	assert.Equal(t, []apperr.FailedItem{
		{ProductID: short.ID, Requested: 4, Available: 2},
		{ProductID: missing, Requested: 1, Available: 0},
	}, appErr.FailedItems)

	assert.Equal(t, int64(10), f.stock(t, ok.ID))
	assert.Equal(t, int64(2), f.stock(t, short.ID))
	assert.Len(t, f.logs(t, ok.ID), 1)
	assert.Len(t, f.logs(t, short.ID), 1)
	assert.Equal(t, 0, f.invoiceCount(t))
}

func TestCheckout_FailureIsRepeatable(t *testing.T) {
	f := newFixture(t, nil)
	p := f.product(t, 3, "10", "0")
	req := request(checkout.Line{ProductID: p.ID, Quantity: 4})

	_, first := f.tr.Checkout(context.Background(), req)
	require.Error(t, first)

	for range 3 {
		_, err := f.tr.Checkout(context.Background(), req)
		assert.Equal(t, first.Error(), err.Error())
	}

	assert.Equal(t, int64(3), f.stock(t, p.ID))
	assert.Len(t, f.logs(t, p.ID), 1)
	assert.Equal(t, 0, f.invoiceCount(t))
}

func TestCheckout_DuplicateLinesConsumeSequentially(t *testing.T) {
	f := newFixture(t, nil)
	p := f.product(t, 5, "10", "0")

	t.Run("Fits", func(t *testing.T) {
		inv, err := f.tr.Checkout(context.Background(), request(
			checkout.Line{ProductID: p.ID, Quantity: 2},
			checkout.Line{ProductID: p.ID, Quantity: 1},
		))
		require.NoError(t, err)
		assert.Len(t, inv.Items, 2)
		assert.Equal(t, int64(2), f.stock(t, p.ID))

		entries := f.logs(t, p.ID)
		require.Len(t, entries, 3)
		assert.Equal(t, int64(3), entries[0].PreviousStock)
		assert.Equal(t, int64(2), entries[0].NewStock)
		assert.Equal(t, int64(5), entries[1].PreviousStock)
		assert.Equal(t, int64(3), entries[1].NewStock)
	})

	t.Run("SecondLineShort", func(t *testing.T) {
		_, err := f.tr.Checkout(context.Background(), request(
			checkout.Line{ProductID: p.ID, Quantity: 2},
			checkout.Line{ProductID: p.ID, Quantity: 1},
		))

		var appErr *apperr.Error
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, []apperr.FailedItem{{ProductID: p.ID, Requested: 1, Available: 0}}, appErr.FailedItems)
		assert.Equal(t, int64(2), f.stock(t, p.ID))
	})
}

func TestCheckout_InvalidRequest(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name string
		req  checkout.Request
	}{
		{name: "EmptyCart", req: request()},
		{name: "ZeroQuantity", req: request(checkout.Line{ProductID: id, Quantity: 0})},
		{name: "NilProduct", req: request(checkout.Line{Quantity: 1})},
		{name: "HugeQuantity", req: request(checkout.Line{ProductID: id, Quantity: math.MaxInt64})},
		{name: "MissingBuyerName", req: func() checkout.Request {
			r := request(checkout.Line{ProductID: id, Quantity: 1})
			r.Buyer.Name = "  "

			return r
		}()},
		{name: "MissingContact", req: func() checkout.Request {
			r := request(checkout.Line{ProductID: id, Quantity: 1})
			r.Buyer.Contact = ""

			return r
		}()},
		{name: "UnknownPayment", req: func() checkout.Request {
			r := request(checkout.Line{ProductID: id, Quantity: 1})
			r.PaymentMethod = "cheque"

			return r
		}()},
		{name: "UnknownStatus", req: func() checkout.Request {
			r := request(checkout.Line{ProductID: id, Quantity: 1})
			r.Buyer.Status = "overdue"

			return r
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)

			// No expectations: an invalid request must never reach the store.
			st := checkout.NewMockStore(ctrl)
			tr := checkout.NewTransactor(st, nil, clock)

			_, err := tr.Checkout(context.Background(), tt.req)
			assert.Equal(t, apperr.KindInvalidRequest, apperr.KindOf(err))
		})
	}
}

func TestCheckout_MixedCurrencies(t *testing.T) {
	f := newFixture(t, nil)
	inr := f.product(t, 5, "10", "0")

	usd := &catalog.Product{ID: uuid.New(), Name: "import", UnitPrice: decimal.NewFromInt(3), Currency: "USD", Stock: 5}
	require.NoError(t, f.store.CreateProduct(context.Background(), usd, "seed"))

	_, err := f.tr.Checkout(context.Background(), request(
		checkout.Line{ProductID: inr.ID, Quantity: 1},
		checkout.Line{ProductID: usd.ID, Quantity: 1},
	))

	assert.Equal(t, apperr.KindInvalidRequest, apperr.KindOf(err))
	assert.Equal(t, int64(5), f.stock(t, inr.ID))
	assert.Equal(t, int64(5), f.stock(t, usd.ID))
}

func TestCheckout_DeletedProductIsMissing(t *testing.T) {
	f := newFixture(t, nil)
	p := f.product(t, 5, "10", "0")
	require.NoError(t, f.store.DeleteProduct(context.Background(), p.ID))

	_, err := f.tr.Checkout(context.Background(), request(checkout.Line{ProductID: p.ID, Quantity: 1}))

	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, []apperr.FailedItem{{ProductID: p.ID, Requested: 1, Available: 0}}, appErr.FailedItems)
}

func TestCheckout_UsesCurrentPrice(t *testing.T) {
	f := newFixture(t, nil)
	p := f.product(t, 5, "10", "0")

	first, err := f.tr.Checkout(context.Background(), request(checkout.Line{ProductID: p.ID, Quantity: 1}))
	require.NoError(t, err)

	p.UnitPrice = decimal.NewFromInt(12)
	require.NoError(t, f.store.UpdateProduct(context.Background(), p))

	second, err := f.tr.Checkout(context.Background(), request(checkout.Line{ProductID: p.ID, Quantity: 1}))
	require.NoError(t, err)

	assert.True(t, second.Total.Equal(decimal.NewFromInt(12)))

	stored, err := f.store.GetInvoice(context.Background(), first.ID)
	require.NoError(t, err)
	assert.True(t, stored.Total.Equal(decimal.NewFromInt(10)), "earlier invoice keeps its snapshot")
}

func TestCheckout_ConcurrentSalesNeverOversell(t *testing.T) {
	f := newFixture(t, nil, memory.WithPolicy(txn.Policy{MaxAttempts: 50, BaseDelay: time.Microsecond}))
	p := f.product(t, 10, "10", "0")

	const buyers = 8

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		short     int
	)

	for range buyers {
		wg.Go(func() {
			_, err := f.tr.Checkout(context.Background(), request(checkout.Line{ProductID: p.ID, Quantity: 3}))

			mu.Lock()
			defer mu.Unlock()

			switch {
			case err == nil:
				succeeded++
			case apperr.Is(err, apperr.KindInsufficientStock):
				short++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		})
	}

	wg.Wait()

	assert.Equal(t, 3, succeeded)
	assert.Equal(t, buyers-3, short)
	assert.Equal(t, int64(1), f.stock(t, p.ID))
	assert.Equal(t, 3, f.invoiceCount(t))
	assert.Len(t, f.logs(t, p.ID), 4)
}

func TestCheckout_TwoBuyersOneWins(t *testing.T) {
	f := newFixture(t, nil)
	p := f.product(t, 5, "10", "0")

	start := make(chan struct{})
	errs := make(chan error, 2)

	for _, qty := range []int64{3, 4} {
		go func() {
			<-start

			_, err := f.tr.Checkout(context.Background(), request(checkout.Line{ProductID: p.ID, Quantity: qty}))
			errs <- err
		}()
	}

	close(start)

	var failures []error

	for range 2 {
		if err := <-errs; err != nil {
			failures = append(failures, err)
		}
	}

	require.Len(t, failures, 1)

	var appErr *apperr.Error
	require.ErrorAs(t, failures[0], &appErr)
	require.Len(t, appErr.FailedItems, 1)

	// The loser sees the stock left by the winner.
	left := f.stock(t, p.ID)
	assert.Equal(t, left, appErr.FailedItems[0].Available)
	assert.Contains(t, []int64{1, 2}, left)
}

func TestCheckout_RetriesConflicts(t *testing.T) {
	attempts := 0
	hook := func(attempt int) error {
		attempts = attempt
		if attempt < 3 {
			return txn.ErrConflict
		}

		return nil
	}

	f := newFixture(t, nil, memory.WithCommitHook(hook))
	p := f.product(t, 4, "10", "0")

	_, err := f.tr.Checkout(context.Background(), request(checkout.Line{ProductID: p.ID, Quantity: 1}))
	require.NoError(t, err)

	assert.Equal(t, 3, attempts)
	assert.Equal(t, int64(3), f.stock(t, p.ID))
	assert.Len(t, f.logs(t, p.ID), 2)
	assert.Equal(t, 1, f.invoiceCount(t))
}

func TestCheckout_StoreFailures(t *testing.T) {
	tests := []struct {
		name     string
		policy   txn.Policy
		hook     func(int) error
		wantKind apperr.Kind
	}{
		{
			name:     "ConflictsExhausted",
			policy:   txn.Policy{MaxAttempts: 2},
			hook:     func(int) error { return txn.ErrConflict },
			wantKind: apperr.KindWriteConflictExhausted,
		},
		{
			name:     "Unavailable",
			policy:   txn.Policy{MaxAttempts: 2},
			hook:     func(int) error { return fmt.Errorf("%w: disk gone", txn.ErrUnavailable) },
			wantKind: apperr.KindStoreUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil, memory.WithPolicy(tt.policy), memory.WithCommitHook(tt.hook))
			p := f.product(t, 4, "10", "0")

			_, err := f.tr.Checkout(context.Background(), request(checkout.Line{ProductID: p.ID, Quantity: 1}))

			var appErr *apperr.Error
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tt.wantKind, appErr.Kind)
			assert.True(t, appErr.Retryable())

			assert.Equal(t, int64(4), f.stock(t, p.ID))
			assert.Len(t, f.logs(t, p.ID), 1)
			assert.Equal(t, 0, f.invoiceCount(t))
		})
	}
}

func TestCheckout_ReadFailureAborts(t *testing.T) {
	ctrl := gomock.NewController(t)

	st := checkout.NewMockStore(ctrl)
	tx := checkout.NewMockTx(ctrl)

	id := uuid.New()

	st.EXPECT().
		RunCheckout(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, fn func(context.Context, checkout.Tx) error) error {
			return fn(ctx, tx)
		})
	tx.EXPECT().GetProduct(gomock.Any(), id).Return(nil, errors.New("connection reset"))

	tr := checkout.NewTransactor(st, nil, clock)
	_, err := tr.Checkout(context.Background(), request(checkout.Line{ProductID: id, Quantity: 1}))

	assert.Equal(t, apperr.KindStoreUnavailable, apperr.KindOf(err))
}

func TestCheckout_Notification(t *testing.T) {
	tests := []struct {
		name    string
		status  invoice.Status
		payment invoice.PaymentMethod
		notify  bool
	}{
		{name: "PendingUPI", status: invoice.StatusPending, payment: invoice.PaymentUPI, notify: true},
		{name: "PaidUPI", status: invoice.StatusPaid, payment: invoice.PaymentUPI},
		{name: "PendingCash", status: invoice.StatusPending, payment: invoice.PaymentCash},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			n := checkout.NewMockNotifier(ctrl)

			f := newFixture(t, n)
			p := f.product(t, 4, "10", "0")

			if tt.notify {
				n.EXPECT().InvoiceCreated(gomock.Any()).Do(func(inv *invoice.Invoice) {
					assert.True(t, inv.Total.Equal(decimal.NewFromInt(10)))
				})
			}

			req := request(checkout.Line{ProductID: p.ID, Quantity: 1})
			req.Buyer.Status = tt.status
			req.PaymentMethod = tt.payment

			_, err := f.tr.Checkout(context.Background(), req)
			require.NoError(t, err)
		})
	}
}

func TestCheckout_NoNotificationOnFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	n := checkout.NewMockNotifier(ctrl)

	f := newFixture(t, n)
	p := f.product(t, 0, "10", "0")

	req := request(checkout.Line{ProductID: p.ID, Quantity: 1})
	req.Buyer.Status = invoice.StatusPending
	req.PaymentMethod = invoice.PaymentUPI

	_, err := f.tr.Checkout(context.Background(), req)
	assert.Equal(t, apperr.KindInsufficientStock, apperr.KindOf(err))
}
