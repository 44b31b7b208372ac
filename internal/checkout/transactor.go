// Package checkout turns a cart into a committed invoice. Stock checks,
// stock decrements, ledger entries and the invoice are written in a single
// store transaction, so a sale either happens completely or not at all.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/SahilSarmalkar99/MumbaiHacks/internal/apperr"
	"github.com/SahilSarmalkar99/MumbaiHacks/internal/catalog"
	"github.com/SahilSarmalkar99/MumbaiHacks/internal/inventory"
	"github.com/SahilSarmalkar99/MumbaiHacks/internal/invoice"
)

// SaleReason is the ledger reason recorded for every sold line.
const SaleReason = "Sale checkout"

//go:generate mockgen -source=transactor.go -destination=transactor_mock.go -package=checkout
type Tx interface {
	inventory.Tx
	CreateInvoice(ctx context.Context, inv *invoice.Invoice) error
}

// Store runs fn atomically, retrying it from scratch on write conflicts.
type Store interface {
	RunCheckout(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Notifier receives committed invoices that need a payment link. It must not block.
type Notifier interface {
	InvoiceCreated(inv *invoice.Invoice)
}

type Line struct {
	ProductID uuid.UUID `validate:"required"`
	Quantity  int64     `validate:"gt=0,max=1000000000"`
}

type Request struct {
	SellerID      string `validate:"required"`
	Buyer         invoice.BuyerInfo
	Lines         []Line                `validate:"required,min=1,dive"`
	PaymentMethod invoice.PaymentMethod `validate:"required,oneof=cash card upi bank_transfer"`
	TemplateID    string                `validate:"max=64"`
}

type Transactor struct {
	store    Store
	notifier Notifier
	validate *validator.Validate
	now      func() time.Time
}

func NewTransactor(store Store, notifier Notifier, now func() time.Time) *Transactor {
	if now == nil {
		now = time.Now
	}

	return &Transactor{
		store:    store,
		notifier: notifier,
		validate: validator.New(),
		now:      now,
	}
}

// Checkout validates the cart against current stock and, if every line can be
// served, decrements stock, appends one ledger entry per line and stores the
// invoice. Duplicate lines for a product are not merged; each consumes stock
// left over by the lines before it.
func (t *Transactor) Checkout(ctx context.Context, req Request) (*invoice.Invoice, error) {
	if len(req.Lines) == 0 {
		return nil, apperr.New(apperr.KindInvalidRequest, "cart is empty")
	}

	req.Buyer.Name = strings.TrimSpace(req.Buyer.Name)
	req.Buyer.Contact = strings.TrimSpace(req.Buyer.Contact)

	if err := t.validate.Struct(req); err != nil {
		return nil, apperr.Invalid(err)
	}

	now := t.now().UTC()

	if req.Buyer.Date.IsZero() {
		req.Buyer.Date = now
	}

	if req.Buyer.Status == "" {
		req.Buyer.Status = invoice.StatusDraft
	}

	if req.TemplateID == "" {
		req.TemplateID = invoice.DefaultTemplate
	}

	var inv *invoice.Invoice

	err := t.store.RunCheckout(ctx, func(ctx context.Context, tx Tx) error {
		built, err := t.apply(ctx, tx, req, now)
		if err != nil {
			return err
		}

		inv = built

		return nil
	})
	if err != nil {
		return nil, apperr.FromStore(err)
	}

	if t.notifier != nil && inv.Buyer.Status == invoice.StatusPending && inv.PaymentMethod == invoice.PaymentUPI {
		t.notifier.InvoiceCreated(inv)
	}

	return inv, nil
}

type plannedLine struct {
	product *catalog.Product
	qty     int64
	before  int64
	after   int64
}

func (t *Transactor) apply(ctx context.Context, tx Tx, req Request, now time.Time) (*invoice.Invoice, error) {
	products := make(map[uuid.UUID]*catalog.Product, len(req.Lines))
	remaining := make(map[uuid.UUID]int64, len(req.Lines))

	var failed []apperr.FailedItem

	plan := make([]plannedLine, 0, len(req.Lines))

	for _, line := range req.Lines {
		p, seen := products[line.ProductID]
		if !seen {
			got, err := tx.GetProduct(ctx, line.ProductID)
			if err != nil && !errors.Is(err, catalog.ErrNotFound) {
				return nil, fmt.Errorf("reading product %s: %w", line.ProductID, err)
			}

			products[line.ProductID] = got
			if got != nil {
				remaining[line.ProductID] = got.Stock
			}

			p = got
		}

		if p == nil {
			failed = append(failed, apperr.FailedItem{ProductID: line.ProductID, Requested: line.Quantity})
			continue
		}

		available := remaining[p.ID]
		if available < line.Quantity {
			failed = append(failed, apperr.FailedItem{
				ProductID: p.ID,
				Requested: line.Quantity,
				Available: available,
			})

			continue
		}

		remaining[p.ID] = available - line.Quantity
		plan = append(plan, plannedLine{product: p, qty: line.Quantity, before: available, after: available - line.Quantity})
	}

	if len(failed) > 0 {
		return nil, apperr.InsufficientStock(failed)
	}

	currency := plan[0].product.Currency
	for _, pl := range plan[1:] {
		if pl.product.Currency != currency {
			return nil, apperr.New(apperr.KindInvalidRequest,
				fmt.Sprintf("cart mixes currencies %s and %s", currency, pl.product.Currency))
		}
	}

	inv := &invoice.Invoice{
		ID:            uuid.New(),
		SellerID:      req.SellerID,
		Buyer:         req.Buyer,
		Items:         make([]invoice.LineItem, 0, len(plan)),
		Currency:      currency,
		PaymentMethod: req.PaymentMethod,
		TemplateID:    req.TemplateID,
		CreatedAt:     now,
	}

	for _, pl := range plan {
		p := pl.product
		inv.Items = append(inv.Items, invoice.NewLineItem(p.ID, p.Name, p.SKU, p.UnitPrice, pl.qty, p.TaxPercent))

		if err := tx.SetStock(ctx, p.ID, pl.after); err != nil {
			return nil, fmt.Errorf("decrementing stock of %s: %w", p.ID, err)
		}

		if err := tx.AppendLog(ctx, &inventory.LogEntry{
			ID:            uuid.New(),
			ProductID:     p.ID,
			Change:        -pl.qty,
			PreviousStock: pl.before,
			NewStock:      pl.after,
			Reason:        SaleReason,
			ActorID:       req.SellerID,
			CreatedAt:     now,
		}); err != nil {
			return nil, fmt.Errorf("appending log for %s: %w", p.ID, err)
		}
	}

	inv.ApplyTotals()

	if err := tx.CreateInvoice(ctx, inv); err != nil {
		return nil, fmt.Errorf("creating invoice: %w", err)
	}

	return inv, nil
}
