package memory

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/SahilSarmalkar99/MumbaiHacks/internal/catalog"
	"github.com/SahilSarmalkar99/MumbaiHacks/internal/checkout"
	"github.com/SahilSarmalkar99/MumbaiHacks/internal/inventory"
	"github.com/SahilSarmalkar99/MumbaiHacks/internal/invoice"
	"github.com/SahilSarmalkar99/MumbaiHacks/internal/txn"
)

// tx buffers writes until commit. reads holds the product versions observed
// by the body; commit validates them all before applying anything.
type tx struct {
	s        *Store
	reads    map[uuid.UUID]uint64
	stock    map[uuid.UUID]int64
	logs     []inventory.LogEntry
	invoices []*invoice.Invoice
}

func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, tx inventory.Tx) error) error {
	return s.run(ctx, func(ctx context.Context, t *tx) error { return fn(ctx, t) })
}

func (s *Store) RunCheckout(ctx context.Context, fn func(ctx context.Context, tx checkout.Tx) error) error {
	return s.run(ctx, func(ctx context.Context, t *tx) error { return fn(ctx, t) })
}

func (s *Store) run(ctx context.Context, body func(ctx context.Context, t *tx) error) error {
	attempt := 0

	return txn.Retry(ctx, s.policy, func(ctx context.Context) error {
		attempt++

		if err := ctx.Err(); err != nil {
			return fmt.Errorf("starting transaction: %w", err)
		}

		t := &tx{
			s:     s,
			reads: make(map[uuid.UUID]uint64),
			stock: make(map[uuid.UUID]int64),
		}

		if err := body(ctx, t); err != nil {
			return err
		}

		if err := ctx.Err(); err != nil {
			return fmt.Errorf("committing transaction: %w", err)
		}

		return t.commit(attempt)
	})
}

func (t *tx) commit(attempt int) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	for id, version := range t.reads {
		rec, ok := t.s.products[id]
		if !ok || rec.version != version {
			return fmt.Errorf("product %s changed: %w", id, txn.ErrConflict)
		}
	}

	if t.s.commitHook != nil {
		if err := t.s.commitHook(attempt); err != nil {
			return err
		}
	}

	now := t.s.now().UTC()

	for id, stock := range t.stock {
		rec := t.s.products[id]
		rec.product.Stock = stock
		rec.product.UpdatedAt = &now
		rec.version++
	}

	t.s.logs = append(t.s.logs, t.logs...)
	t.s.invoices = append(t.s.invoices, t.invoices...)

	return nil
}

func (t *tx) GetProduct(_ context.Context, id uuid.UUID) (*catalog.Product, error) {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()

	rec, ok := t.s.products[id]
	if !ok || rec.product.Deleted() {
		return nil, catalog.ErrNotFound
	}

	if _, seen := t.reads[id]; !seen {
		t.reads[id] = rec.version
	}

	p := rec.product
	if stock, ok := t.stock[id]; ok {
		p.Stock = stock
	}

	return &p, nil
}

func (t *tx) SetStock(ctx context.Context, id uuid.UUID, stock int64) error {
	if _, seen := t.reads[id]; !seen {
		if _, err := t.GetProduct(ctx, id); err != nil {
			return err
		}
	}

	t.stock[id] = stock

	return nil
}

func (t *tx) AppendLog(_ context.Context, e *inventory.LogEntry) error {
	t.logs = append(t.logs, *e)
	return nil
}

func (t *tx) SumLogs(_ context.Context, productID uuid.UUID) (int64, error) {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()

	var sum int64

	for _, e := range t.s.logs {
		if e.ProductID == productID {
			sum += e.Change
		}
	}

	for _, e := range t.logs {
		if e.ProductID == productID {
			sum += e.Change
		}
	}

	return sum, nil
}

func (t *tx) CreateInvoice(_ context.Context, inv *invoice.Invoice) error {
	t.invoices = append(t.invoices, cloneInvoice(inv))
	return nil
}

// Corrupt overwrites a product's stock without touching the ledger. It exists
// so drift detection can be exercised.
func (s *Store) Corrupt(id uuid.UUID, stock int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec, ok := s.products[id]; ok {
		rec.product.Stock = stock
		rec.version++
	}
}
