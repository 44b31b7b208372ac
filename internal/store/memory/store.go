// Package memory is an in-process document store implementing the catalog,
// inventory, invoice and checkout repositories. Transactions are optimistic:
// reads remember the version of every product they touch and the commit is
// refused if any of those versions moved, after which the body is rerun.
package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/SahilSarmalkar99/MumbaiHacks/internal/catalog"
	"github.com/SahilSarmalkar99/MumbaiHacks/internal/inventory"
	"github.com/SahilSarmalkar99/MumbaiHacks/internal/invoice"
	"github.com/SahilSarmalkar99/MumbaiHacks/internal/txn"
)

type productRecord struct {
	product catalog.Product
	version uint64
}

type Store struct {
	mu       sync.RWMutex
	products map[uuid.UUID]*productRecord
	logs     []inventory.LogEntry
	invoices []*invoice.Invoice

	policy     txn.Policy
	now        func() time.Time
	commitHook func(attempt int) error
}

type Option func(*Store)

func WithPolicy(p txn.Policy) Option {
	return func(s *Store) { s.policy = p }
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithCommitHook installs fn to run just before each transaction commit with
// the 1-based attempt number. A non-nil return aborts that attempt with the
// returned error; returning txn.ErrConflict forces a retry.
func WithCommitHook(fn func(attempt int) error) Option {
	return func(s *Store) { s.commitHook = fn }
}

func New(opts ...Option) *Store {
	s := &Store{
		products: make(map[uuid.UUID]*productRecord),
		policy:   txn.DefaultPolicy(),
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *Store) CreateProduct(_ context.Context, p *catalog.Product, actorID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p.CreatedAt = s.now().UTC()
	s.products[p.ID] = &productRecord{product: *p, version: 1}

	if p.Stock != 0 {
		s.logs = append(s.logs, inventory.LogEntry{
			ID:        uuid.New(),
			ProductID: p.ID,
			Change:    p.Stock,
			NewStock:  p.Stock,
			Reason:    catalog.OpeningStockReason,
			ActorID:   actorID,
			CreatedAt: p.CreatedAt,
		})
	}

	return nil
}

func (s *Store) GetProduct(_ context.Context, id uuid.UUID) (*catalog.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.products[id]
	if !ok || rec.product.Deleted() {
		return nil, catalog.ErrNotFound
	}

	p := rec.product

	return &p, nil
}

func (s *Store) ListProducts(_ context.Context, filter catalog.ListFilter) ([]*catalog.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q := strings.ToLower(filter.Query)

	var out []*catalog.Product

	for _, rec := range s.products {
		if rec.product.Deleted() && !filter.IncludeDeleted {
			continue
		}

		if q != "" &&
			!strings.Contains(strings.ToLower(rec.product.Name), q) &&
			!strings.Contains(strings.ToLower(rec.product.SKU), q) {
			continue
		}

		p := rec.product
		out = append(out, &p)
	}

	slices.SortFunc(out, func(a, b *catalog.Product) int {
		return cmp.Or(
			strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)),
			a.CreatedAt.Compare(b.CreatedAt),
		)
	})

	return out, nil
}

func (s *Store) UpdateProduct(_ context.Context, p *catalog.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.products[p.ID]
	if !ok || rec.product.Deleted() {
		return catalog.ErrNotFound
	}

	now := s.now().UTC()

	cur := &rec.product
	cur.Name = p.Name
	cur.SKU = p.SKU
	cur.UnitPrice = p.UnitPrice
	cur.Currency = p.Currency
	cur.TaxPercent = p.TaxPercent
	cur.Unit = p.Unit
	cur.AllowNegativeStock = p.AllowNegativeStock
	cur.UpdatedAt = &now
	rec.version++

	p.Stock = cur.Stock
	p.UpdatedAt = &now

	return nil
}

func (s *Store) DeleteProduct(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.products[id]
	if !ok || rec.product.Deleted() {
		return catalog.ErrNotFound
	}

	now := s.now().UTC()
	rec.product.DeletedAt = &now
	rec.version++

	return nil
}

func (s *Store) ListLogs(_ context.Context, filter inventory.LogFilter) ([]*inventory.LogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*inventory.LogEntry

	// logs are kept in commit order, so walking backwards yields newest first.
	for i := len(s.logs) - 1; i >= 0; i-- {
		e := s.logs[i]
		if filter.ProductID != nil && e.ProductID != *filter.ProductID {
			continue
		}

		out = append(out, &e)

		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}

	return out, nil
}
