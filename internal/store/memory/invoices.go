package memory

import (
	"context"
	"slices"

	"github.com/google/uuid"

	"github.com/SahilSarmalkar99/MumbaiHacks/internal/invoice"
)

func cloneInvoice(inv *invoice.Invoice) *invoice.Invoice {
	c := *inv
	c.Items = slices.Clone(inv.Items)

	return &c
}

func (s *Store) findInvoice(id uuid.UUID) *invoice.Invoice {
	for _, inv := range s.invoices {
		if inv.ID == id && inv.DeletedAt == nil {
			return inv
		}
	}

	return nil
}

func (s *Store) GetInvoice(_ context.Context, id uuid.UUID) (*invoice.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inv := s.findInvoice(id)
	if inv == nil {
		return nil, invoice.ErrNotFound
	}

	return cloneInvoice(inv), nil
}

func (s *Store) ListInvoices(_ context.Context, filter invoice.ListFilter) ([]*invoice.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*invoice.Invoice

	for _, inv := range s.invoices {
		if inv.DeletedAt != nil {
			continue
		}

		if filter.SellerID != "" && inv.SellerID != filter.SellerID {
			continue
		}

		if filter.Status != nil && inv.Buyer.Status != *filter.Status {
			continue
		}

		date := inv.EffectiveDate()
		if filter.StartDate != nil && date.Before(*filter.StartDate) {
			continue
		}

		if filter.EndDate != nil && date.After(*filter.EndDate) {
			continue
		}

		out = append(out, cloneInvoice(inv))
	}

	// Stable sort over commit order keeps ties newest first too.
	slices.Reverse(out)
	slices.SortStableFunc(out, func(a, b *invoice.Invoice) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}

	return out, nil
}

func (s *Store) UpdateStatus(_ context.Context, id uuid.UUID, from, to invoice.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv := s.findInvoice(id)
	if inv == nil {
		return invoice.ErrNotFound
	}

	if inv.Buyer.Status != from {
		return invoice.ErrStatusChanged
	}

	now := s.now().UTC()
	inv.Buyer.Status = to
	inv.UpdatedAt = &now

	return nil
}

func (s *Store) DeleteInvoice(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv := s.findInvoice(id)
	if inv == nil {
		return invoice.ErrNotFound
	}

	now := s.now().UTC()
	inv.DeletedAt = &now

	return nil
}
