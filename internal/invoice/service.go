package invoice

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/SahilSarmalkar99/MumbaiHacks/internal/apperr"
)

const DefaultListLimit = 100

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=invoice
type Repository interface {
	GetInvoice(ctx context.Context, id uuid.UUID) (*Invoice, error)
	ListInvoices(ctx context.Context, filter ListFilter) ([]*Invoice, error)
	// UpdateStatus moves the invoice from one status to another, returning
	// ErrStatusChanged if it is no longer in from.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) error
	DeleteInvoice(ctx context.Context, id uuid.UUID) error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ListFilter selects invoices by seller, status and transaction date range.
// Results are newest first.
type ListFilter struct {
	SellerID  string
	Status    *Status
	StartDate *time.Time
	EndDate   *time.Time
	Limit     int
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	return s.repo.GetInvoice(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Invoice, error) {
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, apperr.New(apperr.KindInvalidRequest, fmt.Sprintf("unknown status %q", *filter.Status))
	}

	if filter.Limit <= 0 || filter.Limit > DefaultListLimit {
		filter.Limit = DefaultListLimit
	}

	return s.repo.ListInvoices(ctx, filter)
}

// UpdateStatus moves an invoice forward in its lifecycle.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) (*Invoice, error) {
	if !status.Valid() {
		return nil, apperr.New(apperr.KindInvalidRequest, fmt.Sprintf("unknown status %q", status))
	}

	inv, err := s.repo.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}

	if !inv.Buyer.Status.CanTransition(status) {
		return nil, apperr.New(apperr.KindInvalidRequest,
			fmt.Sprintf("cannot move invoice from %s to %s", inv.Buyer.Status, status))
	}

	if err := s.repo.UpdateStatus(ctx, id, inv.Buyer.Status, status); err != nil {
		return nil, err
	}

	inv.Buyer.Status = status

	return inv, nil
}

// Delete removes the invoice from listings. Stock sold on it is not returned.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteInvoice(ctx, id)
}
