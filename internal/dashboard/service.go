// Package dashboard derives read-only sales rollups from a seller's invoices.
package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/SahilSarmalkar99/MumbaiHacks/internal/invoice"
)

const (
	months      = 6
	recentLimit = 5
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=dashboard
type Repository interface {
	ListInvoices(ctx context.Context, filter invoice.ListFilter) ([]*invoice.Invoice, error)
}

type MonthTotal struct {
	Month time.Time // first day of the month
	Label string
	Total decimal.Decimal
}

type Summary struct {
	TotalSales      decimal.Decimal
	InvoiceCount    int
	PendingInvoices int
	TotalItems      int64
	Monthly         []MonthTotal
	Recent          []*invoice.Invoice
	GeneratedAt     time.Time
}

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}

	return &Service{repo: repo, now: now}
}

// Summary scans every live invoice of the seller. Monthly holds the trailing
// six calendar months, oldest first, bucketed by each invoice's transaction date.
func (s *Service) Summary(ctx context.Context, sellerID string) (*Summary, error) {
	invoices, err := s.repo.ListInvoices(ctx, invoice.ListFilter{SellerID: sellerID})
	if err != nil {
		return nil, fmt.Errorf("listing invoices: %w", err)
	}

	now := s.now()
	loc := now.Location()
	current := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)

	sum := &Summary{
		TotalSales:   decimal.Zero,
		InvoiceCount: len(invoices),
		Monthly:      make([]MonthTotal, months),
		GeneratedAt:  now,
	}

	for i := range months {
		m := current.AddDate(0, i-(months-1), 0)
		sum.Monthly[i] = MonthTotal{Month: m, Label: m.Format("Jan 2006"), Total: decimal.Zero}
	}

	for _, inv := range invoices {
		sum.TotalSales = sum.TotalSales.Add(inv.Total)
		sum.TotalItems += inv.TotalQuantity()

		if inv.Buyer.Status.Unpaid() {
			sum.PendingInvoices++
		}

		d := inv.EffectiveDate().In(loc)
		bucket := monthsBetween(sum.Monthly[0].Month, time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, loc))

		if bucket >= 0 && bucket < months {
			sum.Monthly[bucket].Total = sum.Monthly[bucket].Total.Add(inv.Total)
		}
	}

	// ListInvoices returns newest first.
	sum.Recent = invoices[:min(recentLimit, len(invoices))]

	return sum, nil
}

func monthsBetween(from, to time.Time) int {
	return (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
}
