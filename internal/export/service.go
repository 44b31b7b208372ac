// Package export flattens invoices into spreadsheet rows and bundles them for
// download.
package export

import (
	"archive/zip"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/SahilSarmalkar99/MumbaiHacks/internal/invoice"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=export
type Repository interface {
	ListInvoices(ctx context.Context, filter invoice.ListFilter) ([]*invoice.Invoice, error)
}

// Row is one line item together with the invoice it belongs to.
type Row struct {
	Invoice *invoice.Invoice
	Item    invoice.LineItem
}

// Service exports invoices. It reads the repository directly so exports are
// not capped by the listing page size.
type Service struct {
	invoices Repository
}

func NewService(repo Repository) *Service {
	return &Service{invoices: repo}
}

// Export returns one row per line item of every invoice matching filter,
// newest invoice first.
func (s *Service) Export(ctx context.Context, filter invoice.ListFilter) ([]Row, error) {
	filter.Limit = 0

	invoices, err := s.invoices.ListInvoices(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("listing invoices: %w", err)
	}

	rows := make([]Row, 0, len(invoices))

	for _, inv := range invoices {
		for _, it := range inv.Items {
			rows = append(rows, Row{Invoice: inv, Item: it})
		}
	}

	return rows, nil
}

var csvHeader = []string{
	"invoice_id", "date", "seller_id", "buyer_name", "buyer_contact", "status",
	"payment_method", "currency", "product_id", "sku", "name", "quantity",
	"unit_price", "tax_percent", "line_subtotal", "tax_amount", "line_total", "invoice_total",
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// WriteCSV writes rows with a header line. Amounts carry two decimals.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for _, r := range rows {
		inv, it := r.Invoice, r.Item

		record := []string{
			inv.ID.String(),
			inv.EffectiveDate().Format("2006-01-02"),
			inv.SellerID,
			inv.Buyer.Name,
			inv.Buyer.Contact,
			string(inv.Buyer.Status),
			string(inv.PaymentMethod),
			inv.Currency,
			it.ProductID.String(),
			it.SKU,
			it.Name,
			strconv.FormatInt(it.Quantity, 10),
			money(it.UnitPrice),
			it.TaxPercent.String(),
			money(it.LineSubtotal),
			money(it.TaxAmount),
			money(it.LineTotal),
			money(inv.Total),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing invoice %s: %w", inv.ID, err)
		}
	}

	cw.Flush()

	return cw.Error()
}

// invoicesOf returns the distinct invoices of rows in first-seen order.
func invoicesOf(rows []Row) []*invoice.Invoice {
	var out []*invoice.Invoice

	for _, r := range rows {
		if n := len(out); n > 0 && out[n-1] == r.Invoice {
			continue
		}

		out = append(out, r.Invoice)
	}

	return out
}

// GenerateSummary renders one line per invoice followed by grand totals per
// currency.
func GenerateSummary(rows []Row) string {
	var sb strings.Builder

	totals := make(map[string]decimal.Decimal)

	for _, inv := range invoicesOf(rows) {
		fmt.Fprintf(&sb, "* %s | %s | %s %s | %s | %s | %d items\n",
			inv.EffectiveDate().Format("2006-01-02"),
			inv.Buyer.Name,
			inv.Currency,
			money(inv.Total),
			inv.Buyer.Status,
			inv.PaymentMethod,
			inv.TotalQuantity(),
		)

		totals[inv.Currency] = totals[inv.Currency].Add(inv.Total)
	}

	currencies := make([]string, 0, len(totals))
	for c := range totals {
		currencies = append(currencies, c)
	}

	slices.Sort(currencies)

	for _, c := range currencies {
		fmt.Fprintf(&sb, "Total %s: %s\n", c, money(totals[c]))
	}

	return sb.String()
}

// WriteArchive writes a zip holding invoices.csv and summary.txt.
func WriteArchive(w io.Writer, rows []Row) error {
	zw := zip.NewWriter(w)

	f, err := zw.Create("invoices.csv")
	if err != nil {
		return fmt.Errorf("creating invoices.csv: %w", err)
	}

	if err := WriteCSV(f, rows); err != nil {
		return err
	}

	f, err = zw.Create("summary.txt")
	if err != nil {
		return fmt.Errorf("creating summary.txt: %w", err)
	}

	if _, err := io.WriteString(f, GenerateSummary(rows)); err != nil {
		return fmt.Errorf("writing summary: %w", err)
	}

	return zw.Close()
}
