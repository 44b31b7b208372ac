package invoice_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/SahilSarmalkar99/MumbaiHacks/internal/invoice"
)

func TestNewLineItem(t *testing.T) {
	item := invoice.NewLineItem(uuid.New(), "Kettle", "KT-1",
		decimal.NewFromInt(100), 2, decimal.NewFromInt(18))

	assert.Equal(t, "200", item.LineSubtotal.String())
	assert.Equal(t, "36", item.TaxAmount.String())
	assert.Equal(t, "236", item.LineTotal.String())
}

func TestInvoice_ApplyTotals(t *testing.T) {
	inv := &invoice.Invoice{
		Items: []invoice.LineItem{
			invoice.NewLineItem(uuid.New(), "Tea", "", decimal.RequireFromString("12.35"), 3, decimal.RequireFromString("12.5")),
			invoice.NewLineItem(uuid.New(), "Sugar", "", decimal.RequireFromString("0.10"), 7, decimal.Zero),
		},
	}

	inv.ApplyTotals()

	// 37.05 + 0.70 subtotal; 37.05 * 12.5% = 4.63125 tax.
	assert.True(t, inv.Subtotal.Equal(decimal.RequireFromString("37.75")), inv.Subtotal.String())
	assert.True(t, inv.TotalTax.Equal(decimal.RequireFromString("4.63125")), inv.TotalTax.String())
	assert.True(t, inv.Total.Equal(inv.Subtotal.Add(inv.TotalTax)))
	assert.Equal(t, int64(10), inv.TotalQuantity())
}

func TestStatus_CanTransition(t *testing.T) {
	tests := []struct {
		from, to invoice.Status
		want     bool
	}{
		{invoice.StatusDraft, invoice.StatusPending, true},
		{invoice.StatusDraft, invoice.StatusPaid, true},
		{invoice.StatusPending, invoice.StatusSent, true},
		{invoice.StatusSent, invoice.StatusPaid, true},
		{invoice.StatusSent, invoice.StatusPending, false},
		{invoice.StatusPaid, invoice.StatusDraft, false},
		{invoice.StatusPaid, invoice.StatusPaid, false},
		{invoice.StatusDraft, invoice.StatusDraft, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransition(tt.to))
		})
	}
}

func TestInvoice_EffectiveDate(t *testing.T) {
	created := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	inv := &invoice.Invoice{CreatedAt: created}

	assert.Equal(t, created, inv.EffectiveDate())

	inv.Buyer.Date = time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, inv.Buyer.Date, inv.EffectiveDate())
}
