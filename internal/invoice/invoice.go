package invoice

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/SahilSarmalkar99/MumbaiHacks/internal/apperr"
)

// DefaultTemplate is the rendering template used when a sale does not pick one.
const DefaultTemplate = "classic"

var (
	ErrNotFound = apperr.New(apperr.KindNotFound, "invoice not found")
	// ErrStatusChanged is returned by stores when the invoice left the expected
	// status between read and write.
	ErrStatusChanged = apperr.New(apperr.KindInvalidRequest, "invoice status changed concurrently")
)

// Status represents the lifecycle state of an invoice. Pending and sent both
// mean issued but unpaid.
type Status string

const (
	StatusDraft   Status = "draft"
	StatusPending Status = "pending"
	StatusSent    Status = "sent"
	StatusPaid    Status = "paid"
)

var transitions = map[Status][]Status{
	StatusDraft:   {StatusPending, StatusSent, StatusPaid},
	StatusPending: {StatusSent, StatusPaid},
	StatusSent:    {StatusPaid},
}

func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusPending, StatusSent, StatusPaid:
		return true
	}

	return false
}

// Unpaid reports whether the invoice has been issued and awaits payment.
func (s Status) Unpaid() bool {
	return s == StatusPending || s == StatusSent
}

// CanTransition reports whether an invoice may move from s to next.
// Transitions only move forward.
func (s Status) CanTransition(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}

	return false
}

type PaymentMethod string

const (
	PaymentCash         PaymentMethod = "cash"
	PaymentCard         PaymentMethod = "card"
	PaymentUPI          PaymentMethod = "upi"
	PaymentBankTransfer PaymentMethod = "bank_transfer"
)

type BuyerInfo struct {
	Name    string `validate:"required,max=200"`
	Contact string `validate:"required,max=100"`
	Address string `validate:"max=500"`
	Date    time.Time
	Status  Status `validate:"omitempty,oneof=draft pending sent paid"`
}

// LineItem is a priced snapshot of one product at the time of sale. It never
// follows later catalog edits.
type LineItem struct {
	ProductID    uuid.UUID       `json:"product_id"`
	Name         string          `json:"name"`
	SKU          string          `json:"sku,omitempty"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Quantity     int64           `json:"quantity"`
	TaxPercent   decimal.Decimal `json:"tax_percent"`
	LineSubtotal decimal.Decimal `json:"line_subtotal"`
	TaxAmount    decimal.Decimal `json:"tax_amount"`
	LineTotal    decimal.Decimal `json:"line_total"`
}

var hundred = decimal.NewFromInt(100)

// NewLineItem prices qty units at unitPrice with exact decimal arithmetic.
func NewLineItem(productID uuid.UUID, name, sku string, unitPrice decimal.Decimal, qty int64, taxPercent decimal.Decimal) LineItem {
	subtotal := unitPrice.Mul(decimal.NewFromInt(qty))
	tax := subtotal.Mul(taxPercent).Div(hundred)

	return LineItem{
		ProductID:    productID,
		Name:         name,
		SKU:          sku,
		UnitPrice:    unitPrice,
		Quantity:     qty,
		TaxPercent:   taxPercent,
		LineSubtotal: subtotal,
		TaxAmount:    tax,
		LineTotal:    subtotal.Add(tax),
	}
}

// Invoice is the frozen record of a sale. Totals are computed once at
// checkout and never recalculated.
type Invoice struct {
	ID            uuid.UUID
	SellerID      string
	Buyer         BuyerInfo
	Items         []LineItem
	Subtotal      decimal.Decimal
	TotalTax      decimal.Decimal
	Total         decimal.Decimal
	Currency      string
	PaymentMethod PaymentMethod
	TemplateID    string
	CreatedAt     time.Time
	UpdatedAt     *time.Time
	DeletedAt     *time.Time
}

// ApplyTotals sets Subtotal, TotalTax and Total from the line items.
func (inv *Invoice) ApplyTotals() {
	subtotal, tax := decimal.Zero, decimal.Zero

	for _, it := range inv.Items {
		subtotal = subtotal.Add(it.LineSubtotal)
		tax = tax.Add(it.TaxAmount)
	}

	inv.Subtotal = subtotal
	inv.TotalTax = tax
	inv.Total = subtotal.Add(tax)
}

func (inv *Invoice) TotalQuantity() int64 {
	var n int64
	for _, it := range inv.Items {
		n += it.Quantity
	}

	return n
}

// EffectiveDate is the buyer-supplied transaction date, or the creation time
// when none was given.
func (inv *Invoice) EffectiveDate() time.Time {
	if inv.Buyer.Date.IsZero() {
		return inv.CreatedAt
	}

	return inv.Buyer.Date
}
