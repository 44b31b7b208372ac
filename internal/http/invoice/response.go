package invoice

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/SahilSarmalkar99/MumbaiHacks/internal/invoice"
)

type buyerResponse struct {
	Name    string         `json:"name"`
	Contact string         `json:"contact"`
	Address string         `json:"address,omitempty"`
	Date    time.Time      `json:"date"`
	Status  invoice.Status `json:"status"`
}

// Response is the JSON form of an invoice, shared with the checkout and
// dashboard handlers.
type Response struct {
	ID            uuid.UUID             `json:"id"`
	SellerID      string                `json:"seller_id"`
	Buyer         buyerResponse         `json:"buyer_info"`
	Items         []invoice.LineItem    `json:"items"`
	Subtotal      decimal.Decimal       `json:"subtotal"`
	TotalTax      decimal.Decimal       `json:"total_tax"`
	Total         decimal.Decimal       `json:"total"`
	Currency      string                `json:"currency"`
	PaymentMethod invoice.PaymentMethod `json:"payment_method"`
	TemplateID    string                `json:"template_id"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     *time.Time            `json:"updated_at,omitempty"`
}

func ToResponse(inv *invoice.Invoice) Response {
	return Response{
		ID:       inv.ID,
		SellerID: inv.SellerID,
		Buyer: buyerResponse{
			Name:    inv.Buyer.Name,
			Contact: inv.Buyer.Contact,
			Address: inv.Buyer.Address,
			Date:    inv.EffectiveDate(),
			Status:  inv.Buyer.Status,
		},
		Items:         inv.Items,
		Subtotal:      inv.Subtotal,
		TotalTax:      inv.TotalTax,
		Total:         inv.Total,
		Currency:      inv.Currency,
		PaymentMethod: inv.PaymentMethod,
		TemplateID:    inv.TemplateID,
		CreatedAt:     inv.CreatedAt,
		UpdatedAt:     inv.UpdatedAt,
	}
}

func ToResponseList(invoices []*invoice.Invoice) []Response {
	resp := make([]Response, len(invoices))
	for i, inv := range invoices {
		resp[i] = ToResponse(inv)
	}

	return resp
}
