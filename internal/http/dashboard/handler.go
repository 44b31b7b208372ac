package dashboard

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/SahilSarmalkar99/MumbaiHacks/internal/dashboard"
	"github.com/SahilSarmalkar99/MumbaiHacks/internal/http/auth"
	invoiceHandler "github.com/SahilSarmalkar99/MumbaiHacks/internal/http/invoice"
	"github.com/SahilSarmalkar99/MumbaiHacks/internal/http/respond"
)

type Handler struct {
	svc *dashboard.Service
}

func NewHandler(svc *dashboard.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.summary)
}

type monthResponse struct {
	Month string          `json:"month"`
	Total decimal.Decimal `json:"total"`
}

type summaryResponse struct {
	TotalSales      decimal.Decimal           `json:"total_sales"`
	InvoiceCount    int                       `json:"invoice_count"`
	PendingInvoices int                       `json:"pending_invoices"`
	TotalItems      int64                     `json:"total_items"`
	Monthly         []monthResponse           `json:"monthly_sales"`
	Recent          []invoiceHandler.Response `json:"recent_invoices"`
	GeneratedAt     time.Time                 `json:"generated_at"`
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.svc.Summary(r.Context(), auth.SellerID(r.Context()))
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	monthly := make([]monthResponse, len(sum.Monthly))
	for i, m := range sum.Monthly {
		monthly[i] = monthResponse{Month: m.Label, Total: m.Total}
	}

	respond.JSON(w, http.StatusOK, summaryResponse{
		TotalSales:      sum.TotalSales,
		InvoiceCount:    sum.InvoiceCount,
		PendingInvoices: sum.PendingInvoices,
		TotalItems:      sum.TotalItems,
		Monthly:         monthly,
		Recent:          invoiceHandler.ToResponseList(sum.Recent),
		GeneratedAt:     sum.GeneratedAt,
	})
}
