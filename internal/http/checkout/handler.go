package checkout

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/SahilSarmalkar99/MumbaiHacks/internal/checkout"
	"github.com/SahilSarmalkar99/MumbaiHacks/internal/http/auth"
	invoiceHandler "github.com/SahilSarmalkar99/MumbaiHacks/internal/http/invoice"
	"github.com/SahilSarmalkar99/MumbaiHacks/internal/http/respond"
	"github.com/SahilSarmalkar99/MumbaiHacks/internal/invoice"
)

type Handler struct {
	transactor *checkout.Transactor
}

func NewHandler(t *checkout.Transactor) *Handler {
	return &Handler{transactor: t}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.checkout)
}

type buyerRequest struct {
	Name    string         `json:"name"`
	Contact string         `json:"contact"`
	Address string         `json:"address"`
	Date    *time.Time     `json:"date,omitempty"`
	Status  invoice.Status `json:"status"`
}

type itemRequest struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int64     `json:"quantity"`
}

type checkoutRequest struct {
	Buyer         buyerRequest          `json:"buyer_info"`
	Items         []itemRequest         `json:"items"`
	PaymentMethod invoice.PaymentMethod `json:"payment_method"`
	TemplateID    string                `json:"template_id"`
}

type checkoutResponse struct {
	Status    string                  `json:"status"`
	InvoiceID uuid.UUID               `json:"invoice_id"`
	Invoice   invoiceHandler.Response `json:"invoice"`
}

func (req checkoutRequest) toDomain(sellerID string) checkout.Request {
	lines := make([]checkout.Line, len(req.Items))
	for i, it := range req.Items {
		lines[i] = checkout.Line(it)
	}

	buyer := invoice.BuyerInfo{
		Name:    req.Buyer.Name,
		Contact: req.Buyer.Contact,
		Address: req.Buyer.Address,
		Status:  req.Buyer.Status,
	}
	if req.Buyer.Date != nil {
		buyer.Date = *req.Buyer.Date
	}

	return checkout.Request{
		SellerID:      sellerID,
		Buyer:         buyer,
		Lines:         lines,
		PaymentMethod: req.PaymentMethod,
		TemplateID:    req.TemplateID,
	}
}

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.BadRequest(w, err.Error())
		return
	}

	inv, err := h.transactor.Checkout(r.Context(), req.toDomain(auth.SellerID(r.Context())))
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusCreated, checkoutResponse{
		Status:    respond.StatusSuccess,
		InvoiceID: inv.ID,
		Invoice:   invoiceHandler.ToResponse(inv),
	})
}
