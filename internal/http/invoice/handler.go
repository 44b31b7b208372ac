package invoice

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/SahilSarmalkar99/MumbaiHacks/internal/export"
	"github.com/SahilSarmalkar99/MumbaiHacks/internal/http/auth"
	"github.com/SahilSarmalkar99/MumbaiHacks/internal/http/respond"
	"github.com/SahilSarmalkar99/MumbaiHacks/internal/invoice"
)

type Handler struct {
	svc    *invoice.Service
	export *export.Service
	now    func() time.Time
}

func NewHandler(svc *invoice.Service, exportSvc *export.Service) *Handler {
	return &Handler{svc: svc, export: exportSvc, now: time.Now}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Patch("/{id}/status", h.updateStatus)
	r.Delete("/{id}", h.delete)
}

// ExportRoutes mounts the zip download.
func (h *Handler) ExportRoutes(r chi.Router) {
	r.Post("/", h.download)
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}

	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, fmt.Errorf("dates must be YYYY-MM-DD")
	}

	return &t, nil
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := invoice.ListFilter{SellerID: auth.SellerID(r.Context())}

	if s := q.Get("status"); s != "" {
		filter.Status = new(invoice.Status(s))
	}

	var err error

	if filter.StartDate, err = parseDate(q.Get("start_date")); err != nil {
		respond.BadRequest(w, err.Error())
		return
	}

	if filter.EndDate, err = parseDate(q.Get("end_date")); err != nil {
		respond.BadRequest(w, err.Error())
		return
	}

	if s := q.Get("limit"); s != "" {
		if filter.Limit, err = strconv.Atoi(s); err != nil {
			respond.BadRequest(w, "limit must be an integer")
			return
		}
	}

	invoices, err := h.svc.List(r.Context(), filter)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, ToResponseList(invoices))
}

// owned loads the invoice named in the URL, hiding other sellers' invoices
// behind a not-found.
func (h *Handler) owned(w http.ResponseWriter, r *http.Request) (*invoice.Invoice, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.BadRequest(w, "invalid id")
		return nil, false
	}

	inv, err := h.svc.Get(r.Context(), id)
	if err == nil && inv.SellerID != auth.SellerID(r.Context()) {
		err = invoice.ErrNotFound
	}

	if err != nil {
		respond.Error(w, r, err)
		return nil, false
	}

	return inv, true
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	inv, ok := h.owned(w, r)
	if !ok {
		return
	}

	respond.JSON(w, http.StatusOK, ToResponse(inv))
}

type updateStatusRequest struct {
	Status invoice.Status `json:"status"`
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.BadRequest(w, err.Error())
		return
	}

	inv, ok := h.owned(w, r)
	if !ok {
		return
	}

	updated, err := h.svc.UpdateStatus(r.Context(), inv.ID, req.Status)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, ToResponse(updated))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	inv, ok := h.owned(w, r)
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), inv.ID); err != nil {
		respond.Error(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type exportRequest struct {
	StartDate *time.Time      `json:"start_date,omitempty"`
	EndDate   *time.Time      `json:"end_date,omitempty"`
	Status    *invoice.Status `json:"status,omitempty"`
}

func (h *Handler) download(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if r.ContentLength != 0 {
		if err := respond.Decode(r, &req); err != nil {
			respond.BadRequest(w, err.Error())
			return
		}
	}

	rows, err := h.export.Export(r.Context(), invoice.ListFilter{
		SellerID:  auth.SellerID(r.Context()),
		Status:    req.Status,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=\"invoices_%s.zip\"", h.now().Format("20060102")))

	if err := export.WriteArchive(w, rows); err != nil {
		respond.LogError(r, "failed to write export archive", err)
	}
}
