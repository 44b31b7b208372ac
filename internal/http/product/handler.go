package product

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/SahilSarmalkar99/MumbaiHacks/internal/catalog"
	"github.com/SahilSarmalkar99/MumbaiHacks/internal/catalog/importer"
	"github.com/SahilSarmalkar99/MumbaiHacks/internal/http/auth"
	"github.com/SahilSarmalkar99/MumbaiHacks/internal/http/respond"
	"github.com/SahilSarmalkar99/MumbaiHacks/internal/inventory"
)

const maxUploadSize = 10 << 20

type Handler struct {
	catalog   *catalog.Service
	inventory *inventory.Service
	importer  *importer.Service
}

func NewHandler(catalogSvc *catalog.Service, inventorySvc *inventory.Service, importSvc *importer.Service) *Handler {
	return &Handler{
		catalog:   catalogSvc,
		inventory: inventorySvc,
		importer:  importSvc,
	}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/import", h.importCSV)

	r.Group(func(r chi.Router) {
		r.Use(middleware.AllowContentType("application/json"))

		r.Post("/", h.create)
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
		r.Patch("/{id}", h.update)
		r.Delete("/{id}", h.delete)
		r.Post("/{id}/stock", h.addStock)
		r.Get("/{id}/logs", h.logs)
		r.Get("/{id}/audit", h.audit)
		r.Post("/{id}/repair", h.repair)
	})
}

func productID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.BadRequest(w, "invalid id")
		return uuid.Nil, false
	}

	return id, true
}

type createProductRequest struct {
	Name               string          `json:"name"`
	SKU                string          `json:"sku"`
	UnitPrice          decimal.Decimal `json:"unit_price"`
	Currency           string          `json:"currency"`
	Stock              int64           `json:"stock"`
	TaxPercent         decimal.Decimal `json:"tax_percent"`
	Unit               string          `json:"unit"`
	AllowNegativeStock bool            `json:"allow_negative_stock"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.BadRequest(w, err.Error())
		return
	}

	p, err := h.catalog.Create(r.Context(), catalog.CreateParams{
		Name:               req.Name,
		SKU:                req.SKU,
		UnitPrice:          req.UnitPrice,
		Currency:           req.Currency,
		Stock:              req.Stock,
		TaxPercent:         req.TaxPercent,
		Unit:               req.Unit,
		AllowNegativeStock: req.AllowNegativeStock,
		ActorID:            auth.SellerID(r.Context()),
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusCreated, toResponse(p))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter := catalog.ListFilter{Query: r.URL.Query().Get("q")}

	if s := r.URL.Query().Get("include_deleted"); s != "" {
		include, err := strconv.ParseBool(s)
		if err != nil {
			respond.BadRequest(w, "include_deleted must be a boolean")
			return
		}

		filter.IncludeDeleted = include
	}

	products, err := h.catalog.List(r.Context(), filter)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponseList(products))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}

	p, err := h.catalog.Get(r.Context(), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponse(p))
}

type updateProductRequest struct {
	Name               *string          `json:"name,omitempty"`
	SKU                *string          `json:"sku,omitempty"`
	UnitPrice          *decimal.Decimal `json:"unit_price,omitempty"`
	Currency           *string          `json:"currency,omitempty"`
	TaxPercent         *decimal.Decimal `json:"tax_percent,omitempty"`
	Unit               *string          `json:"unit,omitempty"`
	AllowNegativeStock *bool            `json:"allow_negative_stock,omitempty"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}

	var req updateProductRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.BadRequest(w, err.Error())
		return
	}

	p, err := h.catalog.Update(r.Context(), id, catalog.UpdateParams(req))
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponse(p))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}

	if err := h.catalog.Delete(r.Context(), id); err != nil {
		respond.Error(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type addStockRequest struct {
	Delta  int64  `json:"delta"`
	Reason string `json:"reason"`
}

func (h *Handler) addStock(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}

	var req addStockRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.BadRequest(w, err.Error())
		return
	}

	entry, err := h.inventory.AddStock(r.Context(), inventory.AdjustParams{
		ProductID: id,
		Delta:     req.Delta,
		Reason:    req.Reason,
		ActorID:   auth.SellerID(r.Context()),
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusCreated, toLogResponse(entry))
}

func (h *Handler) logs(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}

	filter := inventory.LogFilter{ProductID: &id}

	if s := r.URL.Query().Get("limit"); s != "" {
		limit, err := strconv.Atoi(s)
		if err != nil {
			respond.BadRequest(w, "limit must be an integer")
			return
		}

		filter.Limit = limit
	}

	entries, err := h.inventory.ListLogs(r.Context(), filter)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	resp := make([]logResponse, len(entries))
	for i, e := range entries {
		resp[i] = toLogResponse(e)
	}

	respond.JSON(w, http.StatusOK, resp)
}

func (h *Handler) audit(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}

	report, err := h.inventory.Audit(r.Context(), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toAuditResponse(report))
}

func (h *Handler) repair(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}

	report, err := h.inventory.Repair(r.Context(), id, auth.SellerID(r.Context()))
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toAuditResponse(report))
}

func (h *Handler) importCSV(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		respond.BadRequest(w, "failed to parse form: "+err.Error())
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		respond.BadRequest(w, "file field is required")
		return
	}
	defer file.Close()

	res, err := h.importer.Import(r.Context(), file, auth.SellerID(r.Context()))
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusCreated, toImportResponse(res))
}
