package http_test

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SahilSarmalkar99/MumbaiHacks/internal/catalog"
	"github.com/SahilSarmalkar99/MumbaiHacks/internal/catalog/importer"
	"github.com/SahilSarmalkar99/MumbaiHacks/internal/checkout"
	"github.com/SahilSarmalkar99/MumbaiHacks/internal/dashboard"
	"github.com/SahilSarmalkar99/MumbaiHacks/internal/export"
	api "github.com/SahilSarmalkar99/MumbaiHacks/internal/http"
	"github.com/SahilSarmalkar99/MumbaiHacks/internal/http/auth"
	checkoutHandler "github.com/SahilSarmalkar99/MumbaiHacks/internal/http/checkout"
	dashboardHandler "github.com/SahilSarmalkar99/MumbaiHacks/internal/http/dashboard"
	invoiceHandler "github.com/SahilSarmalkar99/MumbaiHacks/internal/http/invoice"
	productHandler "github.com/SahilSarmalkar99/MumbaiHacks/internal/http/product"
	"github.com/SahilSarmalkar99/MumbaiHacks/internal/inventory"
	"github.com/SahilSarmalkar99/MumbaiHacks/internal/invoice"
	"github.com/SahilSarmalkar99/MumbaiHacks/internal/store/memory"
)

const secret = "test-secret"

type testAPI struct {
	t        *testing.T
	handler  http.Handler
	verifier *auth.Verifier
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	store := memory.New()
	now := func() time.Time { return time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC) }

	var (
		catalogService   = catalog.NewService(store, "INR")
		inventoryService = inventory.NewService(store, now)
		importService    = importer.NewService(catalogService)
		invoiceService   = invoice.NewService(store)
		exportService    = export.NewService(store)
		dashboardService = dashboard.NewService(store, now)
		transactor       = checkout.NewTransactor(store, nil, now)
	)

	verifier := auth.NewVerifier(secret)

	return &testAPI{
		t:        t,
		verifier: verifier,
		handler: api.New(
			api.Options{AllowedOrigins: []string{"http://localhost:5173"}},
			verifier,
			productHandler.NewHandler(catalogService, inventoryService, importService),
			checkoutHandler.NewHandler(transactor),
			invoiceHandler.NewHandler(invoiceService, exportService),
			dashboardHandler.NewHandler(dashboardService),
		),
	}
}

func (a *testAPI) do(method, path, seller string, body any) *httptest.ResponseRecorder {
	a.t.Helper()

	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(a.t, json.NewEncoder(&buf).Encode(b))
	}

	req := httptest.NewRequest(method, path, &buf)
	if buf.Len() > 0 {
		req.Header.Set("Content-Type", "application/json")
	}

	a.authorize(req, seller)

	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)

	return rec
}

func (a *testAPI) authorize(req *http.Request, seller string) {
	if seller == "" {
		return
	}

	token, err := a.verifier.Sign(seller, time.Hour)
	require.NoError(a.t, err)
	req.Header.Set("Authorization", "Bearer "+token)
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())

	return out
}

func (a *testAPI) createProduct(name string, stock int64) string {
	a.t.Helper()

	rec := a.do(http.MethodPost, "/api/v1/products", "seller-1", map[string]any{
		"name":        name,
		"unit_price":  "120.00",
		"stock":       stock,
		"tax_percent": "5",
	})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())

	return decode(a.t, rec)["id"].(string)
}

func TestHealth(t *testing.T) {
	rec := newTestAPI(t).do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuth(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(http.MethodGet, "/api/v1/products", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")

	rec = httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", decode(t, rec)["kind"])
}

func TestProducts(t *testing.T) {
	a := newTestAPI(t)
	id := a.createProduct("Masala Chai", 5)

	rec := a.do(http.MethodGet, "/api/v1/products/"+id, "seller-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "Masala Chai", body["name"])
	assert.Equal(t, "INR", body["currency"])
	assert.Equal(t, "120", body["unit_price"])

	rec = a.do(http.MethodPatch, "/api/v1/products/"+id, "seller-1", map[string]any{"unit_price": "99.50"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "99.5", decode(t, rec)["unit_price"])

	rec = a.do(http.MethodPost, "/api/v1/products/"+id+"/stock", "seller-1", map[string]any{"delta": 3, "reason": "Restock"})
	require.Equal(t, http.StatusCreated, rec.Code)
	entry := decode(t, rec)
	assert.EqualValues(t, 5, entry["previous_stock"])
	assert.EqualValues(t, 8, entry["new_stock"])
	assert.Equal(t, "seller-1", entry["actor_id"])

	rec = a.do(http.MethodPost, "/api/v1/products/"+id+"/stock", "seller-1", map[string]any{"delta": -10, "reason": "Damaged"})
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "negative_stock_rejected", decode(t, rec)["kind"])

	rec = a.do(http.MethodGet, "/api/v1/products/"+id+"/logs", "seller-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var logs []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &logs))
	require.Len(t, logs, 2)
	assert.Equal(t, "Restock", logs[0]["reason"])
	assert.Equal(t, catalog.OpeningStockReason, logs[1]["reason"])

	rec = a.do(http.MethodGet, "/api/v1/products/"+id+"/audit", "seller-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode(t, rec)["consistent"])

	rec = a.do(http.MethodDelete, "/api/v1/products/"+id, "seller-1", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = a.do(http.MethodGet, "/api/v1/products", "seller-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestProducts_BadInput(t *testing.T) {
	a := newTestAPI(t)

	tests := []struct {
		name     string
		method   string
		path     string
		body     any
		wantCode int
	}{
		{name: "MalformedJSON", method: http.MethodPost, path: "/api/v1/products", body: `{"name":`, wantCode: http.StatusBadRequest},
		{name: "UnknownField", method: http.MethodPost, path: "/api/v1/products", body: `{"title":"x"}`, wantCode: http.StatusBadRequest},
		{name: "MissingName", method: http.MethodPost, path: "/api/v1/products", body: map[string]any{"unit_price": "1"}, wantCode: http.StatusUnprocessableEntity},
		{name: "NegativePrice", method: http.MethodPost, path: "/api/v1/products", body: map[string]any{"name": "x", "unit_price": "-1"}, wantCode: http.StatusUnprocessableEntity},
		{name: "InvalidID", method: http.MethodGet, path: "/api/v1/products/nope", wantCode: http.StatusBadRequest},
		{name: "UnknownProduct", method: http.MethodGet, path: "/api/v1/products/3f0c1f8e-8f53-4c55-9a43-0f8f2a1b9c11", wantCode: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := a.do(tt.method, tt.path, "seller-1", tt.body)
			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			assert.Equal(t, "failed", decode(t, rec)["status"])
		})
	}
}

func TestProducts_Import(t *testing.T) {
	a := newTestAPI(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "products.csv")
	require.NoError(t, err)

	_, err = fw.Write([]byte("name;price;stock\nToor Dal;145,50;30\nBroken;x;1\n"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/products/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	a.authorize(req, "seller-1")

	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	body := decode(t, rec)
	assert.EqualValues(t, 1, body["imported"])

	skipped := body["skipped"].([]any)
	require.Len(t, skipped, 1)
	assert.EqualValues(t, 3, skipped[0].(map[string]any)["line"])
}

func checkoutBody(productID string, qty int, status string) map[string]any {
	return map[string]any{
		"buyer_info": map[string]any{
			"name":    "Asha Traders",
			"contact": "9876543210",
			"status":  status,
		},
		"items":          []map[string]any{{"product_id": productID, "quantity": qty}},
		"payment_method": "upi",
	}
}

func TestCheckout(t *testing.T) {
	a := newTestAPI(t)
	id := a.createProduct("Masala Chai", 3)

	rec := a.do(http.MethodPost, "/api/v1/checkout", "seller-1", checkoutBody(id, 2, "pending"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	body := decode(t, rec)
	assert.Equal(t, "success", body["status"])

	inv := body["invoice"].(map[string]any)
	assert.Equal(t, body["invoice_id"], inv["id"])
	assert.Equal(t, "252", inv["total"])
	assert.Equal(t, "seller-1", inv["seller_id"])
	assert.Equal(t, invoice.DefaultTemplate, inv["template_id"])

	rec = a.do(http.MethodPost, "/api/v1/checkout", "seller-1", checkoutBody(id, 2, "pending"))
	require.Equal(t, http.StatusConflict, rec.Code)

	failure := decode(t, rec)
	assert.Equal(t, "failed", failure["status"])
	assert.Equal(t, "insufficient_stock", failure["kind"])

	items := failure["failed_items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, id, items[0].(map[string]any)["product_id"])
	assert.EqualValues(t, 2, items[0].(map[string]any)["requested"])
	assert.EqualValues(t, 1, items[0].(map[string]any)["available"])
}

func TestCheckout_Rejected(t *testing.T) {
	a := newTestAPI(t)
	id := a.createProduct("Masala Chai", 3)

	tests := []struct {
		name     string
		body     any
		wantCode int
		wantKind string
	}{
		{name: "Malformed", body: `{"items":[`, wantCode: http.StatusBadRequest, wantKind: "invalid_request"},
		{name: "EmptyCart", body: map[string]any{"buyer_info": map[string]any{"name": "a", "contact": "b"}, "payment_method": "cash"}, wantCode: http.StatusUnprocessableEntity, wantKind: "invalid_request"},
		{name: "ZeroQuantity", body: checkoutBody(id, 0, ""), wantCode: http.StatusUnprocessableEntity, wantKind: "invalid_request"},
		{name: "UnknownStatus", body: checkoutBody(id, 1, "overdue"), wantCode: http.StatusUnprocessableEntity, wantKind: "invalid_request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := a.do(http.MethodPost, "/api/v1/checkout", "seller-1", tt.body)
			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			assert.Equal(t, tt.wantKind, decode(t, rec)["kind"])
		})
	}

	rec := a.do(http.MethodGet, "/api/v1/products/"+id, "seller-1", nil)
	assert.EqualValues(t, 3, decode(t, rec)["stock"])
}

func TestInvoices(t *testing.T) {
	a := newTestAPI(t)
	id := a.createProduct("Masala Chai", 10)

	rec := a.do(http.MethodPost, "/api/v1/checkout", "seller-1", checkoutBody(id, 1, "pending"))
	require.Equal(t, http.StatusCreated, rec.Code)
	invoiceID := decode(t, rec)["invoice_id"].(string)

	rec = a.do(http.MethodPost, "/api/v1/checkout", "seller-2", checkoutBody(id, 1, "paid"))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = a.do(http.MethodGet, "/api/v1/invoices", "seller-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var list []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, invoiceID, list[0]["id"])

	rec = a.do(http.MethodGet, "/api/v1/invoices/"+invoiceID, "seller-2", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = a.do(http.MethodPatch, "/api/v1/invoices/"+invoiceID+"/status", "seller-1", map[string]any{"status": "paid"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "paid", decode(t, rec)["buyer_info"].(map[string]any)["status"])

	rec = a.do(http.MethodPatch, "/api/v1/invoices/"+invoiceID+"/status", "seller-1", map[string]any{"status": "pending"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = a.do(http.MethodGet, "/api/v1/invoices?start_date=19-10-2026", "seller-1", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(http.MethodDelete, "/api/v1/invoices/"+invoiceID, "seller-1", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = a.do(http.MethodGet, "/api/v1/invoices/"+invoiceID, "seller-1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = a.do(http.MethodGet, "/api/v1/products/"+id, "seller-1", nil)
	assert.EqualValues(t, 8, decode(t, rec)["stock"], "deleting an invoice does not restock")
}

func TestDashboard(t *testing.T) {
	a := newTestAPI(t)
	id := a.createProduct("Masala Chai", 10)

	for _, status := range []string{"pending", "sent", "paid"} {
		rec := a.do(http.MethodPost, "/api/v1/checkout", "seller-1", checkoutBody(id, 1, status))
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := a.do(http.MethodGet, "/api/v1/dashboard", "seller-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "378", body["total_sales"])
	assert.EqualValues(t, 3, body["invoice_count"])
	assert.EqualValues(t, 2, body["pending_invoices"])
	assert.EqualValues(t, 3, body["total_items"])

	monthly := body["monthly_sales"].([]any)
	require.Len(t, monthly, 6)
	assert.Equal(t, "Oct 2026", monthly[5].(map[string]any)["month"])
	assert.Equal(t, "378", monthly[5].(map[string]any)["total"])
	assert.Len(t, body["recent_invoices"], 3)
}

func TestExport(t *testing.T) {
	a := newTestAPI(t)
	id := a.createProduct("Masala Chai", 10)

	rec := a.do(http.MethodPost, "/api/v1/checkout", "seller-1", checkoutBody(id, 2, "paid"))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = a.do(http.MethodPost, "/api/v1/export", "seller-1", map[string]any{})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/zip", rec.Header().Get("Content-Type"))

	zr, err := zip.NewReader(bytes.NewReader(rec.Body.Bytes()), int64(rec.Body.Len()))
	require.NoError(t, err)
	require.Len(t, zr.File, 2)
	assert.Equal(t, "invoices.csv", zr.File[0].Name)
}
