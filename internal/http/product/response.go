package product

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/SahilSarmalkar99/MumbaiHacks/internal/catalog"
	"github.com/SahilSarmalkar99/MumbaiHacks/internal/catalog/importer"
	"github.com/SahilSarmalkar99/MumbaiHacks/internal/inventory"
)

type productResponse struct {
	ID                 uuid.UUID       `json:"id"`
	Name               string          `json:"name"`
	SKU                string          `json:"sku,omitempty"`
	UnitPrice          decimal.Decimal `json:"unit_price"`
	Currency           string          `json:"currency"`
	Stock              int64           `json:"stock"`
	TaxPercent         decimal.Decimal `json:"tax_percent"`
	Unit               string          `json:"unit,omitempty"`
	AllowNegativeStock bool            `json:"allow_negative_stock"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          *time.Time      `json:"updated_at,omitempty"`
	DeletedAt          *time.Time      `json:"deleted_at,omitempty"`
}

func toResponse(p *catalog.Product) productResponse {
	return productResponse{
		ID:                 p.ID,
		Name:               p.Name,
		SKU:                p.SKU,
		UnitPrice:          p.UnitPrice,
		Currency:           p.Currency,
		Stock:              p.Stock,
		TaxPercent:         p.TaxPercent,
		Unit:               p.Unit,
		AllowNegativeStock: p.AllowNegativeStock,
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
		DeletedAt:          p.DeletedAt,
	}
}

func toResponseList(ps []*catalog.Product) []productResponse {
	resp := make([]productResponse, len(ps))
	for i, p := range ps {
		resp[i] = toResponse(p)
	}

	return resp
}

type logResponse struct {
	ID            uuid.UUID `json:"id"`
	ProductID     uuid.UUID `json:"product_id"`
	Change        int64     `json:"change"`
	PreviousStock int64     `json:"previous_stock"`
	NewStock      int64     `json:"new_stock"`
	Reason        string    `json:"reason"`
	ActorID       string    `json:"actor_id"`
	CreatedAt     time.Time `json:"created_at"`
}

func toLogResponse(e *inventory.LogEntry) logResponse {
	return logResponse{
		ID:            e.ID,
		ProductID:     e.ProductID,
		Change:        e.Change,
		PreviousStock: e.PreviousStock,
		NewStock:      e.NewStock,
		Reason:        e.Reason,
		ActorID:       e.ActorID,
		CreatedAt:     e.CreatedAt,
	}
}

type auditResponse struct {
	ProductID  uuid.UUID `json:"product_id"`
	Stock      int64     `json:"stock"`
	LedgerSum  int64     `json:"ledger_sum"`
	Drift      int64     `json:"drift"`
	Consistent bool      `json:"consistent"`
	Repaired   bool      `json:"repaired"`
	CheckedAt  time.Time `json:"checked_at"`
}

func toAuditResponse(r *inventory.AuditReport) auditResponse {
	return auditResponse{
		ProductID:  r.ProductID,
		Stock:      r.Stock,
		LedgerSum:  r.LedgerSum,
		Drift:      r.Drift,
		Consistent: r.Consistent(),
		Repaired:   r.Repaired,
		CheckedAt:  r.CheckedAt,
	}
}

type importResponse struct {
	Profile  string              `json:"profile"`
	Imported int                 `json:"imported"`
	Products []productResponse   `json:"products"`
	Skipped  []importer.RowError `json:"skipped"`
}

func toImportResponse(res *importer.Result) importResponse {
	return importResponse{
		Profile:  res.Profile,
		Imported: len(res.Created),
		Products: toResponseList(res.Created),
		Skipped:  res.Skipped,
	}
}
