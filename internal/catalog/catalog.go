package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/SahilSarmalkar99/MumbaiHacks/internal/apperr"
)

// OpeningStockReason labels the ledger entry written when a product is
// created with stock on hand.
const OpeningStockReason = "Opening stock"

var ErrNotFound = apperr.New(apperr.KindNotFound, "product not found")

// Product is a sellable catalog item. Stock is the materialised sum of the
// product's inventory ledger and is only written by stock-changing operations.
type Product struct {
	ID                 uuid.UUID
	Name               string
	SKU                string
	UnitPrice          decimal.Decimal
	Currency           string
	Stock              int64
	TaxPercent         decimal.Decimal
	Unit               string
	AllowNegativeStock bool
	CreatedAt          time.Time
	UpdatedAt          *time.Time
	DeletedAt          *time.Time
}

func (p *Product) Deleted() bool {
	return p.DeletedAt != nil
}
