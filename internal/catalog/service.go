package catalog

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/SahilSarmalkar99/MumbaiHacks/internal/apperr"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=catalog
type Repository interface {
	// CreateProduct inserts p and, when p.Stock is non-zero, its opening
	// ledger entry attributed to actorID, in one transaction.
	CreateProduct(ctx context.Context, p *Product, actorID string) error
	GetProduct(ctx context.Context, id uuid.UUID) (*Product, error)
	ListProducts(ctx context.Context, filter ListFilter) ([]*Product, error)
	// UpdateProduct writes the catalog fields of p. Stock is left untouched.
	UpdateProduct(ctx context.Context, p *Product) error
	DeleteProduct(ctx context.Context, id uuid.UUID) error
}

type Service struct {
	repo     Repository
	validate *validator.Validate
	currency string
}

func NewService(repo Repository, defaultCurrency string) *Service {
	return &Service{
		repo:     repo,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		currency: strings.ToUpper(defaultCurrency),
	}
}

type CreateParams struct {
	Name               string `validate:"required,max=200"`
	SKU                string `validate:"max=64"`
	UnitPrice          decimal.Decimal
	Currency           string `validate:"omitempty,len=3,alpha"`
	Stock              int64  `validate:"gte=0,max=1000000000"`
	TaxPercent         decimal.Decimal
	Unit               string `validate:"max=32"`
	AllowNegativeStock bool
	ActorID            string `validate:"required"`
}

type UpdateParams struct {
	Name               *string `validate:"omitempty,min=1,max=200"`
	SKU                *string `validate:"omitempty,max=64"`
	UnitPrice          *decimal.Decimal
	Currency           *string `validate:"omitempty,len=3,alpha"`
	TaxPercent         *decimal.Decimal
	Unit               *string `validate:"omitempty,max=32"`
	AllowNegativeStock *bool
}

type ListFilter struct {
	Query          string
	IncludeDeleted bool
}

var hundred = decimal.NewFromInt(100)

func checkPricing(price, tax decimal.Decimal) error {
	if price.IsNegative() {
		return apperr.New(apperr.KindInvalidRequest, "unit price must not be negative")
	}

	if tax.IsNegative() || tax.GreaterThan(hundred) {
		return apperr.New(apperr.KindInvalidRequest, "tax percent must be between 0 and 100")
	}

	return nil
}

func (s *Service) Create(ctx context.Context, params CreateParams) (*Product, error) {
	if err := s.validate.Struct(params); err != nil {
		return nil, apperr.Invalid(err)
	}

	if err := checkPricing(params.UnitPrice, params.TaxPercent); err != nil {
		return nil, err
	}

	currency := strings.ToUpper(params.Currency)
	if currency == "" {
		currency = s.currency
	}

	p := &Product{
		ID:                 uuid.New(),
		Name:               strings.TrimSpace(params.Name),
		SKU:                strings.TrimSpace(params.SKU),
		UnitPrice:          params.UnitPrice,
		Currency:           currency,
		Stock:              params.Stock,
		TaxPercent:         params.TaxPercent,
		Unit:               params.Unit,
		AllowNegativeStock: params.AllowNegativeStock,
	}
	if err := s.repo.CreateProduct(ctx, p, params.ActorID); err != nil {
		return nil, err
	}

	return p, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Product, error) {
	return s.repo.GetProduct(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Product, error) {
	filter.Query = strings.TrimSpace(filter.Query)
	return s.repo.ListProducts(ctx, filter)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, params UpdateParams) (*Product, error) {
	if err := s.validate.Struct(params); err != nil {
		return nil, apperr.Invalid(err)
	}

	p, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	if params.Name != nil {
		p.Name = strings.TrimSpace(*params.Name)
	}

	if params.SKU != nil {
		p.SKU = strings.TrimSpace(*params.SKU)
	}

	if params.UnitPrice != nil {
		p.UnitPrice = *params.UnitPrice
	}

	if params.Currency != nil {
		p.Currency = strings.ToUpper(*params.Currency)
	}

	if params.TaxPercent != nil {
		p.TaxPercent = *params.TaxPercent
	}

	if params.Unit != nil {
		p.Unit = *params.Unit
	}

	if params.AllowNegativeStock != nil {
		p.AllowNegativeStock = *params.AllowNegativeStock
	}

	if err := checkPricing(p.UnitPrice, p.TaxPercent); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateProduct(ctx, p); err != nil {
		return nil, err
	}

	return p, nil
}

// Delete hides the product from the catalog. Invoices keep their snapshots.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteProduct(ctx, id)
}
