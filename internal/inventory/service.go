package inventory

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/SahilSarmalkar99/MumbaiHacks/internal/apperr"
)

const defaultLogLimit = 100

// MaxAdjustment bounds the size of a single stock change in either direction.
const MaxAdjustment = 1_000_000_000

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=inventory
type Repository interface {
	TxRunner
	ListLogs(ctx context.Context, filter LogFilter) ([]*LogEntry, error)
}

type Service struct {
	repo     Repository
	validate *validator.Validate
	now      func() time.Time
}

func NewService(repo Repository, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}

	return &Service{
		repo:     repo,
		validate: validator.New(),
		now:      now,
	}
}

type AdjustParams struct {
	ProductID uuid.UUID `validate:"required"`
	Delta     int64     `validate:"ne=0,min=-1000000000,max=1000000000"`
	Reason    string    `validate:"required,max=200"`
	ActorID   string    `validate:"required"`
}

type LogFilter struct {
	ProductID *uuid.UUID
	Limit     int
}

// AuditReport compares a product's materialised stock with its ledger.
type AuditReport struct {
	ProductID uuid.UUID
	Stock     int64
	LedgerSum int64
	Drift     int64
	Repaired  bool
	CheckedAt time.Time
}

func (r *AuditReport) Consistent() bool {
	return r.Drift == 0
}

// AddStock applies a signed delta to a product's stock and records it in the
// ledger. Stock may only go negative for products that allow it.
func (s *Service) AddStock(ctx context.Context, params AdjustParams) (*LogEntry, error) {
	params.Reason = strings.TrimSpace(params.Reason)
	if err := s.validate.Struct(params); err != nil {
		return nil, apperr.Invalid(err)
	}

	var entry *LogEntry

	err := s.repo.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		p, err := tx.GetProduct(ctx, params.ProductID)
		if err != nil {
			return err
		}

		newStock, ok := addStock(p.Stock, params.Delta)
		if !ok {
			return apperr.New(apperr.KindInvalidRequest,
				fmt.Sprintf("changing stock of %q by %d is out of range", p.Name, params.Delta))
		}

		if newStock < 0 && !p.AllowNegativeStock {
			return apperr.New(apperr.KindNegativeStockRejected,
				fmt.Sprintf("stock of %q would drop to %d", p.Name, newStock))
		}

		if err := tx.SetStock(ctx, p.ID, newStock); err != nil {
			return fmt.Errorf("setting stock: %w", err)
		}

		e := &LogEntry{
			ID:            uuid.New(),
			ProductID:     p.ID,
			Change:        params.Delta,
			PreviousStock: p.Stock,
			NewStock:      newStock,
			Reason:        params.Reason,
			ActorID:       params.ActorID,
			CreatedAt:     s.now().UTC(),
		}
		if err := tx.AppendLog(ctx, e); err != nil {
			return fmt.Errorf("appending log: %w", err)
		}

		entry = e

		return nil
	})
	if err != nil {
		return nil, apperr.FromStore(err)
	}

	return entry, nil
}

// addStock returns stock+delta, or false when the sum does not fit in an int64.
func addStock(stock, delta int64) (int64, bool) {
	if (delta > 0 && stock > math.MaxInt64-delta) || (delta < 0 && stock < math.MinInt64-delta) {
		return 0, false
	}

	return stock + delta, true
}

func (s *Service) ListLogs(ctx context.Context, filter LogFilter) ([]*LogEntry, error) {
	if filter.Limit <= 0 || filter.Limit > defaultLogLimit {
		filter.Limit = defaultLogLimit
	}

	return s.repo.ListLogs(ctx, filter)
}

// Audit recomputes the product's stock from its ledger without changing anything.
func (s *Service) Audit(ctx context.Context, productID uuid.UUID) (*AuditReport, error) {
	var report *AuditReport

	err := s.repo.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		r, err := s.audit(ctx, tx, productID)
		if err != nil {
			return err
		}

		report = r

		return nil
	})
	if err != nil {
		return nil, apperr.FromStore(err)
	}

	return report, nil
}

// Repair resets a drifted stock field to the ledger sum. The ledger itself is
// never rewritten.
func (s *Service) Repair(ctx context.Context, productID uuid.UUID, actorID string) (*AuditReport, error) {
	var report *AuditReport

	err := s.repo.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		r, err := s.audit(ctx, tx, productID)
		if err != nil {
			return err
		}

		if !r.Consistent() {
			if err := tx.SetStock(ctx, productID, r.LedgerSum); err != nil {
				return fmt.Errorf("setting stock: %w", err)
			}

			r.Repaired = true
		}

		report = r

		return nil
	})
	if err != nil {
		return nil, apperr.FromStore(err)
	}

	if report.Repaired {
		slog.Warn("repaired stock drift",
			"product_id", productID, "stock", report.Stock, "ledger_sum", report.LedgerSum, "actor", actorID)
	}

	return report, nil
}

func (s *Service) audit(ctx context.Context, tx Tx, productID uuid.UUID) (*AuditReport, error) {
	p, err := tx.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	sum, err := tx.SumLogs(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("summing logs: %w", err)
	}

	return &AuditReport{
		ProductID: productID,
		Stock:     p.Stock,
		LedgerSum: sum,
		Drift:     p.Stock - sum,
		CheckedAt: s.now().UTC(),
	}, nil
}

