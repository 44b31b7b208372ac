package importer

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/SahilSarmalkar99/MumbaiHacks/internal/apperr"
	"github.com/SahilSarmalkar99/MumbaiHacks/internal/catalog"
)

//go:generate mockgen -source=service.go -destination=creator_mock.go -package=importer
type Creator interface {
	Create(ctx context.Context, params catalog.CreateParams) (*catalog.Product, error)
}

type RowError struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

type Result struct {
	Profile string
	Created []*catalog.Product
	Skipped []RowError
}

type Service struct {
	products Creator
	parser   *Parser
}

func NewService(products Creator) *Service {
	return &Service{products: products, parser: NewParser()}
}

// Import creates one product per valid row, attributing the opening stock
// to actorID. Rows the parser or validation rejects are reported in Skipped
// and do not stop the run. A store failure aborts the import; products
// created before it stay in place.
func (s *Service) Import(ctx context.Context, r io.Reader, actorID string) (*Result, error) {
	profile, rows, err := s.parser.Parse(r)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInvalidRequest, "unreadable product sheet", err)
	}

	res := &Result{Profile: profile.Name, Created: []*catalog.Product{}, Skipped: []RowError{}}

	for _, row := range rows {
		if row.Err != nil {
			res.Skipped = append(res.Skipped, RowError{Line: row.Line, Reason: row.Err.Error()})
			continue
		}

		row.Params.ActorID = actorID

		p, err := s.products.Create(ctx, row.Params)
		if err != nil {
			if apperr.Is(err, apperr.KindInvalidRequest) {
				res.Skipped = append(res.Skipped, RowError{Line: row.Line, Reason: err.Error()})
				continue
			}

			return res, fmt.Errorf("line %d: %w", row.Line, err)
		}

		res.Created = append(res.Created, p)
	}

	slog.Info("product sheet imported",
		"profile", profile.Name,
		"created", len(res.Created),
		"skipped", len(res.Skipped),
	)

	return res, nil
}
