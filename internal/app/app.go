// Package app assembles the services shared by the API server and the TUI.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/SahilSarmalkar99/MumbaiHacks/internal/catalog"
	"github.com/SahilSarmalkar99/MumbaiHacks/internal/catalog/importer"
	catalogStore "github.com/SahilSarmalkar99/MumbaiHacks/internal/catalog/store"
	"github.com/SahilSarmalkar99/MumbaiHacks/internal/checkout"
	checkoutStore "github.com/SahilSarmalkar99/MumbaiHacks/internal/checkout/store"
	"github.com/SahilSarmalkar99/MumbaiHacks/internal/config"
	"github.com/SahilSarmalkar99/MumbaiHacks/internal/dashboard"
	"github.com/SahilSarmalkar99/MumbaiHacks/internal/database"
	"github.com/SahilSarmalkar99/MumbaiHacks/internal/export"
	"github.com/SahilSarmalkar99/MumbaiHacks/internal/inventory"
	inventoryStore "github.com/SahilSarmalkar99/MumbaiHacks/internal/inventory/store"
	"github.com/SahilSarmalkar99/MumbaiHacks/internal/invoice"
	invoiceStore "github.com/SahilSarmalkar99/MumbaiHacks/internal/invoice/store"
	"github.com/SahilSarmalkar99/MumbaiHacks/internal/store/memory"
	"github.com/SahilSarmalkar99/MumbaiHacks/internal/txn"
)

type Services struct {
	Catalog    *catalog.Service
	Inventory  *inventory.Service
	Importer   *importer.Service
	Invoices   *invoice.Service
	Export     *export.Service
	Dashboard  *dashboard.Service
	Transactor *checkout.Transactor

	db *sql.DB
}

// Close releases the database pool, if any.
func (s *Services) Close() error {
	if s.db == nil {
		return nil
	}

	return s.db.Close()
}

type repositories struct {
	catalog   catalog.Repository
	inventory inventory.Repository
	invoices  invoice.Repository
	checkout  checkout.Store
	// export and dashboard read through the same listing as invoices
	listing export.Repository
}

// New opens the configured store and builds every service on top of it.
// notifier may be nil.
func New(ctx context.Context, cfg *config.Config, notifier checkout.Notifier) (*Services, error) {
	policy := txn.Policy{
		MaxAttempts: cfg.Checkout.MaxAttempts,
		BaseDelay:   txn.DefaultPolicy().BaseDelay,
		Timeout:     cfg.Checkout.TxTimeout,
	}

	var (
		repos repositories
		db    *sql.DB
	)

	switch cfg.DB.Driver {
	case config.DriverMemory:
		slog.Warn("using in-memory store, data is lost on exit")

		store := memory.New(memory.WithPolicy(policy))
		repos = repositories{catalog: store, inventory: store, invoices: store, checkout: store, listing: store}
	default:
		var err error

		db, err = database.New(cfg.ConnectionString())
		if err != nil {
			return nil, fmt.Errorf("connecting to database: %w", err)
		}

		if err := database.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrating database: %w", err)
		}

		invoices := invoiceStore.New(db)
		repos = repositories{
			catalog:   catalogStore.New(db),
			inventory: inventoryStore.New(db, policy),
			invoices:  invoices,
			checkout:  checkoutStore.New(db, policy),
			listing:   invoices,
		}
	}

	catalogService := catalog.NewService(repos.catalog, cfg.App.Currency)

	return &Services{
		Catalog:    catalogService,
		Inventory:  inventory.NewService(repos.inventory, time.Now),
		Importer:   importer.NewService(catalogService),
		Invoices:   invoice.NewService(repos.invoices),
		Export:     export.NewService(repos.listing),
		Dashboard:  dashboard.NewService(repos.listing, time.Now),
		Transactor: checkout.NewTransactor(repos.checkout, notifier, time.Now),
		db:         db,
	}, nil
}
