package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/SahilSarmalkar99/MumbaiHacks/internal/app"
	"github.com/SahilSarmalkar99/MumbaiHacks/internal/checkout"
	"github.com/SahilSarmalkar99/MumbaiHacks/internal/config"
	billHttp "github.com/SahilSarmalkar99/MumbaiHacks/internal/http"
	"github.com/SahilSarmalkar99/MumbaiHacks/internal/http/auth"
	checkoutHandler "github.com/SahilSarmalkar99/MumbaiHacks/internal/http/checkout"
	dashboardHandler "github.com/SahilSarmalkar99/MumbaiHacks/internal/http/dashboard"
	invoiceHandler "github.com/SahilSarmalkar99/MumbaiHacks/internal/http/invoice"
	productHandler "github.com/SahilSarmalkar99/MumbaiHacks/internal/http/product"
	"github.com/SahilSarmalkar99/MumbaiHacks/internal/notify"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		notifier     *notify.Notifier
		invoiceHooks checkout.Notifier
	)

	if cfg.Agent.URL != "" {
		notifier = notify.New(notify.Config{
			URL:         cfg.Agent.URL,
			Timeout:     cfg.Agent.Timeout,
			QueueSize:   cfg.Agent.QueueSize,
			MaxAttempts: cfg.Agent.MaxAttempts,
		})
		invoiceHooks = notifier
	} else {
		slog.Info("AGENT_URL not set, payment-link notifications disabled")
	}

	svc, err := app.New(ctx, cfg, invoiceHooks)
	if err != nil {
		return err
	}
	defer svc.Close()

	var (
		productH   = productHandler.NewHandler(svc.Catalog, svc.Inventory, svc.Importer)
		checkoutH  = checkoutHandler.NewHandler(svc.Transactor)
		invoiceH   = invoiceHandler.NewHandler(svc.Invoices, svc.Export)
		dashboardH = dashboardHandler.NewHandler(svc.Dashboard)
	)

	router := billHttp.New(
		billHttp.Options{AllowedOrigins: cfg.CORS.AllowedOrigins, Timeout: cfg.Server.Timeout},
		auth.NewVerifier(cfg.Auth.JWTSecret),
		productH, checkoutH, invoiceH, dashboardH,
	)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("starting server", "app", cfg.App.Name, "port", server.Addr, "driver", cfg.DB.Driver)

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}

		return nil
	})

	if notifier != nil {
		g.Go(func() error { return notifier.Run(ctx) })
	}

	g.Go(func() error {
		<-ctx.Done()
		slog.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
