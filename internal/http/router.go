package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/SahilSarmalkar99/MumbaiHacks/internal/http/auth"
	"github.com/SahilSarmalkar99/MumbaiHacks/internal/http/checkout"
	"github.com/SahilSarmalkar99/MumbaiHacks/internal/http/dashboard"
	"github.com/SahilSarmalkar99/MumbaiHacks/internal/http/invoice"
	"github.com/SahilSarmalkar99/MumbaiHacks/internal/http/product"
	"github.com/SahilSarmalkar99/MumbaiHacks/internal/http/respond"
)

type Options struct {
	AllowedOrigins []string
	Timeout        time.Duration
}

func New(
	opts Options,
	verifier *auth.Verifier,
	productsV1 *product.Handler,
	checkoutV1 *checkout.Handler,
	invoicesV1 *invoice.Handler,
	dashboardV1 *dashboard.Handler,
) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if opts.Timeout > 0 {
		router.Use(middleware.Timeout(opts.Timeout))
	}

	router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		respond.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(verifier.Middleware)

		r.Route("/products", productsV1.Routes)

		r.Route("/checkout", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			checkoutV1.Routes(r)
		})

		r.Route("/invoices", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			invoicesV1.Routes(r)
		})

		r.Route("/dashboard", dashboardV1.Routes)

		r.Route("/export", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			invoicesV1.ExportRoutes(r)
		})
	})

	return router
}
