package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/ndewijer/Personal-Finance-Backend/internal/api/handlers"
	custommiddleware "github.com/ndewijer/Personal-Finance-Backend/internal/api/middleware"
	"github.com/ndewijer/Personal-Finance-Backend/internal/config"
	"github.com/ndewijer/Personal-Finance-Backend/internal/service"
)

// NewRouter creates and configures the HTTP router
func NewRouter(
	systemService *service.SystemService,
	transactionService *service.TransactionService,
	holdingService *service.HoldingService,
	securityService *service.SecurityService,
	priceService *service.PriceService,
	cfg *config.Config,
	log zerolog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(custommiddleware.Logger(log.With().Str("component", "http").Logger()))
	r.Use(middleware.Recoverer)

	// CORS middleware
	corsMiddleware := custommiddleware.NewCORS(cfg.CORS.AllowedOrigins)
	r.Use(corsMiddleware.Handler)

	// API routes
	r.Route("/api", func(r chi.Router) {
		// System namespace
		r.Route("/system", func(r chi.Router) {
			systemHandler := handlers.NewSystemHandler(systemService)
			r.Get("/health", systemHandler.Health)
			r.Get("/version", systemHandler.Version)
		})

		r.Route("/transaction", func(r chi.Router) {
			transactionHandler := handlers.NewTransactionHandler(transactionService)
			r.Post("/", transactionHandler.CreateTransaction)

			r.With(custommiddleware.ValidateUUIDMiddleware).
				Get("/account/{uuid}", transactionHandler.TransactionsPerAccount)

			r.Route("/{uuid}", func(r chi.Router) {
				r.Use(custommiddleware.ValidateUUIDMiddleware)
				r.Get("/", transactionHandler.GetTransaction)
				r.Put("/", transactionHandler.UpdateTransaction)
				r.Delete("/", transactionHandler.DeleteTransaction)
			})
		})

		r.Route("/holding", func(r chi.Router) {
			holdingHandler := handlers.NewHoldingHandler(holdingService)

			r.With(custommiddleware.ValidateUUIDMiddleware).
				Get("/account/{uuid}", holdingHandler.HoldingsPerAccount)

			r.Route("/{accountId}/{securityId}", func(r chi.Router) {
				r.Use(custommiddleware.ValidateUUIDParam("accountId"))
				r.Get("/", holdingHandler.GetHolding)
				r.Get("/valuation", holdingHandler.GetValuation)
				r.Post("/rebuild", holdingHandler.RebuildHolding)
			})
		})

		r.Route("/security", func(r chi.Router) {
			securityHandler := handlers.NewSecurityHandler(securityService, priceService)
			r.Post("/resolve", securityHandler.ResolveSecurity)
			r.Post("/refresh-prices", securityHandler.RefreshPrices)
			r.Get("/{securityId}", securityHandler.GetSecurity)
			r.Get("/{securityId}/price", securityHandler.GetPrice)
		})
	})

	return r
}
