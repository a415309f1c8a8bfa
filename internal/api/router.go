package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/api/handlers"
	custommiddleware "github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/api/middleware"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/config"
	"github.com/ndewijer/Stock-Portfolio-Tracker-Backend/internal/service"
)

// Services bundles the services the router exposes.
type Services struct {
	System    *service.SystemService
	Portfolio *service.PortfolioService
	Market    *service.MarketService
	Upload    *service.UploadService
}

// NewRouter creates and configures the HTTP router
func NewRouter(svc Services, cfg *config.Config, log zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(custommiddleware.Logger(log))
	r.Use(middleware.Recoverer)

	r.Use(custommiddleware.NewCORS(cfg.CORS.AllowedOrigins))

	requireKey := custommiddleware.APIKeyMiddleware(cfg.APIKey)

	systemHandler := handlers.NewSystemHandler(svc.System)
	portfolioHandler := handlers.NewPortfolioHandler(svc.Portfolio)
	marketHandler := handlers.NewMarketHandler(svc.Market)
	uploadHandler := handlers.NewUploadHandler(svc.Upload, cfg.Upload.MaxBytes)

	// API routes
	r.Route("/api", func(r chi.Router) {
		// System namespace
		r.Route("/system", func(r chi.Router) {
			r.Get("/health", systemHandler.Health)
			r.Get("/version", systemHandler.Version)
		})

		r.Route("/portfolio", func(r chi.Router) {
			r.Get("/", portfolioHandler.Portfolio)

			r.Group(func(r chi.Router) {
				r.Use(requireKey)
				r.Post("/upload", uploadHandler.Upload)
				r.Post("/refresh", portfolioHandler.Refresh)
				r.Put("/auto-refresh", portfolioHandler.AutoRefresh)
			})
		})

		r.Route("/market", func(r chi.Router) {
			r.Get("/quote/{ticker}", marketHandler.Quote)
			r.Get("/cache", marketHandler.CacheStats)
			r.With(requireKey).Delete("/cache", marketHandler.ClearCache)
		})

		r.Route("/uploads", func(r chi.Router) {
			r.Get("/", uploadHandler.List)
			r.Route("/{uuid}", func(r chi.Router) {
				r.Use(custommiddleware.ValidateUUIDMiddleware)
				r.With(requireKey).Post("/restore", uploadHandler.Restore)
			})
		})
	})

	return r
}
