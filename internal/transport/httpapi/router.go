package httpapi

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jlzm/MoneyNotes/internal/transport/httpapi/handler"
	"github.com/jlzm/MoneyNotes/internal/transport/httpapi/middleware"
	"github.com/jlzm/MoneyNotes/pkg/logger"
)

// Config holds router configuration
type Config struct {
	Logger          *logger.Logger
	AllowedOrigins  []string
	AuthHandler     *handler.AuthHandler
	BillHandler     *handler.BillHandler
	CategoryHandler *handler.CategoryHandler
	StatsHandler    *handler.StatsHandler
	HealthHandler   *handler.HealthHandler
}

// NewRouter creates a new HTTP router
func NewRouter(cfg Config) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(chimiddleware.Compress(5))
	r.Use(middleware.RateLimit()) // Rate limiting: 100 req/s with burst of 20
	r.Use(middleware.Metrics)

	// Health and metrics (outside the API prefix)
	r.Get("/health", handler.GetHealth)
	r.Get("/health/live", handler.GetLiveness)
	if cfg.HealthHandler != nil {
		r.Get("/health/ready", cfg.HealthHandler.GetReadiness)
	}
	r.Handle("/metrics", promhttp.Handler())

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		if cfg.AuthHandler != nil {
			r.Post("/auth/login", cfg.AuthHandler.Login)
			r.Post("/auth/logout", cfg.AuthHandler.Logout)

			r.Get("/ledgers", cfg.AuthHandler.ListLedgers)
			r.Get("/ledgers/current", cfg.AuthHandler.GetCurrentLedger)
			r.Put("/ledgers/current", cfg.AuthHandler.SelectLedger)
		}

		if cfg.BillHandler != nil {
			r.Route("/bills", func(r chi.Router) {
				r.Get("/", cfg.BillHandler.ListBills)
				r.Post("/", cfg.BillHandler.CreateBill)

				if cfg.StatsHandler != nil {
					r.Get("/statistics", cfg.StatsHandler.GetStatistics)
					r.Get("/statistics/category", cfg.StatsHandler.GetCategoryStatistics)
					r.Get("/statistics/trend", cfg.StatsHandler.GetTrendStatistics)
				}

				r.Get("/{id}", cfg.BillHandler.GetBill)
				r.Put("/{id}", cfg.BillHandler.UpdateBill)
				r.Delete("/{id}", cfg.BillHandler.DeleteBill)
			})
		}

		if cfg.CategoryHandler != nil {
			r.Route("/categories", func(r chi.Router) {
				r.Get("/", cfg.CategoryHandler.ListCategories)
				r.Post("/", cfg.CategoryHandler.CreateCategory)
				r.Get("/icons", cfg.CategoryHandler.ListIcons)
				r.Get("/{id}", cfg.CategoryHandler.GetCategory)
				r.Put("/{id}", cfg.CategoryHandler.UpdateCategory)
				r.Delete("/{id}", cfg.CategoryHandler.DeleteCategory)
			})
		}
	})

	return r
}
